package tasks

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixdisc/internal/cache"
	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/services"
	"github.com/desertthunder/mixdisc/internal/shared"
)

// Resolution is a manual playlist resolved against one service.
type Resolution struct {
	Result    *models.ServiceResult
	Missing   []models.Entry // entries whose slot is nil
	CacheHits int            // entries answered by the track cache, negative answers included
	Lookups   int            // entries sent to the service
	Errors    int            // service lookups that failed
}

// Resolver resolves manual playlists entry by entry through the track cache.
//
// A nil track store sends every entry to the service.
type Resolver struct {
	tracks *cache.TrackStore
	logger *log.Logger
}

// NewResolver creates a Resolver. Either argument may be nil.
func NewResolver(tracks *cache.TrackStore, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Resolver{tracks: tracks, logger: logger}
}

// Resolve looks up every entry of p and returns a result aligned with p.Entries.
//
// Lookup failures leave a nil slot and are not cached; a clean "no match" is cached as a negative
// result. Only context cancellation aborts the playlist.
func (r *Resolver) Resolve(ctx context.Context, p models.Playlist, svc services.Service, progress chan<- ProgressUpdate) (*Resolution, error) {
	total := len(p.Entries)
	slots := make([]*models.Track, total)
	res := &Resolution{}

	for i, entry := range p.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sendProgress(progress, resolveTrackUpdate(i+1, total, entry))

		if r.tracks != nil {
			lookup := r.tracks.Lookup(entry.Artist, entry.Title, entry.Album, svc.Name())
			switch lookup.Status {
			case cache.LookupHit:
				slots[i] = lookup.Track
				res.CacheHits++
				continue
			case cache.LookupNotFound:
				res.CacheHits++
				res.Missing = append(res.Missing, entry)
				continue
			}
		}

		res.Lookups++
		track, err := svc.FindTrack(ctx, entry.Artist, entry.Title, entry.Album)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("track lookup failed", "entry", entry.String(), "service", svc.Name(), "error", err)
			res.Errors++
			res.Missing = append(res.Missing, entry)
			continue
		}

		if r.tracks != nil {
			r.tracks.Record(entry.Artist, entry.Title, entry.Album, svc.Name(), track, entry.Album == nil)
		}
		if track == nil {
			r.logger.Debug("track not found", "entry", entry.String(), "service", svc.Name())
			res.Missing = append(res.Missing, entry)
			continue
		}
		slots[i] = track
	}

	res.Result = models.NewServiceResult(svc.Name(), slots)
	return res, nil
}
