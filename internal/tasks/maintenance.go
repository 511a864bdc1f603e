package tasks

import (
	"time"

	"github.com/desertthunder/mixdisc/internal/cache"
	"github.com/desertthunder/mixdisc/internal/models"
)

// MaintenanceResult counts what one maintenance pass removed.
type MaintenanceResult struct {
	PlaylistsRemoved int `json:"playlists_removed"`
	TracksRemoved    int `json:"tracks_removed"`
}

// LiveTrackKeys returns the track cache keys referenced by live.
//
// Manual playlists contribute their entries. Remote playlists contribute the tracks of their cached
// results, so playlists is consulted for them and may be nil.
func LiveTrackKeys(live []models.Playlist, playlists *cache.PlaylistStore) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, p := range live {
		if !p.IsRemote() {
			for _, e := range p.Entries {
				keys[cache.NormalizeTrackKey(e.Artist, e.Title)] = struct{}{}
			}
			continue
		}
		if playlists == nil {
			continue
		}
		entry, ok := playlists.Entry(cache.CacheKey(p.User, p.Title))
		if !ok {
			continue
		}
		for _, sc := range entry.MusicServices {
			if sc == nil {
				continue
			}
			for _, t := range sc.Tracks {
				if t != nil {
					keys[cache.NormalizeTrackKey(t.Artist, t.Title)] = struct{}{}
				}
			}
		}
	}
	return keys
}

// Maintain prunes both caches against the live descriptors. Track entries are removed only when no
// live descriptor references them and they have gone unused for more than maxAgeDays.
// Either store may be nil.
func Maintain(playlists *cache.PlaylistStore, tracks *cache.TrackStore, live []models.Playlist, maxAgeDays int) MaintenanceResult {
	return maintainAt(playlists, tracks, live, maxAgeDays, time.Now().UTC())
}

func maintainAt(playlists *cache.PlaylistStore, tracks *cache.TrackStore, live []models.Playlist, maxAgeDays int, now time.Time) MaintenanceResult {
	var res MaintenanceResult
	if playlists != nil {
		res.PlaylistsRemoved = playlists.CleanupStale(live)
	}
	if tracks != nil {
		res.TracksRemoved = tracks.CleanupStale(LiveTrackKeys(live, playlists), maxAgeDays, now)
	}
	return res
}
