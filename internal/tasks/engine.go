package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixdisc/internal/cache"
	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/services"
	"github.com/desertthunder/mixdisc/internal/shared"
)

// EngineOpts configures a [BatchEngine].
//
// A nil Playlists store disables playlist caching and snapshot tracking; a nil Tracks store sends
// every manual entry to the service.
type EngineOpts struct {
	Service           services.Service
	Playlists         *cache.PlaylistStore
	Tracks            *cache.TrackStore
	PlaylistCachePath string
	TrackCachePath    string
	Threshold         time.Duration
	TrackMaxAgeDays   int
	FreezeNewRemote   bool
	SkipErrors        bool
	Logger            *log.Logger
}

// PlaylistFailure records a playlist the batch could not produce.
type PlaylistFailure struct {
	Key string
	Err error
}

// RenderStats summarizes one batch.
type RenderStats struct {
	Total        int               `json:"total"`
	Rendered     int               `json:"rendered"`
	Failed       int               `json:"failed"`
	CacheHits    int               `json:"cache_hits"`
	CacheMisses  int               `json:"cache_misses"`
	RemoteChecks int               `json:"remote_checks"`
	Frozen       int               `json:"frozen"`
	Unfrozen     int               `json:"unfrozen"`
	Maintenance  MaintenanceResult `json:"maintenance"`
}

// CacheEfficiency returns cache hits as a percentage of all playlists.
func (s RenderStats) CacheEfficiency() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Total) * 100
}

// RenderResult contains everything a batch produced.
type RenderResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  []models.ProcessedPlaylist
	Failures   []PlaylistFailure
	Stats      RenderStats
}

// Run converts the result into a run history record.
func (r *RenderResult) Run(command string) *models.Run {
	run := models.NewRun(r.RunID, command, r.StartedAt)
	run.FinishedAt = r.FinishedAt
	run.Total = r.Stats.Total
	run.Rendered = r.Stats.Rendered
	run.Failed = r.Stats.Failed
	run.CacheHits = r.Stats.CacheHits
	run.CacheMisses = r.Stats.CacheMisses
	run.RemoteChecks = r.Stats.RemoteChecks
	run.Frozen = r.Stats.Frozen
	run.Unfrozen = r.Stats.Unfrozen
	run.PlaylistsRemoved = r.Stats.Maintenance.PlaylistsRemoved
	run.TracksRemoved = r.Stats.Maintenance.TracksRemoved
	return run
}

// BatchEngine processes every descriptor of a batch through the caches and the music service.
//
// The engine owns its stores for the duration of a batch and is not safe for concurrent use.
type BatchEngine struct {
	opts     EngineOpts
	svc      services.Service
	checker  *RemoteChecker
	resolver *Resolver
	logger   *log.Logger
	now      func() time.Time
	dirty    bool
}

// NewBatchEngine creates a BatchEngine.
func NewBatchEngine(opts EngineOpts) (*BatchEngine, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Threshold <= 0 {
		return nil, fmt.Errorf("%w: duration threshold must be positive", shared.ErrInvalidConfig)
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &BatchEngine{
		opts:     opts,
		svc:      opts.Service,
		checker:  NewRemoteChecker(shared.WithLogger(logger, "component", "remote")),
		resolver: NewResolver(opts.Tracks, shared.WithLogger(logger, "component", "resolver")),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Render processes playlists in order and prunes the caches once at the end.
//
// A failing playlist does not stop the batch. Unless SkipErrors is set the returned error reports
// the number of failures; the result is returned either way so the caller can still publish it.
func (e *BatchEngine) Render(ctx context.Context, playlists []models.Playlist, progress chan<- ProgressUpdate) (*RenderResult, error) {
	result := &RenderResult{
		RunID:     shared.GenerateID(),
		StartedAt: e.now(),
		Processed: make([]models.ProcessedPlaylist, 0, len(playlists)),
	}
	logger := shared.WithLogger(e.logger, "run", result.RunID)
	stats := &result.Stats
	stats.Total = len(playlists)
	e.dirty = false

	if e.opts.Playlists != nil {
		trackCount := 0
		if e.opts.Tracks != nil {
			trackCount = e.opts.Tracks.Len()
		}
		sendProgress(progress, loadCacheUpdate(e.opts.Playlists.Len(), trackCount))
	}
	logger.Info("rendering playlists", "count", len(playlists))

	for i, p := range playlists {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sendProgress(progress, processPlaylistUpdate(i+1, len(playlists), p))

		pp, err := e.process(ctx, p, stats, progress)
		if err != nil {
			key := cache.CacheKey(p.User, p.Title)
			logger.Error("failed to process playlist", "playlist", key, "error", err)
			result.Failures = append(result.Failures, PlaylistFailure{Key: key, Err: err})
			continue
		}
		result.Processed = append(result.Processed, *pp)

		r := pp.Results[e.svc.Name()]
		logger.Debug("rendered", "playlist", p.Title, "duration", shared.FormatDuration(r.TotalDuration),
			"tracks", r.Found(), "frozen", pp.Warning != nil)
	}

	if e.opts.Playlists != nil {
		stats.Maintenance = Maintain(e.opts.Playlists, e.opts.Tracks, playlists, e.opts.TrackMaxAgeDays)
		sendProgress(progress, maintainUpdate(stats.Maintenance))
		if stats.Maintenance.PlaylistsRemoved > 0 {
			logger.Info("cleaned up stale cache entries", "count", stats.Maintenance.PlaylistsRemoved)
			e.dirty = true
		}
		if e.dirty {
			if err := e.savePlaylists(progress); err != nil {
				logger.Error("failed to save playlist cache", "error", err)
			}
		}
	}
	if e.opts.Tracks != nil {
		if err := e.opts.Tracks.Save(e.opts.TrackCachePath); err != nil {
			logger.Error("failed to save track cache", "error", err)
		} else if e.opts.TrackCachePath != "" {
			sendProgress(progress, saveCacheUpdate(e.opts.TrackCachePath))
		}
	}

	stats.Rendered = len(result.Processed)
	stats.Failed = len(result.Failures)
	result.FinishedAt = e.now()

	if stats.Failed > 0 && !e.opts.SkipErrors {
		return result, fmt.Errorf("rendering completed with %d errors", stats.Failed)
	}
	return result, nil
}

func (e *BatchEngine) process(ctx context.Context, p models.Playlist, stats *RenderStats, progress chan<- ProgressUpdate) (*models.ProcessedPlaylist, error) {
	if p.IsRemote() {
		return e.processRemote(ctx, p, stats, progress)
	}
	return e.processManual(ctx, p, stats, progress)
}

func (e *BatchEngine) processManual(ctx context.Context, p models.Playlist, stats *RenderStats, progress chan<- ProgressUpdate) (*models.ProcessedPlaylist, error) {
	key := cache.CacheKey(p.User, p.Title)
	store := e.opts.Playlists

	if store != nil {
		if entry, ok := store.Entry(key); ok {
			valid, err := store.IsValid(p, entry)
			if err != nil {
				return nil, err
			}
			if result, ok := entry.Result(e.svc.Name()); valid && ok {
				stats.CacheHits++
				e.logger.Info("cache hit", "playlist", key)
				return processed(p, result, nil), nil
			}
		}
		stats.CacheMisses++
		e.logger.Info("cache miss", "playlist", key)
	}

	res, err := e.resolver.Resolve(ctx, p, e.svc, progress)
	if err != nil {
		return nil, err
	}

	if store != nil {
		if err := store.Put(key, p, res.Result, nil); err != nil {
			return nil, err
		}
		e.dirty = true
	}
	return processed(p, res.Result, nil), nil
}

func (e *BatchEngine) processRemote(ctx context.Context, p models.Playlist, stats *RenderStats, progress chan<- ProgressUpdate) (*models.ProcessedPlaylist, error) {
	key := cache.CacheKey(p.User, p.Title)
	store := e.opts.Playlists

	if store == nil {
		fetched, err := e.svc.FetchRemotePlaylist(ctx, p.RemoteURL)
		if err != nil {
			return nil, shared.NewServiceError(e.svc.Name(), "fetch", err)
		}
		return processed(p, fetched, nil), nil
	}

	entry, ok := store.Entry(key)
	if ok && (entry.RemotePlaylistURL != p.RemoteURL || entry.RemoteValidationStatus == "") {
		// Manual before, or pointed at another playlist: nothing cached applies.
		e.logger.Info("remote source changed, discarding cached entry", "playlist", key,
			"was", entry.RemotePlaylistURL, "now", p.RemoteURL)
		store.Delete(key)
		e.dirty = true
		ok = false
	}
	if !ok {
		stats.CacheMisses++
		return e.processNewRemote(ctx, p, stats)
	}

	valid, err := store.IsValid(p, entry)
	if err != nil {
		return nil, err
	}
	if !valid {
		if err := store.RefreshDescriptor(key, p); err != nil {
			return nil, err
		}
		e.dirty = true
	}

	stats.RemoteChecks++
	check, err := e.checker.Check(ctx, p, e.svc, entry, e.opts.Threshold)
	if errors.Is(err, shared.ErrServiceUnavailable) {
		e.logger.Error("failed to check remote playlist, using cached version", "playlist", key, "error", err)
		result, ok := entry.Result(e.svc.Name())
		if !ok {
			return nil, err
		}
		var warning *models.ValidationWarning
		if entry.IsFrozen() {
			if warning, err = e.checker.FrozenWarning(key, entry, e.svc.Name(), e.opts.Threshold); err != nil {
				e.logger.Warn("failed to build frozen warning", "playlist", key, "error", err)
			}
		}
		return processed(p, result, warning), nil
	}
	if err != nil {
		return nil, err
	}
	sendProgress(progress, checkRemoteUpdate(p, check.Outcome))

	if check.Update != nil {
		old := entry.RemoteValidationStatus
		if err := store.ApplyRemoteUpdate(key, *check.Update); err != nil {
			return nil, err
		}
		e.persistTransition(key)

		switch {
		case check.Update.Status == cache.StatusFrozen && old != cache.StatusFrozen:
			stats.Frozen++
			e.logger.Warn("remote playlist frozen", "playlist", key)
		case check.Update.Status == cache.StatusValid && old == cache.StatusFrozen:
			stats.Unfrozen++
			e.logger.Info("remote playlist unfrozen", "playlist", key)
		}
	}
	return processed(p, check.Result, check.Warning), nil
}

// processNewRemote caches a remote playlist seen for the first time. When it is already over the
// limit and FreezeNewRemote is set, it is cached with no tracks and frozen at once so it is
// re-checked on every batch until a version within the limit appears.
func (e *BatchEngine) processNewRemote(ctx context.Context, p models.Playlist, stats *RenderStats) (*models.ProcessedPlaylist, error) {
	key := cache.CacheKey(p.User, p.Title)
	store := e.opts.Playlists
	e.logger.Info("new remote playlist", "playlist", key)

	fetched, err := e.svc.FetchRemotePlaylist(ctx, p.RemoteURL)
	if err != nil {
		return nil, shared.NewServiceError(e.svc.Name(), "fetch", err)
	}

	var snapshot *string
	if id, err := e.svc.SnapshotID(ctx, p.RemoteURL); err != nil {
		e.logger.Warn("failed to get snapshot", "playlist", key, "error", err)
	} else {
		snapshot = &id
	}

	if e.opts.FreezeNewRemote && fetched.Duration() > e.opts.Threshold {
		empty := models.NewServiceResult(e.svc.Name(), nil)
		if err := store.Put(key, p, empty, nil); err != nil {
			return nil, err
		}
		entry, _ := store.Entry(key)
		baseline, _ := entry.Result(e.svc.Name())
		update, warning := e.checker.freeze(e.svc.Name(), baseline, fetched, e.opts.Threshold)
		if err := store.ApplyRemoteUpdate(key, *update); err != nil {
			return nil, err
		}
		e.persistTransition(key)
		stats.Frozen++
		e.logger.Warn("new remote playlist exceeds duration, frozen without a baseline", "playlist", key)
		return processed(p, baseline, warning), nil
	}

	if err := store.Put(key, p, fetched, snapshot); err != nil {
		return nil, err
	}
	e.persistTransition(key)
	return processed(p, fetched, nil), nil
}

// persistTransition saves the playlist cache right away so a state change survives a later failure.
func (e *BatchEngine) persistTransition(key string) {
	if err := e.opts.Playlists.Save(e.opts.PlaylistCachePath); err != nil {
		e.logger.Error("failed to persist cache update", "playlist", key, "error", err)
		e.dirty = true
		return
	}
	e.logger.Debug("persisted cache update", "playlist", key)
}

func (e *BatchEngine) savePlaylists(progress chan<- ProgressUpdate) error {
	if err := e.opts.Playlists.Save(e.opts.PlaylistCachePath); err != nil {
		return err
	}
	e.dirty = false
	if e.opts.PlaylistCachePath != "" {
		sendProgress(progress, saveCacheUpdate(e.opts.PlaylistCachePath))
	}
	return nil
}

func processed(p models.Playlist, result *models.ServiceResult, warning *models.ValidationWarning) *models.ProcessedPlaylist {
	return &models.ProcessedPlaylist{
		Playlist: p,
		Results:  map[string]*models.ServiceResult{result.Service: result},
		Warning:  warning,
	}
}
