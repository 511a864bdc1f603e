package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixdisc/internal/cache"
	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/services"
	"github.com/desertthunder/mixdisc/internal/shared"
)

// RemoteOutcome is what a snapshot check concluded.
type RemoteOutcome int

const (
	RemoteUnchanged RemoteOutcome = iota // snapshot matches the cached one
	RemoteUpdated                        // new snapshot within the limit, accepted
	RemoteFrozen                         // new snapshot over the limit, rejected
)

func (o RemoteOutcome) String() string {
	switch o {
	case RemoteUnchanged:
		return "unchanged"
	case RemoteUpdated:
		return "updated"
	case RemoteFrozen:
		return "frozen"
	default:
		return ""
	}
}

// RemoteCheckResult is the checker's verdict for one remote playlist.
//
// Update is nil when the cache needs no change; the caller applies it with
// [cache.PlaylistStore.ApplyRemoteUpdate].
type RemoteCheckResult struct {
	Result     *models.ServiceResult
	Warning    *models.ValidationWarning
	Update     *cache.RemoteUpdate
	Outcome    RemoteOutcome
	SnapshotID string // snapshot reported by the service
}

// RemoteChecker decides whether a remote playlist's new version is accepted or frozen.
type RemoteChecker struct {
	logger *log.Logger
	now    func() time.Time
}

// NewRemoteChecker creates a RemoteChecker. A nil logger discards output.
func NewRemoteChecker(logger *log.Logger) *RemoteChecker {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &RemoteChecker{logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Check compares the live snapshot of desc with entry and, when it moved, fetches and validates the
// new version against threshold.
//
// Check never modifies entry. Service failures are returned as [*shared.ServiceError]; an entry
// without cached results for svc is a [*shared.IntegrityError].
func (c *RemoteChecker) Check(ctx context.Context, desc models.Playlist, svc services.Service, entry *cache.PlaylistEntry, threshold time.Duration) (*RemoteCheckResult, error) {
	key := cache.CacheKey(desc.User, desc.Title)
	if entry == nil || len(entry.MusicServices) == 0 {
		return nil, &shared.IntegrityError{Key: key, Detail: "missing music_services"}
	}
	cached, ok := entry.Result(svc.Name())
	if !ok {
		return nil, &shared.IntegrityError{Key: key, Detail: fmt.Sprintf("no cached result for %s", svc.Name())}
	}

	snapshot, err := svc.SnapshotID(ctx, desc.RemoteURL)
	if err != nil {
		return nil, shared.NewServiceError(svc.Name(), "snapshot", err)
	}

	if snapshot == entry.RemoteSnapshotID {
		c.logger.Info("remote playlist unchanged", "playlist", key)
		out := &RemoteCheckResult{Result: cached, Outcome: RemoteUnchanged, SnapshotID: snapshot}
		if entry.IsFrozen() {
			w, err := c.FrozenWarning(key, entry, svc.Name(), threshold)
			if err != nil {
				return nil, err
			}
			out.Warning = w
		}
		return out, nil
	}

	c.logger.Info("remote playlist changed", "playlist", key, "from", shortSnapshot(entry.RemoteSnapshotID), "to", shortSnapshot(snapshot))
	fetched, err := svc.FetchRemotePlaylist(ctx, desc.RemoteURL)
	if err != nil {
		return nil, shared.NewServiceError(svc.Name(), "fetch", err)
	}

	if fetched.Duration() > threshold {
		c.logger.Warn("remote playlist exceeds duration, keeping cached version", "playlist", key,
			"duration", shared.FormatDuration(fetched.TotalDuration))
		update, warning := c.freeze(svc.Name(), cached, fetched, threshold)
		return &RemoteCheckResult{
			Result:     cached,
			Warning:    warning,
			Update:     update,
			Outcome:    RemoteFrozen,
			SnapshotID: snapshot,
		}, nil
	}

	c.logger.Info("remote playlist updated", "playlist", key)
	return &RemoteCheckResult{
		Result:     fetched,
		Update:     &cache.RemoteUpdate{Status: cache.StatusValid, SnapshotID: snapshot, Result: fetched},
		Outcome:    RemoteUpdated,
		SnapshotID: snapshot,
	}, nil
}

// FrozenWarning rebuilds the warning of a frozen entry from its stored state.
func (c *RemoteChecker) FrozenWarning(key string, entry *cache.PlaylistEntry, service string, threshold time.Duration) (*models.ValidationWarning, error) {
	if entry.RemoteFrozenReason == nil || entry.RemoteFrozenAt == nil {
		return nil, &shared.IntegrityError{Key: key, Detail: "frozen entry without reason or timestamp"}
	}
	reason := *entry.RemoteFrozenReason
	frozenAt := *entry.RemoteFrozenAt
	w := &models.ValidationWarning{
		Type:     reason.Type,
		Message:  frozenMessage(threshold, service),
		Details:  &reason,
		FrozenAt: &frozenAt,
	}
	if sc, ok := entry.MusicServices[service]; ok && sc != nil {
		at := sc.CachedAt
		w.FrozenVersionDate = &at
	}
	return w, nil
}

func (c *RemoteChecker) freeze(service string, cached, fetched *models.ServiceResult, threshold time.Duration) (*cache.RemoteUpdate, *models.ValidationWarning) {
	now := c.now()
	limit := int(threshold / time.Second)
	reason := &models.FrozenReason{
		Type:              models.ReasonDurationExceeded,
		CurrentDuration:   fetched.TotalDuration,
		CurrentTrackCount: fetched.Found(),
		CachedTrackCount:  cached.Found(),
		Limit:             limit,
		ExceededBy:        fetched.TotalDuration - limit,
		LastChecked:       now,
	}
	details := *reason
	frozenAt := now
	versionDate := cached.CachedAt
	warning := &models.ValidationWarning{
		Type:              models.ReasonDurationExceeded,
		Message:           frozenMessage(threshold, service),
		Details:           &details,
		FrozenAt:          &frozenAt,
		FrozenVersionDate: &versionDate,
	}
	return &cache.RemoteUpdate{Status: cache.StatusFrozen, FrozenAt: now, FrozenReason: reason}, warning
}

func frozenMessage(threshold time.Duration, service string) string {
	return fmt.Sprintf("This remote playlist now exceeds the %d-minute limit on %s. Showing last valid version.",
		int(threshold.Minutes()), service)
}

func shortSnapshot(s string) string {
	if s == "" {
		return "none"
	}
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
