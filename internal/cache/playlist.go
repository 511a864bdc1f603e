package cache

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
)

// PlaylistStoreVersion is written to every playlist cache file.
const PlaylistStoreVersion = "1.0"

// ValidationStatus is the state of a tracked remote playlist.
type ValidationStatus string

const (
	StatusValid  ValidationStatus = "valid"
	StatusFrozen ValidationStatus = "frozen"
)

// ServiceCache is the persisted form of a [models.ServiceResult].
type ServiceCache struct {
	TotalDurationSeconds int             `json:"total_duration_seconds"`
	Tracks               []*models.Track `json:"tracks"`
	CachedAt             time.Time       `json:"cached_at"`
}

// PlaylistEntry is one cached descriptor.
//
// A frozen entry always has RemoteFrozenAt and RemoteFrozenReason set, and RemoteSnapshotID names the
// last version accepted as valid. A valid entry has neither.
type PlaylistEntry struct {
	User          string                   `json:"user"`
	Title         string                   `json:"title"`
	FilePath      string                   `json:"filepath"`
	ContentHash   string                   `json:"content_hash"`
	MusicServices map[string]*ServiceCache `json:"music_services"`
	CachedAt      time.Time                `json:"cached_at"`

	RemotePlaylistURL      string               `json:"remote_playlist_url,omitempty"`
	RemoteSnapshotID       string               `json:"remote_snapshot_id,omitempty"`
	RemoteValidationStatus ValidationStatus     `json:"remote_validation_status,omitempty"`
	RemoteFrozenAt         *time.Time           `json:"remote_frozen_at,omitempty"`
	RemoteFirstFrozenAt    *time.Time           `json:"remote_first_frozen_at,omitempty"`
	RemoteFrozenReason     *models.FrozenReason `json:"remote_frozen_reason,omitempty"`
}

// IsFrozen reports whether the entry is serving a frozen version.
func (e *PlaylistEntry) IsFrozen() bool {
	return e.RemoteValidationStatus == StatusFrozen
}

// Result returns a copy of the cached result for service. Nil slots keep their positions.
func (e *PlaylistEntry) Result(service string) (*models.ServiceResult, bool) {
	sc, ok := e.MusicServices[service]
	if !ok || sc == nil {
		return nil, false
	}
	return &models.ServiceResult{
		Service:       service,
		Tracks:        cloneTracks(sc.Tracks),
		TotalDuration: sc.TotalDurationSeconds,
		CachedAt:      sc.CachedAt,
	}, true
}

func (e *PlaylistEntry) markValid() {
	e.RemoteValidationStatus = StatusValid
	e.RemoteFrozenAt = nil
	e.RemoteFirstFrozenAt = nil
	e.RemoteFrozenReason = nil
}

func (e *PlaylistEntry) clearRemote() {
	e.RemotePlaylistURL = ""
	e.RemoteSnapshotID = ""
	e.RemoteValidationStatus = ""
	e.RemoteFrozenAt = nil
	e.RemoteFirstFrozenAt = nil
	e.RemoteFrozenReason = nil
}

// RemoteUpdate is a state transition computed by the remote checker.
type RemoteUpdate struct {
	Status       ValidationStatus
	SnapshotID   string                // new snapshot, only applied when Status is valid
	Result       *models.ServiceResult // tracks of the new snapshot, only applied when Status is valid
	FrozenAt     time.Time
	FrozenReason *models.FrozenReason
}

// PlaylistStore is the playlist-level cache.
type PlaylistStore struct {
	Version     string                    `json:"version"`
	LastUpdated *time.Time                `json:"last_updated"`
	Playlists   map[string]*PlaylistEntry `json:"playlists"`

	logger *log.Logger
	now    func() time.Time
}

// CacheKey returns the playlist cache key for a descriptor.
func CacheKey(user, title string) string {
	return user + "/" + title
}

// NewPlaylistStore returns an empty store.
func NewPlaylistStore(logger *log.Logger) *PlaylistStore {
	return &PlaylistStore{
		Version:   PlaylistStoreVersion,
		Playlists: make(map[string]*PlaylistEntry),
		logger:    loggerOrDiscard(logger),
		now:       utcNow,
	}
}

// LoadPlaylistStore reads the store at path.
//
// A missing or unreadable file yields an empty store; corruption is logged, never returned.
func LoadPlaylistStore(path string, logger *log.Logger) *PlaylistStore {
	s := NewPlaylistStore(logger)
	ok, err := readStore(path, s)
	if err != nil {
		s.logger.Warn("playlist cache unreadable, starting empty", "path", path, "error", err)
		return NewPlaylistStore(logger)
	}
	if !ok {
		return s
	}
	if s.Version == "" {
		s.Version = PlaylistStoreVersion
	}
	if s.Playlists == nil {
		s.Playlists = make(map[string]*PlaylistEntry)
	}
	s.logger.Debug("loaded playlist cache", "path", path, "playlists", len(s.Playlists))
	return s
}

// Save writes the store to path, stamping last_updated. An empty path is a no-op.
func (s *PlaylistStore) Save(path string) error {
	if path == "" {
		return nil
	}
	now := s.now()
	s.LastUpdated = &now
	if err := writeStore(path, s, s.logger); err != nil {
		return fmt.Errorf("failed to save playlist cache: %w", err)
	}
	s.logger.Debug("saved playlist cache", "path", path, "playlists", len(s.Playlists))
	return nil
}

// Entry returns the entry for key.
func (s *PlaylistStore) Entry(key string) (*PlaylistEntry, bool) {
	e, ok := s.Playlists[key]
	return e, ok
}

// Len returns the number of cached playlists.
func (s *PlaylistStore) Len() int {
	return len(s.Playlists)
}

// Keys returns the cached keys in sorted order.
func (s *PlaylistStore) Keys() []string {
	keys := make([]string, 0, len(s.Playlists))
	for k := range s.Playlists {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear drops every entry.
func (s *PlaylistStore) Clear() {
	s.Playlists = make(map[string]*PlaylistEntry)
}

// IsValid reports whether entry was built from the current contents of the descriptor file.
func (s *PlaylistStore) IsValid(desc models.Playlist, entry *PlaylistEntry) (bool, error) {
	if entry == nil {
		return false, nil
	}
	hash, err := shared.ContentHash(desc.FilePath)
	if err != nil {
		return false, err
	}
	return hash == entry.ContentHash, nil
}

// Get returns the cached result of key for service.
func (s *PlaylistStore) Get(key, service string) (*models.ServiceResult, bool) {
	e, ok := s.Playlists[key]
	if !ok {
		return nil, false
	}
	return e.Result(service)
}

// Put stores result under key, creating the entry when absent.
//
// The content hash and file path are always recomputed from desc. For a remote descriptor a
// non-nil snapshotID is recorded and the entry marked valid; a manual descriptor has every
// remote field cleared.
func (s *PlaylistStore) Put(key string, desc models.Playlist, result *models.ServiceResult, snapshotID *string) error {
	if result == nil {
		return fmt.Errorf("%w: nil result for %s", shared.ErrInvalidInput, key)
	}
	hash, err := shared.ContentHash(desc.FilePath)
	if err != nil {
		return err
	}

	now := s.now()
	e, ok := s.Playlists[key]
	if !ok {
		e = &PlaylistEntry{}
		s.Playlists[key] = e
	}
	if e.MusicServices == nil {
		e.MusicServices = make(map[string]*ServiceCache)
	}

	e.User = desc.User
	e.Title = desc.Title
	e.FilePath = desc.FilePath
	e.ContentHash = hash
	e.CachedAt = now
	e.MusicServices[result.Service] = &ServiceCache{
		TotalDurationSeconds: result.TotalDuration,
		Tracks:               cloneTracks(result.Tracks),
		CachedAt:             now,
	}

	switch {
	case !desc.IsRemote():
		e.clearRemote()
	case snapshotID != nil:
		e.RemotePlaylistURL = desc.RemoteURL
		e.RemoteSnapshotID = *snapshotID
		e.markValid()
	default:
		e.RemotePlaylistURL = desc.RemoteURL
		if e.RemoteValidationStatus == "" {
			e.markValid()
		}
	}
	return nil
}

// RefreshDescriptor re-reads desc into an existing entry: file path, content hash and, for a remote
// descriptor, its URL. Cached results and remote state are kept.
func (s *PlaylistStore) RefreshDescriptor(key string, desc models.Playlist) error {
	e, ok := s.Playlists[key]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrCacheMiss, key)
	}
	hash, err := shared.ContentHash(desc.FilePath)
	if err != nil {
		return err
	}
	e.User = desc.User
	e.Title = desc.Title
	e.FilePath = desc.FilePath
	e.ContentHash = hash
	if desc.IsRemote() {
		e.RemotePlaylistURL = desc.RemoteURL
	}
	return nil
}

// Delete removes key and reports whether it was present.
func (s *PlaylistStore) Delete(key string) bool {
	if _, ok := s.Playlists[key]; !ok {
		return false
	}
	delete(s.Playlists, key)
	return true
}

// ApplyRemoteUpdate records a remote state transition on an existing entry.
//
// A valid update advances the snapshot and replaces the service result. A frozen update keeps the
// snapshot and tracks untouched and stamps the freeze time.
func (s *PlaylistStore) ApplyRemoteUpdate(key string, u RemoteUpdate) error {
	e, ok := s.Playlists[key]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrCacheMiss, key)
	}

	switch u.Status {
	case StatusValid:
		e.RemoteSnapshotID = u.SnapshotID
		e.markValid()
		if u.Result != nil {
			if e.MusicServices == nil {
				e.MusicServices = make(map[string]*ServiceCache)
			}
			now := s.now()
			e.MusicServices[u.Result.Service] = &ServiceCache{
				TotalDurationSeconds: u.Result.TotalDuration,
				Tracks:               cloneTracks(u.Result.Tracks),
				CachedAt:             now,
			}
			e.CachedAt = now
		}
	case StatusFrozen:
		if u.FrozenReason == nil || u.FrozenAt.IsZero() {
			return fmt.Errorf("%w: frozen update for %s needs a reason and time", shared.ErrInvalidInput, key)
		}
		at := u.FrozenAt
		reason := *u.FrozenReason
		if !e.IsFrozen() || e.RemoteFirstFrozenAt == nil {
			first := at
			e.RemoteFirstFrozenAt = &first
		}
		e.RemoteValidationStatus = StatusFrozen
		e.RemoteFrozenAt = &at
		e.RemoteFrozenReason = &reason
	default:
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, u.Status)
	}
	return nil
}

// CleanupStale removes entries whose key no live descriptor produces and returns how many were removed.
func (s *PlaylistStore) CleanupStale(live []models.Playlist) int {
	keep := make(map[string]struct{}, len(live))
	for _, p := range live {
		keep[CacheKey(p.User, p.Title)] = struct{}{}
	}

	removed := 0
	for key := range s.Playlists {
		if _, ok := keep[key]; ok {
			continue
		}
		delete(s.Playlists, key)
		s.logger.Info("removed stale playlist", "key", key)
		removed++
	}
	return removed
}

func cloneTracks(tracks []*models.Track) []*models.Track {
	out := make([]*models.Track, len(tracks))
	for i, t := range tracks {
		out[i] = t.Clone()
	}
	return out
}
