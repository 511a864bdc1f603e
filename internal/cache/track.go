package cache

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
)

// TrackStoreVersion is written to every track cache file.
const TrackStoreVersion = "2.0"

// TrackQuery is the identity a track entry was first recorded under.
type TrackQuery struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// TrackVersion is one cached lookup result for a service.
type TrackVersion struct {
	Found           bool          `json:"found"`
	Artist          string        `json:"artist,omitempty"`
	Title           string        `json:"title,omitempty"`
	Album           string        `json:"album,omitempty"`
	NormalizedAlbum string        `json:"normalized_album"`
	DurationSeconds int           `json:"duration_seconds,omitempty"`
	Link            string        `json:"link,omitempty"`
	IsDefault       bool          `json:"is_default"`
	CachedAt        time.Time     `json:"cached_at"`
	ServiceSpecific models.Extras `json:"service_specific,omitempty"`
}

func (v *TrackVersion) track() *models.Track {
	t := &models.Track{
		Artist:          v.Artist,
		Title:           v.Title,
		Album:           v.Album,
		DurationSeconds: v.DurationSeconds,
		Link:            v.Link,
		Extras:          v.ServiceSpecific,
	}
	return t.Clone()
}

// TrackEntry holds every cached version of one "artist - title".
type TrackEntry struct {
	Query        TrackQuery                 `json:"query"`
	Versions     map[string][]*TrackVersion `json:"versions"`
	FirstSeen    time.Time                  `json:"first_seen"`
	LastAccessed time.Time                  `json:"last_accessed"`
	AccessCount  int                        `json:"access_count"`
}

func (e *TrackEntry) touch(now time.Time) {
	e.LastAccessed = now
	e.AccessCount++
}

// LookupStatus distinguishes "never asked" from "asked and the service had nothing".
type LookupStatus int

const (
	LookupAbsent LookupStatus = iota
	LookupNotFound
	LookupHit
)

func (s LookupStatus) String() string {
	switch s {
	case LookupAbsent:
		return "absent"
	case LookupNotFound:
		return "not_found"
	case LookupHit:
		return "hit"
	default:
		return ""
	}
}

// Lookup is the result of [TrackStore.Lookup]. Track is set only for [LookupHit].
type Lookup struct {
	Status LookupStatus
	Track  *models.Track
}

// ServiceStats counts versions cached for one service.
type ServiceStats struct {
	Cached   int `json:"cached"`
	NotFound int `json:"not_found"`
}

// AccessStat is one row of the most-accessed list.
type AccessStat struct {
	Key         string `json:"key"`
	AccessCount int    `json:"access_count"`
}

// TrackCacheStats summarizes a [TrackStore].
type TrackCacheStats struct {
	TotalTracks    int                     `json:"total_tracks"`
	TotalVersions  int                     `json:"total_versions"`
	NotFoundTracks int                     `json:"not_found_tracks"`
	Services       map[string]ServiceStats `json:"services"`
	MostAccessed   []AccessStat            `json:"most_accessed"`
}

// TrackStore is the track-level cache.
type TrackStore struct {
	Version     string                 `json:"version"`
	LastUpdated *time.Time             `json:"last_updated"`
	Tracks      map[string]*TrackEntry `json:"tracks"`

	logger *log.Logger
	now    func() time.Time
}

// NormalizeTrackKey returns the "artist - title" key, each part lower-cased and trimmed.
func NormalizeTrackKey(artist, title string) string {
	return shared.Normalize(artist) + " - " + shared.Normalize(title)
}

// NewTrackStore returns an empty store.
func NewTrackStore(logger *log.Logger) *TrackStore {
	return &TrackStore{
		Version: TrackStoreVersion,
		Tracks:  make(map[string]*TrackEntry),
		logger:  loggerOrDiscard(logger),
		now:     utcNow,
	}
}

// LoadTrackStore reads the store at path, falling back to an empty store like [LoadPlaylistStore].
func LoadTrackStore(path string, logger *log.Logger) *TrackStore {
	s := NewTrackStore(logger)
	ok, err := readStore(path, s)
	if err != nil {
		s.logger.Warn("track cache unreadable, starting empty", "path", path, "error", err)
		return NewTrackStore(logger)
	}
	if !ok {
		return s
	}
	if s.Version == "" {
		s.Version = TrackStoreVersion
	}
	if s.Tracks == nil {
		s.Tracks = make(map[string]*TrackEntry)
	}
	s.logger.Debug("loaded track cache", "path", path, "tracks", len(s.Tracks))
	return s
}

// Save writes the store to path, stamping last_updated. An empty path is a no-op.
func (s *TrackStore) Save(path string) error {
	if path == "" {
		return nil
	}
	now := s.now()
	s.LastUpdated = &now
	if err := writeStore(path, s, s.logger); err != nil {
		return fmt.Errorf("failed to save track cache: %w", err)
	}
	s.logger.Debug("saved track cache", "path", path, "tracks", len(s.Tracks))
	return nil
}

// Len returns the number of cached identities.
func (s *TrackStore) Len() int {
	return len(s.Tracks)
}

// Clear drops every entry.
func (s *TrackStore) Clear() {
	s.Tracks = make(map[string]*TrackEntry)
}

// Lookup finds a cached version for service.
//
// With a nil album only the default version matches; otherwise the normalized album must match
// exactly. Access statistics are bumped whenever the identity exists.
func (s *TrackStore) Lookup(artist, title string, album *string, service string) Lookup {
	e, ok := s.Tracks[NormalizeTrackKey(artist, title)]
	if !ok {
		return Lookup{Status: LookupAbsent}
	}
	e.touch(s.now())

	var match *TrackVersion
	for _, v := range e.Versions[service] {
		if album == nil && v.IsDefault {
			match = v
			break
		}
		if album != nil && v.NormalizedAlbum == shared.Normalize(*album) {
			match = v
			break
		}
	}

	switch {
	case match == nil:
		return Lookup{Status: LookupAbsent}
	case !match.Found:
		return Lookup{Status: LookupNotFound}
	default:
		return Lookup{Status: LookupHit, Track: match.track()}
	}
}

// Record stores the outcome of a service lookup. A nil track records a negative result.
//
// The version is filed under the requested album, or under the matched track's album for a
// default lookup, and replaces any version already filed there. Recording a default demotes
// every other default of the service.
func (s *TrackStore) Record(artist, title string, album *string, service string, track *models.Track, isDefault bool) {
	now := s.now()
	key := NormalizeTrackKey(artist, title)
	e, ok := s.Tracks[key]
	if !ok {
		e = &TrackEntry{
			Query:     TrackQuery{Artist: artist, Title: title},
			Versions:  make(map[string][]*TrackVersion),
			FirstSeen: now,
		}
		s.Tracks[key] = e
	}
	if e.Versions == nil {
		e.Versions = make(map[string][]*TrackVersion)
	}

	var normalized string
	switch {
	case album != nil:
		normalized = shared.Normalize(*album)
	case track != nil:
		normalized = shared.Normalize(track.Album)
	}

	v := &TrackVersion{NormalizedAlbum: normalized, IsDefault: isDefault, CachedAt: now}
	if track != nil {
		v.Found = true
		v.Artist = track.Artist
		v.Title = track.Title
		v.Album = track.Album
		v.DurationSeconds = track.DurationSeconds
		v.Link = track.Link
		v.ServiceSpecific = track.Clone().Extras
	}

	versions := e.Versions[service]
	idx := -1
	for i, existing := range versions {
		if existing.NormalizedAlbum == normalized {
			idx = i
			v.IsDefault = v.IsDefault || existing.IsDefault
			break
		}
	}
	if idx >= 0 {
		versions[idx] = v
	} else {
		versions = append(versions, v)
		idx = len(versions) - 1
	}

	if isDefault {
		for i, other := range versions {
			if i != idx {
				other.IsDefault = false
			}
		}
	}
	e.Versions[service] = versions
	e.touch(now)
}

// Stats summarizes the store. MostAccessed holds the top ten identities by access count.
func (s *TrackStore) Stats() TrackCacheStats {
	stats := TrackCacheStats{
		TotalTracks: len(s.Tracks),
		Services:    make(map[string]ServiceStats),
	}

	access := make([]AccessStat, 0, len(s.Tracks))
	for key, e := range s.Tracks {
		access = append(access, AccessStat{Key: key, AccessCount: e.AccessCount})
		for service, versions := range e.Versions {
			ss := stats.Services[service]
			for _, v := range versions {
				stats.TotalVersions++
				if v.Found {
					ss.Cached++
				} else {
					ss.NotFound++
					stats.NotFoundTracks++
				}
			}
			stats.Services[service] = ss
		}
	}

	sort.Slice(access, func(i, j int) bool {
		if access[i].AccessCount != access[j].AccessCount {
			return access[i].AccessCount > access[j].AccessCount
		}
		return access[i].Key < access[j].Key
	})
	if len(access) > 10 {
		access = access[:10]
	}
	stats.MostAccessed = access
	return stats
}

// CleanupStale removes entries that are not in live and were last accessed more than maxAgeDays
// whole days before now. Live entries are never removed.
func (s *TrackStore) CleanupStale(live map[string]struct{}, maxAgeDays int, now time.Time) int {
	removed := 0
	for key, e := range s.Tracks {
		if _, ok := live[key]; ok {
			continue
		}
		ageDays := int(now.Sub(e.LastAccessed) / (24 * time.Hour))
		if ageDays <= maxAgeDays {
			continue
		}
		delete(s.Tracks, key)
		s.logger.Debug("removed stale track", "key", key, "age_days", ageDays)
		removed++
	}
	if removed > 0 {
		s.logger.Info("removed stale tracks", "count", removed)
	}
	return removed
}
