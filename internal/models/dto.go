package models

import (
	"time"
)

// Extras holds service-specific track fields. Spotify fills uri, url and track_id.
type Extras map[string]string

const (
	ExtraURI     = "uri"
	ExtraURL     = "url"
	ExtraTrackID = "track_id"
)

// Track is a catalog match for one playlist entry.
type Track struct {
	Artist          string `json:"artist"`
	Title           string `json:"title"`
	Album           string `json:"album,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	Link            string `json:"link,omitempty"`
	Extras          Extras `json:"service_specific,omitempty"`
}

// Clone returns a deep copy of t.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	c := *t
	if t.Extras != nil {
		c.Extras = make(Extras, len(t.Extras))
		for k, v := range t.Extras {
			c.Extras[k] = v
		}
	}
	return &c
}

// ServiceResult is one playlist resolved against one service.
//
// Tracks is positionally aligned with the descriptor's entries; a nil slot means no match.
type ServiceResult struct {
	Service       string    `json:"service"`
	Tracks        []*Track  `json:"tracks"`
	TotalDuration int       `json:"total_duration_seconds"`
	CachedAt      time.Time `json:"cached_at,omitzero"`
}

// NewServiceResult builds a result and sums the duration of the matched tracks.
func NewServiceResult(service string, tracks []*Track) *ServiceResult {
	return &ServiceResult{Service: service, Tracks: tracks, TotalDuration: TotalDuration(tracks)}
}

// Found counts the non-nil slots.
func (r *ServiceResult) Found() int {
	n := 0
	for _, t := range r.Tracks {
		if t != nil {
			n++
		}
	}
	return n
}

// Duration returns TotalDuration as a [time.Duration].
func (r *ServiceResult) Duration() time.Duration {
	return time.Duration(r.TotalDuration) * time.Second
}

// TotalDuration sums the durations of the non-nil tracks, in seconds.
func TotalDuration(tracks []*Track) int {
	total := 0
	for _, t := range tracks {
		if t != nil {
			total += t.DurationSeconds
		}
	}
	return total
}

// Entry is one "Artist - Title | Album" line of a manual descriptor.
type Entry struct {
	Artist string  `json:"artist"`
	Title  string  `json:"title"`
	Album  *string `json:"album,omitempty"`
}

func (e Entry) String() string {
	s := e.Artist + " - " + e.Title
	if e.Album != nil {
		s += " | " + *e.Album
	}
	return s
}

// Playlist is a parsed descriptor. Exactly one of Entries and RemoteURL is set.
type Playlist struct {
	User        string
	Title       string
	Description string
	Genre       string
	Entries     []Entry
	RemoteURL   string
	FilePath    string
}

// IsRemote reports whether the playlist mirrors a service-hosted playlist.
func (p Playlist) IsRemote() bool {
	return p.RemoteURL != ""
}

// FrozenReason explains why a remote playlist is frozen. Durations are in seconds.
type FrozenReason struct {
	Type              string    `json:"type"`
	CurrentDuration   int       `json:"current_duration"`
	CurrentTrackCount int       `json:"current_track_count"`
	CachedTrackCount  int       `json:"cached_track_count"`
	Limit             int       `json:"limit"`
	ExceededBy        int       `json:"exceeded_by"`
	LastChecked       time.Time `json:"last_checked"`
}

const (
	ReasonDurationExceeded = "duration_exceeded"
)

// ValidationWarning is attached to a playlist rendered from a frozen version.
type ValidationWarning struct {
	Type              string        `json:"warning_type"`
	Message           string        `json:"message"`
	Details           *FrozenReason `json:"details,omitempty"`
	FrozenAt          *time.Time    `json:"frozen_at,omitempty"`
	FrozenVersionDate *time.Time    `json:"frozen_version_date,omitempty"`
}

// ProcessedPlaylist pairs a descriptor with its per-service results.
type ProcessedPlaylist struct {
	Playlist Playlist
	Results  map[string]*ServiceResult
	Warning  *ValidationWarning
}

// ValidationResult is the outcome of validating one descriptor file.
type ValidationResult struct {
	FilePath         string  `json:"filepath"`
	User             string  `json:"user"`
	Title            string  `json:"title"`
	Valid            bool    `json:"is_valid"`
	TotalDuration    int     `json:"total_duration_seconds"`
	ThresholdSeconds int     `json:"duration_threshold_seconds"`
	MissingTracks    []Entry `json:"missing_tracks"`
	DuplicateOf      string  `json:"duplicate_of,omitempty"`
	ErrorMessage     string  `json:"error_message,omitempty"`
}

// Exceeded returns how many seconds the playlist runs over the limit, or zero.
func (r ValidationResult) Exceeded() int {
	if r.TotalDuration <= r.ThresholdSeconds {
		return 0
	}
	return r.TotalDuration - r.ThresholdSeconds
}
