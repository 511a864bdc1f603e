package tasks

import (
	"fmt"

	"github.com/desertthunder/mixdisc/internal/models"
)

// ProgressUpdate represents a progress event during a batch.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Phase of a batch
type Phase int

const (
	LoadCache Phase = iota
	ProcessPlaylist
	ResolveTracks
	CheckRemote
	PruneCache
	SaveCache
	Validate
)

func (p Phase) String() string {
	switch p {
	case LoadCache:
		return "load_cache"
	case ProcessPlaylist:
		return "process_playlist"
	case ResolveTracks:
		return "resolve_tracks"
	case CheckRemote:
		return "check_remote"
	case PruneCache:
		return "prune_cache"
	case SaveCache:
		return "save_cache"
	case Validate:
		return "validate"
	default:
		return ""
	}
}

// sendProgress sends an update without blocking. A nil or full channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func loadCacheUpdate(playlists, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadCache,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded caches (%d playlists, %d tracks)", playlists, tracks),
	}
}

func processPlaylistUpdate(step, total int, p models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s by %s", step, total, p.Title, p.User),
	}
}

func resolveTrackUpdate(step, total int, e models.Entry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, e),
	}
}

func checkRemoteUpdate(p models.Playlist, outcome RemoteOutcome) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckRemote,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%s by %s: %s", p.Title, p.User, outcome),
		Data:    outcome,
	}
}

func maintainUpdate(res MaintenanceResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PruneCache,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Removed %d stale playlists and %d stale tracks", res.PlaylistsRemoved, res.TracksRemoved),
		Data:    res,
	}
}

func saveCacheUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveCache,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved %s", path),
	}
}

func validateUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Validate,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Validating %s...", step, total, path),
	}
}
