package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
	"github.com/desertthunder/mixdisc/internal/tasks"
)

// FormatProgress renders one progress update as a single line.
func FormatProgress(u tasks.ProgressUpdate) string {
	line := u.Message
	switch u.Phase {
	case tasks.CheckRemote:
		if outcome, ok := u.Data.(tasks.RemoteOutcome); ok && outcome == tasks.RemoteFrozen {
			return styles.Warn("⚠ " + line)
		}
		return line
	case tasks.PruneCache, tasks.SaveCache, tasks.LoadCache:
		return styles.Help(line)
	default:
		return line
	}
}

// WatchProgress writes every update received on progress to w until the channel is closed.
func WatchProgress(w io.Writer, progress <-chan tasks.ProgressUpdate) {
	for u := range progress {
		fmt.Fprintln(w, FormatProgress(u))
	}
}

// RenderSummary renders the statistics of a batch in a bordered box, followed by any failures.
func RenderSummary(result *tasks.RenderResult) string {
	s := result.Stats

	var b strings.Builder
	b.WriteString(styles.Title("Render summary") + "\n")
	fmt.Fprintf(&b, "Run:          %s\n", result.RunID)
	fmt.Fprintf(&b, "Playlists:    %d rendered, %d failed, %d total\n", s.Rendered, s.Failed, s.Total)
	fmt.Fprintf(&b, "Cache:        %d hits, %d misses (%.1f%%)\n", s.CacheHits, s.CacheMisses, s.CacheEfficiency())
	fmt.Fprintf(&b, "Remote:       %d checked, %d frozen, %d unfrozen\n", s.RemoteChecks, s.Frozen, s.Unfrozen)
	fmt.Fprintf(&b, "Maintenance:  %d playlists, %d tracks removed\n", s.Maintenance.PlaylistsRemoved, s.Maintenance.TracksRemoved)
	fmt.Fprintf(&b, "Elapsed:      %s", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))

	out := styles.Box(b.String()) + "\n"
	for _, f := range result.Failures {
		out += styles.Err("✗ "+f.Key) + " " + f.Err.Error() + "\n"
	}
	if s.Failed == 0 {
		out += styles.OK("✓ All playlists rendered") + "\n"
	}
	return out
}

// FrozenNotices lists the processed playlists that are showing a frozen version.
func FrozenNotices(processed []models.ProcessedPlaylist) string {
	var b strings.Builder
	for _, pp := range processed {
		if pp.Warning == nil {
			continue
		}
		fmt.Fprintf(&b, "%s %s by %s: %s\n", styles.Warn("⚠"), pp.Playlist.Title, pp.Playlist.User, pp.Warning.Message)
	}
	return b.String()
}

// ValidationSummary renders one line per validated file.
func ValidationSummary(results []models.ValidationResult) string {
	var b strings.Builder
	for _, r := range results {
		status := styles.OK("✓")
		if !r.Valid {
			status = styles.Err("✗")
		}
		fmt.Fprintf(&b, "%s %s by %s (%s)", status, r.Title, r.User, shared.FormatDuration(r.TotalDuration))
		switch {
		case r.ErrorMessage != "":
			fmt.Fprintf(&b, " %s", styles.Help(r.ErrorMessage))
		case r.DuplicateOf != "":
			fmt.Fprintf(&b, " %s", styles.Help("duplicate of "+r.DuplicateOf))
		case r.Exceeded() > 0:
			fmt.Fprintf(&b, " %s", styles.Warn("over by "+shared.FormatDuration(r.Exceeded())))
		}
		if n := len(r.MissingTracks); n > 0 {
			fmt.Fprintf(&b, " %s", styles.Help(fmt.Sprintf("%d missing", n)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
