package formatter

import (
	"fmt"
	"strings"

	"github.com/desertthunder/mixdisc/internal/models"
)

// ValidationReport formats validation results as Markdown, failed playlists first.
func ValidationReport(results []models.ValidationResult) string {
	if len(results) == 0 {
		return "No playlists to validate."
	}

	var failed, passed []models.ValidationResult
	for _, r := range results {
		if r.Valid {
			passed = append(passed, r)
		} else {
			failed = append(failed, r)
		}
	}

	var b strings.Builder
	b.WriteString("# Playlist Validation Results\n\n")
	if len(failed) == 0 {
		fmt.Fprintf(&b, "✅ All %d playlist(s) passed validation!\n\n", len(passed))
	} else {
		fmt.Fprintf(&b, "❌ %d of %d playlist(s) failed validation.\n\n", len(failed), len(results))
	}

	if len(failed) > 0 {
		b.WriteString("## Failed Playlists\n\n")
		for _, r := range failed {
			fmt.Fprintf(&b, "### ❌ %s by %s\n\n", r.Title, r.User)
			fmt.Fprintf(&b, "**File:** `%s`\n\n", r.FilePath)

			switch {
			case r.ErrorMessage != "":
				fmt.Fprintf(&b, "**Error:** %s\n\n", r.ErrorMessage)
			case r.DuplicateOf != "":
				fmt.Fprintf(&b, "**Duplicate:** This playlist already exists at `%s`\n\n", r.DuplicateOf)
				b.WriteString("**Note:** Username-playlist combination must be globally unique\n\n")
			case r.Exceeded() > 0:
				fmt.Fprintf(&b, "**Duration:** %s (exceeds limit by %s)\n\n", minutes(r.TotalDuration), minutes(r.Exceeded()))
				fmt.Fprintf(&b, "**Limit:** %s\n\n", minutes(r.ThresholdSeconds))
			}

			if len(r.MissingTracks) > 0 {
				fmt.Fprintf(&b, "**Missing tracks (%d):**\n\n", len(r.MissingTracks))
				for _, e := range r.MissingTracks {
					fmt.Fprintf(&b, "- %s - %s\n", e.Artist, e.Title)
				}
				b.WriteString("\n")
			}
		}
	}

	if len(passed) > 0 {
		b.WriteString("## Passed Playlists\n\n")
		for _, r := range passed {
			fmt.Fprintf(&b, "### ✅ %s by %s\n\n", r.Title, r.User)
			fmt.Fprintf(&b, "**Duration:** %s / %s\n\n", minutes(r.TotalDuration), minutes(r.ThresholdSeconds))
			if len(r.MissingTracks) > 0 {
				fmt.Fprintf(&b, "**Note:** %d track(s) not found on music service\n\n", len(r.MissingTracks))
			}
		}
	}

	return b.String()
}

// minutes formats seconds as M:SS without rolling over into hours, so limits read as "80:00".
func minutes(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
