package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/tasks"
)

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		name   string
		update tasks.ProgressUpdate
		want   string
	}{
		{
			name:   "playlist step",
			update: tasks.ProgressUpdate{Phase: tasks.ProcessPlaylist, Step: 1, Total: 3, Message: "[1/3] Late Night by alice"},
			want:   "[1/3] Late Night by alice",
		},
		{
			name:   "frozen remote",
			update: tasks.ProgressUpdate{Phase: tasks.CheckRemote, Message: "Road Trip by bob: frozen", Data: tasks.RemoteFrozen},
			want:   "⚠ Road Trip by bob: frozen",
		},
		{
			name:   "unchanged remote",
			update: tasks.ProgressUpdate{Phase: tasks.CheckRemote, Message: "Road Trip by bob: unchanged", Data: tasks.RemoteUnchanged},
			want:   "Road Trip by bob: unchanged",
		},
		{
			name:   "cache save",
			update: tasks.ProgressUpdate{Phase: tasks.SaveCache, Message: "Saved .cache/tracks.json"},
			want:   "Saved .cache/tracks.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatProgress(tt.update); !strings.Contains(got, tt.want) {
				t.Errorf("FormatProgress() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestWatchProgress(t *testing.T) {
	progress := make(chan tasks.ProgressUpdate, 2)
	progress <- tasks.ProgressUpdate{Phase: tasks.LoadCache, Message: "Loaded caches (1 playlists, 2 tracks)"}
	progress <- tasks.ProgressUpdate{Phase: tasks.ProcessPlaylist, Message: "[1/1] Late Night by alice"}
	close(progress)

	var buf bytes.Buffer
	WatchProgress(&buf, progress)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
}

func TestRenderSummary(t *testing.T) {
	started := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	t.Run("with failures", func(t *testing.T) {
		result := &tasks.RenderResult{
			RunID:      "run-1",
			StartedAt:  started,
			FinishedAt: started.Add(1500 * time.Millisecond),
			Failures:   []tasks.PlaylistFailure{{Key: "bob/Road Trip", Err: errors.New("service unavailable")}},
			Stats: tasks.RenderStats{
				Total: 4, Rendered: 3, Failed: 1, CacheHits: 2, CacheMisses: 1, RemoteChecks: 1, Frozen: 1,
				Maintenance: tasks.MaintenanceResult{PlaylistsRemoved: 1, TracksRemoved: 5},
			},
		}

		out := RenderSummary(result)
		for _, want := range []string{
			"run-1",
			"3 rendered, 1 failed, 4 total",
			"2 hits, 1 misses (50.0%)",
			"1 checked, 1 frozen, 0 unfrozen",
			"1 playlists, 5 tracks removed",
			"1.5s",
			"bob/Road Trip",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("summary missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "All playlists rendered") {
			t.Error("success line printed despite failures")
		}
	})

	t.Run("clean run", func(t *testing.T) {
		out := RenderSummary(&tasks.RenderResult{StartedAt: started, FinishedAt: started, Stats: tasks.RenderStats{Total: 1, Rendered: 1}})
		if !strings.Contains(out, "All playlists rendered") {
			t.Errorf("missing success line:\n%s", out)
		}
	})
}

func TestFrozenNotices(t *testing.T) {
	processed := []models.ProcessedPlaylist{
		{Playlist: models.Playlist{User: "alice", Title: "Late Night"}},
		{
			Playlist: models.Playlist{User: "bob", Title: "Road Trip"},
			Warning:  &models.ValidationWarning{Type: models.ReasonDurationExceeded, Message: "exceeds the 80-minute limit"},
		},
	}

	out := FrozenNotices(processed)
	if !strings.Contains(out, "Road Trip by bob: exceeds the 80-minute limit") {
		t.Errorf("unexpected notices: %q", out)
	}
	if strings.Contains(out, "Late Night") {
		t.Error("unfrozen playlist listed")
	}
}

func TestValidationSummary(t *testing.T) {
	out := ValidationSummary([]models.ValidationResult{
		{User: "alice", Title: "Fine", Valid: true, TotalDuration: 3000, ThresholdSeconds: 4800},
		{User: "bob", Title: "Long", TotalDuration: 5400, ThresholdSeconds: 4800, MissingTracks: []models.Entry{{Artist: "A", Title: "B"}}},
		{User: "carol", Title: "Dup", DuplicateOf: "mixdiscs/carol/first.yaml"},
	})

	for _, want := range []string{
		"✓ Fine by alice (50:00)",
		"✗ Long by bob (1:30:00)",
		"over by 10:00",
		"1 missing",
		"duplicate of mixdiscs/carol/first.yaml",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPalette(t *testing.T) {
	p := Styles()
	for name, got := range map[string]string{
		"Title": p.Title("x"), "OK": p.OK("x"), "Err": p.Err("x"), "Warn": p.Warn("x"),
		"Help": p.Help("x"), "On": p.On("x", "#000000"), "As": p.As("x", "#FFFFFF"),
	} {
		if !strings.Contains(got, "x") {
			t.Errorf("%s dropped the text: %q", name, got)
		}
	}
	var _ Painter = p
}
