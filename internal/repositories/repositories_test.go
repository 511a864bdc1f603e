package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newRun(id, command string, started time.Time) *models.Run {
	run := models.NewRun(id, command, started)
	run.FinishedAt = started.Add(3 * time.Second)
	run.Total = 12
	run.Rendered = 11
	run.Failed = 1
	run.CacheHits = 9
	run.CacheMisses = 2
	run.RemoteChecks = 3
	run.Frozen = 1
	run.PlaylistsRemoved = 2
	run.TracksRemoved = 40
	run.ErrorMessage = "rendering completed with 1 errors"
	return run
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "runs")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if got != want {
			t.Errorf("NextSequence() = %d, want %d", got, want)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for a table without a sequence")
	}
}

func TestRunRepository(t *testing.T) {
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Create and Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun("run-1", "render", started)

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.Sequence != 1 {
			t.Errorf("Sequence = %d, want 1", run.Sequence)
		}

		got, err := repo.Get("run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.ID() != "run-1" || got.Command != "render" {
			t.Errorf("got id %q command %q", got.ID(), got.Command)
		}
		if !got.StartedAt.Equal(started) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
		}
		if got.Elapsed() != 3*time.Second {
			t.Errorf("Elapsed() = %v, want 3s", got.Elapsed())
		}
		if got.Total != 12 || got.CacheHits != 9 || got.Frozen != 1 || got.TracksRemoved != 40 {
			t.Errorf("counters not round-tripped: %+v", got)
		}
		if got.ErrorMessage != run.ErrorMessage {
			t.Errorf("ErrorMessage = %q", got.ErrorMessage)
		}
	})

	t.Run("Create generates missing id", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun("", "validate", started)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
	})

	t.Run("Create rejects invalid run", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if err := repo.Create(models.NewRun("run-1", "", started)); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		_, err := repo.Get("nope")
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("error = %v, want ErrRunNotFound", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		commands := []string{"render", "validate", "render", "render"}
		for i, cmd := range commands {
			run := newRun("", cmd, started.Add(time.Duration(i)*time.Hour))
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		tests := []struct {
			name     string
			criteria map[string]any
			want     int
		}{
			{name: "all", criteria: map[string]any{}, want: 4},
			{name: "by command", criteria: map[string]any{"command": "render"}, want: 3},
			{name: "limit", criteria: map[string]any{"limit": 2}, want: 2},
			{name: "command and limit", criteria: map[string]any{"command": "validate", "limit": 5}, want: 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runs, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				if len(runs) != tt.want {
					t.Errorf("len(runs) = %d, want %d", len(runs), tt.want)
				}
			})
		}

		runs, err := repo.List(nil)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if runs[0].Sequence != 4 || runs[3].Sequence != 1 {
			t.Errorf("runs not newest first: %d ... %d", runs[0].Sequence, runs[3].Sequence)
		}
	})

	t.Run("DeleteBefore", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		for i := range 3 {
			if err := repo.Create(newRun("", "render", started.Add(time.Duration(i)*24*time.Hour))); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		n, err := repo.DeleteBefore(started.Add(36 * time.Hour))
		if err != nil {
			t.Fatalf("DeleteBefore() error = %v", err)
		}
		if n != 2 {
			t.Errorf("DeleteBefore() = %d, want 2", n)
		}
		runs, _ := repo.List(nil)
		if len(runs) != 1 {
			t.Errorf("len(runs) = %d, want 1", len(runs))
		}
	})
}
