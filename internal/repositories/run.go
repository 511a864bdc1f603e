package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
)

// ErrRunNotFound is returned by [RunRepository.Get] for an unknown id.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, sequence, command, started_at, finished_at, total, rendered, failed, cache_hits, cache_misses,
	remote_checks, frozen, unfrozen, playlists_removed, tracks_removed, error_message`

// RunRepository implements models.Repository[*models.Run] for batch history.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts run with the next sequence number. A run without an id is given a generated one.
func (r *RunRepository) Create(run *models.Run) error {
	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	finished := run.FinishedAt
	if finished.IsZero() {
		finished = run.StartedAt
	}

	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		run.ID(),
		sequence,
		run.Command,
		run.StartedAt,
		finished,
		run.Total,
		run.Rendered,
		run.Failed,
		run.CacheHits,
		run.CacheMisses,
		run.RemoteChecks,
		run.Frozen,
		run.Unfrozen,
		run.PlaylistsRemoved,
		run.TracksRemoved,
		run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	run.Sequence = sequence
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// List retrieves runs newest first.
//
// Supported criteria: "command" (string) filters by command, "limit" (int) caps the result.
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1 = 1`
	args := []any{}

	if command, ok := criteria["command"].(string); ok && command != "" {
		query += " AND command = ?"
		args = append(args, command)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// DeleteBefore removes runs started before cutoff and returns how many were removed.
func (r *RunRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM runs WHERE started_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		id        string
		startedAt time.Time
		run       models.Run
	)
	err := s.Scan(
		&id,
		&run.Sequence,
		&run.Command,
		&startedAt,
		&run.FinishedAt,
		&run.Total,
		&run.Rendered,
		&run.Failed,
		&run.CacheHits,
		&run.CacheMisses,
		&run.RemoteChecks,
		&run.Frozen,
		&run.Unfrozen,
		&run.PlaylistsRemoved,
		&run.TracksRemoved,
		&run.ErrorMessage,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	out := models.NewRun(id, run.Command, startedAt)
	out.Sequence = run.Sequence
	out.FinishedAt = run.FinishedAt
	out.Total = run.Total
	out.Rendered = run.Rendered
	out.Failed = run.Failed
	out.CacheHits = run.CacheHits
	out.CacheMisses = run.CacheMisses
	out.RemoteChecks = run.RemoteChecks
	out.Frozen = run.Frozen
	out.Unfrozen = run.Unfrozen
	out.PlaylistsRemoved = run.PlaylistsRemoved
	out.TracksRemoved = run.TracksRemoved
	out.ErrorMessage = run.ErrorMessage
	return out, nil
}
