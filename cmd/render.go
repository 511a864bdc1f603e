package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixdisc/internal/cache"
	"github.com/desertthunder/mixdisc/internal/formatter"
	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/playlists"
	"github.com/desertthunder/mixdisc/internal/shared"
	"github.com/desertthunder/mixdisc/internal/tasks"
	"github.com/desertthunder/mixdisc/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// renderOpts mirrors the render command flags.
type renderOpts struct {
	SkipErrors  bool
	NoCache     bool
	Quiet       bool
	Interactive bool
}

// Render processes every descriptor in the configured directory and writes the site.
//
// The site is written even when some playlists fail; the failure count is returned afterwards unless
// --skip-errors is set.
func (r *Runner) Render(ctx context.Context, cmd *cli.Command) error {
	return r.render(ctx, renderOpts{
		SkipErrors:  cmd.Bool("skip-errors"),
		NoCache:     cmd.Bool("no-cache"),
		Quiet:       cmd.Bool("quiet"),
		Interactive: cmd.Bool("interactive"),
	})
}

func (r *Runner) render(ctx context.Context, opts renderOpts) error {
	if err := r.requireService(); err != nil {
		return err
	}

	loaded, err := playlists.LoadDir(r.config.Mixdisc.Directory, shared.WithLogger(r.logger, "component", "playlists"))
	if err != nil {
		return err
	}
	loaded = r.dropDuplicates(loaded)

	var ps *cache.PlaylistStore
	var ts *cache.TrackStore
	if !opts.NoCache {
		ps, ts = r.loadStores()
	}

	engine, err := r.newEngine(ps, ts, opts.SkipErrors)
	if err != nil {
		return err
	}

	var result *tasks.RenderResult
	var renderErr error
	if opts.Interactive && !isTerminal(r.output) {
		r.logger.Warn("output is not a terminal, using line progress")
		opts.Interactive = false
	}
	if opts.Interactive {
		result, renderErr = r.renderInteractive(ctx, engine, loaded)
	} else {
		result, renderErr = r.renderPlain(ctx, engine, loaded, opts.Quiet)
	}

	if result == nil || errors.Is(renderErr, context.Canceled) {
		return renderErr
	}

	site, err := formatter.WriteSite(r.config.Mixdisc.OutputDirectory, result.Processed, r.service.Name(), result.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to write site: %w", err)
	}
	r.logger.Info("site written", "index", site.IndexHTML, "playlists", len(site.Exports))

	r.recordRun(result, renderErr)

	r.writePlain("%s", ui.RenderSummary(result))
	if notices := ui.FrozenNotices(result.Processed); notices != "" {
		r.writePlainln("%s", notices)
	}
	return renderErr
}

func (r *Runner) renderPlain(ctx context.Context, engine *tasks.BatchEngine, loaded []models.Playlist, quiet bool) (*tasks.RenderResult, error) {
	if quiet {
		return engine.Render(ctx, loaded, nil)
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		ui.WatchProgress(r.output, progress)
		close(done)
	}()

	result, err := engine.Render(ctx, loaded, progress)
	close(progress)
	<-done
	return result, err
}

// renderInteractive runs the batch under the TUI and returns once both have finished.
func (r *Runner) renderInteractive(ctx context.Context, engine *tasks.BatchEngine, loaded []models.Playlist) (*tasks.RenderResult, error) {
	model := ui.NewModel(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RenderResult, error) {
		return engine.Render(ctx, loaded, progress)
	}, r.service.Name())

	if _, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run(); err != nil {
		return nil, fmt.Errorf("failed to run TUI: %w", err)
	}
	return model.Wait()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// dropDuplicates keeps the first descriptor of each (user, title).
func (r *Runner) dropDuplicates(loaded []models.Playlist) []models.Playlist {
	dups := playlists.FindDuplicates(loaded)
	if len(dups) == 0 {
		return loaded
	}
	skip := make(map[string]bool, len(dups))
	for _, d := range dups {
		r.logger.Warn("skipping duplicate playlist", "user", d.Duplicate.User, "title", d.Duplicate.Title,
			"path", d.Duplicate.FilePath, "original", d.Original.FilePath)
		skip[d.Duplicate.FilePath] = true
	}
	out := make([]models.Playlist, 0, len(loaded)-len(dups))
	for _, p := range loaded {
		if !skip[p.FilePath] {
			out = append(out, p)
		}
	}
	return out
}

// recordRun stores the batch in the run history when a database is configured. Failures only warn.
func (r *Runner) recordRun(result *tasks.RenderResult, renderErr error) {
	if r.config.Database.Path == "" {
		return
	}
	db, repo, err := r.openHistory()
	if err != nil {
		r.logger.Warn("run history unavailable", "error", err)
		return
	}
	defer db.Close()

	run := result.Run("render")
	if renderErr != nil {
		run.ErrorMessage = renderErr.Error()
	}
	if err := repo.Create(run); err != nil {
		r.logger.Warn("failed to record run", "run", result.RunID, "error", err)
		return
	}
	r.logger.Debug("recorded run", "run", result.RunID, "sequence", run.Sequence)
}

// Validate checks the given descriptor files against the descriptors already in the configured directory.
//
// Exits with an error when any file fails; the results are printed first.
func (r *Runner) Validate(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("%w: at least one playlist file", shared.ErrMissingArgument)
	}
	if err := r.requireService(); err != nil {
		return err
	}

	dir := r.config.Mixdisc.Directory
	var existing []models.Playlist
	if _, err := os.Stat(dir); err == nil {
		if existing, err = playlists.LoadDir(dir, shared.WithLogger(r.logger, "component", "playlists")); err != nil {
			return err
		}
	} else {
		r.logger.Warn("playlist directory not found, skipping duplicate check", "dir", dir)
	}

	var ps *cache.PlaylistStore
	var ts *cache.TrackStore
	if cmd.Bool("update-cache") {
		ps, ts = r.loadStores()
	}
	engine, err := r.newEngine(ps, ts, false)
	if err != nil {
		return err
	}

	results := engine.ValidateFiles(ctx, files, existing, dir, nil)

	switch {
	case cmd.Bool("json"):
		err = r.writeJSON(results, true)
	case cmd.Bool("markdown"):
		err = r.writePlain("%s\n", formatter.ValidationReport(results))
	default:
		err = r.writePlain("%s", ui.ValidationSummary(results))
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if !res.Valid {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d playlists failed validation", shared.ErrInvalidDescriptor, failed, len(results))
	}
	return nil
}
