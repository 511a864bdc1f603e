package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/mixdisc/internal/server"
	"github.com/desertthunder/mixdisc/internal/shared"
	"github.com/desertthunder/mixdisc/internal/ui"
	"github.com/urfave/cli/v3"
)

// History lists recorded runs, newest first, optionally pruning old ones first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, repo, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	if days := cmd.Int("prune-days"); days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		n, err := repo.DeleteBefore(cutoff)
		if err != nil {
			return err
		}
		r.logger.Info("pruned run history", "removed", n, "before", cutoff.Format(time.DateOnly))
	}

	runs, err := repo.List(map[string]any{"command": cmd.String("command"), "limit": cmd.Int("limit")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]map[string]any, 0, len(runs))
		for _, run := range runs {
			views = append(views, map[string]any{
				"id":            run.ID(),
				"sequence":      run.Sequence,
				"command":       run.Command,
				"started_at":    run.StartedAt,
				"elapsed":       run.Elapsed().String(),
				"total":         run.Total,
				"rendered":      run.Rendered,
				"failed":        run.Failed,
				"cache_hits":    run.CacheHits,
				"cache_misses":  run.CacheMisses,
				"frozen":        run.Frozen,
				"unfrozen":      run.Unfrozen,
				"error_message": run.ErrorMessage,
			})
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded\n")
	}
	p := ui.Styles()
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := p.OK("✓")
		if run.Failed > 0 || run.ErrorMessage != "" {
			status = p.Err("✗")
		}
		rows = append(rows, []string{
			status,
			fmt.Sprintf("#%d", run.Sequence),
			run.Command,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d/%d", run.Rendered, run.Total),
			strconv.Itoa(run.CacheHits),
			strconv.Itoa(run.Frozen),
			run.Elapsed().Round(time.Millisecond).String(),
		})
	}
	return r.writePlain("%s\n", renderTable(
		[]string{"", "Run", "Command", "Started", "Rendered", "Cache hits", "Frozen", "Elapsed"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
}

// Serve previews the output directory, plus /api/runs when a history database is configured.
//
// With --schedule the site is re-rendered on that cron expression while the server runs.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if expr := cmd.String("schedule"); expr != "" {
		c, err := r.scheduleRender(ctx, expr)
		if err != nil {
			return err
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	router := r.newRouter()
	if r.config.Database.Path != "" {
		db, repo, err := r.openHistory()
		if err != nil {
			r.logger.Warn("run history unavailable", "error", err)
		} else {
			defer db.Close()
			router.Handler(server.NewRunsHandler(repo))
		}
	}
	return server.Serve(ctx, cmd.String("addr"), router, shared.WithLogger(r.logger, "component", "server"))
}

func (r *Runner) newRouter() *server.BasicRouter {
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(shared.WithLogger(r.logger, "component", "http")), server.NoCache)
	router.Handler(server.NewSiteHandler(r.config.Mixdisc.OutputDirectory))
	return router
}

