package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mixdisc/internal/shared"
	"github.com/robfig/cron/v3"
)

// scheduleParser accepts five-field expressions and descriptors such as @hourly or @every 30m.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// scheduleRender registers a quiet re-render on expr. The returned cron is not started.
func (r *Runner) scheduleRender(ctx context.Context, expr string) (*cron.Cron, error) {
	if err := r.requireService(); err != nil {
		return nil, err
	}
	schedule, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	c := cron.New(cron.WithParser(scheduleParser))
	c.Schedule(schedule, cron.FuncJob(func() { r.scheduledRender(ctx) }))
	shared.WithLogger(r.logger, "component", "scheduler").Info("re-render scheduled",
		"schedule", expr, "next", schedule.Next(time.Now()).Format(time.RFC3339))
	return c, nil
}

// scheduledRender runs one skip-errors batch. Triggers that fire while a batch is running join it.
func (r *Runner) scheduledRender(ctx context.Context) error {
	logger := shared.WithLogger(r.logger, "component", "scheduler")
	_, err, joined := r.renders.Do("render", func() (any, error) {
		logger.Info("scheduled render started")
		return nil, r.render(ctx, renderOpts{SkipErrors: true, Quiet: true})
	})
	switch {
	case joined:
		logger.Debug("render already running")
	case err != nil:
		logger.Error("scheduled render failed", "error", err)
	default:
		logger.Info("scheduled render finished")
	}
	return err
}
