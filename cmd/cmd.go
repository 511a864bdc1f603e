// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// renderCommand processes every descriptor and writes the site
func renderCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Resolve all playlists and render the site",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-errors",
				Usage: "Exit successfully even when some playlists fail",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Ignore the playlist and track caches for this run",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only print the summary",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Follow progress and browse the results in a TUI",
			},
		},
		Action: r.Render,
	}
}

// validateCommand checks descriptor files before they are merged
func validateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate playlist descriptor files",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "update-cache",
				Usage: "Store valid results in the caches",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output results as JSON",
			},
			&cli.BoolFlag{
				Name:  "markdown",
				Usage: "Output a Markdown report",
			},
		},
		Action: r.Validate,
	}
}

// cacheCommand inspects and maintains the on-disk caches
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and maintain the playlist and track caches",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:  "cleanup",
				Usage: "Remove entries no descriptor references",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-age-days",
						Usage: "Evict unreferenced tracks not accessed for this many days (default from config)",
						Value: -1,
					},
				},
				Action: r.CacheCleanup,
			},
			{
				Name:   "clear",
				Usage:  "Delete both cache files",
				Action: r.CacheClear,
			},
		},
	}
}

// setupCommand creates the config file and the run history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
		},
	}
}

// historyCommand lists recorded runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent render runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "command",
				Usage: "Only show runs of this command",
			},
			&cli.IntFlag{
				Name:  "prune-days",
				Usage: "Delete runs older than this many days first",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// serveCommand previews the rendered site
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the rendered site locally",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: "localhost:3000",
			},
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "Re-render on a cron expression, e.g. \"@hourly\" or \"0 */6 * * *\"",
			},
		},
		Action: r.Serve,
	}
}
