package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mixdisc/internal/shared"
	"github.com/desertthunder/mixdisc/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the run history database and runs migrations, or with --rollback
// reverts the newest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("rollback") {
		return r.rollbackDatabase()
	}
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, _, err := r.openHistory()
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("%s Database ready at %s (schema version %d)\n", ui.Styles().OK("✓"), r.config.Database.Path, version)
	return nil
}

func (r *Runner) rollbackDatabase() error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := shared.RollbackMigration(db)
	if err != nil {
		return fmt.Errorf("failed to roll back database: %w", err)
	}
	current, err := shared.CurrentVersion(db)
	if err != nil {
		return err
	}
	r.logger.Warn("rolled back migration", "path", r.config.Database.Path, "version", version)
	return r.writePlain("%s Rolled back migration %d (schema version %d)\n", ui.Styles().Warn("↺"), version, current)
}

// SetupConfig writes the built-in config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("%s Config written to %s\n", ui.Styles().OK("✓"), r.configPath)
	r.writePlain("Next steps:\n")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET)\n")
	r.writePlain("2. Run 'mixdisc validate <file>' to check a playlist\n")
	return nil
}
