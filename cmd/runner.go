package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixdisc/internal/cache"
	"github.com/desertthunder/mixdisc/internal/repositories"
	"github.com/desertthunder/mixdisc/internal/services"
	"github.com/desertthunder/mixdisc/internal/shared"
	"github.com/desertthunder/mixdisc/internal/tasks"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/singleflight"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.Service
	logger     *log.Logger
	output     io.Writer
	configured bool
	renders    singleflight.Group
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A Config passed here is used as-is; otherwise [Runner.Before] loads it from ConfigPath.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	configured := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		logger:     opts.Logger,
		output:     opts.Output,
		configured: configured,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		renderCommand, validateCommand, cacheCommand, setupCommand, historyCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config and builds the Spotify client when credentials are present.
//
// A .env file next to the config may supply SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET.
// A missing config file falls back to the embedded defaults. Missing credentials are not an error here;
// commands that need the service report it.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if err := r.loadConfig(); err != nil {
		return ctx, err
	}
	if r.service == nil {
		r.service = r.newService()
	}
	return ctx, nil
}

func (r *Runner) loadConfig() error {
	if r.configured {
		return nil
	}
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", r.configPath)
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	// Variables already set in the environment win over .env entries.
	dotenv := filepath.Join(filepath.Dir(r.configPath), ".env")
	if err := godotenv.Load(dotenv); err == nil {
		r.logger.Debug("loaded environment file", "path", dotenv)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to load %s: %w", dotenv, err)
	}
	r.config.ApplyEnv()
	r.configured = true
	return r.config.Validate()
}

func (r *Runner) newService() services.Service {
	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(services.SpotifyOpts{
		ClientID:          creds.ClientID,
		ClientSecret:      creds.ClientSecret,
		RequestsPerSecond: creds.RequestsPerSecond,
	})
	if err != nil {
		r.logger.Debug("spotify service unavailable", "error", err)
		return nil
	}
	return svc
}

func (r *Runner) requireService() error {
	if r.service == nil {
		return fmt.Errorf("%w: set [credentials.spotify] in %s or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET",
			shared.ErrMissingCredentials, r.configPath)
	}
	return nil
}

// loadStores reads both caches from the configured paths.
func (r *Runner) loadStores() (*cache.PlaylistStore, *cache.TrackStore) {
	logger := shared.WithLogger(r.logger, "component", "cache")
	return cache.LoadPlaylistStore(r.config.Cache.PlaylistFile, logger),
		cache.LoadTrackStore(r.config.Cache.TrackFile, logger)
}

func (r *Runner) newEngine(ps *cache.PlaylistStore, ts *cache.TrackStore, skipErrors bool) (*tasks.BatchEngine, error) {
	return tasks.NewBatchEngine(tasks.EngineOpts{
		Service:           r.service,
		Playlists:         ps,
		Tracks:            ts,
		PlaylistCachePath: r.config.Cache.PlaylistFile,
		TrackCachePath:    r.config.Cache.TrackFile,
		Threshold:         r.config.DurationThreshold(),
		TrackMaxAgeDays:   r.config.Cache.TrackMaxAgeDays,
		FreezeNewRemote:   r.config.Cache.FreezeNewRemote,
		SkipErrors:        skipErrors,
		Logger:            shared.WithLogger(r.logger, "component", "engine"),
	})
}

// openDatabase opens the configured run history database without migrating it.
func (r *Runner) openDatabase() (*sql.DB, error) {
	path := r.config.Database.Path
	if path == "" {
		return nil, fmt.Errorf("%w: [database] path is empty", shared.ErrMissingConfig)
	}
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// openHistory opens the run history database and applies pending migrations.
func (r *Runner) openHistory() (*sql.DB, *repositories.RunRepository, error) {
	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, repositories.NewRunRepository(db), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
