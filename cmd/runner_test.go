package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/shared"
	tu "github.com/desertthunder/mixdisc/internal/testing"
	"github.com/urfave/cli/v3"
)

type runnerFixture struct {
	dir    string
	config *shared.Config
	svc    *tu.MockService
	output *bytes.Buffer
	runner *Runner
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	dir := t.TempDir()

	config := shared.DefaultConfig()
	config.Mixdisc.Directory = filepath.Join(dir, "mixdiscs")
	config.Mixdisc.OutputDirectory = filepath.Join(dir, "output")
	config.Cache.PlaylistFile = filepath.Join(dir, ".cache", "playlists.json")
	config.Cache.TrackFile = filepath.Join(dir, ".cache", "tracks.json")
	config.Database.Path = filepath.Join(dir, "mixdisc.db")

	svc := tu.NewMockService()
	svc.AddTrack(&models.Track{Artist: "Radiohead", Title: "Reckoner", Album: "In Rainbows", DurationSeconds: 290})
	svc.AddTrack(&models.Track{Artist: "Long", Title: "Song", DurationSeconds: 90 * 60})

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(dir, "config.toml"),
		Service:    svc,
		Logger:     shared.DiscardLogger(),
		Output:     output,
	})
	return &runnerFixture{dir: dir, config: config, svc: svc, output: output, runner: runner}
}

func (f *runnerFixture) descriptor(t *testing.T, user, name, content string) string {
	t.Helper()
	return tu.WriteDescriptor(t, f.config.Mixdisc.Directory, user, name, content)
}

func run(t *testing.T, cmd *cli.Command, args ...string) error {
	t.Helper()
	return cmd.Run(context.Background(), append([]string{cmd.Name}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			svc := tu.NewMockService()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "custom.toml",
				Logger:     logger,
				Output:     output,
				Service:    svc,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.service != svc {
				t.Error("expected service to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Errorf("expected configPath custom.toml, got %s", runner.configPath)
			}
			if !runner.configured {
				t.Error("expected injected config to skip loading")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected default configPath, got %s", runner.configPath)
			}
		})
	})

	t.Run("Before", func(t *testing.T) {
		root := func(r *Runner) *cli.Command {
			return &cli.Command{
				Name: "mixdisc",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Value: "config.toml"},
					&cli.BoolFlag{Name: "debug"},
				},
				Before: r.Before,
				Action: func(ctx context.Context, cmd *cli.Command) error { return nil },
			}
		}

		t.Run("loads config file and env credentials", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			content := "[mixdisc]\nduration_threshold_mins = 60\n"
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
			t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")

			runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()})
			if err := run(t, root(runner), "--config", path); err != nil {
				t.Fatalf("Before failed: %v", err)
			}

			if runner.config.Mixdisc.DurationThresholdMins != 60 {
				t.Errorf("threshold = %d, want 60", runner.config.Mixdisc.DurationThresholdMins)
			}
			if runner.config.Cache.TrackMaxAgeDays != 90 {
				t.Errorf("missing keys should keep defaults, got %d", runner.config.Cache.TrackMaxAgeDays)
			}
			if runner.config.Credentials.Spotify.ClientID != "env-id" {
				t.Errorf("ClientID = %s, want env-id", runner.config.Credentials.Spotify.ClientID)
			}
			if runner.service == nil || runner.service.Name() != "spotify" {
				t.Error("expected spotify service to be built")
			}
		})

		t.Run("loads credentials from .env next to the config", func(t *testing.T) {
			dir := t.TempDir()
			dotenv := "SPOTIFY_CLIENT_ID=dotenv-id\nSPOTIFY_CLIENT_SECRET=dotenv-secret\n"
			if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0600); err != nil {
				t.Fatal(err)
			}
			for _, key := range []string{"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET"} {
				t.Setenv(key, "")
				os.Unsetenv(key)
			}

			runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()})
			if err := run(t, root(runner), "--config", filepath.Join(dir, "config.toml")); err != nil {
				t.Fatalf("Before failed: %v", err)
			}
			if runner.config.Credentials.Spotify.ClientID != "dotenv-id" {
				t.Errorf("ClientID = %q, want dotenv-id", runner.config.Credentials.Spotify.ClientID)
			}
			if runner.service == nil {
				t.Error("expected spotify service to be built")
			}
		})

		t.Run("environment wins over .env", func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SPOTIFY_CLIENT_ID=dotenv-id\n"), 0600); err != nil {
				t.Fatal(err)
			}
			t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
			t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")

			runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()})
			if err := run(t, root(runner), "--config", filepath.Join(dir, "config.toml")); err != nil {
				t.Fatalf("Before failed: %v", err)
			}
			if runner.config.Credentials.Spotify.ClientID != "env-id" {
				t.Errorf("ClientID = %q, want env-id", runner.config.Credentials.Spotify.ClientID)
			}
		})

		t.Run("missing config file uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()})
			if err := run(t, root(runner), "--config", filepath.Join(t.TempDir(), "none.toml")); err != nil {
				t.Fatalf("Before failed: %v", err)
			}
			if runner.config.Mixdisc.DurationThresholdMins != 80 {
				t.Errorf("threshold = %d, want 80", runner.config.Mixdisc.DurationThresholdMins)
			}
		})

		t.Run("invalid config", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[mixdisc]\nduration_threshold_mins = 0\n"), 0644); err != nil {
				t.Fatal(err)
			}
			runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()})
			err := run(t, root(runner), "--config", path)
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlainln("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"render", "validate", "cache", "setup", "history", "serve"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil || cmd.Name != want[i] {
				t.Errorf("command %d = %v, want %s", i, cmd, want[i])
			}
		}
	})
}

func TestRender(t *testing.T) {
	t.Run("writes site, caches and history", func(t *testing.T) {
		f := newRunnerFixture(t)
		f.descriptor(t, "alice", "late-night.yaml",
			"user: alice\ntitle: Late Night\nplaylist:\n  - Radiohead - Reckoner | In Rainbows\n  - Nobody - Nothing\n")

		if err := run(t, renderCommand(f.runner)); err != nil {
			t.Fatalf("render failed: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(f.config.Mixdisc.OutputDirectory, "index.html"))
		tu.AssertFileExists(t, filepath.Join(f.config.Mixdisc.OutputDirectory, "playlists", "alice-late-night_tracks.csv"))
		tu.AssertFileExists(t, f.config.Cache.PlaylistFile)
		tu.AssertFileExists(t, f.config.Cache.TrackFile)

		out := f.output.String()
		if !strings.Contains(out, "[1/1] Late Night by alice") {
			t.Errorf("expected progress output, got:\n%s", out)
		}
		if !strings.Contains(out, "1 rendered, 0 failed, 1 total") {
			t.Errorf("expected summary, got:\n%s", out)
		}

		f.output.Reset()
		if err := run(t, historyCommand(f.runner), "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(f.output.String(), `"command": "render"`) {
			t.Errorf("expected recorded run, got:\n%s", f.output.String())
		}
	})

	t.Run("second run hits the cache", func(t *testing.T) {
		f := newRunnerFixture(t)
		f.descriptor(t, "alice", "late-night.yaml", "user: alice\ntitle: Late Night\nplaylist:\n  - Radiohead - Reckoner\n")

		if err := run(t, renderCommand(f.runner), "--quiet"); err != nil {
			t.Fatalf("first render failed: %v", err)
		}
		f.svc.ResetCalls()
		f.output.Reset()

		if err := run(t, renderCommand(f.runner), "--quiet"); err != nil {
			t.Fatalf("second render failed: %v", err)
		}
		if f.svc.FindCalls != 0 {
			t.Errorf("FindCalls = %d, want 0", f.svc.FindCalls)
		}
		if !strings.Contains(f.output.String(), "1 hits, 0 misses") {
			t.Errorf("expected a cache hit, got:\n%s", f.output.String())
		}
	})

	t.Run("no-cache leaves cache files alone", func(t *testing.T) {
		f := newRunnerFixture(t)
		f.descriptor(t, "alice", "late-night.yaml", "user: alice\ntitle: Late Night\nplaylist:\n  - Radiohead - Reckoner\n")

		if err := run(t, renderCommand(f.runner), "--quiet", "--no-cache"); err != nil {
			t.Fatalf("render failed: %v", err)
		}
		tu.AssertFileNotExists(t, f.config.Cache.PlaylistFile)
		tu.AssertFileNotExists(t, f.config.Cache.TrackFile)
	})

	t.Run("failed playlist", func(t *testing.T) {
		tests := []struct {
			name    string
			args    []string
			wantErr bool
		}{
			{name: "returns error after writing site", args: []string{"--quiet"}, wantErr: true},
			{name: "skip-errors succeeds", args: []string{"--quiet", "--skip-errors"}, wantErr: false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newRunnerFixture(t)
				f.svc.FetchErr = errors.New("spotify down")
				f.descriptor(t, "alice", "late-night.yaml", "user: alice\ntitle: Late Night\nplaylist:\n  - Radiohead - Reckoner\n")
				f.descriptor(t, "bob", "road-trip.yaml", "user: bob\ntitle: Road Trip\nremote_playlist: https://open.spotify.com/playlist/abc\n")

				err := run(t, renderCommand(f.runner), tt.args...)
				if tt.wantErr {
					if err == nil || !strings.Contains(err.Error(), "rendering completed with 1 errors") {
						t.Errorf("expected failure count error, got %v", err)
					}
				} else if err != nil {
					t.Errorf("expected no error, got %v", err)
				}

				tu.AssertFileExists(t, filepath.Join(f.config.Mixdisc.OutputDirectory, "index.html"))
				if !strings.Contains(f.output.String(), "bob/Road Trip") {
					t.Errorf("expected failure listed, got:\n%s", f.output.String())
				}
			})
		}
	})

	t.Run("interactive falls back without a terminal", func(t *testing.T) {
		f := newRunnerFixture(t)
		f.descriptor(t, "alice", "late-night.yaml", "user: alice\ntitle: Late Night\nplaylist:\n  - Radiohead - Reckoner\n")

		if err := run(t, renderCommand(f.runner), "--interactive"); err != nil {
			t.Fatalf("render failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "[1/1] Late Night by alice") {
			t.Errorf("expected line progress, got:\n%s", f.output.String())
		}
		if isTerminal(f.output) {
			t.Error("a buffer is not a terminal")
		}
	})

	t.Run("duplicate descriptors keep the first", func(t *testing.T) {
		f := newRunnerFixture(t)
		f.descriptor(t, "alice", "a.yaml", "user: alice\ntitle: Same\nplaylist:\n  - Radiohead - Reckoner\n")
		f.descriptor(t, "alice", "b.yaml", "user: alice\ntitle: Same\nplaylist:\n  - Long - Song\n")

		if err := run(t, renderCommand(f.runner), "--quiet"); err != nil {
			t.Fatalf("render failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "1 rendered, 0 failed, 1 total") {
			t.Errorf("expected one playlist, got:\n%s", f.output.String())
		}
	})

	t.Run("without service", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})
		err := run(t, renderCommand(runner))
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		f := newRunnerFixture(t)
		path := f.descriptor(t, "alice", "late-night.yaml", "user: alice\ntitle: Late Night\nplaylist:\n  - Radiohead - Reckoner\n")

		if err := run(t, validateCommand(f.runner), path); err != nil {
			t.Fatalf("validate failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "Late Night by alice") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}
		tu.AssertFileNotExists(t, f.config.Cache.PlaylistFile)
	})

	t.Run("update-cache stores result", func(t *testing.T) {
		f := newRunnerFixture(t)
		path := f.descriptor(t, "alice", "late-night.yaml", "user: alice\ntitle: Late Night\nplaylist:\n  - Radiohead - Reckoner\n")

		if err := run(t, validateCommand(f.runner), "--update-cache", path); err != nil {
			t.Fatalf("validate failed: %v", err)
		}
		tu.AssertFileExists(t, f.config.Cache.PlaylistFile)
		tu.AssertFileExists(t, f.config.Cache.TrackFile)
	})

	t.Run("over limit", func(t *testing.T) {
		f := newRunnerFixture(t)
		path := f.descriptor(t, "alice", "long.yaml", "user: alice\ntitle: Long\nplaylist:\n  - Long - Song\n")

		err := run(t, validateCommand(f.runner), "--json", path)
		if !errors.Is(err, shared.ErrInvalidDescriptor) {
			t.Errorf("expected ErrInvalidDescriptor, got %v", err)
		}
		if !strings.Contains(f.output.String(), `"is_valid": false`) {
			t.Errorf("expected JSON results, got:\n%s", f.output.String())
		}
	})

	t.Run("markdown report", func(t *testing.T) {
		f := newRunnerFixture(t)
		path := f.descriptor(t, "alice", "late-night.yaml", "user: alice\ntitle: Late Night\nplaylist:\n  - Radiohead - Reckoner\n")

		if err := run(t, validateCommand(f.runner), "--markdown", path); err != nil {
			t.Fatalf("validate failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "# Playlist Validation Results") {
			t.Errorf("expected report, got:\n%s", f.output.String())
		}
	})

	t.Run("no files", func(t *testing.T) {
		f := newRunnerFixture(t)
		err := run(t, validateCommand(f.runner))
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestCacheCommands(t *testing.T) {
	f := newRunnerFixture(t)
	path := f.descriptor(t, "alice", "late-night.yaml", "user: alice\ntitle: Late Night\nplaylist:\n  - Radiohead - Reckoner\n")
	f.descriptor(t, "bob", "keep.yaml", "user: bob\ntitle: Keep\nplaylist:\n  - Long - Song\n")
	if err := run(t, renderCommand(f.runner), "--quiet", "--skip-errors"); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	t.Run("stats", func(t *testing.T) {
		f.output.Reset()
		if err := run(t, cacheCommand(f.runner), "stats", "--json"); err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		for _, want := range []string{`"playlists": 2`, `"total_tracks": 2`} {
			if !strings.Contains(f.output.String(), want) {
				t.Errorf("stats missing %s:\n%s", want, f.output.String())
			}
		}
	})

	t.Run("cleanup", func(t *testing.T) {
		if err := os.Remove(path); err != nil {
			t.Fatal(err)
		}
		f.output.Reset()
		if err := run(t, cacheCommand(f.runner), "cleanup", "--max-age-days", "0"); err != nil {
			t.Fatalf("cleanup failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "Removed 1 playlists") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := run(t, cacheCommand(f.runner), "clear"); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		tu.AssertFileNotExists(t, f.config.Cache.PlaylistFile)
		tu.AssertFileNotExists(t, f.config.Cache.TrackFile)

		if err := run(t, cacheCommand(f.runner), "clear"); err != nil {
			t.Errorf("clearing twice should succeed, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		f := newRunnerFixture(t)
		if err := run(t, setupCommand(f.runner), "config"); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, f.runner.configPath)

		if err := run(t, setupCommand(f.runner), "config"); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		f := newRunnerFixture(t)
		if err := run(t, setupCommand(f.runner), "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		tu.AssertFileExists(t, f.config.Database.Path)
		if !strings.Contains(f.output.String(), "Database ready") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}
	})

	t.Run("database rollback", func(t *testing.T) {
		f := newRunnerFixture(t)
		if err := run(t, setupCommand(f.runner), "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}

		f.output.Reset()
		if err := run(t, setupCommand(f.runner), "database", "--rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "Rolled back migration 0 (schema version -1)") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}

		err := run(t, setupCommand(f.runner), "database", "--rollback")
		if !errors.Is(err, shared.ErrNoMigrations) {
			t.Errorf("expected ErrNoMigrations, got %v", err)
		}

		f.output.Reset()
		if err := run(t, setupCommand(f.runner), "database"); err != nil {
			t.Fatalf("re-running setup failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "schema version 0") {
			t.Errorf("expected migrations re-applied, got:\n%s", f.output.String())
		}
	})

	t.Run("database without path", func(t *testing.T) {
		f := newRunnerFixture(t)
		f.config.Database.Path = ""
		err := run(t, setupCommand(f.runner), "database")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestHistory(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		f := newRunnerFixture(t)
		if err := run(t, historyCommand(f.runner)); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "No runs recorded") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}
	})

	t.Run("lists runs and prunes", func(t *testing.T) {
		f := newRunnerFixture(t)
		f.descriptor(t, "alice", "late-night.yaml", "user: alice\ntitle: Late Night\nplaylist:\n  - Radiohead - Reckoner\n")
		for range 2 {
			if err := run(t, renderCommand(f.runner), "--quiet"); err != nil {
				t.Fatalf("render failed: %v", err)
			}
		}

		f.output.Reset()
		if err := run(t, historyCommand(f.runner), "--limit", "1"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "#2") || strings.Contains(f.output.String(), "#1") {
			t.Errorf("expected only the newest run, got:\n%s", f.output.String())
		}

		f.output.Reset()
		if err := run(t, historyCommand(f.runner), "--prune-days", "1", "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if strings.Count(f.output.String(), `"command": "render"`) != 2 {
			t.Errorf("recent runs should survive pruning:\n%s", f.output.String())
		}
	})
}
