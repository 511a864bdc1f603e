package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/mixdisc/internal/cache"
	"github.com/desertthunder/mixdisc/internal/playlists"
	"github.com/desertthunder/mixdisc/internal/shared"
	"github.com/desertthunder/mixdisc/internal/tasks"
	"github.com/desertthunder/mixdisc/internal/ui"
	"github.com/urfave/cli/v3"
)

// CacheStats is the output of the cache stats command.
type CacheStats struct {
	PlaylistFile    string                `json:"playlist_file"`
	TrackFile       string                `json:"track_file"`
	Playlists       int                   `json:"playlists"`
	RemotePlaylists int                   `json:"remote_playlists"`
	FrozenPlaylists []string              `json:"frozen_playlists"`
	Tracks          cache.TrackCacheStats `json:"tracks"`
}

func collectCacheStats(ps *cache.PlaylistStore, ts *cache.TrackStore) CacheStats {
	stats := CacheStats{Playlists: ps.Len(), FrozenPlaylists: []string{}, Tracks: ts.Stats()}
	for _, key := range ps.Keys() {
		entry, _ := ps.Entry(key)
		if entry.RemotePlaylistURL != "" {
			stats.RemotePlaylists++
		}
		if entry.IsFrozen() {
			stats.FrozenPlaylists = append(stats.FrozenPlaylists, key)
		}
	}
	return stats
}

// CacheStats prints entry counts for both caches and the most accessed tracks.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	ps, ts := r.loadStores()
	stats := collectCacheStats(ps, ts)
	stats.PlaylistFile = r.config.Cache.PlaylistFile
	stats.TrackFile = r.config.Cache.TrackFile

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	p := ui.Styles()
	r.writePlain("%s\n", p.Title("Playlist cache"))
	r.writePlain("  File:      %s\n", stats.PlaylistFile)
	r.writePlain("  Playlists: %d (%d remote, %d frozen)\n", stats.Playlists, stats.RemotePlaylists, len(stats.FrozenPlaylists))
	for _, key := range stats.FrozenPlaylists {
		r.writePlain("    %s %s\n", p.Warn("⚠"), key)
	}

	r.writePlain("\n%s\n", p.Title("Track cache"))
	r.writePlain("  File:      %s\n", stats.TrackFile)
	r.writePlain("  Tracks:    %d (%d versions, %d not found)\n", stats.Tracks.TotalTracks, stats.Tracks.TotalVersions, stats.Tracks.NotFoundTracks)
	for name, s := range stats.Tracks.Services {
		r.writePlain("  %s: %d cached, %d not found\n", name, s.Cached, s.NotFound)
	}
	if len(stats.Tracks.MostAccessed) > 0 {
		r.writePlain("  Most accessed:\n")
		for _, a := range stats.Tracks.MostAccessed {
			r.writePlain("    %4d  %s\n", a.AccessCount, a.Key)
		}
	}
	return nil
}

// CacheCleanup prunes both caches against the descriptors currently in the configured directory.
func (r *Runner) CacheCleanup(ctx context.Context, cmd *cli.Command) error {
	maxAge := cmd.Int("max-age-days")
	if maxAge < 0 {
		maxAge = r.config.Cache.TrackMaxAgeDays
	}

	live, err := playlists.LoadDir(r.config.Mixdisc.Directory, shared.WithLogger(r.logger, "component", "playlists"))
	if err != nil {
		return err
	}

	ps, ts := r.loadStores()
	res := tasks.Maintain(ps, ts, live, maxAge)
	if err := r.saveStores(ps, ts); err != nil {
		return err
	}

	r.logger.Info("cache cleanup complete", "playlists_removed", res.PlaylistsRemoved, "tracks_removed", res.TracksRemoved)
	r.writePlain("%s Removed %d playlists and %d tracks (max age %d days)\n",
		ui.Styles().OK("✓"), res.PlaylistsRemoved, res.TracksRemoved, maxAge)
	return nil
}

// CacheClear deletes both cache files. Missing files are not an error.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	for _, path := range []string{r.config.Cache.PlaylistFile, r.config.Cache.TrackFile} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		r.logger.Info("cache removed", "path", path)
	}
	r.writePlain("%s Caches cleared\n", ui.Styles().OK("✓"))
	return nil
}

func (r *Runner) saveStores(ps *cache.PlaylistStore, ts *cache.TrackStore) error {
	if err := ps.Save(r.config.Cache.PlaylistFile); err != nil {
		return err
	}
	return ts.Save(r.config.Cache.TrackFile)
}

