package tasks

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/mixdisc/internal/cache"
	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/playlists"
)

// ValidateFiles validates descriptor files against the duration limit.
//
// existing holds the already published descriptors; any of them that is also in files is ignored,
// so a file is never reported as a duplicate of itself. When the engine has a playlist store,
// unchanged descriptors are answered from it and passing ones are written back.
func (e *BatchEngine) ValidateFiles(ctx context.Context, files []string, existing []models.Playlist, baseDir string, progress chan<- ProgressUpdate) []models.ValidationResult {
	validating := make(map[string]struct{}, len(files))
	for _, f := range files {
		validating[filepath.Clean(f)] = struct{}{}
	}

	all := make([]models.Playlist, 0, len(existing)+len(files))
	for _, p := range existing {
		if _, ok := validating[filepath.Clean(p.FilePath)]; !ok {
			all = append(all, p)
		}
	}

	loaded := make(map[string]models.Playlist, len(files))
	loadErrs := make(map[string]error)
	for _, f := range files {
		p, err := playlists.LoadFile(f, baseDir)
		if err != nil {
			loadErrs[f] = err
			continue
		}
		loaded[f] = p
		all = append(all, p)
	}

	duplicateOf := make(map[string]string)
	for _, d := range playlists.FindDuplicates(all) {
		if _, ok := validating[filepath.Clean(d.Duplicate.FilePath)]; ok {
			duplicateOf[filepath.Clean(d.Duplicate.FilePath)] = d.Original.FilePath
		}
	}

	limit := int(e.opts.Threshold.Seconds())
	results := make([]models.ValidationResult, 0, len(files))
	for i, f := range files {
		sendProgress(progress, validateUpdate(i+1, len(files), f))

		p, ok := loaded[f]
		if !ok {
			e.logger.Error("failed to load playlist", "path", f, "error", loadErrs[f])
			results = append(results, models.ValidationResult{
				FilePath:         f,
				User:             "Unknown",
				Title:            "Unknown",
				ThresholdSeconds: limit,
				ErrorMessage:     fmt.Sprintf("Failed to load playlist file: %v", loadErrs[f]),
			})
			continue
		}

		if original, dup := duplicateOf[filepath.Clean(f)]; dup {
			e.logger.Error("duplicate playlist", "playlist", p.Title, "original", original)
			results = append(results, models.ValidationResult{
				FilePath:         f,
				User:             p.User,
				Title:            p.Title,
				ThresholdSeconds: limit,
				DuplicateOf:      original,
			})
			continue
		}

		r := e.validate(ctx, p)
		r.FilePath = f
		if r.Valid {
			e.logger.Info("playlist is valid", "playlist", p.Title, "duration", r.TotalDuration)
		} else if r.ErrorMessage != "" {
			e.logger.Error("playlist failed", "playlist", p.Title, "error", r.ErrorMessage)
		} else {
			e.logger.Error("playlist exceeds duration limit", "playlist", p.Title, "exceeded_by", r.Exceeded())
		}
		results = append(results, r)
	}

	valid := 0
	for _, r := range results {
		if r.Valid {
			valid++
		}
	}
	e.logger.Info("validation complete", "valid", valid, "invalid", len(results)-valid)
	return results
}

func (e *BatchEngine) validate(ctx context.Context, p models.Playlist) models.ValidationResult {
	out := models.ValidationResult{
		FilePath:         p.FilePath,
		User:             p.User,
		Title:            p.Title,
		ThresholdSeconds: int(e.opts.Threshold.Seconds()),
	}
	key := cache.CacheKey(p.User, p.Title)
	store := e.opts.Playlists

	var result *models.ServiceResult
	usedCache := false
	if store != nil {
		if entry, ok := store.Entry(key); ok {
			valid, err := store.IsValid(p, entry)
			if err != nil {
				out.ErrorMessage = err.Error()
				return out
			}
			if cached, ok := entry.Result(e.svc.Name()); valid && ok {
				e.logger.Info("cache hit, using cached validation", "playlist", key)
				result, usedCache = cached, true
			} else {
				e.logger.Info("cache invalid, reprocessing", "playlist", key)
			}
		}
	}

	if result == nil {
		if p.IsRemote() {
			fetched, err := e.svc.FetchRemotePlaylist(ctx, p.RemoteURL)
			if err != nil {
				out.ErrorMessage = err.Error()
				return out
			}
			result = fetched
		} else {
			res, err := e.resolver.Resolve(ctx, p, e.svc, nil)
			if err != nil {
				out.ErrorMessage = err.Error()
				return out
			}
			result = res.Result
		}
	}

	if !p.IsRemote() {
		for i, t := range result.Tracks {
			if t == nil && i < len(p.Entries) {
				out.MissingTracks = append(out.MissingTracks, p.Entries[i])
			}
		}
	}
	out.TotalDuration = result.TotalDuration
	out.Valid = result.Duration() <= e.opts.Threshold

	if store != nil && out.Valid && !usedCache {
		var snapshot *string
		if p.IsRemote() {
			if id, err := e.svc.SnapshotID(ctx, p.RemoteURL); err != nil {
				e.logger.Warn("failed to get snapshot", "playlist", key, "error", err)
			} else {
				snapshot = &id
			}
		}
		if err := store.Put(key, p, result, snapshot); err != nil {
			out.ErrorMessage = err.Error()
			out.Valid = false
			return out
		}
		if err := store.Save(e.opts.PlaylistCachePath); err != nil {
			e.logger.Error("failed to save playlist cache", "error", err)
		}
	}
	if e.opts.Tracks != nil {
		if err := e.opts.Tracks.Save(e.opts.TrackCachePath); err != nil {
			e.logger.Error("failed to save track cache", "error", err)
		}
	}
	return out
}
