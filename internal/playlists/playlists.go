// package playlists loads mixdisc descriptors from YAML files.
//
// Descriptors live one level below the mixdiscs directory, in a folder named after their user:
//
//	mixdiscs/<user>/<title>.yaml
package playlists

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/desertthunder/mixdisc/internal/models"
	"github.com/desertthunder/mixdisc/internal/services"
	"github.com/desertthunder/mixdisc/internal/shared"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
	maxTitleLen    = 100
)

// descriptor is the on-disk YAML shape.
type descriptor struct {
	User           string   `yaml:"user"`
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	Genre          string   `yaml:"genre"`
	Playlist       []string `yaml:"playlist"`
	RemotePlaylist *string  `yaml:"remote_playlist"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrInvalidDescriptor, fmt.Sprintf(format, args...))
}

// ValidateUsername checks length and character set.
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return invalid("username cannot be empty")
	case len(username) < minUsernameLen:
		return invalid("username must be at least %d characters", minUsernameLen)
	case len(username) > maxUsernameLen:
		return invalid("username must be at most %d characters", maxUsernameLen)
	case !usernamePattern.MatchString(username):
		return invalid("username must start with a letter or number and contain only letters, numbers, underscores and hyphens")
	}
	return nil
}

// ValidateUserFolder checks that path sits directly in baseDir/<username>/.
func ValidateUserFolder(path, username, baseDir string) error {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return invalid("%s is not inside %s", path, baseDir)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 || parts[0] == ".." {
		return invalid("playlist path must be in format <user>/<playlist>.yaml, got %s", rel)
	}
	if parts[0] != username {
		return invalid("username %q does not match folder name %q", username, parts[0])
	}
	return nil
}

// ParseEntry splits "Artist - Title" or "Artist - Title | Album". The artist ends at the first " - ".
func ParseEntry(entry string) (models.Entry, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return models.Entry{}, invalid("playlist entry cannot be blank")
	}

	var album *string
	if i := strings.Index(entry, "|"); i >= 0 {
		head, tail := entry[:i], entry[i+1:]
		if !strings.HasSuffix(head, " ") || (tail != "" && !strings.HasPrefix(tail, " ")) {
			return models.Entry{}, invalid("album must be separated with spaces around '|': %q", entry)
		}
		a := strings.TrimSpace(tail)
		if a == "" {
			return models.Entry{}, invalid("album cannot be blank: %q", entry)
		}
		album = &a
		entry = strings.TrimSpace(head)
	}

	artist, title, ok := strings.Cut(entry, " - ")
	if !ok {
		// a blank side leaves no surrounding space once trimmed
		if strings.HasPrefix(entry, "- ") {
			return models.Entry{}, invalid("artist name cannot be blank: %q", entry)
		}
		if strings.HasSuffix(entry, " -") {
			return models.Entry{}, invalid("song title cannot be blank: %q", entry)
		}
		return models.Entry{}, invalid("invalid playlist entry format, expected 'Artist - Title': %q", entry)
	}

	artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
	if artist == "" {
		return models.Entry{}, invalid("artist name cannot be blank: %q", entry)
	}
	if title == "" {
		return models.Entry{}, invalid("song title cannot be blank: %q", entry)
	}
	return models.Entry{Artist: artist, Title: title, Album: album}, nil
}

// LoadFile parses and validates one descriptor. A non-empty baseDir also enforces the user folder layout.
func LoadFile(path, baseDir string) (models.Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var d descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return models.Playlist{}, invalid("failed to parse %s: %v", path, err)
	}

	p := models.Playlist{
		User:        strings.TrimSpace(d.User),
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Genre:       d.Genre,
		FilePath:    path,
	}

	if err := ValidateUsername(p.User); err != nil {
		return p, err
	}
	if p.Title == "" {
		return p, invalid("title cannot be empty")
	}
	if len(p.Title) > maxTitleLen {
		return p, invalid("title must be at most %d characters", maxTitleLen)
	}
	if baseDir != "" {
		if err := ValidateUserFolder(path, p.User, baseDir); err != nil {
			return p, err
		}
	}

	remote := ""
	if d.RemotePlaylist != nil {
		remote = strings.TrimSpace(*d.RemotePlaylist)
	}
	hasManual := d.Playlist != nil

	switch {
	case hasManual && remote != "":
		return p, invalid("cannot have both 'playlist' and 'remote_playlist'")
	case !hasManual && remote == "":
		return p, invalid("must specify either 'playlist' or 'remote_playlist'")
	case remote != "":
		if _, err := services.ExtractPlaylistID(remote); err != nil {
			return p, invalid("invalid spotify playlist URL %q", remote)
		}
		p.RemoteURL = remote
	default:
		if len(d.Playlist) == 0 {
			return p, invalid("playlist must contain at least one entry")
		}
		for _, raw := range d.Playlist {
			e, err := ParseEntry(raw)
			if err != nil {
				return p, err
			}
			p.Entries = append(p.Entries, e)
		}
	}
	return p, nil
}

// LoadDir loads every *.yaml below dir in path order. Files that fail to load are logged and skipped.
func LoadDir(dir string, logger *log.Logger) ([]models.Playlist, error) {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("playlist directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", shared.ErrInvalidArgument, dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".yaml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(paths)

	var out []models.Playlist
	for _, path := range paths {
		p, err := LoadFile(path, dir)
		if err != nil {
			logger.Error("skipping playlist", "path", path, "error", err)
			continue
		}
		out = append(out, p)
	}
	logger.Debug("loaded playlists", "dir", dir, "count", len(out))
	return out, nil
}

// Duplicate pairs the first descriptor of a (user, title) with a later one.
type Duplicate struct {
	Original  models.Playlist
	Duplicate models.Playlist
}

// FindDuplicates reports every descriptor whose (user, title) was already seen.
func FindDuplicates(playlists []models.Playlist) []Duplicate {
	seen := make(map[string]models.Playlist, len(playlists))
	var dups []Duplicate
	for _, p := range playlists {
		key := p.User + "/" + p.Title
		if first, ok := seen[key]; ok {
			dups = append(dups, Duplicate{Original: first, Duplicate: p})
			continue
		}
		seen[key] = p
	}
	return dups
}

// IsInvalid reports whether err came from descriptor validation.
func IsInvalid(err error) bool {
	return errors.Is(err, shared.ErrInvalidDescriptor)
}
