package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixdisc/internal/shared"
)

func utcNow() time.Time {
	return time.Now().UTC()
}

func loggerOrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return shared.DiscardLogger()
	}
	return l
}

// readStore decodes the JSON file at path into v.
//
// A missing file returns false with no error; a corrupt one returns the decode error.
func readStore(path string, v any) (bool, error) {
	if path == "" {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse cache file: %w", err)
	}
	return true, nil
}

// writeStore writes v to path as indented JSON, creating parent directories.
//
// A regular file sitting where the parent directory should be is removed first.
func writeStore(path string, v any, logger *log.Logger) error {
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		logger.Warn("removing file in place of cache directory", "path", dir)
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}
