package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Mixdisc     MixdiscConfig     `toml:"mixdisc"`
	Cache       CacheConfig       `toml:"cache"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
}

// MixdiscConfig locates descriptors and output, and sets the duration policy.
type MixdiscConfig struct {
	Directory             string `toml:"directory"`
	OutputDirectory       string `toml:"output_directory"`
	DurationThresholdMins int    `toml:"duration_threshold_mins"`
	Service               string `toml:"service"`
}

// CacheConfig contains paths and eviction settings for the on-disk caches.
type CacheConfig struct {
	PlaylistFile    string `toml:"playlist_file"`
	TrackFile       string `toml:"track_file"`
	TrackMaxAgeDays int    `toml:"track_max_age_days"`
	FreezeNewRemote bool   `toml:"freeze_new_remote"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID          string  `toml:"client_id"`
	ClientSecret      string  `toml:"client_secret"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// DatabaseConfig contains run history database settings. An empty path disables history.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// DurationThreshold returns the playlist duration limit.
func (c *Config) DurationThreshold() time.Duration {
	return time.Duration(c.Mixdisc.DurationThresholdMins) * time.Minute
}

// ApplyEnv overrides Spotify credentials with SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
}

// Validate checks values the batch cannot run without.
func (c *Config) Validate() error {
	if c.Mixdisc.DurationThresholdMins <= 0 {
		return fmt.Errorf("%w: duration_threshold_mins must be positive", ErrInvalidConfig)
	}
	if c.Cache.TrackMaxAgeDays < 0 {
		return fmt.Errorf("%w: track_max_age_days must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
