package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains data directory and snapshot file configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	ArchiveDir  string `toml:"archive_dir"`
	LogDir      string `toml:"log_dir"`
	CatalogFile string `toml:"catalog_file"`
	PostsFile   string `toml:"posts_file"`
	MatchedFile string `toml:"matched_file"`
	// PublishDir receives a copy of the season files for the static site.
	// Empty disables publishing.
	PublishDir string `toml:"publish_dir"`
}

// Matching contains title matcher thresholds.
type Matching struct {
	MinTokenLength    int      `toml:"min_token_length"`
	MinTokenMatch     int      `toml:"min_token_match"`
	FuzzyThreshold    float64  `toml:"fuzzy_threshold"`
	HighFuzzyOverride float64  `toml:"high_fuzzy_override"`
	ExtraStopwords    []string `toml:"extra_stopwords"`
	// DebugSampleSize caps how many unmatched posts are written to the match
	// output along with their best candidates.
	DebugSampleSize int `toml:"debug_sample_size"`
}

// Archive contains season store settings.
type Archive struct {
	DiscussionMarker string `toml:"discussion_marker"`
	IndexEnabled     bool   `toml:"index_enabled"`
	IndexPath        string `toml:"index_path"`
}

// Refresh contains comment count refresh settings.
type Refresh struct {
	SeasonCount             int `toml:"season_count"`
	EpisodeCount            int `toml:"episode_count"`
	MaxConsecutiveThrottles int `toml:"max_consecutive_throttles"`
	RequestIntervalMillis   int `toml:"request_interval_ms"`
	ThrottleCooldownSeconds int `toml:"throttle_cooldown_seconds"`
}

// AniList contains configuration for the AniList GraphQL catalog.
type AniList struct {
	BaseURL        string   `toml:"base_url"`
	Formats        []string `toml:"formats"`
	PerPage        int      `toml:"per_page"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Reddit contains configuration for the Reddit listing and comment endpoints.
type Reddit struct {
	BaseURL        string   `toml:"base_url"`
	Subreddit      string   `toml:"subreddit"`
	UserAgent      string   `toml:"user_agent"`
	Listings       []string `toml:"listings"`
	ListingLimit   int      `toml:"listing_limit"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for animethreads.
//
// Configuration sections by subsystem:
//   - Paths: data directory, archive directory and snapshot files
//   - Matching: tokenizer and title matcher thresholds
//   - Archive: discussion marker and the optional SQLite index
//   - Refresh: comment count refresh window and circuit breaker
//   - AniList: catalog acquisition
//   - Reddit: listing acquisition and comment counts
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Matching Matching `toml:"matching"`
	Archive  Archive  `toml:"archive"`
	Refresh  Refresh  `toml:"refresh"`
	AniList  AniList  `toml:"anilist"`
	Reddit   Reddit   `toml:"reddit"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/animethreads/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("animethreads.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, archive, log and publish directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ArchiveDir, c.Paths.LogDir, c.Paths.PublishDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequestInterval returns the mandatory pause between upstream API calls.
func (c *Config) RequestInterval() time.Duration {
	return time.Duration(c.Refresh.RequestIntervalMillis) * time.Millisecond
}

// ThrottleCooldown returns the pause taken after a rate-limited response.
func (c *Config) ThrottleCooldown() time.Duration {
	return time.Duration(c.Refresh.ThrottleCooldownSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
