package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"animethreads/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Request pacing and throttle cooldowns are disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = base
	cfgVal.Paths.ArchiveDir = filepath.Join(base, "reddit")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CatalogFile = filepath.Join(base, "anilist.json")
	cfgVal.Paths.PostsFile = filepath.Join(base, "reddit_latest.json")
	cfgVal.Paths.MatchedFile = filepath.Join(base, "matched_latest.json")
	cfgVal.Archive.IndexPath = filepath.Join(base, "archive.db")
	cfgVal.Refresh.RequestIntervalMillis = config.MinRequestIntervalMillis
	cfgVal.Refresh.ThrottleCooldownSeconds = 0
	cfgVal.Reddit.UserAgent = "animethreads-test/1.0"
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAniListURL points the catalog client at a test server.
func WithAniListURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.AniList.BaseURL = url
	}
}

// WithRedditURL points the listing and comment clients at a test server.
func WithRedditURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reddit.BaseURL = url
	}
}

// WithIndex enables the SQLite archive index.
func WithIndex() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.IndexEnabled = true
	}
}

// WithPublishDir sets the publish target to a directory under the test base.
func WithPublishDir(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.PublishDir = filepath.Join(b.baseDir, name)
	}
}

// WriteConfig encodes cfg as TOML at path.
func WriteConfig(t testing.TB, path string, cfg *config.Config) {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
