package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeArchive()
	c.normalizeAniList()
	c.normalizeReddit()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = c.resolveDataPath(c.Paths.ArchiveDir, defaultArchiveDirName); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.LogDir, err = c.resolveDataPath(c.Paths.LogDir, defaultLogDirName); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CatalogFile, err = c.resolveDataPath(c.Paths.CatalogFile, defaultCatalogFileName); err != nil {
		return fmt.Errorf("paths.catalog_file: %w", err)
	}
	if c.Paths.PostsFile, err = c.resolveDataPath(c.Paths.PostsFile, defaultPostsFileName); err != nil {
		return fmt.Errorf("paths.posts_file: %w", err)
	}
	if c.Paths.MatchedFile, err = c.resolveDataPath(c.Paths.MatchedFile, defaultMatchedFileName); err != nil {
		return fmt.Errorf("paths.matched_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.PublishDir) != "" {
		if c.Paths.PublishDir, err = expandPath(c.Paths.PublishDir); err != nil {
			return fmt.Errorf("paths.publish_dir: %w", err)
		}
	}
	if c.Archive.IndexPath, err = c.resolveDataPath(c.Archive.IndexPath, defaultIndexFileName); err != nil {
		return fmt.Errorf("archive.index_path: %w", err)
	}
	return nil
}

// resolveDataPath places empty values and bare file names under the data
// directory; anything else goes through the usual expansion rules.
func (c *Config) resolveDataPath(value, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	if !strings.HasPrefix(value, "~") && !filepath.IsAbs(value) && !strings.ContainsAny(value, `/\`) {
		return filepath.Join(c.Paths.DataDir, value), nil
	}
	return expandPath(value)
}

func (c *Config) normalizeMatching() {
	if c.Matching.MinTokenLength <= 0 {
		c.Matching.MinTokenLength = defaultMinTokenLength
	}
	if c.Matching.MinTokenMatch <= 0 {
		c.Matching.MinTokenMatch = defaultMinTokenMatch
	}
	if c.Matching.DebugSampleSize < 0 {
		c.Matching.DebugSampleSize = 0
	}
	if len(c.Matching.ExtraStopwords) > 0 {
		words := make([]string, 0, len(c.Matching.ExtraStopwords))
		seen := make(map[string]struct{}, len(c.Matching.ExtraStopwords))
		for _, word := range c.Matching.ExtraStopwords {
			normalized := strings.ToLower(strings.TrimSpace(word))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			words = append(words, normalized)
		}
		c.Matching.ExtraStopwords = words
	}
}

func (c *Config) normalizeArchive() {
	c.Archive.DiscussionMarker = strings.ToLower(strings.TrimSpace(c.Archive.DiscussionMarker))
	if c.Archive.DiscussionMarker == "" {
		c.Archive.DiscussionMarker = defaultDiscussionMarker
	}
}

func (c *Config) normalizeAniList() {
	c.AniList.BaseURL = strings.TrimRight(strings.TrimSpace(c.AniList.BaseURL), "/")
	if c.AniList.BaseURL == "" {
		c.AniList.BaseURL = defaultAniListBaseURL
	}
	formats := make([]string, 0, len(c.AniList.Formats))
	for _, format := range c.AniList.Formats {
		token := strings.ToUpper(strings.Trim(strings.TrimSpace(format), `"`))
		if token != "" {
			formats = append(formats, token)
		}
	}
	c.AniList.Formats = formats
	if c.AniList.PerPage <= 0 {
		c.AniList.PerPage = defaultAniListPerPage
	}
	if c.AniList.TimeoutSeconds <= 0 {
		c.AniList.TimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeReddit() {
	c.Reddit.BaseURL = strings.TrimRight(strings.TrimSpace(c.Reddit.BaseURL), "/")
	if c.Reddit.BaseURL == "" {
		c.Reddit.BaseURL = defaultRedditBaseURL
	}
	c.Reddit.Subreddit = strings.TrimPrefix(strings.TrimSpace(c.Reddit.Subreddit), "r/")
	if c.Reddit.Subreddit == "" {
		c.Reddit.Subreddit = defaultRedditSubreddit
	}
	if value, ok := os.LookupEnv("ANIMETHREADS_USER_AGENT"); ok && strings.TrimSpace(value) != "" {
		c.Reddit.UserAgent = value
	} else if value, ok := os.LookupEnv("REDDIT_USER_AGENT"); ok && strings.TrimSpace(value) != "" {
		c.Reddit.UserAgent = value
	}
	c.Reddit.UserAgent = strings.TrimSpace(c.Reddit.UserAgent)
	if c.Reddit.UserAgent == "" {
		c.Reddit.UserAgent = defaultRedditUserAgent
	}
	listings := make([]string, 0, len(c.Reddit.Listings))
	for _, listing := range c.Reddit.Listings {
		if normalized := strings.ToLower(strings.TrimSpace(listing)); normalized != "" {
			listings = append(listings, normalized)
		}
	}
	c.Reddit.Listings = listings
	if c.Reddit.ListingLimit <= 0 {
		c.Reddit.ListingLimit = defaultRedditListingLimit
	}
	if c.Reddit.TimeoutSeconds <= 0 {
		c.Reddit.TimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format != "json" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
