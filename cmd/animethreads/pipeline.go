package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"animethreads/internal/archive"
	"animethreads/internal/archiveindex"
	"animethreads/internal/catalog"
	"animethreads/internal/config"
	"animethreads/internal/episode"
	"animethreads/internal/fileutil"
	"animethreads/internal/logging"
	"animethreads/internal/matching"
	"animethreads/internal/refresh"
	"animethreads/internal/season"
	"animethreads/internal/services"
	"animethreads/internal/services/anilist"
	"animethreads/internal/services/reddit"
	"animethreads/internal/snapshot"
	"animethreads/internal/textutil"
)

// app carries the resolved dependencies shared by the pipeline steps.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

type catalogResult struct {
	Path    string   `json:"path"`
	Periods []string `json:"periods"`
	Entries int      `json:"entries"`
}

type postsResult struct {
	Path      string         `json:"path"`
	Subreddit string         `json:"subreddit"`
	Counts    map[string]int `json:"counts"`
	Posts     int            `json:"posts"`
}

type matchResult struct {
	Path string `json:"path"`
	matching.Stats
}

type archiveResult struct {
	archive.Summary
	IndexedSeasons []string `json:"indexed_seasons,omitempty"`
}

func (a *app) httpClient(timeoutSeconds int) *http.Client {
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (a *app) redditClient(paced bool) (*reddit.Client, error) {
	cfg := reddit.Config{
		BaseURL:    a.cfg.Reddit.BaseURL,
		UserAgent:  a.cfg.Reddit.UserAgent,
		HTTPClient: a.httpClient(a.cfg.Reddit.TimeoutSeconds),
	}
	if paced {
		cfg.Limiter = services.NewLimiter(a.cfg.RequestInterval())
	}
	return reddit.New(cfg)
}

func (a *app) extractor() *episode.Extractor {
	return episode.NewExtractor(episode.DefaultRules(), a.cfg.Archive.DiscussionMarker)
}

func (a *app) fetchCatalog(ctx context.Context) (catalogResult, error) {
	client, err := anilist.New(anilist.Config{
		BaseURL:    a.cfg.AniList.BaseURL,
		UserAgent:  a.cfg.Reddit.UserAgent,
		Formats:    a.cfg.AniList.Formats,
		PerPage:    a.cfg.AniList.PerPage,
		HTTPClient: a.httpClient(a.cfg.AniList.TimeoutSeconds),
		Limiter:    services.NewLimiter(a.cfg.RequestInterval()),
		Logger:     a.logger,
	})
	if err != nil {
		return catalogResult{}, err
	}
	current := season.Current(a.now())
	periods := []season.Period{current, current.Previous()}
	entries, err := client.Catalog(ctx, periods...)
	if err != nil {
		return catalogResult{}, err
	}
	if err := catalog.Save(a.cfg.Paths.CatalogFile, entries); err != nil {
		return catalogResult{}, err
	}
	result := catalogResult{Path: a.cfg.Paths.CatalogFile, Entries: len(entries)}
	for _, period := range periods {
		result.Periods = append(result.Periods, period.Key())
	}
	logging.WithContext(ctx, a.logger).Info("catalog snapshot written",
		logging.String(logging.FieldEventType, "catalog_written"),
		logging.Int("entries", len(entries)),
		logging.String("path", result.Path),
	)
	return result, nil
}

func (a *app) fetchPosts(ctx context.Context) (postsResult, error) {
	client, err := a.redditClient(true)
	if err != nil {
		return postsResult{}, err
	}
	subreddit := a.cfg.Reddit.Subreddit
	counts := make(snapshot.Counts, len(a.cfg.Reddit.Listings))
	listings := make([][]snapshot.Post, 0, len(a.cfg.Reddit.Listings))
	for _, listing := range a.cfg.Reddit.Listings {
		posts, err := client.Listing(ctx, subreddit, listing, a.cfg.Reddit.ListingLimit)
		if err != nil {
			return postsResult{}, fmt.Errorf("fetch %s listing: %w", listing, err)
		}
		counts[listing] = len(posts)
		listings = append(listings, posts)
	}
	merged := snapshot.MergeUnique(listings...)
	counts["unique"] = len(merged)
	snap := snapshot.PostSnapshot{
		SnapshotAt:      a.now().UTC().Format(time.RFC3339),
		SourceSubreddit: "r/" + subreddit,
		Counts:          counts,
		Posts:           merged,
	}
	if err := snapshot.SavePosts(a.cfg.Paths.PostsFile, snap); err != nil {
		return postsResult{}, err
	}
	logging.WithContext(ctx, a.logger).Info("post snapshot written",
		logging.String(logging.FieldEventType, "posts_written"),
		logging.Int("posts", len(merged)),
		logging.String("path", a.cfg.Paths.PostsFile),
	)
	return postsResult{Path: a.cfg.Paths.PostsFile, Subreddit: subreddit, Counts: counts, Posts: len(merged)}, nil
}

func (a *app) match(ctx context.Context) (matchResult, error) {
	entries, err := catalog.Load(a.cfg.Paths.CatalogFile)
	if err != nil {
		return matchResult{}, err
	}
	posts, err := snapshot.LoadPosts(a.cfg.Paths.PostsFile)
	if err != nil {
		return matchResult{}, err
	}
	policy := matching.PolicyFromConfig(a.cfg.Matching)
	if err := policy.Validate(); err != nil {
		return matchResult{}, err
	}
	tokenizer := textutil.NewTokenizer(a.cfg.Matching.MinTokenLength, a.cfg.Matching.ExtraStopwords...)
	index := catalog.BuildIndex(entries, tokenizer)
	matcher := matching.NewMatcher(index, policy, a.logger)

	report, err := matcher.MatchPosts(ctx, posts, a.cfg.Matching.DebugSampleSize, a.now())
	if err != nil {
		return matchResult{}, err
	}
	if err := snapshot.SaveMatches(a.cfg.Paths.MatchedFile, report.Output); err != nil {
		return matchResult{}, err
	}
	return matchResult{Path: a.cfg.Paths.MatchedFile, Stats: report.Stats}, nil
}

// withArchiveLock runs fn while holding the archive directory lock.
func (a *app) withArchiveLock(fn func() error) (err error) {
	lock, err := archive.AcquireLock(a.cfg.Paths.ArchiveDir)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()
	return fn()
}

func (a *app) archive(ctx context.Context) (archiveResult, error) {
	records, err := snapshot.LoadMatches(a.cfg.Paths.MatchedFile)
	if err != nil {
		return archiveResult{}, err
	}
	entries, err := catalog.Load(a.cfg.Paths.CatalogFile)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			return archiveResult{}, err
		}
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "catalog snapshot missing", "archive_catalog_missing",
			logging.String("path", a.cfg.Paths.CatalogFile),
			logging.String(logging.FieldImpact, "records without season data are skipped"),
			logging.String(logging.FieldErrorHint, "run animethreads fetch-catalog"),
		)
	}

	var result archiveResult
	err = a.withArchiveLock(func() error {
		merger := archive.NewMerger(a.extractor(), a.now, a.logger)
		archiver := archive.NewArchiver(a.cfg.Paths.ArchiveDir, merger, entries, a.logger)
		summary, err := archiver.Archive(ctx, records)
		result.Summary = summary
		if err != nil {
			return err
		}
		result.IndexedSeasons, err = a.syncIndex(ctx)
		return err
	})
	return result, err
}

func (a *app) refresh(ctx context.Context) ([]refresh.FileResult, error) {
	client, err := a.redditClient(false)
	if err != nil {
		return nil, err
	}
	refresher, err := refresh.New(client, refresh.OptionsFromConfig(a.cfg), a.logger)
	if err != nil {
		return nil, err
	}
	var results []refresh.FileResult
	err = a.withArchiveLock(func() error {
		periods := season.Recent(a.now(), a.cfg.Refresh.SeasonCount)
		var runErr error
		results, runErr = refresher.Run(ctx, a.cfg.Paths.ArchiveDir, periods)
		if runErr != nil {
			return runErr
		}
		_, runErr = a.syncIndex(ctx)
		return runErr
	})
	return results, err
}

func (a *app) clean(ctx context.Context) ([]archive.CleanResult, error) {
	var results []archive.CleanResult
	err := a.withArchiveLock(func() error {
		var cleanErr error
		results, cleanErr = archive.CleanDir(ctx, a.cfg.Paths.ArchiveDir, a.extractor(), a.logger)
		if cleanErr != nil {
			return cleanErr
		}
		_, cleanErr = a.syncIndex(ctx)
		return cleanErr
	})
	return results, err
}

func (a *app) seasonIndexPath() string {
	return filepath.Join(a.cfg.Paths.ArchiveDir, archive.SeasonIndexFileName)
}

func (a *app) seasons() ([]archive.SeasonEntry, error) {
	return archive.WriteSeasonIndex(a.cfg.Paths.ArchiveDir, a.seasonIndexPath())
}

// syncIndex mirrors every season store into the SQLite index when the index
// is enabled. It returns the synced season keys.
func (a *app) syncIndex(ctx context.Context) ([]string, error) {
	if !a.cfg.Archive.IndexEnabled {
		return nil, nil
	}
	index, err := archiveindex.Open(ctx, a.cfg.Archive.IndexPath)
	if err != nil {
		return nil, err
	}
	defer index.Close()
	return index.SyncDir(ctx, a.cfg.Paths.ArchiveDir)
}

func (a *app) rank(ctx context.Context, period season.Period, limit int) ([]archive.EpisodeRank, error) {
	if a.cfg.Archive.IndexEnabled {
		index, err := archiveindex.Open(ctx, a.cfg.Archive.IndexPath)
		if err != nil {
			return nil, err
		}
		defer index.Close()
		return index.TopEpisodes(ctx, period, limit)
	}
	store, exists, err := archive.Load(a.cfg.Paths.ArchiveDir, period)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, services.Wrap(services.ErrNotFound, "rank", "load", "no archive for "+period.Key(), nil)
	}
	return archive.Rank(store, limit), nil
}

func (a *app) publish() ([]string, error) {
	target := strings.TrimSpace(a.cfg.Paths.PublishDir)
	if target == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "", "paths.publish_dir is not set", nil)
	}
	return fileutil.CopyJSONFiles(a.cfg.Paths.ArchiveDir, target)
}
