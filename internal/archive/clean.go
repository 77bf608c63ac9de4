package archive

import (
	"context"
	"log/slog"
	"os"

	"animethreads/internal/episode"
	"animethreads/internal/logging"
	"animethreads/internal/season"
)

// CleanStats counts what Clean removed.
type CleanStats struct {
	RemovedPosts   int `json:"removed_posts"`
	RemovedBuckets int `json:"removed_buckets"`
	RemovedAnime   int `json:"removed_anime"`
}

// Changed reports whether anything was removed.
func (s CleanStats) Changed() bool {
	return s.RemovedPosts > 0 || s.RemovedBuckets > 0 || s.RemovedAnime > 0
}

// Clean drops the legacy unknown-episode bucket, posts without the discussion
// marker, buckets left empty and anime left without episodes. latest_episode
// is left untouched.
func Clean(store *Store, extractor *episode.Extractor) CleanStats {
	if extractor == nil {
		extractor = episode.NewExtractor(nil, "")
	}
	var stats CleanStats
	for id, record := range store.Anime {
		if posts, ok := record.Episodes[UnknownEpisodeKey]; ok {
			stats.RemovedPosts += len(posts)
			stats.RemovedBuckets++
			delete(record.Episodes, UnknownEpisodeKey)
		}
		for key, posts := range record.Episodes {
			kept := posts[:0:0]
			for _, post := range posts {
				if extractor.IsDiscussion(post.RedditTitle) {
					kept = append(kept, post)
				}
			}
			stats.RemovedPosts += len(posts) - len(kept)
			if len(kept) == 0 {
				delete(record.Episodes, key)
				stats.RemovedBuckets++
				continue
			}
			if len(kept) != len(posts) {
				record.Episodes[key] = kept
			}
		}
		if len(record.Episodes) == 0 {
			delete(store.Anime, id)
			stats.RemovedAnime++
		}
	}
	return stats
}

// CleanResult is the per-file outcome of CleanDir.
type CleanResult struct {
	Key string `json:"key"`
	CleanStats
}

// CleanDir cleans every season store in dir and rewrites the ones that
// changed. Files that cannot be read are logged and skipped.
func CleanDir(ctx context.Context, dir string, extractor *episode.Extractor, logger *slog.Logger) ([]CleanResult, error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "archive"))
	periods, err := ListPeriods(dir)
	if err != nil {
		return nil, err
	}
	results := make([]CleanResult, 0, len(periods))
	for _, period := range periods {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		store, exists, err := Load(dir, period)
		if err != nil {
			logging.WarnWithContext(logger, "season store unreadable; skipping clean", "archive_clean_skipped",
				logging.Season(period.Key()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect or restore the season file"),
				logging.String(logging.FieldImpact, "season file left unchanged"),
			)
			continue
		}
		if !exists {
			continue
		}
		stats := Clean(store, extractor)
		if stats.Changed() {
			if err := store.Save(dir); err != nil {
				return results, err
			}
		}
		results = append(results, CleanResult{Key: period.Key(), CleanStats: stats})
	}
	return results, nil
}

// ListPeriods returns the periods of every season store in dir, newest first.
// A missing directory yields no periods.
func ListPeriods(dir string) ([]season.Period, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var periods []season.Period
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		period, err := season.ParseKey(entry.Name())
		if err != nil || entry.Name() != period.FileName() {
			continue
		}
		periods = append(periods, period)
	}
	season.SortNewestFirst(periods)
	return periods, nil
}
