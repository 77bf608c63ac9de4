// Package refresh re-reads comment counts for the most recent episodes of
// every archived anime and writes the changed counts back to the season
// stores.
//
// Upstream calls are paced by a rate limiter. Throttling responses
// (services.ErrRateLimited) trip a per-file circuit breaker: after
// MaxConsecutiveThrottles in a row the current season file is abandoned and
// the refresher moves on to the next one.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"animethreads/internal/archive"
	"animethreads/internal/config"
	"animethreads/internal/logging"
	"animethreads/internal/season"
	"animethreads/internal/services"
)

const (
	defaultEpisodeCount            = 6
	defaultMaxConsecutiveThrottles = 3
)

// CountFetcher returns the current comment count of a thread.
type CountFetcher interface {
	CommentCount(ctx context.Context, thread string) (int, error)
}

// CountFetcherFunc adapts a function to CountFetcher.
type CountFetcherFunc func(ctx context.Context, thread string) (int, error)

// CommentCount calls f.
func (f CountFetcherFunc) CommentCount(ctx context.Context, thread string) (int, error) {
	return f(ctx, thread)
}

// Options tune a Refresher.
type Options struct {
	EpisodeCount            int
	MaxConsecutiveThrottles int
	RequestInterval         time.Duration
	ThrottleCooldown        time.Duration
	Now                     func() time.Time
	// Sleep waits out the throttle cooldown; defaults to services.SleepWithContext.
	Sleep func(ctx context.Context, d time.Duration) error
}

// OptionsFromConfig derives refresher options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		EpisodeCount:            cfg.Refresh.EpisodeCount,
		MaxConsecutiveThrottles: cfg.Refresh.MaxConsecutiveThrottles,
		RequestInterval:         cfg.RequestInterval(),
		ThrottleCooldown:        cfg.ThrottleCooldown(),
	}
}

// Stats counts the outcome of one season file pass.
type Stats struct {
	Checked   int
	Updated   int
	Unchanged int
	Failed    int
	Throttled int
	Aborted   bool
}

// Refresher updates comment counts in season stores.
type Refresher struct {
	fetcher CountFetcher
	limiter *rate.Limiter
	opts    Options
	logger  *slog.Logger
}

// New builds a Refresher around fetcher.
func New(fetcher CountFetcher, opts Options, logger *slog.Logger) (*Refresher, error) {
	if fetcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "refresh", "init", "comment count fetcher is required", nil)
	}
	if opts.EpisodeCount <= 0 {
		opts.EpisodeCount = defaultEpisodeCount
	}
	if opts.MaxConsecutiveThrottles <= 0 {
		opts.MaxConsecutiveThrottles = defaultMaxConsecutiveThrottles
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = services.SleepWithContext
	}
	return &Refresher{
		fetcher: fetcher,
		limiter: services.NewLimiter(opts.RequestInterval),
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "refresh"),
	}, nil
}

// Window returns the inclusive episode range refreshed for an anime whose
// latest episode is latest. ok is false when nothing should be refreshed.
func (r *Refresher) Window(latest int) (first, last int, ok bool) {
	if latest <= 0 {
		return 0, 0, false
	}
	return max(1, latest-(r.opts.EpisodeCount-1)), latest, true
}

// RefreshStore updates the posts of store in place. Only the count and
// archived_at of posts whose count changed are rewritten. A context error is
// returned as-is; every other fetch failure is counted and skipped.
func (r *Refresher) RefreshStore(ctx context.Context, store *archive.Store) (Stats, error) {
	var stats Stats
	logger := logging.WithContext(ctx, r.logger)
	consecutive := 0
	for _, id := range store.AnimeIDs() {
		anime := store.Anime[id]
		first, last, ok := r.Window(anime.Latest())
		if !ok {
			continue
		}
		for ep := first; ep <= last; ep++ {
			bucket := anime.Episodes[strconv.Itoa(ep)]
			for i := range bucket {
				post := &bucket[i]
				thread := post.URL
				if thread == "" {
					thread = post.RedditID
				}
				if thread == "" {
					continue
				}
				if err := r.limiter.Wait(ctx); err != nil {
					return stats, err
				}
				stats.Checked++
				count, err := r.fetcher.CommentCount(ctx, thread)
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return stats, ctxErr
					}
					if !services.IsRateLimited(err) {
						consecutive = 0
						stats.Failed++
						logging.WarnWithContext(logger, "comment count fetch failed", "refresh_fetch_failed",
							logging.AnimeID(anime.ID),
							logging.Episode(ep),
							logging.PostID(post.RedditID),
							logging.Error(err),
							logging.String(logging.FieldImpact, "previous comment count kept"),
						)
						continue
					}
					consecutive++
					stats.Throttled++
					logging.WarnWithContext(logger, "comment count request throttled", "refresh_throttled",
						logging.PostID(post.RedditID),
						logging.Int("consecutive", consecutive),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "raise refresh.request_interval_ms or check the user agent"),
					)
					if err := r.opts.Sleep(ctx, r.opts.ThrottleCooldown); err != nil {
						return stats, err
					}
					if consecutive >= r.opts.MaxConsecutiveThrottles {
						stats.Aborted = true
						return stats, nil
					}
					continue
				}
				consecutive = 0
				if count == post.NumComments {
					stats.Unchanged++
					continue
				}
				post.NumComments = count
				post.ArchivedAt = r.opts.Now().Format(archive.ArchivedAtLayout)
				stats.Updated++
			}
		}
	}
	return stats, nil
}

// FileResult reports the pass over one season file.
type FileResult struct {
	Key     string
	Missing bool
	Stats
}

// Run refreshes the season files of periods in order. Missing files are
// reported and skipped; a file whose pass tripped the circuit breaker keeps
// the updates made before the abort.
func (r *Refresher) Run(ctx context.Context, dir string, periods []season.Period) ([]FileResult, error) {
	results := make([]FileResult, 0, len(periods))
	for _, period := range periods {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		fileCtx := services.WithSeason(ctx, period.Key())
		logger := logging.WithContext(fileCtx, r.logger)
		store, exists, err := archive.Load(dir, period)
		if err != nil {
			return results, err
		}
		if !exists {
			results = append(results, FileResult{Key: period.Key(), Missing: true})
			continue
		}
		stats, err := r.RefreshStore(fileCtx, store)
		if stats.Updated > 0 {
			if saveErr := store.Save(dir); saveErr != nil {
				logging.ErrorWithContext(logger, "refreshed season store could not be saved", "refresh_save_failed",
					logging.Error(saveErr),
					logging.Int("updated", stats.Updated),
					logging.String(logging.FieldErrorHint, "check archive directory permissions and free space"),
				)
				return results, errors.Join(err, fmt.Errorf("refresh %s: %w", period.Key(), saveErr))
			}
		}
		if err != nil {
			return results, err
		}
		if stats.Aborted {
			logging.WarnWithContext(logger, "season refresh aborted after repeated throttling", "refresh_aborted",
				logging.Int("throttled", stats.Throttled),
				logging.String(logging.FieldImpact, "remaining posts in this season keep their previous counts"),
			)
		}
		logger.Info("season refresh completed",
			logging.String(logging.FieldEventType, "refresh_season_completed"),
			logging.Int("checked", stats.Checked),
			logging.Int("updated", stats.Updated),
			logging.Int("failed", stats.Failed),
			logging.Bool("aborted", stats.Aborted),
		)
		results = append(results, FileResult{Key: period.Key(), Stats: stats})
	}
	return results, nil
}
