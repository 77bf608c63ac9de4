package archive

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"animethreads/internal/episode"
	"animethreads/internal/logging"
	"animethreads/internal/season"
	"animethreads/internal/snapshot"
)

// Candidate is a matched post ready to be merged into a store.
type Candidate struct {
	AnimeID     int
	DisplayName string
	Period      season.Period
	RedditID    string
	Title       string
	URL         string
	NumComments int
	CreatedUTC  *snapshot.Epoch
	// Episode, when set, overrides extraction from Title.
	Episode *int
}

// MergeStats counts the outcome of one Merge call.
type MergeStats struct {
	Processed            int `json:"processed"`
	Archived             int `json:"archived"`
	Duplicates           int `json:"duplicates"`
	SkippedNoEpisode     int `json:"skipped_no_episode"`
	SkippedNotDiscussion int `json:"skipped_not_discussion"`
	SkippedWrongSeason   int `json:"skipped_wrong_season"`
}

// Skipped returns the number of posts rejected as invalid.
func (s MergeStats) Skipped() int {
	return s.SkippedNoEpisode + s.SkippedNotDiscussion + s.SkippedWrongSeason
}

// Add accumulates other into s.
func (s *MergeStats) Add(other MergeStats) {
	s.Processed += other.Processed
	s.Archived += other.Archived
	s.Duplicates += other.Duplicates
	s.SkippedNoEpisode += other.SkippedNoEpisode
	s.SkippedNotDiscussion += other.SkippedNotDiscussion
	s.SkippedWrongSeason += other.SkippedWrongSeason
}

// Merger folds candidates into season stores.
type Merger struct {
	extractor *episode.Extractor
	now       func() time.Time
	logger    *slog.Logger
}

// NewMerger builds a merger. A nil extractor selects the default rules and
// a nil clock selects time.Now.
func NewMerger(extractor *episode.Extractor, now func() time.Time, logger *slog.Logger) *Merger {
	if extractor == nil {
		extractor = episode.NewExtractor(nil, "")
	}
	if now == nil {
		now = time.Now
	}
	return &Merger{
		extractor: extractor,
		now:       now,
		logger:    logging.NewComponentLogger(logger, "archive"),
	}
}

// Merge appends every eligible candidate to store. Candidates belonging to
// another season, lacking the discussion marker or an episode number are
// counted and skipped. Existing post records are never modified.
func (m *Merger) Merge(store *Store, candidates []Candidate) MergeStats {
	var stats MergeStats
	period := store.Period()
	archivedAt := m.now().Format(ArchivedAtLayout)

	for _, candidate := range candidates {
		stats.Processed++
		if candidate.Period != period {
			stats.SkippedWrongSeason++
			continue
		}
		if !m.extractor.IsDiscussion(candidate.Title) {
			stats.SkippedNotDiscussion++
			m.logSkip(candidate, "not_discussion")
			continue
		}
		ep, ok := m.episodeFor(candidate)
		if !ok {
			stats.SkippedNoEpisode++
			m.logSkip(candidate, "no_episode")
			continue
		}

		record := store.ensureAnime(candidate, period)
		key := strconv.Itoa(ep)
		bucket := record.Episodes[key]
		if containsPost(bucket, candidate) {
			stats.Duplicates++
			continue
		}
		record.Episodes[key] = append(bucket, PostRecord{
			RedditID:    postID(candidate),
			RedditTitle: candidate.Title,
			CreatedUTC:  candidate.CreatedUTC,
			NumComments: candidate.NumComments,
			URL:         candidate.URL,
			ArchivedAt:  archivedAt,
		})
		if record.LatestEpisode == nil || ep > *record.LatestEpisode {
			latest := ep
			record.LatestEpisode = &latest
		}
		stats.Archived++
		m.logger.Debug("post archived",
			logging.AnimeID(candidate.AnimeID),
			logging.PostID(candidate.RedditID),
			logging.Episode(ep),
		)
	}
	return stats
}

func (m *Merger) episodeFor(candidate Candidate) (int, bool) {
	if candidate.Episode != nil {
		return *candidate.Episode, *candidate.Episode >= 0
	}
	return m.extractor.Extract(candidate.Title)
}

func (m *Merger) logSkip(candidate Candidate, reason string) {
	attrs := logging.DecisionAttrs("archive_post", "skipped", reason)
	attrs = append(attrs,
		logging.PostID(candidate.RedditID),
		logging.String("title", candidate.Title),
	)
	m.logger.Debug("post skipped", logging.Args(attrs...)...)
}

func (s *Store) ensureAnime(candidate Candidate, period season.Period) *AnimeRecord {
	key := strconv.Itoa(candidate.AnimeID)
	record, ok := s.Anime[key]
	if !ok || record == nil {
		record = &AnimeRecord{
			ID:         candidate.AnimeID,
			NameJP:     candidate.DisplayName,
			SeasonYear: period.Year,
			Season:     period.Season,
			Episodes:   make(map[string][]PostRecord),
		}
		s.Anime[key] = record
	}
	if record.Episodes == nil {
		record.Episodes = make(map[string][]PostRecord)
	}
	return record
}

// postID falls back to the URL, then the title, when the post id is missing.
func postID(candidate Candidate) string {
	for _, value := range []string{candidate.RedditID, candidate.URL, candidate.Title} {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

func containsPost(bucket []PostRecord, candidate Candidate) bool {
	id := postID(candidate)
	for _, existing := range bucket {
		if id != "" && existing.RedditID == id {
			return true
		}
		if candidate.URL != "" && existing.URL == candidate.URL {
			return true
		}
	}
	return false
}
