package archive

import (
	"context"
	"fmt"
	"log/slog"

	"animethreads/internal/catalog"
	"animethreads/internal/logging"
	"animethreads/internal/season"
	"animethreads/internal/services"
	"animethreads/internal/snapshot"
)

// Summary reports the outcome of an archive pass.
type Summary struct {
	MergeStats
	SkippedNoMatch int      `json:"skipped_no_match"`
	SkippedInvalid int      `json:"skipped_invalid"`
	FilesWritten   []string `json:"files_written"`
}

// Archiver groups match records by season and merges them into store files.
type Archiver struct {
	dir     string
	merger  *Merger
	entries map[int]catalog.Entry
	logger  *slog.Logger
}

// NewArchiver builds an archiver over dir. Catalog entries supply display
// names and season fallbacks for records that lack them; they may be empty.
func NewArchiver(dir string, merger *Merger, entries []catalog.Entry, logger *slog.Logger) *Archiver {
	byID := make(map[int]catalog.Entry, len(entries))
	for _, entry := range entries {
		if _, ok := byID[entry.ID]; !ok {
			byID[entry.ID] = entry
		}
	}
	return &Archiver{
		dir:     dir,
		merger:  merger,
		entries: byID,
		logger:  logging.NewComponentLogger(logger, "archive"),
	}
}

// Archive merges records into their season stores. Each touched store is
// loaded once, merged and written back only when something was added.
func (a *Archiver) Archive(ctx context.Context, records []snapshot.MatchRecord) (Summary, error) {
	logger := logging.WithContext(ctx, a.logger)
	var summary Summary

	groups := make(map[season.Period][]Candidate)
	var order []season.Period
	for _, record := range records {
		candidate, status := a.candidate(record)
		switch status {
		case candidateNoMatch:
			summary.Processed++
			summary.SkippedNoMatch++
			continue
		case candidateInvalid:
			summary.Processed++
			summary.SkippedInvalid++
			continue
		}
		if _, ok := groups[candidate.Period]; !ok {
			order = append(order, candidate.Period)
		}
		groups[candidate.Period] = append(groups[candidate.Period], candidate)
	}

	for _, period := range order {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		stats, written, err := a.archivePeriod(period, groups[period])
		summary.MergeStats.Add(stats)
		summary.SkippedInvalid += stats.Skipped()
		if err != nil {
			return summary, err
		}
		if written {
			summary.FilesWritten = append(summary.FilesWritten, period.FileName())
		}
		logger.Info("season store merged",
			logging.String(logging.FieldEventType, "archive_season_merged"),
			logging.Season(period.Key()),
			logging.Int("processed", stats.Processed),
			logging.Int("archived", stats.Archived),
			logging.Int("duplicates", stats.Duplicates),
			logging.Int("skipped", stats.Skipped()),
			logging.Bool("written", written),
		)
	}
	return summary, nil
}

func (a *Archiver) archivePeriod(period season.Period, candidates []Candidate) (MergeStats, bool, error) {
	store, _, err := Load(a.dir, period)
	if err != nil {
		return MergeStats{}, false, err
	}
	metadataFixed := store.Metadata != (Metadata{Year: period.Year, Season: period.Season})
	if metadataFixed {
		store.Metadata = Metadata{Year: period.Year, Season: period.Season}
	}
	stats := a.merger.Merge(store, candidates)
	if stats.Archived == 0 && !metadataFixed {
		return stats, false, nil
	}
	if err := store.Save(a.dir); err != nil {
		return stats, false, services.Wrap(services.ErrTransient, "archive", "save store", period.Key(), err)
	}
	return stats, true, nil
}

type candidateStatus int

const (
	candidateOK candidateStatus = iota
	candidateNoMatch
	candidateInvalid
)

func (a *Archiver) candidate(record snapshot.MatchRecord) (Candidate, candidateStatus) {
	if record.MatchedAnimeID == nil {
		return Candidate{}, candidateNoMatch
	}
	id := *record.MatchedAnimeID
	entry, known := a.entries[id]

	seasonName, year := record.Season, record.SeasonYear
	if seasonName == "" && known {
		seasonName = entry.Season
	}
	if year == 0 && known {
		year = entry.SeasonYear
	}
	if seasonName == "" || year == 0 {
		return Candidate{}, candidateNoMatch
	}
	s, err := season.Parse(seasonName)
	if err != nil || year < 0 {
		return Candidate{}, candidateInvalid
	}

	name := ""
	if known {
		name = entry.DisplayName()
	}
	if name == "" {
		name = record.MatchedTitle
	}
	return Candidate{
		AnimeID:     id,
		DisplayName: name,
		Period:      season.Period{Year: year, Season: s},
		RedditID:    record.RedditID,
		Title:       record.RedditTitle,
		URL:         record.URL,
		NumComments: record.NumComments,
		CreatedUTC:  record.CreatedUTC,
		Episode:     record.Episode,
	}, candidateOK
}

// String renders a one-line summary.
func (s Summary) String() string {
	return fmt.Sprintf("processed=%d archived=%d duplicates=%d skipped_no_match=%d skipped_invalid=%d files=%d",
		s.Processed, s.Archived, s.Duplicates, s.SkippedNoMatch, s.SkippedInvalid, len(s.FilesWritten))
}
