package matching

import (
	"context"
	"time"

	"animethreads/internal/logging"
	"animethreads/internal/snapshot"
)

// debugCandidateCount is how many candidates each skipped sample carries.
const debugCandidateCount = 3

// Stats counts the outcome of a batch match.
type Stats struct {
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Skipped   int `json:"skipped"`
}

// Report is the outcome of MatchPosts.
type Report struct {
	Output snapshot.MatchOutput
	Stats  Stats
}

// MatchPosts matches every post and assembles the match output document.
// Up to debugSample unmatched posts are recorded with their top candidates.
func (m *Matcher) MatchPosts(ctx context.Context, posts []snapshot.Post, debugSample int, now time.Time) (Report, error) {
	logger := logging.WithContext(ctx, m.logger)
	report := Report{
		Output: snapshot.MatchOutput{
			SnapshotAt:         now.UTC().Format(time.RFC3339),
			MatchedPosts:       []snapshot.MatchRecord{},
			DebugSkippedSample: []snapshot.SkippedRecord{},
		},
	}
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Stats.Processed++
		result := m.Match(post.Title)
		if !result.Matched {
			report.Stats.Skipped++
			if len(report.Output.DebugSkippedSample) < debugSample {
				report.Output.DebugSkippedSample = append(report.Output.DebugSkippedSample, snapshot.SkippedRecord{
					RedditTitle:   post.Title,
					TopCandidates: m.Candidates(post.Title, debugCandidateCount),
				})
			}
			continue
		}
		report.Stats.Matched++
		report.Output.MatchedPosts = append(report.Output.MatchedPosts, m.record(post, result))
	}
	logger.Info("title matching completed",
		logging.String(logging.FieldEventType, "match_completed"),
		logging.Int("processed", report.Stats.Processed),
		logging.Int("matched", report.Stats.Matched),
		logging.Int("skipped", report.Stats.Skipped),
	)
	return report, nil
}

func (m *Matcher) record(post snapshot.Post, result Result) snapshot.MatchRecord {
	id := result.EntityID
	rec := snapshot.MatchRecord{
		RedditID:       post.ID,
		RedditTitle:    post.Title,
		MatchedAnimeID: &id,
		MatchedTitle:   result.Alias,
		Score:          result.Score,
		NumComments:    post.NumComments,
		URL:            post.Link(),
		CreatedUTC:     post.CreatedUTC,
	}
	if entity, ok := m.index.Lookup(id); ok {
		if entity.Season.Valid() {
			rec.Season = entity.Season.String()
		}
		rec.SeasonYear = entity.SeasonYear
	}
	return rec
}
