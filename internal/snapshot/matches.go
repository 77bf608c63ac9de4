package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"animethreads/internal/fileutil"
	"animethreads/internal/services"
)

// MatchRecord links one post to the catalog entity it matched.
type MatchRecord struct {
	RedditID       string  `json:"reddit_id"`
	RedditTitle    string  `json:"reddit_title"`
	MatchedAnimeID *int    `json:"matched_anime_id"`
	MatchedTitle   string  `json:"matched_title"`
	Score          float64 `json:"score"`
	NumComments    int     `json:"num_comments"`
	URL            string  `json:"url"`
	CreatedUTC     *Epoch  `json:"created_utc"`
	Season         string  `json:"season,omitempty"`
	SeasonYear     int     `json:"seasonYear,omitempty"`
	Episode        *int    `json:"episode,omitempty"`
}

// Candidate is one scored alias reported for a skipped post.
type Candidate struct {
	AnimeID int     `json:"anime_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
}

// SkippedRecord is a diagnostic entry for a post that did not match.
type SkippedRecord struct {
	RedditTitle   string      `json:"reddit_title"`
	TopCandidates []Candidate `json:"top_candidates"`
}

// MatchOutput is the document written by the match command.
type MatchOutput struct {
	SnapshotAt         string          `json:"snapshot_at"`
	MatchedPosts       []MatchRecord   `json:"matched_posts"`
	DebugSkippedSample []SkippedRecord `json:"debug_skipped_sample"`
}

// ParseMatches decodes match records from a bare list, a match output
// document or a {"data": [...]} envelope.
func ParseMatches(data []byte) ([]MatchRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, services.Wrap(services.ErrValidation, "snapshot", "parse matches", "empty match output", nil)
	}
	switch trimmed[0] {
	case '[':
		var records []MatchRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, services.Wrap(services.ErrValidation, "snapshot", "parse matches", "invalid match list", err)
		}
		return records, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, services.Wrap(services.ErrValidation, "snapshot", "parse matches", "invalid match envelope", err)
		}
		for _, key := range []string{"matched_posts", "data"} {
			raw, ok := envelope[key]
			if !ok {
				continue
			}
			var records []MatchRecord
			if err := json.Unmarshal(raw, &records); err != nil {
				return nil, services.Wrap(services.ErrValidation, "snapshot", "parse matches", "invalid "+key+" field", err)
			}
			return records, nil
		}
		return nil, services.Wrap(services.ErrValidation, "snapshot", "parse matches", `match envelope has neither "matched_posts" nor "data"`, nil)
	default:
		return nil, services.Wrap(services.ErrValidation, "snapshot", "parse matches", "match output must be a list or an object", nil)
	}
}

// LoadMatches reads and parses the match output at path.
func LoadMatches(path string) ([]MatchRecord, error) {
	data, err := readRequired(path, "match output")
	if err != nil {
		return nil, err
	}
	return ParseMatches(data)
}

// SaveMatches writes a match output document atomically.
func SaveMatches(path string, out MatchOutput) error {
	if out.MatchedPosts == nil {
		out.MatchedPosts = []MatchRecord{}
	}
	if out.DebugSkippedSample == nil {
		out.DebugSkippedSample = []SkippedRecord{}
	}
	if err := fileutil.WriteJSONAtomic(path, out); err != nil {
		return fmt.Errorf("save match output: %w", err)
	}
	return nil
}
