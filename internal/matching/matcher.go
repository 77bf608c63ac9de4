package matching

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"animethreads/internal/catalog"
	"animethreads/internal/logging"
	"animethreads/internal/snapshot"
	"animethreads/internal/textutil"
)

// Result describes the outcome of matching one title.
type Result struct {
	Title        string
	Normalized   string
	EntityID     int
	Alias        string
	Score        float64
	SharedTokens []string
	Matched      bool
}

// Matcher scores titles against an alias index.
type Matcher struct {
	index  *catalog.Index
	policy Policy
	logger *slog.Logger
}

// NewMatcher builds a matcher over index.
func NewMatcher(index *catalog.Index, policy Policy, logger *slog.Logger) *Matcher {
	return &Matcher{
		index:  index,
		policy: policy,
		logger: logging.NewComponentLogger(logger, "matcher"),
	}
}

// Match returns the best gated candidate for title.
func (m *Matcher) Match(title string) Result {
	result := Result{Title: title}
	normalized := textutil.Normalize(title)
	result.Normalized = normalized
	if normalized == "" {
		return result
	}
	tokens := m.index.Tokenizer().TokenizeNormalized(normalized)

	found := false
	for _, entity := range m.index.Entities() {
		shared := tokens.Intersect(entity.Tokens)
		tokenGate := m.passesTokenGate(shared)
		for _, alias := range entity.Aliases {
			score := textutil.Similarity(normalized, alias.Normalized)
			if !tokenGate && score < m.policy.HighFuzzyOverride {
				continue
			}
			if score > result.Score {
				found = true
				result.EntityID = entity.ID
				result.Alias = alias.Original
				result.Score = score
				result.SharedTokens = shared
			}
		}
	}
	result.Matched = found && result.Score >= m.policy.FuzzyThreshold

	if m.logger.Enabled(context.Background(), slog.LevelDebug) {
		decision := "rejected"
		reason := "below_threshold"
		switch {
		case result.Matched:
			decision, reason = "matched", "score_at_or_above_threshold"
		case !found:
			reason = "no_gated_candidate"
		}
		attrs := logging.DecisionAttrs("title_match", decision, reason)
		attrs = append(attrs,
			logging.String("title", title),
			logging.AnimeID(result.EntityID),
			logging.Float64("score", result.Score),
			logging.String("shared_tokens", strings.Join(result.SharedTokens, ",")),
		)
		m.logger.Debug("title match decision", logging.Args(attrs...)...)
	}
	return result
}

func (m *Matcher) passesTokenGate(shared []string) bool {
	if len(shared) >= m.policy.MinTokenMatch {
		return true
	}
	return len(shared) == 1 && m.index.Usage(shared[0]) == 1
}

// Candidates returns the n best ungated scores for title, one per entity,
// highest first. Entities keep index order on equal scores.
func (m *Matcher) Candidates(title string, n int) []snapshot.Candidate {
	normalized := textutil.Normalize(title)
	if normalized == "" || n <= 0 {
		return nil
	}
	candidates := make([]snapshot.Candidate, 0, m.index.Len())
	for _, entity := range m.index.Entities() {
		best := snapshot.Candidate{AnimeID: entity.ID}
		for _, alias := range entity.Aliases {
			score := textutil.Similarity(normalized, alias.Normalized)
			if score > best.Score || best.Title == "" {
				best.Score = score
				best.Title = alias.Original
			}
		}
		candidates = append(candidates, best)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}
