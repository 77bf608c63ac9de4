package matching

import (
	"context"
	"testing"
	"time"

	"animethreads/internal/catalog"
	"animethreads/internal/snapshot"
	"animethreads/internal/textutil"
)

func buildIndex(entries ...catalog.Entry) *catalog.Index {
	return catalog.BuildIndex(entries, textutil.NewTokenizer(0))
}

var (
	frieren    = catalog.Entry{ID: 1, Native: "葬送のフリーレン", Romaji: "Sousou no Frieren", English: "Frieren: Beyond Journey's End", Season: "FALL", SeasonYear: 2023}
	apothecary = catalog.Entry{ID: 2, Romaji: "Kusuriya no Hitorigoto", English: "The Apothecary Diaries", Season: "WINTER", SeasonYear: 2025}
	meshi      = catalog.Entry{ID: 3, Romaji: "Dungeon Meshi", English: "Delicious in Dungeon", Season: "WINTER", SeasonYear: 2024}
	people     = catalog.Entry{ID: 4, Romaji: "Dungeon People", Season: "SUMMER", SeasonYear: 2025}
)

func TestMatchFindsBestAlias(t *testing.T) {
	matcher := NewMatcher(buildIndex(frieren, apothecary, meshi), DefaultPolicy(), nil)

	tests := []struct {
		title  string
		entity int
		alias  string
		score  float64
	}{
		{"Sousou no Frieren - Episode 12 discussion", 1, "Sousou no Frieren", 90},
		{"The Apothecary Diaries Season 2 - Episode 5 discussion", 2, "The Apothecary Diaries", 90},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			result := matcher.Match(tt.title)
			if !result.Matched {
				t.Fatalf("expected match, got %+v", result)
			}
			if result.EntityID != tt.entity || result.Alias != tt.alias || result.Score != tt.score {
				t.Fatalf("got entity=%d alias=%q score=%v, want %d %q %v", result.EntityID, result.Alias, result.Score, tt.entity, tt.alias, tt.score)
			}
		})
	}
}

func TestMatchRejectsUnrelatedAndEmptyTitles(t *testing.T) {
	matcher := NewMatcher(buildIndex(frieren, apothecary, meshi), DefaultPolicy(), nil)
	for _, title := range []string{"What are you watching this week?", "", "!!!"} {
		result := matcher.Match(title)
		if result.Matched {
			t.Errorf("Match(%q) unexpectedly matched %+v", title, result)
		}
	}
	if result := matcher.Match("!!!"); result.Score != 0 || result.EntityID != 0 {
		t.Fatalf("expected zero result for punctuation-only title, got %+v", result)
	}
}

func TestTokenGate(t *testing.T) {
	policy := Policy{MinTokenMatch: 2, FuzzyThreshold: 50, HighFuzzyOverride: 95}

	// "dungeon" is shared by two entities, so a single shared token is not enough.
	shared := NewMatcher(buildIndex(meshi, people), policy, nil)
	if result := shared.Match("Dungeon discussion"); result.Matched || result.EntityID != 0 {
		t.Fatalf("expected gate to reject ambiguous single token, got %+v", result)
	}

	// With only one entity using the token, the single unique token passes.
	unique := NewMatcher(buildIndex(meshi), policy, nil)
	result := unique.Match("Dungeon discussion")
	if !result.Matched || result.EntityID != 3 || result.Alias != "Delicious in Dungeon" {
		t.Fatalf("expected unique token to pass gate, got %+v", result)
	}
	if len(result.SharedTokens) != 1 || result.SharedTokens[0] != "dungeon" {
		t.Fatalf("unexpected shared tokens %v", result.SharedTokens)
	}
}

func TestHighOverrideBypassesGate(t *testing.T) {
	policy := Policy{MinTokenMatch: 2, FuzzyThreshold: 50, HighFuzzyOverride: 60}
	matcher := NewMatcher(buildIndex(meshi, people), policy, nil)
	result := matcher.Match("Dungeon discussion")
	if !result.Matched || result.EntityID != 3 {
		t.Fatalf("expected high score to bypass token gate, got %+v", result)
	}
}

func TestThresholdBoundary(t *testing.T) {
	index := buildIndex(meshi)
	probe := NewMatcher(index, Policy{MinTokenMatch: 2, FuzzyThreshold: 0, HighFuzzyOverride: 100}, nil).Match("Dungeon discussion")
	if probe.Score <= 0 {
		t.Fatalf("expected positive score, got %+v", probe)
	}

	atThreshold := NewMatcher(index, Policy{MinTokenMatch: 2, FuzzyThreshold: probe.Score, HighFuzzyOverride: 100}, nil)
	if !atThreshold.Match("Dungeon discussion").Matched {
		t.Fatal("score equal to threshold should match")
	}
	above := NewMatcher(index, Policy{MinTokenMatch: 2, FuzzyThreshold: probe.Score + 0.01, HighFuzzyOverride: 100}, nil)
	if above.Match("Dungeon discussion").Matched {
		t.Fatal("score below threshold should not match")
	}
}

func TestTiesKeepFirstEntity(t *testing.T) {
	first := catalog.Entry{ID: 7, Romaji: "Twin Show", Season: "FALL", SeasonYear: 2025}
	second := catalog.Entry{ID: 8, Romaji: "Twin Show", Season: "FALL", SeasonYear: 2025}
	matcher := NewMatcher(buildIndex(first, second), DefaultPolicy(), nil)
	result := matcher.Match("Twin Show - Episode 2 discussion")
	if !result.Matched || result.EntityID != 7 {
		t.Fatalf("expected first entity on tie, got %+v", result)
	}
}

func TestMatchDeterministic(t *testing.T) {
	matcher := NewMatcher(buildIndex(frieren, apothecary, meshi, people), DefaultPolicy(), nil)
	title := "Sousou no Frieren - Episode 12 discussion"
	a, b := matcher.Match(title), matcher.Match(title)
	if a.EntityID != b.EntityID || a.Score != b.Score || a.Alias != b.Alias || a.Matched != b.Matched {
		t.Fatalf("non-deterministic results: %+v vs %+v", a, b)
	}
}

func TestCandidates(t *testing.T) {
	matcher := NewMatcher(buildIndex(meshi, people), DefaultPolicy(), nil)
	candidates := matcher.Candidates("Dungeon discussion", 3)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].AnimeID != 3 || candidates[0].Title != "Delicious in Dungeon" {
		t.Fatalf("unexpected top candidate %+v", candidates[0])
	}
	if candidates[0].Score < candidates[1].Score {
		t.Fatalf("candidates not sorted: %+v", candidates)
	}
	if got := matcher.Candidates("Dungeon discussion", 1); len(got) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(got))
	}
	if got := matcher.Candidates("", 3); got != nil {
		t.Fatalf("expected no candidates for empty title, got %+v", got)
	}
}

func TestMatchPosts(t *testing.T) {
	matcher := NewMatcher(buildIndex(frieren, apothecary, meshi), DefaultPolicy(), nil)
	created := snapshot.Epoch(1727740800)
	posts := []snapshot.Post{
		{ID: "p1", Title: "Sousou no Frieren - Episode 12 discussion", NumComments: 120, Permalink: "/r/anime/comments/p1/x/", CreatedUTC: &created},
		{ID: "p2", Title: "What are you watching this week?"},
		{ID: "p3", Title: "Random meme thread"},
		{ID: "p4", Title: "The Apothecary Diaries - Episode 5 discussion", NumComments: 40, URL: "https://redd.it/p4"},
	}
	now := time.Date(2025, time.October, 1, 12, 0, 0, 0, time.UTC)

	report, err := matcher.MatchPosts(context.Background(), posts, 1, now)
	if err != nil {
		t.Fatalf("MatchPosts: %v", err)
	}
	if report.Stats != (Stats{Processed: 4, Matched: 2, Skipped: 2}) {
		t.Fatalf("unexpected stats %+v", report.Stats)
	}
	out := report.Output
	if out.SnapshotAt != "2025-10-01T12:00:00Z" {
		t.Fatalf("SnapshotAt = %q", out.SnapshotAt)
	}
	if len(out.DebugSkippedSample) != 1 || out.DebugSkippedSample[0].RedditTitle != "What are you watching this week?" {
		t.Fatalf("unexpected debug sample %+v", out.DebugSkippedSample)
	}
	if len(out.DebugSkippedSample[0].TopCandidates) != 3 {
		t.Fatalf("expected 3 candidates in debug sample, got %d", len(out.DebugSkippedSample[0].TopCandidates))
	}

	first := out.MatchedPosts[0]
	if first.RedditID != "p1" || first.MatchedAnimeID == nil || *first.MatchedAnimeID != 1 {
		t.Fatalf("unexpected first record %+v", first)
	}
	if first.URL != "https://reddit.com/r/anime/comments/p1/x/" {
		t.Fatalf("URL = %q", first.URL)
	}
	if first.Season != "FALL" || first.SeasonYear != 2023 || first.NumComments != 120 {
		t.Fatalf("unexpected metadata %+v", first)
	}
	if first.CreatedUTC == nil || *first.CreatedUTC != created {
		t.Fatalf("CreatedUTC = %v", first.CreatedUTC)
	}
	if out.MatchedPosts[1].URL != "https://redd.it/p4" {
		t.Fatalf("expected URL fallback, got %q", out.MatchedPosts[1].URL)
	}
}

func TestMatchPostsHonorsCancellation(t *testing.T) {
	matcher := NewMatcher(buildIndex(frieren), DefaultPolicy(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := matcher.MatchPosts(ctx, []snapshot.Post{{ID: "a", Title: "x"}}, 0, time.Now()); err == nil {
		t.Fatal("expected context error")
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	if err := (Policy{MinTokenMatch: 0, FuzzyThreshold: 80, HighFuzzyOverride: 85}).Validate(); err == nil {
		t.Fatal("expected error for zero token match")
	}
	if err := (Policy{MinTokenMatch: 2, FuzzyThreshold: 120, HighFuzzyOverride: 85}).Validate(); err == nil {
		t.Fatal("expected error for threshold above 100")
	}
}
