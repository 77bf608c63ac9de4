package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"animethreads/internal/season"
)

func dirtyStore() *Store {
	latest := 3
	store := NewStore(fall2025)
	store.Anime["1"] = &AnimeRecord{
		ID: 1, NameJP: "A", SeasonYear: 2025, Season: season.Fall,
		Episodes: map[string][]PostRecord{
			UnknownEpisodeKey: {{RedditID: "u1", RedditTitle: "Show discussion"}},
			"2":               {{RedditID: "k", RedditTitle: "Show - Episode 2 discussion"}, {RedditID: "x", RedditTitle: "Show - Episode 2 clip"}},
			"3":               {{RedditID: "y", RedditTitle: "Show - Episode 3 preview"}},
		},
		LatestEpisode: &latest,
	}
	store.Anime["2"] = &AnimeRecord{
		ID: 2, NameJP: "B", SeasonYear: 2025, Season: season.Fall,
		Episodes: map[string][]PostRecord{
			"1": {{RedditID: "z", RedditTitle: "Other - Episode 1 trailer"}},
		},
	}
	return store
}

func TestClean(t *testing.T) {
	store := dirtyStore()
	stats := Clean(store, nil)
	want := CleanStats{RemovedPosts: 4, RemovedBuckets: 3, RemovedAnime: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
	record := store.Anime["1"]
	if record == nil || !reflect.DeepEqual(record.EpisodeNumbers(), []int{2}) {
		t.Fatalf("unexpected remaining record %+v", record)
	}
	if record.Latest() != 3 {
		t.Fatalf("Clean must not touch latest_episode, got %d", record.Latest())
	}
	if _, ok := store.Anime["2"]; ok {
		t.Fatal("expected empty anime to be removed")
	}
	if Clean(store, nil).Changed() {
		t.Fatal("second clean should be a no-op")
	}
}

func TestCleanDirRewritesChangedStores(t *testing.T) {
	dir := t.TempDir()
	if err := dirtyStore().Save(dir); err != nil {
		t.Fatal(err)
	}
	clean := NewStore(season.Period{Year: 2025, Season: season.Summer})
	if err := clean.Save(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "2024_1_winter.json"), []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}

	results, err := CleanDir(context.Background(), dir, nil, nil)
	if err != nil {
		t.Fatalf("CleanDir: %v", err)
	}
	if len(results) != 2 || results[0].Key != "2025_4_fall" || results[0].RemovedPosts != 4 || results[1].Changed() {
		t.Fatalf("unexpected results %+v", results)
	}

	raw, err := os.ReadFile(Path(dir, fall2025))
	if err != nil {
		t.Fatal(err)
	}
	var decoded Store
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode cleaned store: %v", err)
	}
	if len(decoded.Anime) != 1 {
		t.Fatalf("expected 1 anime after clean, got %d", len(decoded.Anime))
	}
}

func TestListPeriodsAndSeasonIndex(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2024_4_fall.json", "2025_1_winter.json", "2025_4_fall.json", "seasons.json", "2025_9_fall.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	periods, err := ListPeriods(dir)
	if err != nil {
		t.Fatalf("ListPeriods: %v", err)
	}
	keys := make([]string, 0, len(periods))
	for _, p := range periods {
		keys = append(keys, p.Key())
	}
	if !reflect.DeepEqual(keys, []string{"2025_4_fall", "2025_1_winter", "2024_4_fall"}) {
		t.Fatalf("periods = %v", keys)
	}

	out := filepath.Join(t.TempDir(), "public", SeasonIndexFileName)
	entries, err := WriteSeasonIndex(dir, out)
	if err != nil {
		t.Fatalf("WriteSeasonIndex: %v", err)
	}
	if entries[0] != (SeasonEntry{Key: "2025_4_fall", Year: 2025, Season: "FALL", Label: "2025年 秋"}) {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []SeasonEntry
	if err := json.Unmarshal(raw, &decoded); err != nil || len(decoded) != 3 {
		t.Fatalf("decoded = %+v err=%v", decoded, err)
	}

	missing, err := ListPeriods(filepath.Join(dir, "missing"))
	if err != nil || missing != nil {
		t.Fatalf("missing dir: %v %v", missing, err)
	}
}
