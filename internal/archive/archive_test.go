package archive

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"animethreads/internal/catalog"
	"animethreads/internal/season"
	"animethreads/internal/services"
	"animethreads/internal/snapshot"
)

var fall2025 = season.Period{Year: 2025, Season: season.Fall}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2025, time.October, 12, 9, 30, 0, 0, time.UTC) }
}

func newMerger() *Merger {
	return NewMerger(nil, fixedClock(), nil)
}

func candidate(id, title string, animeID int) Candidate {
	return Candidate{
		AnimeID:     animeID,
		DisplayName: "テスト",
		Period:      fall2025,
		RedditID:    id,
		Title:       title,
		URL:         "https://reddit.com/r/anime/comments/" + id + "/",
		NumComments: 10,
	}
}

func TestMergeCreatesRecordsAndTracksLatest(t *testing.T) {
	store := NewStore(fall2025)
	stats := newMerger().Merge(store, []Candidate{
		candidate("a", "Show - Episode 3 discussion", 1),
		candidate("b", "Show - Episode 5 discussion", 1),
		candidate("c", "Show - Episode 4 discussion", 1),
	})
	if stats.Archived != 3 || stats.Processed != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	record := store.Anime["1"]
	if record == nil {
		t.Fatal("expected anime record")
	}
	if record.NameJP != "テスト" || record.Season != season.Fall || record.SeasonYear != 2025 {
		t.Fatalf("unexpected record metadata %+v", record)
	}
	if record.Latest() != 5 {
		t.Fatalf("latest_episode = %d, want 5", record.Latest())
	}
	if !reflect.DeepEqual(record.EpisodeNumbers(), []int{3, 4, 5}) {
		t.Fatalf("episodes = %v", record.EpisodeNumbers())
	}
	post := record.Bucket(3)[0]
	if post.ArchivedAt != "2025-10-12 09:30:00" || post.RedditID != "a" {
		t.Fatalf("unexpected post record %+v", post)
	}
}

func TestMergeSkipsIneligiblePosts(t *testing.T) {
	store := NewStore(fall2025)
	other := candidate("d", "Show - Episode 1 discussion", 1)
	other.Period = season.Period{Year: 2025, Season: season.Summer}

	stats := newMerger().Merge(store, []Candidate{
		candidate("a", "Show - Episode 3 preview", 1),
		candidate("b", "Show general discussion", 1),
		other,
	})
	if stats.SkippedNotDiscussion != 1 || stats.SkippedNoEpisode != 1 || stats.SkippedWrongSeason != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.Skipped() != 3 || stats.Archived != 0 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if len(store.Anime) != 0 {
		t.Fatal("skipped posts must not create anime records")
	}
}

func TestMergeDeduplicatesAndNeverOverwrites(t *testing.T) {
	store := NewStore(fall2025)
	merger := newMerger()
	merger.Merge(store, []Candidate{candidate("a", "Show - Episode 3 discussion", 1)})

	later := NewMerger(nil, func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }, nil)
	dup := candidate("a", "Show - Episode 3 discussion", 1)
	dup.NumComments = 999
	sameURL := candidate("other-id", "Show - Episode 3 discussion", 1)
	sameURL.URL = dup.URL

	stats := later.Merge(store, []Candidate{dup, sameURL})
	if stats.Duplicates != 2 || stats.Archived != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	bucket := store.Anime["1"].Bucket(3)
	if len(bucket) != 1 || bucket[0].NumComments != 10 || bucket[0].ArchivedAt != "2025-10-12 09:30:00" {
		t.Fatalf("existing record was modified: %+v", bucket)
	}
}

func TestMergeLatestEpisodeMonotonic(t *testing.T) {
	store := NewStore(fall2025)
	merger := newMerger()
	merger.Merge(store, []Candidate{candidate("a", "Show - Episode 8 discussion", 1)})
	merger.Merge(store, []Candidate{candidate("b", "Show - Episode 2 discussion", 1)})
	if got := store.Anime["1"].Latest(); got != 8 {
		t.Fatalf("latest_episode decreased to %d", got)
	}
}

func TestMergeUsesExplicitEpisode(t *testing.T) {
	store := NewStore(fall2025)
	ep := 11
	c := candidate("a", "Show discussion", 1)
	c.Episode = &ep
	if stats := newMerger().Merge(store, []Candidate{c}); stats.Archived != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(store.Anime["1"].Bucket(11)) != 1 {
		t.Fatal("expected explicit episode bucket")
	}
}

func TestMergeFallsBackToURLIdentity(t *testing.T) {
	store := NewStore(fall2025)
	c := candidate("", "Show - Episode 1 discussion", 1)
	newMerger().Merge(store, []Candidate{c})
	if got := store.Anime["1"].Bucket(1)[0].RedditID; got != c.URL {
		t.Fatalf("reddit_id fallback = %q, want url", got)
	}
}

func intPtr(v int) *int { return &v }

func matchRecord(id, title string, animeID int) snapshot.MatchRecord {
	return snapshot.MatchRecord{
		RedditID:       id,
		RedditTitle:    title,
		MatchedAnimeID: intPtr(animeID),
		MatchedTitle:   "Sousou no Frieren",
		Score:          90,
		NumComments:    42,
		URL:            "https://reddit.com/r/anime/comments/" + id + "/",
		CreatedUTC:     snapshot.Epoch(1727740800).Ptr(),
		Season:         "FALL",
		SeasonYear:     2025,
	}
}

func TestArchiveWritesSeasonFilesIdempotently(t *testing.T) {
	dir := t.TempDir()
	entries := []catalog.Entry{{ID: 1, Native: "葬送のフリーレン", Romaji: "Sousou no Frieren", Season: "FALL", SeasonYear: 2025}}
	archiver := NewArchiver(dir, newMerger(), entries, nil)

	spring := matchRecord("s1", "Old Show - Episode 2 discussion", 9)
	spring.Season, spring.SeasonYear = "SPRING", 2025
	records := []snapshot.MatchRecord{
		matchRecord("a", "Sousou no Frieren - Episode 1 discussion", 1),
		matchRecord("b", "Sousou no Frieren - Episode 2 discussion", 1),
		{RedditID: "n", RedditTitle: "unmatched"},
		spring,
	}

	summary, err := archiver.Archive(context.Background(), records)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if summary.Processed != 4 || summary.Archived != 3 || summary.SkippedNoMatch != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !reflect.DeepEqual(summary.FilesWritten, []string{"2025_4_fall.json", "2025_2_spring.json"}) {
		t.Fatalf("files written = %v", summary.FilesWritten)
	}

	path := filepath.Join(dir, "2025_4_fall.json")
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(first, []byte(`"name_jp": "葬送のフリーレン"`)) {
		t.Fatalf("expected native display name in store:\n%s", first)
	}

	again := NewArchiver(dir, NewMerger(nil, time.Now, nil), entries, nil)
	summary, err = again.Archive(context.Background(), records)
	if err != nil {
		t.Fatalf("second Archive: %v", err)
	}
	if summary.Archived != 0 || summary.Duplicates != 3 || len(summary.FilesWritten) != 0 {
		t.Fatalf("second pass should be a no-op, got %+v", summary)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("store file changed on identical input")
	}

	store, exists, err := Load(dir, fall2025)
	if err != nil || !exists {
		t.Fatalf("Load: exists=%v err=%v", exists, err)
	}
	if store.Metadata != (Metadata{Year: 2025, Season: season.Fall}) {
		t.Fatalf("metadata = %+v", store.Metadata)
	}
	if store.Anime["1"].Latest() != 2 || store.PostCount() != 2 {
		t.Fatalf("unexpected store content: latest=%d posts=%d", store.Anime["1"].Latest(), store.PostCount())
	}
}

func TestArchiveFallsBackToCatalogSeason(t *testing.T) {
	dir := t.TempDir()
	entries := []catalog.Entry{{ID: 1, Romaji: "Sousou no Frieren", Season: "FALL", SeasonYear: 2025}}
	archiver := NewArchiver(dir, newMerger(), entries, nil)

	rec := matchRecord("a", "Sousou no Frieren - Episode 1 discussion", 1)
	rec.Season, rec.SeasonYear = "", 0
	unknown := matchRecord("b", "Unknown - Episode 1 discussion", 77)
	unknown.Season, unknown.SeasonYear = "", 0
	bad := matchRecord("c", "Bad - Episode 1 discussion", 1)
	bad.Season = "AUTUMN"

	summary, err := archiver.Archive(context.Background(), []snapshot.MatchRecord{rec, unknown, bad})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if summary.Archived != 1 || summary.SkippedNoMatch != 1 || summary.SkippedInvalid != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestLoadRejectsCorruptStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir, fall2025), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(dir, fall2025); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	store, exists, err := Load(dir, season.Period{Year: 2024, Season: season.Winter})
	if err != nil || exists || store.Metadata.Year != 2024 || len(store.Anime) != 0 {
		t.Fatalf("expected fresh store, got %+v exists=%v err=%v", store, exists, err)
	}
}

func TestAcquireLockRejectsConcurrentHolder(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if lock.Path() != filepath.Join(dir, LockFileName) {
		t.Fatalf("lock path = %q", lock.Path())
	}
	if _, err := AcquireLock(dir); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected second acquire to fail, got %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	}
	_ = again.Release()
}
