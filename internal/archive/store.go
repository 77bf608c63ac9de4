package archive

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"animethreads/internal/fileutil"
	"animethreads/internal/season"
	"animethreads/internal/services"
	"animethreads/internal/snapshot"
)

// UnknownEpisodeKey is the legacy bucket for posts without an episode number.
const UnknownEpisodeKey = "_unknown"

// ArchivedAtLayout formats archived_at timestamps.
const ArchivedAtLayout = "2006-01-02 15:04:05"

// Metadata identifies the season a store belongs to.
type Metadata struct {
	Year   int           `json:"year"`
	Season season.Season `json:"season"`
}

// PostRecord is one archived discussion thread.
type PostRecord struct {
	RedditID    string          `json:"reddit_id"`
	RedditTitle string          `json:"reddit_title"`
	CreatedUTC  *snapshot.Epoch `json:"created_utc"`
	NumComments int             `json:"num_comments"`
	URL         string          `json:"url"`
	ArchivedAt  string          `json:"archived_at"`
}

// AnimeRecord holds the archived threads of one catalog entity.
type AnimeRecord struct {
	ID            int                     `json:"id"`
	NameJP        string                  `json:"name_jp"`
	SeasonYear    int                     `json:"seasonYear"`
	Season        season.Season           `json:"season"`
	Episodes      map[string][]PostRecord `json:"episodes"`
	LatestEpisode *int                    `json:"latest_episode"`
}

// Store is the content of one season file.
type Store struct {
	Metadata Metadata                `json:"metadata"`
	Anime    map[string]*AnimeRecord `json:"anime"`
}

// NewStore returns an empty store for period.
func NewStore(period season.Period) *Store {
	return &Store{
		Metadata: Metadata{Year: period.Year, Season: period.Season},
		Anime:    make(map[string]*AnimeRecord),
	}
}

// Period returns the season the store belongs to.
func (s *Store) Period() season.Period {
	return season.Period{Year: s.Metadata.Year, Season: s.Metadata.Season}
}

// Path returns the store file location for period under dir.
func Path(dir string, period season.Period) string {
	return filepath.Join(dir, period.FileName())
}

// Load reads the store for period from dir. A missing file yields a fresh
// store and false.
func Load(dir string, period season.Period) (*Store, bool, error) {
	path := Path(dir, period)
	store := &Store{}
	exists, err := fileutil.ReadJSON(path, store)
	if err != nil {
		return nil, exists, services.Wrap(services.ErrValidation, "archive", "load store", path, err)
	}
	if !exists {
		return NewStore(period), false, nil
	}
	if store.Anime == nil {
		store.Anime = make(map[string]*AnimeRecord)
	}
	for key, record := range store.Anime {
		if record == nil {
			delete(store.Anime, key)
			continue
		}
		if record.Episodes == nil {
			record.Episodes = make(map[string][]PostRecord)
		}
	}
	return store, true, nil
}

// Save writes the store atomically to dir.
func (s *Store) Save(dir string) error {
	period := s.Period()
	if !period.Season.Valid() {
		return fmt.Errorf("save store: invalid season metadata %+v", s.Metadata)
	}
	if err := fileutil.WriteJSONAtomic(Path(dir, period), s); err != nil {
		return fmt.Errorf("save store %s: %w", period.Key(), err)
	}
	return nil
}

// AnimeIDs returns the store's anime ids in ascending numeric order.
func (s *Store) AnimeIDs() []string {
	ids := make([]string, 0, len(s.Anime))
	for id := range s.Anime {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA != nil || errB != nil {
			return ids[i] < ids[j]
		}
		return a < b
	})
	return ids
}

// PostCount returns the number of archived posts across all anime.
func (s *Store) PostCount() int {
	total := 0
	for _, record := range s.Anime {
		for _, posts := range record.Episodes {
			total += len(posts)
		}
	}
	return total
}

// EpisodeNumbers returns the numeric episode keys in ascending order.
func (a *AnimeRecord) EpisodeNumbers() []int {
	numbers := make([]int, 0, len(a.Episodes))
	for key := range a.Episodes {
		if n, err := strconv.Atoi(key); err == nil {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)
	return numbers
}

// Bucket returns the posts archived for episode n.
func (a *AnimeRecord) Bucket(n int) []PostRecord {
	return a.Episodes[strconv.Itoa(n)]
}

// Latest returns latest_episode, or 0 when unset.
func (a *AnimeRecord) Latest() int {
	if a.LatestEpisode == nil {
		return 0
	}
	return *a.LatestEpisode
}
