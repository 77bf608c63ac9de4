// Package archiveindex mirrors season stores into a SQLite database so the
// archive can be queried (rankings, season listings) without loading every
// season file. The JSON season files stay authoritative: Sync replaces the
// indexed rows of a season with the content of its store, and Export rebuilds
// the store shape from the rows.
package archiveindex

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"animethreads/internal/archive"
	"animethreads/internal/season"
	"animethreads/internal/snapshot"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. The index is derived
// data, so a mismatch is resolved by deleting the file and re-syncing.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("archive index schema version mismatch")

// Index is the SQLite-backed archive index.
type Index struct {
	db   *sql.DB
	path string
}

// Open creates or opens the index database at path.
func Open(ctx context.Context, path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	index := &Index{db: db, path: path}
	if err := index.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return index, nil
}

// Path returns the database file location.
func (i *Index) Path() string { return i.path }

// Close closes the underlying database connection.
func (i *Index) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	return i.db.Close()
}

func (i *Index) initSchema(ctx context.Context) error {
	var tableExists int
	err := i.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return i.createSchema(ctx)
	}

	var version int
	if err := i.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s and run 'animethreads index sync')",
			ErrSchemaMismatch, version, schemaVersion, i.path)
	}
	return nil
}

func (i *Index) createSchema(ctx context.Context) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Sync replaces the indexed rows of the store's season with its content.
func (i *Index) Sync(ctx context.Context, store *archive.Store) error {
	period := store.Period()
	if !period.Season.Valid() || period.Year <= 0 {
		return fmt.Errorf("sync: store has invalid metadata %+v", store.Metadata)
	}
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seasonName := period.Season.String()
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM anime WHERE season_year = ? AND season = ?", period.Year, seasonName,
	); err != nil {
		return fmt.Errorf("clear season %s: %w", period.Key(), err)
	}

	animeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO anime (season_year, season, anime_id, name_jp, latest_episode) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare anime insert: %w", err)
	}
	defer animeStmt.Close()
	postStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO posts (
            season_year, season, anime_id, episode, reddit_id, position,
            reddit_title, created_utc, num_comments, url, archived_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare post insert: %w", err)
	}
	defer postStmt.Close()

	for _, key := range store.AnimeIDs() {
		anime := store.Anime[key]
		if _, err := animeStmt.ExecContext(ctx,
			period.Year, seasonName, anime.ID, anime.NameJP, nullableInt(anime.LatestEpisode),
		); err != nil {
			return fmt.Errorf("insert anime %d: %w", anime.ID, err)
		}
		for episode, posts := range anime.Episodes {
			for position, post := range posts {
				if _, err := postStmt.ExecContext(ctx,
					period.Year, seasonName, anime.ID, episode, post.RedditID, position,
					post.RedditTitle, nullableEpoch(post.CreatedUTC), post.NumComments, post.URL, post.ArchivedAt,
				); err != nil {
					return fmt.Errorf("insert post %s: %w", post.RedditID, err)
				}
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sync: %w", err)
	}
	return nil
}

// SyncDir indexes every season store found in dir and returns the synced keys.
func (i *Index) SyncDir(ctx context.Context, dir string) ([]string, error) {
	periods, err := archive.ListPeriods(dir)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(periods))
	for _, period := range periods {
		store, exists, err := archive.Load(dir, period)
		if err != nil {
			return keys, err
		}
		if !exists {
			continue
		}
		if err := i.Sync(ctx, store); err != nil {
			return keys, err
		}
		keys = append(keys, period.Key())
	}
	return keys, nil
}

// Periods lists the indexed seasons, newest first.
func (i *Index) Periods(ctx context.Context) ([]season.Period, error) {
	rows, err := i.db.QueryContext(ctx, "SELECT DISTINCT season_year, season FROM anime")
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var periods []season.Period
	for rows.Next() {
		var (
			year int
			name string
		)
		if err := rows.Scan(&year, &name); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		s, err := season.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("indexed season %q: %w", name, err)
		}
		periods = append(periods, season.Period{Year: year, Season: s})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seasons: %w", err)
	}
	season.SortNewestFirst(periods)
	return periods, nil
}

// TopEpisodes returns the episodes of period with the most comments across
// their archived threads.
func (i *Index) TopEpisodes(ctx context.Context, period season.Period, limit int) ([]archive.EpisodeRank, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := i.db.QueryContext(ctx,
		`SELECT a.anime_id, a.name_jp, p.episode, COUNT(*), SUM(p.num_comments) AS total
        FROM posts p
        JOIN anime a ON a.season_year = p.season_year AND a.season = p.season AND a.anime_id = p.anime_id
        WHERE p.season_year = ? AND p.season = ? AND p.episode GLOB '[0-9]*'
        GROUP BY a.anime_id, p.episode
        ORDER BY total DESC, a.anime_id ASC, CAST(p.episode AS INTEGER) ASC
        LIMIT ?`,
		period.Year, period.Season.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top episodes: %w", err)
	}
	defer rows.Close()

	var ranks []archive.EpisodeRank
	for rows.Next() {
		var (
			rank    archive.EpisodeRank
			episode string
		)
		if err := rows.Scan(&rank.AnimeID, &rank.NameJP, &episode, &rank.Threads, &rank.NumComments); err != nil {
			return nil, fmt.Errorf("scan episode rank: %w", err)
		}
		n, err := strconv.Atoi(episode)
		if err != nil {
			continue
		}
		rank.Episode = n
		ranks = append(ranks, rank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episode ranks: %w", err)
	}
	return ranks, nil
}

// Export rebuilds the season store of period from the index. The result
// serializes to the same JSON as the synced store.
func (i *Index) Export(ctx context.Context, period season.Period) (*archive.Store, error) {
	store := archive.NewStore(period)
	seasonName := period.Season.String()

	animeRows, err := i.db.QueryContext(ctx,
		"SELECT anime_id, name_jp, latest_episode FROM anime WHERE season_year = ? AND season = ?",
		period.Year, seasonName,
	)
	if err != nil {
		return nil, fmt.Errorf("query anime: %w", err)
	}
	defer animeRows.Close()
	for animeRows.Next() {
		var (
			record archive.AnimeRecord
			latest sql.NullInt64
		)
		if err := animeRows.Scan(&record.ID, &record.NameJP, &latest); err != nil {
			return nil, fmt.Errorf("scan anime: %w", err)
		}
		record.SeasonYear = period.Year
		record.Season = period.Season
		record.Episodes = make(map[string][]archive.PostRecord)
		if latest.Valid {
			value := int(latest.Int64)
			record.LatestEpisode = &value
		}
		store.Anime[strconv.Itoa(record.ID)] = &record
	}
	if err := animeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anime: %w", err)
	}

	postRows, err := i.db.QueryContext(ctx,
		`SELECT anime_id, episode, reddit_id, reddit_title, created_utc, num_comments, url, archived_at
        FROM posts WHERE season_year = ? AND season = ?
        ORDER BY anime_id, episode, position`,
		period.Year, seasonName,
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer postRows.Close()
	for postRows.Next() {
		var (
			animeID int
			episode string
			post    archive.PostRecord
			created sql.NullInt64
		)
		if err := postRows.Scan(&animeID, &episode, &post.RedditID, &post.RedditTitle, &created,
			&post.NumComments, &post.URL, &post.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if created.Valid {
			post.CreatedUTC = snapshot.Epoch(created.Int64).Ptr()
		}
		record, ok := store.Anime[strconv.Itoa(animeID)]
		if !ok {
			continue
		}
		record.Episodes[episode] = append(record.Episodes[episode], post)
	}
	if err := postRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return store, nil
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableEpoch(value *snapshot.Epoch) any {
	if value == nil {
		return nil
	}
	return int64(*value)
}
