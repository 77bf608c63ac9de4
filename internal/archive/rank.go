package archive

import (
	"sort"
	"strconv"
)

// EpisodeRank aggregates the archived threads of one episode.
type EpisodeRank struct {
	AnimeID     int
	NameJP      string
	Episode     int
	Threads     int
	NumComments int
}

// Rank returns the episodes of store ordered by total comment count, highest
// first. Ties fall back to anime id then episode. limit <= 0 returns all.
func Rank(store *Store, limit int) []EpisodeRank {
	var ranks []EpisodeRank
	for _, anime := range store.Anime {
		for key, posts := range anime.Episodes {
			ep, err := strconv.Atoi(key)
			if err != nil || len(posts) == 0 {
				continue
			}
			rank := EpisodeRank{AnimeID: anime.ID, NameJP: anime.NameJP, Episode: ep, Threads: len(posts)}
			for _, post := range posts {
				rank.NumComments += post.NumComments
			}
			ranks = append(ranks, rank)
		}
	}
	SortRanks(ranks)
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}

// SortRanks orders ranks by comment count, then anime id, then episode.
func SortRanks(ranks []EpisodeRank) {
	sort.Slice(ranks, func(i, j int) bool {
		a, b := ranks[i], ranks[j]
		if a.NumComments != b.NumComments {
			return a.NumComments > b.NumComments
		}
		if a.AnimeID != b.AnimeID {
			return a.AnimeID < b.AnimeID
		}
		return a.Episode < b.Episode
	})
}
