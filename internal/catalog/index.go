package catalog

import (
	"animethreads/internal/season"
	"animethreads/internal/textutil"
)

// Alias is one normalized title variant of an entity.
type Alias struct {
	Original   string
	Normalized string
	Tokens     textutil.TokenSet
}

// Entity groups every alias of one catalog entry.
type Entity struct {
	ID          int
	DisplayName string
	Aliases     []Alias
	Tokens      textutil.TokenSet
	Season      season.Season
	SeasonYear  int
}

// Period returns the entity's broadcast period.
func (e Entity) Period() season.Period {
	return season.Period{Year: e.SeasonYear, Season: e.Season}
}

// Index is the immutable alias index for one batch.
type Index struct {
	entities  []Entity
	byID      map[int]int
	usage     *textutil.Corpus
	tokenizer textutil.Tokenizer
}

// BuildIndex groups catalog entries into entities in catalog order. Entries
// without a usable alias are dropped and duplicate ids keep the first entry.
func BuildIndex(entries []Entry, tokenizer textutil.Tokenizer) *Index {
	idx := &Index{
		entities:  make([]Entity, 0, len(entries)),
		byID:      make(map[int]int, len(entries)),
		usage:     textutil.NewCorpus(),
		tokenizer: tokenizer,
	}
	for _, entry := range entries {
		if _, seen := idx.byID[entry.ID]; seen {
			continue
		}
		entity, ok := buildEntity(entry, tokenizer)
		if !ok {
			continue
		}
		idx.byID[entity.ID] = len(idx.entities)
		idx.entities = append(idx.entities, entity)
		idx.usage.Add(entity.Tokens)
	}
	return idx
}

func buildEntity(entry Entry, tokenizer textutil.Tokenizer) (Entity, bool) {
	native, romaji, english := entry.Variants()
	entity := Entity{
		ID:          entry.ID,
		DisplayName: entry.DisplayName(),
		SeasonYear:  entry.SeasonYear,
		Tokens:      make(textutil.TokenSet),
	}
	if s, err := season.Parse(entry.Season); err == nil {
		entity.Season = s
	}

	seen := make(map[string]struct{}, 3)
	for _, variant := range []string{native, romaji, english} {
		if variant == "" {
			continue
		}
		normalized := textutil.Normalize(variant)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		tokens := tokenizer.TokenizeNormalized(normalized)
		entity.Aliases = append(entity.Aliases, Alias{
			Original:   variant,
			Normalized: normalized,
			Tokens:     tokens,
		})
		entity.Tokens.Union(tokens)
	}
	return entity, len(entity.Aliases) > 0
}

// Entities returns the entities in catalog order. Callers must not mutate
// the returned slice.
func (idx *Index) Entities() []Entity {
	return idx.entities
}

// Len returns the number of entities.
func (idx *Index) Len() int {
	return len(idx.entities)
}

// Lookup returns the entity with the given id.
func (idx *Index) Lookup(id int) (Entity, bool) {
	pos, ok := idx.byID[id]
	if !ok {
		return Entity{}, false
	}
	return idx.entities[pos], true
}

// Usage returns how many entities contain token.
func (idx *Index) Usage(token string) int {
	return idx.usage.Usage(token)
}

// TokenUsage returns a copy of the token usage table.
func (idx *Index) TokenUsage() map[string]int {
	return idx.usage.Frequencies()
}

// Tokenizer returns the tokenizer the index was built with.
func (idx *Index) Tokenizer() textutil.Tokenizer {
	return idx.tokenizer
}
