package catalog

import (
	"fmt"
	"strings"

	"animethreads/internal/fileutil"
	"animethreads/internal/season"
	"animethreads/internal/services"
)

// Title mirrors the nested AniList title object.
type Title struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

// Entry is one catalog record as stored in the snapshot file. Both the flat
// shape written by fetch-catalog and the nested AniList "title" object are
// accepted.
type Entry struct {
	ID         int    `json:"id"`
	Romaji     string `json:"romaji,omitempty"`
	English    string `json:"english,omitempty"`
	Native     string `json:"native,omitempty"`
	Title      *Title `json:"title,omitempty"`
	Season     string `json:"season"`
	SeasonYear int    `json:"seasonYear"`
}

// Variants returns the trimmed native, romaji and english titles, in that
// order, falling back to the nested title object for empty fields.
func (e Entry) Variants() (native, romaji, english string) {
	native, romaji, english = e.Native, e.Romaji, e.English
	if e.Title != nil {
		if strings.TrimSpace(native) == "" {
			native = e.Title.Native
		}
		if strings.TrimSpace(romaji) == "" {
			romaji = e.Title.Romaji
		}
		if strings.TrimSpace(english) == "" {
			english = e.Title.English
		}
	}
	return strings.TrimSpace(native), strings.TrimSpace(romaji), strings.TrimSpace(english)
}

// DisplayName picks the title shown in the archive: native, then romaji,
// then english.
func (e Entry) DisplayName() string {
	native, romaji, english := e.Variants()
	for _, candidate := range []string{native, romaji, english} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// Period returns the broadcast period of the entry.
func (e Entry) Period() (season.Period, error) {
	s, err := season.Parse(e.Season)
	if err != nil {
		return season.Period{}, err
	}
	if e.SeasonYear <= 0 {
		return season.Period{}, fmt.Errorf("entry %d: missing seasonYear", e.ID)
	}
	return season.Period{Year: e.SeasonYear, Season: s}, nil
}

// Load reads a catalog snapshot. A missing file is reported as not found.
func Load(path string) ([]Entry, error) {
	var entries []Entry
	exists, err := fileutil.ReadJSON(path, &entries)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "catalog", "load", "invalid catalog snapshot "+path, err)
	}
	if !exists {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "load", "catalog snapshot not found: "+path, nil)
	}
	return entries, nil
}

// Save writes a catalog snapshot atomically.
func Save(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	if err := fileutil.WriteJSONAtomic(path, entries); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}
