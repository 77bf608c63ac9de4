package archive

import (
	"fmt"

	"animethreads/internal/fileutil"
)

// SeasonIndexFileName is the season listing written next to the stores.
const SeasonIndexFileName = "seasons.json"

// SeasonEntry is one row of seasons.json.
type SeasonEntry struct {
	Key    string `json:"key"`
	Year   int    `json:"year"`
	Season string `json:"season"`
	Label  string `json:"label"`
}

// SeasonIndex lists the season stores in dir, newest first.
func SeasonIndex(dir string) ([]SeasonEntry, error) {
	periods, err := ListPeriods(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]SeasonEntry, 0, len(periods))
	for _, period := range periods {
		entries = append(entries, SeasonEntry{
			Key:    period.Key(),
			Year:   period.Year,
			Season: period.Season.String(),
			Label:  period.Label(),
		})
	}
	return entries, nil
}

// WriteSeasonIndex writes seasons.json for the stores in dir to outPath.
func WriteSeasonIndex(dir, outPath string) ([]SeasonEntry, error) {
	entries, err := SeasonIndex(dir)
	if err != nil {
		return nil, fmt.Errorf("list season stores: %w", err)
	}
	if err := fileutil.WriteJSONAtomic(outPath, entries); err != nil {
		return nil, fmt.Errorf("write season index: %w", err)
	}
	return entries, nil
}
