// Package season models broadcast seasons (WINTER, SPRING, SUMMER, FALL) and
// the year/season periods used to name archive files.
package season

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Season is one of the four broadcast quarters.
type Season int

const (
	Unknown Season = iota
	Winter
	Spring
	Summer
	Fall
)

var names = [...]string{"", "WINTER", "SPRING", "SUMMER", "FALL"}

var japaneseNames = [...]string{"", "冬", "春", "夏", "秋"}

var titleCaser = cases.Title(language.English)

// Parse converts an AniList style season name into a Season.
func Parse(value string) (Season, error) {
	token := strings.ToUpper(strings.Trim(strings.TrimSpace(value), `"`))
	for idx, name := range names {
		if idx > 0 && name == token {
			return Season(idx), nil
		}
	}
	return Unknown, fmt.Errorf("unknown season %q", value)
}

// FromMonth maps a calendar month to its season.
func FromMonth(month time.Month) Season {
	switch {
	case month <= time.March:
		return Winter
	case month <= time.June:
		return Spring
	case month <= time.September:
		return Summer
	default:
		return Fall
	}
}

// Valid reports whether s is one of the four named seasons.
func (s Season) Valid() bool {
	return s >= Winter && s <= Fall
}

// Index returns the 1-based position of the season within the year.
func (s Season) Index() int {
	if !s.Valid() {
		return 0
	}
	return int(s)
}

// String returns the upper-case season name.
func (s Season) String() string {
	if !s.Valid() {
		return "UNKNOWN"
	}
	return names[s]
}

// Lower returns the lower-case season name used in file keys.
func (s Season) Lower() string {
	return strings.ToLower(s.String())
}

// MarshalText encodes the season as its upper-case name.
func (s Season) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid season %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes an upper- or lower-case season name.
func (s *Season) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Period identifies one season of one year.
type Period struct {
	Year   int
	Season Season
}

// Current returns the period containing now.
func Current(now time.Time) Period {
	return Period{Year: now.Year(), Season: FromMonth(now.Month())}
}

// Previous returns the period immediately before p.
func (p Period) Previous() Period {
	if p.Season <= Winter {
		return Period{Year: p.Year - 1, Season: Fall}
	}
	return Period{Year: p.Year, Season: p.Season - 1}
}

// Before reports whether p precedes other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Season < other.Season
}

// SortNewestFirst orders periods from the most recent to the oldest.
func SortNewestFirst(periods []Period) {
	sort.Slice(periods, func(i, j int) bool {
		return periods[j].Before(periods[i])
	})
}

// Recent returns the n most recent periods ending with the one containing
// now, newest first.
func Recent(now time.Time, n int) []Period {
	if n <= 0 {
		return nil
	}
	periods := make([]Period, 0, n)
	current := Current(now)
	for range n {
		periods = append(periods, current)
		current = current.Previous()
	}
	return periods
}

// Key returns the archive key, e.g. "2025_4_fall".
func (p Period) Key() string {
	return fmt.Sprintf("%d_%d_%s", p.Year, p.Season.Index(), p.Season.Lower())
}

// FileName returns the archive store file name for the period.
func (p Period) FileName() string {
	return p.Key() + ".json"
}

// String implements fmt.Stringer.
func (p Period) String() string {
	return p.Key()
}

// Label returns the Japanese display label, e.g. "2025年 秋".
func (p Period) Label() string {
	if !p.Season.Valid() {
		return fmt.Sprintf("%d年", p.Year)
	}
	return fmt.Sprintf("%d年 %s", p.Year, japaneseNames[p.Season])
}

// EnglishLabel returns a label such as "Fall 2025".
func (p Period) EnglishLabel() string {
	return fmt.Sprintf("%s %d", titleCaser.String(p.Season.Lower()), p.Year)
}

// ParseKey parses an archive key or file name such as "2025_4_fall.json".
func ParseKey(key string) (Period, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(key), ".json")
	parts := strings.Split(trimmed, "_")
	if len(parts) != 3 {
		return Period{}, fmt.Errorf("invalid season key %q", key)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year <= 0 {
		return Period{}, fmt.Errorf("invalid season key %q: bad year", key)
	}
	s, err := Parse(parts[2])
	if err != nil {
		return Period{}, fmt.Errorf("invalid season key %q: %w", key, err)
	}
	if idx, err := strconv.Atoi(parts[1]); err != nil || idx != s.Index() {
		return Period{}, fmt.Errorf("invalid season key %q: index does not match season", key)
	}
	return Period{Year: year, Season: s}, nil
}
