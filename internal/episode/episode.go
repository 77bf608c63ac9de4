// Package episode extracts episode numbers from discussion thread titles.
package episode

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultDiscussionMarker is the word that identifies episode discussion
// threads.
const DefaultDiscussionMarker = "discussion"

// maxEpisode bounds accepted ordinals; the patterns capture at most three
// digits.
const maxEpisode = 999

// Rule is one named pattern whose first capture group is the episode number.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// DefaultRules returns the extraction rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "native", Pattern: regexp.MustCompile(`第\s*(\d{1,3})\s*話`)},
		{Name: "episode", Pattern: regexp.MustCompile(`(?i)\bep(?:isode)?\.?\s*(\d{1,3})\b`)},
		{Name: "e-number", Pattern: regexp.MustCompile(`(?i)\bE(\d{1,3})\b`)},
		{Name: "season-episode", Pattern: regexp.MustCompile(`(?i)\bS\d+E(\d{1,3})\b`)},
		{Name: "native-suffix", Pattern: regexp.MustCompile(`(\d{1,3})\s*話(?:目)?`)},
		{Name: "ordinal-episode", Pattern: regexp.MustCompile(`(?i)\b(\d{1,3})(?:st|nd|rd|th)\s+episode\b`)},
	}
}

// Extractor applies rules in order; the first rule that yields a number wins.
type Extractor struct {
	rules  []Rule
	marker string
}

// NewExtractor builds an extractor. Nil rules select DefaultRules and an
// empty marker selects DefaultDiscussionMarker.
func NewExtractor(rules []Rule, marker string) *Extractor {
	if rules == nil {
		rules = DefaultRules()
	}
	marker = strings.ToLower(strings.TrimSpace(marker))
	if marker == "" {
		marker = DefaultDiscussionMarker
	}
	return &Extractor{rules: rules, marker: marker}
}

// Extract returns the episode number found in text.
func (e *Extractor) Extract(text string) (int, bool) {
	n, _, ok := e.ExtractWithRule(text)
	return n, ok
}

// ExtractWithRule also reports which rule produced the number.
func (e *Extractor) ExtractWithRule(text string) (int, string, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, "", false
	}
	folded := norm.NFKC.String(text)
	for _, rule := range e.rules {
		match := rule.Pattern.FindStringSubmatch(folded)
		if len(match) < 2 {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 0 || n > maxEpisode {
			continue
		}
		return n, rule.Name, true
	}
	return 0, "", false
}

// IsDiscussion reports whether title carries the discussion marker.
func (e *Extractor) IsDiscussion(title string) bool {
	return strings.Contains(strings.ToLower(norm.NFKC.String(title)), e.marker)
}

// Marker returns the discussion marker in use.
func (e *Extractor) Marker() string {
	return e.marker
}
