package textutil

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	tokenScale        = 0.95
	partialScale      = 0.9
	distantScale      = 0.6
	partialLenRatio   = 1.5
	distantLenRatio   = 8.0
	maxSimilarityPerc = 100.0
)

// Ratio returns the Levenshtein similarity of a and b on a 0-100 scale.
func Ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return maxSimilarityPerc
	}
	if la == 0 || lb == 0 {
		return 0
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return maxSimilarityPerc * float64(longest-dist) / float64(longest)
}

// PartialRatio returns the best Ratio between the shorter string and every
// equally long rune window of the longer one.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return maxSimilarityPerc
		}
		return 0
	}
	shortText := string(short)
	best := 0.0
	for start := 0; start+len(short) <= len(long); start++ {
		score := Ratio(shortText, string(long[start:start+len(short)]))
		if score > best {
			best = score
			if best == maxSimilarityPerc {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares a and b after sorting their whitespace tokens.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

// TokenSetRatio compares the shared tokens of a and b against each side's
// remainder, so a string whose tokens are a subset of the other scores 100.
func TokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	var shared, onlyA, onlyB []string
	for token := range setA {
		if _, ok := setB[token]; ok {
			shared = append(shared, token)
		} else {
			onlyA = append(onlyA, token)
		}
	}
	for token := range setB {
		if _, ok := setA[token]; !ok {
			onlyB = append(onlyB, token)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(shared, " ")
	left := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	right := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := Ratio(left, right)
	if base != "" {
		best = max(best, Ratio(base, left), Ratio(base, right))
	}
	return best
}

// Similarity is the weighted score used to compare a normalized post title
// with a normalized alias. Strings of similar length are compared whole and by
// token order or subset; when one is much longer, substring alignment is used
// and damped by the length ratio. The result is rounded to two decimals.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	lenRatio := float64(max(la, lb)) / float64(min(la, lb))

	score := Ratio(a, b)
	if lenRatio < partialLenRatio {
		score = max(score, TokenSetRatio(a, b)*tokenScale, TokenSortRatio(a, b)*tokenScale)
		return round2(score)
	}
	scale := partialScale
	if lenRatio > distantLenRatio {
		scale = distantScale
	}
	score = max(score, PartialRatio(a, b)*scale, TokenSetRatio(a, b)*tokenScale*scale)
	return round2(score)
}

func sortedTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		set[field] = struct{}{}
	}
	return set
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
