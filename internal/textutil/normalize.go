package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// noisePatterns run in order against lowercased text. Each match is replaced
// with a single space.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[[^\]]*\]`),
	regexp.MustCompile(`\([^)]*\)`),
	regexp.MustCompile(`episode\s*\d+`),
	regexp.MustCompile(`\bep\.?\s*\d+\b`),
	regexp.MustCompile(`\b\d+(?:st|nd|rd|th)\s+season\b`),
	regexp.MustCompile(`\bseason\s*\d+\b`),
	regexp.MustCompile(`\b(?:new|trailer|visual|preview)\b`),
}

// Normalize folds text into the canonical comparison form used for matching.
// Removing one marker can expose another ("season new 2"), so passes repeat
// until the text stops changing. After the first pass every change shortens
// the text, which bounds the loop.
func Normalize(text string) string {
	current := normalizeOnce(text)
	for {
		next := normalizeOnce(current)
		if next == current {
			return current
		}
		current = next
	}
}

func normalizeOnce(text string) string {
	s := strings.ToLower(norm.NFKC.String(text))
	for _, pattern := range noisePatterns {
		s = pattern.ReplaceAllString(s, " ")
	}
	s = strings.Map(keepRune, s)
	return strings.Join(strings.Fields(s), " ")
}

// keepRune maps every rune outside the retained alphabet to a space.
func keepRune(r rune) rune {
	if IsRetainedRune(r) {
		return r
	}
	return ' '
}

// IsRetainedRune reports whether r survives normalization unchanged.
func IsRetainedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '\t', r == '\n', r == '\r', r == '\v', r == '\f':
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK symbols and punctuation
		return true
	case r >= 0x3040 && r <= 0x309F: // hiragana
		return true
	case r >= 0x30A0 && r <= 0x30FF: // katakana
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // CJK unified ideographs
		return true
	}
	return false
}

// FoldWidth applies NFKC folding only, turning full-width digits and latin
// letters into their ASCII forms while leaving case and punctuation intact.
func FoldWidth(text string) string {
	return norm.NFKC.String(text)
}
