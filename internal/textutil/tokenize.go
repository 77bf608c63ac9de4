package textutil

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinTokenLength is the shortest token, in runes, considered significant.
const DefaultMinTokenLength = 4

// DefaultStopwords lists words that never count as significant tokens.
var DefaultStopwords = []string{
	"a", "an", "the", "of", "to", "in", "on", "at", "for", "with", "and", "or", "from", "by",
	"season", "part", "episode", "ep", "discussion", "new", "visual", "trailer", "pv",
	"thread", "preview",
}

// TokenSet is an unordered set of significant tokens.
type TokenSet map[string]struct{}

// Has reports whether token is present.
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Len returns the number of tokens in the set.
func (s TokenSet) Len() int {
	return len(s)
}

// Sorted returns the tokens in lexical order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for token := range s {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the tokens present in both sets, sorted.
func (s TokenSet) Intersect(other TokenSet) []string {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	var shared []string
	for token := range small {
		if large.Has(token) {
			shared = append(shared, token)
		}
	}
	sort.Strings(shared)
	return shared
}

// Union adds every token of other to s.
func (s TokenSet) Union(other TokenSet) {
	for token := range other {
		s[token] = struct{}{}
	}
}

// Tokenizer extracts significant tokens from free text. The zero value is not
// usable; build one with NewTokenizer.
type Tokenizer struct {
	minLength int
	stopwords map[string]struct{}
}

// NewTokenizer builds a tokenizer dropping tokens shorter than minLength runes
// plus the default and extra stopwords. A non-positive minLength selects
// DefaultMinTokenLength.
func NewTokenizer(minLength int, extraStopwords ...string) Tokenizer {
	if minLength <= 0 {
		minLength = DefaultMinTokenLength
	}
	stopwords := make(map[string]struct{}, len(DefaultStopwords)+len(extraStopwords))
	for _, word := range DefaultStopwords {
		stopwords[word] = struct{}{}
	}
	for _, word := range extraStopwords {
		if word = Normalize(word); word != "" {
			stopwords[word] = struct{}{}
		}
	}
	return Tokenizer{minLength: minLength, stopwords: stopwords}
}

// MinLength returns the configured minimum token length.
func (t Tokenizer) MinLength() int {
	return t.minLength
}

// Tokenize normalizes text and returns its significant tokens.
func (t Tokenizer) Tokenize(text string) TokenSet {
	return t.TokenizeNormalized(Normalize(text))
}

// TokenizeNormalized splits already normalized text into significant tokens.
func (t Tokenizer) TokenizeNormalized(normalized string) TokenSet {
	set := make(TokenSet)
	for _, token := range strings.Fields(normalized) {
		if utf8.RuneCountInString(token) < t.minLength {
			continue
		}
		if isNumeric(token) {
			continue
		}
		if _, stop := t.stopwords[token]; stop {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}

func isNumeric(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return token != ""
}

// Corpus counts, per token, how many documents contain it.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add registers one document's token set. Each token counts once per call.
func (c *Corpus) Add(tokens TokenSet) {
	if c == nil {
		return
	}
	c.docCount++
	for token := range tokens {
		c.docFreq[token]++
	}
}

// Usage returns how many documents contain token.
func (c *Corpus) Usage(token string) int {
	if c == nil {
		return 0
	}
	return c.docFreq[token]
}

// Documents returns the number of documents added.
func (c *Corpus) Documents() int {
	if c == nil {
		return 0
	}
	return c.docCount
}

// Frequencies returns a copy of the document frequency table.
func (c *Corpus) Frequencies() map[string]int {
	out := make(map[string]int, len(c.docFreq))
	for token, count := range c.docFreq {
		out[token] = count
	}
	return out
}
