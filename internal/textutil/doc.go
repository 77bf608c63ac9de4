// Package textutil provides the text folding, tokenization and fuzzy
// similarity primitives shared by the catalog index and the title matcher.
//
// The primary use cases are:
//   - Normalizing post titles and catalog aliases into a comparable form
//   - Extracting significant token sets from normalized text
//   - Counting how many catalog entities share a token
//   - Scoring two normalized strings on a 0-100 scale
//
// Normalization folds full-width characters with NFKC, lowercases, removes
// bracketed annotations and episode/season markers, and keeps only ASCII
// alphanumerics plus the common Japanese script blocks. Normalize is
// idempotent: applying it twice yields the same string as applying it once.
package textutil
