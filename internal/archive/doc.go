// Package archive maintains the per-season JSON stores of episode discussion
// threads.
//
// Each store file is named after its season period (2025_4_fall.json) and
// maps catalog ids to anime records, which bucket post records by episode
// number. Merging is append-only: a post already present in its bucket (same
// reddit_id, or same url) is never rewritten, latest_episode only grows, and
// a store is written back only when a merge changed it, so replaying the same
// input leaves the file byte-identical.
//
// Writers serialize through an advisory lock on the archive directory.
package archive
