// Package snapshot defines the JSON documents exchanged between pipeline
// stages: the Reddit post snapshot written by fetch-posts and the match
// output written by match and consumed by archive.
//
// Readers accept the historical shapes of each document (a bare list or a
// named envelope) and reject anything else as a validation error, so a
// malformed input aborts the run instead of silently producing nothing.
package snapshot
