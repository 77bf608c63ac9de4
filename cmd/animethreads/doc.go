// Command animethreads collects episode discussion threads from Reddit,
// matches them to the seasonal AniList catalog and maintains per-season JSON
// archives of the threads and their comment counts.
//
// The pipeline steps can be run one at a time (fetch-catalog, fetch-posts,
// match, archive, refresh) or together with run. Commands that write the
// archive hold an exclusive lock on the archive directory.
package main
