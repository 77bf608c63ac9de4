// Package preflight provides readiness checks for the directories and
// upstream services animethreads depends on.
//
// These checks run in two contexts:
//   - The run command calls RunLocal before fetching anything, so a missing
//     or locked archive directory stops the pipeline before upstream quota is
//     spent.
//   - The status command calls RunAll, which adds AniList and Reddit
//     reachability checks.
package preflight
