package preflight

import (
	"context"

	"animethreads/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunLocal executes the filesystem checks for the given config.
func RunLocal(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Paths.PublishDir != "" {
		results = append(results, CheckDirectoryAccess("Publish directory", cfg.Paths.PublishDir))
	}
	results = append(results, CheckArchiveLock(cfg.Paths.ArchiveDir))
	return results
}

// RunAll executes the local checks followed by the upstream reachability checks.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := RunLocal(cfg)
	results = append(results,
		CheckAniList(ctx, cfg.AniList.BaseURL, cfg.Reddit.UserAgent),
		CheckReddit(ctx, cfg.Reddit.BaseURL, cfg.Reddit.Subreddit, cfg.Reddit.UserAgent),
	)
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
