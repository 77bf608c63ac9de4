package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"animethreads/internal/preflight"
	"animethreads/internal/services"
)

func newFetchCatalogCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "fetch-catalog",
		Short: "Download the current and previous season catalog from AniList",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, runCtx, err := ctx.newApp(cmd, "fetch-catalog")
			if err != nil {
				return err
			}
			result, err := a.fetchCatalog(runCtx)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d catalog entries for %v to %s\n", result.Entries, result.Periods, result.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newFetchPostsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "fetch-posts",
		Short: "Download the configured subreddit listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, runCtx, err := ctx.newApp(cmd, "fetch-posts")
			if err != nil {
				return err
			}
			result, err := a.fetchPosts(runCtx)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d unique posts from r/%s to %s\n", result.Posts, result.Subreddit, result.Path)
			listings := make([]string, 0, len(result.Counts))
			for name := range result.Counts {
				listings = append(listings, name)
			}
			sort.Strings(listings)
			rows := make([][]string, 0, len(listings))
			for _, name := range listings {
				rows = append(rows, []string{name, strconv.Itoa(result.Counts[name])})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Listing", "Posts"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match the post snapshot against the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, runCtx, err := ctx.newApp(cmd, "match")
			if err != nil {
				return err
			}
			result, err := a.match(runCtx)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Matched %d of %d posts (%d skipped); wrote %s\n",
				result.Matched, result.Processed, result.Skipped, result.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Merge matched discussion threads into the season archives",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, runCtx, err := ctx.newApp(cmd, "archive")
			if err != nil {
				return err
			}
			result, err := a.archive(runCtx)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			printArchiveSummary(cmd, result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func printArchiveSummary(cmd *cobra.Command, result archiveResult) {
	out := cmd.OutOrStdout()
	rows := [][]string{
		{"Processed", strconv.Itoa(result.Processed)},
		{"Archived", strconv.Itoa(result.Archived)},
		{"Duplicates", strconv.Itoa(result.Duplicates)},
		{"No episode", strconv.Itoa(result.SkippedNoEpisode)},
		{"Not a discussion", strconv.Itoa(result.SkippedNotDiscussion)},
		{"Wrong season", strconv.Itoa(result.SkippedWrongSeason)},
		{"No match", strconv.Itoa(result.SkippedNoMatch)},
		{"Invalid", strconv.Itoa(result.SkippedInvalid)},
	}
	fmt.Fprintln(out, renderTable(out, []string{"Archive", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	for _, file := range result.FilesWritten {
		fmt.Fprintf(out, "Updated %s\n", file)
	}
	if len(result.IndexedSeasons) > 0 {
		fmt.Fprintf(out, "Indexed %d seasons\n", len(result.IndexedSeasons))
	}
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Update comment counts for the latest episodes of recent seasons",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, runCtx, err := ctx.newApp(cmd, "refresh")
			if err != nil {
				return err
			}
			results, err := a.refresh(runCtx)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, results)
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				if r.Missing {
					rows = append(rows, []string{r.Key, "-", "-", "-", "missing"})
					continue
				}
				status := "ok"
				if r.Aborted {
					status = "aborted"
				}
				rows = append(rows, []string{r.Key, strconv.Itoa(r.Checked), strconv.Itoa(r.Updated), strconv.Itoa(r.Failed + r.Throttled), status})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Season", "Checked", "Updated", "Failed", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var withRefresh bool
	var withPublish bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run fetch-catalog, fetch-posts, match, archive and seasons in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			a, runCtx, err := ctx.newApp(cmd, "fetch-catalog")
			if err != nil {
				return err
			}
			if failed := preflight.Failed(preflight.RunLocal(a.cfg)); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "run", "preflight", summarizeFailures(failed), nil)
			}
			fetched, err := a.fetchCatalog(runCtx)
			if err != nil {
				return fmt.Errorf("fetch-catalog: %w", err)
			}
			fmt.Fprintf(out, "Catalog: %d entries\n", fetched.Entries)

			posts, err := a.fetchPosts(services.WithStage(runCtx, "fetch-posts"))
			if err != nil {
				return fmt.Errorf("fetch-posts: %w", err)
			}
			fmt.Fprintf(out, "Posts: %d unique\n", posts.Posts)

			matched, err := a.match(services.WithStage(runCtx, "match"))
			if err != nil {
				return fmt.Errorf("match: %w", err)
			}
			fmt.Fprintf(out, "Matched: %d of %d\n", matched.Matched, matched.Processed)

			archived, err := a.archive(services.WithStage(runCtx, "archive"))
			if err != nil {
				return fmt.Errorf("archive: %w", err)
			}
			fmt.Fprintf(out, "Archived: %s\n", archived.Summary)

			if withRefresh {
				results, err := a.refresh(services.WithStage(runCtx, "refresh"))
				if err != nil {
					return fmt.Errorf("refresh: %w", err)
				}
				updated := 0
				for _, r := range results {
					updated += r.Updated
				}
				fmt.Fprintf(out, "Refreshed: %d posts updated\n", updated)
			}

			entries, err := a.seasons()
			if err != nil {
				return fmt.Errorf("seasons: %w", err)
			}
			fmt.Fprintf(out, "Seasons: %d listed in %s\n", len(entries), a.seasonIndexPath())

			if withPublish {
				copied, err := a.publish()
				if err != nil {
					return fmt.Errorf("publish: %w", err)
				}
				fmt.Fprintf(out, "Published: %d files to %s\n", len(copied), a.cfg.Paths.PublishDir)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withRefresh, "refresh", false, "Refresh comment counts after archiving")
	cmd.Flags().BoolVar(&withPublish, "publish", false, "Copy the archive to paths.publish_dir at the end")
	return cmd
}
