package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"animethreads/internal/archiveindex"
	"animethreads/internal/fileutil"
	"animethreads/internal/season"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Drop unknown-episode buckets and non-discussion posts from every season archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, runCtx, err := ctx.newApp(cmd, "clean")
			if err != nil {
				return err
			}
			results, err := a.clean(runCtx)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, results)
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No season archives found")
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					r.Key,
					strconv.Itoa(r.RemovedPosts),
					strconv.Itoa(r.RemovedBuckets),
					strconv.Itoa(r.RemovedAnime),
					yesNo(r.Changed()),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Season", "Posts", "Buckets", "Anime", "Rewritten"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newSeasonsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "seasons",
		Short: "Write seasons.json listing the archived seasons",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := ctx.newApp(cmd, "seasons")
			if err != nil {
				return err
			}
			entries, err := a.seasons()
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{entry.Key, entry.Label})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Key", "Label"}, rows, nil))
			fmt.Fprintf(out, "Wrote %s\n", a.seasonIndexPath())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newRankCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var seasonKey string
	var limit int
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Show the most discussed episodes of a season",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, runCtx, err := ctx.newApp(cmd, "rank")
			if err != nil {
				return err
			}
			period, err := resolvePeriod(seasonKey, a)
			if err != nil {
				return err
			}
			ranks, err := a.rank(runCtx, period, limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, ranks)
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(ranks))
			for i, r := range ranks {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					r.NameJP,
					strconv.Itoa(r.Episode),
					strconv.Itoa(r.Threads),
					strconv.Itoa(r.NumComments),
				})
			}
			fmt.Fprintln(out, period.Label())
			fmt.Fprintln(out, renderTable(out,
				[]string{"#", "Title", "Episode", "Threads", "Comments"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().StringVarP(&seasonKey, "season", "s", "", "Season key such as 2025_4_fall (default: current season)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of episodes to show (0 for all)")
	return cmd
}

func resolvePeriod(key string, a *app) (season.Period, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return season.Current(a.now()), nil
	}
	period, err := season.ParseKey(key)
	if err != nil {
		return season.Period{}, fmt.Errorf("invalid --season %q: %w", key, err)
	}
	return period, nil
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Copy the season archives and seasons.json to paths.publish_dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := ctx.newApp(cmd, "publish")
			if err != nil {
				return err
			}
			copied, err := a.publish()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d files to %s\n", len(copied), a.cfg.Paths.PublishDir)
			return nil
		},
	}
}

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Maintain the SQLite archive index",
	}
	indexCmd.AddCommand(newIndexSyncCommand(ctx))
	indexCmd.AddCommand(newIndexExportCommand(ctx))
	return indexCmd
}

func newIndexSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the index from every season archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, runCtx, err := ctx.newApp(cmd, "index")
			if err != nil {
				return err
			}
			index, err := archiveindex.Open(runCtx, a.cfg.Archive.IndexPath)
			if err != nil {
				return err
			}
			defer index.Close()
			keys, err := index.SyncDir(runCtx, a.cfg.Paths.ArchiveDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d seasons into %s\n", len(keys), index.Path())
			return nil
		},
	}
}

func newIndexExportCommand(ctx *commandContext) *cobra.Command {
	var seasonKey string
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a season archive rebuilt from the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, runCtx, err := ctx.newApp(cmd, "index")
			if err != nil {
				return err
			}
			period, err := resolvePeriod(seasonKey, a)
			if err != nil {
				return err
			}
			index, err := archiveindex.Open(runCtx, a.cfg.Archive.IndexPath)
			if err != nil {
				return err
			}
			defer index.Close()
			store, err := index.Export(runCtx, period)
			if err != nil {
				return err
			}
			if strings.TrimSpace(outPath) == "" {
				return writeJSON(cmd, store)
			}
			if err := fileutil.WriteJSONAtomic(outPath, store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&seasonKey, "season", "s", "", "Season key such as 2025_4_fall (default: current season)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Destination file (default: stdout)")
	return cmd
}
