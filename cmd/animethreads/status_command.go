package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"animethreads/internal/preflight"
	"animethreads/internal/services"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

const statusLabelWidth = 20

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var localOnly bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, the archive lock and upstream reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, runCtx, err := ctx.newApp(cmd, "status")
			if err != nil {
				return err
			}
			var results []preflight.Result
			if localOnly {
				results = preflight.RunLocal(a.cfg)
			} else {
				results = preflight.RunAll(runCtx, a.cfg)
			}
			if jsonOut {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := isTerminal(out)
				for _, r := range results {
					fmt.Fprintln(out, renderStatusLine(r, colorize))
				}
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "status", "preflight", summarizeFailures(failed), nil)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&localOnly, "local", false, "Skip the AniList and Reddit reachability checks")
	return cmd
}

func renderStatusLine(r preflight.Result, colorize bool) string {
	label, color := "OK", ansiGreen
	if !r.Passed {
		label, color = "ERROR", ansiRed
	}
	status := fmt.Sprintf("[%s]", label)
	if r.Detail != "" {
		status = fmt.Sprintf("[%s] %s", label, r.Detail)
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, r.Name+":", status)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func summarizeFailures(failed []preflight.Result) string {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return "preflight failed (" + strings.Join(parts, "; ") + ")"
}
