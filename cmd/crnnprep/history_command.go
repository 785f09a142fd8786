package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"crnnprep/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded conversion runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(cmd, ctx, func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						humanize.Time(run.StartedAt),
						run.Duration().Round(time.Millisecond).String(),
						string(run.Status),
						strconv.Itoa(run.DirectoryCount),
						humanize.Comma(int64(run.Lines)),
						strconv.Itoa(run.Skipped),
						run.TargetRoot,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "Duration", "Status", "Dirs", "Lines", "Skipped", "Target"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one run and the manifests it wrote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(cmd, ctx, func(store *history.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
					fmt.Fprintln(out, line)
				}
				statusKind := statusOK
				if run.Status == history.StatusFailed {
					statusKind = statusError
				}
				fmt.Fprintln(out, renderStatusLine("Status", statusKind, string(run.Status), colorize))
				fmt.Fprintln(out, renderStatusLine("Started", statusInfo, run.StartedAt.Local().Format("2006-01-02 15:04:05"), colorize))
				fmt.Fprintln(out, renderStatusLine("Target", statusInfo, run.TargetRoot, colorize))
				fmt.Fprintln(out, renderStatusLine("Lines", statusInfo, humanize.Comma(int64(run.Lines)), colorize))
				fmt.Fprintln(out, renderStatusLine("Skipped", statusInfo, yesNo(run.Skipped > 0)+" ("+strconv.Itoa(run.Skipped)+")", colorize))
				if run.ErrorMessage != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
				}
				if len(run.Directories) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(run.Directories))
				for _, dir := range run.Directories {
					rows = append(rows, []string{dir.Source, dir.Manifest, humanize.Comma(int64(dir.Lines)), strconv.Itoa(dir.Skipped)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Source", "Manifest", "Lines", "Skipped"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(cmd, ctx, func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s) from %s\n", removed, store.Path())
				return nil
			})
		},
	}
}

func withHistoryStore(cmd *cobra.Command, ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled in configuration")
	}
	store, err := history.Open(cmd.Context(), cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}
