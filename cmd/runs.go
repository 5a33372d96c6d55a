package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/nstepro/the-compound-sub000/internal/runlog"
)

var (
	runsLimit  int
	runsStatus string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List pipeline run history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		history, err := initRunLog(ctx)
		if err != nil {
			return err
		}
		defer history.Close() //nolint:errcheck

		runs, err := history.ListRuns(ctx, runlog.Filter{
			Status: runlog.RunStatus(runsStatus),
			Limit:  runsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list runs")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRuns(os.Stdout, runs)
		return nil
	},
}

func formatRuns(w io.Writer, runs []runlog.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDOCUMENT\tSTATUS\tENRICHED\tSKIPPED\tFAILED\tSTARTED")
	for _, r := range runs {
		enriched, skipped, failed := "-", "-", "-"
		if r.Stats != nil {
			enriched = fmt.Sprintf("%d", r.Stats.EnrichedPlaces)
			skipped = fmt.Sprintf("%d", r.Stats.SkippedPlaces)
			failed = fmt.Sprintf("%d", r.Stats.FailedPlaces)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.DocumentID, r.Status, enriched, skipped, failed,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "Filter by run status")
	rootCmd.AddCommand(runsCmd)
}
