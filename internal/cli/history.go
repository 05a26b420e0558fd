package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/db47h/hwtb/internal/history"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long:  "List the most recent runs recorded with --history, newest first.",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			if cfg.History == "" {
				return NewExitError(ExitFailure, "no history database: use --history or the history config key")
			}
			if limit <= 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("invalid limit %d", limit))
			}
			s, err := history.Open(cfg.History)
			if err != nil {
				return WrapExitError(ExitFailure, "open history", err)
			}
			defer s.Close()
			runs, err := s.Recent(cmd.Context(), limit)
			if err != nil {
				return WrapExitError(ExitFailure, "list runs", err)
			}
			return errors.Wrap(printRuns(cmd.OutOrStdout(), runs), "list runs")
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of runs to list")
	return cmd
}

func printRuns(w io.Writer, runs []*history.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tDEVICE\tMODE\tCYCLES\tRESULT")
	for _, r := range runs {
		result := "PASS"
		switch {
		case r.Result.Mode != "check":
			result = "-"
		case !r.Passed:
			result = fmt.Sprintf("FAIL (%d)", r.Failures)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.Started.Format("2006-01-02 15:04:05"), r.Device, r.Result.Mode, r.Result.Cycles, result)
	}
	return tw.Flush()
}
