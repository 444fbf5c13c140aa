package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
	All   bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent reconcile runs",
		Long: `List logged reconcile runs, newest first.

Examples:
  graphmirror history --viewer alice
  graphmirror history --all --limit 50 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to show (0 = all)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "show runs of every viewer")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	viewer := ""
	if !opts.All {
		v, err := opts.requireViewer()
		if err != nil {
			return err
		}
		viewer = v
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	runs, err := st.ReadRuns(cmd.Context(), viewer, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run log", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(runs)
	}
	if len(runs) == 0 {
		return opts.formatter(cmd).Success("No runs logged.")
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tVIEWER\tENTITY\tCONTEXT\t+\t~\t-\t=\tSTATUS")
	for _, r := range runs {
		status := r.Status
		if r.Error != "" && opts.Verbose {
			status += ": " + r.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.Seq, r.ID, r.Viewer, r.Entity, r.Context, r.Added, r.Updated, r.Deleted, r.Resolved, status)
	}
	return tw.Flush()
}
