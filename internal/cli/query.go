package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/graphmirror/internal/query"
	"github.com/roach88/graphmirror/internal/schema"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Friend int64
	Clause string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <entity>",
		Short: "Print the remote query for an entity",
		Long: `Print the remote query requesting every tracked field of an entity.

Without flags the viewer's own clause is used. --friend builds the
per-friend clause for one uid; --clause supplies any clause verbatim.

Examples:
  graphmirror query album
  graphmirror query photo --friend 1001
  graphmirror query user --clause "WHERE uid IN (1, 2)"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Friend, "friend", 0, "build the per-friend clause for this uid")
	cmd.Flags().StringVar(&opts.Clause, "clause", "", "use this clause instead of the built-in one")
	cmd.MarkFlagsMutuallyExclusive("friend", "clause")

	return cmd
}

func runQuery(opts *QueryOptions, entity string, cmd *cobra.Command) error {
	s, ok := schema.Default().Lookup(entity)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown entity %q", entity))
	}
	clauses, _ := query.ClausesFor(entity)

	clause := clauses.Self
	switch {
	case cmd.Flags().Changed("clause"):
		clause = opts.Clause
	case cmd.Flags().Changed("friend"):
		if !clauses.HasFriend() {
			return NewExitError(ExitCommandError, fmt.Sprintf("%s is only fetched for the viewer", entity))
		}
		clause = clauses.ForFriend(opts.Friend)
	}

	q := query.Build(s, clause)
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(map[string]string{"entity": entity, "query": q})
	}
	return opts.formatter(cmd).Success(q)
}
