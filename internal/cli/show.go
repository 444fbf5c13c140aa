package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/queryir"
	"github.com/roach88/graphmirror/internal/schema"
	"github.com/roach88/graphmirror/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Context string
	Limit   int
	Digest  bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <entity>",
		Short: "List local records of an entity",
		Long: `List the viewer's local records of an entity in storage order.

--context limits owner-scoped entities to one owner; --limit keeps the
newest records only. --digest prints a hash of the listed keys instead,
so two mirrors can be compared without dumping rows.

Examples:
  graphmirror show friend --viewer alice
  graphmirror show album --viewer alice --context 1001 --format json
  graphmirror show stream --viewer alice --limit 10
  graphmirror show friend --viewer alice --digest`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Context, "context", "", "owner natural key")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the newest N records (0 = all)")
	cmd.Flags().BoolVar(&opts.Digest, "digest", false, "print a digest of the record keys")

	return cmd
}

func runShow(opts *ShowOptions, entity string, cmd *cobra.Command) error {
	viewer, err := opts.requireViewer()
	if err != nil {
		return err
	}
	s, ok := schema.Default().Lookup(entity)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown entity %q", entity))
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	ctx := cmd.Context()
	pred := []queryir.Predicate{store.ByViewer(viewer)}
	if opts.Context != "" {
		owner, ok := s.Owner()
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("%s is session-scoped and has no context", entity))
		}
		ownerRec, err := st.Get(ctx, owner.Target, queryir.All(store.ByViewer(viewer), store.ByKey(opts.Context)))
		if err != nil {
			return WrapExitError(ExitFailure, "unknown context", err)
		}
		pred = append(pred, store.ByOwner(ownerRec.ID))
	}

	var recs []ir.LocalRecord
	if opts.Limit > 0 {
		recs, err = st.Latest(ctx, entity, queryir.All(pred...), opts.Limit)
	} else {
		recs, err = st.Filter(ctx, entity, queryir.All(pred...))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read records", err)
	}

	if opts.Digest {
		keys := make([]string, len(recs))
		for i, r := range recs {
			keys[i] = r.Key
		}
		digest, err := ir.SnapshotDigest(map[string]any{"entity": entity, "keys": keys})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to digest records", err)
		}
		if opts.Format == "json" {
			return opts.formatter(cmd).Success(map[string]any{"entity": entity, "count": len(keys), "digest": digest})
		}
		return opts.formatter(cmd).Success(digest)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(recs)
	}
	if len(recs) == 0 {
		return opts.formatter(cmd).Success(fmt.Sprintf("No %s records for %s.", entity, viewer))
	}

	lines := make([]string, len(recs))
	for i, r := range recs {
		fields, err := r.Fields.MarshalJSON()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to render record", err)
		}
		lines[i] = fmt.Sprintf("%s\t%s", r.Key, fields)
	}
	return opts.formatter(cmd).Success(strings.Join(lines, "\n"))
}
