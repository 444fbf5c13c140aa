package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/reconcile"
	"github.com/roach88/graphmirror/internal/remote"
	"github.com/roach88/graphmirror/internal/schema"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	*RootOptions
	Context string
	Stream  bool
}

// BatchFile is the on-disk format of a remote batch.
type BatchFile struct {
	Records []map[string]any `json:"records" yaml:"records"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile <entity> <batch-file>",
		Short: "Reconcile one remote batch into the local mirror",
		Long: `Reconcile a batch of remote records of one entity for the viewer.

The batch file is JSON, YAML or CUE with a top-level "records" list. Each
record must carry exactly the entity's tracked fields (see "graphmirror
schema <entity>").

Exit codes:
  0 - Batch reconciled
  1 - Batch rejected (schema, type, context or integrity error)
  2 - Command error (unreadable file, database error, etc.)

Examples:
  graphmirror reconcile album albums.json --viewer alice
  graphmirror reconcile album empty.json --viewer alice --context 1001
  graphmirror reconcile photo photos.yaml --viewer alice --stream`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Context, "context", "", "owner natural key of the batch (required to empty a scope)")
	cmd.Flags().BoolVar(&opts.Stream, "stream", false, "keep local records missing from the batch (overrides the entity policy)")

	return cmd
}

func runReconcile(opts *ReconcileOptions, entity, path string, cmd *cobra.Command) error {
	viewer, err := opts.requireViewer()
	if err != nil {
		return err
	}
	if _, ok := schema.Default().Lookup(entity); !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown entity %q", entity))
	}

	batch, err := loadBatch(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read batch", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	eng := reconcile.New(schema.Default(), st, reconcile.WithLogger(opts.Logger))

	ropts := reconcile.Options{Context: opts.Context}
	if cmd.Flags().Changed("stream") {
		stream := opts.Stream
		ropts.Stream = &stream
	}

	res, err := eng.Reconcile(cmd.Context(), entity, viewer, batch, ropts)
	if err != nil {
		return reconcileExit(fmt.Sprintf("reconcile %s failed (run %s)", entity, res.RunID), err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(res)
	}
	return opts.formatter(cmd).Success(formatResult(entity, res, opts.Verbose))
}

func loadBatch(path string) ([]ir.RemoteRecord, error) {
	var file BatchFile
	if err := remote.DecodeFile(path, &file); err != nil {
		return nil, err
	}
	batch := make([]ir.RemoteRecord, len(file.Records))
	for i, r := range file.Records {
		batch[i] = ir.RemoteRecord(r)
	}
	return batch, nil
}

// formatResult renders a reconcile result on one line, plus the touched
// keys when verbose.
func formatResult(entity string, res reconcile.Result, verbose bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", entity)
	if res.Context != "" {
		fmt.Fprintf(&b, "[%s]", res.Context)
	}
	fmt.Fprintf(&b, ": %d added, %d updated, %d deleted, %d resolved (run %s)",
		len(res.Added), len(res.Updated), len(res.Deleted), len(res.Resolved), res.RunID)

	if verbose {
		for _, l := range []struct {
			name string
			keys []string
		}{
			{"added", res.Added},
			{"updated", res.Updated},
			{"deleted", res.Deleted},
			{"resolved", res.Resolved},
		} {
			if len(l.keys) > 0 {
				fmt.Fprintf(&b, "\n  %s: %s", l.name, strings.Join(l.keys, ", "))
			}
		}
	}
	return b.String()
}
