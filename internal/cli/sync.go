package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/graphmirror/internal/reconcile"
	"github.com/roach88/graphmirror/internal/remote"
	"github.com/roach88/graphmirror/internal/schema"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Fixture     string
	Entity      string
	Friends     bool
	MetricsFile string
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run the import pipeline for the viewer",
		Long: `Fetch every entity for the viewer and their friends and reconcile it
into the local mirror, in dependency order: user, friend, friends' users,
likes, albums, photos, links, notifications, stream.

Remote responses come from a fixture file (JSON, YAML or CUE) mapping
entity and clause to records. --entity runs a single step.

Examples:
  graphmirror sync --viewer alice --fixture remote.yaml
  graphmirror sync --viewer alice --fixture remote.cue --entity photo --friends
  graphmirror sync --viewer alice --fixture remote.yaml --metrics-file /var/lib/node_exporter/graphmirror.prom`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Fixture, "fixture", "", "remote fixture file (overrides config)")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "run only this entity's step")
	cmd.Flags().BoolVar(&opts.Friends, "friends", false, "with --entity, fetch per friend")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics here when done (overrides config)")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	viewer, err := opts.requireViewer()
	if err != nil {
		return err
	}

	fixture := opts.Config.Fixture
	if cmd.Flags().Changed("fixture") {
		fixture = opts.Fixture
	}
	if fixture == "" {
		return NewExitError(ExitCommandError, "no remote: set --fixture or fixture in config")
	}
	metricsFile := opts.Config.MetricsFile
	if cmd.Flags().Changed("metrics-file") {
		metricsFile = opts.MetricsFile
	}
	if opts.Friends && opts.Entity == "" {
		return NewExitError(ExitCommandError, "--friends requires --entity")
	}

	client, err := remote.LoadFixtureClient(schema.Default(), fixture)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	eng := reconcile.New(schema.Default(), st,
		reconcile.WithLogger(opts.Logger),
		reconcile.WithMetrics(reconcile.DefaultMetrics()),
	)
	syncer := reconcile.NewSyncer(eng, st, client,
		reconcile.WithBatchSizes(opts.Config.Batch),
		reconcile.WithSyncLogger(opts.Logger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts.Logger.Info("sync starting", "viewer", viewer, "fixture", fixture, "entity", opts.Entity)

	var steps []reconcile.Step
	if opts.Entity != "" {
		steps, err = syncer.SyncEntity(ctx, viewer, opts.Entity, opts.Friends)
	} else {
		steps, err = syncer.Run(ctx, viewer)
	}

	if metricsFile != "" {
		if werr := reconcile.WriteMetricsFile(metricsFile, prometheus.DefaultGatherer); werr != nil {
			opts.Logger.Error("failed to write metrics", "path", metricsFile, "error", werr)
		}
	}

	if err != nil {
		if ctx.Err() == context.Canceled {
			opts.Logger.Info("sync interrupted", "steps", len(steps))
		}
		return reconcileExit(fmt.Sprintf("sync failed after %d steps", len(steps)), err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(steps)
	}
	return opts.formatter(cmd).Success(formatSteps(steps, opts.Verbose))
}

func formatSteps(steps []reconcile.Step, verbose bool) string {
	if len(steps) == 0 {
		return "Nothing to sync."
	}
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = formatResult(s.Entity, s.Result, verbose)
	}
	return strings.Join(lines, "\n")
}
