package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/graphmirror/internal/config"
	"github.com/roach88/graphmirror/internal/store"
)

// RootOptions holds global flags and the state PersistentPreRunE derives
// from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string
	Viewer     string

	// Config is the loaded configuration with flag overrides applied.
	Config *config.Config

	Logger *slog.Logger

	logCloser io.Closer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the graphmirror CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "graphmirror",
		Short: "graphmirror - mirror a remote social graph into SQLite",
		Long: `graphmirror keeps a local SQLite copy of a viewer's remote social graph
(users, friends, likes, albums, photos, links, notifications and stream
posts) in step with the remote, batch by batch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: ./graphmirror.yaml or ~/.config/graphmirror/graphmirror.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Viewer, "viewer", "", "viewer whose mirror to use (overrides config)")

	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// load reads the config file, applies flag overrides and builds the
// logger.
func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cmd.Flags().Changed("db") {
		cfg.Database = o.Database
	}
	if cmd.Flags().Changed("viewer") {
		cfg.Viewer = o.Viewer
	}
	o.Config = cfg

	logger, closer, err := NewLogger(cfg.Log, o.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	o.Logger = logger
	o.logCloser = closer

	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File)
	}
	return nil
}

// formatter returns an OutputFormatter writing to cmd's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// requireViewer returns the configured viewer.
func (o *RootOptions) requireViewer() (string, error) {
	if o.Config.Viewer == "" {
		return "", NewExitError(ExitCommandError, "no viewer: set --viewer or viewer in config")
	}
	return o.Config.Viewer, nil
}

// openStore opens the configured database. The caller closes it.
func (o *RootOptions) openStore() (*store.Store, error) {
	st, err := store.Open(o.Config.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	o.Logger.Debug("database ready", "path", o.Config.Database)
	return st, nil
}

func (o *RootOptions) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		o.Logger.Error("error closing database", "error", err)
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
