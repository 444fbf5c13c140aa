package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/roach88/graphmirror/internal/ir"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the engine version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			if rootOpts.Format == "json" {
				return f.Success(map[string]string{"version": ir.EngineVersion, "go": runtime.Version()})
			}
			return f.Success("graphmirror " + ir.EngineVersion + " (" + runtime.Version() + ")")
		},
	}
}
