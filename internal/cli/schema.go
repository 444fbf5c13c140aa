package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/graphmirror/internal/schema"
)

// EntitySummary is one row of `graphmirror schema`.
type EntitySummary struct {
	Name     string `json:"name"`
	Primary  string `json:"primary"`
	Owner    string `json:"owner"`
	Stream   bool   `json:"stream"`
	RowLimit int    `json:"row_limit,omitempty"`
	Fields   int    `json:"fields"`
}

// FieldSummary is one field of `graphmirror schema <entity>`.
type FieldSummary struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Target   string `json:"target,omitempty"`
	Nullable bool   `json:"nullable"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [entity]",
		Short: "Show mirrored entity schemas",
		Long: `List the mirrored entities, or show the tracked fields of one entity.

Examples:
  graphmirror schema
  graphmirror schema photo --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listSchemas(rootOpts, cmd)
			}
			return showSchema(rootOpts, cmd, args[0])
		},
	}
}

func listSchemas(opts *RootOptions, cmd *cobra.Command) error {
	registry := schema.Default()
	summaries := make([]EntitySummary, 0, len(registry.Names()))
	for _, name := range registry.Names() {
		s, _ := registry.Lookup(name)
		summary := EntitySummary{
			Name:    s.Name,
			Primary: s.PrimaryIdentifier,
			Owner:   s.OwnerIdentifier,
			Stream:  s.IsStream,
			Fields:  len(s.Fields),
		}
		if s.SessionScoped() {
			summary.RowLimit = s.RowLimit
		}
		summaries = append(summaries, summary)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(summaries)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tPRIMARY\tOWNER\tSTREAM\tFIELDS")
	for _, s := range summaries {
		owner := s.Owner
		if s.RowLimit > 0 {
			owner = fmt.Sprintf("%s(%d)", owner, s.RowLimit)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\n", s.Name, s.Primary, owner, s.Stream, s.Fields)
	}
	return tw.Flush()
}

func showSchema(opts *RootOptions, cmd *cobra.Command, entity string) error {
	s, ok := schema.Default().Lookup(entity)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown entity %q (known: %s)",
			entity, strings.Join(schema.Default().Names(), ", ")))
	}

	fields := make([]FieldSummary, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = FieldSummary{Name: f.Name, Kind: f.Kind.String(), Target: f.Target, Nullable: f.Nullable}
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(map[string]any{"entity": s.Name, "fields": fields})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (primary %s, owner %s, stream %t)\n", s.Name, s.PrimaryIdentifier, s.OwnerIdentifier, s.IsStream)
	for _, f := range s.Fields {
		fmt.Fprintf(w, "  %s\n", f)
	}
	return nil
}
