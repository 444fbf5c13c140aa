// Command graphmirror mirrors a viewer's remote social graph into SQLite.
package main

import (
	"os"

	"github.com/roach88/graphmirror/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	err := root.Execute()
	if err == nil {
		return
	}

	format, _ := root.PersistentFlags().GetString("format")
	if format != "json" {
		format = "text"
	}
	f := &cli.OutputFormatter{Format: format, Writer: os.Stderr}
	if format == "json" {
		f.Writer = os.Stdout
	}
	_ = f.ReportError(err)
	os.Exit(cli.GetExitCode(err))
}
