package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"FractalDB/betree"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Dump the nodes of a tree file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dbPath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return errors.New("inspect needs a tree file (argument or --db)")
		}
		return betree.InspectTreeFileTo(cmd.OutOrStdout(), path)
	},
}
