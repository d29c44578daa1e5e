package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"FractalDB/betree"
)

var putCmd = &cobra.Command{
	Use:   "put <key> <value>",
	Short: "Store a value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTree(func(tree *betree.BufferTree, _ *zap.Logger) error {
			return tree.Put([]byte(args[0]), []byte(args[1]))
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored for a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTree(func(tree *betree.BufferTree, _ *zap.Logger) error {
			value, found, err := tree.Get([]byte(args[0]))
			if err != nil {
				return err
			}
			if !found {
				return errors.Newf("key %q not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(value))
			return nil
		})
	},
}

var delCmd = &cobra.Command{
	Use:   "del <key>",
	Short: "Delete a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTree(func(tree *betree.BufferTree, _ *zap.Logger) error {
			return tree.Delete([]byte(args[0]))
		})
	},
}
