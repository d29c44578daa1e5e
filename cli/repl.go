package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"FractalDB/betree"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive shell (put, get, del, stats, flush, check, exit)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTree(func(tree *betree.BufferTree, _ *zap.Logger) error {
			return runREPL(tree, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

const replHelp = `commands:
  put <key> <value>   store a value (the rest of the line is the value)
  get <key>           print a value
  del <key>           delete a key
  stats               tree counters
  flush               write every dirty node back
  check               verify the tree structure
  exit                leave`

// runREPL reads one command per line until EOF or exit. Command errors are
// printed and the loop goes on.
func runREPL(tree *betree.BufferTree, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "db> ")

		if !scanner.Scan() { // Ctrl+D pressed
			fmt.Fprintln(out)
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			break
		}
		if line == "" {
			continue
		}

		if err := replLine(tree, line, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func replLine(tree *betree.BufferTree, line string, out io.Writer) error {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "put":
		key, value, ok := strings.Cut(rest, " ")
		if !ok || key == "" {
			return errors.New("usage: put <key> <value>")
		}
		if err := tree.Put([]byte(key), []byte(value)); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
	case "get":
		if rest == "" {
			return errors.New("usage: get <key>")
		}
		value, found, err := tree.Get([]byte(rest))
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintln(out, "(not found)")
			return nil
		}
		fmt.Fprintln(out, string(value))
	case "del":
		if rest == "" {
			return errors.New("usage: del <key>")
		}
		if err := tree.Delete([]byte(rest)); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
	case "stats":
		printStats(out, tree.Stats())
	case "flush":
		if err := tree.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
	case "check":
		if err := tree.CheckInvariants(); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
	case "help":
		fmt.Fprintln(out, replHelp)
	default:
		return errors.Newf("unknown command %q (try help)", verb)
	}
	return nil
}

func printStats(out io.Writer, s betree.Stats) {
	fmt.Fprintf(out, "root:            %d\n", s.Root)
	fmt.Fprintf(out, "puts/dels/gets:  %s / %s / %s\n",
		humanize.Comma(int64(s.Puts)), humanize.Comma(int64(s.Deletes)), humanize.Comma(int64(s.Gets)))
	fmt.Fprintf(out, "push downs:      %d eager, %d during lock path\n", s.PushDowns, s.DeferredPushDowns)
	fmt.Fprintf(out, "splits:          %d node, %d root, %d msgbuf\n", s.NodeSplits, s.RootSplits, s.MsgBufSplits)
	fmt.Fprintf(out, "node io:         %d loads, %d write backs, %d evictions\n", s.Loads, s.WriteBacks, s.Evictions)
	fmt.Fprintf(out, "resident:        %d nodes, %s\n", s.ResidentNodes, humanize.Bytes(s.ResidentBytes))
}
