package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"FractalDB/betree"
)

var (
	stressWriters int
	stressKeys    int
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Write disjoint key ranges from many goroutines, then read everything back",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTree(func(tree *betree.BufferTree, logger *zap.Logger) error {
			return runStress(tree, stressWriters, stressKeys, cmd.OutOrStdout())
		})
	},
}

func init() {
	stressCmd.Flags().IntVar(&stressWriters, "writers", 8, "concurrent writers")
	stressCmd.Flags().IntVar(&stressKeys, "keys", 10000, "keys per writer")
}

func stressKey(w, i int) []byte   { return []byte(fmt.Sprintf("stress-%03d-%09d", w, i)) }
func stressValue(w, i int) []byte { return []byte(fmt.Sprintf("%d:%d", w, i)) }

// runStress has each writer own the keys stressKey(w, *), so the final
// content is known no matter how the writers interleave.
func runStress(tree *betree.BufferTree, writers, keys int, out io.Writer) error {
	if writers < 1 || keys < 1 {
		return errors.Newf("need at least one writer and one key, got %d and %d", writers, keys)
	}

	start := time.Now()
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < keys; i++ {
				if err := tree.Put(stressKey(w, i), stressValue(w, i)); err != nil {
					errs[w] = errors.Wrapf(err, "writer %d key %d", w, i)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	elapsed := time.Since(start)
	total := int64(writers * keys)
	fmt.Fprintf(out, "wrote %s keys in %s (%s/s)\n",
		humanize.Comma(total), elapsed.Round(time.Millisecond),
		humanize.Comma(int64(float64(total)/elapsed.Seconds())))

	start = time.Now()
	for w := 0; w < writers; w++ {
		for i := 0; i < keys; i++ {
			value, found, err := tree.Get(stressKey(w, i))
			if err != nil {
				return err
			}
			if !found || string(value) != string(stressValue(w, i)) {
				return errors.Newf("key %s: got %q, found=%t", stressKey(w, i), value, found)
			}
		}
	}
	fmt.Fprintf(out, "verified %s keys in %s\n", humanize.Comma(total), time.Since(start).Round(time.Millisecond))

	if err := tree.CheckInvariants(); err != nil {
		return err
	}
	printStats(out, tree.Stats())
	return nil
}
