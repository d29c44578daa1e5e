// Package cli is the fractaldb command line: one-shot key/value commands,
// an interactive REPL, inspection, a stress run and the HTTP server.
package cli

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"FractalDB/betree"
	"FractalDB/blockcache"
	"FractalDB/options"
	"FractalDB/pager"
)

var (
	dbPath     string
	configPath string
	logLevel   string
)

// RootCmd runs the REPL when no subcommand is given.
var RootCmd = &cobra.Command{
	Use:           "fractaldb",
	Short:         "Buffer-tree key/value store",
	Long:          "fractaldb stores keys in a write-optimized buffer tree. Without a subcommand it starts an interactive shell.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return replCmd.RunE(cmd, args)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "tree file (empty keeps the tree in memory)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "JSON options file")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")

	RootCmd.AddCommand(putCmd, getCmd, delCmd, replCmd, inspectCmd, stressCmd, serveCmd)
}

// Execute runs the root command
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(logLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "bad --log-level %q", logLevel)
	}
	cfg := zap.NewProductionConfig()
	if level.Level() == zap.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	return cfg.Build()
}

func loadOptions(logger *zap.Logger) (*options.Options, error) {
	opts := options.Default()
	if configPath != "" {
		var err error
		if opts, err = options.Load(configPath); err != nil {
			return nil, err
		}
	}
	if opts.Comparator == nil && opts.ComparatorName == "" {
		opts.Comparator = options.BytewiseComparator{}
	}
	opts.Logger = logger
	return &opts, nil
}

// openTree opens the tree named by --db, or an in-memory one. Files are
// read through a block cache unless the options disable it.
func openTree() (*betree.BufferTree, *zap.Logger, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	opts, err := loadOptions(logger)
	if err != nil {
		return nil, nil, err
	}

	var pg pager.Pager
	if dbPath == "" {
		pg = pager.NewInMemoryPager()
	} else {
		disk, err := pager.NewOnDiskPager(dbPath)
		if err != nil {
			return nil, nil, err
		}
		pg = disk
		if opts.BlockCacheSize > 0 {
			cached, err := blockcache.New(disk, opts.BlockCacheSize)
			if err != nil {
				disk.Close()
				return nil, nil, err
			}
			pg = cached
		}
	}

	tree, err := betree.Open(pg, opts)
	if err != nil {
		pg.Close()
		return nil, nil, err
	}
	return tree, logger, nil
}

// withTree opens the tree, runs fn and closes the tree, keeping the first
// error.
func withTree(fn func(tree *betree.BufferTree, logger *zap.Logger) error) error {
	tree, logger, err := openTree()
	if err != nil {
		return err
	}
	defer logger.Sync()
	return errors.CombineErrors(fn(tree, logger), tree.Close())
}
