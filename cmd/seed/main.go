// Seed program: builds data/demo.db with a few hundred keys, small node
// limits so the tree grows several levels, and some deletes and overwrites.
// Run: go run ./cmd/seed
// Then inspect: go run ./cmd/inspect_tree data/demo.db
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"FractalDB/betree"
	"FractalDB/options"
	"FractalDB/pager"
)

const (
	baseDir  = "data"
	treeFile = "data/demo.db"
	numKeys  = 300
)

func main() {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}
	// start from an empty file every run
	os.Remove(treeFile)

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	disk, err := pager.NewOnDiskPager(treeFile)
	if err != nil {
		log.Fatalf("open pager: %v", err)
	}

	opts := options.Default()
	opts.Comparator = options.BytewiseComparator{}
	opts.MaxNodeChildNumber = 4
	opts.MaxNodeMsgCount = 8
	opts.Logger = logger
	tree, err := betree.Open(disk, &opts)
	if err != nil {
		log.Fatalf("open tree: %v", err)
	}

	run := func(what string, fn func() error) {
		if err := fn(); err != nil {
			log.Fatalf("%s: %v", what, err)
		}
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("user:%04d", (i*37)%numKeys)
		run("put "+key, func() error { return tree.Put([]byte(key), []byte(fmt.Sprintf("name-%d", i))) })
	}
	for i := 0; i < numKeys; i += 10 {
		key := fmt.Sprintf("user:%04d", i)
		run("del "+key, func() error { return tree.Delete([]byte(key)) })
	}
	for i := 5; i < numKeys; i += 50 {
		key := fmt.Sprintf("user:%04d", i)
		run("overwrite "+key, func() error { return tree.Put([]byte(key), []byte("renamed")) })
	}

	for _, key := range []string{"user:0000", "user:0005", "user:0123"} {
		value, found, err := tree.Get([]byte(key))
		if err != nil {
			log.Fatalf("get %s: %v", key, err)
		}
		if found {
			fmt.Printf("%s = %s\n", key, value)
		} else {
			fmt.Printf("%s (deleted)\n", key)
		}
	}

	run("check", tree.CheckInvariants)
	s := tree.Stats()
	fmt.Printf("root=%d node splits=%d root splits=%d push downs=%d\n", s.Root, s.NodeSplits, s.RootSplits, s.PushDowns)
	run("close", tree.Close)

	abs, _ := filepath.Abs(treeFile)
	fmt.Printf("Seeded %s\n", abs)
}
