// Inspect a buffer tree file.
// Usage: go run ./cmd/inspect_tree <path-to-tree-file>
// Example: go run ./cmd/inspect_tree data/demo.db
package main

import (
	"fmt"
	"os"

	"FractalDB/betree"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <tree-file>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s data/demo.db\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]
	if err := betree.InspectTreeFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
