// Tree file inspection for debugging.
// Use InspectTreeFile(path) to print a human-readable dump of a tree file.

package betree

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"FractalDB/options"
	"FractalDB/pager"
)

// InspectTreeFile opens a tree file and prints its structure to stdout.
func InspectTreeFile(path string) error {
	return InspectTreeFileTo(os.Stdout, path)
}

// InspectTreeFileTo writes a dump of the tree file to w: the meta page,
// then every node level by level with its pivots and buffered messages.
// The file is opened read-only and left untouched.
func InspectTreeFileTo(w io.Writer, path string) error {
	pg, err := pager.OpenOnDiskPagerReadOnly(path)
	if err != nil {
		return err
	}
	defer pg.Close()
	return inspectPager(w, pg, path)
}

func inspectPager(w io.Writer, pg pager.Pager, name string) error {
	data, err := pg.ReadPage(pager.MetaPageID)
	if err != nil {
		return errors.Wrap(err, "read meta page")
	}
	m, err := decodeMeta(data)
	if err != nil {
		return err
	}
	cmp, err := options.LookupComparator(m.comparator)
	if err != nil {
		return err
	}

	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }
	pln := func(s string) { fmt.Fprintln(w, s) }

	p("Tree file: %s\n", name)
	p("  Page 0 (meta): id=%s root=%d comparator=%s\n", m.treeID, m.root, m.comparator)

	pln("\n  Nodes (BFS):")
	pln("  ---")

	queue := []NID{m.root}
	level := 0
	var nodes, bytes int

	for len(queue) > 0 {
		size := len(queue)
		p("  Level %d:\n", level)
		for i := 0; i < size; i++ {
			nid := queue[i]
			page, err := pg.ReadPage(uint64(nid))
			if err != nil {
				p("    [node %d] read error: %v\n", nid, err)
				continue
			}
			n, err := decodeNode(page, nid, cmp)
			if err != nil {
				p("    [node %d] decode error: %v\n", nid, err)
				continue
			}
			nodes++
			bytes += len(page)

			kind := "INTERNAL"
			if n.isLeaf {
				kind = "LEAF"
			}
			p("    [node %d] %s parent=%d pivots=%d size=%s\n",
				nid, kind, n.parent(), len(n.pivots), humanize.Bytes(uint64(len(page))))
			for j := range n.pivots {
				pv := &n.pivots[j]
				key := "-inf"
				if pv.hasKey() {
					key = formatKey(pv.leftMostKey)
				}
				if n.isLeaf {
					p("      %s: %d msgs\n", key, pv.MsgBuf.Len())
				} else {
					p("      %s -> node %d (%d buffered)\n", key, pv.ChildNID, pv.MsgBuf.Len())
					queue = append(queue, pv.ChildNID)
				}
				for _, msg := range pv.MsgBuf.Msgs() {
					if msg.Type == MsgPut {
						p("        put %s -> %s\n", formatKey(msg.Key), formatKey(msg.Value))
					} else {
						p("        del %s\n", formatKey(msg.Key))
					}
				}
			}
		}
		pln("  ---")
		queue = queue[size:]
		level++
	}

	p("  %d nodes, %s of node blocks\n", nodes, humanize.Bytes(uint64(bytes)))
	return nil
}

// formatKey quotes printable keys and shows the rest as hex.
func formatKey(b []byte) string {
	if utf8.Valid(b) {
		return fmt.Sprintf("%q", string(b))
	}
	return fmt.Sprintf("0x%x", b)
}
