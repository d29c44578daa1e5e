package betree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"FractalDB/options"
	"FractalDB/pager"
)

func testOptions(t *testing.T, childNumber, msgCount int) *options.Options {
	opts := options.Default()
	opts.Comparator = options.BytewiseComparator{}
	opts.MaxNodeChildNumber = childNumber
	opts.MaxNodeMsgCount = msgCount
	opts.Logger = zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	return &opts
}

func openTestTree(t *testing.T, opts *options.Options) *BufferTree {
	t.Helper()
	tree, err := Open(pager.NewInMemoryPager(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { tree.Close() })
	return tree
}

func testKey(i int) []byte   { return []byte(fmt.Sprintf("key-%06d", i)) }
func testValue(i int) []byte { return []byte(fmt.Sprintf("value-%d", i)) }

// withNode runs fn with node nid pinned and read-locked.
func withNode(t *testing.T, tree *BufferTree, nid NID, fn func(n *Node)) {
	t.Helper()
	n, err := tree.pool.fetch(nid)
	require.NoError(t, err)
	n.ReadLock()
	defer func() {
		n.ReadUnlock()
		tree.pool.unpin(n)
	}()
	fn(n)
}

// subtreeKeys collects every key with a message anywhere under nid.
func subtreeKeys(t *testing.T, tree *BufferTree, nid NID) map[string]bool {
	t.Helper()
	keys := make(map[string]bool)
	var children []NID
	withNode(t, tree, nid, func(n *Node) {
		for i := range n.pivots {
			for _, m := range n.pivots[i].MsgBuf.Msgs() {
				keys[string(m.Key)] = true
			}
			if !n.isLeaf {
				children = append(children, n.pivots[i].ChildNID)
			}
		}
	})
	for _, c := range children {
		for k := range subtreeKeys(t, tree, c) {
			keys[k] = true
		}
	}
	return keys
}
