package betree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// poolLeaf allocates a one-segment leaf holding key and releases it, so it
// sits in the pool unpinned and dirty.
func poolLeaf(t *testing.T, tree *BufferTree, key string) NID {
	t.Helper()
	n, err := tree.allocNode(true)
	require.NoError(t, err)
	n.createFirstPivot(NIDNil)
	require.NoError(t, n.applyMsg(putMsg(key, "v")))
	n.WriteUnlock()
	tree.pool.unpin(n)
	return n.selfNID
}

func TestBufferPoolFetchLoadsFromPager(t *testing.T) {
	tree := openTestTree(t, testOptions(t, 16, 64))
	nid := poolLeaf(t, tree, "k")

	n, err := tree.pool.fetch(nid)
	require.NoError(t, err)
	n.ReadLock()
	require.NoError(t, tree.writeBack(n))
	n.ReadUnlock()
	tree.pool.unpin(n)
	assert.False(t, n.Modified())

	_, err = tree.pool.evictLRU(0)
	require.NoError(t, err)
	_, err = tree.pool.resident(nid)
	require.Error(t, err, "evicted node must not be resident")

	loaded, err := tree.pool.fetch(nid)
	require.NoError(t, err)
	defer tree.pool.unpin(loaded)
	assert.NotSame(t, n, loaded)
	assert.True(t, loaded.isLeaf)
	m, ok := loaded.pivots[0].MsgBuf.Find([]byte("k"))
	require.True(t, ok)
	assert.Equal(t, "v", string(m.Value))
	assert.Equal(t, uint64(1), tree.Stats().Loads)
}

func TestBufferPoolEvictsLeastRecentlyUsed(t *testing.T) {
	tree := openTestTree(t, testOptions(t, 16, 64))
	root := tree.rootNID()
	old := poolLeaf(t, tree, "old")
	time.Sleep(2 * time.Millisecond)
	recent := poolLeaf(t, tree, "recent")

	// touch root so only old is behind recent
	withNode(t, tree, root, func(n *Node) { n.touch() })
	usage := tree.pool.memoryUsage()

	var oldSize int
	withNode(t, tree, old, func(n *Node) { oldSize = n.Size() })
	evicted, err := tree.pool.evictLRU(usage - 1)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, usage-uint64(oldSize), tree.pool.memoryUsage())

	tree.pool.mu.Lock()
	_, oldResident := tree.pool.nodes[old]
	_, recentResident := tree.pool.nodes[recent]
	tree.pool.mu.Unlock()
	assert.False(t, oldResident)
	assert.True(t, recentResident)
	assert.Equal(t, uint64(1), tree.Stats().WriteBacks, "dirty victim is written back first")
}

func TestBufferPoolSkipsPinnedAndLockedNodes(t *testing.T) {
	tree := openTestTree(t, testOptions(t, 16, 64))
	pinned := poolLeaf(t, tree, "pinned")
	locked := poolLeaf(t, tree, "locked")

	p, err := tree.pool.fetch(pinned)
	require.NoError(t, err)
	defer tree.pool.unpin(p)

	l, err := tree.pool.fetch(locked)
	require.NoError(t, err)
	tree.pool.unpin(l)
	l.ReadLock()

	_, err = tree.pool.evictLRU(0)
	require.NoError(t, err)
	l.ReadUnlock()

	tree.pool.mu.Lock()
	_, pinnedResident := tree.pool.nodes[pinned]
	_, lockedResident := tree.pool.nodes[locked]
	tree.pool.mu.Unlock()
	assert.True(t, pinnedResident)
	assert.True(t, lockedResident)
}
