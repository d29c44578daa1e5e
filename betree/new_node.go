package betree

func newNode(tree *BufferTree, self NID, isLeaf bool) *Node {
	return &Node{
		tree:    tree,
		selfNID: self,
		isLeaf:  isLeaf,
	}
}

// createFirstPivot gives an empty node its single keyless pivot, which
// covers the whole key space. child is NIDNil for leaves.
func (n *Node) createFirstPivot(child NID) {
	n.pivots = append(n.pivots[:0], newPivot(child, NewMsgBuf(n.tree.cmp), nil))
	n.recalcSize()
}

func (n *Node) NID() NID     { return n.selfNID }
func (n *Node) IsLeaf() bool { return n.isLeaf }

func (n *Node) parent() NID          { return NID(n.parentNID.Load()) }
func (n *Node) setParent(parent NID) { n.parentNID.Store(uint64(parent)) }

// Size is the node's serialized footprint, kept current on every change.
func (n *Node) Size() int { return int(n.nodePageSize.Load()) }

// WriteBackSize is the number of bytes encodeNode will produce.
func (n *Node) WriteBackSize() int { return n.Size() }

// recalcSize must run, under the write lock, after any pivot change.
func (n *Node) recalcSize() {
	size := nodeHeaderSize
	for i := range n.pivots {
		size += n.pivots[i].size()
	}
	n.nodePageSize.Store(int64(size))
}

// itemCount is what the split check compares against the child limit:
// pivots for an internal node, live records for a leaf.
func (n *Node) itemCount() int {
	if !n.isLeaf {
		return len(n.pivots)
	}
	live := 0
	for i := range n.pivots {
		live += n.pivots[i].MsgBuf.LiveCount()
	}
	return live
}

// distinctKeys lists every key a leaf holds a message for, ascending.
// Segments cover disjoint ascending ranges so concatenating is enough.
func (n *Node) distinctKeys() [][]byte {
	var keys [][]byte
	for i := range n.pivots {
		keys = append(keys, n.pivots[i].MsgBuf.DistinctKeys()...)
	}
	return keys
}

func (n *Node) overPageSize() bool {
	return int64(n.Size()) > n.tree.opts.MaxNodePageSize
}

// needsSplit reports whether n has too many items for one node. An
// internal node over the page size is not split: its buffers are pushed
// down instead, since splitting does not shrink a buffer.
func (n *Node) needsSplit() bool {
	opts := &n.tree.opts
	if !n.isLeaf {
		return len(n.pivots) > opts.MaxNodeChildNumber
	}
	if len(n.pivots) > opts.MaxNodeChildNumber || n.itemCount() > opts.MaxNodeChildNumber {
		return true
	}
	return n.overPageSize() && len(n.distinctKeys()) >= 2
}

// needsDrain reports whether pivots[i] of internal node n should be pushed
// down: its buffer is over the message limit, or n is over the page size
// and the buffer holds anything.
func (n *Node) needsDrain(i int) bool {
	l := n.pivots[i].MsgBuf.Len()
	return l > n.tree.opts.MaxNodeMsgCount || (l > 0 && n.overPageSize())
}
