package betree

import "github.com/cockroachdb/errors"

// CheckInvariants walks the whole tree and reports the first structural
// violation it finds. Meant for a quiescent tree: nodes are locked one at
// a time, so concurrent writers can make it report a transient state.
func (t *BufferTree) CheckInvariants() error {
	if t.closed.Load() {
		return ErrClosed
	}
	_, err := t.checkSubtree(t.rootNID(), NIDNil, nil, nil)
	return err
}

// checkSubtree verifies node nid and everything below it. Keys in the
// subtree must lie in [lo, hi); nil means unbounded. Returns the depth.
func (t *BufferTree) checkSubtree(nid, parent NID, lo, hi []byte) (int, error) {
	n, err := t.pool.fetch(nid)
	if err != nil {
		return 0, err
	}
	n.ReadLock()
	children, bounds, err := t.checkNode(n, parent, lo, hi)
	n.ReadUnlock()
	t.pool.unpin(n)
	if err != nil {
		return 0, err
	}
	if len(children) == 0 {
		return 1, nil
	}

	depth := -1
	for i, child := range children {
		d, err := t.checkSubtree(child, nid, bounds[i], bounds[i+1])
		if err != nil {
			return 0, err
		}
		if depth >= 0 && d != depth {
			return 0, errors.AssertionFailedf("node %d: children at uneven depths %d and %d", nid, depth, d)
		}
		depth = d
	}
	return depth + 1, nil
}

// checkNode validates one read-locked node and returns its children with
// the key bounds of each: child i covers [bounds[i], bounds[i+1]).
func (t *BufferTree) checkNode(n *Node, parent NID, lo, hi []byte) ([]NID, [][]byte, error) {
	cmp := t.cmp
	fail := func(format string, args ...interface{}) ([]NID, [][]byte, error) {
		return nil, nil, errors.AssertionFailedf("node %d: "+format, append([]interface{}{n.selfNID}, args...)...)
	}

	if n.parent() != parent {
		return fail("parent is %d, reached from %d", n.parent(), parent)
	}
	if len(n.pivots) == 0 {
		return fail("no pivots")
	}
	if n.pivots[0].hasKey() {
		return fail("first pivot has a key")
	}

	bounds := [][]byte{lo}
	for i := 1; i < len(n.pivots); i++ {
		if !n.pivots[i].hasKey() {
			return fail("pivot %d has no key", i)
		}
		key := n.pivots[i].LeftMostKey()
		if i > 1 && cmp.Compare(key, bounds[i-1]) <= 0 {
			return fail("pivot %d key %q not above %q", i, key, bounds[i-1])
		}
		if lo != nil && cmp.Compare(key, lo) <= 0 {
			return fail("pivot %d key %q not above lower bound %q", i, key, lo)
		}
		if hi != nil && cmp.Compare(key, hi) >= 0 {
			return fail("pivot %d key %q not below upper bound %q", i, key, hi)
		}
		bounds = append(bounds, key)
	}
	bounds = append(bounds, hi)

	var children []NID
	for i := range n.pivots {
		p := &n.pivots[i]
		if n.isLeaf && p.ChildNID != NIDNil {
			return fail("leaf pivot %d points at %d", i, p.ChildNID)
		}
		if !n.isLeaf {
			if p.ChildNID == NIDNil {
				return fail("internal pivot %d has no child", i)
			}
			children = append(children, p.ChildNID)
		}
		for _, m := range p.MsgBuf.Msgs() {
			if bounds[i] != nil && cmp.Compare(m.Key, bounds[i]) < 0 {
				return fail("pivot %d holds %q below its bound %q", i, m.Key, bounds[i])
			}
			if bounds[i+1] != nil && cmp.Compare(m.Key, bounds[i+1]) >= 0 {
				return fail("pivot %d holds %q at or above its bound %q", i, m.Key, bounds[i+1])
			}
		}
	}
	if int64(n.Size()) != int64(t.sizeOf(n)) {
		return fail("size is %d, pivots add up to %d", n.Size(), t.sizeOf(n))
	}
	return children, bounds, nil
}

func (t *BufferTree) sizeOf(n *Node) int {
	size := nodeHeaderSize
	for i := range n.pivots {
		size += n.pivots[i].size()
	}
	return size
}
