package betree

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// trySplitNode splits n until it and every sibling it sheds are within
// limits. Each sibling is announced to the parent through addPivot; when n
// is the root the tree grows a new root first. The parent's own overflow is
// handled when the caller settles it.
func (n *Node) trySplitNode(path *Path) error {
	t := n.tree

	parent, err := n.splitParent(path)
	if err != nil {
		return err
	}

	var created []*Node
	defer func() {
		for _, s := range created {
			s.WriteUnlock()
			t.pool.unpin(s)
		}
	}()

	pending := []*Node{n}
	for len(pending) > 0 {
		m := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if !m.needsSplit() {
			continue
		}

		var (
			sep     []byte
			sibling *Node
		)
		if m.isLeaf {
			sep, sibling, err = m.splitLeaf(parent.selfNID)
		} else {
			sep, sibling, err = m.splitInternal(parent.selfNID, *path)
		}
		if err != nil {
			return err
		}
		if sibling == nil {
			// a single key bigger than the page limit, nothing to split on
			continue
		}
		created = append(created, sibling)

		if err := parent.addPivot(sep, m.selfNID, sibling.selfNID); err != nil {
			return err
		}
		t.stats.nodeSplits.Add(1)
		t.logger.Debug("split node",
			zapNID(m.selfNID), zap.Uint64("sibling", uint64(sibling.selfNID)),
			zap.Bool("leaf", m.isLeaf), zap.ByteString("sep", sep))

		pending = append(pending, m, sibling)
	}
	return nil
}

// splitParent returns the node n's siblings get announced to: the node
// before n on path, or a brand new root when n is the root.
func (n *Node) splitParent(path *Path) (*Node, error) {
	pos := path.indexOf(n.selfNID)
	switch {
	case pos < 0:
		return nil, errors.AssertionFailedf("trySplitNode: node %d not on path %v", n.selfNID, *path)
	case pos > 0:
		return n.tree.pool.resident((*path)[pos-1])
	case n.parent() != NIDNil:
		return nil, errors.AssertionFailedf("trySplitNode: path starts at node %d which is not the root", n.selfNID)
	default:
		return n.tree.newRoot(n, path)
	}
}

// splitLeaf moves the upper half of n's distinct keys into a new leaf. The
// segment holding the middle key is cut in two so both halves stay
// ordered. Returns a nil sibling when n holds fewer than two keys.
func (n *Node) splitLeaf(parent NID) ([]byte, *Node, error) {
	t := n.tree
	keys := n.distinctKeys()
	if len(keys) < 2 {
		return nil, nil, nil
	}
	sep := clone(keys[len(keys)/2])

	i := n.findPivot(sep)
	var right []Pivot
	if i > 0 && t.cmp.Compare(n.pivots[i].LeftMostKey(), sep) == 0 {
		right = append(right, n.pivots[i:]...)
		clear(n.pivots[i:])
		n.pivots = n.pivots[:i]
	} else {
		upper := n.pivots[i].MsgBuf.SplitAt(sep)
		right = append(right, newPivot(NIDNil, upper, nil))
		right = append(right, n.pivots[i+1:]...)
		clear(n.pivots[i+1:])
		n.pivots = n.pivots[:i+1]
	}
	// the separator lives in the parent now
	right[0].leftMostKey = nil

	sibling, err := t.allocNode(true)
	if err != nil {
		return nil, nil, err
	}
	sibling.setParent(parent)
	sibling.pivots = right
	sibling.recalcSize()

	n.recalcSize()
	n.SetModify(true)
	return sep, sibling, nil
}

// splitInternal moves the upper half of n's pivots into a new internal
// node and repoints the moved children at it.
func (n *Node) splitInternal(parent NID, path Path) ([]byte, *Node, error) {
	t := n.tree
	if len(n.pivots) < 2 {
		return nil, nil, nil
	}
	m := len(n.pivots) / 2
	sep := clone(n.pivots[m].LeftMostKey())

	right := append([]Pivot(nil), n.pivots[m:]...)
	right[0].leftMostKey = nil
	clear(n.pivots[m:])
	n.pivots = n.pivots[:m]

	sibling, err := t.allocNode(false)
	if err != nil {
		return nil, nil, err
	}
	sibling.setParent(parent)
	sibling.pivots = right
	sibling.recalcSize()

	n.recalcSize()
	n.SetModify(true)

	for i := range right {
		if err := t.reparent(right[i].ChildNID, sibling.selfNID, path); err != nil {
			return nil, nil, errors.Wrapf(err, "splitInternal: node %d", n.selfNID)
		}
	}
	return sep, sibling, nil
}

// reparent points child at its new parent. Children this operation
// already holds are updated in place; others are locked for the store.
func (t *BufferTree) reparent(child, parent NID, path Path) error {
	if path.contains(child) {
		c, err := t.pool.resident(child)
		if err != nil {
			return err
		}
		c.setParent(parent)
		c.SetModify(true)
		return nil
	}

	c, err := t.pool.fetch(child)
	if err != nil {
		return errors.Wrapf(err, "reparent: failed to fetch child %d", child)
	}
	c.WriteLock()
	c.setParent(parent)
	c.SetModify(true)
	c.WriteUnlock()
	t.pool.unpin(c)
	return nil
}
