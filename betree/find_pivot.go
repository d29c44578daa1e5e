package betree

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slices"
)

// findPivot returns the index of the pivot whose range owns key: the last
// pivot whose left-most key is <= key, or 0 when every bound is above it.
func (n *Node) findPivot(key []byte) int {
	cmp := n.tree.cmp
	i, found := slices.BinarySearchFunc(n.pivots[1:], key, func(p Pivot, k []byte) int {
		return cmp.Compare(p.LeftMostKey(), k)
	})
	if found {
		return i + 1
	}
	return i
}

// checkRoute verifies that key falls inside pivots[i]'s range.
func (n *Node) checkRoute(i int, key []byte) error {
	cmp := n.tree.cmp
	if i > 0 && cmp.Compare(n.pivots[i].LeftMostKey(), key) > 0 {
		return errors.AssertionFailedf("node %d: key %q below pivot %d bound %q",
			n.selfNID, key, i, n.pivots[i].LeftMostKey())
	}
	if i+1 < len(n.pivots) && cmp.Compare(key, n.pivots[i+1].LeftMostKey()) >= 0 {
		return errors.AssertionFailedf("node %d: key %q at or above pivot %d bound %q",
			n.selfNID, key, i+1, n.pivots[i+1].LeftMostKey())
	}
	return nil
}
