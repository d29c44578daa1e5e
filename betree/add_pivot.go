package betree

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slices"
)

// addPivot records that child split off childSibling at key. The new
// pivot goes right after child's, and buffered messages at or above key
// follow it so they keep heading to the node that now owns them.
func (n *Node) addPivot(key []byte, child, childSibling NID) error {
	cmp := n.tree.cmp

	idx := slices.IndexFunc(n.pivots, func(p Pivot) bool { return p.ChildNID == child })
	if idx < 0 {
		return errors.AssertionFailedf("addPivot: node %d has no pivot for child %d", n.selfNID, child)
	}
	if idx > 0 && cmp.Compare(n.pivots[idx].LeftMostKey(), key) >= 0 {
		return errors.AssertionFailedf("addPivot: node %d: key %q not above pivot %d bound %q",
			n.selfNID, key, idx, n.pivots[idx].LeftMostKey())
	}
	if idx+1 < len(n.pivots) && cmp.Compare(key, n.pivots[idx+1].LeftMostKey()) >= 0 {
		return errors.AssertionFailedf("addPivot: node %d: key %q not below pivot %d bound %q",
			n.selfNID, key, idx+1, n.pivots[idx+1].LeftMostKey())
	}

	upper := n.pivots[idx].MsgBuf.SplitAt(key)
	n.pivots = slices.Insert(n.pivots, idx+1, newPivot(childSibling, upper, key))
	n.recalcSize()
	n.SetModify(true)
	return nil
}
