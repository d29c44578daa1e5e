package betree

import (
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// splitMsgBuf compacts an overflowing leaf segment and, if it is still too
// long, cuts it by key into segments of at most half the message limit.
// Returns how many pivots were inserted after i.
func (n *Node) splitMsgBuf(i int) int {
	t := n.tree
	mb := n.pivots[i].MsgBuf
	before := mb.Len()

	// nothing sits below a leaf, so tombstones can go
	mb.Compact(true)
	n.recalcSize()
	n.SetModify(true)
	t.stats.msgBufSplits.Add(1)

	limit := max(1, t.opts.MaxNodeMsgCount/2)
	if mb.Len() <= limit {
		t.logger.Debug("compact leaf segment",
			zapNID(n.selfNID), zap.Int("pivot", i), zap.Int("before", before), zap.Int("after", mb.Len()))
		return 0
	}

	// one message per key after compaction
	keys := mb.DistinctKeys()
	var bounds [][]byte
	for j := limit; j < len(keys); j += limit {
		bounds = append(bounds, keys[j])
	}
	parts := mb.Partition(bounds)

	added := make([]Pivot, 0, len(bounds))
	for j, part := range parts[1:] {
		added = append(added, newPivot(NIDNil, part, bounds[j]))
	}
	n.pivots[i].MsgBuf = parts[0]
	n.pivots = slices.Insert(n.pivots, i+1, added...)
	n.recalcSize()

	t.logger.Debug("split leaf segment",
		zapNID(n.selfNID), zap.Int("pivot", i), zap.Int("before", before), zap.Int("segments", len(parts)))
	return len(added)
}
