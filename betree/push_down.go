package betree

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// pushDownMsgBuf moves every message buffered in pivots[i] into the child
// it points at, oldest first, then lets the child settle. n is write-locked
// and on path. A child that is already on path is locked by this operation
// and used as is; any other child is locked here, blocking if needed.
func (n *Node) pushDownMsgBuf(i int, path *Path) error {
	t := n.tree
	if n.isLeaf {
		return errors.AssertionFailedf("pushDownMsgBuf: node %d is a leaf", n.selfNID)
	}

	pos := path.indexOf(n.selfNID)
	if pos < 0 {
		return errors.AssertionFailedf("pushDownMsgBuf: node %d not on path %v", n.selfNID, *path)
	}

	childNID := n.pivots[i].ChildNID
	var (
		child *Node
		chain *Path
		err   error
	)
	if path.contains(childNID) {
		child, err = t.pool.resident(childNID)
		if err != nil {
			return err
		}
		chain = path
	} else {
		child, err = t.pool.fetch(childNID)
		if err != nil {
			return errors.Wrapf(err, "pushDownMsgBuf: failed to fetch child %d", childNID)
		}
		child.WriteLock()
		defer func() {
			child.WriteUnlock()
			t.pool.unpin(child)
		}()
		sub := path.upTo(pos)
		sub.push(childNID)
		chain = &sub
	}

	count, err := n.moveMsgBuf(i, child)
	if err != nil {
		return err
	}
	t.stats.pushDowns.Add(1)
	t.logger.Debug("push down",
		zapNID(n.selfNID), zap.Uint64("child", uint64(childNID)), zap.Int("msgs", count))

	return child.maybePushDownOrSplit(chain)
}

// pushDownDuringLockPath drains pivots[i] into child, which the write walk
// has just taken with TryWriteLock. The child is settled later with the
// rest of the path.
func (n *Node) pushDownDuringLockPath(i int, child *Node) error {
	count, err := n.moveMsgBuf(i, child)
	if err != nil {
		return err
	}
	n.tree.stats.deferredPushDowns.Add(1)
	n.tree.logger.Debug("push down during lock path",
		zapNID(n.selfNID), zap.Uint64("child", uint64(child.selfNID)), zap.Int("msgs", count))
	return nil
}

// moveMsgBuf applies pivots[i]'s messages to child in arrival order and
// clears the buffer once all of them are in.
func (n *Node) moveMsgBuf(i int, child *Node) (int, error) {
	mb := n.pivots[i].MsgBuf
	count := mb.Len()
	for _, m := range mb.Msgs() {
		if err := child.applyMsg(m); err != nil {
			return 0, errors.Wrapf(err, "push down into node %d", child.selfNID)
		}
	}
	mb.Clear()
	n.recalcSize()
	n.SetModify(true)
	return count, nil
}
