package betree

// visitFunc is called on every node lock_path reaches, with the index of
// the pivot that routes key. Returning true ends the walk at that node.
type visitFunc func(n *Node, pivot int) bool

// lockPath walks from n, which the caller holds locked in mode and pinned,
// toward the leaf owning key, appending every node it locks to path.
//
// lockRead crabs hand over hand: the child's read lock is taken before the
// parent's is dropped, so at most two nodes are held at a time. The node
// the walk stops at is returned still locked and pinned; on error nothing
// is held.
//
// lockWrite keeps every node on path locked. It only descends through a
// pivot that needsDrain, draining it on the way via pushDownDuringLockPath,
// and stops at the first pivot that does not or whose child is busy. The
// caller releases path.
func (n *Node) lockPath(key []byte, path *Path, mode lockMode, visit visitFunc) (*Node, error) {
	t := n.tree
	cur := n

	for {
		i := cur.findPivot(key)
		if err := cur.checkRoute(i, key); err != nil {
			if mode == lockRead {
				cur.ReadUnlock()
				t.pool.unpin(cur)
				return nil, err
			}
			return cur, err
		}
		if visit != nil && visit(cur, i) {
			return cur, nil
		}
		if cur.isLeaf {
			return cur, nil
		}

		childNID := cur.pivots[i].ChildNID

		if mode == lockRead {
			child, err := t.pool.fetch(childNID)
			if err != nil {
				cur.ReadUnlock()
				t.pool.unpin(cur)
				return nil, err
			}
			child.ReadLock()
			cur.ReadUnlock()
			t.pool.unpin(cur)
			path.push(child.selfNID)
			cur = child
			continue
		}

		if !cur.needsDrain(i) {
			return cur, nil
		}
		child, err := t.pool.fetch(childNID)
		if err != nil {
			return cur, err
		}
		if !child.TryWriteLock() {
			t.pool.unpin(child)
			return cur, nil
		}
		path.push(child.selfNID)
		if err := cur.pushDownDuringLockPath(i, child); err != nil {
			return child, err
		}
		cur = child
	}
}

// unlockPath releases every node of a write path, deepest first.
func (t *BufferTree) unlockPath(path Path, mode lockMode) {
	for i := len(path) - 1; i >= 0; i-- {
		n, err := t.pool.resident(path[i])
		if err != nil {
			t.logger.DPanic("unlockPath: node not resident", zapNID(path[i]))
			continue
		}
		n.unlock(mode)
		t.pool.unpin(n)
	}
}
