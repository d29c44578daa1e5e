package betree

import "go.uber.org/zap"

// newRoot grows the tree by one level above old, the current root, which
// the caller holds write-locked at path[0]. The new root is returned
// write-locked and pinned and is prepended to path, so it is released with
// the rest of the operation.
func (t *BufferTree) newRoot(old *Node, path *Path) (*Node, error) {
	root, err := t.allocNode(false)
	if err != nil {
		return nil, err
	}
	root.createFirstPivot(old.selfNID)

	old.setParent(root.selfNID)
	old.SetModify(true)
	t.setRoot(root.selfNID)
	*path = append(Path{root.selfNID}, (*path)...)

	t.stats.rootSplits.Add(1)
	t.logger.Debug("new root", zapNID(root.selfNID), zap.Uint64("old", uint64(old.selfNID)))
	return root, nil
}

func (t *BufferTree) rootNID() NID {
	t.rootMu.Lock()
	defer t.rootMu.Unlock()
	return t.root
}

func (t *BufferTree) setRoot(nid NID) {
	t.rootMu.Lock()
	t.root = nid
	t.rootMu.Unlock()
}

// lockRoot locks the current root in mode and pins it. A root that turns
// out to have a parent once locked was replaced by a concurrent root
// split, so the lookup starts over.
func (t *BufferTree) lockRoot(mode lockMode) (*Node, error) {
	for {
		nid := t.rootNID()
		n, err := t.pool.fetch(nid)
		if err != nil {
			return nil, err
		}
		n.lock(mode)
		if n.parent() == NIDNil && t.rootNID() == nid {
			return n, nil
		}
		n.unlock(mode)
		t.pool.unpin(n)
	}
}
