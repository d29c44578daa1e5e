package betree

func (n *Node) put(key, value []byte, path *Path) error {
	return n.write(NewPutMsg(key, value), path)
}

func (n *Node) del(key []byte, path *Path) error {
	return n.write(NewDelMsg(key), path)
}

// applyMsg appends msg to the buffer that owns its key. Caller holds the
// write lock. Size checks are left to maybePushDownOrSplit.
func (n *Node) applyMsg(msg Msg) error {
	i := n.findPivot(msg.Key)
	if err := n.checkRoute(i, msg.Key); err != nil {
		return err
	}
	n.pivots[i].MsgBuf.Append(msg)
	n.nodePageSize.Add(int64(msg.Size()))
	n.SetModify(true)
	n.touch()
	return nil
}

// write lands msg in n, the root, then settles every node on path bottom
// up. path is the write path lockPath built from n; all of it is locked.
func (n *Node) write(msg Msg, path *Path) error {
	if err := n.applyMsg(msg); err != nil {
		return err
	}
	return n.tree.settle(path)
}

// settle runs maybePushDownOrSplit on each node of path, deepest first.
// A root split prepends the new root to path, and that root is settled too.
func (t *BufferTree) settle(path *Path) error {
	nids := append(Path(nil), (*path)...)
	for i := len(nids) - 1; i >= 0; i-- {
		n, err := t.pool.resident(nids[i])
		if err != nil {
			return err
		}
		if err := n.maybePushDownOrSplit(path); err != nil {
			return err
		}
	}

	for top := nids[0]; (*path)[0] != top; {
		top = (*path)[0]
		root, err := t.pool.resident(top)
		if err != nil {
			return err
		}
		if err := root.maybePushDownOrSplit(path); err != nil {
			return err
		}
	}
	return nil
}

// maybePushDownOrSplit brings n back within its limits. n must be on path,
// write-locked, with path[0] the root.
func (n *Node) maybePushDownOrSplit(path *Path) error {
	opts := &n.tree.opts

	if n.isLeaf {
		for i := 0; i < len(n.pivots); i++ {
			if n.pivots[i].MsgBuf.Len() > opts.MaxNodeMsgCount {
				i += n.splitMsgBuf(i)
			}
		}
	} else if !opts.DeferPushDown {
		for {
			i := n.fullestPivot()
			if i < 0 || n.pivots[i].MsgBuf.Len() <= opts.MaxNodeMsgCount {
				break
			}
			if err := n.pushDownMsgBuf(i, path); err != nil {
				return err
			}
		}
		// each push empties a buffer, so this ends once n fits or is bare
		for n.overPageSize() {
			i := n.heaviestPivot()
			if i < 0 {
				break
			}
			if err := n.pushDownMsgBuf(i, path); err != nil {
				return err
			}
		}
	}

	if n.needsSplit() {
		return n.trySplitNode(path)
	}
	return nil
}

func (n *Node) fullestPivot() int {
	best, most := -1, 0
	for i := range n.pivots {
		if l := n.pivots[i].MsgBuf.Len(); l > most {
			best, most = i, l
		}
	}
	return best
}

// heaviestPivot is the pivot whose buffer takes the most bytes, or -1 when
// every buffer is empty.
func (n *Node) heaviestPivot() int {
	best, most := -1, 0
	for i := range n.pivots {
		if sz := n.pivots[i].MsgBuf.Size(); sz > most {
			best, most = i, sz
		}
	}
	return best
}
