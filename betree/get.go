package betree

// get looks key up starting at n, which the caller holds read-locked and
// pinned. Every lock taken on the way down is released before returning.
// The first message found on the way down is the newest for key.
func (n *Node) get(key []byte) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	path := Path{n.selfNID}
	last, err := n.lockPath(key, &path, lockRead, func(m *Node, i int) bool {
		m.touch()
		msg, ok := m.pivots[i].MsgBuf.Find(key)
		if !ok {
			return false
		}
		if msg.Type == MsgPut {
			value, found = clone(msg.Value), true
		}
		return true
	})
	if err != nil {
		return nil, false, err
	}
	last.ReadUnlock()
	n.tree.pool.unpin(last)
	return value, found, nil
}
