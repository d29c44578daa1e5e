package betree

import "time"

// Cache metadata lives behind its own mutex so the flusher and the
// evictor can read it while the node's rwlock is held by someone else.

func (n *Node) Modified() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.modified
}

// SetModify stamps the first-write time on the clean to dirty edge only.
func (n *Node) SetModify(modified bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if modified && !n.modified {
		n.firstWriteTimestamp = time.Now()
	}
	n.modified = modified
}

func (n *Node) Flushing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.flushing
}

func (n *Node) SetFlushing(flushing bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.flushing = flushing
}

func (n *Node) FirstWriteTimestamp() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.firstWriteTimestamp
}

func (n *Node) LastUsedTimestamp() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastUsedTimestamp
}

func (n *Node) touch() {
	n.mu.Lock()
	n.lastUsedTimestamp = time.Now()
	n.mu.Unlock()
}

func (n *Node) ReadLock()          { n.rwlock.RLock() }
func (n *Node) ReadUnlock()        { n.rwlock.RUnlock() }
func (n *Node) WriteLock()         { n.rwlock.Lock() }
func (n *Node) WriteUnlock()       { n.rwlock.Unlock() }
func (n *Node) TryReadLock() bool  { return n.rwlock.TryRLock() }
func (n *Node) TryWriteLock() bool { return n.rwlock.TryLock() }

func (n *Node) lock(mode lockMode) {
	if mode == lockWrite {
		n.WriteLock()
		return
	}
	n.ReadLock()
}

func (n *Node) unlock(mode lockMode) {
	if mode == lockWrite {
		n.WriteUnlock()
		return
	}
	n.ReadUnlock()
}
