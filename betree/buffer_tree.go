package betree

import (
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"FractalDB/options"
	"FractalDB/pager"
)

// Open loads the tree stored in p, or starts an empty one when p has no
// meta page yet.
func Open(p pager.Pager, opts *options.Options) (*BufferTree, error) {
	if opts == nil {
		d := options.Default()
		opts = &d
	}
	o := *opts
	if err := o.Normalize(); err != nil {
		return nil, errors.Wrap(err, "open: options")
	}
	if err := o.Validate(); err != nil {
		return nil, errors.Wrap(err, "open: options")
	}

	t := &BufferTree{
		opts:   o,
		cmp:    o.Comparator,
		logger: o.Logger.Named("betree"),
		pager:  p,
	}
	t.pool = newBufferPool(t)

	data, err := p.ReadPage(pager.MetaPageID)
	switch {
	case errors.Is(err, pager.ErrPageNotFound):
		if err := t.initEmpty(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, errors.Wrap(err, "open: failed to read meta page")
	default:
		m, err := decodeMeta(data)
		if err != nil {
			return nil, err
		}
		if m.comparator != t.cmp.Name() {
			return nil, errors.Wrapf(ErrComparatorMismatch, "tree uses %q, options use %q", m.comparator, t.cmp.Name())
		}
		t.treeID = m.treeID
		t.root = m.root
	}

	if o.FlushIntervalMS > 0 {
		t.flusher = startFlusher(t, o.FlushInterval())
	}

	t.logger.Info("opened buffer tree",
		zap.String("id", t.treeID.String()),
		zapNID(t.root),
		zap.String("comparator", t.cmp.Name()),
		zap.Int("max_node_child_number", o.MaxNodeChildNumber),
		zap.Int("max_node_msg_count", o.MaxNodeMsgCount),
		zap.String("cache_limited_memory", humanize.IBytes(o.CacheLimitedMemory)),
		zap.Bool("defer_push_down", o.DeferPushDown))
	return t, nil
}

// initEmpty creates the first root, an empty leaf, and the meta page.
func (t *BufferTree) initEmpty() error {
	t.treeID = uuid.New()
	root, err := t.allocNode(true)
	if err != nil {
		return errors.Wrap(err, "open: failed to allocate root")
	}
	root.createFirstPivot(NIDNil)
	t.root = root.selfNID
	root.WriteUnlock()
	t.pool.unpin(root)
	return t.saveMeta()
}

func (t *BufferTree) Put(key, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := checkValue(value); err != nil {
		return err
	}
	t.stats.puts.Add(1)
	return t.write(NewPutMsg(key, value))
}

func (t *BufferTree) Delete(key []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	t.stats.deletes.Add(1)
	return t.write(NewDelMsg(key))
}

// Get returns a copy of the newest value stored for key.
func (t *BufferTree) Get(key []byte) ([]byte, bool, error) {
	if t.closed.Load() {
		return nil, false, ErrClosed
	}
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	t.stats.gets.Add(1)

	root, err := t.lockRoot(lockRead)
	if err != nil {
		return nil, false, err
	}
	value, found, err := root.get(key)
	if err != nil {
		return nil, false, err
	}
	t.maybeEvict()
	return value, found, nil
}

func (t *BufferTree) write(msg Msg) error {
	if t.closed.Load() {
		return ErrClosed
	}

	// The root write lock serializes writers, and the whole path stays
	// locked until settle returns because any node on it may split into its
	// parent. Readers still crab one node at a time below the root.
	root, err := t.lockRoot(lockWrite)
	if err != nil {
		return err
	}
	path := Path{root.selfNID}
	_, err = root.lockPath(msg.Key, &path, lockWrite, nil)
	if err == nil {
		err = root.write(msg, &path)
	}
	t.unlockPath(path, lockWrite)
	if err != nil {
		return err
	}

	t.maybeEvict()
	return nil
}

// allocNode creates an empty node with a fresh id. It comes back
// write-locked, pinned and dirty; the caller fills in its pivots.
func (t *BufferTree) allocNode(isLeaf bool) (*Node, error) {
	id, err := t.pager.AllocatePage()
	if err != nil {
		return nil, errors.Wrap(err, "allocNode: failed to allocate page")
	}
	n := newNode(t, NID(id), isLeaf)
	n.WriteLock()
	n.SetModify(true)
	n.touch()
	n.recalcSize()
	t.pool.insert(n)
	return n, nil
}

// loadNode reads node nid through the pager. Called by the pool with its
// mutex held.
func (t *BufferTree) loadNode(nid NID) (*Node, error) {
	data, err := t.pager.ReadPage(uint64(nid))
	if err != nil {
		return nil, err
	}
	n, err := decodeNode(data, nid, t.cmp)
	if err != nil {
		return nil, err
	}
	n.tree = t
	n.touch()
	t.stats.loads.Add(1)
	t.logger.Debug("loaded node", zapNID(nid), zap.String("size", humanize.Bytes(uint64(len(data)))))
	return n, nil
}

// writeBack persists n. Caller holds n's lock in either mode. A failed
// write leaves n dirty so it is retried later.
func (t *BufferTree) writeBack(n *Node) error {
	n.SetFlushing(true)
	defer n.SetFlushing(false)

	data, err := n.encodeNode()
	if err != nil {
		return err
	}
	n.SetModify(false)
	if err := t.pager.WritePage(uint64(n.selfNID), data); err != nil {
		n.SetModify(true)
		return errors.Wrapf(err, "writeBack: failed to write node %d", n.selfNID)
	}
	t.stats.writeBacks.Add(1)
	t.logger.Debug("wrote back node", zapNID(n.selfNID), zap.String("size", humanize.Bytes(uint64(len(data)))))
	return nil
}

func (t *BufferTree) maybeEvict() {
	if _, err := t.pool.evictLRU(t.opts.CacheLimitedMemory); err != nil {
		t.logger.Warn("eviction failed", zap.Error(err))
	}
}

// Flush writes back every dirty node and the meta page, then syncs.
func (t *BufferTree) Flush() error {
	if t.closed.Load() {
		return ErrClosed
	}
	return t.flush()
}

func (t *BufferTree) flush() error {
	nodes := t.pool.pinAll()
	defer t.pool.unpinAll(nodes)

	for _, n := range nodes {
		if !n.Modified() {
			continue
		}
		n.ReadLock()
		err := t.writeBack(n)
		n.ReadUnlock()
		if err != nil {
			return errors.Wrap(err, "flush")
		}
	}
	if err := t.saveMeta(); err != nil {
		return err
	}
	return errors.Wrap(t.pager.Sync(), "flush: sync")
}

// Close stops the flusher, flushes and closes the pager. Closing twice is
// a no-op.
func (t *BufferTree) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	if t.flusher != nil {
		t.flusher.stop()
	}
	err := t.flush()
	err = errors.CombineErrors(err, t.pager.Close())
	t.logger.Info("closed buffer tree", zap.String("id", t.treeID.String()), zap.Error(err))
	return err
}

func (t *BufferTree) ID() uuid.UUID { return t.treeID }

func zapNID(nid NID) zap.Field { return zap.Uint64("nid", uint64(nid)) }
