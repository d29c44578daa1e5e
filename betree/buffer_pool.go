package betree

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// bufferPool is the node table: it holds the single in-memory instance of
// every resident node and pins the ones operations are using.
type bufferPool struct {
	mu    sync.Mutex
	nodes map[NID]*Node
	tree  *BufferTree
}

func newBufferPool(tree *BufferTree) *bufferPool {
	return &bufferPool{
		nodes: make(map[NID]*Node),
		tree:  tree,
	}
}

// fetch returns node nid pinned, loading it through the pager on a miss.
func (bp *bufferPool) fetch(nid NID) (*Node, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	// Check the table first
	if n, ok := bp.nodes[nid]; ok {
		n.pincnt++
		return n, nil
	}

	// Miss: read the block and decode it
	n, err := bp.tree.loadNode(nid)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch: failed to load node %d", nid)
	}
	n.pincnt = 1
	bp.nodes[nid] = n
	return n, nil
}

// insert registers a freshly allocated node, pinned once.
func (bp *bufferPool) insert(n *Node) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	n.pincnt = 1
	bp.nodes[n.selfNID] = n
}

func (bp *bufferPool) unpin(n *Node) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if n.pincnt > 0 {
		n.pincnt--
	}
}

// resident returns a node the caller already has pinned, without pinning
// it again.
func (bp *bufferPool) resident(nid NID) (*Node, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	n, ok := bp.nodes[nid]
	if !ok || n.pincnt == 0 {
		return nil, errors.AssertionFailedf("node %d is not pinned in the buffer pool", nid)
	}
	return n, nil
}

// pinAll pins and returns every resident node.
func (bp *bufferPool) pinAll() []*Node {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	out := make([]*Node, 0, len(bp.nodes))
	for _, n := range bp.nodes {
		n.pincnt++
		out = append(out, n)
	}
	return out
}

func (bp *bufferPool) unpinAll(nodes []*Node) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, n := range nodes {
		if n.pincnt > 0 {
			n.pincnt--
		}
	}
}

func (bp *bufferPool) len() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.nodes)
}

func (bp *bufferPool) memoryUsage() uint64 {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.memoryUsageLocked()
}

func (bp *bufferPool) memoryUsageLocked() uint64 {
	var total uint64
	for _, n := range bp.nodes {
		total += uint64(n.Size())
	}
	return total
}

// evictLRU drops least recently used nodes until the table fits in limit.
// Pinned nodes, nodes being flushed and nodes someone holds locked are
// skipped. Dirty victims are written back first.
func (bp *bufferPool) evictLRU(limit uint64) (int, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	usage := bp.memoryUsageLocked()
	if usage <= limit {
		return 0, nil
	}

	type candidate struct {
		n        *Node
		lastUsed int64
	}
	candidates := make([]candidate, 0, len(bp.nodes))
	for _, n := range bp.nodes {
		if n.pincnt > 0 {
			continue
		}
		candidates = append(candidates, candidate{n: n, lastUsed: n.LastUsedTimestamp().UnixNano()})
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		switch {
		case a.lastUsed < b.lastUsed:
			return -1
		case a.lastUsed > b.lastUsed:
			return 1
		}
		return 0
	})

	evicted := 0
	for _, c := range candidates {
		if usage <= limit {
			break
		}
		n := c.n
		if n.Flushing() || !n.TryWriteLock() {
			continue
		}
		if n.Modified() {
			if err := bp.tree.writeBack(n); err != nil {
				n.WriteUnlock()
				return evicted, errors.Wrapf(err, "evictLRU: failed to write back node %d", n.selfNID)
			}
		}
		delete(bp.nodes, n.selfNID)
		usage -= uint64(n.Size())
		n.WriteUnlock()
		evicted++
	}

	if evicted > 0 {
		bp.tree.stats.evictions.Add(uint64(evicted))
		bp.tree.logger.Debug("evicted nodes",
			zap.Int("count", evicted),
			zap.String("resident", humanize.Bytes(usage)),
			zap.String("limit", humanize.Bytes(limit)))
	}
	return evicted, nil
}
