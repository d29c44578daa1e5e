// Structure of the buffer tree
/*
Tree
 ├── Internal Node (pivots: child nid + pending msgbuf + left-most key)
 │      └── Child Internal Nodes ...
 │             └── Leaf Nodes (pivots: msgbuf segment + left-most key, no child)


- pivots[0] of every node has no key: it is unbounded below
- pivots[i] owns [pivots[i].key, pivots[i+1].key), the last one is unbounded above
- an internal pivot's msgbuf holds writes not yet pushed into its child
- a leaf pivot's msgbuf is the live message log for its key range
- nodes reference parents and children only by NID, resolved via the BufferTree
- new writes always land in the root; they move down when a buffer overflows

*/
package betree

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"FractalDB/options"
	"FractalDB/pager"
)

// NID identifies a node. It doubles as the node's page number in the pager.
type NID uint64

// NIDNil means "no parent" or "no child".
const NIDNil NID = 0

const (
	MaxKeyLen = 4096    // in bytes
	MaxValLen = 1 << 20 // in bytes
)

type lockMode int

const (
	lockRead lockMode = iota
	lockWrite
)

type Node struct {
	tree      *BufferTree
	selfNID   NID
	parentNID atomic.Uint64
	isLeaf    bool

	nodePageSize atomic.Int64 // serialized footprint, see recalcSize
	pivots       []Pivot
	rwlock       sync.RWMutex // guards pivots

	mu                  sync.Mutex // guards the cache metadata below, nothing else
	modified            bool
	flushing            bool
	firstWriteTimestamp time.Time
	lastUsedTimestamp   time.Time

	pincnt int // guarded by bufferPool.mu
}

// BufferTree owns the node table and the root pointer and drives
// Node operations for clients.
type BufferTree struct {
	opts   options.Options
	cmp    options.Comparator
	logger *zap.Logger
	pager  pager.Pager
	pool   *bufferPool
	treeID uuid.UUID

	rootMu sync.Mutex
	root   NID

	stats   treeStats
	closed  atomic.Bool
	flusher *flusher
}
