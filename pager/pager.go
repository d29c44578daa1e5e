package pager

import "github.com/cockroachdb/errors"

// MetaPageID is reserved for the tree's meta page; AllocatePage never returns it.
const MetaPageID uint64 = 0

var (
	ErrPageNotFound = errors.New("pager: page not found")
	ErrClosed       = errors.New("pager: closed")
	ErrReadOnly     = errors.New("pager: opened read-only")
)

// Pager is the persistence abstraction under the node table. Pages are
// variable length: one page holds one serialized node block.
type Pager interface {
	ReadPage(pageID uint64) ([]byte, error)
	WritePage(pageID uint64, data []byte) error
	AllocatePage() (uint64, error)
	DeallocatePage(pageID uint64) error
	Sync() error
	Close() error
}
