package options

import (
	"bytes"
	"sync"

	"github.com/cockroachdb/errors"
)

// Comparator defines a total order over keys.
// Compare returns -1, 0 or +1 like bytes.Compare. Name is persisted in the
// tree's meta page so a file is never reopened under a different order.
type Comparator interface {
	Compare(a, b []byte) int
	Name() string
}

// BytewiseComparator orders keys lexicographically by their raw bytes.
type BytewiseComparator struct{}

func (BytewiseComparator) Compare(a, b []byte) int { return bytes.Compare(a, b) }

func (BytewiseComparator) Name() string { return "bytewise" }

var ErrUnknownComparator = errors.New("unknown comparator")

var (
	registryMu  sync.RWMutex
	comparators = map[string]Comparator{
		BytewiseComparator{}.Name(): BytewiseComparator{},
	}
)

// RegisterComparator makes cmp resolvable by name from JSON configs.
func RegisterComparator(cmp Comparator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	comparators[cmp.Name()] = cmp
}

func LookupComparator(name string) (Comparator, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	cmp, ok := comparators[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownComparator, "%q", name)
	}
	return cmp, nil
}
