// Package blockcache keeps recently read node blocks in a ristretto cache in
// front of a pager.
package blockcache

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
)

// Pager is the subset of pager.Pager the cache decorates.
type Pager interface {
	ReadPage(pageID uint64) ([]byte, error)
	WritePage(pageID uint64, data []byte) error
	AllocatePage() (uint64, error)
	DeallocatePage(pageID uint64) error
	Sync() error
	Close() error
}

type Stats struct {
	Hits   uint64
	Misses uint64
	Ratio  float64
	Cost   uint64
}

// CachedPager serves ReadPage from the cache when it can. Writes go to the
// inner pager first; the cached copy is replaced before WritePage returns so
// a later read never sees an older block.
//
// Every write or deallocation bumps the page's version. A read miss only
// caches what it read if the version did not move meanwhile, and cache
// updates are issued under mu so ristretto sees them in version order.
type CachedPager struct {
	inner Pager
	cache *ristretto.Cache[uint64, []byte]

	mu       sync.Mutex
	versions map[uint64]uint64
}

// New wraps inner with a cache bounded to maxBytes of block data.
func New(inner Pager, maxBytes int64) (*CachedPager, error) {
	if maxBytes <= 0 {
		return nil, errors.Newf("blockcache: max bytes must be positive, got %d", maxBytes)
	}

	// ~1KiB average block, 10 counters per expected item
	counters := maxBytes / 1024 * 10
	if counters < 1000 {
		counters = 1000
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []byte]{
		NumCounters:        counters,
		MaxCost:            maxBytes,
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "blockcache: create ristretto cache")
	}

	return &CachedPager{inner: inner, cache: cache, versions: make(map[uint64]uint64)}, nil
}

func (c *CachedPager) ReadPage(pageID uint64) ([]byte, error) {
	if data, ok := c.cache.Get(pageID); ok {
		return append([]byte(nil), data...), nil
	}

	c.mu.Lock()
	version := c.versions[pageID]
	c.mu.Unlock()

	data, err := c.inner.ReadPage(pageID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.versions[pageID] == version {
		c.cache.Set(pageID, append([]byte(nil), data...), int64(len(data)))
	}
	c.mu.Unlock()
	return data, nil
}

func (c *CachedPager) WritePage(pageID uint64, data []byte) error {
	if err := c.inner.WritePage(pageID, data); err != nil {
		c.invalidate(pageID)
		return err
	}
	c.mu.Lock()
	c.versions[pageID]++
	c.cache.Del(pageID)
	c.cache.Set(pageID, append([]byte(nil), data...), int64(len(data)))
	c.mu.Unlock()
	c.cache.Wait()
	return nil
}

func (c *CachedPager) AllocatePage() (uint64, error) {
	return c.inner.AllocatePage()
}

func (c *CachedPager) DeallocatePage(pageID uint64) error {
	c.invalidate(pageID)
	return c.inner.DeallocatePage(pageID)
}

func (c *CachedPager) invalidate(pageID uint64) {
	c.mu.Lock()
	c.versions[pageID]++
	c.cache.Del(pageID)
	c.mu.Unlock()
	c.cache.Wait()
}

func (c *CachedPager) Sync() error {
	return c.inner.Sync()
}

func (c *CachedPager) Close() error {
	c.cache.Close()
	return c.inner.Close()
}

func (c *CachedPager) Stats() Stats {
	m := c.cache.Metrics
	return Stats{
		Hits:   m.Hits(),
		Misses: m.Misses(),
		Ratio:  m.Ratio(),
		Cost:   m.CostAdded() - m.CostEvicted(),
	}
}
