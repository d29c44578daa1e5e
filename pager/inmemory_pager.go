package pager

import (
	"sync"

	"github.com/cockroachdb/errors"
)

type InMemoryPager struct {
	pages    map[uint64][]byte
	nextPage uint64
	mu       sync.RWMutex
	closed   bool
}

func NewInMemoryPager() *InMemoryPager {
	return &InMemoryPager{
		pages:    make(map[uint64][]byte),
		nextPage: 1,
	}
}

func (p *InMemoryPager) ReadPage(pageID uint64) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	data, ok := p.pages[pageID]
	if !ok {
		return nil, errors.Wrapf(ErrPageNotFound, "page %d", pageID)
	}

	// Return a copy so the caller cannot modify internal state directly
	// without calling WritePage
	return append([]byte(nil), data...), nil
}

func (p *InMemoryPager) WritePage(pageID uint64, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.pages[pageID] = append([]byte(nil), data...)
	if pageID >= p.nextPage {
		p.nextPage = pageID + 1
	}
	return nil
}

func (p *InMemoryPager) AllocatePage() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrClosed
	}

	id := p.nextPage
	p.nextPage++
	return id, nil
}

func (p *InMemoryPager) DeallocatePage(pageID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	delete(p.pages, pageID)
	return nil
}

func (p *InMemoryPager) Sync() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}
	return nil
}

func (p *InMemoryPager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	// This helps catch bugs where you might try to access the tree after closing it.
	p.pages = nil
	p.closed = true
	return nil
}

func (p *InMemoryPager) TotalPages() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextPage
}
