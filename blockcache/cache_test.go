package blockcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FractalDB/pager"
)

// countingPager records how often the cache had to fall through.
type countingPager struct {
	*pager.InMemoryPager
	reads int
}

func (p *countingPager) ReadPage(pageID uint64) ([]byte, error) {
	p.reads++
	return p.InMemoryPager.ReadPage(pageID)
}

func TestCachedPagerServesRepeatReads(t *testing.T) {
	inner := &countingPager{InMemoryPager: pager.NewInMemoryPager()}
	c, err := New(inner, 1<<20)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, inner.InMemoryPager.WritePage(7, []byte("block seven")))

	got, err := c.ReadPage(7)
	require.NoError(t, err)
	assert.Equal(t, []byte("block seven"), got)
	c.cache.Wait()

	got, err = c.ReadPage(7)
	require.NoError(t, err)
	assert.Equal(t, []byte("block seven"), got)
	assert.Equal(t, 1, inner.reads)
	assert.Equal(t, uint64(1), c.Stats().Hits)
}

func TestCachedPagerWriteReplacesCachedBlock(t *testing.T) {
	inner := &countingPager{InMemoryPager: pager.NewInMemoryPager()}
	c, err := New(inner, 1<<20)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.WritePage(3, []byte("v1")))
	require.NoError(t, c.WritePage(3, []byte("v2")))

	got, err := c.ReadPage(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
	assert.Zero(t, inner.reads)

	require.NoError(t, c.DeallocatePage(3))
	_, err = c.ReadPage(3)
	assert.ErrorIs(t, err, pager.ErrPageNotFound)
}

// interleavingPager runs onRead between reading a page and handing it back.
type interleavingPager struct {
	*pager.InMemoryPager
	onRead func()
}

func (p *interleavingPager) ReadPage(pageID uint64) ([]byte, error) {
	data, err := p.InMemoryPager.ReadPage(pageID)
	if f := p.onRead; f != nil {
		p.onRead = nil
		f()
	}
	return data, err
}

func TestCachedPagerMissDoesNotRecacheOverwrittenBlock(t *testing.T) {
	inner := &interleavingPager{InMemoryPager: pager.NewInMemoryPager()}
	c, err := New(inner, 1<<20)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, inner.InMemoryPager.WritePage(5, []byte("old")))
	inner.onRead = func() {
		require.NoError(t, c.WritePage(5, []byte("new")))
	}

	got, err := c.ReadPage(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), got, "the miss returns what it read")
	c.cache.Wait()

	got, err = c.ReadPage(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestCachedPagerRejectsZeroBudget(t *testing.T) {
	_, err := New(pager.NewInMemoryPager(), 0)
	assert.Error(t, err)
}
