package betree

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// flusher writes back nodes that have been dirty for longer than its
// interval. It never blocks on a node lock: busy nodes wait for the next
// tick.
type flusher struct {
	tree     *BufferTree
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func startFlusher(t *BufferTree, interval time.Duration) *flusher {
	ctx, cancel := context.WithCancel(context.Background())
	f := &flusher{tree: t, interval: interval, cancel: cancel}
	f.wg.Add(1)
	go f.run(ctx)
	return f
}

func (f *flusher) run(ctx context.Context) {
	defer f.wg.Done()
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			f.flushAged(now)
		}
	}
}

// flushAged makes one pass over the resident nodes.
func (f *flusher) flushAged(now time.Time) int {
	t := f.tree
	nodes := t.pool.pinAll()
	defer t.pool.unpinAll(nodes)

	written := 0
	for _, n := range nodes {
		if !n.Modified() || n.Flushing() || now.Sub(n.FirstWriteTimestamp()) < f.interval {
			continue
		}
		if !n.TryReadLock() {
			continue
		}
		err := t.writeBack(n)
		n.ReadUnlock()
		if err != nil {
			t.logger.Warn("background write back failed", zapNID(n.selfNID), zap.Error(err))
			continue
		}
		written++
	}
	return written
}

func (f *flusher) stop() {
	f.cancel()
	f.wg.Wait()
}
