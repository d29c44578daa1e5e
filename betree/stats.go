package betree

import "sync/atomic"

type treeStats struct {
	puts              atomic.Uint64
	deletes           atomic.Uint64
	gets              atomic.Uint64
	pushDowns         atomic.Uint64
	deferredPushDowns atomic.Uint64
	msgBufSplits      atomic.Uint64
	nodeSplits        atomic.Uint64
	rootSplits        atomic.Uint64
	loads             atomic.Uint64
	writeBacks        atomic.Uint64
	evictions         atomic.Uint64
}

// Stats is a point-in-time copy of the tree's counters.
type Stats struct {
	Puts              uint64 `json:"puts"`
	Deletes           uint64 `json:"deletes"`
	Gets              uint64 `json:"gets"`
	PushDowns         uint64 `json:"push_downs"`
	DeferredPushDowns uint64 `json:"deferred_push_downs"`
	MsgBufSplits      uint64 `json:"msgbuf_splits"`
	NodeSplits        uint64 `json:"node_splits"`
	RootSplits        uint64 `json:"root_splits"`
	Loads             uint64 `json:"loads"`
	WriteBacks        uint64 `json:"write_backs"`
	Evictions         uint64 `json:"evictions"`
	ResidentNodes     int    `json:"resident_nodes"`
	ResidentBytes     uint64 `json:"resident_bytes"`
	Root              NID    `json:"root"`
}

func (t *BufferTree) Stats() Stats {
	return Stats{
		Puts:              t.stats.puts.Load(),
		Deletes:           t.stats.deletes.Load(),
		Gets:              t.stats.gets.Load(),
		PushDowns:         t.stats.pushDowns.Load(),
		DeferredPushDowns: t.stats.deferredPushDowns.Load(),
		MsgBufSplits:      t.stats.msgBufSplits.Load(),
		NodeSplits:        t.stats.nodeSplits.Load(),
		RootSplits:        t.stats.rootSplits.Load(),
		Loads:             t.stats.loads.Load(),
		WriteBacks:        t.stats.writeBacks.Load(),
		Evictions:         t.stats.evictions.Load(),
		ResidentNodes:     t.pool.len(),
		ResidentBytes:     t.pool.memoryUsage(),
		Root:              t.rootNID(),
	}
}
