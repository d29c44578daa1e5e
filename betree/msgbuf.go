package betree

import (
	"golang.org/x/exp/slices"

	"FractalDB/options"
)

// MsgBuf is an append-only log of messages in arrival order. A later
// message for a key shadows every earlier one for the same key.
type MsgBuf struct {
	cmp  options.Comparator
	msgs []Msg
	size int
}

func NewMsgBuf(cmp options.Comparator) *MsgBuf {
	return &MsgBuf{cmp: cmp}
}

func (b *MsgBuf) Append(m Msg) {
	b.msgs = append(b.msgs, m)
	b.size += m.Size()
}

func (b *MsgBuf) Len() int { return len(b.msgs) }

// Size is the summed Msg.Size of every buffered message.
func (b *MsgBuf) Size() int { return b.size }

// Msgs returns the messages oldest first. The slice is the buffer's own.
func (b *MsgBuf) Msgs() []Msg { return b.msgs }

func (b *MsgBuf) Clear() {
	clear(b.msgs)
	b.msgs = b.msgs[:0]
	b.size = 0
}

// Find returns the newest message for key.
func (b *MsgBuf) Find(key []byte) (Msg, bool) {
	for i := len(b.msgs) - 1; i >= 0; i-- {
		if b.cmp.Compare(b.msgs[i].Key, key) == 0 {
			return b.msgs[i], true
		}
	}
	return Msg{}, false
}

// SplitAt moves every message with key >= key into a new buffer and
// returns it. Both halves keep arrival order.
func (b *MsgBuf) SplitAt(key []byte) *MsgBuf {
	upper := NewMsgBuf(b.cmp)
	kept := b.msgs[:0]
	size := 0
	for _, m := range b.msgs {
		if b.cmp.Compare(m.Key, key) >= 0 {
			upper.Append(m)
			continue
		}
		kept = append(kept, m)
		size += m.Size()
	}
	clear(b.msgs[len(kept):])
	b.msgs = kept
	b.size = size
	return upper
}

// Partition splits the buffer at each of the ascending bounds. Result i
// holds keys in [bounds[i-1], bounds[i]), so there is one more result
// than there are bounds. The receiver is left untouched.
func (b *MsgBuf) Partition(bounds [][]byte) []*MsgBuf {
	parts := make([]*MsgBuf, len(bounds)+1)
	for i := range parts {
		parts[i] = NewMsgBuf(b.cmp)
	}
	for _, m := range b.msgs {
		i, found := slices.BinarySearchFunc(bounds, m.Key, b.cmp.Compare)
		if found {
			i++
		}
		parts[i].Append(m)
	}
	return parts
}

// keyGroup is one distinct key and the position of its newest message.
type keyGroup struct {
	key    []byte
	newest int
}

// groups returns the distinct keys in comparator order.
func (b *MsgBuf) groups() []keyGroup {
	idx := make([]int, len(b.msgs))
	for i := range idx {
		idx[i] = i
	}
	// stable, so positions stay ascending within one key
	slices.SortStableFunc(idx, func(x, y int) int {
		return b.cmp.Compare(b.msgs[x].Key, b.msgs[y].Key)
	})

	var out []keyGroup
	for _, i := range idx {
		if n := len(out); n > 0 && b.cmp.Compare(out[n-1].key, b.msgs[i].Key) == 0 {
			out[n-1].newest = i
			continue
		}
		out = append(out, keyGroup{key: b.msgs[i].Key, newest: i})
	}
	return out
}

// DistinctKeys returns every key that has a message here, ascending.
// Deleted keys are included.
func (b *MsgBuf) DistinctKeys() [][]byte {
	groups := b.groups()
	keys := make([][]byte, len(groups))
	for i, g := range groups {
		keys[i] = g.key
	}
	return keys
}

// LiveCount is the number of keys whose newest message is a put.
func (b *MsgBuf) LiveCount() int {
	live := 0
	for _, g := range b.groups() {
		if b.msgs[g.newest].Type == MsgPut {
			live++
		}
	}
	return live
}

// Compact keeps only the newest message per key, in key order. With
// dropDeletes the surviving tombstones go as well, which is only safe
// where nothing older sits below this buffer.
func (b *MsgBuf) Compact(dropDeletes bool) {
	groups := b.groups()
	msgs := make([]Msg, 0, len(groups))
	size := 0
	for _, g := range groups {
		m := b.msgs[g.newest]
		if dropDeletes && m.Type == MsgDel {
			continue
		}
		msgs = append(msgs, m)
		size += m.Size()
	}
	b.msgs = msgs
	b.size = size
}
