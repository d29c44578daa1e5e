package betree

import (
	"github.com/cockroachdb/errors"

	"FractalDB/block"
	"FractalDB/options"
)

/*
Node block layout (little endian, inside a block frame):

	selfNID    u64
	parentNID  u64
	isLeaf     u8
	numPivots  u32
	per pivot:
		leftMostKey  u32 len + bytes (len 0 = unbounded)
		childNID     u64
		numMsgs      u32
		per msg:     type u8, key (u32 len + bytes), value (u32 len + bytes, puts only)
	checksum   u64 (added by block.Writer)
*/

// nodeHeaderSize counts the fixed fields plus the block checksum.
const nodeHeaderSize = 8 + 8 + 1 + 4 + block.ChecksumSize

// encodeNode serializes n. Caller holds at least the read lock.
func (n *Node) encodeNode() ([]byte, error) {
	w := block.NewWriter(n.WriteBackSize())
	w.PutUint64(uint64(n.selfNID))
	w.PutUint64(uint64(n.parent()))
	w.PutBool(n.isLeaf)
	w.PutUint32(uint32(len(n.pivots)))

	for i := range n.pivots {
		p := &n.pivots[i]
		w.PutBytes(p.leftMostKey)
		w.PutUint64(uint64(p.ChildNID))
		w.PutUint32(uint32(p.MsgBuf.Len()))
		for _, m := range p.MsgBuf.Msgs() {
			w.PutUint8(uint8(m.Type))
			w.PutBytes(m.Key)
			if m.Type == MsgPut {
				w.PutBytes(m.Value)
			}
		}
	}

	if w.Len()+block.ChecksumSize != n.WriteBackSize() {
		return nil, errors.AssertionFailedf("node %d: encoded %d bytes, size says %d",
			n.selfNID, w.Len()+block.ChecksumSize, n.WriteBackSize())
	}
	return w.Finish(), nil
}

// decodeNode rebuilds node nid from its block. The returned node has no
// tree attached; loadNode does that.
func decodeNode(data []byte, nid NID, cmp options.Comparator) (*Node, error) {
	r, err := block.NewReader(data)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptBlock, "decodeNode: node %d: %v", nid, err)
	}
	corrupt := func(format string, args ...interface{}) error {
		return errors.Wrapf(ErrCorruptBlock, "decodeNode: node %d: "+format, append([]interface{}{nid}, args...)...)
	}

	self, err := r.Uint64()
	if err != nil {
		return nil, corrupt("%v", err)
	}
	if NID(self) != nid {
		return nil, corrupt("block belongs to node %d", self)
	}
	parent, err := r.Uint64()
	if err != nil {
		return nil, corrupt("%v", err)
	}
	isLeaf, err := r.Bool()
	if err != nil {
		return nil, corrupt("%v", err)
	}
	numPivots, err := r.Uint32()
	if err != nil {
		return nil, corrupt("%v", err)
	}
	if numPivots == 0 {
		return nil, corrupt("no pivots")
	}

	n := &Node{selfNID: nid, isLeaf: isLeaf}
	n.setParent(NID(parent))
	n.pivots = make([]Pivot, 0, numPivots)

	for i := 0; i < int(numPivots); i++ {
		key, err := r.Bytes()
		if err != nil {
			return nil, corrupt("pivot %d key: %v", i, err)
		}
		child, err := r.Uint64()
		if err != nil {
			return nil, corrupt("pivot %d child: %v", i, err)
		}
		switch {
		case i == 0 && len(key) != 0:
			return nil, corrupt("first pivot has a key")
		case i > 0 && len(key) == 0:
			return nil, corrupt("pivot %d has no key", i)
		case i > 1 && cmp.Compare(n.pivots[i-1].leftMostKey, key) >= 0:
			return nil, corrupt("pivot %d out of order", i)
		case isLeaf && NID(child) != NIDNil:
			return nil, corrupt("leaf pivot %d has child %d", i, child)
		case !isLeaf && NID(child) == NIDNil:
			return nil, corrupt("internal pivot %d has no child", i)
		}

		numMsgs, err := r.Uint32()
		if err != nil {
			return nil, corrupt("pivot %d: %v", i, err)
		}
		mb := NewMsgBuf(cmp)
		for j := 0; j < int(numMsgs); j++ {
			m, err := decodeMsg(r)
			if err != nil {
				return nil, corrupt("pivot %d msg %d: %v", i, j, err)
			}
			mb.Append(m)
		}
		n.pivots = append(n.pivots, Pivot{ChildNID: NID(child), MsgBuf: mb, leftMostKey: key})
	}

	if r.Remaining() != 0 {
		return nil, corrupt("%d trailing bytes", r.Remaining())
	}
	n.recalcSize()
	return n, nil
}

func decodeMsg(r *block.Reader) (Msg, error) {
	t, err := r.Uint8()
	if err != nil {
		return Msg{}, err
	}
	key, err := r.Bytes()
	if err != nil {
		return Msg{}, err
	}
	switch MsgType(t) {
	case MsgPut:
		value, err := r.Bytes()
		if err != nil {
			return Msg{}, err
		}
		return Msg{Type: MsgPut, Key: key, Value: value}, nil
	case MsgDel:
		return Msg{Type: MsgDel, Key: key}, nil
	default:
		return Msg{}, errors.Newf("unknown message type %d", t)
	}
}
