package betree

import "github.com/cockroachdb/errors"

// Pivot is one routing slot of a node. Internal pivots point at a child
// and buffer the writes headed there; leaf pivots have no child and their
// buffer is the data itself.
type Pivot struct {
	ChildNID    NID
	MsgBuf      *MsgBuf
	leftMostKey []byte
}

func newPivot(child NID, mb *MsgBuf, leftMostKey []byte) Pivot {
	return Pivot{ChildNID: child, MsgBuf: mb, leftMostKey: clone(leftMostKey)}
}

func (p *Pivot) hasKey() bool { return len(p.leftMostKey) > 0 }

// LeftMostKey is the inclusive lower bound of the pivot. Reading it off a
// node's first pivot, which has no bound, is a programming error.
func (p *Pivot) LeftMostKey() []byte {
	if !p.hasKey() {
		panic(errors.AssertionFailedf("pivot left-most key read before it was set"))
	}
	return p.leftMostKey
}

func (p *Pivot) SetLeftMostKey(key []byte) {
	p.leftMostKey = clone(key)
}

// size is what the pivot adds to the node block, see encodeNode.
func (p *Pivot) size() int {
	return 4 + len(p.leftMostKey) + 8 + 4 + p.MsgBuf.Size()
}
