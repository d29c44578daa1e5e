package betree

type MsgType uint8

const (
	MsgPut MsgType = iota + 1
	MsgDel
)

func (t MsgType) String() string {
	switch t {
	case MsgPut:
		return "put"
	case MsgDel:
		return "del"
	default:
		return "unknown"
	}
}

// Msg is one buffered mutation. It owns its key and value.
type Msg struct {
	Type  MsgType
	Key   []byte
	Value []byte // only for MsgPut
}

func NewPutMsg(key, value []byte) Msg {
	return Msg{Type: MsgPut, Key: clone(key), Value: clone(value)}
}

func NewDelMsg(key []byte) Msg {
	return Msg{Type: MsgDel, Key: clone(key)}
}

// Size is the number of bytes the message takes inside a node block.
func (m Msg) Size() int {
	size := 1 + 4 + len(m.Key)
	if m.Type == MsgPut {
		size += 4 + len(m.Value)
	}
	return size
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}
