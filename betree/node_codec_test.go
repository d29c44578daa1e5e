package betree

import (
	stderrors "errors"
	"testing"

	"github.com/google/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeCodecRoundTrip(t *testing.T) {
	tree := openTestTree(t, testOptions(t, 16, 64))
	n := handNode(tree, 42, false, "", "m")
	n.setParent(7)
	n.pivots[0].MsgBuf.Append(putMsg("a", "1"))
	n.pivots[0].MsgBuf.Append(delMsg("b"))
	n.pivots[1].MsgBuf.Append(NewPutMsg([]byte("x"), nil))
	n.recalcSize()

	data, err := n.encodeNode()
	require.NoError(t, err)
	assert.Equal(t, n.WriteBackSize(), len(data))

	got, err := decodeNode(data, 42, tree.cmp)
	require.NoError(t, err)
	assert.Equal(t, NID(42), got.selfNID)
	assert.Equal(t, NID(7), got.parent())
	assert.False(t, got.isLeaf)
	assert.Equal(t, n.Size(), got.Size())
	require.Len(t, got.pivots, 2)

	assert.Equal(t, NID(100), got.pivots[0].ChildNID)
	assert.False(t, got.pivots[0].hasKey())
	assert.Equal(t, []string{"a", "b"}, msgKeys(got.pivots[0].MsgBuf))
	m, ok := got.pivots[0].MsgBuf.Find([]byte("b"))
	require.True(t, ok)
	assert.Equal(t, MsgDel, m.Type)

	assert.Equal(t, NID(101), got.pivots[1].ChildNID)
	assert.Equal(t, []byte("m"), got.pivots[1].LeftMostKey())
	m, ok = got.pivots[1].MsgBuf.Find([]byte("x"))
	require.True(t, ok)
	assert.Equal(t, MsgPut, m.Type)
	assert.Empty(t, m.Value)
}

func TestDecodeNodeRejectsCorruption(t *testing.T) {
	tree := openTestTree(t, testOptions(t, 16, 64))
	n := handNode(tree, 42, true, "", "m")
	n.pivots[1].MsgBuf.Append(putMsg("q", "v"))
	n.recalcSize()
	data, err := n.encodeNode()
	require.NoError(t, err)

	_, err = decodeNode(data, 43, tree.cmp)
	assert.ErrorIs(t, err, ErrCorruptBlock, "block for another node")

	flipped := append([]byte(nil), data...)
	flipped[10] ^= 0xff
	_, err = decodeNode(flipped, 42, tree.cmp)
	assert.True(t, stderrors.Is(err, ErrCorruptBlock), "checksum")
	assert.ErrorContains(t, err, "checksum mismatch")

	_, err = decodeNode(data[:len(data)-3], 42, tree.cmp)
	assert.ErrorIs(t, err, ErrCorruptBlock, "truncated")
}

func TestDecodeMetaRejectsDamage(t *testing.T) {
	good := encodeMeta(meta{treeID: uuid.New(), root: 1, comparator: "bytewise"})
	m, err := decodeMeta(good)
	require.NoError(t, err)
	assert.Equal(t, NID(1), m.root)

	_, err = decodeMeta([]byte{1, 2, 3})
	assert.True(t, stderrors.Is(err, ErrBadMeta), "short page")

	flipped := append([]byte(nil), good...)
	flipped[0] ^= 0xff
	_, err = decodeMeta(flipped)
	assert.ErrorIs(t, err, ErrBadMeta, "checksum")

	noRoot := encodeMeta(meta{treeID: uuid.New(), root: NIDNil, comparator: "bytewise"})
	_, err = decodeMeta(noRoot)
	assert.ErrorIs(t, err, ErrBadMeta, "root")
	assert.ErrorContains(t, err, "no root")
}
