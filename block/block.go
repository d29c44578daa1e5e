// Package block frames serialized nodes.
/*
Block layout (little endian):

	body     : whatever the writer appended
	checksum : xxhash64(body), 8 bytes

Fields inside the body are fixed-width integers and u32-length-prefixed byte
strings. The block carries no schema; reader and writer must agree on order.
*/
package block

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

const ChecksumSize = 8

var (
	ErrChecksumMismatch = errors.New("block: checksum mismatch")
	ErrShortBlock       = errors.New("block: unexpected end of block")
)

// Writer accumulates a block body.
type Writer struct {
	buf []byte
}

func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint+ChecksumSize)}
}

func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutBool(v bool) {
	if v {
		w.PutUint8(1)
		return
	}
	w.PutUint8(0)
}

func (w *Writer) PutUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) PutUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) PutBytes(b []byte) {
	w.PutUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// Len is the body length written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Finish seals the block with its checksum and returns it.
func (w *Writer) Finish() []byte {
	sum := xxhash.Sum64(w.buf)
	return binary.LittleEndian.AppendUint64(w.buf, sum)
}

// Reader walks a sealed block.
type Reader struct {
	body   []byte
	offset int
}

func NewReader(data []byte) (*Reader, error) {
	if len(data) < ChecksumSize {
		return nil, errors.Wrapf(ErrShortBlock, "block of %d bytes", len(data))
	}
	body := data[:len(data)-ChecksumSize]
	want := binary.LittleEndian.Uint64(data[len(body):])
	if got := xxhash.Sum64(body); got != want {
		return nil, errors.Wrapf(ErrChecksumMismatch, "want %016x, got %016x", want, got)
	}
	return &Reader{body: body}, nil
}

func (r *Reader) need(n int) error {
	if r.offset+n > len(r.body) {
		return errors.Wrapf(ErrShortBlock, "need %d bytes at offset %d of %d", n, r.offset, len(r.body))
	}
	return nil
}

func (r *Reader) Uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.body[r.offset]
	r.offset++
	return v, nil
}

func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint8()
	return v != 0, err
}

func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.body[r.offset:])
	r.offset += 4
	return v, nil
}

func (r *Reader) Uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.body[r.offset:])
	r.offset += 8
	return v, nil
}

// Bytes returns a copy of the next length-prefixed byte string.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.body[r.offset:r.offset+int(n)])
	r.offset += int(n)
	return out, nil
}

// Remaining reports unread body bytes.
func (r *Reader) Remaining() int { return len(r.body) - r.offset }
