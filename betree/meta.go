package betree

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"FractalDB/block"
	"FractalDB/pager"
)

const (
	metaMagic   uint32 = 0x46524442 // "FRDB"
	metaVersion uint8  = 1
)

// meta is page 0: what it takes to find the root again.
type meta struct {
	treeID     uuid.UUID
	root       NID
	comparator string
}

func encodeMeta(m meta) []byte {
	w := block.NewWriter(4 + 1 + 4 + 16 + 8 + 4 + len(m.comparator))
	w.PutUint32(metaMagic)
	w.PutUint8(metaVersion)
	w.PutBytes(m.treeID[:])
	w.PutUint64(uint64(m.root))
	w.PutBytes([]byte(m.comparator))
	return w.Finish()
}

func decodeMeta(data []byte) (meta, error) {
	var m meta
	bad := func(err error) (meta, error) {
		return meta{}, errors.Wrapf(ErrBadMeta, "decodeMeta: %v", err)
	}

	r, err := block.NewReader(data)
	if err != nil {
		return bad(err)
	}
	magic, err := r.Uint32()
	if err != nil {
		return bad(err)
	}
	if magic != metaMagic {
		return bad(errors.Newf("magic %#x", magic))
	}
	version, err := r.Uint8()
	if err != nil {
		return bad(err)
	}
	if version != metaVersion {
		return bad(errors.Newf("unsupported version %d", version))
	}
	id, err := r.Bytes()
	if err != nil {
		return bad(err)
	}
	if m.treeID, err = uuid.FromBytes(id); err != nil {
		return bad(err)
	}
	root, err := r.Uint64()
	if err != nil {
		return bad(err)
	}
	if NID(root) == NIDNil {
		return bad(errors.New("no root"))
	}
	m.root = NID(root)
	cmp, err := r.Bytes()
	if err != nil {
		return bad(err)
	}
	m.comparator = string(cmp)
	return m, nil
}

func (t *BufferTree) saveMeta() error {
	data := encodeMeta(meta{treeID: t.treeID, root: t.rootNID(), comparator: t.cmp.Name()})
	if err := t.pager.WritePage(pager.MetaPageID, data); err != nil {
		return errors.Wrap(err, "saveMeta: failed to write meta page")
	}
	return nil
}
