package pager

import (
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

/*
OnDiskPager stores pages in an append-only file. Every WritePage appends a
record and the in-memory index points at the newest copy:

	[pageID u64][length u32][xxhash64(pageID|length|data) u64][data]

A zero-length record deallocates the page. Opening the file replays every
record; a torn or corrupt tail record is truncated away.
*/

const recordHeaderSize = 8 + 4 + 8

type extent struct {
	offset int64 // offset of the data, past the header
	length uint32
}

// OnDiskPager implements the Pager interface for file-backed trees
type OnDiskPager struct {
	file     *os.File
	filePath string
	index    map[uint64]extent
	nextPage uint64
	tail     int64 // append offset
	readOnly bool
	mu       sync.RWMutex
}

// NewOnDiskPager opens (or creates) the page file and rebuilds its index.
func NewOnDiskPager(path string) (*OnDiskPager, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open page file %s", path)
	}

	p := &OnDiskPager{
		file:     file,
		filePath: path,
		index:    make(map[uint64]extent),
		nextPage: 1,
	}

	if err := p.replay(); err != nil {
		file.Close()
		return nil, err
	}
	return p, nil
}

// OpenOnDiskPagerReadOnly opens an existing page file without ever changing
// it: a missing file is an error, a torn tail is ignored rather than
// truncated, and every mutating call returns ErrReadOnly.
func OpenOnDiskPagerReadOnly(path string) (*OnDiskPager, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open page file %s", path)
	}

	p := &OnDiskPager{
		file:     file,
		filePath: path,
		index:    make(map[uint64]extent),
		nextPage: 1,
		readOnly: true,
	}

	if err := p.replay(); err != nil {
		file.Close()
		return nil, err
	}
	return p, nil
}

func (p *OnDiskPager) replay() error {
	stat, err := p.file.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat page file")
	}
	size := stat.Size()

	var offset int64
	header := make([]byte, recordHeaderSize)
	for offset < size {
		if _, err := p.file.ReadAt(header, offset); err != nil {
			break
		}
		pageID := binary.LittleEndian.Uint64(header[0:8])
		length := binary.LittleEndian.Uint32(header[8:12])
		sum := binary.LittleEndian.Uint64(header[12:20])

		dataOffset := offset + recordHeaderSize
		if dataOffset+int64(length) > size {
			break
		}
		data := make([]byte, length)
		if _, err := p.file.ReadAt(data, dataOffset); err != nil && err != io.EOF {
			return errors.Wrapf(err, "failed to read record at offset %d", offset)
		}
		if recordChecksum(header[:12], data) != sum {
			break
		}

		if length == 0 {
			delete(p.index, pageID)
		} else {
			p.index[pageID] = extent{offset: dataOffset, length: length}
		}
		if pageID >= p.nextPage {
			p.nextPage = pageID + 1
		}
		offset = dataOffset + int64(length)
	}

	if offset < size && !p.readOnly {
		// torn tail from an interrupted append
		if err := p.file.Truncate(offset); err != nil {
			return errors.Wrapf(err, "failed to truncate torn tail at %d", offset)
		}
	}
	p.tail = offset
	return nil
}

func recordChecksum(header, data []byte) uint64 {
	d := xxhash.New()
	d.Write(header)
	d.Write(data)
	return d.Sum64()
}

func (p *OnDiskPager) ReadPage(pageID uint64) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.file == nil {
		return nil, ErrClosed
	}

	ext, ok := p.index[pageID]
	if !ok {
		return nil, errors.Wrapf(ErrPageNotFound, "page %d", pageID)
	}

	data := make([]byte, ext.length)
	if _, err := p.file.ReadAt(data, ext.offset); err != nil {
		return nil, errors.Wrapf(err, "failed to read page %d", pageID)
	}
	return data, nil
}

func (p *OnDiskPager) WritePage(pageID uint64, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrClosed
	}
	if p.readOnly {
		return ErrReadOnly
	}
	if len(data) == 0 {
		return errors.Newf("refusing to write empty page %d", pageID)
	}

	dataOffset, err := p.appendRecord(pageID, data)
	if err != nil {
		return errors.Wrapf(err, "failed to write page %d", pageID)
	}

	p.index[pageID] = extent{offset: dataOffset, length: uint32(len(data))}
	if pageID >= p.nextPage {
		p.nextPage = pageID + 1
	}
	return nil
}

func (p *OnDiskPager) appendRecord(pageID uint64, data []byte) (int64, error) {
	rec := make([]byte, recordHeaderSize+len(data))
	binary.LittleEndian.PutUint64(rec[0:8], pageID)
	binary.LittleEndian.PutUint32(rec[8:12], uint32(len(data)))
	binary.LittleEndian.PutUint64(rec[12:20], recordChecksum(rec[:12], data))
	copy(rec[recordHeaderSize:], data)

	if _, err := p.file.WriteAt(rec, p.tail); err != nil {
		return 0, err
	}
	dataOffset := p.tail + recordHeaderSize
	p.tail += int64(len(rec))
	return dataOffset, nil
}

// AllocatePage hands out the next page ID. Nothing is written until WritePage.
func (p *OnDiskPager) AllocatePage() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return 0, ErrClosed
	}
	if p.readOnly {
		return 0, ErrReadOnly
	}

	id := p.nextPage
	p.nextPage++
	return id, nil
}

func (p *OnDiskPager) DeallocatePage(pageID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrClosed
	}
	if p.readOnly {
		return ErrReadOnly
	}
	if _, ok := p.index[pageID]; !ok {
		return nil
	}

	if _, err := p.appendRecord(pageID, nil); err != nil {
		return errors.Wrapf(err, "failed to deallocate page %d", pageID)
	}
	delete(p.index, pageID)
	return nil
}

// Sync flushes all pending writes to disk
func (p *OnDiskPager) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrClosed
	}
	if p.readOnly {
		return nil
	}
	return p.file.Sync()
}

func (p *OnDiskPager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil // Already closed
	}
	if p.readOnly {
		err := p.file.Close()
		p.file = nil
		return err
	}

	err := p.file.Sync()
	if err != nil {
		p.file.Close()
		p.file = nil
		return errors.Wrap(err, "failed to sync before close")
	}

	err = p.file.Close()
	p.file = nil
	return err
}

func (p *OnDiskPager) TotalPages() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextPage
}

// FileSize is the current length of the page file, garbage included.
func (p *OnDiskPager) FileSize() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tail
}
