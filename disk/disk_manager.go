package disk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"nimbusdb/common"
)

// PageSize is the fixed size of every page in the backing file.
const PageSize int = 4096

// ErrPageNotFound is returned when a page id was never allocated or was freed.
var ErrPageNotFound = errors.New("page not found")

// IDiskManager is the physical page file abstraction. Page 0 is reserved for
// the db header which keeps the free list and the catalog root page id.
type IDiskManager interface {
	WritePage(data []byte, pageID uint64) error
	ReadPage(pageID uint64, dest []byte) error
	NewPage() (pageID uint64)
	FreePage(pageID uint64)
	LastPageID() uint64
	GetCatalogPID() uint64
	SetCatalogPID(pid uint64)
	Close() error
}

type Manager struct {
	file       *os.File
	filename   string
	lastPageID uint64
	mu         sync.Mutex
	header     *header

	// freed mirrors the on-disk free list so reads of freed pages can be
	// rejected without walking the chain.
	freed map[uint64]bool
}

var _ IDiskManager = &Manager{}

// NewDiskManager opens or creates the backing file. The second return value
// reports whether a fresh file was created.
func NewDiskManager(file string) (*Manager, bool, error) {
	d := Manager{filename: file, freed: map[uint64]bool{}}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("disk: open %s: %w", file, err)
	}
	d.file = f

	stats, err := f.Stat()
	if err != nil {
		return nil, false, fmt.Errorf("disk: stat %s: %w", file, err)
	}

	filesize := stats.Size()
	if filesize == 0 {
		// page 0 is the header, allocation starts from 1
		d.lastPageID = 0
		d.initHeader()
		return &d, true, nil
	}

	d.lastPageID = uint64(int(filesize)/PageSize) - 1
	d.loadFreeList()
	return &d, false, nil
}

// loadFreeList walks the on-disk free list once so freed ids are known after
// a reopen. The tail's next pointer is stale, the walk stops there.
func (d *Manager) loadFreeList() {
	h := d.getHeader()
	data := make([]byte, PageSize)
	for pid := h.freeListHead; pid != 0; {
		d.freed[pid] = true
		if pid == h.freeListTail {
			return
		}
		common.PanicIfErr(d.readPage(pid, data))
		pid = binary.BigEndian.Uint64(data)
	}
}

func (d *Manager) WritePage(data []byte, pageID uint64) error {
	common.Assert(len(data) == PageSize, "written bytes are not equal to page size")

	if _, err := d.file.WriteAt(data, int64(PageSize)*int64(pageID)); err != nil {
		return fmt.Errorf("disk: write page %d: %w", pageID, err)
	}
	return nil
}

func (d *Manager) ReadPage(pageID uint64, dest []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pageID > d.lastPageID || d.freed[pageID] {
		return ErrPageNotFound
	}
	return d.readPage(pageID, dest)
}

// readPage skips the allocation checks so the free list chain itself stays
// readable internally.
func (d *Manager) readPage(pageID uint64, dest []byte) error {
	common.Assert(len(dest) == PageSize, "destination buffer is not equal to page size")

	n, err := d.file.ReadAt(dest, int64(PageSize)*int64(pageID))
	if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
		// page was allocated but never synced, its content is all zeroes
		for i := n; i < PageSize; i++ {
			dest[i] = 0
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("disk: read page %d: %w", pageID, err)
	}
	return nil
}

// NewPage allocates a page id, reusing the on-disk free list first.
func (d *Manager) NewPage() (pageID uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p := d.popFreeList(); p != 0 {
		return p
	}

	d.lastPageID++
	return d.lastPageID
}

// FreePage appends the page with the given id to the free list and sets it as tail.
func (d *Manager) FreePage(pageID uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.freed[pageID] = true

	h := d.getHeader()
	if h.freeListHead == 0 {
		h.freeListHead = pageID
		h.freeListTail = pageID
		d.setHeader(h)
		return
	}

	// freed page may not be synced to the file just yet, in that case the tail
	// is initialized as an empty page so the free list chain stays intact.
	data := make([]byte, PageSize)
	common.PanicIfErr(d.readPage(h.freeListTail, data))

	binary.BigEndian.PutUint64(data, pageID)
	common.PanicIfErr(d.WritePage(data, h.freeListTail))

	h.freeListTail = pageID
	d.setHeader(h)
}

func (d *Manager) LastPageID() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastPageID
}

func (d *Manager) GetCatalogPID() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getHeader().catalogPID
}

func (d *Manager) SetCatalogPID(pid uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.getHeader()
	h.catalogPID = pid
	d.setHeader(h)
}

func (d *Manager) Close() error {
	if err := d.file.Sync(); err != nil {
		return fmt.Errorf("disk: sync %s: %w", d.filename, err)
	}
	return d.file.Close()
}

func (d *Manager) popFreeList() (pageID uint64) {
	h := d.getHeader()
	if h.freeListHead == 0 {
		return 0
	}

	if h.freeListHead == h.freeListTail {
		pageID = h.freeListHead
		h.freeListHead, h.freeListTail = 0, 0
		delete(d.freed, pageID)
		d.setHeader(h)
		return
	}

	// pop head, read new head from the popped page and update header
	pageID = h.freeListHead

	data := make([]byte, PageSize)
	common.PanicIfErr(d.readPage(h.freeListHead, data))

	h.freeListHead = binary.BigEndian.Uint64(data)
	delete(d.freed, pageID)
	d.setHeader(h)
	return
}

func (d *Manager) getHeader() header {
	if d.header != nil {
		return *d.header
	}

	data := make([]byte, PageSize)
	common.PanicIfErr(d.readPage(0, data))

	h := readHeader(data)
	d.header = &h
	return h
}

func (d *Manager) setHeader(h header) {
	d.header = &h
	page := make([]byte, PageSize)
	writeHeader(h, page)
	common.PanicIfErr(d.WritePage(page, 0))
}

func (d *Manager) initHeader() {
	d.setHeader(header{})
}

type header struct {
	freeListHead uint64
	freeListTail uint64
	catalogPID   uint64
}

func readHeader(data []byte) header {
	return header{
		freeListHead: binary.BigEndian.Uint64(data),
		freeListTail: binary.BigEndian.Uint64(data[8:]),
		catalogPID:   binary.BigEndian.Uint64(data[16:]),
	}
}

func writeHeader(h header, dest []byte) {
	binary.BigEndian.PutUint64(dest, h.freeListHead)
	binary.BigEndian.PutUint64(dest[8:], h.freeListTail)
	binary.BigEndian.PutUint64(dest[16:], h.catalogPID)
}
