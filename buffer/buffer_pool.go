package buffer

import (
	"fmt"
	"sort"
	"sync"

	"nimbusdb/disk"
	"nimbusdb/disk/pages"
)

// Pool caches physical pages in memory. All page mutation stays buffered in
// the pool until FlushAll writes dirty pages back to the backing file.
type Pool interface {
	GetPage(pageID uint64) (*pages.RawPage, error)
	NewPage() (*pages.RawPage, error)
	Unpin(pageID uint64, isDirty bool)
	FlushAll() error

	// FreePage drops the page from the pool and releases its id to the disk
	// manager's free list. The page must not be pinned.
	FreePage(pageID uint64) error

	// EmptyFrameSize returns the number of frames not holding any page.
	EmptyFrameSize() int
}

type frame struct {
	page *pages.RawPage
}

type BufferPool struct {
	poolSize    int
	frames      []*frame
	pageMap     map[uint64]int // physical page id => frame index holding that page
	emptyFrames []int
	replacer    IReplacer
	DiskManager disk.IDiskManager
	lock        sync.Mutex
}

var _ Pool = &BufferPool{}

func NewBufferPool(dm disk.IDiskManager, poolSize int) *BufferPool {
	emptyFrames := make([]int, poolSize)
	for i := 0; i < poolSize; i++ {
		emptyFrames[i] = i
	}

	return &BufferPool{
		poolSize:    poolSize,
		frames:      make([]*frame, poolSize),
		pageMap:     map[uint64]int{},
		emptyFrames: emptyFrames,
		replacer:    NewClockReplacer(poolSize),
		DiskManager: dm,
	}
}

func (b *BufferPool) GetPage(pageID uint64) (*pages.RawPage, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if frameID, ok := b.pageMap[pageID]; ok {
		b.pin(pageID)
		return b.frames[frameID].page, nil
	}

	frameID, err := b.takeFrame()
	if err != nil {
		return nil, err
	}

	p := b.frames[frameID].page
	p.Clear()
	p.PageID = pageID
	if err := b.DiskManager.ReadPage(pageID, p.Data); err != nil {
		b.emptyFrames = append(b.emptyFrames, frameID)
		return nil, err
	}

	b.pageMap[pageID] = frameID
	b.pin(pageID)
	return p, nil
}

// NewPage allocates a fresh page id and pins an empty page buffer for it.
// The caller formats the content.
func (b *BufferPool) NewPage() (*pages.RawPage, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameID, err := b.takeFrame()
	if err != nil {
		return nil, err
	}

	pageID := b.DiskManager.NewPage()
	p := b.frames[frameID].page
	p.Clear()
	p.PageID = pageID
	p.SetDirty()

	b.pageMap[pageID] = frameID
	b.pin(pageID)
	return p, nil
}

func (b *BufferPool) Unpin(pageID uint64, isDirty bool) {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameID, ok := b.pageMap[pageID]
	if !ok {
		panic(fmt.Sprintf("unpinned a page which does not exist: %v", pageID))
	}

	f := b.frames[frameID]
	if isDirty {
		f.page.SetDirty()
	}

	if f.page.GetPinCount() <= 0 {
		panic(fmt.Sprintf("buffer.Unpin called while pin count is lte zero, page id: %v", pageID))
	}

	f.page.DecrPinCount()
	if f.page.GetPinCount() == 0 {
		b.replacer.Unpin(frameID)
	}
}

// FlushAll writes every dirty page to the backing file in page-number order
// and clears dirty flags.
func (b *BufferPool) FlushAll() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	dirty := make([]uint64, 0)
	for pid, frameID := range b.pageMap {
		if b.frames[frameID].page.IsDirty() {
			dirty = append(dirty, pid)
		}
	}
	sort.Slice(dirty, func(i, j int) bool { return dirty[i] < dirty[j] })

	for _, pid := range dirty {
		p := b.frames[b.pageMap[pid]].page
		if err := b.DiskManager.WritePage(p.Data, pid); err != nil {
			return err
		}
		p.SetClean()
	}
	return nil
}

func (b *BufferPool) FreePage(pageID uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if frameID, ok := b.pageMap[pageID]; ok {
		f := b.frames[frameID]
		if f.page.GetPinCount() > 0 {
			panic(fmt.Sprintf("freeing a pinned page, pin count: %v", f.page.GetPinCount()))
		}
		delete(b.pageMap, pageID)
		f.page.SetClean()
		b.emptyFrames = append(b.emptyFrames, frameID)
	}

	b.DiskManager.FreePage(pageID)
	return nil
}

func (b *BufferPool) EmptyFrameSize() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.emptyFrames)
}

// pin increments the page's pin count and pins its frame so the replacer
// never chooses it as victim.
func (b *BufferPool) pin(pageID uint64) {
	frameID, ok := b.pageMap[pageID]
	if !ok {
		panic(fmt.Sprintf("pinned a page which does not exist: %v", pageID))
	}

	b.frames[frameID].page.IncrPinCount()
	b.replacer.Pin(frameID)
}

// takeFrame returns an empty frame index, evicting an unpinned page when the
// pool is full. The returned frame always holds an allocated RawPage.
func (b *BufferPool) takeFrame() (int, error) {
	if len(b.emptyFrames) > 0 {
		frameID := b.emptyFrames[0]
		b.emptyFrames = b.emptyFrames[1:]
		if b.frames[frameID] == nil {
			b.frames[frameID] = &frame{page: pages.NewRawPage(0)}
		}
		return frameID, nil
	}

	frameID, err := b.replacer.ChooseVictim()
	if err != nil {
		return 0, err
	}

	victim := b.frames[frameID].page
	if victim.GetPinCount() != 0 {
		panic(fmt.Sprintf("a pinned page is chosen as victim, page id: %v", victim.GetPageID()))
	}

	if victim.IsDirty() {
		if err := b.DiskManager.WritePage(victim.Data, victim.GetPageID()); err != nil {
			return 0, err
		}
		victim.SetClean()
	}

	delete(b.pageMap, victim.GetPageID())
	return frameID, nil
}
