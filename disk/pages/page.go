package pages

import (
	"nimbusdb/disk"
)

// IPage is a wrapper for actual physical pages in the file system. It provides
// the content of the physical page as a byte array and keeps bookkeeping
// information for the buffer pool.
type IPage interface {
	GetData() []byte
	GetPageID() uint64
	GetPinCount() int
	IsDirty() bool
	SetDirty()
	SetClean()
	IncrPinCount()
	DecrPinCount()
}

type RawPage struct {
	PageID   uint64
	isDirty  bool
	PinCount int
	Data     []byte
}

func NewRawPage(pageID uint64) *RawPage {
	return &RawPage{
		PageID: pageID,
		Data:   make([]byte, disk.PageSize),
	}
}

func (p *RawPage) GetData() []byte {
	return p.Data
}

func (p *RawPage) GetPageID() uint64 {
	return p.PageID
}

func (p *RawPage) GetPinCount() int {
	return p.PinCount
}

func (p *RawPage) IsDirty() bool {
	return p.isDirty
}

func (p *RawPage) SetDirty() {
	p.isDirty = true
}

func (p *RawPage) SetClean() {
	p.isDirty = false
}

func (p *RawPage) IncrPinCount() {
	p.PinCount++
}

func (p *RawPage) DecrPinCount() {
	p.PinCount--
}

// Clear zeroes the page buffer so the frame can be reused for another page.
func (p *RawPage) Clear() {
	for i := range p.Data {
		p.Data[i] = 0
	}
	p.isDirty = false
}
