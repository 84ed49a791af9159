package pages

import (
	"encoding/binary"
	"errors"
	"sort"

	"nimbusdb/common"
	"nimbusdb/disk"
)

/**
 * Slotted page format:
 *  ---------------------------------------------------------
 *  | HEADER | SLOT ARRAY | ... FREE SPACE ... | ... TUPLES |
 *  ---------------------------------------------------------
 *                                             ^
 *                                             free space pointer
 *
 *  Header format (size in bytes):
 *  ------------------------------------------------------------
 *  | FreeSpacePointer (2) | SlotArrLen (2) | NextPageID (8) |
 *  ------------------------------------------------------------
 *
 *  Slot array entry format (size in bytes):
 *  ------------------------------------
 *  | Offset (2) | Len (2) | Flags (2) |
 *  ------------------------------------
 */

const (
	HeaderSize         = 12
	SlotArrayEntrySize = 6

	// MaxTupleSize is the largest payload a single slot can hold.
	MaxTupleSize = disk.PageSize - HeaderSize - SlotArrayEntrySize
)

// Slot states. A forward slot's payload is an encoded RID pointing at the
// row's current location on another page.
const (
	SlotFree uint16 = iota
	SlotLive
	SlotTombstone
	SlotForward
)

// ErrTupleTooLarge is returned when a tuple can never fit in a page.
var ErrTupleTooLarge = errors.New("tuple is larger than the usable page body")

// ErrNotEnoughSpace is returned when this particular page is too full for the
// requested write. Callers move on to another page.
var ErrNotEnoughSpace = errors.New("not enough space in slotted page")

type SlottedPageHeader struct {
	FreeSpacePointer uint16
	SlotArrLen       uint16
	NextPageID       uint64
}

type SlotArrEntry struct {
	Offset uint16
	Len    uint16
	Flags  uint16
}

type SlottedPage struct {
	*RawPage
}

// InitSlottedPage formats a raw page as an empty slotted page.
func InitSlottedPage(raw *RawPage) SlottedPage {
	sp := SlottedPage{RawPage: raw}
	sp.SetHeader(SlottedPageHeader{
		FreeSpacePointer: uint16(disk.PageSize),
		SlotArrLen:       0,
		NextPageID:       0,
	})
	return sp
}

// SlottedPageFromRawPage interprets an already formatted page.
func SlottedPageFromRawPage(raw *RawPage) SlottedPage {
	return SlottedPage{RawPage: raw}
}

func (sp *SlottedPage) GetHeader() SlottedPageHeader {
	d := sp.GetData()
	return SlottedPageHeader{
		FreeSpacePointer: binary.BigEndian.Uint16(d),
		SlotArrLen:       binary.BigEndian.Uint16(d[2:]),
		NextPageID:       binary.BigEndian.Uint64(d[4:]),
	}
}

func (sp *SlottedPage) SetHeader(h SlottedPageHeader) {
	d := sp.GetData()
	binary.BigEndian.PutUint16(d, h.FreeSpacePointer)
	binary.BigEndian.PutUint16(d[2:], h.SlotArrLen)
	binary.BigEndian.PutUint64(d[4:], h.NextPageID)
}

func (sp *SlottedPage) SlotCount() int {
	return int(sp.GetHeader().SlotArrLen)
}

func (sp *SlottedPage) GetSlot(idx int) SlotArrEntry {
	offset := HeaderSize + SlotArrayEntrySize*idx
	d := sp.GetData()
	return SlotArrEntry{
		Offset: binary.BigEndian.Uint16(d[offset:]),
		Len:    binary.BigEndian.Uint16(d[offset+2:]),
		Flags:  binary.BigEndian.Uint16(d[offset+4:]),
	}
}

func (sp *SlottedPage) setSlot(idx int, val SlotArrEntry) {
	offset := HeaderSize + SlotArrayEntrySize*idx
	common.Assert(offset+SlotArrayEntrySize <= disk.PageSize, "page overflow error")

	d := sp.GetData()
	binary.BigEndian.PutUint16(d[offset:], val.Offset)
	binary.BigEndian.PutUint16(d[offset+2:], val.Len)
	binary.BigEndian.PutUint16(d[offset+4:], val.Flags)
}

// GetFreeSpace returns the contiguous space between the slot array and the
// tuple area.
func (sp *SlottedPage) GetFreeSpace() int {
	h := sp.GetHeader()
	startingOffset := HeaderSize + int(h.SlotArrLen)*SlotArrayEntrySize
	return int(h.FreeSpacePointer) - startingOffset
}

// freeSpaceAfterVacuum returns the contiguous space that a vacuum would make
// available, counting only payloads of live and forward slots as occupied.
func (sp *SlottedPage) freeSpaceAfterVacuum() int {
	h := sp.GetHeader()
	used := 0
	for i := 0; i < int(h.SlotArrLen); i++ {
		e := sp.GetSlot(i)
		if e.Flags == SlotLive || e.Flags == SlotForward {
			used += int(e.Len)
		}
	}
	return disk.PageSize - HeaderSize - int(h.SlotArrLen)*SlotArrayEntrySize - used
}

// Vacuum pushes all live payloads to the rightmost end of the page to
// eliminate fragmentation left behind by deletes and shrinking updates.
func (sp *SlottedPage) Vacuum() {
	h := sp.GetHeader()

	type occupied struct {
		idx   int
		entry SlotArrEntry
	}
	slots := make([]occupied, 0, h.SlotArrLen)
	for i := 0; i < int(h.SlotArrLen); i++ {
		e := sp.GetSlot(i)
		if (e.Flags == SlotLive || e.Flags == SlotForward) && e.Len > 0 {
			slots = append(slots, occupied{idx: i, entry: e})
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].entry.Offset > slots[j].entry.Offset
	})

	d := sp.GetData()
	fsp := uint16(disk.PageSize)
	for _, s := range slots {
		fsp -= s.entry.Len
		// destination is always at or to the right of the source
		copy(d[fsp:fsp+s.entry.Len], d[s.entry.Offset:s.entry.Offset+s.entry.Len])
		s.entry.Offset = fsp
		sp.setSlot(s.idx, s.entry)
	}

	h.FreeSpacePointer = fsp
	sp.SetHeader(h)
}

// InsertTuple writes data into the page reusing a dead slot when one exists.
// Returns the slot index.
func (sp *SlottedPage) InsertTuple(data []byte) (int, error) {
	if len(data) > MaxTupleSize {
		return 0, ErrTupleTooLarge
	}

	h := sp.GetHeader()
	reuseIdx := -1
	for i := 0; i < int(h.SlotArrLen); i++ {
		e := sp.GetSlot(i)
		if e.Flags == SlotFree || e.Flags == SlotTombstone {
			reuseIdx = i
			break
		}
	}

	need := len(data)
	if reuseIdx == -1 {
		need += SlotArrayEntrySize
	}

	if sp.GetFreeSpace() < need {
		if sp.freeSpaceAfterVacuum() < need {
			return 0, ErrNotEnoughSpace
		}
		sp.Vacuum()
		h = sp.GetHeader()
	}

	h.FreeSpacePointer -= uint16(len(data))
	copy(sp.GetData()[h.FreeSpacePointer:], data)

	idx := reuseIdx
	if idx == -1 {
		idx = int(h.SlotArrLen)
		h.SlotArrLen++
	}
	sp.SetHeader(h)
	sp.setSlot(idx, SlotArrEntry{
		Offset: h.FreeSpacePointer,
		Len:    uint16(len(data)),
		Flags:  SlotLive,
	})
	return idx, nil
}

// UpdateTuple overwrites the payload of a live or forward slot in place when
// the new payload fits in the old one, otherwise it writes a fresh copy into
// free space, vacuuming first when fragmentation is the only obstacle.
func (sp *SlottedPage) UpdateTuple(idx int, data []byte) error {
	if len(data) > MaxTupleSize {
		return ErrTupleTooLarge
	}

	e := sp.GetSlot(idx)
	if len(data) <= int(e.Len) {
		copy(sp.GetData()[e.Offset:], data)
		e.Len = uint16(len(data))
		sp.setSlot(idx, e)
		return nil
	}

	// the old payload is dead space once the slot is rewritten, so a vacuum
	// with the slot marked free first may open up enough room
	old := e
	e.Offset, e.Len, e.Flags = 0, 0, SlotFree
	sp.setSlot(idx, e)

	if sp.GetFreeSpace() < len(data) {
		if sp.freeSpaceAfterVacuum() < len(data) {
			sp.setSlot(idx, old)
			return ErrNotEnoughSpace
		}
		sp.Vacuum()
	}

	h := sp.GetHeader()
	h.FreeSpacePointer -= uint16(len(data))
	copy(sp.GetData()[h.FreeSpacePointer:], data)
	sp.SetHeader(h)
	sp.setSlot(idx, SlotArrEntry{
		Offset: h.FreeSpacePointer,
		Len:    uint16(len(data)),
		Flags:  old.Flags,
	})
	return nil
}

// CanUpdateInPlace reports whether UpdateTuple would succeed for the slot
// without relocating the row to another page.
func (sp *SlottedPage) CanUpdateInPlace(idx int, newLen int) bool {
	if newLen > MaxTupleSize {
		return false
	}
	e := sp.GetSlot(idx)
	if newLen <= int(e.Len) {
		return true
	}
	// after a vacuum the slot's own payload is reusable as well
	return sp.freeSpaceAfterVacuum()+int(e.Len) >= newLen
}

// GetTuple returns the payload bytes of the slot, nil when the slot holds no
// row data.
func (sp *SlottedPage) GetTuple(idx int) []byte {
	e := sp.GetSlot(idx)
	if e.Len == 0 {
		return nil
	}
	return sp.GetData()[e.Offset : e.Offset+e.Len]
}

// DeleteTuple marks the slot as tombstoned. The payload bytes stay in place
// until the next vacuum.
func (sp *SlottedPage) DeleteTuple(idx int) {
	sp.setSlot(idx, SlotArrEntry{Offset: 0, Len: 0, Flags: SlotTombstone})
}

// SetForward rewrites the slot as a forwarding entry pointing at rid. The
// heap pads every record to at least RIDSize bytes so the rewrite always fits
// in the slot's existing payload.
func (sp *SlottedPage) SetForward(idx int, rid RID) {
	e := sp.GetSlot(idx)
	common.Assert(int(e.Len) >= RIDSize, "slot payload is smaller than a forward record")

	rid.Serialize(sp.GetData()[e.Offset:])
	e.Len = RIDSize
	e.Flags = SlotForward
	sp.setSlot(idx, e)
}

// GetForward decodes the forward record stored in the slot.
func (sp *SlottedPage) GetForward(idx int) RID {
	e := sp.GetSlot(idx)
	common.Assert(e.Flags == SlotForward, "slot is not a forwarding entry")
	return DeserializeRID(sp.GetData()[e.Offset:])
}
