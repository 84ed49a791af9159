package heap

import (
	"errors"

	"nimbusdb/buffer"
	"nimbusdb/disk/pages"
)

// ErrRowNotFound is returned when a RID resolves to a tombstoned, freed or
// never-assigned slot.
var ErrRowNotFound = errors.New("row not found")

// UpdateResult reports whether an update relocated the row. Callers that
// maintain indexes must rekey every index of the table with NewRID when
// Relocated is set; the heap itself knows nothing about indexes.
type UpdateResult struct {
	Relocated bool
	NewRID    pages.RID
}

// TableHeap is the physical row store of one table: a chain of slotted pages
// in allocation order. Records are padded to at least pages.RIDSize bytes so
// any slot can later be rewritten as a forwarding entry in place.
type TableHeap struct {
	pool        buffer.Pool
	firstPageID uint64
}

// NewTableHeap allocates and formats the first page of a fresh heap.
func NewTableHeap(pool buffer.Pool) (*TableHeap, error) {
	p, err := pool.NewPage()
	if err != nil {
		return nil, err
	}
	pages.InitSlottedPage(p)
	pool.Unpin(p.GetPageID(), true)

	return &TableHeap{pool: pool, firstPageID: p.GetPageID()}, nil
}

// OpenTableHeap attaches to an existing heap by its first page id.
func OpenTableHeap(pool buffer.Pool, firstPageID uint64) *TableHeap {
	return &TableHeap{pool: pool, firstPageID: firstPageID}
}

func (t *TableHeap) FirstPageID() uint64 {
	return t.firstPageID
}

// Insert writes the record into the first page of the chain with enough
// space, appending a new page when none has room. The returned RID is
// immediately resolvable by Get.
func (t *TableHeap) Insert(data []byte) (pages.RID, error) {
	data = padRecord(data)

	raw, err := t.pool.GetPage(t.firstPageID)
	if err != nil {
		return pages.RID{}, err
	}
	curr := pages.SlottedPageFromRawPage(raw)

	for {
		idx, err := curr.InsertTuple(data)
		if err == nil {
			rid := pages.NewRID(curr.GetPageID(), idx)
			t.pool.Unpin(curr.GetPageID(), true)
			return rid, nil
		}
		if !errors.Is(err, pages.ErrNotEnoughSpace) {
			t.pool.Unpin(curr.GetPageID(), false)
			return pages.RID{}, err
		}

		h := curr.GetHeader()
		if h.NextPageID == 0 {
			// end of chain, link a fresh page
			raw, err := t.pool.NewPage()
			if err != nil {
				t.pool.Unpin(curr.GetPageID(), false)
				return pages.RID{}, err
			}
			next := pages.InitSlottedPage(raw)

			h.NextPageID = next.GetPageID()
			curr.SetHeader(h)
			t.pool.Unpin(curr.GetPageID(), true)
			curr = next
			continue
		}

		t.pool.Unpin(curr.GetPageID(), false)
		raw, err = t.pool.GetPage(h.NextPageID)
		if err != nil {
			return pages.RID{}, err
		}
		curr = pages.SlottedPageFromRawPage(raw)
	}
}

// Get returns a copy of the record at rid, transparently resolving
// forwarding slots. Update rewrites every redirect on a relocation, so a
// forward always points at a live slot, but the loop tolerates longer chains.
func (t *TableHeap) Get(rid pages.RID) ([]byte, error) {
	for {
		sp, entry, err := t.slotAt(rid)
		if err != nil {
			return nil, err
		}

		switch entry.Flags {
		case pages.SlotLive:
			data := append([]byte(nil), sp.GetTuple(int(rid.SlotIdx))...)
			t.pool.Unpin(sp.GetPageID(), false)
			return data, nil
		case pages.SlotForward:
			next := sp.GetForward(int(rid.SlotIdx))
			t.pool.Unpin(sp.GetPageID(), false)
			rid = next
		default:
			t.pool.Unpin(sp.GetPageID(), false)
			return nil, ErrRowNotFound
		}
	}
}

// Update overwrites the row at rid. When the new record fits in the row's
// home page it is rewritten in place and the RID is unchanged. Otherwise the
// record is inserted elsewhere and every slot on the resolution path
// (forwards and the old home alike) is rewritten to point straight at the new
// location, so redirects never chain past a single hop. Old RIDs stay
// resolvable; the returned NewRID names the row's canonical location from now
// on.
func (t *TableHeap) Update(rid pages.RID, data []byte) (UpdateResult, error) {
	data = padRecord(data)

	path := make([]pages.RID, 0, 2)
	home := rid
	for {
		sp, entry, err := t.slotAt(home)
		if err != nil {
			return UpdateResult{}, err
		}

		if entry.Flags == pages.SlotForward {
			next := sp.GetForward(int(home.SlotIdx))
			t.pool.Unpin(sp.GetPageID(), false)
			path = append(path, home)
			home = next
			continue
		}
		if entry.Flags != pages.SlotLive {
			t.pool.Unpin(sp.GetPageID(), false)
			return UpdateResult{}, ErrRowNotFound
		}

		if sp.CanUpdateInPlace(int(home.SlotIdx), len(data)) {
			if err := sp.UpdateTuple(int(home.SlotIdx), data); err != nil {
				t.pool.Unpin(sp.GetPageID(), false)
				return UpdateResult{}, err
			}
			t.pool.Unpin(sp.GetPageID(), true)
			return UpdateResult{Relocated: false, NewRID: home}, nil
		}

		t.pool.Unpin(sp.GetPageID(), false)
		break
	}

	newRid, err := t.Insert(data)
	if err != nil {
		return UpdateResult{}, err
	}

	for _, p := range append(path, home) {
		sp, _, err := t.slotAt(p)
		if err != nil {
			return UpdateResult{}, err
		}
		sp.SetForward(int(p.SlotIdx), newRid)
		t.pool.Unpin(sp.GetPageID(), true)
	}

	return UpdateResult{Relocated: true, NewRID: newRid}, nil
}

// Delete tombstones the row at rid, along with every forwarding slot passed
// through on the way to its home. The space becomes reclaimable by later
// inserts into the page.
func (t *TableHeap) Delete(rid pages.RID) error {
	deletedForward := false
	for {
		sp, entry, err := t.slotAt(rid)
		if err != nil {
			return err
		}

		switch entry.Flags {
		case pages.SlotLive:
			sp.DeleteTuple(int(rid.SlotIdx))
			t.pool.Unpin(sp.GetPageID(), true)
			return nil
		case pages.SlotForward:
			next := sp.GetForward(int(rid.SlotIdx))
			sp.DeleteTuple(int(rid.SlotIdx))
			t.pool.Unpin(sp.GetPageID(), true)
			rid = next
			deletedForward = true
		default:
			t.pool.Unpin(sp.GetPageID(), false)
			if deletedForward {
				// forward pointed at an already dead slot, nothing more to do
				return nil
			}
			return ErrRowNotFound
		}
	}
}

// Scan returns an iterator over every live row exactly once, in page chain
// order then slot order. Each call produces an independent traversal of the
// heap's current state.
func (t *TableHeap) Scan() *TableIterator {
	return &TableIterator{heap: t, pageID: t.firstPageID, slotIdx: -1}
}

// Free releases every page of the heap to the disk free list. The heap is
// unusable afterwards.
func (t *TableHeap) Free() error {
	pageID := t.firstPageID
	for pageID != 0 {
		raw, err := t.pool.GetPage(pageID)
		if err != nil {
			return err
		}
		sp := pages.SlottedPageFromRawPage(raw)
		next := sp.GetHeader().NextPageID
		t.pool.Unpin(pageID, false)

		if err := t.pool.FreePage(pageID); err != nil {
			return err
		}
		pageID = next
	}
	return nil
}

// slotAt returns the pinned page and slot entry for rid. On error the page is
// already unpinned.
func (t *TableHeap) slotAt(rid pages.RID) (pages.SlottedPage, pages.SlotArrEntry, error) {
	raw, err := t.pool.GetPage(rid.PageID)
	if err != nil {
		return pages.SlottedPage{}, pages.SlotArrEntry{}, err
	}

	sp := pages.SlottedPageFromRawPage(raw)
	if int(rid.SlotIdx) >= sp.SlotCount() {
		t.pool.Unpin(rid.PageID, false)
		return pages.SlottedPage{}, pages.SlotArrEntry{}, ErrRowNotFound
	}

	return sp, sp.GetSlot(int(rid.SlotIdx)), nil
}

// padRecord guarantees the forward-rewrite invariant: every stored record is
// at least as large as an encoded RID. Tuple decoding ignores trailing bytes.
func padRecord(data []byte) []byte {
	if len(data) >= pages.RIDSize {
		return data
	}
	padded := make([]byte, pages.RIDSize)
	copy(padded, data)
	return padded
}
