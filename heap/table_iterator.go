package heap

import (
	"nimbusdb/disk/pages"
)

// Row is a record yielded by a heap scan: the raw bytes plus the RID they
// live at. The heap sees content as opaque bytes; schema belongs to the
// catalog layer.
type Row struct {
	RID  pages.RID
	Data []byte
}

// TableIterator walks the page chain in order, yielding each live row exactly
// once. Tombstones are skipped and forwarding slots are skipped too: the
// relocated row is yielded at its home page instead, so relocation history
// never duplicates a row.
type TableIterator struct {
	heap    *TableHeap
	pageID  uint64
	slotIdx int
}

// Next returns the next live row, or nil when the scan is exhausted.
func (it *TableIterator) Next() (*Row, error) {
	for it.pageID != 0 {
		raw, err := it.heap.pool.GetPage(it.pageID)
		if err != nil {
			return nil, err
		}
		sp := pages.SlottedPageFromRawPage(raw)

		for it.slotIdx++; it.slotIdx < sp.SlotCount(); it.slotIdx++ {
			entry := sp.GetSlot(it.slotIdx)
			if entry.Flags != pages.SlotLive {
				continue
			}

			row := &Row{
				RID:  pages.NewRID(it.pageID, it.slotIdx),
				Data: append([]byte(nil), sp.GetTuple(it.slotIdx)...),
			}
			it.heap.pool.Unpin(it.pageID, false)
			return row, nil
		}

		next := sp.GetHeader().NextPageID
		it.heap.pool.Unpin(it.pageID, false)
		it.pageID = next
		it.slotIdx = -1
	}

	return nil, nil
}
