package pages

import "encoding/binary"

// RID is the stable (page, slot) address of a row. Once assigned it stays
// resolvable until the row is deleted; a relocated row leaves a forward
// record behind at its old address.
type RID struct {
	PageID  uint64
	SlotIdx uint16
}

func NewRID(pageID uint64, slotIdx int) RID {
	return RID{PageID: pageID, SlotIdx: uint16(slotIdx)}
}

// RIDSize is the encoded size of a RID, which is also the payload size of a
// forward record.
const RIDSize = 10

func (r RID) Serialize(dest []byte) {
	binary.BigEndian.PutUint64(dest, r.PageID)
	binary.BigEndian.PutUint16(dest[8:], r.SlotIdx)
}

func DeserializeRID(src []byte) RID {
	return RID{
		PageID:  binary.BigEndian.Uint64(src),
		SlotIdx: binary.BigEndian.Uint16(src[8:]),
	}
}

// Less orders RIDs by page then slot. Used to keep index entries with equal
// keys in a deterministic order.
func (r RID) Less(than RID) bool {
	if r.PageID != than.PageID {
		return r.PageID < than.PageID
	}
	return r.SlotIdx < than.SlotIdx
}
