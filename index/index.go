package index

import (
	"github.com/google/btree"

	"nimbusdb/dbtypes"
	"nimbusdb/disk/pages"
)

const degree = 32

// Entry is one (key, RID) pair of an index. Keys are not unique; the RID
// breaks ties so equal keys coexist as distinct entries.
type Entry struct {
	Key *dbtypes.Value
	RID pages.RID
}

func entryLess(a, b Entry) bool {
	if a.Key.Less(b.Key) {
		return true
	}
	if b.Key.Less(a.Key) {
		return false
	}
	return a.RID.Less(b.RID)
}

// Index is an ordered map from one column's values to the current physical
// locations of the rows holding them. It must be kept in lock-step with heap
// mutations: the executor inserts, removes and rekeys entries synchronously
// with every INSERT, DELETE and relocating UPDATE. Contents are rebuilt from
// a heap scan on reopen; only the registration persists in the catalog.
type Index struct {
	Name   string
	Column string
	tree   *btree.BTreeG[Entry]
}

func NewIndex(name, column string) *Index {
	return &Index{
		Name:   name,
		Column: column,
		tree:   btree.NewG[Entry](degree, entryLess),
	}
}

// Lookup returns the RIDs of every live row whose key equals key, in
// ascending RID order. Absent keys yield an empty slice.
func (ix *Index) Lookup(key *dbtypes.Value) []pages.RID {
	rids := make([]pages.RID, 0)
	pivot := Entry{Key: key, RID: pages.RID{}}
	ix.tree.AscendGreaterOrEqual(pivot, func(e Entry) bool {
		if key.Less(e.Key) {
			return false
		}
		rids = append(rids, e.RID)
		return true
	})
	return rids
}

// ScanRange returns the RIDs of rows with lo <= key <= hi in key order. The
// equality-only planner does not use it, but the ordered backing makes range
// access paths possible.
func (ix *Index) ScanRange(lo, hi *dbtypes.Value) []pages.RID {
	rids := make([]pages.RID, 0)
	pivot := Entry{Key: lo, RID: pages.RID{}}
	ix.tree.AscendGreaterOrEqual(pivot, func(e Entry) bool {
		if hi.Less(e.Key) {
			return false
		}
		rids = append(rids, e.RID)
		return true
	})
	return rids
}

func (ix *Index) Insert(key *dbtypes.Value, rid pages.RID) {
	ix.tree.ReplaceOrInsert(Entry{Key: key, RID: rid})
}

// Remove deletes the (key, rid) pair. Removing an absent pair is a no-op.
func (ix *Index) Remove(key *dbtypes.Value, rid pages.RID) {
	ix.tree.Delete(Entry{Key: key, RID: rid})
}

// Rekey moves the entry for key from oldRid to newRid after a heap
// relocation.
func (ix *Index) Rekey(key *dbtypes.Value, oldRid, newRid pages.RID) {
	ix.Remove(key, oldRid)
	ix.Insert(key, newRid)
}

func (ix *Index) Len() int {
	return ix.tree.Len()
}
