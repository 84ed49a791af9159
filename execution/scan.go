package execution

import (
	"fmt"

	"nimbusdb/catalog"
	"nimbusdb/dbtypes"
	"nimbusdb/disk/pages"
	"nimbusdb/index"
)

// match is one row selected by an access path, materialized before any
// mutation so UPDATE and DELETE never iterate a heap they are changing.
type match struct {
	rid    pages.RID
	values []*dbtypes.Value
}

// collectMatches picks the access path: an Index Scan when an index exists on
// the predicate's column, a Sequential Scan otherwise (or when there is no
// predicate at all). Both paths return the same row set; only the order
// differs (index key order vs physical page order).
func (e *Executor) collectMatches(info *catalog.TableInfo, pred *Predicate) ([]match, error) {
	if pred == nil {
		return e.seqScan(info, -1, nil)
	}

	colIdx, err := info.Schema.ColIdx(pred.Column)
	if err != nil {
		return nil, err
	}
	if pred.Value.GetTypeID() != info.Schema.GetColumn(colIdx).TypeID {
		return nil, fmt.Errorf("column %q is %v: %w",
			pred.Column, info.Schema.GetColumn(colIdx).TypeID, dbtypes.ErrTypeMismatch)
	}

	if ix := info.IndexOn(pred.Column); ix != nil {
		return e.indexScan(info, ix.Lookup(pred.Value))
	}
	return e.seqScan(info, colIdx, pred.Value)
}

func (e *Executor) indexScan(info *catalog.TableInfo, rids []pages.RID) ([]match, error) {
	matches := make([]match, 0, len(rids))
	for _, rid := range rids {
		data, err := info.Heap.Get(rid)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match{rid: rid, values: catalog.DecodeTuple(info.Schema, data)})
	}
	return matches, nil
}

// seqScan walks every live row; colIdx < 0 means no filter.
func (e *Executor) seqScan(info *catalog.TableInfo, colIdx int, value *dbtypes.Value) ([]match, error) {
	matches := make([]match, 0)
	it := info.Heap.Scan()
	for {
		row, err := it.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return matches, nil
		}

		values := catalog.DecodeTuple(info.Schema, row.Data)
		if colIdx >= 0 && !values[colIdx].Equals(value) {
			continue
		}
		matches = append(matches, match{rid: row.RID, values: values})
	}
}

// orderValues arranges an INSERT's values into schema order. Unnamed columns
// get their type's zero value.
func orderValues(schema catalog.Schema, columns []string, values []*dbtypes.Value) ([]*dbtypes.Value, error) {
	if columns == nil {
		return values, nil
	}
	if len(columns) != len(values) {
		return nil, fmt.Errorf("%d columns but %d values: %w",
			len(columns), len(values), dbtypes.ErrTypeMismatch)
	}

	ordered := make([]*dbtypes.Value, schema.ColumnCount())
	for i, col := range schema.GetColumns() {
		ordered[i] = zeroValue(col.TypeID)
	}
	for i, name := range columns {
		colIdx, err := schema.ColIdx(name)
		if err != nil {
			return nil, err
		}
		ordered[colIdx] = values[i]
	}
	return ordered, nil
}

func zeroValue(typeID dbtypes.TypeID) *dbtypes.Value {
	switch typeID {
	case dbtypes.IntegerTypeID:
		return dbtypes.NewIntValue(0)
	default:
		return dbtypes.NewVarcharValue("")
	}
}

// resolveProjection maps the requested column list to schema positions. Nil
// or a sole "*" selects every column in schema order.
func resolveProjection(schema catalog.Schema, projection []string) ([]int, []string, error) {
	if projection == nil || (len(projection) == 1 && projection[0] == "*") {
		idx := make([]int, 0, schema.ColumnCount())
		names := make([]string, 0, schema.ColumnCount())
		for i, col := range schema.GetColumns() {
			idx = append(idx, i)
			names = append(names, col.Name)
		}
		return idx, names, nil
	}

	idx := make([]int, 0, len(projection))
	for _, name := range projection {
		colIdx, err := schema.ColIdx(name)
		if err != nil {
			return nil, nil, err
		}
		idx = append(idx, colIdx)
	}
	return idx, projection, nil
}

// maintainIndex applies the post-update obligation for one index: a
// relocation rekeys the entry even when the indexed column kept its value,
// and an in-place update of the indexed column swaps the old entry for the
// new one.
func maintainIndex(ix *index.Index, oldKey, newKey *dbtypes.Value, oldRid, newRid pages.RID) {
	switch {
	case oldKey.Equals(newKey) && oldRid == newRid:
		// neither the key nor the location changed
	case oldKey.Equals(newKey):
		ix.Rekey(oldKey, oldRid, newRid)
	default:
		ix.Remove(oldKey, oldRid)
		ix.Insert(newKey, newRid)
	}
}
