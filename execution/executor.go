package execution

import (
	"fmt"

	"nimbusdb/catalog"
	"nimbusdb/dbtypes"
)

// Executor runs parsed statements against the catalog. It owns the
// index-maintenance obligation: whenever a heap mutation deletes a row or
// relocates it, every index on the table is updated before the statement is
// considered complete.
type Executor struct {
	catalog *catalog.Catalog
}

func NewExecutor(ctl *catalog.Catalog) *Executor {
	return &Executor{catalog: ctl}
}

func (e *Executor) Execute(stmt Statement) (*Result, error) {
	switch s := stmt.(type) {
	case CreateTableStmt:
		return e.executeCreateTable(s)
	case CreateIndexStmt:
		return e.executeCreateIndex(s)
	case DropIndexStmt:
		return e.executeDropIndex(s)
	case InsertStmt:
		return e.executeInsert(s)
	case SelectStmt:
		return e.executeSelect(s)
	case UpdateStmt:
		return e.executeUpdate(s)
	case DeleteStmt:
		return e.executeDelete(s)
	case DropTableStmt:
		return e.executeDropTable(s)
	case ShowTablesStmt:
		return e.executeShowTables()
	default:
		return nil, fmt.Errorf("unsupported statement type %T", stmt)
	}
}

func (e *Executor) executeCreateTable(s CreateTableStmt) (*Result, error) {
	seen := map[string]bool{}
	for _, col := range s.Columns {
		if seen[col.Name] {
			return nil, fmt.Errorf("duplicate column %q in table %q", col.Name, s.Name)
		}
		seen[col.Name] = true
	}

	if _, err := e.catalog.CreateTable(s.Name, catalog.NewSchema(s.Columns)); err != nil {
		return nil, err
	}
	return ack(0), nil
}

func (e *Executor) executeCreateIndex(s CreateIndexStmt) (*Result, error) {
	if _, err := e.catalog.CreateIndex(s.Table, s.Column, s.IndexName); err != nil {
		return nil, err
	}
	return ack(0), nil
}

func (e *Executor) executeDropIndex(s DropIndexStmt) (*Result, error) {
	if err := e.catalog.DropIndex(s.Table, s.IndexName); err != nil {
		return nil, err
	}
	return ack(0), nil
}

func (e *Executor) executeDropTable(s DropTableStmt) (*Result, error) {
	if err := e.catalog.DropTable(s.Name); err != nil {
		return nil, err
	}
	return ack(0), nil
}

func (e *Executor) executeShowTables() (*Result, error) {
	res := &Result{Columns: []string{"table"}}
	for _, name := range e.catalog.Tables() {
		res.Rows = append(res.Rows, []*dbtypes.Value{dbtypes.NewVarcharValue(name)})
	}
	return res, nil
}

func (e *Executor) executeInsert(s InsertStmt) (*Result, error) {
	info, err := e.catalog.Resolve(s.Table)
	if err != nil {
		return nil, err
	}

	values, err := orderValues(info.Schema, s.Columns, s.Values)
	if err != nil {
		return nil, err
	}

	data, err := catalog.EncodeTuple(info.Schema, values)
	if err != nil {
		return nil, err
	}

	rid, err := info.Heap.Insert(data)
	if err != nil {
		return nil, err
	}

	for _, ix := range info.AllIndexes() {
		colIdx, err := info.Schema.ColIdx(ix.Column)
		if err != nil {
			return nil, err
		}
		ix.Insert(values[colIdx], rid)
	}

	return ack(1), nil
}

func (e *Executor) executeSelect(s SelectStmt) (*Result, error) {
	info, err := e.catalog.Resolve(s.Table)
	if err != nil {
		return nil, err
	}

	matches, err := e.collectMatches(info, s.Predicate)
	if err != nil {
		return nil, err
	}

	projIdx, columns, err := resolveProjection(info.Schema, s.Projection)
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: columns}
	for _, m := range matches {
		row := make([]*dbtypes.Value, 0, len(projIdx))
		for _, idx := range projIdx {
			row = append(row, m.values[idx])
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func (e *Executor) executeUpdate(s UpdateStmt) (*Result, error) {
	info, err := e.catalog.Resolve(s.Table)
	if err != nil {
		return nil, err
	}

	// resolve the SET list up front so a bad statement fails before any row
	// is touched
	type assignment struct {
		colIdx int
		value  *dbtypes.Value
	}
	assigns := make([]assignment, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		colIdx, err := info.Schema.ColIdx(a.Column)
		if err != nil {
			return nil, err
		}
		if a.Value.GetTypeID() != info.Schema.GetColumn(colIdx).TypeID {
			return nil, fmt.Errorf("column %q is %v: %w",
				a.Column, info.Schema.GetColumn(colIdx).TypeID, dbtypes.ErrTypeMismatch)
		}
		assigns = append(assigns, assignment{colIdx: colIdx, value: a.Value})
	}

	matches, err := e.collectMatches(info, s.Predicate)
	if err != nil {
		return nil, err
	}

	affected := 0
	for _, m := range matches {
		newValues := append([]*dbtypes.Value(nil), m.values...)
		for _, a := range assigns {
			newValues[a.colIdx] = a.value
		}

		data, err := catalog.EncodeTuple(info.Schema, newValues)
		if err != nil {
			return nil, err
		}

		// a failure here leaves rows mutated by earlier iterations in place;
		// there is no rollback, the error is reported as-is
		outcome, err := info.Heap.Update(m.rid, data)
		if err != nil {
			return nil, err
		}

		for _, ix := range info.AllIndexes() {
			colIdx, err := info.Schema.ColIdx(ix.Column)
			if err != nil {
				return nil, err
			}
			maintainIndex(ix, m.values[colIdx], newValues[colIdx], m.rid, outcome.NewRID)
		}
		affected++
	}

	return ack(affected), nil
}

func (e *Executor) executeDelete(s DeleteStmt) (*Result, error) {
	info, err := e.catalog.Resolve(s.Table)
	if err != nil {
		return nil, err
	}

	matches, err := e.collectMatches(info, s.Predicate)
	if err != nil {
		return nil, err
	}

	affected := 0
	for _, m := range matches {
		if err := info.Heap.Delete(m.rid); err != nil {
			return nil, err
		}

		for _, ix := range info.AllIndexes() {
			colIdx, err := info.Schema.ColIdx(ix.Column)
			if err != nil {
				return nil, err
			}
			ix.Remove(m.values[colIdx], m.rid)
		}
		affected++
	}

	return ack(affected), nil
}
