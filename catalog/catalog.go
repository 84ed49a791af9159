package catalog

import (
	"errors"
	"sort"

	"nimbusdb/buffer"
	"nimbusdb/disk"
	"nimbusdb/heap"
	"nimbusdb/index"
)

var (
	ErrTableExists    = errors.New("table already exists")
	ErrTableNotFound  = errors.New("table not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrIndexExists    = errors.New("index already exists")
	ErrIndexNotFound  = errors.New("index not found")
)

// TableInfo bundles everything reachable for one table: its schema, its heap
// and the indexes defined on it, keyed by column name.
type TableInfo struct {
	Name    string
	Schema  Schema
	Heap    *heap.TableHeap
	Indexes map[string]*index.Index
}

// AllIndexes returns the table's indexes in a deterministic column order.
func (t *TableInfo) AllIndexes() []*index.Index {
	cols := make([]string, 0, len(t.Indexes))
	for c := range t.Indexes {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	out := make([]*index.Index, 0, len(cols))
	for _, c := range cols {
		out = append(out, t.Indexes[c])
	}
	return out
}

// IndexOn returns the index over the named column, nil when there is none.
func (t *TableInfo) IndexOn(column string) *index.Index {
	return t.Indexes[column]
}

// Catalog is the sole registry of tables: every heap and index handle is
// reachable only through it. Metadata persists in a page chain rooted at the
// db header's catalog PID; index contents are rebuilt from heap scans on
// open.
type Catalog struct {
	pool    buffer.Pool
	dm      disk.IDiskManager
	tables  map[string]*TableInfo
	rootPID uint64
}

// OpenCatalog bootstraps a new catalog or reloads one from the backing file.
func OpenCatalog(pool buffer.Pool, dm disk.IDiskManager, created bool) (*Catalog, error) {
	c := &Catalog{
		pool:   pool,
		dm:     dm,
		tables: map[string]*TableInfo{},
	}

	if created {
		p, err := pool.NewPage()
		if err != nil {
			return nil, err
		}
		c.rootPID = p.GetPageID()
		pool.Unpin(c.rootPID, true)
		dm.SetCatalogPID(c.rootPID)
		return c, c.save()
	}

	c.rootPID = dm.GetCatalogPID()
	return c, c.load()
}

// CreateTable registers a table with a fresh empty heap.
func (c *Catalog) CreateTable(name string, schema Schema) (*TableInfo, error) {
	if _, ok := c.tables[name]; ok {
		return nil, ErrTableExists
	}

	h, err := heap.NewTableHeap(c.pool)
	if err != nil {
		return nil, err
	}

	info := &TableInfo{
		Name:    name,
		Schema:  schema,
		Heap:    h,
		Indexes: map[string]*index.Index{},
	}
	c.tables[name] = info
	return info, c.save()
}

// CreateIndex builds an index over one column by scanning the full heap once
// and registers it under (table, column).
func (c *Catalog) CreateIndex(tableName, column, indexName string) (*index.Index, error) {
	info, ok := c.tables[tableName]
	if !ok {
		return nil, ErrTableNotFound
	}

	colIdx, err := info.Schema.ColIdx(column)
	if err != nil {
		return nil, err
	}

	if _, ok := info.Indexes[column]; ok {
		return nil, ErrIndexExists
	}
	for _, ix := range info.Indexes {
		if ix.Name == indexName {
			return nil, ErrIndexExists
		}
	}

	ix := index.NewIndex(indexName, column)
	if err := populateIndex(ix, info, colIdx); err != nil {
		return nil, err
	}

	info.Indexes[column] = ix
	return ix, c.save()
}

// DropIndex removes the named index from the table.
func (c *Catalog) DropIndex(tableName, indexName string) error {
	info, ok := c.tables[tableName]
	if !ok {
		return ErrTableNotFound
	}

	for col, ix := range info.Indexes {
		if ix.Name == indexName {
			delete(info.Indexes, col)
			return c.save()
		}
	}
	return ErrIndexNotFound
}

// DropTable removes the table, releases its heap pages and drops all its
// indexes.
func (c *Catalog) DropTable(name string) error {
	info, ok := c.tables[name]
	if !ok {
		return ErrTableNotFound
	}

	if err := info.Heap.Free(); err != nil {
		return err
	}

	delete(c.tables, name)
	return c.save()
}

// Resolve returns the table's handles, ErrTableNotFound when absent.
func (c *Catalog) Resolve(name string) (*TableInfo, error) {
	info, ok := c.tables[name]
	if !ok {
		return nil, ErrTableNotFound
	}
	return info, nil
}

// Tables lists the registered table names in sorted order.
func (c *Catalog) Tables() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func populateIndex(ix *index.Index, info *TableInfo, colIdx int) error {
	it := info.Heap.Scan()
	for {
		row, err := it.Next()
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}

		values := DecodeTuple(info.Schema, row.Data)
		ix.Insert(values[colIdx], row.RID)
	}
}
