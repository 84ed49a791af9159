package catalog

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"

	"nimbusdb/disk"
	"nimbusdb/heap"
	"nimbusdb/index"
)

// Catalog metadata is stored as a snappy-compressed JSON blob in a chain of
// raw pages rooted at the db header's catalog PID. Page layout:
//
//	| next page id (8) | chunk length (2) | chunk bytes ... |
const (
	chainNextSize = 8
	chainLenSize  = 2
	chunkCap      = disk.PageSize - chainNextSize - chainLenSize
)

type catalogMeta struct {
	Tables []tableMeta `json:"tables"`
}

type tableMeta struct {
	Name        string      `json:"name"`
	Columns     []Column    `json:"columns"`
	FirstPageID uint64      `json:"first_page_id"`
	Indexes     []indexMeta `json:"indexes"`
}

type indexMeta struct {
	Name   string `json:"name"`
	Column string `json:"column"`
}

// save serializes the registry into the catalog page chain. The root page id
// never changes, so the db header stays valid across saves.
func (c *Catalog) save() error {
	meta := catalogMeta{Tables: make([]tableMeta, 0, len(c.tables))}
	for _, name := range c.Tables() {
		info := c.tables[name]
		tm := tableMeta{
			Name:        info.Name,
			Columns:     info.Schema.GetColumns(),
			FirstPageID: info.Heap.FirstPageID(),
		}
		for _, ix := range info.AllIndexes() {
			tm.Indexes = append(tm.Indexes, indexMeta{Name: ix.Name, Column: ix.Column})
		}
		meta.Tables = append(meta.Tables, tm)
	}

	raw, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("catalog: marshal metadata: %w", err)
	}

	return c.writeBlob(snappy.Encode(nil, raw))
}

// load rebuilds the registry from the catalog page chain and re-populates
// every registered index with one heap scan per index.
func (c *Catalog) load() error {
	blob, err := c.readBlob()
	if err != nil {
		return err
	}

	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return fmt.Errorf("catalog: decompress metadata: %w", err)
	}

	var meta catalogMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return fmt.Errorf("catalog: unmarshal metadata: %w", err)
	}

	for _, tm := range meta.Tables {
		info := &TableInfo{
			Name:    tm.Name,
			Schema:  NewSchema(tm.Columns),
			Heap:    heap.OpenTableHeap(c.pool, tm.FirstPageID),
			Indexes: map[string]*index.Index{},
		}

		for _, im := range tm.Indexes {
			colIdx, err := info.Schema.ColIdx(im.Column)
			if err != nil {
				return err
			}
			ix := index.NewIndex(im.Name, im.Column)
			if err := populateIndex(ix, info, colIdx); err != nil {
				return err
			}
			info.Indexes[im.Column] = ix
		}

		c.tables[tm.Name] = info
	}
	return nil
}

func (c *Catalog) writeBlob(blob []byte) error {
	pid := c.rootPID
	offset := 0
	for {
		p, err := c.pool.GetPage(pid)
		if err != nil {
			return err
		}
		data := p.GetData()
		next := binary.BigEndian.Uint64(data[:chainNextSize])

		n := len(blob) - offset
		if n > chunkCap {
			n = chunkCap
		}
		binary.BigEndian.PutUint16(data[chainNextSize:], uint16(n))
		copy(data[chainNextSize+chainLenSize:], blob[offset:offset+n])
		offset += n

		if offset < len(blob) {
			if next == 0 {
				np, err := c.pool.NewPage()
				if err != nil {
					c.pool.Unpin(pid, true)
					return err
				}
				next = np.GetPageID()
				c.pool.Unpin(next, true)
			}
			binary.BigEndian.PutUint64(data[:chainNextSize], next)
			c.pool.Unpin(pid, true)
			pid = next
			continue
		}

		binary.BigEndian.PutUint64(data[:chainNextSize], 0)
		c.pool.Unpin(pid, true)

		// the blob shrank, release the remainder of the old chain
		for next != 0 {
			p, err := c.pool.GetPage(next)
			if err != nil {
				return err
			}
			after := binary.BigEndian.Uint64(p.GetData()[:chainNextSize])
			c.pool.Unpin(next, false)
			if err := c.pool.FreePage(next); err != nil {
				return err
			}
			next = after
		}
		return nil
	}
}

func (c *Catalog) readBlob() ([]byte, error) {
	blob := make([]byte, 0)
	pid := c.rootPID
	for pid != 0 {
		p, err := c.pool.GetPage(pid)
		if err != nil {
			return nil, err
		}
		data := p.GetData()
		next := binary.BigEndian.Uint64(data[:chainNextSize])
		n := int(binary.BigEndian.Uint16(data[chainNextSize:]))
		blob = append(blob, data[chainNextSize+chainLenSize:chainNextSize+chainLenSize+n]...)
		c.pool.Unpin(pid, false)
		pid = next
	}
	return blob, nil
}
