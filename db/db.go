package db

import (
	"log"
	"os"

	"nimbusdb/buffer"
	"nimbusdb/catalog"
	"nimbusdb/disk"
	"nimbusdb/execution"
)

const DefaultPoolSize = 64

// DB is the embedded engine facade handed to the shell: it executes parsed
// statements and flushes all dirty pages on shutdown. One statement runs at a
// time; there are no concurrent client sessions.
type DB struct {
	dm   disk.IDiskManager
	pool buffer.Pool
	Ctl  *catalog.Catalog
	exec *execution.Executor
	l    *log.Logger
}

// Open opens or creates the database at file. Reopening rebuilds the catalog
// from the header's catalog page chain and re-populates every registered
// index by scanning its table's heap.
func Open(file string, poolSize int) (*DB, error) {
	dm, created, err := disk.NewDiskManager(file)
	if err != nil {
		return nil, err
	}

	l := log.New(os.Stderr, ">> ", 0)
	if created {
		l.Printf("database %s is initializing", file)
	}

	pool := buffer.NewBufferPool(dm, poolSize)
	ctl, err := catalog.OpenCatalog(pool, dm, created)
	if err != nil {
		_ = dm.Close()
		return nil, err
	}

	return &DB{
		dm:   dm,
		pool: pool,
		Ctl:  ctl,
		exec: execution.NewExecutor(ctl),
		l:    l,
	}, nil
}

// Execute runs one parsed statement to completion. Storage errors surface
// unchanged as a failed statement result.
func (db *DB) Execute(stmt execution.Statement) (*execution.Result, error) {
	return db.exec.Execute(stmt)
}

// Close flushes every dirty page to the backing file and releases it. A
// flush failure is reported, but the file is still closed so the process can
// exit.
func (db *DB) Close() error {
	if err := db.pool.FlushAll(); err != nil {
		db.l.Printf("flush on shutdown failed: %v", err)
		_ = db.dm.Close()
		return err
	}
	return db.dm.Close()
}
