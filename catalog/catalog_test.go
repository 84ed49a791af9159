package catalog

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimbusdb/buffer"
	"nimbusdb/dbtypes"
	"nimbusdb/disk"
)

func newTestCatalog(t *testing.T) (*Catalog, *buffer.BufferPool) {
	t.Helper()
	id, _ := uuid.NewUUID()
	dbName := id.String()
	dm, created, err := disk.NewDiskManager(dbName)
	require.NoError(t, err)
	require.True(t, created)
	t.Cleanup(func() {
		_ = dm.Close()
		_ = os.Remove(dbName)
	})

	pool := buffer.NewBufferPool(dm, 16)
	ctl, err := OpenCatalog(pool, dm, created)
	require.NoError(t, err)
	return ctl, pool
}

func usersSchema() Schema {
	return NewSchema([]Column{
		NewColumn("id", dbtypes.IntegerTypeID),
		NewColumn("name", dbtypes.VarcharTypeID),
	})
}

func insertUser(t *testing.T, info *TableInfo, id int32, name string) {
	t.Helper()
	data, err := EncodeTuple(info.Schema, []*dbtypes.Value{
		dbtypes.NewIntValue(id),
		dbtypes.NewVarcharValue(name),
	})
	require.NoError(t, err)
	_, err = info.Heap.Insert(data)
	require.NoError(t, err)
}

func TestCreateTable_Should_Register_Table(t *testing.T) {
	ctl, _ := newTestCatalog(t)

	info, err := ctl.CreateTable("users", usersSchema())
	require.NoError(t, err)
	assert.Equal(t, "users", info.Name)
	assert.Equal(t, 2, info.Schema.ColumnCount())

	resolved, err := ctl.Resolve("users")
	require.NoError(t, err)
	assert.Same(t, info, resolved)

	_, err = ctl.CreateTable("users", usersSchema())
	assert.ErrorIs(t, err, ErrTableExists)
}

func TestResolve_Should_Fail_For_Unknown_Table(t *testing.T) {
	ctl, _ := newTestCatalog(t)

	_, err := ctl.Resolve("missing")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestCreateIndex_Should_Populate_From_Existing_Rows(t *testing.T) {
	ctl, _ := newTestCatalog(t)
	info, err := ctl.CreateTable("users", usersSchema())
	require.NoError(t, err)

	insertUser(t, info, 1, "Alice")
	insertUser(t, info, 2, "Bob")
	insertUser(t, info, 3, "Charlie")

	ix, err := ctl.CreateIndex("users", "id", "idx_users_id")
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Len())

	rids := ix.Lookup(dbtypes.NewIntValue(2))
	require.Len(t, rids, 1)
	data, err := info.Heap.Get(rids[0])
	require.NoError(t, err)
	values := DecodeTuple(info.Schema, data)
	assert.Equal(t, int32(2), values[0].AsInt())
	assert.Equal(t, "Bob", values[1].AsVarchar())
}

func TestCreateIndex_Should_Reject_Duplicates_And_Bad_Columns(t *testing.T) {
	ctl, _ := newTestCatalog(t)
	_, err := ctl.CreateTable("users", usersSchema())
	require.NoError(t, err)

	_, err = ctl.CreateIndex("users", "id", "idx_users_id")
	require.NoError(t, err)

	_, err = ctl.CreateIndex("users", "id", "idx_users_id_2")
	assert.ErrorIs(t, err, ErrIndexExists)

	_, err = ctl.CreateIndex("users", "name", "idx_users_id")
	assert.ErrorIs(t, err, ErrIndexExists)

	_, err = ctl.CreateIndex("users", "age", "idx_users_age")
	assert.ErrorIs(t, err, ErrColumnNotFound)

	_, err = ctl.CreateIndex("missing", "id", "idx_id")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestDropIndex_Should_Unregister(t *testing.T) {
	ctl, _ := newTestCatalog(t)
	info, err := ctl.CreateTable("users", usersSchema())
	require.NoError(t, err)

	_, err = ctl.CreateIndex("users", "id", "idx_users_id")
	require.NoError(t, err)
	require.NotNil(t, info.IndexOn("id"))

	require.NoError(t, ctl.DropIndex("users", "idx_users_id"))
	assert.Nil(t, info.IndexOn("id"))

	assert.ErrorIs(t, ctl.DropIndex("users", "idx_users_id"), ErrIndexNotFound)
}

func TestDropTable_Should_Remove_Table(t *testing.T) {
	ctl, _ := newTestCatalog(t)
	info, err := ctl.CreateTable("users", usersSchema())
	require.NoError(t, err)
	insertUser(t, info, 1, "Alice")

	require.NoError(t, ctl.DropTable("users"))

	_, err = ctl.Resolve("users")
	assert.ErrorIs(t, err, ErrTableNotFound)

	assert.ErrorIs(t, ctl.DropTable("users"), ErrTableNotFound)
}

func TestTables_Should_List_Sorted_Names(t *testing.T) {
	ctl, _ := newTestCatalog(t)
	for _, name := range []string{"orders", "users", "items"} {
		_, err := ctl.CreateTable(name, usersSchema())
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"items", "orders", "users"}, ctl.Tables())
}

func TestCatalog_Should_Survive_Reopen(t *testing.T) {
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	dm, created, err := disk.NewDiskManager(dbName)
	require.NoError(t, err)
	pool := buffer.NewBufferPool(dm, 16)
	ctl, err := OpenCatalog(pool, dm, created)
	require.NoError(t, err)

	info, err := ctl.CreateTable("users", usersSchema())
	require.NoError(t, err)
	insertUser(t, info, 1, "Alice")
	insertUser(t, info, 2, "Bob")
	_, err = ctl.CreateIndex("users", "id", "idx_users_id")
	require.NoError(t, err)

	require.NoError(t, pool.FlushAll())
	require.NoError(t, dm.Close())

	dm2, created, err := disk.NewDiskManager(dbName)
	require.NoError(t, err)
	require.False(t, created)
	defer dm2.Close()

	pool2 := buffer.NewBufferPool(dm2, 16)
	ctl2, err := OpenCatalog(pool2, dm2, created)
	require.NoError(t, err)

	info2, err := ctl2.Resolve("users")
	require.NoError(t, err)
	assert.Equal(t, info.Schema.GetColumns(), info2.Schema.GetColumns())

	// index contents are rebuilt from the heap
	ix := info2.IndexOn("id")
	require.NotNil(t, ix)
	assert.Equal(t, "idx_users_id", ix.Name)
	assert.Equal(t, 2, ix.Len())

	rids := ix.Lookup(dbtypes.NewIntValue(2))
	require.Len(t, rids, 1)
	data, err := info2.Heap.Get(rids[0])
	require.NoError(t, err)
	values := DecodeTuple(info2.Schema, data)
	assert.Equal(t, "Bob", values[1].AsVarchar())
}

func TestCatalog_Should_Persist_Large_Metadata_Across_Pages(t *testing.T) {
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer os.Remove(dbName)

	dm, created, err := disk.NewDiskManager(dbName)
	require.NoError(t, err)
	pool := buffer.NewBufferPool(dm, 64)
	ctl, err := OpenCatalog(pool, dm, created)
	require.NoError(t, err)

	// enough tables that the encoded catalog spills past a single page
	schema := usersSchema()
	n := 400
	for i := 0; i < n; i++ {
		_, err := ctl.CreateTable(fmt.Sprintf("table_with_a_long_descriptive_name_%05d", i), schema)
		require.NoError(t, err)
	}

	require.NoError(t, pool.FlushAll())
	require.NoError(t, dm.Close())

	dm2, created, err := disk.NewDiskManager(dbName)
	require.NoError(t, err)
	defer dm2.Close()
	pool2 := buffer.NewBufferPool(dm2, 64)
	ctl2, err := OpenCatalog(pool2, dm2, created)
	require.NoError(t, err)

	assert.Len(t, ctl2.Tables(), n)
}
