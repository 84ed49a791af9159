package pages

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimbusdb/disk"
)

func newSlottedPageTestInstance() SlottedPage {
	return InitSlottedPage(NewRawPage(1))
}

func TestInsert_Tuple(t *testing.T) {
	p := newSlottedPageTestInstance()
	toInsert := []byte("nimbus tuple")

	idx, err := p.InsertTuple(toInsert)
	require.NoError(t, err)

	assert.Equal(t, 1, p.SlotCount())
	assert.Equal(t, toInsert, p.GetTuple(idx))
	assert.Equal(t, SlotLive, p.GetSlot(idx).Flags)
}

func TestAll_Inserted_Should_Be_Found(t *testing.T) {
	p := newSlottedPageTestInstance()
	n := 100
	for i := 0; i < n; i++ {
		_, err := p.InsertTuple([]byte(fmt.Sprintf("nimbus_tuple_%v", i)))
		require.NoError(t, err)
	}
	assert.Equal(t, n, p.SlotCount())

	for i := 0; i < n; i++ {
		assert.Equal(t, []byte(fmt.Sprintf("nimbus_tuple_%v", i)), p.GetTuple(i))
	}
}

func TestInsert_Tuple_Should_Return_Error_When_There_Is_Not_Enough_Space_Left(t *testing.T) {
	p := newSlottedPageTestInstance()
	toInsert := make([]byte, p.GetFreeSpace()/3)

	_, err := p.InsertTuple(toInsert)
	assert.NoError(t, err)
	_, err = p.InsertTuple(toInsert)
	assert.NoError(t, err)

	_, err = p.InsertTuple(toInsert)
	assert.ErrorIs(t, err, ErrNotEnoughSpace)
}

func TestInsert_Tuple_Should_Return_Error_When_Tuple_Can_Never_Fit(t *testing.T) {
	p := newSlottedPageTestInstance()

	_, err := p.InsertTuple(make([]byte, MaxTupleSize+1))
	assert.ErrorIs(t, err, ErrTupleTooLarge)
}

func TestDeleted_Slot_Should_Be_Reused_By_Later_Inserts(t *testing.T) {
	p := newSlottedPageTestInstance()
	idx1, err := p.InsertTuple([]byte("first tuple"))
	require.NoError(t, err)
	_, err = p.InsertTuple([]byte("second tuple"))
	require.NoError(t, err)

	p.DeleteTuple(idx1)
	assert.Equal(t, SlotTombstone, p.GetSlot(idx1).Flags)
	assert.Nil(t, p.GetTuple(idx1))

	idx3, err := p.InsertTuple([]byte("third tuple"))
	require.NoError(t, err)
	assert.Equal(t, idx1, idx3)
	assert.Equal(t, 2, p.SlotCount())
}

func TestVacuum_Should_Reclaim_Space_Freed_By_Deletes(t *testing.T) {
	p := newSlottedPageTestInstance()
	big := p.GetFreeSpace()/2 - SlotArrayEntrySize

	idx1, err := p.InsertTuple(make([]byte, big))
	require.NoError(t, err)
	_, err = p.InsertTuple(make([]byte, big))
	require.NoError(t, err)

	p.DeleteTuple(idx1)

	// contiguous free space is still tiny, but insert vacuums and succeeds
	_, err = p.InsertTuple(make([]byte, big))
	assert.NoError(t, err)
}

func TestVacuum_Should_Keep_Live_Tuples_Intact(t *testing.T) {
	p := newSlottedPageTestInstance()
	n := 20
	for i := 0; i < n; i++ {
		_, err := p.InsertTuple([]byte(fmt.Sprintf("tuple_number_%02d", i)))
		require.NoError(t, err)
	}
	for i := 0; i < n; i += 2 {
		p.DeleteTuple(i)
	}

	p.Vacuum()

	for i := 1; i < n; i += 2 {
		assert.Equal(t, []byte(fmt.Sprintf("tuple_number_%02d", i)), p.GetTuple(i))
	}
}

func TestUpdate_Tuple_In_Place_When_New_Payload_Is_Not_Larger(t *testing.T) {
	p := newSlottedPageTestInstance()
	idx, err := p.InsertTuple([]byte("0123456789abcdef"))
	require.NoError(t, err)

	require.True(t, p.CanUpdateInPlace(idx, 10))
	require.NoError(t, p.UpdateTuple(idx, []byte("0123456789")))
	assert.Equal(t, []byte("0123456789"), p.GetTuple(idx))
}

func TestUpdate_Tuple_Should_Grow_Into_Free_Space(t *testing.T) {
	p := newSlottedPageTestInstance()
	idx, err := p.InsertTuple([]byte("short tuple"))
	require.NoError(t, err)

	grown := make([]byte, 100)
	copy(grown, "grown tuple")
	require.True(t, p.CanUpdateInPlace(idx, len(grown)))
	require.NoError(t, p.UpdateTuple(idx, grown))
	assert.Equal(t, grown, p.GetTuple(idx))
}

func TestUpdate_Tuple_Should_Fail_When_Page_Is_Too_Full(t *testing.T) {
	p := newSlottedPageTestInstance()
	idx, err := p.InsertTuple(make([]byte, 16))
	require.NoError(t, err)
	_, err = p.InsertTuple(make([]byte, p.GetFreeSpace()-SlotArrayEntrySize-32))
	require.NoError(t, err)

	assert.False(t, p.CanUpdateInPlace(idx, 512))
	assert.ErrorIs(t, p.UpdateTuple(idx, make([]byte, 512)), ErrNotEnoughSpace)
	// the slot is untouched after the failed update
	assert.Equal(t, make([]byte, 16), p.GetTuple(idx))
}

func TestForward_Slot_Should_Round_Trip_The_Target_RID(t *testing.T) {
	p := newSlottedPageTestInstance()
	idx, err := p.InsertTuple(make([]byte, 16))
	require.NoError(t, err)

	target := NewRID(7, 3)
	p.SetForward(idx, target)

	assert.Equal(t, SlotForward, p.GetSlot(idx).Flags)
	assert.Equal(t, target, p.GetForward(idx))
}

func TestFreeSpace_Should_Account_For_Header_And_Slot_Array(t *testing.T) {
	p := newSlottedPageTestInstance()
	assert.Equal(t, disk.PageSize-HeaderSize, p.GetFreeSpace())

	_, err := p.InsertTuple(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, disk.PageSize-HeaderSize-SlotArrayEntrySize-10, p.GetFreeSpace())
}
