package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTable(t *testing.T) {
	store := NewMemStore()

	table, err := store.CreateTable("events", 10)
	require.NoError(t, err)
	assert.Equal(t, "events", table.Name())
	assert.Equal(t, 0, table.Len())
	assert.True(t, store.HasTable("events"))

	_, err = store.CreateTable("events", 10)
	var exists *ErrTableExists
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "events", exists.Name)
}

func TestAppendEmptyDefaults(t *testing.T) {
	store := NewMemStore()
	table, err := store.CreateTable("events", 3)
	require.NoError(t, err)
	require.NoError(t, table.AppendEmpty(3))
	assert.Equal(t, 3, table.Len())

	row, err := table.Row(1)
	require.NoError(t, err)
	for d := 0; d < NDetectors; d++ {
		assert.Equal(t, NoDataTime, row.T[d])
		assert.Equal(t, int32(-1), row.Traces[d])
		assert.Equal(t, 0.0, row.N[d])
	}
}

func TestRowUpdateAndSequence(t *testing.T) {
	store := NewMemStore()
	table, _ := store.CreateTable("events", 5)
	require.NoError(t, table.AppendEmpty(5))

	ev := DefaultEvent()
	ev.EventID = 42
	ev.Pulseheights = [NDetectors]int32{10, 20, 30, 40}
	require.NoError(t, table.UpdateRow(3, ev))

	row, err := table.Row(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), row.EventID)

	rows, err := table.RowSequence([]int{3, 0, 3})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, uint32(42), rows[0].EventID)
	assert.Equal(t, uint32(0), rows[1].EventID)
	assert.Equal(t, uint32(42), rows[2].EventID)

	_, err = table.RowSequence([]int{5})
	var rangeErr *ErrRowRange
	require.ErrorAs(t, err, &rangeErr)
}

func TestRowsStop(t *testing.T) {
	store := NewMemStore()
	table, _ := store.CreateTable("events", 5)
	require.NoError(t, table.AppendEmpty(5))

	rows, err := table.Rows(3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = table.Rows(0)
	require.NoError(t, err)
	assert.Len(t, rows, 5)

	rows, err = table.Rows(100)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestFloatColumns(t *testing.T) {
	store := NewMemStore()
	table, _ := store.CreateTable("events", 4)
	require.NoError(t, table.AppendEmpty(4))

	require.NoError(t, table.WriteFloats("t2", []float64{1, 2, 3, 4}))
	values, err := table.ReadFloats("t2", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, values)

	values, err = table.ReadFloats("t2", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, values)

	_, err = table.ReadFloats("t9", 0)
	var noColumn *ErrNoColumn
	require.ErrorAs(t, err, &noColumn)
	_, err = table.ReadFloats("baseline", 0)
	require.ErrorAs(t, err, &noColumn)
}

func TestCopyColumns(t *testing.T) {
	store := NewMemStore()
	src, _ := store.CreateTable("events", 4)
	require.NoError(t, src.AppendEmpty(4))
	for i := 0; i < 4; i++ {
		ev := DefaultEvent()
		ev.EventID = uint32(i + 1)
		ev.Pulseheights = [NDetectors]int32{int32(100 * (i + 1)), 0, 0, 0}
		require.NoError(t, src.UpdateRow(i, ev))
	}

	dst, _ := store.CreateTable("copy", 2)
	require.NoError(t, dst.AppendEmpty(2))
	require.NoError(t, dst.CopyColumnFrom(src, "pulseheights", 2))
	row, _ := dst.Row(1)
	assert.Equal(t, int32(200), row.Pulseheights[0])

	indexed, _ := store.CreateTable("indexed", 2)
	require.NoError(t, indexed.AppendEmpty(2))
	require.NoError(t, indexed.CopyColumnAt(src, "event_id", []int{3, 1}))
	row, _ = indexed.Row(0)
	assert.Equal(t, uint32(4), row.EventID)
	row, _ = indexed.Row(1)
	assert.Equal(t, uint32(2), row.EventID)
}

func TestRenameAndRemove(t *testing.T) {
	store := NewMemStore()
	table, _ := store.CreateTable("events", 1)
	require.NoError(t, table.AppendEmpty(1))

	require.NoError(t, store.RenameTable("events", "_events"))
	assert.False(t, store.HasTable("events"))
	assert.True(t, store.HasTable("_events"))
	assert.Equal(t, "_events", table.Name())

	_, err := store.CreateTable("events", 1)
	require.NoError(t, err)
	err = store.RenameTable("_events", "events")
	var exists *ErrTableExists
	require.ErrorAs(t, err, &exists)

	require.NoError(t, store.RemoveTable("events"))
	assert.False(t, store.HasTable("events"))

	var noTable *ErrNoTable
	require.ErrorAs(t, store.RemoveTable("events"), &noTable)
	require.ErrorAs(t, store.RenameTable("missing", "x"), &noTable)
}

func TestBlobs(t *testing.T) {
	store := NewMemStore()
	idx := store.AddBlob([]byte("first"))
	assert.Equal(t, 0, idx)
	idx = store.AddBlob([]byte("second"))
	assert.Equal(t, 1, idx)

	data, err := store.Blob(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	var noBlob *ErrNoBlob
	_, err = store.Blob(2)
	require.ErrorAs(t, err, &noBlob)
	_, err = store.Blob(-1)
	require.ErrorAs(t, err, &noBlob)
}
