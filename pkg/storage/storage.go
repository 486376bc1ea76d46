// Package storage defines the table and blob store contract used by the
// event processing pipeline, together with an in-memory reference backend
// and a MySQL backend.
package storage

// NDetectors is the number of detectors in one station.
const NDetectors = 4

// NoDataTime is the value stored in a timing column when no arrival time
// could be reconstructed for that detector.
const NoDataTime = -999.0

// Event is one row of an events table.
type Event struct {
	EventID      uint32
	Timestamp    uint64
	Baseline     [NDetectors]int32
	Pulseheights [NDetectors]int32
	Integrals    [NDetectors]int32
	// Traces holds per-detector indexes into the blob store. A negative
	// index means no trace was recorded for that detector.
	Traces [NDetectors]int32
	// T holds arrival times in nanoseconds, NoDataTime when absent.
	T [NDetectors]float64
	// N holds estimated particle counts.
	N [NDetectors]float64
}

// DefaultEvent returns an empty event with the timing columns set to the
// no-data value.
func DefaultEvent() Event {
	var ev Event
	for i := range ev.T {
		ev.T[i] = NoDataTime
		ev.Traces[i] = -1
	}
	return ev
}

// ColumnNames lists the table columns in their canonical order. The
// per-detector vectors (baseline, pulseheights, integrals, traces) are
// single logical columns.
var ColumnNames = []string{
	"event_id", "timestamp",
	"baseline", "pulseheights", "integrals", "traces",
	"t1", "t2", "t3", "t4",
	"n1", "n2", "n3", "n4",
}

// Table is a typed-column event table.
type Table interface {
	Name() string
	Len() int

	Row(idx int) (Event, error)
	// Rows returns the first stop rows, or all rows when stop <= 0.
	Rows(stop int) ([]Event, error)
	// RowSequence returns the rows at the given indexes, in that order.
	RowSequence(indexes []int) ([]Event, error)

	// AppendEmpty appends n default rows.
	AppendEmpty(n int) error
	UpdateRow(idx int, ev Event) error

	// ReadFloats reads a scalar float column (t1..t4, n1..n4), truncated
	// to stop rows when stop > 0.
	ReadFloats(column string, stop int) ([]float64, error)
	WriteFloats(column string, values []float64) error

	// CopyColumnFrom bulk-copies one column from src, truncated to limit
	// rows when limit > 0.
	CopyColumnFrom(src Table, column string, limit int) error
	// CopyColumnAt copies one column for the source rows at indexes; row j
	// of the receiver receives the value of source row indexes[j].
	CopyColumnAt(src Table, column string, indexes []int) error

	// Flush commits pending row mutations.
	Flush() error
}

// Store manages named tables. Rename and Remove are the primitives the
// pipeline uses to publish a finished results table.
type Store interface {
	Table(name string) (Table, error)
	HasTable(name string) bool
	CreateTable(name string, expectedRows int) (Table, error)
	RenameTable(oldName, newName string) error
	RemoveTable(name string) error
}

// BlobStore is a flat store of compressed trace byte sequences,
// addressable by non-negative index.
type BlobStore interface {
	Blob(idx int) ([]byte, error)
}
