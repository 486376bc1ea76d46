package storage

import "fmt"

// ErrNoTable represents an access to a table that does not exist.
type ErrNoTable struct {
	Name string
}

func (e *ErrNoTable) Error() string {
	return fmt.Sprintf("table %q does not exist", e.Name)
}

// ErrTableExists represents an attempt to create or rename over an
// existing table.
type ErrTableExists struct {
	Name string
}

func (e *ErrTableExists) Error() string {
	return fmt.Sprintf("table %q already exists", e.Name)
}

// ErrNoColumn represents an access to an unknown column.
type ErrNoColumn struct {
	Column string
}

func (e *ErrNoColumn) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

// ErrRowRange represents a row index outside the table.
type ErrRowRange struct {
	Index  int
	Length int
}

func (e *ErrRowRange) Error() string {
	return fmt.Sprintf("row index %d out of range (table has %d rows)", e.Index, e.Length)
}

// ErrNoBlob represents an access to a blob index outside the blob store.
type ErrNoBlob struct {
	Index int
}

func (e *ErrNoBlob) Error() string {
	return fmt.Sprintf("blob index %d out of range", e.Index)
}
