package storage

import (
	"slices"
	"sync"

	"golang.org/x/exp/maps"
)

// MemStore is the in-memory reference backend. It backs all pipeline
// tests and small interactive runs; the MySQL backend is used for
// production data sets.
type MemStore struct {
	mu     sync.Mutex
	tables map[string]*MemTable
	blobs  [][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{tables: make(map[string]*MemTable)}
}

// AddBlob appends a compressed trace blob and returns its index.
func (s *MemStore) AddBlob(data []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs = append(s.blobs, data)
	return len(s.blobs) - 1
}

func (s *MemStore) Blob(idx int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.blobs) {
		return nil, &ErrNoBlob{Index: idx}
	}
	return s.blobs[idx], nil
}

func (s *MemStore) Table(name string) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.tables[name]
	if !ok {
		return nil, &ErrNoTable{Name: name}
	}
	return table, nil
}

func (s *MemStore) HasTable(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tables[name]
	return ok
}

func (s *MemStore) CreateTable(name string, expectedRows int) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; ok {
		return nil, &ErrTableExists{Name: name}
	}
	table := &MemTable{name: name, events: make([]Event, 0, expectedRows)}
	s.tables[name] = table
	return table, nil
}

func (s *MemStore) RenameTable(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.tables[oldName]
	if !ok {
		return &ErrNoTable{Name: oldName}
	}
	if _, ok := s.tables[newName]; ok {
		return &ErrTableExists{Name: newName}
	}
	delete(s.tables, oldName)
	table.name = newName
	s.tables[newName] = table
	return nil
}

func (s *MemStore) RemoveTable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; !ok {
		return &ErrNoTable{Name: name}
	}
	delete(s.tables, name)
	return nil
}

// TableNames returns the existing table names, sorted.
func (s *MemStore) TableNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := maps.Keys(s.tables)
	slices.Sort(names)
	return names
}

// MemTable is an in-memory event table.
type MemTable struct {
	mu     sync.Mutex
	name   string
	events []Event
}

func (t *MemTable) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

func (t *MemTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

func (t *MemTable) Row(idx int) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.events) {
		return Event{}, &ErrRowRange{Index: idx, Length: len(t.events)}
	}
	return t.events[idx], nil
}

func (t *MemTable) Rows(stop int) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if stop <= 0 || stop > len(t.events) {
		stop = len(t.events)
	}
	rows := make([]Event, stop)
	copy(rows, t.events[:stop])
	return rows, nil
}

func (t *MemTable) RowSequence(indexes []int) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := make([]Event, len(indexes))
	for j, idx := range indexes {
		if idx < 0 || idx >= len(t.events) {
			return nil, &ErrRowRange{Index: idx, Length: len(t.events)}
		}
		rows[j] = t.events[idx]
	}
	return rows, nil
}

func (t *MemTable) AppendEmpty(n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < n; i++ {
		t.events = append(t.events, DefaultEvent())
	}
	return nil
}

func (t *MemTable) UpdateRow(idx int, ev Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.events) {
		return &ErrRowRange{Index: idx, Length: len(t.events)}
	}
	t.events[idx] = ev
	return nil
}

func (t *MemTable) ReadFloats(column string, stop int) ([]float64, error) {
	isTime, det, err := floatColumn(column)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if stop <= 0 || stop > len(t.events) {
		stop = len(t.events)
	}
	values := make([]float64, stop)
	for i := 0; i < stop; i++ {
		if isTime {
			values[i] = t.events[i].T[det]
		} else {
			values[i] = t.events[i].N[det]
		}
	}
	return values, nil
}

func (t *MemTable) WriteFloats(column string, values []float64) error {
	isTime, det, err := floatColumn(column)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(values) > len(t.events) {
		return &ErrRowRange{Index: len(values) - 1, Length: len(t.events)}
	}
	for i, v := range values {
		if isTime {
			t.events[i].T[det] = v
		} else {
			t.events[i].N[det] = v
		}
	}
	return nil
}

func (t *MemTable) CopyColumnFrom(src Table, column string, limit int) error {
	n := src.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	if n > t.Len() {
		n = t.Len()
	}
	rows, err := src.Rows(n)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, row := range rows {
		if err := copyColumnValue(&t.events[i], row, column); err != nil {
			return err
		}
	}
	return nil
}

func (t *MemTable) CopyColumnAt(src Table, column string, indexes []int) error {
	rows, err := src.RowSequence(indexes)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(rows) > len(t.events) {
		return &ErrRowRange{Index: len(rows) - 1, Length: len(t.events)}
	}
	for j, row := range rows {
		if err := copyColumnValue(&t.events[j], row, column); err != nil {
			return err
		}
	}
	return nil
}

func (t *MemTable) Flush() error {
	return nil
}
