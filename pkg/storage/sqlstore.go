package storage

import (
	"fmt"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
)

// ConnectToDatabase opens a MySQL connection for a SQL-backed store.
func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// SQLStore is the MySQL production backend. Each logical event table maps
// to one SQL table keyed by row_id; RENAME TABLE provides the atomic swap
// the pipeline relies on when publishing results.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func quoteName(name string) (string, error) {
	if !validName.MatchString(name) {
		return "", &ErrNoTable{Name: name}
	}
	return "`" + name + "`", nil
}

// sqlColumns maps a logical column to its SQL columns.
var sqlColumns = map[string][]string{
	"event_id":     {"event_id"},
	"timestamp":    {"ts"},
	"baseline":     {"b1", "b2", "b3", "b4"},
	"pulseheights": {"ph1", "ph2", "ph3", "ph4"},
	"integrals":    {"it1", "it2", "it3", "it4"},
	"traces":       {"tr1", "tr2", "tr3", "tr4"},
	"t1":           {"t1"}, "t2": {"t2"}, "t3": {"t3"}, "t4": {"t4"},
	"n1": {"n1"}, "n2": {"n2"}, "n3": {"n3"}, "n4": {"n4"},
}

const createTableColumns = `
	row_id INT NOT NULL,
	event_id INT UNSIGNED NOT NULL DEFAULT 0,
	ts BIGINT UNSIGNED NOT NULL DEFAULT 0,
	b1 INT NOT NULL DEFAULT 0, b2 INT NOT NULL DEFAULT 0,
	b3 INT NOT NULL DEFAULT 0, b4 INT NOT NULL DEFAULT 0,
	ph1 INT NOT NULL DEFAULT 0, ph2 INT NOT NULL DEFAULT 0,
	ph3 INT NOT NULL DEFAULT 0, ph4 INT NOT NULL DEFAULT 0,
	it1 INT NOT NULL DEFAULT 0, it2 INT NOT NULL DEFAULT 0,
	it3 INT NOT NULL DEFAULT 0, it4 INT NOT NULL DEFAULT 0,
	tr1 INT NOT NULL DEFAULT -1, tr2 INT NOT NULL DEFAULT -1,
	tr3 INT NOT NULL DEFAULT -1, tr4 INT NOT NULL DEFAULT -1,
	t1 DOUBLE NOT NULL DEFAULT -999, t2 DOUBLE NOT NULL DEFAULT -999,
	t3 DOUBLE NOT NULL DEFAULT -999, t4 DOUBLE NOT NULL DEFAULT -999,
	n1 DOUBLE NOT NULL DEFAULT 0, n2 DOUBLE NOT NULL DEFAULT 0,
	n3 DOUBLE NOT NULL DEFAULT 0, n4 DOUBLE NOT NULL DEFAULT 0,
	PRIMARY KEY (row_id)`

type sqlEvent struct {
	RowID     int    `db:"row_id"`
	EventID   uint32 `db:"event_id"`
	Timestamp uint64 `db:"ts"`

	B1 int32 `db:"b1"`
	B2 int32 `db:"b2"`
	B3 int32 `db:"b3"`
	B4 int32 `db:"b4"`

	Ph1 int32 `db:"ph1"`
	Ph2 int32 `db:"ph2"`
	Ph3 int32 `db:"ph3"`
	Ph4 int32 `db:"ph4"`

	It1 int32 `db:"it1"`
	It2 int32 `db:"it2"`
	It3 int32 `db:"it3"`
	It4 int32 `db:"it4"`

	Tr1 int32 `db:"tr1"`
	Tr2 int32 `db:"tr2"`
	Tr3 int32 `db:"tr3"`
	Tr4 int32 `db:"tr4"`

	T1 float64 `db:"t1"`
	T2 float64 `db:"t2"`
	T3 float64 `db:"t3"`
	T4 float64 `db:"t4"`

	N1 float64 `db:"n1"`
	N2 float64 `db:"n2"`
	N3 float64 `db:"n3"`
	N4 float64 `db:"n4"`
}

func (r sqlEvent) toEvent() Event {
	return Event{
		EventID:      r.EventID,
		Timestamp:    r.Timestamp,
		Baseline:     [NDetectors]int32{r.B1, r.B2, r.B3, r.B4},
		Pulseheights: [NDetectors]int32{r.Ph1, r.Ph2, r.Ph3, r.Ph4},
		Integrals:    [NDetectors]int32{r.It1, r.It2, r.It3, r.It4},
		Traces:       [NDetectors]int32{r.Tr1, r.Tr2, r.Tr3, r.Tr4},
		T:            [NDetectors]float64{r.T1, r.T2, r.T3, r.T4},
		N:            [NDetectors]float64{r.N1, r.N2, r.N3, r.N4},
	}
}

func fromEvent(rowID int, ev Event) sqlEvent {
	return sqlEvent{
		RowID:     rowID,
		EventID:   ev.EventID,
		Timestamp: ev.Timestamp,
		B1:        ev.Baseline[0], B2: ev.Baseline[1], B3: ev.Baseline[2], B4: ev.Baseline[3],
		Ph1: ev.Pulseheights[0], Ph2: ev.Pulseheights[1], Ph3: ev.Pulseheights[2], Ph4: ev.Pulseheights[3],
		It1: ev.Integrals[0], It2: ev.Integrals[1], It3: ev.Integrals[2], It4: ev.Integrals[3],
		Tr1: ev.Traces[0], Tr2: ev.Traces[1], Tr3: ev.Traces[2], Tr4: ev.Traces[3],
		T1: ev.T[0], T2: ev.T[1], T3: ev.T[2], T4: ev.T[3],
		N1: ev.N[0], N2: ev.N[1], N3: ev.N[2], N4: ev.N[3],
	}
}

func (s *SQLStore) Table(name string) (Table, error) {
	if !s.HasTable(name) {
		return nil, &ErrNoTable{Name: name}
	}
	return &sqlTable{store: s, name: name}, nil
}

func (s *SQLStore) HasTable(name string) bool {
	var count int
	err := s.db.Get(&count,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
		name)
	return err == nil && count > 0
}

func (s *SQLStore) CreateTable(name string, expectedRows int) (Table, error) {
	if s.HasTable(name) {
		return nil, &ErrTableExists{Name: name}
	}
	quoted, err := quoteName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoted, createTableColumns)); err != nil {
		return nil, err
	}
	return &sqlTable{store: s, name: name}, nil
}

func (s *SQLStore) RenameTable(oldName, newName string) error {
	if !s.HasTable(oldName) {
		return &ErrNoTable{Name: oldName}
	}
	if s.HasTable(newName) {
		return &ErrTableExists{Name: newName}
	}
	oldQuoted, err := quoteName(oldName)
	if err != nil {
		return err
	}
	newQuoted, err := quoteName(newName)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf("RENAME TABLE %s TO %s", oldQuoted, newQuoted))
	return err
}

func (s *SQLStore) RemoveTable(name string) error {
	if !s.HasTable(name) {
		return &ErrNoTable{Name: name}
	}
	quoted, err := quoteName(name)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf("DROP TABLE %s", quoted))
	return err
}

// EnsureBlobTable creates the trace blob table if it does not exist.
func (s *SQLStore) EnsureBlobTable() error {
	_, err := s.db.Exec(
		"CREATE TABLE IF NOT EXISTS blobs (idx INT NOT NULL, data MEDIUMBLOB NOT NULL, PRIMARY KEY (idx))")
	return err
}

func (s *SQLStore) Blob(idx int) ([]byte, error) {
	var data []byte
	err := s.db.Get(&data, "SELECT data FROM blobs WHERE idx = ?", idx)
	if err != nil {
		return nil, &ErrNoBlob{Index: idx}
	}
	return data, nil
}

type sqlTable struct {
	store *SQLStore
	name  string
}

func (t *sqlTable) Name() string {
	return t.name
}

func (t *sqlTable) quoted() string {
	quoted, _ := quoteName(t.name)
	return quoted
}

func (t *sqlTable) Len() int {
	var count int
	err := t.store.db.Get(&count, fmt.Sprintf("SELECT COUNT(*) FROM %s", t.quoted()))
	if err != nil {
		return 0
	}
	return count
}

func (t *sqlTable) Row(idx int) (Event, error) {
	var row sqlEvent
	err := t.store.db.Get(&row,
		fmt.Sprintf("SELECT * FROM %s WHERE row_id = ?", t.quoted()), idx)
	if err != nil {
		return Event{}, &ErrRowRange{Index: idx, Length: t.Len()}
	}
	return row.toEvent(), nil
}

func (t *sqlTable) Rows(stop int) ([]Event, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY row_id", t.quoted())
	args := []interface{}{}
	if stop > 0 {
		query += " LIMIT ?"
		args = append(args, stop)
	}
	var rows []sqlEvent
	if err := t.store.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	events := make([]Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEvent()
	}
	return events, nil
}

func (t *sqlTable) RowSequence(indexes []int) ([]Event, error) {
	events := make([]Event, len(indexes))
	for j, idx := range indexes {
		ev, err := t.Row(idx)
		if err != nil {
			return nil, err
		}
		events[j] = ev
	}
	return events, nil
}

func (t *sqlTable) AppendEmpty(n int) error {
	start := t.Len()
	for i := 0; i < n; i++ {
		_, err := t.store.db.Exec(
			fmt.Sprintf("INSERT INTO %s (row_id) VALUES (?)", t.quoted()), start+i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *sqlTable) UpdateRow(idx int, ev Event) error {
	row := fromEvent(idx, ev)
	query := fmt.Sprintf(`UPDATE %s SET
		event_id = :event_id, ts = :ts,
		b1 = :b1, b2 = :b2, b3 = :b3, b4 = :b4,
		ph1 = :ph1, ph2 = :ph2, ph3 = :ph3, ph4 = :ph4,
		it1 = :it1, it2 = :it2, it3 = :it3, it4 = :it4,
		tr1 = :tr1, tr2 = :tr2, tr3 = :tr3, tr4 = :tr4,
		t1 = :t1, t2 = :t2, t3 = :t3, t4 = :t4,
		n1 = :n1, n2 = :n2, n3 = :n3, n4 = :n4
		WHERE row_id = :row_id`, t.quoted())
	_, err := t.store.db.NamedExec(query, row)
	return err
}

func (t *sqlTable) ReadFloats(column string, stop int) ([]float64, error) {
	if _, _, err := floatColumn(column); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY row_id", column, t.quoted())
	args := []interface{}{}
	if stop > 0 {
		query += " LIMIT ?"
		args = append(args, stop)
	}
	var values []float64
	if err := t.store.db.Select(&values, query, args...); err != nil {
		return nil, err
	}
	return values, nil
}

func (t *sqlTable) WriteFloats(column string, values []float64) error {
	if _, _, err := floatColumn(column); err != nil {
		return err
	}
	for i, v := range values {
		_, err := t.store.db.Exec(
			fmt.Sprintf("UPDATE %s SET %s = ? WHERE row_id = ?", t.quoted(), column), v, i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *sqlTable) CopyColumnFrom(src Table, column string, limit int) error {
	cols, ok := sqlColumns[column]
	if !ok {
		return &ErrNoColumn{Column: column}
	}
	srcSQL, isSQL := src.(*sqlTable)
	if !isSQL {
		return t.copyColumnByRow(src, column, limit)
	}
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("d.%s = s.%s", col, col)
	}
	query := fmt.Sprintf("UPDATE %s d JOIN %s s USING (row_id) SET %s",
		t.quoted(), srcSQL.quoted(), strings.Join(assignments, ", "))
	args := []interface{}{}
	if limit > 0 {
		query += " WHERE d.row_id < ?"
		args = append(args, limit)
	}
	_, err := t.store.db.Exec(query, args...)
	return err
}

func (t *sqlTable) copyColumnByRow(src Table, column string, limit int) error {
	n := src.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	rows, err := src.Rows(n)
	if err != nil {
		return err
	}
	for i, srcRow := range rows {
		dst, err := t.Row(i)
		if err != nil {
			return err
		}
		if err := copyColumnValue(&dst, srcRow, column); err != nil {
			return err
		}
		if err := t.UpdateRow(i, dst); err != nil {
			return err
		}
	}
	return nil
}

func (t *sqlTable) CopyColumnAt(src Table, column string, indexes []int) error {
	rows, err := src.RowSequence(indexes)
	if err != nil {
		return err
	}
	for j, srcRow := range rows {
		dst, err := t.Row(j)
		if err != nil {
			return err
		}
		if err := copyColumnValue(&dst, srcRow, column); err != nil {
			return err
		}
		if err := t.UpdateRow(j, dst); err != nil {
			return err
		}
	}
	return nil
}

func (t *sqlTable) Flush() error {
	return nil
}
