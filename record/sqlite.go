package record

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run TEXT NOT NULL,
	seq INTEGER NOT NULL,
	function TEXT NOT NULL,
	params JSON NOT NULL
)`

// SQLite stores records in a table, one row per record. Every sink gets a
// fresh run id so several runs can share a database. Rows are written in a
// transaction that Flush commits.
type SQLite struct {
	mu  sync.Mutex
	db  *sql.DB
	tx  *sql.Tx
	ser *Serializer
	run string
	seq int
}

func OpenSQLite(path string, ser *Serializer) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	_, err = db.Exec("PRAGMA busy_timeout = 5000")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	_, err = db.Exec(sqliteSchema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &SQLite{db: db, ser: ser, run: uuid.NewString()}, nil
}

// Run is the id stored with every row of this sink.
func (s *SQLite) Run() string {
	return s.run
}

func (s *SQLite) Write(rec Record) error {
	obj, err := s.ser.Record(rec)
	if err != nil {
		return err
	}
	params, _ := obj.Get("params")
	data, err := EncodeJSON(params)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		s.tx, err = s.db.Begin()
		if err != nil {
			return fmt.Errorf("starting transaction: %w", err)
		}
	}
	_, err = s.tx.Exec(
		"INSERT INTO records (run, seq, function, params) VALUES (?, ?, ?, json(?))",
		s.run, s.seq, rec.Function, string(data),
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	s.seq++
	return nil
}

func (s *SQLite) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	err := s.Flush()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// Functions returns the function column of this run in write order.
func (s *SQLite) Functions() ([]string, error) {
	rows, err := s.db.Query("SELECT function FROM records WHERE run = ? ORDER BY seq", s.run)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var fn string
		if err := rows.Scan(&fn); err != nil {
			return nil, err
		}
		out = append(out, fn)
	}
	return out, rows.Err()
}
