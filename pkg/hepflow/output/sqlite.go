package output

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteContainer persists results to SQLite, one JSON document per entry.
// It is suitable for single-process production use and for inspecting the
// output of earlier jobs.
type SQLiteContainer struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteContainer opens (or creates) a SQLite result file.
// The path should be a file path (e.g., "./results.db") or ":memory:" for testing.
func NewSQLiteContainer(path string) (*SQLiteContainer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A :memory: database is per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			name TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			created_at TEXT NOT NULL,
			data BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create entries table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS summaries (
			run_id TEXT PRIMARY KEY,
			finished_at TEXT NOT NULL,
			data BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create summaries table: %w", err)
	}

	return &SQLiteContainer{db: db}, nil
}

// PutHistogram implements Container.
func (s *SQLiteContainer) PutHistogram(h Histogram) error {
	if err := h.Validate(); err != nil {
		return err
	}
	return s.put(h.Name, KindHistogram, h)
}

// PutCutflow implements Container.
func (s *SQLiteContainer) PutCutflow(c Cutflow) error {
	return s.put(c.Name, KindCutflow, c)
}

func (s *SQLiteContainer) put(name string, kind EntryKind, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", kind, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrContainerClosed
	}

	res, err := s.db.Exec(`
		INSERT INTO entries (name, kind, created_at, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, string(kind), time.Now().UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", kind, name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save %s %s: %w", kind, name, err)
	}
	if n == 0 {
		return ErrDuplicateEntry
	}
	return nil
}

// PutSummary implements Container.
func (s *SQLiteContainer) PutSummary(sum Summary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrContainerClosed
	}

	res, err := s.db.Exec(`
		INSERT INTO summaries (run_id, finished_at, data)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`, sum.RunID, sum.FinishedAt.UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicateEntry
	}
	return nil
}

// Entries implements Reader.
func (s *SQLiteContainer) Entries() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrContainerClosed
	}

	rows, err := s.db.Query(`SELECT name, kind FROM entries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.Name, &kind); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = EntryKind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Histogram implements Reader.
func (s *SQLiteContainer) Histogram(name string) (Histogram, error) {
	var h Histogram
	err := s.load(name, KindHistogram, &h)
	return h, err
}

// Cutflow implements Reader.
func (s *SQLiteContainer) Cutflow(name string) (Cutflow, error) {
	var c Cutflow
	err := s.load(name, KindCutflow, &c)
	return c, err
}

func (s *SQLiteContainer) load(name string, kind EntryKind, into any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrContainerClosed
	}

	var data []byte
	err := s.db.QueryRow(`
		SELECT data FROM entries
		WHERE name = ? AND kind = ?
	`, name, string(kind)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load %s %s: %w", kind, name, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decode %s %s: %w", kind, name, err)
	}
	return nil
}

// Summaries implements Reader. Summaries are ordered by finish time.
func (s *SQLiteContainer) Summaries() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrContainerClosed
	}

	rows, err := s.db.Query(`SELECT data FROM summaries ORDER BY finished_at`)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		var sum Summary
		if err := json.Unmarshal(data, &sum); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}

// Close implements Container.
func (s *SQLiteContainer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
