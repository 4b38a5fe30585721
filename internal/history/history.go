package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps one row per feed load attempt. It never stores petitions.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS loads (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			at        INTEGER NOT NULL,
			source_id INTEGER NOT NULL,
			url       TEXT NOT NULL DEFAULT '',
			ok        INTEGER NOT NULL,
			count     INTEGER NOT NULL DEFAULT 0,
			error     TEXT NOT NULL DEFAULT '',
			took_ms   INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_loads_at ON loads(at DESC);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (s *Store) Record(e Entry) error {
	ok := 0
	if e.OK {
		ok = 1
	}
	_, err := s.writeDB.Exec(`
		INSERT INTO loads (at, source_id, url, ok, count, error, took_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.At.UnixNano(), e.SourceID, e.URL, ok, e.Count, e.Error, e.Took.Milliseconds())
	if err != nil {
		return fmt.Errorf("recording load: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.readDB.Query(`
		SELECT at, source_id, url, ok, count, error, took_ms
		FROM loads ORDER BY at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			at     int64
			ok     int
			tookMS int64
		)
		if err := rows.Scan(&at, &e.SourceID, &e.URL, &ok, &e.Count, &e.Error, &tookMS); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		e.At = time.Unix(0, at)
		e.OK = ok == 1
		e.Took = time.Duration(tookMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than olderThan and returns how many went.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UnixNano()
	res, err := s.writeDB.Exec(`DELETE FROM loads WHERE at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.writeDB.Exec(`VACUUM`)
	}
	return n, nil
}

// Stats reports the number of entries and the size of the file at dbPath.
func (s *Store) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := s.readDB.QueryRow(`SELECT COUNT(*) FROM loads`).Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting history: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("stat %s: %w", dbPath, err)
	}
	return count, info.Size(), nil
}
