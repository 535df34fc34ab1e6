// CLAUDE:SUMMARY SQLite database holding the normalised parameters, stations and results tables (modernc driver, WAL).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/hazyhaar/storet-normalizer/pkg/storet"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned by Create when the database file is already there.
	ErrExists = errors.New("database already exists")
)

// Store wraps a SQLite database with the normalised STORET schema.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the SQLite database at path. The schema is not
// touched; use CreateTables for a fresh load.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// OpenExisting opens the database at path without creating it.
func OpenExisting(path string) (*Store, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("open %s: is a directory", path)
	}
	return Open(path)
}

// Create opens a new database at path. An existing file is an ErrExists
// unless force is set, in which case it is removed along with its WAL files.
func Create(path string, force bool) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		if !force {
			return nil, fmt.Errorf("%s: %w", path, ErrExists)
		}
		for _, p := range []string{path, path + "-wal", path + "-shm"} {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("remove %s: %w", p, err)
			}
		}
	}
	return Open(path)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// CreateTables drops and recreates the three tables.
func (s *Store) CreateTables(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, storet.TablesDDL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// CreateIndexes creates the query indexes. Idempotent.
func (s *Store) CreateIndexes(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, storet.IndexesDDL); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Indexes lists the idx_ indexes present in the database.
func (s *Store) Indexes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx\_%' ESCAPE '\' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
