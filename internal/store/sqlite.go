// Package store persists raw element-set records in SQLite so a catalog can
// be rebuilt without refetching its source files.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/signalsfoundry/satobs/model"
	"github.com/signalsfoundry/satobs/tle"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore keeps every imported record, keyed by catalog number and
// epoch. Records are stored as their source lines and decoded on load.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at dbPath.
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS element_sets (
		norad_id INTEGER NOT NULL,
		epoch TEXT NOT NULL,
		name TEXT,
		line1 TEXT NOT NULL,
		line2 TEXT NOT NULL,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (norad_id, epoch)
	);

	CREATE INDEX IF NOT EXISTS idx_element_sets_epoch ON element_sets(epoch);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string { return s.path }

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// epochKey renders epochs so that string order matches time order.
func epochKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// Save stores the given element sets in one transaction. A record for an
// already stored (catalog number, epoch) pair replaces it. It returns the
// number of rows written.
func (s *SQLiteStore) Save(ctx context.Context, sets []*model.ElementSet) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO element_sets (norad_id, epoch, name, line1, line2)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, es := range sets {
		line1, line2 := es.Source.Line1, es.Source.Line2
		if line1 == "" || line2 == "" {
			if line1, line2, err = tle.Format(es); err != nil {
				return 0, fmt.Errorf("store: encode %s: %w", es.Label(), err)
			}
		}
		if _, err := stmt.ExecContext(ctx, es.CatalogNumber, epochKey(es.Epoch), es.Name, line1, line2); err != nil {
			return 0, fmt.Errorf("store: save %s: %w", es.Label(), err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return n, nil
}

// Latest decodes the newest stored record of every satellite, ordered by
// catalog number.
func (s *SQLiteStore) Latest(ctx context.Context) ([]*model.ElementSet, error) {
	return s.query(ctx, `
		SELECT e.name, e.line1, e.line2 FROM element_sets e
		JOIN (SELECT norad_id, MAX(epoch) AS epoch FROM element_sets GROUP BY norad_id) m
		  ON e.norad_id = m.norad_id AND e.epoch = m.epoch
		ORDER BY e.norad_id
	`)
}

// History decodes every stored record for catalogNumber, oldest first.
func (s *SQLiteStore) History(ctx context.Context, catalogNumber int) ([]*model.ElementSet, error) {
	return s.query(ctx, `
		SELECT name, line1, line2 FROM element_sets
		WHERE norad_id = ? ORDER BY epoch
	`, catalogNumber)
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM element_sets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]*model.ElementSet, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	var (
		sets []*model.ElementSet
		errs []error
	)
	for rows.Next() {
		var (
			name         sql.NullString
			line1, line2 string
		)
		if err := rows.Scan(&name, &line1, &line2); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		es, err := tle.Parse(name.String, line1, line2)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sets = append(sets, es)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}
	return sets, errors.Join(errs...)
}
