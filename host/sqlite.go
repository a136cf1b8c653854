// SPDX-License-Identifier: MIT

package host

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SnapshotVersion is written with every snapshot and checked on load.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when a snapshot was written by an
// incompatible version.
var ErrSnapshotVersion = errors.New("host: snapshot version mismatch")

// SQLiteSnapshot persists the full contents of a MemoryStore (values,
// formulas and annotations) into a SQLite database file.
type SQLiteSnapshot struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteSnapshot returns a snapshot bound to path. Call Init before use.
func NewSQLiteSnapshot(path string) *SQLiteSnapshot {
	return &SQLiteSnapshot{path: path}
}

// Init opens the database and creates the schema.
func (s *SQLiteSnapshot) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("host: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db

	return nil
}

// Close releases the database handle.
func (s *SQLiteSnapshot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil

	return err
}

func (s *SQLiteSnapshot) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("host: sqlite snapshot is not initialized")
	}

	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS slots (
			name TEXT PRIMARY KEY,
			size INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS cells (
			slot TEXT NOT NULL,
			idx INTEGER NOT NULL,
			value REAL NOT NULL,
			formula BLOB,
			notes BLOB,
			PRIMARY KEY (slot, idx)
		);
	`)

	return err
}

// Save replaces the snapshot with the current contents of store.
func (s *SQLiteSnapshot) Save(ctx context.Context, store Store) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	return store.View(func(r Reader) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		for _, stmt := range []string{`DELETE FROM cells`, `DELETE FROM slots`, `DELETE FROM meta`} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('version', ?)`, SnapshotVersion); err != nil {
			return err
		}

		for _, name := range r.Names() {
			n := r.Len(name)
			if _, err := tx.ExecContext(ctx, `INSERT INTO slots (name, size) VALUES (?, ?)`, name, n); err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				ref := SlotRef{Slot: name, Index: i}
				v, err := r.Value(ref)
				if err != nil {
					return err
				}
				var formula, notes []byte
				if f, ok := r.Formula(ref); ok {
					if formula, err = json.Marshal(f); err != nil {
						return fmt.Errorf("encode formula %s: %w", ref, err)
					}
				}
				if all := r.Annotations(ref); len(all) > 0 {
					if notes, err = json.Marshal(all); err != nil {
						return fmt.Errorf("encode notes %s: %w", ref, err)
					}
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO cells (slot, idx, value, formula, notes) VALUES (?, ?, ?, ?, ?)`,
					name, i, v, formula, notes); err != nil {
					return err
				}
			}
		}

		return tx.Commit()
	})
}

// Load replaces the contents of store with the snapshot.
func (s *SQLiteSnapshot) Load(ctx context.Context, store Store) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	var version int
	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: empty snapshot", ErrSnapshotVersion)
		}
		return err
	}
	if version != SnapshotVersion {
		return fmt.Errorf("%w: got %d want %d", ErrSnapshotVersion, version, SnapshotVersion)
	}

	type cell struct {
		ref     SlotRef
		value   float64
		formula []byte
		notes   []byte
	}
	sizes := make(map[string]int)
	rows, err := db.QueryContext(ctx, `SELECT name, size FROM slots ORDER BY name`)
	if err != nil {
		return err
	}
	var order []string
	for rows.Next() {
		var name string
		var size int
		if err := rows.Scan(&name, &size); err != nil {
			_ = rows.Close()
			return err
		}
		sizes[name] = size
		order = append(order, name)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, `SELECT slot, idx, value, formula, notes FROM cells ORDER BY slot, idx`)
	if err != nil {
		return err
	}
	var cells []cell
	for rows.Next() {
		var c cell
		if err := rows.Scan(&c.ref.Slot, &c.ref.Index, &c.value, &c.formula, &c.notes); err != nil {
			_ = rows.Close()
			return err
		}
		cells = append(cells, c)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	return store.Update(func(tx Tx) error {
		for _, name := range tx.Names() {
			if err := tx.Delete(name); err != nil {
				return err
			}
		}
		for _, name := range order {
			if err := tx.Ensure(name, sizes[name], 0); err != nil {
				return err
			}
		}
		for _, c := range cells {
			if err := tx.SetValue(c.ref, c.value); err != nil {
				return err
			}
			if len(c.formula) > 0 {
				var f Formula
				if err := json.Unmarshal(c.formula, &f); err != nil {
					return fmt.Errorf("decode formula %s: %w", c.ref, err)
				}
				if _, err := tx.SetFormula(c.ref, f); err != nil {
					return err
				}
			}
			if len(c.notes) > 0 {
				var notes map[string]string
				if err := json.Unmarshal(c.notes, &notes); err != nil {
					return fmt.Errorf("decode notes %s: %w", c.ref, err)
				}
				for k, v := range notes {
					if err := tx.Annotate(c.ref, k, v); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}
