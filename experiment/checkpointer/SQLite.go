package checkpointer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a Store keeping Records in an SQLite database
type SQLite struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLite returns a new SQLite Store using the database file at
// path. The Store must be initialized with Init before use.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

// Init opens the database and creates its tables
func (s *SQLite) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("init: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("init: %w", err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("init: %w", err)
	}

	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			variant TEXT NOT NULL,
			epoch INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS checkpoints_run ON checkpoints (run_id, epoch);
	`)
	return err
}

func (s *SQLite) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

// Save saves a Record, replacing any Record with the same ID
func (s *SQLite) Save(ctx context.Context, r Record) error {
	db, err := s.getDB()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO checkpoints (id, run_id, variant, epoch, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			variant = excluded.variant,
			epoch = excluded.epoch,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, r.ID, r.RunID, r.Variant, r.Epoch, r.CreatedAt.Format(time.RFC3339Nano),
		payload)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Load returns the Record with the given ID
func (s *SQLite) Load(ctx context.Context, id string) (Record, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Record{}, false, fmt.Errorf("load: %w", err)
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM checkpoints WHERE id = ?`,
		id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("load: %w", err)
	}

	var r Record
	if err := json.Unmarshal(payload, &r); err != nil {
		return Record{}, false, fmt.Errorf("load: decode %v: %w", id, err)
	}
	return r, true, nil
}

// List returns the Records of a run ordered by epoch
func (s *SQLite) List(ctx context.Context, runID string) ([]Record, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT payload FROM checkpoints WHERE run_id = ?
		ORDER BY epoch, created_at
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		var r Record
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}

// Close closes the database
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
