package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/okian/candirank/internal/domain/model"

	_ "modernc.org/sqlite"
)

// Record kinds stored in the journal's records table.
const (
	KindSkill     = "skill"
	KindPosition  = "position"
	KindCandidate = "candidate"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS evaluations (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	payload    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (kind, id)
);`

// Journal persists records and the evaluation history to SQLite so a
// restarted service can rebuild its catalog. Evaluations are append-only;
// other records are upserted.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (creating if needed) the journal at path. Use ":memory:"
// for a throwaway journal.
func OpenJournal(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrJournal, path, err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, journalSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrJournal, err)
	}
	return &Journal{db: db}, nil
}

// Append stores an evaluation. Re-appending a known id is a no-op.
func (j *Journal) Append(ctx context.Context, e model.Evaluation) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: encode evaluation %s: %w", ErrJournal, e.ID, err)
	}
	if _, err := j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO evaluations (id, payload) VALUES (?, ?)`, e.ID, string(payload)); err != nil {
		return fmt.Errorf("%w: append evaluation %s: %w", ErrJournal, e.ID, err)
	}
	return nil
}

// SaveRecord upserts a record of the given kind.
func (j *Journal) SaveRecord(ctx context.Context, kind, id string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s %s: %w", ErrJournal, kind, id, err)
	}
	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO records (kind, id, payload) VALUES (?, ?, ?)
		 ON CONFLICT(kind, id) DO UPDATE SET payload = excluded.payload`,
		kind, id, string(payload)); err != nil {
		return fmt.Errorf("%w: save %s %s: %w", ErrJournal, kind, id, err)
	}
	return nil
}

// LoadRecords calls fn with the raw payload of every record of a kind,
// ordered by id.
func (j *Journal) LoadRecords(ctx context.Context, kind string, fn func(payload []byte) error) error {
	rows, err := j.db.QueryContext(ctx, `SELECT payload FROM records WHERE kind = ? ORDER BY id`, kind)
	if err != nil {
		return fmt.Errorf("%w: load %s: %w", ErrJournal, kind, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("%w: scan %s: %w", ErrJournal, kind, err)
		}
		if err := fn([]byte(payload)); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: load %s: %w", ErrJournal, kind, err)
	}
	return nil
}

// Replay calls fn with every stored evaluation in append order.
func (j *Journal) Replay(ctx context.Context, fn func(model.Evaluation) error) error {
	rows, err := j.db.QueryContext(ctx, `SELECT payload FROM evaluations ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("%w: replay: %w", ErrJournal, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("%w: scan evaluation: %w", ErrJournal, err)
		}
		var e model.Evaluation
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return fmt.Errorf("%w: decode evaluation: %w", ErrJournal, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: replay: %w", ErrJournal, err)
	}
	return nil
}

// Close releases the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
