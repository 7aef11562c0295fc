package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNoEntry indicates an absent cache key.
var ErrNoEntry = errors.New("no cache entry")

// Known queued action types.
const (
	ActionApply    = "apply"
	ActionWithdraw = "withdraw"
)

// Action is one pending write captured while offline. Actions are never
// mutated in place; they are removed by id after a successful replay.
type Action struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists offline cache snapshots and the pending-action queue in
// one sqlite database. Cache entries are non-secret read snapshots; queue
// order is the insertion order (rowid).
type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			name TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			saved_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS pending_actions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			type TEXT NOT NULL,
			payload BLOB NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveCache replaces the entry for name wholesale with the JSON encoding
// of v and the current timestamp.
func (s *Store) SaveCache(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries(name, data, saved_at) VALUES(?,?,?)
		ON CONFLICT(name) DO UPDATE SET data=excluded.data, saved_at=excluded.saved_at
	`, name, data, time.Now().UTC())
	return err
}

// LoadCache decodes the stored entry for name into out and returns its
// save timestamp. Staleness policy belongs to the caller.
func (s *Store) LoadCache(ctx context.Context, name string, out any) (time.Time, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data, saved_at FROM cache_entries WHERE name = ?`, name)
	var data []byte
	var savedAt time.Time
	if err := row.Scan(&data, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNoEntry
		}
		return time.Time{}, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return time.Time{}, err
	}
	return savedAt, nil
}

// Enqueue appends a new action with a generated unique id.
func (s *Store) Enqueue(ctx context.Context, typ string, payload any) (Action, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Action{}, err
	}
	a := Action{
		ID:        uuid.NewString(),
		Type:      typ,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_actions(id, type, payload, created_at) VALUES(?,?,?,?)`,
		a.ID, a.Type, []byte(a.Payload), a.CreatedAt)
	if err != nil {
		return Action{}, err
	}
	return a, nil
}

// List returns all pending actions in insertion order.
func (s *Store) List(ctx context.Context) ([]Action, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, payload, created_at FROM pending_actions ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Action
	for rows.Next() {
		var a Action
		var payload []byte
		if err := rows.Scan(&a.ID, &a.Type, &payload, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Payload = payload
		out = append(out, a)
	}
	return out, rows.Err()
}

// Remove deletes one action by id. Removing an unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_actions WHERE id = ?`, id)
	return err
}
