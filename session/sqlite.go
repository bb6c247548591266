package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loft/finassist/core"
)

// SQLiteStore is a durable SessionStore backed by an embedded SQLite
// database. Transcripts are stored one row per turn so a commit only writes
// the new turns.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. Use ":memory:" for a private in-process database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, core.NewError("session.NewSQLiteStore", core.ErrConfiguration, err.Error())
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, core.NewError("session.NewSQLiteStore", core.ErrConfiguration, err.Error())
	}

	return s, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		identity TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL,
		last_active_agent TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		identity TEXT NOT NULL REFERENCES sessions(identity) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (identity, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get loads the session and its transcript.
func (s *SQLiteStore) Get(ctx context.Context, identity string) (*core.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT thread_id, last_active_agent, created_at, updated_at FROM sessions WHERE identity = ?`, identity)

	sess := &core.Session{Identity: identity, Transcript: core.Transcript{}}
	var created, updated int64
	if err := row.Scan(&sess.ThreadID, &sess.LastActiveAgent, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess.Created = time.Unix(0, created).UTC()
	sess.Updated = time.Unix(0, updated).UTC()

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM turns WHERE identity = ? ORDER BY seq`, identity)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		var turn core.Turn
		if err := json.Unmarshal([]byte(payload), &turn); err != nil {
			return nil, fmt.Errorf("decode turn: %w", err)
		}
		sess.Transcript = append(sess.Transcript, turn)
	}

	return sess, rows.Err()
}

// Create registers an empty session for identity. An existing session is
// returned unchanged.
func (s *SQLiteStore) Create(ctx context.Context, identity string) (*core.Session, error) {
	sess := core.NewSession(identity)
	sess.Created, sess.Updated = s.now(), s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (identity, thread_id, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(identity) DO NOTHING`,
		identity, sess.ThreadID, sess.Created.UnixNano(), sess.Updated.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return s.Get(ctx, identity)
}

// Commit appends turns and updates the session in one transaction.
func (s *SQLiteStore) Commit(ctx context.Context, identity string, turns []core.Turn, lastActiveAgent string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ?,
		 last_active_agent = CASE WHEN ? = '' THEN last_active_agent ELSE ? END
		 WHERE identity = ?`,
		s.now().UnixNano(), lastActiveAgent, lastActiveAgent, identity,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrSessionNotFound
	}

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM turns WHERE identity = ?`, identity).Scan(&next); err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	for i, turn := range turns {
		payload, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns (identity, seq, payload) VALUES (?, ?, ?)`,
			identity, next+int64(i), string(payload),
		); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}

	return tx.Commit()
}

// Delete removes the session and its transcript.
func (s *SQLiteStore) Delete(ctx context.Context, identity string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE identity = ?`, identity); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE identity = ?`, identity); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return tx.Commit()
}

// Idle lists identities not updated since cutoff.
func (s *SQLiteStore) Idle(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT identity FROM sessions WHERE updated_at < ?`, cutoff.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query idle sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}

	return out, rows.Err()
}
