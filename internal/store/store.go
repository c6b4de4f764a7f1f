// Package store keeps a log of recording sessions and the gestures detected
// in them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/relabs-tech/gesture_computer/internal/gesture"
	"github.com/relabs-tech/gesture_computer/internal/recording"
)

// ErrNotFound is returned when a session id is not in the log.
var ErrNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id        TEXT PRIMARY KEY,
	startedAt INTEGER NOT NULL,
	endedAt   INTEGER NOT NULL,
	samples   INTEGER NOT NULL,
	gestures  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_started ON sessions (startedAt);
`

// Store is a SQLite-backed session log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory log.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession inserts sess, replacing any earlier row with the same id.
func (s *Store) SaveSession(ctx context.Context, sess recording.Session) error {
	gestures := sess.Gestures
	if gestures == nil {
		gestures = []gesture.Label{}
	}
	encoded, err := json.Marshal(gestures)
	if err != nil {
		return fmt.Errorf("encode gestures: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, startedAt, endedAt, samples, gestures)
		VALUES (?, ?, ?, ?, ?)
	`, sess.ID, sess.StartedAt.UnixMilli(), sess.EndedAt.UnixMilli(), sess.Samples, string(encoded))
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.ID, err)
	}
	return nil
}

// Session returns the session with the given id.
func (s *Store) Session(ctx context.Context, id string) (recording.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, startedAt, endedAt, samples, gestures
		FROM sessions
		WHERE id = ?
	`, id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return recording.Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess, err
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]recording.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, startedAt, endedAt, samples, gestures
		FROM sessions
		ORDER BY startedAt DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []recording.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (recording.Session, error) {
	var (
		sess               recording.Session
		startedAt, endedAt int64
		gestures           string
	)
	if err := row.Scan(&sess.ID, &startedAt, &endedAt, &sess.Samples, &gestures); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return recording.Session{}, err
		}
		return recording.Session{}, fmt.Errorf("scan session: %w", err)
	}
	sess.StartedAt = time.UnixMilli(startedAt).UTC()
	sess.EndedAt = time.UnixMilli(endedAt).UTC()
	if err := json.Unmarshal([]byte(gestures), &sess.Gestures); err != nil {
		return recording.Session{}, fmt.Errorf("decode gestures of %s: %w", sess.ID, err)
	}
	return sess, nil
}
