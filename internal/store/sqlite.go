package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/acuityprep/blueprint-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	exam       TEXT NOT NULL,
	envelope   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_exam ON sessions(exam);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSession(ctx context.Context, env model.Envelope) (*Session, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	envJSON, err := json.Marshal(env)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal envelope")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, exam, envelope, created_at) VALUES (?, ?, ?, ?)`,
		id, env.Exam, string(envJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert session")
	}

	return &Session{ID: id, Exam: env.Exam, CreatedAt: now, Envelope: env}, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var (
		sess    Session
		envJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, exam, envelope, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Exam, &envJSON, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get session %s", id)
	}

	if err := json.Unmarshal([]byte(envJSON), &sess.Envelope); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal envelope %s", id)
	}
	return &sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	query := `SELECT id, exam, envelope, created_at FROM sessions`
	var args []any
	if filter.Exam != "" {
		query += ` WHERE exam = ?`
		args = append(args, filter.Exam)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			sess    Session
			envJSON string
		)
		if err := rows.Scan(&sess.ID, &sess.Exam, &envJSON, &sess.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		if err := json.Unmarshal([]byte(envJSON), &sess.Envelope); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal envelope %s", sess.ID)
		}
		sessions = append(sessions, sess)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: iterate sessions")
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete session %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("session not found: %s", id)
	}
	return nil
}
