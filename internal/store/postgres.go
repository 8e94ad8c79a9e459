package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/acuityprep/blueprint-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Satisfied by
// pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Intended for tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	exam       TEXT NOT NULL,
	envelope   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_exam ON sessions(exam);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, env model.Envelope) (*Session, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	envJSON, err := json.Marshal(env)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal envelope")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, exam, envelope, created_at) VALUES ($1, $2, $3, $4)`,
		id, env.Exam, envJSON, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert session")
	}

	return &Session{ID: id, Exam: env.Exam, CreatedAt: now, Envelope: env}, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var (
		sess    Session
		envJSON []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, exam, envelope, created_at FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.Exam, &envJSON, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get session %s", id)
	}

	if err := json.Unmarshal(envJSON, &sess.Envelope); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal envelope %s", id)
	}
	return &sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	query := `SELECT id, exam, envelope, created_at FROM sessions`
	var args []any
	if filter.Exam != "" {
		args = append(args, filter.Exam)
		query += ` WHERE exam = $1`
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			sess    Session
			envJSON []byte
		)
		if err := rows.Scan(&sess.ID, &sess.Exam, &envJSON, &sess.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		if err := json.Unmarshal(envJSON, &sess.Envelope); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal envelope %s", sess.ID)
		}
		sessions = append(sessions, sess)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: iterate sessions")
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete session %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", id)
	}
	return nil
}
