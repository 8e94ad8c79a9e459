// Package store persists scored sessions. The envelope is stored as an
// opaque JSON document keyed by a generated session id; schema
// evolution happens inside the envelope (version tag), not in SQL.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/acuityprep/blueprint-cli/internal/model"
)

// Session is one persisted scored batch.
type Session struct {
	ID        string         `json:"id"`
	Exam      string         `json:"exam"`
	CreatedAt time.Time      `json:"createdAt"`
	Envelope  model.Envelope `json:"envelope"`
}

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	Exam   string `json:"exam,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines session persistence.
type Store interface {
	SaveSession(ctx context.Context, env model.Envelope) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	DeleteSession(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		path := cfg.SQLitePath
		if path == "" {
			path = "blueprint.db"
		}
		return NewSQLite(path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
