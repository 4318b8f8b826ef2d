// Package audit records which verdicts the service produced. Rows never
// contain the submitted measurements, only the outcome and when it happened.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one audited prediction.
type Entry struct {
	ID        uuid.UUID
	RequestID string
	Domain    string
	Label     int
	Positive  bool
	CreatedAt time.Time
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// execer is the subset of *pgxpool.Pool the store uses.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

const createTable = `CREATE TABLE IF NOT EXISTS prediction_audit (
	id         UUID PRIMARY KEY,
	request_id TEXT NOT NULL,
	domain     TEXT NOT NULL,
	label      SMALLINT NOT NULL,
	positive   BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

const insertEntry = `INSERT INTO prediction_audit (id, request_id, domain, label, positive, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// Store writes audit entries to Postgres.
type Store struct {
	db    execer
	close func()
}

// Connect opens a pool, verifies connectivity and creates the audit table.
func Connect(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Store{db: pool, close: pool.Close}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func newStore(db execer) *Store {
	return &Store{db: db, close: func() {}}
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

// Record inserts e, filling in ID and CreatedAt when unset.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.Exec(ctx, insertEntry, e.ID, e.RequestID, e.Domain, e.Label, e.Positive, e.CreatedAt); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.close()
}
