// Package store implements the PostgreSQL storage collaborator: idempotent
// upserts used by the ingestion pipeline and read queries used by the REST
// API.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a single-entity lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store wraps a pgx connection pool. Every method is an independent unit
// of work; no state is held between calls, so a single Store is safe for
// concurrent use by the API and the ingestion loop.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on top of the given pool. The caller owns the pool.
func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &Store{pool: pool}, nil
}

// CheckReadiness reports whether the database is reachable.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
