package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reserves event ids in a table with an expiry column. It is
// the durable alternative when redis is not deployed; expired rows are
// reclaimed opportunistically on insert conflict.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Reserve(ctx context.Context, eventID string, retention time.Duration) (bool, error) {
	query := `
		INSERT INTO webhook_events (event_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO UPDATE
			SET expires_at = EXCLUDED.expires_at
			WHERE webhook_events.expires_at < now()
	`

	result, err := s.pool.Exec(ctx, query, eventID, time.Now().UTC().Add(retention))
	if err != nil {
		return false, fmt.Errorf("reserve event id: %w", err)
	}

	// One row affected means the insert (or takeover of an expired row)
	// won; zero means a live reservation already exists.
	return result.RowsAffected() == 1, nil
}
