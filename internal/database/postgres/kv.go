package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// KVRepository implements database.KV on the kv_entries table.
type KVRepository struct {
	pool *Pool
}

// NewKVRepository creates a new PostgreSQL key/value repository.
func NewKVRepository(pool *Pool) *KVRepository {
	return &KVRepository{pool: pool}
}

// Get returns the value stored under key.
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.pool.QueryRow(ctx, "SELECT value FROM kv_entries WHERE key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the value stored under key.
func (r *KVRepository) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (r *KVRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := r.pool.Exec(ctx, "DELETE FROM kv_entries WHERE key = ANY($1)", pq.Array(keys)); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (r *KVRepository) Close() error {
	return r.pool.Close()
}
