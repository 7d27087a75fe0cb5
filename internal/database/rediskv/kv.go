// Package rediskv stores visitor state in Redis.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV implements database.KV on a Redis client.
type KV struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps a client. A positive ttl makes every written key expire after
// that duration; zero keeps keys until they are deleted.
func New(client *redis.Client, ttl time.Duration) *KV {
	return &KV{client: client, ttl: ttl}
}

// Open parses a redis:// URL, connects and verifies the connection.
func Open(ctx context.Context, url string, ttl time.Duration) (*KV, error) {
	if url == "" {
		return nil, errors.New("redis URL is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return New(client, ttl), nil
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := k.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := k.client.Set(ctx, key, value, k.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (k *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := k.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}

func (k *KV) Close() error {
	return k.client.Close()
}
