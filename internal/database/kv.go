// Package database persists each visitor's onboarding state: their profile,
// the last captured image and the last analysis result.
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// keyPrefix namespaces every key written by the application.
const keyPrefix = "skinstric"

// KV is the minimal key/value storage every backend implements.
// Set overwrites; the last write wins.
type KV interface {
	// Get returns the stored bytes and true, or false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Namespace returns the storage key for one value of one visitor.
func Namespace(visitorID, name string) string {
	return keyPrefix + ":" + visitorID + ":" + name
}

// Save serializes v as JSON and stores it under key.
func Save[T any](ctx context.Context, kv KV, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// Load returns the value last stored under key. When the key is absent, the
// backend fails, or the stored bytes do not decode, it returns the zero value
// and false; the failure is logged, never returned.
func Load[T any](ctx context.Context, kv KV, key string, logger *zap.Logger) (T, bool) {
	var zero T

	data, ok, err := kv.Get(ctx, key)
	if err != nil {
		logger.Warn("failed to read stored value", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		logger.Warn("discarding corrupt stored value", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return v, true
}
