package rediskv

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kozaktomas/skinstric/internal/web/middleware"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "skinstric:session:"
	// sessionIndexKey is a sorted set of session IDs scored by expiry in unix milliseconds.
	sessionIndexKey = "skinstric:sessions"
)

// SessionRepository stores visitor sessions as hashes that expire with the
// session. The index lets cleanup report IDs Redis already dropped.
type SessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewSessionRepository shares the KV's client.
func NewSessionRepository(kv *KV) *SessionRepository {
	return &SessionRepository{client: kv.client, now: time.Now}
}

// Save stores a session and indexes it by expiry.
func (r *SessionRepository) Save(ctx context.Context, id string, createdAt, expiresAt time.Time) error {
	key := sessionKeyPrefix + id
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "created_at", createdAt.UnixMilli(), "expires_at", expiresAt.UnixMilli())
		pipe.PExpireAt(ctx, key, expiresAt)
		pipe.ZAdd(ctx, sessionIndexKey, redis.Z{Score: float64(expiresAt.UnixMilli()), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID, returns nil if not found or expired
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*middleware.StoredSession, error) {
	fields, err := r.client.HGetAll(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("get session: created_at: %w", err)
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("get session: expires_at: %w", err)
	}
	if expiresAt <= r.now().UnixMilli() {
		return nil, nil
	}
	return &middleware.StoredSession{
		ID:        sessionID,
		CreatedAt: time.UnixMilli(createdAt),
		ExpiresAt: time.UnixMilli(expiresAt),
	}, nil
}

// Delete removes a session and its index entry.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKeyPrefix+sessionID)
		pipe.ZRem(ctx, sessionIndexKey, sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes all expired sessions and returns their IDs
func (r *SessionRepository) DeleteExpired(ctx context.Context) ([]string, error) {
	ids, err := r.client.ZRangeByScore(ctx, sessionIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(r.now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("delete expired sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	members := make([]any, len(ids))
	for i, id := range ids {
		keys[i] = sessionKeyPrefix + id
		members[i] = id
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, sessionIndexKey, members...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete expired sessions: %w", err)
	}
	return ids, nil
}
