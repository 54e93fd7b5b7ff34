package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aerolease/internal/booking"
)

// KeyPrefix namespaces session keys.
const KeyPrefix = "aerolease:session:"

// RedisStore keeps sessions as JSON values with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (rs *RedisStore) key(id string) string {
	return KeyPrefix + id
}

func (rs *RedisStore) Get(ctx context.Context, id string) (*booking.Session, error) {
	val, err := rs.client.Get(ctx, rs.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, booking.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var s booking.Session
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (rs *RedisStore) Save(ctx context.Context, s *booking.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := rs.client.Set(ctx, rs.key(s.ID), data, rs.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (rs *RedisStore) Delete(ctx context.Context, id string) error {
	if err := rs.client.Del(ctx, rs.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Ping checks the connection for the readiness check.
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}
