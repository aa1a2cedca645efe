package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spot-monitor/internal/common/database"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session keys in Redis, namespaced by a per-run session
// id and written with a TTL so state approximates browser-session
// lifetime: it survives step-to-step navigation, not much longer.
type RedisStore struct {
	client    *database.RedisClient
	sessionID string
	ttl       time.Duration
}

func NewRedisStore(client *database.RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		sessionID: uuid.NewString(),
		ttl:       ttl,
	}
}

// SessionID identifies this run's key namespace.
func (s *RedisStore) SessionID() string {
	return s.sessionID
}

func (s *RedisStore) key(key string) string {
	return fmt.Sprintf("spotmonitor:session:%s:%s", s.sessionID, key)
}

func (s *RedisStore) Put(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl)
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}
