package devtoken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"flockmanager/internal/domain"
)

// DefaultKeyPrefix namespaces dev-token keys in a shared Redis.
const DefaultKeyPrefix = "flock:devtoken:"

// RedisStore keeps development login tokens in Redis so every replica sees
// the same set. Take uses GETDEL, so a token has exactly one winner.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore wraps an existing client. An empty prefix selects
// DefaultKeyPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// NewRedisClient creates a client and verifies connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) Put(ctx context.Context, token string, rec domain.DevTokenRecord) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return domain.NewValidationError("dev token already expired")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal dev token: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+token, raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %w", domain.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, token string) (*domain.DevTokenRecord, error) {
	raw, err := s.client.GetDel(ctx, s.prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis getdel: %w", domain.ErrUnavailable, err)
	}
	var rec domain.DevTokenRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode dev token: %w", err)
	}
	return &rec, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
