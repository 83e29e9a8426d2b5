package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appbilling "github.com/nhatro/backend/internal/application/billing"
)

// RedisIdempotencyStore implements the reconciliation idempotency store on
// Redis. Suitable for deployments where several instances receive gateway
// callbacks and need to share dedup state.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdempotencyStore creates a new Redis-based idempotency store
func NewRedisIdempotencyStore(cfg RedisConfig, ttl time.Duration) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisIdempotencyStoreWithClient(client, "", ttl), nil
}

// NewRedisIdempotencyStoreWithClient creates a store with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = "payment:idempotency:"
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// SeenOrRecord atomically records the key if absent. Returns true when the
// key was already present, meaning the callback is a replay.
func (s *RedisIdempotencyStore) SeenOrRecord(ctx context.Context, key string) (bool, error) {
	set, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record idempotency key: %w", err)
	}
	return !set, nil
}

// Forget removes a recorded key so the gateway's retry can be reprocessed
// after a failed apply.
func (s *RedisIdempotencyStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to forget idempotency key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ appbilling.IdempotencyStore = (*RedisIdempotencyStore)(nil)
