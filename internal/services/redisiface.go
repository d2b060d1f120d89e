package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by RedisClient.GetEx when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// RedisClient is the key/value surface the session store needs.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// GetEx reads key and resets its TTL in one round trip.
	GetEx(ctx context.Context, key string, expiration time.Duration) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisAdapter) GetEx(ctx context.Context, key string, expiration time.Duration) (string, error) {
	val, err := r.client.GetEx(ctx, key, expiration).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (r *RedisAdapter) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}
