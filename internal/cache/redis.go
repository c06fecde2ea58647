package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps each owner's aggregates in one hash so DEL clears them all.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis parses url, connects and verifies connectivity.
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl}, nil
}

func (r *Redis) GetField(ctx context.Context, key, field string) ([]byte, bool, error) {
	v, err := r.rdb.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// SetField writes the field and refreshes the hash TTL in one round trip.
func (r *Redis) SetField(ctx context.Context, key, field string, value []byte) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, field, value)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	return err
}

// Generation reads the INCR counter kept beside the hash. It has no TTL:
// if it expired while an older field was still cached, that field would
// become readable again.
func (r *Redis) Generation(ctx context.Context, key string) (int64, error) {
	n, err := r.rdb.Get(ctx, generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Invalidate bumps the generation and deletes the hash in one MULTI.
func (r *Redis) Invalidate(ctx context.Context, key string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(key))
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
