package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"story-playback/internal/kv"

	"github.com/redis/go-redis/v9"
)

var ErrUnavailable = errors.New("cache not available")

const maxTxRetries = 10

var _ kv.Store = (*Cache)(nil)

// Cache is the Redis backend for key-value data (story archives) and for
// per-user rate limits.
type Cache struct {
	client redis.UniversalClient
}

func NewCache(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, ErrUnavailable
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	return data, err
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	return c.client.Set(ctx, key, value, 0).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	return c.client.Del(ctx, key).Err()
}

// Update runs fn inside a WATCH/MULTI transaction and retries when another
// writer touched the key in between.
func (c *Cache) Update(ctx context.Context, key string, fn kv.UpdateFunc) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := c.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: too many concurrent writers", key)
}

// CheckRateLimit counts one action for userID in a fixed window and reports
// whether the caller is still within limit. Redis failures never block users.
func (c *Cache) CheckRateLimit(ctx context.Context, userID string, action string, limit int, window time.Duration) (bool, error) {
	if c == nil || c.client == nil {
		return true, nil
	}
	key := fmt.Sprintf("ratelimit:%s:%s", action, userID)

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return true, nil
	}

	if count == 1 {
		c.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
