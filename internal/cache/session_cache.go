// Package cache holds the optional Redis write-through cache for
// conversation sessions. The database stays the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tbourn/go-booking-backend/internal/config"
	"github.com/tbourn/go-booking-backend/internal/intent"
)

// ErrMiss reports a key that is not cached.
var ErrMiss = errors.New("cache miss")

// Entry is the cached view of a session.
type Entry struct {
	Collected   intent.Collected `json:"collected"`
	UpdatedAt   time.Time        `json:"updated_at"`
	HistoryFrom time.Time        `json:"history_from"`
}

// RedisSessionCache stores Entry values as JSON under prefix+customerID.
type RedisSessionCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionCache wraps client. ttl bounds how long an idle entry lives.
func NewRedisSessionCache(client *redis.Client, prefix string, ttl time.Duration) *RedisSessionCache {
	return &RedisSessionCache{client: client, prefix: prefix, ttl: ttl}
}

// Dial connects to Redis as described by cfg and pings it.
func Dial(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (c *RedisSessionCache) key(customerID string) string {
	return c.prefix + customerID
}

// Get returns the cached entry or ErrMiss.
func (c *RedisSessionCache) Get(ctx context.Context, customerID string) (Entry, error) {
	data, err := c.client.Get(ctx, c.key(customerID)).Result()
	if err == redis.Nil {
		return Entry{}, ErrMiss
	}
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Set stores e for customerID.
func (c *RedisSessionCache) Set(ctx context.Context, customerID string, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(customerID), b, c.ttl).Err()
}

// Delete drops the entry for customerID.
func (c *RedisSessionCache) Delete(ctx context.Context, customerID string) error {
	return c.client.Del(ctx, c.key(customerID)).Err()
}
