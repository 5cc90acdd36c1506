package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces slot keys in a shared Redis database
const DefaultRedisPrefix = "smart-todo:"

// RedisSlot stores values in Redis so several shells on one machine share a login
type RedisSlot struct {
	client *redis.Client
	prefix string
}

// NewRedisSlot connects to redisURL and verifies the connection
func NewRedisSlot(ctx context.Context, redisURL string) (*RedisSlot, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisSlotFromClient(client, DefaultRedisPrefix), nil
}

// NewRedisSlotFromClient wraps an existing client
func NewRedisSlotFromClient(client *redis.Client, prefix string) *RedisSlot {
	return &RedisSlot{client: client, prefix: prefix}
}

// Get implements Slot
func (s *RedisSlot) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read slot %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements Slot. Values do not expire; the API rejects stale tokens.
func (s *RedisSlot) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	return nil
}

// Delete implements Slot
func (s *RedisSlot) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete slot %q: %w", key, err)
	}
	return nil
}

// Close implements Slot
func (s *RedisSlot) Close() error {
	return s.client.Close()
}

func (s *RedisSlot) key(k string) string {
	return s.prefix + k
}
