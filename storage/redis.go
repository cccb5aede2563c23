package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis stores device entries under learnhub:<device>:<key>. A zero ttl
// keeps entries forever; otherwise every write refreshes the expiry.
func NewRedis(client *redis.Client, ttl time.Duration) Local {
	return &redisStore{client: client, ttl: ttl}
}

func redisKey(device, key string) string {
	return "learnhub:" + device + ":" + key
}

func (s *redisStore) Get(ctx context.Context, device, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, redisKey(device, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s/%s: %w", device, key, err)
	}
	return val, nil
}

func (s *redisStore) Set(ctx context.Context, device, key string, value []byte) error {
	if err := s.client.Set(ctx, redisKey(device, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", device, key, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, device, key string) error {
	if err := s.client.Del(ctx, redisKey(device, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s/%s: %w", device, key, err)
	}
	return nil
}
