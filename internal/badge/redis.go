package badge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps badge counts in Redis with a jittered TTL so a burst of
// page loads does not expire every customer's counts at once.
type RedisStore struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisStore(client *redis.Client, baseTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, baseTTL: baseTTL}
}

func (r *RedisStore) Get(ctx context.Context, key string) (*Counts, error) {
	data, err := r.client.Get(ctx, storeKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var counts Counts
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, fmt.Errorf("unmarshal counts failed: %w", err)
	}
	return &counts, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, counts Counts) error {
	payload, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("marshal counts failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Second
	if err := r.client.Set(ctx, storeKey(key), payload, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, storeKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func storeKey(key string) string {
	return fmt.Sprintf("badge:%s", key)
}
