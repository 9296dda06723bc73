package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, productID string) (Product, error)
	Set(ctx context.Context, p Product) error
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{client: client, baseTTL: ttl}
}

func (r *RedisCache) Get(ctx context.Context, productID string) (Product, error) {
	data, err := r.client.Get(ctx, cacheKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Product{}, ErrCacheMiss
	}
	if err != nil {
		return Product{}, fmt.Errorf("redis get failed: %w", err)
	}

	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return Product{}, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return p, nil
}

func (r *RedisCache) Set(ctx context.Context, p Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	// up to 20% jitter
	jitter := time.Duration(rand.Int63n(int64(r.baseTTL)/5 + 1))
	if err := r.client.Set(ctx, cacheKey(p.ID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(productID string) string {
	return fmt.Sprintf("product:%s", productID)
}

// NopCache always misses.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (Product, error) { return Product{}, ErrCacheMiss }
func (NopCache) Set(context.Context, Product) error           { return nil }
