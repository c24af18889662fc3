package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = 24 * time.Hour
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

// RedisCache stores resolved addresses. Entries expire after the base TTL
// plus up to an hour of jitter so a warm cache does not expire at once.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, cep string) (*domain.Address, error) {
	data, err := r.client.Get(ctx, cacheKey(cep)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var addr domain.Address
	if err := json.Unmarshal(data, &addr); err != nil {
		return nil, fmt.Errorf("unmarshal address failed: %w", err)
	}
	return &addr, nil
}

func (r RedisCache) Set(ctx context.Context, cep string, addr *domain.Address) error {
	data, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("marshal address failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(cep), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(cep string) string {
	return fmt.Sprintf("cep:%s", cep)
}
