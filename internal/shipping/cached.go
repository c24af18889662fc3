package shipping

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

// CachedResolver answers from the address cache and falls back to next.
// Only resolved addresses are cached.
type CachedResolver struct {
	next  Resolver
	cache cache.AddressCache
	log   *slog.Logger
}

func NewCachedResolver(next Resolver, c cache.AddressCache, log *slog.Logger) *CachedResolver {
	if log == nil {
		log = slog.Default()
	}
	return &CachedResolver{next: next, cache: c, log: log}
}

func (r *CachedResolver) Resolve(ctx context.Context, cep string) (*domain.Address, error) {
	addr, err := r.cache.Get(ctx, cep)
	if err == nil {
		return addr, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.log.WarnContext(ctx, "address cache get error", "cep", cep, "error", err) // log cache error but continue
	}

	addr, err = r.next.Resolve(ctx, cep)
	if err != nil {
		return nil, err
	}
	if addr == nil || addr.Erro {
		return addr, nil
	}

	setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := r.cache.Set(setCtx, cep, addr); err != nil {
		r.log.WarnContext(ctx, "address cache set error", "cep", cep, "error", err)
	}
	return addr, nil
}
