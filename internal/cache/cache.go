package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type AddressCache interface {
	Get(ctx context.Context, cep string) (*domain.Address, error)
	Set(ctx context.Context, cep string, addr *domain.Address) error
}

var ErrCacheMiss = errors.New("cache miss")
