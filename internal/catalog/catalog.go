// Package catalog supplies the read-only product shown on the page.
package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type Source interface {
	Product(ctx context.Context, id string) (*domain.Product, error)
}
