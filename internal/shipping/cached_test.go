package shipping

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
)

type mockCache struct {
	entries map[string]*domain.Address
	getErr  error
	setErr  error
}

func (m *mockCache) Get(_ context.Context, cep string) (*domain.Address, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if a, ok := m.entries[cep]; ok {
		return a, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *mockCache) Set(_ context.Context, cep string, addr *domain.Address) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[cep] = addr
	return nil
}

type countingResolver struct {
	calls int
	addr  *domain.Address
	err   error
}

func (c *countingResolver) Resolve(context.Context, string) (*domain.Address, error) {
	c.calls++
	return c.addr, c.err
}

func TestCachedResolver_MissThenHit(t *testing.T) {
	next := &countingResolver{addr: se}
	c := &mockCache{entries: map[string]*domain.Address{}}
	r := NewCachedResolver(next, c, logger.Discard())
	ctx := context.Background()

	addr, err := r.Resolve(ctx, "01001000")
	require.NoError(t, err)
	assert.Equal(t, se, addr)

	addr, err = r.Resolve(ctx, "01001000")
	require.NoError(t, err)
	assert.Equal(t, se, addr)
	assert.Equal(t, 1, next.calls)
}

func TestCachedResolver_NotFoundIsNotCached(t *testing.T) {
	next := &countingResolver{err: ErrNotFound}
	c := &mockCache{entries: map[string]*domain.Address{}}
	r := NewCachedResolver(next, c, logger.Discard())

	_, err := r.Resolve(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, c.entries)
}

func TestCachedResolver_CacheFaultsFallThrough(t *testing.T) {
	next := &countingResolver{addr: se}
	c := &mockCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	r := NewCachedResolver(next, c, logger.Discard())

	addr, err := r.Resolve(context.Background(), "01001000")
	require.NoError(t, err)
	assert.Equal(t, se, addr)
	assert.Equal(t, 1, next.calls)
}
