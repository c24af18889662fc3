package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/logger"
)

type failingKV struct {
	err error
}

func (f failingKV) Get(context.Context, string) (string, error) { return "", f.err }
func (f failingKV) Set(context.Context, string, string) error    { return f.err }
func (f failingKV) Delete(context.Context, string) error         { return f.err }

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestAdapter_SaveAndLoad(t *testing.T) {
	a := NewAdapter(NewMemoryStore(), logger.Discard())
	ctx := context.Background()

	require.True(t, a.Save(ctx, "k", payload{Name: "tenis", Count: 2}))

	var got payload
	require.True(t, a.Load(ctx, "k", &got))
	assert.Equal(t, payload{Name: "tenis", Count: 2}, got)
}

func TestAdapter_LoadMissing(t *testing.T) {
	a := NewAdapter(NewMemoryStore(), logger.Discard())

	var got payload
	assert.False(t, a.Load(context.Background(), "missing", &got))
}

func TestAdapter_LoadInvalidJSON(t *testing.T) {
	kv := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "cart", "{not json"))

	a := NewAdapter(kv, logger.Discard())
	var got []payload
	assert.False(t, a.Load(ctx, "cart", &got))
	assert.Nil(t, got)
}

func TestAdapter_LoadWrongShape(t *testing.T) {
	kv := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "cart", `{"name":"x"}`))

	a := NewAdapter(kv, logger.Discard())
	var got []payload
	assert.False(t, a.Load(ctx, "cart", &got))
}

func TestAdapter_SaveEncodeFailureKeepsPriorValue(t *testing.T) {
	kv := NewMemoryStore()
	a := NewAdapter(kv, logger.Discard())
	ctx := context.Background()
	require.True(t, a.Save(ctx, "k", payload{Name: "old"}))

	assert.False(t, a.Save(ctx, "k", func() {}))

	raw, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"old","count":0}`, raw)
}

func TestAdapter_WriteFailureIsSwallowed(t *testing.T) {
	a := NewAdapter(failingKV{err: errors.New("quota exceeded")}, logger.Discard())
	ctx := context.Background()

	assert.NotPanics(t, func() {
		assert.False(t, a.Save(ctx, "k", payload{}))
		a.Delete(ctx, "k")
	})

	var got payload
	assert.False(t, a.Load(ctx, "k", &got))
}

func TestAdapter_Delete(t *testing.T) {
	kv := NewMemoryStore()
	a := NewAdapter(kv, logger.Discard())
	ctx := context.Background()
	require.True(t, a.Save(ctx, "k", payload{}))

	a.Delete(ctx, "k")

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
