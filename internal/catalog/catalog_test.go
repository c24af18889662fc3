package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/catalog"
)

func setupTestDB(t *testing.T) *catalog.SQLiteSource {
	src, err := catalog.NewSQLiteSource(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })

	require.NoError(t, src.RunMigrations())
	return src
}

func TestSQLiteSource_MatchesDemoProduct(t *testing.T) {
	src := setupTestDB(t)

	got, err := src.Product(context.Background(), catalog.DemoProductID)
	require.NoError(t, err)

	want := catalog.DemoProduct()
	assert.Equal(t, want.Title, got.Title)
	assert.True(t, want.Price.Equal(got.Price))
	require.NotNil(t, got.OriginalPrice)
	assert.True(t, want.OriginalPrice.Equal(*got.OriginalPrice))
	assert.Equal(t, want.Images, got.Images)
	assert.Equal(t, want.Variants, got.Variants)
}

func TestSQLiteSource_NotFound(t *testing.T) {
	src := setupTestDB(t)

	p, err := src.Product(context.Background(), "999")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	assert.Nil(t, p)
}

func TestSQLiteSource_MigrationsIdempotent(t *testing.T) {
	src := setupTestDB(t)
	assert.NoError(t, src.RunMigrations())
}

func TestStaticSource_ReturnsCopy(t *testing.T) {
	src := catalog.NewStaticSource(catalog.DemoProduct())
	ctx := context.Background()

	p, err := src.Product(ctx, catalog.DemoProductID)
	require.NoError(t, err)
	p.Variants[0].Values[0].Available = false
	p.Images[0].URL = "changed"

	again, err := src.Product(ctx, catalog.DemoProductID)
	require.NoError(t, err)
	assert.True(t, again.Variants[0].Values[0].Available)
	assert.NotEqual(t, "changed", again.Images[0].URL)
}

func TestStaticSource_NotFound(t *testing.T) {
	_, err := catalog.NewStaticSource().Product(context.Background(), "1")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}
