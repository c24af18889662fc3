package selection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/store"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func setupState(t *testing.T, opts ...Option) (*State, *store.MemoryStore, *clock) {
	t.Helper()
	product := catalog.DemoProduct()
	kv := store.NewMemoryStore()
	c := &clock{t: baseTime}
	opts = append([]Option{WithClock(c.Now), WithLogger(logger.Discard())}, opts...)
	s := New(&product, store.NewAdapter(kv, logger.Discard()), opts...)
	return s, kv, c
}

func putSnapshot(t *testing.T, kv *store.MemoryStore, raw string) {
	t.Helper()
	require.NoError(t, kv.Set(context.Background(), SnapshotKey, raw))
}

func readSnapshot(t *testing.T, kv *store.MemoryStore) domain.Snapshot {
	t.Helper()
	raw, err := kv.Get(context.Background(), SnapshotKey)
	require.NoError(t, err)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	return snap
}

func fullSnapshot(ts time.Time) string {
	snap := domain.Snapshot{
		Timestamp: ts.UnixMilli(),
		State: &domain.PageState{
			SelectedVariants: domain.Selection{"size": "38", "color": "black"},
			CEP:              "01001000",
			Address:          &domain.Address{CEP: "01001-000", Logradouro: "Praça da Sé", Localidade: "São Paulo", UF: "SP"},
			SelectedImage:    "/assets/images/produto/Modelo_em_Preto.png",
		},
	}
	b, _ := json.Marshal(snap)
	return string(b)
}

func TestNew_Defaults(t *testing.T) {
	s, kv, _ := setupState(t)

	assert.Empty(t, s.Selection())
	assert.Empty(t, s.PostalCode())
	assert.Nil(t, s.Address())
	assert.Equal(t, "/assets/images/produto/Modelo_em_Branco.png", s.SelectedImage())

	// nothing is written until something changes
	_, err := kv.Get(context.Background(), SnapshotKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSelectVariantValue_SavesSnapshot(t *testing.T) {
	s, kv, _ := setupState(t)
	ctx := context.Background()

	require.NoError(t, s.SelectVariantValue(ctx, "size", "38"))
	require.NoError(t, s.SelectVariantValue(ctx, "size", "40"))

	assert.Equal(t, domain.Selection{"size": "40"}, s.Selection())
	assert.True(t, s.IsSelected("size", "40"))

	snap := readSnapshot(t, kv)
	assert.Equal(t, baseTime.UnixMilli(), snap.Timestamp)
	assert.Equal(t, domain.Selection{"size": "40"}, snap.State.SelectedVariants)
}

func TestSelectVariantValue_PermissiveByDefault(t *testing.T) {
	s, _, _ := setupState(t)

	require.NoError(t, s.SelectVariantValue(context.Background(), "size", "39"))
	assert.True(t, s.IsSelected("size", "39"))
}

func TestSelectVariantValue_Strict(t *testing.T) {
	s, _, _ := setupState(t, WithStrictAvailability(true))
	ctx := context.Background()

	assert.ErrorIs(t, s.SelectVariantValue(ctx, "size", "39"), ErrUnavailable)
	assert.ErrorIs(t, s.SelectVariantValue(ctx, "color", "purple"), ErrUnknownVariant)
	assert.ErrorIs(t, s.SelectVariantValue(ctx, "material", "leather"), ErrUnknownVariant)
	assert.Empty(t, s.Selection())

	require.NoError(t, s.SelectVariantValue(ctx, "color", "green"))
	assert.Equal(t, domain.Selection{"color": "green"}, s.Selection())
}

func TestRestore_Fresh(t *testing.T) {
	s, kv, c := setupState(t)
	putSnapshot(t, kv, fullSnapshot(baseTime.Add(-5*time.Minute)))

	require.True(t, s.Restore(context.Background()))

	assert.Equal(t, domain.Selection{"size": "38", "color": "black"}, s.Selection())
	assert.Equal(t, "01001000", s.PostalCode())
	require.NotNil(t, s.Address())
	assert.Equal(t, "São Paulo", s.Address().Localidade)
	assert.Equal(t, "/assets/images/produto/Modelo_em_Preto.png", s.SelectedImage())

	// restoring refreshes the timestamp
	assert.Equal(t, c.t.UnixMilli(), readSnapshot(t, kv).Timestamp)
}

func TestRestore_Window(t *testing.T) {
	cases := []struct {
		name    string
		age     time.Duration
		applied bool
	}{
		{"14m59s", 14*time.Minute + 59*time.Second, true},
		{"exactly 15m", 15 * time.Minute, false},
		{"15m01s", 15*time.Minute + time.Second, false},
		{"one day", 24 * time.Hour, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, kv, _ := setupState(t)
			putSnapshot(t, kv, fullSnapshot(baseTime.Add(-tc.age)))

			assert.Equal(t, tc.applied, s.Restore(context.Background()))

			_, err := kv.Get(context.Background(), SnapshotKey)
			if tc.applied {
				assert.NoError(t, err)
				assert.Equal(t, "01001000", s.PostalCode())
			} else {
				assert.ErrorIs(t, err, store.ErrNotFound)
				assert.Empty(t, s.Selection())
				assert.Empty(t, s.PostalCode())
			}
		})
	}
}

func TestRestore_MissingAddressAppliesTheRest(t *testing.T) {
	s, kv, _ := setupState(t)
	putSnapshot(t, kv, `{
		"timestamp": `+jsonInt(baseTime.Add(-time.Minute).UnixMilli())+`,
		"state": {
			"selectedVariants": {"size": "41"},
			"cep": "20040002",
			"selectedImage": "/assets/images/produto/Modelo_em_Verde.png"
		}
	}`)

	require.True(t, s.Restore(context.Background()))

	assert.Equal(t, domain.Selection{"size": "41"}, s.Selection())
	assert.Equal(t, "20040002", s.PostalCode())
	assert.Equal(t, "/assets/images/produto/Modelo_em_Verde.png", s.SelectedImage())
	assert.Nil(t, s.Address())
}

func TestRestore_EmptyFieldsKeepDefaults(t *testing.T) {
	s, kv, _ := setupState(t)
	putSnapshot(t, kv, `{"timestamp": `+jsonInt(baseTime.UnixMilli())+`, "state": {"selectedVariants": {}, "cep": "", "selectedImage": ""}}`)

	require.True(t, s.Restore(context.Background()))
	assert.Empty(t, s.Selection())
	assert.Equal(t, "/assets/images/produto/Modelo_em_Branco.png", s.SelectedImage())
}

func TestRestore_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"timestamp":`,
		"no state":          `{"timestamp": ` + jsonInt(baseTime.UnixMilli()) + `}`,
		"null state":        `{"timestamp": ` + jsonInt(baseTime.UnixMilli()) + `, "state": null}`,
		"no timestamp":      `{"state": {"cep": "01001000"}}`,
		"string timestamp":  `{"timestamp": "yesterday", "state": {"cep": "01001000"}}`,
		"array":             `[1,2,3]`,
		"wrong field types": `{"timestamp": 1, "state": {"selectedVariants": ["38"]}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			s, kv, _ := setupState(t)
			putSnapshot(t, kv, raw)

			assert.False(t, s.Restore(context.Background()))

			_, err := kv.Get(context.Background(), SnapshotKey)
			assert.ErrorIs(t, err, store.ErrNotFound)
			assert.Empty(t, s.PostalCode())
		})
	}
}

func TestRestore_StrictDropsUnavailableValues(t *testing.T) {
	s, kv, _ := setupState(t, WithStrictAvailability(true))
	putSnapshot(t, kv, `{"timestamp": `+jsonInt(baseTime.UnixMilli())+`, "state": {"selectedVariants": {"size": "39", "color": "white"}}}`)

	require.True(t, s.Restore(context.Background()))
	assert.Equal(t, domain.Selection{"color": "white"}, s.Selection())
}

func TestDisplayImage_Fallback(t *testing.T) {
	s, _, _ := setupState(t)
	ctx := context.Background()

	s.SetSelectedImage(ctx, "/assets/images/produto/Modelo_em_Verde.png")
	assert.Equal(t, "/assets/images/produto/Modelo_em_Verde.png", s.DisplayImage())

	s.SetSelectedImage(ctx, "/gone.png")
	assert.Equal(t, "/gone.png", s.SelectedImage())
	assert.Equal(t, "/assets/images/produto/Modelo_em_Branco.png", s.DisplayImage())

	bare := domain.Product{ID: "2"}
	empty := New(&bare, store.NewAdapter(store.NewMemoryStore(), logger.Discard()))
	assert.Equal(t, PlaceholderImage, empty.DisplayImage())
}

func TestSetAddress_CopiesInput(t *testing.T) {
	s, kv, _ := setupState(t)
	addr := &domain.Address{Localidade: "Recife"}

	s.SetAddress(context.Background(), addr)
	addr.Localidade = "changed"

	assert.Equal(t, "Recife", s.Address().Localidade)
	assert.Equal(t, "Recife", readSnapshot(t, kv).State.Address.Localidade)

	s.SetAddress(context.Background(), nil)
	assert.Nil(t, s.Address())
	assert.Nil(t, readSnapshot(t, kv).State.Address)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
