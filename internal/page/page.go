// Package page composes the product page: selection, shipping lookup,
// notifications and, when enabled, the cart.
package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/selection"
	"github.com/fjod/go_cart/storefront/internal/shipping"
	"github.com/fjod/go_cart/storefront/internal/store"
)

var ErrCartDisabled = errors.New("cart is not enabled on this page")

// Config lists the collaborators of a page. Catalog, Store and Resolver are
// required.
type Config struct {
	Catalog   catalog.Source
	ProductID string
	Store     store.KV
	Resolver  shipping.Resolver

	EnableCart         bool
	Publisher          events.Publisher
	SnapshotWindow     time.Duration
	NotifyLifetime     time.Duration
	StrictAvailability bool
	Clock              func() time.Time
	Logger             *slog.Logger
}

type Controller struct {
	product   *domain.Product
	selection *selection.State
	shipping  *shipping.Lookup
	signal    *notify.Signal
	cart      *cart.Engine
	log       *slog.Logger
}

// Open loads the product, restores the persisted selection and, if enabled,
// the persisted cart.
func Open(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Catalog == nil || cfg.Store == nil || cfg.Resolver == nil {
		return nil, errors.New("page: catalog, store and resolver are required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	productID := cfg.ProductID
	if productID == "" {
		productID = catalog.DemoProductID
	}

	product, err := cfg.Catalog.Product(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}

	adapter := store.NewAdapter(cfg.Store, log)

	selOpts := []selection.Option{
		selection.WithWindow(cfg.SnapshotWindow),
		selection.WithStrictAvailability(cfg.StrictAvailability),
		selection.WithLogger(log),
	}
	if cfg.Clock != nil {
		selOpts = append(selOpts, selection.WithClock(cfg.Clock))
	}
	sel := selection.New(product, adapter, selOpts...)
	if sel.Restore(ctx) {
		log.InfoContext(ctx, "restored selection snapshot", "product_id", product.ID)
	}

	c := &Controller{
		product:   product,
		selection: sel,
		shipping:  shipping.NewLookup(cfg.Resolver, sel, log),
		signal:    notify.NewSignal(cfg.NotifyLifetime),
		log:       log,
	}

	if cfg.EnableCart {
		cartOpts := []cart.Option{
			cart.WithNotifier(c.signal),
			cart.WithLogger(log),
		}
		if cfg.Publisher != nil {
			cartOpts = append(cartOpts, cart.WithPublisher(cfg.Publisher))
		}
		c.cart = cart.New(ctx, adapter, cartOpts...)
	}

	return c, nil
}

func (c *Controller) Close() {
	c.signal.Close()
}

func (c *Controller) CartEnabled() bool { return c.cart != nil }

type ProductView struct {
	Product          *domain.Product  `json:"product"`
	DiscountPercent  *int64           `json:"discountPercent,omitempty"`
	SelectedVariants domain.Selection `json:"selectedVariants"`
	SelectedImage    string           `json:"selectedImage"`
	DisplayImage     string           `json:"displayImage"`
	DisplayImageAlt  string           `json:"displayImageAlt"`
	CartEnabled      bool             `json:"cartEnabled"`
	CartItemCount    int              `json:"cartItemCount"`
}

func (c *Controller) Product() ProductView {
	display := c.selection.DisplayImage()
	v := ProductView{
		Product:          c.product,
		SelectedVariants: c.selection.Selection(),
		SelectedImage:    c.selection.SelectedImage(),
		DisplayImage:     display,
		DisplayImageAlt:  c.product.ImageAlt(display, c.product.Title),
		CartEnabled:      c.cart != nil,
	}
	if pct, ok := c.product.DiscountPercent(); ok {
		v.DiscountPercent = &pct
	}
	if c.cart != nil {
		v.CartItemCount = c.cart.TotalItemCount()
	}
	return v
}

func (c *Controller) SelectVariant(ctx context.Context, axisID, valueID string) error {
	return c.selection.SelectVariantValue(ctx, axisID, valueID)
}

func (c *Controller) SelectImage(ctx context.Context, url string) {
	c.selection.SetSelectedImage(ctx, url)
}

func (c *Controller) SetPostalCode(ctx context.Context, raw string) shipping.View {
	return c.shipping.SetPostalCode(ctx, raw)
}

func (c *Controller) LookupShipping(ctx context.Context) shipping.View {
	return c.shipping.Lookup(ctx)
}

func (c *Controller) Shipping() shipping.View {
	return c.shipping.View()
}

func (c *Controller) Notification() (notify.Notification, bool) {
	return c.signal.Current()
}

// AddToCart adds the current selection with the selected image.
func (c *Controller) AddToCart(ctx context.Context) (domain.CartItem, error) {
	if c.cart == nil {
		return domain.CartItem{}, ErrCartDisabled
	}
	return c.cart.AddToCart(ctx, c.product, c.selection.Selection(), c.selection.SelectedImage())
}

func (c *Controller) UpdateQuantity(ctx context.Context, id string, quantity int) (bool, error) {
	if c.cart == nil {
		return false, ErrCartDisabled
	}
	return c.cart.UpdateQuantity(ctx, id, quantity), nil
}

func (c *Controller) RemoveFromCart(ctx context.Context, id string) (bool, error) {
	if c.cart == nil {
		return false, ErrCartDisabled
	}
	return c.cart.RemoveFromCart(ctx, id), nil
}

type CartLine struct {
	domain.CartItem
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type CartView struct {
	Items          []CartLine      `json:"items"`
	TotalItemCount int             `json:"totalItemCount"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
}

func (c *Controller) Cart() (CartView, error) {
	if c.cart == nil {
		return CartView{}, ErrCartDisabled
	}
	items := c.cart.Items()
	v := CartView{
		Items:          make([]CartLine, 0, len(items)),
		TotalItemCount: c.cart.TotalItemCount(),
		TotalPrice:     c.cart.TotalPrice(),
	}
	for _, it := range items {
		v.Items = append(v.Items, CartLine{CartItem: it, LineTotal: it.LineTotal()})
	}
	return v, nil
}
