// Package cart keeps the shopper's line items and persists them after every
// change.
package cart

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/store"
)

const (
	StorageKey = "cart"

	MsgAdded = "Produto adicionado ao carrinho!"

	idSeparator = "-"
)

type Notifier interface {
	Success(message string) notify.Token
	Warning(message string) notify.Token
}

type nopNotifier struct{}

func (nopNotifier) Success(string) notify.Token { return 0 }
func (nopNotifier) Warning(string) notify.Token { return 0 }

type Engine struct {
	mu        sync.RWMutex
	items     []domain.CartItem
	store     *store.Adapter
	notifier  Notifier
	publisher events.Publisher
	log       *slog.Logger
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates the engine and loads the persisted cart. A missing or corrupt
// cart starts empty.
func New(ctx context.Context, adapter *store.Adapter, opts ...Option) *Engine {
	e := &Engine{
		items:     []domain.CartItem{},
		store:     adapter,
		notifier:  nopNotifier{},
		publisher: events.Nop{},
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.load(ctx)
	return e
}

func (e *Engine) load(ctx context.Context) {
	var items []domain.CartItem
	if !e.store.Load(ctx, StorageKey, &items) {
		return
	}
	if !valid(items) {
		e.log.WarnContext(ctx, "discarding corrupt stored cart", "items", len(items))
		return
	}
	if items != nil {
		e.items = items
	}
}

func valid(items []domain.CartItem) bool {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 {
			return false
		}
		if _, dup := seen[it.ID]; dup {
			return false
		}
		seen[it.ID] = struct{}{}
	}
	return true
}

// LineItemID joins the product id and the selected values in the product's
// axis order. Axes absent from the product are ignored.
func LineItemID(product *domain.Product, sel domain.Selection) string {
	parts := make([]string, 0, len(product.Variants)+1)
	parts = append(parts, product.ID)
	for _, v := range product.Variants {
		parts = append(parts, sel[v.ID])
	}
	return strings.Join(parts, idSeparator)
}

func missingVariants(product *domain.Product, sel domain.Selection) *MissingVariantsError {
	var missing MissingVariantsError
	for _, v := range product.Variants {
		if sel[v.ID] == "" {
			missing.IDs = append(missing.IDs, v.ID)
			missing.Names = append(missing.Names, v.Name)
		}
	}
	if len(missing.IDs) == 0 {
		return nil
	}
	return &missing
}

// AddToCart adds one unit of the selected configuration. Every variant axis
// must have a value; otherwise nothing changes and a *MissingVariantsError is
// returned. A configuration already in the cart only gains quantity.
func (e *Engine) AddToCart(ctx context.Context, product *domain.Product, sel domain.Selection, selectedImage string) (domain.CartItem, error) {
	if missing := missingVariants(product, sel); missing != nil {
		e.notifier.Warning(missing.Message())
		return domain.CartItem{}, missing
	}

	id := LineItemID(product, sel)

	e.mu.Lock()
	var item domain.CartItem
	if i := e.index(id); i >= 0 {
		e.items[i].Quantity++
		item = e.items[i]
	} else {
		item = newItem(id, product, sel, selectedImage)
		e.items = append(e.items, item)
	}
	e.persist(ctx)
	e.mu.Unlock()

	e.notifier.Success(MsgAdded)
	e.publish(ctx, events.NewCartEvent(events.ItemAdded, item.ID, item.ProductID, item.Quantity))
	return cloneItem(item), nil
}

func newItem(id string, product *domain.Product, sel domain.Selection, selectedImage string) domain.CartItem {
	image := selectedImage
	if image == "" {
		image = product.FirstImageURL()
	}

	variants := make([]domain.CartItemVariant, 0, len(product.Variants))
	for _, v := range product.Variants {
		valueID := sel[v.ID]
		d := domain.CartItemVariant{
			VariantID:   v.ID,
			VariantName: v.Name,
			ValueID:     valueID,
		}
		if val, ok := v.Value(valueID); ok {
			d.ValueName = val.Name
		}
		variants = append(variants, d)
	}

	return domain.CartItem{
		ID:        id,
		ProductID: product.ID,
		Title:     product.Title,
		Price:     product.Price,
		Quantity:  1,
		Image:     image,
		Variants:  variants,
	}
}

// UpdateQuantity sets the quantity of an existing line item. Quantities
// below one and unknown ids leave the cart untouched and report false.
func (e *Engine) UpdateQuantity(ctx context.Context, id string, quantity int) bool {
	if quantity < 1 {
		return false
	}

	e.mu.Lock()
	i := e.index(id)
	if i < 0 {
		e.mu.Unlock()
		return false
	}
	e.items[i].Quantity = quantity
	productID := e.items[i].ProductID
	e.persist(ctx)
	e.mu.Unlock()

	e.publish(ctx, events.NewCartEvent(events.QuantityUpdated, id, productID, quantity))
	return true
}

func (e *Engine) RemoveFromCart(ctx context.Context, id string) bool {
	e.mu.Lock()
	i := e.index(id)
	if i < 0 {
		e.mu.Unlock()
		return false
	}
	productID := e.items[i].ProductID
	e.items = slices.Delete(e.items, i, i+1)
	e.persist(ctx)
	e.mu.Unlock()

	e.publish(ctx, events.NewCartEvent(events.ItemRemoved, id, productID, 0))
	return true
}

func (e *Engine) Items() []domain.CartItem {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.CartItem, len(e.items))
	for i, it := range e.items {
		out[i] = cloneItem(it)
	}
	return out
}

func (e *Engine) Item(id string) (domain.CartItem, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if i := e.index(id); i >= 0 {
		return cloneItem(e.items[i]), true
	}
	return domain.CartItem{}, false
}

// Len is the number of distinct line items.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.items)
}

func (e *Engine) TotalItemCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	total := 0
	for _, it := range e.items {
		total += it.Quantity
	}
	return total
}

// TotalPrice sums the captured unit prices, never the live catalog price.
func (e *Engine) TotalPrice() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()

	total := decimal.Zero
	for _, it := range e.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (e *Engine) index(id string) int {
	return slices.IndexFunc(e.items, func(it domain.CartItem) bool { return it.ID == id })
}

// persist must be called with mu held.
func (e *Engine) persist(ctx context.Context) {
	e.store.Save(ctx, StorageKey, e.items)
}

func (e *Engine) publish(ctx context.Context, evt events.CartEvent) {
	if err := e.publisher.Publish(ctx, evt); err != nil {
		e.log.WarnContext(ctx, "publish cart event failed", "type", evt.Type, "error", err)
	}
}

func cloneItem(it domain.CartItem) domain.CartItem {
	it.Variants = slices.Clone(it.Variants)
	return it
}
