// Package events publishes cart activity for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	ItemAdded       Type = "item_added"
	QuantityUpdated Type = "quantity_updated"
	ItemRemoved     Type = "item_removed"
)

type CartEvent struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Origin     string    `json:"origin"`
	LineItemID string    `json:"line_item_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewCartEvent(t Type, lineItemID, productID string, quantity int) CartEvent {
	return CartEvent{
		ID:         uuid.NewString(),
		Type:       t,
		LineItemID: lineItemID,
		ProductID:  productID,
		Quantity:   quantity,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e CartEvent) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, CartEvent) error { return nil }
