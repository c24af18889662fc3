package domain

import "github.com/shopspring/decimal"

// CartItem is one purchasable configuration of a product. Everything but
// Quantity is captured when the item is first added.
type CartItem struct {
	ID        string            `json:"id"`
	ProductID string            `json:"productId"`
	Title     string            `json:"title"`
	Price     decimal.Decimal   `json:"price"`
	Quantity  int               `json:"quantity"`
	Image     string            `json:"image"`
	Variants  []CartItemVariant `json:"variants"`
}

type CartItemVariant struct {
	VariantID   string `json:"variantId"`
	VariantName string `json:"variantName"`
	ValueID     string `json:"valueId"`
	ValueName   string `json:"valueName"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
