package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Images        []Image          `json:"images"`
	Variants      []Variant        `json:"variants"`
}

type Image struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Variant is one independent axis of the product, e.g. size or color.
type Variant struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Values []VariantValue `json:"values"`
}

type VariantValue struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Selection maps a variant axis id to the chosen value id.
type Selection map[string]string

func (p *Product) Variant(id string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

func (v *Variant) Value(id string) (*VariantValue, bool) {
	for i := range v.Values {
		if v.Values[i].ID == id {
			return &v.Values[i], true
		}
	}
	return nil, false
}

// IsAvailable reports false for unknown axes and values as well.
func (p *Product) IsAvailable(variantID, valueID string) bool {
	v, ok := p.Variant(variantID)
	if !ok {
		return false
	}
	val, ok := v.Value(valueID)
	return ok && val.Available
}

func (p *Product) HasImage(url string) bool {
	for _, img := range p.Images {
		if img.URL == url {
			return true
		}
	}
	return false
}

func (p *Product) FirstImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// ImageAlt returns the alt text of the image with the given url, or fallback.
func (p *Product) ImageAlt(url, fallback string) string {
	for _, img := range p.Images {
		if img.URL == url && img.Alt != "" {
			return img.Alt
		}
	}
	return fallback
}

// DiscountPercent is the rounded percentage off the original price.
// ok is false when the product has no usable original price.
func (p *Product) DiscountPercent() (int64, bool) {
	if p.OriginalPrice == nil || !p.OriginalPrice.IsPositive() {
		return 0, false
	}
	ratio := p.Price.Div(*p.OriginalPrice)
	pct := decimal.NewFromInt(1).Sub(ratio).Mul(decimal.NewFromInt(100)).Round(0)
	return pct.IntPart(), true
}
