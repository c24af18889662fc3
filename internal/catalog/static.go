package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const DemoProductID = "1"

// StaticSource serves products held in memory.
type StaticSource struct {
	products map[string]domain.Product
}

func NewStaticSource(products ...domain.Product) *StaticSource {
	s := &StaticSource{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

// Product returns a deep copy so callers cannot change the catalog.
func (s *StaticSource) Product(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return clone(p), nil
}

func clone(p domain.Product) *domain.Product {
	out := p
	if p.OriginalPrice != nil {
		op := *p.OriginalPrice
		out.OriginalPrice = &op
	}
	out.Images = append([]domain.Image(nil), p.Images...)
	out.Variants = make([]domain.Variant, len(p.Variants))
	for i, v := range p.Variants {
		out.Variants[i] = domain.Variant{
			ID:     v.ID,
			Name:   v.Name,
			Values: append([]domain.VariantValue(nil), v.Values...),
		}
	}
	return &out
}

func imageURL(color string) string {
	return fmt.Sprintf("/assets/images/produto/Modelo_em_%s.png", color)
}

// DemoProduct is the running shoe the storefront ships with.
func DemoProduct() domain.Product {
	original := decimal.RequireFromString("429.99")
	return domain.Product{
		ID:            DemoProductID,
		Title:         "Tênis Esportivo de Alta Performance",
		Description:   "Tênis ideal para corridas e treinos de alta intensidade com tecnologia de amortecimento avançada.",
		Price:         decimal.RequireFromString("349.99"),
		OriginalPrice: &original,
		Images: []domain.Image{
			{ID: "img1", URL: imageURL("Branco"), Alt: "Tênis Branco"},
			{ID: "img2", URL: imageURL("Preto"), Alt: "Tênis Preto"},
			{ID: "img5", URL: imageURL("Verde"), Alt: "Tênis Verde"},
		},
		Variants: []domain.Variant{
			{
				ID:   "size",
				Name: "Tamanho",
				Values: []domain.VariantValue{
					{ID: "36", Name: "36", Available: true},
					{ID: "37", Name: "37", Available: true},
					{ID: "38", Name: "38", Available: true},
					{ID: "39", Name: "39", Available: false},
					{ID: "40", Name: "40", Available: true},
					{ID: "41", Name: "41", Available: true},
					{ID: "42", Name: "42", Available: true},
				},
			},
			{
				ID:   "color",
				Name: "Cor",
				Values: []domain.VariantValue{
					{ID: "black", Name: "Preto", Available: true},
					{ID: "white", Name: "Branco", Available: true},
					{ID: "green", Name: "Verde", Available: true},
					{ID: "red", Name: "Vermelho", Available: false},
				},
			},
		},
	}
}
