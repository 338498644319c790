// internal/domain/catalog/product.go
package catalog

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidProductID = errors.New("catalog: invalid product id")
	ErrNotFound         = errors.New("catalog: product not found")
)

// Product is the catalog view the cart denormalizes from: stable id, display
// name, current unit price and an optional image.
type Product struct {
	ID       string  `json:"id" firestore:"-"`
	Name     string  `json:"name" firestore:"name"`
	Price    float64 `json:"price" firestore:"price"`
	ImageURL string  `json:"image_url" firestore:"imageUrl"`
}

// Lookup is the outbound port toward the product catalog.
type Lookup interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
}

// ImageURLResolver turns a stored image reference into a browsable URL.
type ImageURLResolver interface {
	ResolveImageURL(ctx context.Context, ref string) (string, error)
}

// Validate checks that the product can be priced into a cart line.
func (p *Product) Validate() error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return ErrInvalidProductID
	}
	if strings.TrimSpace(p.Name) == "" || p.Price < 0 {
		return ErrNotFound
	}
	return nil
}
