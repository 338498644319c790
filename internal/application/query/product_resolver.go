// internal/application/query/product_resolver.go
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"

	catalogdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/catalog"
)

// ProductResolver joins catalog lookups with image URL resolution and
// memoizes results. Catalog data is read-only display data, so a process
// lifetime memo is acceptable; snapshot prices still come from the server
// cart refetch, never from here.
type ProductResolver struct {
	lookup catalogdom.Lookup
	images catalogdom.ImageURLResolver // optional

	mu   sync.Mutex
	memo map[string]catalogdom.Product
}

func NewProductResolver(lookup catalogdom.Lookup, images catalogdom.ImageURLResolver) *ProductResolver {
	return &ProductResolver{
		lookup: lookup,
		images: images,
		memo:   map[string]catalogdom.Product{},
	}
}

// Resolve returns the priced, named product for an id, or an error when the
// id does not resolve (an unresolvable product may not enter a cart).
func (r *ProductResolver) Resolve(ctx context.Context, productID string) (catalogdom.Product, error) {
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return catalogdom.Product{}, catalogdom.ErrInvalidProductID
	}

	r.mu.Lock()
	if p, ok := r.memo[pid]; ok {
		r.mu.Unlock()
		return p, nil
	}
	r.mu.Unlock()

	p, err := r.lookup.GetProduct(ctx, pid)
	if err != nil {
		return catalogdom.Product{}, err
	}
	if err := p.Validate(); err != nil {
		return catalogdom.Product{}, err
	}

	resolved := *p
	if r.images != nil && resolved.ImageURL != "" {
		u, err := r.images.ResolveImageURL(ctx, resolved.ImageURL)
		if err != nil {
			return catalogdom.Product{}, fmt.Errorf("query: resolve image url for %s: %w", pid, err)
		}
		resolved.ImageURL = u
	}

	r.mu.Lock()
	r.memo[pid] = resolved
	r.mu.Unlock()
	return resolved, nil
}

// Forget drops a memoized product (admin-triggered catalog edits).
func (r *ProductResolver) Forget(productID string) {
	r.mu.Lock()
	delete(r.memo, strings.TrimSpace(productID))
	r.mu.Unlock()
}
