// internal/application/query/catalog_query.go
package query

import (
	"context"
	"errors"
	"strings"
	"sync"

	catalogdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/catalog"
)

// ErrStaleResponse marks a detail load that completed after the viewer had
// already asked for a different product. It is a cancellation signal, not a
// failure, and must never be surfaced to the user.
var ErrStaleResponse = errors.New("query: stale response discarded")

// DetailView tracks the product-detail fetches of one viewer. Each load
// takes a monotonically increasing sequence number; a completion whose
// sequence no longer matches the latest one is discarded without touching
// shared state, so navigating away can never paint the previous product.
type DetailView struct {
	resolver *ProductResolver

	mu      sync.Mutex
	seq     uint64
	current *catalogdom.Product
}

// Load fetches the detail for productID. Returns ErrStaleResponse when a
// newer load was issued while this one was in flight.
func (v *DetailView) Load(ctx context.Context, productID string) (*catalogdom.Product, error) {
	v.mu.Lock()
	v.seq++
	my := v.seq
	v.mu.Unlock()

	p, err := v.resolver.Resolve(ctx, productID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if my != v.seq {
		return nil, ErrStaleResponse
	}
	if err != nil {
		return nil, err
	}
	v.current = &p
	return &p, nil
}

// Current returns the last committed detail, nil when none.
func (v *DetailView) Current() *catalogdom.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// maxTrackedViewers bounds the per-viewer view map. Evicting the oldest
// viewer only loses its stale-response sequence; the next request starts a
// fresh view.
const maxTrackedViewers = 4096

// CatalogQuery is the read-model for product detail views, one DetailView
// per viewer (guest session or user).
type CatalogQuery struct {
	resolver *ProductResolver

	mu        sync.Mutex
	views     map[string]*DetailView
	viewOrder []string
}

func NewCatalogQuery(resolver *ProductResolver) *CatalogQuery {
	return &CatalogQuery{resolver: resolver, views: map[string]*DetailView{}}
}

// View returns (creating if needed) the viewer's detail view.
func (q *CatalogQuery) View(viewerKey string) *DetailView {
	key := strings.TrimSpace(viewerKey)
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.views[key]
	if !ok {
		v = &DetailView{resolver: q.resolver}
		q.views[key] = v
		q.viewOrder = append(q.viewOrder, key)
		if len(q.viewOrder) > maxTrackedViewers {
			delete(q.views, q.viewOrder[0])
			q.viewOrder = q.viewOrder[1:]
		}
	}
	return v
}

// LoadDetail loads a product detail on behalf of a viewer.
func (q *CatalogQuery) LoadDetail(ctx context.Context, viewerKey, productID string) (*catalogdom.Product, error) {
	return q.View(viewerKey).Load(ctx, productID)
}
