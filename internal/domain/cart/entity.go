// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCart = errors.New("cart: invalid")
	ErrInvalidLine = errors.New("cart: invalid line")
)

// Line is one cart line as the commerce API reports it.
// A cart never holds two lines for the same ProductID; adding an
// already-present product sums quantities instead of duplicating.
type Line struct {
	ID        string `json:"id" firestore:"id"`
	ProductID string `json:"product_id" firestore:"productId"`
	Quantity  int    `json:"quantity" firestore:"quantity"`
}

// Cart is the server-canonical cart body.
type Cart struct {
	Items []Line `json:"items" firestore:"items"`
}

// OwnerKind distinguishes the two possible cart identities.
type OwnerKind string

const (
	OwnerGuest OwnerKind = "guest"
	OwnerUser  OwnerKind = "user"
)

// Owner identifies who a cart (and its cached snapshot) belongs to:
// either an anonymous guest session or an authenticated user. Ownership
// only ever changes guest -> user, and only through the merge reconciler.
type Owner struct {
	Kind OwnerKind
	ID   string
}

func GuestOwner(sessionID string) Owner {
	return Owner{Kind: OwnerGuest, ID: strings.TrimSpace(sessionID)}
}

func UserOwner(uid string) Owner {
	return Owner{Kind: OwnerUser, ID: strings.TrimSpace(uid)}
}

func (o Owner) Valid() bool {
	return (o.Kind == OwnerGuest || o.Kind == OwnerUser) && o.ID != ""
}

// CacheKey is the fixed durable-cache key for this owner's snapshot.
func (o Owner) CacheKey() string {
	return "cart:" + string(o.Kind) + ":" + o.ID
}

// PreloadCacheKey holds a snapshot written immediately after a merge so the
// next read can seed without a network round trip.
func (o Owner) PreloadCacheKey() string {
	return "cart:preload:" + string(o.Kind) + ":" + o.ID
}

// SessionCacheKey is the fixed key for the owner's checkout session state.
func (o Owner) SessionCacheKey() string {
	return "checkout:" + string(o.Kind) + ":" + o.ID
}

// IsEmpty reports whether the cart holds no effective quantity.
func (c *Cart) IsEmpty() bool {
	if c == nil {
		return true
	}
	for _, l := range c.Items {
		if l.Quantity > 0 {
			return false
		}
	}
	return true
}

// Quantity returns the quantity for a product, 0 when absent.
func (c *Cart) Quantity(productID string) int {
	if c == nil {
		return 0
	}
	for _, l := range c.Items {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// LineByID returns the line with the given line id.
func (c *Cart) LineByID(lineID string) (Line, bool) {
	if c == nil {
		return Line{}, false
	}
	for _, l := range c.Items {
		if l.ID == lineID {
			return l, true
		}
	}
	return Line{}, false
}

// Normalize merges duplicate product lines (summing quantities), drops
// non-positive quantities and orders lines deterministically by product id.
// The first seen line id for a product wins.
func (c *Cart) Normalize() {
	if c == nil || len(c.Items) == 0 {
		return
	}

	merged := map[string]Line{}
	for _, it := range c.Items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" || it.Quantity <= 0 {
			continue
		}
		if ex, ok := merged[pid]; ok {
			ex.Quantity += it.Quantity
			merged[pid] = ex
			continue
		}
		merged[pid] = Line{ID: strings.TrimSpace(it.ID), ProductID: pid, Quantity: it.Quantity}
	}

	pids := make([]string, 0, len(merged))
	for pid := range merged {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	out := make([]Line, 0, len(pids))
	for _, pid := range pids {
		out = append(out, merged[pid])
	}
	c.Items = out
}

// Union folds other's lines into c, summing quantities for shared products.
// This mirrors what the server-side merge endpoint does; the storefront only
// uses it in tests and fakes, never to compute post-merge state for real.
func (c *Cart) Union(other *Cart) {
	if c == nil || other == nil {
		return
	}
	c.Items = append(c.Items, other.Items...)
	c.Normalize()
}

// Validate checks structural line invariants.
func (c *Cart) Validate() error {
	if c == nil {
		return ErrInvalidCart
	}
	seen := map[string]bool{}
	for _, l := range c.Items {
		if strings.TrimSpace(l.ProductID) == "" || l.Quantity <= 0 {
			return ErrInvalidLine
		}
		if seen[l.ProductID] {
			return ErrInvalidCart
		}
		seen[l.ProductID] = true
	}
	return nil
}
