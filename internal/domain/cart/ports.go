// internal/domain/cart/ports.go
package cart

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss is returned by SnapshotCache when a key has no entry.
	ErrCacheMiss = errors.New("cart: cache miss")
)

// Credentials carry the identity material every commerce-API call needs.
// GuestSession is always present (the ambient cookie), BearerToken only
// after sign-in. The API resolves some cart identity from either.
type Credentials struct {
	BearerToken  string
	GuestSession string
}

// Authenticated reports whether a bearer token is attached.
func (c Credentials) Authenticated() bool {
	return c.BearerToken != ""
}

// RemoteClient is the outbound port toward the commerce cart API.
// It is stateless; every call carries the full credentials.
//
// Not-found policy: GetCart must treat the API's 404 as an empty cart,
// not an error.
type RemoteClient interface {
	GetCart(ctx context.Context, cred Credentials) (*Cart, error)
	AddLine(ctx context.Context, cred Credentials, productID string, quantity int) error
	RemoveLine(ctx context.Context, cred Credentials, productID string) error
	UpdateLineQuantity(ctx context.Context, cred Credentials, lineID string, quantity int) error

	// MergeGuestCart asks the API to union the guest-session cart
	// (identified by the ambient cookie) into the bearer-identified user
	// cart, summing quantities for shared products. Idempotent server-side.
	MergeGuestCart(ctx context.Context, cred Credentials) error
}

// SnapshotCache is the durable key-value mirror of the last known cart.
// Shared across storefront instances; last write wins, no locking. The
// mirror is never authoritative so a lost write only costs a refetch.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*Snapshot, error)
	Put(ctx context.Context, key string, s *Snapshot) error
	Delete(ctx context.Context, key string) error
}
