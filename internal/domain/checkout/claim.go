// internal/domain/checkout/claim.go
package checkout

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrClaimNotFound is returned by ClaimStore when no claim exists for a key.
var ErrClaimNotFound = errors.New("checkout: return claim not found")

// ReturnClaim links a gateway return back to the owner that was handed to
// the gateway. The gateway redirects the browser with only the ambient
// guest cookie attached, so a signed-in shopper's return would otherwise
// resolve to the guest identity. Written at gateway handoff, consumed on
// the return routes.
type ReturnClaim struct {
	OwnerKind string `json:"owner_kind" firestore:"ownerKind"`
	OwnerID   string `json:"owner_id" firestore:"ownerId"`
	// Bearer is the credential completion needs to clear the signed-in
	// shopper's server cart; the redirect itself carries no Authorization
	// header.
	Bearer    string    `json:"bearer,omitempty" firestore:"bearer,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// ReturnClaimKey is the fixed claim key for a guest session, the one
// identity both sides of the gateway round trip share.
func ReturnClaimKey(guestSessionID string) string {
	return "checkout:return:guest:" + strings.TrimSpace(guestSessionID)
}

// ClaimStore persists return claims for the duration of a gateway round
// trip.
type ClaimStore interface {
	GetClaim(ctx context.Context, key string) (*ReturnClaim, error)
	PutClaim(ctx context.Context, key string, c *ReturnClaim) error
	DeleteClaim(ctx context.Context, key string) error
}
