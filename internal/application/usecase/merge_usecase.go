// internal/application/usecase/merge_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
)

var (
	ErrMergeInvalidArgument = errors.New("merge_usecase: invalid argument")
)

// MergeResult reports what the reconciler did so the caller can choose a
// post-sign-in destination.
type MergeResult struct {
	// Merged is true when the server union was attempted and succeeded.
	Merged bool
	// Snapshot is the canonical user cart after the merge, when available.
	Snapshot *cartdom.Snapshot
	// RedirectToCart tells the caller to land on the cart page instead of
	// the originally intended destination, surfacing the merge outcome.
	RedirectToCart bool
}

// MergeUsecase is the guest->user cart merge reconciler. It is the sole
// ownership transition for a cart and fires at most once per
// authentication event, even when the sign-in callback is re-entered.
//
// Merge failure never blocks sign-in: the authentication transition is
// already committed when the reconciler runs, so a failed union degrades
// to "guest cart kept in cache, server cart may diverge" and is logged.
// maxTrackedAuthEvents bounds the single-fire guard. Auth events are
// short-lived, so evicting the oldest id cannot re-fire a live callback.
const maxTrackedAuthEvents = 4096

type MergeUsecase struct {
	store  *CartStoreUsecase
	remote cartdom.RemoteClient

	mu         sync.Mutex
	fired      map[string]struct{}
	firedOrder []string
}

func NewMergeUsecase(store *CartStoreUsecase, remote cartdom.RemoteClient) *MergeUsecase {
	return &MergeUsecase{
		store:  store,
		remote: remote,
		fired:  map[string]struct{}{},
	}
}

// MergeGuestCartIntoUser unions the guest-session cart into the signed-in
// user's server cart, then reloads the canonical result into the store and
// cache, and writes the user's preload key for the next page mount.
//
// authEventID scopes the single-fire guard to the authentication event
// (the identity provider's event/token id), not to process lifetime.
func (u *MergeUsecase) MergeGuestCartIntoUser(ctx context.Context, authEventID string, cred cartdom.Credentials, guestSessionID, userUID string) (*MergeResult, error) {
	eventID := strings.TrimSpace(authEventID)
	if eventID == "" || !cred.Authenticated() {
		return nil, ErrMergeInvalidArgument
	}
	guest := cartdom.GuestOwner(guestSessionID)
	user := cartdom.UserOwner(userUID)
	if !guest.Valid() || !user.Valid() {
		return nil, ErrMergeInvalidArgument
	}

	// Single fire per auth event. The guard is set before the attempt so a
	// re-entered callback cannot race a second merge, even while the first
	// one is still in flight.
	u.mu.Lock()
	if _, done := u.fired[eventID]; done {
		u.mu.Unlock()
		log.Printf("[merge] skip: already fired for auth event %s", eventID)
		return &MergeResult{}, nil
	}
	u.fired[eventID] = struct{}{}
	u.firedOrder = append(u.firedOrder, eventID)
	if len(u.firedOrder) > maxTrackedAuthEvents {
		delete(u.fired, u.firedOrder[0])
		u.firedOrder = u.firedOrder[1:]
	}
	u.mu.Unlock()

	// The guest cart is checked at the moment of merge, not at page load:
	// it may have been filled mid-authentication-flow.
	guestSnap := u.store.CachedSnapshot(ctx, guest)
	if guestSnap.IsEmpty() {
		log.Printf("[merge] skip: guest cart empty at merge time (event=%s)", eventID)
		return &MergeResult{}, nil
	}

	if err := u.remote.MergeGuestCart(ctx, cred); err != nil {
		// Sign-in has already completed; the union is best effort.
		log.Printf("[merge] WARN: server merge failed event=%s err=%v", eventID, err)
		return &MergeResult{}, nil
	}

	res := &MergeResult{Merged: true}

	snap, err := u.store.ReloadCanonical(ctx, cred, user)
	if err != nil {
		log.Printf("[merge] WARN: canonical reload failed after merge event=%s err=%v", eventID, err)
		return res, nil
	}
	res.Snapshot = snap
	res.RedirectToCart = !snap.IsEmpty()

	if err := u.store.WritePreload(ctx, user, snap); err != nil {
		log.Printf("[merge] WARN: preload write failed event=%s err=%v", eventID, err)
	}

	// The guest mirror is superseded by the canonical user cart.
	u.store.DropLocal(ctx, guest)

	log.Printf("[merge] OK: guest cart merged event=%s lines=%d", eventID, len(snap.Lines))
	return res, nil
}
