// internal/application/usecase/cart_store_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/application/query"
	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
)

var (
	ErrCartInvalidArgument = errors.New("cart_store: invalid argument")
	ErrCartLineNotFound    = errors.New("cart_store: line not found")
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

const backgroundRefreshTimeout = 10 * time.Second

// CartStoreUsecase owns the authoritative in-memory cart snapshot per owner
// and mirrors it to the durable snapshot cache. Every mutation is
// read-after-write: issue the mutating call, then unconditionally refetch
// the canonical cart and replace both the in-memory state and the cache.
// Post-mutation state is never computed locally, so client and server
// price snapshots cannot drift.
//
// Concurrency: mutations are NOT serialized against each other. Each one
// runs its own request-then-refetch cycle and the final in-memory state is
// whichever refetch resolves last, which may not be the most recently
// issued mutation. The cart self-corrects on the next read; do not "fix"
// this with locks. Background refreshes, in contrast, carry a sequence
// number and are discarded when stale, so a slow read can never overwrite
// the result of a newer mutation.
type CartStoreUsecase struct {
	remote   cartdom.RemoteClient
	cache    cartdom.SnapshotCache
	resolver *query.ProductResolver
	clock    Clock

	mu     sync.Mutex
	states map[string]*ownerState
}

type ownerState struct {
	snap *cartdom.Snapshot
	// issuedSeq is bumped for every refetch issued for this owner.
	// A background refresh commits only if its number is still current.
	issuedSeq uint64
}

func NewCartStoreUsecase(remote cartdom.RemoteClient, cache cartdom.SnapshotCache, resolver *query.ProductResolver) *CartStoreUsecase {
	return &CartStoreUsecase{
		remote:   remote,
		cache:    cache,
		resolver: resolver,
		clock:    systemClock{},
		states:   map[string]*ownerState{},
	}
}

// NewCartStoreUsecaseWithClock is useful for tests.
func NewCartStoreUsecaseWithClock(remote cartdom.RemoteClient, cache cartdom.SnapshotCache, resolver *query.ProductResolver, clock Clock) *CartStoreUsecase {
	u := NewCartStoreUsecase(remote, cache, resolver)
	if clock != nil {
		u.clock = clock
	}
	return u
}

// GetCart returns the owner's snapshot. The first call for an owner seeds
// synchronously from the durable cache (preload key first) so the page can
// paint immediately, then refreshes from the server in the background; when
// nothing is cached the fetch is synchronous.
func (u *CartStoreUsecase) GetCart(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner) (*cartdom.Snapshot, error) {
	if !owner.Valid() {
		return nil, ErrCartInvalidArgument
	}

	u.mu.Lock()
	st := u.state(owner)
	if st.snap != nil {
		snap := st.snap.Clone()
		u.mu.Unlock()
		u.refreshAsync(cred, owner)
		return snap, nil
	}
	u.mu.Unlock()

	// Preloaded snapshot (written right after a merge) wins over the
	// regular mirror and is consumed on first use.
	if snap, err := u.cache.Get(ctx, owner.PreloadCacheKey()); err == nil && snap != nil {
		_ = u.cache.Delete(ctx, owner.PreloadCacheKey())
		u.adopt(ctx, owner, snap)
		u.refreshAsync(cred, owner)
		return snap.Clone(), nil
	}

	if snap, err := u.cache.Get(ctx, owner.CacheKey()); err == nil && snap != nil {
		u.mu.Lock()
		u.state(owner).snap = snap.Clone()
		u.mu.Unlock()
		u.refreshAsync(cred, owner)
		return snap, nil
	} else if err != nil && !errors.Is(err, cartdom.ErrCacheMiss) {
		log.Printf("[cart_store] WARN: cache read failed owner=%s err=%v", owner.CacheKey(), err)
	}

	return u.refetchAndCommit(ctx, cred, owner)
}

// Add adds quantity of a product. The product must resolve to a priced,
// named catalog product; adding an already-present product increments the
// existing line server-side rather than duplicating it.
func (u *CartStoreUsecase) Add(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner, productID string, quantity int) (*cartdom.Snapshot, error) {
	pid := strings.TrimSpace(productID)
	if !owner.Valid() || pid == "" || quantity <= 0 {
		return nil, ErrCartInvalidArgument
	}

	if _, err := u.resolver.Resolve(ctx, pid); err != nil {
		return nil, err
	}

	if err := u.remote.AddLine(ctx, cred, pid, quantity); err != nil {
		return nil, err
	}
	return u.refetchAndCommit(ctx, cred, owner)
}

// Remove deletes a cart line by line id.
func (u *CartStoreUsecase) Remove(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner, lineID string) (*cartdom.Snapshot, error) {
	lid := strings.TrimSpace(lineID)
	if !owner.Valid() || lid == "" {
		return nil, ErrCartInvalidArgument
	}

	line, ok := u.findLine(owner, lid)
	if !ok {
		// The snapshot may be stale; refetch once before giving up.
		snap, err := u.refetchAndCommit(ctx, cred, owner)
		if err != nil {
			return nil, err
		}
		line, ok = snap.LineByID(lid)
		if !ok {
			return nil, ErrCartLineNotFound
		}
	}

	if err := u.remote.RemoveLine(ctx, cred, line.ProductID); err != nil {
		return nil, err
	}
	return u.refetchAndCommit(ctx, cred, owner)
}

// UpdateQuantity sets a line's quantity. quantity <= 0 removes the line.
func (u *CartStoreUsecase) UpdateQuantity(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner, lineID string, quantity int) (*cartdom.Snapshot, error) {
	lid := strings.TrimSpace(lineID)
	if !owner.Valid() || lid == "" {
		return nil, ErrCartInvalidArgument
	}
	if quantity <= 0 {
		return u.Remove(ctx, cred, owner, lid)
	}

	if err := u.remote.UpdateLineQuantity(ctx, cred, lid, quantity); err != nil {
		return nil, err
	}
	return u.refetchAndCommit(ctx, cred, owner)
}

// ReloadCanonical forces a synchronous refetch and commit. The merge
// reconciler uses it after the server-side union so the mirror reflects
// exactly the canonical merged cart.
func (u *CartStoreUsecase) ReloadCanonical(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner) (*cartdom.Snapshot, error) {
	if !owner.Valid() {
		return nil, ErrCartInvalidArgument
	}
	return u.refetchAndCommit(ctx, cred, owner)
}

// CachedSnapshot returns the last known snapshot without any network call:
// in-memory first, then the durable cache. Returns nil when neither holds
// anything.
func (u *CartStoreUsecase) CachedSnapshot(ctx context.Context, owner cartdom.Owner) *cartdom.Snapshot {
	if !owner.Valid() {
		return nil
	}
	u.mu.Lock()
	if st, ok := u.states[owner.CacheKey()]; ok && st.snap != nil {
		snap := st.snap.Clone()
		u.mu.Unlock()
		return snap
	}
	u.mu.Unlock()

	snap, err := u.cache.Get(ctx, owner.CacheKey())
	if err != nil {
		return nil
	}
	return snap
}

// WritePreload stores a snapshot under the owner's preload key so the very
// next GetCart seeds without a network round trip.
func (u *CartStoreUsecase) WritePreload(ctx context.Context, owner cartdom.Owner, snap *cartdom.Snapshot) error {
	if !owner.Valid() || snap == nil {
		return ErrCartInvalidArgument
	}
	return u.cache.Put(ctx, owner.PreloadCacheKey(), snap)
}

// DropLocal discards the owner's in-memory state and cache entries. Used
// for the guest identity once its cart has been merged away, and on order
// completion.
func (u *CartStoreUsecase) DropLocal(ctx context.Context, owner cartdom.Owner) {
	if !owner.Valid() {
		return
	}
	u.mu.Lock()
	delete(u.states, owner.CacheKey())
	u.mu.Unlock()

	if err := u.cache.Delete(ctx, owner.CacheKey()); err != nil && !errors.Is(err, cartdom.ErrCacheMiss) {
		log.Printf("[cart_store] WARN: cache delete failed key=%s err=%v", owner.CacheKey(), err)
	}
	if err := u.cache.Delete(ctx, owner.PreloadCacheKey()); err != nil && !errors.Is(err, cartdom.ErrCacheMiss) {
		log.Printf("[cart_store] WARN: cache delete failed key=%s err=%v", owner.PreloadCacheKey(), err)
	}
}

// ClearCart removes every line server-side, then drops the local mirror.
// Called on successful order completion only.
func (u *CartStoreUsecase) ClearCart(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner) error {
	if !owner.Valid() {
		return ErrCartInvalidArgument
	}

	cart, err := u.remote.GetCart(ctx, cred)
	if err != nil {
		return err
	}
	if cart != nil {
		cart.Normalize()
		for _, l := range cart.Items {
			if err := u.remote.RemoveLine(ctx, cred, l.ProductID); err != nil {
				return err
			}
		}
	}

	u.DropLocal(ctx, owner)
	return nil
}

// ----------------------------
// internals
// ----------------------------

// state must be called with u.mu held.
func (u *CartStoreUsecase) state(owner cartdom.Owner) *ownerState {
	key := owner.CacheKey()
	st, ok := u.states[key]
	if !ok {
		st = &ownerState{}
		u.states[key] = st
	}
	return st
}

func (u *CartStoreUsecase) findLine(owner cartdom.Owner, lineID string) (cartdom.SnapshotLine, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	st, ok := u.states[owner.CacheKey()]
	if !ok || st.snap == nil {
		return cartdom.SnapshotLine{}, false
	}
	return st.snap.LineByID(lineID)
}

// refetchAndCommit fetches the canonical cart and unconditionally replaces
// the in-memory snapshot and the cache entry. Bumping the sequence first
// invalidates any background refresh still in flight.
func (u *CartStoreUsecase) refetchAndCommit(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner) (*cartdom.Snapshot, error) {
	u.mu.Lock()
	u.state(owner).issuedSeq++
	u.mu.Unlock()

	snap, err := u.fetchSnapshot(ctx, cred, owner)
	if err != nil {
		return nil, err
	}

	u.adopt(ctx, owner, snap)
	return snap.Clone(), nil
}

// refreshAsync issues a background refetch guarded by a sequence number:
// if anything newer was issued while it ran, the result is discarded.
func (u *CartStoreUsecase) refreshAsync(cred cartdom.Credentials, owner cartdom.Owner) {
	u.mu.Lock()
	st := u.state(owner)
	st.issuedSeq++
	my := st.issuedSeq
	u.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
		defer cancel()

		snap, err := u.fetchSnapshot(ctx, cred, owner)
		if err != nil {
			log.Printf("[cart_store] WARN: background refresh failed owner=%s err=%v", owner.CacheKey(), err)
			return
		}

		u.mu.Lock()
		cur := u.state(owner)
		if cur.issuedSeq != my {
			// A mutation or newer refresh superseded this read.
			u.mu.Unlock()
			return
		}
		cur.snap = snap
		u.mu.Unlock()

		if err := u.cache.Put(ctx, owner.CacheKey(), snap); err != nil {
			log.Printf("[cart_store] WARN: cache write failed key=%s err=%v", owner.CacheKey(), err)
		}
	}()
}

func (u *CartStoreUsecase) adopt(ctx context.Context, owner cartdom.Owner, snap *cartdom.Snapshot) {
	u.mu.Lock()
	u.state(owner).snap = snap.Clone()
	u.mu.Unlock()

	if err := u.cache.Put(ctx, owner.CacheKey(), snap); err != nil {
		log.Printf("[cart_store] WARN: cache write failed key=%s err=%v", owner.CacheKey(), err)
	}
}

// fetchSnapshot reads the canonical cart and denormalizes it for display.
// A 404 from the API is an empty cart, handled inside the remote client.
func (u *CartStoreUsecase) fetchSnapshot(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner) (*cartdom.Snapshot, error) {
	cart, err := u.remote.GetCart(ctx, cred)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &cartdom.Cart{}
	}
	cart.Normalize()

	snap := &cartdom.Snapshot{
		OwnerKind: owner.Kind,
		OwnerID:   owner.ID,
		Lines:     make([]cartdom.SnapshotLine, 0, len(cart.Items)),
		FetchedAt: u.clock.Now(),
	}

	for _, l := range cart.Items {
		p, err := u.resolver.Resolve(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		snap.Lines = append(snap.Lines, cartdom.SnapshotLine{
			LineID:    l.ID,
			ProductID: l.ProductID,
			Name:      p.Name,
			UnitPrice: p.Price,
			ImageURL:  p.ImageURL,
			Quantity:  l.Quantity,
		})
	}
	return snap, nil
}
