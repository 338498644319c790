// internal/application/usecase/order_usecase.go
package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"strings"

	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
	checkoutdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/checkout"
	orderdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/order"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/pricing"
)

var (
	ErrOrderInvalidArgument = errors.New("order_usecase: invalid argument")
	ErrOrdersDisabled       = errors.New("order_usecase: order store is not configured")
)

// ConfirmationSender is the outbound port for the order confirmation email.
type ConfirmationSender interface {
	SendOrderConfirmation(ctx context.Context, to string, o *orderdom.Order) error
}

// OrderUsecase handles the gateway return routes: success clears the cart
// and checkout session and records a receipt, cancel preserves both so the
// shopper can resume.
type OrderUsecase struct {
	repo     orderdom.Repository // nil when receipts are disabled
	mailer   ConfirmationSender  // nil when email is disabled
	store    *CartStoreUsecase
	sessions checkoutdom.SessionStore
	claims   checkoutdom.ClaimStore
	clock    Clock
	newID    func() (string, error)
}

func NewOrderUsecase(repo orderdom.Repository, mailer ConfirmationSender, store *CartStoreUsecase, sessions checkoutdom.SessionStore, claims checkoutdom.ClaimStore) *OrderUsecase {
	return &OrderUsecase{
		repo:     repo,
		mailer:   mailer,
		store:    store,
		sessions: sessions,
		claims:   claims,
		clock:    systemClock{},
		newID:    newOrderID,
	}
}

// NewOrderUsecaseWithClock is useful for tests.
func NewOrderUsecaseWithClock(repo orderdom.Repository, mailer ConfirmationSender, store *CartStoreUsecase, sessions checkoutdom.SessionStore, claims checkoutdom.ClaimStore, clock Clock, newID func() (string, error)) *OrderUsecase {
	u := NewOrderUsecase(repo, mailer, store, sessions, claims)
	if clock != nil {
		u.clock = clock
	}
	if newID != nil {
		u.newID = newID
	}
	return u
}

// CompleteOrder runs on the success return route. The purchased lines are
// frozen from the last known snapshot, the receipt is stored (best effort
// when the store is disabled), the confirmation email is sent best effort,
// and only then are the server cart and checkout session destroyed.
func (u *OrderUsecase) CompleteOrder(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner) (*orderdom.Order, error) {
	if !owner.Valid() {
		return nil, ErrOrderInvalidArgument
	}
	ambient := owner
	cred, owner = u.resolveReturn(ctx, cred, owner)

	snap := u.store.CachedSnapshot(ctx, owner)
	if snap.IsEmpty() {
		// The cart may already have been cleared by a duplicate return
		// navigation. Completion is idempotent from the shopper's view.
		_ = u.sessions.Delete(ctx, owner.SessionCacheKey())
		u.dropClaim(ctx, ambient)
		return nil, nil
	}

	sess, err := u.sessions.Get(ctx, owner.SessionCacheKey())
	if err != nil && !errors.Is(err, checkoutdom.ErrSessionNotFound) {
		return nil, err
	}

	var recorded *orderdom.Order
	if sess != nil {
		recorded, err = u.record(ctx, owner, snap, sess)
		if err != nil {
			// Receipt bookkeeping must not leave the shopper stuck on the
			// return page with a paid cart still showing.
			log.Printf("[order] WARN: receipt record failed owner=%s err=%v", owner.CacheKey(), err)
			recorded = nil
		}
	}

	if err := u.store.ClearCart(ctx, cred, owner); err != nil {
		return recorded, err
	}
	if err := u.sessions.Delete(ctx, owner.SessionCacheKey()); err != nil && !errors.Is(err, checkoutdom.ErrSessionNotFound) {
		log.Printf("[order] WARN: session delete failed owner=%s err=%v", owner.CacheKey(), err)
	}
	u.dropClaim(ctx, ambient)

	return recorded, nil
}

// resolveReturn maps the ambient return identity back to the owner that was
// handed to the gateway. The gateway redirect carries only the guest cookie,
// so a signed-in shopper's return arrives looking like a guest; the claim
// written at handoff restores the real owner and the bearer credential.
func (u *OrderUsecase) resolveReturn(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner) (cartdom.Credentials, cartdom.Owner) {
	if u.claims == nil || owner.Kind != cartdom.OwnerGuest {
		return cred, owner
	}
	key := checkoutdom.ReturnClaimKey(owner.ID)
	claim, err := u.claims.GetClaim(ctx, key)
	if err != nil {
		if !errors.Is(err, checkoutdom.ErrClaimNotFound) {
			log.Printf("[order] WARN: return claim lookup failed key=%s err=%v", key, err)
		}
		return cred, owner
	}
	claimed := cartdom.Owner{Kind: cartdom.OwnerKind(claim.OwnerKind), ID: strings.TrimSpace(claim.OwnerID)}
	if !claimed.Valid() {
		return cred, owner
	}
	if cred.BearerToken == "" {
		cred.BearerToken = claim.Bearer
	}
	return cred, claimed
}

// dropClaim consumes the return claim once completion has settled. Kept on
// the error paths so a retried return navigation can still resolve.
func (u *OrderUsecase) dropClaim(ctx context.Context, ambient cartdom.Owner) {
	if u.claims == nil || ambient.Kind != cartdom.OwnerGuest {
		return
	}
	key := checkoutdom.ReturnClaimKey(ambient.ID)
	if err := u.claims.DeleteClaim(ctx, key); err != nil && !errors.Is(err, checkoutdom.ErrClaimNotFound) {
		log.Printf("[order] WARN: return claim delete failed key=%s err=%v", key, err)
	}
}

// CancelCheckout runs on the cancel return route: the cart and the
// partially entered checkout data are preserved, only the processing flag
// is reset.
func (u *OrderUsecase) CancelCheckout(ctx context.Context, owner cartdom.Owner) error {
	if !owner.Valid() {
		return ErrOrderInvalidArgument
	}
	// The cancel redirect is as anonymous as the success one; the claim
	// stays in place so a retried payment attempt still resolves.
	_, owner = u.resolveReturn(ctx, cartdom.Credentials{}, owner)
	sess, err := u.sessions.Get(ctx, owner.SessionCacheKey())
	if err != nil {
		if errors.Is(err, checkoutdom.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	sess.Processing = false
	sess.Touch(u.clock.Now())
	return u.sessions.Put(ctx, owner.SessionCacheKey(), sess)
}

// ListOrders returns the owner's receipts, newest first.
func (u *OrderUsecase) ListOrders(ctx context.Context, ownerID string, limit int) ([]orderdom.Order, error) {
	if u.repo == nil {
		return nil, ErrOrdersDisabled
	}
	oid := strings.TrimSpace(ownerID)
	if oid == "" {
		return nil, ErrOrderInvalidArgument
	}
	if limit <= 0 {
		limit = 20
	}
	return u.repo.ListByOwner(ctx, oid, limit)
}

// GetOrder returns a single receipt. A receipt belonging to another owner
// is reported as not found.
func (u *OrderUsecase) GetOrder(ctx context.Context, ownerID, orderID string) (*orderdom.Order, error) {
	if u.repo == nil {
		return nil, ErrOrdersDisabled
	}
	oid := strings.TrimSpace(ownerID)
	if oid == "" || strings.TrimSpace(orderID) == "" {
		return nil, ErrOrderInvalidArgument
	}
	o, err := u.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.OwnerID != oid {
		return nil, orderdom.ErrNotFound
	}
	return o, nil
}

func (u *OrderUsecase) record(ctx context.Context, owner cartdom.Owner, snap *cartdom.Snapshot, sess *checkoutdom.Session) (*orderdom.Order, error) {
	if u.repo == nil {
		return nil, nil
	}

	id, err := u.newID()
	if err != nil {
		return nil, err
	}

	items := make([]orderdom.Item, 0, len(snap.Lines))
	lines := make([]pricing.LineInput, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, orderdom.Item{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
		lines = append(lines, pricing.LineInput{UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}

	country := strings.TrimSpace(sess.Shipping.Country)
	if country == "" {
		country = pricing.DomesticCountry
	}
	method, ok := pricing.MethodByID(sess.ShippingMethodID, country)
	if !ok {
		method, _ = pricing.MethodByID(pricing.MethodStandard, country)
	}
	totals := pricing.Calculate(lines, method, country).Rounded()

	o, err := orderdom.New(id, owner.ID, sess.Shipping.Email, items, u.clock.Now())
	if err != nil {
		return nil, err
	}
	o.Subtotal = totals.Subtotal
	o.Shipping = totals.Shipping
	o.Tax = totals.Tax
	o.Total = totals.Total
	o.ShippingMethod = method.ID
	o.Country = country

	if err := u.repo.Insert(ctx, o); err != nil {
		return nil, err
	}

	if u.mailer != nil && o.Email != "" {
		if err := u.mailer.SendOrderConfirmation(ctx, o.Email, o); err != nil {
			log.Printf("[order] WARN: confirmation email failed order=%s err=%v", o.ID, err)
		}
	}
	return o, nil
}

func newOrderID() (string, error) {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return "ord_" + hex.EncodeToString(b[:]), nil
}
