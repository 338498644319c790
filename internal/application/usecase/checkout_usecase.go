// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"

	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
	checkoutdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/checkout"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/pricing"
)

var (
	ErrCheckoutInvalidArgument = errors.New("checkout_usecase: invalid argument")
	// ErrCartEmpty means checkout may not be entered; callers redirect to
	// the cart page.
	ErrCartEmpty = errors.New("checkout_usecase: cart is empty")
)

// SessionPatch carries partial checkout-session updates. Nil fields are
// left untouched. The json names mirror the Session wire shape.
type SessionPatch struct {
	Shipping         *checkoutdom.ContactInfo `json:"shipping_info"`
	Billing          *checkoutdom.BillingInfo `json:"billing_info"`
	ShippingMethodID *string                  `json:"shipping_method"`
	OrderNotes       *string                  `json:"order_notes"`
	PaymentMethod    *string                  `json:"payment_method"`
	TermsAccepted    *bool                    `json:"terms_accepted"`
}

// CheckoutUsecase is the four-step workflow controller. It is a state
// container over the session store: it gates forward navigation on
// per-step validation and knows nothing about line items beyond what the
// totals calculator needs, which it reads from the cart store on demand.
type CheckoutUsecase struct {
	sessions checkoutdom.SessionStore
	store    *CartStoreUsecase
	clock    Clock
}

func NewCheckoutUsecase(sessions checkoutdom.SessionStore, store *CartStoreUsecase) *CheckoutUsecase {
	return &CheckoutUsecase{sessions: sessions, store: store, clock: systemClock{}}
}

// NewCheckoutUsecaseWithClock is useful for tests.
func NewCheckoutUsecaseWithClock(sessions checkoutdom.SessionStore, store *CartStoreUsecase, clock Clock) *CheckoutUsecase {
	u := NewCheckoutUsecase(sessions, store)
	if clock != nil {
		u.clock = clock
	}
	return u
}

// Mount enters the checkout workflow. An empty cart returns ErrCartEmpty
// (redirect to the cart page) and destroys any leftover session; otherwise
// an existing session is resumed so partially entered data survives a
// reload, or a fresh one is created at the shipping step.
func (u *CheckoutUsecase) Mount(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner) (*checkoutdom.Session, *cartdom.Snapshot, error) {
	if !owner.Valid() {
		return nil, nil, ErrCheckoutInvalidArgument
	}

	snap, err := u.store.GetCart(ctx, cred, owner)
	if err != nil {
		return nil, nil, err
	}
	if snap.IsEmpty() {
		_ = u.sessions.Delete(ctx, owner.SessionCacheKey())
		return nil, nil, ErrCartEmpty
	}

	sess, err := u.sessions.Get(ctx, owner.SessionCacheKey())
	if err != nil {
		if !errors.Is(err, checkoutdom.ErrSessionNotFound) {
			return nil, nil, err
		}
		sess = checkoutdom.NewSession(u.clock.Now())
		if err := u.sessions.Put(ctx, owner.SessionCacheKey(), sess); err != nil {
			return nil, nil, err
		}
	}
	return sess, snap, nil
}

// Session returns the current workflow state.
func (u *CheckoutUsecase) Session(ctx context.Context, owner cartdom.Owner) (*checkoutdom.Session, error) {
	if !owner.Valid() {
		return nil, ErrCheckoutInvalidArgument
	}
	return u.sessions.Get(ctx, owner.SessionCacheKey())
}

// Update applies field changes without moving the step.
func (u *CheckoutUsecase) Update(ctx context.Context, owner cartdom.Owner, p SessionPatch) (*checkoutdom.Session, error) {
	if !owner.Valid() {
		return nil, ErrCheckoutInvalidArgument
	}
	sess, err := u.sessions.Get(ctx, owner.SessionCacheKey())
	if err != nil {
		return nil, err
	}

	if p.Shipping != nil {
		sess.Shipping = *p.Shipping
	}
	if p.Billing != nil {
		sess.Billing = *p.Billing
	}
	if p.ShippingMethodID != nil {
		sess.ShippingMethodID = strings.TrimSpace(*p.ShippingMethodID)
	}
	if p.OrderNotes != nil {
		sess.OrderNotes = *p.OrderNotes
	}
	if p.PaymentMethod != nil {
		sess.PaymentMethod = strings.TrimSpace(*p.PaymentMethod)
	}
	if p.TermsAccepted != nil {
		sess.TermsAccepted = *p.TermsAccepted
	}
	sess.Touch(u.clock.Now())

	if err := u.sessions.Put(ctx, owner.SessionCacheKey(), sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Next advances one step when the current step validates. Field errors are
// returned inline; they are not errors.
func (u *CheckoutUsecase) Next(ctx context.Context, owner cartdom.Owner) (*checkoutdom.Session, checkoutdom.FieldErrors, error) {
	if !owner.Valid() {
		return nil, nil, ErrCheckoutInvalidArgument
	}
	sess, err := u.sessions.Get(ctx, owner.SessionCacheKey())
	if err != nil {
		return nil, nil, err
	}

	fe, ok := sess.Next(u.clock.Now())
	if !ok {
		return sess, fe, nil
	}
	if err := u.sessions.Put(ctx, owner.SessionCacheKey(), sess); err != nil {
		return nil, nil, err
	}
	return sess, nil, nil
}

// Prev steps back. The step being left is never re-validated.
func (u *CheckoutUsecase) Prev(ctx context.Context, owner cartdom.Owner) (*checkoutdom.Session, error) {
	if !owner.Valid() {
		return nil, ErrCheckoutInvalidArgument
	}
	sess, err := u.sessions.Get(ctx, owner.SessionCacheKey())
	if err != nil {
		return nil, err
	}
	sess.Prev(u.clock.Now())
	if err := u.sessions.Put(ctx, owner.SessionCacheKey(), sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Totals recomputes the derived totals from the current cart snapshot and
// session. Never cached; defaults to the standard method and the domestic
// country until the session says otherwise.
func (u *CheckoutUsecase) Totals(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner) (pricing.Totals, error) {
	if !owner.Valid() {
		return pricing.Totals{}, ErrCheckoutInvalidArgument
	}

	snap, err := u.store.GetCart(ctx, cred, owner)
	if err != nil {
		return pricing.Totals{}, err
	}

	country := pricing.DomesticCountry
	methodID := pricing.MethodStandard
	if sess, err := u.sessions.Get(ctx, owner.SessionCacheKey()); err == nil {
		if c := strings.TrimSpace(sess.Shipping.Country); c != "" {
			country = c
		}
		if m := strings.TrimSpace(sess.ShippingMethodID); m != "" {
			methodID = m
		}
	} else if !errors.Is(err, checkoutdom.ErrSessionNotFound) {
		return pricing.Totals{}, err
	}

	method, ok := pricing.MethodByID(methodID, country)
	if !ok {
		method, _ = pricing.MethodByID(pricing.MethodStandard, country)
	}

	lines := make([]pricing.LineInput, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, pricing.LineInput{UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	return pricing.Calculate(lines, method, country), nil
}

// ShippingMethods lists the methods offered for the session's destination.
func (u *CheckoutUsecase) ShippingMethods(ctx context.Context, owner cartdom.Owner) ([]pricing.Method, error) {
	if !owner.Valid() {
		return nil, ErrCheckoutInvalidArgument
	}
	country := pricing.DomesticCountry
	if sess, err := u.sessions.Get(ctx, owner.SessionCacheKey()); err == nil {
		if c := strings.TrimSpace(sess.Shipping.Country); c != "" {
			country = c
		}
	} else if !errors.Is(err, checkoutdom.ErrSessionNotFound) {
		return nil, err
	}
	return pricing.Methods(country), nil
}

// Abandon destroys the workflow state (explicit cancellation).
func (u *CheckoutUsecase) Abandon(ctx context.Context, owner cartdom.Owner) error {
	if !owner.Valid() {
		return ErrCheckoutInvalidArgument
	}
	return u.sessions.Delete(ctx, owner.SessionCacheKey())
}
