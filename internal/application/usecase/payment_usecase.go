// internal/application/usecase/payment_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
	checkoutdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/checkout"
	"github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/pricing"
)

var (
	ErrPaymentInvalidOrigin     = errors.New("payment_usecase: public origin is not an absolute url")
	ErrPaymentCartEmpty         = errors.New("payment_usecase: cart is empty")
	ErrPaymentStepIncomplete    = errors.New("payment_usecase: checkout steps are not complete")
	ErrPaymentMalformedRedirect = errors.New("payment_usecase: gateway redirect url is missing or malformed")
)

const (
	successReturnPath = "/store/checkout/return/success"
	cancelReturnPath  = "/store/checkout/return/cancel"
)

// GatewayItem is one line of the gateway-session payload. UnitAmount is in
// minor currency units (euro cents); name and amount are optional hints.
type GatewayItem struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	Name       string `json:"name,omitempty"`
	UnitAmount int64  `json:"unit_amount,omitempty"`
}

// GatewaySessionInput is the checkout-session creation request.
type GatewaySessionInput struct {
	Items          []GatewayItem `json:"items"`
	SuccessURL     string        `json:"success_url"`
	CancelURL      string        `json:"cancel_url"`
	DeliveryMethod string        `json:"delivery_method,omitempty"`
}

// GatewaySessionResult is the gateway's answer: an absolute redirect URL
// and/or an opaque session id. The success path must use URL directly.
type GatewaySessionResult struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// CheckoutGateway is the outbound port toward the payment gateway's
// session-creation endpoint.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, in GatewaySessionInput) (*GatewaySessionResult, error)
}

// PaymentSessionUsecase hands the cart off to the payment gateway. It does
// not learn the payment outcome; that arrives out-of-band on the return
// routes.
type PaymentSessionUsecase struct {
	gateway  CheckoutGateway
	store    *CartStoreUsecase
	sessions checkoutdom.SessionStore
	claims   checkoutdom.ClaimStore
	origin   *url.URL
	clock    Clock
}

// NewPaymentSessionUsecase fails fast when the public origin is not a
// valid absolute URL: a broken origin would produce broken return URLs on
// every checkout.
func NewPaymentSessionUsecase(gateway CheckoutGateway, store *CartStoreUsecase, sessions checkoutdom.SessionStore, claims checkoutdom.ClaimStore, publicOrigin string) (*PaymentSessionUsecase, error) {
	origin, err := parseAbsoluteURL(publicOrigin)
	if err != nil {
		return nil, ErrPaymentInvalidOrigin
	}
	return &PaymentSessionUsecase{
		gateway:  gateway,
		store:    store,
		sessions: sessions,
		claims:   claims,
		origin:   origin,
		clock:    systemClock{},
	}, nil
}

// StartCheckout builds the line-item payload from the canonical cart and
// asks the gateway for a redirect URL. The returned URL is validated before
// anyone navigates to it: a missing or malformed target is fatal to the
// attempt, never followed.
//
// guestSessionID identifies the ambient guest cookie the gateway will echo
// back on the return routes; a return claim is recorded under it so the
// return can be mapped to owner even when the redirect arrives without an
// Authorization header.
func (u *PaymentSessionUsecase) StartCheckout(ctx context.Context, cred cartdom.Credentials, owner cartdom.Owner, guestSessionID string) (string, error) {
	if !owner.Valid() {
		return "", ErrCheckoutInvalidArgument
	}

	sess, err := u.sessions.Get(ctx, owner.SessionCacheKey())
	if err != nil {
		if errors.Is(err, checkoutdom.ErrSessionNotFound) {
			return "", ErrPaymentStepIncomplete
		}
		return "", err
	}
	for step := checkoutdom.StepShipping; step <= checkoutdom.StepPayment; step++ {
		if fe := sess.ValidateStep(step); len(fe) > 0 {
			return "", fmt.Errorf("%w: step %d", ErrPaymentStepIncomplete, step)
		}
	}

	// Canonical cart, not the mirror: the gateway sees exactly what the
	// server would charge for.
	snap, err := u.store.ReloadCanonical(ctx, cred, owner)
	if err != nil {
		return "", err
	}
	if snap.IsEmpty() {
		return "", ErrPaymentCartEmpty
	}

	items := make([]GatewayItem, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, GatewayItem{
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			Name:       l.Name,
			UnitAmount: pricing.Cents(l.UnitPrice),
		})
	}

	res, err := u.gateway.CreateCheckoutSession(ctx, GatewaySessionInput{
		Items:          items,
		SuccessURL:     u.returnURL(successReturnPath),
		CancelURL:      u.returnURL(cancelReturnPath),
		DeliveryMethod: sess.ShippingMethodID,
	})
	if err != nil {
		return "", err
	}

	if res == nil || strings.TrimSpace(res.URL) == "" {
		return "", ErrPaymentMalformedRedirect
	}
	if _, err := parseAbsoluteURL(res.URL); err != nil {
		return "", ErrPaymentMalformedRedirect
	}

	// Claim first, then mark processing: a checkout whose return could not
	// be resolved must not be handed to the gateway.
	if sid := strings.TrimSpace(guestSessionID); u.claims != nil && sid != "" {
		claim := &checkoutdom.ReturnClaim{
			OwnerKind: string(owner.Kind),
			OwnerID:   owner.ID,
			Bearer:    cred.BearerToken,
			CreatedAt: u.clock.Now(),
		}
		if err := u.claims.PutClaim(ctx, checkoutdom.ReturnClaimKey(sid), claim); err != nil {
			return "", err
		}
	}

	sess.Processing = true
	sess.Touch(u.clock.Now())
	if err := u.sessions.Put(ctx, owner.SessionCacheKey(), sess); err != nil {
		return "", err
	}

	return strings.TrimSpace(res.URL), nil
}

func (u *PaymentSessionUsecase) returnURL(path string) string {
	ref := *u.origin
	ref.Path = strings.TrimRight(ref.Path, "/") + path
	return ref.String()
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("not an absolute http(s) url: %q", raw)
	}
	return parsed, nil
}
