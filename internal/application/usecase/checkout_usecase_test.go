// internal/application/usecase/checkout_usecase_test.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/application/query"
	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
	checkoutdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/checkout"
)

func newCheckoutFixture(remote *fakeRemote) (*CheckoutUsecase, *fakeSessionStore, *CartStoreUsecase) {
	resolver := query.NewProductResolver(newFakeLookup(testProducts()...), nil)
	store := NewCartStoreUsecaseWithClock(remote, newFakeCache(), resolver, fixedClock{t: testNow})
	sessions := newFakeSessionStore()
	uc := NewCheckoutUsecaseWithClock(sessions, store, fixedClock{t: testNow})
	return uc, sessions, store
}

func shippingForm() checkoutdom.ContactInfo {
	return checkoutdom.ContactInfo{
		FirstName:  "Eleni",
		LastName:   "Papadaki",
		Email:      "eleni@example.com",
		Phone:      "+30 210 1234567",
		Address:    "Ermou 12",
		City:       "Athens",
		PostalCode: "10563",
		Country:    "GR",
	}
}

func TestMountEmptyCartRedirects(t *testing.T) {
	uc, sessions, _ := newCheckoutFixture(newFakeRemote())
	owner := cartdom.GuestOwner("sid-1")
	cred := cartdom.Credentials{GuestSession: "tok"}

	// A leftover session from an earlier attempt must not survive the
	// empty-cart redirect.
	_ = sessions.Put(context.Background(), owner.SessionCacheKey(), checkoutdom.NewSession(testNow))

	_, _, err := uc.Mount(context.Background(), cred, owner)
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("err = %v, want cart-empty", err)
	}
	if sessions.has(owner.SessionCacheKey()) {
		t.Fatalf("leftover session should be destroyed")
	}
}

func TestMountCreatesAndResumesSession(t *testing.T) {
	remote := newFakeRemote()
	remote.setLine("ring-01", 1)
	uc, _, _ := newCheckoutFixture(remote)
	owner := cartdom.GuestOwner("sid-1")
	cred := cartdom.Credentials{GuestSession: "tok"}

	sess, snap, err := uc.Mount(context.Background(), cred, owner)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if sess.CurrentStep != checkoutdom.StepShipping {
		t.Fatalf("fresh session step = %d", sess.CurrentStep)
	}
	if snap.IsEmpty() {
		t.Fatalf("mount should return the cart snapshot")
	}

	// Partially entered data survives a reload.
	ship := shippingForm()
	if _, err := uc.Update(context.Background(), owner, SessionPatch{Shipping: &ship}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	resumed, _, err := uc.Mount(context.Background(), cred, owner)
	if err != nil {
		t.Fatalf("remount: %v", err)
	}
	if resumed.Shipping.FirstName != "Eleni" {
		t.Fatalf("remount lost the entered data: %+v", resumed.Shipping)
	}
}

func TestNextGatesOnValidationPrevDoesNot(t *testing.T) {
	remote := newFakeRemote()
	remote.setLine("ring-01", 1)
	uc, _, _ := newCheckoutFixture(remote)
	owner := cartdom.GuestOwner("sid-1")
	cred := cartdom.Credentials{GuestSession: "tok"}

	if _, _, err := uc.Mount(context.Background(), cred, owner); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	sess, fe, err := uc.Next(context.Background(), owner)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(fe) == 0 || sess.CurrentStep != checkoutdom.StepShipping {
		t.Fatalf("invalid shipping should stay put with field errors, fe=%v step=%d", fe, sess.CurrentStep)
	}

	ship := shippingForm()
	if _, err := uc.Update(context.Background(), owner, SessionPatch{Shipping: &ship}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	sess, fe, err = uc.Next(context.Background(), owner)
	if err != nil || len(fe) > 0 {
		t.Fatalf("valid shipping should advance, fe=%v err=%v", fe, err)
	}
	if sess.CurrentStep != checkoutdom.StepBilling {
		t.Fatalf("step = %d, want billing", sess.CurrentStep)
	}

	// Prev never validates, even with a broken billing form.
	sess, err = uc.Prev(context.Background(), owner)
	if err != nil {
		t.Fatalf("Prev: %v", err)
	}
	if sess.CurrentStep != checkoutdom.StepShipping {
		t.Fatalf("step = %d, want shipping", sess.CurrentStep)
	}
}

func TestTotalsDefaultsWithoutSession(t *testing.T) {
	remote := newFakeRemote()
	remote.setLine("ring-01", 1) // 24.50
	uc, _, _ := newCheckoutFixture(remote)
	owner := cartdom.GuestOwner("sid-1")
	cred := cartdom.Credentials{GuestSession: "tok"}

	totals, err := uc.Totals(context.Background(), cred, owner)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	// Standard method, domestic: 24.50 + 5.00 shipping + 24% VAT.
	got := totals.Rounded()
	if got.Subtotal != 24.5 || got.Shipping != 5 || got.Tax != 5.88 || got.Total != 35.38 {
		t.Fatalf("totals = %+v", got)
	}
}

func TestTotalsFollowSessionMethodAndCountry(t *testing.T) {
	remote := newFakeRemote()
	remote.setLine("neck-02", 1) // 61.00, over the free-shipping threshold
	uc, sessions, _ := newCheckoutFixture(remote)
	owner := cartdom.GuestOwner("sid-1")
	cred := cartdom.Credentials{GuestSession: "tok"}

	sess := checkoutdom.NewSession(testNow)
	sess.Shipping = shippingForm()
	sess.Shipping.Country = "DE"
	sess.ShippingMethodID = "express"
	_ = sessions.Put(context.Background(), owner.SessionCacheKey(), sess)

	totals, err := uc.Totals(context.Background(), cred, owner)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	// Express 9.00 + 15.00 international surcharge; no free shipping for
	// express regardless of subtotal.
	if got := totals.Rounded().Shipping; got != 24 {
		t.Fatalf("shipping = %v, want 24", got)
	}
}

func TestTotalsFallBackWhenMethodInvalidForDestination(t *testing.T) {
	remote := newFakeRemote()
	remote.setLine("ring-01", 1)
	uc, sessions, _ := newCheckoutFixture(remote)
	owner := cartdom.GuestOwner("sid-1")
	cred := cartdom.Credentials{GuestSession: "tok"}

	// Overnight selected, then the destination changed to international.
	sess := checkoutdom.NewSession(testNow)
	sess.Shipping = shippingForm()
	sess.Shipping.Country = "FR"
	sess.ShippingMethodID = "overnight"
	_ = sessions.Put(context.Background(), owner.SessionCacheKey(), sess)

	totals, err := uc.Totals(context.Background(), cred, owner)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	// Falls back to standard: 5.00 + 15.00 surcharge.
	if got := totals.Rounded().Shipping; got != 20 {
		t.Fatalf("shipping = %v, want standard fallback 20", got)
	}
}

func TestShippingMethodsHideOvernightAbroad(t *testing.T) {
	remote := newFakeRemote()
	uc, sessions, _ := newCheckoutFixture(remote)
	owner := cartdom.GuestOwner("sid-1")

	methods, err := uc.ShippingMethods(context.Background(), owner)
	if err != nil {
		t.Fatalf("ShippingMethods: %v", err)
	}
	if len(methods) != 3 {
		t.Fatalf("domestic default should offer 3 methods, got %d", len(methods))
	}

	sess := checkoutdom.NewSession(testNow)
	sess.Shipping.Country = "IT"
	_ = sessions.Put(context.Background(), owner.SessionCacheKey(), sess)

	methods, err = uc.ShippingMethods(context.Background(), owner)
	if err != nil {
		t.Fatalf("ShippingMethods: %v", err)
	}
	if len(methods) != 2 {
		t.Fatalf("international should offer 2 methods, got %d", len(methods))
	}
}

func TestSessionPatchDecodesSessionWireNames(t *testing.T) {
	// The PATCH body uses the same snake_case names the session itself
	// serializes with; unknown fields are rejected at the handler.
	body := `{"shipping_info":{"first_name":"Eleni","country":"GR"},"shipping_method":"express","terms_accepted":true}`
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var p SessionPatch
	if err := dec.Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Shipping == nil || p.Shipping.FirstName != "Eleni" || p.Shipping.Country != "GR" {
		t.Fatalf("shipping = %+v", p.Shipping)
	}
	if p.ShippingMethodID == nil || *p.ShippingMethodID != "express" {
		t.Fatalf("shipping method = %v", p.ShippingMethodID)
	}
	if p.TermsAccepted == nil || !*p.TermsAccepted {
		t.Fatalf("terms = %v", p.TermsAccepted)
	}
	if p.Billing != nil || p.OrderNotes != nil || p.PaymentMethod != nil {
		t.Fatalf("untouched fields must stay nil: %+v", p)
	}
}

func TestAbandonDeletesSession(t *testing.T) {
	uc, sessions, _ := newCheckoutFixture(newFakeRemote())
	owner := cartdom.GuestOwner("sid-1")

	_ = sessions.Put(context.Background(), owner.SessionCacheKey(), checkoutdom.NewSession(testNow))
	if err := uc.Abandon(context.Background(), owner); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if sessions.has(owner.SessionCacheKey()) {
		t.Fatalf("session should be gone")
	}
}
