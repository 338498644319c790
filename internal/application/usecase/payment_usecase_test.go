// internal/application/usecase/payment_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/application/query"
	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
	checkoutdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/checkout"
)

func completeSession() *checkoutdom.Session {
	sess := checkoutdom.NewSession(testNow)
	sess.Shipping = shippingForm()
	sess.Billing.SameAsShipping = true
	sess.ShippingMethodID = "standard"
	sess.PaymentMethod = "card"
	sess.TermsAccepted = true
	sess.CurrentStep = checkoutdom.StepPayment
	return sess
}

func newPaymentFixture(t *testing.T, remote *fakeRemote, gw *fakeGateway) (*PaymentSessionUsecase, *fakeSessionStore) {
	t.Helper()
	resolver := query.NewProductResolver(newFakeLookup(testProducts()...), nil)
	store := NewCartStoreUsecaseWithClock(remote, newFakeCache(), resolver, fixedClock{t: testNow})
	sessions := newFakeSessionStore()
	uc, err := NewPaymentSessionUsecase(gw, store, sessions, sessions, "https://shop.example.com")
	if err != nil {
		t.Fatalf("NewPaymentSessionUsecase: %v", err)
	}
	return uc, sessions
}

func TestNewPaymentSessionUsecaseRejectsBadOrigin(t *testing.T) {
	resolver := query.NewProductResolver(newFakeLookup(), nil)
	store := NewCartStoreUsecase(newFakeRemote(), newFakeCache(), resolver)

	sessions := newFakeSessionStore()
	for _, origin := range []string{"", "shop.example.com", "ftp://shop.example.com", "/relative"} {
		if _, err := NewPaymentSessionUsecase(&fakeGateway{}, store, sessions, sessions, origin); !errors.Is(err, ErrPaymentInvalidOrigin) {
			t.Fatalf("origin %q: err = %v, want invalid origin", origin, err)
		}
	}
}

func TestStartCheckoutBuildsGatewayPayload(t *testing.T) {
	remote := newFakeRemote()
	remote.setLine("ring-01", 2)
	gw := &fakeGateway{result: &GatewaySessionResult{URL: "https://pay.example.com/s/abc", ID: "cs_123"}}
	uc, sessions := newPaymentFixture(t, remote, gw)
	owner := cartdom.GuestOwner("sid-1")
	cred := cartdom.Credentials{GuestSession: "tok"}

	_ = sessions.Put(context.Background(), owner.SessionCacheKey(), completeSession())

	url, err := uc.StartCheckout(context.Background(), cred, owner, "sid-1")
	if err != nil {
		t.Fatalf("StartCheckout: %v", err)
	}
	if url != "https://pay.example.com/s/abc" {
		t.Fatalf("url = %q", url)
	}

	gw.mu.Lock()
	in := gw.input
	gw.mu.Unlock()
	if in == nil || len(in.Items) != 1 {
		t.Fatalf("gateway input = %+v", in)
	}
	item := in.Items[0]
	if item.ProductID != "ring-01" || item.Quantity != 2 || item.UnitAmount != 2450 {
		t.Fatalf("item = %+v", item)
	}
	if !strings.HasPrefix(in.SuccessURL, "https://shop.example.com/store/checkout/return/success") {
		t.Fatalf("success url = %q", in.SuccessURL)
	}
	if !strings.HasPrefix(in.CancelURL, "https://shop.example.com/store/checkout/return/cancel") {
		t.Fatalf("cancel url = %q", in.CancelURL)
	}
	if in.DeliveryMethod != "standard" {
		t.Fatalf("delivery method = %q", in.DeliveryMethod)
	}

	sess, err := sessions.Get(context.Background(), owner.SessionCacheKey())
	if err != nil || !sess.Processing {
		t.Fatalf("session should be marked processing, sess=%+v err=%v", sess, err)
	}
}

func TestStartCheckoutRequiresCompleteSteps(t *testing.T) {
	remote := newFakeRemote()
	remote.setLine("ring-01", 1)
	uc, sessions := newPaymentFixture(t, remote, &fakeGateway{})
	owner := cartdom.GuestOwner("sid-1")
	cred := cartdom.Credentials{GuestSession: "tok"}

	// No session at all.
	if _, err := uc.StartCheckout(context.Background(), cred, owner, "sid-1"); !errors.Is(err, ErrPaymentStepIncomplete) {
		t.Fatalf("err = %v, want step incomplete", err)
	}

	// Session exists but terms were never accepted.
	sess := completeSession()
	sess.TermsAccepted = false
	_ = sessions.Put(context.Background(), owner.SessionCacheKey(), sess)
	if _, err := uc.StartCheckout(context.Background(), cred, owner, "sid-1"); !errors.Is(err, ErrPaymentStepIncomplete) {
		t.Fatalf("err = %v, want step incomplete", err)
	}
}

func TestStartCheckoutEmptyCart(t *testing.T) {
	uc, sessions := newPaymentFixture(t, newFakeRemote(), &fakeGateway{})
	owner := cartdom.GuestOwner("sid-1")
	cred := cartdom.Credentials{GuestSession: "tok"}

	_ = sessions.Put(context.Background(), owner.SessionCacheKey(), completeSession())
	if _, err := uc.StartCheckout(context.Background(), cred, owner, "sid-1"); !errors.Is(err, ErrPaymentCartEmpty) {
		t.Fatalf("err = %v, want cart empty", err)
	}
}

func TestStartCheckoutRejectsMalformedRedirect(t *testing.T) {
	remote := newFakeRemote()
	remote.setLine("ring-01", 1)
	owner := cartdom.GuestOwner("sid-1")
	cred := cartdom.Credentials{GuestSession: "tok"}

	for _, res := range []*GatewaySessionResult{
		nil,
		{URL: ""},
		{URL: "   "},
		{URL: "javascript:alert(1)"},
		{URL: "/relative/path"},
		{ID: "cs_123"}, // id without a url is not navigable
	} {
		uc, sessions := newPaymentFixture(t, remote, &fakeGateway{result: res})
		_ = sessions.Put(context.Background(), owner.SessionCacheKey(), completeSession())

		if _, err := uc.StartCheckout(context.Background(), cred, owner, "sid-1"); !errors.Is(err, ErrPaymentMalformedRedirect) {
			t.Fatalf("result %+v: err = %v, want malformed redirect", res, err)
		}

		// A rejected redirect must not leave the session processing, nor a
		// return claim behind.
		sess, _ := sessions.Get(context.Background(), owner.SessionCacheKey())
		if sess.Processing {
			t.Fatalf("session marked processing despite rejected redirect")
		}
		if sessions.hasClaim(checkoutdom.ReturnClaimKey("sid-1")) {
			t.Fatalf("return claim written despite rejected redirect")
		}
	}
}

func TestStartCheckoutRecordsReturnClaimForSignedInShopper(t *testing.T) {
	remote := newFakeRemote()
	remote.setLine("ring-01", 1)
	gw := &fakeGateway{result: &GatewaySessionResult{URL: "https://pay.example.com/s/abc"}}
	uc, sessions := newPaymentFixture(t, remote, gw)
	owner := cartdom.UserOwner("uid-1")
	cred := cartdom.Credentials{BearerToken: "jwt-abc", GuestSession: "tok"}

	_ = sessions.Put(context.Background(), owner.SessionCacheKey(), completeSession())

	if _, err := uc.StartCheckout(context.Background(), cred, owner, "sid-1"); err != nil {
		t.Fatalf("StartCheckout: %v", err)
	}

	claim, err := sessions.GetClaim(context.Background(), checkoutdom.ReturnClaimKey("sid-1"))
	if err != nil {
		t.Fatalf("return claim should be recorded: %v", err)
	}
	if claim.OwnerKind != string(cartdom.OwnerUser) || claim.OwnerID != "uid-1" {
		t.Fatalf("claim owner = %s:%s", claim.OwnerKind, claim.OwnerID)
	}
	if claim.Bearer != "jwt-abc" {
		t.Fatalf("claim bearer = %q", claim.Bearer)
	}
}

func TestStartCheckoutSurfacesGatewayError(t *testing.T) {
	remote := newFakeRemote()
	remote.setLine("ring-01", 1)
	uc, sessions := newPaymentFixture(t, remote, &fakeGateway{err: errBoom})
	owner := cartdom.GuestOwner("sid-1")
	cred := cartdom.Credentials{GuestSession: "tok"}

	_ = sessions.Put(context.Background(), owner.SessionCacheKey(), completeSession())
	if _, err := uc.StartCheckout(context.Background(), cred, owner, "sid-1"); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want the gateway failure", err)
	}
}
