// internal/domain/checkout/session.go
package checkout

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("checkout: session not found")
	ErrInvalidStep     = errors.New("checkout: invalid step")
)

// Step is one of the four sequential checkout states.
type Step int

const (
	StepShipping Step = iota + 1
	StepBilling
	StepShippingMethod
	StepPayment

	firstStep = StepShipping
	lastStep  = StepPayment
)

func (s Step) Valid() bool { return s >= firstStep && s <= lastStep }

// ContactInfo is the structural contact + address block used for both
// shipping and billing.
type ContactInfo struct {
	FirstName  string `json:"first_name" firestore:"firstName"`
	LastName   string `json:"last_name" firestore:"lastName"`
	Email      string `json:"email" firestore:"email"`
	Phone      string `json:"phone" firestore:"phone"`
	Address    string `json:"address" firestore:"address"`
	City       string `json:"city" firestore:"city"`
	PostalCode string `json:"postal_code" firestore:"postalCode"`
	Country    string `json:"country" firestore:"country"`
}

// BillingInfo is billing contact data. When SameAsShipping is set the
// embedded fields are ignored and derived from the shipping block.
type BillingInfo struct {
	SameAsShipping bool `json:"same_as_shipping" firestore:"sameAsShipping"`
	ContactInfo
}

// Session is the checkout workflow state for one cart owner. It lives for
// the duration of the workflow: created when checkout mounts with a
// non-empty cart, destroyed on completion, cancellation or cart-empty
// redirect. An abandoned checkout keeps its session so partially entered
// data survives a reload.
type Session struct {
	CurrentStep      Step        `json:"current_step" firestore:"currentStep"`
	Shipping         ContactInfo `json:"shipping_info" firestore:"shippingInfo"`
	Billing          BillingInfo `json:"billing_info" firestore:"billingInfo"`
	ShippingMethodID string      `json:"shipping_method" firestore:"shippingMethod"`
	OrderNotes       string      `json:"order_notes" firestore:"orderNotes"`
	PaymentMethod    string      `json:"payment_method" firestore:"paymentMethod"`
	TermsAccepted    bool        `json:"terms_accepted" firestore:"termsAccepted"`
	Processing       bool        `json:"processing" firestore:"processing"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// NewSession starts a fresh workflow at the shipping step.
func NewSession(now time.Time) *Session {
	return &Session{
		CurrentStep: StepShipping,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// EffectiveBilling resolves the billing block, deriving it from shipping
// when SameAsShipping is set.
func (s *Session) EffectiveBilling() ContactInfo {
	if s.Billing.SameAsShipping {
		return s.Shipping
	}
	return s.Billing.ContactInfo
}

// Next advances the workflow by one step. Forward navigation is gated on
// the current step validating; on failure the step does not change and the
// field errors are returned (validation is never an error).
func (s *Session) Next(now time.Time) (FieldErrors, bool) {
	fe := s.ValidateStep(s.CurrentStep)
	if len(fe) > 0 {
		return fe, false
	}
	if s.CurrentStep < lastStep {
		s.CurrentStep++
		s.UpdatedAt = now
	}
	return nil, true
}

// Prev steps back without re-validating the step being left.
func (s *Session) Prev(now time.Time) {
	if s.CurrentStep > firstStep {
		s.CurrentStep--
		s.UpdatedAt = now
	}
}

// Touch records a field update.
func (s *Session) Touch(now time.Time) { s.UpdatedAt = now }

// SessionStore persists workflow state between requests so an abandoned
// checkout survives a reload. Cleared on completion.
type SessionStore interface {
	Get(ctx context.Context, key string) (*Session, error)
	Put(ctx context.Context, key string, s *Session) error
	Delete(ctx context.Context, key string) error
}
