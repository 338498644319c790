// internal/domain/checkout/validate.go
package checkout

import (
	"strings"

	"github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/pricing"
)

// FieldErrors maps a field name to an inline, user-facing message.
// Step validation failures are surfaced per-field, never thrown.
type FieldErrors map[string]string

const (
	minPhoneDigits  = 8
	minAddressChars = 2
	minCityChars    = 2
	minPostalChars  = 3
)

// ValidateStep applies the structural schema for one step. An empty result
// means the step may be left forward.
func (s *Session) ValidateStep(step Step) FieldErrors {
	switch step {
	case StepShipping:
		return validateContact(s.Shipping, "")
	case StepBilling:
		// Trivially valid when billing mirrors shipping, regardless of
		// how empty the billing fields themselves are.
		if s.Billing.SameAsShipping {
			return nil
		}
		return validateContact(s.Billing.ContactInfo, "billing_")
	case StepShippingMethod:
		fe := FieldErrors{}
		id := strings.TrimSpace(s.ShippingMethodID)
		if id == "" {
			fe["shipping_method"] = "select a shipping method"
			return fe
		}
		if _, ok := pricing.MethodByID(id, strings.TrimSpace(s.Shipping.Country)); !ok {
			fe["shipping_method"] = "shipping method not available for the destination"
			return fe
		}
		return nil
	case StepPayment:
		fe := FieldErrors{}
		if strings.TrimSpace(s.PaymentMethod) == "" {
			fe["payment_method"] = "select a payment method"
		}
		if !s.TermsAccepted {
			fe["terms"] = "you must accept the terms and conditions"
		}
		if len(fe) > 0 {
			return fe
		}
		return nil
	}
	return FieldErrors{"step": "unknown checkout step"}
}

func validateContact(c ContactInfo, prefix string) FieldErrors {
	fe := FieldErrors{}

	if strings.TrimSpace(c.FirstName) == "" {
		fe[prefix+"first_name"] = "first name is required"
	}
	if strings.TrimSpace(c.LastName) == "" {
		fe[prefix+"last_name"] = "last name is required"
	}
	if !validEmailShape(c.Email) {
		fe[prefix+"email"] = "enter a valid email address"
	}
	if digitCount(c.Phone) < minPhoneDigits {
		fe[prefix+"phone"] = "enter a valid phone number"
	}
	if len(strings.TrimSpace(c.Address)) < minAddressChars {
		fe[prefix+"address"] = "address is required"
	}
	if len(strings.TrimSpace(c.City)) < minCityChars {
		fe[prefix+"city"] = "city is required"
	}
	if len(strings.TrimSpace(c.PostalCode)) < minPostalChars {
		fe[prefix+"postal_code"] = "postal code is required"
	}
	if strings.TrimSpace(c.Country) == "" {
		fe[prefix+"country"] = "select a country"
	}

	if len(fe) > 0 {
		return fe
	}
	return nil
}

// validEmailShape is a structural check (local@domain.tld), not RFC parsing.
func validEmailShape(email string) bool {
	e := strings.TrimSpace(email)
	at := strings.Index(e, "@")
	if at <= 0 || at == len(e)-1 {
		return false
	}
	domain := e[at+1:]
	if strings.Contains(domain, "@") {
		return false
	}
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
