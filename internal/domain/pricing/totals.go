// internal/domain/pricing/totals.go
package pricing

import (
	"math"
	"strings"
)

const (
	// DomesticCountry is the storefront's home market.
	DomesticCountry = "GR"

	// TaxRate is the flat VAT applied to the subtotal.
	TaxRate = 0.24

	// FreeShippingThreshold waives the standard rate at or above this
	// subtotal. Express and overnight are never free.
	FreeShippingThreshold = 50.0

	// InternationalSurcharge is added on top of any method for non-domestic
	// destinations.
	InternationalSurcharge = 15.0
)

const (
	MethodStandard  = "standard"
	MethodExpress   = "express"
	MethodOvernight = "overnight"
)

// Method is one shipping option with its base rate and delivery estimate.
type Method struct {
	ID           string
	Label        string
	Base         float64
	EstDaysMin   int
	EstDaysMax   int
	DomesticOnly bool
}

var methods = []Method{
	{ID: MethodStandard, Label: "Standard", Base: 5.0, EstDaysMin: 3, EstDaysMax: 7},
	{ID: MethodExpress, Label: "Express", Base: 9.0, EstDaysMin: 1, EstDaysMax: 3},
	{ID: MethodOvernight, Label: "Overnight", Base: 15.0, EstDaysMin: 1, EstDaysMax: 1, DomesticOnly: true},
}

// Domestic reports whether the destination is the home market.
func Domestic(country string) bool {
	return strings.EqualFold(strings.TrimSpace(country), DomesticCountry)
}

// Methods lists the shipping options offered for a destination. Domestic-only
// methods are withheld from international destinations rather than rejected
// at calculation time.
func Methods(country string) []Method {
	out := make([]Method, 0, len(methods))
	for _, m := range methods {
		if m.DomesticOnly && !Domestic(country) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// MethodByID resolves a method id for a destination. Unknown ids and
// domestic-only methods toward international destinations report !ok.
func MethodByID(id, country string) (Method, bool) {
	for _, m := range Methods(country) {
		if m.ID == strings.TrimSpace(id) {
			return m, true
		}
	}
	return Method{}, false
}

// LineInput is the pricing-relevant slice of one cart line.
type LineInput struct {
	UnitPrice float64
	Quantity  int
}

// Totals is the derived money summary. Values are unrounded float euros;
// call Rounded before presenting or persisting them.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Calculate derives the totals for a cart, method and destination.
// Free shipping applies to the standard method only, at or above the
// threshold; the international surcharge applies to every method.
func Calculate(lines []LineInput, method Method, country string) Totals {
	var subtotal float64
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		subtotal += l.UnitPrice * float64(l.Quantity)
	}

	shipping := method.Base
	if method.ID == MethodStandard && subtotal >= FreeShippingThreshold {
		shipping = 0
	}
	if !Domestic(country) {
		shipping += InternationalSurcharge
	}

	tax := subtotal * TaxRate
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}

// Rounded rounds each component to cents and re-derives the total from the
// rounded parts so the displayed lines always sum exactly.
func (t Totals) Rounded() Totals {
	sub := RoundCents(t.Subtotal)
	shp := RoundCents(t.Shipping)
	tax := RoundCents(t.Tax)
	return Totals{
		Subtotal: sub,
		Shipping: shp,
		Tax:      tax,
		Total:    RoundCents(sub + shp + tax),
	}
}

// RoundCents rounds a euro amount to two decimals, half away from zero.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Cents converts a euro amount to integer minor units for the gateway.
func Cents(v float64) int64 {
	return int64(math.Round(v * 100))
}
