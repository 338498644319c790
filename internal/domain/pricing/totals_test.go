// internal/domain/pricing/totals_test.go
package pricing

import "testing"

func TestMethodsDomestic(t *testing.T) {
	ms := Methods("GR")
	if len(ms) != 3 {
		t.Fatalf("domestic methods = %d, want 3", len(ms))
	}
	if ms[2].ID != MethodOvernight {
		t.Fatalf("last domestic method = %s, want overnight", ms[2].ID)
	}
}

func TestMethodsInternationalHidesOvernight(t *testing.T) {
	ms := Methods("DE")
	if len(ms) != 2 {
		t.Fatalf("international methods = %d, want 2", len(ms))
	}
	for _, m := range ms {
		if m.ID == MethodOvernight {
			t.Fatalf("overnight offered internationally")
		}
	}
}

func TestMethodByID(t *testing.T) {
	if _, ok := MethodByID(MethodOvernight, "GR"); !ok {
		t.Fatalf("overnight should resolve domestically")
	}
	if _, ok := MethodByID(MethodOvernight, "FR"); ok {
		t.Fatalf("overnight should not resolve internationally")
	}
	if _, ok := MethodByID("carrier-pigeon", "GR"); ok {
		t.Fatalf("unknown method id should not resolve")
	}
}

func TestCalculateStandardBelowThreshold(t *testing.T) {
	m, _ := MethodByID(MethodStandard, "GR")
	got := Calculate([]LineInput{{UnitPrice: 10, Quantity: 2}}, m, "GR")

	if got.Subtotal != 20 {
		t.Fatalf("subtotal = %v, want 20", got.Subtotal)
	}
	if got.Shipping != 5 {
		t.Fatalf("shipping = %v, want 5", got.Shipping)
	}
	if got.Tax != 4.8 {
		t.Fatalf("tax = %v, want 4.8", got.Tax)
	}
	if got.Total != 29.8 {
		t.Fatalf("total = %v, want 29.8", got.Total)
	}
}

func TestCalculateFreeStandardShippingAtThreshold(t *testing.T) {
	m, _ := MethodByID(MethodStandard, "GR")
	got := Calculate([]LineInput{{UnitPrice: 50, Quantity: 1}}, m, "GR")
	if got.Shipping != 0 {
		t.Fatalf("shipping = %v, want 0 at the free threshold", got.Shipping)
	}
}

func TestCalculateExpressNeverFree(t *testing.T) {
	m, _ := MethodByID(MethodExpress, "GR")
	got := Calculate([]LineInput{{UnitPrice: 200, Quantity: 1}}, m, "GR")
	if got.Shipping != 9 {
		t.Fatalf("express shipping = %v, want 9 regardless of subtotal", got.Shipping)
	}
}

func TestCalculateInternationalSurcharge(t *testing.T) {
	m, _ := MethodByID(MethodStandard, "DE")

	// Surcharge applies even when the standard rate itself is waived.
	got := Calculate([]LineInput{{UnitPrice: 60, Quantity: 1}}, m, "DE")
	if got.Shipping != 15 {
		t.Fatalf("international shipping = %v, want 15 (waived base + surcharge)", got.Shipping)
	}

	got = Calculate([]LineInput{{UnitPrice: 10, Quantity: 1}}, m, "DE")
	if got.Shipping != 20 {
		t.Fatalf("international shipping = %v, want 20 (base + surcharge)", got.Shipping)
	}
}

func TestCalculateIgnoresNonPositiveQuantities(t *testing.T) {
	m, _ := MethodByID(MethodStandard, "GR")
	got := Calculate([]LineInput{
		{UnitPrice: 10, Quantity: 0},
		{UnitPrice: 10, Quantity: -2},
		{UnitPrice: 10, Quantity: 1},
	}, m, "GR")
	if got.Subtotal != 10 {
		t.Fatalf("subtotal = %v, want 10", got.Subtotal)
	}
}

func TestRoundedTotalSumsFromRoundedParts(t *testing.T) {
	// 3 x 19.99 = 59.97; tax 14.3928 rounds to 14.39. The rounded total must
	// equal the sum of the rounded components, not the rounded raw total.
	m, _ := MethodByID(MethodStandard, "GR")
	got := Calculate([]LineInput{{UnitPrice: 19.99, Quantity: 3}}, m, "GR").Rounded()

	if got.Tax != 14.39 {
		t.Fatalf("tax = %v, want 14.39", got.Tax)
	}
	want := got.Subtotal + got.Shipping + got.Tax
	if got.Total != RoundCents(want) {
		t.Fatalf("total = %v, want %v", got.Total, RoundCents(want))
	}
}

func TestCents(t *testing.T) {
	if c := Cents(19.99); c != 1999 {
		t.Fatalf("Cents(19.99) = %d, want 1999", c)
	}
	if c := Cents(0.1 + 0.2); c != 30 {
		t.Fatalf("Cents(0.3) = %d, want 30", c)
	}
}
