// internal/adapters/out/gateway/checkout_client_test.go
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	usecase "github.com/Hephaestack/pnoh-eshop-sub000/internal/application/usecase"
)

func sessionInput() usecase.GatewaySessionInput {
	return usecase.GatewaySessionInput{
		Items: []usecase.GatewayItem{
			{ProductID: "ring-01", Name: "Silver Ring", UnitAmount: 2450, Quantity: 2},
		},
		SuccessURL:     "https://shop.example.com/store/checkout/return/success",
		CancelURL:      "https://shop.example.com/store/checkout/return/cancel",
		DeliveryMethod: "standard",
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody usecase.GatewaySessionInput
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_123","url":"https://pay.example.com/s/abc"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_key")
	res, err := c.CreateCheckoutSession(context.Background(), sessionInput())
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}

	if gotPath != "/v1/checkout/sessions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk_test_key" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if len(gotBody.Items) != 1 || gotBody.Items[0].UnitAmount != 2450 {
		t.Fatalf("posted body = %+v", gotBody)
	}
	if res.ID != "cs_123" || res.URL != "https://pay.example.com/s/abc" {
		t.Fatalf("result = %+v", res)
	}
}

func TestCreateCheckoutSessionRejectsEmptyItems(t *testing.T) {
	c := NewClient("http://localhost:9999", "key")
	if _, err := c.CreateCheckoutSession(context.Background(), usecase.GatewaySessionInput{}); err == nil {
		t.Fatalf("empty item list should fail before any request")
	}
}

func TestCreateCheckoutSessionSurfacesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"account suspended"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	_, err := c.CreateCheckoutSession(context.Background(), sessionInput())
	if err == nil {
		t.Fatalf("want error on 402")
	}
	for _, want := range []string{"402", "account suspended"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %q", err.Error(), want)
		}
	}
}
