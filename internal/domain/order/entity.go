// internal/domain/order/entity.go
package order

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("order: not found")
	ErrInvalidOrder = errors.New("order: invalid")
)

// Item is a purchased line frozen at completion time. Prices are the
// resolved unit prices the totals were computed from.
type Item struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Order is the receipt recorded when the gateway redirects back with a
// success result. It exists for the "my orders" view and the confirmation
// email; it is not an inventory or fulfillment record.
type Order struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Email          string    `json:"email,omitempty"`
	Items          []Item    `json:"items"`
	Subtotal       float64   `json:"subtotal"`
	Shipping       float64   `json:"shipping"`
	Tax            float64   `json:"tax"`
	Total          float64   `json:"total"`
	ShippingMethod string    `json:"shipping_method"`
	Country        string    `json:"country"`
	CreatedAt      time.Time `json:"created_at"`
}

// New builds a validated receipt.
func New(id, ownerID, email string, items []Item, now time.Time) (*Order, error) {
	o := &Order{
		ID:        strings.TrimSpace(id),
		OwnerID:   strings.TrimSpace(ownerID),
		Email:     strings.TrimSpace(email),
		Items:     items,
		CreatedAt: now,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Order) Validate() error {
	if o == nil {
		return ErrInvalidOrder
	}
	if o.ID == "" || o.OwnerID == "" {
		return ErrInvalidOrder
	}
	if len(o.Items) == 0 {
		return ErrInvalidOrder
	}
	for _, it := range o.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.Quantity <= 0 || it.UnitPrice < 0 {
			return ErrInvalidOrder
		}
	}
	return nil
}
