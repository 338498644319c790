// internal/domain/order/repository_port.go
package order

import "context"

// Repository is the persistence port for order receipts.
//
// Storage (PostgreSQL):
// - table: orders
// - items stored as a JSONB column (the receipt is read back whole,
//   never queried per line)
type Repository interface {
	// Insert stores a new receipt. Inserting an existing id is an error.
	Insert(ctx context.Context, o *Order) error

	// GetByID returns the receipt or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Order, error)

	// ListByOwner returns the owner's receipts, newest first.
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]Order, error)
}
