// internal/adapters/out/db/order_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	orderdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/order"
)

// PostgreSQL implementation of order.Repository.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS orders (
//	    id              TEXT PRIMARY KEY,
//	    owner_id        TEXT NOT NULL,
//	    email           TEXT NOT NULL DEFAULT '',
//	    items           JSONB NOT NULL,
//	    subtotal        NUMERIC(12,2) NOT NULL,
//	    shipping        NUMERIC(12,2) NOT NULL,
//	    tax             NUMERIC(12,2) NOT NULL,
//	    total           NUMERIC(12,2) NOT NULL,
//	    shipping_method TEXT NOT NULL DEFAULT '',
//	    country         TEXT NOT NULL DEFAULT '',
//	    created_at      TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX IF NOT EXISTS orders_owner_created_idx ON orders (owner_id, created_at DESC);
type OrderRepositoryPG struct {
	DB *sql.DB
}

func NewOrderRepositoryPG(db *sql.DB) *OrderRepositoryPG {
	return &OrderRepositoryPG{DB: db}
}

var _ orderdom.Repository = (*OrderRepositoryPG)(nil)

func (r *OrderRepositoryPG) Insert(ctx context.Context, o *orderdom.Order) error {
	if r == nil || r.DB == nil {
		return errors.New("order_repository_pg: db is nil")
	}
	if o == nil {
		return errors.New("order_repository_pg: order is nil")
	}
	if err := o.Validate(); err != nil {
		return err
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("order_repository_pg: encode items: %w", err)
	}

	const q = `
INSERT INTO orders
  (id, owner_id, email, items, subtotal, shipping, tax, total, shipping_method, country, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.DB.ExecContext(ctx, q,
		o.ID, o.OwnerID, o.Email, items,
		o.Subtotal, o.Shipping, o.Tax, o.Total,
		o.ShippingMethod, o.Country, o.CreatedAt,
	)
	return err
}

func (r *OrderRepositoryPG) GetByID(ctx context.Context, id string) (*orderdom.Order, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("order_repository_pg: db is nil")
	}

	const q = `
SELECT id, owner_id, email, items, subtotal, shipping, tax, total, shipping_method, country, created_at
FROM orders
WHERE id = $1`
	row := r.DB.QueryRowContext(ctx, q, strings.TrimSpace(id))
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, orderdom.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *OrderRepositoryPG) ListByOwner(ctx context.Context, ownerID string, limit int) ([]orderdom.Order, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("order_repository_pg: db is nil")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	const q = `
SELECT id, owner_id, email, items, subtotal, shipping, tax, total, shipping_method, country, created_at
FROM orders
WHERE owner_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, q, strings.TrimSpace(ownerID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]orderdom.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*orderdom.Order, error) {
	var (
		o     orderdom.Order
		items []byte
	)
	if err := row.Scan(
		&o.ID, &o.OwnerID, &o.Email, &items,
		&o.Subtotal, &o.Shipping, &o.Tax, &o.Total,
		&o.ShippingMethod, &o.Country, &o.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("order_repository_pg: decode items for %s: %w", o.ID, err)
		}
	}
	return &o, nil
}
