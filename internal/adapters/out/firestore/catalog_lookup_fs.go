// internal/adapters/out/firestore/catalog_lookup_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	catalogdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/catalog"
)

// CatalogLookupFS implements catalog.Lookup against the shared products
// collection the catalog service maintains. The storefront only ever reads
// it by id.
type CatalogLookupFS struct {
	Client *firestore.Client
}

func NewCatalogLookupFS(client *firestore.Client) *CatalogLookupFS {
	return &CatalogLookupFS{Client: client}
}

func (l *CatalogLookupFS) col() *firestore.CollectionRef {
	return l.Client.Collection("products")
}

func (l *CatalogLookupFS) GetProduct(ctx context.Context, productID string) (*catalogdom.Product, error) {
	if l == nil || l.Client == nil {
		return nil, errors.New("catalog_lookup_fs: firestore client is nil")
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return nil, catalogdom.ErrInvalidProductID
	}

	doc, err := l.col().Doc(pid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, catalogdom.ErrNotFound
		}
		return nil, err
	}

	var p catalogdom.Product
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	// docId is the source of truth even when the doc omits the id field.
	p.ID = pid
	return &p, nil
}
