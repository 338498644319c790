// internal/adapters/out/gcs/product_image_resolver.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/storage"

	catalogdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/catalog"
)

// ProductImageResolverGCS resolves a product's stored image reference into
// a public URL for the denormalized cart snapshot.
//
// The stored reference can be:
// - http(s)://...  (returned as-is)
// - an object path within the configured bucket
//
// Object paths are verified against the bucket; a missing object resolves
// to "" (no image) rather than failing the snapshot.
type ProductImageResolverGCS struct {
	Client *storage.Client
	Bucket string
}

func NewProductImageResolverGCS(client *storage.Client, bucket string) *ProductImageResolverGCS {
	return &ProductImageResolverGCS{Client: client, Bucket: strings.TrimSpace(bucket)}
}

var _ catalogdom.ImageURLResolver = (*ProductImageResolverGCS)(nil)

func (r *ProductImageResolverGCS) ResolveImageURL(ctx context.Context, ref string) (string, error) {
	p := strings.TrimSpace(ref)
	if p == "" {
		return "", nil
	}

	// already absolute
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p, nil
	}

	if r == nil || r.Client == nil {
		return "", errors.New("product_image_resolver: storage client is nil")
	}
	if r.Bucket == "" {
		return "", errors.New("product_image_resolver: bucket is empty")
	}

	obj := strings.TrimLeft(p, "/")
	if _, err := r.Client.Bucket(r.Bucket).Object(obj).Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			log.Printf("[product_image] WARN: object missing bucket=%s object=%s", r.Bucket, obj)
			return "", nil
		}
		return "", fmt.Errorf("product_image_resolver: attrs %s/%s: %w", r.Bucket, obj, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", r.Bucket, obj), nil
}

// PassthroughResolver is used when no storage client or bucket is
// configured. Absolute URLs survive, object paths resolve to no image.
type PassthroughResolver struct{}

var _ catalogdom.ImageURLResolver = PassthroughResolver{}

func (PassthroughResolver) ResolveImageURL(_ context.Context, ref string) (string, error) {
	p := strings.TrimSpace(ref)
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p, nil
	}
	return "", nil
}
