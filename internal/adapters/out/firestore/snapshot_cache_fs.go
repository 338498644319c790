// internal/adapters/out/firestore/snapshot_cache_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
)

// SnapshotCacheFS implements cart.SnapshotCache on Firestore.
//
// Collection design:
// - collection: cart_snapshots
// - docId: cache key ("cart:guest:<sid>" / "cart:user:<uid>" / preload keys)
//
// The mirror is shared across storefront instances; writes overwrite the
// whole document, last write wins.
type SnapshotCacheFS struct {
	Client *firestore.Client
}

func NewSnapshotCacheFS(client *firestore.Client) *SnapshotCacheFS {
	return &SnapshotCacheFS{Client: client}
}

func (c *SnapshotCacheFS) col() *firestore.CollectionRef {
	return c.Client.Collection("cart_snapshots")
}

func (c *SnapshotCacheFS) Get(ctx context.Context, key string) (*cartdom.Snapshot, error) {
	if c == nil || c.Client == nil {
		return nil, errors.New("snapshot_cache_fs: firestore client is nil")
	}
	k := strings.TrimSpace(key)
	if k == "" {
		return nil, errors.New("snapshot_cache_fs: key is empty")
	}

	doc, err := c.col().Doc(k).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, cartdom.ErrCacheMiss
		}
		return nil, err
	}

	var snap cartdom.Snapshot
	if err := doc.DataTo(&snap); err != nil {
		return nil, err
	}
	if snap.Lines == nil {
		snap.Lines = []cartdom.SnapshotLine{}
	}
	return &snap, nil
}

func (c *SnapshotCacheFS) Put(ctx context.Context, key string, s *cartdom.Snapshot) error {
	if c == nil || c.Client == nil {
		return errors.New("snapshot_cache_fs: firestore client is nil")
	}
	k := strings.TrimSpace(key)
	if k == "" || s == nil {
		return errors.New("snapshot_cache_fs: invalid put arguments")
	}

	_, err := c.col().Doc(k).Set(ctx, s)
	return err
}

func (c *SnapshotCacheFS) Delete(ctx context.Context, key string) error {
	if c == nil || c.Client == nil {
		return errors.New("snapshot_cache_fs: firestore client is nil")
	}
	k := strings.TrimSpace(key)
	if k == "" {
		return errors.New("snapshot_cache_fs: key is empty")
	}

	_, err := c.col().Doc(k).Delete(ctx)
	return err
}
