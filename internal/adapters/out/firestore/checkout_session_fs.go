// internal/adapters/out/firestore/checkout_session_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	checkoutdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/checkout"
)

// CheckoutSessionStoreFS implements checkout.SessionStore and
// checkout.ClaimStore on Firestore.
//
// Collection design:
// - collection: checkout_sessions
// - docId: session cache key ("checkout:guest:<sid>" / "checkout:user:<uid>")
// - collection: checkout_return_claims
// - docId: return claim key ("checkout:return:guest:<sid>")
//
// Abandoned checkouts keep their document so partially entered data
// survives a reload; completion deletes it.
type CheckoutSessionStoreFS struct {
	Client *firestore.Client
}

func NewCheckoutSessionStoreFS(client *firestore.Client) *CheckoutSessionStoreFS {
	return &CheckoutSessionStoreFS{Client: client}
}

func (s *CheckoutSessionStoreFS) col() *firestore.CollectionRef {
	return s.Client.Collection("checkout_sessions")
}

func (s *CheckoutSessionStoreFS) Get(ctx context.Context, key string) (*checkoutdom.Session, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("checkout_session_fs: firestore client is nil")
	}
	k := strings.TrimSpace(key)
	if k == "" {
		return nil, errors.New("checkout_session_fs: key is empty")
	}

	doc, err := s.col().Doc(k).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, checkoutdom.ErrSessionNotFound
		}
		return nil, err
	}

	var sess checkoutdom.Session
	if err := doc.DataTo(&sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *CheckoutSessionStoreFS) Put(ctx context.Context, key string, sess *checkoutdom.Session) error {
	if s == nil || s.Client == nil {
		return errors.New("checkout_session_fs: firestore client is nil")
	}
	k := strings.TrimSpace(key)
	if k == "" || sess == nil {
		return errors.New("checkout_session_fs: invalid put arguments")
	}

	_, err := s.col().Doc(k).Set(ctx, sess)
	return err
}

func (s *CheckoutSessionStoreFS) Delete(ctx context.Context, key string) error {
	if s == nil || s.Client == nil {
		return errors.New("checkout_session_fs: firestore client is nil")
	}
	k := strings.TrimSpace(key)
	if k == "" {
		return errors.New("checkout_session_fs: key is empty")
	}

	_, err := s.col().Doc(k).Delete(ctx)
	return err
}

func (s *CheckoutSessionStoreFS) claimCol() *firestore.CollectionRef {
	return s.Client.Collection("checkout_return_claims")
}

func (s *CheckoutSessionStoreFS) GetClaim(ctx context.Context, key string) (*checkoutdom.ReturnClaim, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("checkout_session_fs: firestore client is nil")
	}
	k := strings.TrimSpace(key)
	if k == "" {
		return nil, errors.New("checkout_session_fs: key is empty")
	}

	doc, err := s.claimCol().Doc(k).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, checkoutdom.ErrClaimNotFound
		}
		return nil, err
	}

	var claim checkoutdom.ReturnClaim
	if err := doc.DataTo(&claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

func (s *CheckoutSessionStoreFS) PutClaim(ctx context.Context, key string, claim *checkoutdom.ReturnClaim) error {
	if s == nil || s.Client == nil {
		return errors.New("checkout_session_fs: firestore client is nil")
	}
	k := strings.TrimSpace(key)
	if k == "" || claim == nil {
		return errors.New("checkout_session_fs: invalid put arguments")
	}

	_, err := s.claimCol().Doc(k).Set(ctx, claim)
	return err
}

func (s *CheckoutSessionStoreFS) DeleteClaim(ctx context.Context, key string) error {
	if s == nil || s.Client == nil {
		return errors.New("checkout_session_fs: firestore client is nil")
	}
	k := strings.TrimSpace(key)
	if k == "" {
		return errors.New("checkout_session_fs: key is empty")
	}

	_, err := s.claimCol().Doc(k).Delete(ctx)
	return err
}
