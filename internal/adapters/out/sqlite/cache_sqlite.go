// internal/adapters/out/sqlite/cache_sqlite.go
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
	checkoutdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/checkout"
)

const schema = `
CREATE TABLE IF NOT EXISTS cart_snapshots (
	key        TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS checkout_sessions (
	key        TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS return_claims (
	key        TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// Store backs both the cart snapshot cache and the checkout session store
// with an embedded sqlite file. Used for local development and single
// instance deployments; the Firestore adapters serve the hosted setup.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("sqlite: path is empty")
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", p, err)
	}
	// sqlite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SnapshotCache returns the cart.SnapshotCache view of the store.
func (s *Store) SnapshotCache() *SnapshotCacheSQL { return &SnapshotCacheSQL{db: s.db} }

// SessionStore returns the checkout.SessionStore view of the store.
func (s *Store) SessionStore() *SessionStoreSQL { return &SessionStoreSQL{db: s.db} }

// SnapshotCacheSQL implements cart.SnapshotCache.
type SnapshotCacheSQL struct {
	db *sql.DB
}

var _ cartdom.SnapshotCache = (*SnapshotCacheSQL)(nil)

func (c *SnapshotCacheSQL) Get(ctx context.Context, key string) (*cartdom.Snapshot, error) {
	raw, err := kvGet(ctx, c.db, "cart_snapshots", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cartdom.ErrCacheMiss
		}
		return nil, err
	}

	var snap cartdom.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("sqlite: decode snapshot %s: %w", key, err)
	}
	if snap.Lines == nil {
		snap.Lines = []cartdom.SnapshotLine{}
	}
	return &snap, nil
}

func (c *SnapshotCacheSQL) Put(ctx context.Context, key string, snap *cartdom.Snapshot) error {
	if snap == nil {
		return errors.New("sqlite: snapshot is nil")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("sqlite: encode snapshot %s: %w", key, err)
	}
	return kvPut(ctx, c.db, "cart_snapshots", key, raw)
}

func (c *SnapshotCacheSQL) Delete(ctx context.Context, key string) error {
	return kvDelete(ctx, c.db, "cart_snapshots", key)
}

// SessionStoreSQL implements checkout.SessionStore and checkout.ClaimStore.
type SessionStoreSQL struct {
	db *sql.DB
}

var (
	_ checkoutdom.SessionStore = (*SessionStoreSQL)(nil)
	_ checkoutdom.ClaimStore   = (*SessionStoreSQL)(nil)
)

func (s *SessionStoreSQL) Get(ctx context.Context, key string) (*checkoutdom.Session, error) {
	raw, err := kvGet(ctx, s.db, "checkout_sessions", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, checkoutdom.ErrSessionNotFound
		}
		return nil, err
	}

	var sess checkoutdom.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("sqlite: decode session %s: %w", key, err)
	}
	return &sess, nil
}

func (s *SessionStoreSQL) Put(ctx context.Context, key string, sess *checkoutdom.Session) error {
	if sess == nil {
		return errors.New("sqlite: session is nil")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("sqlite: encode session %s: %w", key, err)
	}
	return kvPut(ctx, s.db, "checkout_sessions", key, raw)
}

func (s *SessionStoreSQL) Delete(ctx context.Context, key string) error {
	return kvDelete(ctx, s.db, "checkout_sessions", key)
}

func (s *SessionStoreSQL) GetClaim(ctx context.Context, key string) (*checkoutdom.ReturnClaim, error) {
	raw, err := kvGet(ctx, s.db, "return_claims", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, checkoutdom.ErrClaimNotFound
		}
		return nil, err
	}

	var claim checkoutdom.ReturnClaim
	if err := json.Unmarshal(raw, &claim); err != nil {
		return nil, fmt.Errorf("sqlite: decode return claim %s: %w", key, err)
	}
	return &claim, nil
}

func (s *SessionStoreSQL) PutClaim(ctx context.Context, key string, claim *checkoutdom.ReturnClaim) error {
	if claim == nil {
		return errors.New("sqlite: return claim is nil")
	}
	raw, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("sqlite: encode return claim %s: %w", key, err)
	}
	return kvPut(ctx, s.db, "return_claims", key, raw)
}

func (s *SessionStoreSQL) DeleteClaim(ctx context.Context, key string) error {
	return kvDelete(ctx, s.db, "return_claims", key)
}

// ----------------------------
// kv helpers
// ----------------------------

func kvGet(ctx context.Context, db *sql.DB, table, key string) ([]byte, error) {
	k := strings.TrimSpace(key)
	if k == "" {
		return nil, errors.New("sqlite: key is empty")
	}
	var raw []byte
	err := db.QueryRowContext(ctx, "SELECT data FROM "+table+" WHERE key = ?", k).Scan(&raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func kvPut(ctx context.Context, db *sql.DB, table, key string, raw []byte) error {
	k := strings.TrimSpace(key)
	if k == "" {
		return errors.New("sqlite: key is empty")
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO "+table+" (key, data, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at",
		k, raw, time.Now().UTC())
	return err
}

func kvDelete(ctx context.Context, db *sql.DB, table, key string) error {
	k := strings.TrimSpace(key)
	if k == "" {
		return errors.New("sqlite: key is empty")
	}
	_, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE key = ?", k)
	return err
}
