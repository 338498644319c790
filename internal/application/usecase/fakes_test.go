// internal/application/usecase/fakes_test.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
	catalogdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/catalog"
	checkoutdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/checkout"
	orderdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/order"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// fakeRemote simulates the commerce cart API: one server-side cart, guest
// and user requests land on it alike (identity routing is the real API's
// concern, not the client's).
type fakeRemote struct {
	mu    sync.Mutex
	items map[string]cartdom.Line // productID -> line

	// guestItems are absorbed into items by MergeGuestCart.
	guestItems map[string]cartdom.Line

	// blockFirstGet, when armed, parks the first GetCart call until the
	// gate closes.
	blockFirstGet chan struct{}
	getCalls      int

	failGet    error
	failAdd    error
	failMerge  error
	mergeCalls int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		items:      map[string]cartdom.Line{},
		guestItems: map[string]cartdom.Line{},
	}
}

func (r *fakeRemote) setLine(pid string, qty int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[pid] = cartdom.Line{ID: "L-" + pid, ProductID: pid, Quantity: qty}
}

func (r *fakeRemote) setGuestLine(pid string, qty int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guestItems[pid] = cartdom.Line{ID: "G-" + pid, ProductID: pid, Quantity: qty}
}

func (r *fakeRemote) quantity(pid string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[pid].Quantity
}

func (r *fakeRemote) GetCart(ctx context.Context, cred cartdom.Credentials) (*cartdom.Cart, error) {
	r.mu.Lock()
	r.getCalls++
	gate := r.blockFirstGet
	first := r.getCalls == 1
	if r.failGet != nil {
		err := r.failGet
		r.mu.Unlock()
		return nil, err
	}
	// The read observes the cart as of now, even if delivery is delayed.
	cart := &cartdom.Cart{Items: []cartdom.Line{}}
	for _, l := range r.items {
		cart.Items = append(cart.Items, l)
	}
	r.mu.Unlock()

	if first && gate != nil {
		<-gate
	}
	return cart, nil
}

func (r *fakeRemote) AddLine(ctx context.Context, cred cartdom.Credentials, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAdd != nil {
		return r.failAdd
	}
	l, ok := r.items[productID]
	if !ok {
		l = cartdom.Line{ID: "L-" + productID, ProductID: productID}
	}
	l.Quantity += quantity
	r.items[productID] = l
	return nil
}

func (r *fakeRemote) RemoveLine(ctx context.Context, cred cartdom.Credentials, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[productID]; !ok {
		return fmt.Errorf("fake remote: no line for %s", productID)
	}
	delete(r.items, productID)
	return nil
}

func (r *fakeRemote) UpdateLineQuantity(ctx context.Context, cred cartdom.Credentials, lineID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pid, l := range r.items {
		if l.ID == lineID {
			l.Quantity = quantity
			r.items[pid] = l
			return nil
		}
	}
	return fmt.Errorf("fake remote: no line %s", lineID)
}

func (r *fakeRemote) MergeGuestCart(ctx context.Context, cred cartdom.Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mergeCalls++
	if r.failMerge != nil {
		return r.failMerge
	}
	for pid, g := range r.guestItems {
		l, ok := r.items[pid]
		if !ok {
			l = cartdom.Line{ID: "L-" + pid, ProductID: pid}
		}
		l.Quantity += g.Quantity
		r.items[pid] = l
	}
	r.guestItems = map[string]cartdom.Line{}
	return nil
}

// fakeCache is an in-memory SnapshotCache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*cartdom.Snapshot
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*cartdom.Snapshot{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) (*cartdom.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[key]
	if !ok {
		return nil, cartdom.ErrCacheMiss
	}
	return s.Clone(), nil
}

func (c *fakeCache) Put(ctx context.Context, key string, s *cartdom.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = s.Clone()
	c.puts++
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// fakeLookup is an in-memory catalog.
type fakeLookup struct {
	mu       sync.Mutex
	products map[string]catalogdom.Product
}

func newFakeLookup(products ...catalogdom.Product) *fakeLookup {
	l := &fakeLookup{products: map[string]catalogdom.Product{}}
	for _, p := range products {
		l.products[p.ID] = p
	}
	return l
}

func (l *fakeLookup) GetProduct(ctx context.Context, productID string) (*catalogdom.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.products[productID]
	if !ok {
		return nil, catalogdom.ErrNotFound
	}
	cp := p
	return &cp, nil
}

// fakeSessionStore is an in-memory checkout SessionStore + ClaimStore.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]checkoutdom.Session
	claims   map[string]checkoutdom.ReturnClaim
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: map[string]checkoutdom.Session{},
		claims:   map[string]checkoutdom.ReturnClaim{},
	}
}

func (s *fakeSessionStore) Get(ctx context.Context, key string) (*checkoutdom.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, checkoutdom.ErrSessionNotFound
	}
	cp := sess
	return &cp, nil
}

func (s *fakeSessionStore) Put(ctx context.Context, key string, sess *checkoutdom.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = *sess
	return nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

func (s *fakeSessionStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[key]
	return ok
}

func (s *fakeSessionStore) GetClaim(ctx context.Context, key string) (*checkoutdom.ReturnClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[key]
	if !ok {
		return nil, checkoutdom.ErrClaimNotFound
	}
	cp := c
	return &cp, nil
}

func (s *fakeSessionStore) PutClaim(ctx context.Context, key string, c *checkoutdom.ReturnClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[key] = *c
	return nil
}

func (s *fakeSessionStore) DeleteClaim(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, key)
	return nil
}

func (s *fakeSessionStore) hasClaim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.claims[key]
	return ok
}

// fakeGateway records the session input and answers a fixed result.
type fakeGateway struct {
	mu     sync.Mutex
	input  *GatewaySessionInput
	result *GatewaySessionResult
	err    error
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, in GatewaySessionInput) (*GatewaySessionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := in
	g.input = &cp
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

// fakeOrderRepo is an in-memory order.Repository.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders []orderdom.Order
	fail   error
}

func (r *fakeOrderRepo) Insert(ctx context.Context, o *orderdom.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.orders = append(r.orders, *o)
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*orderdom.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, orderdom.ErrNotFound
}

func (r *fakeOrderRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]orderdom.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []orderdom.Order{}
	for i := len(r.orders) - 1; i >= 0 && len(out) < limit; i-- {
		if r.orders[i].OwnerID == ownerID {
			out = append(out, r.orders[i])
		}
	}
	return out, nil
}

// fakeMailer records sends.
type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	fail  error
	last  *orderdom.Order
	calls int
}

func (m *fakeMailer) SendOrderConfirmation(ctx context.Context, to string, o *orderdom.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, to)
	m.last = o
	return nil
}

var errBoom = errors.New("boom")
