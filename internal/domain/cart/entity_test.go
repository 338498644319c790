// internal/domain/cart/entity_test.go
package cart

import "testing"

func TestOwnerKeys(t *testing.T) {
	g := GuestOwner(" sid-1 ")
	if !g.Valid() {
		t.Fatalf("guest owner should be valid")
	}
	if g.CacheKey() != "cart:guest:sid-1" {
		t.Fatalf("cache key = %q", g.CacheKey())
	}
	if g.PreloadCacheKey() != "cart:preload:guest:sid-1" {
		t.Fatalf("preload key = %q", g.PreloadCacheKey())
	}
	if g.SessionCacheKey() != "checkout:guest:sid-1" {
		t.Fatalf("session key = %q", g.SessionCacheKey())
	}

	if GuestOwner("  ").Valid() {
		t.Fatalf("empty guest id should be invalid")
	}
	if (Owner{Kind: "bot", ID: "x"}).Valid() {
		t.Fatalf("unknown kind should be invalid")
	}
}

func TestNormalizeMergesDuplicates(t *testing.T) {
	c := &Cart{Items: []Line{
		{ID: "l2", ProductID: "p2", Quantity: 1},
		{ID: "l1", ProductID: "p1", Quantity: 2},
		{ID: "l3", ProductID: "p1", Quantity: 3},
	}}
	c.Normalize()

	if len(c.Items) != 2 {
		t.Fatalf("lines = %d, want 2", len(c.Items))
	}
	// Ordered by product id; first seen line id wins for the merged line.
	if c.Items[0].ProductID != "p1" || c.Items[0].Quantity != 5 || c.Items[0].ID != "l1" {
		t.Fatalf("merged line = %+v", c.Items[0])
	}
	if c.Items[1].ProductID != "p2" || c.Items[1].Quantity != 1 {
		t.Fatalf("second line = %+v", c.Items[1])
	}
}

func TestNormalizeDropsNonPositive(t *testing.T) {
	c := &Cart{Items: []Line{
		{ID: "l1", ProductID: "p1", Quantity: 0},
		{ID: "l2", ProductID: "", Quantity: 4},
		{ID: "l3", ProductID: "p2", Quantity: -1},
	}}
	c.Normalize()
	if len(c.Items) != 0 {
		t.Fatalf("lines = %d, want 0", len(c.Items))
	}
	if !c.IsEmpty() {
		t.Fatalf("cart should be empty")
	}
}

func TestUnionSumsSharedProducts(t *testing.T) {
	a := &Cart{Items: []Line{{ID: "l1", ProductID: "p1", Quantity: 2}}}
	b := &Cart{Items: []Line{
		{ID: "l9", ProductID: "p1", Quantity: 3},
		{ID: "l8", ProductID: "p2", Quantity: 1},
	}}
	a.Union(b)

	if got := a.Quantity("p1"); got != 5 {
		t.Fatalf("p1 quantity = %d, want 5", got)
	}
	if got := a.Quantity("p2"); got != 1 {
		t.Fatalf("p2 quantity = %d, want 1", got)
	}
}

func TestValidateRejectsDuplicateProducts(t *testing.T) {
	c := &Cart{Items: []Line{
		{ID: "l1", ProductID: "p1", Quantity: 1},
		{ID: "l2", ProductID: "p1", Quantity: 2},
	}}
	if err := c.Validate(); err == nil {
		t.Fatalf("duplicate product lines should not validate")
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := &Snapshot{
		OwnerKind: OwnerGuest,
		OwnerID:   "sid",
		Lines:     []SnapshotLine{{LineID: "l1", ProductID: "p1", Quantity: 1}},
	}
	cp := s.Clone()
	cp.Lines[0].Quantity = 99
	if s.Lines[0].Quantity != 1 {
		t.Fatalf("clone shares the lines slice")
	}
	if cp.Owner() != s.Owner() {
		t.Fatalf("clone owner mismatch")
	}
}
