// internal/domain/cart/snapshot.go
package cart

import "time"

// SnapshotLine is a display-ready cart line: the server line joined with
// resolved catalog data so a page can paint without further lookups.
type SnapshotLine struct {
	LineID    string  `json:"id" firestore:"id"`
	ProductID string  `json:"product_id" firestore:"productId"`
	Name      string  `json:"name" firestore:"name"`
	UnitPrice float64 `json:"unit_price" firestore:"unitPrice"`
	ImageURL  string  `json:"image_url" firestore:"imageUrl"`
	Quantity  int     `json:"quantity" firestore:"quantity"`
}

// Snapshot is the denormalized copy of the last known server cart.
// It is a read-through mirror: overwritten after every successful remote
// read or mutation, never authoritative, superseded on merge.
type Snapshot struct {
	OwnerKind OwnerKind      `json:"owner_kind" firestore:"ownerKind"`
	OwnerID   string         `json:"owner_id" firestore:"ownerId"`
	Lines     []SnapshotLine `json:"items" firestore:"items"`
	FetchedAt time.Time      `json:"fetched_at" firestore:"fetchedAt"`
}

// Owner reconstructs the owner identity the snapshot was taken for.
func (s *Snapshot) Owner() Owner {
	if s == nil {
		return Owner{}
	}
	return Owner{Kind: s.OwnerKind, ID: s.OwnerID}
}

// IsEmpty reports whether the snapshot holds no effective quantity.
func (s *Snapshot) IsEmpty() bool {
	if s == nil {
		return true
	}
	for _, l := range s.Lines {
		if l.Quantity > 0 {
			return false
		}
	}
	return true
}

// LineByID returns the snapshot line with the given line id.
func (s *Snapshot) LineByID(lineID string) (SnapshotLine, bool) {
	if s == nil {
		return SnapshotLine{}, false
	}
	for _, l := range s.Lines {
		if l.LineID == lineID {
			return l, true
		}
	}
	return SnapshotLine{}, false
}

// Cart strips the snapshot back down to the server-shaped cart.
func (s *Snapshot) Cart() *Cart {
	c := &Cart{Items: []Line{}}
	if s == nil {
		return c
	}
	for _, l := range s.Lines {
		c.Items = append(c.Items, Line{ID: l.LineID, ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return c
}

// Clone returns a deep copy so callers can hand snapshots across goroutines.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Lines = make([]SnapshotLine, len(s.Lines))
	copy(cp.Lines, s.Lines)
	return &cp
}
