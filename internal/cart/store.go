// Package cart implements the line-item store backing one shopping session.
package cart

import (
	"errors"
	"sync"

	"github.com/fairyhunter13/cart-service-simulator/internal/config"
	"github.com/fairyhunter13/cart-service-simulator/internal/model"
)

var (
	// ErrInvalidQuantity is returned when an operation asks for a quantity
	// below 1. A line item with quantity < 1 must never exist; removal, not
	// a zero quantity, represents "no longer in cart".
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrItemNotFound is returned by quantity updates for items not in the cart.
	ErrItemNotFound = errors.New("item not in cart")
)

// Store holds the line items of a single cart and enforces the identity and
// quantity invariants: no two items share a (product, variant) key, and every
// quantity is >= 1. Items keep insertion order for display.
//
// A Store owns its state exclusively; callers get copies, never references.
type Store struct {
	mu       sync.RWMutex
	items    []model.LineItem
	policy   config.UnderMinQtyPolicy
	onChange func(items []model.LineItem)
}

// New creates an empty Store with the given under-minimum quantity policy.
func New(policy config.UnderMinQtyPolicy) *Store {
	return &Store{policy: policy}
}

// SetOnChange registers the snapshot hook invoked after every successful
// mutation with a copy of the new state. The hook runs outside the store's
// lock; it must not call back into the store.
func (s *Store) SetOnChange(fn func(items []model.LineItem)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) find(item model.LineItem) int {
	for i := range s.items {
		if s.items[i].SameVariant(item) {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() (func(items []model.LineItem), []model.LineItem) {
	if s.onChange == nil {
		return nil, nil
	}
	return s.onChange, cloneItems(s.items)
}

func cloneItems(items []model.LineItem) []model.LineItem {
	out := make([]model.LineItem, len(items))
	copy(out, items)
	return out
}

// Add inserts a line item or, when an item with the same (product, variant)
// key already exists, increments that item's quantity. The existing item's
// unit-price snapshot wins over the incoming one. Rejection leaves state
// untouched.
func (s *Store) Add(item model.LineItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	if i := s.find(item); i >= 0 {
		s.items[i].Quantity += item.Quantity
	} else {
		s.items = append(s.items, item)
	}
	fn, snap := s.snapshotLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
	return nil
}

// Remove deletes the matching line item. Removing an absent item is a no-op,
// not an error, and does not trigger a snapshot.
func (s *Store) Remove(productID, size, color string) {
	key := model.LineItem{ProductID: productID, Size: size, Color: color}
	s.mu.Lock()
	i := s.find(key)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	fn, snap := s.snapshotLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// UpdateQuantity replaces the quantity of an existing line item. A value
// below 1 follows the configured policy: reject (default) returns
// ErrInvalidQuantity and leaves the item unchanged, remove deletes the item.
func (s *Store) UpdateQuantity(productID, size, color string, newQuantity int) error {
	if newQuantity < 1 && s.policy == config.PolicyReject {
		return ErrInvalidQuantity
	}
	key := model.LineItem{ProductID: productID, Size: size, Color: color}
	s.mu.Lock()
	i := s.find(key)
	if i < 0 {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	if newQuantity < 1 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	} else {
		s.items[i].Quantity = newQuantity
	}
	fn, snap := s.snapshotLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
	return nil
}

// Clear empties the cart unconditionally.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	fn, snap := s.snapshotLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// Items returns a copy of the current line items in insertion order.
func (s *Store) Items() []model.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// Len returns the number of distinct line items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Restore replaces the store's contents with a previously persisted state.
// It does not trigger the snapshot hook. Restore returns an error if the
// items violate the store's invariants; state is unchanged on error.
func (s *Store) Restore(items []model.LineItem) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return ErrInvalidQuantity
		}
		k := it.ProductID + "\x00" + it.VariantKey()
		if _, dup := seen[k]; dup {
			return errors.New("duplicate line item key")
		}
		seen[k] = struct{}{}
	}
	s.mu.Lock()
	s.items = cloneItems(items)
	s.mu.Unlock()
	return nil
}
