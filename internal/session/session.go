// Package session ties each cart ID to one line-item store and one
// persistence slot. Ownership is explicit: a store is constructed once per
// session and handed to callers by reference, never looked up ambiently.
package session

import (
	"sync"

	"github.com/fairyhunter13/cart-service-simulator/internal/cart"
	"github.com/fairyhunter13/cart-service-simulator/internal/config"
	"github.com/fairyhunter13/cart-service-simulator/internal/model"
	"github.com/fairyhunter13/cart-service-simulator/internal/obs"
	"github.com/fairyhunter13/cart-service-simulator/internal/persist"
)

// AdapterFactory builds the persistence adapter for a slot name.
type AdapterFactory func(slot string) persist.Adapter

// Manager owns the live cart stores, one per cart ID.
type Manager struct {
	cfg        config.Config
	writer     *persist.Writer
	newAdapter AdapterFactory

	mu    sync.Mutex
	carts map[string]*cart.Store
}

// NewManager creates a Manager wiring new stores to the writer and adapters
// from the factory.
func NewManager(cfg config.Config, w *persist.Writer, f AdapterFactory) *Manager {
	return &Manager{cfg: cfg, writer: w, newAdapter: f, carts: make(map[string]*cart.Store)}
}

// Get returns the store for the given cart ID, creating and rehydrating it
// from its slot on first touch. A failed or malformed load starts the cart
// empty; that is a warning, never an error for the caller.
func (m *Manager) Get(cartID string) *cart.Store {
	m.mu.Lock()
	if s, ok := m.carts[cartID]; ok {
		m.mu.Unlock()
		return s
	}
	m.mu.Unlock()

	adapter := m.newAdapter(cartID)
	s := cart.New(m.cfg.UnderMinQty)
	items, err := adapter.Load()
	if err != nil {
		obs.Logger.Warn("snapshot_load_failed", "cart_id", cartID, "error", err)
	} else if len(items) > 0 {
		if rerr := s.Restore(items); rerr != nil {
			obs.Logger.Warn("snapshot_restore_rejected", "cart_id", cartID, "error", rerr)
		}
	}
	s.SetOnChange(func(items []model.LineItem) {
		m.writer.Enqueue(cartID, adapter, items)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.carts[cartID]; ok {
		// lost the race to another request for the same cart
		return existing
	}
	m.carts[cartID] = s
	obs.Logger.Info("cart_session_opened", "cart_id", cartID, "restored_items", s.Len())
	return s
}

// ActiveCount returns the number of live cart stores.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.carts)
}
