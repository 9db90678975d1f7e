// Package catalog holds the product data line items are created from.
package catalog

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/cart-service-simulator/internal/model"
)

var (
	// ErrNotFound is returned when a product ID is unknown.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidProduct is returned for products missing an ID or carrying a
	// negative price.
	ErrInvalidProduct = errors.New("invalid product")
)

// Catalog is an in-memory product store. Listing preserves insertion order.
type Catalog struct {
	mu    sync.RWMutex
	m     map[string]model.Product
	order []string
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{m: make(map[string]model.Product)}
}

// Get returns the product with the given ID.
func (c *Catalog) Get(id string) (model.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.m[id]
	if !ok {
		return model.Product{}, ErrNotFound
	}
	return p, nil
}

// Upsert inserts or replaces a product.
func (c *Catalog) Upsert(p model.Product) error {
	if p.ProductID == "" || p.Name == "" || p.Price.IsNegative() {
		return ErrInvalidProduct
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[p.ProductID]; !ok {
		c.order = append(c.order, p.ProductID)
	}
	c.m[p.ProductID] = p
	return nil
}

// Delete removes a product. Deleting an unknown ID is an error so the HTTP
// layer can answer 404.
func (c *Catalog) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[id]; !ok {
		return ErrNotFound
	}
	delete(c.m, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns all products in insertion order.
func (c *Catalog) List() []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.m[id])
	}
	return out
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// SeedDemo loads a small demo catalog, standing in for a real product
// service during local runs.
func (c *Catalog) SeedDemo() {
	demo := []model.Product{
		{ProductID: "tee-classic", Name: "Classic Tee", Price: decimal.RequireFromString("19.99"),
			ImageURL: "/images/tee-classic.jpg", Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"black", "white", "red"}},
		{ProductID: "hoodie-zip", Name: "Zip Hoodie", Price: decimal.RequireFromString("49.95"),
			ImageURL: "/images/hoodie-zip.jpg", Sizes: []string{"M", "L", "XL"}, Colors: []string{"gray", "navy"}},
		{ProductID: "cap-baseball", Name: "Baseball Cap", Price: decimal.RequireFromString("14.50"),
			ImageURL: "/images/cap-baseball.jpg", Sizes: []string{"one-size"}, Colors: []string{"black", "green"}},
		{ProductID: "socks-crew", Name: "Crew Socks 3-Pack", Price: decimal.RequireFromString("9.99"),
			ImageURL: "/images/socks-crew.jpg", Sizes: []string{"M", "L"}, Colors: []string{"white"}},
	}
	for _, p := range demo {
		_ = c.Upsert(p)
	}
}
