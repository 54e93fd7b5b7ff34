package models

import (
	"fmt"
	"sync/atomic"
)

// Catalog maps aircraft identifiers to aircraft, preserving the load order for listings.
type Catalog struct {
	byID  map[string]*Aircraft
	order []string
}

// NewCatalog builds a catalog. Identifiers must be unique.
func NewCatalog(aircraft ...*Aircraft) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Aircraft, len(aircraft))}
	for i, a := range aircraft {
		if a == nil {
			return nil, fmt.Errorf("aircraft[%d]: nil entry", i)
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("aircraft[%d]: duplicate id %s", i, a.ID)
		}
		c.byID[a.ID] = a
		c.order = append(c.order, a.ID)
	}
	return c, nil
}

// Get returns the aircraft with the given identifier.
func (c *Catalog) Get(id string) (*Aircraft, bool) {
	if c == nil {
		return nil, false
	}
	a, ok := c.byID[id]
	return a, ok
}

// List returns aircraft in load order.
func (c *Catalog) List() []*Aircraft {
	if c == nil {
		return nil
	}
	out := make([]*Aircraft, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len returns the number of aircraft.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// CatalogSource provides the current catalog.
type CatalogSource interface {
	Catalog() *Catalog
}

// CatalogHolder swaps whole catalogs atomically on reload.
type CatalogHolder struct {
	p atomic.Pointer[Catalog]
}

// NewCatalogHolder returns a holder primed with c.
func NewCatalogHolder(c *Catalog) *CatalogHolder {
	h := &CatalogHolder{}
	h.Store(c)
	return h
}

// Catalog returns the current catalog.
func (h *CatalogHolder) Catalog() *Catalog {
	return h.p.Load()
}

// Store replaces the current catalog.
func (h *CatalogHolder) Store(c *Catalog) {
	h.p.Store(c)
}
