// Package globals is the server-owned catalog of advertisable Wayland
// globals, broadcast to every registry object a client holds whenever a
// global appears (§3, §4.7).
package globals

import "github.com/bnema/lumalla/internal/wlproto"

// Global is one advertisable entry in the catalog.
type Global struct {
	Name      uint32
	Interface wlproto.InterfaceIndex
}

// Catalog tracks every currently-advertised global, keyed by its
// server-assigned name.
type Catalog struct {
	entries map[uint32]Global
	nextName uint32
}

// NewCatalog constructs an empty catalog. Names start at 1; 0 is reserved.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[uint32]Global), nextName: 1}
}

// Add registers a new global for iface and returns its assigned name.
func (c *Catalog) Add(iface wlproto.InterfaceIndex) Global {
	g := Global{Name: c.nextName, Interface: iface}
	c.entries[g.Name] = g
	c.nextName++
	return g
}

// Remove deletes a global by name.
func (c *Catalog) Remove(name uint32) {
	delete(c.entries, name)
}

// Get looks up a global by name.
func (c *Catalog) Get(name uint32) (Global, bool) {
	g, ok := c.entries[name]
	return g, ok
}

// All returns every live global, in unspecified order.
func (c *Catalog) All() []Global {
	out := make([]Global, 0, len(c.entries))
	for _, g := range c.entries {
		out = append(out, g)
	}
	return out
}
