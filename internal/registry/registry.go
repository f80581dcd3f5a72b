// Package registry tracks the live protocol objects of one client
// connection: the mapping from object id to interface, and the allocation
// and recycling of server-minted object ids.
package registry

import (
	"errors"
	"fmt"

	"github.com/bnema/lumalla/internal/wire"
	"github.com/bnema/lumalla/internal/wlproto"
)

// serverIDBase is the first id minted by the server; below it, ids are
// client-minted.
const serverIDBase wire.ObjectID = 0xFF000000

// DisplayObjectID is fixed as the display singleton on every connection.
const DisplayObjectID wire.ObjectID = 1

// ErrAlreadyRegistered is returned by Register when the given id is already live.
var ErrAlreadyRegistered = errors.New("registry: object id already registered")

// ErrIDSpaceExhausted is returned by CreateObject when no server id remains.
var ErrIDSpaceExhausted = errors.New("registry: server id space exhausted")

// Registry is the per-client object table: object id -> interface, plus the
// server-ID allocator (monotonic counter starting at serverIDBase, with a
// LIFO free-list for recycling).
type Registry struct {
	objects      map[wire.ObjectID]wlproto.InterfaceIndex
	nextServerID wire.ObjectID
	freeList     []wire.ObjectID
}

// New constructs a Registry with the display singleton already registered.
func New() *Registry {
	r := &Registry{
		objects:      make(map[wire.ObjectID]wlproto.InterfaceIndex),
		nextServerID: serverIDBase,
	}
	r.objects[DisplayObjectID] = wlproto.InterfaceDisplay
	return r
}

// Register inserts a client- or server-minted id with its interface. It is a
// protocol violation to register an id that is already live.
func (r *Registry) Register(id wire.ObjectID, iface wlproto.InterfaceIndex) error {
	if _, exists := r.objects[id]; exists {
		return fmt.Errorf("%w: %d", ErrAlreadyRegistered, id)
	}
	r.objects[id] = iface
	return nil
}

// CreateObject mints a fresh server-owned id for iface: it pops the free
// list if non-empty, else bumps the monotonic counter. Exhaustion (wrapping
// past the top of the id space) is fatal to the connection.
func (r *Registry) CreateObject(iface wlproto.InterfaceIndex) (wire.ObjectID, error) {
	var id wire.ObjectID
	if n := len(r.freeList); n > 0 {
		id = r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
	} else {
		if r.nextServerID == 0 { // wrapped past u32::MAX
			return 0, ErrIDSpaceExhausted
		}
		id = r.nextServerID
		r.nextServerID++
	}
	r.objects[id] = iface
	return id, nil
}

// InterfaceIndex looks up the interface bound to id. The ok result is false
// for an unknown id, signaling "invalid object" to the caller.
func (r *Registry) InterfaceIndex(id wire.ObjectID) (wlproto.InterfaceIndex, bool) {
	iface, ok := r.objects[id]
	return iface, ok
}

// IsServerID reports whether id lies in the server-minted range.
func IsServerID(id wire.ObjectID) bool {
	return id >= serverIDBase
}

// FreeObject removes id from the table. If id is client-minted, it emits
// wl_display.delete_id on w so the client may reuse that number; if
// server-minted, the id is pushed to the free-list for internal reuse only.
func (r *Registry) FreeObject(id wire.ObjectID, w *wire.Writer) error {
	if _, ok := r.objects[id]; !ok {
		return fmt.Errorf("registry: free of unknown object %d", id)
	}
	delete(r.objects, id)
	if IsServerID(id) {
		r.freeList = append(r.freeList, id)
		return nil
	}
	return wlproto.EmitDisplayDeleteID(w, DisplayObjectID, uint32(id))
}

// ObjectsOfInterface returns every live object id currently bound to iface,
// in unspecified order. The display thread's global broadcast does not use
// it; it walks each connection's own list of wl_registry ids.
func (r *Registry) ObjectsOfInterface(iface wlproto.InterfaceIndex) []wire.ObjectID {
	var out []wire.ObjectID
	for id, bound := range r.objects {
		if bound == iface {
			out = append(out, id)
		}
	}
	return out
}
