package registry

import (
	"testing"

	"github.com/bnema/lumalla/internal/wire"
	"github.com/bnema/lumalla/internal/wlproto"
)

func TestNewHasDisplaySingleton(t *testing.T) {
	r := New()
	iface, ok := r.InterfaceIndex(DisplayObjectID)
	if !ok || iface != wlproto.InterfaceDisplay {
		t.Fatalf("InterfaceIndex(1) = %v, %v, want InterfaceDisplay, true", iface, ok)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := New()
	if err := r.Register(5, wlproto.InterfaceSurface); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(5, wlproto.InterfaceSurface); err == nil {
		t.Error("Register of a live id should fail")
	}
}

func TestCreateObjectStartsAtServerBase(t *testing.T) {
	r := New()
	id, err := r.CreateObject(wlproto.InterfaceCallback)
	if err != nil {
		t.Fatalf("CreateObject: %v", err)
	}
	if id != serverIDBase {
		t.Errorf("CreateObject first id = %d, want %d", id, serverIDBase)
	}
	if !IsServerID(id) {
		t.Error("IsServerID on freshly minted server id = false")
	}
}

func TestCreateObjectIsMonotonicBeforeAnyFree(t *testing.T) {
	r := New()
	id1, _ := r.CreateObject(wlproto.InterfaceCallback)
	id2, _ := r.CreateObject(wlproto.InterfaceCallback)
	if id2 != id1+1 {
		t.Fatalf("second id = %d, want %d", id2, id1+1)
	}
}

func TestFreeObjectClientMintedEmitsDeleteID(t *testing.T) {
	r := New()
	if err := r.Register(10, wlproto.InterfaceSurface); err != nil {
		t.Fatalf("Register: %v", err)
	}
	w := wire.NewWriter(-1)
	if err := r.FreeObject(10, w); err != nil {
		t.Fatalf("FreeObject: %v", err)
	}
	if !w.Pending() {
		t.Error("FreeObject of a client-minted id should buffer a delete_id event")
	}
	if _, ok := r.InterfaceIndex(10); ok {
		t.Error("id 10 should no longer be live after FreeObject")
	}
}

func TestFreeObjectServerMintedPushesFreeList(t *testing.T) {
	r := New()
	id, _ := r.CreateObject(wlproto.InterfaceCallback)
	w := wire.NewWriter(-1)
	if err := r.FreeObject(id, w); err != nil {
		t.Fatalf("FreeObject: %v", err)
	}
	if w.Pending() {
		t.Error("freeing a server-minted id must not emit delete_id")
	}
	next, err := r.CreateObject(wlproto.InterfaceCallback)
	if err != nil {
		t.Fatalf("CreateObject: %v", err)
	}
	if next != id {
		t.Errorf("recycled id = %d, want %d (from free-list)", next, id)
	}
}

func TestRegisterThenFreeThenRegisterAgain(t *testing.T) {
	r := New()
	if err := r.Register(7, wlproto.InterfaceSurface); err != nil {
		t.Fatalf("Register: %v", err)
	}
	w := wire.NewWriter(-1)
	if err := r.FreeObject(7, w); err != nil {
		t.Fatalf("FreeObject: %v", err)
	}
	if err := r.Register(7, wlproto.InterfaceBuffer); err != nil {
		t.Fatalf("Register after free: %v", err)
	}
	iface, ok := r.InterfaceIndex(7)
	if !ok || iface != wlproto.InterfaceBuffer {
		t.Fatalf("InterfaceIndex(7) = %v, %v, want InterfaceBuffer, true", iface, ok)
	}
}

func TestObjectsOfInterface(t *testing.T) {
	r := New()
	r.Register(2, wlproto.InterfaceRegistry)
	r.Register(3, wlproto.InterfaceRegistry)
	r.Register(4, wlproto.InterfaceSurface)
	ids := r.ObjectsOfInterface(wlproto.InterfaceRegistry)
	if len(ids) != 2 {
		t.Errorf("ObjectsOfInterface(registry) = %v, want 2 entries", ids)
	}
}
