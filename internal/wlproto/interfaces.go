// Package wlproto is the hand-authored output of the Wayland protocol code
// generator described by the core: typed request decoders, event builder
// chains, and the closed enumeration of interfaces and their wire constants.
// No generator runs as part of this build; this package is written in the
// shape a generator targeting Go would emit, including the escaping and
// constant-naming conventions a generator must guarantee.
package wlproto

import "github.com/bnema/lumalla/internal/wire"

// InterfaceIndex is a closed enumeration identifying a Wayland interface.
type InterfaceIndex int

const (
	InterfaceDisplay InterfaceIndex = iota
	InterfaceRegistry
	InterfaceCallback
	InterfaceCompositor
	InterfaceShm
	InterfaceShmPool
	InterfaceBuffer
	InterfaceSurface
	InterfaceRegion
	InterfaceSeat
	InterfacePointer
	InterfaceKeyboard
	InterfaceTouch
	InterfaceOutput
	InterfaceSubcompositor
	InterfaceSubsurface
	InterfaceDataDeviceManager
	InterfaceDataDevice
	InterfaceDataSource
	InterfaceDataOffer
	InterfaceShell
	InterfaceShellSurface
	InterfaceFixes
)

type interfaceInfo struct {
	name    string
	version uint32
}

var interfaceTable = [...]interfaceInfo{
	InterfaceDisplay:           {"wl_display", 1},
	InterfaceRegistry:          {"wl_registry", 1},
	InterfaceCallback:          {"wl_callback", 1},
	InterfaceCompositor:        {"wl_compositor", 6},
	InterfaceShm:               {"wl_shm", 2},
	InterfaceShmPool:           {"wl_shm_pool", 2},
	InterfaceBuffer:            {"wl_buffer", 1},
	InterfaceSurface:           {"wl_surface", 6},
	InterfaceRegion:            {"wl_region", 1},
	InterfaceSeat:              {"wl_seat", 9},
	InterfacePointer:           {"wl_pointer", 9},
	InterfaceKeyboard:          {"wl_keyboard", 9},
	InterfaceTouch:             {"wl_touch", 9},
	InterfaceOutput:            {"wl_output", 4},
	InterfaceSubcompositor:     {"wl_subcompositor", 1},
	InterfaceSubsurface:        {"wl_subsurface", 1},
	InterfaceDataDeviceManager: {"wl_data_device_manager", 3},
	InterfaceDataDevice:        {"wl_data_device", 3},
	InterfaceDataSource:        {"wl_data_source", 3},
	InterfaceDataOffer:         {"wl_data_offer", 3},
	InterfaceShell:             {"wl_shell", 1},
	InterfaceShellSurface:      {"wl_shell_surface", 1},
	InterfaceFixes:             {"wl_fixes", 1},
}

// Name returns the ASCII interface name, e.g. "wl_compositor".
func (i InterfaceIndex) Name() string {
	return interfaceTable[i].name
}

// Version returns the interface version this core advertises/implements.
func (i InterfaceIndex) Version() uint32 {
	return interfaceTable[i].version
}

// InterfaceByName looks up an InterfaceIndex by its wire name, used when
// binding a registry global or registering a request's new_id argument.
func InterfaceByName(name string) (InterfaceIndex, bool) {
	for i, info := range interfaceTable {
		if info.name == name {
			return InterfaceIndex(i), true
		}
	}
	return 0, false
}

// ObjectRef is a convenience pairing of a decoded object id with the
// interface it is expected to resolve to, used by request decoders that
// accept object-typed arguments.
type ObjectRef struct {
	ID        wire.ObjectID
	Interface InterfaceIndex
}
