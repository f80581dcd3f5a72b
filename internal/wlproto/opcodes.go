package wlproto

import "github.com/bnema/lumalla/internal/wire"

// Request opcodes, grouped by interface. Only the subset of the real
// protocol this core implements is enumerated; everything else routes
// through the generic "unknown opcode" path described in §4.1.4.
const (
	DisplayRequestSync        wire.Opcode = 0
	DisplayRequestGetRegistry wire.Opcode = 1
)

const (
	RegistryRequestBind wire.Opcode = 0
)

const (
	CompositorRequestCreateSurface wire.Opcode = 0
	CompositorRequestCreateRegion wire.Opcode = 1
)

const (
	ShmRequestCreatePool wire.Opcode = 0
)

const (
	ShmPoolRequestCreateBuffer wire.Opcode = 0
	ShmPoolRequestDestroy      wire.Opcode = 1
	ShmPoolRequestResize       wire.Opcode = 2
)

const (
	BufferRequestDestroy wire.Opcode = 0
)

const (
	SurfaceRequestDestroy          wire.Opcode = 0
	SurfaceRequestAttach           wire.Opcode = 1
	SurfaceRequestDamage           wire.Opcode = 2
	SurfaceRequestFrame            wire.Opcode = 3
	SurfaceRequestSetOpaqueRegion  wire.Opcode = 4
	SurfaceRequestSetInputRegion   wire.Opcode = 5
	SurfaceRequestCommit           wire.Opcode = 6
)

const (
	SeatRequestGetPointer  wire.Opcode = 0
	SeatRequestGetKeyboard wire.Opcode = 1
	SeatRequestGetTouch    wire.Opcode = 2
	SeatRequestRelease     wire.Opcode = 3
)

// Event opcodes.
const (
	DisplayEventError    wire.Opcode = 0
	DisplayEventDeleteID wire.Opcode = 1
)

const (
	RegistryEventGlobal       wire.Opcode = 0
	RegistryEventGlobalRemove wire.Opcode = 1
)

const (
	CallbackEventDone wire.Opcode = 0
)

const (
	ShmEventFormat wire.Opcode = 0
)

const (
	BufferEventRelease wire.Opcode = 0
)

const (
	SeatEventCapabilities wire.Opcode = 0
	SeatEventName         wire.Opcode = 1
)

// wl_display.error codes.
const (
	DisplayErrorInvalidObject uint32 = 0
	DisplayErrorInvalidMethod uint32 = 1
	DisplayErrorNoMemory      uint32 = 2
	DisplayErrorImplementation uint32 = 3
)

// wl_shm.error codes.
const (
	ShmErrorInvalidFormat uint32 = 0
	ShmErrorInvalidFD     uint32 = 1
	ShmErrorInvalidStride uint32 = 2
)

// wl_shm.format values actually exercised by this core; the full enum is
// much larger but only these two are advertised per spec §4.5.
const (
	ShmFormatARGB8888 uint32 = 0
	ShmFormatXRGB8888 uint32 = 1
)

// wl_seat.capability bitmask.
const (
	SeatCapabilityPointer  uint32 = 1
	SeatCapabilityKeyboard uint32 = 2
	SeatCapabilityTouch    uint32 = 4
)
