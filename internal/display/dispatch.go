package display

import (
	"errors"

	"github.com/bnema/lumalla/internal/logging"
	"github.com/bnema/lumalla/internal/registry"
	"github.com/bnema/lumalla/internal/shm"
	"github.com/bnema/lumalla/internal/surfmgr"
	"github.com/bnema/lumalla/internal/wire"
	"github.com/bnema/lumalla/internal/wlproto"
)

// errConnectionClosed signals dispatch detected a protocol violation: the
// connection has already received its wl_display.error and must be torn
// down by the caller.
var errConnectionClosed = errors.New("display: connection closed by protocol error")

// dispatch routes one decoded message to its interface's handler. A non-nil
// return means the connection is no longer usable and must be closed; a nil
// return (even after an unimplemented-optional-request rejection) means the
// connection stays open, per the per-opcode graceful/fatal distinction.
func (s *Subsystem) dispatch(conn *connection, hdr wire.Header, body []byte) error {
	iface, ok := conn.registry.InterfaceIndex(hdr.Object)
	if !ok {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidObject, "invalid object")
		return errConnectionClosed
	}

	switch iface {
	case wlproto.InterfaceDisplay:
		return s.dispatchDisplay(conn, hdr, body)
	case wlproto.InterfaceRegistry:
		return s.dispatchRegistry(conn, hdr, body)
	case wlproto.InterfaceCompositor:
		return s.dispatchCompositor(conn, hdr, body)
	case wlproto.InterfaceShm:
		return s.dispatchShm(conn, hdr, body)
	case wlproto.InterfaceShmPool:
		return s.dispatchShmPool(conn, hdr, body)
	case wlproto.InterfaceBuffer:
		return s.dispatchBuffer(conn, hdr, body)
	case wlproto.InterfaceSurface:
		return s.dispatchSurface(conn, hdr, body)
	case wlproto.InterfaceSeat:
		return s.dispatchSeat(conn, hdr, body)
	default:
		s.rejectOptional(conn, hdr, iface)
		return nil
	}
}

// fatal emits wl_display.error(object, code, message) on the display object.
// Every caller that reaches here is reporting an actual protocol violation,
// not an unimplemented optional request — those go through rejectOptional.
func (s *Subsystem) fatal(conn *connection, object wire.ObjectID, code uint32, message string) {
	_ = wlproto.EmitDisplayError(conn.writer, registry.DisplayObjectID, object, code, message)
}

// rejectOptional is the resolved-open-question path: a request this core
// does not implement, on an object whose interface permits graceful
// rejection, is logged and otherwise ignored rather than tearing down the
// whole connection.
func (s *Subsystem) rejectOptional(conn *connection, hdr wire.Header, iface wlproto.InterfaceIndex) {
	logging.For("display").Debug().
		Str("interface", iface.Name()).
		Uint16("opcode", uint16(hdr.Opcode)).
		Msg("unimplemented optional request rejected gracefully")
}

func (s *Subsystem) dispatchDisplay(conn *connection, hdr wire.Header, body []byte) error {
	switch hdr.Opcode {
	case wlproto.DisplayRequestSync:
		req, err := wlproto.DecodeDisplaySync(body)
		if err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "malformed sync request")
			return errConnectionClosed
		}
		if err := conn.registry.Register(req.CallbackID, wlproto.InterfaceCallback); err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "callback id already in use")
			return errConnectionClosed
		}
		_ = wlproto.EmitCallbackDone(conn.writer, req.CallbackID, 0)
		_ = conn.registry.FreeObject(req.CallbackID, conn.writer)
		return nil

	case wlproto.DisplayRequestGetRegistry:
		req, err := wlproto.DecodeDisplayGetRegistry(body)
		if err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "malformed get_registry request")
			return errConnectionClosed
		}
		if err := conn.registry.Register(req.RegistryID, wlproto.InterfaceRegistry); err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "registry id already in use")
			return errConnectionClosed
		}
		conn.registries = append(conn.registries, req.RegistryID)
		for _, g := range s.catalog.All() {
			_ = wlproto.EmitRegistryGlobal(conn.writer, req.RegistryID, g.Name, g.Interface.Name(), g.Interface.Version())
		}
		return nil

	default:
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "unknown wl_display request")
		return errConnectionClosed
	}
}

func (s *Subsystem) dispatchRegistry(conn *connection, hdr wire.Header, body []byte) error {
	if hdr.Opcode != wlproto.RegistryRequestBind {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "unknown wl_registry request")
		return errConnectionClosed
	}
	req, err := wlproto.DecodeRegistryBind(body)
	if err != nil {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "malformed bind request")
		return errConnectionClosed
	}
	g, ok := s.catalog.Get(req.Name)
	if !ok {
		logging.For("display").Debug().
			Uint32("name", req.Name).
			Msg("bind of unknown global name ignored")
		return nil
	}
	iface, ok := wlproto.InterfaceByName(req.Interface)
	if !ok || iface != g.Interface {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidObject, "bind requested interface does not match global")
		return errConnectionClosed
	}
	if err := conn.registry.Register(req.NewID, iface); err != nil {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "bound id already in use")
		return errConnectionClosed
	}

	switch iface {
	case wlproto.InterfaceShm:
		_ = wlproto.EmitShmFormat(conn.writer, req.NewID, wlproto.ShmFormatARGB8888)
		_ = wlproto.EmitShmFormat(conn.writer, req.NewID, wlproto.ShmFormatXRGB8888)
	case wlproto.InterfaceSeat:
		_ = wlproto.EmitSeatCapabilities(conn.writer, req.NewID, wlproto.SeatCapabilityPointer|wlproto.SeatCapabilityKeyboard)
		if name, ok := s.seats.SeatName(req.Name); ok {
			_ = wlproto.EmitSeatName(conn.writer, req.NewID, name)
		}
	}
	return nil
}

func (s *Subsystem) dispatchCompositor(conn *connection, hdr wire.Header, body []byte) error {
	switch hdr.Opcode {
	case wlproto.CompositorRequestCreateSurface:
		req, err := wlproto.DecodeCompositorCreateSurface(body)
		if err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "malformed create_surface request")
			return errConnectionClosed
		}
		if err := conn.registry.Register(req.SurfaceID, wlproto.InterfaceSurface); err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "surface id already in use")
			return errConnectionClosed
		}
		s.surfaces.Create(surfmgr.Key{ClientID: uint64(conn.id), ObjectID: uint32(req.SurfaceID)})
		return nil
	default:
		s.rejectOptional(conn, hdr, wlproto.InterfaceCompositor)
		return nil
	}
}

func (s *Subsystem) dispatchShm(conn *connection, hdr wire.Header, body []byte) error {
	if hdr.Opcode != wlproto.ShmRequestCreatePool {
		s.rejectOptional(conn, hdr, wlproto.InterfaceShm)
		return nil
	}
	req, err := wlproto.DecodeShmCreatePool(body)
	if err != nil {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "malformed create_pool request")
		return errConnectionClosed
	}
	fds := conn.reader.TakeFDs(1)
	fd := fds[0]
	if fd < 0 {
		s.fatal(conn, req.PoolID, wlproto.ShmErrorInvalidFD, "create_pool missing fd")
		return errConnectionClosed
	}
	if err := conn.registry.Register(req.PoolID, wlproto.InterfaceShmPool); err != nil {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "pool id already in use")
		return errConnectionClosed
	}
	key := shm.PoolKey{ClientID: uint64(conn.id), ObjectID: uint32(req.PoolID)}
	ok, err := s.shm.CreatePool(key, fd, req.Size)
	if err != nil || !ok {
		s.fatal(conn, req.PoolID, wlproto.ShmErrorInvalidFD, "create_pool mmap failed")
		return errConnectionClosed
	}
	return nil
}

func (s *Subsystem) dispatchShmPool(conn *connection, hdr wire.Header, body []byte) error {
	key := shm.PoolKey{ClientID: uint64(conn.id), ObjectID: uint32(hdr.Object)}
	switch hdr.Opcode {
	case wlproto.ShmPoolRequestCreateBuffer:
		req, err := wlproto.DecodeShmPoolCreateBuffer(body)
		if err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "malformed create_buffer request")
			return errConnectionClosed
		}
		if err := conn.registry.Register(req.BufferID, wlproto.InterfaceBuffer); err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "buffer id already in use")
			return errConnectionClosed
		}
		bufKey := shm.BufferKey{ClientID: uint64(conn.id), ObjectID: uint32(req.BufferID)}
		if err := s.shm.CreateBuffer(key, bufKey, req.Offset, req.Width, req.Height, req.Stride, req.Format); err != nil {
			s.fatal(conn, hdr.Object, wlproto.ShmErrorInvalidFormat, err.Error())
			return errConnectionClosed
		}
		return nil

	case wlproto.ShmPoolRequestDestroy:
		if err := s.shm.DestroyPool(key); err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidObject, "destroy of unknown pool")
			return errConnectionClosed
		}
		_ = conn.registry.FreeObject(hdr.Object, conn.writer)
		return nil

	case wlproto.ShmPoolRequestResize:
		req, err := wlproto.DecodeShmPoolResize(body)
		if err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "malformed resize request")
			return errConnectionClosed
		}
		if err := s.shm.Resize(key, req.Size); err != nil {
			s.fatal(conn, hdr.Object, wlproto.ShmErrorInvalidFD, err.Error())
			return errConnectionClosed
		}
		return nil

	default:
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "unknown wl_shm_pool request")
		return errConnectionClosed
	}
}

func (s *Subsystem) dispatchBuffer(conn *connection, hdr wire.Header, body []byte) error {
	if hdr.Opcode != wlproto.BufferRequestDestroy {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "unknown wl_buffer request")
		return errConnectionClosed
	}
	key := shm.BufferKey{ClientID: uint64(conn.id), ObjectID: uint32(hdr.Object)}
	if err := s.shm.DestroyBuffer(key); err != nil {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidObject, "destroy of unknown buffer")
		return errConnectionClosed
	}
	_ = conn.registry.FreeObject(hdr.Object, conn.writer)
	return nil
}

func (s *Subsystem) dispatchSurface(conn *connection, hdr wire.Header, body []byte) error {
	key := surfmgr.Key{ClientID: uint64(conn.id), ObjectID: uint32(hdr.Object)}
	surf, ok := s.surfaces.Get(key)
	if !ok {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidObject, "surface already destroyed")
		return errConnectionClosed
	}

	switch hdr.Opcode {
	case wlproto.SurfaceRequestAttach:
		req, err := wlproto.DecodeSurfaceAttach(body)
		if err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "malformed attach request")
			return errConnectionClosed
		}
		if req.Buffer != 0 {
			if iface, ok := conn.registry.InterfaceIndex(req.Buffer); !ok || iface != wlproto.InterfaceBuffer {
				s.fatal(conn, req.Buffer, wlproto.DisplayErrorInvalidObject, "attach of non-buffer object")
				return errConnectionClosed
			}
		}
		surf.Attach(req.Buffer, req.DX, req.DY)
		return nil

	case wlproto.SurfaceRequestCommit:
		surf.Commit()
		return nil

	case wlproto.SurfaceRequestDestroy:
		s.surfaces.Destroy(key)
		_ = conn.registry.FreeObject(hdr.Object, conn.writer)
		return nil

	case wlproto.SurfaceRequestFrame:
		d := wire.NewDecoder(body)
		cbID, err := d.NewID()
		if err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "malformed frame request")
			return errConnectionClosed
		}
		if err := conn.registry.Register(cbID, wlproto.InterfaceCallback); err != nil {
			s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "callback id already in use")
			return errConnectionClosed
		}
		// No render loop backs frame callbacks in this core; fire immediately
		// rather than leaving the client waiting forever.
		_ = wlproto.EmitCallbackDone(conn.writer, cbID, 0)
		_ = conn.registry.FreeObject(cbID, conn.writer)
		return nil

	default:
		s.rejectOptional(conn, hdr, wlproto.InterfaceSurface)
		return nil
	}
}

func (s *Subsystem) dispatchSeat(conn *connection, hdr wire.Header, body []byte) error {
	switch hdr.Opcode {
	case wlproto.SeatRequestGetPointer:
		return s.bindSeatChild(conn, hdr, body, wlproto.InterfacePointer)
	case wlproto.SeatRequestGetKeyboard:
		return s.bindSeatChild(conn, hdr, body, wlproto.InterfaceKeyboard)
	case wlproto.SeatRequestGetTouch:
		return s.bindSeatChild(conn, hdr, body, wlproto.InterfaceTouch)
	case wlproto.SeatRequestRelease:
		_ = conn.registry.FreeObject(hdr.Object, conn.writer)
		return nil
	default:
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "unknown wl_seat request")
		return errConnectionClosed
	}
}

// bindSeatChild registers the new_id minted by get_pointer/get_keyboard/
// get_touch. No input backend feeds motion/key events into these objects
// yet; they exist only so clients that request them are not torn down.
func (s *Subsystem) bindSeatChild(conn *connection, hdr wire.Header, body []byte, iface wlproto.InterfaceIndex) error {
	d := wire.NewDecoder(body)
	id, err := d.NewID()
	if err != nil {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "malformed seat child request")
		return errConnectionClosed
	}
	if err := conn.registry.Register(id, iface); err != nil {
		s.fatal(conn, hdr.Object, wlproto.DisplayErrorInvalidMethod, "seat child id already in use")
		return errConnectionClosed
	}
	return nil
}
