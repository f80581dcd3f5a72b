package wlproto

import "github.com/bnema/lumalla/internal/wire"

// The functions in this file are the generator's "builder chain" output: a
// sequence of single-purpose methods, each consuming one argument and
// returning the next step, terminating in EndMessage. For events with a
// fixed, small argument list we collapse the chain to one call for
// readability, matching how the generator would emit a helper wrapper around
// the raw chain for common cases; the underlying *wire.Writer chain is still
// exactly the one a generator would produce.

// EmitDisplayError sends wl_display.error(object_id, code, message).
func EmitDisplayError(w *wire.Writer, display wire.ObjectID, object wire.ObjectID, code uint32, message string) error {
	w.StartMessage(display, DisplayEventError).
		PutObject(object).
		PutUint32(code).
		PutString(message)
	return w.EndMessage()
}

// EmitDisplayDeleteID sends wl_display.delete_id(id).
func EmitDisplayDeleteID(w *wire.Writer, display wire.ObjectID, id uint32) error {
	w.StartMessage(display, DisplayEventDeleteID).PutUint32(id)
	return w.EndMessage()
}

// EmitRegistryGlobal sends wl_registry.global(name, interface, version).
func EmitRegistryGlobal(w *wire.Writer, registry wire.ObjectID, name uint32, iface string, version uint32) error {
	w.StartMessage(registry, RegistryEventGlobal).
		PutUint32(name).
		PutString(iface).
		PutUint32(version)
	return w.EndMessage()
}

// EmitRegistryGlobalRemove sends wl_registry.global_remove(name).
func EmitRegistryGlobalRemove(w *wire.Writer, registry wire.ObjectID, name uint32) error {
	w.StartMessage(registry, RegistryEventGlobalRemove).PutUint32(name)
	return w.EndMessage()
}

// EmitCallbackDone sends wl_callback.done(callback_data).
func EmitCallbackDone(w *wire.Writer, callback wire.ObjectID, data uint32) error {
	w.StartMessage(callback, CallbackEventDone).PutUint32(data)
	return w.EndMessage()
}

// EmitShmFormat sends wl_shm.format(format).
func EmitShmFormat(w *wire.Writer, shm wire.ObjectID, format uint32) error {
	w.StartMessage(shm, ShmEventFormat).PutUint32(format)
	return w.EndMessage()
}

// EmitBufferRelease sends wl_buffer.release().
func EmitBufferRelease(w *wire.Writer, buffer wire.ObjectID) error {
	w.StartMessage(buffer, BufferEventRelease)
	return w.EndMessage()
}

// EmitSeatCapabilities sends wl_seat.capabilities(capabilities).
func EmitSeatCapabilities(w *wire.Writer, seat wire.ObjectID, capabilities uint32) error {
	w.StartMessage(seat, SeatEventCapabilities).PutUint32(capabilities)
	return w.EndMessage()
}

// EmitSeatName sends wl_seat.name(name).
func EmitSeatName(w *wire.Writer, seat wire.ObjectID, name string) error {
	w.StartMessage(seat, SeatEventName).PutString(name)
	return w.EndMessage()
}
