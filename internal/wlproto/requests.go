package wlproto

import "github.com/bnema/lumalla/internal/wire"

// The decoders in this file are the generator's "typed accessor layered over
// the raw body" output: by-offset decoding for inline arguments. FD-typed
// arguments are not decoded here — callers pull them from the connection's
// fd queue in declaration order, per §4.1.2's invariant.

// DisplaySyncRequest is wl_display.sync's single argument.
type DisplaySyncRequest struct {
	CallbackID wire.ObjectID
}

func DecodeDisplaySync(body []byte) (DisplaySyncRequest, error) {
	d := wire.NewDecoder(body)
	id, err := d.NewID()
	return DisplaySyncRequest{CallbackID: id}, err
}

// DisplayGetRegistryRequest is wl_display.get_registry's single argument.
type DisplayGetRegistryRequest struct {
	RegistryID wire.ObjectID
}

func DecodeDisplayGetRegistry(body []byte) (DisplayGetRegistryRequest, error) {
	d := wire.NewDecoder(body)
	id, err := d.NewID()
	return DisplayGetRegistryRequest{RegistryID: id}, err
}

// RegistryBindRequest is wl_registry.bind's arguments: the global name being
// bound, the new object id the client minted for it, and the interface/
// version it was minted at (carried inline on the new_id argument itself,
// per the protocol's special-cased new_id-with-interface encoding).
type RegistryBindRequest struct {
	Name      uint32
	NewID     wire.ObjectID
	Interface string
	Version   uint32
}

func DecodeRegistryBind(body []byte) (RegistryBindRequest, error) {
	d := wire.NewDecoder(body)
	name, err := d.Uint32()
	if err != nil {
		return RegistryBindRequest{}, err
	}
	id, iface, version, err := d.NewIDFull()
	return RegistryBindRequest{Name: name, NewID: id, Interface: iface, Version: version}, err
}

// CompositorCreateSurfaceRequest is wl_compositor.create_surface's argument.
type CompositorCreateSurfaceRequest struct {
	SurfaceID wire.ObjectID
}

func DecodeCompositorCreateSurface(body []byte) (CompositorCreateSurfaceRequest, error) {
	d := wire.NewDecoder(body)
	id, err := d.NewID()
	return CompositorCreateSurfaceRequest{SurfaceID: id}, err
}

// ShmCreatePoolRequest is wl_shm.create_pool's inline arguments; the fd
// argument travels out-of-band and is supplied separately by the caller.
type ShmCreatePoolRequest struct {
	PoolID wire.ObjectID
	Size   int32
}

func DecodeShmCreatePool(body []byte) (ShmCreatePoolRequest, error) {
	d := wire.NewDecoder(body)
	id, err := d.NewID()
	if err != nil {
		return ShmCreatePoolRequest{}, err
	}
	size, err := d.Int32()
	return ShmCreatePoolRequest{PoolID: id, Size: size}, err
}

// ShmPoolCreateBufferRequest is wl_shm_pool.create_buffer's arguments.
type ShmPoolCreateBufferRequest struct {
	BufferID wire.ObjectID
	Offset   int32
	Width    int32
	Height   int32
	Stride   int32
	Format   uint32
}

func DecodeShmPoolCreateBuffer(body []byte) (ShmPoolCreateBufferRequest, error) {
	d := wire.NewDecoder(body)
	req := ShmPoolCreateBufferRequest{}
	var err error
	if req.BufferID, err = d.NewID(); err != nil {
		return req, err
	}
	if req.Offset, err = d.Int32(); err != nil {
		return req, err
	}
	if req.Width, err = d.Int32(); err != nil {
		return req, err
	}
	if req.Height, err = d.Int32(); err != nil {
		return req, err
	}
	if req.Stride, err = d.Int32(); err != nil {
		return req, err
	}
	req.Format, err = d.Uint32()
	return req, err
}

// ShmPoolResizeRequest is wl_shm_pool.resize's argument.
type ShmPoolResizeRequest struct {
	Size int32
}

func DecodeShmPoolResize(body []byte) (ShmPoolResizeRequest, error) {
	d := wire.NewDecoder(body)
	size, err := d.Int32()
	return ShmPoolResizeRequest{Size: size}, err
}

// SurfaceAttachRequest is wl_surface.attach's arguments. Buffer is zero for a
// null attach (detach).
type SurfaceAttachRequest struct {
	Buffer wire.ObjectID
	DX     int32
	DY     int32
}

func DecodeSurfaceAttach(body []byte) (SurfaceAttachRequest, error) {
	d := wire.NewDecoder(body)
	req := SurfaceAttachRequest{}
	var err error
	if req.Buffer, err = d.Object(); err != nil {
		return req, err
	}
	if req.DX, err = d.Int32(); err != nil {
		return req, err
	}
	req.DY, err = d.Int32()
	return req, err
}
