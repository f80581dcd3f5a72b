package wire

import (
	"encoding/binary"
	"fmt"
)

// Decoder walks a request body by offset, in the order its arguments were
// declared. It never copies the backing slice; callers must not mutate buf
// while a Decoder is alive.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder wraps buf (a message body, header already stripped) for
// sequential argument decoding.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

func (d *Decoder) need(n int) error {
	if d.off+n > len(d.buf) {
		return fmt.Errorf("wire: decode past end of body (need %d, have %d)", n, len(d.buf)-d.off)
	}
	return nil
}

// Int32 decodes a signed 32-bit integer argument.
func (d *Decoder) Int32() (int32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := int32(binary.LittleEndian.Uint32(d.buf[d.off:]))
	d.off += 4
	return v, nil
}

// Uint32 decodes an unsigned 32-bit integer argument.
func (d *Decoder) Uint32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

// Fixed decodes a 24.8 fixed-point argument.
func (d *Decoder) Fixed() (Fixed, error) {
	v, err := d.Int32()
	return Fixed(v), err
}

// Object decodes an object-id argument. A zero value denotes a null
// object reference where the request permits one.
func (d *Decoder) Object() (ObjectID, error) {
	v, err := d.Uint32()
	return ObjectID(v), err
}

// NewID decodes a new-id argument minted by the client for this request.
func (d *Decoder) NewID() (ObjectID, error) {
	v, err := d.Uint32()
	return ObjectID(v), err
}

// NewIDFull decodes a new-id argument that additionally carries the target
// interface name and version inline (used by wl_registry.bind), returning
// them alongside the minted id.
func (d *Decoder) NewIDFull() (id ObjectID, interfaceName string, version uint32, err error) {
	interfaceName, err = d.String()
	if err != nil {
		return 0, "", 0, err
	}
	version, err = d.Uint32()
	if err != nil {
		return 0, "", 0, err
	}
	id, err = d.NewID()
	return id, interfaceName, version, err
}

// String decodes a length-prefixed, NUL-terminated, 4-byte-padded string
// argument. A zero length prefix denotes a null string and decodes as "".
func (d *Decoder) String() (string, error) {
	n, err := d.Uint32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if err := d.need(int(n)); err != nil {
		return "", err
	}
	s := string(d.buf[d.off : d.off+int(n)-1]) // drop trailing NUL
	d.off += int(n) + paddingFor(int(n))
	return s, nil
}

// Array decodes a length-prefixed, 4-byte-padded opaque byte array argument.
func (d *Decoder) Array() ([]byte, error) {
	n, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	if err := d.need(int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, d.buf[d.off:d.off+int(n)])
	d.off += int(n) + paddingFor(int(n))
	return out, nil
}

// Remaining reports whether any undecoded bytes remain in the body.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}
