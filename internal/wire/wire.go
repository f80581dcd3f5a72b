// Package wire implements the Wayland binary wire protocol: message framing,
// scalar argument encoding, and the out-of-band file descriptor channel that
// rides alongside the byte stream via SCM_RIGHTS.
//
// Every message on the wire is a fixed 8-byte header followed by a body:
//
//	[object_id:u32][size:u16][opcode:u16][body...]
//
// size counts the whole message, header included. Strings and arrays are
// length-prefixed and padded to a 4-byte boundary; fixed-point values are
// 24.8 signed integers (scale 256).
package wire

import (
	"encoding/binary"
	"errors"
)

// ObjectID identifies a live protocol object within one client's namespace.
// Zero is never a valid object id.
type ObjectID uint32

// Opcode identifies a request or event within an interface.
type Opcode uint16

// HeaderSize is the fixed length of the wire header in bytes.
const HeaderSize = 8

// MaxMessageSize is the largest legal message, including its header.
const MaxMessageSize = 1<<16 - 1 // u16::MAX

// Fixed is a Wayland 24.8 fixed-point value: 1.0 is represented as 256.
type Fixed int32

// FixedFromFloat converts a float64 to the nearest Fixed value.
func FixedFromFloat(v float64) Fixed {
	return Fixed(int32(v*256 + signOf(v)*0.5))
}

func signOf(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Float returns the floating-point value represented by f.
func (f Fixed) Float() float64 {
	return float64(f) / 256
}

// FixedFromInt converts an integer to its exact Fixed representation.
func FixedFromInt(v int32) Fixed {
	return Fixed(v * 256)
}

// Int truncates f to its integer part.
func (f Fixed) Int() int32 {
	return int32(f) / 256
}

var (
	// ErrShortHeader is returned by PeekHeader when fewer than HeaderSize
	// bytes are given, and by Reader.Next when a header's size field is
	// smaller than HeaderSize.
	ErrShortHeader = errors.New("wire: short header")
	// ErrInvalidObject is returned when a message's object-id field is zero.
	ErrInvalidObject = errors.New("wire: invalid object id")
	// ErrIncomplete names a message whose framed size exceeds the buffered
	// bytes. Reader.Next does not return it; it reports that case with a nil
	// body and a nil error.
	ErrIncomplete = errors.New("wire: incomplete message")
	// ErrTooLarge is returned when a caller attempts to build a message over MaxMessageSize.
	ErrTooLarge = errors.New("wire: message exceeds maximum size")
)

// Header is the decoded form of a message's fixed 8-byte prefix.
type Header struct {
	Object ObjectID
	Size   uint16
	Opcode Opcode
}

// DecodeHeader reads a Header from the front of buf. buf must have at least
// HeaderSize bytes; callers check length themselves via PeekHeader/Reader.
func DecodeHeader(buf []byte) Header {
	return Header{
		Object: ObjectID(binary.LittleEndian.Uint32(buf[0:4])),
		Size:   binary.LittleEndian.Uint16(buf[4:6]),
		Opcode: Opcode(binary.LittleEndian.Uint16(buf[6:8])),
	}
}

// PeekHeader decodes the header at the front of buf, failing if buf is too
// short to contain one, or if the object id is zero.
func PeekHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	h := DecodeHeader(buf)
	if h.Object == 0 {
		return Header{}, ErrInvalidObject
	}
	return h, nil
}

// putHeader writes h into the first HeaderSize bytes of buf.
func putHeader(buf []byte, h Header) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Object))
	binary.LittleEndian.PutUint16(buf[4:6], h.Size)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.Opcode))
}

// paddingFor returns the number of zero bytes needed to round length up to
// the next multiple of 4.
func paddingFor(length int) int {
	return (4 - (length % 4)) % 4
}
