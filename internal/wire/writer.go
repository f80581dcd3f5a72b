package wire

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// ancillaryFDBudget bounds how many FDs we batch into one sendmsg before
// flushing, well under the kernel's SCM_RIGHTS limit (253 on Linux).
const ancillaryFDBudget = 128

// Writer batches outgoing messages and flushes them with golang.org/x/sys/unix
// so that attached file descriptors ride along as SCM_RIGHTS ancillary data.
// Every outgoing message is framed [object_id:u32][size:u16][opcode:u16][body],
// with size patched in place once the body is complete. Errors are latched,
// not returned from every Put call, so a dispatch handler may emit several
// events without per-call error plumbing; the caller reads the latched error
// at Flush.
type Writer struct {
	fd      int
	buf     []byte
	fds     []int
	err     error
	msgAt   int // offset of the header currently being built, -1 when none
}

// NewWriter wraps a non-blocking stream socket fd for event output.
func NewWriter(fd int) *Writer {
	return &Writer{
		fd:    fd,
		buf:   make([]byte, 0, MaxMessageSize),
		msgAt: -1,
	}
}

// StartMessage latches the cursor for a new outgoing message and writes a
// header placeholder. Panics if a previous message was not closed with
// EndMessage — that would indicate a generator bug, not a runtime condition.
func (w *Writer) StartMessage(obj ObjectID, op Opcode) *Writer {
	if w.err != nil {
		return w
	}
	if w.msgAt != -1 {
		panic("wire: StartMessage called while a message is already open")
	}
	w.msgAt = len(w.buf)
	var hdr [HeaderSize]byte
	putHeader(hdr[:], Header{Object: obj, Opcode: op})
	w.buf = append(w.buf, hdr[:]...)
	return w
}

// PutInt32 appends a signed 32-bit argument.
func (w *Writer) PutInt32(v int32) *Writer {
	if w.err != nil {
		return w
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
	return w
}

// PutUint32 appends an unsigned 32-bit argument.
func (w *Writer) PutUint32(v uint32) *Writer {
	if w.err != nil {
		return w
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

// PutFixed appends a 24.8 fixed-point argument.
func (w *Writer) PutFixed(v Fixed) *Writer {
	return w.PutInt32(int32(v))
}

// PutObject appends an object-id argument (zero permitted for nullable refs).
func (w *Writer) PutObject(id ObjectID) *Writer {
	return w.PutUint32(uint32(id))
}

// PutNewID appends a server-minted new-id argument.
func (w *Writer) PutNewID(id ObjectID) *Writer {
	return w.PutUint32(uint32(id))
}

// PutString appends a length-prefixed, NUL-terminated, 4-byte-padded string.
func (w *Writer) PutString(s string) *Writer {
	if w.err != nil {
		return w
	}
	n := len(s) + 1 // include trailing NUL
	w.PutUint32(uint32(n))
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	for i := 0; i < paddingFor(n); i++ {
		w.buf = append(w.buf, 0)
	}
	return w
}

// PutArray appends a length-prefixed, 4-byte-padded opaque byte array.
func (w *Writer) PutArray(data []byte) *Writer {
	if w.err != nil {
		return w
	}
	w.PutUint32(uint32(len(data)))
	w.buf = append(w.buf, data...)
	for i := 0; i < paddingFor(len(data)); i++ {
		w.buf = append(w.buf, 0)
	}
	return w
}

// PutFD queues a file descriptor to accompany the next flush's sendmsg as
// SCM_RIGHTS ancillary data. FDs are not inline in the byte stream.
func (w *Writer) PutFD(fd int) *Writer {
	if w.err != nil {
		return w
	}
	w.fds = append(w.fds, fd)
	return w
}

// EndMessage patches the message's size field now that its body is complete,
// and flushes proactively if either buffering threshold (§4.1.3) is crossed.
func (w *Writer) EndMessage() error {
	if w.err != nil {
		return w.err
	}
	if w.msgAt == -1 {
		panic("wire: EndMessage called with no open message")
	}
	size := len(w.buf) - w.msgAt
	if size > MaxMessageSize {
		w.latch(ErrTooLarge)
		return w.err
	}
	binary.LittleEndian.PutUint16(w.buf[w.msgAt+4:w.msgAt+6], uint16(size))
	w.msgAt = -1
	if len(w.buf) > MaxMessageSize || len(w.fds) > ancillaryFDBudget {
		return w.Flush()
	}
	return w.err
}

func (w *Writer) latch(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Err returns the latched I/O error, if any, without clearing it.
func (w *Writer) Err() error {
	return w.err
}

// Flush issues one sendmsg carrying the buffered bytes and any queued FDs,
// using MSG_NOSIGNAL so a broken pipe surfaces as EPIPE rather than SIGPIPE.
// On success the buffer and FD queue are cleared; on failure the error is
// latched and every subsequent Put/Flush becomes a no-op until the caller
// observes and clears it by replacing the Writer (the connection is torn
// down symmetrically per spec).
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if len(w.buf) == 0 {
		return nil
	}
	var oob []byte
	if len(w.fds) > 0 {
		oob = unix.UnixRights(w.fds...)
	}
	if err := unix.Sendmsg(w.fd, w.buf, oob, nil, unix.MSG_NOSIGNAL); err != nil {
		w.latch(err)
		return err
	}
	w.buf = w.buf[:0]
	w.fds = w.fds[:0]
	return nil
}

// Pending reports whether any bytes are buffered and not yet flushed.
func (w *Writer) Pending() bool {
	return len(w.buf) > 0
}
