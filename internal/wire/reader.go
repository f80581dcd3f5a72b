package wire

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

// bufferSize accommodates the largest legal message plus a straddled
// remainder from the previous recvmsg call.
const bufferSize = 2 * (MaxMessageSize + 1)

// maxAncillaryFDs bounds how many FDs one recvmsg call may deliver; Linux
// caps SCM_RIGHTS at roughly this many descriptors per datagram/stream chunk.
const maxAncillaryFDs = 253

var fdSize = int(unsafe.Sizeof(int32(0)))

// ReadResult reports the outcome of one PollIn call.
type ReadResult int

const (
	// ReadData indicates new bytes (and possibly FDs) were appended to the buffer.
	ReadData ReadResult = iota
	// WouldBlock indicates no data was available (EAGAIN/EWOULDBLOCK).
	WouldBlock
	// Closed indicates the peer closed the connection, or a fatal I/O error occurred.
	Closed
)

// Reader owns the receive side of a client socket: a byte buffer sized for
// the largest legal message plus a straddled remainder, an ancillary-data
// buffer sized for a full FD batch, and a FIFO queue of FDs delivered ahead
// of the request that will consume them.
type Reader struct {
	fd     int
	buf    []byte // raw bytes, buf[:n] holds unconsumed data
	n      int
	off    int // cursor within buf[:n]; bytes_in_buffer (n) >= off always
	oobBuf []byte
	fdQueue []int
}

// NewReader wraps a non-blocking stream socket fd for request input.
func NewReader(fd int) *Reader {
	return &Reader{
		fd:     fd,
		buf:    make([]byte, bufferSize),
		oobBuf: make([]byte, unix.CmsgSpace(maxAncillaryFDs*fdSize)),
	}
}

// PollIn attempts one recvmsg into the remaining buffer tail, plus up to
// maxAncillaryFDs file descriptors in ancillary data.
func (r *Reader) PollIn() ReadResult {
	if r.n == len(r.buf) {
		// Buffer is completely full of an unconsumed remainder with no room
		// for more; the caller must drain via Next before polling again.
		return WouldBlock
	}
	n, oobn, _, _, err := unix.Recvmsg(r.fd, r.buf[r.n:], r.oobBuf, 0)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return WouldBlock
		}
		return Closed
	}
	if n == 0 {
		return Closed
	}
	if oobn > 0 {
		fds, ferr := parseFileDescriptors(r.oobBuf[:oobn])
		if ferr == nil {
			r.fdQueue = append(r.fdQueue, fds...)
		}
	}
	r.n += n
	return ReadData
}

// Next returns the next complete message buffered, if any. It does not
// advance the cursor; callers call MessageHandled once the message (and any
// FDs it consumed) has been dispatched.
func (r *Reader) Next() (Header, []byte, error) {
	avail := r.n - r.off
	if avail < HeaderSize {
		return Header{}, nil, nil // not enough buffered yet; not an error
	}
	hdr, err := PeekHeader(r.buf[r.off : r.off+HeaderSize])
	if err != nil {
		return Header{}, nil, err
	}
	if int(hdr.Size) < HeaderSize {
		return Header{}, nil, ErrShortHeader
	}
	if avail < int(hdr.Size) {
		return Header{}, nil, nil // full message not yet buffered
	}
	body := r.buf[r.off+HeaderSize : r.off+int(hdr.Size)]
	return hdr, body, nil
}

// MessageHandled advances the cursor past a message of n bytes (including
// its header). It resets to the buffer origin when fully drained, and
// compacts the remainder to the front once fewer than MaxMessageSize bytes
// of free space remain, so the next PollIn always has room for a full message.
func (r *Reader) MessageHandled(n int) {
	r.off += n
	if r.off == r.n {
		r.off = 0
		r.n = 0
		return
	}
	if len(r.buf)-r.n < MaxMessageSize+1 {
		r.compact()
	}
}

func (r *Reader) compact() {
	copy(r.buf, r.buf[r.off:r.n])
	r.n -= r.off
	r.off = 0
}

// TakeFDs removes and returns the first k queued FDs, in delivery order. If
// fewer than k are queued, the shortfall is filled with -1 (an invalid fd),
// matching the native protocol's tolerance for under-supplied FD arguments.
func (r *Reader) TakeFDs(k int) []int {
	out := make([]int, k)
	for i := 0; i < k; i++ {
		if len(r.fdQueue) == 0 {
			out[i] = -1
			continue
		}
		out[i] = r.fdQueue[0]
		r.fdQueue = r.fdQueue[1:]
	}
	return out
}

// parseFileDescriptors extracts the FDs carried in a SCM_RIGHTS ancillary
// message, if any.
func parseFileDescriptors(oob []byte) ([]int, error) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, err
	}
	var fds []int
	for _, msg := range msgs {
		parsed, err := unix.ParseUnixRights(&msg)
		if err != nil {
			continue
		}
		fds = append(fds, parsed...)
	}
	return fds, nil
}
