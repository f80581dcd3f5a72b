package wire

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func socketpair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("SetNonblock: %v", err)
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		t.Fatalf("SetNonblock: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestWriterFlushReaderNext(t *testing.T) {
	a, b := socketpair(t)
	w := NewWriter(a)
	w.StartMessage(1, 2)
	w.PutUint32(99)
	if err := w.EndMessage(); err != nil {
		t.Fatalf("EndMessage: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := NewReader(b)
	if res := r.PollIn(); res != ReadData {
		t.Fatalf("PollIn = %v, want ReadData", res)
	}
	hdr, body, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if hdr.Object != 1 || hdr.Opcode != 2 {
		t.Errorf("header = %+v, want object 1 opcode 2", hdr)
	}
	d := NewDecoder(body)
	if v, err := d.Uint32(); err != nil || v != 99 {
		t.Errorf("Uint32 = %d, %v, want 99", v, err)
	}
	r.MessageHandled(int(hdr.Size))
}

func TestWriterFDPassing(t *testing.T) {
	a, b := socketpair(t)
	tmp, err := os.CreateTemp(t.TempDir(), "wire-fd-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer tmp.Close()

	w := NewWriter(a)
	w.StartMessage(1, 0)
	w.PutFD(int(tmp.Fd()))
	if err := w.EndMessage(); err != nil {
		t.Fatalf("EndMessage: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := NewReader(b)
	if res := r.PollIn(); res != ReadData {
		t.Fatalf("PollIn = %v, want ReadData", res)
	}
	hdr, _, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	fds := r.TakeFDs(1)
	if len(fds) != 1 || fds[0] < 0 {
		t.Fatalf("TakeFDs = %v, want one valid fd", fds)
	}
	unix.Close(fds[0])
	r.MessageHandled(int(hdr.Size))
}

func TestReaderStraddledMessage(t *testing.T) {
	a, b := socketpair(t)
	w := NewWriter(a)
	w.StartMessage(1, 0)
	w.PutString("a reasonably long string argument to pad the frame out")
	if err := w.EndMessage(); err != nil {
		t.Fatalf("EndMessage: %v", err)
	}

	// Write the frame in two halves to force the reader to see a partial
	// header-plus-body on its first PollIn.
	half := len(w.buf) / 2
	if err := unix.Send(a, w.buf[:half], unix.MSG_NOSIGNAL); err != nil {
		t.Fatalf("Send first half: %v", err)
	}

	r := NewReader(b)
	if res := r.PollIn(); res != ReadData {
		t.Fatalf("PollIn (first half) = %v", res)
	}
	if _, _, err := r.Next(); err != nil {
		t.Fatalf("Next on partial message: %v", err)
	}

	if err := unix.Send(a, w.buf[half:], unix.MSG_NOSIGNAL); err != nil {
		t.Fatalf("Send second half: %v", err)
	}
	if res := r.PollIn(); res != ReadData {
		t.Fatalf("PollIn (second half) = %v", res)
	}
	hdr, body, err := r.Next()
	if err != nil || hdr.Object != 1 {
		t.Fatalf("Next after full frame buffered: hdr=%+v err=%v", hdr, err)
	}
	d := NewDecoder(body)
	s, err := d.String()
	if err != nil || s != "a reasonably long string argument to pad the frame out" {
		t.Errorf("String = %q, %v", s, err)
	}
}
