package seatsvc

import (
	"path/filepath"
	"testing"
)

// OpenDevice's handle allocation is exercised without a live system bus
// connection (none is available in a sandboxed test run). The device lookup
// fails here for a path that does not exist, before any D-Bus call, but
// handle allocation runs before it.
func TestOpenDeviceAllocatesMonotonicHandles(t *testing.T) {
	s := &Subsystem{session: nil}
	missing := filepath.Join(t.TempDir(), "no-such-device")
	if _, err := s.OpenDevice(missing); err == nil {
		t.Fatal("OpenDevice on a missing path should fail")
	}
	h1 := s.devSeq
	if _, err := s.OpenDevice(missing); err == nil {
		t.Fatal("OpenDevice on a missing path should fail")
	}
	h2 := s.devSeq
	if h2 <= h1 {
		t.Errorf("handle sequence not monotonic: %d then %d", h1, h2)
	}
}

func TestOnSessionSignalBuffersPending(t *testing.T) {
	s := &Subsystem{}
	s.onSessionSignal(true)
	s.onSessionSignal(false)
	if len(s.pending) != 2 {
		t.Fatalf("pending length = %d, want 2", len(s.pending))
	}
	if !s.pending[0].enabled || s.pending[1].enabled {
		t.Errorf("pending events = %+v", s.pending)
	}
}
