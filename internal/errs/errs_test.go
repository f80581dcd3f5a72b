package errs

import (
	"errors"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	underlying := errors.New("boom")
	e := Wrap(KindFatalClientIO, "client write failed", underlying)
	if !errors.Is(e, underlying) {
		t.Error("errors.Is should see through Wrap to the underlying error")
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if Wrap(KindFatalClientIO, "msg", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestHandleReturnExitCodes(t *testing.T) {
	if got := HandleReturn(nil); got != 0 {
		t.Errorf("HandleReturn(nil) = %d, want 0", got)
	}
	if got := HandleReturn(New(KindFatalStartup, "bind failed")); got != 1 {
		t.Errorf("HandleReturn(fatal startup) = %d, want 1", got)
	}
	if got := HandleReturn(New(KindFatalClientIO, "client gone")); got != 0 {
		t.Errorf("HandleReturn(client io) = %d, want 0 (process keeps running)", got)
	}
}
