package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/lumalla/internal/comms"
)

// fakeRunner is a minimal fabric.Runner stub: it blocks on done, then
// returns err (or panics, if panicMsg is set).
type fakeRunner struct {
	done     chan struct{}
	err      error
	panicMsg string
}

func (f *fakeRunner) Run() error {
	<-f.done
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.err
}

// blockingRunner never returns until the process exits the test; used to
// exercise the shutdown-grace timeout path.
type blockingRunner struct {
	started chan struct{}
}

func (b *blockingRunner) Run() error {
	close(b.started)
	select {}
}

func TestRunReturnsZeroOnExplicitShutdown(t *testing.T) {
	c, r, err := comms.New()
	if err != nil {
		t.Fatalf("comms.New: %v", err)
	}

	display := &fakeRunner{done: make(chan struct{})}
	close(display.done)

	subs := Subsystems{Display: display}

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = c.Main.Send(comms.MainMessage{Shutdown: true})
	}()

	code := Run(context.Background(), c, r.Main, subs)
	if code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
}

func TestRunTreatsSubsystemPanicAsShutdownRequest(t *testing.T) {
	c, r, err := comms.New()
	if err != nil {
		t.Fatalf("comms.New: %v", err)
	}

	panicking := &fakeRunner{done: make(chan struct{}), panicMsg: "boom"}
	close(panicking.done)

	subs := Subsystems{Display: panicking}

	code := Run(context.Background(), c, r.Main, subs)
	if code != 0 {
		t.Errorf("Run() = %d, want 0 (panic is converted to a clean shutdown, not a crash exit)", code)
	}
}

func TestRunTreatsSubsystemErrorAsShutdownRequest(t *testing.T) {
	c, r, err := comms.New()
	if err != nil {
		t.Fatalf("comms.New: %v", err)
	}

	failing := &fakeRunner{done: make(chan struct{}), err: errors.New("lost connection")}
	close(failing.done)

	subs := Subsystems{Renderer: failing}

	code := Run(context.Background(), c, r.Main, subs)
	if code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
}

func TestRunHonorsShutdownGraceWhenASubsystemHangs(t *testing.T) {
	c, r, err := comms.New()
	if err != nil {
		t.Fatalf("comms.New: %v", err)
	}

	hung := &blockingRunner{started: make(chan struct{})}
	subs := Subsystems{Input: hung}

	go func() {
		<-hung.started
		_ = c.Main.Send(comms.MainMessage{Shutdown: true})
	}()

	start := time.Now()
	code := Run(context.Background(), c, r.Main, subs)
	elapsed := time.Since(start)

	if code != 0 {
		t.Errorf("Run() = %d, want 0 even when a subsystem fails to exit in time", code)
	}
	if elapsed < shutdownGrace {
		t.Errorf("Run returned after %v, want at least the %v shutdown grace", elapsed, shutdownGrace)
	}
	if elapsed > shutdownGrace+500*time.Millisecond {
		t.Errorf("Run took %v, want close to the %v shutdown grace", elapsed, shutdownGrace)
	}
}
