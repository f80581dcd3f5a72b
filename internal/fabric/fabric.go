// Package fabric is the thread fabric connecting subsystems: a typed
// message channel whose send side wakes the receiving subsystem's
// readiness-based poller via a reserved token, and the MessageRunner
// lifecycle every subsystem implements (§4.9).
package fabric

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MessageChannelToken is the reserved epoll user-data value a subsystem's
// poller uses to recognize "a message arrived on my channel" readiness,
// distinct from any I/O-source token the subsystem also polls.
const MessageChannelToken uint64 = 0

// Sender[T] pairs a buffered Go channel with the eventfd that wakes the
// receiving subsystem's poller. Send enqueues then writes 1 to the eventfd;
// the receiver's poll loop sees MessageChannelToken become readable and
// drains the channel with TryRecv until it is empty.
type Sender[T any] struct {
	ch     chan T
	wakeFD int
}

// NewChannel constructs a Sender/Receiver pair backed by a channel of
// the given capacity and an eventfd used as the wakeup token.
func NewChannel[T any](capacity int) (*Sender[T], *Receiver[T], error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK)
	if err != nil {
		return nil, nil, fmt.Errorf("fabric: eventfd: %w", err)
	}
	ch := make(chan T, capacity)
	return &Sender[T]{ch: ch, wakeFD: fd}, &Receiver[T]{ch: ch, wakeFD: fd}, nil
}

// Send enqueues msg and wakes the receiving loop. Send never blocks past the
// channel's buffer capacity plus the time to write 8 bytes to the eventfd;
// a full channel blocks the sender, matching the bounded-channel backpressure
// model of §5.
func (s *Sender[T]) Send(msg T) error {
	s.ch <- msg
	var buf [8]byte
	buf[0] = 1
	_, err := unix.Write(s.wakeFD, buf[:])
	if err != nil && err != unix.EAGAIN {
		return fmt.Errorf("fabric: wake: %w", err)
	}
	return nil
}

// Receiver is the read side of a channel created by NewChannel.
type Receiver[T any] struct {
	ch     chan T
	wakeFD int
}

// WakeFD returns the eventfd to register with the subsystem's poller under
// MessageChannelToken.
func (r *Receiver[T]) WakeFD() int {
	return r.wakeFD
}

// DrainWake clears the eventfd's readiness after a wakeup has been observed.
func (r *Receiver[T]) DrainWake() {
	var buf [8]byte
	unix.Read(r.wakeFD, buf[:])
}

// TryRecv returns the next queued message without blocking, and whether one
// was available.
func (r *Receiver[T]) TryRecv() (T, bool) {
	select {
	case m := <-r.ch:
		return m, true
	default:
		var zero T
		return zero, false
	}
}

// Runner is the lifecycle every subsystem thread implements: Run drives the
// subsystem's own poll loop until it observes a shutdown message or a fatal
// error, and returns when the loop exits. Corresponds to spec.md's
// MessageRunner trait (new(comms, poller, channel, args) -> Self,
// run(&mut self) -> Result<()>); Go expresses "new" as a plain constructor
// function per subsystem and "run" as this method.
type Runner interface {
	Run() error
}
