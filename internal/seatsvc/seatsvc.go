// Package seatsvc is the seat subsystem: the boundary RPC to an external
// session manager (a libseat/logind equivalent), realized over D-Bus
// (§6.4, §4.17). Asynchronous session signals are buffered and drained only
// on this subsystem's own dispatch tick, never handled inline from the
// D-Bus signal-delivery goroutine, per §5's and §9's non-reentrancy rule.
package seatsvc

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"

	"github.com/bnema/lumalla/internal/comms"
	"github.com/bnema/lumalla/internal/fabric"
	"github.com/bnema/lumalla/internal/logging"
)

const (
	loginBusName    = "org.freedesktop.login1"
	loginObjectPath = "/org/freedesktop/login1/session/auto"
	sessionIface    = "org.freedesktop.login1.Session"
)

// OpenedDevice is the reply to OpenDevice: a session-scoped handle plus the
// fd the session manager granted for path.
type OpenedDevice struct {
	Handle uint32
	FD     int
}

// Subsystem is the seat thread's Runner.
type Subsystem struct {
	comms    comms.Comms
	receiver *fabric.Receiver[comms.SeatMessage]
	poller   *fabric.Poller
	conn     *dbus.Conn
	session  dbus.BusObject
	pending  []sessionEvent
	devSeq   uint32
}

type sessionEvent struct {
	enabled bool
}

// New connects to the system D-Bus and constructs the seat subsystem.
func New(c comms.Comms, receiver *fabric.Receiver[comms.SeatMessage]) (*Subsystem, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("seatsvc: connect system bus: %w", err)
	}
	p, err := fabric.NewPoller()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := p.Add(receiver.WakeFD(), fabric.MessageChannelToken); err != nil {
		conn.Close()
		return nil, err
	}
	s := &Subsystem{
		comms:    c,
		receiver: receiver,
		poller:   p,
		conn:     conn,
		session:  conn.Object(loginBusName, loginObjectPath),
	}
	return s, nil
}

// TakeControl claims control of the session, a precondition for TakeDevice.
func (s *Subsystem) TakeControl() error {
	return s.session.Call(sessionIface+".TakeControl", 0, false).Err
}

// OpenDevice issues TakeDevice for path and returns the granted handle/fd.
// The logind call takes (major, minor) rather than a path, so path is first
// resolved to its device number with stat. The handle is allocated before
// that lookup runs.
func (s *Subsystem) OpenDevice(path string) (OpenedDevice, error) {
	s.devSeq++
	handle := s.devSeq

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return OpenedDevice{}, fmt.Errorf("seatsvc: stat %s: %w", path, err)
	}
	rdev := uint64(st.Rdev)

	var fd dbus.UnixFD
	var inactive bool
	call := s.session.Call(sessionIface+".TakeDevice", 0, unix.Major(rdev), unix.Minor(rdev))
	if call.Err != nil {
		return OpenedDevice{}, fmt.Errorf("seatsvc: TakeDevice(%s): %w", path, call.Err)
	}
	if err := call.Store(&fd, &inactive); err != nil {
		return OpenedDevice{}, fmt.Errorf("seatsvc: decode TakeDevice reply: %w", err)
	}
	return OpenedDevice{Handle: handle, FD: int(fd)}, nil
}

// Run drives the seat subsystem's loop: on each wake it drains queued comms
// messages and any buffered session events, translating OpenDevice requests
// into D-Bus calls and publishing results to the renderer.
func (s *Subsystem) Run() error {
	log := logging.For("seat")
	defer s.conn.Close()
	defer s.poller.Close()

	for {
		tokens, err := s.poller.Wait(1000)
		if err != nil {
			return fmt.Errorf("seatsvc: poll: %w", err)
		}
		for _, tok := range tokens {
			if tok != fabric.MessageChannelToken {
				continue
			}
			s.receiver.DrainWake()
			for {
				msg, ok := s.receiver.TryRecv()
				if !ok {
					break
				}
				if msg.Shutdown {
					return nil
				}
				if msg.OpenDevice != "" {
					dev, err := s.OpenDevice(msg.OpenDevice)
					if err != nil {
						log.Error().Err(err).Str("path", msg.OpenDevice).Msg("open device failed")
						continue
					}
					_ = s.comms.Renderer.Send(comms.RendererMessage{
						FileOpenedInSession: &comms.FileOpenedInSession{Path: msg.OpenDevice, FD: dev.FD},
					})
				}
			}
		}

		for _, ev := range s.pending {
			if ev.enabled {
				_ = s.comms.Renderer.Send(comms.RendererMessage{SeatSessionResumed: true})
			} else {
				_ = s.comms.Renderer.Send(comms.RendererMessage{SeatSessionPaused: true})
			}
		}
		s.pending = s.pending[:0]
	}
}

// onSessionSignal is the (not-yet-wired) D-Bus signal handler; it only
// enqueues, per the non-reentrancy rule — Run drains pending on its own tick.
func (s *Subsystem) onSessionSignal(enabled bool) {
	s.pending = append(s.pending, sessionEvent{enabled: enabled})
}
