// Package display is the display thread: it owns the listening socket,
// every client connection's wire codec and object registry, the shared
// shm/surface/global state, and the per-opcode protocol dispatch table
// (§4.5, §4.9).
package display

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/bnema/lumalla/internal/comms"
	"github.com/bnema/lumalla/internal/diagnostics"
	"github.com/bnema/lumalla/internal/fabric"
	"github.com/bnema/lumalla/internal/globals"
	"github.com/bnema/lumalla/internal/listener"
	"github.com/bnema/lumalla/internal/logging"
	"github.com/bnema/lumalla/internal/seatcat"
	"github.com/bnema/lumalla/internal/shm"
	"github.com/bnema/lumalla/internal/surfmgr"
	"github.com/bnema/lumalla/internal/wire"
	"github.com/bnema/lumalla/internal/wlproto"
)

// Subsystem is the display thread's Runner.
type Subsystem struct {
	comms    comms.Comms
	receiver *fabric.Receiver[comms.DisplayMessage]
	poller   *fabric.Poller
	listener *listener.Listener

	clients  map[int]*connection
	shm      *shm.Manager
	surfaces *surfmgr.Manager
	catalog  *globals.Catalog
	seats    *seatcat.Manager
}

// New constructs the display subsystem, registering the listening socket's
// fd and the comms wakeup fd with a fresh poller, and seeding the global
// catalog with the globals this core always advertises.
func New(c comms.Comms, receiver *fabric.Receiver[comms.DisplayMessage], l *listener.Listener) (*Subsystem, error) {
	p, err := fabric.NewPoller()
	if err != nil {
		return nil, err
	}
	if err := p.Add(l.FD(), uint64(l.FD())); err != nil {
		p.Close()
		return nil, err
	}
	if err := p.Add(receiver.WakeFD(), fabric.MessageChannelToken); err != nil {
		p.Close()
		return nil, err
	}

	s := &Subsystem{
		comms:    c,
		receiver: receiver,
		poller:   p,
		listener: l,
		clients:  make(map[int]*connection),
		shm:      shm.NewManager(),
		surfaces: surfmgr.NewManager(),
		catalog:  globals.NewCatalog(),
		seats:    seatcat.NewManager(),
	}
	s.catalog.Add(wlproto.InterfaceCompositor)
	s.catalog.Add(wlproto.InterfaceShm)
	return s, nil
}

// Run drives the display thread's poll loop until a Shutdown message arrives
// or the poller fails.
func (s *Subsystem) Run() error {
	log := logging.For("display")
	defer s.poller.Close()
	defer s.listener.Close()

	for {
		tokens, err := s.poller.Wait(1000)
		if err != nil {
			return err
		}
		for _, tok := range tokens {
			switch {
			case tok == fabric.MessageChannelToken:
				if s.handleComms(log) {
					return nil
				}
			case int(tok) == s.listener.FD():
				s.acceptClients(log)
			default:
				if conn, ok := s.clients[int(tok)]; ok {
					s.serviceClient(conn)
				}
			}
		}
	}
}

// handleComms drains queued DisplayMessages, returning true if a Shutdown
// was observed.
func (s *Subsystem) handleComms(log zerolog.Logger) bool {
	s.receiver.DrainWake()
	for {
		msg, ok := s.receiver.TryRecv()
		if !ok {
			return false
		}
		if msg.Shutdown {
			return true
		}
		switch {
		case msg.ActivateSeat != "":
			s.activateSeat(msg.ActivateSeat)
		case msg.ToggleDebugUI:
			snap, err := diagnostics.Capture(len(s.clients))
			if err != nil {
				log.Warn().Err(err).Msg("diagnostics capture failed")
				continue
			}
			log.Info().
				Uint64("rss_bytes", snap.RSSBytes).
				Float64("cpu_percent", snap.CPUPercent).
				Msg("debug ui snapshot")
		default:
			log.Debug().Msg("display message variant has no display-thread effect")
		}
	}
}

// activateSeat registers a new wl_seat global the first time a seat name is
// seen, and broadcasts it to every live registry.
func (s *Subsystem) activateSeat(name string) {
	if !s.seats.AddSeat(name) {
		return
	}
	g := s.catalog.Add(wlproto.InterfaceSeat)
	s.seats.NameForGlobal(g.Name, name)
	s.broadcastGlobal(g)
}

// broadcastGlobal sends global(name, interface, version) to every registry
// object every connected client currently holds.
func (s *Subsystem) broadcastGlobal(g globals.Global) {
	for _, conn := range s.clients {
		for _, regID := range conn.registries {
			_ = wlproto.EmitRegistryGlobal(conn.writer, regID, g.Name, g.Interface.Name(), g.Interface.Version())
		}
		_ = conn.writer.Flush()
	}
}

// acceptClients drains every pending connection on the listening socket.
func (s *Subsystem) acceptClients(log zerolog.Logger) {
	for {
		accepted, ok, err := s.listener.NextClient()
		if err != nil {
			log.Error().Err(err).Msg("accept failed")
			return
		}
		if !ok {
			return
		}
		conn := newConnection(accepted.ClientID, accepted.FD)
		if err := s.poller.Add(conn.fd, uint64(conn.fd)); err != nil {
			log.Error().Err(err).Msg("failed to register client fd with poller")
			_ = conn.close()
			continue
		}
		s.clients[conn.fd] = conn
		log.Info().Uint64("client_id", uint64(accepted.ClientID)).Msg("client connected")
	}
}

// serviceClient drains readable bytes from one client, dispatching every
// complete message, then flushes any events produced in response.
func (s *Subsystem) serviceClient(conn *connection) {
	for {
		res := conn.reader.PollIn()
		if res == wire.Closed {
			s.removeClient(conn)
			return
		}
		if res == wire.WouldBlock {
			break
		}
		for {
			hdr, body, err := conn.reader.Next()
			if err != nil {
				code := wlproto.DisplayErrorInvalidMethod
				if errors.Is(err, wire.ErrInvalidObject) {
					code = wlproto.DisplayErrorInvalidObject
				}
				s.fatal(conn, hdr.Object, code, err.Error())
				_ = conn.writer.Flush()
				s.removeClient(conn)
				return
			}
			if body == nil {
				break
			}
			consumed := wire.HeaderSize + len(body)
			if dispatchErr := s.dispatch(conn, hdr, body); dispatchErr != nil {
				_ = conn.writer.Flush()
				s.removeClient(conn)
				return
			}
			conn.reader.MessageHandled(consumed)
		}
	}
	_ = conn.writer.Flush()
}

func (s *Subsystem) removeClient(conn *connection) {
	_ = s.poller.Remove(conn.fd)
	delete(s.clients, conn.fd)
	s.shm.DestroyClient(uint64(conn.id))
	s.surfaces.DestroyClient(uint64(conn.id))
	_ = conn.close()
}
