// Package renderersvc is a shell implementing the runner lifecycle for the
// rendering backend boundary: specified only by the messages it exchanges
// with the core (§1, §4.11). The rendering backend itself (DRM/KMS/GBM/
// Vulkan) is out of scope; this subsystem only speaks the comms vocabulary
// and, for development ergonomics, may latch a self-imposed display timeout
// that also routes through MainMessage.Shutdown (§5).
package renderersvc

import (
	"time"

	"github.com/bnema/lumalla/internal/comms"
	"github.com/bnema/lumalla/internal/fabric"
	"github.com/bnema/lumalla/internal/logging"
)

// Subsystem is the renderer thread's Runner.
type Subsystem struct {
	comms    comms.Comms
	receiver *fabric.Receiver[comms.RendererMessage]
	poller   *fabric.Poller
	// selfTimeout, when non-zero, bounds how long Run keeps going after it
	// starts before requesting shutdown; incoming messages do not extend the
	// deadline. Development ergonomics only, never enabled in a production run.
	selfTimeout time.Duration
}

// New constructs the renderer subsystem.
func New(c comms.Comms, receiver *fabric.Receiver[comms.RendererMessage], selfTimeout time.Duration) (*Subsystem, error) {
	p, err := fabric.NewPoller()
	if err != nil {
		return nil, err
	}
	if err := p.Add(receiver.WakeFD(), fabric.MessageChannelToken); err != nil {
		p.Close()
		return nil, err
	}
	return &Subsystem{comms: c, receiver: receiver, poller: p, selfTimeout: selfTimeout}, nil
}

// Run drains RendererMessages until shutdown. FileOpenedInSession entries
// are logged; a real renderer would hand the fd to its DRM/Vulkan backend.
func (s *Subsystem) Run() error {
	log := logging.For("renderer")
	defer s.poller.Close()

	deadline := time.Time{}
	if s.selfTimeout > 0 {
		deadline = time.Now().Add(s.selfTimeout)
	}

	for {
		timeoutMs := -1
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				log.Warn().Msg("renderer self-imposed timeout elapsed, requesting shutdown")
				_ = s.comms.Main.Send(comms.MainMessage{Shutdown: true})
				return nil
			}
			timeoutMs = int(remaining.Milliseconds())
		}

		tokens, err := s.poller.Wait(timeoutMs)
		if err != nil {
			return err
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
				switch {
				case msg.SeatSessionCreated != "":
					log.Info().Str("seat", msg.SeatSessionCreated).Msg("seat session created")
				case msg.SeatSessionPaused:
					log.Info().Msg("seat session paused")
				case msg.SeatSessionResumed:
					log.Info().Msg("seat session resumed")
				case msg.FileOpenedInSession != nil:
					log.Info().Str("path", msg.FileOpenedInSession.Path).Int("fd", msg.FileOpenedInSession.FD).Msg("device file opened in session")
				}
			}
		}
	}
}
