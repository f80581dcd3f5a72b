// Package inputsvc is a shell implementing the runner lifecycle for the
// input backend boundary (libinput/evdev equivalent): specified only by the
// messages it exchanges with the core (§1, §4.11). Keymap bindings are held
// in a lookup table so a later libinput-backed implementation has somewhere
// to route matched key events; device enumeration itself is out of scope.
package inputsvc

import (
	"github.com/bnema/lumalla/internal/comms"
	"github.com/bnema/lumalla/internal/fabric"
	"github.com/bnema/lumalla/internal/logging"
)

// bindingKey identifies a keymap binding by key name and modifier bitmask.
type bindingKey struct {
	keyName   string
	modifiers uint32
}

// Subsystem is the input thread's Runner.
type Subsystem struct {
	comms    comms.Comms
	receiver *fabric.Receiver[comms.InputMessage]
	poller   *fabric.Poller
	bindings map[bindingKey]uint64
}

// New constructs the input subsystem.
func New(c comms.Comms, receiver *fabric.Receiver[comms.InputMessage]) (*Subsystem, error) {
	p, err := fabric.NewPoller()
	if err != nil {
		return nil, err
	}
	if err := p.Add(receiver.WakeFD(), fabric.MessageChannelToken); err != nil {
		p.Close()
		return nil, err
	}
	return &Subsystem{
		comms:    c,
		receiver: receiver,
		poller:   p,
		bindings: make(map[bindingKey]uint64),
	}, nil
}

// CallbackFor returns the CallbackRef bound to keyName+modifiers, if any.
func (s *Subsystem) CallbackFor(keyName string, modifiers uint32) (uint64, bool) {
	ref, ok := s.bindings[bindingKey{keyName: keyName, modifiers: modifiers}]
	return ref, ok
}

// Run drains InputMessages until shutdown, maintaining the keymap table.
func (s *Subsystem) Run() error {
	log := logging.For("input")
	defer s.poller.Close()

	for {
		tokens, err := s.poller.Wait(1000)
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
				if msg.Keymap != nil {
					k := bindingKey{keyName: msg.Keymap.KeyName, modifiers: msg.Keymap.Modifiers}
					s.bindings[k] = msg.Keymap.Callback
					log.Debug().Str("key", msg.Keymap.KeyName).Uint32("mods", msg.Keymap.Modifiers).Msg("keymap binding updated")
				}
			}
		}
	}
}
