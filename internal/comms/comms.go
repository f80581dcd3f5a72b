package comms

import "github.com/bnema/lumalla/internal/fabric"

// channelCapacity bounds each subsystem's inbox; a full channel applies
// backpressure to the sender per §5.
const channelCapacity = 64

// Comms is the cloneable bundle of six senders every subsystem holds a copy
// of. The tax on a lost peer is uniform: an unreachable main thread is
// unrecoverable (abort); an unreachable peer elsewhere is logged and
// answered by sending MainMessage{Shutdown: true} so the process exits in a
// controlled way (§4.10).
type Comms struct {
	Main     *fabric.Sender[MainMessage]
	Display  *fabric.Sender[DisplayMessage]
	Renderer *fabric.Sender[RendererMessage]
	Input    *fabric.Sender[InputMessage]
	Config   *fabric.Sender[ConfigMessage]
	Seat     *fabric.Sender[SeatMessage]
}

// Receivers is the matching bundle of receive sides, each owned by exactly
// one subsystem thread.
type Receivers struct {
	Main     *fabric.Receiver[MainMessage]
	Display  *fabric.Receiver[DisplayMessage]
	Renderer *fabric.Receiver[RendererMessage]
	Input    *fabric.Receiver[InputMessage]
	Config   *fabric.Receiver[ConfigMessage]
	Seat     *fabric.Receiver[SeatMessage]
}

// New constructs a fully wired Comms/Receivers pair: one channel per
// subsystem, every sender sharing the same Comms value.
func New() (Comms, Receivers, error) {
	mainS, mainR, err := fabric.NewChannel[MainMessage](channelCapacity)
	if err != nil {
		return Comms{}, Receivers{}, err
	}
	displayS, displayR, err := fabric.NewChannel[DisplayMessage](channelCapacity)
	if err != nil {
		return Comms{}, Receivers{}, err
	}
	rendererS, rendererR, err := fabric.NewChannel[RendererMessage](channelCapacity)
	if err != nil {
		return Comms{}, Receivers{}, err
	}
	inputS, inputR, err := fabric.NewChannel[InputMessage](channelCapacity)
	if err != nil {
		return Comms{}, Receivers{}, err
	}
	configS, configR, err := fabric.NewChannel[ConfigMessage](channelCapacity)
	if err != nil {
		return Comms{}, Receivers{}, err
	}
	seatS, seatR, err := fabric.NewChannel[SeatMessage](channelCapacity)
	if err != nil {
		return Comms{}, Receivers{}, err
	}

	c := Comms{Main: mainS, Display: displayS, Renderer: rendererS, Input: inputS, Config: configS, Seat: seatS}
	r := Receivers{Main: mainR, Display: displayR, Renderer: rendererR, Input: inputR, Config: configR, Seat: seatR}
	return c, r, nil
}

// NotifyPeerLost implements the uniform lost-peer policy: log (via the
// caller-supplied logf) and, unless the lost peer *is* main, ask main to
// shut everything down.
func (c Comms) NotifyPeerLost(peerName string, logf func(string, ...any)) {
	logf("comms: peer %s unreachable, requesting shutdown", peerName)
	if peerName == "main" {
		panic("comms: main thread unreachable, aborting")
	}
	_ = c.Main.Send(MainMessage{Shutdown: true})
}
