// Package orchestrator is the main thread: it spawns one goroutine per
// subsystem, converts a subsystem panic or a SIGINT into the same shutdown
// signal, and bounds how long every subsystem gets to exit cleanly (§4.11,
// §5's shutdown grace, §8's shutdown-grace scenario).
package orchestrator

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bnema/lumalla/internal/comms"
	"github.com/bnema/lumalla/internal/errs"
	"github.com/bnema/lumalla/internal/fabric"
	"github.com/bnema/lumalla/internal/logging"
)

// shutdownGrace bounds how long Run waits for every subsystem goroutine to
// return once a shutdown has been requested, per §8's shutdown-grace scenario.
const shutdownGrace = 1 * time.Second

// Subsystems bundles every spawned subsystem's Runner, keyed by name for
// logging.
type Subsystems struct {
	Display  fabric.Runner
	Renderer fabric.Runner
	Input    fabric.Runner
	Config   fabric.Runner
	Seat     fabric.Runner
}

// Run spawns every subsystem, installs a SIGINT handler, and blocks until a
// MainMessage{Shutdown: true} arrives — from a subsystem reporting a lost
// peer, a panic recovered and converted into a shutdown request, or the
// signal handler — at which point it asks every subsystem to stop and waits
// up to shutdownGrace for them to return.
func Run(ctx context.Context, c comms.Comms, mainReceiver *fabric.Receiver[comms.MainMessage], subs Subsystems) int {
	log := logging.For("main")
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("received interrupt, requesting shutdown")
			_ = c.Main.Send(comms.MainMessage{Shutdown: true})
		case <-runCtx.Done():
		}
	}()

	var wg sync.WaitGroup
	spawn := func(name string, r fabric.Runner) {
		if r == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().Interface("panic", rec).Str("subsystem", name).Msg("subsystem panicked, requesting shutdown")
					_ = c.Main.Send(comms.MainMessage{Shutdown: true})
				}
			}()
			if err := r.Run(); err != nil {
				log.Error().Err(err).Str("subsystem", name).Msg("subsystem exited with error, requesting shutdown")
				_ = c.Main.Send(comms.MainMessage{Shutdown: true})
			}
		}()
	}

	spawn("display", subs.Display)
	spawn("renderer", subs.Renderer)
	spawn("input", subs.Input)
	spawn("config", subs.Config)
	spawn("seat", subs.Seat)

	poller, err := fabric.NewPoller()
	if err != nil {
		log.Error().Err(err).Msg("main poller creation failed")
		return errs.New(errs.KindFatalStartup, "create main poller").Kind.ExitCode()
	}
	defer poller.Close()
	if err := poller.Add(mainReceiver.WakeFD(), fabric.MessageChannelToken); err != nil {
		log.Error().Err(err).Msg("main poller registration failed")
		return errs.New(errs.KindFatalStartup, "register main wake fd").Kind.ExitCode()
	}

	for {
		tokens, err := poller.Wait(1000)
		if err != nil {
			log.Error().Err(err).Msg("main poll failed")
			break
		}
		shutdownRequested := false
		for _, tok := range tokens {
			if tok != fabric.MessageChannelToken {
				continue
			}
			mainReceiver.DrainWake()
			for {
				msg, ok := mainReceiver.TryRecv()
				if !ok {
					break
				}
				if msg.Shutdown {
					shutdownRequested = true
				}
			}
		}
		if shutdownRequested {
			break
		}
	}

	log.Info().Msg("shutting down")
	broadcastShutdown(c)
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Msg("all subsystems exited cleanly")
	case <-time.After(shutdownGrace):
		log.Warn().Msg("shutdown grace period elapsed, exiting with subsystems still running")
	}
	return 0
}

func broadcastShutdown(c comms.Comms) {
	_ = c.Display.Send(comms.DisplayMessage{Shutdown: true})
	_ = c.Renderer.Send(comms.RendererMessage{Shutdown: true})
	_ = c.Input.Send(comms.InputMessage{Shutdown: true})
	_ = c.Config.Send(comms.ConfigMessage{Shutdown: true})
	_ = c.Seat.Send(comms.SeatMessage{Shutdown: true})
}
