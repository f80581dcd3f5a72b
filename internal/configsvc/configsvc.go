// Package configsvc is the config thread: it owns the script callable
// table and the on-disk config watcher, runs the registered callables on
// startup/connector-change triggers, and spawns user-configured commands on
// request (§4.16's callable-table runner).
package configsvc

import (
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/bnema/lumalla/internal/comms"
	"github.com/bnema/lumalla/internal/config"
	"github.com/bnema/lumalla/internal/fabric"
	"github.com/bnema/lumalla/internal/logging"
	"github.com/bnema/lumalla/internal/scriptcallable"
)

// Subsystem is the config thread's Runner.
type Subsystem struct {
	comms     comms.Comms
	receiver  *fabric.Receiver[comms.ConfigMessage]
	poller    *fabric.Poller
	callables *scriptcallable.Table
	watcher   *config.Watcher

	onStartup          scriptcallable.Ref
	onConnectorChange  scriptcallable.Ref
	extraEnv           map[string]string
}

// New constructs the config subsystem. watcher may be nil if no config file
// reload was requested at startup.
func New(c comms.Comms, receiver *fabric.Receiver[comms.ConfigMessage], watcher *config.Watcher) (*Subsystem, error) {
	p, err := fabric.NewPoller()
	if err != nil {
		return nil, err
	}
	if err := p.Add(receiver.WakeFD(), fabric.MessageChannelToken); err != nil {
		p.Close()
		return nil, err
	}
	return &Subsystem{
		comms:     c,
		receiver:  receiver,
		poller:    p,
		callables: scriptcallable.NewTable(),
		watcher:   watcher,
		extraEnv:  make(map[string]string),
	}, nil
}

// Run drains ConfigMessages until shutdown.
func (s *Subsystem) Run() error {
	log := logging.For("config")
	defer s.poller.Close()
	if s.watcher != nil {
		defer s.watcher.Close()
	}

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
				s.handle(msg, log)
			}
		}
	}
}

func (s *Subsystem) handle(msg comms.ConfigMessage, log zerolog.Logger) {
	switch {
	case msg.RunCallback != 0:
		if _, err := s.callables.Run(scriptcallable.Ref(msg.RunCallback)); err != nil {
			log.Warn().Err(err).Uint64("ref", msg.RunCallback).Msg("callback run failed")
		}
	case msg.ForgetCallback != 0:
		s.callables.Forget(scriptcallable.Ref(msg.ForgetCallback))
	case msg.Startup:
		if s.onStartup != 0 {
			if _, err := s.callables.Run(s.onStartup); err != nil {
				log.Warn().Err(err).Msg("on-startup callback failed")
			}
		}
	case len(msg.ConnectorChange) > 0:
		if s.onConnectorChange != 0 {
			if _, err := s.callables.Run(s.onConnectorChange); err != nil {
				log.Warn().Err(err).Msg("on-connector-change callback failed")
			}
		}
	case msg.ExtraEnvKey != "":
		s.extraEnv[msg.ExtraEnvKey] = msg.ExtraEnvValue
	case msg.SpawnCmd != "":
		s.spawn(msg.SpawnCmd, msg.SpawnArgs, log)
	case msg.SetOnStartup != 0:
		s.onStartup = scriptcallable.Ref(msg.SetOnStartup)
	case msg.SetOnConnectorChange != 0:
		s.onConnectorChange = scriptcallable.Ref(msg.SetOnConnectorChange)
	case msg.SetLayoutSpaces != "":
		_ = s.comms.Display.Send(comms.DisplayMessage{SetLayout: msg.SetLayoutSpaces})
	case msg.LoadConfig != "":
		if _, _, err := config.Load(msg.LoadConfig); err != nil {
			log.Warn().Err(err).Str("path", msg.LoadConfig).Msg("config reload failed")
		}
	}
}

// spawn launches cmd detached, with the accumulated extra environment
// variables appended to the process's inherited environment. Fire-and-
// forget: the config thread does not wait on or track the child.
func (s *Subsystem) spawn(cmd string, args []string, log zerolog.Logger) {
	c := exec.Command(cmd, args...)
	env := os.Environ()
	for k, v := range s.extraEnv {
		env = append(env, k+"="+v)
	}
	c.Env = env
	if err := c.Start(); err != nil {
		log.Warn().Err(err).Str("cmd", cmd).Msg("spawn failed")
	}
}
