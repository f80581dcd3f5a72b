// Command lumallad is the compositor core's entry point: it parses CLI
// flags, loads configuration, wires the comms fabric, spawns every
// subsystem, and runs the main orchestrator until shutdown (§6, §4.11).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/lumalla/internal/comms"
	"github.com/bnema/lumalla/internal/config"
	"github.com/bnema/lumalla/internal/configsvc"
	"github.com/bnema/lumalla/internal/display"
	"github.com/bnema/lumalla/internal/errs"
	"github.com/bnema/lumalla/internal/inputsvc"
	"github.com/bnema/lumalla/internal/listener"
	"github.com/bnema/lumalla/internal/logging"
	"github.com/bnema/lumalla/internal/orchestrator"
	"github.com/bnema/lumalla/internal/renderersvc"
	"github.com/bnema/lumalla/internal/seatsvc"
)

func main() {
	var logFile, configPath, socketPath string

	root := &cobra.Command{
		Use:   "lumallad",
		Short: "Wayland compositor core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(logFile, configPath, socketPath)
		},
	}
	root.Flags().StringVarP(&logFile, "log-file", "l", "", "redirect structured logs to this file instead of stdout")
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config.toml (default: XDG search)")
	root.Flags().StringVarP(&socketPath, "socket-path", "s", "", "Wayland socket path (default: $XDG_RUNTIME_DIR/wayland-N)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errs.HandleReturn(err))
	}
}

func run(logFile, configPath, socketPath string) error {
	if logFile != "" {
		if err := logging.RedirectToFile(logFile); err != nil {
			return errs.Wrap(errs.KindFatalStartup, "redirect log output", err)
		}
	}
	log := logging.For("main")

	cfg, resolvedConfigPath, err := config.Load(configPath)
	if err != nil {
		return errs.Wrap(errs.KindFatalStartup, "load configuration", err)
	}
	logging.SetLevel(cfg.LogLevel)

	if socketPath == "" {
		socketPath = cfg.SocketPath
	}

	l, err := listener.New(socketPath)
	if err != nil {
		return errs.Wrap(errs.KindFatalStartup, "bind listening socket", err)
	}
	log.Info().Str("socket", l.Path()).Msg("listening")

	c, r, err := comms.New()
	if err != nil {
		return errs.Wrap(errs.KindFatalStartup, "build comms fabric", err)
	}

	displaySub, err := display.New(c, r.Display, l)
	if err != nil {
		return errs.Wrap(errs.KindFatalStartup, "start display subsystem", err)
	}
	rendererSub, err := renderersvc.New(c, r.Renderer, 0)
	if err != nil {
		return errs.Wrap(errs.KindFatalStartup, "start renderer subsystem", err)
	}
	inputSub, err := inputsvc.New(c, r.Input)
	if err != nil {
		return errs.Wrap(errs.KindFatalStartup, "start input subsystem", err)
	}

	var watcher *config.Watcher
	if resolvedConfigPath != "" {
		watcher, err = config.WatchReload(resolvedConfigPath, func(reloaded *config.Config) {
			logging.SetLevel(reloaded.LogLevel)
		})
		if err != nil {
			log.Warn().Err(err).Msg("config watch unavailable, continuing without live reload")
		}
	}
	configSub, err := configsvc.New(c, r.Config, watcher)
	if err != nil {
		return errs.Wrap(errs.KindFatalStartup, "start config subsystem", err)
	}

	seatSub, seatErr := seatsvc.New(c, r.Seat)
	if seatErr != nil {
		log.Warn().Err(seatErr).Msg("seat subsystem unavailable, continuing without session management")
	}

	subs := orchestrator.Subsystems{
		Display:  displaySub,
		Renderer: rendererSub,
		Input:    inputSub,
		Config:   configSub,
	}
	if seatSub != nil {
		subs.Seat = seatSub
	}

	exitCode := orchestrator.Run(context.Background(), c, r.Main, subs)
	if exitCode != 0 {
		return errs.New(errs.KindSubsystemCrash, "orchestrator exited with a nonzero code")
	}
	return nil
}
