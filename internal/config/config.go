// Package config loads the core's TOML configuration, resolving its path
// via XDG base-directory search under the "lumalla" prefix unless an
// explicit path is given, and watches the resolved file for reloads.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/bnema/lumalla/internal/logging"
)

const configRelPath = "lumalla/config.toml"

// Config is the process-wide configuration.
type Config struct {
	SocketPath string            `toml:"socket_path"`
	LogLevel   string            `toml:"log_level"`
	Keymap     string            `toml:"keymap"`
	OnStartup  string            `toml:"on_startup"`
	OnConnectorChange string     `toml:"on_connector_change"`
	Layout     map[string]string `toml:"layout"`
}

// ResolvePath returns explicitPath if non-empty, else searches the XDG
// config dirs for lumalla/config.toml, falling back to the writable default
// location when no file exists yet (so a subsequent watch always has a
// concrete path to watch, even before the user creates the file).
func ResolvePath(explicitPath string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}
	if found, err := xdg.SearchConfigFile(configRelPath); err == nil {
		return found, nil
	}
	return xdg.ConfigFile(configRelPath)
}

// Load resolves and decodes the configuration at path (or the XDG-searched
// default when path is empty).
func Load(path string) (*Config, string, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, "", fmt.Errorf("config: resolve path: %w", err)
	}
	cfg, err := loadFromPath(resolved)
	if err != nil {
		return nil, resolved, err
	}
	return cfg, resolved, nil
}

func loadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil // absent config is not fatal; defaults apply
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Watcher reloads the configuration whenever its resolved file changes on
// disk and publishes the new value on changes. Watching the containing
// directory (rather than the file itself) survives editors that replace a
// file via rename-on-save.
type Watcher struct {
	fsw  *fsnotify.Watcher
	path string
}

// WatchReload starts watching path's directory for writes/creates touching
// path's basename, invoking onReload with the freshly parsed config on each
// one. A reload failure is logged and the previous configuration stays live.
func WatchReload(path string, onReload func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: new watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}
	log := logging.For("config")
	base := filepath.Base(path)
	go func() {
		for {
			select {
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := loadFromPath(path)
				if err != nil {
					log.Error().Err(err).Msg("config reload failed, keeping previous configuration")
					continue
				}
				onReload(cfg)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("config watcher error")
			}
		}
	}()
	return &Watcher{fsw: fsw, path: path}, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
