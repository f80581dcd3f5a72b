package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromPathMissingFileIsNotFatal(t *testing.T) {
	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("loadFromPath on missing file: %v", err)
	}
	if cfg.SocketPath != "" {
		t.Errorf("expected zero-value config, got %+v", cfg)
	}
}

func TestLoadFromPathParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `socket_path = "/tmp/wayland-9"
log_level = "debug"
keymap = "/etc/lumalla/keymap.js"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath: %v", err)
	}
	if cfg.SocketPath != "/tmp/wayland-9" || cfg.LogLevel != "debug" {
		t.Errorf("loadFromPath = %+v", cfg)
	}
}

func TestResolvePathExplicitWins(t *testing.T) {
	got, err := ResolvePath("/explicit/path.toml")
	if err != nil || got != "/explicit/path.toml" {
		t.Fatalf("ResolvePath(explicit) = %q, %v", got, err)
	}
}

func TestWatchReloadFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`log_level = "info"`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reloaded := make(chan *Config, 1)
	w, err := WatchReload(path, func(c *Config) { reloaded <- c })
	if err != nil {
		t.Fatalf("WatchReload: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(`log_level = "debug"`), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.LogLevel != "debug" {
			t.Errorf("reloaded config = %+v, want log_level=debug", cfg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WatchReload did not fire within 5s")
	}
}
