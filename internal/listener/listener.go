// Package listener binds the Wayland UNIX stream socket and mints client ids
// for accepted connections (§4.3).
package listener

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// ClientID is a non-zero, monotonically allocated per-connection identifier.
type ClientID uint64

// Accepted is one freshly accepted client socket, not yet wrapped into a
// full connection (codec/registry are layered on by the caller).
type Accepted struct {
	FD       int
	ClientID ClientID
}

// Listener owns the bound, non-blocking server socket.
type Listener struct {
	fd       int
	path     string
	nextID   uint64
}

// resolveSocketPath picks $XDG_RUNTIME_DIR/wayland-N for the lowest free
// N in 0..10, or uses explicitPath if given.
func resolveSocketPath(explicitPath string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		return "", fmt.Errorf("listener: XDG_RUNTIME_DIR not set and no socket path given")
	}
	for n := 0; n < 10; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("wayland-%d", n))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("listener: no free wayland-N socket name under %s", dir)
}

// New binds a UNIX stream socket at the resolved path, unlinking any stale
// file there first, and sets the listening fd non-blocking.
func New(explicitPath string) (*Listener, error) {
	path, err := resolveSocketPath(explicitPath)
	if err != nil {
		return nil, err
	}
	_ = os.Remove(path) // unlink stale socket file, if any

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("listener: socket: %w", err)
	}
	addr := &unix.SockaddrUnix{Name: path}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listener: bind %s: %w", path, err)
	}
	if err := unix.Listen(fd, 128); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listener: listen: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listener: set nonblocking: %w", err)
	}
	return &Listener{fd: fd, path: path}, nil
}

// FD returns the listening socket's file descriptor, for registration with
// the display thread's poller.
func (l *Listener) FD() int {
	return l.fd
}

// Path returns the bound socket path.
func (l *Listener) Path() string {
	return l.path
}

// NextClient accepts one pending connection, if any, minting a fresh client
// id for it. Returns ok=false on EAGAIN (no pending connection).
func (l *Listener) NextClient() (Accepted, bool, error) {
	connFD, _, err := unix.Accept(l.fd)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return Accepted{}, false, nil
		}
		return Accepted{}, false, fmt.Errorf("listener: accept: %w", err)
	}
	if err := unix.SetNonblock(connFD, true); err != nil {
		unix.Close(connFD)
		return Accepted{}, false, fmt.Errorf("listener: set client nonblocking: %w", err)
	}
	id := ClientID(atomic.AddUint64(&l.nextID, 1))
	return Accepted{FD: connFD, ClientID: id}, true, nil
}

// Close closes the listening socket and unlinks its path.
func (l *Listener) Close() error {
	err := unix.Close(l.fd)
	_ = os.Remove(l.path)
	return err
}
