package display

import (
	"golang.org/x/sys/unix"

	"github.com/bnema/lumalla/internal/listener"
	"github.com/bnema/lumalla/internal/registry"
	"github.com/bnema/lumalla/internal/wire"
)

// connection is one client's wire-level state plus its per-client object
// registry. Shared subsystems (shm, surfaces) are keyed by this client's id
// and looked up against the display Subsystem's shared managers.
type connection struct {
	id       listener.ClientID
	fd       int
	reader   *wire.Reader
	writer   *wire.Writer
	registry *registry.Registry

	// registries holds every wl_registry object this client has acquired;
	// each one receives every subsequent global broadcast.
	registries []wire.ObjectID
}

func newConnection(id listener.ClientID, fd int) *connection {
	return &connection{
		id:       id,
		fd:       fd,
		reader:   wire.NewReader(fd),
		writer:   wire.NewWriter(fd),
		registry: registry.New(),
	}
}

func (c *connection) close() error {
	return unix.Close(c.fd)
}
