package fabric

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Poller wraps a Linux epoll instance: the readiness-based poller every
// subsystem thread owns (§2, §5). Tokens are carried in the epoll_data
// union's fd slot: either MessageChannelToken (reserved as 0) or the file
// descriptor itself, since every I/O source this core polls is a real fd
// and fds never collide with the reserved token in practice (fd 0 is never
// registered here — it is stdin, not a socket this core owns).
type Poller struct {
	epfd int
}

// NewPoller creates an epoll instance.
func NewPoller() (*Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("fabric: epoll_create1: %w", err)
	}
	return &Poller{epfd: fd}, nil
}

// Add registers fd for read readiness under the given user-data token.
func (p *Poller) Add(fd int, token uint64) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(token)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

// Remove deregisters fd.
func (p *Poller) Remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Wait blocks (optionally with a millisecond timeout, -1 for indefinite)
// until at least one registered fd is ready, returning the ready tokens.
func (p *Poller) Wait(timeoutMs int) ([]uint64, error) {
	events := make([]unix.EpollEvent, 32)
	n, err := unix.EpollWait(p.epfd, events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("fabric: epoll_wait: %w", err)
	}
	tokens := make([]uint64, n)
	for i := 0; i < n; i++ {
		tokens[i] = uint64(uint32(events[i].Fd))
	}
	return tokens, nil
}

// Close releases the epoll instance.
func (p *Poller) Close() error {
	return unix.Close(p.epfd)
}
