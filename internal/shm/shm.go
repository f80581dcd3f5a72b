// Package shm implements the server's shared-memory pool and buffer
// subsystem: mmap-based pools with reference counting, and buffer views
// derived from a pool's base address at a fixed offset/stride/format. This
// is the core's only substantial piece of manual memory discipline; the
// ref-count invariant is load-bearing (§4.6).
package shm

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrShrink is returned by Resize when the requested size does not exceed
// the pool's current size; shrinking a pool is illegal.
var ErrShrink = errors.New("shm: pool resize must grow, not shrink")

// ErrPoolNotFound is returned when a (client, object) pair does not name a
// live pool.
var ErrPoolNotFound = errors.New("shm: pool not found")

// ErrBufferNotFound is returned when a (client, object) pair does not name a
// live buffer.
var ErrBufferNotFound = errors.New("shm: buffer not found")

// PoolKey identifies a pool by the client that created it and the object id
// it was registered under.
type PoolKey struct {
	ClientID uint64
	ObjectID uint32
}

// BufferKey identifies a buffer the same way.
type BufferKey struct {
	ClientID uint64
	ObjectID uint32
}

// Pool is a client-supplied memory-mapped region.
type Pool struct {
	FD       int
	Size     int32
	Base     []byte // mmap-backed slice; Base's address is the pool's base address
	RefCount int
}

// Buffer is a rectangular view into a Pool.
type Buffer struct {
	PoolIndex int
	Offset    int32
	Width     int32
	Height    int32
	Stride    int32
	Format    uint32
	Alive     bool
}

// Address returns the buffer's derived base address within its pool.
func (b Buffer) Address(pools []Pool) []byte {
	p := pools[b.PoolIndex]
	return p.Base[b.Offset:]
}

// Manager tracks every live pool and buffer across every client connection.
// Storage is a pair of indexed slices plus free-index stacks, per §4.6.
type Manager struct {
	pools          []Pool
	poolIndex      map[PoolKey]int
	freePoolIdx    []int
	buffers        []Buffer
	bufferIndex    map[BufferKey]int
	freeBufferIdx  []int
}

// NewManager constructs an empty shm.Manager.
func NewManager() *Manager {
	return &Manager{
		poolIndex:   make(map[PoolKey]int),
		bufferIndex: make(map[BufferKey]int),
	}
}

// CreatePool mmaps fd PROT_READ MAP_SHARED for size bytes and registers the
// pool under key. Per §9's resolved open question, success is defined as
// mmap returning a usable address (not MAP_FAILED) — the boolean return is
// true on success.
func (m *Manager) CreatePool(key PoolKey, fd int, size int32) (ok bool, err error) {
	base, mmapErr := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if mmapErr != nil {
		return false, mmapErr
	}
	pool := Pool{FD: fd, Size: size, Base: base, RefCount: 1}
	idx := m.allocPoolSlot(pool)
	m.poolIndex[key] = idx
	return true, nil
}

func (m *Manager) allocPoolSlot(p Pool) int {
	if n := len(m.freePoolIdx); n > 0 {
		idx := m.freePoolIdx[n-1]
		m.freePoolIdx = m.freePoolIdx[:n-1]
		m.pools[idx] = p
		return idx
	}
	m.pools = append(m.pools, p)
	return len(m.pools) - 1
}

func (m *Manager) allocBufferSlot(b Buffer) int {
	if n := len(m.freeBufferIdx); n > 0 {
		idx := m.freeBufferIdx[n-1]
		m.freeBufferIdx = m.freeBufferIdx[:n-1]
		m.buffers[idx] = b
		return idx
	}
	m.buffers = append(m.buffers, b)
	return len(m.buffers) - 1
}

// CreateBuffer looks up the pool named by poolKey, rebases the buffer to
// pool.Base+offset, bumps the pool's ref count, and registers the buffer
// under bufferKey.
func (m *Manager) CreateBuffer(poolKey PoolKey, bufferKey BufferKey, offset, width, height, stride int32, format uint32) error {
	poolIdx, ok := m.poolIndex[poolKey]
	if !ok {
		return ErrPoolNotFound
	}
	if offset < 0 || int(offset) > len(m.pools[poolIdx].Base) {
		return fmt.Errorf("shm: buffer offset %d out of range for pool of size %d", offset, m.pools[poolIdx].Size)
	}
	m.pools[poolIdx].RefCount++
	idx := m.allocBufferSlot(Buffer{
		PoolIndex: poolIdx,
		Offset:    offset,
		Width:     width,
		Height:    height,
		Stride:    stride,
		Format:    format,
		Alive:     true,
	})
	m.bufferIndex[bufferKey] = idx
	return nil
}

// DestroyBuffer marks the buffer dead, returns its slot to the free list,
// and decrements the owning pool's ref count, unmapping the pool if the
// count reaches zero.
func (m *Manager) DestroyBuffer(key BufferKey) error {
	idx, ok := m.bufferIndex[key]
	if !ok {
		return ErrBufferNotFound
	}
	buf := &m.buffers[idx]
	buf.Alive = false
	delete(m.bufferIndex, key)
	m.freeBufferIdx = append(m.freeBufferIdx, idx)
	return m.decRefAndMaybeUnmap(buf.PoolIndex)
}

// DestroyClient tears down every pool and buffer owned by clientID, as if
// the client had explicitly destroyed each one — buffers first, so their
// pools' ref counts drop correctly, then any pools the client never
// destroyed itself. Called once a client's connection is torn down, per the
// invariant that a disconnecting client drops all per-client state
// referenced elsewhere.
func (m *Manager) DestroyClient(clientID uint64) {
	for key := range m.bufferIndex {
		if key.ClientID == clientID {
			_ = m.DestroyBuffer(key)
		}
	}
	for key := range m.poolIndex {
		if key.ClientID == clientID {
			_ = m.DestroyPool(key)
		}
	}
}

// DestroyPool decrements the pool's ref count; live buffers referencing it
// keep it mapped until they too are destroyed.
func (m *Manager) DestroyPool(key PoolKey) error {
	idx, ok := m.poolIndex[key]
	if !ok {
		return ErrPoolNotFound
	}
	delete(m.poolIndex, key)
	return m.decRefAndMaybeUnmap(idx)
}

func (m *Manager) decRefAndMaybeUnmap(poolIdx int) error {
	p := &m.pools[poolIdx]
	p.RefCount--
	if p.RefCount > 0 {
		return nil
	}
	err := unix.Munmap(p.Base)
	p.Base = nil
	if closeErr := unix.Close(p.FD); err == nil {
		err = closeErr
	}
	p.FD = -1
	m.freePoolIdx = append(m.freePoolIdx, poolIdx)
	return err
}

// Resize grows the pool named by key to newSize, remmapping it and rebasing
// every live buffer that shares its pool index. Shrinking is rejected.
func (m *Manager) Resize(key PoolKey, newSize int32) error {
	idx, ok := m.poolIndex[key]
	if !ok {
		return ErrPoolNotFound
	}
	p := &m.pools[idx]
	if newSize <= p.Size {
		return ErrShrink
	}
	if err := unix.Munmap(p.Base); err != nil {
		return err
	}
	base, err := unix.Mmap(p.FD, 0, int(newSize), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	p.Base = base
	p.Size = newSize
	// Buffers are views computed lazily from PoolIndex + Offset against the
	// (now-updated) pool slice, so no per-buffer rebase bookkeeping is
	// required beyond having remapped the slab they index into.
	return nil
}

// Buffer looks up a live buffer's current view.
func (m *Manager) Buffer(key BufferKey) (Buffer, []byte, bool) {
	idx, ok := m.bufferIndex[key]
	if !ok {
		return Buffer{}, nil, false
	}
	b := m.buffers[idx]
	return b, b.Address(m.pools), true
}

// PoolRefCount reports the current ref count of the pool named by key, for
// tests and diagnostics.
func (m *Manager) PoolRefCount(key PoolKey) (int, bool) {
	idx, ok := m.poolIndex[key]
	if !ok {
		return 0, false
	}
	return m.pools[idx].RefCount, true
}
