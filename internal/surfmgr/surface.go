// Package surfmgr tracks per-surface pending and committed state. Out of
// scope: damage, scale, transform, region clipping (§4.8).
package surfmgr

import "github.com/bnema/lumalla/internal/wire"

// Role identifies the shell protocol that assigned a surface its role.
// Assigned exactly once per surface.
type Role int

const (
	RoleNone Role = iota
	RoleShellSurface
	RoleSubsurface
)

// Key identifies a surface by the client that owns it and its object id.
type Key struct {
	ClientID uint64
	ObjectID uint32
}

// pendingState is the surface's not-yet-committed attach/offset state.
type pendingState struct {
	Buffer wire.ObjectID
	DX     int32
	DY     int32
}

// Surface is one client's wl_surface object.
type Surface struct {
	ClientID  uint64
	ObjectID  wire.ObjectID
	Role      Role
	Committed pendingState
	pending   pendingState
}

// Manager tracks every live surface across every client.
type Manager struct {
	surfaces map[Key]*Surface
}

// NewManager constructs an empty surfmgr.Manager.
func NewManager() *Manager {
	return &Manager{surfaces: make(map[Key]*Surface)}
}

// Create registers a new surface for key.
func (m *Manager) Create(key Key) *Surface {
	s := &Surface{ClientID: key.ClientID, ObjectID: wire.ObjectID(key.ObjectID)}
	m.surfaces[key] = s
	return s
}

// Get looks up a live surface.
func (m *Manager) Get(key Key) (*Surface, bool) {
	s, ok := m.surfaces[key]
	return s, ok
}

// Destroy removes a surface from tracking.
func (m *Manager) Destroy(key Key) {
	delete(m.surfaces, key)
}

// DestroyClient removes every surface owned by clientID. Called once a
// client's connection is torn down, per the invariant that a disconnecting
// client drops all per-client state referenced elsewhere.
func (m *Manager) DestroyClient(clientID uint64) {
	for key := range m.surfaces {
		if key.ClientID == clientID {
			delete(m.surfaces, key)
		}
	}
}

// SetRole assigns a surface's role exactly once; a second call is a no-op
// protocol error the caller is responsible for rejecting before calling in.
func (s *Surface) SetRole(r Role) {
	if s.Role == RoleNone {
		s.Role = r
	}
}

// Attach stores buffer/dx/dy as pending state, to be applied at the next commit.
func (s *Surface) Attach(buffer wire.ObjectID, dx, dy int32) {
	s.pending = pendingState{Buffer: buffer, DX: dx, DY: dy}
}

// Commit atomically replaces the committed state with the pending state.
func (s *Surface) Commit() {
	s.Committed = s.pending
}
