// Package seatcat is the display thread's seat manager: the set of known
// seat names and the mapping from global name to seat name (§4.7). It is
// distinct from internal/seatsvc, which speaks the session-manager boundary
// RPC on its own subsystem thread.
package seatcat

// Manager tracks known seats and the globals that advertise them.
type Manager struct {
	known      map[string]bool
	globalName map[uint32]string
}

// NewManager constructs an empty seat manager.
func NewManager() *Manager {
	return &Manager{known: make(map[string]bool), globalName: make(map[uint32]string)}
}

// AddSeat inserts name if not already present and reports whether it was
// newly added. The caller (the display thread) is responsible for
// registering a wl_seat global and broadcasting it to every live registry
// only when this returns true — AddSeat itself does not touch the globals
// catalog or any connection, keeping seat-name bookkeeping independent of
// broadcast mechanics.
func (m *Manager) AddSeat(name string) bool {
	if m.known[name] {
		return false
	}
	m.known[name] = true
	return true
}

// NameForGlobal records which seat a just-registered global name refers to.
func (m *Manager) NameForGlobal(globalName uint32, seatName string) {
	m.globalName[globalName] = seatName
}

// SeatName looks up the seat name associated with a global.
func (m *Manager) SeatName(globalName uint32) (string, bool) {
	n, ok := m.globalName[globalName]
	return n, ok
}

// Seats returns every known seat name.
func (m *Manager) Seats() []string {
	out := make([]string, 0, len(m.known))
	for n := range m.known {
		out = append(out, n)
	}
	return out
}
