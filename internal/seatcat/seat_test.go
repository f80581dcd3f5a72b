package seatcat

import "testing"

func TestAddSeatIsIdempotent(t *testing.T) {
	m := NewManager()
	if added := m.AddSeat("seat0"); !added {
		t.Fatal("first AddSeat should report added=true")
	}
	if added := m.AddSeat("seat0"); added {
		t.Error("second AddSeat of the same name should report added=false")
	}
	if len(m.Seats()) != 1 {
		t.Errorf("Seats() = %v, want one entry", m.Seats())
	}
}

func TestNameForGlobal(t *testing.T) {
	m := NewManager()
	m.AddSeat("seat0")
	m.NameForGlobal(3, "seat0")
	name, ok := m.SeatName(3)
	if !ok || name != "seat0" {
		t.Errorf("SeatName(3) = %q, %v, want seat0, true", name, ok)
	}
}
