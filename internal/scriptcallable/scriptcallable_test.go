package scriptcallable

import "testing"

func TestRegisterRunForget(t *testing.T) {
	tbl := NewTable()
	ref, err := tbl.Register("1 + 1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	v, err := tbl.Run(ref)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := v.ToInteger(); got != 2 {
		t.Errorf("Run result = %d, want 2", got)
	}

	tbl.Forget(ref)
	if _, err := tbl.Run(ref); err == nil {
		t.Error("Run after Forget should fail")
	}
}

func TestRegisterAllocatesMonotonicRefs(t *testing.T) {
	tbl := NewTable()
	r1, _ := tbl.Register("1")
	r2, _ := tbl.Register("2")
	if r2 <= r1 {
		t.Errorf("second ref %d should be greater than first %d", r2, r1)
	}
}
