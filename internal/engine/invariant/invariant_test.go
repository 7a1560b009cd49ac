package invariant

import (
	"errors"
	"testing"
)

func TestViolationWrapsSentinel(t *testing.T) {
	err := Violation("node %d has length %d", 3, -1)
	if !errors.Is(err, ErrViolated) {
		t.Fatalf("errors.Is(%v, ErrViolated) = false", err)
	}
	if got, want := err.Error(), "invariant violated: node 3 has length -1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCheckPassingFunc(t *testing.T) {
	called := false
	Check(func() error {
		called = true
		return nil
	})
	if called != Enabled {
		t.Errorf("check ran = %v, want %v", called, Enabled)
	}
}

func TestCheckPanicsOnlyWhenEnabled(t *testing.T) {
	defer func() {
		r := recover()
		if Enabled && r == nil {
			t.Error("expected panic with debug checks enabled")
		}
		if !Enabled && r != nil {
			t.Errorf("unexpected panic: %v", r)
		}
	}()
	Check(func() error { return Violation("broken") })
}
