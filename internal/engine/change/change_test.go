package change

import (
	"errors"
	"testing"
	"testing/quick"
)

func TestMapEntryNewOffset(t *testing.T) {
	replace := MapEntry{Offset: 10, RemovalLength: 5, InsertionLength: 2}
	insert := MapEntry{Offset: 10, InsertionLength: 3}
	insertBefore := MapEntry{Offset: 10, InsertionLength: 3, DefaultMovementIsBeforeInsertion: true}

	tests := []struct {
		name     string
		entry    MapEntry
		old      int
		movement MovementType
		want     int
	}{
		{"before change", replace, 3, Default, 3},
		{"at start of removal", replace, 10, Default, 10},
		{"inside removal default", replace, 12, Default, 12},
		{"inside removal before", replace, 12, BeforeInsertion, 10},
		{"inside removal after", replace, 12, AfterInsertion, 12},
		{"at end of removal", replace, 15, Default, 12},
		{"after change", replace, 20, Default, 17},
		{"insert point default", insert, 10, Default, 13},
		{"insert point before", insert, 10, BeforeInsertion, 10},
		{"insert point after", insert, 10, AfterInsertion, 13},
		{"insert point default before", insertBefore, 10, Default, 10},
		{"insert point default before overridden", insertBefore, 10, AfterInsertion, 13},
		{"before insert", insert, 9, AfterInsertion, 9},
		{"after insert", insert, 11, BeforeInsertion, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.NewOffset(tt.old, tt.movement); got != tt.want {
				t.Errorf("NewOffset(%d, %s) = %d, want %d", tt.old, tt.movement, got, tt.want)
			}
		})
	}
}

func TestMapIsValidForChange(t *testing.T) {
	tests := []struct {
		name                      string
		m                         Map
		offset, removal, insertion int
		want                      bool
	}{
		{"empty same length", Map{}, 5, 3, 3, true},
		{"empty different length", Map{}, 5, 3, 4, false},
		{"single", Map{{Offset: 5, RemovalLength: 3, InsertionLength: 1}}, 5, 3, 1, true},
		{"remove then insert", Map{{Offset: 5, RemovalLength: 3}, {Offset: 5, InsertionLength: 4}}, 5, 3, 4, true},
		{"entry before change", Map{{Offset: 4, RemovalLength: 1}}, 5, 1, 0, false},
		{"entry past end", Map{{Offset: 5, RemovalLength: 4}}, 5, 3, 0, false},
		{"character overwrite grow", Map{{Offset: 7, RemovalLength: 1, InsertionLength: 3}}, 5, 3, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.IsValidForChange(tt.offset, tt.removal, tt.insertion); got != tt.want {
				t.Errorf("IsValidForChange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvent(t *testing.T) {
	ev, err := NewEvent(4, "héllo", "wörld!", nil)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	if ev.RemovalLength() != 5 || ev.InsertionLength() != 6 {
		t.Errorf("lengths = %d, %d", ev.RemovalLength(), ev.InsertionLength())
	}
	if ev.Kind() != KindReplace {
		t.Errorf("Kind() = %s", ev.Kind())
	}
	if got := ev.Entries(); len(got) != 1 || got[0] != ev.SingleEntry() {
		t.Errorf("Entries() = %v", got)
	}
	if got := ev.NewOffset(20, Default); got != 21 {
		t.Errorf("NewOffset(20) = %d, want 21", got)
	}

	inv := ev.Invert()
	if inv.RemovedText != "wörld!" || inv.InsertedText != "héllo" {
		t.Errorf("Invert() texts = %q, %q", inv.RemovedText, inv.InsertedText)
	}
	if got := inv.NewOffset(21, Default); got != 20 {
		t.Errorf("inverted NewOffset(21) = %d, want 20", got)
	}
}

func TestEventEmptyMap(t *testing.T) {
	ev, err := NewEvent(2, "ab", "cd", Map{})
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	if len(ev.Entries()) != 0 {
		t.Errorf("Entries() = %v, want empty", ev.Entries())
	}
	if got := ev.NewOffset(3, Default); got != 3 {
		t.Errorf("NewOffset(3) = %d, want 3", got)
	}
	if !ev.Invert().HasCustomMap() {
		t.Error("inverted event lost its map")
	}
}

func TestEventInvalidMap(t *testing.T) {
	_, err := NewEvent(2, "ab", "c", Map{{Offset: 0, RemovalLength: 2, InsertionLength: 1}})
	if !errors.Is(err, ErrInvalidMap) {
		t.Errorf("NewEvent() error = %v, want ErrInvalidMap", err)
	}
	if _, err := NewEvent(-1, "", "x", nil); !errors.Is(err, ErrInvalidMap) {
		t.Errorf("negative offset error = %v", err)
	}
}

func TestEventKind(t *testing.T) {
	tests := []struct {
		removed, inserted string
		want              Kind
	}{
		{"", "x", KindInsert},
		{"x", "", KindDelete},
		{"x", "y", KindReplace},
	}
	for _, tt := range tests {
		ev, _ := NewEvent(0, tt.removed, tt.inserted, nil)
		if ev.Kind() != tt.want {
			t.Errorf("Kind(%q, %q) = %s, want %s", tt.removed, tt.inserted, ev.Kind(), tt.want)
		}
	}
}

func TestParseMovementType(t *testing.T) {
	for _, m := range []MovementType{Default, BeforeInsertion, AfterInsertion} {
		got, ok := ParseMovementType(m.String())
		if !ok || got != m {
			t.Errorf("ParseMovementType(%q) = %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseMovementType("sideways"); ok {
		t.Error("ParseMovementType accepted an unknown name")
	}
}

func TestListenerFunc(t *testing.T) {
	var got *Event
	var l Listener = ListenerFunc(func(ev *Event) { got = ev })
	ev, _ := NewEvent(0, "", "x", nil)
	l.DocumentChanged(ev)
	if got != ev {
		t.Error("ListenerFunc did not forward the event")
	}
}

// Offsets outside the replaced range move exactly as far as the text did,
// and inverting the entry maps them back.
func TestQuickInvertRestoresOutsideOffsets(t *testing.T) {
	f := func(offset, removal, insertion, old uint8) bool {
		e := MapEntry{Offset: int(offset), RemovalLength: int(removal), InsertionLength: int(insertion)}
		o := int(old)
		if o > e.Offset && o < e.Offset+e.RemovalLength {
			return true
		}
		if o == e.Offset {
			return e.NewOffset(o, BeforeInsertion) == o
		}
		moved := e.NewOffset(o, Default)
		return e.Invert().NewOffset(moved, Default) == o
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}
