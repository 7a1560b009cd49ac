package change

import "fmt"

// MapEntry describes one elementary replacement: RemovalLength characters at
// Offset were replaced by InsertionLength characters.
type MapEntry struct {
	Offset          int
	RemovalLength   int
	InsertionLength int

	// RemovalNeverCausesAnchorDeletion keeps anchors alive even when they do
	// not survive deletion on their own. Used for character overwrites.
	RemovalNeverCausesAnchorDeletion bool

	// DefaultMovementIsBeforeInsertion makes offsets with Default movement
	// stay in front of the inserted text.
	DefaultMovementIsBeforeInsertion bool
}

// NewOffset translates an offset in the text before the entry into the
// text after it.
//
// Offsets before the change stay, offsets after the removed range move by
// the length delta. Offsets inside the removed range, and the offset of a
// pure insertion, collapse to the edit point and then obey the movement type.
func (e MapEntry) NewOffset(old int, movement MovementType) int {
	if e.RemovalLength != 0 || old != e.Offset {
		if old <= e.Offset {
			return old
		}
		if old >= e.Offset+e.RemovalLength {
			return old + e.InsertionLength - e.RemovalLength
		}
	}
	switch movement {
	case AfterInsertion:
		return e.Offset + e.InsertionLength
	case BeforeInsertion:
		return e.Offset
	}
	if e.DefaultMovementIsBeforeInsertion {
		return e.Offset
	}
	return e.Offset + e.InsertionLength
}

// Invert returns the entry that undoes e.
func (e MapEntry) Invert() MapEntry {
	e.RemovalLength, e.InsertionLength = e.InsertionLength, e.RemovalLength
	return e
}

// Delta returns the change in text length caused by the entry.
func (e MapEntry) Delta() int {
	return e.InsertionLength - e.RemovalLength
}

func (e MapEntry) String() string {
	return fmt.Sprintf("[%d: -%d +%d]", e.Offset, e.RemovalLength, e.InsertionLength)
}

// Map is a sequence of entries applied one after another. Each entry's
// offset is relative to the text produced by the entries before it.
type Map []MapEntry

// NewOffset translates old through every entry in order.
func (m Map) NewOffset(old int, movement MovementType) int {
	for _, e := range m {
		old = e.NewOffset(old, movement)
	}
	return old
}

// Invert returns the map that undoes m.
func (m Map) Invert() Map {
	if m == nil {
		return nil
	}
	inv := make(Map, len(m))
	for i, e := range m {
		inv[len(m)-1-i] = e.Invert()
	}
	return inv
}

// IsValidForChange reports whether m describes a replacement of removal
// characters at offset by insertion characters. Every entry must fall inside
// the part of the text affected so far, and the lengths must add up.
func (m Map) IsValidForChange(offset, removal, insertion int) bool {
	end := offset + removal
	for _, e := range m {
		if e.Offset < offset || e.Offset+e.RemovalLength > end {
			return false
		}
		end += e.Delta()
	}
	return end == offset+insertion
}
