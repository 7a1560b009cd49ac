package change

import (
	"fmt"
	"unicode/utf8"
)

// Kind categorizes an event.
type Kind uint8

const (
	// KindInsert indicates text was inserted (RemovedText is empty).
	KindInsert Kind = iota

	// KindDelete indicates text was deleted (InsertedText is empty).
	KindDelete

	// KindReplace indicates text was replaced.
	KindReplace
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindDelete:
		return "delete"
	case KindReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Event describes one logical edit of a document. Events are immutable
// once created and may be retained by listeners.
type Event struct {
	Offset       int
	RemovedText  string
	InsertedText string

	removalLength   int
	insertionLength int
	entries         Map
	hasMap          bool
}

// NewEvent creates an event for replacing removed with inserted at offset.
//
// A nil map means the edit is a single MapEntry covering the whole
// replacement. A non-nil map (possibly empty) replaces that default; it
// must satisfy Map.IsValidForChange.
func NewEvent(offset int, removed, inserted string, m Map) (*Event, error) {
	ev := &Event{
		Offset:          offset,
		RemovedText:     removed,
		InsertedText:    inserted,
		removalLength:   utf8.RuneCountInString(removed),
		insertionLength: utf8.RuneCountInString(inserted),
	}
	if offset < 0 {
		return nil, fmt.Errorf("event at %d: %w", offset, ErrInvalidMap)
	}
	if m != nil {
		if !m.IsValidForChange(offset, ev.removalLength, ev.insertionLength) {
			return nil, fmt.Errorf("event at %d: %w", offset, ErrInvalidMap)
		}
		ev.entries = append(Map{}, m...)
		ev.hasMap = true
	}
	return ev, nil
}

// RemovalLength returns the number of characters removed.
func (e *Event) RemovalLength() int { return e.removalLength }

// InsertionLength returns the number of characters inserted.
func (e *Event) InsertionLength() int { return e.insertionLength }

// Kind reports whether the event inserts, deletes or replaces text.
func (e *Event) Kind() Kind {
	switch {
	case e.removalLength == 0:
		return KindInsert
	case e.insertionLength == 0:
		return KindDelete
	default:
		return KindReplace
	}
}

// SingleEntry returns the entry covering the whole replacement.
func (e *Event) SingleEntry() MapEntry {
	return MapEntry{
		Offset:          e.Offset,
		RemovalLength:   e.removalLength,
		InsertionLength: e.insertionLength,
	}
}

// HasCustomMap reports whether the event carries an explicit map.
func (e *Event) HasCustomMap() bool { return e.hasMap }

// Entries returns the offset change map of the event. The returned map
// must not be modified.
func (e *Event) Entries() Map {
	if e.hasMap {
		return e.entries
	}
	return Map{e.SingleEntry()}
}

// NewOffset translates an offset in the text before the event into the text
// after it.
func (e *Event) NewOffset(old int, movement MovementType) int {
	if e.hasMap {
		return e.entries.NewOffset(old, movement)
	}
	return e.SingleEntry().NewOffset(old, movement)
}

// Invert returns the event that undoes e.
func (e *Event) Invert() *Event {
	inv := &Event{
		Offset:          e.Offset,
		RemovedText:     e.InsertedText,
		InsertedText:    e.RemovedText,
		removalLength:   e.insertionLength,
		insertionLength: e.removalLength,
		hasMap:          e.hasMap,
	}
	if e.hasMap {
		inv.entries = e.entries.Invert()
		if inv.entries == nil {
			inv.entries = Map{}
		}
	}
	return inv
}

func (e *Event) String() string {
	return fmt.Sprintf("%s at %d: -%d +%d", e.Kind(), e.Offset, e.removalLength, e.insertionLength)
}
