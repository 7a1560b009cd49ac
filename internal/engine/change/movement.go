package change

// MovementType decides where an offset goes when text is inserted exactly
// at it.
type MovementType uint8

const (
	// Default moves the offset after the insertion, unless the edit asks
	// for DefaultMovementIsBeforeInsertion.
	Default MovementType = iota

	// BeforeInsertion keeps the offset in front of inserted text.
	BeforeInsertion

	// AfterInsertion moves the offset behind inserted text.
	AfterInsertion
)

// String returns a human-readable representation of the movement type.
func (m MovementType) String() string {
	switch m {
	case Default:
		return "default"
	case BeforeInsertion:
		return "before"
	case AfterInsertion:
		return "after"
	default:
		return "unknown"
	}
}

// ParseMovementType converts a name produced by String back into a
// MovementType.
func ParseMovementType(s string) (MovementType, bool) {
	switch s {
	case "default", "":
		return Default, true
	case "before":
		return BeforeInsertion, true
	case "after":
		return AfterInsertion, true
	default:
		return Default, false
	}
}
