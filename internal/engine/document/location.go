package document

import "fmt"

// Location is a line and column position. Both are 1-based; the zero
// Location means "no position".
type Location struct {
	Line   int
	Column int
}

// String returns a human-readable representation of the location.
func (l Location) String() string {
	return fmt.Sprintf("(%d:%d)", l.Line, l.Column)
}

// Compare returns -1 if l < other, 0 if l == other, 1 if l > other.
func (l Location) Compare(other Location) int {
	switch {
	case l.Line < other.Line:
		return -1
	case l.Line > other.Line:
		return 1
	case l.Column < other.Column:
		return -1
	case l.Column > other.Column:
		return 1
	}
	return 0
}

// Before returns true if l comes before other.
func (l Location) Before(other Location) bool { return l.Compare(other) < 0 }

// After returns true if l comes after other.
func (l Location) After(other Location) bool { return l.Compare(other) > 0 }

// IsZero returns true for the zero Location.
func (l Location) IsZero() bool { return l.Line == 0 && l.Column == 0 }
