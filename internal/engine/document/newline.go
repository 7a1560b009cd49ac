package document

import "github.com/dshills/textcore/internal/engine/rope"

var newlineRunes = []rune{'\r', '\n'}

// nextNewline finds the first line delimiter at or after offset in text.
// It returns the delimiter position and its length (1 or 2), or -1, 0.
func nextNewline(text []rune, offset int) (int, int) {
	for i := offset; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				return i, 2
			}
			return i, 1
		case '\n':
			return i, 1
		}
	}
	return -1, 0
}

// nextNewlineInRope is nextNewline over a rope.
func nextNewlineInRope(r *rope.Rope[rune], offset int) (int, int) {
	pos := rope.IndexOfAny(r, newlineRunes, offset, r.Len()-offset)
	if pos < 0 {
		return -1, 0
	}
	if c, _ := r.At(pos); c == '\r' {
		if next, ok := r.At(pos + 1); ok && next == '\n' {
			return pos, 2
		}
	}
	return pos, 1
}

// LineEnding names a line delimiter style.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// String returns a human-readable representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingLF:
		return "LF"
	case LineEndingCRLF:
		return "CRLF"
	case LineEndingCR:
		return "CR"
	default:
		return "unknown"
	}
}

// Sequence returns the delimiter text.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}
