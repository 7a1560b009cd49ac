package rope

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// FromString creates a rope of the runes in s.
func FromString(s string) *Rope[rune] {
	if len(s) == 0 {
		return New[rune]()
	}
	return FromSlice([]rune(s))
}

// FromReader creates a rope from UTF-8 text read from rd.
func FromReader(rd io.Reader) (*Rope[rune], error) {
	var b TextBuilder
	if _, err := b.ReadFrom(rd); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// String returns the text held by a rune rope.
// Use sparingly for large ropes.
func String(r *Rope[rune]) string {
	var sb strings.Builder
	sb.Grow(r.Len())
	for _, items := range r.Leaves() {
		for _, c := range items {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// Substring returns the text of count runes starting at start.
func Substring(r *Rope[rune], start, count int) (string, error) {
	if err := r.checkRange(start, count); err != nil {
		return "", fmt.Errorf("substring: %w", err)
	}
	var sb strings.Builder
	sb.Grow(count)
	r.root.walk(start, count, 0, func(items []rune, _ int) bool {
		for _, c := range items {
			sb.WriteRune(c)
		}
		return true
	})
	return sb.String(), nil
}

// InsertString inserts the runes of s at index.
func InsertString(r *Rope[rune], index int, s string) error {
	if len(s) == 0 {
		if index < 0 || index > r.Len() {
			return fmt.Errorf("insert at %d of %d: %w", index, r.Len(), ErrIndexOutOfRange)
		}
		return nil
	}
	if utf8.RuneCountInString(s) < NodeSize {
		var buf [NodeSize]rune
		n := 0
		for _, c := range s {
			buf[n] = c
			n++
		}
		return r.Insert(index, buf[:n]...)
	}
	return r.Insert(index, []rune(s)...)
}
