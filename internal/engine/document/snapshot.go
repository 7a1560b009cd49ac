package document

import (
	"fmt"

	"github.com/dshills/textcore/internal/engine/rope"
	"github.com/dshills/textcore/internal/engine/tracking"
)

// Snapshot is a read-only view of a document at one version. It shares
// the rope nodes of the document and stays unchanged while the document is
// modified. A Snapshot is safe for concurrent access.
type Snapshot struct {
	text    *rope.Rope[rune]
	version *tracking.Version
}

// Text returns the full snapshot content.
func (s *Snapshot) Text() string { return rope.String(s.text) }

// Len returns the number of characters.
func (s *Snapshot) Len() int { return s.text.Len() }

// CharAt returns the character at offset.
func (s *Snapshot) CharAt(offset int) (rune, error) {
	c, ok := s.text.At(offset)
	if !ok {
		return 0, fmt.Errorf("char at %d of %d: %w", offset, s.text.Len(), ErrOffsetOutOfRange)
	}
	return c, nil
}

// GetText returns length characters starting at offset.
func (s *Snapshot) GetText(offset, length int) (string, error) {
	str, err := rope.Substring(s.text, offset, length)
	if err != nil {
		return "", fmt.Errorf("snapshot text: %w", ErrOffsetOutOfRange)
	}
	return str, nil
}

// Version returns the document version the snapshot was taken at.
func (s *Snapshot) Version() *tracking.Version { return s.version }

// Rope returns a private copy of the snapshot text.
func (s *Snapshot) Rope() *rope.Rope[rune] { return s.text.Clone() }
