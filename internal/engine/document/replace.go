package document

import (
	"fmt"

	"github.com/dshills/textcore/internal/engine/change"
)

// ReplaceMode selects how a replacement moves the anchors and segments
// around it.
type ReplaceMode uint8

const (
	// ReplaceNormal treats the replacement as a single change. Anchors
	// inside the removed range are deleted or collapse to its start.
	ReplaceNormal ReplaceMode = iota

	// ReplaceRemoveAndInsert treats the replacement as a removal followed
	// by an insertion at the same offset.
	ReplaceRemoveAndInsert

	// ReplaceCharacters replaces characters one by one: anchors inside the
	// replaced range keep their offset as long as it still exists.
	ReplaceCharacters

	// ReplaceKeepAnchorBeforeInsertion behaves like ReplaceNormal, except
	// that anchors with default movement at the start of the range stay in
	// front of the inserted text.
	ReplaceKeepAnchorBeforeInsertion
)

// String returns a human-readable representation of the mode.
func (m ReplaceMode) String() string {
	switch m {
	case ReplaceNormal:
		return "normal"
	case ReplaceRemoveAndInsert:
		return "remove-and-insert"
	case ReplaceCharacters:
		return "characters"
	case ReplaceKeepAnchorBeforeInsertion:
		return "keep-anchor-before-insertion"
	default:
		return "unknown"
	}
}

// offsetMap builds the change map for a replacement of length characters
// at offset by insertion characters. A nil map means the default single
// entry.
func (m ReplaceMode) offsetMap(offset, length, insertion int) (change.Map, error) {
	switch m {
	case ReplaceNormal:
		return nil, nil
	case ReplaceKeepAnchorBeforeInsertion:
		return change.Map{{
			Offset:                           offset,
			RemovalLength:                    length,
			InsertionLength:                  insertion,
			DefaultMovementIsBeforeInsertion: true,
		}}, nil
	case ReplaceRemoveAndInsert:
		if length == 0 || insertion == 0 {
			return nil, nil
		}
		return change.Map{
			{Offset: offset, RemovalLength: length},
			{Offset: offset, InsertionLength: insertion},
		}, nil
	case ReplaceCharacters:
		switch {
		case length == 0 || insertion == 0:
			return nil, nil
		case insertion > length:
			return change.Map{{
				Offset:          offset + length - 1,
				RemovalLength:   1,
				InsertionLength: 1 + insertion - length,
			}}, nil
		case insertion < length:
			return change.Map{{
				Offset:                           offset + insertion,
				RemovalLength:                    length - insertion,
				RemovalNeverCausesAnchorDeletion: true,
			}}, nil
		default:
			return change.Map{}, nil
		}
	}
	return nil, fmt.Errorf("replace mode %d: %w", m, ErrInvalidReplaceMode)
}
