package history

import (
	"fmt"

	"github.com/dshills/textcore/internal/engine/change"
)

// Document is the part of a document the undo stack drives during replay.
type Document interface {
	// ReplaceWithMap replaces length characters at offset with text. A nil
	// map means the default single-entry offset mapping.
	ReplaceWithMap(offset, length int, text string, m change.Map) error
	BeginUpdate()
	EndUpdate() error
}

// Operation is one undoable unit on the stack.
type Operation interface {
	Undo(s *UndoStack) error
	Redo(s *UndoStack) error
	Description() string
}

// editOperation records one document change.
type editOperation struct {
	event *change.Event
}

func (op *editOperation) Undo(s *UndoStack) error {
	return s.replay(op.event.Invert())
}

func (op *editOperation) Redo(s *UndoStack) error {
	return s.replay(op.event)
}

func (op *editOperation) Description() string {
	return op.event.String()
}

// groupOperation undoes and redoes its members as one unit.
type groupOperation struct {
	ops []Operation
}

func (g *groupOperation) Undo(s *UndoStack) error {
	for i := len(g.ops) - 1; i >= 0; i-- {
		if err := g.ops[i].Undo(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *groupOperation) Redo(s *UndoStack) error {
	for _, op := range g.ops {
		if err := op.Redo(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *groupOperation) Description() string {
	return fmt.Sprintf("group of %d", len(g.ops))
}
