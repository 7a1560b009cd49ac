package history

// GroupScope closes an undo group when End is called, typically with defer:
//
//	func indentLines(s *UndoStack, doc *document.Document) {
//	    defer s.GroupScope("indent").End()
//	    // ... multiple edits ...
//	}
type GroupScope struct {
	stack  *UndoStack
	active bool
}

// GroupScope starts a new undo group.
func (s *UndoStack) GroupScope(descriptor any) *GroupScope {
	s.StartGroup(descriptor)
	return &GroupScope{stack: s, active: true}
}

// End closes the group. Only the first call has an effect.
func (g *GroupScope) End() {
	if g.active {
		_ = g.stack.EndGroup()
		g.active = false
	}
}

// Transaction runs fn inside an undo group. If fn fails, the edits it made
// are undone and do not appear on the redo stack.
func (s *UndoStack) Transaction(descriptor any, fn func() error) error {
	before := s.UndoCount()
	outermost := s.GroupDepth() == 0
	s.StartGroup(descriptor)
	err := fn()
	if endErr := s.EndGroup(); err == nil {
		err = endErr
	}
	if err == nil || !outermost || s.UndoCount() <= before {
		return err
	}
	if undoErr := s.Undo(); undoErr != nil {
		return undoErr
	}
	s.mu.Lock()
	s.redoStack = s.redoStack[:len(s.redoStack)-1]
	s.clearRedoMarkerLocked()
	s.mu.Unlock()
	return err
}

// clearRedoMarkerLocked drops the original-file marker if it pointed into
// a redo step that no longer exists.
func (s *UndoStack) clearRedoMarkerLocked() {
	if s.elementsUntilOriginal < -len(s.redoStack) {
		s.elementsUntilOriginal = noOriginal
		s.recalcIsOriginal()
	}
}
