package history

import (
	"fmt"
	"math"
	"sync"

	"github.com/dshills/textcore/internal/engine/change"
)

// DefaultSizeLimit is the default maximum number of undo entries.
const DefaultSizeLimit = 1000

// noOriginal marks that the original file state is no longer reachable.
const noOriginal = math.MinInt

type playbackState uint8

const (
	stateListen playbackState = iota
	statePlayback
	statePlaybackModifyDocument
)

// Option configures an UndoStack.
type Option func(*UndoStack)

// WithSizeLimit sets the maximum number of entries kept on each stack.
// A limit of 0 disables undo; negative values are ignored.
func WithSizeLimit(n int) Option {
	return func(s *UndoStack) {
		if n >= 0 {
			s.sizeLimit = n
		}
	}
}

// UndoStack records document changes and replays them backwards and
// forwards. Changes pushed inside an undo group become one undo step.
type UndoStack struct {
	mu sync.Mutex

	doc   Document
	state playbackState

	undoStack []Operation
	redoStack []Operation
	sizeLimit int

	groupDepth          int
	groupActionCount    int
	groupOptionalCount  int
	lastGroupDescriptor any
	allowContinue       bool

	// Number of undo steps between the current state and the state marked
	// as original; noOriginal once that state is unreachable.
	elementsUntilOriginal int
	isOriginal            bool
}

// NewUndoStack creates an undo stack replaying changes onto doc.
func NewUndoStack(doc Document, opts ...Option) *UndoStack {
	s := &UndoStack{
		doc:        doc,
		sizeLimit:  DefaultSizeLimit,
		isOriginal: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PushChange records a document change. It is called by the document
// before the change is applied; a returned error aborts the change.
func (s *UndoStack) PushChange(ev *change.Event) error {
	s.mu.Lock()
	switch s.state {
	case statePlayback:
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", ev, ErrChangeDuringPlayback)
	case statePlaybackModifyDocument:
		// Exactly one change per replayed event.
		s.state = statePlayback
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	s.Push(&editOperation{event: ev})
	return nil
}

// Push adds op to the undo stack and clears the redo stack.
func (s *UndoStack) Push(op Operation) {
	s.push(op, false)
}

// PushOptional adds an operation that is dropped again if its group ends up
// containing nothing but optional operations.
func (s *UndoStack) PushOptional(op Operation) {
	s.push(op, true)
}

func (s *UndoStack) push(op Operation, optional bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateListen || s.sizeLimit == 0 {
		return
	}

	needsGroup := s.groupDepth == 0
	if needsGroup {
		s.startGroupLocked(nil, false)
	}
	s.undoStack = append(s.undoStack, op)
	s.groupActionCount++
	if optional {
		s.groupOptionalCount++
	} else {
		s.fileModified(1)
	}
	if needsGroup {
		_ = s.endGroupLocked()
	}
	s.clearRedoLocked()
}

// StartGroup opens an undo group. Groups nest; only the outermost one
// counts.
func (s *UndoStack) StartGroup(descriptor any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startGroupLocked(descriptor, false)
}

// StartContinuedGroup opens an undo group that merges with the previous
// undo step, provided nothing was undone or redone since that step.
func (s *UndoStack) StartContinuedGroup(descriptor any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startGroupLocked(descriptor, true)
}

func (s *UndoStack) startGroupLocked(descriptor any, continued bool) {
	if s.groupDepth == 0 {
		s.groupActionCount = 0
		if continued && s.allowContinue && len(s.undoStack) > 0 {
			s.groupActionCount = 1
		}
		s.groupOptionalCount = 0
		s.lastGroupDescriptor = descriptor
	}
	s.groupDepth++
}

// EndGroup closes the innermost undo group.
func (s *UndoStack) EndGroup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endGroupLocked()
}

func (s *UndoStack) endGroupLocked() error {
	if s.groupDepth == 0 {
		return ErrNoOpenGroup
	}
	s.groupDepth--
	if s.groupDepth > 0 || s.state != stateListen {
		// The group around a replay holds no operations of its own.
		return nil
	}

	s.allowContinue = true
	switch {
	case s.groupActionCount == s.groupOptionalCount:
		s.undoStack = s.undoStack[:len(s.undoStack)-s.groupOptionalCount]
		s.allowContinue = false
	case s.groupActionCount > 1:
		n := s.groupActionCount
		first := len(s.undoStack) - n
		ops := make([]Operation, n)
		copy(ops, s.undoStack[first:])
		s.undoStack = append(s.undoStack[:first], &groupOperation{ops: ops})
		s.fileModified(-n + 1 + s.groupOptionalCount)
	}
	s.enforceSizeLimit()
	s.recalcIsOriginal()
	return nil
}

// GroupDepth returns the number of open undo groups.
func (s *UndoStack) GroupDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupDepth
}

// LastGroupDescriptor returns the descriptor of the last undo group, or nil
// after an undo or redo.
func (s *UndoStack) LastGroupDescriptor() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastGroupDescriptor
}

// Undo reverts the last undo step.
func (s *UndoStack) Undo() error {
	return s.play(true)
}

// Redo reapplies the last undone step.
func (s *UndoStack) Redo() error {
	return s.play(false)
}

func (s *UndoStack) play(undo bool) error {
	s.mu.Lock()
	if s.groupDepth != 0 {
		s.mu.Unlock()
		return ErrGroupOpen
	}
	from, to := &s.undoStack, &s.redoStack
	if !undo {
		from, to = to, from
	}
	if len(*from) == 0 {
		s.mu.Unlock()
		if undo {
			return ErrNothingToUndo
		}
		return ErrNothingToRedo
	}
	op := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	s.lastGroupDescriptor = nil
	s.allowContinue = false
	s.state = statePlayback
	s.mu.Unlock()

	s.doc.BeginUpdate()
	var err error
	if undo {
		err = op.Undo(s)
	} else {
		err = op.Redo(s)
	}
	endErr := s.doc.EndUpdate()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateListen
	if err == nil {
		err = endErr
	}
	if err != nil {
		// A failed replay may have applied part of a group; the history no
		// longer matches the text, so it is discarded.
		s.clearAllLocked()
		return err
	}
	*to = append(*to, op)
	if undo {
		s.fileModified(-1)
	} else {
		s.fileModified(1)
	}
	s.recalcIsOriginal()
	return nil
}

// replay applies ev to the document on behalf of an operation.
func (s *UndoStack) replay(ev *change.Event) error {
	s.mu.Lock()
	s.state = statePlaybackModifyDocument
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.state = statePlayback
		s.mu.Unlock()
	}()

	var m change.Map
	if ev.HasCustomMap() {
		m = ev.Entries()
	}
	return s.doc.ReplaceWithMap(ev.Offset, ev.RemovalLength(), ev.InsertedText, m)
}

// CanUndo reports whether Undo has something to revert.
func (s *UndoStack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack) > 0
}

// CanRedo reports whether Redo has something to reapply.
func (s *UndoStack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack) > 0
}

// UndoCount returns the number of undo steps.
func (s *UndoStack) UndoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack)
}

// RedoCount returns the number of redo steps.
func (s *UndoStack) RedoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack)
}

// PeekUndo describes the next undo step.
func (s *UndoStack) PeekUndo() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.undoStack) == 0 {
		return "", false
	}
	return s.undoStack[len(s.undoStack)-1].Description(), true
}

// SizeLimit returns the maximum number of entries per stack.
func (s *UndoStack) SizeLimit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeLimit
}

// SetSizeLimit changes the maximum number of entries per stack. Oldest
// entries are dropped once no group is open.
func (s *UndoStack) SetSizeLimit(n int) error {
	if n < 0 {
		return fmt.Errorf("size limit %d: %w", n, ErrInvalidSizeLimit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizeLimit = n
	if s.groupDepth == 0 {
		s.enforceSizeLimit()
		s.recalcIsOriginal()
	}
	return nil
}

// IsOriginalFile reports whether the document is in the state last marked
// with MarkAsOriginalFile.
func (s *UndoStack) IsOriginalFile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOriginal
}

// MarkAsOriginalFile records the current state as the original, typically
// after the document was saved.
func (s *UndoStack) MarkAsOriginalFile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elementsUntilOriginal = 0
	s.recalcIsOriginal()
}

// DiscardOriginalFileMarker makes the original state unreachable.
func (s *UndoStack) DiscardOriginalFileMarker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elementsUntilOriginal = noOriginal
	s.recalcIsOriginal()
}

// ClearRedoStack drops all redo steps.
func (s *UndoStack) ClearRedoStack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearRedoLocked()
}

// ClearAll drops the whole history. Open groups stay open.
func (s *UndoStack) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearAllLocked()
}

func (s *UndoStack) clearAllLocked() {
	if len(s.undoStack) > 0 || len(s.redoStack) > 0 {
		s.undoStack = nil
		s.redoStack = nil
		if s.elementsUntilOriginal != 0 {
			s.elementsUntilOriginal = noOriginal
		}
	}
	s.groupActionCount = 0
	s.groupOptionalCount = 0
	s.allowContinue = false
	s.lastGroupDescriptor = nil
	s.recalcIsOriginal()
}

func (s *UndoStack) clearRedoLocked() {
	if len(s.redoStack) == 0 {
		return
	}
	s.redoStack = nil
	if s.elementsUntilOriginal < 0 {
		s.elementsUntilOriginal = noOriginal
	}
}

func (s *UndoStack) fileModified(n int) {
	if s.elementsUntilOriginal == noOriginal {
		return
	}
	s.elementsUntilOriginal += n
	if s.elementsUntilOriginal > len(s.undoStack) {
		s.elementsUntilOriginal = noOriginal
	}
}

func (s *UndoStack) enforceSizeLimit() {
	if n := len(s.undoStack) - s.sizeLimit; n > 0 {
		s.undoStack = append([]Operation(nil), s.undoStack[n:]...)
	}
	if n := len(s.redoStack) - s.sizeLimit; n > 0 {
		s.redoStack = append([]Operation(nil), s.redoStack[n:]...)
	}
	if s.elementsUntilOriginal != noOriginal &&
		(s.elementsUntilOriginal > len(s.undoStack) || -s.elementsUntilOriginal > len(s.redoStack)) {
		s.elementsUntilOriginal = noOriginal
	}
}

func (s *UndoStack) recalcIsOriginal() {
	s.isOriginal = s.elementsUntilOriginal == 0
}
