package document

import (
	"fmt"
	"iter"
	"slices"
	"unicode/utf8"

	"github.com/dshills/textcore/internal/engine/change"
	"github.com/dshills/textcore/internal/engine/history"
	"github.com/dshills/textcore/internal/engine/invariant"
	"github.com/dshills/textcore/internal/engine/rope"
	"github.com/dshills/textcore/internal/engine/tracking"
)

// Document is a text document: a rope of characters indexed by lines and
// tracked by anchors, versions and an undo stack.
//
// A Document has a single writer. It is not safe for concurrent use; take
// a Snapshot to read the text from other goroutines.
type Document struct {
	rope     *rope.Rope[rune]
	lines    *lineTree
	lineMgr  *lineManager
	anchors  *anchorTree
	versions *tracking.Provider
	undo     *history.UndoStack
	events   delayedEvents

	updateDepth       int
	inChanging        bool
	fireTextChanged   bool
	notifiedLineCount int

	changing         []func(*change.Event)
	changed          []func(*change.Event)
	textChanged      []func()
	lineCountChanged []func()
	updateStarted    []func()
	updateFinished   []func()
	listeners        []*listenerEntry

	initText string
	undoOpts []history.Option
}

type listenerEntry struct {
	l change.Listener
}

// New creates a document.
func New(opts ...Option) *Document {
	d := &Document{rope: rope.New[rune]()}
	for _, opt := range opts {
		opt(d)
	}
	d.lines = newLineTree(d)
	d.lineMgr = &lineManager{doc: d, tree: d.lines}
	d.anchors = newAnchorTree(d)
	d.versions = tracking.NewProvider()
	d.undo = history.NewUndoStack(d, d.undoOpts...)
	if d.initText != "" {
		d.rope = rope.FromString(d.initText)
		d.lineMgr.rebuild()
		d.initText = ""
	}
	d.notifiedLineCount = d.LineCount()
	return d
}

// Len returns the number of characters.
func (d *Document) Len() int { return d.rope.Len() }

// Text returns the whole text.
func (d *Document) Text() string { return rope.String(d.rope) }

// SetText replaces the whole text.
func (d *Document) SetText(text string) error {
	return d.Replace(0, d.rope.Len(), text)
}

// CharAt returns the character at offset.
func (d *Document) CharAt(offset int) (rune, error) {
	c, ok := d.rope.At(offset)
	if !ok {
		return 0, fmt.Errorf("char at %d of %d: %w", offset, d.rope.Len(), ErrOffsetOutOfRange)
	}
	return c, nil
}

// GetText returns length characters starting at offset.
func (d *Document) GetText(offset, length int) (string, error) {
	if err := d.checkRange(offset, length); err != nil {
		return "", err
	}
	s, _ := rope.Substring(d.rope, offset, length)
	return s, nil
}

// Insert inserts text at offset. Anchors at offset move according to their
// movement type.
func (d *Document) Insert(offset int, text string) error {
	return d.ReplaceWithMap(offset, 0, text, nil)
}

// InsertWithMovement inserts text at offset. Anchors at offset with
// default movement behave as if they had the given movement.
func (d *Document) InsertWithMovement(offset int, text string, movement change.MovementType) error {
	if movement == change.BeforeInsertion {
		return d.ReplaceWithMode(offset, 0, text, ReplaceKeepAnchorBeforeInsertion)
	}
	return d.Insert(offset, text)
}

// Remove removes length characters starting at offset.
func (d *Document) Remove(offset, length int) error {
	return d.ReplaceWithMap(offset, length, "", nil)
}

// Replace replaces length characters at offset with text.
func (d *Document) Replace(offset, length int, text string) error {
	return d.ReplaceWithMap(offset, length, text, nil)
}

// ReplaceWithMode replaces length characters at offset with text, moving
// anchors as mode describes.
func (d *Document) ReplaceWithMode(offset, length int, text string, mode ReplaceMode) error {
	m, err := mode.offsetMap(offset, length, utf8.RuneCountInString(text))
	if err != nil {
		return err
	}
	return d.ReplaceWithMap(offset, length, text, m)
}

// ReplaceWithMap replaces length characters at offset with text. A non-nil
// map describes how offsets move; it must be valid for the change.
//
// Changing handlers run before the text changes, Changed handlers and
// listeners after the lines and anchors were updated. Neither may modify
// the document.
func (d *Document) ReplaceWithMap(offset, length int, text string, m change.Map) error {
	if d.inChanging {
		return ErrNestedChange
	}
	if err := d.checkRange(offset, length); err != nil {
		return err
	}
	inserted := []rune(text)
	if length == 0 && len(inserted) == 0 {
		return nil
	}
	if m == nil && length == 1 && len(inserted) == 1 {
		// A single overwritten character moves nothing.
		m = change.Map{}
	}

	d.BeginUpdate()
	d.inChanging = true
	defer func() {
		d.inChanging = false
		_ = d.EndUpdate()
	}()

	removed, _ := rope.Substring(d.rope, offset, length)
	ev, err := change.NewEvent(offset, removed, string(inserted), m)
	if err != nil {
		return err
	}
	for _, fn := range d.changing {
		fn(ev)
	}
	if err := d.undo.PushChange(ev); err != nil {
		return err
	}
	d.versions.AppendChange(ev)

	if offset == 0 && length == d.rope.Len() {
		d.rope.Clear()
		d.rope.Append(inserted...)
		d.lineMgr.rebuild()
	} else {
		_ = d.rope.RemoveRange(offset, length)
		d.lineMgr.remove(offset, length)
		_ = d.rope.Insert(offset, inserted...)
		if len(inserted) > 0 {
			d.lineMgr.insert(offset, inserted)
		}
	}

	for _, e := range ev.Entries() {
		d.anchors.handleTextChange(e, &d.events)
	}
	d.lineMgr.changeComplete(ev)
	invariant.Check(d.CheckProperties)
	d.events.raise()

	d.fireTextChanged = true
	for _, fn := range d.changed {
		fn(ev)
	}
	for _, le := range slices.Clone(d.listeners) {
		le.l.DocumentChanged(ev)
	}
	return nil
}

func (d *Document) checkRange(offset, length int) error {
	if offset < 0 || length < 0 || offset > d.rope.Len()-length {
		return fmt.Errorf("range [%d, %d+%d) of %d: %w", offset, offset, length, d.rope.Len(), ErrOffsetOutOfRange)
	}
	return nil
}

// BeginUpdate starts a group of changes. Updates nest; TextChanged and
// LineCountChanged fire once at the end of the outermost update, and all
// changes in it form one undo step.
func (d *Document) BeginUpdate() {
	d.updateDepth++
	if d.updateDepth == 1 {
		d.undo.StartGroup(nil)
		for _, fn := range d.updateStarted {
			fn()
		}
	}
}

// EndUpdate ends a group of changes started with BeginUpdate.
func (d *Document) EndUpdate() error {
	if d.updateDepth == 0 {
		return ErrNoUpdate
	}
	if d.updateDepth > 1 {
		d.updateDepth--
		return nil
	}
	// Handlers may change the document again; keep firing until quiet.
	for d.fireTextChanged {
		d.fireTextChanged = false
		for _, fn := range d.textChanged {
			fn()
		}
		if n := d.LineCount(); n != d.notifiedLineCount {
			d.notifiedLineCount = n
			for _, fn := range d.lineCountChanged {
				fn()
			}
		}
	}
	err := d.undo.EndGroup()
	d.updateDepth = 0
	for _, fn := range d.updateFinished {
		fn()
	}
	return err
}

// IsInUpdate reports whether an update group is open.
func (d *Document) IsInUpdate() bool { return d.updateDepth > 0 }

// RunUpdate runs fn inside an update group.
func (d *Document) RunUpdate(fn func() error) error {
	d.BeginUpdate()
	err := fn()
	if endErr := d.EndUpdate(); err == nil {
		err = endErr
	}
	return err
}

// OnChanging registers fn to run before each change is applied.
func (d *Document) OnChanging(fn func(*change.Event)) {
	d.changing = append(d.changing, fn)
}

// OnChanged registers fn to run after each change was applied.
func (d *Document) OnChanged(fn func(*change.Event)) {
	d.changed = append(d.changed, fn)
}

// OnTextChanged registers fn to run once at the end of an update that
// changed the text.
func (d *Document) OnTextChanged(fn func()) {
	d.textChanged = append(d.textChanged, fn)
}

// OnLineCountChanged registers fn to run at the end of an update that
// changed the number of lines.
func (d *Document) OnLineCountChanged(fn func()) {
	d.lineCountChanged = append(d.lineCountChanged, fn)
}

// OnUpdateStarted registers fn to run when the outermost update starts.
func (d *Document) OnUpdateStarted(fn func()) {
	d.updateStarted = append(d.updateStarted, fn)
}

// OnUpdateFinished registers fn to run when the outermost update ends.
func (d *Document) OnUpdateFinished(fn func()) {
	d.updateFinished = append(d.updateFinished, fn)
}

// Subscribe implements change.Source. Listeners are notified after every
// change, once lines and anchors reflect it.
func (d *Document) Subscribe(l change.Listener) (unsubscribe func()) {
	le := &listenerEntry{l: l}
	d.listeners = append(d.listeners, le)
	return func() {
		if i := slices.Index(d.listeners, le); i >= 0 {
			d.listeners = slices.Delete(d.listeners, i, i+1)
		}
	}
}

// LineCount returns the number of lines. An empty document has one line.
func (d *Document) LineCount() int { return d.lines.count() }

// LineByNumber returns the line with the 1-based number.
func (d *Document) LineByNumber(number int) (*Line, error) {
	if number < 1 || number > d.lines.count() {
		return nil, fmt.Errorf("line %d of %d: %w", number, d.lines.count(), ErrLineOutOfRange)
	}
	return d.lines.byIndex(number - 1), nil
}

// LineByOffset returns the line containing offset.
func (d *Document) LineByOffset(offset int) (*Line, error) {
	if offset < 0 || offset > d.rope.Len() {
		return nil, fmt.Errorf("line at %d of %d: %w", offset, d.rope.Len(), ErrOffsetOutOfRange)
	}
	return d.lines.byOffset(offset), nil
}

// Lines iterates over all lines in order. The document must not change
// during iteration.
func (d *Document) Lines() iter.Seq[*Line] {
	return func(yield func(*Line) bool) {
		for l := d.lines.First(); l != nil; l = d.lines.Successor(l) {
			if !yield(l) {
				return
			}
		}
	}
}

// LineText returns the text of a line without its delimiter.
func (d *Document) LineText(l *Line) (string, error) {
	if l.deleted || l.doc != d {
		return "", ErrDeletedLine
	}
	return d.GetText(l.Offset(), l.Length())
}

// Location converts an offset into a line and column.
func (d *Document) Location(offset int) (Location, error) {
	l, err := d.LineByOffset(offset)
	if err != nil {
		return Location{}, err
	}
	return Location{Line: l.Number(), Column: offset - l.Offset() + 1}, nil
}

// Offset converts a line and column into an offset. Columns outside the
// line are clamped to its start or end.
func (d *Document) Offset(line, column int) (int, error) {
	l, err := d.LineByNumber(line)
	if err != nil {
		return 0, err
	}
	off := l.Offset()
	switch {
	case column <= 1:
		return off, nil
	case column > l.Length():
		return off + l.Length(), nil
	}
	return off + column - 1, nil
}

// CreateAnchor creates an anchor at offset with default movement that is
// deleted together with the text around it.
func (d *Document) CreateAnchor(offset int) (*Anchor, error) {
	return d.CreateAnchorWith(offset, change.Default, false)
}

// CreateAnchorWith creates an anchor at offset.
func (d *Document) CreateAnchorWith(offset int, movement change.MovementType, survivesDeletion bool) (*Anchor, error) {
	if offset < 0 || offset > d.rope.Len() {
		return nil, fmt.Errorf("anchor at %d of %d: %w", offset, d.rope.Len(), ErrOffsetOutOfRange)
	}
	return d.anchors.createAnchor(offset, movement, survivesDeletion), nil
}

// CollectAnchors drops tree entries of anchors that were garbage
// collected and returns how many were dropped. Entries are also dropped
// lazily by edits.
func (d *Document) CollectAnchors() int { return d.anchors.collect() }

// AddLineTracker registers a line tracker.
func (d *Document) AddLineTracker(t LineTracker) { d.lineMgr.addTracker(t) }

// RemoveLineTracker unregisters a line tracker.
func (d *Document) RemoveLineTracker(t LineTracker) bool { return d.lineMgr.removeTracker(t) }

// Version returns the current version.
func (d *Document) Version() *tracking.Version { return d.versions.Current() }

// UndoStack returns the undo stack of the document.
func (d *Document) UndoStack() *history.UndoStack { return d.undo }

// Snapshot returns an immutable copy of the current text.
func (d *Document) Snapshot() *Snapshot {
	return &Snapshot{text: d.rope.Clone(), version: d.versions.Current()}
}

// DetectLineEnding returns the style of the first delimiter, or
// LineEndingLF for a single-line document.
func (d *Document) DetectLineEnding() LineEnding {
	first := d.lines.First()
	switch first.delimiterLength {
	case 2:
		return LineEndingCRLF
	case 1:
		if c, _ := d.rope.At(first.totalLength - 1); c == '\r' {
			return LineEndingCR
		}
	}
	return LineEndingLF
}

// CheckProperties validates the rope, the line tree against the text and
// the anchor tree.
func (d *Document) CheckProperties() error {
	if err := d.rope.CheckInvariants(); err != nil {
		return err
	}
	if err := d.lines.checkProperties(); err != nil {
		return err
	}
	if d.lines.totalLength() != d.rope.Len() {
		return invariant.Violation("lines cover %d of %d characters", d.lines.totalLength(), d.rope.Len())
	}
	line := d.lines.First()
	lastEnd := 0
	for pos, n := nextNewlineInRope(d.rope, 0); pos >= 0; pos, n = nextNewlineInRope(d.rope, lastEnd) {
		if line == nil {
			return invariant.Violation("missing line for delimiter at %d", pos)
		}
		if line.totalLength != pos+n-lastEnd || line.delimiterLength != n {
			return invariant.Violation("%s does not end at delimiter %d+%d", line, pos, n)
		}
		lastEnd = pos + n
		line = d.lines.Successor(line)
	}
	if line == nil || d.lines.Successor(line) != nil || line.delimiterLength != 0 {
		return invariant.Violation("line count %d does not match text", d.lines.count())
	}
	if d.anchors.totalLength() > d.rope.Len() {
		return invariant.Violation("anchor beyond end: %d > %d", d.anchors.totalLength(), d.rope.Len())
	}
	return d.anchors.checkProperties()
}

