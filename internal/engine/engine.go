package engine

import (
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/dshills/textcore/internal/engine/change"
	"github.com/dshills/textcore/internal/engine/document"
	"github.com/dshills/textcore/internal/engine/segment"
	"github.com/dshills/textcore/internal/engine/tracking"
	"github.com/dshills/textcore/internal/logging"
)

// Re-export commonly used types for convenience.
type (
	// Anchor is a position that follows edits.
	Anchor = document.Anchor

	// Location is a 1-based line/column position.
	Location = document.Location

	// MovementType controls how anchors react to insertions at their offset.
	MovementType = change.MovementType

	// Version identifies a state of the text.
	Version = tracking.Version

	// Snapshot is an immutable copy of the text.
	Snapshot = document.Snapshot
)

// Re-export constants.
const (
	MoveDefault         = change.Default
	MoveBeforeInsertion = change.BeforeInsertion
	MoveAfterInsertion  = change.AfterInsertion
)

// LineInfo describes one line of the text.
type LineInfo struct {
	Number          int
	Offset          int
	Length          int
	DelimiterLength int
}

// EndOffset returns the offset after the line's content, before its
// delimiter.
func (li LineInfo) EndOffset() int { return li.Offset + li.Length }

// Engine is the thread-safe facade over a document. Reads take a shared
// lock and writes an exclusive one, so any number of goroutines may use an
// Engine concurrently.
type Engine struct {
	mu sync.RWMutex

	doc       *document.Document
	snapshots *tracking.SnapshotManager
	log       *logging.Logger

	// Configuration
	maxUndoEntries int
	readOnly       bool
	verify         bool
	logger         *logging.Logger

	initContent string
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxUndoEntries: DefaultMaxUndoEntries,
		logger:         logging.NullLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.logger.WithComponent("engine")
	e.doc = document.New(
		document.WithText(e.initContent),
		document.WithUndoSizeLimit(e.maxUndoEntries),
	)
	e.snapshots = tracking.NewSnapshotManager()
	e.log.Debug("created engine: %d chars, %d lines", e.doc.Len(), e.doc.LineCount())
	return e
}

// NewFromReader creates an Engine with the content read from r.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	return New(append(opts, WithContent(string(data)))...), nil
}

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the full content.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Text()
}

// TextRange returns length characters starting at offset.
func (e *Engine) TextRange(offset, length int) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.GetText(offset, length)
}

// Len returns the number of characters.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Len()
}

// LineCount returns the number of lines. An empty text has one line.
func (e *Engine) LineCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.LineCount()
}

// LineInfo describes the line with the given 1-based number.
func (e *Engine) LineInfo(number int) (LineInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, err := e.doc.LineByNumber(number)
	if err != nil {
		return LineInfo{}, err
	}
	return lineInfo(l), nil
}

// LineInfoAt describes the line containing offset.
func (e *Engine) LineInfoAt(offset int) (LineInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, err := e.doc.LineByOffset(offset)
	if err != nil {
		return LineInfo{}, err
	}
	return lineInfo(l), nil
}

func lineInfo(l *document.Line) LineInfo {
	return LineInfo{
		Number:          l.Number(),
		Offset:          l.Offset(),
		Length:          l.Length(),
		DelimiterLength: l.DelimiterLength(),
	}
}

// LineText returns the text of a line without its delimiter.
func (e *Engine) LineText(number int) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, err := e.doc.LineByNumber(number)
	if err != nil {
		return "", err
	}
	return e.doc.LineText(l)
}

// Location converts an offset to a line/column position.
func (e *Engine) Location(offset int) (Location, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Location(offset)
}

// Offset converts a line/column position to an offset.
func (e *Engine) Offset(line, column int) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Offset(line, column)
}

// ============================================================================
// Write Operations
// ============================================================================

// Insert inserts text at offset and returns the offset after it.
func (e *Engine) Insert(offset int, text string) (int, error) {
	err := e.write(func(d *document.Document) error {
		return d.Insert(offset, text)
	})
	if err != nil {
		return 0, err
	}
	return offset + utf8.RuneCountInString(text), nil
}

// Remove deletes length characters starting at offset.
func (e *Engine) Remove(offset, length int) error {
	return e.write(func(d *document.Document) error {
		return d.Remove(offset, length)
	})
}

// Replace replaces length characters starting at offset with text.
func (e *Engine) Replace(offset, length int, text string) error {
	return e.write(func(d *document.Document) error {
		return d.Replace(offset, length, text)
	})
}

// Reload replaces the content with text as a single edit covering only
// the part that differs, so anchors and segments outside of it keep their
// positions.
func (e *Engine) Reload(text string) error {
	return e.write(func(d *document.Document) error {
		old := []rune(d.Text())
		updated := []rune(text)
		prefix := 0
		for prefix < len(old) && prefix < len(updated) && old[prefix] == updated[prefix] {
			prefix++
		}
		suffix := 0
		for suffix < len(old)-prefix && suffix < len(updated)-prefix &&
			old[len(old)-1-suffix] == updated[len(updated)-1-suffix] {
			suffix++
		}
		removed := len(old) - prefix - suffix
		inserted := string(updated[prefix : len(updated)-suffix])
		if removed == 0 && inserted == "" {
			return nil
		}
		e.log.Debug("reload: replacing %d chars at %d", removed, prefix)
		return d.Replace(prefix, removed, inserted)
	})
}

// Update runs fn with exclusive access to the document. The changes fn
// makes form one undo step and raise one TextChanged notification.
func (e *Engine) Update(fn func(d *document.Document) error) error {
	return e.write(func(d *document.Document) error {
		return d.RunUpdate(func() error { return fn(d) })
	})
}

// Exclusive runs fn holding the write lock, without an update bracket and
// regardless of read-only mode. It is meant for changes to segment
// collections, which are not document edits.
func (e *Engine) Exclusive(fn func(d *document.Document) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.doc)
}

// View runs fn with shared access to the document. fn must not modify it.
func (e *Engine) View(fn func(d *document.Document) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.doc)
}

func (e *Engine) write(fn func(d *document.Document) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	if err := fn(e.doc); err != nil {
		return err
	}
	return e.verifyLocked()
}

func (e *Engine) verifyLocked() error {
	if !e.verify {
		return nil
	}
	if err := e.doc.CheckProperties(); err != nil {
		e.log.Error("invariant check failed: %v", err)
		return fmt.Errorf("verify: %w", err)
	}
	return nil
}

// Verify checks the internal consistency of the document.
func (e *Engine) Verify() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.CheckProperties()
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo undoes the last undo step.
func (e *Engine) Undo() error {
	return e.write(func(d *document.Document) error {
		return d.UndoStack().Undo()
	})
}

// Redo redoes the last undone step.
func (e *Engine) Redo() error {
	return e.write(func(d *document.Document) error {
		return d.UndoStack().Redo()
	})
}

// CanUndo reports whether there is a step to undo.
func (e *Engine) CanUndo() bool {
	return e.doc.UndoStack().CanUndo()
}

// CanRedo reports whether there is a step to redo.
func (e *Engine) CanRedo() bool {
	return e.doc.UndoStack().CanRedo()
}

// BeginUndoGroup starts an undo group. All changes until the matching
// EndUndoGroup are undone as a single step. Groups nest.
func (e *Engine) BeginUndoGroup(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc.UndoStack().StartGroup(name)
}

// EndUndoGroup ends the innermost undo group.
func (e *Engine) EndUndoGroup() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.UndoStack().EndGroup()
}

// IsModified reports whether the text differs from the state last marked
// with MarkSaved.
func (e *Engine) IsModified() bool {
	return !e.doc.UndoStack().IsOriginalFile()
}

// MarkSaved records the current state as the unmodified one.
func (e *Engine) MarkSaved() {
	e.doc.UndoStack().MarkAsOriginalFile()
}

// ClearHistory removes all undo and redo steps.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc.UndoStack().ClearAll()
}

// ============================================================================
// Anchors
// ============================================================================

// CreateAnchor creates an anchor at offset.
func (e *Engine) CreateAnchor(offset int, movement MovementType, survivesDeletion bool) (*Anchor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.CreateAnchorWith(offset, movement, survivesDeletion)
}

// AnchorOffset returns the current offset of a, or -1 if it was deleted.
func (e *Engine) AnchorOffset(a *Anchor) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if a.IsDeleted() {
		return -1
	}
	return a.Offset()
}

// ============================================================================
// Segments
// ============================================================================

// NewSegments creates a segment collection that follows the engine's
// edits. Query the collection inside View and change it inside Exclusive
// when other goroutines use the engine.
func NewSegments[T any](e *Engine) *segment.Collection[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := segment.NewCollection[T]()
	c.Connect(e.doc)
	return c
}

// ============================================================================
// Versions and Snapshots
// ============================================================================

// Version returns the current version.
func (e *Engine) Version() *Version {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Version()
}

// Snapshot returns an immutable copy of the current text.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Snapshot()
}

// CreateSnapshot stores a named snapshot of the current text and returns
// its id. A snapshot with the same name is replaced.
func (e *Engine) CreateSnapshot(name string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	snap := e.doc.Snapshot()
	id := e.snapshots.Create(name, snap.Rope(), snap.Version())
	e.log.Debug("snapshot %q created with id %s", name, id)
	return id
}

// SnapshotText returns the text of the snapshot with the given id.
func (e *Engine) SnapshotText(id string) (string, error) {
	snap, ok := e.snapshots.Get(id)
	if !ok {
		return "", fmt.Errorf("snapshot %s: %w", id, ErrSnapshotNotFound)
	}
	return snap.Text(), nil
}

// SnapshotByName returns the id of the snapshot with the given name.
func (e *Engine) SnapshotByName(name string) (string, bool) {
	snap, ok := e.snapshots.GetByName(name)
	if !ok {
		return "", false
	}
	return snap.ID, true
}

// DeleteSnapshot removes a snapshot.
func (e *Engine) DeleteSnapshot(id string) {
	e.snapshots.Delete(id)
}

// ChangesSince returns the changes made since the snapshot with the given
// id was taken.
func (e *Engine) ChangesSince(id string) ([]*change.Event, error) {
	snap, ok := e.snapshots.Get(id)
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrSnapshotNotFound)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return snap.Version.ChangesTo(e.doc.Version())
}

// ============================================================================
// Configuration
// ============================================================================

// IsReadOnly reports whether writes are refused.
func (e *Engine) IsReadOnly() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.readOnly
}

// SetReadOnly enables or disables writes.
func (e *Engine) SetReadOnly(readOnly bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readOnly = readOnly
}
