package document

import "github.com/dshills/textcore/internal/engine/history"

// Option configures a Document during creation.
type Option func(*Document)

// WithText sets the initial text. It is not recorded in the undo history.
func WithText(text string) Option {
	return func(d *Document) {
		d.initText = text
	}
}

// WithUndoSizeLimit sets the maximum number of undo steps.
func WithUndoSizeLimit(n int) Option {
	return func(d *Document) {
		d.undoOpts = append(d.undoOpts, history.WithSizeLimit(n))
	}
}
