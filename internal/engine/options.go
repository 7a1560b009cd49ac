package engine

import "github.com/dshills/textcore/internal/logging"

// Default configuration values.
const (
	DefaultMaxUndoEntries = 1000
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial content of the engine.
func WithContent(content string) Option {
	return func(e *Engine) {
		e.initContent = content
	}
}

// WithMaxUndoEntries sets the maximum number of undo steps kept.
// Zero disables undo.
func WithMaxUndoEntries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxUndoEntries = n
		}
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}

// WithLogger sets the logger. The engine logs under the "engine"
// component.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithVerifyInvariants makes every write check the document's internal
// consistency and fail if it is broken.
func WithVerifyInvariants(enabled bool) Option {
	return func(e *Engine) {
		e.verify = enabled
	}
}
