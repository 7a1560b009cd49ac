//go:build textcore_debug

package invariant

// Enabled reports whether mutations re-validate the structures they touch.
const Enabled = true
