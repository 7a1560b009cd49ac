package change

// Listener receives document change events after the document and all of
// its internal indexes are consistent again.
type Listener interface {
	DocumentChanged(ev *Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ev *Event)

// DocumentChanged calls f(ev).
func (f ListenerFunc) DocumentChanged(ev *Event) { f(ev) }

// Source is anything that publishes change events.
type Source interface {
	// Subscribe registers l and returns a function that removes it.
	Subscribe(l Listener) (unsubscribe func())
}
