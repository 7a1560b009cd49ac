package tracking

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/textcore/internal/engine/change"
)

// Provider hands out the versions of one document. Each AppendChange moves
// the current version forward; older versions stay valid for as long as
// somebody holds them.
//
// AppendChange must only be called by the document's writer. Versions may
// be read from any goroutine.
type Provider struct {
	id      uuid.UUID
	current atomic.Pointer[Version]
}

// NewProvider creates a provider with a fresh identity.
func NewProvider() *Provider {
	p := &Provider{id: uuid.New()}
	p.current.Store(&Version{provider: p})
	return p
}

// ID returns the provider identity.
func (p *Provider) ID() uuid.UUID {
	return p.id
}

// Current returns the newest version.
func (p *Provider) Current() *Version {
	return p.current.Load()
}

// AppendChange records ev as the change leading from the current version
// to a new one.
func (p *Provider) AppendChange(ev *change.Event) {
	cur := p.current.Load()
	next := &Version{provider: p, id: cur.id + 1}
	cur.change = ev
	cur.next.Store(next)
	p.current.Store(next)
}

// Version is a checkpoint in a document's history. Versions form a
// forward-linked chain, so holding an old version keeps the changes since
// then reachable.
type Version struct {
	provider *Provider
	id       uint64
	change   *change.Event
	next     atomic.Pointer[Version]
}

// ID returns the sequence number of the version within its provider.
func (v *Version) ID() uint64 {
	return v.id
}

// ProviderID returns the identity of the provider that created v.
func (v *Version) ProviderID() uuid.UUID {
	return v.provider.id
}

// BelongsToSameDocumentAs reports whether v and other come from the same
// provider.
func (v *Version) BelongsToSameDocumentAs(other *Version) bool {
	return other != nil && v.provider == other.provider
}

// CompareAge returns a negative number if v is older than other, zero if
// they are the same version and a positive number if v is newer.
func (v *Version) CompareAge(other *Version) (int, error) {
	if !v.BelongsToSameDocumentAs(other) {
		return 0, fmt.Errorf("compare age: %w", ErrDifferentProvider)
	}
	switch {
	case v.id < other.id:
		return -1, nil
	case v.id > other.id:
		return 1, nil
	default:
		return 0, nil
	}
}

// ChangesTo returns the events that turn the text at v into the text at
// other. When other is older than v, the inverted events are returned in
// reverse order.
func (v *Version) ChangesTo(other *Version) ([]*change.Event, error) {
	age, err := v.CompareAge(other)
	if err != nil {
		return nil, fmt.Errorf("changes to: %w", err)
	}
	switch {
	case age < 0:
		return v.forwardTo(other), nil
	case age > 0:
		events := other.forwardTo(v)
		slices.Reverse(events)
		for i, ev := range events {
			events[i] = ev.Invert()
		}
		return events, nil
	default:
		return nil, nil
	}
}

func (v *Version) forwardTo(newer *Version) []*change.Event {
	var events []*change.Event
	for cur := v; cur != newer; cur = cur.next.Load() {
		events = append(events, cur.change)
	}
	return events
}

// MoveOffsetTo translates an offset in the text at v into the text at
// other.
func (v *Version) MoveOffsetTo(other *Version, offset int, movement change.MovementType) (int, error) {
	events, err := v.ChangesTo(other)
	if err != nil {
		return 0, err
	}
	for _, ev := range events {
		offset = ev.NewOffset(offset, movement)
	}
	return offset, nil
}

func (v *Version) String() string {
	return fmt.Sprintf("%s@%d", v.provider.id, v.id)
}
