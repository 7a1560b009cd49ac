package tracking

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/textcore/internal/engine/rope"
)

// Snapshot is a named, immutable copy of a document's text together with
// the version it was taken at. Snapshots can be shared across goroutines.
type Snapshot struct {
	ID        string
	Name      string
	Timestamp time.Time
	Version   *Version

	text *rope.Rope[rune]
	seq  uint64
}

// NewSnapshot captures text at version v. The rope is cloned, so later
// writes to text do not show up in the snapshot.
func NewSnapshot(name string, text *rope.Rope[rune], v *Version) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now(),
		Version:   v,
		text:      text.Clone(),
	}
}

// Rope returns a private copy of the snapshot text.
func (s *Snapshot) Rope() *rope.Rope[rune] {
	return s.text.Clone()
}

// Text returns the full text of the snapshot.
func (s *Snapshot) Text() string {
	return rope.String(s.text)
}

// Len returns the number of characters in the snapshot.
func (s *Snapshot) Len() int {
	return s.text.Len()
}

// Age returns how long ago the snapshot was taken.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.Timestamp)
}

// SnapshotManager keeps named snapshots. All operations are thread-safe.
type SnapshotManager struct {
	mu     sync.RWMutex
	byID   map[string]*Snapshot
	byName map[string]*Snapshot
	seq    uint64
}

// NewSnapshotManager creates an empty manager.
func NewSnapshotManager() *SnapshotManager {
	return &SnapshotManager{
		byID:   make(map[string]*Snapshot),
		byName: make(map[string]*Snapshot),
	}
}

// Create stores a new snapshot and returns its id. A snapshot with the same
// non-empty name is replaced.
func (sm *SnapshotManager) Create(name string, text *rope.Rope[rune], v *Version) string {
	snap := NewSnapshot(name, text, v)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.seq++
	snap.seq = sm.seq
	if old, ok := sm.byName[name]; ok && name != "" {
		delete(sm.byID, old.ID)
	}
	sm.byID[snap.ID] = snap
	if name != "" {
		sm.byName[name] = snap
	}
	return snap.ID
}

// Get looks a snapshot up by id.
func (sm *SnapshotManager) Get(id string) (*Snapshot, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	snap, ok := sm.byID[id]
	return snap, ok
}

// GetByName looks a snapshot up by name.
func (sm *SnapshotManager) GetByName(name string) (*Snapshot, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	snap, ok := sm.byName[name]
	return snap, ok
}

// Delete removes the snapshot with the given id.
func (sm *SnapshotManager) Delete(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if snap, ok := sm.byID[id]; ok {
		sm.removeLocked(snap)
	}
}

// List returns all snapshots, oldest first.
func (sm *SnapshotManager) List() []*Snapshot {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sortedLocked()
}

// Names returns the names of all named snapshots in sorted order.
func (sm *SnapshotManager) Names() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	names := make([]string, 0, len(sm.byName))
	for name := range sm.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Count returns the number of snapshots.
func (sm *SnapshotManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.byID)
}

// Clear removes all snapshots.
func (sm *SnapshotManager) Clear() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	clear(sm.byID)
	clear(sm.byName)
}

// PruneKeepN removes the oldest snapshots so that at most n remain.
// Returns the number of snapshots removed.
func (sm *SnapshotManager) PruneKeepN(n int) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	snaps := sm.sortedLocked()
	if len(snaps) <= n {
		return 0
	}
	drop := snaps[:len(snaps)-max(n, 0)]
	for _, snap := range drop {
		sm.removeLocked(snap)
	}
	return len(drop)
}

func (sm *SnapshotManager) sortedLocked() []*Snapshot {
	snaps := make([]*Snapshot, 0, len(sm.byID))
	for _, snap := range sm.byID {
		snaps = append(snaps, snap)
	}
	slices.SortFunc(snaps, func(a, b *Snapshot) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return snaps
}

func (sm *SnapshotManager) removeLocked(snap *Snapshot) {
	delete(sm.byID, snap.ID)
	if snap.Name != "" && sm.byName[snap.Name] == snap {
		delete(sm.byName, snap.Name)
	}
}
