package segment

import (
	"errors"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/dshills/textcore/internal/engine/change"
	"github.com/dshills/textcore/internal/engine/document"
)

func mustAdd[T any](t *testing.T, c *Collection[T], s *Segment[T]) *Segment[T] {
	t.Helper()
	if err := c.Add(s); err != nil {
		t.Fatalf("Add(%v): %v", s, err)
	}
	return s
}

func checkCollection[T any](t *testing.T, c *Collection[T]) {
	t.Helper()
	if err := c.CheckProperties(); err != nil {
		t.Fatalf("CheckProperties: %v", err)
	}
	prev := -1
	for s := range c.All() {
		if s.StartOffset() < prev {
			t.Fatalf("segments out of order: %v after offset %d", s, prev)
		}
		prev = s.StartOffset()
	}
}

func edit(t *testing.T, c *Collection[int], offset, removal, insertion int) {
	t.Helper()
	ev, err := change.NewEvent(offset, strings.Repeat("r", removal), strings.Repeat("i", insertion), nil)
	if err != nil {
		t.Fatal(err)
	}
	c.UpdateOffsets(ev)
}

func span(s *Segment[int]) [2]int { return [2]int{s.StartOffset(), s.EndOffset()} }

func TestAddAndFind(t *testing.T) {
	c := NewCollection[int]()
	a := mustAdd(t, c, New(10, 5, 1))
	b := mustAdd(t, c, New(0, 3, 2))
	d := mustAdd(t, c, New(12, 10, 3))
	e := mustAdd(t, c, New(12, 0, 4))
	checkCollection(t, c)

	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}
	var order []int
	for s := range c.All() {
		order = append(order, s.Value)
	}
	if !slices.Equal(order, []int{2, 1, 3, 4}) {
		t.Errorf("order = %v, want [2 1 3 4]", order)
	}

	tests := []struct {
		name   string
		offset int
		length int
		want   []*Segment[int]
	}{
		{"empty window at gap", 5, 0, nil},
		{"window touching end", 3, 7, nil},
		{"window covering first", 0, 1, []*Segment[int]{b}},
		{"window at overlap", 12, 1, []*Segment[int]{a, d}},
		{"window after first end", 15, 100, []*Segment[int]{d}},
		{"everything", 0, 100, []*Segment[int]{b, a, d, e}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.FindOverlapping(tt.offset, tt.length)
			if !slices.Equal(got, tt.want) {
				t.Errorf("FindOverlapping(%d, %d) = %v, want %v", tt.offset, tt.length, got, tt.want)
			}
		})
	}

	if got := c.FindContaining(15); !slices.Equal(got, []*Segment[int]{a, d}) {
		t.Errorf("FindContaining(15) = %v", got)
	}
	if got := c.FindContaining(12); len(got) != 3 || got[0] != a {
		t.Errorf("FindContaining(12) = %v, want a, d, e", got)
	}
	if got := c.FindFirstStartingAfter(4); got != a {
		t.Errorf("FindFirstStartingAfter(4) = %v, want %v", got, a)
	}
	if got := c.FindFirstStartingAfter(23); got != nil {
		t.Errorf("FindFirstStartingAfter(23) = %v, want nil", got)
	}
	if c.Next(b) != a || c.Previous(a) != b || c.Previous(b) != nil {
		t.Error("Next/Previous disagree with start order")
	}
	if !c.Contains(e) {
		t.Error("Contains(e) = false")
	}
}

func TestRemoveKeepsOffsets(t *testing.T) {
	c := NewCollection[int]()
	var segs []*Segment[int]
	for i := range 20 {
		segs = append(segs, mustAdd(t, c, New(i*3, 2+i%4, i)))
	}
	for _, s := range segs[5:12] {
		before := span(s)
		if err := c.Remove(s); err != nil {
			t.Fatal(err)
		}
		if span(s) != before {
			t.Errorf("detached span %v, want %v", span(s), before)
		}
		if c.Contains(s) || s.Collection() != nil {
			t.Errorf("%v still owned", s)
		}
		checkCollection(t, c)
	}
	for _, s := range segs[12:] {
		if got, want := s.StartOffset(), s.Value*3; got != want {
			t.Errorf("segment %d start = %d, want %d", s.Value, got, want)
		}
	}
	// Adding back restores the original layout.
	for _, s := range segs[5:12] {
		mustAdd(t, c, s)
	}
	checkCollection(t, c)
	for i, s := range segs {
		if s.StartOffset() != i*3 {
			t.Errorf("segment %d start = %d, want %d", i, s.StartOffset(), i*3)
		}
	}
}

func TestOwnershipErrors(t *testing.T) {
	c1, c2 := NewCollection[int](), NewCollection[int]()
	s := mustAdd(t, c1, New(0, 1, 0))
	if err := c2.Add(s); !errors.Is(err, ErrSegmentInUse) {
		t.Errorf("Add to second collection: %v, want ErrSegmentInUse", err)
	}
	if err := c1.Add(s); !errors.Is(err, ErrSegmentInUse) {
		t.Errorf("Add twice: %v, want ErrSegmentInUse", err)
	}
	if err := c2.Remove(s); !errors.Is(err, ErrForeignSegment) {
		t.Errorf("Remove from foreign collection: %v, want ErrForeignSegment", err)
	}
	if c2.Next(s) != nil {
		t.Error("Next on foreign collection returned a segment")
	}
	if err := s.SetLength(-1); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("SetLength(-1): %v", err)
	}
	if err := s.SetStartOffset(-2); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("SetStartOffset(-2): %v", err)
	}
}

func TestSetters(t *testing.T) {
	c := NewCollection[int]()
	a := mustAdd(t, c, New(0, 4, 1))
	b := mustAdd(t, c, New(10, 4, 2))

	if err := a.SetStartOffset(20); err != nil {
		t.Fatal(err)
	}
	if span(a) != [2]int{20, 24} || span(b) != [2]int{10, 14} {
		t.Errorf("spans after move = %v %v", span(a), span(b))
	}
	if c.Next(b) != a {
		t.Error("moved segment not reordered")
	}
	if err := b.SetEndOffset(30); err != nil {
		t.Fatal(err)
	}
	if got := c.FindOverlapping(25, 1); !slices.Equal(got, []*Segment[int]{b}) {
		t.Errorf("FindOverlapping after extend = %v", got)
	}
	if err := b.SetEndOffset(5); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("SetEndOffset before start: %v", err)
	}
	checkCollection(t, c)
}

func TestModifyWhileIterating(t *testing.T) {
	c := NewCollection[int]()
	a := mustAdd(t, c, New(0, 1, 0))
	for range c.All() {
		if err := c.Add(New(5, 1, 1)); !errors.Is(err, ErrIterationActive) {
			t.Errorf("Add: %v", err)
		}
		if err := c.Remove(a); !errors.Is(err, ErrIterationActive) {
			t.Errorf("Remove: %v", err)
		}
		if err := a.SetLength(3); !errors.Is(err, ErrIterationActive) {
			t.Errorf("SetLength: %v", err)
		}
		if err := c.Clear(); !errors.Is(err, ErrIterationActive) {
			t.Errorf("Clear: %v", err)
		}
		func() {
			defer func() {
				if r := recover(); r != ErrIterationActive {
					t.Errorf("UpdateOffsets recovered %v", r)
				}
			}()
			edit(t, c, 0, 0, 1)
		}()
	}
	// The iteration is over; modifications work again.
	if err := c.Remove(a); err != nil {
		t.Fatal(err)
	}
}

func TestInsertionAtBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		want   [2]int
	}{
		{"before", 2, [2]int{12, 17}},
		{"at start", 5, [2]int{12, 17}},
		{"inside", 7, [2]int{5, 17}},
		{"at end", 10, [2]int{5, 17}},
		{"after", 11, [2]int{5, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollection[int]()
			s := mustAdd(t, c, New(5, 5, 0))
			edit(t, c, tt.offset, 0, 7)
			if span(s) != tt.want {
				t.Errorf("span = %v, want %v", span(s), tt.want)
			}
			checkCollection(t, c)
		})
	}
}

func TestRemoval(t *testing.T) {
	// Segment [10, 20).
	tests := []struct {
		name    string
		offset  int
		length  int
		want    [2]int
		deleted bool
	}{
		{"before", 0, 5, [2]int{5, 15}, false},
		{"touching start", 5, 5, [2]int{5, 15}, false},
		{"after", 25, 5, [2]int{10, 20}, false},
		{"touching end", 20, 5, [2]int{10, 20}, false},
		{"inside", 12, 3, [2]int{10, 17}, false},
		{"over start", 5, 10, [2]int{5, 10}, false},
		{"over end", 15, 10, [2]int{10, 15}, false},
		{"exact", 10, 10, [2]int{}, true},
		{"covering", 5, 20, [2]int{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollection[int]()
			s := mustAdd(t, c, New(10, 10, 0))
			tail := mustAdd(t, c, New(30, 2, 1))
			deletedCalls := 0
			s.OnDeleted(func(got *Segment[int]) {
				if got != s {
					t.Errorf("OnDeleted called with %v", got)
				}
				if c.Contains(s) {
					t.Error("segment still in collection during OnDeleted")
				}
				deletedCalls++
			})
			edit(t, c, tt.offset, tt.length, 0)
			checkCollection(t, c)

			if s.IsDeleted() != tt.deleted {
				t.Fatalf("IsDeleted() = %v, want %v", s.IsDeleted(), tt.deleted)
			}
			if tt.deleted {
				if deletedCalls != 1 || c.Len() != 1 {
					t.Errorf("OnDeleted calls = %d, Len() = %d", deletedCalls, c.Len())
				}
			} else if span(s) != tt.want {
				t.Errorf("span = %v, want %v", span(s), tt.want)
			}
			if got, want := tail.StartOffset(), 30-tt.length; tt.offset < 30 && got != want {
				t.Errorf("tail start = %d, want %d", got, want)
			}
		})
	}
}

func TestReplaceShrinksAndGrows(t *testing.T) {
	c := NewCollection[int]()
	s := mustAdd(t, c, New(10, 10, 0))
	// Replace [15, 25) with 3 characters: the tail of s is cut at 15 and
	// the insertion at the new end extends it again.
	edit(t, c, 15, 10, 3)
	if span(s) != [2]int{10, 18} {
		t.Errorf("span = %v, want [10 18]", span(s))
	}
	checkCollection(t, c)
}

// TestReplaceAtBoundaries pins how a replacement, applied as a removal
// followed by an insertion at the same offset, treats segments around the
// replaced range [10, 15) when 3 characters are inserted.
func TestReplaceAtBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		start   int
		length  int
		want    [2]int
		deleted bool
	}{
		{"ends at replaced start", 5, 5, [2]int{5, 13}, false},
		{"overlaps replaced start", 5, 7, [2]int{5, 13}, false},
		{"covers replaced range", 5, 15, [2]int{5, 18}, false},
		{"equals replaced range", 10, 5, [2]int{}, true},
		{"inside replaced range", 11, 3, [2]int{}, true},
		{"starts at replaced start", 10, 10, [2]int{13, 18}, false},
		{"overlaps replaced end", 12, 8, [2]int{13, 18}, false},
		{"starts at replaced end", 15, 5, [2]int{13, 18}, false},
		{"empty at replaced start", 10, 0, [2]int{13, 13}, false},
		{"after replaced range", 20, 2, [2]int{18, 20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollection[int]()
			seg := mustAdd(t, c, New(tt.start, tt.length, 0))
			edit(t, c, 10, 5, 3)
			if seg.IsDeleted() != tt.deleted {
				t.Fatalf("IsDeleted() = %v, want %v", seg.IsDeleted(), tt.deleted)
			}
			if !tt.deleted && span(seg) != tt.want {
				t.Errorf("span = %v, want %v", span(seg), tt.want)
			}
			checkCollection(t, c)
		})
	}
}

// model mirrors the edit rules on plain intervals.
type model map[int][2]int

func (m model) insert(o, l int) {
	for id, iv := range m {
		switch {
		case iv[0] < o && o <= iv[1]:
			iv[1] += l
		case iv[0] >= o:
			iv[0] += l
			iv[1] += l
		}
		m[id] = iv
	}
}

func (m model) remove(o, r int) {
	q := o + r
	for id, iv := range m {
		s, e := iv[0], iv[1]
		switch {
		case s < q && o < e:
			switch {
			case s >= o && e <= q:
				delete(m, id)
				continue
			case s < o && e <= q:
				e = o
			case s < o:
				e -= r
			default:
				s, e = o, e-r
			}
		case s >= q:
			s -= r
			e -= r
		}
		m[id] = [2]int{s, e}
	}
}

func TestRandomEditsAgainstModel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := NewCollection[int]()
	m := model{}
	segs := map[int]*Segment[int]{}
	docLen := 200
	next := 0

	for step := range 2000 {
		switch op := rng.Intn(10); {
		case op < 3:
			start := rng.Intn(docLen + 1)
			length := rng.Intn(min(20, docLen-start) + 1)
			s := mustAdd(t, c, New(start, length, next))
			segs[next] = s
			m[next] = [2]int{start, start + length}
			next++
		case op < 4 && len(m) > 0:
			for id := range m {
				if err := c.Remove(segs[id]); err != nil {
					t.Fatal(err)
				}
				delete(m, id)
				break
			}
		default:
			o := rng.Intn(docLen + 1)
			r := rng.Intn(min(15, docLen-o) + 1)
			l := rng.Intn(15)
			if r == 0 && l == 0 {
				continue
			}
			edit(t, c, o, r, l)
			if r > 0 {
				m.remove(o, r)
			}
			if l > 0 {
				m.insert(o, l)
			}
			docLen += l - r
		}
		if err := c.CheckProperties(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		if c.Len() != len(m) {
			t.Fatalf("step %d: Len() = %d, model has %d", step, c.Len(), len(m))
		}
		for id, iv := range m {
			if got := span(segs[id]); got != iv {
				t.Fatalf("step %d: segment %d span %v, want %v", step, id, got, iv)
			}
		}
		o := rng.Intn(docLen + 1)
		l := rng.Intn(30)
		var want []int
		for id, iv := range m {
			if iv[0] < o+l && o < iv[1] {
				want = append(want, id)
			}
		}
		var got []int
		for _, s := range c.FindOverlapping(o, l) {
			got = append(got, s.Value)
		}
		slices.Sort(want)
		slices.Sort(got)
		if !slices.Equal(got, want) {
			t.Fatalf("step %d: FindOverlapping(%d, %d) = %v, want %v", step, o, l, got, want)
		}
	}
}

func TestConnectedToDocument(t *testing.T) {
	d := document.New(document.WithText("hello brave new world"))
	c := NewCollection[string]()
	c.Connect(d)
	brave := mustAdd(t, c, New(6, 5, "brave"))
	world := mustAdd(t, c, New(16, 5, "world"))

	if err := d.Insert(0, ">> "); err != nil {
		t.Fatal(err)
	}
	if err := d.Remove(9, 6); err != nil { // "brave "
		t.Fatal(err)
	}
	if !brave.IsDeleted() {
		t.Errorf("brave not deleted, span [%d, %d)", brave.StartOffset(), brave.EndOffset())
	}
	text, err := d.GetText(world.StartOffset(), world.Length())
	if err != nil {
		t.Fatal(err)
	}
	if text != "world" {
		t.Errorf("world segment covers %q", text)
	}

	if err := d.UndoStack().Undo(); err != nil {
		t.Fatal(err)
	}
	if got := world.StartOffset(); got != 19 {
		t.Errorf("world start after undo = %d, want 19", got)
	}

	c.Disconnect()
	if err := d.Insert(0, "x"); err != nil {
		t.Fatal(err)
	}
	if got := world.StartOffset(); got != 19 {
		t.Errorf("disconnected collection moved to %d", got)
	}
	checkCollection(t, c)
}

func TestClear(t *testing.T) {
	c := NewCollection[int]()
	s := mustAdd(t, c, New(4, 2, 0))
	mustAdd(t, c, New(1, 2, 1))
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 || c.Contains(s) {
		t.Fatal("Clear left segments behind")
	}
	if s.StartOffset() != 4 {
		t.Errorf("cleared segment start = %d, want 4", s.StartOffset())
	}
	mustAdd(t, c, s)
	checkCollection(t, c)
}
