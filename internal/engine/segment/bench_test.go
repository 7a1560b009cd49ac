package segment

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/dshills/textcore/internal/engine/change"
)

func benchCollection(n int) *Collection[int] {
	c := NewCollection[int]()
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < n; i++ {
		_ = c.Add(New(rng.Intn(n*10), rng.Intn(50), i))
	}
	return c
}

func BenchmarkAdd(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	c := NewCollection[int]()
	for i := 0; i < b.N; i++ {
		_ = c.Add(New(rng.Intn(1_000_000), rng.Intn(50), i))
	}
}

func BenchmarkFindOverlapping(b *testing.B) {
	c := benchCollection(100000)
	rng := rand.New(rand.NewSource(2))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.FindOverlapping(rng.Intn(1_000_000), 80)
	}
}

func BenchmarkUpdateOffsets(b *testing.B) {
	c := benchCollection(100000)
	rng := rand.New(rand.NewSource(3))
	ins, _ := change.NewEvent(0, "", strings.Repeat("x", 4), nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		o := rng.Intn(900_000)
		ev, _ := change.NewEvent(o, "", ins.InsertedText, nil)
		c.UpdateOffsets(ev)
		rem, _ := change.NewEvent(o, ins.InsertedText, "", nil)
		c.UpdateOffsets(rem)
	}
}
