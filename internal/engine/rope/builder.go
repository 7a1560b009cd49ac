package rope

import (
	"io"
	"unicode/utf8"
)

// flushThreshold is the number of buffered runes that triggers a flush into
// the rope under construction.
const flushThreshold = NodeSize * 64

// TextBuilder provides efficient incremental construction of a rune rope.
// It buffers writes and appends them to the rope in large blocks, so the
// resulting tree is built from mostly full leaves.
type TextBuilder struct {
	rope    *Rope[rune]
	buffer  []rune
	pending []byte // incomplete UTF-8 sequence from the previous Write
	total   int
}

// NewTextBuilder creates a new builder.
func NewTextBuilder() *TextBuilder {
	return &TextBuilder{}
}

// WriteString appends a string to the builder. Like Write, it may end or
// start in the middle of a UTF-8 sequence.
func (b *TextBuilder) WriteString(s string) (int, error) {
	return b.Write([]byte(s))
}

// WriteRune appends a single rune. An incomplete sequence left by a
// previous write becomes utf8.RuneError.
func (b *TextBuilder) WriteRune(c rune) (int, error) {
	if len(b.pending) > 0 {
		b.appendRune(utf8.RuneError)
		b.pending = nil
	}
	b.appendRune(c)
	return utf8.RuneLen(c), nil
}

// Write implements io.Writer. UTF-8 sequences may be split across calls.
func (b *TextBuilder) Write(p []byte) (int, error) {
	data := p
	if len(b.pending) > 0 {
		data = append(b.pending, p...)
		b.pending = nil
	}
	for len(data) > 0 {
		if !utf8.FullRune(data) {
			b.pending = append([]byte(nil), data...)
			break
		}
		c, size := utf8.DecodeRune(data)
		b.appendRune(c)
		data = data[size:]
	}
	return len(p), nil
}

// ReadFrom implements io.ReaderFrom for efficient reading.
func (b *TextBuilder) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, 64*1024)
	var total int64

	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = b.Write(buf[:n])
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Len returns the number of runes written so far.
func (b *TextBuilder) Len() int {
	return b.total
}

// Reset clears the builder for reuse.
func (b *TextBuilder) Reset() {
	b.rope = nil
	b.buffer = b.buffer[:0]
	b.pending = nil
	b.total = 0
}

// Build returns the rope with the accumulated text and resets the builder.
// A trailing incomplete UTF-8 sequence becomes utf8.RuneError.
func (b *TextBuilder) Build() *Rope[rune] {
	if len(b.pending) > 0 {
		b.appendRune(utf8.RuneError)
		b.pending = nil
	}
	b.flush()
	result := b.rope
	if result == nil {
		result = New[rune]()
	}
	b.Reset()
	return result
}

func (b *TextBuilder) appendRune(c rune) {
	b.buffer = append(b.buffer, c)
	b.total++
	if len(b.buffer) >= flushThreshold {
		b.flush()
	}
}

func (b *TextBuilder) flush() {
	if len(b.buffer) == 0 {
		return
	}
	if b.rope == nil {
		b.rope = FromSlice(b.buffer)
	} else {
		b.rope.Append(b.buffer...)
	}
	b.buffer = b.buffer[:0]
}
