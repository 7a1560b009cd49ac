package document

import (
	"testing"
	"unicode/utf8"

	"github.com/dshills/textcore/internal/engine/change"
)

// FuzzDocumentEdits drives a document with a byte-coded edit script and
// checks lines and anchors against the text after every step.
func FuzzDocumentEdits(f *testing.F) {
	f.Add("hello\nworld", []byte{0, 3, 1, 2, 2, 5})
	f.Add("a\r\nb", []byte{0, 2, 1, 2, 1})
	f.Add("", []byte{0, 0, 0, 0})
	f.Add("\r\r\n\n", []byte{1, 1, 2, 0, 1, 3, 3})
	f.Add("\r\n\n", []byte{1, 1, 1})

	pieces := []string{"\n", "\r", "\r\n", "x", "yz\n", "\n\r"}
	f.Fuzz(func(t *testing.T, initial string, ops []byte) {
		if !utf8.ValidString(initial) {
			return
		}
		if len(ops) > 300 {
			ops = ops[:300]
		}
		d := New(WithText(initial))
		model := []rune(initial)
		a, _ := d.CreateAnchorWith(len(model)/2, change.Default, true)

		for i := 0; i+2 < len(ops); i += 3 {
			off := int(ops[i+1]) % (len(model) + 1)
			n := 0
			if off < len(model) {
				n = int(ops[i+2]) % (len(model) - off + 1)
			}
			ins := ""
			switch ops[i] % 3 {
			case 0:
				n = 0
				ins = pieces[int(ops[i+2])%len(pieces)]
			case 1:
			case 2:
				ins = pieces[int(ops[i])%len(pieces)]
			}
			if err := d.Replace(off, n, ins); err != nil {
				t.Fatalf("Replace(%d, %d, %q): %v", off, n, ins, err)
			}
			model = append(model[:off:off], append([]rune(ins), model[off+n:]...)...)
			if err := d.CheckProperties(); err != nil {
				t.Fatalf("after Replace(%d, %d, %q): %v", off, n, ins, err)
			}
		}
		if d.Text() != string(model) {
			t.Fatalf("Text() = %q, want %q", d.Text(), string(model))
		}
		if off := a.Offset(); off < 0 || off > d.Len() {
			t.Errorf("surviving anchor at %d outside [0, %d]", off, d.Len())
		}
		for d.UndoStack().CanUndo() {
			if err := d.UndoStack().Undo(); err != nil {
				t.Fatal(err)
			}
		}
		if d.Text() != initial {
			t.Errorf("undo all = %q, want %q", d.Text(), initial)
		}
	})
}
