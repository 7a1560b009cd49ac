package rope

import (
	"testing"
	"unicode/utf8"
)

// FuzzFromString tests rope creation from arbitrary strings.
func FuzzFromString(f *testing.F) {
	f.Add("")
	f.Add("hello")
	f.Add("hello\r\nworld")
	f.Add("日本語")
	f.Add("emoji 🎉 test")
	f.Add("\x00\x01\x02")

	f.Fuzz(func(t *testing.T, s string) {
		if !utf8.ValidString(s) {
			return
		}
		r := FromString(s)
		if r.Len() != utf8.RuneCountInString(s) {
			t.Errorf("length mismatch: got %d, want %d", r.Len(), utf8.RuneCountInString(s))
		}
		if String(r) != s {
			t.Errorf("content mismatch")
		}
		if err := r.CheckInvariants(); err != nil {
			t.Error(err)
		}
	})
}

// FuzzInsertRemove tests an insert followed by a removal against a slice model.
func FuzzInsertRemove(f *testing.F) {
	f.Add("hello", 0, "x", 0, 1)
	f.Add("hello", 5, "world", 2, 6)
	f.Add("", 0, "test", 1, 2)
	f.Add("日本語", 1, "x", 0, 3)

	f.Fuzz(func(t *testing.T, initial string, offset int, insert string, start, count int) {
		model := []rune(initial)
		items := []rune(insert)
		r := FromSlice(model)

		err := r.Insert(offset, items...)
		if offset < 0 || offset > len(model) {
			if err == nil {
				t.Fatalf("Insert(%d) on length %d should fail", offset, len(model))
			}
			return
		}
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		model = append(model[:offset:offset], append(items, model[offset:]...)...)

		err = r.RemoveRange(start, count)
		if start < 0 || count < 0 || start > len(model)-count {
			if err == nil {
				t.Fatalf("RemoveRange(%d, %d) on length %d should fail", start, count, len(model))
			}
		} else {
			if err != nil {
				t.Fatalf("RemoveRange() error = %v", err)
			}
			model = append(model[:start:start], model[start+count:]...)
		}

		if string(r.ToSlice()) != string(model) {
			t.Errorf("content mismatch")
		}
		if err := r.CheckInvariants(); err != nil {
			t.Error(err)
		}
	})
}

// FuzzMultipleOperations drives a rope and a clone with a byte-coded edit
// script; the clone must not observe any of the edits.
func FuzzMultipleOperations(f *testing.F) {
	f.Add("hello world", []byte{0, 3, 1, 2, 0, 200})
	f.Add("", []byte{0, 0, 0, 0})
	f.Add("line1\nline2\nline3", []byte{1, 5, 1, 0, 0, 9})

	f.Fuzz(func(t *testing.T, initial string, ops []byte) {
		r := FromString(initial)
		snap := r.Clone()
		model := []rune(initial)
		frozen := string(model)

		for i := 0; i+1 < len(ops); i += 2 {
			pos := 0
			if len(model) > 0 {
				pos = int(ops[i+1]) % (len(model) + 1)
			}
			if ops[i]%2 == 0 {
				items := make([]rune, int(ops[i+1])%300+1)
				for j := range items {
					items[j] = rune('a' + j%26)
				}
				if err := r.Insert(pos, items...); err != nil {
					t.Fatal(err)
				}
				model = append(model[:pos:pos], append(items, model[pos:]...)...)
			} else if pos < len(model) {
				n := min(len(model)-pos, int(ops[i])%50+1)
				if err := r.RemoveRange(pos, n); err != nil {
					t.Fatal(err)
				}
				model = append(model[:pos:pos], model[pos+n:]...)
			}
		}

		if string(r.ToSlice()) != string(model) {
			t.Error("content mismatch")
		}
		if String(snap) != frozen {
			t.Error("clone observed edits")
		}
		if err := r.CheckInvariants(); err != nil {
			t.Error(err)
		}
	})
}
