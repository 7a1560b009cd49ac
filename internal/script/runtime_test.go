package script

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/logging"
)

func newRuntime(t *testing.T, content string, opts ...Option) (*Runtime, *engine.Engine) {
	t.Helper()
	e := engine.New(engine.WithContent(content), engine.WithVerifyInvariants(true))
	r := New(e, opts...)
	t.Cleanup(r.Close)
	return r, e
}

func run(t *testing.T, r *Runtime, code string) {
	t.Helper()
	if err := r.RunString(context.Background(), "test", code); err != nil {
		t.Fatalf("RunString() error = %v", err)
	}
}

func number(t *testing.T, r *Runtime, name string) int {
	t.Helper()
	v, ok := r.Global(name).(lua.LNumber)
	if !ok {
		t.Fatalf("global %s = %v, want number", name, r.Global(name))
	}
	return int(v)
}

func str(t *testing.T, r *Runtime, name string) string {
	t.Helper()
	v, ok := r.Global(name).(lua.LString)
	if !ok {
		t.Fatalf("global %s = %v, want string", name, r.Global(name))
	}
	return string(v)
}

func boolean(t *testing.T, r *Runtime, name string) bool {
	t.Helper()
	return lua.LVAsBool(r.Global(name))
}

// ============================================================================
// Editing
// ============================================================================

func TestEdits(t *testing.T) {
	r, e := newRuntime(t, "hello world")
	run(t, r, `
		stop = doc.insert(5, ",")
		doc.replace(7, 5, "there")
		doc.remove(0, 1)
		doc.insert(0, "H")
	`)
	if got := e.Text(); got != "Hello, there" {
		t.Errorf("Text() = %q", got)
	}
	if got := number(t, r, "stop"); got != 6 {
		t.Errorf("insert returned %d, want 6", got)
	}
}

func TestReads(t *testing.T) {
	r, _ := newRuntime(t, "ab\ncd")
	run(t, r, `
		n = doc.line_count()
		size = doc.len()
		l = doc.line(2)
		line_text, line_offset = l.text, l.offset
		first_delim = doc.line_at(1).delimiter
		ln, col = doc.location(4)
		off = doc.offset(2, 2)
		part = doc.get(1, 3)
		all = doc.text()
	`)
	for name, want := range map[string]int{
		"n": 2, "size": 5, "line_offset": 3, "first_delim": 1, "ln": 2, "col": 2, "off": 4,
	} {
		if got := number(t, r, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
	if got := str(t, r, "line_text"); got != "cd" {
		t.Errorf("line text = %q", got)
	}
	if got := str(t, r, "part"); got != "b\nc" {
		t.Errorf("get = %q", got)
	}
	if got := str(t, r, "all"); got != "ab\ncd" {
		t.Errorf("text = %q", got)
	}
}

func TestUndoGroup(t *testing.T) {
	r, e := newRuntime(t, "x")
	run(t, r, `
		doc.begin_group("pair")
		doc.insert(0, "a")
		doc.insert(1, "b")
		doc.end_group()
		undone = doc.undo()
		again = doc.undo()
	`)
	if got := e.Text(); got != "x" {
		t.Errorf("Text() after undo = %q", got)
	}
	if !boolean(t, r, "undone") || boolean(t, r, "again") {
		t.Error("undo results wrong: want true then false")
	}
	run(t, r, `doc.redo()`)
	if got := e.Text(); got != "abx" {
		t.Errorf("Text() after redo = %q", got)
	}
}

func TestReload(t *testing.T) {
	r, e := newRuntime(t, "one two")
	run(t, r, `
		a = doc.anchor(4)
		doc.reload("one 2 two")
		pos = a:offset()
	`)
	if e.Text() != "one 2 two" {
		t.Errorf("Text() = %q", e.Text())
	}
	if got := number(t, r, "pos"); got != 6 {
		t.Errorf("anchor offset = %d, want 6", got)
	}
}

// ============================================================================
// Anchors and segments
// ============================================================================

func TestAnchors(t *testing.T) {
	r, _ := newRuntime(t, "hello\nworld")
	run(t, r, `
		before = doc.anchor(2, "before")
		after = doc.anchor(2, "after")
		doc.insert(2, "XX")
		b, a = before:offset(), after:offset()
		line, col = after:line(), after:column()
		gone = doc.anchor(8, "default", false)
		doc.remove(7, 3)
		deleted = gone:deleted()
		alive = after:deleted()
	`)
	if got := number(t, r, "b"); got != 2 {
		t.Errorf("before anchor = %d, want 2", got)
	}
	if got := number(t, r, "a"); got != 4 {
		t.Errorf("after anchor = %d, want 4", got)
	}
	if number(t, r, "line") != 1 || number(t, r, "col") != 5 {
		t.Errorf("location = %d:%d, want 1:5", number(t, r, "line"), number(t, r, "col"))
	}
	if !boolean(t, r, "deleted") || boolean(t, r, "alive") {
		t.Error("deletion state wrong")
	}
	if got := len(r.Anchors()); got != 3 {
		t.Errorf("Anchors() = %d, want 3", got)
	}
}

func TestAnchorBadMovement(t *testing.T) {
	r, _ := newRuntime(t, "abc")
	err := r.RunString(context.Background(), "bad", `doc.anchor(1, "sideways")`)
	if err == nil || !strings.Contains(err.Error(), "movement") {
		t.Errorf("err = %v, want movement error", err)
	}
}

func TestSegments(t *testing.T) {
	r, _ := newRuntime(t, "hello brave world")
	run(t, r, `
		s = doc.segment(6, 5, "word")
		doc.remove(0, 6)
		start, length, value = s:start(), s:length(), s:value()
		found = #doc.segments(0, 3)
		missed = #doc.segments(6, 3)
		doc.remove(0, 5)
		deleted = s:deleted()
	`)
	if number(t, r, "start") != 0 || number(t, r, "length") != 5 {
		t.Errorf("segment = %d+%d, want 0+5", number(t, r, "start"), number(t, r, "length"))
	}
	if got := str(t, r, "value"); got != "word" {
		t.Errorf("value = %q", got)
	}
	if number(t, r, "found") != 1 || number(t, r, "missed") != 0 {
		t.Errorf("segments found %d/%d, want 1/0", number(t, r, "found"), number(t, r, "missed"))
	}
	if !boolean(t, r, "deleted") {
		t.Error("segment not deleted with its text")
	}
	if r.Segments().Len() != 0 {
		t.Errorf("Segments().Len() = %d, want 0", r.Segments().Len())
	}
}

func TestSegmentOutOfRange(t *testing.T) {
	r, _ := newRuntime(t, "abc")
	if err := r.RunString(context.Background(), "range", `doc.segment(2, 5)`); err == nil {
		t.Error("segment past the end succeeded")
	}
}

// ============================================================================
// Snapshots and logging
// ============================================================================

func TestSnapshot(t *testing.T) {
	r, _ := newRuntime(t, "v1")
	run(t, r, `
		id = doc.snapshot("first")
		doc.replace(0, 2, "v2")
		old = doc.snapshot_text(id)
		now = doc.text()
	`)
	if str(t, r, "old") != "v1" || str(t, r, "now") != "v2" {
		t.Errorf("old=%q now=%q", str(t, r, "old"), str(t, r, "now"))
	}
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Output: &buf, Prefix: "test"})
	r, _ := newRuntime(t, "", WithLogger(logger))
	run(t, r, `doc.log("from lua")`)
	out := buf.String()
	if !strings.Contains(out, "from lua") || !strings.Contains(out, "component=script") {
		t.Errorf("log output = %q", out)
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	r, _ := newRuntime(t, "", WithOutput(&buf))
	run(t, r, `print("a", 1, true)`)
	if got := buf.String(); got != "a\t1\ttrue\n" {
		t.Errorf("print wrote %q", got)
	}
}

// ============================================================================
// Sandbox and lifecycle
// ============================================================================

func TestSandbox(t *testing.T) {
	r, _ := newRuntime(t, "")
	run(t, r, `
		closed = os == nil and io == nil and dofile == nil and loadfile == nil
			and load == nil and loadstring == nil and require == nil
		usable = string.upper("x") == "X" and math.max(1, 2) == 2 and table.concat({"a", "b"}) == "ab"
	`)
	if !boolean(t, r, "closed") {
		t.Error("unsafe globals are reachable")
	}
	if !boolean(t, r, "usable") {
		t.Error("safe libraries missing")
	}
}

func TestTimeout(t *testing.T) {
	r, _ := newRuntime(t, "", WithTimeout(50*time.Millisecond))
	start := time.Now()
	err := r.RunString(context.Background(), "loop", `while true do end`)
	if err == nil {
		t.Fatal("endless script returned nil")
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("timeout took %v", time.Since(start))
	}
}

func TestCancelledContext(t *testing.T) {
	r, _ := newRuntime(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.RunString(ctx, "cancelled", `while true do end`); err == nil {
		t.Error("cancelled script returned nil")
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"syntax", `doc.insert(`, "syntax"},
		{"out of range", `doc.insert(100, "x")`, "insert"},
		{"bad line", `doc.line(9)`, "line"},
		{"end without begin", `doc.end_group()`, "end_group"},
		{"runtime", `error("boom")`, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRuntime(t, "abc")
			err := r.RunString(context.Background(), tt.name, tt.code)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestReadOnlyEngine(t *testing.T) {
	e := engine.New(engine.WithContent("abc"), engine.WithReadOnly())
	r := New(e)
	defer r.Close()
	err := r.RunString(context.Background(), "ro", `doc.insert(0, "x")`)
	if err == nil || !strings.Contains(err.Error(), engine.ErrReadOnly.Error()) {
		t.Errorf("err = %v, want read-only error", err)
	}
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edit.lua")
	if err := os.WriteFile(path, []byte(`doc.insert(doc.len(), "!")`), 0o644); err != nil {
		t.Fatal(err)
	}
	r, e := newRuntime(t, "hi")
	if err := r.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if e.Text() != "hi!" {
		t.Errorf("Text() = %q", e.Text())
	}
	if err := r.Run(context.Background(), filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("missing file returned nil")
	}
}

func TestClose(t *testing.T) {
	e := engine.New(engine.WithContent("abc"))
	r := New(e)
	run(t, r, `doc.segment(1, 1)`)
	r.Close()
	r.Close()
	if err := r.RunString(context.Background(), "x", `x = 1`); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if _, err := e.Insert(0, "z"); err != nil {
		t.Fatalf("Insert() after Close error = %v", err)
	}
	if s := r.Segments().FindOverlapping(0, 10); len(s) != 1 || s[0].StartOffset() != 1 {
		t.Errorf("disconnected segment moved: %v", s)
	}
}
