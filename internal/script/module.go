package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/document"
	"github.com/dshills/textcore/internal/engine/segment"
)

const (
	anchorTypeName  = "textcore.anchor"
	segmentTypeName = "textcore.segment"
)

// docModule implements the doc global.
type docModule struct {
	r *Runtime
}

func newDocModule(r *Runtime) *docModule {
	return &docModule{r: r}
}

func (m *docModule) table(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	for name, fn := range map[string]lua.LGFunction{
		"text":          m.text,
		"len":           m.docLen,
		"get":           m.get,
		"line_count":    m.lineCount,
		"line":          m.line,
		"line_at":       m.lineAt,
		"location":      m.location,
		"offset":        m.offset,
		"insert":        m.insert,
		"remove":        m.remove,
		"replace":       m.replace,
		"reload":        m.reload,
		"undo":          m.undo,
		"redo":          m.redo,
		"begin_group":   m.beginGroup,
		"end_group":     m.endGroup,
		"anchor":        m.anchor,
		"segment":       m.segment,
		"segments":      m.segments,
		"snapshot":      m.snapshot,
		"snapshot_text": m.snapshotText,
		"log":           m.log,
	} {
		L.SetField(mod, name, L.NewFunction(fn))
	}
	return mod
}

func (m *docModule) eng() *engine.Engine { return m.r.eng }

// text() -> string
func (m *docModule) text(L *lua.LState) int {
	L.Push(lua.LString(m.eng().Text()))
	return 1
}

// len() -> number
func (m *docModule) docLen(L *lua.LState) int {
	L.Push(lua.LNumber(m.eng().Len()))
	return 1
}

// get(offset, length) -> string
func (m *docModule) get(L *lua.LState) int {
	text, err := m.eng().TextRange(L.CheckInt(1), L.CheckInt(2))
	if err != nil {
		L.RaiseError("get: %v", err)
		return 0
	}
	L.Push(lua.LString(text))
	return 1
}

// line_count() -> number
func (m *docModule) lineCount(L *lua.LState) int {
	L.Push(lua.LNumber(m.eng().LineCount()))
	return 1
}

// line(n) -> table
func (m *docModule) line(L *lua.LState) int {
	info, err := m.eng().LineInfo(L.CheckInt(1))
	if err != nil {
		L.RaiseError("line: %v", err)
		return 0
	}
	L.Push(m.lineTable(L, info))
	return 1
}

// line_at(offset) -> table
func (m *docModule) lineAt(L *lua.LState) int {
	info, err := m.eng().LineInfoAt(L.CheckInt(1))
	if err != nil {
		L.RaiseError("line_at: %v", err)
		return 0
	}
	L.Push(m.lineTable(L, info))
	return 1
}

func (m *docModule) lineTable(L *lua.LState, info engine.LineInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("number", lua.LNumber(info.Number))
	t.RawSetString("offset", lua.LNumber(info.Offset))
	t.RawSetString("length", lua.LNumber(info.Length))
	t.RawSetString("delimiter", lua.LNumber(info.DelimiterLength))
	text, _ := m.eng().TextRange(info.Offset, info.Length)
	t.RawSetString("text", lua.LString(text))
	return t
}

// location(offset) -> line, column
func (m *docModule) location(L *lua.LState) int {
	loc, err := m.eng().Location(L.CheckInt(1))
	if err != nil {
		L.RaiseError("location: %v", err)
		return 0
	}
	L.Push(lua.LNumber(loc.Line))
	L.Push(lua.LNumber(loc.Column))
	return 2
}

// offset(line, column) -> number
func (m *docModule) offset(L *lua.LState) int {
	off, err := m.eng().Offset(L.CheckInt(1), L.CheckInt(2))
	if err != nil {
		L.RaiseError("offset: %v", err)
		return 0
	}
	L.Push(lua.LNumber(off))
	return 1
}

// insert(offset, text) -> end_offset
func (m *docModule) insert(L *lua.LState) int {
	end, err := m.eng().Insert(L.CheckInt(1), L.CheckString(2))
	if err != nil {
		L.RaiseError("insert: %v", err)
		return 0
	}
	L.Push(lua.LNumber(end))
	return 1
}

// remove(offset, length)
func (m *docModule) remove(L *lua.LState) int {
	if err := m.eng().Remove(L.CheckInt(1), L.CheckInt(2)); err != nil {
		L.RaiseError("remove: %v", err)
	}
	return 0
}

// replace(offset, length, text)
func (m *docModule) replace(L *lua.LState) int {
	if err := m.eng().Replace(L.CheckInt(1), L.CheckInt(2), L.CheckString(3)); err != nil {
		L.RaiseError("replace: %v", err)
	}
	return 0
}

// reload(text)
func (m *docModule) reload(L *lua.LState) int {
	if err := m.eng().Reload(L.CheckString(1)); err != nil {
		L.RaiseError("reload: %v", err)
	}
	return 0
}

// undo() -> bool
func (m *docModule) undo(L *lua.LState) int {
	L.Push(lua.LBool(m.eng().Undo() == nil))
	return 1
}

// redo() -> bool
func (m *docModule) redo(L *lua.LState) int {
	L.Push(lua.LBool(m.eng().Redo() == nil))
	return 1
}

// begin_group([name])
func (m *docModule) beginGroup(L *lua.LState) int {
	m.eng().BeginUndoGroup(L.OptString(1, ""))
	return 0
}

// end_group()
func (m *docModule) endGroup(L *lua.LState) int {
	if err := m.eng().EndUndoGroup(); err != nil {
		L.RaiseError("end_group: %v", err)
	}
	return 0
}

// anchor(offset [, movement [, survives]]) -> anchor
func (m *docModule) anchor(L *lua.LState) int {
	offset := L.CheckInt(1)
	var movement engine.MovementType
	switch mv := L.OptString(2, "default"); mv {
	case "default":
		movement = engine.MoveDefault
	case "before":
		movement = engine.MoveBeforeInsertion
	case "after":
		movement = engine.MoveAfterInsertion
	default:
		L.ArgError(2, "movement must be default, before or after")
		return 0
	}
	a, err := m.eng().CreateAnchor(offset, movement, L.OptBool(3, false))
	if err != nil {
		L.RaiseError("anchor: %v", err)
		return 0
	}
	m.r.anchors = append(m.r.anchors, a)
	L.Push(m.wrap(L, a, anchorTypeName))
	return 1
}

// segment(offset, length [, value]) -> segment
func (m *docModule) segment(L *lua.LState) int {
	offset, length := L.CheckInt(1), L.CheckInt(2)
	if offset < 0 || length < 0 {
		L.ArgError(1, "offset and length must be non-negative")
		return 0
	}
	s := segment.New(offset, length, L.OptString(3, ""))
	err := m.eng().Exclusive(func(d *document.Document) error {
		if offset+length > d.Len() {
			return document.ErrOffsetOutOfRange
		}
		return m.r.segments.Add(s)
	})
	if err != nil {
		L.RaiseError("segment: %v", err)
		return 0
	}
	L.Push(m.wrap(L, s, segmentTypeName))
	return 1
}

// segments(offset, length) -> {segment...}
func (m *docModule) segments(L *lua.LState) int {
	offset, length := L.CheckInt(1), L.CheckInt(2)
	var found []*segment.Segment[string]
	_ = m.eng().View(func(*document.Document) error {
		found = m.r.segments.FindOverlapping(offset, length)
		return nil
	})
	t := L.CreateTable(len(found), 0)
	for _, s := range found {
		t.Append(m.wrap(L, s, segmentTypeName))
	}
	L.Push(t)
	return 1
}

// snapshot(name) -> id
func (m *docModule) snapshot(L *lua.LState) int {
	L.Push(lua.LString(m.eng().CreateSnapshot(L.CheckString(1))))
	return 1
}

// snapshot_text(id) -> string
func (m *docModule) snapshotText(L *lua.LState) int {
	text, err := m.eng().SnapshotText(L.CheckString(1))
	if err != nil {
		L.RaiseError("snapshot_text: %v", err)
		return 0
	}
	L.Push(lua.LString(text))
	return 1
}

// log(message)
func (m *docModule) log(L *lua.LState) int {
	m.r.log.Info("%s", L.CheckString(1))
	return 0
}

func (m *docModule) wrap(L *lua.LState, v any, typeName string) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = &handle{m: m, v: v}
	L.SetMetatable(ud, L.GetTypeMetatable(typeName))
	return ud
}

// handle is the userdata payload for anchors and segments.
type handle struct {
	m *docModule
	v any
}

func registerTypes(L *lua.LState) {
	anchorMT := L.NewTypeMetatable(anchorTypeName)
	L.SetField(anchorMT, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"offset":  anchorOffset,
		"line":    anchorLine,
		"column":  anchorColumn,
		"deleted": anchorDeleted,
	}))
	L.SetField(anchorMT, "__tostring", L.NewFunction(anchorString))

	segmentMT := L.NewTypeMetatable(segmentTypeName)
	L.SetField(segmentMT, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"start":   segmentStart,
		"stop":    segmentStop,
		"length":  segmentLength,
		"value":   segmentValue,
		"deleted": segmentDeleted,
	}))
	L.SetField(segmentMT, "__tostring", L.NewFunction(segmentString))
}

func checkAnchor(L *lua.LState) (*docModule, *engine.Anchor) {
	ud := L.CheckUserData(1)
	if h, ok := ud.Value.(*handle); ok {
		if a, ok := h.v.(*engine.Anchor); ok {
			return h.m, a
		}
	}
	L.ArgError(1, "anchor expected")
	return nil, nil
}

func anchorOffset(L *lua.LState) int {
	m, a := checkAnchor(L)
	L.Push(lua.LNumber(m.eng().AnchorOffset(a)))
	return 1
}

func anchorLine(L *lua.LState) int {
	m, a := checkAnchor(L)
	var line int
	_ = m.eng().View(func(*document.Document) error {
		line = a.Line()
		return nil
	})
	L.Push(lua.LNumber(line))
	return 1
}

func anchorColumn(L *lua.LState) int {
	m, a := checkAnchor(L)
	var col int
	_ = m.eng().View(func(*document.Document) error {
		col = a.Column()
		return nil
	})
	L.Push(lua.LNumber(col))
	return 1
}

func anchorDeleted(L *lua.LState) int {
	m, a := checkAnchor(L)
	L.Push(lua.LBool(m.eng().AnchorOffset(a) < 0))
	return 1
}

func anchorString(L *lua.LState) int {
	m, a := checkAnchor(L)
	var s string
	_ = m.eng().View(func(*document.Document) error {
		s = a.String()
		return nil
	})
	L.Push(lua.LString(s))
	return 1
}

func checkSegment(L *lua.LState) (*docModule, *segment.Segment[string]) {
	ud := L.CheckUserData(1)
	if h, ok := ud.Value.(*handle); ok {
		if s, ok := h.v.(*segment.Segment[string]); ok {
			return h.m, s
		}
	}
	L.ArgError(1, "segment expected")
	return nil, nil
}

// readSegment runs fn under the engine's read lock.
func readSegment(L *lua.LState, fn func(s *segment.Segment[string]) lua.LValue) int {
	m, s := checkSegment(L)
	var v lua.LValue
	_ = m.eng().View(func(*document.Document) error {
		v = fn(s)
		return nil
	})
	L.Push(v)
	return 1
}

func segmentStart(L *lua.LState) int {
	return readSegment(L, func(s *segment.Segment[string]) lua.LValue { return lua.LNumber(s.StartOffset()) })
}

func segmentStop(L *lua.LState) int {
	return readSegment(L, func(s *segment.Segment[string]) lua.LValue { return lua.LNumber(s.EndOffset()) })
}

func segmentLength(L *lua.LState) int {
	return readSegment(L, func(s *segment.Segment[string]) lua.LValue { return lua.LNumber(s.Length()) })
}

func segmentValue(L *lua.LState) int {
	return readSegment(L, func(s *segment.Segment[string]) lua.LValue { return lua.LString(s.Value) })
}

func segmentDeleted(L *lua.LState) int {
	return readSegment(L, func(s *segment.Segment[string]) lua.LValue { return lua.LBool(s.IsDeleted()) })
}

func segmentString(L *lua.LState) int {
	return readSegment(L, func(s *segment.Segment[string]) lua.LValue { return lua.LString(s.String()) })
}
