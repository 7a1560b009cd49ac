// Package script runs Lua scripts against an engine.
//
// Scripts see a global table doc:
//
//	doc.text()                      full text
//	doc.len()                       number of characters
//	doc.get(offset, length)         part of the text
//	doc.line_count()
//	doc.line(n), doc.line_at(off)   table {number, offset, length, delimiter, text}
//	doc.location(offset)            line, column
//	doc.offset(line, column)
//	doc.insert(offset, text)        returns the offset after the text
//	doc.remove(offset, length)
//	doc.replace(offset, length, text)
//	doc.reload(text)
//	doc.undo(), doc.redo()
//	doc.begin_group(name), doc.end_group()
//	doc.anchor(offset [, movement [, survives]])
//	doc.segment(offset, length [, value])
//	doc.segments(offset, length)    list of segments overlapping the range
//	doc.snapshot(name)              id of a new named snapshot
//	doc.snapshot_text(id)
//	doc.log(message)
//
// Offsets are 0-based character offsets, lines and columns are 1-based.
// Movement is one of "default", "before" or "after". Anchors have the
// methods offset, line, column and deleted; segments have start, stop,
// length, value and deleted.
//
// Only the base, table, string and math libraries are opened. print writes
// to the runtime's output.
package script
