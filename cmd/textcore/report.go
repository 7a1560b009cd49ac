package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/rivo/uniseg"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/document"
	"github.com/dshills/textcore/internal/engine/segment"
	"github.com/dshills/textcore/internal/script"
)

// writeReport prints a summary of eng. With lines set every line is listed
// with its offsets, delimiter length, grapheme count and display width.
// Anchors and segments are taken from rt when it is not nil.
func writeReport(w io.Writer, eng *engine.Engine, rt *script.Runtime, lines bool) error {
	bw := bufio.NewWriter(w)

	var graphemes, width int
	var rows [][6]int
	n := eng.LineCount()
	for i := 1; i <= n; i++ {
		info, err := eng.LineInfo(i)
		if err != nil {
			return err
		}
		text, err := eng.TextRange(info.Offset, info.Length)
		if err != nil {
			return err
		}
		g, wd := uniseg.GraphemeClusterCount(text), uniseg.StringWidth(text)
		graphemes += g
		width = max(width, wd)
		if lines {
			rows = append(rows, [6]int{info.Number, info.Offset, info.Length, info.DelimiterLength, g, wd})
		}
	}

	fmt.Fprintf(bw, "lines: %d  chars: %d  graphemes: %d  max width: %d\n", n, eng.Len(), graphemes, width)
	if eng.IsModified() {
		fmt.Fprintln(bw, "modified: yes")
	}
	pad := len(strconv.Itoa(n))
	for _, r := range rows {
		fmt.Fprintf(bw, "%*d  offset=%d length=%d delimiter=%d graphemes=%d width=%d\n",
			pad, r[0], r[1], r[2], r[3], r[4], r[5])
	}

	if rt != nil {
		writeAnchors(bw, eng, rt.Anchors())
		writeSegments(bw, eng, rt.Segments())
	}
	return bw.Flush()
}

func writeAnchors(w io.Writer, eng *engine.Engine, anchors []*engine.Anchor) {
	if len(anchors) == 0 {
		return
	}
	fmt.Fprintf(w, "anchors: %d\n", len(anchors))
	_ = eng.View(func(*document.Document) error {
		for i, a := range anchors {
			if a.IsDeleted() {
				fmt.Fprintf(w, "  #%d deleted\n", i+1)
				continue
			}
			fmt.Fprintf(w, "  #%d offset=%d at %s movement=%s\n", i+1, a.Offset(), a.Location(), a.MovementType())
		}
		return nil
	})
}

func writeSegments(w io.Writer, eng *engine.Engine, segs *segment.Collection[string]) {
	_ = eng.View(func(*document.Document) error {
		if segs.Len() == 0 {
			return nil
		}
		fmt.Fprintf(w, "segments: %d\n", segs.Len())
		for s := range segs.All() {
			fmt.Fprintf(w, "  %d-%d %q\n", s.StartOffset(), s.EndOffset(), s.Value)
		}
		return nil
	})
}
