// Package harness provides test-only support for exercising a canopy
// engine without a real terminal: a recording cell.Backend that can be
// inspected cell-by-cell, and a style rule builder for asserting on
// rendered output. It mirrors the teacher's pattern of building a tiny
// widget and asserting on the rendered buffer directly
// (texelui/core/uimanager_test.go's miniWidget), generalized into a
// reusable backend any widget's tests can share.
package harness

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/framegrace/canopy/cell"
	"github.com/framegrace/canopy/geom"
	"github.com/framegrace/canopy/style"
)

// ShiftCall records a single call to ShiftChars or ShiftLines.
type ShiftCall struct {
	Origin geom.Point
	Top    uint32
	Bottom uint32
	Count  int
}

// Backend is a cell.Backend that keeps its own grid of cells instead of
// writing to a terminal, so a test can call At(x, y) and compare against
// an expected rune or style.
//
// SupportsChar/LineShift default to false; set AllowCharShift /
// AllowLineShift to exercise the diff engine's shift-detection path
// against a backend that claims support.
type Backend struct {
	Size geom.Expanse

	cells []cell.Cell
	style style.Style

	AllowCharShift bool
	AllowLineShift bool

	Resets     int
	Flushes    int
	Starts     int
	Stops      int
	Exited     bool
	ExitCode   int
	CharShifts []ShiftCall
	LineShifts []ShiftCall
}

var _ cell.Backend = (*Backend)(nil)

// NewBackend allocates a blank backend sized w x h.
func NewBackend(w, h uint32) *Backend {
	b := &Backend{Size: geom.Expanse{W: w, H: h}}
	b.cells = make([]cell.Cell, w*h)
	b.fillBlank()
	return b
}

func (b *Backend) fillBlank() {
	for i := range b.cells {
		b.cells[i] = cell.Cell{Ch: ' '}
	}
}

func (b *Backend) idx(x, y uint32) (int, bool) {
	if x >= b.Size.W || y >= b.Size.H {
		return 0, false
	}
	return int(y*b.Size.W + x), true
}

// At returns the recorded cell at (x, y), or the zero Cell out of
// bounds.
func (b *Backend) At(x, y uint32) cell.Cell {
	i, ok := b.idx(x, y)
	if !ok {
		return cell.Cell{}
	}
	return b.cells[i]
}

// Row renders row y back to a plain string, ignoring style, for
// readable test failure messages.
func (b *Backend) Row(y uint32) string {
	out := make([]rune, 0, b.Size.W)
	for x := uint32(0); x < b.Size.W; x++ {
		c := b.At(x, y)
		if c.Continuation {
			continue
		}
		if c.Ch == 0 {
			out = append(out, ' ')
			continue
		}
		out = append(out, c.Ch)
		out = append(out, c.Suffix...)
	}
	return string(out)
}

func (b *Backend) Reset() error {
	b.Resets++
	b.fillBlank()
	return nil
}

func (b *Backend) Style(s style.Style) error {
	b.style = s
	return nil
}

// Text writes s starting at p using the most recently set style,
// advancing one cell per grapheme cluster and marking wide clusters'
// trailing cells as continuations, the same placement rule
// cell.TermBuf.text uses for a live render.
func (b *Backend) Text(p geom.Point, s string) error {
	x := p.X
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cl := g.Runes()
		w := runewidth.StringWidth(string(cl))
		if w <= 0 {
			w = 1
		}
		if i, ok := b.idx(x, p.Y); ok {
			main := cell.Cell{Ch: cl[0], Style: b.style}
			if len(cl) > 1 {
				main.Suffix = append([]rune(nil), cl[1:]...)
			}
			b.cells[i] = main
			for k := 1; k < w; k++ {
				if j, ok := b.idx(x+uint32(k), p.Y); ok {
					b.cells[j] = cell.Cell{Style: b.style, Continuation: true}
				}
			}
		}
		x += uint32(w)
	}
	return nil
}

func (b *Backend) SupportsCharShift() bool { return b.AllowCharShift }

func (b *Backend) ShiftChars(p geom.Point, count int) error {
	b.CharShifts = append(b.CharShifts, ShiftCall{Origin: p, Count: count})
	return b.shiftRow(p.Y, p.X, count)
}

func (b *Backend) SupportsLineShift() bool { return b.AllowLineShift }

func (b *Backend) ShiftLines(top, bottom uint32, count int) error {
	b.LineShifts = append(b.LineShifts, ShiftCall{Top: top, Bottom: bottom, Count: count})
	if count == 0 {
		return nil
	}
	rows := make([][]cell.Cell, bottom-top+1)
	for y := top; y <= bottom; y++ {
		row := make([]cell.Cell, b.Size.W)
		copy(row, b.cells[y*b.Size.W:(y+1)*b.Size.W])
		rows[y-top] = row
	}
	for y := top; y <= bottom; y++ {
		src := int(y-top) - count
		if src < 0 || src >= len(rows) {
			for x := uint32(0); x < b.Size.W; x++ {
				b.cells[y*b.Size.W+x] = cell.Cell{Ch: ' '}
			}
			continue
		}
		copy(b.cells[y*b.Size.W:(y+1)*b.Size.W], rows[src])
	}
	return nil
}

func (b *Backend) shiftRow(y, fromX uint32, count int) error {
	if count == 0 {
		return nil
	}
	row := make([]cell.Cell, b.Size.W)
	copy(row, b.cells[y*b.Size.W:(y+1)*b.Size.W])
	for x := fromX; x < b.Size.W; x++ {
		src := int(x) - count
		var c cell.Cell
		if src >= int(fromX) && src < len(row) {
			c = row[src]
		} else {
			c = cell.Cell{Ch: ' '}
		}
		if i, ok := b.idx(x, y); ok {
			b.cells[i] = c
		}
	}
	return nil
}

func (b *Backend) Flush() error { b.Flushes++; return nil }
func (b *Backend) Start() error { b.Starts++; return nil }
func (b *Backend) Stop() error  { b.Stops++; return nil }

func (b *Backend) Exit(code int) error {
	b.Exited = true
	b.ExitCode = code
	return nil
}

// String renders the whole buffer as newline-joined rows, handy for a
// t.Fatalf mismatch dump.
func (b *Backend) String() string {
	s := ""
	for y := uint32(0); y < b.Size.H; y++ {
		if y > 0 {
			s += "\n"
		}
		s += fmt.Sprintf("%2d: %s", y, b.Row(y))
	}
	return s
}
