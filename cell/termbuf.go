package cell

import (
	"github.com/framegrace/canopy/geom"
	"github.com/framegrace/canopy/style"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// TermBuf is a dense, row-major 2-D cell grid (spec.md §3).
type TermBuf struct {
	Size  geom.Expanse
	Cells []Cell
}

// NewTermBuf allocates a buffer of the given size, every cell blank with
// the given style.
func NewTermBuf(size geom.Expanse, bg style.Style) *TermBuf {
	t := &TermBuf{Size: size, Cells: make([]Cell, size.W*size.H)}
	t.FillEmpty(Rect{W: size.W, H: size.H}, bg)
	return t
}

// Rect is a type alias of geom.Rect, purely so buffer-local operations
// read naturally.
type Rect = geom.Rect

func (t *TermBuf) idx(x, y uint32) (int, bool) {
	if x >= t.Size.W || y >= t.Size.H {
		return 0, false
	}
	return int(y*t.Size.W + x), true
}

// At returns the cell at (x, y), or the zero Cell if out of bounds.
func (t *TermBuf) At(x, y uint32) Cell {
	i, ok := t.idx(x, y)
	if !ok {
		return Cell{}
	}
	return t.Cells[i]
}

func (t *TermBuf) set(x, y uint32, c Cell) {
	if i, ok := t.idx(x, y); ok {
		t.Cells[i] = c
	}
}

// Fill writes ch/style into every cell of rect clipped to the buffer.
func (t *TermBuf) Fill(rect Rect, ch rune, s style.Style) {
	clipped, ok := rect.IntersectRect(geom.Rect{W: t.Size.W, H: t.Size.H})
	if !ok {
		return
	}
	for y := clipped.Y; y < clipped.Bottom(); y++ {
		for x := clipped.X; x < clipped.Right(); x++ {
			t.set(x, y, Cell{Ch: ch, Style: s})
		}
	}
}

// FillEmpty blanks rect with spaces in the given style.
func (t *TermBuf) FillEmpty(rect Rect, s style.Style) {
	t.Fill(rect, ' ', s)
}

// SolidFrame draws a rectangular frame using the six glyphs
// [horizontal, vertical, topLeft, topRight, bottomLeft, bottomRight].
func (t *TermBuf) SolidFrame(rect Rect, s style.Style, charset [6]rune) {
	if rect.W <= 1 || rect.H <= 1 {
		return
	}
	h, v, tl, tr, bl, br := charset[0], charset[1], charset[2], charset[3], charset[4], charset[5]
	left, top := rect.X, rect.Y
	right, bottom := rect.Right()-1, rect.Bottom()-1
	for x := left + 1; x < right; x++ {
		t.set(x, top, Cell{Ch: h, Style: s})
		t.set(x, bottom, Cell{Ch: h, Style: s})
	}
	for y := top + 1; y < bottom; y++ {
		t.set(left, y, Cell{Ch: v, Style: s})
		t.set(right, y, Cell{Ch: v, Style: s})
	}
	t.set(left, top, Cell{Ch: tl, Style: s})
	t.set(right, top, Cell{Ch: tr, Style: s})
	t.set(left, bottom, Cell{Ch: bl, Style: s})
	t.set(right, bottom, Cell{Ch: br, Style: s})
}

// Text clips the drawable span of line y starting at x to the buffer
// bounds, then walks grapheme clusters writing glyph+continuation cells,
// filling any remaining columns with spaces in the same style (spec.md
// §4.2). Wide graphemes whose continuation would fall outside the
// writable span are skipped entirely and their column space-filled — the
// canonical rule spec.md §9 resolves the Open Question with.
func (t *TermBuf) Text(s style.Style, y uint32, x uint32, txt string) {
	if y >= t.Size.H || x >= t.Size.W {
		return
	}
	limit := t.Size.W
	col := x
	gr := uniseg.NewGraphemes(txt)
	for gr.Next() && col < limit {
		runes := gr.Runes()
		w := runewidth.StringWidth(string(runes))
		if w <= 0 {
			w = 1
		}
		if col+uint32(w) > limit {
			// Continuation would land outside the writable span: skip
			// the glyph, space-fill this column, and stop (subsequent
			// graphemes would only ever collide with the same bound).
			t.set(col, y, emptyCell(s))
			col++
			break
		}
		t.putGrapheme(col, y, runes, w, s)
		col += uint32(w)
	}
	for ; col < limit; col++ {
		t.set(col, y, emptyCell(s))
	}
}

// putGrapheme writes one grapheme cluster at (x, y): the base code point
// into Ch, remaining combining code points into Suffix, and a
// continuation cell into the next column when the cluster's display
// width is two.
func (t *TermBuf) putGrapheme(x, y uint32, runes []rune, width int, s style.Style) {
	if len(runes) == 0 {
		t.set(x, y, emptyCell(s))
		return
	}
	c := Cell{Ch: runes[0], Style: s}
	if len(runes) > 1 {
		c.Suffix = append([]rune(nil), runes[1:]...)
	}
	t.set(x, y, c)
	if width >= 2 {
		t.set(x+1, y, Cell{Ch: 0, Style: s, Continuation: true})
	}
}

// Copy overlays src onto t at dst's top-left, clipped to both buffers.
func (t *TermBuf) Copy(src *TermBuf, dst Rect) {
	t.CopyToRect(src, geom.Rect{W: src.Size.W, H: src.Size.H}, dst.TopLeft())
}

// CopyToRect copies the srcRect portion of src into t starting at
// dstTL, clipped to both buffers.
func (t *TermBuf) CopyToRect(src *TermBuf, srcRect Rect, dstTL geom.Point) {
	srcBounds := geom.Rect{W: src.Size.W, H: src.Size.H}
	clippedSrc, ok := srcRect.IntersectRect(srcBounds)
	if !ok {
		return
	}
	for y := uint32(0); y < clippedSrc.H; y++ {
		for x := uint32(0); x < clippedSrc.W; x++ {
			c := src.At(clippedSrc.X+x, clippedSrc.Y+y)
			t.set(dstTL.X+x, dstTL.Y+y, c)
		}
	}
}

// CursorShape selects how OverlayCursor renders the focused cursor.
type CursorShape int

const (
	CursorUnderscore CursorShape = iota
	CursorBlock
	CursorLine
)

// OverlayCursor renders a cursor glyph at p without mutating the
// underlying cell's glyph except where required by spec.md §4.2:
//   - Underscore ORs the Underline attribute into the existing cell.
//   - Block/Line swap fg and bg; an empty or continuation target becomes
//     a space cell with the continuation flag cleared.
func (t *TermBuf) OverlayCursor(p geom.Point, shape CursorShape) {
	i, ok := t.idx(p.X, p.Y)
	if !ok {
		return
	}
	c := t.Cells[i]
	switch shape {
	case CursorUnderscore:
		c.Style.Attrs = c.Style.Attrs.With(style.Underline)
	case CursorBlock, CursorLine:
		if c.IsEmpty() || c.Continuation {
			c.Ch = ' '
			c.Suffix = nil
			c.Continuation = false
		}
		c.Style.FG, c.Style.BG = c.Style.BG, c.Style.FG
	}
	t.Cells[i] = c
}
