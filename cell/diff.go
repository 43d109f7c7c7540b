package cell

import (
	"strings"

	"github.com/framegrace/canopy/geom"
)

// Shift search limits (spec.md §4.2 "Detail floor"), matching the
// original_source canopy crate's constants exactly.
const (
	MaxLineShift = 8
	MaxRowShift  = 4
)

// Diff emits the minimal sequence of backend calls that transform the
// terminal from state prev to state t (spec.md §4.2, §8 "Round-trip"
// law). It calls Backend.Reset only when it falls back to a full render
// because prev is nil or differently sized.
func (t *TermBuf) Diff(prev *TermBuf, backend Backend) error {
	if prev == nil || prev.Size != t.Size {
		return t.renderFull(backend)
	}
	if cellsEqual(t.Cells, prev.Cells) {
		return nil
	}

	if backend.SupportsLineShift() {
		if shift, ok := detectRowShift(t, prev, MaxRowShift); ok {
			h := t.Size.H
			lastRow := uint32(0)
			if h > 0 {
				lastRow = h - 1
			}
			if err := backend.ShiftLines(0, lastRow, shift); err != nil {
				return err
			}
			count := uint32(absInt(shift))
			if shift > 0 {
				for y := uint32(0); y < count; y++ {
					if err := t.renderLineRange(backend, y, 0, t.Size.W); err != nil {
						return err
					}
				}
			} else if shift < 0 {
				start := uint32(0)
				if h > count {
					start = h - count
				}
				for y := start; y < h; y++ {
					if err := t.renderLineRange(backend, y, 0, t.Size.W); err != nil {
						return err
					}
				}
			}
			return backend.Flush()
		}
	}

	width := t.Size.W
	canShift := backend.SupportsCharShift()
	wrote := false
	for y := uint32(0); y < t.Size.H; y++ {
		if t.rowEqual(prev, y) {
			continue
		}

		if canShift {
			if shift, ok := detectLineShift(t.row(y), prev.row(y), MaxLineShift); ok {
				gap := uint32(absInt(shift))
				if gap > 0 && gap < width {
					if err := backend.ShiftChars(geom.Point{X: 0, Y: y}, int(shift)); err != nil {
						return err
					}
					if shift > 0 {
						if err := t.renderLineRange(backend, y, 0, gap); err != nil {
							return err
						}
					} else {
						start := uint32(0)
						if width > gap {
							start = width - gap
						}
						if err := t.renderLineRange(backend, y, start, gap); err != nil {
							return err
						}
					}
					wrote = true
					continue
				}
			}
		}

		currentRow := t.row(y)
		prevRow := prev.row(y)
		x := uint32(0)
		for x < width {
			if currentRow[x].Equal(prevRow[x]) {
				x++
				continue
			}
			s := currentRow[x].Style
			startX := x
			var b strings.Builder
			for x < width {
				c := currentRow[x]
				if c.Equal(prevRow[x]) || c.Style != s {
					break
				}
				pushText(&b, c)
				x++
			}
			if err := backend.Style(s); err != nil {
				return err
			}
			if err := backend.Text(geom.Point{X: startX, Y: y}, b.String()); err != nil {
				return err
			}
			wrote = true
		}
	}
	if wrote {
		return backend.Flush()
	}
	return nil
}

// renderFull writes every cell, batching same-style runs, and is used
// both for size changes (spec.md §4.2) and for the first frame (no
// previous buffer).
func (t *TermBuf) renderFull(backend Backend) error {
	if err := backend.Reset(); err != nil {
		return err
	}
	wrote := false
	for y := uint32(0); y < t.Size.H; y++ {
		x := uint32(0)
		for x < t.Size.W {
			s := t.At(x, y).Style
			startX := x
			var b strings.Builder
			for x < t.Size.W {
				c := t.At(x, y)
				if c.Style != s {
					break
				}
				pushText(&b, c)
				x++
			}
			if err := backend.Style(s); err != nil {
				return err
			}
			if err := backend.Text(geom.Point{X: startX, Y: y}, b.String()); err != nil {
				return err
			}
			wrote = true
		}
	}
	if wrote {
		return backend.Flush()
	}
	return nil
}

// Render is the public entry point for an unconditional full render
// (used by the render driver when there is no previous buffer, spec.md
// §3 "TermBuf lifecycle").
func (t *TermBuf) Render(backend Backend) error { return t.renderFull(backend) }

func (t *TermBuf) renderLineRange(backend Backend, y, startX, count uint32) error {
	end := startX + count
	if end > t.Size.W {
		end = t.Size.W
	}
	x := startX
	for x < end {
		s := t.At(x, y).Style
		runStart := x
		var b strings.Builder
		for x < end {
			c := t.At(x, y)
			if c.Style != s {
				break
			}
			pushText(&b, c)
			x++
		}
		if err := backend.Style(s); err != nil {
			return err
		}
		if err := backend.Text(geom.Point{X: runStart, Y: y}, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// pushText appends a cell's renderable text to b: continuations
// contribute nothing, empty cells contribute a space, others contribute
// their glyph plus any combining suffix.
func pushText(b *strings.Builder, c Cell) {
	if c.Continuation {
		return
	}
	if c.IsEmpty() {
		b.WriteByte(' ')
		return
	}
	b.WriteRune(c.Ch)
	for _, r := range c.Suffix {
		b.WriteRune(r)
	}
}

func (t *TermBuf) row(y uint32) []Cell {
	w := t.Size.W
	start := y * w
	return t.Cells[start : start+w]
}

func (t *TermBuf) rowEqual(prev *TermBuf, y uint32) bool {
	return cellsEqual(t.row(y), prev.row(y))
}

func cellsEqual(a, b []Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// detectRowShift reports the smallest-magnitude vertical shift (trying
// +k before -k at each magnitude) for which t equals prev shifted by k
// rows, or false if none within maxShift qualifies.
func detectRowShift(t, prev *TermBuf, maxShift int) (int32, bool) {
	height := int(t.Size.H)
	if height == 0 || height != int(prev.Size.H) {
		return 0, false
	}
	max := maxShift
	if height-1 < max {
		max = height - 1
	}
	for shift := 1; shift <= max; shift++ {
		if bufferMatchesShift(t, prev, int32(shift)) {
			return int32(shift), true
		}
		if bufferMatchesShift(t, prev, int32(-shift)) {
			return int32(-shift), true
		}
	}
	return 0, false
}

func bufferMatchesShift(t, prev *TermBuf, shift int32) bool {
	height := int32(t.Size.H)
	if shift == 0 || absInt32(shift) >= height {
		return false
	}
	if shift > 0 {
		for y := shift; y < height; y++ {
			if !cellsEqual(t.row(uint32(y)), prev.row(uint32(y-shift))) {
				return false
			}
		}
	} else {
		limit := height + shift
		for y := int32(0); y < limit; y++ {
			if !cellsEqual(t.row(uint32(y)), prev.row(uint32(y-shift))) {
				return false
			}
		}
	}
	return true
}

// detectLineShift is the single-row analogue of detectRowShift.
func detectLineShift(current, prev []Cell, maxShift int) (int32, bool) {
	width := len(current)
	if width == 0 || width != len(prev) {
		return 0, false
	}
	max := maxShift
	if width-1 < max {
		max = width - 1
	}
	for shift := 1; shift <= max; shift++ {
		if lineMatchesShift(current, prev, int32(shift)) {
			return int32(shift), true
		}
		if lineMatchesShift(current, prev, int32(-shift)) {
			return int32(-shift), true
		}
	}
	return 0, false
}

func lineMatchesShift(current, prev []Cell, shift int32) bool {
	width := len(current)
	if width == 0 || width != len(prev) || shift == 0 {
		return false
	}
	if shift > 0 {
		s := int(shift)
		if s >= width {
			return false
		}
		return cellsEqual(current[s:], prev[:width-s])
	}
	s := int(-shift)
	if s >= width {
		return false
	}
	return cellsEqual(current[:width-s], prev[s:])
}

func absInt(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt32(v int32) int32 { return absInt(v) }
