package cell

import "github.com/framegrace/canopy/style"

// Cell is a single styled glyph slot, possibly continued by a right
// neighbor for wide graphemes (spec.md §3).
type Cell struct {
	Ch           rune
	Suffix       []rune
	Style        style.Style
	Continuation bool
}

// IsEmpty reports whether the cell carries no glyph at all.
func (c Cell) IsEmpty() bool {
	return c.Ch == 0 && len(c.Suffix) == 0 && !c.Continuation
}

// Equal reports whether two cells are identical. Cell cannot use the
// built-in == operator because Suffix is a slice.
func (c Cell) Equal(o Cell) bool {
	if c.Ch != o.Ch || c.Style != o.Style || c.Continuation != o.Continuation {
		return false
	}
	if len(c.Suffix) != len(o.Suffix) {
		return false
	}
	for i := range c.Suffix {
		if c.Suffix[i] != o.Suffix[i] {
			return false
		}
	}
	return true
}

// emptyCell is the canonical blank cell (space, default style).
func emptyCell(s style.Style) Cell {
	return Cell{Ch: ' ', Style: s}
}
