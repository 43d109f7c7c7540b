// Package geom provides the geometry primitives the rest of canopy builds
// on: points, unsigned and signed rectangles, expanses and the four
// cardinal directions used by directional focus search.
package geom

import "math"

// Direction is one of the four cardinal directions used for directional
// focus traversal and rect search sweeps.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Point is an unsigned screen coordinate.
type Point struct {
	X, Y uint32
}

// Scroll returns a new point offset by (dx, dy), saturating at zero.
func (p Point) Scroll(dx, dy int32) Point {
	return Point{X: saturateAdd(p.X, dx), Y: saturateAdd(p.Y, dy)}
}

// ScrollWithin is Scroll followed by clamping the result inside r.
func (p Point) ScrollWithin(dx, dy int32, r Rect) Point {
	np := p.Scroll(dx, dy)
	return np.clampInto(r)
}

func (p Point) clampInto(r Rect) Point {
	x, y := p.X, p.Y
	if x < r.X {
		x = r.X
	}
	if y < r.Y {
		y = r.Y
	}
	maxX := r.X + r.W
	maxY := r.Y + r.H
	if x > maxX {
		x = maxX
	}
	if y > maxY {
		y = maxY
	}
	return Point{X: x, Y: y}
}

func saturateAdd(v uint32, delta int32) uint32 {
	if delta < 0 {
		d := uint32(-delta)
		if d > v {
			return 0
		}
		return v - d
	}
	return v + uint32(delta)
}

// PointI32 is a signed screen coordinate, used by views that may be
// scrolled into negative space.
type PointI32 struct {
	X, Y int32
}

// Expanse is a width/height pair.
type Expanse struct {
	W, H uint32
}

func (e Expanse) IsZero() bool { return e.W == 0 || e.H == 0 }

// Rect is an unsigned, screen-bound rectangle.
type Rect struct {
	X, Y uint32
	W, H uint32
}

// NewRect builds a Rect from a top-left point and an expanse.
func NewRect(tl Point, e Expanse) Rect {
	return Rect{X: tl.X, Y: tl.Y, W: e.W, H: e.H}
}

func (r Rect) TopLeft() Point   { return Point{X: r.X, Y: r.Y} }
func (r Rect) Size() Expanse    { return Expanse{W: r.W, H: r.H} }
func (r Rect) Right() uint32    { return r.X + r.W }
func (r Rect) Bottom() uint32   { return r.Y + r.H }
func (r Rect) IsEmpty() bool    { return r.W == 0 || r.H == 0 }
func (r Rect) CenterX() uint32  { return r.X + r.W/2 }
func (r Rect) CenterY() uint32  { return r.Y + r.H/2 }

// Contains reports whether (x, y) falls within the rectangle.
func (r Rect) Contains(x, y uint32) bool {
	return x >= r.X && y >= r.Y && x < r.Right() && y < r.Bottom()
}

// ContainsPoint reports whether p falls within the rectangle.
func (r Rect) ContainsPoint(p Point) bool { return r.Contains(p.X, p.Y) }

// IntersectRect returns the intersection of r and o, and whether it is
// non-empty.
func (r Rect) IntersectRect(o Rect) (Rect, bool) {
	x0 := maxU32(r.X, o.X)
	y0 := maxU32(r.Y, o.Y)
	x1 := minU32(r.Right(), o.Right())
	y1 := minU32(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}, false
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, true
}

// RebasePoint returns p expressed relative to r's top-left corner. It
// fails (ok=false) when p does not fall within r, per spec.md §4.1.
func (r Rect) RebasePoint(p Point) (Point, bool) {
	if !r.ContainsPoint(p) {
		return Point{}, false
	}
	return Point{X: p.X - r.X, Y: p.Y - r.Y}, true
}

// Extent is a one-dimensional offset/length span along either axis, the
// unit VExtract/HExtract pull a sub-rect out of (original_source
// geom.rs's Extent).
type Extent struct {
	Off, Len uint32
}

// Far is the extent's exclusive upper bound.
func (e Extent) Far() uint32 { return e.Off + e.Len }

// Contains reports whether o lies entirely within e.
func (e Extent) Contains(o Extent) bool {
	return e.Off <= o.Off && e.Far() >= o.Far()
}

// VExtent is r's vertical offset/length span.
func (r Rect) VExtent() Extent { return Extent{Off: r.Y, Len: r.H} }

// HExtent is r's horizontal offset/length span.
func (r Rect) HExtent() Extent { return Extent{Off: r.X, Len: r.W} }

// VExtract returns the full-width sub-rect covering e's vertical span,
// or ok=false if e falls outside r's own vertical extent.
func (r Rect) VExtract(e Extent) (Rect, bool) {
	if !r.VExtent().Contains(e) {
		return Rect{}, false
	}
	return Rect{X: r.X, Y: e.Off, W: r.W, H: e.Len}, true
}

// HExtract returns the full-height sub-rect covering e's horizontal
// span, or ok=false if e falls outside r's own horizontal extent.
func (r Rect) HExtract(e Extent) (Rect, bool) {
	if !r.HExtent().Contains(e) {
		return Rect{}, false
	}
	return Rect{X: e.Off, Y: r.Y, W: e.Len, H: r.H}, true
}

// splitLengths divides length into n spans as evenly as possible,
// larger ones first (original_source geom.rs's free `split` function).
func splitLengths(length uint32, n int) []uint32 {
	base := length / uint32(n)
	rem := length % uint32(n)
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = base
		if uint32(i) < rem {
			out[i]++
		}
	}
	return out
}

// SplitHorizontal splits r into n side-by-side sub-rectangles whose widths
// differ by at most one, larger ones first. Built on HExtract: each
// section is the horizontal extract of one of n even spans of r's width.
func (r Rect) SplitHorizontal(n int) []Rect {
	if n <= 0 {
		return nil
	}
	widths := splitLengths(r.W, n)
	out := make([]Rect, n)
	off := uint32(0)
	for i, w := range widths {
		out[i], _ = r.HExtract(Extent{Off: r.X + off, Len: w})
		off += w
	}
	return out
}

// SplitVertical splits r into n stacked sub-rectangles whose heights
// differ by at most one, larger ones first. Built on VExtract: each
// section is the vertical extract of one of n even spans of r's height.
func (r Rect) SplitVertical(n int) []Rect {
	if n <= 0 {
		return nil
	}
	heights := splitLengths(r.H, n)
	out := make([]Rect, n)
	off := uint32(0)
	for i, h := range heights {
		out[i], _ = r.VExtract(Extent{Off: r.Y + off, Len: h})
		off += h
	}
	return out
}

// maxSweep bounds the outward search sweep (spec.md §4.1: "until f returns
// true or u16-limit is reached").
const maxSweep = math.MaxUint16

// Search sweeps outward from r in band order in the given direction,
// invoking f on each integer point until f returns true or the sweep
// limit is reached. focus.Dir does not call it: it ranks candidates by
// rect centers and perpendicular overlap instead.
func (r Rect) Search(dir Direction, f func(Point) bool) {
	switch dir {
	case Up:
		for y := int64(r.Y) - 1; y >= 0 && int64(r.Y)-y <= maxSweep; y-- {
			for x := r.X; x < r.Right(); x++ {
				if f(Point{X: x, Y: uint32(y)}) {
					return
				}
			}
		}
	case Down:
		for y := uint64(r.Bottom()); y < uint64(r.Bottom())+maxSweep; y++ {
			for x := r.X; x < r.Right(); x++ {
				if f(Point{X: x, Y: uint32(y)}) {
					return
				}
			}
		}
	case Left:
		for x := int64(r.X) - 1; x >= 0 && int64(r.X)-x <= maxSweep; x-- {
			for y := r.Y; y < r.Bottom(); y++ {
				if f(Point{X: uint32(x), Y: y}) {
					return
				}
			}
		}
	case Right:
		for x := uint64(r.Right()); x < uint64(r.Right())+maxSweep; x++ {
			for y := r.Y; y < r.Bottom(); y++ {
				if f(Point{X: uint32(x), Y: y}) {
					return
				}
			}
		}
	}
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
