package geom

// RectI32 is a signed rectangle: viewports can shift negative when a
// scrolled child extends above or to the left of its visible area
// (spec.md §3 "View"). Width/height remain non-negative.
type RectI32 struct {
	X, Y int32
	W, H uint32
}

func NewRectI32(tl PointI32, e Expanse) RectI32 {
	return RectI32{X: tl.X, Y: tl.Y, W: e.W, H: e.H}
}

func (r RectI32) TopLeft() PointI32 { return PointI32{X: r.X, Y: r.Y} }
func (r RectI32) Size() Expanse     { return Expanse{W: r.W, H: r.H} }
func (r RectI32) Right() int32      { return r.X + int32(r.W) }
func (r RectI32) Bottom() int32     { return r.Y + int32(r.H) }
func (r RectI32) IsEmpty() bool     { return r.W == 0 || r.H == 0 }

func (r RectI32) Contains(x, y int32) bool {
	return x >= r.X && y >= r.Y && x < r.Right() && y < r.Bottom()
}

func (r RectI32) ContainsPoint(p PointI32) bool { return r.Contains(p.X, p.Y) }

// IntersectRect returns the intersection of r and o, and whether it is
// non-empty.
func (r RectI32) IntersectRect(o RectI32) (RectI32, bool) {
	x0 := maxI32(r.X, o.X)
	y0 := maxI32(r.Y, o.Y)
	x1 := minI32(r.Right(), o.Right())
	y1 := minI32(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return RectI32{}, false
	}
	return RectI32{X: x0, Y: y0, W: uint32(x1 - x0), H: uint32(y1 - y0)}, true
}

// RebasePoint returns p expressed relative to r's top-left corner,
// failing when p falls outside r.
func (r RectI32) RebasePoint(p PointI32) (PointI32, bool) {
	if !r.ContainsPoint(p) {
		return PointI32{}, false
	}
	return PointI32{X: p.X - r.X, Y: p.Y - r.Y}, true
}

// RebaseClamped is RebasePoint but clamps p into r instead of failing,
// used by the mouse router (spec.md §4.6) when a descendant extends the
// point outside its parent's content box.
func (r RectI32) RebaseClamped(p PointI32) PointI32 {
	x, y := p.X, p.Y
	if x < r.X {
		x = r.X
	}
	if y < r.Y {
		y = r.Y
	}
	if x >= r.Right() {
		x = r.Right() - 1
	}
	if y >= r.Bottom() {
		y = r.Bottom() - 1
	}
	if r.W == 0 {
		x = r.X
	}
	if r.H == 0 {
		y = r.Y
	}
	return PointI32{X: x - r.X, Y: y - r.Y}
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
