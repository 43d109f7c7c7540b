// Package view implements the on-screen viewport projection math that
// turns a node's local rect, its ancestors' scroll offsets, and its own
// scrollable canvas into absolute (and possibly off-screen, hence
// signed) screen coordinates (spec.md §4.1).
package view

import "github.com/framegrace/canopy/geom"

// View describes where a node actually lands on screen: outer is the
// node's full rect in absolute screen space (signed, since a scrolled
// child may extend above/left of the visible area); content is outer
// clipped to the visible region of every scrollable ancestor; scroll is
// this node's own scroll offset into its children; canvas is the
// scrollable content size those children are laid out against.
type View struct {
	Outer   geom.RectI32
	Content geom.RectI32
	Scroll  geom.Point
	Canvas  geom.Expanse
}

// Child projects a child's view given the parent's view, the child's
// local rect (relative to the parent's content box origin), and the
// child's own scroll/canvas (spec.md §4.1):
//
//	child.outer.tl = parent.content.tl + child.rect.tl - parent.scroll
//	child.content = child.outer ∩ parent.content
func Child(parent View, localRect geom.Rect, childScroll geom.Point, childCanvas geom.Expanse) View {
	tlX := parent.Content.X + int32(localRect.X) - int32(parent.Scroll.X)
	tlY := parent.Content.Y + int32(localRect.Y) - int32(parent.Scroll.Y)
	outer := geom.RectI32{X: tlX, Y: tlY, W: localRect.W, H: localRect.H}
	content, ok := outer.IntersectRect(parent.Content)
	if !ok {
		content = geom.RectI32{X: tlX, Y: tlY, W: 0, H: 0}
	}
	return View{Outer: outer, Content: content, Scroll: childScroll, Canvas: childCanvas}
}

// Root builds the view for the tree root: outer and content both equal
// the screen rect, with no scroll applied yet.
func Root(screen geom.Expanse, canvas geom.Expanse) View {
	r := geom.RectI32{X: 0, Y: 0, W: screen.W, H: screen.H}
	return View{Outer: r, Content: r, Canvas: canvas}
}

// Visible reports whether any part of the node's content box is
// currently on screen.
func (v View) Visible() bool { return v.Content.W > 0 && v.Content.H > 0 }

// ClampScroll pins scroll so that canvas - view stays non-negative on
// both axes per spec.md §4.4's "canvas >= view, scroll <= canvas - view"
// invariant: scroll is clamped into [0, max(0, canvas.dim - view.dim)].
func ClampScroll(scroll geom.Point, canvas, viewport geom.Expanse) geom.Point {
	maxX := uint32(0)
	if canvas.W > viewport.W {
		maxX = canvas.W - viewport.W
	}
	maxY := uint32(0)
	if canvas.H > viewport.H {
		maxY = canvas.H - viewport.H
	}
	x, y := scroll.X, scroll.Y
	if x > maxX {
		x = maxX
	}
	if y > maxY {
		y = maxY
	}
	return geom.Point{X: x, Y: y}
}

// ClampCanvas enforces canvas >= view on both axes: a node's scrollable
// canvas may never be reported smaller than its own viewport.
func ClampCanvas(canvas, viewport geom.Expanse) geom.Expanse {
	w := canvas.W
	if w < viewport.W {
		w = viewport.W
	}
	h := canvas.H
	if h < viewport.H {
		h = viewport.H
	}
	return geom.Expanse{W: w, H: h}
}
