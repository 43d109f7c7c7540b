// Package layout holds canopy's layout value types and the pure
// constraint-resolution and flex-share math the measure/arrange passes
// run (spec.md §4.4). It has no dependency on the widget tree: the
// engine (root canopy package) drives these functions and feeds the
// results back into the arena, the same separation the teacher keeps
// between texelui/layout (value types) and texelui/core (the widget
// tree that applies them).
package layout

import "github.com/framegrace/canopy/geom"

// Direction controls how a container arranges its children.
type Direction int

const (
	Row Direction = iota
	Column
	Stack
)

// Align is the cross-axis / stack alignment rule (spec.md §4.4).
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	AlignStretch
)

// Overflow controls what happens when content exceeds the container's
// content box along an axis.
type Overflow int

const (
	OverflowVisible Overflow = iota
	OverflowClip
	OverflowScroll
)

// Display toggles whether a node participates in layout at all.
type Display int

const (
	DisplayBlock Display = iota
	DisplayNone
)

// SizingKind distinguishes the two ways a dimension can be sized.
type SizingKind int

const (
	SizingMeasure SizingKind = iota
	SizingFlex
)

// Sizing is either Measure (intrinsic, content-driven) or Flex(weight)
// (a share of the remaining space along the container's main axis).
type Sizing struct {
	Kind   SizingKind
	Weight float64
}

func Measure() Sizing { return Sizing{Kind: SizingMeasure} }

// Flex returns a flex sizing with the given weight, clamped to a
// minimum of 1: a weight of 0 (or negative) still claims an equal
// share rather than vanishing, matching original_source's
// core/world.rs call sites which clamp every flex weight with
// `w.max(1)` before it ever reaches allocate_flex_shares.
func Flex(weight float64) Sizing {
	if weight < 1 {
		weight = 1
	}
	return Sizing{Kind: SizingFlex, Weight: weight}
}

func (s Sizing) IsFlex() bool { return s.Kind == SizingFlex }

// Padding is per-edge inset applied inside a node's rect to form its
// content box.
type Padding struct {
	Top, Right, Bottom, Left uint32
}

func (p Padding) Horizontal() uint32 { return p.Left + p.Right }
func (p Padding) Vertical() uint32   { return p.Top + p.Bottom }

// Layout is one node's layout configuration (spec.md §3).
type Layout struct {
	Direction Direction

	Width  Sizing
	Height Sizing

	MinWidth, MinHeight uint32
	MaxWidth, MaxHeight *uint32 // nil means unbounded

	Padding Padding
	Gap     uint32

	AlignHorizontal Align
	AlignVertical   Align

	OverflowX, OverflowY Overflow
	Display              Display
}

// Default returns the zero-value layout used for freshly added nodes:
// a block, row-direction, measured, unpadded, start-aligned, visible
// node (spec.md §3).
func Default() Layout {
	return Layout{Direction: Row, Width: Measure(), Height: Measure()}
}

// MeasureConstraints is the input to a measure pass: for each axis
// either an Exact size, an upper bound (AtMost), or no bound at all
// (Unbounded) (spec.md §4.4).
type MeasureConstraints struct {
	Width, Height AxisConstraint
}

type AxisKind int

const (
	Exact AxisKind = iota
	AtMost
	Unbounded
)

type AxisConstraint struct {
	Kind AxisKind
	// Value is meaningful for Exact and AtMost; ignored for Unbounded.
	Value uint32
}

func ExactC(v uint32) AxisConstraint   { return AxisConstraint{Kind: Exact, Value: v} }
func AtMostC(v uint32) AxisConstraint  { return AxisConstraint{Kind: AtMost, Value: v} }
func UnboundedC() AxisConstraint       { return AxisConstraint{Kind: Unbounded} }

// Resolved caps a proposed size against the constraint.
func (c AxisConstraint) Resolved(proposed uint32) uint32 {
	switch c.Kind {
	case Exact:
		return c.Value
	case AtMost:
		if proposed > c.Value {
			return c.Value
		}
		return proposed
	default:
		return proposed
	}
}

// ChildConstraints derives the constraint a child sees along one axis,
// given the parent's own constraint on that axis, the child's Sizing,
// and (for Flex children) the share already allocated by the flex pass
// (spec.md §4.4 "Sizing-constraint resolution rules"):
//
//   - Flex sizing always resolves to Exact(share).
//   - Measure sizing with Overflow{Scroll,Visible} and no declared max
//     resolves to Unbounded (the child may report any intrinsic size).
//   - Measure sizing with min == max resolves to Exact(min).
//   - Otherwise resolves to AtMost(bound), where bound is the tightest
//     of the parent's own bound and the child's declared max; with an
//     Unbounded parent and no declared max it stays Unbounded.
func ChildConstraints(childSizing Sizing, min uint32, max *uint32, overflow Overflow, parent AxisConstraint, flexShare uint32) AxisConstraint {
	if childSizing.IsFlex() {
		return ExactC(flexShare)
	}
	if max != nil && min == *max {
		return ExactC(min)
	}
	if max == nil && overflow != OverflowClip {
		return UnboundedC()
	}
	bound := parent.Value
	switch parent.Kind {
	case Unbounded:
		if max != nil {
			return AtMostC(*max)
		}
		return UnboundedC()
	case Exact, AtMost:
		if max != nil && *max < bound {
			bound = *max
		}
		return AtMostC(bound)
	}
	return AtMostC(bound)
}

// AllocateFlexShares splits `remaining` units among the given flex
// weights using the largest-remainder method: each weight's base share
// is floor(remaining*weight/total), and the leftover units go to the
// weights with the largest fractional remainder first, ties broken by
// ascending index. Every weight is floored at 1 before the total is
// formed, so an all-zero-weight input still splits `remaining` evenly
// across the children rather than collapsing to all-zero shares.
// Grounded on original_source's core/world.rs allocate_flex_shares,
// which applies the same `w.max(1)` floor when summing weights.
func AllocateFlexShares(remaining uint32, weights []float64) []uint32 {
	n := len(weights)
	shares := make([]uint32, n)
	if n == 0 || remaining == 0 {
		return shares
	}
	clamped := make([]float64, n)
	total := 0.0
	for i, w := range weights {
		if w < 1 {
			w = 1
		}
		clamped[i] = w
		total += w
	}

	type frac struct {
		idx int
		rem float64
	}
	fracs := make([]frac, n)
	used := uint32(0)
	for i, w := range clamped {
		exact := float64(remaining) * w / total
		base := uint32(exact)
		shares[i] = base
		used += base
		fracs[i] = frac{idx: i, rem: exact - float64(base)}
	}

	leftover := remaining - used
	// Stable sort descending by remainder, ascending by index on ties.
	for i := 0; i < len(fracs); i++ {
		for j := i + 1; j < len(fracs); j++ {
			if fracs[j].rem > fracs[i].rem || (fracs[j].rem == fracs[i].rem && fracs[j].idx < fracs[i].idx) {
				fracs[i], fracs[j] = fracs[j], fracs[i]
			}
		}
	}
	for i := uint32(0); i < leftover && int(i) < len(fracs); i++ {
		shares[fracs[i].idx]++
	}
	return shares
}

// AlignOffset computes the start offset for a child of size `size`
// within an available span of `avail` along one axis, per Align
// (spec.md §4.4 Stack arrangement). AlignStretch behaves like
// AlignStart; stretching the child's actual size is the caller's
// responsibility during constraint resolution.
func AlignOffset(align Align, avail, size uint32) uint32 {
	if size >= avail {
		return 0
	}
	switch align {
	case AlignCenter:
		return (avail - size) / 2
	case AlignEnd:
		return avail - size
	default:
		return 0
	}
}

// ContentBox returns the rect remaining inside outer after padding is
// applied, clamped to zero size if padding exceeds outer's extents.
func ContentBox(outer geom.Rect, p Padding) geom.Rect {
	x := outer.X + p.Left
	y := outer.Y + p.Top
	w := uint32(0)
	if outer.W > p.Horizontal() {
		w = outer.W - p.Horizontal()
	}
	h := uint32(0)
	if outer.H > p.Vertical() {
		h = outer.H - p.Vertical()
	}
	return geom.Rect{X: x, Y: y, W: w, H: h}
}
