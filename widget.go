package canopy

import (
	"time"

	"github.com/framegrace/canopy/cell"
	"github.com/framegrace/canopy/event"
	"github.com/framegrace/canopy/geom"
	"github.com/framegrace/canopy/layout"
	"github.com/framegrace/canopy/style"
)

// Widget is the capability set every node's payload must satisfy
// (spec.md §6 "Widget protocol"). It plays the role the teacher's
// texelui/core.Widget interface plays, generalized from a fixed
// Draw/HandleKey pair to canopy's full layout/render/event contract.
// Embed BaseWidget to get sensible defaults for every method and
// override only what a concrete widget actually needs.
type Widget interface {
	Layout() layout.Layout
	Measure(MeasureConstraints) Measurement
	Canvas(view geom.Expanse, ctx CanvasContext) geom.Expanse
	Render(r *Render, vc *ViewContext)
	OnEvent(e *event.Event, ctx *Context) event.Outcome
	OnMount(ctx *Context) error
	Poll(ctx *Context) (time.Duration, bool)
	Cursor() *Cursor
	AcceptFocus(vc *ViewContext) bool
	Name() string
}

// MeasureConstraints is re-exported from layout so widget
// implementations don't need to import layout just to implement
// Measure.
type MeasureConstraints = layout.MeasureConstraints

// Measurement is a widget's answer to a measure pass: either a fixed
// intrinsic size, or Wrap (the engine sizes the node's content from its
// children, laid out along the node's Layout direction).
type Measurement struct {
	IsWrap bool
	Size   geom.Expanse
}

func Fixed(size geom.Expanse) Measurement { return Measurement{Size: size} }
func Wrap() Measurement                  { return Measurement{IsWrap: true} }

// Cursor is a widget's requested cursor position (content-local) and
// shape (spec.md §4.8 post-render pass).
type Cursor struct {
	Pos   geom.Point
	Shape cell.CursorShape
}

// CanvasContext exposes a widget's already-arranged children during
// its canvas() call, so a container can size its scrollable canvas
// around where its children ended up (spec.md §4.4 "Canvas and
// scroll").
type CanvasContext interface {
	ChildRect(id NodeID) (geom.Rect, bool)
	ChildCanvas(id NodeID) (geom.Expanse, bool)
}

// BaseWidget gives every method a no-op or zero-value default,
// mirroring the teacher's BaseWidget (texelui/core/widget.go): a
// concrete widget embeds this and only overrides what it needs.
type BaseWidget struct{}

func (BaseWidget) Layout() layout.Layout                             { return layout.Default() }
func (BaseWidget) Measure(MeasureConstraints) Measurement            { return Wrap() }
func (BaseWidget) Canvas(view geom.Expanse, _ CanvasContext) geom.Expanse { return view }
func (BaseWidget) Render(*Render, *ViewContext)                      {}
func (BaseWidget) OnEvent(*event.Event, *Context) event.Outcome       { return event.Ignore }
func (BaseWidget) OnMount(*Context) error                            { return nil }
func (BaseWidget) Poll(*Context) (time.Duration, bool)                { return 0, false }
func (BaseWidget) Cursor() *Cursor                                    { return nil }
func (BaseWidget) AcceptFocus(*ViewContext) bool                      { return false }
func (BaseWidget) Name() string                                      { return "" }

// Render is the per-node drawing surface handed to Widget.Render: a
// clipped view into the frame's next TermBuf, plus the resolved style
// effect stack in scope for this node (spec.md §4.8 traversal step).
// origin is signed because a scrolled node's content box may legitimately
// start off-screen while still having a visible, clipped tail.
type Render struct {
	buf    *cell.TermBuf
	origin geom.PointI32 // absolute screen coords of this node's content-box top-left
	clip   geom.Rect     // absolute screen rect this node may write within
	stack  []style.Effect
}

// Text writes s at content-local (x, y), resolved with base and the
// node's effect stack, clipped to this Render's clip rect.
func (r *Render) Text(base style.Style, x, y uint32, s string) {
	eff := style.Compose(r.stack)(base)
	absX := r.origin.X + int32(x)
	absY := r.origin.Y + int32(y)
	clipTop, clipBottom := int32(r.clip.Y), int32(r.clip.Bottom())
	clipLeft, clipRight := int32(r.clip.X), int32(r.clip.Right())
	if absY < clipTop || absY >= clipBottom || absX >= clipRight {
		return
	}
	startX := absX
	if startX < clipLeft {
		startX = clipLeft
	}
	if startX < 0 {
		return
	}
	runes := []rune(s)
	skip := int(startX - absX)
	if skip >= len(runes) {
		return
	}
	maxLen := uint32(clipRight - startX)
	clipped := clipRunes(string(runes[skip:]), maxLen)
	// TermBuf.Text space-fills to the end of the buffer row; restore the
	// cells right of the clip afterwards.
	rowStart := uint32(absY) * r.buf.Size.W
	tail := append([]cell.Cell(nil), r.buf.Cells[rowStart+uint32(clipRight):rowStart+r.buf.Size.W]...)
	r.buf.Text(eff, uint32(absY), uint32(startX), clipped)
	copy(r.buf.Cells[rowStart+uint32(clipRight):], tail)
}

// Fill paints ch with the given style across the full clip rect,
// typically used by containers to paint their background.
func (r *Render) Fill(s style.Style, ch rune) {
	eff := style.Compose(r.stack)(s)
	r.buf.Fill(r.clip, ch, eff)
}

func clipRunes(s string, maxLen uint32) string {
	if maxLen == 0 {
		return ""
	}
	runes := []rune(s)
	if uint32(len(runes)) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
