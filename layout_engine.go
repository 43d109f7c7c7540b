package canopy

import (
	"github.com/framegrace/canopy/arena"
	"github.com/framegrace/canopy/geom"
	"github.com/framegrace/canopy/layout"
	"github.com/framegrace/canopy/view"
)

// UpdateLayout re-runs measure, arrange, canvas resolution, and view
// publication from the root, using the engine's current screen size
// (spec.md §4.4). It is idempotent: given the same arena and root
// size, the resolved views are bit-identical (spec.md §5 "Ordering
// guarantees").
func (e *Engine) UpdateLayout() error {
	root, ok := e.Root()
	if !ok {
		return newErr(KindInvalid, "update_layout: no root set")
	}
	for _, st := range e.states {
		st.measureCache = make(map[layout.MeasureConstraints]Measurement)
	}
	wc := layout.ExactC(e.screenSize.W)
	hc := layout.ExactC(e.screenSize.H)
	size, err := e.resolveOuterSize(root, layout.MeasureConstraints{Width: wc, Height: hc})
	if err != nil {
		return err
	}
	st, _ := e.state(root)
	st.rect = geom.Rect{X: 0, Y: 0, W: size.W, H: size.H}
	if err := e.arrangeChildren(root); err != nil {
		return err
	}
	if err := e.resolveCanvas(root); err != nil {
		return err
	}
	rootView := view.Root(e.screenSize, st.canvas)
	st.view = rootView
	return e.publishViews(root, rootView)
}

// SetRootSize records a new screen size and reruns layout (spec.md
// §4.6 Resize handling). Render is not triggered directly.
func (e *Engine) SetRootSize(size geom.Expanse) error {
	e.screenSize = size
	return e.UpdateLayout()
}

func (e *Engine) visibleChildren(id NodeID) ([]NodeID, error) {
	kids := e.arena.Children(id)
	out := make([]NodeID, 0, len(kids))
	for _, c := range kids {
		n, err := e.node(c)
		if err != nil {
			return nil, err
		}
		if n.Hidden {
			e.clearSubtree(c)
			continue
		}
		lay, err := e.resolvedLayout(c)
		if err != nil {
			return nil, err
		}
		if lay.Display == layout.DisplayNone {
			e.clearSubtree(c)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (e *Engine) clearSubtree(id NodeID) {
	e.arena.WalkPreOrder(id, false, func(n arena.ID) bool {
		if st, ok := e.states[n]; ok {
			st.rect = geom.Rect{}
			st.contentSize = geom.Expanse{}
			st.canvas = geom.Expanse{}
			st.scroll = geom.Point{}
			st.view = view.View{}
		}
		return true
	})
}

// resolveOuterSize implements the six-step outer-size resolution
// procedure (spec.md §4.4 "Outer size resolution (per node)"): build
// constraints and measure (steps 1-2), compute and clamp the initial
// outer size (steps 3-4), re-measure at the resolved width if the
// clamp moved it (step 5), then prime the widget with a final
// cache-only measurement at the exact resolved content size (step 6).
func (e *Engine) resolveOuterSize(id NodeID, parent layout.MeasureConstraints) (geom.Expanse, error) {
	lay, err := e.resolvedLayout(id)
	if err != nil {
		return geom.Expanse{}, err
	}
	n, err := e.node(id)
	if err != nil {
		return geom.Expanse{}, err
	}

	measured, mc, err := e.measureIfNeeded(id, n, lay, parent)
	if err != nil {
		return geom.Expanse{}, err
	}

	var width, height uint32
	if lay.Width.IsFlex() {
		width = flexAvailable(parent.Width)
	} else {
		width = measured.W + lay.Padding.Horizontal()
	}
	if lay.Height.IsFlex() {
		height = flexAvailable(parent.Height)
	} else {
		height = measured.H + lay.Padding.Vertical()
	}

	width = clampAxis(width, lay.MinWidth, lay.MaxWidth)
	height = clampAxis(height, lay.MinHeight, lay.MaxHeight)

	if !lay.Width.IsFlex() {
		resolvedContentW := contentExtent(width, lay.Padding.Horizontal())
		if resolvedContentW != measured.W {
			remc := layout.MeasureConstraints{Width: layout.ExactC(resolvedContentW), Height: mc.Height}
			remeasured, err := e.measureAt(id, n, lay, remc)
			if err != nil {
				return geom.Expanse{}, err
			}
			measured = remeasured
			if !lay.Height.IsFlex() {
				height = clampAxis(measured.H+lay.Padding.Vertical(), lay.MinHeight, lay.MaxHeight)
			}
		}
	}

	finalMC := layout.MeasureConstraints{
		Width:  layout.ExactC(contentExtent(width, lay.Padding.Horizontal())),
		Height: layout.ExactC(contentExtent(height, lay.Padding.Vertical())),
	}
	if _, err := e.measureAt(id, n, lay, finalMC); err != nil {
		return geom.Expanse{}, err
	}

	return geom.Expanse{W: width, H: height}, nil
}

// contentExtent subtracts a padding total from an outer size,
// saturating at zero.
func contentExtent(outer, padding uint32) uint32 {
	if outer <= padding {
		return 0
	}
	return outer - padding
}

func flexAvailable(c layout.AxisConstraint) uint32 {
	switch c.Kind {
	case layout.Exact, layout.AtMost:
		return c.Value
	default:
		return 0
	}
}

func clampAxis(v, min uint32, max *uint32) uint32 {
	if v < min {
		v = min
	}
	if max != nil && v > *max {
		v = *max
	}
	return v
}

// measureIfNeeded asks the widget to measure id's content, honoring the
// per-pass cache, and recurses into children for Wrap measurements
// (spec.md §4.4 "Wrap (measure = sum of children)"). It also returns
// the constraint the widget was measured against, so resolveOuterSize
// can detect when a later clamp moves the content width away from it
// (step 5 of "Outer size resolution").
func (e *Engine) measureIfNeeded(id NodeID, n *arena.Node[Widget], lay layout.Layout, parent layout.MeasureConstraints) (geom.Expanse, layout.MeasureConstraints, error) {
	cw := layout.ChildConstraints(lay.Width, lay.MinWidth, lay.MaxWidth, lay.OverflowX, parent.Width, flexAvailable(parent.Width))
	ch := layout.ChildConstraints(lay.Height, lay.MinHeight, lay.MaxHeight, lay.OverflowY, parent.Height, flexAvailable(parent.Height))
	mc := layout.MeasureConstraints{Width: cw, Height: ch}
	if lay.Width.IsFlex() && lay.Height.IsFlex() {
		return geom.Expanse{}, mc, nil
	}

	size, err := e.measureAt(id, n, lay, mc)
	return size, mc, err
}

// measureAt asks the widget to measure id against an explicit
// constraint, honoring the per-pass measurement cache (spec.md §4.4
// "Measurement cache"). Shared by the primary measure pass in
// measureIfNeeded and by resolveOuterSize's later re-measure and
// cache-priming passes (steps 5-6 of "Outer size resolution"), so a
// repeated constraint never calls into the widget twice.
func (e *Engine) measureAt(id NodeID, n *arena.Node[Widget], lay layout.Layout, mc layout.MeasureConstraints) (geom.Expanse, error) {
	st, err := e.state(id)
	if err != nil {
		return geom.Expanse{}, err
	}
	if cached, ok := st.measureCache[mc]; ok {
		return e.resolveMeasurement(id, lay, mc, cached)
	}

	var m Measurement
	err = e.callWidget(id, func() error {
		m = n.Widget.Measure(mc)
		return nil
	})
	if err != nil {
		return geom.Expanse{}, err
	}
	st.measureCache[mc] = m
	return e.resolveMeasurement(id, lay, mc, m)
}

func (e *Engine) resolveMeasurement(id NodeID, lay layout.Layout, mc layout.MeasureConstraints, m Measurement) (geom.Expanse, error) {
	if !m.IsWrap {
		return geom.Expanse{
			W: mc.Width.Resolved(m.Size.W),
			H: mc.Height.Resolved(m.Size.H),
		}, nil
	}
	return e.wrapMeasure(id, lay, mc)
}

// wrapMeasure implements the children-driven content size computation
// for Row/Column/Stack (spec.md §4.4).
func (e *Engine) wrapMeasure(id NodeID, lay layout.Layout, mc layout.MeasureConstraints) (geom.Expanse, error) {
	kids, err := e.visibleChildren(id)
	if err != nil {
		return geom.Expanse{}, err
	}
	if lay.Direction == layout.Stack {
		var maxW, maxH uint32
		for _, c := range kids {
			size, err := e.resolveOuterSize(c, layout.MeasureConstraints{Width: mc.Width, Height: mc.Height})
			if err != nil {
				return geom.Expanse{}, err
			}
			if size.W > maxW {
				maxW = size.W
			}
			if size.H > maxH {
				maxH = size.H
			}
		}
		return geom.Expanse{W: mc.Width.Resolved(maxW), H: mc.Height.Resolved(maxH)}, nil
	}

	isRow := lay.Direction == layout.Row
	mainC, crossC := mc.Width, mc.Height
	if !isRow {
		mainC, crossC = mc.Height, mc.Width
	}

	var fixedMain uint32
	var maxCross uint32
	visible := 0
	for _, c := range kids {
		visible++
		cLay, err := e.resolvedLayout(c)
		if err != nil {
			return geom.Expanse{}, err
		}
		effLay := cLay
		if mainC.Kind != layout.Exact {
			if isRow {
				effLay.Width = layout.Measure()
			} else {
				effLay.Height = layout.Measure()
			}
		}
		if isRow {
			effLay.OverflowX = lay.OverflowX
		} else {
			effLay.OverflowY = lay.OverflowY
		}
		size, err := e.resolveOuterSizeWithLayout(c, effLay, layout.MeasureConstraints{Width: mainAxisConstraint(isRow, mainC, crossC, true), Height: mainAxisConstraint(isRow, mainC, crossC, false)})
		if err != nil {
			return geom.Expanse{}, err
		}
		var main, cross uint32
		if isRow {
			main, cross = size.W, size.H
		} else {
			main, cross = size.H, size.W
		}
		if (isRow && !effLay.Width.IsFlex()) || (!isRow && !effLay.Height.IsFlex()) {
			fixedMain += main
		}
		if cross > maxCross {
			maxCross = cross
		}
	}
	if visible > 1 {
		fixedMain += lay.Gap * uint32(visible-1)
	}

	var main uint32
	if mainC.Kind == layout.Exact {
		main = mainC.Value
	} else {
		main = fixedMain
	}
	if isRow {
		return geom.Expanse{W: mc.Width.Resolved(main), H: mc.Height.Resolved(maxCross)}, nil
	}
	return geom.Expanse{W: mc.Width.Resolved(maxCross), H: mc.Height.Resolved(main)}, nil
}

func mainAxisConstraint(isRow bool, mainC, crossC layout.AxisConstraint, wantWidth bool) layout.AxisConstraint {
	if isRow == wantWidth {
		return mainC
	}
	return crossC
}

// resolveOuterSizeWithLayout is resolveOuterSize but against an
// effective layout override (used for the Wrap flex-as-measure
// substitution), rather than the node's stored layout.
func (e *Engine) resolveOuterSizeWithLayout(id NodeID, lay layout.Layout, parent layout.MeasureConstraints) (geom.Expanse, error) {
	st, err := e.state(id)
	if err != nil {
		return geom.Expanse{}, err
	}
	prevOverride := st.layoutOverride
	st.layoutOverride = &lay
	defer func() { st.layoutOverride = prevOverride }()
	return e.resolveOuterSize(id, parent)
}

// arrangeChildren positions id's visible children within its content
// box (spec.md §4.4 "Arrange").
func (e *Engine) arrangeChildren(id NodeID) error {
	lay, err := e.resolvedLayout(id)
	if err != nil {
		return err
	}
	st, err := e.state(id)
	if err != nil {
		return err
	}
	content := layout.ContentBox(st.rect, lay.Padding)
	st.contentSize = content.Size()

	kids, err := e.visibleChildren(id)
	if err != nil {
		return err
	}
	if len(kids) == 0 {
		return nil
	}

	if lay.Direction == layout.Stack {
		for _, c := range kids {
			size, err := e.resolveOuterSize(c, layout.MeasureConstraints{Width: layout.AtMostC(content.W), Height: layout.AtMostC(content.H)})
			if err != nil {
				return err
			}
			cLay, _ := e.resolvedLayout(c)
			ox := layout.AlignOffset(cLay.AlignHorizontal, content.W, size.W)
			oy := layout.AlignOffset(cLay.AlignVertical, content.H, size.H)
			cst, _ := e.state(c)
			cst.rect = geom.Rect{X: ox, Y: oy, W: size.W, H: size.H}
			if err := e.arrangeChildren(c); err != nil {
				return err
			}
			if err := e.resolveCanvas(c); err != nil {
				return err
			}
		}
		return nil
	}

	isRow := lay.Direction == layout.Row
	mainAvail := content.W
	crossAvail := content.H
	if !isRow {
		mainAvail, crossAvail = content.H, content.W
	}

	sizes := make([]geom.Expanse, len(kids))
	var weights []float64
	var flexIdx []int
	var fixedMain uint32
	for i, c := range kids {
		cLay, err := e.resolvedLayout(c)
		if err != nil {
			return err
		}
		isFlex := (isRow && cLay.Width.IsFlex()) || (!isRow && cLay.Height.IsFlex())
		if isFlex {
			w := cLay.Width.Weight
			if !isRow {
				w = cLay.Height.Weight
			}
			if w < 1 {
				w = 1
			}
			weights = append(weights, w)
			flexIdx = append(flexIdx, i)
			continue
		}
		crossConstraint := layout.AtMostC(crossAvail)
		var mc layout.MeasureConstraints
		if isRow {
			mc = layout.MeasureConstraints{Width: layout.AtMostC(mainAvail), Height: crossConstraint}
		} else {
			mc = layout.MeasureConstraints{Width: crossConstraint, Height: layout.AtMostC(mainAvail)}
		}
		size, err := e.resolveOuterSize(c, mc)
		if err != nil {
			return err
		}
		sizes[i] = size
		if isRow {
			fixedMain += size.W
		} else {
			fixedMain += size.H
		}
	}
	if len(kids) > 1 {
		fixedMain += lay.Gap * uint32(len(kids)-1)
	}
	remaining := uint32(0)
	if mainAvail > fixedMain {
		remaining = mainAvail - fixedMain
	}
	shares := layout.AllocateFlexShares(remaining, weights)
	for si, idx := range flexIdx {
		c := kids[idx]
		share := shares[si]
		crossConstraint := layout.AtMostC(crossAvail)
		var mc layout.MeasureConstraints
		if isRow {
			mc = layout.MeasureConstraints{Width: layout.ExactC(share), Height: crossConstraint}
		} else {
			mc = layout.MeasureConstraints{Width: crossConstraint, Height: layout.ExactC(share)}
		}
		size, err := e.resolveOuterSize(c, mc)
		if err != nil {
			return err
		}
		sizes[idx] = size
	}

	cursor := uint32(0)
	for i, c := range kids {
		size := sizes[i]
		cLay, _ := e.resolvedLayout(c)
		var rect geom.Rect
		if isRow {
			crossOff := layout.AlignOffset(cLay.AlignVertical, crossAvail, size.H)
			rect = geom.Rect{X: content.X + cursor, Y: content.Y + crossOff, W: size.W, H: size.H}
			cursor += size.W + lay.Gap
		} else {
			crossOff := layout.AlignOffset(cLay.AlignHorizontal, crossAvail, size.W)
			rect = geom.Rect{X: content.X + crossOff, Y: content.Y + cursor, W: size.W, H: size.H}
			cursor += size.H + lay.Gap
		}
		cst, _ := e.state(c)
		cst.rect = geom.Rect{X: rect.X - content.X, Y: rect.Y - content.Y, W: rect.W, H: rect.H}
		if err := e.arrangeChildren(c); err != nil {
			return err
		}
		if err := e.resolveCanvas(c); err != nil {
			return err
		}
	}
	return nil
}

// resolveCanvas asks the widget for its scrollable canvas size and
// enforces canvas >= view, re-clamping scroll (spec.md §4.4 "Canvas and
// scroll").
func (e *Engine) resolveCanvas(id NodeID) error {
	n, err := e.node(id)
	if err != nil {
		return err
	}
	st, err := e.state(id)
	if err != nil {
		return err
	}
	viewSize := st.contentSize
	var canvas geom.Expanse
	err = e.callWidget(id, func() error {
		canvas = n.Widget.Canvas(viewSize, &canvasContext{e: e, id: id})
		return nil
	})
	if err != nil {
		return err
	}
	canvas = view.ClampCanvas(canvas, viewSize)
	st.canvas = canvas
	st.scroll = view.ClampScroll(st.scroll, canvas, viewSize)
	return nil
}

// publishViews walks the tree propagating parent view into each
// child's View (spec.md §4.4 "View publication").
func (e *Engine) publishViews(id NodeID, v view.View) error {
	kids := e.arena.Children(id)
	for _, c := range kids {
		n, err := e.node(c)
		if err != nil {
			return err
		}
		if n.Hidden {
			continue
		}
		cst, err := e.state(c)
		if err != nil {
			return err
		}
		cLay, err := e.resolvedLayout(c)
		if err != nil {
			return err
		}
		if cLay.Display == layout.DisplayNone {
			continue
		}
		childView := view.Child(v, cst.rect, cst.scroll, cst.canvas)
		cst.view = childView
		if err := e.publishViews(c, childView); err != nil {
			return err
		}
	}
	return nil
}

// canvasContext implements CanvasContext over the engine's current
// layout state (spec.md §6).
type canvasContext struct {
	e  *Engine
	id NodeID
}

func (c *canvasContext) ChildRect(id NodeID) (geom.Rect, bool) {
	st, ok := c.e.states[id]
	if !ok {
		return geom.Rect{}, false
	}
	return st.rect, true
}

func (c *canvasContext) ChildCanvas(id NodeID) (geom.Expanse, bool) {
	st, ok := c.e.states[id]
	if !ok {
		return geom.Expanse{}, false
	}
	return st.canvas, true
}
