package canopy

import (
	"time"

	"github.com/framegrace/canopy/cell"
	"github.com/framegrace/canopy/focus"
	"github.com/framegrace/canopy/geom"
	"github.com/framegrace/canopy/layout"
	"github.com/framegrace/canopy/style"
)

// Render runs one full frame: pre-render (mount/poll bookkeeping),
// layout, the style/clip-scoped draw traversal, cursor placement, and
// the buffer flush (spec.md §4.8). A failure at any stage aborts the
// frame; the previous buffer, if any, is left untouched.
func (e *Engine) Render() error {
	root, ok := e.Root()
	if !ok {
		return newErr(KindInvalid, "render: no root set")
	}
	if err := e.preRender(root); err != nil {
		return err
	}
	if err := e.UpdateLayout(); err != nil {
		return err
	}

	next := cell.NewTermBuf(e.screenSize, style.Style{})
	rootClip := geom.RectI32{X: 0, Y: 0, W: e.screenSize.W, H: e.screenSize.H}
	if err := e.renderNode(root, rootClip, nil, next); err != nil {
		return wrapErr(KindRender, err, "render traversal")
	}
	e.overlayCursor(next)
	return e.flush(next)
}

// preRender performs spec.md §4.8 step 1: mount any node that has never
// had OnMount invoked (in practice only the root, since Context's
// mount_child/set_children already run OnMount eagerly at attach time —
// see DESIGN.md for why this implementation resolves that ordering
// choice eagerly rather than deferring to this pass), run each node's
// one-time initial Poll, fall back to focus_first if nothing holds
// focus, and stamp focus_path_gen when the focused node has changed
// since the last frame.
func (e *Engine) preRender(root NodeID) error {
	focusSeen := false
	var walkErr error

	e.arena.WalkPreOrder(root, true, func(id NodeID) bool {
		st, err := e.state(id)
		if err != nil {
			st = e.newState()
			e.states[id] = st
		}
		if e.focus.IsFocused(id) {
			focusSeen = true
		}
		if !st.mounted {
			if err := e.runOnMount(id); err != nil {
				walkErr = err
				return false
			}
		}
		if !st.initialized {
			if err := e.initPoll(id, st); err != nil {
				walkErr = err
				return false
			}
		}
		return true
	})
	if walkErr != nil {
		return walkErr
	}

	if !focusSeen {
		newContext(e, root).FocusFirst()
	}

	cur, hasFocus := e.focus.Current()
	if hasFocus && (!e.hasFocusSeen || e.lastFocusSeen != cur) {
		gen := e.focus.Generation()
		for _, id := range focus.Path(e.arena, cur) {
			if st, ok := e.states[id]; ok {
				st.focusPathGen = gen
			}
		}
		e.lastFocusSeen = cur
		e.hasFocusSeen = true
	}
	return nil
}

func (e *Engine) initPoll(id NodeID, st *nodeState) error {
	n, err := e.node(id)
	if err != nil {
		return err
	}
	var d time.Duration
	var again bool
	err = e.callWidget(id, func() error {
		ctx := newContext(e, id)
		d, again = n.Widget.Poll(ctx)
		return nil
	})
	if err != nil {
		return err
	}
	st.initialized = true
	if again {
		e.poller.schedule(id, d)
	}
	return nil
}

// renderNode implements the depth-first traversal pass (spec.md §4.8
// step 2): resolve the effective style-effect stack, clip to the
// node's published outer view intersected with the inherited clip,
// render the node itself, then recurse with the clip narrowed to the
// node's content view.
func (e *Engine) renderNode(id NodeID, parentClip geom.RectI32, parentStack []style.Effect, next *cell.TermBuf) error {
	n, err := e.node(id)
	if err != nil {
		return err
	}
	if n.Hidden {
		return nil
	}
	lay, err := e.resolvedLayout(id)
	if err != nil {
		return err
	}
	if lay.Display == layout.DisplayNone {
		return nil
	}
	st, err := e.state(id)
	if err != nil {
		return err
	}

	stack := parentStack
	if st.clearInherited {
		stack = nil
	}
	if len(st.effects) > 0 {
		combined := make([]style.Effect, 0, len(stack)+len(st.effects))
		combined = append(combined, stack...)
		combined = append(combined, st.effects...)
		stack = combined
	}

	clip, ok := parentClip.IntersectRect(st.view.Outer)
	if !ok {
		return nil
	}

	origin := geom.PointI32{
		X: st.view.Outer.X + int32(lay.Padding.Left),
		Y: st.view.Outer.Y + int32(lay.Padding.Top),
	}
	r := &Render{buf: next, origin: origin, clip: clipToRect(clip), stack: stack}
	vc := newViewContext(e, id)
	if err := e.callWidget(id, func() error {
		n.Widget.Render(r, vc)
		return nil
	}); err != nil {
		return err
	}

	childClip, ok := clip.IntersectRect(st.view.Content)
	if !ok {
		return nil
	}
	kids, err := e.visibleChildren(id)
	if err != nil {
		return err
	}
	for _, c := range kids {
		if err := e.renderNode(c, childClip, stack, next); err != nil {
			return err
		}
	}
	return nil
}

// clipToRect converts a signed clip rect, known non-negative by
// construction (every clip is intersected down from the screen-bound
// root rect), to the unsigned Rect the cell buffer indexes with.
func clipToRect(c geom.RectI32) geom.Rect {
	x, y := c.X, c.Y
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return geom.Rect{X: uint32(x), Y: uint32(y), W: c.W, H: c.H}
}

// overlayCursor implements spec.md §4.8 step 3: walk from the focused
// leaf to root, the first non-nil Cursor wins, converted from
// content-local to screen coordinates via the node's own view.
func (e *Engine) overlayCursor(next *cell.TermBuf) {
	cur, ok := e.focus.Current()
	if !ok {
		return
	}
	path := focus.Path(e.arena, cur)
	for i := len(path) - 1; i >= 0; i-- {
		id := path[i]
		n, err := e.node(id)
		if err != nil {
			continue
		}
		var cursor *Cursor
		err = e.callWidget(id, func() error {
			cursor = n.Widget.Cursor()
			return nil
		})
		if err != nil || cursor == nil {
			continue
		}
		st, err := e.state(id)
		if err != nil {
			continue
		}
		lay, err := e.resolvedLayout(id)
		if err != nil {
			continue
		}
		screenX := st.view.Outer.X + int32(lay.Padding.Left) + int32(cursor.Pos.X)
		screenY := st.view.Outer.Y + int32(lay.Padding.Top) + int32(cursor.Pos.Y)
		if screenX < 0 || screenY < 0 || screenX >= int32(e.screenSize.W) || screenY >= int32(e.screenSize.H) {
			return
		}
		next.OverlayCursor(geom.Point{X: uint32(screenX), Y: uint32(screenY)}, cursor.Shape)
		return
	}
}

// flush implements spec.md §4.8 step 4: a full render when there is no
// previous buffer to diff against, otherwise the minimal diff. The
// buffer is only swapped in on success, so a failed frame never
// corrupts what the backend last actually displayed.
func (e *Engine) flush(next *cell.TermBuf) error {
	if e.backend == nil {
		return newErr(KindInvalid, "render: no backend attached")
	}
	var err error
	if e.prevBuf == nil {
		err = next.Render(e.backend)
	} else {
		err = next.Diff(e.prevBuf, e.backend)
	}
	if err != nil {
		return wrapErr(KindRender, err, "render flush")
	}
	e.prevBuf = next
	return nil
}
