package canopy

import (
	"github.com/framegrace/canopy/arena"
	"github.com/framegrace/canopy/command"
	"github.com/framegrace/canopy/focus"
	"github.com/framegrace/canopy/geom"
	"github.com/framegrace/canopy/layout"
	"github.com/framegrace/canopy/style"
	"github.com/framegrace/canopy/view"
)

// arenaNode is this package's concrete arena node type, aliased for
// readability wherever focus/arena generics are instantiated over
// Widget.
type arenaNode = arena.Node[Widget]

// ViewContext is the read-only facade handed to Widget.Render and
// Widget.AcceptFocus (spec.md §4.10): geometry and focus queries bound
// to one node, with no mutation surface.
type ViewContext struct {
	e  *Engine
	id NodeID
}

func (vc *ViewContext) Self() NodeID { return vc.id }

// View returns this node's published View (outer/content rects, scroll,
// canvas) as computed by the last layout pass.
func (vc *ViewContext) View() view.View {
	st, err := vc.e.state(vc.id)
	if err != nil {
		return view.View{}
	}
	return st.view
}

// Children returns this node's children, in order.
func (vc *ViewContext) Children() []NodeID { return vc.e.arena.Children(vc.id) }

// Canvas returns this node's resolved scrollable canvas size.
func (vc *ViewContext) Canvas() geom.Expanse {
	st, err := vc.e.state(vc.id)
	if err != nil {
		return geom.Expanse{}
	}
	return st.canvas
}

// ParentOf returns id's parent in the tree.
func (vc *ViewContext) ParentOf(id NodeID) (NodeID, bool) { return vc.e.arena.Parent(id) }

// FocusPath returns the id chain from the tree root down to the
// focused node, or nil if nothing is focused.
func (vc *ViewContext) FocusPath() []NodeID {
	cur, ok := vc.e.focus.Current()
	if !ok {
		return nil
	}
	return focus.Path(vc.e.arena, cur)
}

// FocusedLeaf returns the currently focused node, if any.
func (vc *ViewContext) FocusedLeaf() (NodeID, bool) { return vc.e.focus.Current() }

// FocusableLeaves returns every node in the tree that currently accepts
// focus, in pre-order.
func (vc *ViewContext) FocusableLeaves() []NodeID {
	root, ok := vc.e.Root()
	if !ok {
		return nil
	}
	var out []NodeID
	vc.e.arena.WalkPreOrder(root, true, func(id NodeID) bool {
		if vc.e.acceptsFocus(id) {
			out = append(out, id)
		}
		return true
	})
	return out
}

// IsFocused reports whether id currently holds focus.
func (vc *ViewContext) IsFocused(id NodeID) bool { return vc.e.focus.IsFocused(id) }

// IsOnFocusPath reports whether id is the focused node or an ancestor
// of it.
func (vc *ViewContext) IsOnFocusPath(id NodeID) bool {
	return focus.IsOnFocusPath(vc.e.arena, &vc.e.focus, id)
}

// Context is the mutating facade handed to Widget.OnEvent, OnMount, and
// Poll, and to bound scripts (spec.md §4.10). It embeds ViewContext's
// read surface and adds every mutation category the engine exposes.
type Context struct {
	ViewContext
}

func newContext(e *Engine, id NodeID) *Context {
	return &Context{ViewContext{e: e, id: id}}
}

func newViewContext(e *Engine, id NodeID) *ViewContext {
	return &ViewContext{e: e, id: id}
}

// --- Focus manipulation ---

// SetFocus moves focus to id. No-op (returns false) if id is already
// focused.
func (c *Context) SetFocus(id NodeID) bool {
	if c.e.focus.IsFocused(id) {
		return false
	}
	c.e.focus.Set(id)
	return true
}

func (c *Context) predicates() focus.Predicates[Widget] {
	return focus.Predicates[Widget]{
		AcceptsFocus: func(id NodeID, n *arenaNode) bool {
			vc := newViewContext(c.e, id)
			return n.Widget.AcceptFocus(vc)
		},
		IsVisible: func(n *arenaNode) bool { return !n.Hidden },
		Rect: func(id NodeID) (geom.Rect, bool) {
			st, err := c.e.state(id)
			if err != nil {
				return geom.Rect{}, false
			}
			return st.rect, true
		},
	}
}

// FocusNext moves focus to the next focusable node from the tree root,
// pre-order, wrapping around.
func (c *Context) FocusNext() bool { return c.focusNextIn(c.e.treeRootOrSelf()) }

// FocusNextIn is FocusNext scoped to the subtree rooted at root.
func (c *Context) FocusNextIn(root NodeID) bool { return c.focusNextIn(root) }

func (c *Context) focusNextIn(root NodeID) bool {
	cur, hasCur := c.e.focus.Current()
	next, ok := focus.Next(c.e.arena, root, cur, hasCur, c.predicates())
	if !ok {
		return false
	}
	return c.SetFocus(next)
}

// FocusPrev is the mirror of FocusNext.
func (c *Context) FocusPrev() bool { return c.focusPrevIn(c.e.treeRootOrSelf()) }
func (c *Context) FocusPrevIn(root NodeID) bool { return c.focusPrevIn(root) }

func (c *Context) focusPrevIn(root NodeID) bool {
	cur, hasCur := c.e.focus.Current()
	prev, ok := focus.Prev(c.e.arena, root, cur, hasCur, c.predicates())
	if !ok {
		return false
	}
	return c.SetFocus(prev)
}

// FocusFirst focuses the first focusable node in the tree, pre-order.
func (c *Context) FocusFirst() bool { return c.FocusFirstIn(c.e.treeRootOrSelf()) }

func (c *Context) FocusFirstIn(root NodeID) bool {
	first, ok := focus.Next(c.e.arena, root, NodeID{}, false, c.predicates())
	if !ok {
		return false
	}
	return c.SetFocus(first)
}

// FocusDir searches directionally from the focused node (spec.md
// §4.5).
func (c *Context) FocusDir(dir geom.Direction) bool { return c.FocusDirIn(c.e.treeRootOrSelf(), dir) }

func (c *Context) FocusDirIn(root NodeID, dir geom.Direction) bool {
	cur, ok := c.e.focus.Current()
	if !ok {
		return c.FocusFirstIn(root)
	}
	next, ok := focus.Dir(c.e.arena, root, cur, dir, c.predicates())
	if !ok {
		return false
	}
	return c.SetFocus(next)
}

func (c *Context) FocusUp() bool    { return c.FocusDir(geom.Up) }
func (c *Context) FocusDown() bool  { return c.FocusDir(geom.Down) }
func (c *Context) FocusLeft() bool  { return c.FocusDir(geom.Left) }
func (c *Context) FocusRight() bool { return c.FocusDir(geom.Right) }

// --- Scroll (operates on self unless an explicit id is given) ---

func (c *Context) ScrollTo(p geom.Point) error      { return c.scrollToOf(c.id, p) }
func (c *Context) ScrollToOf(id NodeID, p geom.Point) error { return c.scrollToOf(id, p) }

func (c *Context) scrollToOf(id NodeID, p geom.Point) error {
	st, err := c.e.state(id)
	if err != nil {
		return err
	}
	st.scroll = view.ClampScroll(p, st.canvas, st.contentSize)
	return nil
}

func (c *Context) ScrollBy(dx, dy int32) error { return c.scrollByOf(c.id, dx, dy) }
func (c *Context) ScrollByOf(id NodeID, dx, dy int32) error { return c.scrollByOf(id, dx, dy) }

func (c *Context) scrollByOf(id NodeID, dx, dy int32) error {
	st, err := c.e.state(id)
	if err != nil {
		return err
	}
	return c.scrollToOf(id, st.scroll.Scroll(dx, dy))
}

func (c *Context) ScrollUp(n int32) error    { return c.ScrollBy(0, -n) }
func (c *Context) ScrollDown(n int32) error  { return c.ScrollBy(0, n) }
func (c *Context) ScrollLeft(n int32) error  { return c.ScrollBy(-n, 0) }
func (c *Context) ScrollRight(n int32) error { return c.ScrollBy(n, 0) }

func (c *Context) PageUp() error {
	st, err := c.e.state(c.id)
	if err != nil {
		return err
	}
	return c.ScrollUp(int32(st.contentSize.H))
}

func (c *Context) PageDown() error {
	st, err := c.e.state(c.id)
	if err != nil {
		return err
	}
	return c.ScrollDown(int32(st.contentSize.H))
}

// --- Tree editing ---

// Add allocates a new, unmounted node wrapping w.
func (c *Context) Add(w Widget) NodeID { return c.e.Add(w) }

// MountChild mounts child under self.
func (c *Context) MountChild(child NodeID) error { return c.MountChildTo(c.id, child) }

// MountChildTo mounts child under the given parent.
func (c *Context) MountChildTo(parent, child NodeID) error {
	err := c.e.arena.MountChild(parent, child, func(id NodeID) error {
		return c.e.runOnMount(id)
	})
	if err != nil {
		return wrapErr(KindInvalid, err, "mount_child")
	}
	return nil
}

// DetachChild detaches child from self.
func (c *Context) DetachChild(child NodeID) error { return c.DetachChildFrom(c.id, child) }

// DetachChildFrom detaches child from the given parent. parent is
// accepted for symmetry with MountChildTo; detaching only requires the
// child's own id since arena tracks parentage directly.
func (c *Context) DetachChildFrom(parent, child NodeID) error {
	_ = parent
	if err := c.e.arena.Detach(child); err != nil {
		return wrapErr(KindNodeNotFound, err, "detach_child")
	}
	return nil
}

// SetChildren replaces self's children.
func (c *Context) SetChildren(children []NodeID) error { return c.SetChildrenOf(c.id, children) }

// SetChildrenOf replaces parent's children transactionally.
func (c *Context) SetChildrenOf(parent NodeID, children []NodeID) error {
	err := c.e.arena.SetChildren(parent, children, func(id NodeID) error {
		return c.e.runOnMount(id)
	})
	if err != nil {
		return wrapErr(KindInvalid, err, "set_children")
	}
	return nil
}

// SetHidden sets self's visibility.
func (c *Context) SetHidden(hidden bool) error { return c.SetHiddenOf(c.id, hidden) }

// SetHiddenOf sets id's visibility, re-homing focus off of it if it
// becomes hidden while on the focus path (spec.md §4.3).
func (c *Context) SetHiddenOf(id NodeID, hidden bool) error {
	prev, err := c.e.arena.SetHidden(id, hidden)
	if err != nil {
		return wrapErr(KindNodeNotFound, err, "set_hidden")
	}
	if hidden && !prev {
		if cur, ok := c.e.focus.Current(); ok {
			if cur == id || c.e.arena.IsAncestor(id, cur) {
				c.e.focus.Clear()
				c.FocusFirst()
			}
		}
	}
	return nil
}

// --- Effects & style ---

// PushEffect appends a style effect to self's local effect stack.
func (c *Context) PushEffect(eff style.Effect) error {
	st, err := c.e.state(c.id)
	if err != nil {
		return err
	}
	st.effects = append(st.effects, eff)
	return nil
}

// ClearEffects removes every local effect from self.
func (c *Context) ClearEffects() error {
	st, err := c.e.state(c.id)
	if err != nil {
		return err
	}
	st.effects = nil
	return nil
}

// SetClearInheritedEffects controls whether self's effect stack starts
// empty (true) or inherits the parent's resolved stack (false) during
// render (spec.md §4.8).
func (c *Context) SetClearInheritedEffects(clear bool) error {
	st, err := c.e.state(c.id)
	if err != nil {
		return err
	}
	st.clearInherited = clear
	return nil
}

// SetStyle queues a partial style override that takes effect starting
// the next render (spec.md §4.10): implemented as a local effect so it
// composes with any effects pushed separately.
func (c *Context) SetStyle(p style.PartialStyle) error { return c.PushEffect(style.FromPartial(p)) }

// --- Layout override ---

// WithLayout replaces self's effective layout (spec.md §4.10
// "with_layout"). Pass nil to revert to the widget's own declared
// layout.
func (c *Context) WithLayout(l *layout.Layout) error { return c.WithLayoutOf(c.id, l) }

func (c *Context) WithLayoutOf(id NodeID, l *layout.Layout) error {
	st, err := c.e.state(id)
	if err != nil {
		return err
	}
	st.layoutOverride = l
	return nil
}

// --- Lifecycle ---

// Start re-enters the backend's alternate screen.
func (c *Context) Start() error {
	if c.e.backend == nil {
		return newErr(KindInvalid, "start: no backend attached")
	}
	return c.e.backend.Start()
}

// Stop releases the terminal without exiting the process.
func (c *Context) Stop() error {
	if c.e.backend == nil {
		return newErr(KindInvalid, "stop: no backend attached")
	}
	return c.e.backend.Stop()
}

// Exit performs an irreversible shutdown (spec.md §5 "Cancellation").
func (c *Context) Exit(code int) error {
	c.e.exited = true
	c.e.exitCode = code
	if c.e.backend == nil {
		return nil
	}
	return c.e.backend.Exit(code)
}

// --- Command dispatch ---

// DispatchCommand invokes the named command on node, if node's widget
// implements CommandDispatcher (spec.md §4.7).
func (c *Context) DispatchCommand(node NodeID, name string, args ...any) (any, error) {
	n, err := c.e.node(node)
	if err != nil {
		return nil, err
	}
	dispatcher, ok := n.Widget.(CommandDispatcher)
	if !ok {
		return nil, newErr(KindUnknownCommand, "node %s does not implement commands", node)
	}
	var result any
	var callErr error
	err = c.e.callWidget(node, func() error {
		sub := newContext(c.e, node)
		result, callErr = dispatcher.Dispatch(sub, command.Invocation{Name: name, Args: args})
		return callErr
	})
	if err != nil {
		return nil, wrapErr(KindUnknownCommand, err, "dispatch %s", name)
	}
	return result, nil
}

// CommandDispatcher is the optional interface a Widget implements to
// accept command dispatch (spec.md §4.7). Commands() advertises what it
// supports; Dispatch performs one invocation.
type CommandDispatcher interface {
	Commands() []command.Spec
	Dispatch(ctx *Context, inv command.Invocation) (any, error)
}

// --- Widget re-entry ---

// WithWidgetMut gives fn direct access to node's widget value, guarded
// by the same re-entrancy check widget dispatch uses (spec.md §4.10,
// §5 "Widget re-entry invariant").
func (c *Context) WithWidgetMut(node NodeID, fn func(Widget) error) error {
	n, err := c.e.node(node)
	if err != nil {
		return err
	}
	return c.e.callWidget(node, func() error { return fn(n.Widget) })
}

// WithTypedWidgetMut is WithWidgetMut's type-safe variant, returning a
// KindInvalid error if node's widget isn't actually a W.
func WithTypedWidgetMut[W Widget](c *Context, id TypedID[W], fn func(W) error) error {
	return c.WithWidgetMut(id.ID, func(w Widget) error {
		tw, ok := w.(W)
		if !ok {
			return newErr(KindInvalid, "node %s does not hold the expected widget type", id.ID)
		}
		return fn(tw)
	})
}

func (e *Engine) treeRootOrSelf() NodeID {
	root, _ := e.Root()
	return root
}

func (e *Engine) acceptsFocus(id NodeID) bool {
	n, err := e.node(id)
	if err != nil {
		return false
	}
	vc := newViewContext(e, id)
	return n.Widget.AcceptFocus(vc)
}

func (e *Engine) runOnMount(id NodeID) error {
	n, err := e.node(id)
	if err != nil {
		return err
	}
	if _, ok := e.states[id]; !ok {
		e.states[id] = e.newState()
	}
	err = e.callWidget(id, func() error {
		ctx := newContext(e, id)
		return n.Widget.OnMount(ctx)
	})
	if err != nil {
		return err
	}
	e.states[id].mounted = true
	return nil
}

