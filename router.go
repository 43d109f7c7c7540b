package canopy

import (
	"time"

	"github.com/framegrace/canopy/arena"
	"github.com/framegrace/canopy/command"
	"github.com/framegrace/canopy/event"
	"github.com/framegrace/canopy/focus"
	"github.com/framegrace/canopy/geom"
)

// Dispatch routes one input event through the tree (spec.md §4.6). It is
// the engine's sole entry point for driver-observed input; Resize,
// Poll, Key, Mouse, Paste and the two focus-transition events each get
// their own routing rule.
func (e *Engine) Dispatch(ev *event.Event) (event.Outcome, error) {
	switch ev.Kind {
	case event.ResizeKind:
		if err := e.SetRootSize(ev.Size); err != nil {
			return event.Ignore, err
		}
		return event.Handle, nil
	case event.PollKind:
		return e.dispatchPoll(ev)
	case event.MouseKind:
		return e.dispatchMouse(ev)
	case event.KeyKind, event.PasteKind, event.FocusGainedKind, event.FocusLostKind:
		return e.dispatchToFocusPath(ev)
	default:
		return event.Ignore, nil
	}
}

// dispatchPoll calls Poll on every node still in the arena named by the
// due set, rescheduling any that ask for another wakeup (spec.md §4.6
// "Poll(ids)").
func (e *Engine) dispatchPoll(ev *event.Event) (event.Outcome, error) {
	for _, raw := range ev.Poll {
		id, ok := raw.(NodeID)
		if !ok || !e.arena.Exists(id) {
			continue
		}
		n, err := e.node(id)
		if err != nil {
			continue
		}
		var again bool
		var d time.Duration
		err = e.callWidget(id, func() error {
			ctx := newContext(e, id)
			d, again = n.Widget.Poll(ctx)
			return nil
		})
		if err != nil {
			return event.Ignore, err
		}
		if again {
			e.poller.schedule(id, d)
		}
	}
	return event.Handle, nil
}

// dispatchToFocusPath handles Key, Paste, FocusGained and FocusLost: all
// four bubble from the focused node to root the same way (spec.md §4.6).
func (e *Engine) dispatchToFocusPath(ev *event.Event) (event.Outcome, error) {
	root, ok := e.Root()
	if !ok {
		return event.Ignore, nil
	}
	if _, hasFocus := e.focus.Current(); !hasFocus {
		newContext(e, root).FocusFirst()
	}
	focused, hasFocus := e.focus.Current()
	if !hasFocus {
		return event.Ignore, nil
	}
	path := focus.Path(e.arena, focused)
	input, hasInput := bindingInput(ev)
	return e.bubble(path, func(NodeID) *event.Event { return ev }, input, hasInput)
}

// dispatchMouse locates the deepest node under the pointer, then bubbles
// a location rebased into each node's own content-local coordinates
// (spec.md §4.6 "Mouse(m)").
func (e *Engine) dispatchMouse(ev *event.Event) (event.Outcome, error) {
	root, ok := e.Root()
	if !ok {
		return event.Ignore, nil
	}
	target, found := e.hitTest(root, ev.Mouse.Location)
	if !found {
		return event.Ignore, nil
	}
	path := focus.Path(e.arena, target)
	input, hasInput := bindingInput(ev)
	return e.bubble(path, func(id NodeID) *event.Event {
		return e.rebaseMouseEvent(ev, id)
	}, input, hasInput)
}

// hitTest walks id's subtree for the deepest non-hidden node whose
// published outer rect contains p, preferring a matching child over its
// ancestor.
func (e *Engine) hitTest(id NodeID, p geom.Point) (NodeID, bool) {
	n, err := e.node(id)
	if err != nil || n.Hidden {
		return NodeID{}, false
	}
	st, err := e.state(id)
	if err != nil || !st.view.Outer.Contains(int32(p.X), int32(p.Y)) {
		return NodeID{}, false
	}
	for _, c := range e.arena.Children(id) {
		if hit, ok := e.hitTest(c, p); ok {
			return hit, true
		}
	}
	return id, true
}

// rebaseMouseEvent returns a copy of ev with its location rebased into
// id's content-local coordinates, clamped saturating when a scrolled
// descendant extended the original point outside id's content box.
func (e *Engine) rebaseMouseEvent(ev *event.Event, id NodeID) *event.Event {
	st, err := e.state(id)
	if err != nil {
		return ev
	}
	local := st.view.Content.RebaseClamped(geom.PointI32{X: int32(ev.Mouse.Location.X), Y: int32(ev.Mouse.Location.Y)})
	out := *ev
	out.Mouse.Location = geom.Point{X: uint32(local.X), Y: uint32(local.Y)}
	return &out
}

// bubble walks path from its last (innermost) id up to its first (root)
// id, dispatching one event per node (built by mkEvent, so key/paste
// events can reuse a single Event value while mouse events get a
// per-node rebased copy). At each node it dispatches to the widget
// first; a binding lookup follows unless the widget answered Consume
// (spec.md §4.6's three-state rule). The walk stops at the first
// Handle/Consume or the first resolved binding; any resolved script
// always runs after the widget handling that found it.
func (e *Engine) bubble(path []NodeID, mkEvent func(NodeID) *event.Event, input command.Input, hasInput bool) (event.Outcome, error) {
	var scriptNode NodeID
	var scriptID command.ScriptID
	haveScript := false
	finalOutcome := event.Ignore

	for i := len(path) - 1; i >= 0; i-- {
		id := path[i]
		if !e.arena.Exists(id) {
			continue
		}
		outcome, err := e.dispatchToNode(id, mkEvent(id))
		if err != nil {
			return event.Ignore, err
		}
		finalOutcome = outcome

		if hasInput && outcome != event.Consume {
			names := pathNames(e.arena, path[:i+1])
			if sid, ok := e.bindings.Resolve(e.mode, names, input); ok {
				scriptNode, scriptID, haveScript = id, sid, true
			}
		}
		if outcome.StopsBubbling() || haveScript {
			break
		}
	}

	if haveScript {
		if err := e.runScript(scriptNode, scriptID); err != nil {
			return finalOutcome, err
		}
	}
	return finalOutcome, nil
}

func (e *Engine) dispatchToNode(id NodeID, ev *event.Event) (event.Outcome, error) {
	n, err := e.node(id)
	if err != nil {
		return event.Ignore, err
	}
	var outcome event.Outcome
	err = e.callWidget(id, func() error {
		ctx := newContext(e, id)
		outcome = n.Widget.OnEvent(ev, ctx)
		return nil
	})
	if err != nil {
		return event.Ignore, err
	}
	return outcome, nil
}

// runScript executes a resolved binding's script, a no-op if no script
// host is attached (spec.md §4.7: scripts are always invoked after the
// event's own widget handling completes).
func (e *Engine) runScript(node NodeID, sid command.ScriptID) error {
	if e.scriptHost == nil {
		return nil
	}
	root, _ := e.Root()
	ctx := newContext(e, node)
	return e.scriptHost.Execute(ctx, root, node, sid)
}

// bindingInput projects a key or mouse event into the command package's
// comparable Input shape; other event kinds never consult bindings.
func bindingInput(ev *event.Event) (command.Input, bool) {
	switch ev.Kind {
	case event.KeyKind:
		return command.Input{Kind: "key", Code: int32(ev.Key.Code), Rune: ev.Key.Rune, Mod: int32(ev.Key.Mod)}, true
	case event.MouseKind:
		return command.Input{Kind: "mouse", Buttons: int32(ev.Mouse.Buttons), Mod: int32(ev.Mouse.Mod)}, true
	default:
		return command.Input{}, false
	}
}

// pathNames resolves a node-id path to the slash-filter-comparable
// sequence of node names BindingMap.Resolve matches suffixes against.
func pathNames(a *arena.Arena[Widget], path []NodeID) []string {
	out := make([]string, len(path))
	for i, id := range path {
		if n, err := a.Get(id); err == nil {
			out[i] = n.Name
		}
	}
	return out
}
