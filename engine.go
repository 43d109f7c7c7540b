package canopy

import (
	"github.com/framegrace/canopy/arena"
	"github.com/framegrace/canopy/cell"
	"github.com/framegrace/canopy/command"
	"github.com/framegrace/canopy/focus"
	"github.com/framegrace/canopy/geom"
	"github.com/framegrace/canopy/layout"
	"github.com/framegrace/canopy/style"
	"github.com/framegrace/canopy/view"
)

// nodeState is the engine-owned runtime data for one arena node that
// doesn't belong on arena.Node itself (arena stays widget-agnostic):
// resolved layout override, rect/canvas/scroll/view, style effects, and
// the per-pass measurement cache (spec.md §3, §4.4).
type nodeState struct {
	layoutOverride *layout.Layout
	rect           geom.Rect
	contentSize    geom.Expanse
	canvas         geom.Expanse
	scroll         geom.Point
	view           view.View
	effects        []style.Effect
	clearInherited bool
	measureCache   map[layout.MeasureConstraints]Measurement
	mounted        bool // Widget.OnMount has run
	initialized    bool // first Widget.Poll has run (spec.md §4.8 pre-render)
	focusPathGen   uint64
}

// Engine owns the whole scene graph and the subsystems that operate
// over it: the arena, per-node layout state, focus, bindings/commands,
// the poller, and the double-buffered render target (spec.md §4).
// It is the canopy analogue of the teacher's UIManager, generalized
// from a flat z-ordered widget list to the full scene graph spec.md
// describes.
type Engine struct {
	arena  *arena.Arena[Widget]
	states map[NodeID]*nodeState
	root   NodeID
	hasRoot bool

	screenSize geom.Expanse

	focus focus.State

	bindings   *command.BindingMap
	commands   *command.Registry
	scriptHost command.Host
	mode       string

	poller *pollerAdapter

	backend cell.Backend
	prevBuf *cell.TermBuf

	inCall map[NodeID]bool

	exited   bool
	exitCode int

	lastFocusSeen NodeID
	hasFocusSeen  bool
}

// NewEngine creates an empty engine. Call AddRoot before the first
// Render/Dispatch call.
func NewEngine() *Engine {
	e := &Engine{
		arena:      arena.New[Widget](),
		states:     make(map[NodeID]*nodeState),
		bindings:   command.NewBindingMap(),
		commands:   command.NewRegistry(),
		mode:       "normal",
		inCall:     make(map[NodeID]bool),
		poller:     newPollerAdapter(),
	}
	return e
}

// SetBackend attaches the concrete terminal backend used by Render and
// by Context.Start/Stop/Exit (spec.md §6 "Backend protocol"). Canopy
// never assumes a specific backend implementation; any cell.Backend
// works, including the harness's in-memory recorder.
func (e *Engine) SetBackend(b cell.Backend) { e.backend = b }

// SetScriptHost installs the script host used to execute bound scripts
// (spec.md §4.7). Optional: an engine with no host simply never fires
// scripts, leaving widget dispatch as the sole event consumer.
func (e *Engine) SetScriptHost(h command.Host) { e.scriptHost = h }

// Commands returns the engine's command registry, for widgets or
// application code to register/unregister Spec values.
func (e *Engine) Commands() *command.Registry { return e.commands }

// Bindings returns the engine's binding map for installing key/mouse
// bindings.
func (e *Engine) Bindings() *command.BindingMap { return e.bindings }

// Poll returns the channel the driver selects on for deferred wakeups
// (spec.md §4.9); due batches should be wrapped with event.NewPoll and
// fed to Dispatch.
func (e *Engine) Poll() <-chan []NodeID { return e.poller.due() }

func (e *Engine) newState() *nodeState {
	return &nodeState{measureCache: make(map[layout.MeasureConstraints]Measurement)}
}

// AddRoot creates the root node wrapping w and returns its id.
func (e *Engine) AddRoot(w Widget) NodeID {
	id := e.arena.Add(w, w.Name())
	e.arena.SetRoot(id)
	e.states[id] = e.newState()
	e.root = id
	e.hasRoot = true
	return id
}

// Root returns the tree root id.
func (e *Engine) Root() (NodeID, bool) { return e.root, e.hasRoot }

// Add allocates a new, unmounted node wrapping w.
func (e *Engine) Add(w Widget) NodeID {
	id := e.arena.Add(w, w.Name())
	e.states[id] = e.newState()
	return id
}

func (e *Engine) state(id NodeID) (*nodeState, error) {
	s, ok := e.states[id]
	if !ok {
		return nil, newErr(KindNodeNotFound, "no runtime state for %s", id)
	}
	return s, nil
}

func (e *Engine) node(id NodeID) (*arena.Node[Widget], error) {
	n, err := e.arena.Get(id)
	if err != nil {
		return nil, wrapErr(KindNodeNotFound, err, "node %s", id)
	}
	return n, nil
}

// resolvedLayout returns id's effective layout: the Context override if
// one was set via WithLayout, else the widget's own declared layout.
func (e *Engine) resolvedLayout(id NodeID) (layout.Layout, error) {
	st, err := e.state(id)
	if err != nil {
		return layout.Layout{}, err
	}
	if st.layoutOverride != nil {
		return *st.layoutOverride, nil
	}
	n, err := e.node(id)
	if err != nil {
		return layout.Layout{}, err
	}
	return n.Widget.Layout(), nil
}

// callWidget invokes fn while holding id's re-entrancy guard, mirroring
// spec.md §5's "widget re-entry invariant": a node may not be dispatched
// into while a call for that same node is already on the stack, since
// that would mean two call sites holding the Context at once.
func (e *Engine) callWidget(id NodeID, fn func() error) error {
	if e.inCall[id] {
		return newErr(KindInternal, "recursive dispatch into node %s", id)
	}
	e.inCall[id] = true
	defer delete(e.inCall, id)
	return fn()
}

