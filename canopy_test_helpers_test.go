package canopy

import (
	"time"

	"github.com/framegrace/canopy/cell"
	"github.com/framegrace/canopy/command"
	"github.com/framegrace/canopy/event"
	"github.com/framegrace/canopy/geom"
	"github.com/framegrace/canopy/layout"
	"github.com/framegrace/canopy/style"
)

// stubWidget is a minimal Widget used across the root package's tests:
// it records what happened to it rather than doing anything real, so a
// test can assert dispatch/mount/render order without a full concrete
// widget.
type stubWidget struct {
	BaseWidget

	name      string
	focusable bool
	text      string
	cursor    *Cursor
	lay       *layout.Layout
	measure   *Measurement

	mounts int
	events []event.Kind

	onEvent func(*event.Event, *Context) event.Outcome
	onMount func(*Context) error
	onPoll  func(*Context) (time.Duration, bool)

	polls int
}

func (w *stubWidget) Name() string { return w.name }

func (w *stubWidget) Layout() layout.Layout {
	if w.lay != nil {
		return *w.lay
	}
	return layout.Default()
}

func (w *stubWidget) Measure(mc MeasureConstraints) Measurement {
	if w.measure != nil {
		return *w.measure
	}
	return Wrap()
}

func (w *stubWidget) AcceptFocus(*ViewContext) bool { return w.focusable }

func (w *stubWidget) OnMount(ctx *Context) error {
	w.mounts++
	if w.onMount != nil {
		return w.onMount(ctx)
	}
	return nil
}

func (w *stubWidget) OnEvent(e *event.Event, ctx *Context) event.Outcome {
	w.events = append(w.events, e.Kind)
	if w.onEvent != nil {
		return w.onEvent(e, ctx)
	}
	return event.Ignore
}

func (w *stubWidget) Render(r *Render, vc *ViewContext) {
	if w.text != "" {
		r.Text(style.Style{}, 0, 0, w.text)
	}
}

func (w *stubWidget) Cursor() *Cursor { return w.cursor }

func (w *stubWidget) Poll(ctx *Context) (time.Duration, bool) {
	w.polls++
	if w.onPoll != nil {
		return w.onPoll(ctx)
	}
	return 0, false
}

// fakeBackend is an in-memory cell.Backend recording what the driver
// would otherwise send to a real terminal, enough to assert a frame
// actually flushed.
type fakeBackend struct {
	resets     int
	texts      []string
	flushes    int
	started    bool
	stopped    bool
	exited     bool
	exitCode   int
}

func (b *fakeBackend) Reset() error { b.resets++; return nil }
func (b *fakeBackend) Style(style.Style) error { return nil }
func (b *fakeBackend) Text(p geom.Point, s string) error {
	b.texts = append(b.texts, s)
	return nil
}
func (b *fakeBackend) SupportsCharShift() bool                   { return false }
func (b *fakeBackend) ShiftChars(geom.Point, int) error          { return nil }
func (b *fakeBackend) SupportsLineShift() bool                   { return false }
func (b *fakeBackend) ShiftLines(uint32, uint32, int) error      { return nil }
func (b *fakeBackend) Flush() error                              { b.flushes++; return nil }
func (b *fakeBackend) Start() error                              { b.started = true; return nil }
func (b *fakeBackend) Stop() error                                { b.stopped = true; return nil }
func (b *fakeBackend) Exit(code int) error {
	b.exited = true
	b.exitCode = code
	return nil
}

var _ cell.Backend = (*fakeBackend)(nil)

// fakeHost records every script a test engine resolved and ran, so a
// test can assert a binding actually fired without a real expression
// language behind it.
type fakeHost struct {
	executed []scriptRun
}

type scriptRun struct {
	node NodeID
	sid  command.ScriptID
}

func (h *fakeHost) Compile(source string) (command.ScriptID, error) { return 0, nil }

func (h *fakeHost) Execute(ctx any, root any, node any, sid command.ScriptID) error {
	h.executed = append(h.executed, scriptRun{node: node.(NodeID), sid: sid})
	return nil
}

var _ command.Host = (*fakeHost)(nil)
