package canopy

import (
	"testing"

	"github.com/framegrace/canopy/geom"
	"github.com/framegrace/canopy/layout"
)

// TestUpdateLayoutFixedRootFillsScreen checks the simplest case: a root
// with a Fixed measurement the size of the screen resolves to a rect
// covering the whole screen and a root-spanning view.
func TestUpdateLayoutFixedRootFillsScreen(t *testing.T) {
	e := NewEngine()
	fill := Fixed(geom.Expanse{W: 20, H: 6})
	root := &stubWidget{name: "root", measure: &fill}
	rootID := e.AddRoot(root)
	if err := e.SetRootSize(geom.Expanse{W: 20, H: 6}); err != nil {
		t.Fatalf("set root size: %v", err)
	}
	st, err := e.state(rootID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.rect.W != 20 || st.rect.H != 6 {
		t.Fatalf("expected root rect 20x6, got %+v", st.rect)
	}
	if st.view.Outer.W != 20 || st.view.Outer.H != 6 {
		t.Fatalf("expected root view outer 20x6, got %+v", st.view.Outer)
	}
}

// TestArrangeChildrenRowSplitsFlexShareAfterFixedSibling checks the Row
// arrangement: a fixed-width child takes its own size, a gap separates
// the two, and a flex child absorbs the rest of the content box.
func TestArrangeChildrenRowSplitsFlexShareAfterFixedSibling(t *testing.T) {
	e := NewEngine()
	rootLay := layout.Default()
	rootLay.Gap = 1
	fill := Fixed(geom.Expanse{W: 20, H: 5})
	root := &stubWidget{name: "root", measure: &fill, lay: &rootLay}
	rootID := e.AddRoot(root)

	fixedSize := Fixed(geom.Expanse{W: 5, H: 5})
	fixedLay := layout.Default()
	fixed := &stubWidget{name: "fixed", measure: &fixedSize, lay: &fixedLay}
	fixedID := e.Add(fixed)

	flexLay := layout.Default()
	flexLay.Width = layout.Flex(1)
	flexChild := &stubWidget{name: "flex", lay: &flexLay}
	flexID := e.Add(flexChild)

	ctx := newContext(e, rootID)
	if err := ctx.MountChildTo(rootID, fixedID); err != nil {
		t.Fatalf("mount fixed: %v", err)
	}
	if err := ctx.MountChildTo(rootID, flexID); err != nil {
		t.Fatalf("mount flex: %v", err)
	}

	if err := e.SetRootSize(geom.Expanse{W: 20, H: 5}); err != nil {
		t.Fatalf("set root size: %v", err)
	}

	fst, err := e.state(fixedID)
	if err != nil {
		t.Fatalf("fixed state: %v", err)
	}
	if fst.rect.X != 0 || fst.rect.W != 5 {
		t.Fatalf("expected fixed child at x=0 w=5, got %+v", fst.rect)
	}

	xst, err := e.state(flexID)
	if err != nil {
		t.Fatalf("flex state: %v", err)
	}
	// content box is the full 20x5 root (no padding); fixed takes 5,
	// gap takes 1, flex gets the remaining 14 starting at x=6.
	if xst.rect.X != 6 {
		t.Fatalf("expected flex child to start at x=6 (5 fixed + 1 gap), got %+v", xst.rect)
	}
	if xst.rect.W != 14 {
		t.Fatalf("expected flex child to absorb remaining width 14, got %+v", xst.rect)
	}
}

// TestArrangeChildrenAppliesPadding checks that a padded container
// shrinks its children's available content box and offsets their
// origin by the padding.
func TestArrangeChildrenAppliesPadding(t *testing.T) {
	e := NewEngine()
	rootLay := layout.Default()
	rootLay.Padding = layout.Padding{Top: 1, Right: 2, Bottom: 1, Left: 2}
	fill := Fixed(geom.Expanse{W: 10, H: 4})
	root := &stubWidget{name: "root", measure: &fill, lay: &rootLay}
	rootID := e.AddRoot(root)

	childLay := layout.Default()
	childLay.Width = layout.Flex(1)
	childLay.Height = layout.Flex(1)
	child := &stubWidget{name: "child", lay: &childLay}
	childID := e.Add(child)
	if err := newContext(e, rootID).MountChildTo(rootID, childID); err != nil {
		t.Fatalf("mount: %v", err)
	}

	if err := e.SetRootSize(geom.Expanse{W: 10, H: 4}); err != nil {
		t.Fatalf("set root size: %v", err)
	}

	cst, err := e.state(childID)
	if err != nil {
		t.Fatalf("child state: %v", err)
	}
	// content box: x in [2, 8), y in [1, 3) -> 6 wide, 2 tall, child rect
	// is stored relative to the parent's content box origin.
	if cst.rect.X != 0 || cst.rect.Y != 0 {
		t.Fatalf("expected child rect anchored at content-box origin (0,0), got %+v", cst.rect)
	}
	if cst.rect.W != 6 || cst.rect.H != 2 {
		t.Fatalf("expected child sized to the padded content box 6x2, got %+v", cst.rect)
	}
}

// TestArrangeChildrenStackCentersByAlignment checks Stack direction:
// every child is laid over the same content box, offset per its own
// alignment rather than flowed along an axis.
func TestArrangeChildrenStackCentersByAlignment(t *testing.T) {
	e := NewEngine()
	rootLay := layout.Default()
	rootLay.Direction = layout.Stack
	fill := Fixed(geom.Expanse{W: 10, H: 10})
	root := &stubWidget{name: "root", measure: &fill, lay: &rootLay}
	rootID := e.AddRoot(root)

	childSize := Fixed(geom.Expanse{W: 2, H: 2})
	childLay := layout.Default()
	childLay.AlignHorizontal = layout.AlignCenter
	childLay.AlignVertical = layout.AlignCenter
	child := &stubWidget{name: "child", measure: &childSize, lay: &childLay}
	childID := e.Add(child)
	if err := newContext(e, rootID).MountChildTo(rootID, childID); err != nil {
		t.Fatalf("mount: %v", err)
	}

	if err := e.SetRootSize(geom.Expanse{W: 10, H: 10}); err != nil {
		t.Fatalf("set root size: %v", err)
	}

	cst, err := e.state(childID)
	if err != nil {
		t.Fatalf("child state: %v", err)
	}
	if cst.rect.X != 4 || cst.rect.Y != 4 {
		t.Fatalf("expected a 2x2 child centered in a 10x10 box at (4,4), got %+v", cst.rect)
	}
}

// TestWrapMeasureSumsRowChildren checks the Wrap measurement path: a
// Row container with no explicit size sums its children's widths plus
// gaps and takes the tallest child's height.
func TestWrapMeasureSumsRowChildren(t *testing.T) {
	e := NewEngine()
	rootLay := layout.Default()
	rootLay.Gap = 2
	root := &stubWidget{name: "root", lay: &rootLay}
	rootID := e.AddRoot(root)

	aSize := Fixed(geom.Expanse{W: 3, H: 4})
	bSize := Fixed(geom.Expanse{W: 5, H: 2})
	a := &stubWidget{name: "a", measure: &aSize}
	b := &stubWidget{name: "b", measure: &bSize}
	aID := e.Add(a)
	bID := e.Add(b)
	ctx := newContext(e, rootID)
	if err := ctx.MountChildTo(rootID, aID); err != nil {
		t.Fatalf("mount a: %v", err)
	}
	if err := ctx.MountChildTo(rootID, bID); err != nil {
		t.Fatalf("mount b: %v", err)
	}

	if err := e.SetRootSize(geom.Expanse{W: 40, H: 20}); err != nil {
		t.Fatalf("set root size: %v", err)
	}

	rst, err := e.state(rootID)
	if err != nil {
		t.Fatalf("root state: %v", err)
	}
	// 3 + 2 (gap) + 5 = 10 wide, tallest child (4) for height.
	if rst.rect.W != 10 || rst.rect.H != 4 {
		t.Fatalf("expected wrap-measured root 10x4, got %+v", rst.rect)
	}
}

// TestVisibleChildrenSkipsHiddenAndDisplayNone checks that a hidden
// node and a Display:None node are excluded from arrangement and have
// their stored rect cleared.
func TestVisibleChildrenSkipsHiddenAndDisplayNone(t *testing.T) {
	e := NewEngine()
	fill := Fixed(geom.Expanse{W: 10, H: 10})
	root := &stubWidget{name: "root", measure: &fill}
	rootID := e.AddRoot(root)

	visible := &stubWidget{name: "visible", measure: &fill}
	hidden := &stubWidget{name: "hidden", measure: &fill}
	noneLay := layout.Default()
	noneLay.Display = layout.DisplayNone
	none := &stubWidget{name: "none", measure: &fill, lay: &noneLay}

	visID := e.Add(visible)
	hiddenID := e.Add(hidden)
	noneID := e.Add(none)
	ctx := newContext(e, rootID)
	for _, id := range []NodeID{visID, hiddenID, noneID} {
		if err := ctx.MountChildTo(rootID, id); err != nil {
			t.Fatalf("mount %s: %v", id, err)
		}
	}
	if err := ctx.SetHiddenOf(hiddenID, true); err != nil {
		t.Fatalf("set hidden: %v", err)
	}

	if err := e.SetRootSize(geom.Expanse{W: 10, H: 10}); err != nil {
		t.Fatalf("set root size: %v", err)
	}

	kids, err := e.visibleChildren(rootID)
	if err != nil {
		t.Fatalf("visible children: %v", err)
	}
	if len(kids) != 1 || kids[0] != visID {
		t.Fatalf("expected only the visible child to remain, got %v", kids)
	}

	hst, err := e.state(hiddenID)
	if err != nil {
		t.Fatalf("hidden state: %v", err)
	}
	if hst.rect != (geom.Rect{}) {
		t.Fatalf("expected a hidden node's rect cleared, got %+v", hst.rect)
	}
}

// wrapLabel is a leaf widget whose measured height depends on the
// width it is actually given to wrap at, used to exercise the
// width-dependent re-measure pass in resolveOuterSize (step 5 of
// "Outer size resolution").
type wrapLabel struct {
	BaseWidget
	name string
	lay  *layout.Layout
	text uint32 // rune length of the content being wrapped
}

func (w *wrapLabel) Name() string { return w.name }

func (w *wrapLabel) Layout() layout.Layout {
	if w.lay != nil {
		return *w.lay
	}
	return layout.Default()
}

func (w *wrapLabel) Measure(mc MeasureConstraints) Measurement {
	avail := w.text
	switch mc.Width.Kind {
	case layout.Exact, layout.AtMost:
		if mc.Width.Value > 0 {
			avail = mc.Width.Value
		}
	}
	width := avail
	if w.text < avail {
		width = w.text
	}
	lines := (w.text + avail - 1) / avail
	return Fixed(geom.Expanse{W: width, H: lines})
}

// TestResolveOuterSizeRemeasuresAtClampedWidth checks step 5 of outer
// size resolution: a wrap-measured widget first measured against a
// narrow AtMost width, then widened past that by its own MinWidth
// clamp, gets re-measured at the wider resolved width so its reported
// height reflects where it will actually wrap rather than the stale
// width it first saw.
func TestResolveOuterSizeRemeasuresAtClampedWidth(t *testing.T) {
	e := NewEngine()
	lay := layout.Default()
	lay.MinWidth = 10
	lay.OverflowX = layout.OverflowClip
	label := &wrapLabel{name: "label", lay: &lay, text: 16}
	rootID := e.AddRoot(label)

	if err := e.SetRootSize(geom.Expanse{W: 5, H: 20}); err != nil {
		t.Fatalf("set root size: %v", err)
	}

	st, err := e.state(rootID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.rect.W != 10 {
		t.Fatalf("expected MinWidth to win over the narrower AtMost(5) constraint, got width %d", st.rect.W)
	}
	// At width 5, 16 runes wrap to ceil(16/5)=4 lines; re-measured at
	// the actual resolved width 10, they wrap to ceil(16/10)=2 lines.
	if st.rect.H != 2 {
		t.Fatalf("expected height re-measured at the resolved width 10 (2 lines), got %d", st.rect.H)
	}
}

// TestResolveCanvasClampsScrollToNewCanvas checks that shrinking a
// widget's reported canvas re-clamps an existing scroll offset rather
// than leaving it pointing past the new canvas bounds.
func TestResolveCanvasClampsScrollToNewCanvas(t *testing.T) {
	e := NewEngine()
	fill := Fixed(geom.Expanse{W: 10, H: 10})
	root := &stubWidget{name: "root", measure: &fill}
	rootID := e.AddRoot(root)

	if err := e.SetRootSize(geom.Expanse{W: 10, H: 10}); err != nil {
		t.Fatalf("set root size: %v", err)
	}

	st, err := e.state(rootID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	// Force a scroll offset as if a prior, larger canvas had permitted it.
	st.canvas = geom.Expanse{W: 30, H: 30}
	st.scroll = geom.Point{X: 20, Y: 20}

	if err := e.resolveCanvas(rootID); err != nil {
		t.Fatalf("resolve canvas: %v", err)
	}
	// BaseWidget.Canvas defaults to returning the view size unchanged
	// (10x10 here), so the canvas shrinks back and scroll must clamp to 0.
	if st.canvas.W != 10 || st.canvas.H != 10 {
		t.Fatalf("expected canvas reset to the view size 10x10, got %+v", st.canvas)
	}
	if st.scroll.X != 0 || st.scroll.Y != 0 {
		t.Fatalf("expected scroll clamped to 0,0 once canvas shrank to the view size, got %+v", st.scroll)
	}
}
