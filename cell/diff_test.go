package cell

import (
	"testing"

	"github.com/framegrace/canopy/geom"
	"github.com/framegrace/canopy/style"
)

// fakeBackend records calls for assertion, mirroring the harness backend
// but kept local to this package to avoid an import cycle in tests.
type fakeBackend struct {
	calls        []string
	charShift    bool
	lineShift    bool
	currentStyle style.Style
}

func (f *fakeBackend) Reset() error { f.calls = append(f.calls, "reset"); return nil }
func (f *fakeBackend) Style(s style.Style) error {
	f.currentStyle = s
	f.calls = append(f.calls, "style")
	return nil
}
func (f *fakeBackend) Text(p geom.Point, s string) error {
	f.calls = append(f.calls, "text:"+s)
	return nil
}
func (f *fakeBackend) SupportsCharShift() bool { return f.charShift }
func (f *fakeBackend) ShiftChars(p geom.Point, count int) error {
	f.calls = append(f.calls, "shift_chars")
	return nil
}
func (f *fakeBackend) SupportsLineShift() bool { return f.lineShift }
func (f *fakeBackend) ShiftLines(top, bottom uint32, count int) error {
	f.calls = append(f.calls, "shift_lines")
	return nil
}
func (f *fakeBackend) Flush() error { f.calls = append(f.calls, "flush"); return nil }
func (f *fakeBackend) Start() error { return nil }
func (f *fakeBackend) Stop() error  { return nil }
func (f *fakeBackend) Exit(int) error { return nil }

func bufFromRows(rows []string) *TermBuf {
	h := uint32(len(rows))
	w := uint32(0)
	if h > 0 {
		w = uint32(len([]rune(rows[0])))
	}
	buf := NewTermBuf(geom.Expanse{W: w, H: h}, style.Style{})
	for y, row := range rows {
		buf.Text(style.Style{}, uint32(y), 0, row)
	}
	return buf
}

func TestDiffNoChangeEmitsNothing(t *testing.T) {
	prev := bufFromRows([]string{"aaa", "bbb"})
	next := bufFromRows([]string{"aaa", "bbb"})
	fb := &fakeBackend{lineShift: true, charShift: true}
	if err := next.Diff(prev, fb); err != nil {
		t.Fatal(err)
	}
	if len(fb.calls) != 0 {
		t.Fatalf("expected idempotent render to emit nothing, got %v", fb.calls)
	}
}

func TestDiffSizeChangeRerenders(t *testing.T) {
	prev := bufFromRows([]string{"aa"})
	next := bufFromRows([]string{"aaa"})
	fb := &fakeBackend{}
	if err := next.Diff(prev, fb); err != nil {
		t.Fatal(err)
	}
	if fb.calls[0] != "reset" {
		t.Fatalf("expected full render to start with reset, got %v", fb.calls)
	}
}

func TestDiffVerticalShift(t *testing.T) {
	prev := bufFromRows([]string{"aaa", "bbb", "ccc"})
	next := bufFromRows([]string{"xxx", "aaa", "bbb"})
	fb := &fakeBackend{lineShift: true}
	if err := next.Diff(prev, fb); err != nil {
		t.Fatal(err)
	}
	want := []string{"shift_lines", "style", "text:xxx", "flush"}
	if len(fb.calls) != len(want) {
		t.Fatalf("unexpected calls: %v", fb.calls)
	}
	for i, c := range want {
		if fb.calls[i] != c {
			t.Fatalf("call %d: want %q got %q (%v)", i, c, fb.calls[i], fb.calls)
		}
	}
}

func TestDiffStyleRuns(t *testing.T) {
	red := style.Style{FG: style.RGB(255, 0, 0)}
	blue := style.Style{FG: style.RGB(0, 0, 255)}
	prev := NewTermBuf(geom.Expanse{W: 4, H: 1}, style.Style{})
	next := NewTermBuf(geom.Expanse{W: 4, H: 1}, style.Style{})
	next.Text(red, 0, 0, "ab")
	next.Text(blue, 0, 2, "cd")

	fb := &fakeBackend{}
	if err := next.Diff(prev, fb); err != nil {
		t.Fatal(err)
	}
	want := []string{"style", "text:ab", "style", "text:cd", "flush"}
	if len(fb.calls) != len(want) {
		t.Fatalf("unexpected calls: %v", fb.calls)
	}
	for i, c := range want {
		if fb.calls[i] != c {
			t.Fatalf("call %d: want %q got %q (%v)", i, c, fb.calls[i], fb.calls)
		}
	}
}

func TestDiffRoundTrip(t *testing.T) {
	prev := NewTermBuf(geom.Expanse{W: 5, H: 3}, style.Style{})
	prev.Text(style.Style{}, 1, 1, "hi")
	next := NewTermBuf(geom.Expanse{W: 5, H: 3}, style.Style{})
	next.Text(style.Style{}, 0, 0, "hello")
	next.Text(style.Style{}, 2, 2, "yo")

	rec := newReplayBackend(prev)
	if err := next.Diff(prev, rec); err != nil {
		t.Fatal(err)
	}
	got := rec.buf
	for y := uint32(0); y < next.Size.H; y++ {
		for x := uint32(0); x < next.Size.W; x++ {
			if !got.At(x, y).Equal(next.At(x, y)) {
				t.Fatalf("round-trip mismatch at (%d,%d): got %+v want %+v", x, y, got.At(x, y), next.At(x, y))
			}
		}
	}
}

// replayBackend applies emitted backend calls onto a copy of prev so the
// diff round-trip law (spec.md §8) can be checked directly.
type replayBackend struct {
	buf   *TermBuf
	style style.Style
}

func newReplayBackend(prev *TermBuf) *replayBackend {
	cp := *prev
	cp.Cells = append([]Cell(nil), prev.Cells...)
	return &replayBackend{buf: &cp}
}

func (r *replayBackend) Reset() error                { return nil }
func (r *replayBackend) Style(s style.Style) error    { r.style = s; return nil }
func (r *replayBackend) Text(p geom.Point, s string) error {
	r.buf.Text(r.style, p.Y, p.X, s)
	return nil
}
func (r *replayBackend) SupportsCharShift() bool { return true }
func (r *replayBackend) ShiftChars(p geom.Point, count int) error {
	shiftRow(r.buf, p.Y, count)
	return nil
}
func (r *replayBackend) SupportsLineShift() bool { return true }
func (r *replayBackend) ShiftLines(top, bottom uint32, count int) error {
	shiftRows(r.buf, count)
	return nil
}
func (r *replayBackend) Flush() error   { return nil }
func (r *replayBackend) Start() error   { return nil }
func (r *replayBackend) Stop() error    { return nil }
func (r *replayBackend) Exit(int) error { return nil }

func shiftRow(t *TermBuf, y uint32, count int) {
	w := int(t.Size.W)
	row := append([]Cell(nil), t.row(y)...)
	out := make([]Cell, w)
	for x := 0; x < w; x++ {
		src := x - count
		if src >= 0 && src < w {
			out[x] = row[src]
		} else {
			out[x] = Cell{Ch: ' '}
		}
	}
	copy(t.row(y), out)
}

func shiftRows(t *TermBuf, count int) {
	h := int(t.Size.H)
	w := int(t.Size.W)
	src := append([]Cell(nil), t.Cells...)
	for y := 0; y < h; y++ {
		sy := y - count
		for x := 0; x < w; x++ {
			if sy >= 0 && sy < h {
				t.Cells[y*w+x] = src[sy*w+x]
			} else {
				t.Cells[y*w+x] = Cell{Ch: ' '}
			}
		}
	}
}
