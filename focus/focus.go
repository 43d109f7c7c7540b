// Package focus implements canopy's focus state and traversal
// algorithms (spec.md §4.5): pre-order next/previous cycling and
// directional search. It depends only on arena's generic node storage,
// not on the concrete Widget type, so the engine supplies small
// predicate callbacks (AcceptsFocus, IsVisible) rather than the package
// importing the root canopy package back — the same shape as the
// teacher's core.FocusState/IsDescendantFocused helpers, generalized to
// avoid a cycle.
package focus

import (
	"sort"

	"github.com/framegrace/canopy/arena"
	"github.com/framegrace/canopy/geom"
)

// State tracks which node currently holds focus and a generation
// counter bumped on every change, so widgets can cheaply detect focus
// transitions without deep comparison (spec.md §3).
type State struct {
	current arena.ID
	set     bool
	gen     uint64
}

// Current returns the focused node id, or (zero, false) if nothing is
// focused.
func (s *State) Current() (arena.ID, bool) { return s.current, s.set }

// Generation returns the current focus generation counter.
func (s *State) Generation() uint64 { return s.gen }

// Set assigns focus to id, bumping the generation if it actually
// changed.
func (s *State) Set(id arena.ID) {
	if s.set && s.current == id {
		return
	}
	s.current = id
	s.set = true
	s.gen++
}

// Clear removes focus entirely, bumping the generation if anything was
// focused.
func (s *State) Clear() {
	if !s.set {
		return
	}
	s.set = false
	s.current = arena.ID{}
	s.gen++
}

// IsFocused reports whether id currently holds focus.
func (s *State) IsFocused(id arena.ID) bool { return s.set && s.current == id }

// Predicates bundles the engine-supplied callbacks traversal needs,
// since focus has no way to call widget methods itself.
type Predicates[W any] struct {
	AcceptsFocus func(arena.ID, *arena.Node[W]) bool
	IsVisible    func(*arena.Node[W]) bool // false for a node traversal skips, together with its subtree
	Rect         func(arena.ID) (geom.Rect, bool)
}

// Path returns the chain of ids from id's topmost ancestor (the tree
// root, for an attached node) down to id (inclusive), or nil if id does
// not exist.
func Path[W any](a *arena.Arena[W], id arena.ID) []arena.ID {
	var rev []arena.ID
	cur := id
	for a.Exists(cur) {
		rev = append(rev, cur)
		p, ok := a.Parent(cur)
		if !ok {
			break
		}
		cur = p
	}
	if len(rev) == 0 {
		return nil
	}
	out := make([]arena.ID, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}

// IsOnFocusPath reports whether id is current's focused node or one of
// its ancestors, used to decide whether a container widget should
// render a "focus within" indication.
func IsOnFocusPath[W any](a *arena.Arena[W], s *State, id arena.ID) bool {
	cur, ok := s.Current()
	if !ok {
		return false
	}
	for _, p := range Path(a, cur) {
		if p == id {
			return true
		}
	}
	return false
}

func preOrder[W any](a *arena.Arena[W], root arena.ID, pred Predicates[W]) []arena.ID {
	var out []arena.ID
	a.WalkPreOrder(root, false, func(id arena.ID) bool {
		n, err := a.Get(id)
		if err != nil {
			return true
		}
		if pred.IsVisible != nil && !pred.IsVisible(n) {
			return false
		}
		out = append(out, id)
		return true
	})
	return out
}

// Next returns the next focusable node after current in pre-order,
// wrapping around to the start of the tree. If nothing is currently
// focused it returns the first focusable node. Returns ok=false if no
// node in the tree accepts focus.
func Next[W any](a *arena.Arena[W], root arena.ID, current arena.ID, hasCurrent bool, pred Predicates[W]) (arena.ID, bool) {
	order := preOrder(a, root, pred)
	focusable := filterFocusable(a, order, pred)
	if len(focusable) == 0 {
		return arena.ID{}, false
	}
	if !hasCurrent {
		return focusable[0], true
	}
	for i, id := range focusable {
		if id == current {
			return focusable[(i+1)%len(focusable)], true
		}
	}
	return focusable[0], true
}

// Prev is the mirror of Next, cycling backward.
func Prev[W any](a *arena.Arena[W], root arena.ID, current arena.ID, hasCurrent bool, pred Predicates[W]) (arena.ID, bool) {
	order := preOrder(a, root, pred)
	focusable := filterFocusable(a, order, pred)
	if len(focusable) == 0 {
		return arena.ID{}, false
	}
	if !hasCurrent {
		return focusable[len(focusable)-1], true
	}
	for i, id := range focusable {
		if id == current {
			j := i - 1
			if j < 0 {
				j = len(focusable) - 1
			}
			return focusable[j], true
		}
	}
	return focusable[len(focusable)-1], true
}

func filterFocusable[W any](a *arena.Arena[W], ids []arena.ID, pred Predicates[W]) []arena.ID {
	var out []arena.ID
	for _, id := range ids {
		n, err := a.Get(id)
		if err != nil {
			continue
		}
		if pred.AcceptsFocus != nil && pred.AcceptsFocus(id, n) {
			out = append(out, id)
		}
	}
	return out
}

// candidate pairs a focusable node with its rect for directional
// ranking.
type candidate struct {
	id    arena.ID
	rect  geom.Rect
	along int64 // distance along the search direction
	perp  int64 // perpendicular offset from the origin's center line
}

// Dir searches for the best focusable node in direction dir from
// current's rect, scoring candidates by distance-along-axis*10000 plus
// perpendicular offset and picking the minimum (spec.md §4.5). Ties
// fall back to tree order.
func Dir[W any](a *arena.Arena[W], root arena.ID, current arena.ID, dir geom.Direction, pred Predicates[W]) (arena.ID, bool) {
	origin, ok := pred.Rect(current)
	if !ok {
		return arena.ID{}, false
	}
	order := preOrder(a, root, pred)
	focusable := filterFocusable(a, order, pred)

	byID := make(map[arena.ID]int, len(focusable))
	for i, id := range focusable {
		byID[id] = i
	}

	var cands []candidate
	for _, id := range focusable {
		if id == current {
			continue
		}
		r, ok := pred.Rect(id)
		if !ok {
			continue
		}
		if !inDirection(dir, origin, r) {
			continue
		}
		along, perp := directionalDistance(dir, origin, r)
		cands = append(cands, candidate{id: id, rect: r, along: along, perp: perp})
	}
	if len(cands) == 0 {
		return arena.ID{}, false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		si := cands[i].along*10000 + cands[i].perp
		sj := cands[j].along*10000 + cands[j].perp
		if si != sj {
			return si < sj
		}
		return byID[cands[i].id] < byID[cands[j].id]
	})
	return cands[0].id, true
}

// inDirection is a hard filter, not a scoring nudge: a candidate only
// ever reaches the ranking step if its center sits strictly on the
// requested side of current's center AND it overlaps current along
// the perpendicular axis (vertical overlap for Left/Right, horizontal
// overlap for Up/Down). Grounded on original_source's
// core/world.rs focus_dir, which applies exactly this
// center-position-plus-overlap retain() before ever sorting candidates.
func inDirection(dir geom.Direction, origin, target geom.Rect) bool {
	oCenterX, oCenterY := rectCenter(origin)
	tCenterX, tCenterY := rectCenter(target)
	switch dir {
	case geom.Right:
		return tCenterX > oCenterX && overlapsVertically(origin, target)
	case geom.Left:
		return tCenterX < oCenterX && overlapsVertically(origin, target)
	case geom.Down:
		return tCenterY > oCenterY && overlapsHorizontally(origin, target)
	case geom.Up:
		return tCenterY < oCenterY && overlapsHorizontally(origin, target)
	}
	return false
}

func rectCenter(r geom.Rect) (x, y int64) {
	return int64(r.X) + int64(r.W)/2, int64(r.Y) + int64(r.H)/2
}

// overlapsVertically reports whether a and b share any vertical span,
// the perpendicular-overlap test for Left/Right search (original_source's
// rect_overlap_vertical).
func overlapsVertically(a, b geom.Rect) bool {
	return int64(a.Y) < int64(b.Bottom()) && int64(a.Bottom()) > int64(b.Y)
}

// overlapsHorizontally reports whether a and b share any horizontal
// span, the perpendicular-overlap test for Up/Down search
// (original_source's rect_overlap_horizontal).
func overlapsHorizontally(a, b geom.Rect) bool {
	return int64(a.X) < int64(b.Right()) && int64(a.Right()) > int64(b.X)
}

func directionalDistance(dir geom.Direction, origin, target geom.Rect) (along, perp int64) {
	oCenterX, oCenterY := rectCenter(origin)
	tCenterX, tCenterY := rectCenter(target)
	switch dir {
	case geom.Up:
		return maxI64(0, int64(origin.Y)-int64(target.Bottom())), abs64(tCenterX - oCenterX)
	case geom.Down:
		return maxI64(0, int64(target.Y)-int64(origin.Bottom())), abs64(tCenterX - oCenterX)
	case geom.Left:
		return maxI64(0, int64(origin.X)-int64(target.Right())), abs64(tCenterY - oCenterY)
	case geom.Right:
		return maxI64(0, int64(target.X)-int64(origin.Right())), abs64(tCenterY - oCenterY)
	}
	return 0, 0
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
