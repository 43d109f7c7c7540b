// Package arena implements canopy's slot-mapped scene graph storage:
// stable generational node identity, parent/child topology, and
// mount/detach with cycle checking (spec.md §3, §4.3). It is generic
// over the widget payload type so it has no dependency on the concrete
// Widget interface the root canopy package defines — the same acyclic
// shape as the teacher's layout_iface.go, generalized with Go generics
// instead of a narrow single-method interface.
package arena

import "fmt"

// ID is an opaque, generational handle into an Arena. It is cheap to
// copy and stable across mutations until the node is removed.
type ID struct {
	idx uint32
	gen uint32
}

// Valid reports whether id could plausibly refer to a node (it has been
// allocated at least once). It does not guarantee the node still exists.
func (id ID) Valid() bool { return id.gen != 0 }

func (id ID) String() string { return fmt.Sprintf("node#%d.%d", id.idx, id.gen) }

// Node is one arena slot's payload plus topology bookkeeping. Callers
// generally interact with an Arena through its methods rather than
// mutating Node fields directly, except where noted.
type Node[W any] struct {
	Widget   W
	hasChild bool // unused placeholder kept explicit: children is authoritative
	Parent   *ID
	Children []ID
	Name     string

	Hidden      bool
	Mounted     bool
	Initialized bool
	LayoutDirty bool
}

type slot[W any] struct {
	node Node[W]
	gen  uint32
	live bool
}

// Arena owns a set of nodes forming a single tree (or forest before the
// first mount). It is not safe for concurrent use, matching the
// engine's single-threaded cooperative model (spec.md §5).
type Arena[W any] struct {
	slots []slot[W]
	free  []uint32
	root  ID
}

// New creates an empty arena with no root set.
func New[W any]() *Arena[W] {
	return &Arena[W]{}
}

// Add allocates a new orphan, unmounted node carrying widget w and
// returns its id (spec.md §4.3).
func (a *Arena[W]) Add(w W, name string) ID {
	if len(a.free) > 0 {
		idx := a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
		s := &a.slots[idx]
		s.gen++
		s.live = true
		s.node = Node[W]{Widget: w, Name: name}
		return ID{idx: idx, gen: s.gen}
	}
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, slot[W]{node: Node[W]{Widget: w, Name: name}, gen: 1, live: true})
	return ID{idx: idx, gen: 1}
}

// SetRoot designates id as the root. The root's parent is always nil
// (spec.md §3 invariant 1).
func (a *Arena[W]) SetRoot(id ID) error {
	if !a.exists(id) {
		return errNodeNotFound(id)
	}
	a.root = id
	n := a.mustGet(id)
	n.Parent = nil
	n.Mounted = true
	return nil
}

// Root returns the current root id.
func (a *Arena[W]) Root() ID { return a.root }

func (a *Arena[W]) exists(id ID) bool {
	if int(id.idx) >= len(a.slots) {
		return false
	}
	s := &a.slots[id.idx]
	return s.live && s.gen == id.gen && id.gen != 0
}

func (a *Arena[W]) mustGet(id ID) *Node[W] {
	return &a.slots[id.idx].node
}

// Get returns the node for id.
func (a *Arena[W]) Get(id ID) (*Node[W], error) {
	if !a.exists(id) {
		return nil, errNodeNotFound(id)
	}
	return a.mustGet(id), nil
}

// Exists reports whether id currently resolves to a live node.
func (a *Arena[W]) Exists(id ID) bool { return a.exists(id) }

// Children returns id's children in order.
func (a *Arena[W]) Children(id ID) []ID {
	if !a.exists(id) {
		return nil
	}
	return a.mustGet(id).Children
}

// Parent returns id's parent, or (ID{}, false) if id is the root or
// unknown.
func (a *Arena[W]) Parent(id ID) (ID, bool) {
	if !a.exists(id) {
		return ID{}, false
	}
	p := a.mustGet(id).Parent
	if p == nil {
		return ID{}, false
	}
	return *p, true
}

// IsAncestor reports whether candidate is an ancestor of id (walking
// id's parent chain).
func (a *Arena[W]) IsAncestor(candidate, id ID) bool {
	cur, ok := a.Parent(id)
	for ok {
		if cur == candidate {
			return true
		}
		cur, ok = a.Parent(cur)
	}
	return false
}

// MountChild detaches child from any previous parent, appends it to
// parent's children, and marks it mounted, running onMount exactly once
// unless it was already mounted (spec.md §4.3). onMount may be nil.
func (a *Arena[W]) MountChild(parent, child ID, onMount func(ID) error) error {
	if !a.exists(parent) || !a.exists(child) {
		return errNodeNotFound(parent)
	}
	if parent == child || a.IsAncestor(child, parent) {
		return errCycle(parent, child)
	}
	a.detachFromParent(child)
	pn := a.mustGet(parent)
	pn.Children = append(pn.Children, child)
	cn := a.mustGet(child)
	p := parent
	cn.Parent = &p
	wasMounted := cn.Mounted
	cn.Mounted = true
	if !wasMounted && onMount != nil {
		if err := onMount(child); err != nil {
			return err
		}
	}
	return nil
}

// SetChildren transactionally replaces parent's children: the entire
// list is validated first (each id must exist, none may be an ancestor
// of parent or equal to parent) and only on success are former children
// detached and the new list attached (spec.md §4.3).
func (a *Arena[W]) SetChildren(parent ID, children []ID, onMount func(ID) error) error {
	if !a.exists(parent) {
		return errNodeNotFound(parent)
	}
	for _, c := range children {
		if !a.exists(c) {
			return errNodeNotFound(c)
		}
		if c == parent || a.IsAncestor(c, parent) {
			return errCycle(parent, c)
		}
	}
	old := append([]ID(nil), a.mustGet(parent).Children...)
	newSet := make(map[ID]bool, len(children))
	for _, c := range children {
		newSet[c] = true
	}
	for _, c := range old {
		if !newSet[c] {
			a.detachFromParent(c)
		}
	}
	pn := a.mustGet(parent)
	pn.Children = append([]ID(nil), children...)
	for _, c := range children {
		cn := a.mustGet(c)
		if cn.Parent == nil || *cn.Parent != parent {
			p := parent
			cn.Parent = &p
		}
		wasMounted := cn.Mounted
		cn.Mounted = true
		if !wasMounted && onMount != nil {
			if err := onMount(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// detachFromParent removes id from its current parent's children list,
// if any, without destroying the node.
func (a *Arena[W]) detachFromParent(id ID) {
	n := a.mustGet(id)
	if n.Parent == nil {
		return
	}
	parent := *n.Parent
	pn := a.mustGet(parent)
	for i, c := range pn.Children {
		if c == id {
			pn.Children = append(pn.Children[:i], pn.Children[i+1:]...)
			break
		}
	}
	n.Parent = nil
}

// Detach removes id from its parent's children list. The node remains
// addressable (but unreachable from root) until Remove is called.
func (a *Arena[W]) Detach(id ID) error {
	if !a.exists(id) {
		return errNodeNotFound(id)
	}
	a.detachFromParent(id)
	return nil
}

// Remove detaches the node from its parent, if any, and destroys it,
// freeing its slot for reuse with a bumped generation. Its children are
// not removed.
func (a *Arena[W]) Remove(id ID) error {
	if !a.exists(id) {
		return errNodeNotFound(id)
	}
	a.detachFromParent(id)
	s := &a.slots[id.idx]
	s.live = false
	s.node = Node[W]{}
	a.free = append(a.free, id.idx)
	return nil
}

// SetHidden flips id's visibility flag, returning the previous value.
func (a *Arena[W]) SetHidden(id ID, hidden bool) (bool, error) {
	if !a.exists(id) {
		return false, errNodeNotFound(id)
	}
	n := a.mustGet(id)
	prev := n.Hidden
	n.Hidden = hidden
	return prev, nil
}

// WalkPreOrder visits id and its descendants in pre-order, skipping
// hidden subtrees when skipHidden is true. f returning false skips the
// subtree below that node; the walk goes on with the remaining nodes.
func (a *Arena[W]) WalkPreOrder(id ID, skipHidden bool, f func(ID) bool) {
	if !a.exists(id) {
		return
	}
	n := a.mustGet(id)
	if skipHidden && n.Hidden {
		return
	}
	if !f(id) {
		return
	}
	for _, c := range n.Children {
		a.WalkPreOrder(c, skipHidden, f)
	}
}

// errNodeNotFound and errCycle are constructed without importing the
// root canopy error type (would create a cycle); callers adapt them.
type NotFoundError struct{ ID fmt.Stringer }

func (e *NotFoundError) Error() string { return fmt.Sprintf("arena: node not found: %s", e.ID) }

type CycleError struct{ Parent, Child fmt.Stringer }

func (e *CycleError) Error() string {
	return fmt.Sprintf("arena: mounting %s under %s would introduce a cycle", e.Child, e.Parent)
}

func errNodeNotFound(id ID) error { return &NotFoundError{ID: id} }
func errCycle(parent, child ID) error {
	return &CycleError{Parent: parent, Child: child}
}
