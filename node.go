package canopy

import "github.com/framegrace/canopy/arena"

// NodeID identifies a node in the engine's scene graph. It is a thin
// alias over arena.ID so callers outside this package never need to
// import arena directly.
type NodeID = arena.ID

// TypedID remembers the concrete widget type a node was created with,
// letting WithWidgetMut-style re-entry helpers hand back a
// type-asserted widget instead of the bare Widget interface (spec.md
// §4.10 "widget re-entry via ... typed variants").
type TypedID[W Widget] struct {
	ID NodeID
}

func (t TypedID[W]) Untyped() NodeID { return t.ID }
