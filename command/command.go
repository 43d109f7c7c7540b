// Package command implements canopy's command registry and
// path-scoped key/mouse binding map (spec.md §4.7). It is a leaf
// package: it knows nothing about the arena or Widget, the same
// separation the teacher keeps between its control-bus registration
// surface (texel/app.go's ControlBusProvider) and the widget tree that
// drives it — here generalized into a pure registry/lookup the engine
// consults from its event router.
package command

import (
	"fmt"
	"strings"
)

// Spec identifies one widget-supplied command (spec.md §4.7).
type Spec struct {
	NodeName    string
	CommandName string
	Docs        string
}

// Fullname is "{node}.{command}", the identifier scripts and bindings
// address.
func (s Spec) Fullname() string { return s.NodeName + "." + s.CommandName }

// Registry tracks the commands currently exposed by the tree,
// mirroring the teacher's RegisterControl/Unregister pair but scoped to
// declarative command specs rather than arbitrary payload handlers.
type Registry struct {
	specs map[string]Spec
}

func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds spec, returning an error if its fullname is already
// registered.
func (r *Registry) Register(spec Spec) error {
	key := spec.Fullname()
	if _, exists := r.specs[key]; exists {
		return fmt.Errorf("command: %q already registered", key)
	}
	r.specs[key] = spec
	return nil
}

// Unregister removes a previously registered command by fullname. It is
// not an error to unregister an unknown name.
func (r *Registry) Unregister(fullname string) {
	delete(r.specs, fullname)
}

// Lookup finds a command by fullname.
func (r *Registry) Lookup(fullname string) (Spec, bool) {
	s, ok := r.specs[fullname]
	return s, ok
}

// All returns every registered command, order unspecified.
func (r *Registry) All() []Spec {
	out := make([]Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	return out
}

// Invocation is one command dispatch request (spec.md §4.7
// "dispatch(ctx, invocation)"): the command name (unqualified, relative
// to the node it was dispatched to) plus positional arguments.
type Invocation struct {
	Name string
	Args []any
}

// ScriptID identifies a compiled script (spec.md §4.7). The zero value
// is never returned by Compile and can be used as a "no script" marker.
type ScriptID uint64

// Host compiles and executes scripts. The engine supplies the
// concrete implementation; command stays agnostic of what a script
// actually does (spec.md explicitly leaves the expression language out
// of scope).
type Host interface {
	Compile(source string) (ScriptID, error)
	// Execute runs the script identified by sid. root and node are
	// opaque node identifiers (the engine's arena.ID) threaded through
	// as any to avoid command depending on arena; ctx is the engine's
	// Context, threaded the same way.
	Execute(ctx any, root any, node any, sid ScriptID) error
}

// Input is the key/mouse trigger a binding matches against. It mirrors
// whatever event the router is currently dispatching; the command
// package only needs it as a comparable map key, so the engine
// populates it in a canonical, comparable form.
type Input struct {
	Kind string // "key" or "mouse", kept as a string to stay decoupled from the event package
	Code int32
	Rune rune
	Mod  int32
	Buttons int32
}

type bindingKey struct {
	mode   string
	filter string
	input  Input
}

// BindingMap resolves (mode, path, Input) to a ScriptID using
// slash-delimited path filters (spec.md §4.7): a filter matches the
// dispatch path when the filter's segments equal a suffix of the
// path's segments, in order; an empty filter matches every path.
type BindingMap struct {
	bindings map[bindingKey]ScriptID
}

func NewBindingMap() *BindingMap {
	return &BindingMap{bindings: make(map[bindingKey]ScriptID)}
}

// Bind registers sid to fire when mode, a path matching filter, and
// input all match during dispatch.
func (b *BindingMap) Bind(mode, filter string, input Input, sid ScriptID) {
	b.bindings[bindingKey{mode: mode, filter: filter, input: input}] = sid
}

// Unbind removes a previously registered binding, if present.
func (b *BindingMap) Unbind(mode, filter string, input Input) {
	delete(b.bindings, bindingKey{mode: mode, filter: filter, input: input})
}

// Resolve finds the binding whose mode, input, and path filter all
// match the given dispatch path. When several filters match (suffix
// matching can produce more than one, e.g. "" and "foo/bar"), the
// longest (most specific) filter wins, making resolution deterministic
// regardless of registration order.
func (b *BindingMap) Resolve(mode string, path []string, input Input) (ScriptID, bool) {
	bestLen := -1
	var best ScriptID
	found := false
	for key, sid := range b.bindings {
		if key.mode != mode || key.input != input {
			continue
		}
		if !filterMatches(key.filter, path) {
			continue
		}
		n := filterSpecificity(key.filter)
		if n > bestLen {
			bestLen = n
			best = sid
			found = true
		}
	}
	return best, found
}

func filterSpecificity(filter string) int {
	if filter == "" {
		return 0
	}
	return len(strings.Split(strings.Trim(filter, "/"), "/"))
}

// filterMatches reports whether filter's slash-delimited segments are
// a suffix of path, in order. An empty filter always matches.
func filterMatches(filter string, path []string) bool {
	if filter == "" {
		return true
	}
	segs := strings.Split(strings.Trim(filter, "/"), "/")
	if len(segs) > len(path) {
		return false
	}
	offset := len(path) - len(segs)
	for i, s := range segs {
		if path[offset+i] != s {
			return false
		}
	}
	return true
}
