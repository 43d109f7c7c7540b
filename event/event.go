// Package event defines canopy's input event vocabulary and the
// three-state dispatch outcome (spec.md §3, §4.6). Key and mouse fields
// borrow tcell's key/modifier/button vocabulary per the domain-stack
// decision in SPEC_FULL.md rather than inventing a parallel one, while
// the event sum type itself, and the rule for how outcomes stop or
// continue bubbling, are canopy's own.
package event

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/canopy/geom"
)

// Kind discriminates the Event sum type's variants.
type Kind int

const (
	KeyKind Kind = iota
	MouseKind
	ResizeKind
	PasteKind
	FocusGainedKind
	FocusLostKind
	PollKind
)

func (k Kind) String() string {
	switch k {
	case KeyKind:
		return "Key"
	case MouseKind:
		return "Mouse"
	case ResizeKind:
		return "Resize"
	case PasteKind:
		return "Paste"
	case FocusGainedKind:
		return "FocusGained"
	case FocusLostKind:
		return "FocusLost"
	case PollKind:
		return "Poll"
	default:
		return "Unknown"
	}
}

// Key is a single keypress, reusing tcell's key/rune/modifier model.
type Key struct {
	Code tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// Mouse is a single mouse event: absolute screen location plus the
// button/modifier state tcell reports.
type Mouse struct {
	Location geom.Point
	Buttons  tcell.ButtonMask
	Mod      tcell.ModMask
}

// PollID identifies a node in a Poll event's due set. It mirrors
// whatever id type the engine's arena instantiation uses; the event
// package stays arena-agnostic by carrying ids as an opaque comparable
// value supplied by the caller (spec.md §4.9).
type PollID = any

// Event is canopy's input sum type (spec.md §3). Exactly one field
// group is meaningful, selected by Kind.
type Event struct {
	Kind Kind

	Key   Key
	Mouse Mouse
	Size  geom.Expanse
	Paste string
	Poll  []PollID

	// When set, At records the moment the driver observed this event,
	// used by widgets that reason about poll cadence.
	At time.Time
}

func NewKey(code tcell.Key, r rune, mod tcell.ModMask) Event {
	return Event{Kind: KeyKind, Key: Key{Code: code, Rune: r, Mod: mod}}
}

func NewMouse(loc geom.Point, buttons tcell.ButtonMask, mod tcell.ModMask) Event {
	return Event{Kind: MouseKind, Mouse: Mouse{Location: loc, Buttons: buttons, Mod: mod}}
}

func NewResize(size geom.Expanse) Event { return Event{Kind: ResizeKind, Size: size} }
func NewPaste(s string) Event           { return Event{Kind: PasteKind, Paste: s} }
func NewFocusGained() Event             { return Event{Kind: FocusGainedKind} }
func NewFocusLost() Event               { return Event{Kind: FocusLostKind} }
func NewPoll(ids []PollID) Event        { return Event{Kind: PollKind, Poll: ids} }

// Outcome is the three-state result of dispatching an event to a
// widget (spec.md §4.6): Handle and Consume both stop bubbling at the
// current node; Ignore lets the router pop one path segment and retry
// at the parent. The router dispatches to the widget first and only
// then checks for a bound script at that node, so Consume also
// suppresses the binding lookup for the node that produced it.
type Outcome int

const (
	Ignore Outcome = iota
	Handle
	Consume
)

func (o Outcome) StopsBubbling() bool { return o == Handle || o == Consume }

func (o Outcome) String() string {
	switch o {
	case Handle:
		return "Handle"
	case Consume:
		return "Consume"
	default:
		return "Ignore"
	}
}
