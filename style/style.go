// Package style implements canopy's color and attribute model: the
// per-cell Style used by the cell buffer, the PartialStyle overlay used
// for rule composition and test matching, and the ordered effect stack
// render applies while walking the tree (spec.md §3, §4.8).
package style

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Color is canopy's color representation. It is backed by tcell.Color so
// a harness backend can hand styles straight to a tcell screen, and
// converts to/from go-colorful.Color for perceptual blending (used by the
// harness's fuzzy style-rule matcher).
type Color tcell.Color

// Default is the unset/inherit-from-terminal color.
const Default Color = Color(tcell.ColorDefault)

// RGB builds a Color from 8-bit components.
func RGB(r, g, b uint8) Color {
	return Color(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}

// TCell converts to the underlying tcell.Color.
func (c Color) TCell() tcell.Color { return tcell.Color(c) }

// Colorful converts to a go-colorful.Color for perceptual math. Falls
// back to black for the terminal-default sentinel.
func (c Color) Colorful() colorful.Color {
	if c == Default {
		return colorful.Color{}
	}
	r, g, b := tcell.Color(c).RGB()
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Blend linearly interpolates between two colors in Lab space, t in
// [0, 1].
func Blend(a, b Color, t float64) Color {
	blended := a.Colorful().BlendLab(b.Colorful(), t)
	r, g, bl := blended.RGB255()
	return RGB(r, g, bl)
}

// Attr is a single display attribute bit.
type Attr uint8

const (
	Bold Attr = 1 << iota
	Italic
	Underline
	Dim
	Overline
	Crossedout
)

// AttrSet is a bit set of Attr values.
type AttrSet uint8

func (s AttrSet) Has(a Attr) bool  { return s&AttrSet(a) != 0 }
func (s AttrSet) With(a Attr) AttrSet { return s | AttrSet(a) }
func (s AttrSet) Without(a Attr) AttrSet { return s &^ AttrSet(a) }

// Style is a fully-resolved fg/bg/attrs triple, the unit cells carry.
type Style struct {
	FG, BG Color
	Attrs  AttrSet
}

// TCellStyle renders to a tcell.Style for a concrete backend.
func (s Style) TCellStyle() tcell.Style {
	ts := tcell.StyleDefault.Foreground(s.FG.TCell()).Background(s.BG.TCell())
	if s.Attrs.Has(Bold) {
		ts = ts.Bold(true)
	}
	if s.Attrs.Has(Italic) {
		ts = ts.Italic(true)
	}
	if s.Attrs.Has(Underline) {
		ts = ts.Underline(true)
	}
	if s.Attrs.Has(Dim) {
		ts = ts.Dim(true)
	}
	// Overline has no corresponding tcell attribute bit; it is preserved
	// in AttrSet for in-engine style matching but dropped on conversion
	// to a concrete tcell.Style.
	if s.Attrs.Has(Crossedout) {
		ts = ts.StrikeThrough(true)
	}
	return ts
}

// PartialStyle overlays an optional subset of fg/bg/attrs, used by style
// rules and test matchers (spec.md §3).
type PartialStyle struct {
	FG, BG     *Color
	AddAttrs   AttrSet
	ClearAttrs AttrSet
}

// Apply returns base with the partial overlay applied: present fields
// override, AddAttrs are OR'd in, ClearAttrs are ANDed out (clear wins
// over add when both name the same bit, matching "clear_inherited_effects"
// semantics elsewhere in the engine: explicit overrides always win).
func (p PartialStyle) Apply(base Style) Style {
	out := base
	if p.FG != nil {
		out.FG = *p.FG
	}
	if p.BG != nil {
		out.BG = *p.BG
	}
	out.Attrs = (out.Attrs | p.AddAttrs) &^ p.ClearAttrs
	return out
}

// Matches reports whether s satisfies every field this partial style
// constrains; used by the harness to assert "this cell is roughly bold
// red" without pinning every attribute.
func (p PartialStyle) Matches(s Style) bool {
	if p.FG != nil && *p.FG != s.FG {
		return false
	}
	if p.BG != nil && *p.BG != s.BG {
		return false
	}
	if p.AddAttrs&^s.Attrs != 0 {
		return false
	}
	if p.ClearAttrs&s.Attrs != 0 {
		return false
	}
	return true
}

// Effect is a style-transforming function attached to a node: inherited
// or local (spec.md §3 StyleEffect, §8 "Associativity" law). Effects
// compose left-to-right: inherited effects fold first, then local ones,
// each effect applied as a function Style -> Style.
type Effect func(Style) Style

// Compose folds a sequence of effects left to right into a single
// function, matching the associativity law in spec.md §8: composing the
// whole stack is equivalent to folding inherited then local effects.
func Compose(effects []Effect) Effect {
	return func(s Style) Style {
		for _, e := range effects {
			if e != nil {
				s = e(s)
			}
		}
		return s
	}
}

// FromPartial turns a PartialStyle into an Effect that applies it.
func FromPartial(p PartialStyle) Effect {
	return func(s Style) Style { return p.Apply(s) }
}
