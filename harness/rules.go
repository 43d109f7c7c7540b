package harness

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/canopy/style"
)

// Rule is one named style expectation, as decoded from a JSON rule
// file. Color names follow tcell's palette (named colors or "#rrggbb"
// hex); Add/Clear name style.Attr bits by their field name (Bold,
// Italic, Underline, Dim, Overline, Crossedout).
type Rule struct {
	FG    string   `json:"fg,omitempty"`
	BG    string   `json:"bg,omitempty"`
	Add   []string `json:"add,omitempty"`
	Clear []string `json:"clear,omitempty"`
	// Tolerance is the perceptual Lab distance within which FG/BG are
	// considered a match; zero means exact. Left at zero unless set.
	Tolerance float64 `json:"tolerance,omitempty"`
}

// RuleSet is a named collection of rules, the unit a style rule file
// decodes into — map[string]Rule mirrors theme.Config's
// map[string]Section shape (texel/theme/theme.go) rather than a
// nested/typed struct, so new rule names never require a schema change.
type RuleSet map[string]Rule

// LoadRuleSet reads and decodes a JSON rule file. A missing or
// malformed file is recoverable: it logs and returns an empty set
// rather than panicking, the same posture theme.Config.Load takes
// toward a missing theme file.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("harness: could not read style rule file %q (%v); using an empty rule set", path, err)
		return RuleSet{}, err
	}
	var rs RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		log.Printf("harness: malformed style rule file %q (%v); using an empty rule set", path, err)
		return RuleSet{}, err
	}
	return rs, nil
}

var attrNames = map[string]style.Attr{
	"Bold":       style.Bold,
	"Italic":     style.Italic,
	"Underline":  style.Underline,
	"Dim":        style.Dim,
	"Overline":   style.Overline,
	"Crossedout": style.Crossedout,
}

func parseAttrs(names []string) (style.AttrSet, error) {
	var set style.AttrSet
	for _, n := range names {
		a, ok := attrNames[n]
		if !ok {
			return 0, fmt.Errorf("harness: unknown attribute %q", n)
		}
		set = set.With(a)
	}
	return set, nil
}

// Matcher compiles a Rule into a FuzzyStyle ready to test against a
// rendered cell's Style.
func (r Rule) Matcher() (FuzzyStyle, error) {
	var fs FuzzyStyle
	if r.FG != "" {
		c := style.Color(tcell.GetColor(r.FG).TrueColor())
		fs.FG = &c
	}
	if r.BG != "" {
		c := style.Color(tcell.GetColor(r.BG).TrueColor())
		fs.BG = &c
	}
	add, err := parseAttrs(r.Add)
	if err != nil {
		return FuzzyStyle{}, err
	}
	clear, err := parseAttrs(r.Clear)
	if err != nil {
		return FuzzyStyle{}, err
	}
	fs.AddAttrs = add
	fs.ClearAttrs = clear
	fs.Tolerance = r.Tolerance
	return fs, nil
}

// FuzzyStyle overlays style.PartialStyle with a color-match tolerance:
// a widget-level test rarely cares about the exact hex value a theme
// produces, only that it is roughly the intended hue. Generalized from
// the canonical canopy crate's test harness matching patterns.
type FuzzyStyle struct {
	style.PartialStyle
	Tolerance float64
}

// Matches reports whether actual satisfies every field the overlay
// sets; unset fields (nil colors, zero attr bits) are unconstrained.
func (f FuzzyStyle) Matches(actual style.Style) bool {
	if f.FG != nil && !colorsClose(*f.FG, actual.FG, f.Tolerance) {
		return false
	}
	if f.BG != nil && !colorsClose(*f.BG, actual.BG, f.Tolerance) {
		return false
	}
	if f.AddAttrs != 0 && actual.Attrs&f.AddAttrs != f.AddAttrs {
		return false
	}
	if f.ClearAttrs != 0 && actual.Attrs&f.ClearAttrs != 0 {
		return false
	}
	return true
}

func colorsClose(a, b style.Color, tolerance float64) bool {
	if tolerance <= 0 {
		return a == b
	}
	return a.Colorful().DistanceLab(b.Colorful()) <= tolerance
}
