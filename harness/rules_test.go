package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/framegrace/canopy/style"
)

func TestLoadRuleSetDecodesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	body := `{
		"focused": {"fg": "red", "add": ["Bold"]},
		"dim": {"clear": ["Bold"], "tolerance": 5}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	rs, err := LoadRuleSet(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rs))
	}
	if rs["focused"].FG != "red" || len(rs["focused"].Add) != 1 {
		t.Fatalf("unexpected focused rule: %+v", rs["focused"])
	}
	if rs["dim"].Tolerance != 5 {
		t.Fatalf("expected tolerance 5, got %v", rs["dim"].Tolerance)
	}
}

func TestLoadRuleSetMissingFileReturnsEmptySetAndError(t *testing.T) {
	rs, err := LoadRuleSet(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if len(rs) != 0 {
		t.Fatalf("expected an empty rule set, got %v", rs)
	}
}

func TestLoadRuleSetMalformedJSONReturnsEmptySetAndError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	rs, err := LoadRuleSet(path)
	if err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
	if len(rs) != 0 {
		t.Fatalf("expected an empty rule set, got %v", rs)
	}
}

func TestRuleMatcherExactColorAndAttrs(t *testing.T) {
	r := Rule{FG: "red", Add: []string{"Bold"}, Clear: []string{"Italic"}}
	m, err := r.Matcher()
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	actual := style.Style{FG: style.RGB(255, 0, 0), Attrs: style.AttrSet(0).With(style.Bold)}
	if !m.Matches(actual) {
		t.Fatalf("expected match, got style %+v vs rule %+v", actual, m)
	}
	withItalic := actual
	withItalic.Attrs = withItalic.Attrs.With(style.Italic)
	if m.Matches(withItalic) {
		t.Fatal("expected Clear:[Italic] to reject a style that still carries Italic")
	}
}

func TestRuleMatcherUnknownAttrErrors(t *testing.T) {
	r := Rule{Add: []string{"Sparkly"}}
	if _, err := r.Matcher(); err == nil {
		t.Fatal("expected an error for an unknown attribute name")
	}
}

func TestFuzzyStyleToleranceAllowsNearbyColor(t *testing.T) {
	base := style.RGB(200, 30, 30)
	near := style.RGB(205, 35, 32)
	fs := FuzzyStyle{Tolerance: 10}
	fs.FG = &base
	if !fs.Matches(style.Style{FG: near}) {
		t.Fatal("expected a nearby color within tolerance to match")
	}

	fs.Tolerance = 0
	if fs.Matches(style.Style{FG: near}) {
		t.Fatal("expected zero tolerance to require an exact color match")
	}
}

func TestFuzzyStyleUnsetFieldsAreUnconstrained(t *testing.T) {
	fs := FuzzyStyle{}
	if !fs.Matches(style.Style{FG: style.RGB(1, 2, 3), BG: style.RGB(4, 5, 6), Attrs: style.AttrSet(0).With(style.Underline)}) {
		t.Fatal("expected an empty FuzzyStyle to match anything")
	}
}
