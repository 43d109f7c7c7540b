package command

import "testing"

func TestSpecFullname(t *testing.T) {
	s := Spec{NodeName: "list", CommandName: "select_next"}
	if s.Fullname() != "list.select_next" {
		t.Fatalf("got %q", s.Fullname())
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	s := Spec{NodeName: "a", CommandName: "b"}
	if err := r.Register(s); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(s); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	s := Spec{NodeName: "a", CommandName: "b"}
	r.Register(s)
	r.Unregister(s.Fullname())
	if _, ok := r.Lookup(s.Fullname()); ok {
		t.Fatalf("expected command removed")
	}
}

func TestFilterMatchesEmptyAlwaysMatches(t *testing.T) {
	if !filterMatches("", []string{"root", "list"}) {
		t.Fatalf("empty filter should match everything")
	}
}

func TestFilterMatchesSuffix(t *testing.T) {
	if !filterMatches("list", []string{"root", "panel", "list"}) {
		t.Fatalf("expected single-segment suffix match")
	}
	if !filterMatches("panel/list", []string{"root", "panel", "list"}) {
		t.Fatalf("expected multi-segment suffix match")
	}
	if filterMatches("root/list", []string{"root", "panel", "list"}) {
		t.Fatalf("non-contiguous suffix must not match")
	}
	if filterMatches("list/panel", []string{"root", "panel", "list"}) {
		t.Fatalf("out-of-order suffix must not match")
	}
}

func TestBindingMapResolvesMostSpecificFilter(t *testing.T) {
	bm := NewBindingMap()
	in := Input{Kind: "key", Rune: 'q'}
	bm.Bind("normal", "", in, 1)
	bm.Bind("normal", "panel/list", in, 2)

	sid, ok := bm.Resolve("normal", []string{"root", "panel", "list"}, in)
	if !ok || sid != 2 {
		t.Fatalf("expected most specific binding to win, got %v ok=%v", sid, ok)
	}
}

func TestBindingMapNoMatch(t *testing.T) {
	bm := NewBindingMap()
	if _, ok := bm.Resolve("normal", []string{"root"}, Input{Kind: "key", Rune: 'x'}); ok {
		t.Fatalf("expected no match on empty map")
	}
}

func TestBindingMapUnbind(t *testing.T) {
	bm := NewBindingMap()
	in := Input{Kind: "key", Rune: 'q'}
	bm.Bind("normal", "", in, 1)
	bm.Unbind("normal", "", in)
	if _, ok := bm.Resolve("normal", []string{"root"}, in); ok {
		t.Fatalf("expected binding removed")
	}
}
