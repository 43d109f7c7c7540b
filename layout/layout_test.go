package layout

import (
	"testing"

	"github.com/framegrace/canopy/geom"
)

func TestAllocateFlexSharesExact(t *testing.T) {
	shares := AllocateFlexShares(10, []float64{1, 1})
	if shares[0] != 5 || shares[1] != 5 {
		t.Fatalf("expected even 5/5 split, got %v", shares)
	}
}

func TestAllocateFlexSharesRemainderToLargestFraction(t *testing.T) {
	// remaining=10, weights 1,1,1 -> exact 3.33 each, base 3/3/3, leftover 1
	// goes to index 0 (all fractions equal, tie broken by ascending index).
	shares := AllocateFlexShares(10, []float64{1, 1, 1})
	sum := shares[0] + shares[1] + shares[2]
	if sum != 10 {
		t.Fatalf("shares must sum to remaining, got %v (sum %d)", shares, sum)
	}
	if shares[0] != 4 {
		t.Fatalf("expected leftover unit to go to index 0 on tie, got %v", shares)
	}
}

func TestAllocateFlexSharesWeighted(t *testing.T) {
	shares := AllocateFlexShares(9, []float64{2, 1})
	if shares[0]+shares[1] != 9 {
		t.Fatalf("shares must sum to remaining: %v", shares)
	}
	if shares[0] < shares[1] {
		t.Fatalf("expected larger weight to get larger (or equal) share: %v", shares)
	}
}

func TestAllocateFlexSharesZeroRemaining(t *testing.T) {
	shares := AllocateFlexShares(0, []float64{1, 2, 3})
	for _, s := range shares {
		if s != 0 {
			t.Fatalf("expected all-zero shares, got %v", shares)
		}
	}
}

func TestAllocateFlexSharesAllZeroWeightsStillSplitEvenly(t *testing.T) {
	shares := AllocateFlexShares(9, []float64{0, 0, 0})
	sum := shares[0] + shares[1] + shares[2]
	if sum != 9 {
		t.Fatalf("expected all-zero weights to still absorb all remaining space, got %v (sum %d)", shares, sum)
	}
	if shares[0] != 3 || shares[1] != 3 || shares[2] != 3 {
		t.Fatalf("expected an even 3/3/3 split once every weight floors at 1, got %v", shares)
	}
}

func TestFlexClampsZeroAndNegativeWeightToOne(t *testing.T) {
	if w := Flex(0).Weight; w != 1 {
		t.Fatalf("expected Flex(0) to clamp to weight 1, got %v", w)
	}
	if w := Flex(-5).Weight; w != 1 {
		t.Fatalf("expected Flex(-5) to clamp to weight 1, got %v", w)
	}
	if w := Flex(3).Weight; w != 3 {
		t.Fatalf("expected Flex(3) to keep its weight, got %v", w)
	}
}

func TestChildConstraintsFlexIsExact(t *testing.T) {
	c := ChildConstraints(Flex(1), 0, nil, OverflowVisible, AtMostC(100), 42)
	if c.Kind != Exact || c.Value != 42 {
		t.Fatalf("expected Exact(42), got %+v", c)
	}
}

func TestChildConstraintsMeasureNoMaxIsUnbounded(t *testing.T) {
	c := ChildConstraints(Measure(), 0, nil, OverflowVisible, AtMostC(100), 0)
	if c.Kind != Unbounded {
		t.Fatalf("expected Unbounded, got %+v", c)
	}
}

func TestChildConstraintsMinEqualsMaxIsExact(t *testing.T) {
	max := uint32(5)
	c := ChildConstraints(Measure(), 5, &max, OverflowVisible, AtMostC(100), 0)
	if c.Kind != Exact || c.Value != 5 {
		t.Fatalf("expected Exact(5), got %+v", c)
	}
}

func TestChildConstraintsClipWithoutMaxIsAtMost(t *testing.T) {
	c := ChildConstraints(Measure(), 0, nil, OverflowClip, AtMostC(100), 0)
	if c.Kind != AtMost || c.Value != 100 {
		t.Fatalf("expected AtMost(100), got %+v", c)
	}
}

func TestAlignOffset(t *testing.T) {
	if AlignOffset(AlignStart, 10, 4) != 0 {
		t.Fatalf("start should be 0")
	}
	if AlignOffset(AlignCenter, 10, 4) != 3 {
		t.Fatalf("center should be 3, got %d", AlignOffset(AlignCenter, 10, 4))
	}
	if AlignOffset(AlignEnd, 10, 4) != 6 {
		t.Fatalf("end should be 6, got %d", AlignOffset(AlignEnd, 10, 4))
	}
	if AlignOffset(AlignCenter, 4, 10) != 0 {
		t.Fatalf("oversized child should offset 0, got %d", AlignOffset(AlignCenter, 4, 10))
	}
}

func TestContentBox(t *testing.T) {
	outer := geom.Rect{X: 1, Y: 1, W: 10, H: 10}
	box := ContentBox(outer, Padding{Top: 1, Right: 2, Bottom: 1, Left: 2})
	want := geom.Rect{X: 3, Y: 2, W: 6, H: 8}
	if box != want {
		t.Fatalf("want %+v got %+v", want, box)
	}
}

func TestContentBoxClampsAtZero(t *testing.T) {
	outer := geom.Rect{X: 0, Y: 0, W: 2, H: 2}
	box := ContentBox(outer, Padding{Top: 5, Right: 5, Bottom: 5, Left: 5})
	if box.W != 0 || box.H != 0 {
		t.Fatalf("expected zero-size content box, got %+v", box)
	}
}
