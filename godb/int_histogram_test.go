package godb

import "testing"

func TestIntHistogramEqualitySelectivityMatchesUniformDistribution(t *testing.T) {
	h, err := NewIntHistogram(10, 0, 99)
	if err != nil {
		t.Fatalf("NewIntHistogram: %v", err)
	}
	for v := int64(0); v < 100; v++ {
		h.AddValue(v)
	}

	// Each value appears exactly once in 100 values, so equality
	// selectivity should be close to 1/100.
	sel := h.EstimateSelectivity(OpEq, 42)
	if sel < 0.005 || sel > 0.02 {
		t.Fatalf("expected equality selectivity near 0.01, got %f", sel)
	}
}

func TestIntHistogramGreaterThanSelectivityMonotonic(t *testing.T) {
	h, err := NewIntHistogram(10, 0, 99)
	if err != nil {
		t.Fatalf("NewIntHistogram: %v", err)
	}
	for v := int64(0); v < 100; v++ {
		h.AddValue(v)
	}

	low := h.EstimateSelectivity(OpGt, 10)
	high := h.EstimateSelectivity(OpGt, 90)
	if !(low > high) {
		t.Fatalf("expected selectivity(>10)=%f to exceed selectivity(>90)=%f", low, high)
	}

	belowMin := h.EstimateSelectivity(OpGt, -1)
	if belowMin < 0.9 {
		t.Fatalf("expected nearly everything to be > min-1, got %f", belowMin)
	}

	aboveMax := h.EstimateSelectivity(OpGt, 99)
	if aboveMax != 0 {
		t.Fatalf("expected nothing to be > max, got %f", aboveMax)
	}
}

func TestIntHistogramNeqIsComplementOfEq(t *testing.T) {
	h, err := NewIntHistogram(5, 0, 9)
	if err != nil {
		t.Fatalf("NewIntHistogram: %v", err)
	}
	for _, v := range []int64{1, 1, 1, 5, 9} {
		h.AddValue(v)
	}
	eq := h.EstimateSelectivity(OpEq, 1)
	neq := h.EstimateSelectivity(OpNeq, 1)
	if eq+neq < 0.999 || eq+neq > 1.001 {
		t.Fatalf("expected eq+neq selectivity to sum to 1, got %f", eq+neq)
	}
}

func TestIntHistogramRejectsInvalidBounds(t *testing.T) {
	if _, err := NewIntHistogram(0, 0, 10); err == nil {
		t.Fatalf("expected error for zero bins")
	}
	if _, err := NewIntHistogram(5, 10, 0); err == nil {
		t.Fatalf("expected error for max < min")
	}
}
