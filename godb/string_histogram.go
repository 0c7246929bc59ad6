package godb

import (
	boom "github.com/tylertreat/BoomFilters"
)

// StringHistogram estimates selectivity over a STRING field using a
// Count-Min Sketch rather than a fixed-bucket histogram, since string
// values don't have a natural ordering to bucket by range the way INT
// values do. Grounded on the teacher's string_histogram.go.
type StringHistogram struct {
	cms *boom.CountMinSketch
}

// NewStringHistogram constructs a StringHistogram backed by a
// Count-Min Sketch sized for 0.1% error at 99.9% confidence.
func NewStringHistogram() (*StringHistogram, error) {
	cms := boom.NewCountMinSketch(0.001, 0.999)
	return &StringHistogram{cms}, nil
}

func (h *StringHistogram) AddValue(s string) {
	h.cms.Add([]byte(s))
}

func (h *StringHistogram) EstimateSelectivity(op BoolOp, s string) float64 {
	return float64(h.cms.Count([]byte(s))) / float64(h.cms.TotalCount())
}
