package godb

import (
	"fmt"
	"log"
	"math"
)

// table_stats.go is named as a collaborator by the query planner (out of
// core scope per spec.md) but is included here per SPEC_FULL.md C11:
// selectivity estimation is the natural consumer of the IntHistogram and
// StringHistogram components. Grounded on the teacher's table_stats.go,
// ported to TransactionId/BufferPool.TransactionComplete.

// Stats is the interface a cost-based planner would consult for a table.
type Stats interface {
	EstimateScanCost() float64
	EstimateCardinality(selectivity float64) int
	EstimateSelectivity(field string, op BoolOp, value DBValue) (float64, error)
}

// TableStats holds per-column histograms and aggregate counts for one
// table, computed by a single full scan.
type TableStats struct {
	basePages  int
	baseTups   int
	histograms map[string]any
	tupleDesc  *TupleDesc
}

// CostPerPage is the assumed cost to read one page from disk.
const CostPerPage = 1000

// NumHistBins is the number of buckets each IntHistogram uses.
const NumHistBins = 100

func tableMinMax(tid TransactionId, dbFile DBFile) ([]int64, []int64, error) {
	td := dbFile.Descriptor()
	mins := make([]int64, len(td.Fields))
	maxs := make([]int64, len(td.Fields))
	for i := range mins {
		mins[i] = math.MaxInt32
		maxs[i] = math.MinInt32
	}

	iter, err := dbFile.Iterator(tid)
	if err != nil {
		return nil, nil, err
	}
	for tup, err := iter(); tup != nil; tup, err = iter() {
		if err != nil {
			return nil, nil, err
		}
		for i, f := range td.Fields {
			if f.Ftype == IntType {
				v := tup.Fields[i].(IntField).Value
				if v < mins[i] {
					mins[i] = v
				}
				if v > maxs[i] {
					maxs[i] = v
				}
			}
		}
	}
	for i := range mins {
		if mins[i] > maxs[i] {
			mins[i] = 0
			maxs[i] = 0
		}
	}
	return mins, maxs, nil
}

// ComputeTableStats scans dbFile once, under its own short-lived
// transaction, building an IntHistogram or StringHistogram per column.
func ComputeTableStats(bp *BufferPool, dbFile DBFile) (*TableStats, error) {
	tid := NewTID()
	if err := bp.BeginTransaction(tid); err != nil {
		return nil, err
	}
	defer bp.TransactionComplete(tid, true)

	td := dbFile.Descriptor()

	mins, maxs, err := tableMinMax(tid, dbFile)
	if err != nil {
		return nil, err
	}

	hists := make(map[string]any, len(td.Fields))
	for i, f := range td.Fields {
		switch f.Ftype {
		case IntType:
			h, err := NewIntHistogram(NumHistBins, mins[i], maxs[i])
			if err != nil {
				return nil, err
			}
			hists[f.Fname] = h
		case StringType:
			h, err := NewStringHistogram()
			if err != nil {
				return nil, err
			}
			hists[f.Fname] = h
		case UnknownType:
			return nil, fmt.Errorf("unexpected unknown type")
		}
	}

	iter, err := dbFile.Iterator(tid)
	if err != nil {
		return nil, err
	}

	baseTups := 0
	for tup, err := iter(); tup != nil; tup, err = iter() {
		if err != nil {
			return nil, err
		}
		for i, f := range td.Fields {
			switch f.Ftype {
			case IntType:
				v := tup.Fields[i].(IntField).Value
				hists[f.Fname].(*IntHistogram).AddValue(v)
			case StringType:
				v := tup.Fields[i].(StringField).Value
				hists[f.Fname].(*StringHistogram).AddValue(v)
			case UnknownType:
				return nil, fmt.Errorf("unexpected unknown type")
			}
		}
		baseTups++
	}

	return &TableStats{dbFile.NumPages(), baseTups, hists, td}, nil
}

// EstimateScanCost estimates the cost of a full sequential scan.
func (t *TableStats) EstimateScanCost() float64 {
	return float64(t.basePages * CostPerPage)
}

// EstimateCardinality estimates the number of rows a predicate of the
// given selectivity would pass.
func (t *TableStats) EstimateCardinality(selectivity float64) int {
	return int(float64(t.baseTups) * selectivity)
}

// EstimateSelectivity estimates the fraction of rows satisfying
// "field op value", consulting that field's histogram. For a STRING field
// op is ignored: the Count-Min Sketch only counts exact values, so the
// result is the equality estimate for value.
func (t *TableStats) EstimateSelectivity(field string, op BoolOp, value DBValue) (float64, error) {
	hist, ok := t.histograms[field]
	if !ok {
		log.Printf("no histogram found for field %s", field)
		return 1.0, nil
	}

	switch h := hist.(type) {
	case *IntHistogram:
		v, ok := value.(IntField)
		if !ok {
			return 1.0, fmt.Errorf("field '%s' is int, but value %v is not an IntField", field, value)
		}
		return h.EstimateSelectivity(op, v.Value), nil
	case *StringHistogram:
		v, ok := value.(StringField)
		if !ok {
			return 1.0, fmt.Errorf("field is string, but value is not a StringField")
		}
		return h.EstimateSelectivity(op, v.Value), nil
	}

	return 1.0, fmt.Errorf("unexpected histogram type")
}
