package godb

import "fmt"

// aggregator.go implements §4.4: hash-grouped aggregation over a child
// Operator. Grounded on the teacher's aggregator.go (lab1_solution),
// generalized to enforce the STRING+non-COUNT restriction at construction
// time and to defer AVG's division to emit time (§9 bug (b): an AVG that
// only ever sums and never divides; here each group keeps (sum, count)
// and divides once, when its result tuple is emitted).

// AggOp is one of the five supported aggregate operators.
type AggOp int

const (
	MinOp AggOp = iota
	MaxOp
	SumOp
	AvgOp
	CountOp
)

func (op AggOp) String() string {
	switch op {
	case MinOp:
		return "min"
	case MaxOp:
		return "max"
	case SumOp:
		return "sum"
	case AvgOp:
		return "avg"
	case CountOp:
		return "count"
	default:
		return "unknown"
	}
}

// NoGrouping is the groupField sentinel index meaning "aggregate the
// whole input into a single group" (§4.4).
const NoGrouping = -1

// avgState retains the running sum and count of an AVG group so the
// division happens exactly once, at emit time, against the full group --
// not at each merge step.
type avgState struct {
	sum   int64
	count int64
}

func (a *avgState) value() int64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / a.count
}

// groupState accumulates one group's running aggregate value.
type groupState struct {
	initialized bool
	intVal      int64
	avg         avgState
	count       int64
}

func (g *groupState) merge(op AggOp, v DBValue) error {
	switch op {
	case CountOp:
		g.count++
		return nil
	}

	iv, ok := v.(IntField)
	if !ok {
		return NewGoDBError(TypeMismatchError, "non-COUNT aggregate applied to a non-INT field")
	}

	switch op {
	case MinOp:
		if !g.initialized || iv.Value < g.intVal {
			g.intVal = iv.Value
		}
	case MaxOp:
		if !g.initialized || iv.Value > g.intVal {
			g.intVal = iv.Value
		}
	case SumOp:
		g.intVal += iv.Value
	case AvgOp:
		g.avg.sum += iv.Value
		g.avg.count++
	default:
		return NewGoDBError(IllegalArgumentError, "unknown aggregate operator")
	}
	g.initialized = true
	return nil
}

func (g *groupState) result(op AggOp) int64 {
	switch op {
	case CountOp:
		return g.count
	case AvgOp:
		return g.avg.value()
	default:
		return g.intVal
	}
}

// Aggregator computes one aggregate operator over groups of its child's
// output, identified by groupField (or the whole input, if groupField is
// NoGrouping). Groups are emitted in first-insertion order (§4.4): the
// order each distinct group key is first seen while scanning the child.
type Aggregator struct {
	child      Operator
	groupField int // index into child's TupleDesc, or NoGrouping
	aggField   int // index into child's TupleDesc
	op         AggOp
	outDesc    TupleDesc
}

// NewAggregator constructs an Aggregator. Returns an IllegalArgumentError
// if op is anything but CountOp and the aggregated field's type is
// STRING (§4.4: "STRING fields may only be COUNTed").
func NewAggregator(child Operator, groupField int, aggField int, op AggOp) (*Aggregator, error) {
	childDesc := child.Descriptor()
	if aggField < 0 || aggField >= len(childDesc.Fields) {
		return nil, NewGoDBError(IllegalArgumentError, "aggregate field index out of range")
	}
	if groupField != NoGrouping && (groupField < 0 || groupField >= len(childDesc.Fields)) {
		return nil, NewGoDBError(IllegalArgumentError, "group field index out of range")
	}
	if childDesc.Fields[aggField].Ftype == StringType && op != CountOp {
		return nil, NewGoDBError(IllegalArgumentError, "only COUNT may be applied to a STRING field")
	}

	aggName := fmt.Sprintf("%s (%s)", op, childDesc.Fields[aggField].Fname)
	var fields []FieldType
	if groupField != NoGrouping {
		fields = append(fields, childDesc.Fields[groupField])
	}
	fields = append(fields, FieldType{Fname: aggName, Ftype: IntType})

	return &Aggregator{
		child:      child,
		groupField: groupField,
		aggField:   aggField,
		op:         op,
		outDesc:    TupleDesc{Fields: fields},
	}, nil
}

// Descriptor implements Operator.
func (a *Aggregator) Descriptor() *TupleDesc {
	return &a.outDesc
}

// Iterator implements Operator: drains the child entirely before it
// returns, builds the group table, then the returned function yields one
// tuple per group in first-insertion order.
func (a *Aggregator) Iterator(tid TransactionId) (func() (*Tuple, error), error) {
	childIter, err := a.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	var order []any
	groups := make(map[any]*groupState)

	for {
		t, err := childIter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}

		var key any = struct{}{}
		if a.groupField != NoGrouping {
			key = t.Fields[a.groupField]
		}
		g, ok := groups[key]
		if !ok {
			g = &groupState{}
			groups[key] = g
			order = append(order, key)
		}
		if err := g.merge(a.op, t.Fields[a.aggField]); err != nil {
			return nil, err
		}
	}

	i := 0
	return func() (*Tuple, error) {
		if i >= len(order) {
			return nil, nil
		}
		key := order[i]
		g := groups[key]
		i++

		var fields []DBValue
		if a.groupField != NoGrouping {
			fields = append(fields, key.(DBValue))
		}
		fields = append(fields, IntField{Value: g.result(a.op)})
		return &Tuple{Desc: a.outDesc, Fields: fields}, nil
	}, nil
}
