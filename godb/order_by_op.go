package godb

import "sort"

// OrderBy is a blocking Operator: it drains its child fully, sorts the
// result in memory by a list of expressions (each ascending or
// descending), then yields the sorted tuples one at a time. Grounded on
// the teacher's order_by_op.go (a sort.Interface-based multiSorter over
// its own comparator), ported to the Expr/TransactionId types here.
type OrderBy struct {
	orderBy   []Expr
	child     Operator
	ascending []bool
}

// NewOrderBy constructs an OrderBy operator sorting child's output by
// orderByFields, where ascending[i] selects ascending (true) or
// descending (false) order for orderByFields[i].
func NewOrderBy(orderByFields []Expr, child Operator, ascending []bool) (*OrderBy, error) {
	if len(orderByFields) != len(ascending) {
		return nil, NewGoDBError(IllegalArgumentError, "orderByFields and ascending must have the same length")
	}
	return &OrderBy{orderBy: orderByFields, child: child, ascending: ascending}, nil
}

// Descriptor implements Operator: unchanged from the child.
func (o *OrderBy) Descriptor() *TupleDesc {
	return o.child.Descriptor()
}

type multiSorter struct {
	data      []Tuple
	orderBy   []Expr
	ascending []bool
	err       error
}

func (ms *multiSorter) Swap(i, j int) { ms.data[i], ms.data[j] = ms.data[j], ms.data[i] }
func (ms *multiSorter) Len() int      { return len(ms.data) }

func (ms *multiSorter) Less(i, j int) bool {
	p, q := &ms.data[i], &ms.data[j]
	for k, expr := range ms.orderBy {
		pv, err := expr.EvalExpr(p)
		if err != nil {
			ms.err = err
			return false
		}
		qv, err := expr.EvalExpr(q)
		if err != nil {
			ms.err = err
			return false
		}
		if pv.EvalPred(qv, OpEq) {
			continue
		}
		lt := pv.EvalPred(qv, OpLt)
		if ms.ascending[k] {
			return lt
		}
		return !lt
	}
	return false
}

// Iterator implements Operator: blocks until the child is exhausted, sorts
// the accumulated tuples, then yields them in order.
func (o *OrderBy) Iterator(tid TransactionId) (func() (*Tuple, error), error) {
	it, err := o.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	var sorted []Tuple
	for {
		tuple, err := it()
		if err != nil {
			return nil, err
		}
		if tuple == nil {
			break
		}
		sorted = append(sorted, *tuple)
	}

	ms := &multiSorter{data: sorted, orderBy: o.orderBy, ascending: o.ascending}
	sort.Sort(ms)
	if ms.err != nil {
		return nil, ms.err
	}

	i := 0
	return func() (*Tuple, error) {
		if i >= len(sorted) {
			return nil, nil
		}
		retVal := sorted[i]
		i++
		return &retVal, nil
	}, nil
}
