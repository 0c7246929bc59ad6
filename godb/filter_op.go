package godb

// Filter is an Operator that passes through only its child's tuples
// satisfying left <op> right. Grounded on the teacher's filter_op.go,
// ported to the Expr/BoolOp types in expr.go and TransactionId.
type Filter struct {
	op    BoolOp
	left  Expr
	right Expr
	child Operator
}

// NewFilter constructs a Filter comparing left against right with op,
// over child's output.
func NewFilter(left Expr, op BoolOp, right Expr, child Operator) (*Filter, error) {
	return &Filter{op: op, left: left, right: right, child: child}, nil
}

// Descriptor implements Operator: unchanged from the child.
func (f *Filter) Descriptor() *TupleDesc {
	return f.child.Descriptor()
}

// Iterator implements Operator: yields only child tuples whose left/right
// expressions satisfy the predicate.
func (f *Filter) Iterator(tid TransactionId) (func() (*Tuple, error), error) {
	childIter, err := f.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	return func() (*Tuple, error) {
		for {
			tuple, err := childIter()
			if err != nil {
				return nil, err
			}
			if tuple == nil {
				return nil, nil
			}

			leftVal, err := f.left.EvalExpr(tuple)
			if err != nil {
				return nil, err
			}
			rightVal, err := f.right.EvalExpr(tuple)
			if err != nil {
				return nil, err
			}

			if leftVal.EvalPred(rightVal, f.op) {
				return tuple, nil
			}
		}
	}, nil
}
