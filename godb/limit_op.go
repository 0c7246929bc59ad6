package godb

// LimitOp is an Operator that passes through at most the first lim
// tuples of its child. Grounded on the teacher's limit_op.go, ported to
// TransactionId.
type LimitOp struct {
	child     Operator
	limitTups Expr
}

// NewLimitOp constructs a LimitOp yielding at most lim tuples from child.
// lim is an Expr (rather than a plain int) so it can be a ConstExpr
// produced directly from a parsed literal.
func NewLimitOp(lim Expr, child Operator) *LimitOp {
	return &LimitOp{child: child, limitTups: lim}
}

// Descriptor implements Operator: unchanged from the child.
func (l *LimitOp) Descriptor() *TupleDesc {
	return l.child.Descriptor()
}

// Iterator implements Operator.
func (l *LimitOp) Iterator(tid TransactionId) (func() (*Tuple, error), error) {
	limitVal, err := l.limitTups.EvalExpr(nil)
	if err != nil {
		return nil, err
	}
	limit, ok := limitVal.(IntField)
	if !ok {
		return nil, NewGoDBError(TypeMismatchError, "LIMIT value must be an INT")
	}

	it, err := l.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	var cnt int64
	return func() (*Tuple, error) {
		if cnt >= limit.Value {
			return nil, nil
		}
		tup, err := it()
		if err != nil {
			return nil, err
		}
		if tup == nil {
			return nil, nil
		}
		cnt++
		return tup, nil
	}, nil
}
