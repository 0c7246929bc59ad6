package godb

// Project is an Operator that evaluates a list of expressions against
// each of its child's tuples, optionally de-duplicating the results.
// Grounded on the teacher's project_op.go, ported to the Expr/TupleDesc
// types in this tree.
type Project struct {
	selectFields []Expr
	outputNames  []string
	child        Operator
	distinct     bool
	outDesc      TupleDesc
}

// NewProjectOp constructs a Project operator. selectFields and
// outputNames must be the same length; if distinct is true, duplicate
// output rows are suppressed.
func NewProjectOp(selectFields []Expr, outputNames []string, distinct bool, child Operator) (Operator, error) {
	if len(selectFields) != len(outputNames) {
		return nil, NewGoDBError(IllegalArgumentError, "selectFields and outputNames must have the same length")
	}
	fields := make([]FieldType, len(selectFields))
	for i, e := range selectFields {
		ft := e.GetExprType()
		ft.Fname = outputNames[i]
		fields[i] = ft
	}
	return &Project{
		selectFields: selectFields,
		outputNames:  outputNames,
		child:        child,
		distinct:     distinct,
		outDesc:      TupleDesc{Fields: fields},
	}, nil
}

// Descriptor implements Operator.
func (p *Project) Descriptor() *TupleDesc {
	return &p.outDesc
}

func (p *Project) project(t *Tuple) (*Tuple, error) {
	fields := make([]DBValue, len(p.selectFields))
	for i, e := range p.selectFields {
		v, err := e.EvalExpr(t)
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	return &Tuple{Desc: p.outDesc, Fields: fields}, nil
}

// Iterator implements Operator: evaluates selectFields against each child
// tuple, skipping rows already emitted when distinct is set.
func (p *Project) Iterator(tid TransactionId) (func() (*Tuple, error), error) {
	it, err := p.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	var seen []Tuple
	return func() (*Tuple, error) {
		for {
			tup, err := it()
			if err != nil {
				return nil, err
			}
			if tup == nil {
				return nil, nil
			}

			outTup, err := p.project(tup)
			if err != nil {
				return nil, err
			}

			if p.distinct {
				dup := false
				for _, s := range seen {
					if s.equals(outTup) {
						dup = true
						break
					}
				}
				if dup {
					continue
				}
				seen = append(seen, *outTup)
			}
			return outTup, nil
		}
	}, nil
}
