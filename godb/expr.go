package godb

// expr.go reconstructs the minimal expression-evaluation layer the
// teacher's filter_op.go/order_by_op.go reference (Expr, BoolOp) but that
// was not part of the retrieved teacher sources (it belongs to a later lab
// than the one this tree implements). Kept deliberately small: a field
// reference, a constant, and the six comparison operators — just enough
// to drive Filter and OrderBy (§ SPEC_FULL.md C7/C9).

// BoolOp is a comparison operator usable in a predicate.
type BoolOp int

const (
	OpEq BoolOp = iota
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
)

func evalIntPred(a, b int64, op BoolOp) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNeq:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	default:
		return false
	}
}

func evalStringPred(a, b string, op BoolOp) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNeq:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	default:
		return false
	}
}

// Expr evaluates to a DBValue given an input tuple.
type Expr interface {
	EvalExpr(t *Tuple) (DBValue, error)
	GetExprType() FieldType
}

// FieldExpr extracts one named field from the input tuple.
type FieldExpr struct {
	Field FieldType
}

// EvalExpr implements Expr for FieldExpr.
func (e *FieldExpr) EvalExpr(t *Tuple) (DBValue, error) {
	idx, err := t.Desc.findFieldByName(e.Field.Fname)
	if err != nil {
		return nil, err
	}
	return t.Fields[idx], nil
}

// GetExprType implements Expr for FieldExpr.
func (e *FieldExpr) GetExprType() FieldType {
	return e.Field
}

// ConstExpr evaluates to a fixed value regardless of the input tuple.
type ConstExpr struct {
	Value DBValue
	Type  DBType
}

// EvalExpr implements Expr for ConstExpr.
func (e *ConstExpr) EvalExpr(t *Tuple) (DBValue, error) {
	return e.Value, nil
}

// GetExprType implements Expr for ConstExpr.
func (e *ConstExpr) GetExprType() FieldType {
	return FieldType{Fname: "", Ftype: e.Type}
}
