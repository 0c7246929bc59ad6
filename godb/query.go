package godb

import (
	"fmt"
	"strconv"

	"github.com/xwb1989/sqlparser"
)

// query.go is the SQL front end named as a collaborator by §1 ("a parser
// is assumed to exist upstream of Operator construction") but out of core
// scope for the storage/locking engine; included per SPEC_FULL.md C14 so
// the declared sqlparser dependency has somewhere real to run. It covers
// the statement shapes the operator set in this package can execute:
// SELECT (optionally with WHERE/ORDER BY/LIMIT/aggregates), INSERT ...
// VALUES, and DELETE ... WHERE. Anything richer (joins, subqueries,
// multi-table FROM) is out of scope, matching §1's Non-goals.

// Parse compiles a single SQL statement against db's catalog into an
// Operator tree ready to be iterated.
func Parse(db *Database, sql string) (Operator, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, NewGoDBError(ParseError, err.Error())
	}

	switch s := stmt.(type) {
	case *sqlparser.Select:
		return parseSelect(db, s)
	case *sqlparser.Insert:
		return parseInsert(db, s)
	case *sqlparser.Delete:
		return parseDelete(db, s)
	default:
		return nil, NewGoDBError(ParseError, fmt.Sprintf("unsupported statement type %T", stmt))
	}
}

func tableFromFrom(db *Database, from sqlparser.TableExprs) (DBFile, string, error) {
	if len(from) != 1 {
		return nil, "", NewGoDBError(ParseError, "only single-table queries are supported")
	}
	aliased, ok := from[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return nil, "", NewGoDBError(ParseError, "joins are not supported")
	}
	tableName, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		return nil, "", NewGoDBError(ParseError, "only plain table names are supported")
	}
	name := tableName.Name.String()
	f, err := db.Catalog.GetTable(name)
	return f, name, err
}

func parseSelect(db *Database, s *sqlparser.Select) (Operator, error) {
	file, _, err := tableFromFrom(db, s.From)
	if err != nil {
		return nil, err
	}

	var op Operator = file

	if s.Where != nil {
		filter, err := buildFilter(op, s.Where.Expr)
		if err != nil {
			return nil, err
		}
		op = filter
	}

	selectFields, outputNames, aggSpec, err := buildProjection(op.Descriptor(), s.SelectExprs)
	if err != nil {
		return nil, err
	}

	if aggSpec != nil {
		agg, err := NewAggregator(op, aggSpec.groupField, aggSpec.aggField, aggSpec.op)
		if err != nil {
			return nil, err
		}
		op = agg
	} else {
		proj, err := NewProjectOp(selectFields, outputNames, s.Distinct != "", op)
		if err != nil {
			return nil, err
		}
		op = proj
	}

	if len(s.OrderBy) > 0 {
		var exprs []Expr
		var asc []bool
		for _, o := range s.OrderBy {
			fe, err := fieldExprFor(op.Descriptor(), o.Expr)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, fe)
			asc = append(asc, o.Direction != sqlparser.DescScr)
		}
		ob, err := NewOrderBy(exprs, op, asc)
		if err != nil {
			return nil, err
		}
		op = ob
	}

	if s.Limit != nil && s.Limit.Rowcount != nil {
		limExpr, err := constExprFromSQL(s.Limit.Rowcount)
		if err != nil {
			return nil, err
		}
		op = NewLimitOp(limExpr, op)
	}

	return op, nil
}

func parseInsert(db *Database, s *sqlparser.Insert) (Operator, error) {
	name := s.Table.Name.String()
	file, err := db.Catalog.GetTable(name)
	if err != nil {
		return nil, err
	}
	values, ok := s.Rows.(sqlparser.Values)
	if !ok {
		return nil, NewGoDBError(ParseError, "only INSERT ... VALUES is supported")
	}

	td := file.Descriptor()
	var rows []*Tuple
	for _, row := range values {
		if len(row) != len(td.Fields) {
			return nil, NewGoDBError(ParseError, "value count does not match table schema")
		}
		fields := make([]DBValue, len(row))
		for i, expr := range row {
			v, err := sqlLiteralToValue(expr, td.Fields[i].Ftype)
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}
		rows = append(rows, &Tuple{Desc: *td, Fields: fields})
	}

	return NewInsertOp(file, &literalRowsOperator{desc: *td, rows: rows}), nil
}

func parseDelete(db *Database, s *sqlparser.Delete) (Operator, error) {
	file, _, err := tableFromFrom(db, s.TableExprs)
	if err != nil {
		return nil, err
	}

	var op Operator = file
	if s.Where != nil {
		filter, err := buildFilter(op, s.Where.Expr)
		if err != nil {
			return nil, err
		}
		op = filter
	}

	return NewDeleteOp(file, op), nil
}

// literalRowsOperator is an Operator yielding a fixed, in-memory slice of
// tuples once -- the child InsertOp pulls from for INSERT ... VALUES.
type literalRowsOperator struct {
	desc TupleDesc
	rows []*Tuple
}

func (l *literalRowsOperator) Descriptor() *TupleDesc { return &l.desc }

func (l *literalRowsOperator) Iterator(tid TransactionId) (func() (*Tuple, error), error) {
	i := 0
	return func() (*Tuple, error) {
		if i >= len(l.rows) {
			return nil, nil
		}
		t := l.rows[i]
		i++
		return t, nil
	}, nil
}

func fieldExprFor(desc *TupleDesc, expr sqlparser.Expr) (Expr, error) {
	colName, ok := expr.(*sqlparser.ColName)
	if !ok {
		return nil, NewGoDBError(ParseError, "only plain column references are supported here")
	}
	idx, err := desc.findFieldByName(colName.Name.String())
	if err != nil {
		return nil, err
	}
	return &FieldExpr{Field: desc.Fields[idx]}, nil
}

func constExprFromSQL(expr sqlparser.Expr) (Expr, error) {
	val, err := sqlLiteralToValue(expr, IntType)
	if err != nil {
		return nil, err
	}
	return &ConstExpr{Value: val, Type: IntType}, nil
}

func sqlLiteralToValue(expr sqlparser.Expr, ftype DBType) (DBValue, error) {
	sv, ok := expr.(*sqlparser.SQLVal)
	if !ok {
		return nil, NewGoDBError(ParseError, "only literal values are supported")
	}
	switch ftype {
	case StringType:
		return StringField{Value: string(sv.Val)}, nil
	default:
		n, err := strconv.ParseInt(string(sv.Val), 10, 64)
		if err != nil {
			return nil, NewGoDBError(TypeMismatchError, err.Error())
		}
		return IntField{Value: n}, nil
	}
}

func sqlOpFor(op string) (BoolOp, error) {
	switch op {
	case sqlparser.EqualStr:
		return OpEq, nil
	case sqlparser.NotEqualStr:
		return OpNeq, nil
	case sqlparser.LessThanStr:
		return OpLt, nil
	case sqlparser.LessEqualStr:
		return OpLe, nil
	case sqlparser.GreaterThanStr:
		return OpGt, nil
	case sqlparser.GreaterEqualStr:
		return OpGe, nil
	default:
		return 0, NewGoDBError(ParseError, fmt.Sprintf("unsupported comparison operator %q", op))
	}
}

func buildFilter(child Operator, expr sqlparser.Expr) (Operator, error) {
	cmp, ok := expr.(*sqlparser.ComparisonExpr)
	if !ok {
		return nil, NewGoDBError(ParseError, "only simple comparisons are supported in WHERE")
	}
	op, err := sqlOpFor(cmp.Operator)
	if err != nil {
		return nil, err
	}
	left, err := fieldExprFor(child.Descriptor(), cmp.Left)
	if err != nil {
		return nil, err
	}
	ftype := left.GetExprType().Ftype
	right, err := sqlLiteralToValue(cmp.Right, ftype)
	if err != nil {
		return nil, err
	}
	return NewFilter(left, op, &ConstExpr{Value: right, Type: ftype}, child)
}

type aggSpec struct {
	groupField int
	aggField   int
	op         AggOp
}

var sqlAggOps = map[string]AggOp{
	"min":   MinOp,
	"max":   MaxOp,
	"sum":   SumOp,
	"avg":   AvgOp,
	"count": CountOp,
}

// buildProjection inspects the select list for a single aggregate
// function call; otherwise it returns a plain field-by-field projection
// list. The first aggregate found is returned with NoGrouping and every
// other select expression is dropped: GROUP BY is not handled, so the
// aggregate always covers all input rows as one group.
func buildProjection(desc *TupleDesc, exprs sqlparser.SelectExprs) ([]Expr, []string, *aggSpec, error) {
	var selectFields []Expr
	var outputNames []string
	groupField := NoGrouping

	for _, se := range exprs {
		switch e := se.(type) {
		case *sqlparser.StarExpr:
			for _, f := range desc.Fields {
				selectFields = append(selectFields, &FieldExpr{Field: f})
				outputNames = append(outputNames, f.Fname)
			}
		case *sqlparser.AliasedExpr:
			if fc, ok := e.Expr.(*sqlparser.FuncExpr); ok {
				op, ok := sqlAggOps[fc.Name.Lowered()]
				if !ok {
					return nil, nil, nil, NewGoDBError(ParseError, fmt.Sprintf("unsupported function %s", fc.Name.String()))
				}
				if len(fc.Exprs) != 1 {
					return nil, nil, nil, NewGoDBError(ParseError, "aggregate functions take exactly one argument")
				}
				aliased, ok := fc.Exprs[0].(*sqlparser.AliasedExpr)
				if !ok {
					return nil, nil, nil, NewGoDBError(ParseError, "unsupported aggregate argument")
				}
				fe, err := fieldExprFor(desc, aliased.Expr)
				if err != nil {
					return nil, nil, nil, err
				}
				aggIdx, _ := desc.findFieldByName(fe.GetExprType().Fname)
				return nil, nil, &aggSpec{groupField: groupField, aggField: aggIdx, op: op}, nil
			}
			fe, err := fieldExprFor(desc, e.Expr)
			if err != nil {
				return nil, nil, nil, err
			}
			selectFields = append(selectFields, fe)
			name := string(e.As)
			if name == "" {
				name = fe.GetExprType().Fname
			}
			outputNames = append(outputNames, name)
		default:
			return nil, nil, nil, NewGoDBError(ParseError, "unsupported select expression")
		}
	}

	return selectFields, outputNames, nil, nil
}
