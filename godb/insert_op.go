package godb

// InsertOp is a one-shot Operator (§4.5): pulling from its Iterator drains
// its child entirely, inserting every tuple into file through bufPool,
// then yields a single (INT) tuple holding the count of rows inserted,
// followed by end of stream. Grounded on the teacher's insert_op.go,
// which in the retrieved tree was an unimplemented stub.
type InsertOp struct {
	file  DBFile
	child Operator
}

// NewInsertOp constructs an InsertOp that inserts child's output tuples
// into insertFile.
func NewInsertOp(insertFile DBFile, child Operator) *InsertOp {
	return &InsertOp{file: insertFile, child: child}
}

var countDesc = TupleDesc{Fields: []FieldType{{Fname: "count", Ftype: IntType}}}

// Descriptor implements Operator: a single INT field named "count".
func (i *InsertOp) Descriptor() *TupleDesc {
	return &countDesc
}

// Iterator implements Operator: drains child, inserting each tuple via
// HeapFile.insertTuple, then yields the count tuple once.
func (iop *InsertOp) Iterator(tid TransactionId) (func() (*Tuple, error), error) {
	childIter, err := iop.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	hf, ok := iop.file.(*HeapFile)
	if !ok {
		return nil, NewGoDBError(IncompatibleTypesError, "insert target is not a heap file")
	}

	done := false
	return func() (*Tuple, error) {
		if done {
			return nil, nil
		}
		done = true

		var count int64
		for {
			t, err := childIter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				break
			}
			if err := hf.insertTuple(t, tid); err != nil {
				return nil, err
			}
			count++
		}
		return &Tuple{Desc: countDesc, Fields: []DBValue{IntField{Value: count}}}, nil
	}, nil
}
