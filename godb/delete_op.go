package godb

// DeleteOp is a one-shot Operator (§4.5): pulling from its Iterator drains
// its child entirely, deleting every tuple from file, then yields a
// single (INT) tuple holding the count of rows deleted, followed by end
// of stream. Grounded on the teacher's delete_op.go, which in the
// retrieved tree was an unimplemented stub.
type DeleteOp struct {
	file  DBFile
	child Operator
}

// NewDeleteOp constructs a DeleteOp that deletes child's output tuples
// from deleteFile.
func NewDeleteOp(deleteFile DBFile, child Operator) *DeleteOp {
	return &DeleteOp{file: deleteFile, child: child}
}

// Descriptor implements Operator: a single INT field named "count".
func (d *DeleteOp) Descriptor() *TupleDesc {
	return &countDesc
}

// Iterator implements Operator: drains child, deleting each tuple via
// HeapFile.deleteTuple, then yields the count tuple once.
func (dop *DeleteOp) Iterator(tid TransactionId) (func() (*Tuple, error), error) {
	childIter, err := dop.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	hf, ok := dop.file.(*HeapFile)
	if !ok {
		return nil, NewGoDBError(IncompatibleTypesError, "delete target is not a heap file")
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
			if err := hf.deleteTuple(t, tid); err != nil {
				return nil, err
			}
			count++
		}
		return &Tuple{Desc: countDesc, Fields: []DBValue{IntField{Value: count}}}, nil
	}, nil
}
