package godb

import "testing"

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(t.TempDir(), 20)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return db
}

func seedPeople(t *testing.T, db *Database) *HeapFile {
	t.Helper()
	td := NewTupleDesc([]string{"name", "age"}, []DBType{StringType, IntType})
	hf, err := db.CreateTable("people", td)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	tid := NewTID()
	db.BufferPool.BeginTransaction(tid)
	rows := []struct {
		name string
		age  int64
	}{
		{"alice", 30},
		{"bob", 25},
		{"carol", 40},
	}
	for _, r := range rows {
		tup := &Tuple{Desc: *td, Fields: []DBValue{StringField{r.name}, IntField{r.age}}}
		if err := hf.insertTuple(tup, tid); err != nil {
			t.Fatalf("insertTuple: %v", err)
		}
	}
	if err := db.BufferPool.TransactionComplete(tid, true); err != nil {
		t.Fatalf("TransactionComplete: %v", err)
	}
	return hf
}

func TestParseSelectWithWhereOrderByLimit(t *testing.T) {
	db := newTestDB(t)
	seedPeople(t, db)

	op, err := Parse(db, "select name, age from people where age > 20 order by age desc limit 2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tid := NewTID()
	db.BufferPool.BeginTransaction(tid)
	it, err := op.Iterator(tid)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}

	var names []string
	for {
		tup, err := it()
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		if tup == nil {
			break
		}
		names = append(names, tup.Fields[0].(StringField).Value)
	}
	if err := db.BufferPool.TransactionComplete(tid, true); err != nil {
		t.Fatalf("TransactionComplete: %v", err)
	}

	want := []string{"carol", "alice"}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestParseSelectWithAggregate(t *testing.T) {
	db := newTestDB(t)
	seedPeople(t, db)

	op, err := Parse(db, "select count(age) from people")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tid := NewTID()
	db.BufferPool.BeginTransaction(tid)
	it, err := op.Iterator(tid)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	tup, err := it()
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if tup.Fields[0].(IntField).Value != 3 {
		t.Fatalf("expected count 3, got %d", tup.Fields[0].(IntField).Value)
	}
	if err := db.BufferPool.TransactionComplete(tid, true); err != nil {
		t.Fatalf("TransactionComplete: %v", err)
	}
}

func TestParseInsertValues(t *testing.T) {
	db := newTestDB(t)
	seedPeople(t, db)

	op, err := Parse(db, "insert into people (name, age) values ('dave', 50)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tid := NewTID()
	db.BufferPool.BeginTransaction(tid)
	it, err := op.Iterator(tid)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	tup, err := it()
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if tup.Fields[0].(IntField).Value != 1 {
		t.Fatalf("expected insert count 1, got %d", tup.Fields[0].(IntField).Value)
	}
	if err := db.BufferPool.TransactionComplete(tid, true); err != nil {
		t.Fatalf("TransactionComplete: %v", err)
	}

	// Confirm the row actually landed.
	tid2 := NewTID()
	db.BufferPool.BeginTransaction(tid2)
	countOp, err := Parse(db, "select count(age) from people")
	if err != nil {
		t.Fatalf("Parse count: %v", err)
	}
	it2, err := countOp.Iterator(tid2)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	tup2, err := it2()
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if tup2.Fields[0].(IntField).Value != 4 {
		t.Fatalf("expected 4 rows after insert, got %d", tup2.Fields[0].(IntField).Value)
	}
	if err := db.BufferPool.TransactionComplete(tid2, true); err != nil {
		t.Fatalf("TransactionComplete: %v", err)
	}
}

func TestParseDeleteWithWhere(t *testing.T) {
	db := newTestDB(t)
	seedPeople(t, db)

	op, err := Parse(db, "delete from people where age < 30")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tid := NewTID()
	db.BufferPool.BeginTransaction(tid)
	it, err := op.Iterator(tid)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	tup, err := it()
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if tup.Fields[0].(IntField).Value != 1 {
		t.Fatalf("expected delete count 1 (bob), got %d", tup.Fields[0].(IntField).Value)
	}
	if err := db.BufferPool.TransactionComplete(tid, true); err != nil {
		t.Fatalf("TransactionComplete: %v", err)
	}
}

func TestParseRejectsUnsupportedStatement(t *testing.T) {
	db := newTestDB(t)
	seedPeople(t, db)

	if _, err := Parse(db, "create table foo (a int)"); err == nil {
		t.Fatalf("expected CREATE TABLE to be rejected")
	}
}
