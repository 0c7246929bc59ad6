package godb

import (
	"bytes"
	"testing"
)

func intTd(names ...string) *TupleDesc {
	types := make([]DBType, len(names))
	for i := range types {
		types[i] = IntType
	}
	return NewTupleDesc(names, types)
}

func TestTupleRoundTrip(t *testing.T) {
	td := NewTupleDesc([]string{"a", "b"}, []DBType{IntType, StringType})
	tup := &Tuple{Desc: *td, Fields: []DBValue{IntField{Value: 42}, StringField{Value: "hello"}}}

	var buf bytes.Buffer
	if err := tup.writeTo(&buf); err != nil {
		t.Fatalf("writeTo: %v", err)
	}

	got, err := readTupleFrom(&buf, td)
	if err != nil {
		t.Fatalf("readTupleFrom: %v", err)
	}
	if !got.equals(tup) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, tup)
	}
}

func TestTupleDescEqualsIgnoresNames(t *testing.T) {
	d1 := NewTupleDesc([]string{"a"}, []DBType{IntType})
	d2 := NewTupleDesc([]string{"x"}, []DBType{IntType})
	if !d1.Equals(d2) {
		t.Fatalf("expected structural equality regardless of field names")
	}
	d3 := NewTupleDesc([]string{"a"}, []DBType{StringType})
	if d1.Equals(d3) {
		t.Fatalf("expected types to differ")
	}
}

func TestStringFieldTruncatesOnWrite(t *testing.T) {
	SetStringLength(4)
	defer ResetStringLength()

	td := NewTupleDesc([]string{"s"}, []DBType{StringType})
	tup := &Tuple{Desc: *td, Fields: []DBValue{StringField{Value: "hello"}}}

	var buf bytes.Buffer
	if err := tup.writeTo(&buf); err != nil {
		t.Fatalf("writeTo: %v", err)
	}
	if buf.Len() != 4 {
		t.Fatalf("expected %d encoded bytes, got %d", 4, buf.Len())
	}
}
