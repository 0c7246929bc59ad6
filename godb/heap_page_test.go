package godb

import (
	"bytes"
	"testing"
)

func newTestHeapFile(t *testing.T) *HeapFile {
	t.Helper()
	dir := t.TempDir()
	td := intTd("a", "b")
	bp, err := NewBufferPool(10, nil)
	if err != nil {
		t.Fatalf("NewBufferPool: %v", err)
	}
	hf, err := NewHeapFile(dir+"/t.dat", td, bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}
	return hf
}

func TestHeapPageInsertDeletePreservesSlotNumbers(t *testing.T) {
	hf := newTestHeapFile(t)
	pg, err := newHeapPage(hf.Descriptor(), 0, hf)
	if err != nil {
		t.Fatalf("newHeapPage: %v", err)
	}

	var rids []RecordId
	for i := 0; i < 3; i++ {
		tup := &Tuple{Desc: *hf.Descriptor(), Fields: []DBValue{IntField{int64(i)}, IntField{int64(i * 10)}}}
		rid, err := pg.insertTuple(tup)
		if err != nil {
			t.Fatalf("insertTuple: %v", err)
		}
		rids = append(rids, rid)
	}

	if err := pg.deleteTuple(rids[1]); err != nil {
		t.Fatalf("deleteTuple: %v", err)
	}

	buf, err := pg.ToBuffer()
	if err != nil {
		t.Fatalf("ToBuffer: %v", err)
	}

	pg2, err := newHeapPage(hf.Descriptor(), 0, hf)
	if err != nil {
		t.Fatalf("newHeapPage: %v", err)
	}
	if err := pg2.initFromBuffer(bytes.NewBuffer(buf)); err != nil {
		t.Fatalf("initFromBuffer: %v", err)
	}

	if pg2.tuples[rids[1].SlotNo] != nil {
		t.Fatalf("slot %d should be empty after delete", rids[1].SlotNo)
	}
	if pg2.tuples[rids[0].SlotNo] == nil || pg2.tuples[rids[2].SlotNo] == nil {
		t.Fatalf("surviving slots should still hold their tuples")
	}
}

func TestHeapPageRejectsBitmapMismatch(t *testing.T) {
	hf := newTestHeapFile(t)
	pg, err := newHeapPage(hf.Descriptor(), 0, hf)
	if err != nil {
		t.Fatalf("newHeapPage: %v", err)
	}

	numSlots := pg.getNumSlots()
	spareBits := bitmapBytes(numSlots)*8 - numSlots
	if spareBits == 0 {
		t.Skip("this schema/page size leaves no spare bitmap bits to corrupt")
	}

	buf, err := pg.ToBuffer()
	if err != nil {
		t.Fatalf("ToBuffer: %v", err)
	}

	// Set the bitmap's very last bit -- one past the last real slot, so it
	// can never correspond to an actual tuple -- to desync popcount(header)
	// from the number of slots initFromBuffer actually reads as occupied.
	lastByteOffset := 4 + bitmapBytes(numSlots) - 1
	buf[lastByteOffset] |= 0x80

	pg2, err := newHeapPage(hf.Descriptor(), 0, hf)
	if err != nil {
		t.Fatalf("newHeapPage: %v", err)
	}
	err = pg2.initFromBuffer(bytes.NewBuffer(buf))
	if err == nil {
		t.Fatalf("expected MalformedDataError on bitmap/slot mismatch")
	}
	if ge, ok := err.(GoDBError); !ok || ge.Code() != MalformedDataError {
		t.Fatalf("expected MalformedDataError, got %v", err)
	}
}

func TestHeapPageFullReturnsErrPageFull(t *testing.T) {
	hf := newTestHeapFile(t)
	pg, err := newHeapPage(hf.Descriptor(), 0, hf)
	if err != nil {
		t.Fatalf("newHeapPage: %v", err)
	}
	for i := 0; i < pg.getNumSlots(); i++ {
		tup := &Tuple{Desc: *hf.Descriptor(), Fields: []DBValue{IntField{int64(i)}, IntField{int64(i)}}}
		if _, err := pg.insertTuple(tup); err != nil {
			t.Fatalf("insertTuple %d: %v", i, err)
		}
	}
	extra := &Tuple{Desc: *hf.Descriptor(), Fields: []DBValue{IntField{999}, IntField{999}}}
	if _, err := pg.insertTuple(extra); err != ErrPageFull {
		t.Fatalf("expected ErrPageFull, got %v", err)
	}
}
