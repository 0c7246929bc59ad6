package godb

import "testing"

func TestBufferPoolNoStealRefusesToEvictDirtyPages(t *testing.T) {
	dir := t.TempDir()
	td := intTd("a", "b")
	bp, err := NewBufferPool(1, nil)
	if err != nil {
		t.Fatalf("NewBufferPool: %v", err)
	}
	hf, err := NewHeapFile(dir+"/t.dat", td, bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}

	tid := NewTID()
	bp.BeginTransaction(tid)
	tup := &Tuple{Desc: *td, Fields: []DBValue{IntField{1}, IntField{2}}}
	if err := hf.insertTuple(tup, tid); err != nil {
		t.Fatalf("insertTuple: %v", err)
	}

	// Page 0 is now cached and dirty. The pool only holds one page, so a
	// second page's GetPage must fail rather than evict it.
	_, err = bp.GetPage(hf, 1, tid, ReadOnly)
	if err == nil {
		t.Fatalf("expected BufferPoolFullError when all cached pages are dirty")
	}
	ge, ok := err.(GoDBError)
	if !ok || ge.Code() != BufferPoolFullError {
		t.Fatalf("expected BufferPoolFullError, got %v", err)
	}
}

func TestBufferPoolCommitFlushesThenReleasesLocks(t *testing.T) {
	dir := t.TempDir()
	td := intTd("a")
	bp, err := NewBufferPool(10, nil)
	if err != nil {
		t.Fatalf("NewBufferPool: %v", err)
	}
	hf, err := NewHeapFile(dir+"/t.dat", td, bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}

	tid := NewTID()
	bp.BeginTransaction(tid)
	tup := &Tuple{Desc: *td, Fields: []DBValue{IntField{7}}}
	if err := hf.insertTuple(tup, tid); err != nil {
		t.Fatalf("insertTuple: %v", err)
	}
	if err := bp.TransactionComplete(tid, true); err != nil {
		t.Fatalf("TransactionComplete: %v", err)
	}

	pid := PageId{TableId: hf.TableId(), PageNumber: 0}
	if bp.locks.Holds(tid, pid) {
		t.Fatalf("commit should have released all of tid's locks")
	}

	tid2 := NewTID()
	bp.BeginTransaction(tid2)
	page, err := bp.GetPage(hf, 0, tid2, ReadOnly)
	if err != nil {
		t.Fatalf("GetPage after commit: %v", err)
	}
	if page.IsDirty() {
		t.Fatalf("page should be clean after a committed flush")
	}
}

func TestBufferPoolAbortDiscardsDirtyPages(t *testing.T) {
	dir := t.TempDir()
	td := intTd("a")
	bp, err := NewBufferPool(10, nil)
	if err != nil {
		t.Fatalf("NewBufferPool: %v", err)
	}
	hf, err := NewHeapFile(dir+"/t.dat", td, bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}

	tid := NewTID()
	bp.BeginTransaction(tid)
	tup := &Tuple{Desc: *td, Fields: []DBValue{IntField{7}}}
	if err := hf.insertTuple(tup, tid); err != nil {
		t.Fatalf("insertTuple: %v", err)
	}
	if err := bp.TransactionComplete(tid, false); err != nil {
		t.Fatalf("TransactionComplete(abort): %v", err)
	}

	tid2 := NewTID()
	bp.BeginTransaction(tid2)
	it, err := hf.Iterator(tid2)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	count := 0
	for {
		tup, err := it()
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		if tup == nil {
			break
		}
		count++
	}
	if count != 0 {
		t.Fatalf("expected no rows to survive an aborted transaction, got %d", count)
	}
}
