package godb

import (
	"testing"
	"time"
)

func TestLockManagerSharedLocksDontBlockEachOther(t *testing.T) {
	lm := NewLockManager()
	pid := PageId{TableId: 1, PageNumber: 0}
	t1, t2 := NewTID(), NewTID()

	if err := lm.AcquireRead(t1, pid); err != nil {
		t.Fatalf("t1 AcquireRead: %v", err)
	}
	if err := lm.AcquireRead(t2, pid); err != nil {
		t.Fatalf("t2 AcquireRead: %v", err)
	}
	if !lm.Holds(t1, pid) || !lm.Holds(t2, pid) {
		t.Fatalf("expected both transactions to hold the shared lock")
	}
}

func TestLockManagerUpgradeSoleReader(t *testing.T) {
	lm := NewLockManager()
	pid := PageId{TableId: 1, PageNumber: 0}
	tid := NewTID()

	if err := lm.AcquireRead(tid, pid); err != nil {
		t.Fatalf("AcquireRead: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- lm.AcquireWrite(tid, pid) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("AcquireWrite upgrade: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("sole-reader upgrade should not block")
	}
}

func TestLockManagerDeadlockAbortsRequester(t *testing.T) {
	lm := NewLockManager()
	pidA := PageId{TableId: 1, PageNumber: 0}
	pidB := PageId{TableId: 1, PageNumber: 1}
	t1, t2 := NewTID(), NewTID()

	if err := lm.AcquireWrite(t1, pidA); err != nil {
		t.Fatalf("t1 lock A: %v", err)
	}
	if err := lm.AcquireWrite(t2, pidB); err != nil {
		t.Fatalf("t2 lock B: %v", err)
	}

	t2Done := make(chan error, 1)
	go func() { t2Done <- lm.AcquireWrite(t2, pidA) }()

	// Give t2's request time to register as waiting on t1 before t1 tries
	// to acquire B, which would complete the cycle.
	time.Sleep(50 * time.Millisecond)

	err := lm.AcquireWrite(t1, pidB)
	if err == nil {
		t.Fatalf("expected t1's request to be aborted for deadlock")
	}
	if !IsTxnAborted(err) {
		t.Fatalf("expected TxnAbortedError, got %v", err)
	}

	lm.ReleaseAll(t1)
	select {
	case err := <-t2Done:
		if err != nil {
			t.Fatalf("t2 should now acquire A: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("t2 should have been granted A after t1's locks were released")
	}
}

func TestLockManagerReleaseAllWakesWaiters(t *testing.T) {
	lm := NewLockManager()
	pid := PageId{TableId: 1, PageNumber: 0}
	t1, t2 := NewTID(), NewTID()

	if err := lm.AcquireWrite(t1, pid); err != nil {
		t.Fatalf("t1 AcquireWrite: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- lm.AcquireWrite(t2, pid) }()
	time.Sleep(20 * time.Millisecond)

	lm.ReleaseAll(t1)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("t2 AcquireWrite: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("t2 should have been granted the lock after t1 released it")
	}
}
