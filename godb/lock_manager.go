package godb

import "sync"

// lock_manager.go implements §4.2: page-granular strict two-phase locking
// with waits-for-graph deadlock detection. No lock manager exists in the
// teacher tree (its buffer_pool.go says "you will not need to worry about
// this until lab3" and never implements one); this is built fresh against
// spec.md, borrowing the waits-for-graph + cycle-detection idiom from
// josephinelee1234-GoDB/godb-2024/godb/buffer_pool.go's hasCycle (there,
// a busy-polling DFS inside the buffer pool itself) but restructured as a
// standalone component with its own mutex and per-page condition
// variables, per §9's layering note: "LockManager is a leaf that exposes
// only primitive operations" and the BufferPool is the only caller.

type lockState struct {
	cond      *sync.Cond
	readers   map[TransactionId]bool
	writer    TransactionId
	hasWriter bool
}

func newLockState(mu *sync.Mutex) *lockState {
	return &lockState{
		cond:    sync.NewCond(mu),
		readers: make(map[TransactionId]bool),
	}
}

// LockManager grants shared/exclusive locks on PageIds to transactions,
// maintaining a waits-for graph for deadlock detection (§4.2.1).
type LockManager struct {
	mu        sync.Mutex
	pages     map[PageId]*lockState
	waitsFor  map[TransactionId]map[TransactionId]bool // waiter -> set of holders blocking it
	heldPages map[TransactionId]map[PageId]bool
}

// NewLockManager constructs an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{
		pages:     make(map[PageId]*lockState),
		waitsFor:  make(map[TransactionId]map[TransactionId]bool),
		heldPages: make(map[TransactionId]map[PageId]bool),
	}
}

func (lm *LockManager) stateFor(pid PageId) *lockState {
	st, ok := lm.pages[pid]
	if !ok {
		st = newLockState(&lm.mu)
		lm.pages[pid] = st
	}
	return st
}

func (lm *LockManager) recordHeld(tid TransactionId, pid PageId) {
	if lm.heldPages[tid] == nil {
		lm.heldPages[tid] = make(map[PageId]bool)
	}
	lm.heldPages[tid][pid] = true
}

func (lm *LockManager) forgetHeld(tid TransactionId, pid PageId) {
	if held, ok := lm.heldPages[tid]; ok {
		delete(held, pid)
		if len(held) == 0 {
			delete(lm.heldPages, tid)
		}
	}
}

// holdersExcept returns the set of transactions currently holding any lock on
// pid, other than tid itself. Must be called with lm.mu held.
func (st *lockState) holdersExcept(tid TransactionId) []TransactionId {
	var out []TransactionId
	if st.hasWriter && st.writer != tid {
		out = append(out, st.writer)
	}
	for r := range st.readers {
		if r != tid {
			out = append(out, r)
		}
	}
	return out
}

// hasCycleFrom reports whether, starting a DFS from tid along the
// waits-for graph, any node is revisited -- i.e., tid is part of a cycle.
// Must be called with lm.mu held. O(V+E) per call, per §4.2.1.
func (lm *LockManager) hasCycleFrom(tid TransactionId) bool {
	visited := make(map[TransactionId]bool)
	var dfs func(TransactionId) bool
	dfs = func(cur TransactionId) bool {
		if cur == tid && visited[cur] {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		for next := range lm.waitsFor[cur] {
			if next == tid {
				return true
			}
			if dfs(next) {
				return true
			}
		}
		return false
	}
	for next := range lm.waitsFor[tid] {
		if next == tid || dfs(next) {
			return true
		}
	}
	return false
}

func (lm *LockManager) addWaitEdges(tid TransactionId, holders []TransactionId) {
	if lm.waitsFor[tid] == nil {
		lm.waitsFor[tid] = make(map[TransactionId]bool)
	}
	for _, h := range holders {
		lm.waitsFor[tid][h] = true
	}
}

func (lm *LockManager) clearWaitEdges(tid TransactionId) {
	delete(lm.waitsFor, tid)
}

// AcquireRead blocks until tid holds a shared (or exclusive) lock on pid,
// or returns a TxnAbortedError if granting the request would deadlock.
func (lm *LockManager) AcquireRead(tid TransactionId, pid PageId) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	st := lm.stateFor(pid)
	if st.readers[tid] || (st.hasWriter && st.writer == tid) {
		return nil
	}

	for st.hasWriter && st.writer != tid {
		lm.addWaitEdges(tid, []TransactionId{st.writer})
		if lm.hasCycleFrom(tid) {
			lm.clearWaitEdges(tid)
			return NewGoDBError(TxnAbortedError, "deadlock detected acquiring read lock")
		}
		st.cond.Wait()
		lm.clearWaitEdges(tid)
	}

	st.readers[tid] = true
	lm.recordHeld(tid, pid)
	return nil
}

// AcquireWrite blocks until tid holds the exclusive lock on pid (upgrading
// in place if tid is the sole shared holder), or returns a
// TxnAbortedError if granting the request would deadlock.
func (lm *LockManager) AcquireWrite(tid TransactionId, pid PageId) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	st := lm.stateFor(pid)
	if st.hasWriter && st.writer == tid {
		return nil
	}

	for {
		others := st.holdersExcept(tid)
		if len(others) == 0 {
			break
		}
		lm.addWaitEdges(tid, others)
		if lm.hasCycleFrom(tid) {
			lm.clearWaitEdges(tid)
			return NewGoDBError(TxnAbortedError, "deadlock detected acquiring write lock")
		}
		st.cond.Wait()
		lm.clearWaitEdges(tid)
	}

	delete(st.readers, tid)
	st.hasWriter = true
	st.writer = tid
	lm.recordHeld(tid, pid)
	return nil
}

// Release drops tid's lock (of either mode) on pid and wakes waiters.
func (lm *LockManager) Release(tid TransactionId, pid PageId) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.releaseLocked(tid, pid)
}

func (lm *LockManager) releaseLocked(tid TransactionId, pid PageId) {
	st, ok := lm.pages[pid]
	if !ok {
		return
	}
	delete(st.readers, tid)
	if st.hasWriter && st.writer == tid {
		st.hasWriter = false
		st.writer = TransactionId{}
	}
	lm.forgetHeld(tid, pid)
	st.cond.Broadcast()
}

// ReleaseAll releases every page held by tid.
func (lm *LockManager) ReleaseAll(tid TransactionId) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	held := lm.heldPages[tid]
	pids := make([]PageId, 0, len(held))
	for pid := range held {
		pids = append(pids, pid)
	}
	for _, pid := range pids {
		lm.releaseLocked(tid, pid)
	}
	delete(lm.waitsFor, tid)
}

// Holds reports whether tid currently holds any lock on pid.
func (lm *LockManager) Holds(tid TransactionId, pid PageId) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	st, ok := lm.pages[pid]
	if !ok {
		return false
	}
	return st.readers[tid] || (st.hasWriter && st.writer == tid)
}

// PagesHeldBy returns every page tid currently holds a lock on.
func (lm *LockManager) PagesHeldBy(tid TransactionId) []PageId {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	held := lm.heldPages[tid]
	out := make([]PageId, 0, len(held))
	for pid := range held {
		out = append(out, pid)
	}
	return out
}
