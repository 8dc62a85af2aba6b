// Package res tracks a small per-CPU heap budget that bounds otherwise
// unbounded kernel loops (copying a user buffer, walking an SPT, evicting
// frames). Every iteration of such a loop must call Resadd_noblock before
// doing work; once the budget is exhausted the call fails instead of the
// kernel looping forever or exhausting heap on a hostile request.
package res

import (
	"sync"
	"sync/atomic"

	"bounds"
)

// / perCPUBudget is restored only by an explicit Refill call; it is
// / intentionally small relative to physical memory so a runaway loop
// / is noticed quickly in testing.
const perCPUBudget = 1 << 20

var (
	mu       sync.Mutex
	remain   int64 = perCPUBudget
	lifetime [32]int64
)

// / Resadd_noblock charges one unit of heap budget to the named bound.
// / It returns false if the budget is exhausted, in which case the
// / caller must fail with ENOHEAP rather than spin.
func Resadd_noblock(b bounds.Bound_t) bool {
	if atomic.AddInt64(&remain, -1) < 0 {
		atomic.AddInt64(&remain, 1)
		return false
	}
	mu.Lock()
	if int(b) < len(lifetime) {
		lifetime[b]++
	}
	mu.Unlock()
	return true
}

// / Refill restores the per-CPU budget to its full size. Nothing in
// / this tree calls it periodically; without a call, the budget
// / charged by every bounded loop only ever shrinks.
func Refill() {
	atomic.StoreInt64(&remain, perCPUBudget)
}

// / Remaining reports the current budget, for tests and diagnostics.
func Remaining() int64 {
	return atomic.LoadInt64(&remain)
}
