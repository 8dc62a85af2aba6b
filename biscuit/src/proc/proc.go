// Package proc supplies the minimal thread/scheduler interfaces the VM
// core relies on: blocking, priority with donation, and the
// accounting the fault path updates. It mirrors a classic teaching
// kernel's threads/thread.c — priority donation, an optional 4.4BSD
// scheduler, and a timer-tick sleep queue — pared down to what a
// single-CPU VM core needs to stay correct across preemption.
package proc

import (
	"sync"

	"accnt"
	"defs"
	"tinfo"
	"vm"
)

// / PriDefault is the priority a new thread starts at, absent
// / donation or niceness adjustment.
const PriDefault = 31

// / PriMin and PriMax bound the priority range.
const (
	PriMin = 0
	PriMax = 63
)

// Thread_t is one schedulable thread: its own address space's
// supplemental page table, its priority (with donation bookkeeping),
// its accounting, and the last user-mode stack pointer the syscall
// dispatcher stashed on entry — which HandleFault needs when a fault
// is taken from kernel mode on behalf of the current thread (§4.6
// step 4).
type Thread_t struct {
	mu sync.Mutex

	Tid  defs.Tid_t
	Spt  *vm.SPT
	Note tinfo.Tnote_t
	Acct accnt.Accnt_t

	basePriority int
	priority     int
	donors       []*Thread_t

	// LastUserRsp is the user-mode stack pointer saved by the
	// syscall entry path; the fault handler consults it when the
	// fault is taken while running in the kernel on the thread's
	// behalf (a page fault in a syscall's copy-in/copy-out).
	LastUserRsp uintptr

	blocked  bool
	waitCond *sync.Cond
}

// / MkThread creates a new thread with an empty SPT and default
// / priority.
func MkThread(tid defs.Tid_t) *Thread_t {
	t := &Thread_t{
		Tid:          tid,
		Spt:          vm.MkSPT(),
		basePriority: PriDefault,
		priority:     PriDefault,
	}
	t.waitCond = sync.NewCond(&t.mu)
	t.Note.State = tinfo.ST_RUNNABLE
	t.Note.Alive = true
	return t
}

// / Priority reports the thread's effective priority: its base unless
// / a donor has pushed it higher.
func (t *Thread_t) Priority() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.priority
}

// / DonatePriority raises t's effective priority to at least pri,
// / recording donor so ResetPriority can recompute correctly once
// / donor releases whatever t holds. Donation is nested: a thread can
// / receive donations from more than one blocked waiter.
func (t *Thread_t) DonatePriority(pri int, donor *Thread_t) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pri > t.priority {
		t.priority = pri
	}
	t.donors = append(t.donors, donor)
}

// / ResetPriority drops t back to its base priority, or to the
// / highest remaining donation if donors besides from are still
// / waiting.
func (t *Thread_t) ResetPriority(from *Thread_t) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.donors[:0]
	for _, d := range t.donors {
		if d != from {
			kept = append(kept, d)
		}
	}
	t.donors = kept
	pri := t.basePriority
	for _, d := range t.donors {
		if p := d.Priority(); p > pri {
			pri = p
		}
	}
	t.priority = pri
}

// / Block puts t to sleep until Unblock is called. vm.FSLock and
// / mem.SwapDevice_t wait on their own mutexes and do not call it.
func (t *Thread_t) Block() {
	since := t.Acct.Now()
	t.mu.Lock()
	t.blocked = true
	t.Note.State = tinfo.ST_BLOCKED
	for t.blocked {
		t.waitCond.Wait()
	}
	t.mu.Unlock()
	t.Acct.Sleep_time(since)
}

// / Blocked reports whether the thread is currently parked in Block.
func (t *Thread_t) Blocked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.blocked
}

// / Unblock wakes t if it is currently blocked.
func (t *Thread_t) Unblock() {
	t.mu.Lock()
	t.blocked = false
	t.Note.State = tinfo.ST_RUNNABLE
	t.waitCond.Broadcast()
	t.mu.Unlock()
}

// / Yield is a cooperative yield point a long-running VM operation
// / (SPT copy, SPT kill) can call between budget-charged steps so a
// / higher-priority thread preempts promptly even though this core
// / has no real timer interrupt.
func (t *Thread_t) Yield() {
	// runtime.Gosched stands in for a voluntary reschedule; a real
	// kernel would instead check for a pending timer tick.
	goYield()
}
