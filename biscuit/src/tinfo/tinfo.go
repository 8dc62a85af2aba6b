// Package tinfo tracks per-thread liveness and scheduling state,
// independent of any particular scheduler implementation.
package tinfo

import (
	"sync"

	"defs"
)

// / State_t is a thread's coarse scheduling state.
type State_t int

const (
	ST_RUNNABLE State_t = iota
	ST_BLOCKED
	ST_DEAD
)

// / Tnote_t stores per-thread state a scheduler consults to decide
// / whether a thread may still be scheduled or is winding down.
type Tnote_t struct {
	State    State_t
	Alive    bool
	Killed   bool
	Isdoomed bool

	// protects Killed, Killnaps.Cond and Kerr, and is a leaf lock
	sync.Mutex
	Killnaps struct {
		Killch chan bool
		Cond   *sync.Cond
		Kerr   defs.Err_t
	}
}

// / Doomed reports whether the thread is marked as doomed.
func (t *Tnote_t) Doomed() bool {
	return t.Isdoomed
}

// / Threadinfo_t tracks every thread note in the system, keyed by tid.
type Threadinfo_t struct {
	Notes map[defs.Tid_t]*Tnote_t
	sync.Mutex
}

// / Init initializes the thread info map.
func (t *Threadinfo_t) Init() {
	t.Notes = make(map[defs.Tid_t]*Tnote_t)
}

// / Add registers note under tid.
func (t *Threadinfo_t) Add(tid defs.Tid_t, note *Tnote_t) {
	t.Lock()
	defer t.Unlock()
	t.Notes[tid] = note
}

// / Remove unregisters tid.
func (t *Threadinfo_t) Remove(tid defs.Tid_t) {
	t.Lock()
	defer t.Unlock()
	delete(t.Notes, tid)
}

// / Get returns tid's note, or nil if it is not registered.
func (t *Threadinfo_t) Get(tid defs.Tid_t) *Tnote_t {
	t.Lock()
	defer t.Unlock()
	return t.Notes[tid]
}
