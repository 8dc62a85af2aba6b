package vm

import (
	"sync"

	"defs"
	"hashtable"
	"limits"
	"mem"
	"oommsg"
	"stats"
)

// Frame is a resident physical page, back-referencing the single page
// record currently bound to it. The frame table owns the frame; the
// page record holds only a non-owning pointer back.
type Frame struct {
	elm  hashtable.Elem
	Kva  mem.Pa_t
	Page *Page
}

func frameHash(key interface{}) uint64 {
	switch k := key.(type) {
	case mem.Pa_t:
		return uint64(k)
	case *Frame:
		return uint64(k.Kva)
	}
	panic("vm: bad frame table key")
}

func frameEq(key interface{}, elem interface{}) bool {
	return key.(mem.Pa_t) == elem.(*Frame).Kva
}

// FrameTable is the system-wide index of resident frames: it supplies
// fresh frames to the fault handler, evicting a victim via the
// pluggable policy in eviction.go when the user pool is exhausted.
// It is a shared resource; every method that reads or changes the
// table's frame index takes the table's own lock (Bytes only reads
// through the pool, under the pool's lock),
// matching the "interrupts disabled or a dedicated frame-table lock"
// discipline called for by the concurrency model (this implementation
// picks the dedicated-lock discipline).
type FrameTable struct {
	mu    sync.Mutex
	tbl   *hashtable.Table_t
	order []*Frame
	hand  int

	pool   mem.Page_i
	swap   *mem.SwapDevice_t
	pt     PageTable
	fslock *FSLock

	userframes limits.Sysatomic_t
	Faults     stats.Counter_t
	Evictions  stats.Counter_t
}

// / MkFrameTable builds a frame table drawing frames from pool,
// / swapping anonymous victims through swap, and installing/clearing
// / mappings through pt. fslock is the filesystem lock file-backed
// / pages acquire around their ReadAt/WriteAt calls (§5); it is held
// / only inside those calls, never across a GetFrame, so it never
// / inverts priority against the allocator. capacity bounds how many
// / frames the table will ever hand out, independent of pool's own
// / size, counted down through a limits.Sysatomic_t.
func MkFrameTable(pool mem.Page_i, swap *mem.SwapDevice_t, pt PageTable, fslock *FSLock, capacity int) *FrameTable {
	return &FrameTable{
		tbl:        hashtable.MkTable(64, frameHash, frameEq),
		pool:       pool,
		swap:       swap,
		pt:         pt,
		fslock:     fslock,
		userframes: limits.Sysatomic_t(capacity),
	}
}

// / GetFrame always returns a frame bound to a fresh physical page
// / (vm_get_frame). If the pool is exhausted it evicts a victim and
// / reuses its physical page; if nothing is evictable, this is an
// / unrecoverable exhaustion and the kernel panics, matching the
// / educational scope's accepted policy (§7 of the design notes this
// / core follows).
func (ft *FrameTable) GetFrame() *Frame {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if !ft.userframes.Take() {
		return ft.evictOrPanic()
	}
	kva, ok := ft.pool.Alloc()
	if !ok {
		ft.userframes.Give()
		return ft.evictOrPanic()
	}
	f := &Frame{Kva: kva}
	ft.tbl.Insert(kva, f, &f.elm)
	ft.order = append(ft.order, f)
	return f
}

// evictOrPanic must be called with ft.mu held. It evicts a victim and
// reuses its physical frame; callers that reach here have already
// failed to obtain a fresh one from the pool.
func (ft *FrameTable) evictOrPanic() *Frame {
	victim, err := ft.evictFrameLocked()
	if err != 0 {
		select {
		case oommsg.OomCh <- oommsg.Oommsg_t{Need: 1}:
		default:
		}
		panic("vm: frame pool exhausted and nothing is evictable")
	}
	ft.Evictions.Inc()
	return victim
}

// / ReleaseFrame returns an unbound frame (Page == nil) directly to
// / the pool, used to unwind a claim that failed after GetFrame but
// / before the page was successfully bound.
func (ft *FrameTable) ReleaseFrame(f *Frame) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if f.Page != nil {
		panic("vm: releasing a still-bound frame")
	}
	ft.removeLocked(f)
	ft.pool.Free(f.Kva)
	ft.userframes.Give()
}

func (ft *FrameTable) removeLocked(f *Frame) {
	ft.tbl.Delete(f.Kva)
	for i, o := range ft.order {
		if o == f {
			ft.order = append(ft.order[:i], ft.order[i+1:]...)
			if ft.hand > i {
				ft.hand--
			}
			break
		}
	}
}

// / Bytes returns the PGSIZE-byte backing store for a bound frame.
func (ft *FrameTable) Bytes(f *Frame) []byte {
	return ft.pool.Bytes(f.Kva)
}

// evictFrameLocked implements the eviction contract of §4.5: clear
// the hardware mapping, checkpoint dirty/accessed into the page
// record, invoke swap_out, then unlink victim from both its frame and
// the frame table, leaving the frame ready for rebinding. Must be
// called with ft.mu held.
func (ft *FrameTable) evictFrameLocked() (*Frame, defs.Err_t) {
	victim := ft.getVictimLocked()
	if victim == nil {
		return nil, -defs.ENOMEM
	}
	p := victim.Page

	p.Dirty = p.Dirty || ft.pt.IsDirty(p.Va)
	p.Accessed = p.Accessed || ft.pt.IsAccessed(p.Va)
	ft.pt.ClearPage(p.Va)

	if err := p.ops.SwapOut(p, ft.pool.Bytes(victim.Kva), ft.swap, ft.fslock); err != 0 {
		return nil, err
	}

	p.Frame = nil
	victim.Page = nil
	return victim, 0
}
