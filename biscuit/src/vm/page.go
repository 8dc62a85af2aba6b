package vm

import (
	"bounds"
	"hashtable"
	"mem"
	"res"

	"defs"
)

// Page is the per-mapping record the SPT keys on user virtual
// address. Its behavior (swap_in/swap_out/destroy) is selected by the
// concrete type behind ops; the record's address never moves across a
// kind transition (the SPT keys by Va, not by record identity), so
// the Uninit → Anon|File transition in kinds.go can replace ops
// in-place.
type Page struct {
	elm hashtable.Elem

	Va       uintptr
	Writable bool
	Frame    *Frame

	// Dirty/Accessed are checkpointed from the hardware mapping by
	// the frame table before a swap_out, per the eviction contract:
	// the kind's SwapOut consults these rather than querying the
	// page table itself, since by the time SwapOut runs the mapping
	// has already been cleared.
	Dirty    bool
	Accessed bool

	ops pageOps
}

// / PageGetType reports p's kind — the target kind, not UNINIT, if p
// / has not yet been faulted in. Marker bits are stripped.
func PageGetType(p *Page) VmType {
	return p.ops.Type().Kind()
}

func pageHash(key interface{}) uint64 {
	switch k := key.(type) {
	case uintptr:
		return uint64(k)
	case *Page:
		return uint64(k.Va)
	}
	panic("vm: bad spt key")
}

func pageEq(key interface{}, elem interface{}) bool {
	return key.(uintptr) == elem.(*Page).Va
}

// SPT is the per-process supplemental page table: an address-keyed
// associative store from page-aligned user virtual address to page
// record.
type SPT struct {
	tbl *hashtable.Table_t
}

// / MkSPT prepares an empty supplemental page table (spt_init).
func MkSPT() *SPT {
	return &SPT{tbl: hashtable.MkTable(64, pageHash, pageEq)}
}

// / Find looks up the page covering va (spt_find_page); va need not
// / be page-aligned.
func (s *SPT) Find(va uintptr) *Page {
	aligned := mem.PageAlign(va)
	e := s.tbl.Find(aligned)
	if e == nil {
		return nil
	}
	return e.(*Page)
}

// / Insert adds p, keyed by its own (already page-aligned) Va
// / (spt_insert_page). It fails if a page with the same key already
// / exists.
func (s *SPT) Insert(p *Page) bool {
	prev := s.tbl.Insert(p.Va, p, &p.elm)
	return prev == nil
}

// / Remove deletes p from the table and destroys it (spt_remove_page).
func (s *SPT) Remove(p *Page, sd *mem.SwapDevice_t) {
	s.tbl.Delete(p.Va)
	p.ops.Destroy(p, sd)
}

// / Size reports the number of pages currently tracked.
func (s *SPT) Size() int { return s.tbl.Size() }

// / Kill destroys every page in the table (spt_kill), leaving the
// / table itself reusable. Kill always runs to completion — teardown
// / must not leak frames or swap slots even once the per-CPU budget
// / charged here is exhausted.
func (s *SPT) Kill(sd *mem.SwapDevice_t) {
	s.tbl.Clear(func(e interface{}) {
		res.Resadd_noblock(bounds.Bounds(bounds.B_SPT_KILL))
		p := e.(*Page)
		p.ops.Destroy(p, sd)
	})
}

// / NewUninitPage allocates a fresh Uninit page record targeting kind
// / at va (vm_alloc_page_with_initializer) and inserts it into s. It
// / fails with ALREADY_MAPPED if va already has an entry.
func NewUninitPage(s *SPT, target VmType, va uintptr, writable bool, aux interface{}) defs.Err_t {
	va = mem.PageAlign(va)
	p := &Page{
		Va:       va,
		Writable: writable,
		ops:      NewUninit(target, aux),
	}
	if !s.Insert(p) {
		return -defs.EEXIST
	}
	return 0
}
