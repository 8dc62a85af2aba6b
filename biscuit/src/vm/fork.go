package vm

import (
	"bounds"
	"mem"
	"res"
)

// / Copy implements spt_copy (§4.7): duplicate every entry of src into
// / dst, preserving laziness for uninit pages, eagerly materializing
// / and copying anon pages (no copy-on-write in this core), and
// / sharing the resident frame directly for file-backed pages. srcPT
// / is the parent's page table, consulted if an anon page must be
// / claimed back in because it was evicted before fork; dstPT is the
// / child's page table, used to install every child mapping. Any
// / failure aborts and returns false; the caller tears down the
// / partial child SPT via Kill.
func Copy(dst *SPT, src *SPT, srcPT PageTable, dstPT PageTable, ft *FrameTable, sd *mem.SwapDevice_t) bool {
	ok := true
	src.tbl.Iter(func(e interface{}) {
		if !ok {
			return
		}
		if !res.Resadd_noblock(bounds.Bounds(bounds.B_SPT_COPY)) {
			ok = false
			return
		}
		srcPage := e.(*Page)
		if !copyOne(dst, srcPage, srcPT, dstPT, ft, sd) {
			ok = false
		}
	})
	return ok
}

func copyOne(dst *SPT, srcPage *Page, srcPT PageTable, dstPT PageTable, ft *FrameTable, sd *mem.SwapDevice_t) bool {
	switch op := srcPage.ops.(type) {
	case *UninitPage:
		// Laziness is preserved: the child gets its own uninit
		// record targeting the same kind with the same aux. aux
		// here is either nil (anon and stack pages) or a
		// *FileLoadAux (ints and an interface value, no slice/map
		// the parent could mutate out from under the child), so a
		// shallow copy of the latter is a deep-enough copy.
		auxCopy := op.aux
		if fa, isFile := op.aux.(*FileLoadAux); isFile {
			clone := *fa
			auxCopy = &clone
		}
		child := &Page{
			Va:       srcPage.Va,
			Writable: srcPage.Writable,
			ops:      NewUninit(op.target, auxCopy),
		}
		return dst.Insert(child)

	case *AnonPage:
		// Ensure the parent is resident so there is something to
		// copy. A page evicted before fork (entirely reachable, not
		// the unrecoverable-exhaustion case panic is reserved for) is
		// claimed back into the parent first; per §4.7, failure here
		// aborts the whole copy rather than crashing the process.
		if srcPage.Frame == nil {
			if err := ClaimPage(srcPage, ft, srcPT, sd); err != 0 {
				return false
			}
		}
		// Snapshot the parent's contents first: claiming the child's
		// frame may evict the parent's page.
		snap := make([]byte, mem.PGSIZE)
		copy(snap, ft.Bytes(srcPage.Frame))
		child := &Page{
			Va:       srcPage.Va,
			Writable: srcPage.Writable,
			ops:      &AnonPage{slot: mem.NoSlot},
		}
		if !dst.Insert(child) {
			return false
		}
		if err := ClaimPage(child, ft, dstPT, sd); err != 0 {
			return false
		}
		copy(ft.Bytes(child.Frame), snap)
		return true

	case *FilePage:
		// Shared, not reference-counted: the same physical frame is
		// re-installed into the child's page table. This mirrors the
		// source behavior the specification calls out as a likely
		// bug rather than fixing it — fixing it would mean either
		// reference-counting frames or always re-reading from the
		// file, both explicitly left as an open rewrite choice.
		child := &Page{
			Va:       srcPage.Va,
			Writable: srcPage.Writable,
			ops: &FilePage{
				file:      op.file,
				offset:    op.offset,
				readBytes: op.readBytes,
				zeroBytes: op.zeroBytes,
				writable:  op.writable,
			},
		}
		if !dst.Insert(child) {
			return false
		}
		if srcPage.Frame != nil {
			child.Frame = srcPage.Frame
			if !dstPT.SetPage(child.Va, child.Frame.Kva, child.Writable) {
				return false
			}
		}
		return true

	default:
		return false
	}
}
