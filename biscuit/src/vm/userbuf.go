package vm

import (
	"bounds"
	"defs"
	"mem"
	"res"
)

// / CheckUserWrite implements the syscall-boundary check a read/write
// / dispatcher must perform before touching a user buffer: every page
// / covering [va, va+n) must already be mapped writable in spt. The
// / original's read/write syscalls consult spt_find_page directly and
// / exit(-1) on !page->writable; this is that same check, factored so
// / any syscall handler taking a user buffer can call it up front
// / rather than discovering the violation mid-copy.
func CheckUserWrite(s *SPT, va uintptr, n int) defs.Err_t {
	if n == 0 {
		return 0
	}
	start := mem.PageAlign(va)
	end := mem.PageAlign(va+uintptr(n)-1) + uintptr(mem.PGSIZE)
	for p := start; p < end; p += uintptr(mem.PGSIZE) {
		if !res.Resadd_noblock(bounds.Bounds(bounds.B_USERBUF_T__TX)) {
			return -defs.ENOHEAP
		}
		page := s.Find(p)
		if page == nil {
			return -defs.EFAULT
		}
		if !page.Writable {
			return -defs.EACCES
		}
	}
	return 0
}

// / CheckUserRead implements the analogous check for a syscall that
// / only reads a user buffer: every page covering [va, va+n) must be
// / present in the SPT (a read from a never-mapped address is still a
// / fault the dispatcher should reject before copying).
func CheckUserRead(s *SPT, va uintptr, n int) defs.Err_t {
	if n == 0 {
		return 0
	}
	start := mem.PageAlign(va)
	end := mem.PageAlign(va+uintptr(n)-1) + uintptr(mem.PGSIZE)
	for p := start; p < end; p += uintptr(mem.PGSIZE) {
		if !res.Resadd_noblock(bounds.Bounds(bounds.B_USERBUF_T__TX)) {
			return -defs.ENOHEAP
		}
		if s.Find(p) == nil {
			return -defs.EFAULT
		}
	}
	return 0
}
