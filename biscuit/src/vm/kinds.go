package vm

import (
	"defs"
	"mem"
)

// pageOps is the per-kind vtable: swap_in, swap_out, destroy and the
// type tag. It plays the role the original's struct page_operations
// function-pointer table plays; Go has no sum types, so a page's
// behavior is a concrete *AnonPage/*FilePage/*UninitPage stored behind
// this interface rather than an exhaustive match on a tag.
type pageOps interface {
	Type() VmType
	// / SwapIn populates kva (exactly mem.PGSIZE bytes) with the
	// / page's contents. Called after a frame has been bound. fslock
	// / must be held around any filesystem call the kind makes.
	SwapIn(p *Page, kva []byte, sd *mem.SwapDevice_t, fslock *FSLock) defs.Err_t
	// / SwapOut preserves kva's contents before the frame is
	// / reclaimed. p.Dirty/p.Accessed have already been checkpointed
	// / from the hardware mapping by the caller. fslock must be held
	// / around any filesystem call the kind makes.
	SwapOut(p *Page, kva []byte, sd *mem.SwapDevice_t, fslock *FSLock) defs.Err_t
	// / Destroy releases kind-specific resources (an anon page's held
	// / swap slot; the other kinds hold none). Called once, on SPT
	// / removal.
	Destroy(p *Page, sd *mem.SwapDevice_t)
}

// FileLoadAux is the heap descriptor the loader and mmap hand to
// vm_alloc_page_with_initializer for FILE-targeted uninit pages: it
// stays owned by the page record until the first fault consumes it.
type FileLoadAux struct {
	File      FileHandle
	Offset    int64
	ReadBytes int
	ZeroBytes int
}

// UninitPage is the placeholder every page starts life as: it carries
// everything needed to materialize into its target kind on first
// fault, and nothing else. page_get_type on an uninit page reports
// the target kind, never UNINIT itself.
type UninitPage struct {
	target VmType
	aux    interface{}
}

// / NewUninit builds an uninit page record targeting kind, to be
// / inserted into an SPT by the caller.
func NewUninit(target VmType, aux interface{}) *UninitPage {
	return &UninitPage{target: target, aux: aux}
}

func (u *UninitPage) Type() VmType { return u.target }

func (u *UninitPage) Destroy(p *Page, sd *mem.SwapDevice_t) {}

func (u *UninitPage) SwapOut(p *Page, kva []byte, sd *mem.SwapDevice_t, fslock *FSLock) defs.Err_t {
	panic("vm: swap_out invoked on a page still in uninit state")
}

// SwapIn performs both halves of materialization described by the
// original's initializer_fn/init_fn pair in one step: it builds the
// fresh target-kind record (the transmutation) and then delegates
// content population to that record's own SwapIn, since for every
// kind here "populate kva on first bind" and "populate kva after an
// eviction round-trip" are the identical operation.
func (u *UninitPage) SwapIn(p *Page, kva []byte, sd *mem.SwapDevice_t, fslock *FSLock) defs.Err_t {
	switch u.target.Kind() {
	case ANON:
		p.ops = &AnonPage{slot: mem.NoSlot}
	case FILE:
		fa, ok := u.aux.(*FileLoadAux)
		if !ok {
			return -defs.EINVAL
		}
		p.ops = &FilePage{
			file:      fa.File,
			offset:    fa.Offset,
			readBytes: fa.ReadBytes,
			zeroBytes: fa.ZeroBytes,
			writable:  p.Writable,
		}
	default:
		return -defs.EINVAL
	}
	return p.ops.SwapIn(p, kva, sd, fslock)
}

// AnonPage is zero-initialized memory with no file backing. It round
// trips through a swap slot across eviction; the slot is unset while
// resident.
type AnonPage struct {
	slot mem.SlotID
}

func (a *AnonPage) Type() VmType { return ANON }

func (a *AnonPage) SwapIn(p *Page, kva []byte, sd *mem.SwapDevice_t, fslock *FSLock) defs.Err_t {
	if a.slot == mem.NoSlot {
		for i := range kva {
			kva[i] = 0
		}
		return 0
	}
	sd.ReadIn(a.slot, kva)
	sd.Free(a.slot)
	a.slot = mem.NoSlot
	return 0
}

func (a *AnonPage) SwapOut(p *Page, kva []byte, sd *mem.SwapDevice_t, fslock *FSLock) defs.Err_t {
	slot := sd.Alloc()
	sd.WriteOut(slot, kva)
	a.slot = slot
	return 0
}

func (a *AnonPage) Destroy(p *Page, sd *mem.SwapDevice_t) {
	if a.slot != mem.NoSlot {
		sd.Free(a.slot)
		a.slot = mem.NoSlot
	}
}

// FilePage maps a byte range of a file into a page. Dirty writable
// pages flow back to the file on eviction; clean or read-only pages
// are simply dropped and re-read from the file on the next fault.
// Destroy writes nothing back, so a dirty page removed from its SPT
// while resident does not reach the file.
type FilePage struct {
	file      FileHandle
	offset    int64
	readBytes int
	zeroBytes int
	writable  bool
}

func (f *FilePage) Type() VmType { return FILE }

func (f *FilePage) SwapIn(p *Page, kva []byte, sd *mem.SwapDevice_t, fslock *FSLock) defs.Err_t {
	if f.readBytes > 0 {
		fslock.Lock()
		n, err := f.file.ReadAt(kva[:f.readBytes], f.offset)
		fslock.Unlock()
		if err != 0 || n != f.readBytes {
			return -defs.EIO
		}
	}
	for i := f.readBytes; i < f.readBytes+f.zeroBytes; i++ {
		kva[i] = 0
	}
	return 0
}

func (f *FilePage) SwapOut(p *Page, kva []byte, sd *mem.SwapDevice_t, fslock *FSLock) defs.Err_t {
	if p.Dirty && f.writable && f.readBytes > 0 {
		fslock.Lock()
		n, err := f.file.WriteAt(kva[:f.readBytes], f.offset)
		fslock.Unlock()
		if err != 0 || n != f.readBytes {
			return -defs.EIO
		}
	}
	p.Dirty = false
	return 0
}

func (f *FilePage) Destroy(p *Page, sd *mem.SwapDevice_t) {}

// PageCachePage is the fourth kind the tag space reserves. Nothing in
// this core's loader or mmap path produces one — the original kernel
// populates the page cache from block-device reads, a path this
// specification explicitly leaves external — so it is implemented
// minimally, sharing FilePage's swap behavior, for completeness of
// page_get_type's range.
type PageCachePage struct {
	FilePage
}

func (c *PageCachePage) Type() VmType { return PAGE_CACHE }
