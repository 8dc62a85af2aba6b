package vm

import (
	"defs"
	"mem"
)

// PageTable is the hardware page-table wrapper the core consumes
// (pml4_set_page/pml4_get_page/pml4_clear_page and the dirty/accessed
// bit queries): an external collaborator, not re-specified here. The
// core never reaches into page-table internals directly.
type PageTable interface {
	// / SetPage installs va → kva with the given writable bit,
	// / reporting false if the mapping could not be installed.
	SetPage(va uintptr, kva mem.Pa_t, writable bool) bool
	// / GetPage reports the frame currently mapped at va, if any.
	GetPage(va uintptr) (kva mem.Pa_t, writable bool, ok bool)
	// / ClearPage removes any mapping at va. It is a no-op if va is
	// / unmapped.
	ClearPage(va uintptr)
	// / IsDirty reports the hardware dirty bit for va's mapping.
	IsDirty(va uintptr) bool
	// / IsAccessed reports the hardware accessed bit for va's mapping.
	IsAccessed(va uintptr) bool
	// / ClearAccessed clears the accessed bit for va's mapping, used by
	// / the clock eviction policy to give a page a second chance.
	ClearAccessed(va uintptr)
}

// FakePageTable is a hosted stand-in for the hardware page-table
// wrapper, used to run and test the fault handler and eviction policy
// without real paging hardware.
type FakePageTable struct {
	m map[uintptr]*fakePTE
}

type fakePTE struct {
	kva      mem.Pa_t
	writable bool
	dirty    bool
	accessed bool
}

// / MkFakePageTable returns an empty page table.
func MkFakePageTable() *FakePageTable {
	return &FakePageTable{m: make(map[uintptr]*fakePTE)}
}

func (f *FakePageTable) SetPage(va uintptr, kva mem.Pa_t, writable bool) bool {
	f.m[va] = &fakePTE{kva: kva, writable: writable}
	return true
}

func (f *FakePageTable) GetPage(va uintptr) (mem.Pa_t, bool, bool) {
	p, ok := f.m[va]
	if !ok {
		return 0, false, false
	}
	return p.kva, p.writable, true
}

func (f *FakePageTable) ClearPage(va uintptr) {
	delete(f.m, va)
}

func (f *FakePageTable) IsDirty(va uintptr) bool {
	p, ok := f.m[va]
	return ok && p.dirty
}

func (f *FakePageTable) IsAccessed(va uintptr) bool {
	p, ok := f.m[va]
	return ok && p.accessed
}

func (f *FakePageTable) ClearAccessed(va uintptr) {
	if p, ok := f.m[va]; ok {
		p.accessed = false
	}
}

// / MarkDirty is a test/simulation hook standing in for a user-mode
// / store instruction setting the hardware dirty bit.
func (f *FakePageTable) MarkDirty(va uintptr) {
	if p, ok := f.m[va]; ok {
		p.dirty = true
	}
}

// / MarkAccessed is a test/simulation hook standing in for a user-mode
// / load or store setting the hardware accessed bit.
func (f *FakePageTable) MarkAccessed(va uintptr) {
	if p, ok := f.m[va]; ok {
		p.accessed = true
	}
}

// FileHandle is the slice of the filesystem's file object that
// file-backed pages need: positioned reads and writes. The filesystem
// itself (opens, directories, inodes) is an external collaborator;
// this is the narrow interface the VM core calls through.
type FileHandle interface {
	ReadAt(buf []byte, off int64) (n int, err defs.Err_t)
	WriteAt(buf []byte, off int64) (n int, err defs.Err_t)
}
