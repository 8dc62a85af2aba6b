package vm

import (
	"defs"
	"mem"
	"testing"
)

type memFile struct {
	data []byte
}

func (f *memFile) ReadAt(buf []byte, off int64) (int, defs.Err_t) {
	n := copy(buf, f.data[off:])
	return n, 0
}

func (f *memFile) WriteAt(buf []byte, off int64) (int, defs.Err_t) {
	for int(off)+len(buf) > len(f.data) {
		f.data = append(f.data, 0)
	}
	n := copy(f.data[off:], buf)
	return n, 0
}

func mkEnv(npages int) (*FrameTable, *mem.SwapDevice_t, *FakePageTable) {
	pool := mem.MkUserPool(npages)
	sd := mem.MkSwapDevice()
	pt := MkFakePageTable()
	ft := MkFrameTable(pool, sd, pt, MkFSLock(), npages)
	return ft, sd, pt
}

func TestFileBackedFirstFaultReadsContent(t *testing.T) {
	ft, sd, pt := mkEnv(4)
	spt := MkSPT()

	file := &memFile{data: []byte("hello world, more than ten bytes")}
	aux := &FileLoadAux{File: file, Offset: 0, ReadBytes: 11, ZeroBytes: mem.PGSIZE - 11}
	if err := NewUninitPage(spt, FILE, 0x400000, false, aux); err != 0 {
		t.Fatalf("alloc failed: %v", err)
	}

	page := spt.Find(0x400000)
	if page == nil {
		t.Fatalf("page missing before fault")
	}
	if PageGetType(page) != FILE {
		t.Fatalf("type = %v, want FILE", PageGetType(page))
	}

	err := HandleFault(spt, ft, pt, sd, 0xC0000000, FaultInfo{Addr: 0x400000, User: true, NotPresent: true})
	if err != 0 {
		t.Fatalf("fault failed: %v", err)
	}
	if page.Frame == nil {
		t.Fatalf("page should be resident after claim")
	}
	got := ft.Bytes(page.Frame)[:11]
	if string(got) != "hello world" {
		t.Fatalf("content = %q", got)
	}
}

func TestWriteToReadOnlyPageFails(t *testing.T) {
	ft, sd, pt := mkEnv(4)
	spt := MkSPT()
	NewUninitPage(spt, ANON, 0x500000, false, nil)

	err := HandleFault(spt, ft, pt, sd, 0xC0000000, FaultInfo{Addr: 0x500000, Write: true, NotPresent: true})
	if err != -defs.EACCES {
		t.Fatalf("err = %v, want EACCES", err)
	}
}

func TestNullAndKernelFaultsFail(t *testing.T) {
	ft, sd, pt := mkEnv(4)
	spt := MkSPT()

	if err := HandleFault(spt, ft, pt, sd, 0xC0000000, FaultInfo{Addr: 0, NotPresent: true}); err != -defs.EFAULT {
		t.Fatalf("null fault err = %v", err)
	}
	if err := HandleFault(spt, ft, pt, sd, 0xC0000000, FaultInfo{Addr: KernelBase + 0x1000, NotPresent: true}); err != -defs.EFAULT {
		t.Fatalf("kernel fault err = %v", err)
	}
}

func TestProtectionFaultUnsupportedCOW(t *testing.T) {
	ft, sd, pt := mkEnv(4)
	spt := MkSPT()
	NewUninitPage(spt, ANON, 0x500000, true, nil)
	err := HandleFault(spt, ft, pt, sd, 0xC0000000, FaultInfo{Addr: 0x500000, NotPresent: false})
	if err != -defs.EACCES {
		t.Fatalf("protection fault err = %v, want EACCES", err)
	}
}

func TestStackGrowthBoundary(t *testing.T) {
	ft, sd, pt := mkEnv(4)
	spt := MkSPT()
	userStack := uintptr(0xC0000000)

	// one byte inside the region: grows.
	addr := userStack - 1
	err := HandleFault(spt, ft, pt, sd, userStack, FaultInfo{Addr: addr, Rsp: addr, NotPresent: true})
	if err != 0 {
		t.Fatalf("stack growth at boundary failed: %v", err)
	}
	if spt.Find(addr) == nil {
		t.Fatalf("stack page was not installed")
	}

	// one byte outside the region: must not grow, and must fault.
	spt2 := MkSPT()
	addr2 := userStack - STACK_LIMIT - 1
	err = HandleFault(spt2, ft, pt, sd, userStack, FaultInfo{Addr: addr2, Rsp: addr2, NotPresent: true})
	if err != -defs.EFAULT {
		t.Fatalf("fault outside stack region = %v, want EFAULT", err)
	}
}

func TestEvictionRecyclesFrameAndPreservesContent(t *testing.T) {
	ft, sd, pt := mkEnv(1)
	spt := MkSPT()

	NewUninitPage(spt, ANON, 0x1000, true, nil)
	NewUninitPage(spt, ANON, 0x2000, true, nil)

	p1 := spt.Find(0x1000)
	if err := doClaimPage(p1, ft, pt, sd); err != 0 {
		t.Fatalf("claim p1: %v", err)
	}
	ft.Bytes(p1.Frame)[0] = 0xAA

	// pool has only one frame; claiming p2 must evict p1.
	p2 := spt.Find(0x2000)
	if err := doClaimPage(p2, ft, pt, sd); err != 0 {
		t.Fatalf("claim p2: %v", err)
	}
	if p1.Frame != nil {
		t.Fatalf("p1 should have been evicted")
	}

	// faulting p1 back in must restore its contents exactly.
	err := HandleFault(spt, ft, pt, sd, 0xC0000000, FaultInfo{Addr: 0x1000, NotPresent: true})
	if err != 0 {
		t.Fatalf("refault p1: %v", err)
	}
	if ft.Bytes(p1.Frame)[0] != 0xAA {
		t.Fatalf("evicted anon page did not round-trip through swap")
	}
}

func TestForkCopiesAnonWithIndependentContents(t *testing.T) {
	ft, sd, pt := mkEnv(4)
	parent := MkSPT()
	NewUninitPage(parent, ANON, 0x20000, true, nil)
	pp := parent.Find(0x20000)
	if err := doClaimPage(pp, ft, pt, sd); err != 0 {
		t.Fatalf("claim parent: %v", err)
	}
	for i := range ft.Bytes(pp.Frame) {
		ft.Bytes(pp.Frame)[i] = 0xAA
	}

	child := MkSPT()
	childPT := MkFakePageTable()
	if !Copy(child, parent, pt, childPT, ft, sd) {
		t.Fatalf("copy failed")
	}

	cp := child.Find(0x20000)
	if cp == nil {
		t.Fatalf("child missing forked page")
	}
	if cp.Frame == pp.Frame {
		t.Fatalf("anon fork must not share the parent's frame")
	}
	if ft.Bytes(cp.Frame)[0] != 0xAA {
		t.Fatalf("child contents do not match parent at fork time")
	}

	ft.Bytes(pp.Frame)[0] = 0x55
	if ft.Bytes(cp.Frame)[0] != 0xAA {
		t.Fatalf("mutating parent must not affect child")
	}
}

func TestForkSharesFileBackedFrame(t *testing.T) {
	ft, sd, pt := mkEnv(4)
	parent := MkSPT()
	file := &memFile{data: make([]byte, mem.PGSIZE)}
	aux := &FileLoadAux{File: file, Offset: 0, ReadBytes: mem.PGSIZE, ZeroBytes: 0}
	NewUninitPage(parent, FILE, 0x10000000, true, aux)
	pp := parent.Find(0x10000000)
	if err := doClaimPage(pp, ft, pt, sd); err != 0 {
		t.Fatalf("claim parent file page: %v", err)
	}

	child := MkSPT()
	childPT := MkFakePageTable()
	if !Copy(child, parent, pt, childPT, ft, sd) {
		t.Fatalf("copy failed")
	}
	cp := child.Find(0x10000000)
	if cp == nil || cp.Frame != pp.Frame {
		t.Fatalf("file-backed fork should share the parent's frame")
	}
	if kva, _, ok := childPT.GetPage(0x10000000); !ok || kva != pp.Frame.Kva {
		t.Fatalf("child page table was not installed with the shared frame")
	}
}

func TestSPTKillDestroysEveryPage(t *testing.T) {
	ft, sd, pt := mkEnv(4)
	spt := MkSPT()
	NewUninitPage(spt, ANON, 0x1000, true, nil)
	NewUninitPage(spt, ANON, 0x2000, true, nil)
	p1 := spt.Find(0x1000)
	doClaimPage(p1, ft, pt, sd)

	spt.Kill(sd)
	if !spt.tbl.Empty() {
		t.Fatalf("spt should be empty after kill")
	}
	// table remains usable.
	NewUninitPage(spt, ANON, 0x3000, true, nil)
	if spt.Size() != 1 {
		t.Fatalf("spt unusable after kill")
	}
}

func TestAlreadyMappedCollision(t *testing.T) {
	spt := MkSPT()
	if err := NewUninitPage(spt, ANON, 0x4000, true, nil); err != 0 {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := NewUninitPage(spt, ANON, 0x4000, true, nil); err != -defs.EEXIST {
		t.Fatalf("collision err = %v, want EEXIST", err)
	}
}

func TestForkClaimsEvictedAnonPageInsteadOfPanicking(t *testing.T) {
	// Two frames of headroom: enough for the fork copier to reclaim
	// the parent's evicted page and separately claim the child's own
	// frame for it. p1 is forced non-resident before fork by claiming
	// an unrelated third page once the pool is already full; the
	// clock policy's first victim is always the least-recently-bound
	// frame when nothing has its accessed bit set, so this
	// deterministically evicts p1, not p2.
	ft, sd, pt := mkEnv(2)
	parent := MkSPT()
	NewUninitPage(parent, ANON, 0x1000, true, nil)
	NewUninitPage(parent, ANON, 0x2000, true, nil)
	other := MkSPT()
	NewUninitPage(other, ANON, 0x3000, true, nil)

	p1 := parent.Find(0x1000)
	if err := doClaimPage(p1, ft, pt, sd); err != 0 {
		t.Fatalf("claim p1: %v", err)
	}
	ft.Bytes(p1.Frame)[0] = 0x42

	p2 := parent.Find(0x2000)
	if err := doClaimPage(p2, ft, pt, sd); err != 0 {
		t.Fatalf("claim p2: %v", err)
	}

	p3 := other.Find(0x3000)
	if err := doClaimPage(p3, ft, pt, sd); err != 0 {
		t.Fatalf("claim p3: %v", err)
	}
	if p1.Frame != nil {
		t.Fatalf("p1 should have been evicted to make room for p3")
	}

	child := MkSPT()
	childPT := MkFakePageTable()
	if !Copy(child, parent, pt, childPT, ft, sd) {
		t.Fatalf("copy should claim the evicted page back in, not abort")
	}

	if p1.Frame == nil {
		t.Fatalf("fork should have claimed the parent's page back in")
	}
	cp := child.Find(0x1000)
	if cp == nil || cp.Frame == nil {
		t.Fatalf("child missing the forked, reclaimed page")
	}
	if ft.Bytes(cp.Frame)[0] != 0x42 {
		t.Fatalf("reclaimed content did not survive the fork")
	}
}
