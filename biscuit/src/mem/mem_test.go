package mem

import "testing"

func TestUserPoolAllocFreeReuse(t *testing.T) {
	up := MkUserPool(2)
	p1, ok := up.Alloc()
	if !ok {
		t.Fatalf("alloc 1 failed")
	}
	p2, ok := up.Alloc()
	if !ok {
		t.Fatalf("alloc 2 failed")
	}
	if p1 == p2 {
		t.Fatalf("alloc returned same frame twice")
	}
	if _, ok := up.Alloc(); ok {
		t.Fatalf("alloc should fail once pool is exhausted")
	}
	up.Free(p1)
	p3, ok := up.Alloc()
	if !ok || p3 != p1 {
		t.Fatalf("alloc after free should reuse freed frame")
	}
	if up.Npages() != 2 {
		t.Fatalf("npages = %d, want 2", up.Npages())
	}
}

func TestUserPoolAllocZeroesReusedFrame(t *testing.T) {
	up := MkUserPool(1)
	p, _ := up.Alloc()
	b := up.Bytes(p)
	b[0] = 0xff
	up.Free(p)
	p2, _ := up.Alloc()
	if up.Bytes(p2)[0] != 0 {
		t.Fatalf("reused frame was not zeroed")
	}
}

func TestSwapWriteReadRoundtrip(t *testing.T) {
	sd := MkSwapDevice()
	slot := sd.Alloc()
	data := make([]byte, PGSIZE)
	data[0] = 1
	data[PGSIZE-1] = 2
	sd.WriteOut(slot, data)

	dst := make([]byte, PGSIZE)
	sd.ReadIn(slot, dst)
	if dst[0] != 1 || dst[PGSIZE-1] != 2 {
		t.Fatalf("readin did not return what was written")
	}
}

func TestSwapSlotReuseAfterFree(t *testing.T) {
	sd := MkSwapDevice()
	s1 := sd.Alloc()
	sd.Free(s1)
	s2 := sd.Alloc()
	if s1 != s2 {
		t.Fatalf("freed slot should be recycled, got %d then %d", s1, s2)
	}
}

func TestPageAlign(t *testing.T) {
	va := uintptr(0x1000 + 0x123)
	if got := PageAlign(va); got != 0x1000 {
		t.Fatalf("pagealign(%x) = %x, want 0x1000", va, got)
	}
}
