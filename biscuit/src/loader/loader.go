// Package loader is the user-program loader's slice that touches the
// VM core: iterating a program's loadable segments and installing
// each page as an Uninit/FILE page carrying a lazy_load_segment-style
// descriptor, per the loader contract external interfaces describe.
// ELF parsing, section headers, and everything else a real loader
// does are outside this package's concern.
package loader

import (
	"defs"
	"mem"
	"vm"
)

// / Segment describes one loadable ELF segment in enough detail to
// / populate the SPT: the virtual range it covers, whether it is
// / writable, and where in the file its initialized bytes come from.
// / LoadSegment splits FileBytes into per-page ReadBytes/ZeroBytes
// / pairs that each sum to mem.PGSIZE.
type Segment struct {
	Va        uintptr
	Writable  bool
	File      vm.FileHandle
	FileOfs   int64
	FileBytes int
}

// / LoadSegment installs seg into spt one page at a time, each as an
// / Uninit page targeting FILE, per vm_alloc_page_with_initializer.
// / Only pages covering FileBytes are installed (Segment carries no
// / separate memory size); the last page's tail past FileBytes is
// / zero-filled. A segment with FileBytes == 0 still gets one FILE
// / page, with ReadBytes=0.
func LoadSegment(spt *vm.SPT, seg Segment) defs.Err_t {
	va := mem.PageAlign(seg.Va)
	skew := int(seg.Va - va)
	remaining := seg.FileBytes + skew
	ofs := seg.FileOfs - int64(skew)

	npages := (remaining + mem.PGSIZE - 1) / mem.PGSIZE
	if npages == 0 {
		npages = 1
	}

	for i := 0; i < npages; i++ {
		readBytes := remaining
		if readBytes > mem.PGSIZE {
			readBytes = mem.PGSIZE
		}
		if readBytes < 0 {
			readBytes = 0
		}
		zeroBytes := mem.PGSIZE - readBytes

		aux := &vm.FileLoadAux{
			File:      seg.File,
			Offset:    ofs,
			ReadBytes: readBytes,
			ZeroBytes: zeroBytes,
		}
		if err := vm.NewUninitPage(spt, vm.FILE, va, seg.Writable, aux); err != 0 {
			return err
		}

		va += uintptr(mem.PGSIZE)
		ofs += int64(readBytes)
		remaining -= mem.PGSIZE
	}
	return 0
}
