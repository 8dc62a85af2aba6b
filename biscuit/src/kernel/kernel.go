// Command kernel is a small standalone driver exercising the virtual
// memory core end to end: loading a program's segments lazily,
// faulting one in, growing a stack, forking, and tearing both address
// spaces down. Its pool is large enough that nothing is evicted. It
// stands in for the boot sequence and CLI that
// are this repository's external collaborators, not its concern.
package main

import (
	"fmt"
	"os"

	"defs"
	"loader"
	"mem"
	"proc"
	"vm"
)

type diskFile struct {
	data []byte
}

func (f *diskFile) ReadAt(buf []byte, off int64) (int, defs.Err_t) {
	if int(off) >= len(f.data) {
		return 0, 0
	}
	n := copy(buf, f.data[off:])
	return n, 0
}

func (f *diskFile) WriteAt(buf []byte, off int64) (int, defs.Err_t) {
	for int(off)+len(buf) > len(f.data) {
		f.data = append(f.data, 0)
	}
	n := copy(f.data[off:], buf)
	return n, 0
}

const userStack = 0xC0000000

func mustOk(name string, err defs.Err_t) {
	if err != 0 {
		fmt.Fprintf(os.Stderr, "%s: exit(-1): %s\n", name, err.Errstr())
		os.Exit(1)
	}
}

func main() {
	pool := mem.MkUserPool(256)
	swap := mem.MkSwapDevice()
	pt := vm.MkFakePageTable()
	fslock := vm.MkFSLock()
	ft := vm.MkFrameTable(pool, swap, pt, fslock, 256)

	th := proc.MkThread(1)
	spt := th.Spt

	text := &diskFile{data: make([]byte, 0x3000)}
	for i := range text.data {
		text.data[i] = byte(i)
	}

	mustOk("load .text", loader.LoadSegment(spt, loader.Segment{
		Va: 0x400000, Writable: false, File: text, FileOfs: 0, FileBytes: 0x3000,
	}))
	data := &diskFile{data: []byte{1, 2, 3, 4}}
	mustOk("load .data", loader.LoadSegment(spt, loader.Segment{
		Va: 0x600000, Writable: true, File: data, FileOfs: 0, FileBytes: 4,
	}))
	fmt.Printf("program loaded: %d lazy pages\n", spt.Size())

	err := th.HandleFault(ft, pt, swap, userStack, 0x400000, 0, true, false, true)
	mustOk("fault .text[0]", err)
	fmt.Println("first .text page resident after fault")

	// Stash the user rsp the way a syscall entry would, then take the
	// stack-growth fault as if it arose from the kernel's own
	// copy-in/copy-out rather than a user-mode trap frame.
	th.LastUserRsp = uintptr(userStack - 4)
	err = th.HandleFault(ft, pt, swap, userStack, th.LastUserRsp, 0, false, false, true)
	mustOk("stack growth", err)
	fmt.Println("stack grew by one page")

	child := vm.MkSPT()
	childPT := vm.MkFakePageTable()
	if !vm.Copy(child, spt, pt, childPT, ft, swap) {
		mustOk("fork", -defs.ENOMEM)
	}
	fmt.Printf("forked child SPT has %d entries\n", child.Size())

	spt.Kill(swap)
	child.Kill(swap)
	fmt.Println("both address spaces torn down cleanly")
}
