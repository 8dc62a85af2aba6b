package vm

import (
	"defs"
	"mem"
)

// / STACK_LIMIT bounds how far below USER_STACK the stack-growth
// / region extends.
const STACK_LIMIT = 1 << 20 // 1 MiB

// / KernelBase is the lowest address this core treats as kernel
// / space; any fault address at or above it is rejected outright.
const KernelBase = 0x0000800000000000

// FaultInfo is everything the trap frame hands the handler: the
// faulting address, the privilege mode at fault, whether the access
// was a write, whether the fault was missing-page vs protection, and
// the user-mode stack pointer (taken from the trap frame if the fault
// came from user mode, or from the last rsp the syscall dispatcher
// stashed on the current thread otherwise).
type FaultInfo struct {
	Addr       uintptr
	User       bool
	Write      bool
	NotPresent bool
	Rsp        uintptr
}

func inKernelSpace(va uintptr) bool {
	return va >= KernelBase
}

func inStackRegion(addr uintptr, userStack uintptr) bool {
	return addr < userStack && addr+STACK_LIMIT >= userStack
}

// / HandleFault runs the page-fault resolution pipeline of §4.6:
// / validate the fault, detect stack growth, locate the page record,
// / and claim it. userStack is the top of the user stack (USER_STACK).
func HandleFault(s *SPT, ft *FrameTable, pt PageTable, sd *mem.SwapDevice_t, userStack uintptr, fi FaultInfo) defs.Err_t {
	if fi.Addr == 0 {
		return -defs.EFAULT
	}
	vaddr := mem.PageAlign(fi.Addr)
	if inKernelSpace(vaddr) {
		return -defs.EFAULT
	}
	if !fi.NotPresent {
		// Protection fault: copy-on-write is not supported here, so
		// the only protection faults possible are genuine violations.
		return -defs.EACCES
	}

	if inStackRegion(fi.Addr, userStack) && s.Find(vaddr) == nil {
		pushed := fi.Addr == fi.Rsp-8
		inFrame := fi.Rsp <= fi.Addr && fi.Addr <= userStack
		if pushed || inFrame {
			if err := stackGrowth(s, vaddr); err != 0 {
				return err
			}
		}
	}

	page := s.Find(vaddr)
	if page == nil {
		return -defs.EFAULT
	}
	if fi.Write && !page.Writable {
		return -defs.EACCES
	}
	return doClaimPage(page, ft, pt, sd)
}

// stackGrowth allocates an uninit-anon page at vaddr carrying the
// stack marker, writable (vm_stack_growth).
func stackGrowth(s *SPT, vaddr uintptr) defs.Err_t {
	return NewUninitPage(s, ANON|MARKER_0, vaddr, true, nil)
}

// doClaimPage implements vm_do_claim_page: obtain a frame, link it to
// page, install the hardware mapping, then swap the page's contents
// in. Any failure after the frame is obtained unwinds the link and
// releases the frame back to the pool untouched.
func doClaimPage(page *Page, ft *FrameTable, pt PageTable, sd *mem.SwapDevice_t) defs.Err_t {
	if page.Frame != nil {
		// Another fault already claimed this page (can only arise on
		// a future multi-CPU port); nothing further to do.
		return 0
	}

	frame := ft.GetFrame()
	frame.Page = page
	page.Frame = frame

	if !pt.SetPage(page.Va, frame.Kva, page.Writable) {
		page.Frame = nil
		frame.Page = nil
		ft.ReleaseFrame(frame)
		return -defs.EFAULT
	}

	if err := page.ops.SwapIn(page, ft.Bytes(frame), sd, ft.fslock); err != 0 {
		pt.ClearPage(page.Va)
		page.Frame = nil
		frame.Page = nil
		ft.ReleaseFrame(frame)
		return err
	}

	ft.Faults.Inc()
	return 0
}

// / ClaimPage exposes doClaimPage for callers outside the fault path
// / that need to force residency (the fork copier's eager anon copy).
func ClaimPage(page *Page, ft *FrameTable, pt PageTable, sd *mem.SwapDevice_t) defs.Err_t {
	return doClaimPage(page, ft, pt, sd)
}
