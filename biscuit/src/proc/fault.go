package proc

import (
	"defs"
	"mem"
	"vm"
)

// HandleFault runs the virtual-memory fault pipeline on t's own
// address space (vm.HandleFault). trapRsp is the rsp the trap frame
// carries when the fault is taken from user mode; when it is taken
// from kernel mode instead (a page fault inside a syscall's copy-in
// or copy-out, which has no user-mode trap frame of its own), t's own
// LastUserRsp is substituted, matching what the syscall dispatcher
// stashed on entry (§4.6 step 4).
func (t *Thread_t) HandleFault(ft *vm.FrameTable, pt vm.PageTable, sd *mem.SwapDevice_t, userStack uintptr, addr uintptr, trapRsp uintptr, user, write, notPresent bool) defs.Err_t {
	rsp := trapRsp
	if !user {
		rsp = t.LastUserRsp
	}
	return vm.HandleFault(t.Spt, ft, pt, sd, userStack, vm.FaultInfo{
		Addr:       addr,
		User:       user,
		Write:      write,
		NotPresent: notPresent,
		Rsp:        rsp,
	})
}
