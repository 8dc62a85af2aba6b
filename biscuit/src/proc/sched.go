package proc

import "runtime"

// goYield stands in for a voluntary reschedule. A bare-metal kernel
// would instead check for and act on a pending timer tick; hosted on
// the Go runtime, yielding the goroutine is the equivalent cooperative
// point.
func goYield() {
	runtime.Gosched()
}
