package vm

import "sync"

// FSLock serializes every filesystem call reached from a VM callback
// (a file-backed page's swap_in/swap_out): "a single global lock
// serializes all filesystem calls reached from system-call and VM
// paths." It is constructed once per kernel instance and passed by
// reference, like FrameTable and mem.SwapDevice_t, so tests can run
// independent VM subsystems without sharing state.
//
// Callers must never acquire FSLock across a call that can reach
// FrameTable.GetFrame (palloc_get_page), to avoid priority inversion
// against the frame allocator. FilePage's SwapIn/SwapOut are the only
// callers, and they hold FSLock only around the file.ReadAt/WriteAt
// call itself, never around frame acquisition.
type FSLock struct {
	mu sync.Mutex
}

// / MkFSLock returns a ready-to-use filesystem lock.
func MkFSLock() *FSLock {
	return &FSLock{}
}

func (l *FSLock) Lock() { l.mu.Lock() }

func (l *FSLock) Unlock() { l.mu.Unlock() }
