// Package fault implements the fault barrier and the per-thread error channel.
//
// Every exported entry point runs inside Guard. A returned error or a
// recovered panic never crosses the boundary; instead the message is stored
// in the calling thread's Slot and the entry point returns its failure
// sentinel (a null handle, false, or zero).
//
//	h := fault.Guard(barrier, "fb_lazy_collect", 0, func() (uintptr, error) {
//	    return collect(lf)
//	})
//	if h == 0 {
//	    msg, _ := barrier.Slot().Take() // read once, then empty
//	}
//
// The slot is keyed by OS thread id. Calls that arrive through cgo exports
// run on the host's thread for their whole duration; Go callers must pin
// themselves with runtime.LockOSThread.
//
// Faults that Go cannot recover (fatal runtime errors such as concurrent map
// writes, or crashes inside foreign code) still terminate the process.
package fault
