//go:build !linux && !windows

package fault

/*
#include <pthread.h>
#include <stdint.h>

static uint64_t fb_thread_id(void) {
	return (uint64_t)(uintptr_t)pthread_self();
}
*/
import "C"

func threadID() uint64 {
	return uint64(C.fb_thread_id())
}
