package fault

import "sync"

// Slot holds at most one pending error message per OS thread.
//
// A message set by a failing call on thread A is visible only to Take on
// thread A, and Take clears it. A later failure on the same thread overwrites
// an unread message.
//
// Entries are keyed by kernel thread id and removed only by Take. A thread
// that exits with an unread message leaves its entry behind, and a new thread
// that is handed the same id by the kernel would read it. Callers are
// expected to read the message on the thread that failed, right after the
// failing call returns; Go threads that stay locked through a goroutine exit
// are destroyed by the runtime, so this only bites hosts that drop errors.
type Slot struct {
	messages sync.Map // thread id -> string
}

// Set records msg for the calling thread.
func (s *Slot) Set(msg string) {
	s.messages.Store(threadID(), msg)
}

// Take returns and clears the calling thread's message.
func (s *Slot) Take() (string, bool) {
	v, ok := s.messages.LoadAndDelete(threadID())
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Peek returns the calling thread's message without clearing it.
func (s *Slot) Peek() (string, bool) {
	v, ok := s.messages.Load(threadID())
	if !ok {
		return "", false
	}
	return v.(string), true
}
