package core

import (
	"runtime"
	"sync"
)

// The ambient "which queue am I running on" state. Each worker registers
// itself here around every task execution, keyed by goroutine ID; that is
// the Go stand-in for the thread-local back-reference the IsCurrent and
// Current lookups need. The reference is non-owning: the registry never
// keeps a stopped queue alive beyond its drain.
var currentQueues sync.Map // goroutine id (uint64) -> *TaskQueue

// Current returns the TaskQueue whose worker is executing the calling
// goroutine's current task, or nil when the caller is not inside a task.
// A goroutine that merely constructed a queue is not "on" it.
func Current() *TaskQueue {
	if v, ok := currentQueues.Load(currentGoroutineID()); ok {
		return v.(*TaskQueue)
	}
	return nil
}

// currentGoroutineID parses the numeric goroutine ID out of the first stack
// trace line ("goroutine 123 [running]:"). There is no supported runtime
// API for this; the first line of runtime.Stack is stable across Go
// releases.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	const prefix = len("goroutine ")
	var id uint64
	for i := prefix; i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

func setCurrent(gid uint64, q *TaskQueue) {
	currentQueues.Store(gid, q)
}

func clearCurrent(gid uint64) {
	currentQueues.Delete(gid)
}
