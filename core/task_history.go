package core

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"
)

// executionHistory is a fixed-capacity ring of the most recent task
// executions on one queue. Writes happen on the worker goroutine; reads
// may come from anywhere, hence the mutex.
type executionHistory struct {
	mu   sync.Mutex
	buf  []TaskRecord
	next int  // slot the next record lands in
	full bool // buf has wrapped at least once
}

func newExecutionHistory(capacity int) executionHistory {
	if capacity < 1 {
		capacity = DefaultHistoryCapacity
	}
	return executionHistory{buf: make([]TaskRecord, capacity)}
}

func (h *executionHistory) Add(record TaskRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf[h.next] = record
	h.next++
	if h.next == len(h.buf) {
		h.next = 0
		h.full = true
	}
}

// size must be called with h.mu held.
func (h *executionHistory) size() int {
	if h.full {
		return len(h.buf)
	}
	return h.next
}

// Recent returns up to limit records, newest first. limit <= 0 means all.
func (h *executionHistory) Recent(limit int) []TaskRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.size()
	if n == 0 {
		return nil
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]TaskRecord, 0, limit)
	idx := h.next
	for i := 0; i < limit; i++ {
		idx--
		if idx < 0 {
			idx = len(h.buf) - 1
		}
		out = append(out, h.buf[idx])
	}
	return out
}

func (h *executionHistory) Last() (TaskRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.size() == 0 {
		return TaskRecord{}, false
	}

	idx := h.next - 1
	if idx < 0 {
		idx = len(h.buf) - 1
	}
	return h.buf[idx], true
}

// resolveTaskName produces a human-readable name for a task in history
// records. Closure-backed tasks resolve to the wrapped function's symbol
// via runtime.FuncForPC; custom QueuedTask implementations resolve to
// their concrete type.
func resolveTaskName(task QueuedTask) string {
	if task == nil {
		return "anonymous"
	}

	if ct, ok := task.(*closureTask); ok && ct.run != nil {
		if name := funcName(ct.run); name != "" {
			return name
		}
	}

	return fmt.Sprintf("%T", task)
}

func funcName(fn func()) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return ""
	}

	pc := v.Pointer()
	if pc == 0 {
		return ""
	}

	f := runtime.FuncForPC(pc)
	if f == nil {
		return ""
	}
	return f.Name()
}
