package core

import (
	"sync/atomic"
	"time"
)

// RepeatingHandle controls a repeating task. Stop prevents any future
// fire; a fire already executing is not interrupted.
type RepeatingHandle struct {
	queue    *TaskQueue
	fn       func()
	interval time.Duration
	stopped  atomic.Bool
}

// Stop cancels the repetition. Safe from any goroutine, including from
// inside the repeating task itself. Idempotent.
func (h *RepeatingHandle) Stop() {
	h.stopped.Store(true)
}

// IsStopped reports whether Stop has been called.
func (h *RepeatingHandle) IsStopped() bool {
	return h.stopped.Load()
}

// next builds one fire of the repetition. Each fire reschedules the one
// after it, so the interval is measured from the end of a run to the start
// of the next; a slow fn stretches the period rather than stacking fires.
func (h *RepeatingHandle) next() QueuedTask {
	return NewClosure(func() {
		if h.IsStopped() || h.queue.IsClosed() {
			return
		}

		h.fn()

		if !h.IsStopped() && !h.queue.IsClosed() {
			h.queue.PostDelayedTask(h.next(), h.interval)
		}
	})
}

// PostRepeatingTask runs fn on this queue as soon as possible and then
// again every interval until the handle is stopped or the queue is closed.
func (q *TaskQueue) PostRepeatingTask(fn func(), interval time.Duration) *RepeatingHandle {
	return q.PostRepeatingTaskWithInitialDelay(fn, 0, interval)
}

// PostRepeatingTaskWithInitialDelay is PostRepeatingTask with the first
// fire deferred by initialDelay.
func (q *TaskQueue) PostRepeatingTaskWithInitialDelay(fn func(), initialDelay, interval time.Duration) *RepeatingHandle {
	if fn == nil {
		panic("taskqueue: PostRepeatingTask with nil function")
	}

	handle := &RepeatingHandle{
		queue:    q,
		fn:       fn,
		interval: interval,
	}

	if initialDelay > 0 {
		q.PostDelayedTask(handle.next(), initialDelay)
	} else {
		q.PostTask(handle.next())
	}

	return handle
}
