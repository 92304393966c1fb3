package core

import (
	"container/heap"
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andres-erbsen/clock"
)

// TaskQueue is a single-worker, FIFO execution context for tasks.
//
// Each queue owns one dedicated goroutine that dequeues and runs tasks one
// at a time. Independent queues run fully in parallel; within one queue
// execution is strictly serial, which is what lets state touched only from
// tasks on the same queue go unlocked: the worker loop itself establishes a
// happens-before edge between consecutive tasks, so task N's writes are
// visible to task N+1 without any barrier at the call site.
//
// Posting never blocks. The pending channel is bounded; when it is
// saturated, or after the queue has been closed, posts silently discard the
// task through its Cleanup path (drop counters and the DropHandler record
// the fact). Every task the queue accepts terminates exactly once: Run on
// the worker, or Cleanup if it is discarded.
//
// Queues must be stopped when no longer needed; Stop discards all remaining
// pending and delayed work through Cleanup, waits for the worker to finish
// any in-flight task, and joins the worker goroutine.
type TaskQueue struct {
	name         string
	priority     Priority
	clock        clock.Clock
	logger       Logger
	metrics      Metrics
	panicHandler PanicHandler
	dropHandler  DropHandler

	// mu fences posts against close: posts hold the read side while they
	// check closed and enqueue, Stop/Shutdown take the write side to flip
	// closed. Once closed is set no post can slip past the drain.
	mu     sync.RWMutex
	closed bool

	pending chan QueuedTask

	dmu         sync.Mutex // guards delayed + delayedSeq
	delayed     delayedHeap
	delayedSeq  uint64
	delayedWake chan struct{}

	quit     chan struct{} // closed by Stop: worker drains and exits
	stopped  chan struct{} // closed by the worker on exit
	shutdown chan struct{} // closed on Shutdown/Stop: WaitShutdown waiters

	stopOnce     sync.Once
	shutdownOnce sync.Once

	executed  atomic.Int64
	discarded atomic.Int64
	dropped   atomic.Int64

	history executionHistory
}

// NewTaskQueue creates a queue with the default configuration and starts
// its worker goroutine. The name is diagnostic only and need not be unique.
func NewTaskQueue(name string) *TaskQueue {
	return NewTaskQueueWithConfig(name, nil)
}

// NewTaskQueueWithConfig creates a queue with the given configuration
// (nil or partially filled configs fall back to defaults) and starts its
// worker goroutine.
func NewTaskQueueWithConfig(name string, cfg *QueueConfig) *TaskQueue {
	c := cfg.withDefaults()

	q := &TaskQueue{
		name:         name,
		priority:     c.Priority,
		clock:        c.Clock,
		logger:       c.Logger,
		metrics:      c.Metrics,
		panicHandler: c.PanicHandler,
		dropHandler:  c.DropHandler,
		pending:      make(chan QueuedTask, c.Capacity),
		delayedWake:  make(chan struct{}, 1),
		quit:         make(chan struct{}),
		stopped:      make(chan struct{}),
		shutdown:     make(chan struct{}),
		history:      newExecutionHistory(c.HistoryCapacity),
	}

	q.logger.Debug("task queue created",
		F("queue", q.name),
		F("priority", q.priority.String()),
		F("capacity", c.Capacity))

	go q.workerLoop()

	return q
}

// Name returns the queue's diagnostic name.
func (q *TaskQueue) Name() string {
	return q.name
}

// QueuePriority returns the queue's scheduling hint.
func (q *TaskQueue) QueuePriority() Priority {
	return q.priority
}

// =============================================================================
// Posting
// =============================================================================

// PostTask enqueues task for execution on this queue's worker and returns
// immediately. Safe from any goroutine, including this queue's own worker
// (a self-posted task is ordered after everything already pending). If the
// queue is closed or the pending channel is saturated the task is discarded
// through its Cleanup path instead.
func (q *TaskQueue) PostTask(task QueuedTask) {
	if task == nil {
		panic("taskqueue: PostTask with nil task")
	}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		q.discard(task, DropReasonClosed, true)
		return
	}

	select {
	case q.pending <- task:
		q.mu.RUnlock()
		q.metrics.RecordQueueDepth(q.name, len(q.pending))
	default:
		q.mu.RUnlock()
		q.discard(task, DropReasonSaturated, true)
	}
}

// Post is PostTask for a plain function.
func (q *TaskQueue) Post(fn func()) {
	q.PostTask(NewClosure(fn))
}

// PostDelayedTask enqueues task to become eligible to run once delay has
// elapsed. The deadline is fixed at call time (clock now + delay). A zero
// or negative delay is eligible immediately but still takes the deferred
// path: it carries no ordering promise against already-pending immediate
// tasks. Delayed tasks for one queue fire in deadline order.
func (q *TaskQueue) PostDelayedTask(task QueuedTask, delay time.Duration) {
	if task == nil {
		panic("taskqueue: PostDelayedTask with nil task")
	}
	if delay < 0 {
		delay = 0
	}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		q.discard(task, DropReasonClosed, true)
		return
	}

	entry := &delayedEntry{task: task, deadline: q.clock.Now().Add(delay)}

	q.dmu.Lock()
	q.delayedSeq++
	entry.seq = q.delayedSeq
	heap.Push(&q.delayed, entry)
	atHead := entry.index == 0
	q.dmu.Unlock()
	q.mu.RUnlock()

	// Only a new earliest deadline needs to interrupt the worker's wait.
	if atHead {
		select {
		case q.delayedWake <- struct{}{}:
		default:
		}
	}
}

// PostDelayed is PostDelayedTask for a plain function.
func (q *TaskQueue) PostDelayed(fn func(), delay time.Duration) {
	q.PostDelayedTask(NewClosure(fn), delay)
}

// SendTask blocks the caller until task has finished executing on this
// queue's worker. If the caller is already running on this queue the task
// executes inline on the same stack instead of deadlocking a single-worker
// queue against itself. If the queue discards the task (closed or
// saturated), SendTask returns once the Cleanup path has run; it never
// blocks forever on a dead queue. Callers that must distinguish ran from
// discarded can observe it through the task's own state.
func (q *TaskQueue) SendTask(task QueuedTask) {
	if task == nil {
		panic("taskqueue: SendTask with nil task")
	}

	if q.IsCurrent() {
		q.invoke(task)
		return
	}

	done := NewEvent()
	q.PostTask(&completionTask{inner: task, done: done})
	done.Wait(Forever)
}

// Send is SendTask for a plain function.
func (q *TaskQueue) Send(fn func()) {
	q.SendTask(NewClosure(fn))
}

// completionTask wraps a task so the sender can wait for its lifecycle to
// terminate. The event fires after Run returns or after Cleanup, panics
// included, so the sending goroutine can never be left parked.
type completionTask struct {
	inner QueuedTask
	done  *Event
}

func (t *completionTask) Run() Disposition {
	defer t.done.Set()
	t.inner.Run()
	return Finished
}

func (t *completionTask) Cleanup() {
	defer t.done.Set()
	t.inner.Cleanup()
}

// IsCurrent reports whether the calling goroutine is this queue's worker,
// presently executing one of its tasks. Any goroutine not inside a task on
// this queue gets false, including the one that constructed the queue.
func (q *TaskQueue) IsCurrent() bool {
	return Current() == q
}

// =============================================================================
// Lifecycle
// =============================================================================

// Shutdown closes the queue to new work without stopping the worker:
// already-accepted pending and delayed tasks still execute, subsequent
// posts are discarded through Cleanup, and WaitShutdown waiters wake.
// Unlike Stop, Shutdown may be called from a task running on this queue;
// it is how a queue retires itself. Call Stop to discard remaining work
// and join the worker. Idempotent.
func (q *TaskQueue) Shutdown() {
	q.markClosed()
}

// IsClosed reports whether the queue has stopped accepting work.
func (q *TaskQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Stop closes the queue, waits for any in-flight task to finish, discards
// every remaining pending and delayed task through its Cleanup path, and
// joins the worker goroutine. Blocks until the drain is complete; safe to
// call more than once and from several goroutines at once. Calling Stop
// from a task on this queue panics (the worker cannot join itself); use
// Shutdown there instead.
func (q *TaskQueue) Stop() {
	if q.IsCurrent() {
		panic("taskqueue: Stop called from a task on this queue; use Shutdown instead")
	}

	q.stopOnce.Do(func() {
		q.markClosed()
		close(q.quit)
	})
	<-q.stopped

	q.logger.Debug("task queue stopped",
		F("queue", q.name),
		F("executed", q.executed.Load()),
		F("discarded", q.discarded.Load()))
}

func (q *TaskQueue) markClosed() {
	q.mu.Lock()
	alreadyClosed := q.closed
	q.closed = true
	q.mu.Unlock()

	q.shutdownOnce.Do(func() {
		close(q.shutdown)
	})

	if !alreadyClosed {
		q.logger.Debug("task queue closed to new work", F("queue", q.name))
	}
}

// WaitShutdown blocks until Shutdown or Stop has been called on this
// queue, or ctx is done. Lets an owner park until some task (possibly on
// this very queue) decides the queue's work is finished.
func (q *TaskQueue) WaitShutdown(ctx context.Context) error {
	select {
	case <-q.shutdown:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitIdle blocks until every task posted before the call has finished
// executing, or ctx is done. Implemented as a barrier task; FIFO order is
// what makes the barrier exact. Tasks posted after WaitIdle, and future
// fires of delayed or repeating tasks, are not waited for.
func (q *TaskQueue) WaitIdle(ctx context.Context) error {
	if q.IsClosed() {
		return fmt.Errorf("task queue %q is closed", q.name)
	}

	var discardedUnrun atomic.Bool
	done := make(chan struct{})

	q.PostTask(NewClosureWithCleanup(
		func() { close(done) },
		func() {
			discardedUnrun.Store(true)
			close(done)
		},
	))

	select {
	case <-done:
		if discardedUnrun.Load() {
			return fmt.Errorf("task queue %q stopped before the idle barrier ran", q.name)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FlushAsync invokes cb on the worker once every task posted before the
// call has finished. The non-blocking counterpart of WaitIdle.
func (q *TaskQueue) FlushAsync(cb func()) {
	q.Post(cb)
}

// =============================================================================
// Worker loop
// =============================================================================

// workerLoop runs on the queue's dedicated goroutine. States: idle
// (blocked in the select below), running (inside dispatch), draining
// (quit observed; discard everything and exit). There is no error state;
// task failures are contained by invoke.
func (q *TaskQueue) workerLoop() {
	defer close(q.stopped)

	gid := currentGoroutineID()

	var timer *clock.Timer
	var timerC <-chan time.Time
	var timerDeadline time.Time

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = nil
		timerC = nil
		timerDeadline = time.Time{}
	}
	defer stopTimer()

	for {
		// quit wins over runnable work: once Stop is underway, remaining
		// tasks are discarded, not run. A bare select would pick at random
		// between a ready quit and a ready pending task.
		if q.quitRequested() {
			q.drain()
			return
		}

		// Run everything already due, earliest deadline first. Teardown can
		// interrupt the batch; entries already popped are discarded so their
		// lifecycle still terminates.
		now := q.clock.Now()
		if due := q.popDueEntries(now); len(due) > 0 {
			stopTimer()
			for i, entry := range due {
				if q.quitRequested() {
					for _, rest := range due[i:] {
						q.discard(rest.task, DropReasonStopped, false)
					}
					q.drain()
					return
				}
				q.runTask(gid, entry.task)
			}
			continue
		}

		// Arm (or re-arm) the timer for the next deadline. The head can only
		// have moved if the previous timer fired or a wake was signalled, so
		// an unchanged deadline keeps its timer.
		if next, ok := q.nextDeadline(); ok {
			if timer == nil || !timerDeadline.Equal(next) {
				stopTimer()
				timer = q.clock.Timer(next.Sub(now))
				timerC = timer.C
				timerDeadline = next
			}
		} else {
			stopTimer()
		}

		select {
		case <-q.quit:
			q.drain()
			return

		case task := <-q.pending:
			if q.quitRequested() {
				q.discard(task, DropReasonStopped, false)
				q.drain()
				return
			}
			q.metrics.RecordQueueDepth(q.name, len(q.pending))
			q.runTask(gid, task)

		case <-timerC:
			// Spent; the due batch at the top of the loop picks up the work.
			timer = nil
			timerC = nil
			timerDeadline = time.Time{}

		case <-q.delayedWake:
			// New earliest deadline; recompute the timer.
		}
	}
}

// runTask marks this queue current for the worker goroutine around the
// execution, so IsCurrent and Current answer correctly from inside the
// task body.
func (q *TaskQueue) runTask(gid uint64, task QueuedTask) {
	setCurrent(gid, q)
	defer clearCurrent(gid)
	q.invoke(task)
}

// invoke executes one task and records the outcome. Also called directly
// for the reentrant SendTask case, where the ambient state is already set
// by the enclosing task's runTask frame.
func (q *TaskQueue) invoke(task QueuedTask) {
	record := TaskRecord{
		ID:        GenerateTaskID(),
		TaskName:  resolveTaskName(task),
		QueueName: q.name,
		Priority:  q.priority,
		StartedAt: q.clock.Now(),
	}

	defer func() {
		record.FinishedAt = q.clock.Now()
		record.Duration = record.FinishedAt.Sub(record.StartedAt)

		if r := recover(); r != nil {
			record.Panicked = true
			q.history.Add(record)
			q.executed.Add(1)
			q.metrics.RecordTaskPanic(q.name, r)
			q.panicHandler.HandlePanic(q.name, r, debug.Stack())
			return
		}

		q.history.Add(record)
		q.executed.Add(1)
		q.metrics.RecordTaskDuration(q.name, q.priority, record.Duration)
	}()

	record.Disposition = task.Run()
}

// drain empties the pending channel and the delayed heap through the
// discard path. Runs on the worker after quit; closed was set before quit
// was signalled, so nothing new can arrive behind the sweep.
func (q *TaskQueue) drain() {
	q.logger.Debug("draining task queue",
		F("queue", q.name),
		F("pending", len(q.pending)),
		F("delayed", q.DelayedTaskCount()))

	for {
		select {
		case task := <-q.pending:
			q.discard(task, DropReasonStopped, false)
		default:
			q.drainDelayed()
			return
		}
	}
}

func (q *TaskQueue) drainDelayed() {
	q.dmu.Lock()
	entries := q.delayed.drain()
	q.dmu.Unlock()

	for _, entry := range entries {
		q.discard(entry.task, DropReasonStopped, false)
	}
}

// discard terminates a task through its cleanup path. droppedAtPost marks
// post-time rejections (saturated/closed) as opposed to teardown drains.
func (q *TaskQueue) discard(task QueuedTask, reason string, droppedAtPost bool) {
	q.discarded.Add(1)
	if droppedAtPost {
		q.dropped.Add(1)
	}
	q.metrics.RecordTaskDropped(q.name, reason)
	q.dropHandler.HandleDrop(q.name, reason)
	q.logger.Debug("task discarded", F("queue", q.name), F("reason", reason))

	defer func() {
		if r := recover(); r != nil {
			q.panicHandler.HandlePanic(q.name, r, debug.Stack())
		}
	}()
	task.Cleanup()
}

func (q *TaskQueue) popDueEntries(now time.Time) []*delayedEntry {
	q.dmu.Lock()
	defer q.dmu.Unlock()
	return q.delayed.popDue(now)
}

func (q *TaskQueue) nextDeadline() (time.Time, bool) {
	q.dmu.Lock()
	defer q.dmu.Unlock()
	if head := q.delayed.peek(); head != nil {
		return head.deadline, true
	}
	return time.Time{}, false
}

func (q *TaskQueue) quitRequested() bool {
	select {
	case <-q.quit:
		return true
	default:
		return false
	}
}

// =============================================================================
// Introspection
// =============================================================================

// PendingTaskCount returns the number of immediately runnable tasks
// waiting in the queue.
func (q *TaskQueue) PendingTaskCount() int {
	return len(q.pending)
}

// DelayedTaskCount returns the number of delayed tasks not yet due.
func (q *TaskQueue) DelayedTaskCount() int {
	q.dmu.Lock()
	defer q.dmu.Unlock()
	return q.delayed.Len()
}

// Stats returns a point-in-time snapshot of the queue's counters.
func (q *TaskQueue) Stats() QueueStats {
	return QueueStats{
		Name:      q.name,
		Priority:  q.priority,
		Pending:   len(q.pending),
		Delayed:   q.DelayedTaskCount(),
		Executed:  q.executed.Load(),
		Discarded: q.discarded.Load(),
		Dropped:   q.dropped.Load(),
		Closed:    q.IsClosed(),
	}
}

// RecentTasks returns up to limit execution records, newest first.
// limit <= 0 returns everything retained.
func (q *TaskQueue) RecentTasks(limit int) []TaskRecord {
	return q.history.Recent(limit)
}

// LastTask returns the most recent execution record, if any.
func (q *TaskQueue) LastTask() (TaskRecord, bool) {
	return q.history.Last()
}
