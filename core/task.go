package core

import (
	"github.com/google/uuid"
)

// Disposition is what a task's Run reports back to the executing queue.
type Disposition int

const (
	// Finished: the queue is done with this task. Its lifecycle is complete
	// and the queue drops its reference.
	Finished Disposition = iota

	// Transferred: ownership of the task has been handed elsewhere, typically
	// because the body re-posted the task to another queue as part of its own
	// execution. The queue drops its reference without finalizing the task.
	// Returning Transferred without actually transferring the task anywhere
	// is a caller error (the task leaks); the queue does not detect it.
	Transferred
)

func (d Disposition) String() string {
	switch d {
	case Finished:
		return "finished"
	case Transferred:
		return "transferred"
	default:
		return "unknown"
	}
}

// =============================================================================
// QueuedTask: the unit of work with an explicit run/cleanup contract
// =============================================================================

// QueuedTask is a unit of work scheduled onto a TaskQueue.
//
// Run executes the body and reports the task's disposition. It is called at
// most once per enqueueing, always on the owning queue's worker goroutine,
// never concurrently with another task on the same queue.
//
// Cleanup is the disposal path: it is invoked only when the queue discards
// the task without running it (capacity drop, post after close, or queue
// teardown). Exactly one of Run/Cleanup executes for an enqueued task.
// Cleanup may be invoked from any goroutine and must not assume it is
// running in queue context.
//
// Neither Run nor Cleanup should panic; a panic that happens anyway is
// contained by the worker and reported through the queue's PanicHandler.
type QueuedTask interface {
	Run() Disposition
	Cleanup()
}

// =============================================================================
// Closure adapters
// =============================================================================

type closureTask struct {
	run      func()
	cleanup  func()
	retained bool
}

func (t *closureTask) Run() Disposition {
	t.run()
	if t.retained {
		return Transferred
	}
	return Finished
}

func (t *closureTask) Cleanup() {
	if t.cleanup != nil {
		t.cleanup()
	}
}

// NewClosure wraps a plain function into a QueuedTask whose Run reports
// Finished and whose Cleanup is a no-op.
//
// Posting a closure never invokes it and never copies its captured state;
// the closure runs once on the queue's worker or not at all.
func NewClosure(run func()) QueuedTask {
	return &closureTask{run: run}
}

// NewClosureWithCleanup wraps a run function together with a cleanup
// function. The cleanup fires only if the task is discarded unrun, e.g.
// when the owning queue is stopped while the task is still pending. It
// never fires after a successful run.
//
// This is the way to attach resources to a task without leaking them when
// the queue tears down first:
//
//	f := openFrameBuffer()
//	q.PostTask(NewClosureWithCleanup(
//	    func() { encode(f); f.Release() },
//	    func() { f.Release() },
//	))
func NewClosureWithCleanup(run, cleanup func()) QueuedTask {
	return &closureTask{run: run, cleanup: cleanup}
}

// NewRetainedClosure wraps a function into a task whose Run reports
// Transferred, telling the queue the caller keeps ownership. Useful for
// long-lived task objects the caller re-posts or pools; most code wants
// NewClosure instead.
func NewRetainedClosure(run func()) QueuedTask {
	return &closureTask{run: run, retained: true}
}

// =============================================================================
// Priority: per-queue scheduling hint
// =============================================================================

// Priority is a scheduling weight hint attached to a whole queue.
//
// It never affects ordering: tasks on one queue run strictly in FIFO order
// regardless of priority. The Go runtime exposes no goroutine scheduling
// weights, so the hint is advisory; it surfaces in stats, history records,
// log fields and metric labels so operators can tell latency-sensitive
// queues apart.
type Priority int

const (
	// PriorityNormal is the default (and the zero value).
	PriorityNormal Priority = iota

	// PriorityHigh: latency-sensitive work, e.g. audio capture callbacks.
	PriorityHigh

	// PriorityLow: background work, e.g. stats aggregation.
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// =============================================================================
// TaskID: diagnostic identity for execution records
// =============================================================================

// TaskID identifies one task execution in history records and logs.
// Tasks themselves are anonymous; IDs are assigned at execution time for
// diagnostics only.
type TaskID uuid.UUID

// GenerateTaskID returns a new random TaskID.
func GenerateTaskID() TaskID {
	return TaskID(uuid.New())
}

func (id TaskID) String() string {
	return uuid.UUID(id).String()
}
