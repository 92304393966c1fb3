package taskqueue

import (
	"time"

	"github.com/rtckit/go-task-queue/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the taskqueue package for most use cases.

// QueuedTask is the unit of work: Run once on the queue, or Cleanup once if discarded
type QueuedTask = core.QueuedTask

// Disposition is what Run reports about the task's ownership afterwards
type Disposition = core.Disposition

// TaskQueue is a single-worker FIFO execution context
type TaskQueue = core.TaskQueue

// Priority is the queue-wide scheduling hint
type Priority = core.Priority

// QueueConfig customizes a queue at construction time
type QueueConfig = core.QueueConfig

// QueueStats is a point-in-time snapshot of a queue's counters
type QueueStats = core.QueueStats

// TaskRecord describes one completed task execution
type TaskRecord = core.TaskRecord

// TaskID identifies a single task execution
type TaskID = core.TaskID

// Event is a one-shot, set-once synchronization primitive
type Event = core.Event

// RepeatingHandle controls a repeating task
type RepeatingHandle = core.RepeatingHandle

// Logger, Field: structured logging hooks
type Logger = core.Logger
type Field = core.Field

// Metrics, PanicHandler, DropHandler: observability hooks
type Metrics = core.Metrics
type PanicHandler = core.PanicHandler
type DropHandler = core.DropHandler

// Disposition values
const (
	Finished    Disposition = core.Finished
	Transferred Disposition = core.Transferred
)

// Priority levels
const (
	PriorityNormal Priority = core.PriorityNormal
	PriorityHigh   Priority = core.PriorityHigh
	PriorityLow    Priority = core.PriorityLow
)

// Forever blocks Event.Wait with no timeout
const Forever = core.Forever

// Drop reasons reported to DropHandler and Metrics
const (
	DropReasonSaturated = core.DropReasonSaturated
	DropReasonClosed    = core.DropReasonClosed
	DropReasonStopped   = core.DropReasonStopped
)

// Convenience constructors and helpers
var (
	NewClosure            = core.NewClosure
	NewClosureWithCleanup = core.NewClosureWithCleanup
	NewRetainedClosure    = core.NewRetainedClosure
	NewEvent              = core.NewEvent
	Current               = core.Current
	DefaultQueueConfig    = core.DefaultQueueConfig
	F                     = core.F
)

// NewTaskQueue creates a queue with the default configuration and starts its worker.
func NewTaskQueue(name string) *TaskQueue {
	return core.NewTaskQueue(name)
}

// NewTaskQueueWithConfig creates a queue with a custom configuration.
// Use this to pick a priority hint, bound the pending capacity, or plug in
// logging, metrics, and drop handling.
func NewTaskQueueWithConfig(name string, cfg *QueueConfig) *TaskQueue {
	return core.NewTaskQueueWithConfig(name, cfg)
}

// PostTaskAndReplyWithResult runs task on target and hands its result to
// reply on replyQueue. Re-exported for the common offload-and-reply flow.
func PostTaskAndReplyWithResult[T any](target, replyQueue *TaskQueue, task func() T, reply func(T)) {
	core.PostTaskAndReplyWithResult(target, replyQueue, task, reply)
}

// PostDelayedTaskAndReplyWithResult is PostTaskAndReplyWithResult with the
// task deferred by delay.
func PostDelayedTaskAndReplyWithResult[T any](target, replyQueue *TaskQueue, task func() T, delay time.Duration, reply func(T)) {
	core.PostDelayedTaskAndReplyWithResult(target, replyQueue, task, delay, reply)
}
