package core

import (
	"fmt"
	"time"

	"github.com/andres-erbsen/clock"
)

// =============================================================================
// PanicHandler: contain panics escaping task bodies
// =============================================================================

// PanicHandler is called when a task's Run or Cleanup panics. The queue has
// no error channel, so this is the only place such failures surface; after
// the handler returns the worker carries on with the next task.
//
// Implementations must be safe for concurrent use; independent queues may
// panic at the same time.
type PanicHandler interface {
	// HandlePanic receives the queue name, the recovered value and the
	// stack captured at recovery.
	HandlePanic(queueName string, panicValue any, stack []byte)
}

// DefaultPanicHandler prints the panic and stack to stdout. Swallowing a
// panic with no trace would hide real bugs, so this is the default.
type DefaultPanicHandler struct{}

func (h *DefaultPanicHandler) HandlePanic(queueName string, panicValue any, stack []byte) {
	fmt.Printf("[TaskQueue %s] panic in task: %v\n%s", queueName, panicValue, stack)
}

// NoOpPanicHandler discards panics. For tests that provoke panics on purpose.
type NoOpPanicHandler struct{}

// NewNoOpPanicHandler creates a panic handler that discards everything.
func NewNoOpPanicHandler() *NoOpPanicHandler {
	return &NoOpPanicHandler{}
}

func (h *NoOpPanicHandler) HandlePanic(queueName string, panicValue any, stack []byte) {}

// =============================================================================
// Metrics: observability hooks
// =============================================================================

// Metrics receives execution measurements from a queue. A Prometheus-backed
// implementation lives in observability/prometheus; the default is
// NilMetrics. Implementations must be non-blocking and cheap, they run
// inside the worker loop.
type Metrics interface {
	// RecordTaskDuration is called after every completed Run.
	RecordTaskDuration(queueName string, priority Priority, duration time.Duration)

	// RecordTaskPanic is called when a Run panics.
	RecordTaskPanic(queueName string, panicValue any)

	// RecordQueueDepth reports the pending-task count, called after enqueue
	// and dequeue transitions.
	RecordQueueDepth(queueName string, depth int)

	// RecordTaskDropped is called when a task is discarded unrun. Reasons:
	// "saturated" (bounded channel full), "closed" (post after shutdown),
	// "stopped" (drained at queue teardown).
	RecordTaskDropped(queueName string, reason string)
}

// NilMetrics is the no-op default.
type NilMetrics struct{}

func (m *NilMetrics) RecordTaskDuration(queueName string, priority Priority, duration time.Duration) {
}
func (m *NilMetrics) RecordTaskPanic(queueName string, panicValue any)  {}
func (m *NilMetrics) RecordQueueDepth(queueName string, depth int)      {}
func (m *NilMetrics) RecordTaskDropped(queueName string, reason string) {}

// =============================================================================
// DropHandler: notification for discarded tasks
// =============================================================================

// DropHandler is called whenever a queue discards a task through its
// cleanup path instead of running it. Dropping is a designed backpressure
// behavior, not an error, so the default handler is silent; hosts that
// want delivery accounting hook in here.
//
// Called from the goroutine that discarded the task: the posting goroutine
// for capacity/closed drops, the worker for teardown drains. Must be safe
// for concurrent use.
type DropHandler interface {
	HandleDrop(queueName string, reason string)
}

// NilDropHandler ignores drops; the per-queue drop counter and metrics
// still record them.
type NilDropHandler struct{}

func (h *NilDropHandler) HandleDrop(queueName string, reason string) {}

// =============================================================================
// QueueConfig
// =============================================================================

// Discard reasons passed to Metrics.RecordTaskDropped and DropHandler.
const (
	DropReasonSaturated = "saturated"
	DropReasonClosed    = "closed"
	DropReasonStopped   = "stopped"
)

// DefaultPendingCapacity bounds the pending-task channel when QueueConfig
// does not say otherwise. The exact threshold is a tunable, not a contract:
// callers must tolerate drops at any capacity.
const DefaultPendingCapacity = 16384

// DefaultHistoryCapacity is the execution-history ring size.
const DefaultHistoryCapacity = 100

// QueueConfig carries the optional knobs for NewTaskQueueWithConfig.
// Zero values fall back to defaults, so partially filled configs are fine.
type QueueConfig struct {
	// Priority is the queue's scheduling hint. Defaults to PriorityNormal.
	Priority Priority

	// Capacity bounds the pending-task channel. Posts beyond it are
	// silently dropped through the cleanup path. Defaults to
	// DefaultPendingCapacity.
	Capacity int

	// HistoryCapacity sizes the execution-record ring buffer.
	// Defaults to DefaultHistoryCapacity.
	HistoryCapacity int

	// Clock supplies time for delayed scheduling. Defaults to the real
	// clock; tests inject clock.NewMock().
	Clock clock.Clock

	// Logger receives lifecycle and discard messages. Defaults to NoOpLogger.
	Logger Logger

	// Metrics receives execution measurements. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler contains panics escaping task bodies.
	// Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// DropHandler observes discarded tasks. Defaults to NilDropHandler.
	DropHandler DropHandler
}

// DefaultQueueConfig returns the configuration NewTaskQueue uses.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		Priority:        PriorityNormal,
		Capacity:        DefaultPendingCapacity,
		HistoryCapacity: DefaultHistoryCapacity,
		Clock:           clock.New(),
		Logger:          NewNoOpLogger(),
		Metrics:         &NilMetrics{},
		PanicHandler:    &DefaultPanicHandler{},
		DropHandler:     &NilDropHandler{},
	}
}

// withDefaults fills nil/zero fields of cfg from DefaultQueueConfig.
// cfg may be nil.
func (cfg *QueueConfig) withDefaults() *QueueConfig {
	out := DefaultQueueConfig()
	if cfg == nil {
		return out
	}
	out.Priority = cfg.Priority
	if cfg.Capacity > 0 {
		out.Capacity = cfg.Capacity
	}
	if cfg.HistoryCapacity > 0 {
		out.HistoryCapacity = cfg.HistoryCapacity
	}
	if cfg.Clock != nil {
		out.Clock = cfg.Clock
	}
	if cfg.Logger != nil {
		out.Logger = cfg.Logger
	}
	if cfg.Metrics != nil {
		out.Metrics = cfg.Metrics
	}
	if cfg.PanicHandler != nil {
		out.PanicHandler = cfg.PanicHandler
	}
	if cfg.DropHandler != nil {
		out.DropHandler = cfg.DropHandler
	}
	return out
}
