package taskqueue

import (
	"testing"
	"time"

	"github.com/rtckit/go-task-queue/core"
)

// TestReExportedConstants verifies the root package mirrors core's values
// Given: The re-exported dispositions, priorities, and drop reasons
// When: Each is compared against its core counterpart
// Then: They are identical
func TestReExportedConstants(t *testing.T) {
	// Assert
	if Finished != core.Finished || Transferred != core.Transferred {
		t.Error("Disposition constants do not match core")
	}
	if PriorityNormal != core.PriorityNormal || PriorityHigh != core.PriorityHigh || PriorityLow != core.PriorityLow {
		t.Error("Priority constants do not match core")
	}
	if Forever != core.Forever {
		t.Errorf("Forever = %v, want %v", Forever, core.Forever)
	}
	if DropReasonSaturated != core.DropReasonSaturated ||
		DropReasonClosed != core.DropReasonClosed ||
		DropReasonStopped != core.DropReasonStopped {
		t.Error("Drop reason constants do not match core")
	}
}

// TestFacadeConstructors verifies top-level wrappers return usable instances
// Given: The root-package constructors and helpers
// When: Each is invoked
// Then: Each returns a working value backed by core
func TestFacadeConstructors(t *testing.T) {
	// Act
	q := NewTaskQueue("facade-queue")

	// Assert
	if q == nil {
		t.Fatal("NewTaskQueue() returned nil")
	}
	defer q.Stop()
	if q.Name() != "facade-queue" {
		t.Errorf("Name() = %q, want %q", q.Name(), "facade-queue")
	}

	// Act
	cfg := DefaultQueueConfig()
	cfg.Priority = PriorityHigh
	q2 := NewTaskQueueWithConfig("facade-high", cfg)

	// Assert
	if q2 == nil {
		t.Fatal("NewTaskQueueWithConfig() returned nil")
	}
	defer q2.Stop()
	if q2.QueuePriority() != PriorityHigh {
		t.Errorf("QueuePriority() = %v, want %v", q2.QueuePriority(), PriorityHigh)
	}

	// Act
	ev := NewEvent()

	// Assert
	if ev == nil {
		t.Fatal("NewEvent() returned nil")
	}

	// Act & Assert
	if got := NewClosure(func() {}).Run(); got != Finished {
		t.Errorf("NewClosure().Run() = %v, want %v", got, Finished)
	}
	if got := NewRetainedClosure(func() {}).Run(); got != Transferred {
		t.Errorf("NewRetainedClosure().Run() = %v, want %v", got, Transferred)
	}

	// Act
	f := F("key", 42)

	// Assert
	if f.Key != "key" {
		t.Errorf("F().Key = %q, want %q", f.Key, "key")
	}
}

// TestFacadeExecution verifies tasks flow through the re-exported surface
// Given: A queue created through the root package
// When: Work is posted, sent, and queried through the facade
// Then: Execution and identity behave exactly as in core
func TestFacadeExecution(t *testing.T) {
	// Arrange
	q := NewTaskQueue("facade-exec")
	defer q.Stop()

	// Act
	var onQueue bool
	q.Send(func() {
		onQueue = Current() == q
	})

	// Assert
	if !onQueue {
		t.Error("Current() inside a task did not match the facade queue")
	}

	// Act
	done := NewEvent()
	q.Post(func() { done.Set() })

	// Assert
	if !done.Wait(2 * time.Second) {
		t.Fatal("posted task did not run")
	}

	// Act
	stats := q.Stats()

	// Assert
	if stats.Name != "facade-exec" {
		t.Errorf("Stats().Name = %q, want %q", stats.Name, "facade-exec")
	}
}

// TestFacadeTaskAndReply verifies the generic helpers are re-exported intact
// Given: Two queues created through the root package
// When: PostTaskAndReplyWithResult runs through the facade
// Then: The result crosses queues as it does in core
func TestFacadeTaskAndReply(t *testing.T) {
	// Arrange
	target := NewTaskQueue("facade-target")
	defer target.Stop()
	replyQueue := NewTaskQueue("facade-reply")
	defer replyQueue.Stop()
	done := NewEvent()

	// Act
	var got int
	PostTaskAndReplyWithResult(target, replyQueue,
		func() int { return 21 * 2 },
		func(v int) {
			got = v
			done.Set()
		},
	)

	// Assert
	if !done.Wait(2 * time.Second) {
		t.Fatal("reply did not run")
	}
	if got != 42 {
		t.Errorf("reply received %d, want 42", got)
	}
}
