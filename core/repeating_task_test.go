package core

import (
	"sync/atomic"
	"testing"
	"time"
)

// TestRepeatingTask_BasicExecution verifies basic repeating task functionality
// Given: a repeating task every 50ms
// When: the task runs for 250ms and is then stopped
// Then: the task executes multiple times and stops after handle.Stop()
func TestRepeatingTask_BasicExecution(t *testing.T) {
	// Arrange
	queue := NewTaskQueue("repeat")
	defer queue.Stop()

	var counter atomic.Int32

	// Act
	handle := queue.PostRepeatingTask(func() {
		counter.Add(1)
	}, 50*time.Millisecond)

	time.Sleep(250 * time.Millisecond)
	handle.Stop()

	finalCount := counter.Load()
	time.Sleep(150 * time.Millisecond)
	afterStopCount := counter.Load()

	// Assert
	if finalCount < 3 {
		t.Errorf("finalCount = %d, want >= 3", finalCount)
	}
	// One fire may already be queued when Stop lands
	if afterStopCount > finalCount+1 {
		t.Errorf("task continued after stop: before = %d, after = %d", finalCount, afterStopCount)
	}
	if !handle.IsStopped() {
		t.Error("handle.IsStopped() = false, want true")
	}
}

// TestRepeatingTask_InitialDelay verifies delayed start of a repeating task
// Given: a repeating task with a 100ms initial delay and 50ms interval
// When: 50ms pass
// Then: the task has not fired yet, and fires after the initial delay
func TestRepeatingTask_InitialDelay(t *testing.T) {
	// Arrange
	queue := NewTaskQueue("repeat-delayed")
	defer queue.Stop()

	var counter atomic.Int32
	start := time.Now()

	// Act
	handle := queue.PostRepeatingTaskWithInitialDelay(
		func() {
			counter.Add(1)
		},
		100*time.Millisecond, // Initial delay
		50*time.Millisecond,  // Interval
	)
	defer handle.Stop()

	// Assert - Nothing during the initial delay
	time.Sleep(50 * time.Millisecond)
	if counter.Load() > 0 {
		t.Error("repeating task fired during the initial delay")
	}

	// Assert - Fires after it
	time.Sleep(200 * time.Millisecond)
	if counter.Load() < 1 {
		t.Error("repeating task did not fire after the initial delay")
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("first fire before the initial delay: %v", elapsed)
	}
}

// TestRepeatingTask_StopFromInside verifies stopping from the task body
// Given: a repeating task that stops its own handle on the 3rd fire
// When: the task runs
// Then: the repetition ends at 3 fires
func TestRepeatingTask_StopFromInside(t *testing.T) {
	// Arrange
	queue := NewTaskQueue("self-cancel")
	defer queue.Stop()

	var counter atomic.Int32
	var handle *RepeatingHandle

	// The first fire holds until the handle assignment is published
	ready := NewEvent()

	// Act
	handle = queue.PostRepeatingTask(func() {
		ready.Wait(Forever)
		if counter.Add(1) == 3 {
			handle.Stop()
		}
	}, 20*time.Millisecond)
	ready.Set()

	time.Sleep(300 * time.Millisecond)

	// Assert
	if got := counter.Load(); got != 3 {
		t.Errorf("fire count: got = %d, want 3", got)
	}
	if !handle.IsStopped() {
		t.Error("handle.IsStopped() = false, want true")
	}
}

// TestRepeatingTask_QueueCloseStopsRepetition verifies shutdown interaction
// Given: a running repeating task
// When: the queue is shut down
// Then: no further fires happen after the close
func TestRepeatingTask_QueueCloseStopsRepetition(t *testing.T) {
	// Arrange
	queue := NewTaskQueue("close-repeat")
	defer queue.Stop()

	var counter atomic.Int32

	queue.PostRepeatingTask(func() {
		counter.Add(1)
	}, 30*time.Millisecond)

	time.Sleep(150 * time.Millisecond)

	// Act
	queue.Shutdown()
	countAtClose := counter.Load()

	time.Sleep(150 * time.Millisecond)
	countAfterClose := counter.Load()

	// Assert - At most one in-flight fire after the close
	if countAtClose < 2 {
		t.Errorf("fires before close: got = %d, want >= 2", countAtClose)
	}
	if countAfterClose > countAtClose+1 {
		t.Errorf("task continued after queue close: before = %d, after = %d", countAtClose, countAfterClose)
	}
}

// TestRepeatingTask_MultipleIntervals verifies several independent repetitions
// Given: three repeating tasks with different intervals on one queue
// When: they run for 200ms
// Then: each repeats on its own cadence and each stops individually
func TestRepeatingTask_MultipleIntervals(t *testing.T) {
	// Arrange
	queue := NewTaskQueue("multi-repeat")
	defer queue.Stop()

	var counter1, counter2, counter3 atomic.Int32

	handle1 := queue.PostRepeatingTask(func() {
		counter1.Add(1)
	}, 30*time.Millisecond)
	handle2 := queue.PostRepeatingTask(func() {
		counter2.Add(1)
	}, 40*time.Millisecond)
	handle3 := queue.PostRepeatingTask(func() {
		counter3.Add(1)
	}, 50*time.Millisecond)

	// Act - Let them run
	time.Sleep(200 * time.Millisecond)

	// Assert - All repeated
	if counter1.Load() < 3 {
		t.Errorf("task 1 fires: got = %d, want >= 3", counter1.Load())
	}
	if counter2.Load() < 2 {
		t.Errorf("task 2 fires: got = %d, want >= 2", counter2.Load())
	}
	if counter3.Load() < 2 {
		t.Errorf("task 3 fires: got = %d, want >= 2", counter3.Load())
	}

	// Act - Stop all
	handle1.Stop()
	handle2.Stop()
	handle3.Stop()

	c1 := counter1.Load()
	c2 := counter2.Load()
	c3 := counter3.Load()

	time.Sleep(150 * time.Millisecond)

	// Assert - All stopped
	if counter1.Load() > c1+1 {
		t.Error("task 1 continued after stop")
	}
	if counter2.Load() > c2+1 {
		t.Error("task 2 continued after stop")
	}
	if counter3.Load() > c3+1 {
		t.Error("task 3 continued after stop")
	}
}
