package core

import "time"

// TaskRecord captures one completed task execution for diagnostics.
// Records live in the per-queue history ring; see TaskQueue.RecentTasks.
type TaskRecord struct {
	ID          TaskID
	TaskName    string
	QueueName   string
	Priority    Priority
	StartedAt   time.Time
	FinishedAt  time.Time
	Duration    time.Duration
	Disposition Disposition
	Panicked    bool
}

// QueueStats is a point-in-time snapshot of one queue's counters. Counter
// fields are cumulative over the queue's lifetime:
//
//   - Executed counts tasks whose Run completed (panicked runs included).
//   - Discarded counts tasks terminated through Cleanup instead of Run
//     (capacity drops, posts after close, teardown drains).
//   - Dropped is the subset of Discarded rejected at post time
//     (saturated or closed), i.e. excluding the teardown drain.
//
// Executed + Discarded equals the number of tasks the queue ever accepted
// responsibility for.
type QueueStats struct {
	Name      string
	Priority  Priority
	Pending   int
	Delayed   int
	Executed  int64
	Discarded int64
	Dropped   int64
	Closed    bool
}
