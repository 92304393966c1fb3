// Package taskqueue provides a WebRTC-inspired task queue primitive for Go.
//
// This library implements an execution model where developers post tasks to
// serial queues rather than managing goroutines and locks directly. Each
// TaskQueue owns one dedicated worker goroutine; tasks on a queue run one at
// a time in FIFO order, while independent queues run in parallel. The core
// design follows the TaskQueue abstraction used throughout the WebRTC
// native stack.
//
// # Quick Start
//
// Create a queue, post work to it, and stop it when done:
//
//	queue := taskqueue.NewTaskQueue("worker")
//	defer queue.Stop()
//
//	queue.Post(func() {
//		// Your code here - guaranteed serial execution
//	})
//
// # Key Concepts
//
// TaskQueue: A serial execution context. Tasks posted to one queue never run
// concurrently, so state owned by a queue needs no locks; the queue itself
// provides the happens-before edge between consecutive tasks.
//
// QueuedTask: The unit of work. Every task a queue accepts terminates
// exactly once: Run on the worker, or Cleanup if the queue discards it
// (saturation, posting after close, or teardown). NewClosure and
// NewClosureWithCleanup adapt plain functions to this contract.
//
// Posting: PostTask enqueues and returns immediately. PostDelayedTask makes
// a task eligible after a delay. SendTask blocks until the task has run,
// and executes it inline when called from the target queue itself, so a
// queue can safely send to itself.
//
// Stop: Discards all remaining work through Cleanup, waits for any
// in-flight task, and joins the worker. Nothing posted to a queue outlives
// its Stop.
//
// # Thread Safety
//
// All posting methods are safe from any goroutine. IsCurrent and Current
// let code assert which queue it is running on. Posting never blocks: the
// pending buffer is bounded and overflow discards the task rather than
// stalling the producer, which is the behavior real-time media pipelines
// want under overload.
//
// # Example
//
//	import (
//		"time"
//
//		taskqueue "github.com/rtckit/go-task-queue"
//	)
//
//	func main() {
//		queue := taskqueue.NewTaskQueue("encoder")
//		defer queue.Stop()
//
//		// Tasks execute serially, in order
//		queue.Post(func() {
//			println("Task 1")
//		})
//		queue.Post(func() {
//			println("Task 2")
//		})
//
//		// Delayed task
//		queue.PostDelayed(func() {
//			println("Task 3 - delayed")
//		}, 100*time.Millisecond)
//
//		// Block until a task has run
//		queue.Send(func() {
//			println("Task 4 - synchronous")
//		})
//	}
//
// For more details, see https://github.com/rtckit/go-task-queue
package taskqueue
