package core

import "time"

// =============================================================================
// PostTaskAndReply
// =============================================================================

// taskAndReply runs task on the target queue, then posts reply to the
// reply queue. Exactly one termination is guaranteed for both halves:
//
//   - task runs normally: reply is posted and the reply queue owns its
//     lifecycle from there (run, or cleanup if that queue discards it)
//   - task panics: the panic unwinds through the deferred guard, which
//     cleans the reply up before the queue's recovery takes over
//   - the wrapper itself is discarded: Cleanup terminates both halves
type taskAndReply struct {
	task       QueuedTask
	reply      QueuedTask
	replyQueue *TaskQueue
}

func (t *taskAndReply) Run() Disposition {
	posted := false
	defer func() {
		if !posted {
			t.reply.Cleanup()
		}
	}()

	t.task.Run()
	t.replyQueue.PostTask(t.reply)
	posted = true
	return Finished
}

func (t *taskAndReply) Cleanup() {
	t.task.Cleanup()
	t.reply.Cleanup()
}

// PostTaskAndReply posts task to this queue and, once it has run, posts
// reply to replyQueue. The classic use is offloading: a control queue
// sends blocking work to a background queue and gets the answer back on
// itself without ever blocking.
//
// If task panics the reply is not run (its Cleanup runs instead). A nil
// replyQueue degenerates to PostTask(task); a reply passed alongside a
// nil replyQueue is cleaned up immediately since it can never run.
func (q *TaskQueue) PostTaskAndReply(task, reply QueuedTask, replyQueue *TaskQueue) {
	if task == nil {
		panic("taskqueue: PostTaskAndReply with nil task")
	}
	if replyQueue == nil {
		if reply != nil {
			reply.Cleanup()
		}
		q.PostTask(task)
		return
	}
	if reply == nil {
		panic("taskqueue: PostTaskAndReply with nil reply")
	}
	q.PostTask(&taskAndReply{task: task, reply: reply, replyQueue: replyQueue})
}

// =============================================================================
// Generic task-and-reply with a result
// =============================================================================

// PostTaskAndReplyWithResult runs task on the target queue and hands its
// return value to reply on the reply queue.
//
// The captured result escapes to the heap, and the post of the reply
// happens after the task's write, so the reply always observes the final
// value without any synchronization in user code.
//
// Example:
//
//	PostTaskAndReplyWithResult(encoderQueue, networkQueue,
//	    func() []byte { return encodeFrame(frame) },
//	    func(pkt []byte) { send(pkt) },
//	)
func PostTaskAndReplyWithResult[T any](target, replyQueue *TaskQueue, task func() T, reply func(T)) {
	var result T
	target.PostTaskAndReply(
		NewClosure(func() { result = task() }),
		NewClosure(func() { reply(result) }),
		replyQueue,
	)
}

// PostDelayedTaskAndReplyWithResult is PostTaskAndReplyWithResult with the
// task deferred by delay. Only the task is delayed; the reply is posted as
// soon as the task completes.
func PostDelayedTaskAndReplyWithResult[T any](target, replyQueue *TaskQueue, task func() T, delay time.Duration, reply func(T)) {
	var result T
	wrappedTask := NewClosure(func() { result = task() })
	if replyQueue == nil {
		target.PostDelayedTask(wrappedTask, delay)
		return
	}
	target.PostDelayedTask(&taskAndReply{
		task:       wrappedTask,
		reply:      NewClosure(func() { reply(result) }),
		replyQueue: replyQueue,
	}, delay)
}
