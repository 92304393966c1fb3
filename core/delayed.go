package core

import (
	"container/heap"
	"time"
)

// delayedEntry is one registered delayed task. The deadline is fixed at
// post time (clock.Now() + delay); seq breaks ties so that entries with
// equal deadlines fire in registration order.
type delayedEntry struct {
	task     QueuedTask
	deadline time.Time
	seq      uint64
	index    int // heap index, maintained by heap.Interface
}

// delayedHeap is a min-heap ordered by deadline, then registration
// sequence. Mutated only under the owning queue's delayed-state mutex.
type delayedHeap []*delayedEntry

func (h delayedHeap) Len() int { return len(h) }

func (h delayedHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h delayedHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *delayedHeap) Push(x any) {
	entry := x.(*delayedEntry)
	entry.index = len(*h)
	*h = append(*h, entry)
}

func (h *delayedHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*h = old[:n-1]
	return entry
}

// peek returns the earliest entry without removing it.
func (h delayedHeap) peek() *delayedEntry {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// popDue removes and returns, in deadline order, every entry whose
// deadline is at or before now.
func (h *delayedHeap) popDue(now time.Time) []*delayedEntry {
	var due []*delayedEntry
	for {
		head := h.peek()
		if head == nil || head.deadline.After(now) {
			return due
		}
		due = append(due, heap.Pop(h).(*delayedEntry))
	}
}

// drain removes and returns every entry, earliest first.
func (h *delayedHeap) drain() []*delayedEntry {
	out := make([]*delayedEntry, 0, len(*h))
	for h.Len() > 0 {
		out = append(out, heap.Pop(h).(*delayedEntry))
	}
	return out
}
