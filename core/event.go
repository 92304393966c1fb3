package core

import (
	"sync"
	"time"
)

// Forever makes Event.Wait block until the event is set.
const Forever time.Duration = -1

// Event is a one-shot, thread-safe completion signal.
//
// It is the synchronization primitive producers use to observe task
// completion across goroutines: a task body calls Set, an unrelated
// goroutine calls Wait. Set is idempotent; Wait after Set returns
// immediately. A Wait that observes the event set also observes every
// write the setting goroutine made before Set (channel close establishes
// the happens-before edge).
//
//	done := NewEvent()
//	q.Post(func() { done.Set() })
//	done.Wait(Forever)
type Event struct {
	once  sync.Once
	fired chan struct{}
}

func NewEvent() *Event {
	return &Event{fired: make(chan struct{})}
}

// Set marks the event. Safe to call from any goroutine, any number of times.
func (e *Event) Set() {
	e.once.Do(func() {
		close(e.fired)
	})
}

// Wait blocks until the event is set or timeout elapses, and reports
// whether the event was set. Forever (any negative duration) waits
// indefinitely; zero polls without blocking.
func (e *Event) Wait(timeout time.Duration) bool {
	if timeout < 0 {
		<-e.fired
		return true
	}
	if timeout == 0 {
		select {
		case <-e.fired:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-e.fired:
		return true
	case <-timer.C:
		return false
	}
}
