package clock

import (
	"sync"
	"time"
)

// IdleTimer holds at most one pending deferred action on a Scheduler.
// Reschedule always cancels the previous pending action first, and every
// Cancel or Reschedule bumps a generation so a callback already dequeued by
// RunDue in the same frame does nothing.
type IdleTimer struct {
	mu *sync.Mutex

	scheduler  Scheduler
	delay      time.Duration
	action     func()
	id         string
	generation uint64
}

// NewIdleTimer creates a stopped IdleTimer that runs action delay after each Reschedule.
func NewIdleTimer(s Scheduler, delay time.Duration, action func()) *IdleTimer {
	return &IdleTimer{
		mu:        &sync.Mutex{},
		scheduler: s,
		delay:     delay,
		action:    action,
	}
}

// Reschedule cancels any pending action and arms a new one.
func (t *IdleTimer) Reschedule() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()
	gen := t.generation
	t.id = t.scheduler.Schedule(t.delay, func() { t.fire(gen) })
}

// Cancel drops the pending action, if any.
func (t *IdleTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

// Pending reports whether an action is armed.
func (t *IdleTimer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id != ""
}

// Delay returns the configured delay.
func (t *IdleTimer) Delay() time.Duration {
	return t.delay
}

// SetDelay changes the delay used by subsequent Reschedule calls.
func (t *IdleTimer) SetDelay(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delay = d
}

func (t *IdleTimer) cancelLocked() {
	t.generation++
	if t.id != "" {
		t.scheduler.Cancel(t.id)
		t.id = ""
	}
}

func (t *IdleTimer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}
	t.id = ""
	t.generation++
	action := t.action
	t.mu.Unlock()

	if action != nil {
		action()
	}
}
