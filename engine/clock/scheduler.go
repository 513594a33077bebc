package clock

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Scheduler runs deferred callbacks on the frame goroutine. Nothing fires on
// its own: the owner calls RunDue once per frame and every callback whose
// deadline has passed runs synchronously inside that call.
type Scheduler interface {
	// Schedule registers f to run once delay has elapsed on the scheduler's clock.
	//
	// Parameters:
	//   - delay: how long to wait, values < 0 are treated as 0
	//   - f: the callback
	//
	// Returns:
	//   - string: an id usable with Cancel
	Schedule(delay time.Duration, f func()) string

	// Cancel drops a pending callback.
	//
	// Parameters:
	//   - id: the id returned by Schedule
	//
	// Returns:
	//   - bool: true if the callback was pending
	Cancel(id string) bool

	// RunDue executes every pending callback whose deadline is <= Now(), in
	// deadline order. Callbacks run outside the scheduler lock and may schedule
	// or cancel other callbacks.
	RunDue()

	// Pending returns the number of callbacks still waiting.
	Pending() int

	// Now returns the current time of the underlying clock.
	Now() time.Time

	// Pause holds every pending deadline. Nothing runs until Resume, and the
	// paused interval is added to each deadline, including ones scheduled
	// while paused.
	Pause()

	// Resume releases a Pause.
	Resume()
}

type scheduledEvent struct {
	id        string
	when      time.Time
	f         func()
	cancelled bool
}

type schedulerImpl struct {
	mu *sync.Mutex

	clock   Clock
	counter uint64
	events  []*scheduledEvent // ordered by when, earliest first
	index   map[string]*scheduledEvent

	paused   bool
	pausedAt time.Time
}

var _ Scheduler = &schedulerImpl{}

// NewScheduler creates a Scheduler driven by the given clock, or the wall clock when nil.
func NewScheduler(c Clock) Scheduler {
	if c == nil {
		c = Real()
	}
	return &schedulerImpl{
		mu:    &sync.Mutex{},
		clock: c,
		index: make(map[string]*scheduledEvent),
	}
}

func (s *schedulerImpl) Schedule(delay time.Duration, f func()) string {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	ev := &scheduledEvent{
		id:   fmt.Sprintf("ev-%d", s.counter),
		when: s.clock.Now().Add(delay),
		f:    f,
	}

	// Equal deadlines keep scheduling order.
	idx := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].when.After(ev.when)
	})
	s.events = append(s.events, nil)
	copy(s.events[idx+1:], s.events[idx:])
	s.events[idx] = ev

	s.index[ev.id] = ev
	return ev.id
}

func (s *schedulerImpl) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.index[id]
	if !ok {
		return false
	}
	// Removal from events is lazy; RunDue skips cancelled entries.
	ev.cancelled = true
	delete(s.index, id)
	return true
}

func (s *schedulerImpl) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

func (s *schedulerImpl) Now() time.Time {
	return s.clock.Now()
}

func (s *schedulerImpl) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.paused = true
	s.pausedAt = s.clock.Now()
}

func (s *schedulerImpl) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	held := s.clock.Now().Sub(s.pausedAt)
	if held <= 0 {
		return
	}
	for _, ev := range s.events {
		ev.when = ev.when.Add(held)
	}
}

func (s *schedulerImpl) RunDue() {
	for {
		s.mu.Lock()
		ev := s.popDueLocked()
		s.mu.Unlock()

		if ev == nil {
			return
		}
		if ev.f != nil {
			ev.f()
		}
	}
}

// popDueLocked removes and returns the earliest due, non-cancelled event.
// Caller must hold the mutex.
func (s *schedulerImpl) popDueLocked() *scheduledEvent {
	if s.paused {
		return nil
	}
	now := s.clock.Now()
	for len(s.events) > 0 {
		ev := s.events[0]
		if ev.cancelled {
			s.events = s.events[1:]
			continue
		}
		if ev.when.After(now) {
			return nil
		}
		s.events = s.events[1:]
		delete(s.index, ev.id)
		return ev
	}
	return nil
}
