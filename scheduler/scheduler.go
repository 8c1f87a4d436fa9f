// Package scheduler implements the two-core cooperative task scheduler:
// a dedicated Core-1 loop that drains only the CRITICAL priority queue
// (reserved for the UART service loop), and a Core-0 loop that drains
// HIGH, then NORMAL, then LOW in strict order over priority-indexed
// FIFOs.
package scheduler

import (
	"sync"
	"time"
)

// Priority selects which queue and, for CRITICAL, which core a task
// runs on.
type Priority int

const (
	// Critical is reserved for the Core-1 UART service loop and MUST
	// NOT be used by any other task; Core 1 drains nothing else so
	// protocol latency never depends on Core-0 load.
	Critical Priority = iota
	High
	Normal
	Low
	numPriorities
)

// State is a task's position in the PENDING -> RUNNING -> terminal
// lifecycle.
type State int

const (
	Pending State = iota
	Running
	Completed
	Failed
	Cancelled
)

// Task is a closure submitted to the scheduler plus its bookkeeping.
// OnDone and OnError, if set, are invoked after Fn returns (OnDone
// only when Fn returned nil, OnError only when it returned an error).
type Task struct {
	Name    string
	Fn      func() error
	OnDone  func()
	OnError func(error)

	mu    sync.Mutex
	state State
}

func (t *Task) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// State returns the task's current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Cancel transitions a PENDING task to CANCELLED. It has no effect on
// a task that has already started running.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Pending {
		return false
	}
	t.state = Cancelled
	return true
}

type queue struct {
	mu    sync.Mutex
	items []*Task
}

func (q *queue) push(t *Task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()
}

func (q *queue) pop() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) > 0 {
		t := q.items[0]
		q.items = q.items[1:]
		if t.State() == Cancelled {
			continue
		}
		return t
	}
	return nil
}

// Scheduler owns the four priority queues and the busy-time counters
// for each core's worker loop.
type Scheduler struct {
	queues [numPriorities]queue

	core0Busy time.Duration
	core1Busy time.Duration
	mu        sync.Mutex

	stop0 chan struct{}
	stop1 chan struct{}
}

// New returns a Scheduler with empty queues. Call RunCore0/RunCore1 in
// their own goroutines (conventionally pinned to the two hardware
// cores) to start draining work.
func New() *Scheduler {
	return &Scheduler{
		stop0: make(chan struct{}),
		stop1: make(chan struct{}),
	}
}

// Submit enqueues a task at the given priority. Submission never
// blocks. Submitting at Critical from anywhere other than the Core-1
// UART loop violates the latency guarantee and is the caller's bug to
// avoid, not something this type enforces at runtime.
func (s *Scheduler) Submit(p Priority, t *Task) {
	s.queues[p].push(t)
}

// RunCore1 drains the CRITICAL queue only, forever, until Stop is
// called. idle is invoked (and may sleep briefly) whenever the queue
// is empty, so the loop does not spin.
func (s *Scheduler) RunCore1(idle func()) {
	for {
		select {
		case <-s.stop1:
			return
		default:
		}
		t := s.queues[Critical].pop()
		if t == nil {
			idle()
			continue
		}
		s.run(t, &s.core1Busy)
	}
}

// RunCore0 drains HIGH, then NORMAL, then LOW, in strict priority
// order, forever until Stop is called. Within a priority level, tasks
// run in FIFO submission order.
func (s *Scheduler) RunCore0(idle func()) {
	for {
		select {
		case <-s.stop0:
			return
		default:
		}
		t := s.nextCore0Task()
		if t == nil {
			idle()
			continue
		}
		s.run(t, &s.core0Busy)
	}
}

func (s *Scheduler) nextCore0Task() *Task {
	for _, p := range [...]Priority{High, Normal, Low} {
		if t := s.queues[p].pop(); t != nil {
			return t
		}
	}
	return nil
}

func (s *Scheduler) run(t *Task, busy *time.Duration) {
	t.setState(Running)
	start := time.Now()
	err := t.Fn()
	s.mu.Lock()
	*busy += time.Since(start)
	s.mu.Unlock()
	if err != nil {
		t.setState(Failed)
		if t.OnError != nil {
			t.OnError(err)
		}
		return
	}
	t.setState(Completed)
	if t.OnDone != nil {
		t.OnDone()
	}
}

// Stop signals both core loops to return after their current task (if
// any) finishes. RUNNING tasks are allowed to complete; PENDING tasks
// already enqueued are simply never popped again.
func (s *Scheduler) Stop() {
	close(s.stop0)
	close(s.stop1)
}

// Watchdog models the hardware watchdog fed from the main loop and the
// Core-1 UART loop: starvation of either feed past the period is a
// fatal event, not a recoverable one, so fire is expected to reset the
// MCU rather than return.
type Watchdog struct {
	period time.Duration
	fire   func()
	stop   chan struct{}

	mu    sync.Mutex
	last0 time.Time
	last1 time.Time
}

// NewWatchdog returns a Watchdog armed for period; both feeds start
// "fresh" as of construction so a slow boot doesn't trip it instantly.
func NewWatchdog(period time.Duration, fire func()) *Watchdog {
	now := time.Now()
	return &Watchdog{period: period, fire: fire, stop: make(chan struct{}), last0: now, last1: now}
}

// FeedCore0 is called from the Core-0 worker loop on every iteration.
func (w *Watchdog) FeedCore0() {
	w.mu.Lock()
	w.last0 = time.Now()
	w.mu.Unlock()
}

// FeedCore1 is called from the Core-1 UART service loop on every
// iteration.
func (w *Watchdog) FeedCore1() {
	w.mu.Lock()
	w.last1 = time.Now()
	w.mu.Unlock()
}

// Run polls both feeds at a quarter of period until either goes stale,
// then calls fire once and returns. Call it in its own goroutine.
func (w *Watchdog) Run() {
	ticker := time.NewTicker(w.period / 4)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.mu.Lock()
			stale := time.Since(w.last0) > w.period || time.Since(w.last1) > w.period
			w.mu.Unlock()
			if stale {
				if w.fire != nil {
					w.fire()
				}
				return
			}
		}
	}
}

// Stop ends Run without firing; used on clean shutdown.
func (w *Watchdog) Stop() {
	close(w.stop)
}

// BusyTime returns cumulative time each core's worker has spent inside
// task bodies, for utilization statistics.
func (s *Scheduler) BusyTime() (core0, core1 time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core0Busy, s.core1Busy
}
