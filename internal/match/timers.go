package match

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timers owns the process-local deadlines of every room: the start delay, the round
// deadline and the result delay. A room has at most one pending timer; arming replaces
// it. Handles are never persisted, so a restart drops them.
type Timers struct {
	clock clockwork.Clock

	mu      sync.Mutex
	pending map[string]*armedTimer
	nextGen uint64
}

type armedTimer struct {
	timer clockwork.Timer
	gen   uint64
}

// NewTimers creates a timer set on clock.
func NewTimers(clock clockwork.Clock) *Timers {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timers{clock: clock, pending: make(map[string]*armedTimer)}
}

// Arm schedules fn for key after d, cancelling whatever was pending for key.
// A timer that lost its slot before firing never runs fn.
func (t *Timers) Arm(key string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.pending[key]; ok {
		old.timer.Stop()
	}
	t.nextGen++
	gen := t.nextGen
	armed := &armedTimer{gen: gen}
	armed.timer = t.clock.AfterFunc(d, func() {
		if !t.release(key, gen) {
			return
		}
		fn()
	})
	t.pending[key] = armed
}

// Cancel stops the pending timer for key. It reports whether one was pending.
func (t *Timers) Cancel(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	armed, ok := t.pending[key]
	if !ok {
		return false
	}
	armed.timer.Stop()
	delete(t.pending, key)
	return true
}

// Pending reports how many rooms have a timer armed.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// StopAll cancels every pending timer.
func (t *Timers) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, armed := range t.pending {
		armed.timer.Stop()
		delete(t.pending, key)
	}
}

func (t *Timers) release(key string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	armed, ok := t.pending[key]
	if !ok || armed.gen != gen {
		return false
	}
	delete(t.pending, key)
	return true
}
