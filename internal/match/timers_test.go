package match

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func expectFire(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatalf("timer %q did not fire", want)
	}
}

func expectQuiet(t *testing.T, ch <-chan string) {
	t.Helper()
	select {
	case got := <-ch:
		t.Fatalf("unexpected timer %q fired", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimers_ArmReplacesPending(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timers := NewTimers(clock)
	fired := make(chan string, 4)

	timers.Arm("room", time.Second, func() { fired <- "first" })
	timers.Arm("room", 2*time.Second, func() { fired <- "second" })
	assert.Equal(t, 1, timers.Pending())

	clock.Advance(time.Second)
	expectQuiet(t, fired)

	clock.Advance(time.Second)
	expectFire(t, fired, "second")
	assert.Eventually(t, func() bool { return timers.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTimers_Cancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timers := NewTimers(clock)
	fired := make(chan string, 1)

	timers.Arm("room", time.Second, func() { fired <- "deadline" })
	assert.True(t, timers.Cancel("room"))
	assert.False(t, timers.Cancel("room"))

	clock.Advance(2 * time.Second)
	expectQuiet(t, fired)
}

func TestTimers_IndependentRooms(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timers := NewTimers(clock)
	fired := make(chan string, 2)

	timers.Arm("r1", time.Second, func() { fired <- "r1" })
	timers.Arm("r2", 3*time.Second, func() { fired <- "r2" })

	clock.Advance(time.Second)
	expectFire(t, fired, "r1")

	timers.StopAll()
	clock.Advance(5 * time.Second)
	expectQuiet(t, fired)
}

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	locks := newKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("room")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locks.locks)
}
