package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a one-second countdown. Callbacks run on the timer's goroutine,
// outside its lock, so they may call Stop or Start.
type Timer struct {
	clock clockwork.Clock

	mu        sync.Mutex
	remaining int
	running   bool
	gen       uint64
	stop      chan struct{}
}

func NewTimer(clock clockwork.Clock) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{clock: clock}
}

// Start cancels any countdown in progress and begins a new one. onTick is
// called immediately with seconds, then once per second with the remaining
// value. onComplete follows the tick that reaches zero. A non-positive
// duration ticks 0 and completes at once.
func (t *Timer) Start(seconds int, onTick func(remaining int), onComplete func()) {
	t.Stop()

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.remaining = max(seconds, 0)
	t.running = t.remaining > 0
	remaining := t.remaining
	var stop chan struct{}
	if t.running {
		stop = make(chan struct{})
		t.stop = stop
	}
	t.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if remaining == 0 {
		if t.current(gen) && onComplete != nil {
			onComplete()
		}
		return
	}
	if !t.current(gen) {
		return
	}

	ticker := t.clock.NewTicker(time.Second)
	go t.run(gen, ticker, stop, onTick, onComplete)
}

func (t *Timer) run(gen uint64, ticker clockwork.Ticker, stop <-chan struct{}, onTick func(int), onComplete func()) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			t.mu.Lock()
			if t.gen != gen {
				t.mu.Unlock()
				return
			}
			t.remaining--
			remaining := t.remaining
			done := remaining <= 0
			if done {
				t.running = false
				t.stop = nil
			}
			t.mu.Unlock()

			if onTick != nil {
				onTick(remaining)
			}
			if done {
				if t.current(gen) && onComplete != nil {
					onComplete()
				}
				return
			}
		}
	}
}

// Stop cancels pending ticks and completion. It is safe to call repeatedly.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.running = false
	t.gen++
}

func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen == gen
}
