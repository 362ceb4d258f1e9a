package diary

import (
	"sync/atomic"
	"time"
)

// Default autosave timings, matching the legacy app.
const (
	DefaultDebounce = 2 * time.Second
	DefaultInterval = 30 * time.Second
)

// Autosaver schedules background saves: a debounced save fired a fixed
// delay after the most recent Touch (the timer restarts on every Touch),
// and an unconditional save on a fixed interval.
//
// Concurrency model: a single internal goroutine owns both timers. Public
// methods communicate with it through channels, so no mutexes are needed.
type Autosaver struct {
	debounce time.Duration
	interval time.Duration
	save     func()

	touchCh chan struct{}
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewAutosaver starts an autosaver calling save from its own goroutine.
// Non-positive durations fall back to the legacy defaults.
func NewAutosaver(save func(), debounce, interval time.Duration) *Autosaver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	a := &Autosaver{
		debounce: debounce,
		interval: interval,
		save:     save,
		touchCh:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Autosaver) run() {
	defer close(a.stopped)

	timer := time.NewTimer(a.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			timer.Stop()
			return

		case <-a.touchCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(a.debounce)

		case <-timer.C:
			a.save()

		case <-ticker.C:
			a.save()
		}
	}
}

// Touch restarts the debounce countdown. Safe to call from any goroutine;
// a pending touch coalesces with new ones.
func (a *Autosaver) Touch() {
	if a.closed.Load() {
		return
	}
	select {
	case a.touchCh <- struct{}{}:
	case <-a.stopped:
	}
}

// Close stops both timers. Pending debounced work is discarded; the
// caller is expected to do a final explicit save on shutdown.
func (a *Autosaver) Close() {
	if a.closed.CompareAndSwap(false, true) {
		close(a.stopCh)
	}
	<-a.stopped
}
