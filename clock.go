package auth

import "time"

// Clock abstracts time for components that need a testable now.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now()
	}
	return f()
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// TimerHandle is a scheduled deferred callback that can be cancelled.
// Stop reports whether the callback was prevented from running; callers
// must not rely on it alone, since a callback may already be in flight.
type TimerHandle interface {
	Stop() bool
}

// Scheduler arms cancellable deferred callbacks. The session controller
// owns two of these at a time while a session is live.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) TimerHandle
}

// SystemScheduler dispatches through time.AfterFunc.
var SystemScheduler Scheduler = systemScheduler{}

type systemScheduler struct{}

func (systemScheduler) Schedule(d time.Duration, fn func()) TimerHandle {
	return time.AfterFunc(d, fn)
}
