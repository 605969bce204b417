package precise

import "time"

// Timer is a pending single-shot callback.
type Timer interface {
	// Stop prevents the timer from firing. It reports false when the timer
	// already fired or was stopped.
	Stop() bool
}

// Clock is the time source and timer capability used by the scheduler.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock uses the process wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
