// Package precise arms a single timer on the next schedule transition so the
// published status flips exactly on the :00/:30 boundary instead of waiting
// for the next poll.
package precise

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/svitlo/core/logger"
)

// ErrScheduling is reported when the fire instant cannot be computed.
var ErrScheduling = errors.New("cannot schedule precise refresh")

// State of the scheduler.
type State int

const (
	Idle State = iota
	Scheduled
	Fired
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Fired:
		return "fired"
	default:
		return "idle"
	}
}

// FireFunc is invoked on the timer goroutine when an armed instant elapses.
// It must not block.
type FireFunc func(firedAt time.Time)

// Scheduler owns at most one armed timer.
type Scheduler struct {
	clock  Clock
	log    logger.Logger
	onFire FireFunc

	mu    sync.Mutex
	timer Timer
	gen   uint64
	state State
	at    time.Time
}

// New creates an idle scheduler.
func New(clock Clock, onFire FireFunc, log logger.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Scheduler{clock: clock, onFire: onFire, log: log}
}

// FireTime anchors the local "HH:MM" on date (YYYY-MM-DD) in loc. A result
// not strictly after now is moved to the following day.
func FireTime(date, hhmm string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = now.Location()
	}
	day, err := time.ParseInLocation(time.DateOnly, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %v", ErrScheduling, date, err)
	}
	h, m, err := parseClock(hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrScheduling, err)
	}
	candidate := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate, nil
}

func parseClock(s string) (int, int, error) {
	hs, ms, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("clock %q: missing ':'", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("clock %q: bad hour", s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("clock %q: bad minute", s)
	}
	return h, m, nil
}

// Reschedule cancels any pending timer and arms a new one for the next
// change at hhmm on date. An empty hhmm leaves the scheduler idle. Failures
// are logged and leave the scheduler idle; the armed instant is returned
// for observability.
func (s *Scheduler) Reschedule(date, hhmm string, loc *time.Location) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	if hhmm == "" || date == "" {
		return time.Time{}, false
	}
	now := s.clock.Now()
	at, err := FireTime(date, hhmm, now, loc)
	if err != nil {
		s.log.Warnf("failed to schedule precise refresh: %v", err)
		return time.Time{}, false
	}
	// A stale table after midnight can yield an instant already behind now
	// even after the rollover; leave it to the next poll.
	if !at.After(now) {
		s.log.Warnf("precise refresh %s on %s is already past, staying idle", hhmm, date)
		return time.Time{}, false
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(at.Sub(now), func() { s.fire(gen) })
	s.state = Scheduled
	s.at = at
	s.log.Debugf("scheduled precise refresh at %s", at.Format(time.RFC3339))
	return at, true
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != Scheduled {
		s.mu.Unlock()
		return
	}
	s.state = Fired
	s.timer = nil
	fn := s.onFire
	s.mu.Unlock()
	if fn != nil {
		fn(s.clock.Now())
	}
}

// Cancel stops the pending timer, if any.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	s.cancelLocked()
	s.mu.Unlock()
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// bump the generation so a callback already in flight is ignored
	s.gen++
	s.state = Idle
	s.at = time.Time{}
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ArmedAt returns the pending fire instant.
func (s *Scheduler) ArmedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.at, s.state == Scheduled
}
