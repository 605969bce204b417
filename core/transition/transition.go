// Package transition answers "what is the power state now" and "when does
// it change next" for a parsed schedule timeline.
package transition

import (
	"fmt"
	"slices"
	"time"

	"github.com/kilianp07/svitlo/core/schedule"
)

const slotDuration = 30 * time.Minute

// Snapshot is the state of a timeline at one wall-clock reading.
type Snapshot struct {
	Slot  int
	State schedule.State
	// NextChangeAt is the local "HH:MM" of the next state change within the
	// day, empty when the day never changes state.
	NextChangeAt string
	NextOn       *time.Time
	NextOff      *time.Time
}

// SlotIndex returns the half-hour slot of a local clock reading.
func SlotIndex(t time.Time) int {
	idx := t.Hour() * 2
	if t.Minute() >= 30 {
		idx++
	}
	return idx
}

// CurrentSlot returns the slot of now within the timeline's today. When now
// is on another calendar date the result is 0.
func CurrentSlot(tl schedule.Timeline, now time.Time) int {
	if !tl.Today.SameDate(now) {
		return 0
	}
	return SlotIndex(now.In(tl.Location()))
}

// NextChange scans the day circularly from idx and returns the first slot
// whose state differs from slot idx. It reports false when all slots share
// the same state.
func NextChange(halfHours [schedule.SlotsPerDay]schedule.State, idx int) (int, bool) {
	cur := halfHours[idx]
	n := len(halfHours)
	for step := 1; step <= n; step++ {
		j := (idx + step) % n
		if halfHours[j] != cur {
			return j, true
		}
	}
	return 0, false
}

// SlotClock formats the start of slot idx as local "HH:MM".
func SlotClock(idx int) string {
	m := 0
	if idx%2 == 1 {
		m = 30
	}
	return fmt.Sprintf("%02d:%02d", idx/2, m)
}

// SlotFloor truncates t to the start of its half-hour slot.
func SlotFloor(t time.Time) time.Time {
	m := 0
	if t.Minute() >= 30 {
		m = 30
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), m, 0, 0, t.Location())
}

// NextOccurrence returns the next instant at which the schedule enters one
// of the target states. The search covers the rest of today, the already
// passed slots of today once, then tomorrow when present. The result is
// aligned to the :00/:30 boundary after the slot preceding the match.
func NextOccurrence(targets []schedule.State, idx int, today schedule.Day, tomorrow *schedule.Day, now time.Time) (time.Time, bool) {
	seq := make([]schedule.State, 0, 2*schedule.SlotsPerDay)
	seq = append(seq, today.HalfHours[idx+1:]...)
	seq = append(seq, today.HalfHours[:idx+1]...)
	if tomorrow != nil {
		seq = append(seq, tomorrow.HalfHours[:]...)
	}
	pos := slices.IndexFunc(seq, func(s schedule.State) bool { return slices.Contains(targets, s) })
	if pos < 0 {
		return time.Time{}, false
	}
	base := SlotFloor(now.In(today.Date.Location()))
	return base.Add(time.Duration(pos+1) * slotDuration), true
}

// Compute derives the snapshot of tl at now.
func Compute(tl schedule.Timeline, now time.Time) Snapshot {
	idx := CurrentSlot(tl, now)
	snap := Snapshot{Slot: idx, State: tl.Today.HalfHours[idx]}
	if j, ok := NextChange(tl.Today.HalfHours, idx); ok {
		snap.NextChangeAt = SlotClock(j)
	}
	if t, ok := NextOccurrence([]schedule.State{schedule.StateOn}, idx, tl.Today, tl.Tomorrow, now); ok {
		snap.NextOn = &t
	}
	if t, ok := NextOccurrence([]schedule.State{schedule.StateOff}, idx, tl.Today, tl.Tomorrow, now); ok {
		snap.NextOff = &t
	}
	return snap
}
