// Package interval compresses half-hour schedules into contiguous outage
// windows and answers range queries over them.
package interval

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/svitlo/core/schedule"
)

// Outage is a half-open [Start, End) window without power.
type Outage struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies inside the window.
func (o Outage) Contains(t time.Time) bool {
	return !t.Before(o.Start) && t.Before(o.End)
}

// Duration returns the length of the window.
func (o Outage) Duration() time.Duration { return o.End.Sub(o.Start) }

// Build returns the outage windows of a single day in chronological order.
// A run reaching the last slot ends at midnight of the following day.
func Build(day schedule.Day) []Outage {
	var out []Outage
	cur := day.HalfHours[0]
	start := 0
	for i := 1; i < schedule.SlotsPerDay; i++ {
		if day.HalfHours[i] == cur {
			continue
		}
		if cur == schedule.StateOff {
			out = append(out, Outage{Start: day.SlotStart(start), End: day.SlotStart(i)})
		}
		cur = day.HalfHours[i]
		start = i
	}
	if cur == schedule.StateOff {
		out = append(out, Outage{Start: day.SlotStart(start), End: day.SlotStart(schedule.SlotsPerDay)})
	}
	return out
}

// BuildTimeline returns today's windows followed by tomorrow's. Days are
// processed independently, so a window spanning midnight appears twice.
func BuildTimeline(tl schedule.Timeline) []Outage {
	out := Build(tl.Today)
	if tl.Tomorrow != nil {
		out = append(out, Build(*tl.Tomorrow)...)
	}
	return out
}

// Query returns every window overlapping [start, end), ordered by start.
func Query(outages []Outage, start, end time.Time) []Outage {
	res := make([]Outage, 0, len(outages))
	for _, o := range outages {
		if o.Start.Before(end) && o.End.After(start) {
			res = append(res, o)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Start.Before(res[j].Start) })
	return res
}

// Current returns the window containing now or, failing that, the nearest
// upcoming one.
func Current(outages []Outage, now time.Time) (Outage, bool) {
	var next *Outage
	for i := range outages {
		o := outages[i]
		if o.Contains(now) {
			return o, true
		}
		if o.Start.After(now) && (next == nil || o.Start.Before(next.Start)) {
			next = &outages[i]
		}
	}
	if next == nil {
		return Outage{}, false
	}
	return *next, true
}

// Expand converts the windows back into the half-hour grid of day.
func Expand(outages []Outage, day schedule.Day) [schedule.SlotsPerDay]schedule.State {
	var grid [schedule.SlotsPerDay]schedule.State
	for i := range grid {
		grid[i] = schedule.StateOn
		slot := day.SlotStart(i)
		for _, o := range outages {
			if o.Contains(slot) {
				grid[i] = schedule.StateOff
				break
			}
		}
	}
	return grid
}

// Event is an outage window rendered for calendar consumers.
type Event struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
}

// NewEvent renders o with local wall-clock times in loc.
func NewEvent(o Outage, title string, loc *time.Location) Event {
	if loc == nil {
		loc = o.Start.Location()
	}
	return Event{
		Start:       o.Start.UTC(),
		End:         o.End.UTC(),
		Summary:     fmt.Sprintf("%s: Power outage", title),
		Description: fmt.Sprintf("No electricity %s–%s", o.Start.In(loc).Format("15:04"), o.End.In(loc).Format("15:04")),
	}
}

// Events renders every window.
func Events(outages []Outage, title string, loc *time.Location) []Event {
	res := make([]Event, 0, len(outages))
	for _, o := range outages {
		res = append(res, NewEvent(o, title, loc))
	}
	return res
}
