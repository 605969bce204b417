// Package status builds the outbound status record consumed by publishers
// and the HTTP API.
package status

import (
	"time"

	"github.com/kilianp07/svitlo/core/schedule"
	"github.com/kilianp07/svitlo/core/transition"
)

// Meta carries the poll metadata copied verbatim into every status built
// from the same snapshot.
type Meta struct {
	Region       string
	Queue        string
	PolledAt     time.Time
	SourceURL    string
	LastModified string
}

// Status is the current view of a queue's schedule.
type Status struct {
	Region             string   `json:"region" yaml:"region"`
	Queue              string   `json:"queue" yaml:"queue"`
	Date               string   `json:"date" yaml:"date"`
	NowStatus          string   `json:"now_status" yaml:"now_status"`
	NowHalfHourIndex   int      `json:"now_halfhour_index" yaml:"now_halfhour_index"`
	NextChangeAt       *string  `json:"next_change_at" yaml:"next_change_at"`
	Today24hClasses    []string `json:"today_24h_classes" yaml:"today_24h_classes"`
	Today48Half        []string `json:"today_48half" yaml:"today_48half"`
	TomorrowDate       string   `json:"tomorrow_date,omitempty" yaml:"tomorrow_date,omitempty"`
	Tomorrow24hClasses []string `json:"tomorrow_24h_classes,omitempty" yaml:"tomorrow_24h_classes,omitempty"`
	Tomorrow48Half     []string `json:"tomorrow_48half,omitempty" yaml:"tomorrow_48half,omitempty"`
	// Updated is the time of the last successful poll, not of this record.
	Updated            string  `json:"updated" yaml:"updated"`
	Source             string  `json:"source" yaml:"source"`
	SourceLastModified *string `json:"source_last_modified" yaml:"source_last_modified"`
	NextOnAt           *string `json:"next_on_at" yaml:"next_on_at"`
	NextOffAt          *string `json:"next_off_at" yaml:"next_off_at"`
}

// Build derives the status of tl at now.
func Build(tl schedule.Timeline, now time.Time, meta Meta) Status {
	snap := transition.Compute(tl, now)
	st := Status{
		Region:           meta.Region,
		Queue:            meta.Queue,
		Date:             tl.Today.ISODate(),
		NowStatus:        string(snap.State),
		NowHalfHourIndex: snap.Slot,
		Today24hClasses:  tl.Today.HourStrings(),
		Today48Half:      tl.Today.HalfHourStrings(),
		Updated:          FormatInstant(meta.PolledAt),
		Source:           meta.SourceURL,
	}
	if snap.NextChangeAt != "" {
		st.NextChangeAt = &snap.NextChangeAt
	}
	if meta.LastModified != "" {
		lm := meta.LastModified
		st.SourceLastModified = &lm
	}
	if snap.NextOn != nil {
		s := FormatInstant(*snap.NextOn)
		st.NextOnAt = &s
	}
	if snap.NextOff != nil {
		s := FormatInstant(*snap.NextOff)
		st.NextOffAt = &s
	}
	if tl.Tomorrow != nil {
		st.TomorrowDate = tl.Tomorrow.ISODate()
		st.Tomorrow24hClasses = tl.Tomorrow.HourStrings()
		st.Tomorrow48Half = tl.Tomorrow.HalfHourStrings()
	}
	return st
}

// FormatInstant renders t as second precision RFC 3339 in UTC.
func FormatInstant(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// IsOn reports whether the power is currently on.
func (s Status) IsOn() bool { return s.NowStatus == string(schedule.StateOn) }

// NextOn parses NextOnAt.
func (s Status) NextOn() (time.Time, bool) { return parseInstant(s.NextOnAt) }

// NextOff parses NextOffAt.
func (s Status) NextOff() (time.Time, bool) { return parseInstant(s.NextOffAt) }

func parseInstant(p *string) (time.Time, bool) {
	if p == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, *p)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
