package metrics

import "github.com/kilianp07/svitlo/core/events"

// StatusSink records every computed status.
type StatusSink interface {
	RecordStatus(ev events.StatusEvent) error
}

// PollRecorder is implemented by sinks that track poll outcomes.
type PollRecorder interface {
	RecordPoll(ev events.PollEvent) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordStatus(events.StatusEvent) error { return nil }
func (NopSink) RecordPoll(events.PollEvent) error     { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []StatusSink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...StatusSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStatus forwards to every sink and returns the first error. Later
// sinks still receive the record.
func (m *MultiSink) RecordStatus(ev events.StatusEvent) error {
	var first error
	for _, s := range m.Sinks {
		if err := s.RecordStatus(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RecordPoll forwards to the sinks implementing PollRecorder.
func (m *MultiSink) RecordPoll(ev events.PollEvent) error {
	var first error
	for _, s := range m.Sinks {
		rec, ok := s.(PollRecorder)
		if !ok {
			continue
		}
		if err := rec.RecordPoll(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
