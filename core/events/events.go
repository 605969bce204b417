package events

import (
	"time"

	"github.com/kilianp07/svitlo/core/status"
)

// Trigger names what produced a status update.
type Trigger string

const (
	TriggerPoll    Trigger = "poll"
	TriggerPrecise Trigger = "precise"
)

// StatusEvent carries a freshly computed status.
type StatusEvent struct {
	Status  status.Status
	Trigger Trigger
	Time    time.Time
}

// PollEvent is published after every poll attempt.
type PollEvent struct {
	Region   string
	Queue    string
	Success  bool
	Err      error
	Duration time.Duration
	// Outages is the number of outage windows today and tomorrow.
	OutagesToday    int
	OutagesTomorrow int
	Time            time.Time
}
