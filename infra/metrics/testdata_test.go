package metrics

import (
	"time"

	"github.com/kilianp07/svitlo/core/events"
	"github.com/kilianp07/svitlo/core/status"
)

var eventTime = time.Date(2026, 10, 14, 7, 15, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func sampleStatus() events.StatusEvent {
	return events.StatusEvent{
		Status: status.Status{
			Region:           "kyiv",
			Queue:            "4.1",
			Date:             "2026-10-14",
			NowStatus:        "on",
			NowHalfHourIndex: 20,
			NextOffAt:        strPtr("2026-10-14T08:00:00Z"),
		},
		Trigger: events.TriggerPrecise,
		Time:    eventTime,
	}
}
