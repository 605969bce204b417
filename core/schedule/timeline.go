package schedule

import (
	"fmt"
	"time"
)

// Timeline is today's schedule and, once published, tomorrow's.
type Timeline struct {
	Today    Day
	Tomorrow *Day
}

// Location returns the zone the timeline is anchored in.
func (t Timeline) Location() *time.Location { return t.Today.Date.Location() }

// ParseSchedule parses today's table and the optional tomorrow table.
// Tables beyond the second are ignored.
func ParseSchedule(tables []Table, loc *time.Location) (Timeline, error) {
	if len(tables) == 0 {
		return Timeline{}, fmt.Errorf("%w: no day tables", ErrStructure)
	}
	today, err := ParseDay(tables[0].DateLabel, tables[0].Cells, loc)
	if err != nil {
		return Timeline{}, fmt.Errorf("today: %w", err)
	}
	tl := Timeline{Today: today}
	if len(tables) > 1 {
		tomorrow, err := ParseDay(tables[1].DateLabel, tables[1].Cells, loc)
		if err != nil {
			return Timeline{}, fmt.Errorf("tomorrow: %w", err)
		}
		tl.Tomorrow = &tomorrow
	}
	return tl, nil
}
