package schedule

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of the day label in the published table.
const DateLayout = "02.01.2006"

// Table is one tokenized day table: its date label followed by the raw
// class attribute of each hour cell.
type Table struct {
	DateLabel string
	Cells     []string
}

// Document is everything extracted from a single fetch of the source.
type Document struct {
	Tables       []Table
	LastModified string
}

// Day is the parsed schedule of one calendar day.
type Day struct {
	// Date is local midnight of the day.
	Date      time.Time
	Hours     [HoursPerDay]HourClass
	HalfHours [SlotsPerDay]State
}

// ParseDay builds a Day from a date label and at least 24 hour cells.
// Cells beyond the 24th are ignored.
func ParseDay(dateLabel string, cells []string, loc *time.Location) (Day, error) {
	if loc == nil {
		loc = time.Local
	}
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(dateLabel), loc)
	if err != nil {
		return Day{}, fmt.Errorf("%w: date %q: %v", ErrFormat, dateLabel, err)
	}
	if len(cells) < HoursPerDay {
		return Day{}, fmt.Errorf("%w: %d hour cells for %s, need %d", ErrStructure, len(cells), dateLabel, HoursPerDay)
	}
	var classes [HoursPerDay]HourClass
	for i := range classes {
		classes[i] = ParseHourClass(cells[i])
	}
	return NewDay(date, classes), nil
}

// NewDay derives the half-hour grid for the given hour classes.
func NewDay(date time.Time, classes [HoursPerDay]HourClass) Day {
	d := Day{
		Date:  time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location()),
		Hours: classes,
	}
	for h, c := range classes {
		halves := c.Halves()
		d.HalfHours[2*h] = halves[0]
		d.HalfHours[2*h+1] = halves[1]
	}
	return d
}

// SameDate reports whether t falls on the day's calendar date in the day's
// location.
func (d Day) SameDate(t time.Time) bool {
	lt := t.In(d.Date.Location())
	y, m, dd := lt.Date()
	return y == d.Date.Year() && m == d.Date.Month() && dd == d.Date.Day()
}

// SlotStart returns the local instant at which slot idx begins. idx 48 is
// midnight of the following day.
func (d Day) SlotStart(idx int) time.Time {
	return time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), idx/2, (idx%2)*30, 0, 0, d.Date.Location())
}

// ISODate formats the date as YYYY-MM-DD.
func (d Day) ISODate() string { return d.Date.Format(time.DateOnly) }

// HourStrings returns the hour classes as plain strings.
func (d Day) HourStrings() []string {
	out := make([]string, len(d.Hours))
	for i, c := range d.Hours {
		out[i] = string(c)
	}
	return out
}

// HalfHourStrings returns the half-hour states as plain strings.
func (d Day) HalfHourStrings() []string {
	out := make([]string, len(d.HalfHours))
	for i, s := range d.HalfHours {
		out[i] = string(s)
	}
	return out
}
