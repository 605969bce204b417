package schedule

import "strings"

// HourClass is the raw status code published for one calendar hour.
type HourClass string

const (
	ClassOn  HourClass = "on"
	ClassOff HourClass = "off"
	ClassF4  HourClass = "f4"
	ClassF5  HourClass = "f5"
)

// State is the power state of a half-hour slot.
type State string

const (
	StateOn  State = "on"
	StateOff State = "off"
)

// HoursPerDay and SlotsPerDay are fixed by the published table layout.
const (
	HoursPerDay = 24
	SlotsPerDay = 48
)

// Halves returns the two half-hour states covered by the class.
// Unknown classes are treated as fully powered.
func (c HourClass) Halves() [2]State {
	switch c {
	case ClassOff:
		return [2]State{StateOff, StateOff}
	case ClassF4:
		return [2]State{StateOff, StateOn}
	case ClassF5:
		return [2]State{StateOn, StateOff}
	default:
		return [2]State{StateOn, StateOn}
	}
}

// Valid reports whether c is one of the four published codes.
func (c HourClass) Valid() bool {
	switch c {
	case ClassOn, ClassOff, ClassF4, ClassF5:
		return true
	}
	return false
}

// ParseHourClass extracts the hour class from a cell's class attribute.
// The attribute may list several space separated classes; the first known
// code wins. A cell without a known code fails open to ClassOn.
func ParseHourClass(cell string) HourClass {
	for _, f := range strings.Fields(cell) {
		c := HourClass(strings.ToLower(f))
		if c.Valid() {
			return c
		}
	}
	return ClassOn
}
