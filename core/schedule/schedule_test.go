package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kyiv = time.FixedZone("EET", 2*3600)

func cells(classes ...string) []string {
	out := make([]string, 0, HoursPerDay)
	out = append(out, classes...)
	for len(out) < HoursPerDay {
		out = append(out, "on")
	}
	return out
}

func TestHalvesMapping(t *testing.T) {
	cases := map[HourClass][2]State{
		ClassOn:  {StateOn, StateOn},
		ClassOff: {StateOff, StateOff},
		ClassF4:  {StateOff, StateOn},
		ClassF5:  {StateOn, StateOff},
		"weird":  {StateOn, StateOn},
	}
	for c, want := range cases {
		assert.Equal(t, want, c.Halves(), "class %s", c)
	}
}

func TestParseHourClass(t *testing.T) {
	assert.Equal(t, ClassOff, ParseHourClass("off"))
	assert.Equal(t, ClassF4, ParseHourClass("cell F4 wide"))
	assert.Equal(t, ClassF5, ParseHourClass("x f5 off"))
	assert.Equal(t, ClassOn, ParseHourClass(""))
	assert.Equal(t, ClassOn, ParseHourClass("grey maybe"))
}

func TestParseDayGridMatchesClasses(t *testing.T) {
	all := []string{"on", "off", "f4", "f5"}
	in := make([]string, HoursPerDay)
	for i := range in {
		in[i] = all[(i*7+3)%4]
	}
	d, err := ParseDay("14.10.2026", in, kyiv)
	require.NoError(t, err)
	require.Len(t, d.HalfHours, SlotsPerDay)
	for h, c := range d.Hours {
		halves := c.Halves()
		assert.Equal(t, halves[0], d.HalfHours[2*h])
		assert.Equal(t, halves[1], d.HalfHours[2*h+1])
	}
}

func TestParseDayExample(t *testing.T) {
	d, err := ParseDay("14.10.2026", cells("off", "on", "on", "on", "on", "f4"), kyiv)
	require.NoError(t, err)
	assert.Equal(t, StateOff, d.HalfHours[0])
	assert.Equal(t, StateOff, d.HalfHours[1])
	assert.Equal(t, StateOff, d.HalfHours[10])
	assert.Equal(t, StateOn, d.HalfHours[11])
	assert.Equal(t, "2026-10-14", d.ISODate())
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, kyiv), d.Date)
}

func TestParseDayExtraCellsIgnored(t *testing.T) {
	in := append(cells(), "off", "off")
	d, err := ParseDay("14.10.2026", in, kyiv)
	require.NoError(t, err)
	for _, s := range d.HalfHours {
		assert.Equal(t, StateOn, s)
	}
}

func TestParseDayErrors(t *testing.T) {
	_, err := ParseDay("2026-10-14", cells(), kyiv)
	assert.True(t, errors.Is(err, ErrFormat))

	_, err = ParseDay("14.10.2026", []string{"on", "off"}, kyiv)
	assert.True(t, errors.Is(err, ErrStructure))
}

func TestParseSchedule(t *testing.T) {
	_, err := ParseSchedule(nil, kyiv)
	assert.ErrorIs(t, err, ErrStructure)

	tl, err := ParseSchedule([]Table{{DateLabel: "14.10.2026", Cells: cells()}}, kyiv)
	require.NoError(t, err)
	assert.Nil(t, tl.Tomorrow)

	tl, err = ParseSchedule([]Table{
		{DateLabel: " 14.10.2026 ", Cells: cells()},
		{DateLabel: "15.10.2026", Cells: cells("off")},
	}, kyiv)
	require.NoError(t, err)
	require.NotNil(t, tl.Tomorrow)
	assert.Equal(t, "2026-10-15", tl.Tomorrow.ISODate())
	assert.Equal(t, StateOff, tl.Tomorrow.HalfHours[0])

	_, err = ParseSchedule([]Table{
		{DateLabel: "14.10.2026", Cells: cells()},
		{DateLabel: "bad", Cells: cells()},
	}, kyiv)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSlotStartAndSameDate(t *testing.T) {
	d := NewDay(time.Date(2026, 10, 14, 13, 0, 0, 0, kyiv), [HoursPerDay]HourClass{})
	assert.Equal(t, time.Date(2026, 10, 14, 10, 30, 0, 0, kyiv), d.SlotStart(21))
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, kyiv), d.SlotStart(SlotsPerDay))
	assert.True(t, d.SameDate(time.Date(2026, 10, 14, 23, 59, 0, 0, kyiv)))
	// 22:30 UTC on the 14th is already the 15th in EET.
	assert.False(t, d.SameDate(time.Date(2026, 10, 14, 22, 30, 0, 0, time.UTC)))
}
