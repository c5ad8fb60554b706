package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday
var refToday = Date{Year: 2026, Month: time.October, Day: 14}

func TestSelectable(t *testing.T) {
	tests := []struct {
		name string
		date Date
		want bool
	}{
		{"today weekday", refToday, true},
		{"yesterday", Date{2026, time.October, 13}, false},
		{"last year", Date{2025, time.October, 15}, false},
		{"friday", Date{2026, time.October, 16}, true},
		{"saturday", Date{2026, time.October, 17}, false},
		{"sunday", Date{2026, time.October, 18}, false},
		{"next monday", Date{2026, time.October, 19}, true},
		{"next year weekday", Date{2027, time.January, 1}, true},
		{"zero", Date{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Selectable(tt.date, refToday))
		})
	}
}

func TestGrid_PastAndWeekendsDisabledInEveryView(t *testing.T) {
	v := ViewOf(refToday).Previous().Previous()
	for i := 0; i < 18; i++ {
		g := v.Grid(refToday, Date{})
		for _, c := range g.Cells {
			if c.Blank {
				continue
			}
			d := Date{Year: v.Year, Month: v.Month, Day: c.Day}
			wd := d.Weekday()
			if d.Before(refToday) || wd == time.Saturday || wd == time.Sunday {
				assert.True(t, c.Disabled, "%s should be disabled", d)
			} else {
				assert.False(t, c.Disabled, "%s should be enabled", d)
			}
		}
		v = v.Next()
	}
}

func TestGrid_Layout(t *testing.T) {
	g := View{Year: 2026, Month: time.October}.Grid(refToday, Date{2026, time.October, 19})

	assert.Equal(t, "October 2026", g.Title)
	assert.Equal(t, [7]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}, g.Weekdays)
	// October 1st 2026 is a Thursday.
	require.Len(t, g.Cells, 3+31)
	for i := 0; i < 3; i++ {
		assert.True(t, g.Cells[i].Blank)
	}
	assert.Equal(t, 1, g.Cells[3].Day)

	today, ok := g.Day(14)
	require.True(t, ok)
	assert.True(t, today.Today)

	sel, ok := g.Day(19)
	require.True(t, ok)
	assert.True(t, sel.Selected)

	_, ok = g.Day(32)
	assert.False(t, ok)
}

func TestGrid_DisabledDayNeverSelected(t *testing.T) {
	g := View{Year: 2026, Month: time.October}.Grid(refToday, Date{2026, time.October, 17})
	c, ok := g.Day(17)
	require.True(t, ok)
	assert.True(t, c.Disabled)
	assert.False(t, c.Selected)
}

func TestView_LeadingBlanksAndLength(t *testing.T) {
	tests := []struct {
		view   View
		blanks int
		days   int
	}{
		{View{2026, time.February}, 6, 28}, // starts on Sunday
		{View{2024, time.February}, 3, 29},
		{View{2026, time.December}, 1, 31},
		{View{2027, time.January}, 4, 31},
	}
	for _, tt := range tests {
		t.Run(tt.view.Title(), func(t *testing.T) {
			assert.Equal(t, tt.blanks, tt.view.LeadingBlanks())
			assert.Equal(t, tt.days, tt.view.DaysInMonth())
		})
	}
}

func TestView_Rollover(t *testing.T) {
	assert.Equal(t, View{2027, time.January}, View{2026, time.December}.Next())
	assert.Equal(t, View{2025, time.December}, View{2026, time.January}.Previous())
	assert.Equal(t, View{2026, time.November}, View{2026, time.October}.Next())
	assert.Equal(t, View{2026, time.September}, View{2026, time.October}.Previous())
}

func TestToday_UsesLocation(t *testing.T) {
	now := time.Date(2026, time.October, 15, 2, 30, 0, 0, time.UTC)
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	assert.Equal(t, Date{2026, time.October, 15}, Today(now, time.UTC))
	assert.Equal(t, Date{2026, time.October, 14}, Today(now, ny))
}

func TestSlots(t *testing.T) {
	slots := Slots()
	require.Len(t, slots, 17)
	assert.Equal(t, "9:00 AM", slots[0].String())
	assert.Equal(t, "12:00 PM", slots[6].String())
	assert.Equal(t, "5:00 PM", slots[16].String())

	s, err := ParseSlot("10:00 am")
	require.NoError(t, err)
	assert.Equal(t, Slot(3), s)

	_, err = ParseSlot("5:30 PM")
	assert.Error(t, err)
	assert.False(t, Slot(0).Valid())
	assert.Equal(t, "", Slot(0).String())

	start := s.StartOn(Date{2026, time.October, 19}, time.UTC)
	assert.Equal(t, time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC), start)
}

func TestFormat(t *testing.T) {
	d := Date{2026, time.October, 19}
	assert.Equal(t, "Mon, Oct 19", FormatShort(d))
	assert.Equal(t, "Monday, October 19, 2026", FormatLong(d))
	assert.Equal(t, "2026-10-19", d.String())

	parsed, err := ParseDate("2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseDate("19/10/2026")
	assert.Error(t, err)
}
