package calendar

import (
	"fmt"
	"time"
)

// Weekdays are the grid column headers; weeks start on Monday.
var Weekdays = [7]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// View is the month currently shown by the picker. It moves independently of
// the selected date.
type View struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func ViewOf(d Date) View {
	return View{Year: d.Year, Month: d.Month}
}

func (v View) Next() View {
	if v.Month == time.December {
		return View{Year: v.Year + 1, Month: time.January}
	}
	return View{Year: v.Year, Month: v.Month + 1}
}

func (v View) Previous() View {
	if v.Month == time.January {
		return View{Year: v.Year - 1, Month: time.December}
	}
	return View{Year: v.Year, Month: v.Month - 1}
}

func (v View) Title() string {
	return fmt.Sprintf("%s %d", v.Month, v.Year)
}

// DaysInMonth uses day zero of the following month, which time.Date
// normalises to the last day of v.
func (v View) DaysInMonth() int {
	return time.Date(v.Year, v.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// LeadingBlanks is the number of empty cells before day 1 in a Monday-first week.
func (v View) LeadingBlanks() int {
	first := time.Date(v.Year, v.Month, 1, 0, 0, 0, 0, time.UTC).Weekday()
	return (int(first) + 6) % 7
}

// Cell is one square of the month grid. Blank cells pad the first week and
// carry Day == 0.
type Cell struct {
	Day      int  `json:"day,omitempty"`
	Blank    bool `json:"blank,omitempty"`
	Disabled bool `json:"disabled,omitempty"`
	Today    bool `json:"today,omitempty"`
	Selected bool `json:"selected,omitempty"`
}

type MonthGrid struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	Title    string     `json:"title"`
	Weekdays [7]string  `json:"weekdays"`
	Cells    []Cell     `json:"cells"`
}

// Grid lays out the month for display. A disabled day is never marked selected.
func (v View) Grid(today, selected Date) MonthGrid {
	g := MonthGrid{
		Year:     v.Year,
		Month:    v.Month,
		Title:    v.Title(),
		Weekdays: Weekdays,
	}
	blanks := v.LeadingBlanks()
	days := v.DaysInMonth()
	g.Cells = make([]Cell, 0, blanks+days)
	for i := 0; i < blanks; i++ {
		g.Cells = append(g.Cells, Cell{Blank: true})
	}
	for day := 1; day <= days; day++ {
		d := Date{Year: v.Year, Month: v.Month, Day: day}
		disabled := !Selectable(d, today)
		g.Cells = append(g.Cells, Cell{
			Day:      day,
			Disabled: disabled,
			Today:    d == today,
			Selected: !disabled && d == selected,
		})
	}
	return g
}

// Day returns the cell for a day of the month, or false if day is out of range.
func (g MonthGrid) Day(day int) (Cell, bool) {
	for _, c := range g.Cells {
		if !c.Blank && c.Day == day {
			return c, true
		}
	}
	return Cell{}, false
}
