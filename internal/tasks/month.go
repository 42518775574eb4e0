package tasks

import (
	"sort"
	"time"
)

// FilterMonth returns the dates of cal that fall in year and month, in
// calendar order of cal. Keys that are not valid dates are skipped.
func FilterMonth(cal *Calendar, year, month int) *Calendar {
	out := NewCalendar()
	for _, d := range cal.Days() {
		t, err := ParseDate(d.Date)
		if err != nil {
			continue
		}
		if t.Year() == year && int(t.Month()) == month {
			list := make([]Task, len(d.Tasks))
			copy(list, d.Tasks)
			out.Set(d.Date, list)
		}
	}
	return out
}

// SortedDays returns the days of cal ordered by date key.
func SortedDays(cal *Calendar) []Day {
	days := append([]Day(nil), cal.Days()...)
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
	return days
}

// Week is one row of a month grid, Sunday first. Zero marks a day outside the month.
type Week [7]int

// MonthGrid lays out the days of a month in Sunday-first weeks.
func MonthGrid(year int, month time.Month) []Week {
	first := time.Date(year, month, 1, 12, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	var weeks []Week
	var week Week
	col := int(first.Weekday())
	for day := 1; day <= days; day++ {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = Week{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}
