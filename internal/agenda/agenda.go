// Package agenda shapes appointments into the calendar views: the month
// grid, the single-day agenda, and the merged local+external list backing
// both.
package agenda

import (
	"sort"
	"time"

	"leadly/internal/crm"
)

// DayCell is one cell of the month grid. Appointments holds every event on
// the cell's date; how many the screen shows is up to the renderer.
type DayCell struct {
	Date         time.Time
	InMonth      bool
	Today        bool
	Appointments []crm.Appointment
}

// Merge concatenates appointment lists. Order within each list is preserved
// and nothing is deduplicated; a local appointment that was also pushed to
// the external calendar appears twice.
func Merge(lists ...[]crm.Appointment) []crm.Appointment {
	var out []crm.Appointment
	for _, list := range lists {
		out = append(out, list...)
	}
	return out
}

// GridRange returns the inclusive date span the month grid for ref covers:
// the weekStart on or before the 1st through the day before the following
// weekStart after the last day of the month.
func GridRange(ref time.Time, weekStart time.Weekday) (time.Time, time.Time) {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	last := first.AddDate(0, 1, -1)

	from := first.AddDate(0, 0, -daysSince(first.Weekday(), weekStart))
	to := last.AddDate(0, 0, 6-daysSince(last.Weekday(), weekStart))
	return from, to
}

// daysSince counts days back from wd to the most recent weekStart.
func daysSince(wd, weekStart time.Weekday) int {
	return (int(wd) - int(weekStart) + 7) % 7
}

// BuildGrid lays out the month containing ref as full weeks. Every cell of
// every week is present, so the result is always a multiple of seven.
// Appointments land in the cell matching the local calendar date of their
// start; spans crossing midnight still bucket on the start date only.
func BuildGrid(ref time.Time, weekStart time.Weekday, apps []crm.Appointment) []DayCell {
	return buildGrid(ref, weekStart, time.Now(), apps)
}

func buildGrid(ref time.Time, weekStart time.Weekday, now time.Time, apps []crm.Appointment) []DayCell {
	from, to := GridRange(ref, weekStart)

	byDay := make(map[string][]crm.Appointment)
	for _, app := range apps {
		key := app.Start.Format("2006-01-02")
		byDay[key] = append(byDay[key], app)
	}

	var cells []DayCell
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		dayApps := byDay[day.Format("2006-01-02")]
		sortByStart(dayApps)
		cells = append(cells, DayCell{
			Date:         day,
			InMonth:      day.Month() == ref.Month(),
			Today:        sameDate(day, now),
			Appointments: dayApps,
		})
	}
	return cells
}

// ForDay returns the appointments on the given local date, ascending by
// start time. Equal starts keep their merge order.
func ForDay(date time.Time, apps []crm.Appointment) []crm.Appointment {
	var out []crm.Appointment
	for _, app := range apps {
		if app.OnDay(date) {
			out = append(out, app)
		}
	}
	sortByStart(out)
	return out
}

func sortByStart(apps []crm.Appointment) {
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].Start.Before(apps[j].Start)
	})
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
