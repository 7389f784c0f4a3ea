package agenda

import (
	"testing"
	"time"

	"leadly/internal/crm"
)

func app(id string, start time.Time) crm.Appointment {
	return crm.Appointment{
		ID:     id,
		Source: crm.SourceLocal,
		Title:  "test",
		Start:  start,
		End:    start.Add(time.Hour),
		Type:   crm.TypeMeeting,
		Status: crm.StatusScheduled,
	}
}

func TestGridRangeCoversFullWeeks(t *testing.T) {
	// March 2026: the 1st is a Sunday, the 31st a Tuesday.
	ref := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	from, to := GridRange(ref, time.Monday)

	if from.Weekday() != time.Monday {
		t.Fatalf("range starts on %v, want Monday", from.Weekday())
	}
	if got := from.Format("2006-01-02"); got != "2026-02-23" {
		t.Fatalf("from = %s, want 2026-02-23", got)
	}
	if got := to.Format("2006-01-02"); got != "2026-04-05" {
		t.Fatalf("to = %s, want 2026-04-05", got)
	}
}

func TestBuildGridCellCountIsMultipleOfSeven(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		ref := time.Date(2026, month, 10, 0, 0, 0, 0, time.UTC)
		cells := BuildGrid(ref, time.Monday, nil)
		if len(cells)%7 != 0 {
			t.Fatalf("%v: %d cells, not a multiple of 7", month, len(cells))
		}
		if len(cells) < 28 || len(cells) > 42 {
			t.Fatalf("%v: %d cells out of range", month, len(cells))
		}
	}
}

func TestBuildGridMarksMonthMembership(t *testing.T) {
	ref := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	cells := BuildGrid(ref, time.Monday, nil)

	inMonth := 0
	for _, c := range cells {
		if c.InMonth {
			inMonth++
			if c.Date.Month() != time.March {
				t.Fatalf("cell %v marked in month", c.Date)
			}
		}
	}
	if inMonth != 31 {
		t.Fatalf("%d in-month cells, want 31", inMonth)
	}
}

func TestBuildGridBucketsByStartDateOnly(t *testing.T) {
	// Spans midnight into the 11th but belongs to the 10th.
	start := time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC)
	late := app("late", start)
	late.End = start.Add(2 * time.Hour)

	ref := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	cells := buildGrid(ref, time.Monday, time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC), []crm.Appointment{late})

	found := 0
	for _, c := range cells {
		for _, a := range c.Appointments {
			if a.ID != "late" {
				continue
			}
			found++
			if c.Date.Day() != 10 {
				t.Fatalf("bucketed on day %d, want 10", c.Date.Day())
			}
		}
	}
	if found != 1 {
		t.Fatalf("appointment appeared in %d cells, want exactly 1", found)
	}
}

func TestBuildGridNeverDropsAppointments(t *testing.T) {
	day := time.Date(2026, time.March, 12, 9, 0, 0, 0, time.UTC)
	var apps []crm.Appointment
	for i := 0; i < 8; i++ {
		apps = append(apps, app(string(rune('a'+i)), day.Add(time.Duration(i)*time.Hour)))
	}

	cells := BuildGrid(day, time.Monday, apps)
	for _, c := range cells {
		if c.Date.Day() == 12 && c.Date.Month() == time.March {
			if len(c.Appointments) != 8 {
				t.Fatalf("cell holds %d appointments, want all 8", len(c.Appointments))
			}
			return
		}
	}
	t.Fatalf("day cell not found")
}

func TestBuildGridMarksToday(t *testing.T) {
	now := time.Date(2026, time.March, 18, 15, 4, 0, 0, time.UTC)
	cells := buildGrid(now, time.Monday, now, nil)

	count := 0
	for _, c := range cells {
		if c.Today {
			count++
			if c.Date.Day() != 18 {
				t.Fatalf("today marked on day %d", c.Date.Day())
			}
		}
	}
	if count != 1 {
		t.Fatalf("%d cells marked today, want 1", count)
	}
}

func TestBuildGridSundayWeekStart(t *testing.T) {
	ref := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	cells := BuildGrid(ref, time.Sunday, nil)
	if cells[0].Date.Weekday() != time.Sunday {
		t.Fatalf("grid starts on %v, want Sunday", cells[0].Date.Weekday())
	}
	if cells[0].Date.Day() != 1 {
		// March 1st 2026 is a Sunday, so the grid starts on it exactly.
		t.Fatalf("grid starts on day %d, want 1", cells[0].Date.Day())
	}
}

func TestForDaySortsAscendingAndStable(t *testing.T) {
	day := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)
	nine := day.Add(9 * time.Hour)
	apps := []crm.Appointment{
		app("third", day.Add(14*time.Hour)),
		app("first", nine),
		app("other-day", day.AddDate(0, 0, 1)),
		app("second", nine),
	}

	got := ForDay(day, apps)
	if len(got) != 3 {
		t.Fatalf("got %d appointments, want 3", len(got))
	}
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestForDayMergesLocalAndExternalSources(t *testing.T) {
	day := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)

	ext := func(id string, start time.Time) crm.Appointment {
		a := app(id, start)
		a.Source = crm.SourceExternal
		return a
	}

	local := []crm.Appointment{
		app("local-nine", day.Add(9*time.Hour)),
		app("local-sixteen", day.Add(16*time.Hour)),
	}
	external := []crm.Appointment{
		ext("ext-eight", day.Add(8*time.Hour)),
		ext("ext-twelve", day.Add(12*time.Hour)),
		ext("ext-fourteen", day.Add(14*time.Hour)),
	}

	got := ForDay(day, Merge(local, external))
	if len(got) != 5 {
		t.Fatalf("got %d appointments, want 5", len(got))
	}
	want := []string{"ext-eight", "local-nine", "ext-twelve", "ext-fourteen", "local-sixteen"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestMergeKeepsEverything(t *testing.T) {
	local := []crm.Appointment{app("l1", time.Now()), app("l2", time.Now())}
	external := []crm.Appointment{app("e1", time.Now())}

	merged := Merge(local, external)
	if len(merged) != 3 {
		t.Fatalf("merged %d, want 3", len(merged))
	}
	// No dedup even for identical ids across sources.
	dup := Merge(local, local)
	if len(dup) != 4 {
		t.Fatalf("merged %d, want 4 without dedup", len(dup))
	}
}
