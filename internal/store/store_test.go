package store

import (
	"errors"
	"testing"
	"time"

	"leadly/internal/crm"
)

func setTempHome(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("USERPROFILE", dir)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	setTempHome(t)
	s, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func TestCreateAppointmentAssignsDefaults(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.Local)

	app, err := s.CreateAppointment(crm.Appointment{
		Title: "Intro call",
		Start: start,
		End:   start.Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if app.ID == "" {
		t.Fatal("expected generated id")
	}
	if app.Source != crm.SourceLocal {
		t.Fatalf("expected local source, got %q", app.Source)
	}
	if app.Status != crm.StatusScheduled {
		t.Fatalf("expected scheduled status, got %q", app.Status)
	}
	if app.Type != crm.TypeMeeting {
		t.Fatalf("expected meeting type default, got %q", app.Type)
	}

	got, err := s.GetAppointment(app.ID)
	if err != nil {
		t.Fatalf("GetAppointment error: %v", err)
	}
	if got.Title != "Intro call" {
		t.Fatalf("unexpected title %q", got.Title)
	}
}

func TestCreateAppointmentRejectsInvertedSpan(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.Local)

	_, err := s.CreateAppointment(crm.Appointment{
		Title: "Backwards",
		Start: start,
		End:   start.Add(-time.Hour),
	})
	if !errors.Is(err, ErrInvalidTimeSpan) {
		t.Fatalf("expected ErrInvalidTimeSpan, got %v", err)
	}

	_, err = s.CreateAppointment(crm.Appointment{Title: "Zero", Start: start, End: start})
	if !errors.Is(err, ErrInvalidTimeSpan) {
		t.Fatalf("expected ErrInvalidTimeSpan for zero span, got %v", err)
	}
}

func TestListAppointmentsFiltersAndSorts(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.Local)

	for _, offset := range []time.Duration{72 * time.Hour, 24 * time.Hour, 48 * time.Hour, 30 * 24 * time.Hour} {
		start := base.Add(offset)
		if _, err := s.CreateAppointment(crm.Appointment{
			Title: "a",
			Start: start,
			End:   start.Add(time.Hour),
		}); err != nil {
			t.Fatalf("CreateAppointment error: %v", err)
		}
	}

	apps, err := s.ListAppointments(base, base.Add(7*24*time.Hour))
	if err != nil {
		t.Fatalf("ListAppointments error: %v", err)
	}
	if len(apps) != 3 {
		t.Fatalf("expected 3 appointments in range, got %d", len(apps))
	}
	for i := 1; i < len(apps); i++ {
		if apps[i].Start.Before(apps[i-1].Start) {
			t.Fatal("expected ascending order by start")
		}
	}
}

func TestUpdateAppointmentStatus(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.Local)

	app, err := s.CreateAppointment(crm.Appointment{Title: "Demo", Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}

	if err := s.UpdateAppointmentStatus(app.ID, crm.StatusNoShow); err != nil {
		t.Fatalf("UpdateAppointmentStatus error: %v", err)
	}

	got, err := s.GetAppointment(app.ID)
	if err != nil {
		t.Fatalf("GetAppointment error: %v", err)
	}
	if got.Status != crm.StatusNoShow {
		t.Fatalf("expected no-show, got %q", got.Status)
	}

	if err := s.UpdateAppointmentStatus("missing", crm.StatusCanceled); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNoShowAppointments(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.Local)

	missed, err := s.CreateAppointment(crm.Appointment{Title: "Missed", Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if _, err := s.CreateAppointment(crm.Appointment{Title: "Kept", Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour)}); err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if err := s.UpdateAppointmentStatus(missed.ID, crm.StatusNoShow); err != nil {
		t.Fatalf("UpdateAppointmentStatus error: %v", err)
	}

	noShows, err := s.NoShowAppointments()
	if err != nil {
		t.Fatalf("NoShowAppointments error: %v", err)
	}
	if len(noShows) != 1 || noShows[0].ID != missed.ID {
		t.Fatalf("expected only the missed appointment, got %#v", noShows)
	}
}

func TestLeadLifecycle(t *testing.T) {
	s := newTestStore(t)

	lead, err := s.CreateLead(crm.Lead{Name: "Ada Rossi", Company: "Rossi Srl", Value: 1200})
	if err != nil {
		t.Fatalf("CreateLead error: %v", err)
	}
	if lead.Status != crm.LeadNew {
		t.Fatalf("expected new status, got %q", lead.Status)
	}

	lead.Status = crm.LeadContacted
	if err := s.UpdateLead(lead); err != nil {
		t.Fatalf("UpdateLead error: %v", err)
	}

	got, err := s.GetLead(lead.ID)
	if err != nil {
		t.Fatalf("GetLead error: %v", err)
	}
	if got.Status != crm.LeadContacted {
		t.Fatalf("expected contacted, got %q", got.Status)
	}

	if err := s.UpdateLead(crm.Lead{ID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActivitiesFilterByLead(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AppendActivity(crm.Activity{Type: crm.ActivityNote, Title: "first", LeadID: "lead-1"}); err != nil {
		t.Fatalf("AppendActivity error: %v", err)
	}
	if _, err := s.AppendActivity(crm.Activity{Type: crm.ActivityWhatsApp, Title: "other", LeadID: "lead-2"}); err != nil {
		t.Fatalf("AppendActivity error: %v", err)
	}

	acts, err := s.ListActivities("lead-1")
	if err != nil {
		t.Fatalf("ListActivities error: %v", err)
	}
	if len(acts) != 1 || acts[0].Title != "first" {
		t.Fatalf("unexpected activities %#v", acts)
	}
}

func TestAcquireLockBlocksSecondHolder(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.AcquireLock()
	if err != nil {
		t.Fatalf("AcquireLock error: %v", err)
	}
	if !ok {
		t.Fatal("expected to acquire lock")
	}

	ok, err = s.AcquireLock()
	if err != nil {
		t.Fatalf("second AcquireLock error: %v", err)
	}
	if ok {
		t.Fatal("expected second acquire to fail while held")
	}

	if err := s.ReleaseLock(); err != nil {
		t.Fatalf("ReleaseLock error: %v", err)
	}

	ok, err = s.AcquireLock()
	if err != nil {
		t.Fatalf("AcquireLock after release error: %v", err)
	}
	if !ok {
		t.Fatal("expected to re-acquire after release")
	}
}
