package noshow

import (
	"errors"
	"math"
	"testing"
	"time"

	"leadly/internal/crm"
	"leadly/internal/store"
)

type fakeSource struct {
	apps  []crm.Appointment
	leads map[string]*crm.Lead
}

func (f *fakeSource) Appointments() ([]crm.Appointment, error) {
	return f.apps, nil
}

func (f *fakeSource) NoShowAppointments() ([]crm.Appointment, error) {
	var out []crm.Appointment
	for _, a := range f.apps {
		if a.Status == crm.StatusNoShow {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeSource) GetLead(id string) (crm.Lead, error) {
	if l, ok := f.leads[id]; ok {
		return *l, nil
	}
	return crm.Lead{}, store.ErrNotFound
}

func apptAt(id string, day int, status crm.AppointmentStatus, leadID string) crm.Appointment {
	return crm.Appointment{
		ID:     id,
		Source: crm.SourceLocal,
		Title:  "slot",
		Start:  time.Date(2026, time.March, day, 10, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.March, day, 11, 0, 0, 0, time.UTC),
		Type:   crm.TypeMeeting,
		Status: status,
		LeadID: leadID,
	}
}

func TestBuildJoinsLeadsAndComputesStats(t *testing.T) {
	src := &fakeSource{
		apps: []crm.Appointment{
			apptAt("a1", 2, crm.StatusCompleted, "lead-1"),
			apptAt("a2", 3, crm.StatusNoShow, "lead-1"),
			apptAt("a3", 5, crm.StatusNoShow, "lead-2"),
			apptAt("a4", 8, crm.StatusScheduled, ""),
		},
		leads: map[string]*crm.Lead{
			"lead-1": {ID: "lead-1", Name: "Anna", Status: crm.LeadContacted, Value: 500},
			"lead-2": {ID: "lead-2", Name: "Bo", Status: crm.LeadNegotiating, Value: 1200},
		},
	}

	board, err := Build(src)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if board.Stats.Total != 2 {
		t.Fatalf("total = %d, want 2", board.Stats.Total)
	}
	if math.Abs(board.Stats.Rate-0.5) > 1e-9 {
		t.Fatalf("rate = %v, want 0.5", board.Stats.Rate)
	}
	if board.Stats.RevenueAtRisk != 1700 {
		t.Fatalf("revenue at risk = %v, want 1700", board.Stats.RevenueAtRisk)
	}
	// Newest miss first.
	if board.Entries[0].Appointment.ID != "a3" {
		t.Fatalf("first entry = %s, want a3", board.Entries[0].Appointment.ID)
	}
	if board.Entries[1].Lead == nil || board.Entries[1].Lead.Name != "Anna" {
		t.Fatalf("lead not joined onto entry")
	}
}

func TestBuildCountsRecoveredByRebooking(t *testing.T) {
	src := &fakeSource{
		apps: []crm.Appointment{
			apptAt("missed", 3, crm.StatusNoShow, "lead-1"),
			apptAt("rebooked", 10, crm.StatusScheduled, "lead-1"),
		},
		leads: map[string]*crm.Lead{
			"lead-1": {ID: "lead-1", Status: crm.LeadContacted, Value: 900},
		},
	}

	board, err := Build(src)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if board.Stats.Recovered != 1 {
		t.Fatalf("recovered = %d, want 1", board.Stats.Recovered)
	}
	if board.Stats.RevenueAtRisk != 0 {
		t.Fatalf("recovered lead still counted at risk: %v", board.Stats.RevenueAtRisk)
	}
	if !board.Entries[0].Recovered {
		t.Fatalf("entry not marked recovered")
	}
}

func TestBuildCountsRecoveredByWonLead(t *testing.T) {
	src := &fakeSource{
		apps: []crm.Appointment{
			apptAt("missed", 3, crm.StatusNoShow, "lead-1"),
		},
		leads: map[string]*crm.Lead{
			"lead-1": {ID: "lead-1", Status: crm.LeadWon, Value: 900},
		},
	}

	board, err := Build(src)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if board.Stats.Recovered != 1 {
		t.Fatalf("recovered = %d, want 1", board.Stats.Recovered)
	}
}

func TestBuildToleratesMissingLead(t *testing.T) {
	src := &fakeSource{
		apps: []crm.Appointment{
			apptAt("missed", 3, crm.StatusNoShow, "gone"),
		},
		leads: map[string]*crm.Lead{},
	}

	board, err := Build(src)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if board.Entries[0].Lead != nil {
		t.Fatalf("expected nil lead for deleted lead id")
	}
}

type recordingWriter struct {
	id     string
	status crm.AppointmentStatus
}

func (r *recordingWriter) UpdateAppointmentStatus(id string, status crm.AppointmentStatus) error {
	r.id = id
	r.status = status
	return nil
}

func TestArchiveCancelsMissedAppointment(t *testing.T) {
	w := &recordingWriter{}
	missed := apptAt("missed", 3, crm.StatusNoShow, "lead-1")

	if err := Archive(w, missed); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if w.id != "missed" || w.status != crm.StatusCanceled {
		t.Fatalf("wrote (%s, %s), want (missed, canceled)", w.id, w.status)
	}
}

func TestArchiveRejectsNonMissed(t *testing.T) {
	w := &recordingWriter{}
	if err := Archive(w, apptAt("ok", 3, crm.StatusScheduled, "")); err == nil {
		t.Fatalf("expected error archiving a scheduled appointment")
	}
	if w.id != "" {
		t.Fatalf("store written despite rejection")
	}
}

type recordingCreator struct {
	created *crm.Appointment
	err     error
}

func (r *recordingCreator) CreateAppointment(app crm.Appointment) (crm.Appointment, error) {
	if r.err != nil {
		return crm.Appointment{}, r.err
	}
	app.ID = "new-id"
	r.created = &app
	return app, nil
}

func TestRebookCarriesLeadForward(t *testing.T) {
	c := &recordingCreator{}
	missed := apptAt("missed", 3, crm.StatusNoShow, "lead-1")
	missed.LeadName = "Anna"

	slot := Reschedule{
		Start: time.Date(2026, time.March, 20, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.March, 20, 11, 0, 0, 0, time.UTC),
	}
	app, err := Rebook(c, missed, slot)
	if err != nil {
		t.Fatalf("Rebook: %v", err)
	}
	if app.LeadID != "lead-1" || app.LeadName != "Anna" {
		t.Fatalf("lead not carried onto new appointment: %+v", app)
	}
	if app.Title != missed.Title {
		t.Fatalf("title = %q, want inherited %q", app.Title, missed.Title)
	}
	if c.created == nil {
		t.Fatalf("appointment not created")
	}
}

func TestRebookRejectsNonMissed(t *testing.T) {
	c := &recordingCreator{}
	if _, err := Rebook(c, apptAt("ok", 3, crm.StatusCompleted, ""), Reschedule{}); err == nil {
		t.Fatalf("expected error rebooking a completed appointment")
	}
}

func TestRebookPropagatesCreateFailure(t *testing.T) {
	c := &recordingCreator{err: errors.New("disk full")}
	missed := apptAt("missed", 3, crm.StatusNoShow, "lead-1")
	if _, err := Rebook(c, missed, Reschedule{}); err == nil {
		t.Fatalf("expected create failure to propagate")
	}
}
