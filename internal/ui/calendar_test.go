package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"leadly/internal/agenda"
	"leadly/internal/crm"
	"leadly/internal/store"
)

func setTempHome(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("USERPROFILE", dir)
}

type nopLocalSource struct{}

func (nopLocalSource) ListAppointments(from, to time.Time) ([]crm.Appointment, error) {
	return nil, nil
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// actionsApp builds a calendar model sitting on the actions modal with one
// local appointment selected.
func actionsApp(status crm.AppointmentStatus) *CalendarApp {
	day := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.Local)
	app := crm.Appointment{
		ID:     "a1",
		Source: crm.SourceLocal,
		Title:  "Kickoff",
		Start:  day.Add(10 * time.Hour),
		End:    day.Add(11 * time.Hour),
		Type:   crm.TypeMeeting,
		Status: status,
	}

	m := NewCalendarApp(nil, nil, time.Monday, "", nil)
	m.selectedDate = day
	m.result = &agenda.Result{Merged: []crm.Appointment{app}}
	m.view = viewActions
	return m
}

func TestActionKeysIgnoredWhileTransitionInFlight(t *testing.T) {
	m := actionsApp(crm.StatusScheduled)

	_, cmd := m.Update(keyPress('c'))
	if cmd == nil {
		t.Fatal("first status key should dispatch a transition")
	}
	if !m.statusBusy {
		t.Fatal("model should be busy after dispatching")
	}

	// A second keypress before the first result lands would transition
	// from a stale snapshot; it must be swallowed.
	if _, cmd := m.Update(keyPress('x')); cmd != nil {
		t.Fatal("status key accepted while a transition is in flight")
	}
	if _, cmd := m.Update(keyPress('n')); cmd != nil {
		t.Fatal("status key accepted while a transition is in flight")
	}

	// A failed transition re-enables input.
	m.Update(errMsg{errors.New("boom")})
	if m.statusBusy {
		t.Fatal("error should clear the busy flag")
	}
	if _, cmd := m.Update(keyPress('x')); cmd == nil {
		t.Fatal("status key should work again after the error")
	}
}

func TestStatusChangedClearsBusyFlag(t *testing.T) {
	m := actionsApp(crm.StatusScheduled)
	m.statusBusy = true

	// statusChangedMsg triggers a reload; a nil loader would panic, so a
	// real one backed by nothing is enough here.
	m.loader = agenda.NewLoader(nopLocalSource{}, nil)
	m.Update(statusChangedMsg{})
	if m.statusBusy {
		t.Fatal("status change should clear the busy flag")
	}
	if m.view != viewGrid {
		t.Fatal("status change should return to the grid")
	}
}

func TestStatusKeyMatchingCurrentStatusDoesNothing(t *testing.T) {
	m := actionsApp(crm.StatusCompleted)

	if _, cmd := m.Update(keyPress('c')); cmd != nil {
		t.Fatal("re-applying the current status should be a no-op")
	}
	if m.statusBusy {
		t.Fatal("no-op keypress should not mark the model busy")
	}

	// Other targets still work.
	if _, cmd := m.Update(keyPress('x')); cmd == nil {
		t.Fatal("a different status should still dispatch")
	}
}

func TestRenderActionsShowsSavingIndicatorWhileBusy(t *testing.T) {
	m := actionsApp(crm.StatusScheduled)

	if strings.Contains(m.View(), "Saving...") {
		t.Fatal("indicator shown while idle")
	}
	m.statusBusy = true
	if !strings.Contains(m.View(), "Saving...") {
		t.Fatal("indicator missing while a transition is in flight")
	}
}

func TestSaveAppointmentMirrorsToConnectedCalendar(t *testing.T) {
	setTempHome(t)
	st, err := store.New()
	if err != nil {
		t.Fatalf("store error: %v", err)
	}

	var pushed []crm.Appointment
	push := func(ctx context.Context, app crm.Appointment) error {
		pushed = append(pushed, app)
		return nil
	}

	m := NewCalendarApp(st, nil, time.Monday, "Google Calendar", push)
	m.selectedDate = time.Date(2026, time.March, 12, 0, 0, 0, 0, time.Local)
	m.initAddForm()
	m.form.title.SetValue("Demo with Anna")

	msg := m.saveAppointment()()
	created, ok := msg.(apptCreatedMsg)
	if !ok {
		t.Fatalf("got %T, want apptCreatedMsg", msg)
	}
	if created.pushErr != nil {
		t.Fatalf("unexpected push error: %v", created.pushErr)
	}

	if len(pushed) != 1 {
		t.Fatalf("pushed %d appointments, want 1", len(pushed))
	}
	if pushed[0].ID == "" || pushed[0].Title != "Demo with Anna" {
		t.Fatalf("pushed the wrong appointment: %+v", pushed[0])
	}
}

func TestSaveAppointmentKeepsLocalSaveWhenPushFails(t *testing.T) {
	setTempHome(t)
	st, err := store.New()
	if err != nil {
		t.Fatalf("store error: %v", err)
	}

	var pushedID string
	push := func(ctx context.Context, app crm.Appointment) error {
		pushedID = app.ID
		return errors.New("calendar unreachable")
	}

	m := NewCalendarApp(st, nil, time.Monday, "Google Calendar", push)
	m.selectedDate = time.Date(2026, time.March, 12, 0, 0, 0, 0, time.Local)
	m.initAddForm()
	m.form.title.SetValue("Demo with Anna")

	msg := m.saveAppointment()()
	created, ok := msg.(apptCreatedMsg)
	if !ok {
		t.Fatalf("got %T, want apptCreatedMsg", msg)
	}
	if created.pushErr == nil {
		t.Fatal("expected the push failure to surface")
	}

	// The local write must survive the failed mirror.
	if _, err := st.GetAppointment(pushedID); err != nil {
		t.Fatalf("appointment missing after push failure: %v", err)
	}
}
