package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadly/internal/crm"
)

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//leadly//test//EN
BEGIN:VEVENT
UID:timed-1
SUMMARY:Kickoff call
DTSTART:20260310T100000Z
DTEND:20260310T110000Z
END:VEVENT
BEGIN:VEVENT
UID:allday-1
SUMMARY:Trade fair
DTSTART;VALUE=DATE:20260312
DTEND;VALUE=DATE:20260313
END:VEVENT
BEGIN:VEVENT
UID:outside-1
SUMMARY:Next month
DTSTART:20260410T100000Z
DTEND:20260410T110000Z
END:VEVENT
BEGIN:VEVENT
UID:untitled-1
DTSTART:20260311T090000Z
DTEND:20260311T093000Z
END:VEVENT
END:VCALENDAR
`

func window() (time.Time, time.Time) {
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC)
	return from, to
}

func TestParseKeepsEventsInWindow(t *testing.T) {
	from, to := window()
	apps, err := Parse([]byte(sampleICS), from, to)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(apps) != 3 {
		t.Fatalf("expected 3 events in window, got %d", len(apps))
	}
	for _, app := range apps {
		if app.ID == "outside-1" {
			t.Fatalf("event outside window was not filtered")
		}
		if app.Source != crm.SourceExternal {
			t.Fatalf("event %s: source = %q, want external", app.ID, app.Source)
		}
		if app.LeadID != "" {
			t.Fatalf("event %s: feed events must not carry a lead id", app.ID)
		}
		if app.LeadName != SourceLabel {
			t.Fatalf("event %s: lead name = %q, want %q", app.ID, app.LeadName, SourceLabel)
		}
		if app.Status != crm.StatusScheduled {
			t.Fatalf("event %s: status = %q", app.ID, app.Status)
		}
	}
}

func TestParseFillsPlaceholderTitle(t *testing.T) {
	from, to := window()
	apps, err := Parse([]byte(sampleICS), from, to)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, app := range apps {
		if app.ID == "untitled-1" {
			if app.Title != crm.UntitledEvent {
				t.Fatalf("title = %q, want %q", app.Title, crm.UntitledEvent)
			}
			return
		}
	}
	t.Fatalf("untitled event missing from results")
}

func TestParseAllDayEvent(t *testing.T) {
	from, to := window()
	apps, err := Parse([]byte(sampleICS), from, to)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, app := range apps {
		if app.ID == "allday-1" {
			if app.Start.Day() != 12 || app.Start.Month() != time.March {
				t.Fatalf("all-day start = %v, want March 12", app.Start)
			}
			if !app.End.After(app.Start) {
				t.Fatalf("all-day end %v not after start %v", app.End, app.Start)
			}
			return
		}
	}
	t.Fatalf("all-day event missing from results")
}

func TestParseRejectsGarbage(t *testing.T) {
	from, to := window()
	if _, err := Parse([]byte("not a calendar"), from, to); err == nil {
		t.Fatalf("expected error for non-ICS payload")
	}
	if _, err := Parse(nil, from, to); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestParseSkipsEventWithoutUID(t *testing.T) {
	ics := "BEGIN:VCALENDAR\nVERSION:2.0\nPRODID:-//t//t//EN\n" +
		"BEGIN:VEVENT\nSUMMARY:No id\nDTSTART:20260310T100000Z\nEND:VEVENT\n" +
		"END:VCALENDAR\n"
	from, to := window()
	apps, err := Parse([]byte(ics), from, to)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(apps) != 0 {
		t.Fatalf("expected event without UID to be skipped, got %d", len(apps))
	}
}

func TestListEventsFetchesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	from, to := window()
	apps, err := NewClient().ListEvents(context.Background(), srv.URL, from, to)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(apps) != 3 {
		t.Fatalf("expected 3 events, got %d", len(apps))
	}
}

func TestListEventsTransportFailureIsGeneric(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	from, to := window()
	_, err := NewClient().ListEvents(context.Background(), srv.URL, from, to)
	if err == nil {
		t.Fatalf("expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("error should carry the status: %v", err)
	}
}

func TestListEventsRequiresURL(t *testing.T) {
	from, to := window()
	if _, err := NewClient().ListEvents(context.Background(), "", from, to); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
