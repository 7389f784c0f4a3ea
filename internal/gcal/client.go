package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"leadly/internal/crm"
)

const eventsURL = "https://www.googleapis.com/calendar/v3/calendars/primary/events"

// ErrAuthDegraded means the credential was presented but rejected (expired or
// revoked token). It is distinct from a transport failure: the fix is to
// reconnect, not to retry.
var ErrAuthDegraded = errors.New("google calendar credential rejected")

// SourceLabel is shown in place of a lead name for synced events.
const SourceLabel = "Google Calendar"

// Event is the subset of the Google Calendar v3 event resource we consume.
type Event struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary"`
	Start   eventTime `json:"start"`
	End     eventTime `json:"end"`
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
	TimeZone string `json:"timeZone"`
}

// Client talks to the Google Calendar REST API with a caller-supplied bearer
// token. Token acquisition and refresh happen elsewhere; the client only
// consumes a credential and classifies the outcome.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a calendar client with a bounded request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    eventsURL,
	}
}

// ListEvents fetches single events overlapping [from, to] from the primary
// calendar. A 401/403 returns ErrAuthDegraded; any other failure is a generic
// sync error. The caller decides what an absent token means; this method
// requires one.
func (c *Client) ListEvents(ctx context.Context, token string, from, to time.Time) ([]crm.Appointment, error) {
	if token == "" {
		return nil, errors.New("missing access token")
	}

	q := url.Values{}
	q.Set("timeMin", from.UTC().Format(time.RFC3339))
	q.Set("timeMax", to.UTC().Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrAuthDegraded
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("google calendar returned %s", resp.Status)
	}

	var payload struct {
		Items []Event `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding google calendar response: %w", err)
	}

	apps := make([]crm.Appointment, 0, len(payload.Items))
	for _, ev := range payload.Items {
		app, err := Normalize(ev)
		if err != nil {
			// A single malformed event should not sink the whole range.
			continue
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// CreateEvent pushes a locally scheduled appointment to the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, token string, app crm.Appointment) error {
	if token == "" {
		return errors.New("missing access token")
	}

	body, err := json.Marshal(map[string]any{
		"summary": app.Title,
		"start":   map[string]string{"dateTime": app.Start.Format(time.RFC3339)},
		"end":     map[string]string{"dateTime": app.End.Format(time.RFC3339)},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("google calendar request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuthDegraded
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("google calendar returned %s", resp.Status)
	}
	return nil
}

// Normalize maps a remote event into the shared appointment shape: external
// source, meeting type, scheduled status, source label instead of a lead.
func Normalize(ev Event) (crm.Appointment, error) {
	start, err := ev.Start.parse()
	if err != nil {
		return crm.Appointment{}, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	end, err := ev.End.parse()
	if err != nil {
		return crm.Appointment{}, fmt.Errorf("event %s: %w", ev.ID, err)
	}

	title := ev.Summary
	if title == "" {
		title = crm.UntitledEvent
	}

	return crm.Appointment{
		ID:       ev.ID,
		Source:   crm.SourceExternal,
		Title:    title,
		Start:    start,
		End:      end,
		Type:     crm.TypeMeeting,
		Status:   crm.StatusScheduled,
		LeadName: SourceLabel,
	}, nil
}

// parse resolves either a timed (dateTime) or all-day (date) event boundary
// into an absolute timestamp in local time.
func (t eventTime) parse() (time.Time, error) {
	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid dateTime %q: %w", t.DateTime, err)
		}
		return ts.Local(), nil
	}
	if t.Date != "" {
		ts, err := time.ParseInLocation("2006-01-02", t.Date, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", t.Date, err)
		}
		return ts, nil
	}
	return time.Time{}, errors.New("event boundary has neither dateTime nor date")
}
