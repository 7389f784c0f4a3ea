// Package feed reads a subscribed ICS calendar feed and normalizes its
// events into the shared appointment shape. A feed is the read-only
// alternative to the Google connection for businesses that publish their
// calendar as an .ics URL.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"leadly/internal/crm"
)

// SourceLabel is shown in place of a lead name for feed events.
const SourceLabel = "Calendar feed"

// Client fetches and parses an ICS subscription URL. Feeds carry no
// credential, so a failure is always a plain sync error, never an
// auth problem.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a feed client with a bounded request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ListEvents fetches the feed and returns events whose start falls inside
// [from, to], normalized to external appointments.
func (c *Client) ListEvents(ctx context.Context, feedURL string, from, to time.Time) ([]crm.Appointment, error) {
	if feedURL == "" {
		return nil, errors.New("missing feed url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar feed returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading calendar feed: %w", err)
	}

	return Parse(body, from, to)
}

// Parse extracts VEVENTs from an ICS payload and keeps those starting inside
// [from, to]. A single malformed event is skipped; a payload that is not a
// calendar at all is an error.
func Parse(body []byte, from, to time.Time) ([]crm.Appointment, error) {
	if len(body) == 0 {
		return nil, errors.New("empty calendar feed body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar feed: %w", err)
	}

	var apps []crm.Appointment
	for _, ve := range cal.Events() {
		app, err := normalizeEvent(ve)
		if err != nil {
			continue
		}
		if app.Start.Before(from) || app.Start.After(to) {
			continue
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func normalizeEvent(ve *ical.VEvent) (crm.Appointment, error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return crm.Appointment{}, errors.New("missing UID")
	}

	title := crm.UntitledEvent
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		title = p.Value
	}

	var start, end time.Time
	var err error
	if isAllDay(ve) {
		start, err = ve.GetAllDayStartAt()
		if err != nil {
			return crm.Appointment{}, fmt.Errorf("event %s: %w", uidProp.Value, err)
		}
		end, err = ve.GetAllDayEndAt()
		if err != nil {
			end = start.AddDate(0, 0, 1)
		}
	} else {
		start, err = ve.GetStartAt()
		if err != nil {
			return crm.Appointment{}, fmt.Errorf("event %s: %w", uidProp.Value, err)
		}
		end, err = ve.GetEndAt()
		if err != nil {
			end = start.Add(time.Hour)
		}
	}

	return crm.Appointment{
		ID:       uidProp.Value,
		Source:   crm.SourceExternal,
		Title:    title,
		Start:    start.Local(),
		End:      end.Local(),
		Type:     crm.TypeMeeting,
		Status:   crm.StatusScheduled,
		LeadName: SourceLabel,
	}, nil
}

// isAllDay detects VALUE=DATE starts and bare YYYYMMDD values.
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}
