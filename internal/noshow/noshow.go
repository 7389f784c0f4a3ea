// Package noshow builds the recovery board: missed appointments joined with
// their leads, plus the numbers a business owner cares about when chasing
// them back.
package noshow

import (
	"errors"
	"sort"
	"time"

	"leadly/internal/crm"
	"leadly/internal/store"
)

// Entry is one missed appointment on the board. Lead is nil when the
// appointment was created without one.
type Entry struct {
	Appointment crm.Appointment
	Lead        *crm.Lead
	Recovered   bool
}

// Stats are the board's headline numbers.
type Stats struct {
	Total         int
	Rate          float64
	Recovered     int
	RevenueAtRisk float64
}

// Source is the slice of the store the board reads.
type Source interface {
	Appointments() ([]crm.Appointment, error)
	NoShowAppointments() ([]crm.Appointment, error)
	GetLead(id string) (crm.Lead, error)
}

// Board is the assembled recovery view, newest miss first.
type Board struct {
	Entries []Entry
	Stats   Stats
}

// Build reads every appointment and assembles the board. Only local
// appointments can hold the no-show status, so external events never
// appear here.
func Build(src Source) (*Board, error) {
	all, err := src.Appointments()
	if err != nil {
		return nil, err
	}
	missed, err := src.NoShowAppointments()
	if err != nil {
		return nil, err
	}

	board := &Board{}
	board.Stats.Total = len(missed)
	if len(all) > 0 {
		board.Stats.Rate = float64(len(missed)) / float64(len(all))
	}

	for _, app := range missed {
		entry := Entry{Appointment: app}
		if app.LeadID != "" {
			lead, err := src.GetLead(app.LeadID)
			switch {
			case err == nil:
				entry.Lead = &lead
			case !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
		}
		entry.Recovered = recovered(entry, all)
		if entry.Recovered {
			board.Stats.Recovered++
		} else if entry.Lead != nil {
			board.Stats.RevenueAtRisk += entry.Lead.Value
		}
		board.Entries = append(board.Entries, entry)
	}

	sort.SliceStable(board.Entries, func(i, j int) bool {
		return board.Entries[i].Appointment.Start.After(board.Entries[j].Appointment.Start)
	})
	return board, nil
}

// recovered reports whether the lead came back: either won outright or
// rebooked after the missed slot.
func recovered(e Entry, all []crm.Appointment) bool {
	if e.Lead != nil && e.Lead.Status == crm.LeadWon {
		return true
	}
	if e.Appointment.LeadID == "" {
		return false
	}
	for _, other := range all {
		if other.LeadID != e.Appointment.LeadID || other.ID == e.Appointment.ID {
			continue
		}
		if !other.Start.After(e.Appointment.Start) {
			continue
		}
		if other.Status == crm.StatusScheduled || other.Status == crm.StatusCompleted {
			return true
		}
	}
	return false
}

// Archive takes a missed appointment off the board by canceling it.
func Archive(w crm.StatusWriter, app crm.Appointment) error {
	if app.Status != crm.StatusNoShow {
		return errors.New("only missed appointments can be archived")
	}
	return crm.Transition(w, app, crm.StatusCanceled)
}

// Reschedule describes the replacement slot for a recovered lead.
type Reschedule struct {
	Start time.Time
	End   time.Time
	Title string
}

// Creator creates appointments; the store satisfies it.
type Creator interface {
	CreateAppointment(app crm.Appointment) (crm.Appointment, error)
}

// Rebook creates a fresh appointment for the missed one's lead. The missed
// appointment keeps its status so the rate stays honest.
func Rebook(c Creator, missed crm.Appointment, slot Reschedule) (crm.Appointment, error) {
	if missed.Status != crm.StatusNoShow {
		return crm.Appointment{}, errors.New("only missed appointments can be rebooked")
	}
	title := slot.Title
	if title == "" {
		title = missed.Title
	}
	app := crm.Appointment{
		Title:    title,
		Start:    slot.Start,
		End:      slot.End,
		Type:     missed.Type,
		LeadID:   missed.LeadID,
		LeadName: missed.LeadName,
	}
	return c.CreateAppointment(app)
}
