// Package remind runs the appointment automations: upcoming-appointment
// reminders and no-show recovery nudges, scanned on a cron schedule inside
// the daemon.
package remind

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"leadly/config"
	"leadly/internal/crm"
	"leadly/internal/msg"
	"leadly/internal/store"
)

// reminder windows, keyed into the ledger
const (
	window24h    = "24h"
	window2h     = "2h"
	windowNoShow = "noshow"
	windowReview = "review"
)

// scanSpec is how often the daemon rescans for due reminders.
const scanSpec = "@every 5m"

// ledgerRetention is how long dedup marks are kept before pruning. Well
// past every window, so a mark never expires while still relevant.
const ledgerRetention = 30 * 24 * time.Hour

// EmailSender is satisfied by msg.SMTPClient.
type EmailSender interface {
	Configured() bool
	Send(to, subject, body string) error
}

// Storage is the slice of the store the scheduler needs. The lock methods
// guard against interleaving with an interactive session's writes.
type Storage interface {
	ListAppointments(from, to time.Time) ([]crm.Appointment, error)
	NoShowAppointments() ([]crm.Appointment, error)
	GetLead(id string) (crm.Lead, error)
	AppendActivity(act crm.Activity) (crm.Activity, error)
	AcquireLock() (bool, error)
	ReleaseLock() error
}

// Scheduler scans for appointments entering a reminder window and
// dispatches through the enabled channels.
type Scheduler struct {
	cfg    config.Config
	store  Storage
	ledger *Ledger
	email  EmailSender
	notify func(title, message string) error
	cron   *cron.Cron
	now    func() time.Time
}

func NewScheduler(cfg config.Config, st Storage, ledger *Ledger, email EmailSender, notify func(title, message string) error) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		store:  st,
		ledger: ledger,
		email:  email,
		notify: notify,
		now:    time.Now,
	}
}

// Start schedules the periodic scan. Returns once the cron is running.
func (s *Scheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(scanSpec, func() { s.Scan() }); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Scan runs one pass. Each due appointment+window is dispatched at most
// once; failures on one appointment do not stop the rest. The pass is
// skipped entirely when another process holds the store's write lock.
func (s *Scheduler) Scan() error {
	ok, err := s.store.AcquireLock()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	defer s.store.ReleaseLock()

	now := s.now()
	var errs []error

	if s.cfg.Automations.Reminder24h {
		if err := s.scanWindow(now, window24h, 24*time.Hour); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cfg.Automations.Reminder2h {
		if err := s.scanWindow(now, window2h, 2*time.Hour); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cfg.Automations.NoShowRecovery {
		if err := s.scanNoShows(now); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cfg.Automations.AskReview {
		if err := s.scanReviews(now); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.ledger.Prune(now.Add(-ledgerRetention)); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// scanWindow finds local scheduled appointments starting within the lead
// time and reminds about each once.
func (s *Scheduler) scanWindow(now time.Time, window string, lead time.Duration) error {
	apps, err := s.store.ListAppointments(now, now.Add(lead))
	if err != nil {
		return err
	}

	var errs []error
	for _, app := range apps {
		if app.IsExternal() || app.Status != crm.StatusScheduled {
			continue
		}
		key := app.ID + "/" + window
		if s.ledger.Seen(key) {
			continue
		}
		if err := s.dispatch(app, window); err != nil {
			errs = append(errs, fmt.Errorf("appointment %s: %w", app.ID, err))
			continue
		}
		if err := s.ledger.Mark(key, now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// scanNoShows nudges the owner once per missed appointment.
func (s *Scheduler) scanNoShows(now time.Time) error {
	missed, err := s.store.NoShowAppointments()
	if err != nil {
		return err
	}

	var errs []error
	for _, app := range missed {
		key := app.ID + "/" + windowNoShow
		if s.ledger.Seen(key) {
			continue
		}
		title := "Missed appointment"
		body := fmt.Sprintf("%s (%s) did not show up. Open the recovery board to win them back.", displayName(app), app.Start.Format("Mon 15:04"))
		if s.notify != nil && s.cfg.Notifications.Enabled {
			if err := s.notify(title, body); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		s.recordActivity(app, "No-show recovery nudge", body)
		if err := s.ledger.Mark(key, now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// scanReviews asks recently completed appointments' leads for a review,
// once per appointment.
func (s *Scheduler) scanReviews(now time.Time) error {
	apps, err := s.store.ListAppointments(now.Add(-24*time.Hour), now)
	if err != nil {
		return err
	}

	var errs []error
	for _, app := range apps {
		if app.IsExternal() || app.Status != crm.StatusCompleted {
			continue
		}
		key := app.ID + "/" + windowReview
		if s.ledger.Seen(key) {
			continue
		}
		subject := fmt.Sprintf("How was your %s?", app.Title)
		body := fmt.Sprintf("Hi %s,\n\nThanks for coming in! If you have a minute, we would love a short review of your visit.\n\nIt really helps a small business like ours.",
			displayName(app))
		if err := s.sendToChannels(app, subject, body, "review request"); err != nil {
			errs = append(errs, fmt.Errorf("appointment %s: %w", app.ID, err))
			continue
		}
		if err := s.ledger.Mark(key, now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dispatch sends one reminder through every enabled channel.
func (s *Scheduler) dispatch(app crm.Appointment, window string) error {
	subject := fmt.Sprintf("Reminder: %s at %s", app.Title, app.Start.Format("Mon Jan 2 15:04"))
	body := fmt.Sprintf("Hi %s,\n\nThis is a reminder of your appointment:\n\n  %s\n  %s\n\nSee you then!",
		displayName(app), app.Title, app.Start.Format("Monday, January 2 at 15:04"))

	if s.cfg.Notifications.Enabled && s.cfg.Notifications.AppointmentReminder && s.notify != nil {
		if err := s.notify("Upcoming appointment", fmt.Sprintf("%s in %s", app.Title, window)); err != nil {
			return err
		}
	}

	return s.sendToChannels(app, subject, body, window+" reminder")
}

// sendToChannels fans one message out to the enabled channels. WhatsApp
// and SMS are manual by nature, so those channels record the prepared
// link as an activity instead of sending; both are gated on the owner's
// messaging consent.
func (s *Scheduler) sendToChannels(app crm.Appointment, subject, body, label string) error {
	var lead *crm.Lead
	if app.LeadID != "" {
		l, err := s.store.GetLead(app.LeadID)
		switch {
		case err == nil:
			lead = &l
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
	}

	if s.cfg.Automations.Channels.Email && lead != nil && lead.Email != "" {
		if s.email == nil || !s.email.Configured() {
			return fmt.Errorf("email channel enabled but smtp not configured")
		}
		if err := s.email.Send(lead.Email, subject, body); err != nil {
			return err
		}
		s.recordActivity(app, "Email sent", fmt.Sprintf("%s to %s", label, lead.Email))
	}

	consented := s.cfg.Profile.Consent
	if s.cfg.Automations.Channels.WhatsApp && consented && lead != nil && lead.Phone != "" {
		link, err := msg.WhatsAppLink(lead.Phone, body)
		if err == nil {
			s.recordActivity(app, "WhatsApp message prepared", link)
		}
	}

	if s.cfg.Automations.Channels.SMS && consented && lead != nil && lead.Phone != "" {
		link, err := msg.SMSLink(lead.Phone, body)
		if err == nil {
			s.recordActivity(app, "SMS message prepared", link)
		}
	}

	return nil
}

func (s *Scheduler) recordActivity(app crm.Appointment, title, description string) {
	// Best effort; a failed timeline write must not block the send path.
	_, _ = s.store.AppendActivity(crm.Activity{
		Type:        crm.ActivitySystem,
		Title:       title,
		Description: description,
		Date:        s.now(),
		LeadID:      app.LeadID,
	})
}

func displayName(app crm.Appointment) string {
	if app.LeadName != "" {
		return app.LeadName
	}
	return "there"
}
