// Package onboarding is the first-run wizard's state machine. It is pure:
// the TUI renders the current step and feeds choices back in, and the
// machine decides where to go next and what the finished profile looks
// like.
package onboarding

import (
	"errors"

	"leadly/config"
)

// Step is one screen of the wizard.
type Step int

const (
	StepWelcome Step = iota
	StepSector
	StepSubcategory
	StepServices
	StepBuffer
	StepCalendar
	StepAutomations
	StepTone
	StepConsent
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepWelcome:
		return "welcome"
	case StepSector:
		return "sector"
	case StepSubcategory:
		return "sub-category"
	case StepServices:
		return "services"
	case StepBuffer:
		return "buffer"
	case StepCalendar:
		return "calendar"
	case StepAutomations:
		return "automations"
	case StepTone:
		return "tone"
	case StepConsent:
		return "consent"
	case StepDone:
		return "done"
	}
	return "unknown"
}

// ServiceChoice is a catalogue service plus whether the user kept it.
type ServiceChoice struct {
	Service  config.Service
	Selected bool
}

// Data holds everything entered so far. It survives Back/Next; nothing is
// cleared when the user walks backwards.
type Data struct {
	BusinessName string
	Sector       string
	Subcategory  string
	Services     []ServiceChoice
	Buffer       int // minutes between appointments
	Calendar     config.CalendarSystem
	ICSURL       string
	Automations  config.AutomationsConfig
	Tone         string
	Consent      bool
}

// ErrConsentRequired blocks completion while WhatsApp automation is on
// without the user having agreed to automated messaging.
var ErrConsentRequired = errors.New("whatsapp automation requires consent")

// Wizard walks the steps. Zero value starts at the welcome screen.
type Wizard struct {
	step Step
	Data Data
}

func New() *Wizard {
	return &Wizard{
		Data: Data{
			Buffer:   10,
			Calendar: config.CalendarManual,
			Tone:     "professional",
		},
	}
}

// Step returns the current screen.
func (w *Wizard) Step() Step {
	return w.step
}

// Next advances one screen. A sector without sub-categories skips that
// screen; entering the services screen seeds the catalogue defaults if the
// user has not touched the list yet.
func (w *Wizard) Next() {
	switch w.step {
	case StepSector:
		if sec := SectorByID(w.Data.Sector); sec == nil || len(sec.Subcategories) == 0 {
			w.step = StepServices
			w.seedServices()
			return
		}
		w.step = StepSubcategory
	case StepSubcategory:
		w.step = StepServices
		w.seedServices()
	case StepDone:
		// terminal
	default:
		w.step++
	}
}

// Back walks one screen back, mirroring the sub-category skip.
func (w *Wizard) Back() {
	switch w.step {
	case StepWelcome:
		// first screen
	case StepServices:
		if sec := SectorByID(w.Data.Sector); sec == nil || len(sec.Subcategories) == 0 {
			w.step = StepSector
			return
		}
		w.step = StepSubcategory
	default:
		w.step--
	}
}

// seedServices fills the services list from the catalogue. Only runs once;
// revisiting the screen keeps the user's toggles.
func (w *Wizard) seedServices() {
	if w.Data.Services != nil {
		return
	}
	for _, svc := range DefaultServices(w.Data.Sector, w.Data.Subcategory) {
		w.Data.Services = append(w.Data.Services, ServiceChoice{Service: svc, Selected: true})
	}
}

// SetSector records the sector and drops a stale sub-category and service
// list when the sector actually changed.
func (w *Wizard) SetSector(id string) {
	if w.Data.Sector == id {
		return
	}
	w.Data.Sector = id
	w.Data.Subcategory = ""
	w.Data.Services = nil
}

// SetSubcategory records the sub-category, reseeding services on change.
func (w *Wizard) SetSubcategory(id string) {
	if w.Data.Subcategory == id {
		return
	}
	w.Data.Subcategory = id
	w.Data.Services = nil
}

// ToggleService flips one catalogue entry.
func (w *Wizard) ToggleService(i int) {
	if i >= 0 && i < len(w.Data.Services) {
		w.Data.Services[i].Selected = !w.Data.Services[i].Selected
	}
}

// AddService appends a custom service, selected.
func (w *Wizard) AddService(svc config.Service) {
	w.Data.Services = append(w.Data.Services, ServiceChoice{Service: svc, Selected: true})
}

// Finish validates the collected data and applies it to the config. The
// wizard refuses to finish while the WhatsApp channel is enabled without
// consent.
func (w *Wizard) Finish(cfg *config.Config) error {
	if w.Data.Automations.Channels.WhatsApp && !w.Data.Consent {
		return ErrConsentRequired
	}

	var services []config.Service
	for _, choice := range w.Data.Services {
		if choice.Selected {
			services = append(services, choice.Service)
		}
	}

	cfg.Profile = config.Profile{
		BusinessName:  w.Data.BusinessName,
		Sector:        w.Data.Sector,
		Subcategory:   w.Data.Subcategory,
		Services:      services,
		BufferMinutes: w.Data.Buffer,
		Tone:          w.Data.Tone,
		Consent:       w.Data.Consent,
	}
	cfg.Calendar.System = w.Data.Calendar
	cfg.Calendar.ICSURL = w.Data.ICSURL
	cfg.Automations = w.Data.Automations
	cfg.OnboardingComplete = true

	w.step = StepDone
	return nil
}
