package crm

import "time"

// Source identifies where an appointment came from. Appointment IDs are only
// unique within a source, so entity identity is (ID, Source).
type Source string

const (
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
)

// LeadStatus is the pipeline stage of a lead.
type LeadStatus string

const (
	LeadNew         LeadStatus = "new"
	LeadContacted   LeadStatus = "contacted"
	LeadNegotiating LeadStatus = "negotiating"
	LeadWon         LeadStatus = "won"
	LeadLost        LeadStatus = "lost"
)

// Lead is a contact in the sales pipeline.
type Lead struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Company     string     `json:"company,omitempty"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Status      LeadStatus `json:"status"`
	Value       float64    `json:"value"`
	LastContact time.Time  `json:"last_contact"`
	Notes       string     `json:"notes,omitempty"`
	Source      string     `json:"source,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// AppointmentType categorizes local appointments. External events carry no
// type of their own and default to TypeMeeting.
type AppointmentType string

const (
	TypeCall    AppointmentType = "call"
	TypeMeeting AppointmentType = "meeting"
	TypeDemo    AppointmentType = "demo"
)

// AppointmentStatus is the lifecycle state of an appointment. External events
// are always StatusScheduled and never change.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCanceled  AppointmentStatus = "canceled"
	StatusNoShow    AppointmentStatus = "no-show"
)

// UntitledEvent is the display title for external events without a summary.
const UntitledEvent = "(no title)"

// Appointment is the normalized event entity shared by the local store and
// the external calendar adapters.
type Appointment struct {
	ID       string            `json:"id"`
	Source   Source            `json:"source"`
	Title    string            `json:"title"`
	Start    time.Time         `json:"start"`
	End      time.Time         `json:"end"`
	Type     AppointmentType   `json:"type"`
	Status   AppointmentStatus `json:"status"`
	LeadID   string            `json:"lead_id,omitempty"`
	LeadName string            `json:"lead_name,omitempty"`
}

// IsExternal reports whether the appointment is read-only calendar data.
func (a Appointment) IsExternal() bool {
	return a.Source == SourceExternal
}

// OnDay reports whether the appointment belongs to the given calendar day.
// Attribution is by the local date of Start only; an appointment spanning
// midnight still belongs to a single day.
func (a Appointment) OnDay(day time.Time) bool {
	y1, m1, d1 := a.Start.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// ActivityType categorizes timeline entries on a lead.
type ActivityType string

const (
	ActivityCall     ActivityType = "call"
	ActivityEmail    ActivityType = "email"
	ActivityMeeting  ActivityType = "meeting"
	ActivityNote     ActivityType = "note"
	ActivityWhatsApp ActivityType = "whatsapp"
	ActivitySystem   ActivityType = "system"
)

// Activity is one entry in a lead's contact timeline.
type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Date        time.Time    `json:"date"`
	LeadID      string       `json:"lead_id,omitempty"`
}
