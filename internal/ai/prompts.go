package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"leadly/internal/crm"
)

// Template identifies an outreach message template.
type Template string

const (
	TemplateFollowUp      Template = "follow-up"
	TemplateColdIntro     Template = "cold-intro"
	TemplateOfferReminder Template = "offer-reminder"
	TemplateReactivation  Template = "reactivation"
	TemplateNoShow        Template = "no-show-recovery"
)

// Templates lists the available templates in menu order.
var Templates = []Template{
	TemplateFollowUp,
	TemplateColdIntro,
	TemplateOfferReminder,
	TemplateReactivation,
	TemplateNoShow,
}

// Label is the human name shown in pickers.
func (t Template) Label() string {
	switch t {
	case TemplateFollowUp:
		return "Follow-up"
	case TemplateColdIntro:
		return "Cold intro"
	case TemplateOfferReminder:
		return "Offer reminder"
	case TemplateReactivation:
		return "Reactivation"
	case TemplateNoShow:
		return "No-show recovery"
	}
	return string(t)
}

func (t Template) goal() string {
	switch t {
	case TemplateFollowUp:
		return "follow up after recent contact and move the conversation forward"
	case TemplateColdIntro:
		return "introduce the business to a lead who has not been contacted yet"
	case TemplateOfferReminder:
		return "remind the lead of an open offer and nudge them toward a decision"
	case TemplateReactivation:
		return "re-engage a lead that has gone quiet for a while"
	case TemplateNoShow:
		return "win back a lead who missed an appointment, without blame, and propose a new slot"
	}
	return "write a short outreach message"
}

// Tone of voice for generated messages, set once during onboarding.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	TonePromotional  Tone = "promotional"
)

func (t Tone) instruction() string {
	switch t {
	case ToneFriendly:
		return "Warm and personal, first-name basis, light and human."
	case TonePromotional:
		return "Energetic and sales-forward, highlight the value of the offer."
	default:
		return "Polite and businesslike, clear and to the point."
	}
}

// MessagePrompt builds the prompt for an outreach message to a lead. The
// output is meant to be pasted into WhatsApp, so it asks for a few
// sentences of plain text.
func MessagePrompt(tmpl Template, lead crm.Lead, business string, tone Tone) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a short WhatsApp message from %s to a sales lead.\n\n", orDefault(business, "a small business"))
	fmt.Fprintf(&sb, "Goal: %s.\n", tmpl.goal())
	fmt.Fprintf(&sb, "Tone: %s\n\n", tone.instruction())

	fmt.Fprintf(&sb, "Lead:\n- Name: %s\n", lead.Name)
	if lead.Company != "" {
		fmt.Fprintf(&sb, "- Company: %s\n", lead.Company)
	}
	fmt.Fprintf(&sb, "- Pipeline stage: %s\n", lead.Status)
	if lead.Value > 0 {
		fmt.Fprintf(&sb, "- Deal value: %.0f\n", lead.Value)
	}
	if !lead.LastContact.IsZero() {
		fmt.Fprintf(&sb, "- Last contact: %s\n", lead.LastContact.Format("2006-01-02"))
	}
	if lead.Notes != "" {
		fmt.Fprintf(&sb, "- Notes: %s\n", truncate(lead.Notes, 500))
	}

	sb.WriteString(`
Rules:
- 2 to 4 sentences, ready to send as-is
- no subject line, no signature block, no placeholders like [name]
- end with one clear call to action

Respond with ONLY the message text, no other text.`)
	return sb.String()
}

// LeadAnalysisPrompt asks for strategic advice on a single lead.
func LeadAnalysisPrompt(lead crm.Lead, activities []crm.Activity) string {
	var sb strings.Builder
	sb.WriteString("You are a sales coach for a small business. Analyze this lead and advise the next step.\n\n")
	fmt.Fprintf(&sb, "Lead: %s", lead.Name)
	if lead.Company != "" {
		fmt.Fprintf(&sb, " (%s)", lead.Company)
	}
	fmt.Fprintf(&sb, "\nStage: %s\nDeal value: %.0f\n", lead.Status, lead.Value)
	if !lead.LastContact.IsZero() {
		fmt.Fprintf(&sb, "Last contact: %s\n", lead.LastContact.Format("2006-01-02"))
	}
	if lead.Notes != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", truncate(lead.Notes, 500))
	}

	if len(activities) > 0 {
		sb.WriteString("\nRecent activity (newest first):\n")
		limit := len(activities)
		if limit > 10 {
			limit = 10
		}
		for _, a := range activities[:limit] {
			fmt.Fprintf(&sb, "- %s %s: %s\n", a.Date.Format("2006-01-02"), a.Type, a.Title)
		}
	}

	sb.WriteString(`
Format your response exactly like this:

Assessment:
    <one or two sentences on where this deal stands>

Risks:
    - <risk 1>
    - <risk 2>

Next steps:
    - <concrete action 1>
    - <concrete action 2>

Keep it brief. No preamble, section titles on their own line, content indented with 4 spaces.`)
	return sb.String()
}

// PipelineDigest is the KPI summary fed into the insights prompt.
type PipelineDigest struct {
	Leads         int
	ByStage       map[crm.LeadStatus]int
	PipelineValue float64
	Appointments  int
	NoShows       int
	NoShowRate    float64
}

// InsightsPrompt asks for a pipeline health read from aggregate numbers.
func InsightsPrompt(d PipelineDigest, business string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You advise %s on its sales pipeline. Current numbers:\n\n", orDefault(business, "a small business"))
	fmt.Fprintf(&sb, "- Leads: %d\n", d.Leads)
	for _, stage := range []crm.LeadStatus{crm.LeadNew, crm.LeadContacted, crm.LeadNegotiating, crm.LeadWon, crm.LeadLost} {
		if n := d.ByStage[stage]; n > 0 {
			fmt.Fprintf(&sb, "  - %s: %d\n", stage, n)
		}
	}
	fmt.Fprintf(&sb, "- Open pipeline value: %.0f\n", d.PipelineValue)
	fmt.Fprintf(&sb, "- Appointments this period: %d\n", d.Appointments)
	fmt.Fprintf(&sb, "- No-shows: %d (rate %.0f%%)\n", d.NoShows, d.NoShowRate*100)

	sb.WriteString(`
Give three short, concrete observations and one recommended focus for the
coming week. Plain text, no markdown headings, no preamble.`)
	return sb.String()
}

// ParsedAppointment is an appointment parsed from natural language input.
type ParsedAppointment struct {
	Title     string `json:"title"`
	StartTime string `json:"start_time"` // RFC3339
	EndTime   string `json:"end_time"`   // RFC3339
	LeadName  string `json:"lead_name,omitempty"`
}

// GetStartTime parses the start time string.
func (p *ParsedAppointment) GetStartTime() (time.Time, error) {
	return time.Parse(time.RFC3339, p.StartTime)
}

// GetEndTime parses the end time string.
func (p *ParsedAppointment) GetEndTime() (time.Time, error) {
	return time.Parse(time.RFC3339, p.EndTime)
}

// ParseAppointmentPrompt builds the prompt for the quick-add box, turning
// input like "call with Anna tomorrow at 3" into a structured appointment.
func ParseAppointmentPrompt(input string, now time.Time) string {
	return fmt.Sprintf(`Parse this natural language into an appointment.

Current date/time: %s

User input: "%s"

Respond with ONLY a JSON object (no markdown, no explanation):
{
  "title": "appointment title",
  "start_time": "2026-03-25T10:00:00-08:00",
  "end_time": "2026-03-25T11:00:00-08:00",
  "lead_name": "person or company name if mentioned, otherwise empty string"
}

Rules:
- start_time and end_time must be in RFC3339 format with timezone
- If no duration specified, default to 1 hour
- Use the current date/time to interpret relative dates like "tomorrow", "next Monday"

Respond with ONLY the JSON, no other text.`, now.Format(time.RFC3339), input)
}

// ParseAppointmentResponse decodes the model's JSON reply.
func ParseAppointmentResponse(response string) (*ParsedAppointment, error) {
	response = stripMarkdownCodeFences(response)

	var parsed ParsedAppointment
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return &parsed, nil
}

// stripMarkdownCodeFences removes ```json ... ``` wrappers from response
func stripMarkdownCodeFences(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
	}

	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
