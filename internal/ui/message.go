package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"leadly/internal/ai"
	"leadly/config"
	"leadly/internal/crm"
	"leadly/internal/msg"
	"leadly/internal/store"
)

type messageStep int

const (
	stepPickLead messageStep = iota
	stepPickTemplate
	stepGenerating
	stepResult
)

// MessageApp walks through lead, template, AI draft, then channel actions.
type MessageApp struct {
	store *store.Store
	ai    *ai.Client
	cfg   *config.Config
	email *msg.SMTPClient

	width  int
	height int

	step        messageStep
	leads       []crm.Lead
	leadIdx     int
	templateIdx int
	draft       string
	err         error
	notice      string
}

type draftMsg struct {
	text string
}

type sentMsg struct {
	notice string
}

// NewMessageApp creates the outreach message TUI
func NewMessageApp(st *store.Store, aiClient *ai.Client, cfg *config.Config, email *msg.SMTPClient) *MessageApp {
	return &MessageApp{
		store: st,
		ai:    aiClient,
		cfg:   cfg,
		email: email,
		step:  stepPickLead,
	}
}

func (m *MessageApp) Init() tea.Cmd {
	return func() tea.Msg {
		leads, err := m.store.ListLeads()
		if err != nil {
			return errMsg{err}
		}
		return leadListMsg{leads}
	}
}

func (m *MessageApp) lead() crm.Lead {
	if m.leadIdx >= 0 && m.leadIdx < len(m.leads) {
		return m.leads[m.leadIdx]
	}
	return crm.Lead{}
}

func (m *MessageApp) template() ai.Template {
	return ai.Templates[m.templateIdx]
}

func (m *MessageApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case leadListMsg:
		m.leads = msg.leads
		return m, nil

	case draftMsg:
		m.step = stepResult
		m.draft = msg.text
		return m, nil

	case sentMsg:
		m.notice = msg.notice
		return m, nil

	case errMsg:
		if m.step == stepGenerating {
			m.step = stepPickTemplate
		}
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		m.notice = ""
		m.err = nil
		return m.handleKeyPress(msg)
	}
	return m, nil
}

func (m *MessageApp) handleKeyPress(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "ctrl+c", "q":
		if m.step != stepGenerating {
			return m, tea.Quit
		}
	}

	switch m.step {
	case stepPickLead:
		switch k.String() {
		case "esc":
			return m, tea.Quit
		case "up", "k":
			if m.leadIdx > 0 {
				m.leadIdx--
			}
		case "down", "j":
			if m.leadIdx < len(m.leads)-1 {
				m.leadIdx++
			}
		case "enter":
			if len(m.leads) > 0 {
				m.step = stepPickTemplate
			}
		}

	case stepPickTemplate:
		switch k.String() {
		case "esc":
			m.step = stepPickLead
		case "up", "k":
			if m.templateIdx > 0 {
				m.templateIdx--
			}
		case "down", "j":
			if m.templateIdx < len(ai.Templates)-1 {
				m.templateIdx++
			}
		case "enter":
			if m.ai == nil {
				m.err = fmt.Errorf("no AI provider configured")
				return m, nil
			}
			m.step = stepGenerating
			return m, m.generate()
		}

	case stepResult:
		switch k.String() {
		case "esc":
			m.step = stepPickTemplate
		case "r":
			m.step = stepGenerating
			return m, m.generate()
		case "w":
			return m, m.openWhatsApp()
		case "e":
			return m, m.sendEmail()
		case "c":
			if err := clipboard.WriteAll(m.draft); err != nil {
				m.err = err
			} else {
				m.notice = "Copied to clipboard"
			}
		}
	}

	return m, nil
}

func (m *MessageApp) generate() tea.Cmd {
	lead := m.lead()
	tmpl := m.template()
	business := m.cfg.Profile.BusinessName
	tone := ai.Tone(m.cfg.Profile.Tone)

	return func() tea.Msg {
		prompt := ai.MessagePrompt(tmpl, lead, business, tone)
		out, err := m.ai.Call(prompt)
		if err != nil {
			return errMsg{err}
		}
		return draftMsg{strings.TrimSpace(out)}
	}
}

// openWhatsApp does not send anything: it records the wa.me link as an
// activity so the owner can open it from any device.
func (m *MessageApp) openWhatsApp() tea.Cmd {
	lead := m.lead()
	draft := m.draft

	return func() tea.Msg {
		if !m.cfg.Profile.Consent {
			return errMsg{fmt.Errorf("WhatsApp outreach requires consent, enable it in onboarding")}
		}
		if lead.Phone == "" {
			return errMsg{fmt.Errorf("%s has no phone number", lead.Name)}
		}
		link, err := msg.WhatsAppLink(lead.Phone, draft)
		if err != nil {
			return errMsg{err}
		}
		_, err = m.store.AppendActivity(crm.Activity{
			LeadID:      lead.ID,
			Type:        crm.ActivityWhatsApp,
			Title:       "WhatsApp draft: " + m.template().Label(),
			Description: link,
		})
		if err != nil {
			return errMsg{err}
		}
		return sentMsg{notice: "Link saved to the activity log: " + link}
	}
}

func (m *MessageApp) sendEmail() tea.Cmd {
	lead := m.lead()
	draft := m.draft
	subject := m.template().Label() + " from " + m.cfg.Profile.BusinessName

	return func() tea.Msg {
		if m.email == nil || !m.email.Configured() {
			return errMsg{fmt.Errorf("SMTP is not configured")}
		}
		if lead.Email == "" {
			return errMsg{fmt.Errorf("%s has no email address", lead.Name)}
		}
		if err := m.email.Send(lead.Email, subject, draft); err != nil {
			return errMsg{err}
		}
		m.store.AppendActivity(crm.Activity{
			LeadID: lead.ID,
			Type:   crm.ActivityEmail,
			Title:  "Sent: " + subject,
		})
		return sentMsg{notice: "Email sent to " + lead.Email}
	}
}

func (m *MessageApp) View() string {
	switch m.step {
	case stepPickTemplate:
		return m.renderTemplatePicker()
	case stepGenerating:
		return m.renderGenerating()
	case stepResult:
		return m.renderResult()
	default:
		return m.renderLeadPicker()
	}
}

func (m *MessageApp) renderLeadPicker() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("New Message"))
	b.WriteString(MutedStyle.Render("  1/3 pick a lead"))
	b.WriteString("\n\n")

	if len(m.leads) == 0 {
		b.WriteString(MutedStyle.Italic(true).Render("  No leads yet."))
		b.WriteString("\n")
	}

	for i, lead := range m.leads {
		style := NormalItemStyle
		if i == m.leadIdx {
			style = SelectedItemStyle
		}
		line := lead.Name
		if lead.Company != "" {
			line += " (" + lead.Company + ")"
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(HelpStyle.Render("↑/↓: move  enter: next  q: quit"))

	return b.String()
}

func (m *MessageApp) renderTemplatePicker() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("New Message"))
	b.WriteString(MutedStyle.Render("  2/3 template for " + m.lead().Name))
	b.WriteString("\n\n")

	for i, tmpl := range ai.Templates {
		style := NormalItemStyle
		if i == m.templateIdx {
			style = SelectedItemStyle
		}
		b.WriteString(style.Render(tmpl.Label()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(HelpStyle.Render("↑/↓: move  enter: generate  esc: back"))

	return b.String()
}

func (m *MessageApp) renderGenerating() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("New Message"))
	b.WriteString("\n\n")
	b.WriteString(MutedStyle.Render("  Drafting with " + m.template().Label() + "..."))
	return b.String()
}

func (m *MessageApp) renderResult() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("New Message"))
	b.WriteString(MutedStyle.Render("  3/3 for " + m.lead().Name))
	b.WriteString("\n\n")

	width := m.width - 6
	if width < 20 || width > 76 {
		width = 76
	}
	body := PanelStyle.Width(width).Render(m.draft)
	b.WriteString(body)
	b.WriteString("\n\n")

	if m.notice != "" {
		b.WriteString(SuccessStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	actions := []string{
		HelpKeyStyle.Render("w") + " WhatsApp link",
		HelpKeyStyle.Render("e") + " email",
		HelpKeyStyle.Render("c") + " copy",
		HelpKeyStyle.Render("r") + " regenerate",
		HelpKeyStyle.Render("esc") + " back",
		HelpKeyStyle.Render("q") + " quit",
	}
	b.WriteString(HelpStyle.Render(strings.Join(actions, "  ")))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
