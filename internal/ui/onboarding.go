package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"leadly/config"
	"leadly/internal/onboarding"
)

// OnboardingApp renders the first-run wizard. All decisions live in the
// onboarding package; this model only collects input per screen.
type OnboardingApp struct {
	wiz *onboarding.Wizard
	cfg *config.Config

	width  int
	height int

	cursor int
	name   textinput.Model
	icsURL textinput.Model
	err    error
	saved  bool
}

var tones = []string{"professional", "friendly", "promotional"}

var calendarOptions = []struct {
	system config.CalendarSystem
	label  string
}{
	{config.CalendarManual, "No external calendar"},
	{config.CalendarGoogle, "Google Calendar (connect later with: leadly connect google)"},
	{config.CalendarICS, "Calendar subscription (ICS URL)"},
}

var automationOptions = []string{
	"24h appointment reminder",
	"2h appointment reminder",
	"No-show recovery nudge",
	"Ask for a review after a visit",
	"Send reminders by email",
	"Send reminders by WhatsApp",
}

// NewOnboardingApp creates the wizard TUI
func NewOnboardingApp(cfg *config.Config) *OnboardingApp {
	name := textinput.New()
	name.Placeholder = "Your business name"
	name.Focus()

	ics := textinput.New()
	ics.Placeholder = "https://calendar.example.com/feed.ics"

	return &OnboardingApp{
		wiz:    onboarding.New(),
		cfg:    cfg,
		name:   name,
		icsURL: ics,
	}
}

// Completed reports whether Finish ran and the config was saved.
func (m *OnboardingApp) Completed() bool {
	return m.saved
}

func (m *OnboardingApp) Init() tea.Cmd {
	return textinput.Blink
}

func (m *OnboardingApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		m.err = nil
		return m.handleKeyPress(msg)
	}

	return m.updateInputs(msg)
}

func (m *OnboardingApp) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.wiz.Step() {
	case onboarding.StepWelcome:
		m.name, cmd = m.name.Update(msg)
	case onboarding.StepCalendar:
		m.icsURL, cmd = m.icsURL.Update(msg)
	}
	return m, cmd
}

func (m *OnboardingApp) handleKeyPress(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() == "ctrl+c" {
		return m, tea.Quit
	}

	step := m.wiz.Step()

	// esc walks one screen back everywhere except the first
	if k.String() == "esc" {
		if step == onboarding.StepWelcome {
			return m, tea.Quit
		}
		m.wiz.Back()
		m.cursor = 0
		return m, nil
	}

	switch step {
	case onboarding.StepWelcome:
		if k.String() == "enter" {
			name := strings.TrimSpace(m.name.Value())
			if name == "" {
				m.err = fmt.Errorf("the business needs a name")
				return m, nil
			}
			m.wiz.Data.BusinessName = name
			m.wiz.Next()
			return m, nil
		}
		return m.updateInputs(k)

	case onboarding.StepSector:
		return m.handlePickList(k, len(onboarding.Sectors), func(i int) {
			m.wiz.SetSector(onboarding.Sectors[i].ID)
			m.wiz.Next()
		})

	case onboarding.StepSubcategory:
		sec := onboarding.SectorByID(m.wiz.Data.Sector)
		if sec == nil {
			m.wiz.Back()
			return m, nil
		}
		return m.handlePickList(k, len(sec.Subcategories), func(i int) {
			m.wiz.SetSubcategory(sec.Subcategories[i].ID)
			m.wiz.Next()
		})

	case onboarding.StepServices:
		switch k.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.wiz.Data.Services)-1 {
				m.cursor++
			}
		case " ", "x":
			m.wiz.ToggleService(m.cursor)
		case "enter":
			m.cursor = 0
			m.wiz.Next()
		}
		return m, nil

	case onboarding.StepBuffer:
		switch k.String() {
		case "up", "k", "+", "right":
			m.wiz.Data.Buffer += 5
		case "down", "j", "-", "left":
			if m.wiz.Data.Buffer >= 5 {
				m.wiz.Data.Buffer -= 5
			}
		case "enter":
			m.wiz.Next()
		}
		return m, nil

	case onboarding.StepCalendar:
		switch k.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.syncCalendarFocus()
			}
		case "down", "j":
			if m.cursor < len(calendarOptions)-1 {
				m.cursor++
				m.syncCalendarFocus()
			}
		case "enter":
			choice := calendarOptions[m.cursor]
			m.wiz.Data.Calendar = choice.system
			if choice.system == config.CalendarICS {
				url := strings.TrimSpace(m.icsURL.Value())
				if url == "" {
					m.err = fmt.Errorf("an ICS subscription needs a URL")
					return m, nil
				}
				m.wiz.Data.ICSURL = url
			}
			m.cursor = 0
			m.wiz.Next()
		default:
			return m.updateInputs(k)
		}
		return m, nil

	case onboarding.StepAutomations:
		switch k.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(automationOptions)-1 {
				m.cursor++
			}
		case " ", "x":
			m.toggleAutomation(m.cursor)
		case "enter":
			m.cursor = 0
			m.wiz.Next()
		}
		return m, nil

	case onboarding.StepTone:
		return m.handlePickList(k, len(tones), func(i int) {
			m.wiz.Data.Tone = tones[i]
			m.wiz.Next()
		})

	case onboarding.StepConsent:
		switch k.String() {
		case "y":
			m.wiz.Data.Consent = true
			return m, m.finish()
		case "n":
			m.wiz.Data.Consent = false
			return m, m.finish()
		case "enter":
			return m, m.finish()
		case " ":
			m.wiz.Data.Consent = !m.wiz.Data.Consent
		}
		return m, nil

	case onboarding.StepDone:
		return m, tea.Quit
	}

	return m, nil
}

func (m *OnboardingApp) handlePickList(k tea.KeyMsg, n int, choose func(int)) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "enter":
		if n > 0 {
			i := m.cursor
			m.cursor = 0
			choose(i)
		}
	}
	return m, nil
}

func (m *OnboardingApp) syncCalendarFocus() {
	if calendarOptions[m.cursor].system == config.CalendarICS {
		m.icsURL.Focus()
	} else {
		m.icsURL.Blur()
	}
}

func (m *OnboardingApp) toggleAutomation(i int) {
	a := &m.wiz.Data.Automations
	switch i {
	case 0:
		a.Reminder24h = !a.Reminder24h
	case 1:
		a.Reminder2h = !a.Reminder2h
	case 2:
		a.NoShowRecovery = !a.NoShowRecovery
	case 3:
		a.AskReview = !a.AskReview
	case 4:
		a.Channels.Email = !a.Channels.Email
	case 5:
		a.Channels.WhatsApp = !a.Channels.WhatsApp
	}
}

func (m *OnboardingApp) automationEnabled(i int) bool {
	a := m.wiz.Data.Automations
	switch i {
	case 0:
		return a.Reminder24h
	case 1:
		return a.Reminder2h
	case 2:
		return a.NoShowRecovery
	case 3:
		return a.AskReview
	case 4:
		return a.Channels.Email
	case 5:
		return a.Channels.WhatsApp
	}
	return false
}

func (m *OnboardingApp) finish() tea.Cmd {
	return func() tea.Msg {
		if err := m.wiz.Finish(m.cfg); err != nil {
			return errMsg{err}
		}
		if err := m.cfg.Save(); err != nil {
			return errMsg{err}
		}
		m.saved = true
		return tea.Quit()
	}
}

func (m *OnboardingApp) View() string {
	var b strings.Builder

	step := m.wiz.Step()

	b.WriteString(TitleStyle.Render(" leadly setup "))
	b.WriteString(MutedStyle.Render("  " + step.String()))
	b.WriteString("\n\n")

	switch step {
	case onboarding.StepWelcome:
		b.WriteString("Welcome. What is your business called?\n\n")
		b.WriteString("  " + m.name.View() + "\n")

	case onboarding.StepSector:
		b.WriteString("What kind of business is it?\n\n")
		for i, sec := range onboarding.Sectors {
			b.WriteString(m.renderChoice(sec.Label, i == m.cursor))
		}

	case onboarding.StepSubcategory:
		b.WriteString("More specifically?\n\n")
		if sec := onboarding.SectorByID(m.wiz.Data.Sector); sec != nil {
			for i, sub := range sec.Subcategories {
				b.WriteString(m.renderChoice(sub.Label, i == m.cursor))
			}
		}

	case onboarding.StepServices:
		b.WriteString("Which services do you offer? Space toggles, enter confirms.\n\n")
		for i, choice := range m.wiz.Data.Services {
			mark := "[ ]"
			if choice.Selected {
				mark = SuccessStyle.Render("[x]")
			}
			label := fmt.Sprintf("%s %s (%d min, %.0f)",
				mark, choice.Service.Name, choice.Service.DurationMinutes, choice.Service.Price)
			b.WriteString(m.renderChoice(label, i == m.cursor))
		}

	case onboarding.StepBuffer:
		b.WriteString("Buffer between appointments?\n\n")
		b.WriteString("  " + SelectedItemStyle.Render(strconv.Itoa(m.wiz.Data.Buffer)+" minutes") + "\n")
		b.WriteString("\n" + MutedStyle.Render("  +/- adjusts in 5 minute steps") + "\n")

	case onboarding.StepCalendar:
		b.WriteString("Where does your schedule live today?\n\n")
		for i, opt := range calendarOptions {
			b.WriteString(m.renderChoice(opt.label, i == m.cursor))
			if opt.system == config.CalendarICS && i == m.cursor {
				b.WriteString("      " + m.icsURL.View() + "\n")
			}
		}

	case onboarding.StepAutomations:
		b.WriteString("Which automations should run? Space toggles, enter confirms.\n\n")
		for i, label := range automationOptions {
			mark := "[ ]"
			if m.automationEnabled(i) {
				mark = SuccessStyle.Render("[x]")
			}
			b.WriteString(m.renderChoice(mark+" "+label, i == m.cursor))
		}

	case onboarding.StepTone:
		b.WriteString("How should your messages sound?\n\n")
		for i, tone := range tones {
			b.WriteString(m.renderChoice(tone, i == m.cursor))
		}

	case onboarding.StepConsent:
		b.WriteString("Automated WhatsApp messages go out under your name.\n")
		b.WriteString("Do you consent to automated messaging? " +
			MutedStyle.Render("(y/n, enter keeps the current choice)") + "\n\n")
		state := ErrorStyle.Render("  no")
		if m.wiz.Data.Consent {
			state = SuccessStyle.Render("  yes")
		}
		b.WriteString(state + "\n")

	case onboarding.StepDone:
		b.WriteString(SuccessStyle.Render("All set.") + "\n\n")
		b.WriteString("Run " + HelpKeyStyle.Render("leadly") + " to open your dashboard.\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(HelpStyle.Render("enter: continue  esc: back  ctrl+c: quit"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m *OnboardingApp) renderChoice(label string, selected bool) string {
	if selected {
		return SelectedItemStyle.Render(label) + "\n"
	}
	return NormalItemStyle.Render(label) + "\n"
}
