package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"leadly/internal/ai"
	"leadly/config"
	"leadly/internal/crm"
	"leadly/internal/store"
)

type leadsView int

const (
	viewLeadList leadsView = iota
	viewLeadDetail
	viewLeadForm
	viewLeadAnalysis
)

// LeadsApp is the pipeline TUI model
type LeadsApp struct {
	store *store.Store
	ai    *ai.Client
	cfg   *config.Config

	width  int
	height int

	leads       []crm.Lead
	selectedIdx int
	activities  []crm.Activity
	view        leadsView
	err         error
	notice      string

	form      leadForm
	editingID string // empty when creating

	analysis   string
	analyzing  bool
}

type leadForm struct {
	name     textinput.Model
	phone    textinput.Model
	email    textinput.Model
	source   textinput.Model
	value    textinput.Model
	notes    textinput.Model
	focusIdx int
}

const leadFormFields = 6

type leadListMsg struct {
	leads []crm.Lead
}

type activitiesMsg struct {
	activities []crm.Activity
}

type leadSavedMsg struct{}

type analysisMsg struct {
	text string
}

// NewLeadsApp creates the lead pipeline TUI
func NewLeadsApp(st *store.Store, aiClient *ai.Client, cfg *config.Config) *LeadsApp {
	return &LeadsApp{
		store: st,
		ai:    aiClient,
		cfg:   cfg,
		view:  viewLeadList,
	}
}

func (m *LeadsApp) Init() tea.Cmd {
	return m.loadLeads()
}

func (m *LeadsApp) loadLeads() tea.Cmd {
	return func() tea.Msg {
		leads, err := m.store.ListLeads()
		if err != nil {
			return errMsg{err}
		}
		// Pipeline order, newest first within a stage
		sort.SliceStable(leads, func(i, j int) bool {
			si, sj := stageRank(leads[i].Status), stageRank(leads[j].Status)
			if si != sj {
				return si < sj
			}
			return leads[i].CreatedAt.After(leads[j].CreatedAt)
		})
		return leadListMsg{leads}
	}
}

func stageRank(s crm.LeadStatus) int {
	switch s {
	case crm.LeadNew:
		return 0
	case crm.LeadContacted:
		return 1
	case crm.LeadNegotiating:
		return 2
	case crm.LeadWon:
		return 3
	case crm.LeadLost:
		return 4
	}
	return 5
}

func (m *LeadsApp) loadActivities(leadID string) tea.Cmd {
	return func() tea.Msg {
		acts, err := m.store.ListActivities(leadID)
		if err != nil {
			return errMsg{err}
		}
		return activitiesMsg{acts}
	}
}

func (m *LeadsApp) selected() (crm.Lead, bool) {
	if m.selectedIdx >= 0 && m.selectedIdx < len(m.leads) {
		return m.leads[m.selectedIdx], true
	}
	return crm.Lead{}, false
}

func (m *LeadsApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case leadListMsg:
		m.leads = msg.leads
		if m.selectedIdx >= len(m.leads) {
			m.selectedIdx = len(m.leads) - 1
		}
		if m.selectedIdx < 0 {
			m.selectedIdx = 0
		}
		return m, nil

	case activitiesMsg:
		m.activities = msg.activities
		return m, nil

	case leadSavedMsg:
		m.view = viewLeadList
		m.notice = "Lead saved"
		return m, m.loadLeads()

	case analysisMsg:
		m.analyzing = false
		m.analysis = msg.text
		return m, nil

	case errMsg:
		m.analyzing = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		m.notice = ""
		m.err = nil
		return m.handleKeyPress(msg)
	}

	if m.view == viewLeadForm {
		return m.updateLeadForm(msg)
	}

	return m, nil
}

func (m *LeadsApp) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case viewLeadList:
		return m.handleListKeys(msg)
	case viewLeadDetail:
		return m.handleDetailKeys(msg)
	case viewLeadForm:
		return m.handleLeadFormKeys(msg)
	case viewLeadAnalysis:
		if msg.String() == "esc" || msg.String() == "q" {
			m.view = viewLeadDetail
		}
		return m, nil
	}
	return m, nil
}

func (m *LeadsApp) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, nil

	case "down", "j":
		if m.selectedIdx < len(m.leads)-1 {
			m.selectedIdx++
		}
		return m, nil

	case "enter":
		if lead, ok := m.selected(); ok {
			m.view = viewLeadDetail
			return m, m.loadActivities(lead.ID)
		}
		return m, nil

	case "n":
		m.initLeadForm(crm.Lead{})
		m.editingID = ""
		m.view = viewLeadForm
		return m, nil

	case "s":
		// cycle pipeline stage
		if lead, ok := m.selected(); ok {
			return m, m.advanceStage(lead)
		}
		return m, nil
	}
	return m, nil
}

func (m *LeadsApp) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lead, ok := m.selected()
	if !ok {
		m.view = viewLeadList
		return m, nil
	}

	switch msg.String() {
	case "esc", "q":
		m.view = viewLeadList
		return m, nil

	case "e":
		m.initLeadForm(lead)
		m.editingID = lead.ID
		m.view = viewLeadForm
		return m, nil

	case "s":
		return m, m.advanceStage(lead)

	case "i":
		if m.ai == nil {
			m.err = fmt.Errorf("no AI provider configured")
			return m, nil
		}
		m.view = viewLeadAnalysis
		m.analyzing = true
		m.analysis = ""
		return m, m.analyzeLead(lead)
	}
	return m, nil
}

var stageCycle = []crm.LeadStatus{
	crm.LeadNew, crm.LeadContacted, crm.LeadNegotiating, crm.LeadWon, crm.LeadLost,
}

func (m *LeadsApp) advanceStage(lead crm.Lead) tea.Cmd {
	return func() tea.Msg {
		next := stageCycle[0]
		for i, s := range stageCycle {
			if s == lead.Status {
				next = stageCycle[(i+1)%len(stageCycle)]
				break
			}
		}
		lead.Status = next
		if err := m.store.UpdateLead(lead); err != nil {
			return errMsg{err}
		}
		m.store.AppendActivity(crm.Activity{
			LeadID: lead.ID,
			Type:   crm.ActivitySystem,
			Title:  fmt.Sprintf("Moved to %s", next),
		})
		return leadSavedMsg{}
	}
}

func (m *LeadsApp) analyzeLead(lead crm.Lead) tea.Cmd {
	return func() tea.Msg {
		acts, err := m.store.ListActivities(lead.ID)
		if err != nil {
			return errMsg{err}
		}
		prompt := ai.LeadAnalysisPrompt(lead, acts)
		out, err := m.ai.Call(prompt)
		if err != nil {
			return errMsg{err}
		}
		return analysisMsg{out}
	}
}

func (m *LeadsApp) initLeadForm(lead crm.Lead) {
	m.form = leadForm{
		name:   textinput.New(),
		phone:  textinput.New(),
		email:  textinput.New(),
		source: textinput.New(),
		value:  textinput.New(),
		notes:  textinput.New(),
	}

	m.form.name.Placeholder = "Name"
	m.form.name.SetValue(lead.Name)
	m.form.name.Focus()

	m.form.phone.Placeholder = "+1 555 000 0000"
	m.form.phone.SetValue(lead.Phone)

	m.form.email.Placeholder = "name@example.com"
	m.form.email.SetValue(lead.Email)

	m.form.source.Placeholder = "referral, instagram, walk-in..."
	m.form.source.SetValue(lead.Source)

	m.form.value.Placeholder = "0"
	if lead.Value > 0 {
		m.form.value.SetValue(fmt.Sprintf("%.0f", lead.Value))
	}

	m.form.notes.Placeholder = "Notes"
	m.form.notes.SetValue(lead.Notes)

	m.form.focusIdx = 0
}

func (m *LeadsApp) handleLeadFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewLeadList
		if m.editingID != "" {
			m.view = viewLeadDetail
		}
		return m, nil

	case "tab", "down":
		m.form.focusIdx = (m.form.focusIdx + 1) % leadFormFields
		m.updateLeadFormFocus()
		return m, nil

	case "shift+tab", "up":
		m.form.focusIdx = (m.form.focusIdx + leadFormFields - 1) % leadFormFields
		m.updateLeadFormFocus()
		return m, nil

	case "enter", "ctrl+s":
		return m, m.saveLead()
	}

	var cmd tea.Cmd
	_, cmd = m.updateLeadForm(msg)
	return m, cmd
}

func (m *LeadsApp) updateLeadForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.form.name, cmd = m.form.name.Update(msg)
	cmds = append(cmds, cmd)
	m.form.phone, cmd = m.form.phone.Update(msg)
	cmds = append(cmds, cmd)
	m.form.email, cmd = m.form.email.Update(msg)
	cmds = append(cmds, cmd)
	m.form.source, cmd = m.form.source.Update(msg)
	cmds = append(cmds, cmd)
	m.form.value, cmd = m.form.value.Update(msg)
	cmds = append(cmds, cmd)
	m.form.notes, cmd = m.form.notes.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *LeadsApp) updateLeadFormFocus() {
	inputs := []*textinput.Model{
		&m.form.name, &m.form.phone, &m.form.email,
		&m.form.source, &m.form.value, &m.form.notes,
	}
	for i, in := range inputs {
		if i == m.form.focusIdx {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

func (m *LeadsApp) saveLead() tea.Cmd {
	return func() tea.Msg {
		name := strings.TrimSpace(m.form.name.Value())
		if name == "" {
			return errMsg{fmt.Errorf("name is required")}
		}

		var value float64
		if v := strings.TrimSpace(m.form.value.Value()); v != "" {
			if _, err := fmt.Sscanf(v, "%f", &value); err != nil {
				return errMsg{fmt.Errorf("invalid value: %q", v)}
			}
		}

		if m.editingID != "" {
			lead, err := m.store.GetLead(m.editingID)
			if err != nil {
				return errMsg{err}
			}
			lead.Name = name
			lead.Phone = strings.TrimSpace(m.form.phone.Value())
			lead.Email = strings.TrimSpace(m.form.email.Value())
			lead.Source = strings.TrimSpace(m.form.source.Value())
			lead.Value = value
			lead.Notes = m.form.notes.Value()
			if err := m.store.UpdateLead(lead); err != nil {
				return errMsg{err}
			}
			return leadSavedMsg{}
		}

		lead := crm.Lead{
			Name:   name,
			Phone:  strings.TrimSpace(m.form.phone.Value()),
			Email:  strings.TrimSpace(m.form.email.Value()),
			Source: strings.TrimSpace(m.form.source.Value()),
			Value:  value,
			Notes:  m.form.notes.Value(),
			Status: crm.LeadNew,
		}
		created, err := m.store.CreateLead(lead)
		if err != nil {
			return errMsg{err}
		}
		m.store.AppendActivity(crm.Activity{
			LeadID: created.ID,
			Type:   crm.ActivitySystem,
			Title:  "Lead created",
		})
		return leadSavedMsg{}
	}
}

func (m *LeadsApp) View() string {
	switch m.view {
	case viewLeadDetail:
		return m.renderDetail()
	case viewLeadForm:
		return m.renderLeadForm()
	case viewLeadAnalysis:
		return m.renderAnalysis()
	default:
		return m.renderList()
	}
}

func leadStageColor(s crm.LeadStatus) lipgloss.Color {
	switch s {
	case crm.LeadWon:
		return success
	case crm.LeadLost:
		return muted
	case crm.LeadNegotiating:
		return secondary
	default:
		return warning
	}
}

func (m *LeadsApp) renderList() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("Leads"))
	b.WriteString(MutedStyle.Render(fmt.Sprintf("  %d total", len(m.leads))))
	b.WriteString("\n\n")

	if len(m.leads) == 0 {
		b.WriteString(MutedStyle.Italic(true).Render("  No leads yet. Press n to add one."))
		b.WriteString("\n")
	}

	for i, lead := range m.leads {
		stageStyle := lipgloss.NewStyle().Foreground(leadStageColor(lead.Status)).Width(12)
		nameStyle := lipgloss.NewStyle().Foreground(text).Width(24)
		metaStyle := lipgloss.NewStyle().Foreground(muted)

		prefix := "  "
		if i == m.selectedIdx {
			prefix = lipgloss.NewStyle().Foreground(primary).Render("▸ ")
			nameStyle = nameStyle.Bold(true)
		}

		line := prefix + nameStyle.Render(truncateRunes(lead.Name, 22)) +
			stageStyle.Render(string(lead.Status))
		if lead.Value > 0 {
			line += metaStyle.Render(fmt.Sprintf("%.0f", lead.Value))
		}
		if lead.Source != "" {
			line += metaStyle.Render("  · " + lead.Source)
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(SuccessStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	help := []string{
		HelpKeyStyle.Render("↑/↓") + " move",
		HelpKeyStyle.Render("enter") + " open",
		HelpKeyStyle.Render("n") + " new",
		HelpKeyStyle.Render("s") + " stage",
		HelpKeyStyle.Render("q") + " quit",
	}
	b.WriteString(HelpStyle.Render(strings.Join(help, "  ")))

	return b.String()
}

func (m *LeadsApp) renderDetail() string {
	lead, ok := m.selected()
	if !ok {
		return ""
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(lead.Name))
	b.WriteString("\n\n")

	stageStyle := lipgloss.NewStyle().Bold(true).Foreground(leadStageColor(lead.Status))
	b.WriteString("  Stage:  " + stageStyle.Render(string(lead.Status)) + "\n")
	if lead.Phone != "" {
		b.WriteString("  Phone:  " + lead.Phone + "\n")
	}
	if lead.Email != "" {
		b.WriteString("  Email:  " + lead.Email + "\n")
	}
	if lead.Source != "" {
		b.WriteString("  Source: " + lead.Source + "\n")
	}
	if lead.Value > 0 {
		b.WriteString(fmt.Sprintf("  Value:  %.0f\n", lead.Value))
	}
	if lead.Notes != "" {
		b.WriteString("\n  " + MutedStyle.Render(lead.Notes) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(text).Render("  Activity"))
	b.WriteString("\n")

	if len(m.activities) == 0 {
		b.WriteString(MutedStyle.Italic(true).Render("  No activity recorded"))
		b.WriteString("\n")
	}
	for _, act := range m.activities {
		ts := MutedStyle.Render(act.Date.Format("Jan 2 15:04"))
		line := act.Title
		if act.Description != "" {
			line += MutedStyle.Render(" - " + act.Description)
		}
		b.WriteString(fmt.Sprintf("  %s  %s\n", ts, line))
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	help := []string{
		HelpKeyStyle.Render("e") + " edit",
		HelpKeyStyle.Render("s") + " stage",
		HelpKeyStyle.Render("i") + " AI insights",
		HelpKeyStyle.Render("esc") + " back",
	}
	b.WriteString(HelpStyle.Render(strings.Join(help, "  ")))

	return b.String()
}

func (m *LeadsApp) renderLeadForm() string {
	var b strings.Builder

	title := "New Lead"
	if m.editingID != "" {
		title = "Edit Lead"
	}
	b.WriteString(HeaderStyle.Render(title))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Width(9).Foreground(muted)
	focusedStyle := lipgloss.NewStyle().Foreground(primary)

	fields := []struct {
		label string
		view  string
	}{
		{"Name:", m.form.name.View()},
		{"Phone:", m.form.phone.View()},
		{"Email:", m.form.email.View()},
		{"Source:", m.form.source.View()},
		{"Value:", m.form.value.View()},
		{"Notes:", m.form.notes.View()},
	}
	for i, f := range fields {
		label := f.label
		if m.form.focusIdx == i {
			label = focusedStyle.Render(label)
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(f.view)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	b.WriteString(HelpStyle.Render("Tab: next field  Enter: save  Esc: cancel"))

	return b.String()
}

func (m *LeadsApp) renderAnalysis() string {
	var b strings.Builder

	lead, _ := m.selected()
	b.WriteString(HeaderStyle.Render("AI Insights: " + lead.Name))
	b.WriteString("\n\n")

	if m.analyzing {
		b.WriteString(MutedStyle.Render("  Thinking..."))
	} else if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
	} else {
		for _, line := range strings.Split(m.analysis, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(HelpStyle.Render("esc: back"))

	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
