package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"leadly/internal/crm"
	"leadly/internal/noshow"
	"leadly/internal/store"
)

type noShowView int

const (
	viewBoard noShowView = iota
	viewRebook
)

// NoShowApp is the recovery board TUI model
type NoShowApp struct {
	store *store.Store

	width  int
	height int

	board       *noshow.Board
	selectedIdx int
	view        noShowView
	err         error
	notice      string

	rebookDate  textinput.Model
	rebookStart textinput.Model
	rebookFocus int
}

type boardLoadedMsg struct {
	board *noshow.Board
}

type boardChangedMsg struct {
	notice string
}

// NewNoShowApp creates the no-show recovery TUI
func NewNoShowApp(st *store.Store) *NoShowApp {
	return &NoShowApp{store: st, view: viewBoard}
}

func (m *NoShowApp) Init() tea.Cmd {
	return m.loadBoard()
}

func (m *NoShowApp) loadBoard() tea.Cmd {
	return func() tea.Msg {
		board, err := noshow.Build(m.store)
		if err != nil {
			return errMsg{err}
		}
		return boardLoadedMsg{board}
	}
}

func (m *NoShowApp) selected() (noshow.Entry, bool) {
	if m.board == nil || m.selectedIdx < 0 || m.selectedIdx >= len(m.board.Entries) {
		return noshow.Entry{}, false
	}
	return m.board.Entries[m.selectedIdx], true
}

func (m *NoShowApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		m.board = msg.board
		if m.selectedIdx >= len(m.board.Entries) {
			m.selectedIdx = len(m.board.Entries) - 1
		}
		if m.selectedIdx < 0 {
			m.selectedIdx = 0
		}
		return m, nil

	case boardChangedMsg:
		m.view = viewBoard
		m.notice = msg.notice
		return m, m.loadBoard()

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		m.notice = ""
		m.err = nil
		return m.handleKeyPress(msg)
	}

	if m.view == viewRebook {
		return m.updateRebookForm(msg)
	}

	return m, nil
}

func (m *NoShowApp) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view == viewRebook {
		return m.handleRebookKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, nil

	case "down", "j":
		if m.board != nil && m.selectedIdx < len(m.board.Entries)-1 {
			m.selectedIdx++
		}
		return m, nil

	case "a":
		if entry, ok := m.selected(); ok {
			return m, m.archive(entry)
		}
		return m, nil

	case "b":
		if _, ok := m.selected(); ok {
			m.initRebookForm()
			m.view = viewRebook
		}
		return m, nil
	}
	return m, nil
}

func (m *NoShowApp) archive(entry noshow.Entry) tea.Cmd {
	return func() tea.Msg {
		if err := noshow.Archive(m.store, entry.Appointment); err != nil {
			return errMsg{err}
		}
		return boardChangedMsg{notice: "Archived"}
	}
}

func (m *NoShowApp) initRebookForm() {
	m.rebookDate = textinput.New()
	m.rebookDate.Placeholder = "YYYY-MM-DD"
	m.rebookDate.SetValue(time.Now().AddDate(0, 0, 1).Format("2006-01-02"))
	m.rebookDate.Focus()

	m.rebookStart = textinput.New()
	m.rebookStart.Placeholder = "HH:MM"
	m.rebookStart.SetValue("10:00")

	m.rebookFocus = 0
}

func (m *NoShowApp) handleRebookKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewBoard
		return m, nil

	case "tab", "down", "up", "shift+tab":
		m.rebookFocus = 1 - m.rebookFocus
		if m.rebookFocus == 0 {
			m.rebookDate.Focus()
			m.rebookStart.Blur()
		} else {
			m.rebookDate.Blur()
			m.rebookStart.Focus()
		}
		return m, nil

	case "enter":
		return m, m.rebook()
	}

	var cmd tea.Cmd
	_, cmd = m.updateRebookForm(msg)
	return m, cmd
}

func (m *NoShowApp) updateRebookForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.rebookDate, cmd = m.rebookDate.Update(msg)
	cmds = append(cmds, cmd)
	m.rebookStart, cmd = m.rebookStart.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *NoShowApp) rebook() tea.Cmd {
	entry, ok := m.selected()
	if !ok {
		return nil
	}
	dateVal := m.rebookDate.Value()
	startVal := m.rebookStart.Value()

	return func() tea.Msg {
		date, err := time.Parse("2006-01-02", dateVal)
		if err != nil {
			return errMsg{fmt.Errorf("invalid date: %v", err)}
		}
		startTime, err := time.Parse("15:04", startVal)
		if err != nil {
			return errMsg{fmt.Errorf("invalid time: %v", err)}
		}

		start := time.Date(date.Year(), date.Month(), date.Day(),
			startTime.Hour(), startTime.Minute(), 0, 0, time.Local)
		duration := entry.Appointment.End.Sub(entry.Appointment.Start)
		if duration <= 0 {
			duration = time.Hour
		}

		_, err = noshow.Rebook(m.store, entry.Appointment, noshow.Reschedule{
			Start: start,
			End:   start.Add(duration),
			Title: entry.Appointment.Title,
		})
		if err != nil {
			return errMsg{err}
		}
		if entry.Lead != nil {
			m.store.AppendActivity(crm.Activity{
				LeadID: entry.Lead.ID,
				Type:   crm.ActivitySystem,
				Title:  "Rebooked after no-show",
			})
		}
		return boardChangedMsg{notice: "Rebooked"}
	}
}

func (m *NoShowApp) View() string {
	if m.view == viewRebook {
		return m.renderRebookForm()
	}
	return m.renderBoard()
}

func (m *NoShowApp) renderBoard() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("No-Show Recovery"))
	b.WriteString("\n\n")

	if m.board != nil {
		s := m.board.Stats
		kpi := func(label, value string) string {
			return PanelStyle.Render(
				MutedStyle.Render(label) + "\n" +
					lipgloss.NewStyle().Bold(true).Foreground(text).Render(value))
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			kpi("Missed", fmt.Sprintf("%d", s.Total)),
			kpi("Rate", fmt.Sprintf("%.0f%%", s.Rate*100)),
			kpi("Recovered", fmt.Sprintf("%d", s.Recovered)),
			kpi("Revenue at risk", fmt.Sprintf("%.0f", s.RevenueAtRisk)),
		)
		b.WriteString(row)
		b.WriteString("\n\n")
	}

	if m.board == nil || len(m.board.Entries) == 0 {
		b.WriteString(SuccessStyle.Render("  No missed appointments. Nice."))
		b.WriteString("\n")
	} else {
		for i, entry := range m.board.Entries {
			b.WriteString(m.renderEntry(entry, i == m.selectedIdx))
			b.WriteString("\n")
		}
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
		HelpKeyStyle.Render("b") + " rebook",
		HelpKeyStyle.Render("a") + " archive",
		HelpKeyStyle.Render("q") + " quit",
	}
	b.WriteString(HelpStyle.Render(strings.Join(help, "  ")))

	return b.String()
}

func (m *NoShowApp) renderEntry(entry noshow.Entry, selected bool) string {
	app := entry.Appointment

	prefix := "  "
	titleStyle := lipgloss.NewStyle().Foreground(text)
	if selected {
		prefix = lipgloss.NewStyle().Foreground(primary).Render("▸ ")
		titleStyle = titleStyle.Bold(true)
	}

	when := MutedStyle.Render(app.Start.Format("Mon Jan 2 15:04"))
	line := prefix + when + "  " + titleStyle.Render(app.Title)

	if entry.Lead != nil {
		line += lipgloss.NewStyle().Foreground(secondary).Render(" · " + entry.Lead.Name)
		if entry.Lead.Phone != "" {
			line += MutedStyle.Render(" " + entry.Lead.Phone)
		}
	}

	if entry.Recovered {
		line += SuccessStyle.Render("  recovered")
	}

	return line
}

func (m *NoShowApp) renderRebookForm() string {
	var b strings.Builder

	entry, _ := m.selected()
	b.WriteString(HeaderStyle.Render("Rebook: " + entry.Appointment.Title))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Width(8).Foreground(muted)
	focusedStyle := lipgloss.NewStyle().Foreground(primary)

	dateLabel := "Date:"
	startLabel := "Start:"
	if m.rebookFocus == 0 {
		dateLabel = focusedStyle.Render(dateLabel)
	} else {
		startLabel = focusedStyle.Render(startLabel)
	}

	b.WriteString(labelStyle.Render(dateLabel))
	b.WriteString(m.rebookDate.View())
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(startLabel))
	b.WriteString(m.rebookStart.View())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	b.WriteString(HelpStyle.Render("Tab: switch field  Enter: rebook  Esc: cancel"))

	return b.String()
}
