package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"leadly/internal/agenda"
	"leadly/internal/crm"
	"leadly/internal/store"
)

// View states
type calendarView int

const (
	viewGrid calendarView = iota
	viewActions
	viewAddAppointment
)

// maxCellEvents caps how many entries a grid cell shows; the day panel
// always shows everything.
const maxCellEvents = 3

// CalendarApp is the month-grid TUI model
type CalendarApp struct {
	store     *store.Store
	loader    *agenda.Loader
	weekStart time.Weekday
	syncLabel string // name of the connected calendar, empty when manual

	width        int
	height       int
	selectedDate time.Time
	selectedIdx  int // selected appointment in the day panel
	result       *agenda.Result
	leads        []crm.Lead
	view         calendarView
	loading      bool
	statusBusy   bool // a status transition is in flight
	err          error
	notice       string

	// push mirrors a newly created appointment to the connected calendar.
	// Nil when no calendar is connected.
	push func(ctx context.Context, app crm.Appointment) error

	form apptForm
}

type apptForm struct {
	title    textinput.Model
	date     textinput.Model
	start    textinput.Model
	end      textinput.Model
	apptType int // index into apptTypes
	lead     int // index into leads, 0 = none
	focusIdx int
}

var apptTypes = []crm.AppointmentType{crm.TypeMeeting, crm.TypeCall, crm.TypeDemo}

// Messages
type gridLoadedMsg struct {
	result *agenda.Result
}

type leadsLoadedMsg struct {
	leads []crm.Lead
}

type statusChangedMsg struct{}

type apptCreatedMsg struct {
	pushErr error // non-nil when the mirror to the external calendar failed
}

type errMsg struct {
	err error
}

// NewCalendarApp creates the calendar TUI
func NewCalendarApp(st *store.Store, loader *agenda.Loader, weekStart time.Weekday, syncLabel string, push func(ctx context.Context, app crm.Appointment) error) *CalendarApp {
	return &CalendarApp{
		store:        st,
		loader:       loader,
		weekStart:    weekStart,
		syncLabel:    syncLabel,
		selectedDate: time.Now(),
		view:         viewGrid,
		push:         push,
	}
}

func (m *CalendarApp) Init() tea.Cmd {
	return tea.Batch(m.loadGrid(), m.loadLeads())
}

// loadGrid fetches local and external appointments for the visible grid.
// Each load is tagged with a generation; a result arriving after another
// navigation claimed a newer generation is dropped in Update.
func (m *CalendarApp) loadGrid() tea.Cmd {
	gen := m.loader.NextGeneration()
	ref := m.selectedDate
	ws := m.weekStart
	m.loading = true

	return func() tea.Msg {
		from, to := agenda.GridRange(ref, ws)
		// Cover appointments starting any time on the last cell's date.
		to = to.Add(24*time.Hour - time.Nanosecond)

		res, err := m.loader.Load(context.Background(), gen, from, to)
		if err != nil {
			return errMsg{err}
		}
		return gridLoadedMsg{res}
	}
}

func (m *CalendarApp) loadLeads() tea.Cmd {
	return func() tea.Msg {
		leads, err := m.store.ListLeads()
		if err != nil {
			return errMsg{err}
		}
		return leadsLoadedMsg{leads}
	}
}

func (m *CalendarApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case gridLoadedMsg:
		if m.loader.Superseded(msg.result) {
			return m, nil // stale load from an earlier navigation
		}
		m.loading = false
		m.result = msg.result
		return m, nil

	case leadsLoadedMsg:
		m.leads = msg.leads
		return m, nil

	case statusChangedMsg:
		m.statusBusy = false
		m.view = viewGrid
		m.notice = "Status updated"
		return m, m.loadGrid()

	case apptCreatedMsg:
		m.view = viewGrid
		m.notice = "Appointment created"
		if msg.pushErr != nil {
			m.err = fmt.Errorf("saved locally, calendar push failed: %v", msg.pushErr)
		}
		return m, m.loadGrid()

	case errMsg:
		m.loading = false
		m.statusBusy = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		m.notice = ""
		return m.handleKeyPress(msg)
	}

	if m.view == viewAddAppointment {
		return m.updateForm(msg)
	}

	return m, nil
}

func (m *CalendarApp) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case viewGrid:
		return m.handleGridKeys(msg)
	case viewActions:
		return m.handleActionKeys(msg)
	case viewAddAppointment:
		return m.handleFormKeys(msg)
	}
	return m, nil
}

func (m *CalendarApp) handleGridKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, calKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, calKeys.Left):
		m.selectedDate = m.selectedDate.AddDate(0, 0, -1)
		m.selectedIdx = 0
		return m, nil

	case key.Matches(msg, calKeys.Right):
		m.selectedDate = m.selectedDate.AddDate(0, 0, 1)
		m.selectedIdx = 0
		return m, nil

	case key.Matches(msg, calKeys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		} else {
			m.selectedDate = m.selectedDate.AddDate(0, 0, -7)
			m.selectedIdx = 0
		}
		return m, nil

	case key.Matches(msg, calKeys.Down):
		if m.selectedIdx < len(m.dayAppointments())-1 {
			m.selectedIdx++
		} else {
			m.selectedDate = m.selectedDate.AddDate(0, 0, 7)
			m.selectedIdx = 0
		}
		return m, nil

	case key.Matches(msg, calKeys.PrevMonth):
		m.selectedDate = m.selectedDate.AddDate(0, -1, 0)
		m.selectedIdx = 0
		return m, m.loadGrid()

	case key.Matches(msg, calKeys.NextMonth):
		m.selectedDate = m.selectedDate.AddDate(0, 1, 0)
		m.selectedIdx = 0
		return m, m.loadGrid()

	case key.Matches(msg, calKeys.Today):
		m.selectedDate = time.Now()
		m.selectedIdx = 0
		return m, m.loadGrid()

	case key.Matches(msg, calKeys.Refresh):
		return m, m.loadGrid()

	case key.Matches(msg, calKeys.Add):
		m.initAddForm()
		m.view = viewAddAppointment
		return m, nil

	case key.Matches(msg, calKeys.Open):
		if len(m.dayAppointments()) > 0 {
			m.view = viewActions
		}
		return m, nil
	}

	return m, nil
}

// handleActionKeys drives the status modal. External events render the
// actions disabled and every status key is refused.
func (m *CalendarApp) handleActionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	apps := m.dayAppointments()
	if m.selectedIdx >= len(apps) {
		m.view = viewGrid
		return m, nil
	}
	app := apps[m.selectedIdx]

	switch msg.String() {
	case "esc", "q":
		m.view = viewGrid
		return m, nil

	case "c":
		return m, m.setStatus(app, crm.StatusCompleted)
	case "x":
		return m, m.setStatus(app, crm.StatusCanceled)
	case "n":
		return m, m.setStatus(app, crm.StatusNoShow)
	}

	return m, nil
}

// setStatus dispatches one transition. Input stays disabled until the
// result lands; a second keypress while in flight would transition from a
// stale snapshot and overwrite the first write.
func (m *CalendarApp) setStatus(app crm.Appointment, target crm.AppointmentStatus) tea.Cmd {
	if m.statusBusy || target == app.Status {
		return nil
	}
	m.statusBusy = true
	return func() tea.Msg {
		if err := crm.Transition(m.store, app, target); err != nil {
			return errMsg{err}
		}
		return statusChangedMsg{}
	}
}

func (m *CalendarApp) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewGrid
		return m, nil

	case "tab", "down":
		m.form.focusIdx = (m.form.focusIdx + 1) % 6
		m.updateFormFocus()
		return m, nil

	case "shift+tab", "up":
		m.form.focusIdx = (m.form.focusIdx + 5) % 6
		m.updateFormFocus()
		return m, nil

	case "left":
		switch m.form.focusIdx {
		case 4:
			m.form.apptType = (m.form.apptType + len(apptTypes) - 1) % len(apptTypes)
			return m, nil
		case 5:
			m.form.lead = (m.form.lead + len(m.leads)) % (len(m.leads) + 1)
			return m, nil
		}

	case "right":
		switch m.form.focusIdx {
		case 4:
			m.form.apptType = (m.form.apptType + 1) % len(apptTypes)
			return m, nil
		case 5:
			m.form.lead = (m.form.lead + 1) % (len(m.leads) + 1)
			return m, nil
		}

	case "enter", "ctrl+s":
		return m, m.saveAppointment()
	}

	var cmd tea.Cmd
	_, cmd = m.updateForm(msg)
	return m, cmd
}

func (m *CalendarApp) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.form.title, cmd = m.form.title.Update(msg)
	cmds = append(cmds, cmd)

	m.form.date, cmd = m.form.date.Update(msg)
	cmds = append(cmds, cmd)

	m.form.start, cmd = m.form.start.Update(msg)
	cmds = append(cmds, cmd)

	m.form.end, cmd = m.form.end.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *CalendarApp) initAddForm() {
	m.form = apptForm{
		title: textinput.New(),
		date:  textinput.New(),
		start: textinput.New(),
		end:   textinput.New(),
	}

	m.form.title.Placeholder = "Appointment title"
	m.form.title.Focus()

	m.form.date.Placeholder = "YYYY-MM-DD"
	m.form.date.SetValue(m.selectedDate.Format("2006-01-02"))

	m.form.start.Placeholder = "HH:MM"
	m.form.start.SetValue("09:00")

	m.form.end.Placeholder = "HH:MM"
	m.form.end.SetValue("10:00")

	m.form.focusIdx = 0
}

func (m *CalendarApp) updateFormFocus() {
	m.form.title.Blur()
	m.form.date.Blur()
	m.form.start.Blur()
	m.form.end.Blur()

	switch m.form.focusIdx {
	case 0:
		m.form.title.Focus()
	case 1:
		m.form.date.Focus()
	case 2:
		m.form.start.Focus()
	case 3:
		m.form.end.Focus()
	}
}

func (m *CalendarApp) saveAppointment() tea.Cmd {
	return func() tea.Msg {
		date, err := time.Parse("2006-01-02", m.form.date.Value())
		if err != nil {
			return errMsg{fmt.Errorf("invalid date: %v", err)}
		}

		startTime, err := time.Parse("15:04", m.form.start.Value())
		if err != nil {
			return errMsg{fmt.Errorf("invalid start time: %v", err)}
		}

		endTime, err := time.Parse("15:04", m.form.end.Value())
		if err != nil {
			return errMsg{fmt.Errorf("invalid end time: %v", err)}
		}

		start := time.Date(date.Year(), date.Month(), date.Day(),
			startTime.Hour(), startTime.Minute(), 0, 0, time.Local)
		end := time.Date(date.Year(), date.Month(), date.Day(),
			endTime.Hour(), endTime.Minute(), 0, 0, time.Local)

		app := crm.Appointment{
			Title: m.form.title.Value(),
			Start: start,
			End:   end,
			Type:  apptTypes[m.form.apptType],
		}
		if m.form.lead > 0 && m.form.lead <= len(m.leads) {
			lead := m.leads[m.form.lead-1]
			app.LeadID = lead.ID
			app.LeadName = lead.Name
		}

		created, err := m.store.CreateAppointment(app)
		if err != nil {
			return errMsg{err}
		}
		if m.push != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := m.push(ctx, created); err != nil {
				return apptCreatedMsg{pushErr: err}
			}
		}
		return apptCreatedMsg{}
	}
}

// dayAppointments returns the merged agenda for the selected date.
func (m *CalendarApp) dayAppointments() []crm.Appointment {
	if m.result == nil {
		return nil
	}
	return agenda.ForDay(m.selectedDate, m.result.Merged)
}

func (m *CalendarApp) View() string {
	switch m.view {
	case viewActions:
		return m.renderActions()
	case viewAddAppointment:
		return m.renderForm()
	default:
		return m.renderGrid()
	}
}

func (m *CalendarApp) renderGrid() string {
	var b strings.Builder

	header := HeaderStyle.Render(m.selectedDate.Format("January 2006"))
	b.WriteString(header)
	if m.loading {
		b.WriteString(MutedStyle.Render("  loading..."))
	}
	b.WriteString("\n\n")

	// Weekday headers, rotated to the configured week start
	headerStyle := lipgloss.NewStyle().
		Foreground(muted).
		Width(8).
		Align(lipgloss.Center)
	for i := 0; i < 7; i++ {
		day := time.Weekday((int(m.weekStart) + i) % 7)
		b.WriteString(headerStyle.Render(day.String()[:3]))
	}
	b.WriteString("\n")

	b.WriteString(m.renderMonthGrid())
	b.WriteString("\n")

	// Sync health box
	b.WriteString(m.renderSyncHealth())
	b.WriteString("\n\n")

	// Day panel
	dateHeader := lipgloss.NewStyle().
		Bold(true).
		Foreground(text).
		Render(m.selectedDate.Format("Mon, Jan 2"))
	b.WriteString(dateHeader)
	b.WriteString("\n\n")

	dayApps := m.dayAppointments()
	if len(dayApps) == 0 {
		b.WriteString(MutedStyle.Italic(true).Render("  No appointments"))
	} else {
		for i, app := range dayApps {
			b.WriteString(m.renderAppointment(app, i == m.selectedIdx))
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

	b.WriteString(m.renderHelpBar())

	return b.String()
}

func (m *CalendarApp) renderMonthGrid() string {
	var b strings.Builder

	var cells []agenda.DayCell
	if m.result != nil {
		cells = agenda.BuildGrid(m.selectedDate, m.weekStart, m.result.Merged)
	} else {
		cells = agenda.BuildGrid(m.selectedDate, m.weekStart, nil)
	}

	selectedStr := m.selectedDate.Format("2006-01-02")

	dayStyle := lipgloss.NewStyle().Width(8).Align(lipgloss.Center)
	selectedStyle := dayStyle.Background(primary).Foreground(text)
	todayStyle := dayStyle.Bold(true).Foreground(secondary)
	otherMonthStyle := dayStyle.Foreground(muted)
	busyStyle := lipgloss.NewStyle().Foreground(success)
	overflowStyle := lipgloss.NewStyle().Foreground(warning)

	for i, cell := range cells {
		marker := " "
		if n := len(cell.Appointments); n > 0 {
			if n > maxCellEvents {
				marker = overflowStyle.Render("+")
			} else {
				marker = busyStyle.Render("•")
			}
		}

		content := fmt.Sprintf("%2d", cell.Date.Day()) + marker

		var style lipgloss.Style
		switch {
		case cell.Date.Format("2006-01-02") == selectedStr:
			style = selectedStyle
		case cell.Today:
			style = todayStyle
		case !cell.InMonth:
			style = otherMonthStyle
		default:
			style = dayStyle
		}

		b.WriteString(style.Render(content))
		if (i+1)%7 == 0 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderSyncHealth shows how the last external fetch went. Local data is
// always trusted; only the external side degrades.
func (m *CalendarApp) renderSyncHealth() string {
	if m.result == nil {
		return ""
	}

	switch m.result.State {
	case agenda.StateOK:
		return SuccessStyle.Render("● ") + MutedStyle.Render(m.syncLabel+" synced")
	case agenda.StateAuthDegraded:
		return WarningStyle.Render("● ") + MutedStyle.Render(m.syncLabel+" auth expired - run: leadly connect")
	case agenda.StateFailed:
		return ErrorStyle.Render("● ") + MutedStyle.Render(m.syncLabel+" sync failed, showing local data only")
	default:
		return MutedStyle.Render("○ no calendar connected")
	}
}

func (m *CalendarApp) renderAppointment(app crm.Appointment, selected bool) string {
	timeStr := fmt.Sprintf("%s - %s", app.Start.Format("15:04"), app.End.Format("15:04"))

	timeStyle := lipgloss.NewStyle().Foreground(muted).Width(16)
	titleStyle := lipgloss.NewStyle().Foreground(text)
	statusStyle := lipgloss.NewStyle().Foreground(statusColor(string(app.Status)))
	srcStyle := lipgloss.NewStyle().Foreground(secondary)

	var prefix string
	if selected {
		prefix = lipgloss.NewStyle().Foreground(primary).Render("▸ ")
		titleStyle = titleStyle.Bold(true)
	} else {
		prefix = "  "
	}

	line := prefix + timeStyle.Render(timeStr) + titleStyle.Render(app.Title)
	if app.IsExternal() {
		line += srcStyle.Render(fmt.Sprintf(" [%s]", app.LeadName))
	} else {
		if app.LeadName != "" {
			line += srcStyle.Render(" · " + app.LeadName)
		}
		line += statusStyle.Render(" · " + string(app.Status))
	}

	return line
}

func (m *CalendarApp) renderActions() string {
	var b strings.Builder

	apps := m.dayAppointments()
	if m.selectedIdx >= len(apps) {
		return ""
	}
	app := apps[m.selectedIdx]

	b.WriteString(TitleStyle.Render("Appointment"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %s\n", app.Title))
	b.WriteString(MutedStyle.Render(fmt.Sprintf("  %s - %s\n", app.Start.Format("Mon Jan 2 15:04"), app.End.Format("15:04"))))
	if app.LeadName != "" {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  %s\n", app.LeadName)))
	}
	b.WriteString(fmt.Sprintf("  Status: %s\n\n", app.Status))

	if app.IsExternal() {
		// Actions exist but are disabled: calendar events are read-only.
		b.WriteString(MutedStyle.Render("  [c] complete   [x] cancel   [n] no-show"))
		b.WriteString("\n\n")
		b.WriteString(WarningStyle.Render("  External event - managed in your calendar"))
	} else {
		keyStyle := lipgloss.NewStyle().Bold(true).Foreground(secondary)
		hint := func(key, label string, target crm.AppointmentStatus) string {
			// The key matching the current status is a no-op; show it muted.
			if app.Status == target {
				return MutedStyle.Render("[" + key + "] " + label)
			}
			return keyStyle.Render("["+key+"]") + " " + label
		}
		b.WriteString("  " + hint("c", "complete", crm.StatusCompleted) + "   " +
			hint("x", "cancel", crm.StatusCanceled) + "   " +
			hint("n", "no-show", crm.StatusNoShow))
		if m.statusBusy {
			b.WriteString("\n\n")
			b.WriteString(MutedStyle.Render("  Saving..."))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(HelpStyle.Render("esc: back"))

	return b.String()
}

func (m *CalendarApp) renderForm() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("New Appointment"))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Width(10).Foreground(muted)
	focusedStyle := lipgloss.NewStyle().Foreground(primary)

	fields := []struct {
		label string
		view  string
	}{
		{"Title:", m.form.title.View()},
		{"Date:", m.form.date.View()},
		{"Start:", m.form.start.View()},
		{"End:", m.form.end.View()},
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

	// Type selector
	label := "Type:"
	if m.form.focusIdx == 4 {
		label = focusedStyle.Render(label)
	}
	b.WriteString(labelStyle.Render(label))
	typeStyle := lipgloss.NewStyle()
	if m.form.focusIdx == 4 {
		typeStyle = typeStyle.Background(primary).Foreground(text)
	}
	b.WriteString(typeStyle.Render(fmt.Sprintf("◀ %s ▶", apptTypes[m.form.apptType])))
	b.WriteString("\n")

	// Lead picker
	label = "Lead:"
	if m.form.focusIdx == 5 {
		label = focusedStyle.Render(label)
	}
	b.WriteString(labelStyle.Render(label))

	leadName := "none"
	if m.form.lead > 0 && m.form.lead <= len(m.leads) {
		leadName = m.leads[m.form.lead-1].Name
	}
	leadStyle := lipgloss.NewStyle()
	if m.form.focusIdx == 5 {
		leadStyle = leadStyle.Background(primary).Foreground(text)
	}
	b.WriteString(leadStyle.Render(fmt.Sprintf("◀ %s ▶", leadName)))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	b.WriteString(HelpStyle.Render("Tab: next field  ←/→: change  Enter: save  Esc: cancel"))

	return b.String()
}

func (m *CalendarApp) renderHelpBar() string {
	help := []string{
		HelpKeyStyle.Render("←/→") + " day",
		HelpKeyStyle.Render("↑/↓") + " week",
		HelpKeyStyle.Render("H/L") + " month",
		HelpKeyStyle.Render("t") + " today",
		HelpKeyStyle.Render("a") + " add",
		HelpKeyStyle.Render("enter") + " actions",
		HelpKeyStyle.Render("r") + " refresh",
		HelpKeyStyle.Render("q") + " quit",
	}
	return HelpStyle.Render(strings.Join(help, "  "))
}

// Key bindings
var calKeys = struct {
	Quit      key.Binding
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	Today     key.Binding
	Refresh   key.Binding
	Add       key.Binding
	Open      key.Binding
}{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c")),
	Left:      key.NewBinding(key.WithKeys("left", "h")),
	Right:     key.NewBinding(key.WithKeys("right", "l")),
	Up:        key.NewBinding(key.WithKeys("up", "k")),
	Down:      key.NewBinding(key.WithKeys("down", "j")),
	PrevMonth: key.NewBinding(key.WithKeys("H", "pageup")),
	NextMonth: key.NewBinding(key.WithKeys("L", "pagedown")),
	Today:     key.NewBinding(key.WithKeys("t")),
	Refresh:   key.NewBinding(key.WithKeys("r")),
	Add:       key.NewBinding(key.WithKeys("a")),
	Open:      key.NewBinding(key.WithKeys("enter")),
}
