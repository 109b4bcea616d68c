package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/kittyapp/kitty/internal/event"
)

type eventsState int

const (
	eventsStateBrowse eventsState = iota
	eventsStateCreate
)

type EventsModel struct {
	CommonModel
	eventService *event.Service
	userID       uuid.UUID

	state  eventsState
	table  table.Model
	events []*event.Event
	form   *huh.Form

	loading bool
	err     error
	status  string

	// Form bindings
	formName        string
	formDescription string
	formEmails      string
	formFirstName   string
}

func NewEventsModel(eventSvc *event.Service, userID uuid.UUID) EventsModel {
	columns := []table.Column{
		{Title: "Name", Width: 30},
		{Title: "Slug", Width: 30},
		{Title: "Created", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return EventsModel{
		eventService: eventSvc,
		userID:       userID,
		table:        t,
	}
}

func (m EventsModel) Title() string { return "Events" }
func (m EventsModel) ShortHelp() string {
	if m.state == eventsStateCreate {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | Enter: open | n: new event | x: delete | r: refresh"
}

type loadEventsMsg struct {
	events []*event.Event
	err    error
}

type eventSavedMsg struct {
	skipped []string
	err     error
}

func (m EventsModel) loadEventsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		events, err := m.eventService.ListForUser(ctx, m.userID)

		return loadEventsMsg{events: events, err: err}
	}
}

func (m EventsModel) createCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, res, err := m.eventService.Create(ctx, event.CreateParams{
			Name:               m.formName,
			Description:        m.formDescription,
			CreatorID:          m.userID,
			MemberEmails:       m.formEmails,
			NewMemberFirstName: m.formFirstName,
		})
		if err != nil {
			return eventSavedMsg{err: err}
		}

		return eventSavedMsg{skipped: res.Skipped}
	}
}

func (m EventsModel) deleteCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.eventService.Delete(ctx, id); err != nil {
			return eventSavedMsg{err: err}
		}

		return eventSavedMsg{}
	}
}

func (m EventsModel) Init() tea.Cmd {
	m.loading = true
	return m.loadEventsCmd()
}

func (m EventsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadEventsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.events = msg.events
		m.refreshTable()

		return m, nil

	case eventSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else if len(msg.skipped) > 0 {
			m.status = "Skipped invalid emails: " + strings.Join(msg.skipped, ", ")
		} else {
			m.status = ""
		}

		m.state = eventsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadEventsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case eventsStateBrowse:
		return m.updateBrowse(msg)
	case eventsStateCreate:
		return m.updateCreate(msg)
	}

	return m, nil
}

func (m EventsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadEventsCmd()
		case "n":
			return m.enterCreateMode()
		case "x":
			if e := m.selected(); e != nil {
				return m, m.deleteCmd(e.ID)
			}
		case "enter":
			if e := m.selected(); e != nil {
				return m, func() tea.Msg { return OpenEventMsg{Event: e} }
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m EventsModel) enterCreateMode() (tea.Model, tea.Cmd) {
	m.formName = ""
	m.formDescription = ""
	m.formEmails = ""
	m.formFirstName = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Event Name").
				Value(&m.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.formDescription),

			huh.NewInput().
				Key("emails").
				Title("Member Emails").
				Placeholder("a@example.com, b@example.com").
				Value(&m.formEmails),

			huh.NewInput().
				Key("first_name").
				Title("New Member First Name").
				Value(&m.formFirstName),
		),
	).WithWidth(60).WithShowHelp(false)

	m.state = eventsStateCreate
	m.table.Blur()

	return m, m.form.Init()
}

func (m EventsModel) updateCreate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = eventsStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.createCmd()
}

func (m EventsModel) selected() *event.Event {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.events) {
		return nil
	}

	return m.events[idx]
}

func (m *EventsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.events))
	for _, e := range m.events {
		rows = append(rows, table.Row{e.Name, e.Slug, FormatDate(e.CreatedAt)})
	}

	m.table.SetRows(rows)
}

func (m EventsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading events...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render("Events"),
		tableView,
	)

	if m.status != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content,
			lipgloss.NewStyle().PaddingTop(1).Foreground(lipgloss.Color("208")).Render(m.status))
	}

	if m.state == eventsStateCreate && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(64).
			Render("New Event\n\n" + m.form.View())

		return lipgloss.JoinVertical(lipgloss.Left, content, panel)
	}

	return lipgloss.JoinVertical(lipgloss.Left, content,
		lipgloss.NewStyle().PaddingTop(1).Faint(true).Render(m.ShortHelp()))
}
