package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/kittyapp/kitty/cmd/tui/internal/view"
	"github.com/kittyapp/kitty/internal/categorize"
	categorizeStore "github.com/kittyapp/kitty/internal/categorize/store"
	"github.com/kittyapp/kitty/internal/config"
	"github.com/kittyapp/kitty/internal/database"
	"github.com/kittyapp/kitty/internal/event"
	eventStore "github.com/kittyapp/kitty/internal/event/store"
	"github.com/kittyapp/kitty/internal/expense"
	expenseStore "github.com/kittyapp/kitty/internal/expense/store"
	"github.com/kittyapp/kitty/internal/importer"
	"github.com/kittyapp/kitty/internal/user"
	userStore "github.com/kittyapp/kitty/internal/user/store"
)

type model struct {
	eventService   *event.Service
	expenseService *expense.Service
	importService  *importer.Service
	hintService    *categorize.Service

	actingUser *user.User

	currentView View

	eventsView  view.EventsModel
	detailView  view.DetailModel
	formView    view.ExpenseFormModel
	importView  view.ImportModel
	activeEvent *event.Event
}

type View int

const (
	ViewMenu   View = 0
	ViewEvents View = 1
	ViewDetail View = 2
	ViewForm   View = 3
	ViewImport View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	userSvc := user.NewService(userStore.New(db))
	eventSvc := event.NewService(eventStore.New(db), userSvc)
	expenseSvc := expense.NewService(expenseStore.New(db))
	hintSvc := categorize.NewService(categorizeStore.New(db))
	importSvc := importer.NewService()

	email := os.Getenv("KITTY_USER_EMAIL")
	if email == "" {
		slog.Error("KITTY_USER_EMAIL must be set to the email of an existing account")
		os.Exit(1)
	}

	actingUser, err := userSvc.ByEmail(context.Background(), email)
	if err != nil {
		slog.Error("failed to load acting user", "email", email, "error", err)
		os.Exit(1)
	}

	return model{
		eventService:   eventSvc,
		expenseService: expenseSvc,
		importService:  importSvc,
		hintService:    hintSvc,
		actingUser:     actingUser,
		currentView:    ViewMenu,
		eventsView:     view.NewEventsModel(eventSvc, actingUser.ID),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewEvents
				m.eventsView = view.NewEventsModel(m.eventService, m.actingUser.ID)

				return m, m.eventsView.Init()
			}
		}

	case view.OpenEventMsg:
		m.currentView = ViewDetail
		m.activeEvent = msg.Event
		m.detailView = view.NewDetailModel(m.eventService, m.expenseService, msg.Event)

		return m, m.detailView.Init()

	case view.OpenExpenseFormMsg:
		m.currentView = ViewForm
		m.formView = view.NewExpenseFormModel(m.eventService, m.expenseService, msg.Event)

		return m, m.formView.Init()

	case view.OpenImportMsg:
		m.currentView = ViewImport
		m.importView = view.NewImportModel(m.eventService, m.expenseService, m.importService, m.hintService, msg.Event)

		return m, m.importView.Init()

	case view.BackMsg:
		switch m.currentView {
		case ViewForm, ViewImport:
			m.currentView = ViewDetail
			m.detailView = view.NewDetailModel(m.eventService, m.expenseService, m.activeEvent)

			return m, m.detailView.Init()
		case ViewDetail:
			m.currentView = ViewEvents
			m.eventsView = view.NewEventsModel(m.eventService, m.actingUser.ID)

			return m, m.eventsView.Init()
		default:
			m.currentView = ViewMenu
			return m, nil
		}
	}

	switch m.currentView {
	case ViewEvents:
		var newModel tea.Model
		newModel, cmd = m.eventsView.Update(msg)
		m.eventsView = newModel.(view.EventsModel)
	case ViewDetail:
		var newModel tea.Model
		newModel, cmd = m.detailView.Update(msg)
		m.detailView = newModel.(view.DetailModel)
	case ViewForm:
		var newModel tea.Model
		newModel, cmd = m.formView.Update(msg)
		m.formView = newModel.(view.ExpenseFormModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Kitty TUI\n\n" +
				"Signed in as " + m.actingUser.Username + "\n\n" +
				"1. Events\n\n" +
				"q. Quit",
		)
	case ViewEvents:
		return m.eventsView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewForm:
		return m.formView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
