package view

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/event"
	"github.com/kittyapp/kitty/internal/expense"
)

// OpenExpenseFormMsg asks the root model to open the add-expense form.
type OpenExpenseFormMsg struct {
	Event *event.Event
}

// OpenImportMsg asks the root model to open the sheet import view.
type OpenImportMsg struct {
	Event *event.Event
}

type DetailModel struct {
	CommonModel
	eventService   *event.Service
	expenseService *expense.Service

	event    *event.Event
	table    table.Model
	expenses []*expense.Expense
	balances map[string]*decimal.Decimal
	total    decimal.Decimal

	loading bool
	err     error
}

func NewDetailModel(eventSvc *event.Service, expenseSvc *expense.Service, e *event.Event) DetailModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Name", Width: 30},
		{Title: "Category", Width: 18},
		{Title: "Amount", Width: 10},
		{Title: "Split", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
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

	return DetailModel{
		eventService:   eventSvc,
		expenseService: expenseSvc,
		event:          e,
		table:          t,
	}
}

func (m DetailModel) Title() string { return m.event.Name }
func (m DetailModel) ShortHelp() string {
	return "Esc: back | a: add expense | i: import sheet | x: delete | r: refresh"
}

type loadDetailMsg struct {
	expenses []*expense.Expense
	balances map[string]*decimal.Decimal
	total    decimal.Decimal
	err      error
}

type expenseDeletedMsg struct {
	err error
}

func (m DetailModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		expenses, err := m.expenseService.ListByEvent(ctx, m.event.ID)
		if err != nil {
			return loadDetailMsg{err: err}
		}

		balances, err := m.expenseService.EventBalances(ctx, m.event.ID)
		if err != nil {
			return loadDetailMsg{err: err}
		}

		total, err := m.expenseService.TotalAmount(ctx, m.event.ID)
		if err != nil {
			return loadDetailMsg{err: err}
		}

		return loadDetailMsg{expenses: expenses, balances: balances, total: total}
	}
}

func (m DetailModel) deleteCmd(x *expense.Expense) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return expenseDeletedMsg{err: m.expenseService.Delete(ctx, x.ID)}
	}
}

func (m DetailModel) Init() tea.Cmd {
	m.loading = true
	return m.loadCmd()
}

func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDetailMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.expenses = msg.expenses
		m.balances = msg.balances
		m.total = msg.total
		m.refreshTable()

		return m, nil

	case expenseDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 14)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "a":
			e := m.event
			return m, func() tea.Msg { return OpenExpenseFormMsg{Event: e} }
		case "i":
			e := m.event
			return m, func() tea.Msg { return OpenImportMsg{Event: e} }
		case "x":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.expenses) {
				return m, m.deleteCmd(m.expenses[idx])
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *DetailModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.expenses))
	for _, x := range m.expenses {
		category := ""
		if x.Category != nil {
			category = x.Category.Name
		}

		rows = append(rows, table.Row{
			FormatDate(x.PurchasedAt),
			x.Name,
			category,
			FormatAmount(x.Amount),
			string(x.PortionType),
		})
	}

	m.table.SetRows(rows)
}

func (m DetailModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading event...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Bold(true).Render(m.event.Name),
		tableView,
		m.balancesView(),
		lipgloss.NewStyle().PaddingTop(1).Faint(true).Render(m.ShortHelp()),
	)
}

// balancesView lists what each member owes. Members with no payments show
// a dash rather than zero; they have not declared anything yet.
func (m DetailModel) balancesView() string {
	usernames := make([]string, 0, len(m.balances))
	for username := range m.balances {
		usernames = append(usernames, username)
	}

	sort.Strings(usernames)

	lines := make([]string, 0, len(usernames)+1)
	lines = append(lines, fmt.Sprintf("Total spent: %s", FormatAmount(m.total)))

	for _, username := range usernames {
		owed := "-"
		if b := m.balances[username]; b != nil {
			owed = FormatAmount(*b)
		}

		lines = append(lines, fmt.Sprintf("  %-20s %s", username, owed))
	}

	return lipgloss.NewStyle().
		PaddingTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
