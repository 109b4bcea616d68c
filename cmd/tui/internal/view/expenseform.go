package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/event"
	"github.com/kittyapp/kitty/internal/expense"
	"github.com/kittyapp/kitty/internal/portion"
	"github.com/kittyapp/kitty/internal/user"
)

// ExpenseFormModel collects a new expense for an event. Each member gets
// their own portion field; leaving it blank excludes the member from the
// split.
type ExpenseFormModel struct {
	CommonModel
	eventService   *event.Service
	expenseService *expense.Service

	event   *event.Event
	members []*user.User
	form    *huh.Form

	loading bool
	saving  bool
	err     error

	// Form bindings
	formName        string
	formAmount      string
	formPortionType string
	formCategory    string
	formPortions    []string
}

func NewExpenseFormModel(eventSvc *event.Service, expenseSvc *expense.Service, e *event.Event) ExpenseFormModel {
	return ExpenseFormModel{
		eventService:   eventSvc,
		expenseService: expenseSvc,
		event:          e,
		loading:        true,
	}
}

func (m ExpenseFormModel) Title() string     { return "Add Expense" }
func (m ExpenseFormModel) ShortHelp() string { return "Navigate form | Esc: cancel" }

type loadMembersMsg struct {
	members []*user.User
	err     error
}

type expenseSavedMsg struct {
	err error
}

func (m ExpenseFormModel) loadMembersCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		members, err := m.eventService.Members(ctx, m.event.ID)

		return loadMembersMsg{members: members, err: err}
	}
}

func (m ExpenseFormModel) saveCmd() tea.Cmd {
	return func() tea.Msg {
		amount, err := decimal.NewFromString(strings.TrimSpace(m.formAmount))
		if err != nil {
			return expenseSavedMsg{err: fmt.Errorf("invalid amount: %w", err)}
		}

		shares := make([]expense.Share, 0, len(m.members))

		for i, member := range m.members {
			raw := strings.TrimSpace(m.formPortions[i])
			if raw == "" {
				continue
			}

			p, err := decimal.NewFromString(raw)
			if err != nil {
				return expenseSavedMsg{err: fmt.Errorf("invalid portion for %s: %w", member.Username, err)}
			}

			shares = append(shares, expense.Share{UserID: member.ID, Portion: &p})
		}

		ctx, cancel := DbCtx()
		defer cancel()

		_, err = m.expenseService.Create(ctx, expense.CreateParams{
			EventID:         m.event.ID,
			Name:            m.formName,
			Amount:          amount,
			PortionType:     portion.Type(m.formPortionType),
			NewCategoryName: strings.TrimSpace(m.formCategory),
			Shares:          shares,
		})

		return expenseSavedMsg{err: err}
	}
}

func (m ExpenseFormModel) Init() tea.Cmd {
	return m.loadMembersCmd()
}

func (m ExpenseFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadMembersMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.members = msg.members
		m.buildForm()

		return m, m.form.Init()

	case expenseSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		return m, Back
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted || m.saving {
		return m, cmd
	}

	m.saving = true

	return m, m.saveCmd()
}

func (m *ExpenseFormModel) buildForm() {
	m.formPortionType = string(portion.TypeAmount)
	m.formPortions = make([]string, len(m.members))

	fields := []huh.Field{
		huh.NewInput().
			Key("name").
			Title("Expense Name").
			Value(&m.formName).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name cannot be empty")
				}
				return nil
			}),

		huh.NewInput().
			Key("amount").
			Title("Amount").
			Placeholder("45.00").
			Value(&m.formAmount).
			Validate(func(s string) error {
				d, err := decimal.NewFromString(strings.TrimSpace(s))
				if err != nil {
					return fmt.Errorf("not a number")
				}
				if !d.IsPositive() {
					return fmt.Errorf("must be positive")
				}
				return nil
			}),

		huh.NewSelect[string]().
			Key("portion_type").
			Title("Portion Type").
			Options(
				huh.NewOption("Amount", string(portion.TypeAmount)),
				huh.NewOption("Percentage", string(portion.TypePercentage)),
			).
			Value(&m.formPortionType),

		huh.NewInput().
			Key("category").
			Title("Category").
			Placeholder("Food").
			Value(&m.formCategory),
	}

	for i, member := range m.members {
		fields = append(fields, huh.NewInput().
			Key(fmt.Sprintf("portion_%d", i)).
			Title(fmt.Sprintf("Portion for %s", member.Username)).
			Placeholder("blank to skip").
			Value(&m.formPortions[i]))
	}

	m.form = huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(60).
		WithShowHelp(false)
}

func (m ExpenseFormModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading members...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("Error: %v\n\nEsc: back", m.err))
	}

	if m.saving {
		return lipgloss.NewStyle().Padding(2).Render("Saving expense...")
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(64).
		Render(fmt.Sprintf("Add Expense to %s\n\n%s", m.event.Name, m.form.View()))
}
