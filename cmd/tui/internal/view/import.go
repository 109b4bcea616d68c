package view

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/categorize"
	"github.com/kittyapp/kitty/internal/event"
	"github.com/kittyapp/kitty/internal/expense"
	"github.com/kittyapp/kitty/internal/importer"
	"github.com/kittyapp/kitty/internal/portion"
)

// ImportModel loads an expense sheet from disk and books every row as an
// expense on the event, split evenly across the current members.
type ImportModel struct {
	CommonModel
	eventService   *event.Service
	expenseService *expense.Service
	importService  *importer.Service
	hintService    *categorize.Service

	event *event.Event
	form  *huh.Form

	importing bool
	imported  int
	done      bool
	err       error

	// Form bindings
	formPath string
}

func NewImportModel(eventSvc *event.Service, expenseSvc *expense.Service, importSvc *importer.Service, hintSvc *categorize.Service, e *event.Event) ImportModel {
	m := ImportModel{
		eventService:   eventSvc,
		expenseService: expenseSvc,
		importService:  importSvc,
		hintService:    hintSvc,
		event:          e,
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Sheet file path").
				Placeholder("/path/to/expenses.csv").
				Value(&m.formPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)

	return m
}

func (m ImportModel) Title() string     { return "Import Sheet" }
func (m ImportModel) ShortHelp() string { return "Enter: import | Esc: back" }

type importDoneMsg struct {
	imported int
	err      error
}

func (m ImportModel) importCmd() tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(strings.TrimSpace(m.formPath))
		if err != nil {
			return importDoneMsg{err: err}
		}
		defer f.Close()

		entries, err := m.importService.Import(importer.FormatSheet, f)
		if err != nil {
			return importDoneMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		members, err := m.eventService.Members(ctx, m.event.ID)
		if err != nil {
			return importDoneMsg{err: err}
		}

		var per decimal.Decimal
		if len(members) > 0 {
			per = decimal.NewFromInt(100).
				Div(decimal.NewFromInt(int64(len(members)))).
				Round(2)
		}

		shares := make([]expense.Share, len(members))
		for i, member := range members {
			p := per
			shares[i] = expense.Share{UserID: member.ID, Portion: &p}
		}

		for _, entry := range entries {
			category := entry.Category
			if category == "" {
				if suggested, err := m.hintService.Suggest(ctx, entry.Name); err == nil {
					category = suggested
				}
			}

			_, err := m.expenseService.Create(ctx, expense.CreateParams{
				EventID:         m.event.ID,
				Name:            entry.Name,
				Amount:          entry.Amount,
				PortionType:     portion.TypePercentage,
				NewCategoryName: category,
				PurchasedAt:     entry.PurchasedAt,
				Shares:          shares,
			})
			if err != nil {
				return importDoneMsg{err: fmt.Errorf("importing %q: %w", entry.Name, err)}
			}
		}

		return importDoneMsg{imported: len(entries)}
	}
}

func (m ImportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case importDoneMsg:
		m.importing = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.imported = msg.imported
		m.done = true

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc || (m.done && msg.String() == "enter") {
			return m, Back
		}
	}

	if m.importing || m.done {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.importing = true

	return m, m.importCmd()
}

func (m ImportModel) View() string {
	style := lipgloss.NewStyle().Padding(2)

	switch {
	case m.err != nil:
		return style.Render(fmt.Sprintf("Import failed: %v\n\nEsc: back", m.err))
	case m.importing:
		return style.Render("Importing...")
	case m.done:
		return style.Render(fmt.Sprintf("Imported %d expenses into %s\n\nEnter: back", m.imported, m.event.Name))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(64).
		Render(fmt.Sprintf("Import into %s\n\n%s", m.event.Name, m.form.View()))
}
