package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kittyapp/kitty/internal/event"
)

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// OpenEventMsg asks the root model to switch to the detail view for an event.
type OpenEventMsg struct {
	Event *event.Event
}
