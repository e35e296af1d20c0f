package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todolist/internal/client"
)

// eventMsg wraps one event from the live subscription.
type eventMsg struct {
	event client.Event
}

// streamClosedMsg is sent once the subscription's channel is closed.
type streamClosedMsg struct{}

// waitForEvent returns a tea.Cmd that blocks for the next live event. It
// must be re-issued after every eventMsg to keep listening.
func waitForEvent(events <-chan client.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}
