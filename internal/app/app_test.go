package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todolist/internal/client"
	"github.com/nhle/todolist/internal/model"
	"github.com/nhle/todolist/internal/ui/todolist"
)

type stubBackend struct{}

func (stubBackend) Create(context.Context, string) (*model.Todo, error) { return &model.Todo{}, nil }
func (stubBackend) SetCompleted(context.Context, string, bool) (*model.Todo, error) {
	return &model.Todo{}, nil
}
func (stubBackend) SetText(context.Context, string, string) (*model.Todo, error) {
	return &model.Todo{}, nil
}
func (stubBackend) Delete(context.Context, string) error { return nil }

func newTestApp(t *testing.T, role model.Role) (Model, chan client.Event) {
	t.Helper()
	events := make(chan client.Event, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New(role, stubBackend{}, events, time.Second, logger)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), events
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestWaitForEventDeliversAndReportsClose(t *testing.T) {
	events := make(chan client.Event, 1)
	snap := model.Snapshot{Version: 3}
	events <- client.Event{Snapshot: &snap, State: client.StateLive}

	msg := waitForEvent(events)()
	ev, ok := msg.(eventMsg)
	require.True(t, ok)
	assert.Equal(t, uint64(3), ev.event.Snapshot.Version)

	close(events)
	assert.Equal(t, streamClosedMsg{}, waitForEvent(events)())
}

func TestSnapshotEventReachesList(t *testing.T) {
	m, _ := newTestApp(t, model.RoleCustomer)
	assert.Contains(t, m.View(), "connecting")

	snap := model.Snapshot{Version: 1, Todos: []model.Todo{{ID: "1", Text: "Buy milk"}}}
	m, cmd := update(t, m, eventMsg{event: client.Event{Snapshot: &snap, State: client.StateLive}})
	require.NotNil(t, cmd, "keeps listening for events")

	v := m.View()
	assert.Contains(t, v, "Buy milk")
	assert.Contains(t, v, "live")
	assert.Contains(t, v, "Customer")
}

func TestConnectionStateShownInHeader(t *testing.T) {
	m, _ := newTestApp(t, model.RoleAdmin)

	m, _ = update(t, m, eventMsg{event: client.Event{State: client.StateReconnecting, Err: errors.New("refused")}})
	assert.Equal(t, client.StateReconnecting, m.state)
	assert.Contains(t, m.View(), "reconnecting")

	m, _ = update(t, m, streamClosedMsg{})
	assert.Equal(t, client.StateClosed, m.state)
}

func TestQuitOnlyWhenNotTyping(t *testing.T) {
	m, _ := newTestApp(t, model.RoleCustomer)
	snap := model.Snapshot{Version: 1}
	m, _ = update(t, m, eventMsg{event: client.Event{Snapshot: &snap}})

	m, _ = update(t, m, runes("n"))
	m, cmd := update(t, m, runes("q"))
	assert.False(t, isQuit(cmd), "q is typed into the add input")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd = update(t, m, runes("q"))
	assert.True(t, isQuit(cmd))

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestApp(t, model.RoleBeautician)

	m, _ = update(t, m, runes("?"))
	require.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelp)
}

func TestFailedCallIsClassified(t *testing.T) {
	m, _ := newTestApp(t, model.RoleCustomer)
	snap := model.Snapshot{Version: 1}
	m, _ = update(t, m, eventMsg{event: client.Event{Snapshot: &snap}})

	err := &client.TransportError{Op: "create", Err: errors.New("connection refused")}
	m, _ = update(t, m, todolist.ResultMsg{Op: todolist.OpAdd, Err: err})

	assert.Equal(t, client.OutcomeTransport, m.lastOutcome)
	v := m.View()
	assert.Contains(t, v, "Failed to add todo")
	assert.Contains(t, v, "last call: unreachable")

	m, _ = update(t, m, todolist.ResultMsg{Op: todolist.OpToggle})
	assert.Equal(t, client.OutcomeOK, m.lastOutcome)
}

func TestFailureAlertClosesHelp(t *testing.T) {
	m, _ := newTestApp(t, model.RoleCustomer)
	snap := model.Snapshot{Version: 1, Todos: []model.Todo{{ID: "1", Text: "Buy milk"}}}
	m, _ = update(t, m, eventMsg{event: client.Event{Snapshot: &snap}})

	m, _ = update(t, m, runes("?"))
	require.True(t, m.showHelp)

	err := &client.TransportError{Op: "set_completed", Err: errors.New("connection refused")}
	m, _ = update(t, m, todolist.ResultMsg{Op: todolist.OpToggle, ID: "1", Err: err})

	assert.False(t, m.showHelp)
	v := m.View()
	assert.Contains(t, v, "Failed to update todo")
	assert.NotContains(t, v, "Keyboard Shortcuts")

	// esc dismisses the alert the user just saw, and the list is back.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.list.Alert())
	assert.Contains(t, m.View(), "Buy milk")
}
