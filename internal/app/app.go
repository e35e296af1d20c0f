package app

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todolist/internal/client"
	"github.com/nhle/todolist/internal/keys"
	"github.com/nhle/todolist/internal/model"
	"github.com/nhle/todolist/internal/ui"
	helpview "github.com/nhle/todolist/internal/ui/help"
	"github.com/nhle/todolist/internal/ui/todolist"
)

// Model is the root Bubble Tea model of a shell. It owns the layout,
// follows the live subscription, and hands snapshots and call results to
// the list.
type Model struct {
	role     model.Role
	layout   ui.Layout
	keys     *keys.KeyMap
	list     todolist.Model
	helpView helpview.Model
	events   <-chan client.Event
	logger   *slog.Logger

	state       client.ConnState
	lastOutcome client.Outcome
	showHelp    bool
	ready       bool
}

// New creates the root model for role. events is the live subscription's
// event channel; backend receives the list's remote calls.
func New(role model.Role, backend todolist.Backend, events <-chan client.Event, timeout time.Duration, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	list := todolist.New(backend, role, keys.DefaultKeyMap(), timeout, 80, 24)

	return Model{
		role:     role,
		keys:     list.Keys(),
		list:     list,
		helpView: helpview.New(list.Keys(), 80, 24),
		events:   events,
		logger:   logger,
		state:    client.StateConnecting,
	}
}

// Init starts the spinner and begins listening for live events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.list.Init(),
		waitForEvent(m.events),
	)
}

// Update handles messages and dispatches to the list.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.list.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.helpView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		// Forward so the confirm form can calculate its layout.
		return m.updateList(msg)

	case eventMsg:
		return m.handleEvent(msg.event)

	case streamClosedMsg:
		m.state = client.StateClosed
		return m, nil

	case todolist.ResultMsg:
		if msg.Err != nil {
			// The alert is blocking; it must not sit behind the help overlay.
			m.showHelp = false
			m.lastOutcome = client.Classify(msg.Err)
			m.logger.Warn("remote call failed",
				"op", string(msg.Op),
				"id", msg.ID,
				"outcome", m.lastOutcome.String(),
				"err", msg.Err,
			)
		} else {
			m.lastOutcome = client.OutcomeOK
		}
		return m.updateList(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.list.Capturing() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case m.showHelp && key.Matches(msg, m.keys.Cancel):
			m.showHelp = false
			return m, nil
		case m.showHelp:
			return m, nil
		}
	}

	return m.updateList(msg)
}

func (m Model) handleEvent(ev client.Event) (tea.Model, tea.Cmd) {
	next := waitForEvent(m.events)

	if ev.Snapshot != nil {
		m.state = client.StateLive
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(todolist.SnapshotMsg{Snapshot: *ev.Snapshot})
		return m, tea.Batch(cmd, next)
	}

	if ev.State != m.state {
		if ev.Err != nil {
			m.logger.Warn("live connection changed", "state", ev.State.String(), "err", ev.Err)
		} else {
			m.logger.Info("live connection changed", "state", ev.State.String())
		}
	}
	m.state = ev.State
	return m, next
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.role.Title(), m.state.String())
	content := m.list.View()
	if m.showHelp && m.list.Alert() == "" {
		content = m.helpView.View()
	}
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// keyHints returns keyboard shortcut hints for the status bar, prefixed by
// the outcome of the last failed call.
func (m Model) keyHints() string {
	hints := m.helpView.ShortView()
	if m.showHelp && m.list.Alert() == "" {
		hints = "? close help | esc back"
	}
	switch m.lastOutcome {
	case client.OutcomeNotFound, client.OutcomeTransport, client.OutcomeRejected:
		return "last call: " + m.lastOutcome.String() + " | " + hints
	}
	return hints
}
