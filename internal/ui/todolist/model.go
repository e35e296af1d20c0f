package todolist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/todolist/internal/keys"
	"github.com/nhle/todolist/internal/model"
)

// Backend is the subset of the remote procedures the list invokes.
type Backend interface {
	Create(ctx context.Context, text string) (*model.Todo, error)
	SetCompleted(ctx context.Context, id string, completed bool) (*model.Todo, error)
	SetText(ctx context.Context, id, text string) (*model.Todo, error)
	Delete(ctx context.Context, id string) error
}

// Op names a remote call started from the list.
type Op string

const (
	OpAdd      Op = "add"
	OpToggle   Op = "toggle"
	OpSaveText Op = "save_text"
	OpDelete   Op = "delete"
)

// FailureMessage is the alert text shown when the call fails.
func (o Op) FailureMessage() string {
	switch o {
	case OpAdd:
		return "Failed to add todo"
	case OpDelete:
		return "Failed to delete todo"
	default:
		return "Failed to update todo"
	}
}

// SnapshotMsg delivers a fresh full snapshot from the live subscription.
type SnapshotMsg struct {
	Snapshot model.Snapshot
}

// ResultMsg reports the end of a remote call started by the list.
type ResultMsg struct {
	Op  Op
	ID  string
	Err error
}

type listMode int

const (
	modeList listMode = iota
	modeAdding
	modeEditing
	modeConfirmDelete
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	confirm bool
}

// Model renders the shared todo list with the affordances of one role.
// It never changes the list itself: rows only change when a snapshot
// arrives.
type Model struct {
	backend Backend
	role    model.Role
	caps    model.Capabilities
	keys    *keys.KeyMap
	timeout time.Duration

	loaded     bool
	snapshot   model.Snapshot
	cursor     int
	selectedID string

	mode        listMode
	input       textinput.Model
	editInput   textinput.Model
	editingID   string
	deleteID    string
	confirmForm *huh.Form
	fb          *formBindings

	alert   string
	spinner spinner.Model
	width   int
	height  int
}

// New creates a list model for role. timeout bounds each remote call.
func New(b Backend, role model.Role, k *keys.KeyMap, timeout time.Duration, width, height int) Model {
	caps := role.Capabilities()

	in := textinput.New()
	in.Placeholder = "Add a new todo..."
	in.Prompt = "+ "
	in.CharLimit = 500

	edit := textinput.New()
	edit.Prompt = "✎ "
	edit.CharLimit = 500

	return Model{
		backend:   b,
		role:      role,
		caps:      caps,
		keys:      k.ForCapabilities(caps),
		timeout:   timeout,
		input:     in,
		editInput: edit,
		fb:        &formBindings{},
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:     width,
		height:    height,
	}
}

// Init starts the loading spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Loaded reports whether a first snapshot has arrived.
func (m Model) Loaded() bool {
	return m.loaded
}

// Snapshot returns the last snapshot received.
func (m Model) Snapshot() model.Snapshot {
	return m.snapshot
}

// Capturing reports whether keystrokes belong to an input, dialog or alert
// rather than to global shortcuts.
func (m Model) Capturing() bool {
	return m.alert != "" || m.mode != modeList
}

// Alert returns the message of the alert being shown, if any.
func (m Model) Alert() string {
	return m.alert
}

// Keys returns the key map filtered to this role.
func (m Model) Keys() *keys.KeyMap {
	return m.keys
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-8, 10)
	m.editInput.Width = max(width-12, 10)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)
		return m, nil

	case ResultMsg:
		return m.handleResult(msg)

	case spinner.TickMsg:
		if m.loaded {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.alert != "" {
			if key.Matches(msg, m.keys.Submit, m.keys.Cancel) {
				m.alert = ""
			}
			return m, nil
		}
		return m.handleKey(msg)
	}

	if m.mode == modeConfirmDelete {
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m *Model) applySnapshot(snap model.Snapshot) {
	m.snapshot = snap
	m.loaded = true

	// Keep the cursor on the same todo when it is still there.
	m.cursor = m.clampCursor(m.cursor)
	for i, t := range snap.Todos {
		if t.ID == m.selectedID {
			m.cursor = i
			break
		}
	}
	m.selectedID = ""
	if t, ok := m.current(); ok {
		m.selectedID = t.ID
	}

	if m.mode == modeEditing {
		if _, ok := snap.Find(m.editingID); !ok {
			m.stopEditing()
		}
	}
}

func (m Model) handleResult(msg ResultMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		// Leave every other piece of state alone so the user can try again.
		m.alert = msg.Op.FailureMessage()
		return m, nil
	}

	switch msg.Op {
	case OpAdd:
		m.input.Reset()
	case OpSaveText:
		if m.mode == modeEditing && m.editingID == msg.ID {
			m.stopEditing()
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeAdding:
		return m.handleAddKey(msg)
	case modeEditing:
		return m.handleEditKey(msg)
	case modeConfirmDelete:
		if key.Matches(msg, m.keys.Cancel) {
			return m.finishConfirm(false)
		}
		return m.updateConfirm(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if n := len(m.snapshot.Todos); n > 0 {
			m.moveCursor((m.cursor + 1) % n)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if n := len(m.snapshot.Todos); n > 0 {
			m.moveCursor((m.cursor - 1 + n) % n)
		}
		return m, nil

	case key.Matches(msg, m.keys.Add) && m.caps.Create:
		m.mode = modeAdding
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Toggle) && m.caps.Toggle:
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		return m, m.setCompleted(t.ID, !t.Completed)

	case key.Matches(msg, m.keys.Edit) && m.caps.EditText:
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		m.mode = modeEditing
		m.editingID = t.ID
		m.editInput.SetValue(t.Text)
		m.editInput.CursorEnd()
		return m, m.editInput.Focus()

	case key.Matches(msg, m.keys.Delete) && m.caps.Delete:
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		m.deleteID = t.ID
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) handleAddKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		return m, m.create(text)

	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeList
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.editInput.Value())
		if text == "" {
			m.stopEditing()
			return m, nil
		}
		return m, m.setText(m.editingID, text)

	case key.Matches(msg, m.keys.Cancel):
		m.stopEditing()
		return m, nil
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m Model) buildConfirmForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete Todo").
				Description("Are you sure you want to delete this todo?").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		return m.finishConfirm(m.fb.confirm)
	case huh.StateAborted:
		return m.finishConfirm(false)
	}
	return m, cmd
}

// finishConfirm closes the delete dialog and fires the delete only when
// the user confirmed it.
func (m Model) finishConfirm(confirmed bool) (Model, tea.Cmd) {
	id := m.deleteID
	m.mode = modeList
	m.deleteID = ""
	m.confirmForm = nil
	if !confirmed || id == "" {
		return m, nil
	}
	return m, m.remove(id)
}

func (m *Model) stopEditing() {
	m.mode = modeList
	m.editingID = ""
	m.editInput.Reset()
	m.editInput.Blur()
}

func (m *Model) moveCursor(i int) {
	m.cursor = i
	if t, ok := m.current(); ok {
		m.selectedID = t.ID
	}
}

func (m Model) clampCursor(i int) int {
	n := len(m.snapshot.Todos)
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m Model) current() (model.Todo, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snapshot.Todos) {
		return model.Todo{}, false
	}
	return m.snapshot.Todos[m.cursor], true
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

// call runs fn as a command and reports it as a ResultMsg.
func (m Model) call(op Op, id string, fn func(ctx context.Context) error) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return ResultMsg{Op: op, ID: id, Err: fn(ctx)}
	}
}

func (m Model) create(text string) tea.Cmd {
	b := m.backend
	return m.call(OpAdd, "", func(ctx context.Context) error {
		_, err := b.Create(ctx, text)
		return err
	})
}

func (m Model) setCompleted(id string, completed bool) tea.Cmd {
	b := m.backend
	return m.call(OpToggle, id, func(ctx context.Context) error {
		_, err := b.SetCompleted(ctx, id, completed)
		return err
	})
}

func (m Model) setText(id, text string) tea.Cmd {
	b := m.backend
	return m.call(OpSaveText, id, func(ctx context.Context) error {
		_, err := b.SetText(ctx, id, text)
		return err
	})
}

func (m Model) remove(id string) tea.Cmd {
	b := m.backend
	return m.call(OpDelete, id, func(ctx context.Context) error {
		return b.Delete(ctx, id)
	})
}

func (m Model) countsLine() string {
	total, completed, pending := m.snapshot.Counts()
	return fmt.Sprintf("Total: %d   Completed: %d   Pending: %d", total, completed, pending)
}
