package todolist

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todolist/internal/theme"
)

// View renders the list, the delete dialog, or a blocking alert.
func (m Model) View() string {
	if m.alert != "" {
		return m.viewAlert()
	}
	if m.mode == modeConfirmDelete && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}
	return m.viewList()
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	b.WriteString(titleStyle.Render(m.role.Title() + " App"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render("Todo Manager"))
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString(m.spinner.View() + " Loading todos...")
		return m.frame(b.String())
	}

	if m.caps.Counts {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Render(m.countsLine()))
		b.WriteString("\n\n")
	}

	if m.caps.Create {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	if len(m.snapshot.Todos) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render(m.emptyMessage()))
		return m.frame(b.String())
	}

	for i, t := range m.snapshot.Todos {
		if m.mode == modeEditing && t.ID == m.editingID {
			b.WriteString(theme.ListItemStyle.Render(m.editInput.View()))
			b.WriteString("\n")
			continue
		}

		check := "[ ]"
		text := t.Text
		if t.Completed {
			check = "[x]"
			text = theme.CompletedTextStyle.Render(text)
		}
		label := check + " " + text

		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	return m.frame(b.String())
}

func (m Model) viewAlert() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed).Render("Error"))
	b.WriteString("\n\n")
	b.WriteString(m.alert)
	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("enter/esc dismiss"))

	box := theme.AlertStyle.Render(b.String())
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) emptyMessage() string {
	if m.caps.Create {
		return "No todos yet. Add one above!"
	}
	return "No todos yet."
}

func (m Model) frame(s string) string {
	style := lipgloss.NewStyle().Padding(1, 2)
	if m.width > 0 {
		style = style.Width(m.width)
	}
	if m.height > 0 {
		style = style.Height(m.height)
	}
	return style.Render(s)
}
