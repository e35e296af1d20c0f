package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todolist/internal/theme"
)

// Layout is a one-line header, a content area, and a one-line status bar
// filling the terminal.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth is the width available to the content area.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight is the height left between header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-2, 0)
}

// RenderHeader shows the shell title on the left and the live connection
// state on the right.
func (l Layout) RenderHeader(title, connState string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.ConnStateStyle(connState).Render("● " + connState)
	return l.bar(theme.HeaderStyle, left, right)
}

// RenderStatusBar shows key hints across the bottom line.
func (l Layout) RenderStatusBar(hints string) string {
	return l.bar(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints), "")
}

// RenderWithFrame stacks header, content and status bar. The content is
// clipped or padded to ContentHeight so the bars stay in place.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	h := l.ContentHeight()
	body := lipgloss.NewStyle().Height(h).MaxHeight(h).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}

// bar joins left and right with a filler in style's background colour.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	gap := max(l.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}
