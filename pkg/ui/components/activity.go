// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Activity levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarn    = "warn"
	LevelError   = "error"
)

// ActivityRow is one line of the status feed.
type ActivityRow struct {
	Time    string
	Level   string
	Message string
}

// ActivityComponent renders the status feed, newest first.
type ActivityComponent struct {
	rows    []ActivityRow
	maxRows int
	visible int
	offset  int
}

// NewActivityComponent creates a feed that keeps maxRows entries and shows
// visible of them at a time.
func NewActivityComponent(maxRows, visible int) *ActivityComponent {
	return &ActivityComponent{
		rows:    make([]ActivityRow, 0),
		maxRows: maxRows,
		visible: visible,
	}
}

// Add puts row at the top of the feed.
func (a *ActivityComponent) Add(row ActivityRow) {
	a.rows = append([]ActivityRow{row}, a.rows...)
	if len(a.rows) > a.maxRows {
		a.rows = a.rows[:a.maxRows]
	}
	a.offset = 0
}

// Len returns the number of stored rows.
func (a *ActivityComponent) Len() int {
	return len(a.rows)
}

// Clear empties the feed.
func (a *ActivityComponent) Clear() {
	a.rows = make([]ActivityRow, 0)
	a.offset = 0
}

// ScrollUp moves toward newer entries.
func (a *ActivityComponent) ScrollUp() {
	if a.offset > 0 {
		a.offset--
	}
}

// ScrollDown moves toward older entries.
func (a *ActivityComponent) ScrollDown() {
	if a.offset+a.visible < len(a.rows) {
		a.offset++
	}
}

// View renders the visible window of the feed.
func (a *ActivityComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("ACTIVITY"))
	sb.WriteString("\n\n")

	if len(a.rows) == 0 {
		sb.WriteString(mutedStyle.Render("  Nothing yet..."))
		return sb.String()
	}

	end := a.offset + a.visible
	if end > len(a.rows) {
		end = len(a.rows)
	}
	for _, row := range a.rows[a.offset:end] {
		sb.WriteString(fmt.Sprintf("  %s %s\n",
			mutedStyle.Render(row.Time),
			levelStyle(row.Level).Render(row.Message),
		))
	}
	if len(a.rows) > a.visible {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("  %d-%d of %d", a.offset+1, end, len(a.rows))))
	}
	return sb.String()
}

func levelStyle(level string) lipgloss.Style {
	switch level {
	case LevelSuccess:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	case LevelWarn:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	case LevelError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))
	}
}
