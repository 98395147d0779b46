package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/todo-tui/internal/db"
)

// Status display colours
const (
	ColorOrange = lipgloss.Color("214")
	ColorGreen  = lipgloss.Color("42")
	ColorGrey   = lipgloss.Color("245")
	ColorRed    = lipgloss.Color("196")
	ColorBlue   = lipgloss.Color("33")
)

// StatusColor maps a task status to its display colour. Unknown statuses are blue.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case db.StatusPending:
		return ColorOrange
	case db.StatusInProgress:
		return ColorGreen
	case db.StatusOnHold:
		return ColorGrey
	case db.StatusCompleted:
		return ColorOrange
	case db.StatusExpired:
		return ColorRed
	default:
		return ColorBlue
	}
}

func statusStyle(status string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(StatusColor(status))
}

// View renders the UI
func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress any key to continue, q to quit.", m.err)
	}

	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	switch m.view.Mode {
	case ModeAdd, ModeEdit:
		return m.renderForm()
	case ModeConfirmDelete:
		return m.renderConfirmDelete()
	}

	// Calculate pane widths
	listWidth := m.width / 2
	detailWidth := m.width - listWidth - 4 // account for borders
	paneHeight := m.height - 5

	listView := m.renderList(listWidth, paneHeight)
	detailView := m.renderDetail(detailWidth)

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		borderStyle.Width(listWidth).Height(paneHeight).Render(listView),
		borderStyle.Width(detailWidth).Height(paneHeight).Render(detailView),
	)

	var footer []string
	footer = append(footer, m.renderSummary())
	if m.message != "" {
		footer = append(footer, " "+messageStyle.Render(m.message))
	} else {
		footer = append(footer, "")
	}
	footer = append(footer, m.renderHelp())

	return lipgloss.JoinVertical(lipgloss.Left, content, strings.Join(footer, "\n"))
}

// renderList renders the task list
func (m Model) renderList(width, height int) string {
	var lines []string

	if m.view.Mode == ModeSearch {
		lines = append(lines, m.search.View())
		var fields []string
		for i, f := range db.SearchFields {
			label := string(f)
			if i == m.searchFieldIdx {
				label = selectedStyle.Render("[" + label + "]")
			}
			fields = append(fields, label)
		}
		lines = append(lines, "by: "+strings.Join(fields, " "))
		lines = append(lines, "")
		height -= 3
	}

	// Calculate visible range
	visibleHeight := height - 2 // account for header
	if visibleHeight < 1 {
		visibleHeight = 1
	}
	startIdx := 0
	if m.selected >= visibleHeight {
		startIdx = m.selected - visibleHeight + 1
	}

	header := fmt.Sprintf("Tasks (%d)", len(m.tasks))
	if m.view.SearchTerm != "" {
		header = fmt.Sprintf("Search results (%d) [%s: %q]", len(m.tasks), m.view.SearchField, m.view.SearchTerm)
	}
	lines = append(lines, header)
	lines = append(lines, strings.Repeat("─", max(width-2, 1)))

	if len(m.tasks) == 0 {
		if m.view.SearchTerm == "" {
			lines = append(lines, dimStyle.Render("No tasks found. Press a to add one!"))
		} else {
			lines = append(lines, dimStyle.Render("No tasks match."))
		}
		return strings.Join(lines, "\n")
	}

	now := m.now()
	for i := startIdx; i < len(m.tasks) && i < startIdx+visibleHeight; i++ {
		t := m.tasks[i]

		marker := "  "
		if t.IsOverdue(now) {
			marker = "* "
		}

		topic := strings.TrimSpace(strings.ReplaceAll(t.Topic, "\n", " "))
		line := fmt.Sprintf("%s%7.2f  %s", marker, t.Score, topic)

		if i == m.selected {
			line = selectedStyle.Render(line + " [" + t.Status + "]")
		} else {
			if t.IsOverdue(now) {
				line = overdueStyle.Render("*") + line[1:]
			}
			line += " " + statusStyle(t.Status).Render("["+t.Status+"]")
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// renderDetail renders the selected task
func (m Model) renderDetail(width int) string {
	t, ok := m.current()
	if !ok {
		return "No task selected"
	}

	var lines []string
	lines = append(lines, t.Topic)
	lines = append(lines, strings.Repeat("─", max(width-2, 1)))
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("ID: %d", t.ID))
	lines = append(lines, "Status: "+statusStyle(t.Status).Render(t.Status))
	lines = append(lines, scoreStyle.Render(fmt.Sprintf("Score: %.2f", t.Score)))
	lines = append(lines, fmt.Sprintf("Impact: %d | Tractability: %d | Uncertainty: %d",
		t.Impact, t.Tractability, t.Uncertainty))

	if t.Due.Valid {
		due := "Due Date: " + t.DueString()
		if t.IsOverdue(m.now()) {
			due = overdueStyle.Render(due + " (overdue)")
		}
		lines = append(lines, due)
	}

	lines = append(lines, fmt.Sprintf("Created: %s", t.CreatedAt.Local().Format("2006-01-02 15:04")))
	if !t.UpdatedAt.Equal(t.CreatedAt) {
		lines = append(lines, fmt.Sprintf("Updated: %s", t.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
	lines = append(lines, "")

	if t.Description.Valid && t.Description.String != "" {
		lines = append(lines, "Description:")
		for _, l := range wrapText(t.Description.String, width-4) {
			lines = append(lines, "  "+l)
		}
	}

	return strings.Join(lines, "\n")
}

// renderSummary renders the counts under the list
func (m Model) renderSummary() string {
	s := db.Summarize(m.tasks)
	label := "Total Tasks"
	if m.view.SearchTerm != "" {
		label = "Search Results"
	}
	return fmt.Sprintf(" %s: %d • Pending: %d • Completed: %d • Avg Score: %.2f",
		label, s.Total, s.Pending, s.Completed, s.AverageScore)
}

// renderHelp renders the help line
func (m Model) renderHelp() string {
	if m.view.Mode == ModeSearch {
		return " Type term • Tab: search field • Enter: search • Esc: cancel"
	}

	help := " j/k: navigate • a: add • e: edit • d: delete • /: search • r: reload"
	if m.view.SearchTerm != "" {
		help += " • Esc: all tasks"
	}
	help += " • q: quit"
	return help
}

// overlay centres a bordered box on the screen
func (m Model) overlay(content string, width int) string {
	box := borderStyle.
		Padding(1).
		Width(width).
		Background(lipgloss.Color("235")).
		Render(content)

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(box)
}

// renderForm renders the add/edit overlay
func (m Model) renderForm() string {
	var lines []string
	if m.view.Mode == ModeAdd {
		lines = append(lines, "Add New Task")
	} else {
		lines = append(lines, fmt.Sprintf("Edit Task %d", m.view.EditingID))
	}
	lines = append(lines, strings.Repeat("─", 40))
	lines = append(lines, "")
	lines = append(lines, m.form.view())
	lines = append(lines, "")
	if m.message != "" {
		lines = append(lines, messageStyle.Render(m.message))
		lines = append(lines, "")
	}
	lines = append(lines, "Tab/Shift+Tab: field • ←/→: change • Ctrl+S: save • Esc: cancel")

	return m.overlay(strings.Join(lines, "\n"), max(m.width/2, 60))
}

// renderConfirmDelete renders the delete confirmation prompt
func (m Model) renderConfirmDelete() string {
	var t db.Task
	for _, c := range m.tasks {
		if c.ID == m.view.EditingID {
			t = c
			break
		}
	}

	var lines []string
	lines = append(lines, overdueStyle.Render("Task to be deleted:"))
	lines = append(lines, "")
	lines = append(lines, "Topic: "+t.Topic)
	if t.Description.Valid {
		lines = append(lines, "Description: "+t.Description.String)
	}
	lines = append(lines, "Status: "+statusStyle(t.Status).Render(t.Status))
	lines = append(lines, fmt.Sprintf("Score: %.2f", t.Score))
	lines = append(lines, "")
	lines = append(lines, "Delete this task? (y/n)")

	return m.overlay(strings.Join(lines, "\n"), 56)
}

// wrapText wraps text to fit within the specified width
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	currentLine := words[0]
	for _, word := range words[1:] {
		if len(currentLine)+1+len(word) <= width {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}
