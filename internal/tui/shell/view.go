package shell

import "strings"

// View implements tea.Model. The transcript scrolls; the input line is
// pinned at the bottom.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	visible := m.lines
	if m.height > 1 {
		if max := m.height - 1; len(visible) > max {
			visible = visible[len(visible)-max:]
		}
	}
	var b strings.Builder
	for _, line := range visible {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	return b.String()
}
