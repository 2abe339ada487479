package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	screenStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3A7D44")).
			Foreground(lipgloss.Color("#7CFC00")).
			Background(lipgloss.Color("#000000"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	dirtyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{
		titleStyle.Render("cwkeyer"),
		m.renderScreen(),
		m.renderFooter(),
	}
	if m.sending {
		sections = append(sections, m.input.View())
	} else if m.status != "" {
		sections = append(sections, footerStyle.Render(m.status))
	}
	sections = append(sections, m.help.View(m.keys))
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderScreen() string {
	return screenStyle.Render(strings.Join(m.cells.Rows(), "\n"))
}

func (m *Model) renderFooter() string {
	snap := m.dev.Settings().Snapshot()
	segments := []string{
		fmt.Sprintf("%d WPM", snap.WPM),
		fmt.Sprintf("%d Hz", snap.HzSidetone),
	}
	if m.knob != nil {
		segments = append(segments, fmt.Sprintf("knob %d", m.knob.Raw()))
	}
	if snap.PotActivated {
		segments = append(segments, "pot on")
	}
	segments = append(segments, fmt.Sprintf("%d chars", m.dev.Chars()))
	if ev := m.dev.Display().Evictions(); ev > 0 {
		segments = append(segments, fmt.Sprintf("%d scrolls", ev))
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.dev.Settings().Dirty() {
		footer += "  " + dirtyStyle.Render("unsaved")
	}
	return footer
}
