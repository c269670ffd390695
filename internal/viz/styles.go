package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const panelWidth = 34

type styles struct {
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	accent  lipgloss.Style
	warning lipgloss.Style
	trail   lipgloss.Style
	panel   lipgloss.Style
	canvas  lipgloss.Style
	graph   lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent).MarginBottom(1),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value:   lipgloss.NewStyle().Foreground(t.Text),
		muted:   lipgloss.NewStyle().Foreground(t.Muted),
		accent:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		warning: lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		trail:   lipgloss.NewStyle().Foreground(t.Trail),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Border).
			Padding(0, 2).
			Width(panelWidth),
		canvas: lipgloss.NewStyle().Padding(0, 1),
		graph:  lipgloss.NewStyle().Foreground(t.Trail),
	}
}

func (s styles) row(label, value string) string {
	return s.label.Render(label) + s.value.Render(value) + "\n"
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinner(frame int) string {
	return spinnerFrames[frame%len(spinnerFrames)]
}

func separator(width int) string {
	if width < 8 {
		return strings.Repeat("─", max(width, 0))
	}
	mid := width / 2
	return strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3)
}
