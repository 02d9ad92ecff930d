package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	Header   lipgloss.Style
	Frame    lipgloss.Style
	Panel    lipgloss.Style
	Focused  lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Success  lipgloss.Style
	Alert    lipgloss.Style
	Danger   lipgloss.Style
	Modified lipgloss.Style
	Input    lipgloss.Style
}

func defaultTheme() theme {
	accent := lipgloss.Color("#00B4D8")
	secondary := lipgloss.Color("#7D7D7D")
	success := lipgloss.Color("#2DC653")
	alert := lipgloss.Color("#FFBF00")
	danger := lipgloss.Color("#FF0055")
	modified := lipgloss.Color("#9D4EDD")

	return theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary).
			Padding(0, 1),
		Focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(secondary),
		Accent: lipgloss.NewStyle().
			Foreground(accent),
		Success: lipgloss.NewStyle().
			Foreground(success),
		Alert: lipgloss.NewStyle().
			Foreground(alert),
		Danger: lipgloss.NewStyle().
			Foreground(danger),
		Modified: lipgloss.NewStyle().
			Foreground(modified),
		Input: lipgloss.NewStyle().
			Foreground(accent),
	}
}
