// Package theme holds the murmur colours and the shared lipgloss styles.
package theme

import "github.com/charmbracelet/lipgloss"

var (
	Bar   = lipgloss.Color("#1f2335")
	Edge  = lipgloss.Color("#3b4261")
	Ink   = lipgloss.Color("#c0caf5")
	Faint = lipgloss.Color("#737aa2")
	Focus = lipgloss.Color("#bb9af7")
	Sky   = lipgloss.Color("#7dcfff")
	Live  = lipgloss.Color("#9ece6a")
	Alert = lipgloss.Color("#ff9e64")

	// Strip is the background of the tab bar and the status line.
	Strip = lipgloss.NewStyle().Background(Bar)

	Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Edge).
		Background(Bar).
		Foreground(Ink)

	Heading   = lipgloss.NewStyle().Foreground(Sky).Bold(true)
	Dim       = lipgloss.NewStyle().Foreground(Faint)
	Accent    = lipgloss.NewStyle().Foreground(Focus).Bold(true)
	Listening = lipgloss.NewStyle().Foreground(Live).Bold(true)
	Failure   = lipgloss.NewStyle().Foreground(Alert)
)
