package app

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	stepStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	countdown     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("117"))
	pausedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("179")).Bold(true)
	nextStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	completeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true)
	statsStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	frameStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(1, 3)
)
