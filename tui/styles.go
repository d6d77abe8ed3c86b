// ABOUTME: Defines lipgloss styles for the board columns, card status colors, prompt dialog, and status bar.
// ABOUTME: Provides StyleForStatus to map a card's derived status text to its display style.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/kanban/board/core"
)

var (
	// Column borders
	ColumnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	FocusedColumnStyle = ColumnStyle.
				BorderForeground(lipgloss.Color("62"))

	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))
	BlockedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("196"))

	// Card rows
	CardStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Bold(true)

	// Status colors
	OnTimeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	OverdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	ReturnedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	MutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
	NoticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	// Detail panel labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(12)
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// Prompt dialog
	PromptStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 2)
)

// StyleForStatus returns the style for a card's status text.
func StyleForStatus(status string) lipgloss.Style {
	switch {
	case status == core.StatusOnTime:
		return OnTimeStyle
	case status == core.StatusOverdue:
		return OverdueStyle
	case strings.HasPrefix(status, "returned"):
		return ReturnedStyle
	default:
		return MutedStyle
	}
}
