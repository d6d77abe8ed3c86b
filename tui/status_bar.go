// ABOUTME: Implements a single-line status bar for the bottom of the TUI showing board state.
// ABOUTME: Displays the board title, card count, active filter, the Backlog blocked flag, and the last notice.
package tui

import (
	"fmt"
	"strings"
)

// StatusBar is a render-only view of the board summary.
type StatusBar struct {
	Title     string
	Variant   string
	Cards     int
	Query     string
	Blocked   bool
	Notice    string
	NoticeErr bool
	Width     int
}

// Render draws the bar followed by the key help line.
func (s StatusBar) Render() string {
	parts := []string{
		fmt.Sprintf("Board: %s", s.Title),
		s.Variant,
		fmt.Sprintf("%d cards", s.Cards),
	}
	if s.Query != "" {
		parts = append(parts, fmt.Sprintf("filter: %q", s.Query))
	}
	line := strings.Join(parts, " | ")
	if s.Blocked {
		line += " | " + BlockedTitleStyle.Render("Backlog blocked")
	}

	bar := StatusBarStyle
	if s.Width > 0 {
		bar = bar.Width(s.Width)
	}
	out := bar.Render(line)

	if s.Notice != "" {
		style := NoticeStyle
		if s.NoticeErr {
			style = ErrorStyle
		}
		out += "\n" + style.Render(s.Notice)
	}
	return out
}

const helpLine = "←/→ column  ↑/↓ card  a add  e edit  m move  b back  1-5 toggle  x delete  / search  C clear  q quit"
