// ABOUTME: Renders one board column as a bordered list of cards with the selection highlighted.
// ABOUTME: Column titles show occupancy against the ceiling and turn red when the backlog is blocked.
package tui

import (
	"fmt"
	"strings"

	"github.com/2389-research/kanban/board/core"
)

// ColumnPanel is a render-only view of one column.
type ColumnPanel struct {
	View     core.ColumnView
	Selected int // index into View.Cards, -1 for none
	Focused  bool
	Blocked  bool // show the column as accepting no new work
	Width    int
	Height   int
}

// columnTitle returns "New (2/3)" for bounded columns and "Done (4)" otherwise.
func columnTitle(v core.ColumnView) string {
	if v.Limit > 0 {
		return fmt.Sprintf("%s (%d/%d)", v.Label, len(v.Cards), v.Limit)
	}
	return fmt.Sprintf("%s (%d)", v.Label, len(v.Cards))
}

// cardLine is the one-line summary of a card.
func cardLine(c core.Card) string {
	line := fmt.Sprintf("#%d %s", c.ID, c.Title)
	if len(c.Items) > 0 {
		line += fmt.Sprintf(" [%.0f%%]", core.CompletionRatio(c.Items))
	}
	return line
}

// truncate shortens s to max runes, ending with "…" when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// Render draws the panel.
func (p ColumnPanel) Render() string {
	inner := p.Width - 4
	if inner < 8 {
		inner = 8
	}

	var b strings.Builder
	title := columnTitle(p.View)
	if p.Blocked {
		b.WriteString(BlockedTitleStyle.Render(truncate(title+" blocked", inner)))
	} else {
		b.WriteString(TitleStyle.Render(truncate(title, inner)))
	}
	b.WriteString("\n")

	if len(p.View.Cards) == 0 {
		b.WriteString(MutedStyle.Render("(empty)"))
	}
	for i, card := range p.View.Cards {
		line := truncate(cardLine(card), inner)
		switch {
		case i == p.Selected && p.Focused:
			b.WriteString(SelectedStyle.Render(line))
		case card.Status != "":
			b.WriteString(StyleForStatus(card.Status).Render(line))
		default:
			b.WriteString(CardStyle.Render(line))
		}
		if i < len(p.View.Cards)-1 {
			b.WriteString("\n")
		}
	}

	style := ColumnStyle
	if p.Focused {
		style = FocusedColumnStyle
	}
	style = style.Width(p.Width - 2)
	if p.Height > 2 {
		style = style.Height(p.Height - 2)
	}
	return style.Render(b.String())
}
