// ABOUTME: Displays the selected card: description, deadline, status, checklist, and edit history.
// ABOUTME: Deadlines are graded against the clock so overdue cards stand out before they reach Done.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/2389-research/kanban/board/core"
)

const detailTimeLayout = "2006-01-02 15:04"

// DetailPanel is a render-only view of one card.
type DetailPanel struct {
	Card  *core.Card
	Now   time.Time
	Width int
}

func (p DetailPanel) row(b *strings.Builder, label, value string) {
	b.WriteString(LabelStyle.Render(label))
	b.WriteString(ValueStyle.Render(value))
	b.WriteString("\n")
}

// Render draws the panel.
func (p DetailPanel) Render() string {
	if p.Card == nil {
		return MutedStyle.Render("No card selected. Press a to add one.")
	}
	c := p.Card
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("#%d %s", c.ID, c.Title)))
	b.WriteString("\n")
	p.row(&b, "Column", c.Column.Label())
	p.row(&b, "Description", c.Description)

	deadline := c.Deadline.Local().Format(detailTimeLayout)
	if c.Column != core.Done && core.DeadlineStatus(c.Deadline, p.Now) == core.StatusOverdue {
		deadline += " " + OverdueStyle.Render("(past due)")
	}
	p.row(&b, "Deadline", deadline)
	p.row(&b, "Created", c.CreatedDate.Local().Format(detailTimeLayout))
	if c.Status != "" {
		b.WriteString(LabelStyle.Render("Status"))
		b.WriteString(StyleForStatus(c.Status).Render(c.Status))
		b.WriteString("\n")
	}
	if c.CompletedDate != nil {
		p.row(&b, "Completed", c.CompletedDate.Local().Format(detailTimeLayout))
	}

	edits := fmt.Sprintf("%d", len(c.EditDates))
	if n := len(c.EditDates); n > 0 {
		edits += ", last " + c.EditDates[n-1].Local().Format(detailTimeLayout)
	}
	p.row(&b, "Edits", edits)

	if len(c.Items) > 0 {
		b.WriteString(LabelStyle.Render("Checklist"))
		b.WriteString(ValueStyle.Render(fmt.Sprintf("%.0f%%", core.CompletionRatio(c.Items))))
		b.WriteString("\n")
		for i, it := range c.Items {
			mark := "[ ]"
			if it.Completed {
				mark = "[x]"
			}
			b.WriteString(fmt.Sprintf("  %d %s %s\n", i+1, mark, truncate(it.Text, p.Width-10)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
