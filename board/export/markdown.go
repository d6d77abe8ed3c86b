// ABOUTME: Exports a board snapshot as a deterministic Markdown document.
// ABOUTME: One section per column with each card's fields, checklist, and edit trail.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/2389-research/kanban/board/core"
)

const dateLayout = "2006-01-02 15:04"

// ExportMarkdown renders s as Markdown. Columns always appear in board order,
// including empty ones.
func ExportMarkdown(s Snapshot) string {
	var out strings.Builder

	title := s.Info.Title
	if title == "" {
		title = "(untitled board)"
	}
	fmt.Fprintf(&out, "# %s\n", title)
	fmt.Fprintln(&out)
	fmt.Fprintf(&out, "> %d cards, %s policy", s.CardCount(), s.Info.Rules.Variant)
	if s.BacklogBlocked {
		fmt.Fprint(&out, ", backlog blocked")
	}
	fmt.Fprintln(&out)

	for _, col := range s.Columns {
		fmt.Fprintln(&out)
		if col.Limit > 0 {
			fmt.Fprintf(&out, "## %s (%d/%d)\n", col.Label, len(col.Cards), col.Limit)
		} else {
			fmt.Fprintf(&out, "## %s (%d)\n", col.Label, len(col.Cards))
		}

		for _, card := range col.Cards {
			writeCard(&out, card)
		}
	}

	return out.String()
}

func writeCard(out *strings.Builder, card core.Card) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "### #%d %s\n", card.ID, card.Title)
	fmt.Fprintln(out)
	fmt.Fprintln(out, card.Description)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "- Created: %s\n", card.CreatedDate.Format(dateLayout))
	fmt.Fprintf(out, "- Deadline: %s\n", card.Deadline.Format(dateLayout))
	if card.Status != "" {
		fmt.Fprintf(out, "- Status: %s\n", card.Status)
	}
	if card.CompletedDate != nil {
		fmt.Fprintf(out, "- Completed: %s\n", card.CompletedDate.Format(dateLayout))
	}
	if len(card.EditDates) > 0 {
		dates := make([]string, len(card.EditDates))
		for i, d := range card.EditDates {
			dates[i] = d.Format(dateLayout)
		}
		fmt.Fprintf(out, "- Edited: %s\n", strings.Join(dates, ", "))
	}

	if len(card.Items) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Checklist (%.0f%%):\n", core.CompletionRatio(card.Items))
		fmt.Fprintln(out)
		for _, it := range card.Items {
			fmt.Fprintf(out, "- %s %s\n", checkbox(it.Completed), it.Text)
		}
	}
}

// formatTime renders an optional timestamp for structured exports.
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
