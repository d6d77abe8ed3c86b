// ABOUTME: Card represents a kanban card with deadline, checklist, status, and edit trail.
// ABOUTME: Column is the card's lifecycle stage; JSON names match the browser storage payload.
package core

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Column is a card's lifecycle stage. The numbering matches the stored payload.
type Column int

const (
	Backlog    Column = 1
	InProgress Column = 2
	Testing    Column = 3
	Done       Column = 4
)

// AllColumns lists the columns in board order.
var AllColumns = []Column{Backlog, InProgress, Testing, Done}

// String returns the canonical column name.
func (c Column) String() string {
	switch c {
	case Backlog:
		return "Backlog"
	case InProgress:
		return "InProgress"
	case Testing:
		return "Testing"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("Column(%d)", int(c))
	}
}

// Label returns the human-facing column heading.
func (c Column) Label() string {
	switch c {
	case Backlog:
		return "New"
	case InProgress:
		return "In progress"
	case Testing:
		return "Testing/Review"
	case Done:
		return "Done"
	default:
		return c.String()
	}
}

// Valid reports whether c is one of the four board columns.
func (c Column) Valid() bool {
	return c >= Backlog && c <= Done
}

// ParseColumn accepts a column name, label, or digit (case-insensitive).
func ParseColumn(s string) (Column, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		c := Column(n)
		if !c.Valid() {
			return 0, fmt.Errorf("column out of range: %d", n)
		}
		return c, nil
	}
	norm := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "", "/", "").Replace(s))
	for _, c := range AllColumns {
		name := strings.ToLower(c.String())
		label := strings.ToLower(strings.NewReplacer(" ", "", "/", "").Replace(c.Label()))
		if norm == name || norm == label {
			return c, nil
		}
	}
	switch norm {
	case "new", "todo":
		return Backlog, nil
	case "review", "testingreview":
		return Testing, nil
	}
	return 0, fmt.Errorf("unknown column: %q", s)
}

// ChecklistItem is one entry in a card's checklist.
type ChecklistItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Status values set by column transitions.
const (
	StatusOnTime       = "on time"
	StatusOverdue      = "overdue"
	statusReturnPrefix = "returned: "
)

// ReturnedStatus formats the status recorded when a card is sent back from Testing.
func ReturnedStatus(reason string) string {
	return statusReturnPrefix + reason
}

// Card is a single unit of work on the board.
type Card struct {
	ID            int             `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	CreatedDate   time.Time       `json:"createdDate"`
	Deadline      time.Time       `json:"deadline"`
	Column        Column          `json:"column"`
	EditDates     []time.Time     `json:"editDates"`
	Status        string          `json:"status,omitempty"`
	Items         []ChecklistItem `json:"items,omitempty"`
	CompletedDate *time.Time      `json:"completedDate,omitempty"`
}

// Clone returns a deep copy so callers can hold a draft without aliasing board state.
func (c Card) Clone() Card {
	out := c
	out.EditDates = slices.Clone(c.EditDates)
	out.Items = slices.Clone(c.Items)
	if c.CompletedDate != nil {
		d := *c.CompletedDate
		out.CompletedDate = &d
	}
	return out
}

// MarshalJSON keeps editDates as an array even when empty.
func (c Card) MarshalJSON() ([]byte, error) {
	type plain Card
	p := plain(c)
	if p.EditDates == nil {
		p.EditDates = []time.Time{}
	}
	return json.Marshal(p)
}
