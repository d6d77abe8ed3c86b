// ABOUTME: Shared column grouping for all exporters: a point-in-time snapshot of the four column views.
// ABOUTME: Column order is fixed board order; cards within a column keep id order.
package export

import (
	"time"

	"github.com/2389-research/kanban/board/core"
)

// Snapshot is the board content every exporter renders.
type Snapshot struct {
	Info           core.BoardInfo
	Columns        []core.ColumnView
	BacklogBlocked bool
	GeneratedAt    time.Time
}

// FromBoard captures the board's columns filtered by query.
func FromBoard(info core.BoardInfo, b *core.Board, query string, now time.Time) Snapshot {
	return Snapshot{
		Info:           info,
		Columns:        b.Columns(query),
		BacklogBlocked: b.BacklogBlocked(),
		GeneratedAt:    now.UTC(),
	}
}

// CardCount returns the total number of cards across columns.
func (s Snapshot) CardCount() int {
	n := 0
	for _, col := range s.Columns {
		n += len(col.Cards)
	}
	return n
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
