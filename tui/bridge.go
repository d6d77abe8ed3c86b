// ABOUTME: Bridge connecting the board actor to the Bubble Tea message loop.
// ABOUTME: Provides the Board interface and tea.Cmd factories for sending commands and waiting on events.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/kanban/board/core"
)

// Board is the slice of a board actor the TUI needs. *core.BoardActorHandle satisfies it.
type Board interface {
	SendCommand(cmd core.Command) ([]core.Event, error)
	ReadBoard(fn func(b *core.Board))
	Subscribe() chan core.Event
	Unsubscribe(ch chan core.Event)
}

var _ Board = (*core.BoardActorHandle)(nil)

// SendCommandCmd returns a tea.Cmd that sends cmd to the board and reports
// the result as a CommandResultMsg.
func SendCommandCmd(board Board, cmd core.Command) tea.Cmd {
	return func() tea.Msg {
		events, err := board.SendCommand(cmd)
		return CommandResultMsg{Command: cmd, Events: events, Err: err}
	}
}

// WaitForEventCmd returns a tea.Cmd that blocks on ch and delivers the next
// event as a BoardEventMsg. A closed channel ends the subscription.
func WaitForEventCmd(ch <-chan core.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return BoardEventMsg{Event: event}
	}
}
