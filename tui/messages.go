// ABOUTME: Bubble Tea message types used in the TUI message loop.
// ABOUTME: Each type wraps board events or command results for the tea.Msg interface.
package tui

import "github.com/2389-research/kanban/board/core"

// BoardEventMsg wraps an event broadcast by the board actor.
type BoardEventMsg struct {
	Event core.Event
}

// CommandResultMsg carries the outcome of a command sent to the board.
type CommandResultMsg struct {
	Command core.Command
	Events  []core.Event
	Err     error
}
