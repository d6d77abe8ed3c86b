// ABOUTME: Top-level Bubble Tea AppModel: a four-column board with a detail pane, status bar, and prompt dialog.
// ABOUTME: Implements tea.Model (Init, Update, View); every mutation is sent as a command to the board actor.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/kanban/board/core"
)

// AppModel is the top-level Bubble Tea model for one board.
type AppModel struct {
	info   core.BoardInfo
	board  Board
	events chan core.Event
	prompt PromptModel
	now    func() time.Time

	columns  []core.ColumnView
	blocked  bool
	variant  core.Variant
	query    string
	col      int
	selected []int // selected card index per column

	notice    string
	noticeErr bool
	width     int
	height    int
}

// NewAppModel creates an AppModel over board and subscribes to its events.
// Call Close when the program exits.
func NewAppModel(info core.BoardInfo, board Board) AppModel {
	m := AppModel{
		info:     info,
		board:    board,
		events:   board.Subscribe(),
		prompt:   NewPromptModel(),
		now:      time.Now,
		selected: make([]int, len(core.AllColumns)),
	}
	m.refresh()
	return m
}

// Close releases the event subscription.
func (m AppModel) Close() {
	m.board.Unsubscribe(m.events)
}

// Init implements tea.Model. Starts listening for board events.
func (m AppModel) Init() tea.Cmd {
	return WaitForEventCmd(m.events)
}

// Update implements tea.Model.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case BoardEventMsg:
		m.refresh()
		return m, WaitForEventCmd(m.events)

	case CommandResultMsg:
		return m.handleCommandResult(msg)

	case tea.KeyMsg:
		if m.prompt.IsActive() {
			return m.handlePromptKey(msg)
		}
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

// refresh re-reads the column views from the board.
func (m *AppModel) refresh() {
	m.board.ReadBoard(func(b *core.Board) {
		m.columns = b.Columns(m.query)
		m.blocked = b.BacklogBlocked()
		m.variant = b.Rules().Variant
	})
	for i := range m.columns {
		if n := len(m.columns[i].Cards); m.selected[i] >= n {
			m.selected[i] = max(n-1, 0)
		}
	}
}

// SelectedCard returns the highlighted card, if any.
func (m AppModel) SelectedCard() (core.Card, bool) {
	if m.col >= len(m.columns) {
		return core.Card{}, false
	}
	cards := m.columns[m.col].Cards
	i := m.selected[m.col]
	if i < 0 || i >= len(cards) {
		return core.Card{}, false
	}
	return cards[i], true
}

func (m AppModel) setNotice(text string, isErr bool) AppModel {
	m.notice = text
	m.noticeErr = isErr
	return m
}

// handleKeyMsg processes board-level shortcuts.
func (m AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		if m.col > 0 {
			m.col--
		}
		return m, nil
	case "right", "l":
		if m.col < len(m.columns)-1 {
			m.col++
		}
		return m, nil
	case "up", "k":
		if m.selected[m.col] > 0 {
			m.selected[m.col]--
		}
		return m, nil
	case "down", "j":
		if m.selected[m.col] < len(m.columns[m.col].Cards)-1 {
			m.selected[m.col]++
		}
		return m, nil
	case "/":
		m.prompt.Start(PromptSearch, "Search titles", 0, PromptStep{Label: "Title contains", Value: m.query})
		return m, nil
	case "a":
		steps := []PromptStep{
			{Label: "Title"},
			{Label: "Description"},
			{Label: "Deadline (YYYY-MM-DD HH:MM)"},
		}
		if m.variant == core.VariantChecklist {
			steps = append(steps, PromptStep{Label: "Checklist items, comma separated"})
		}
		m.prompt.Start(PromptAdd, "New card", 0, steps...)
		return m, nil
	case "C":
		m.prompt.Start(PromptClear, "Clear the whole board?", 0, PromptStep{Label: "Type yes to confirm"})
		return m, nil
	}

	card, ok := m.SelectedCard()
	if !ok {
		return m, nil
	}
	switch key := msg.String(); key {
	case "e":
		steps := []PromptStep{
			{Label: "Title", Value: card.Title},
			{Label: "Description", Value: card.Description},
			{Label: "Deadline (YYYY-MM-DD HH:MM)", Value: card.Deadline.Local().Format(detailTimeLayout)},
		}
		if len(card.Items) > 0 {
			texts := make([]string, len(card.Items))
			for i, it := range card.Items {
				texts[i] = it.Text
			}
			steps = append(steps, PromptStep{Label: "Checklist items, comma separated", Value: strings.Join(texts, ", ")})
		}
		m.prompt.Start(PromptEdit, fmt.Sprintf("Edit #%d", card.ID), card.ID, steps...)
		return m, nil
	case "m", "enter":
		next, ok := core.NextColumn(card.Column)
		if !ok {
			return m.setNotice(fmt.Sprintf("#%d is already done", card.ID), false), nil
		}
		return m, SendCommandCmd(m.board, core.MoveCardCommand{CardID: card.ID, Column: next})
	case "b":
		m.prompt.Start(PromptReason, fmt.Sprintf("Return #%d to In progress", card.ID), card.ID, PromptStep{Label: "Reason"})
		return m, nil
	case "x":
		return m, SendCommandCmd(m.board, core.DeleteCardCommand{CardID: card.ID})
	case "1", "2", "3", "4", "5":
		index := int(key[0] - '1')
		return m, SendCommandCmd(m.board, core.ToggleItemCommand{CardID: card.ID, Index: index})
	}
	return m, nil
}

// handlePromptKey routes keys to the prompt; enter advances, esc cancels.
func (m AppModel) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt.Cancel()
		return m.setNotice("Cancelled", false), nil
	case tea.KeyEnter:
		if !m.prompt.Submit() {
			return m, nil
		}
		return m.finishPrompt()
	}
	m.prompt = m.prompt.Update(msg)
	return m, nil
}

// finishPrompt turns a completed prompt into a command.
func (m AppModel) finishPrompt() (tea.Model, tea.Cmd) {
	values := m.prompt.Values()
	id := m.prompt.CardID()

	switch m.prompt.Purpose() {
	case PromptSearch:
		m.query = strings.TrimSpace(values[0])
		m.refresh()
		return m.setNotice("", false), nil

	case PromptReason:
		reason := strings.TrimSpace(values[0])
		if reason == "" {
			return m.setNotice(fmt.Sprintf("#%d stays in Testing/Review: no reason given", id), false), nil
		}
		return m, SendCommandCmd(m.board, core.MoveCardBackCommand{CardID: id, Reason: reason})

	case PromptClear:
		if strings.ToLower(strings.TrimSpace(values[0])) != "yes" {
			return m.setNotice("Clear cancelled", false), nil
		}
		return m, SendCommandCmd(m.board, core.ClearBoardCommand{})

	case PromptAdd:
		deadline, err := core.ParseDeadline(values[2], time.Local)
		if err != nil {
			return m.setNotice(err.Error(), true), nil
		}
		cmd := core.CreateCardCommand{
			Title:       values[0],
			Description: values[1],
			Deadline:    deadline.UTC(),
		}
		if len(values) > 3 {
			cmd.Items = splitItems(values[3])
		}
		return m, SendCommandCmd(m.board, cmd)

	case PromptEdit:
		deadline, err := core.ParseDeadline(values[2], time.Local)
		if err != nil {
			return m.setNotice(err.Error(), true), nil
		}
		deadline = deadline.UTC()
		cmd := core.EditCardCommand{
			CardID:      id,
			Title:       &values[0],
			Description: &values[1],
			Deadline:    &deadline,
		}
		if len(values) > 3 {
			items := splitItems(values[3])
			cmd.Items = &items
		}
		return m, SendCommandCmd(m.board, cmd)
	}
	return m, nil
}

func splitItems(s string) []string {
	var items []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// handleCommandResult reports the outcome and re-reads the board.
func (m AppModel) handleCommandResult(msg CommandResultMsg) (tea.Model, tea.Cmd) {
	m.refresh()
	if msg.Err != nil {
		return m.setNotice(describeError(msg.Err), true), nil
	}
	if len(msg.Events) == 0 {
		return m.setNotice("No change", false), nil
	}
	notes := make([]string, 0, len(msg.Events))
	for _, ev := range msg.Events {
		notes = append(notes, describeEvent(ev))
	}
	return m.setNotice(strings.Join(notes, "; "), false), nil
}

func describeError(err error) string {
	var ce *core.CapacityExceededError
	switch {
	case errors.As(err, &ce):
		return fmt.Sprintf("%s is full (%d cards)", ce.Column.Label(), ce.Limit)
	case errors.Is(err, core.ErrInvalidTransition):
		return "That move is not allowed here"
	}
	return err.Error()
}

func describeEvent(ev core.Event) string {
	switch p := ev.Payload.(type) {
	case core.CardCreatedPayload:
		return fmt.Sprintf("Added #%d", p.Card.ID)
	case core.CardEditedPayload:
		return fmt.Sprintf("Saved #%d", p.Card.ID)
	case core.CardDeletedPayload:
		return fmt.Sprintf("Deleted #%d", p.CardID)
	case core.CardMovedPayload:
		note := fmt.Sprintf("#%d moved to %s", p.CardID, p.To.Label())
		if p.Status != "" {
			note += " (" + p.Status + ")"
		}
		return note
	case core.CardReturnedPayload:
		return fmt.Sprintf("#%d %s", p.CardID, p.Status)
	case core.ItemToggledPayload:
		return fmt.Sprintf("#%d item %d toggled", p.CardID, p.Index+1)
	case core.BoardClearedPayload:
		return "Board cleared"
	}
	return ev.Payload.EventPayloadType()
}

// View implements tea.Model.
func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.width < 60 || m.height < 12 {
		return fmt.Sprintf("Terminal too small (%dx%d). Minimum: 60x12.", m.width, m.height)
	}

	statusHeight := 2
	if m.notice != "" {
		statusHeight = 3
	}
	detailHeight := 10
	columnHeight := m.height - statusHeight - detailHeight
	if columnHeight < 5 {
		columnHeight = 5
	}
	colWidth := m.width / len(m.columns)

	panels := make([]string, len(m.columns))
	cards := 0
	for i, view := range m.columns {
		cards += len(view.Cards)
		panels[i] = ColumnPanel{
			View:     view,
			Selected: m.selected[i],
			Focused:  i == m.col,
			Blocked:  view.Column == core.Backlog && m.blocked,
			Width:    colWidth,
			Height:   columnHeight,
		}.Render()
	}

	var lower string
	if m.prompt.IsActive() {
		lower = m.prompt.View()
	} else {
		var selected *core.Card
		if card, ok := m.SelectedCard(); ok {
			selected = &card
		}
		lower = DetailPanel{Card: selected, Now: m.now(), Width: m.width}.Render()
	}

	bar := StatusBar{
		Title:     m.info.Title,
		Variant:   string(m.variant),
		Cards:     cards,
		Query:     m.query,
		Blocked:   m.blocked,
		Notice:    m.notice,
		NoticeErr: m.noticeErr,
		Width:     m.width,
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	b.WriteString("\n")
	b.WriteString(lower)
	b.WriteString("\n")
	b.WriteString(bar.Render())
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render(helpLine))
	return b.String()
}
