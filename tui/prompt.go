// ABOUTME: PromptModel is a modal text dialog built on bubbles/textinput, with one or more steps.
// ABOUTME: Drives search, move-back reasons, card add and edit forms, and the clear confirmation.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// PromptPurpose says what a completed prompt is for.
type PromptPurpose int

const (
	PromptSearch PromptPurpose = iota
	PromptReason
	PromptAdd
	PromptEdit
	PromptClear
)

// PromptStep is one field of a prompt with its initial value.
type PromptStep struct {
	Label string
	Value string
}

// PromptModel collects one value per step. Esc abandons the whole prompt.
type PromptModel struct {
	textInput textinput.Model
	title     string
	purpose   PromptPurpose
	cardID    int
	steps     []PromptStep
	values    []string
	step      int
	active    bool
}

// NewPromptModel creates an inactive prompt.
func NewPromptModel() PromptModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 500
	return PromptModel{textInput: ti}
}

// Start activates the prompt. cardID is the card the prompt acts on, or 0.
func (m *PromptModel) Start(purpose PromptPurpose, title string, cardID int, steps ...PromptStep) {
	m.purpose = purpose
	m.title = title
	m.cardID = cardID
	m.steps = steps
	m.values = make([]string, 0, len(steps))
	m.step = 0
	m.active = true
	m.loadStep()
	m.textInput.Focus()
}

func (m *PromptModel) loadStep() {
	m.textInput.Reset()
	m.textInput.Placeholder = m.steps[m.step].Label
	m.textInput.SetValue(m.steps[m.step].Value)
	m.textInput.CursorEnd()
}

// Submit records the current step's value. It reports true once every step is filled.
func (m *PromptModel) Submit() bool {
	m.values = append(m.values, m.textInput.Value())
	if m.step+1 < len(m.steps) {
		m.step++
		m.loadStep()
		return false
	}
	m.active = false
	m.textInput.Blur()
	return true
}

// Cancel abandons the prompt and discards collected values.
func (m *PromptModel) Cancel() {
	m.active = false
	m.values = nil
	m.textInput.Reset()
	m.textInput.Blur()
}

// IsActive returns whether the prompt is visible.
func (m PromptModel) IsActive() bool {
	return m.active
}

// Purpose returns what the prompt was started for.
func (m PromptModel) Purpose() PromptPurpose {
	return m.purpose
}

// CardID returns the card the prompt acts on.
func (m PromptModel) CardID() int {
	return m.cardID
}

// Values returns the submitted values in step order.
func (m PromptModel) Values() []string {
	return m.values
}

// Update forwards key events to the embedded textinput.
func (m PromptModel) Update(msg tea.Msg) PromptModel {
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	_ = cmd // cursor blink is not driven in sub-model updates
	return m
}

// View renders the dialog, or "" when inactive.
func (m PromptModel) View() string {
	if !m.active {
		return ""
	}
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	if len(m.steps) > 1 {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  (%d/%d)", m.step+1, len(m.steps))))
	}
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render(m.steps[m.step].Label))
	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render("enter: next/confirm  esc: cancel"))
	return PromptStyle.Render(b.String())
}
