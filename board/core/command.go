// ABOUTME: Command is a tagged union representing every user action raised against a board.
// ABOUTME: 7 variants with JSON marshal/unmarshal using a "type" discriminator.
package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Command represents a mutation intent for a board. Tagged union with 7 variants.
type Command interface {
	CommandType() string
	commandSeal()
}

// CreateCardCommand adds a card to the backlog.
type CreateCardCommand struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Items       []string  `json:"items,omitempty"`
}

func (c CreateCardCommand) CommandType() string { return "CreateCard" }
func (c CreateCardCommand) commandSeal()        {}

// EditCardCommand confirms an edit of an existing card.
type EditCardCommand struct {
	CardID      int        `json:"card_id"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Items       *[]string  `json:"items,omitempty"`
}

func (c EditCardCommand) CommandType() string { return "EditCard" }
func (c EditCardCommand) commandSeal()        {}

// Patch converts the command into the store's edit patch.
func (c EditCardCommand) Patch() CardPatch {
	return CardPatch{
		Title:       c.Title,
		Description: c.Description,
		Deadline:    c.Deadline,
		Items:       c.Items,
	}
}

// DeleteCardCommand removes a card.
type DeleteCardCommand struct {
	CardID int `json:"card_id"`
}

func (c DeleteCardCommand) CommandType() string { return "DeleteCard" }
func (c DeleteCardCommand) commandSeal()        {}

// MoveCardCommand moves a card forward to Column.
type MoveCardCommand struct {
	CardID int    `json:"card_id"`
	Column Column `json:"column"`
}

func (c MoveCardCommand) CommandType() string { return "MoveCard" }
func (c MoveCardCommand) commandSeal()        {}

// MoveCardBackCommand returns a card from Testing with a reason.
type MoveCardBackCommand struct {
	CardID int    `json:"card_id"`
	Reason string `json:"reason"`
}

func (c MoveCardBackCommand) CommandType() string { return "MoveCardBack" }
func (c MoveCardBackCommand) commandSeal()        {}

// ToggleItemCommand flips one checklist item.
type ToggleItemCommand struct {
	CardID int `json:"card_id"`
	Index  int `json:"index"`
}

func (c ToggleItemCommand) CommandType() string { return "ToggleItem" }
func (c ToggleItemCommand) commandSeal()        {}

// ClearBoardCommand removes every card and resets id allocation.
type ClearBoardCommand struct{}

func (c ClearBoardCommand) CommandType() string { return "ClearBoard" }
func (c ClearBoardCommand) commandSeal()        {}

// MarshalCommand serializes a Command with a "type" discriminator field.
func MarshalCommand(c Command) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("cannot marshal nil command")
	}
	if _, ok := c.(ClearBoardCommand); ok {
		return json.Marshal(map[string]string{"type": "ClearBoard"})
	}
	return marshalTagged(c.CommandType(), c)
}

// UnmarshalCommand deserializes a Command from JSON with a "type" discriminator.
func UnmarshalCommand(data []byte) (Command, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal command type: %w", err)
	}

	switch envelope.Type {
	case "CreateCard":
		var c CreateCardCommand
		return c, json.Unmarshal(data, &c)
	case "EditCard":
		var c EditCardCommand
		return c, json.Unmarshal(data, &c)
	case "DeleteCard":
		var c DeleteCardCommand
		return c, json.Unmarshal(data, &c)
	case "MoveCard":
		var c MoveCardCommand
		return c, json.Unmarshal(data, &c)
	case "MoveCardBack":
		var c MoveCardBackCommand
		return c, json.Unmarshal(data, &c)
	case "ToggleItem":
		var c ToggleItemCommand
		return c, json.Unmarshal(data, &c)
	case "ClearBoard":
		return ClearBoardCommand{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, envelope.Type)
	}
}

// marshalTagged marshals a struct with an injected "type" field.
func marshalTagged(typeName string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	typeJSON, _ := json.Marshal(typeName)
	m["type"] = typeJSON
	return json.Marshal(m)
}
