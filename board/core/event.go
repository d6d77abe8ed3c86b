// ABOUTME: Event is the envelope for board mutations, wrapping EventPayload variants.
// ABOUTME: 7 EventPayload variants with tagged union JSON serialization via "type" discriminator.
package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event is the immutable envelope for a board mutation.
type Event struct {
	EventID   uint64       `json:"event_id"`
	BoardID   ulid.ULID    `json:"board_id"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   EventPayload `json:"-"` // Custom marshal/unmarshal
}

// eventJSON is the wire format for Event.
type eventJSON struct {
	EventID   uint64          `json:"event_id"`
	BoardID   ulid.ULID       `json:"board_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalJSON serializes the Event with its payload inlined.
func (e Event) MarshalJSON() ([]byte, error) {
	payloadJSON, err := MarshalEventPayload(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return json.Marshal(eventJSON{
		EventID:   e.EventID,
		BoardID:   e.BoardID,
		Timestamp: e.Timestamp,
		Payload:   payloadJSON,
	})
}

// UnmarshalJSON deserializes the Event with its payload.
func (e *Event) UnmarshalJSON(data []byte) error {
	var j eventJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	payload, err := UnmarshalEventPayload(j.Payload)
	if err != nil {
		return fmt.Errorf("unmarshal event payload: %w", err)
	}
	e.EventID = j.EventID
	e.BoardID = j.BoardID
	e.Timestamp = j.Timestamp
	e.Payload = payload
	return nil
}

// EventPayload is a tagged union representing the 7 event variants.
type EventPayload interface {
	EventPayloadType() string
	eventPayloadSeal()
}

// CardCreatedPayload indicates a new card entered the backlog.
type CardCreatedPayload struct {
	Card Card `json:"card"`
}

func (p CardCreatedPayload) EventPayloadType() string { return "CardCreated" }
func (p CardCreatedPayload) eventPayloadSeal()        {}

// CardEditedPayload carries the card as it stands after a confirmed edit.
type CardEditedPayload struct {
	Card Card `json:"card"`
}

func (p CardEditedPayload) EventPayloadType() string { return "CardEdited" }
func (p CardEditedPayload) eventPayloadSeal()        {}

// CardDeletedPayload indicates a card was removed.
type CardDeletedPayload struct {
	CardID int `json:"card_id"`
}

func (p CardDeletedPayload) EventPayloadType() string { return "CardDeleted" }
func (p CardDeletedPayload) eventPayloadSeal()        {}

// CardMovedPayload indicates a card changed column.
type CardMovedPayload struct {
	CardID        int        `json:"card_id"`
	From          Column     `json:"from"`
	To            Column     `json:"to"`
	Status        string     `json:"status,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}

func (p CardMovedPayload) EventPayloadType() string { return "CardMoved" }
func (p CardMovedPayload) eventPayloadSeal()        {}

// CardReturnedPayload indicates a card was sent back from Testing.
type CardReturnedPayload struct {
	CardID int    `json:"card_id"`
	Reason string `json:"reason"`
	Status string `json:"status"`
}

func (p CardReturnedPayload) EventPayloadType() string { return "CardReturned" }
func (p CardReturnedPayload) eventPayloadSeal()        {}

// ItemToggledPayload indicates a checklist item flipped.
type ItemToggledPayload struct {
	CardID    int     `json:"card_id"`
	Index     int     `json:"index"`
	Completed bool    `json:"completed"`
	Ratio     float64 `json:"ratio"`
}

func (p ItemToggledPayload) EventPayloadType() string { return "ItemToggled" }
func (p ItemToggledPayload) eventPayloadSeal()        {}

// BoardClearedPayload indicates every card was removed.
type BoardClearedPayload struct{}

func (p BoardClearedPayload) EventPayloadType() string { return "BoardCleared" }
func (p BoardClearedPayload) eventPayloadSeal()        {}

// MarshalEventPayload serializes an EventPayload with a "type" discriminator.
func MarshalEventPayload(p EventPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("cannot marshal nil event payload")
	}
	if _, ok := p.(BoardClearedPayload); ok {
		return json.Marshal(map[string]string{"type": "BoardCleared"})
	}
	return marshalTagged(p.EventPayloadType(), p)
}

// UnmarshalEventPayload deserializes an EventPayload from JSON with a "type" discriminator.
func UnmarshalEventPayload(data []byte) (EventPayload, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal event payload type: %w", err)
	}

	switch envelope.Type {
	case "CardCreated":
		var p CardCreatedPayload
		return p, json.Unmarshal(data, &p)
	case "CardEdited":
		var p CardEditedPayload
		return p, json.Unmarshal(data, &p)
	case "CardDeleted":
		var p CardDeletedPayload
		return p, json.Unmarshal(data, &p)
	case "CardMoved":
		var p CardMovedPayload
		return p, json.Unmarshal(data, &p)
	case "CardReturned":
		var p CardReturnedPayload
		return p, json.Unmarshal(data, &p)
	case "ItemToggled":
		var p ItemToggledPayload
		return p, json.Unmarshal(data, &p)
	case "BoardCleared":
		return BoardClearedPayload{}, nil
	default:
		return nil, fmt.Errorf("unknown event payload type: %q", envelope.Type)
	}
}
