// ABOUTME: Tests for Card, Column parsing, deadline parsing, and the command/event wire format.
// ABOUTME: Checks the stored JSON field names and the "type" discriminator on commands and payloads.
package core_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/2389-research/kanban/board/core"
)

func TestParseColumn(t *testing.T) {
	cases := map[string]core.Column{
		"1":              core.Backlog,
		"backlog":        core.Backlog,
		"New":            core.Backlog,
		"in progress":    core.InProgress,
		"in_progress":    core.InProgress,
		"Testing/Review": core.Testing,
		"review":         core.Testing,
		"4":              core.Done,
		"DONE":           core.Done,
	}
	for in, want := range cases {
		got, err := core.ParseColumn(in)
		if err != nil {
			t.Errorf("ParseColumn(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseColumn(%q): got %s, want %s", in, got, want)
		}
	}
	for _, bad := range []string{"0", "5", "archive", ""} {
		if _, err := core.ParseColumn(bad); err == nil {
			t.Errorf("ParseColumn(%q): expected error", bad)
		}
	}
}

func TestParseDeadline(t *testing.T) {
	loc := time.UTC
	want := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)
	for _, in := range []string{"2024-05-01T14:30:00Z", "2024-05-01T14:30", "2024-05-01 14:30"} {
		got, err := core.ParseDeadline(in, loc)
		if err != nil {
			t.Errorf("ParseDeadline(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDeadline(%q): got %v, want %v", in, got, want)
		}
	}
	var verr *core.ValidationError
	if _, err := core.ParseDeadline("next tuesday", loc); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestCard_JSONFieldNames(t *testing.T) {
	card := core.Card{
		ID:          3,
		Title:       "t",
		Description: "d",
		CreatedDate: baseTime,
		Deadline:    baseTime,
		Column:      core.Testing,
	}
	data, err := json.Marshal(card)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, key := range []string{`"id":3`, `"createdDate"`, `"deadline"`, `"column":3`, `"editDates":[]`} {
		if !strings.Contains(s, key) {
			t.Errorf("missing %s in %s", key, s)
		}
	}
	for _, key := range []string{`"status"`, `"items"`, `"completedDate"`} {
		if strings.Contains(s, key) {
			t.Errorf("unexpected %s in %s", key, s)
		}
	}
}

func TestCommand_TypeDiscriminator(t *testing.T) {
	data, err := core.MarshalCommand(core.MoveCardCommand{CardID: 2, Column: core.Done})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"type":"MoveCard"`) {
		t.Errorf("missing discriminator in %s", data)
	}

	cmd, err := core.UnmarshalCommand(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	move, ok := cmd.(core.MoveCardCommand)
	if !ok || move.CardID != 2 || move.Column != core.Done {
		t.Errorf("got %#v", cmd)
	}
}

func TestUnmarshalCommand_UnknownTypeReturnsError(t *testing.T) {
	_, err := core.UnmarshalCommand([]byte(`{"type":"Archive"}`))
	if !errors.Is(err, core.ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestEvent_RoundTripKeepsPayload(t *testing.T) {
	done := baseTime
	event := core.Event{
		EventID:   7,
		BoardID:   core.NewBoardID(),
		Timestamp: baseTime,
		Payload: core.CardMovedPayload{
			CardID: 1, From: core.InProgress, To: core.Testing, CompletedDate: &done,
		},
	}
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got core.Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	moved, ok := got.Payload.(core.CardMovedPayload)
	if !ok {
		t.Fatalf("payload: got %T", got.Payload)
	}
	if moved.To != core.Testing || moved.CompletedDate == nil || !moved.CompletedDate.Equal(done) {
		t.Errorf("got %+v", moved)
	}
	if got.BoardID != event.BoardID || got.EventID != 7 {
		t.Errorf("envelope: got %d %s", got.EventID, got.BoardID)
	}
}

func TestRules_Validate(t *testing.T) {
	if err := core.DefaultRules().Validate(); err != nil {
		t.Errorf("default rules: %v", err)
	}
	r := core.ChecklistRules()
	r.MaxItems = 2
	if err := r.Validate(); err == nil {
		t.Error("expected error for max < min")
	}
	r = core.DefaultRules()
	r.Variant = "kanban"
	if err := r.Validate(); err == nil {
		t.Error("expected error for unknown variant")
	}
}
