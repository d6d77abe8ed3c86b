// ABOUTME: Tests for the JSONL event journal: append, replay, and repair of truncated files.
// ABOUTME: Uses t.TempDir for isolation.
package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/store"
)

func testEvent(id uint64, boardID core.BoardInfo, payload core.EventPayload) *core.Event {
	return &core.Event{EventID: id, BoardID: boardID.BoardID, Timestamp: baseTime, Payload: payload}
}

func TestJournal_AppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	j, err := store.OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	info := core.BoardInfo{BoardID: core.NewBoardID()}
	card := sampleCards()[0]
	if err := j.Append(testEvent(1, info, core.CardCreatedPayload{Card: card})); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Append(testEvent(2, info, core.CardMovedPayload{CardID: 1, From: core.Backlog, To: core.InProgress})); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_ = j.Close()

	events, err := store.ReplayJournal(path)
	if err != nil {
		t.Fatalf("ReplayJournal: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events: got %d, want 2", len(events))
	}
	if _, ok := events[1].Payload.(core.CardMovedPayload); !ok {
		t.Errorf("second payload: got %T", events[1].Payload)
	}
	if events[0].BoardID != info.BoardID {
		t.Errorf("board id: got %s, want %s", events[0].BoardID, info.BoardID)
	}
}

func TestReplayJournal_MissingFileIsEmpty(t *testing.T) {
	events, err := store.ReplayJournal(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err != nil || len(events) != 0 {
		t.Errorf("got %d events err %v", len(events), err)
	}
}

func TestRepairJournal_DropsPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	j, err := store.OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	info := core.BoardInfo{BoardID: core.NewBoardID()}
	_ = j.Append(testEvent(1, info, core.BoardClearedPayload{}))
	_ = j.Close()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = f.WriteString(`{"event_id":2,"board_id":"`)
	_ = f.Close()

	if _, err := store.ReplayJournal(path); err == nil {
		t.Fatal("expected replay to fail on a partial line")
	}
	n, err := store.RepairJournal(path)
	if err != nil {
		t.Fatalf("RepairJournal: %v", err)
	}
	if n != 1 {
		t.Errorf("retained: got %d, want 1", n)
	}
	events, err := store.ReplayJournal(path)
	if err != nil || len(events) != 1 {
		t.Errorf("after repair: got %d events err %v", len(events), err)
	}
}
