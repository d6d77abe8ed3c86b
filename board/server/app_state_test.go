// ABOUTME: Tests for AppState board lifecycle and the background event persister.
// ABOUTME: Commands sent through an actor must reach the journal and index and survive a reload.
package server

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/store"
)

func newTestState(t *testing.T, backend store.Backend) *AppState {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	cfg.Backend = backend
	cfg.Rules = core.ChecklistRules()
	state, err := NewAppState(cfg)
	if err != nil {
		t.Fatalf("NewAppState: %v", err)
	}
	return state
}

func sendCreate(t *testing.T, h *BoardHandle, title string) {
	t.Helper()
	_, err := h.Actor.SendCommand(core.CreateCardCommand{
		Title:       title,
		Description: "d",
		Deadline:    time.Now().Add(time.Hour).UTC(),
		Items:       []string{"a", "b", "c"},
	})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
}

func TestAppState_CreateBoardUsesConfiguredRules(t *testing.T) {
	state := newTestState(t, store.BackendFile)
	defer state.Shutdown()

	h, err := state.CreateBoard("Sprint", nil)
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if h.Info.Rules.Variant != core.VariantChecklist {
		t.Errorf("variant: got %q, want checklist", h.Info.Rules.Variant)
	}
	h.Actor.ReadBoard(func(b *core.Board) {
		if b.Rules().Variant != core.VariantChecklist {
			t.Errorf("board variant: got %q", b.Rules().Variant)
		}
	})

	got, err := state.Board(h.Info.BoardID)
	if err != nil || got != h {
		t.Errorf("Board: got %v, %v", got, err)
	}
	if _, err := state.Board(core.NewBoardID()); !errors.Is(err, ErrBoardNotFound) {
		t.Errorf("unknown board: expected ErrBoardNotFound, got %v", err)
	}
	if _, err := state.CreateBoard("   ", nil); err == nil {
		t.Error("blank title: expected error")
	}
}

func TestAppState_PersisterWritesJournalAndIndex(t *testing.T) {
	for _, backend := range []store.Backend{store.BackendFile, store.BackendSqlite} {
		t.Run(string(backend), func(t *testing.T) {
			state := newTestState(t, backend)
			h, err := state.CreateBoard("Sprint", nil)
			if err != nil {
				t.Fatalf("CreateBoard: %v", err)
			}
			dir := h.Dir()
			sendCreate(t, h, "one")
			sendCreate(t, h, "two")
			if _, err := h.Actor.SendCommand(core.ToggleItemCommand{CardID: 1, Index: 0}); err != nil {
				t.Fatalf("toggle: %v", err)
			}

			if err := state.Shutdown(); err != nil {
				t.Fatalf("Shutdown: %v", err)
			}

			events, err := store.ReplayJournal(filepath.Join(dir, store.JournalFile))
			if err != nil {
				t.Fatalf("ReplayJournal: %v", err)
			}
			if len(events) != 3 {
				t.Fatalf("journal: got %d events, want 3", len(events))
			}
			for i, ev := range events {
				if ev.EventID != uint64(i+1) {
					t.Errorf("event %d: id %d", i, ev.EventID)
				}
			}

			reloaded, err := NewAppState(state.Config)
			if err != nil {
				t.Fatalf("NewAppState: %v", err)
			}
			defer reloaded.Shutdown()
			n, err := reloaded.LoadAll()
			if err != nil || n != 1 {
				t.Fatalf("LoadAll: got %d, %v", n, err)
			}
			rh, err := reloaded.Board(h.Info.BoardID)
			if err != nil {
				t.Fatalf("Board: %v", err)
			}
			rows, err := rh.Store.Index.ListCards(0, "")
			if err != nil {
				t.Fatalf("ListCards: %v", err)
			}
			if len(rows) != 2 || rows[0].ItemsDone != 1 {
				t.Errorf("index rows: got %+v", rows)
			}

			evs, err := rh.Actor.SendCommand(core.DeleteCardCommand{CardID: 2})
			if err != nil {
				t.Fatalf("delete: %v", err)
			}
			if len(evs) != 1 || evs[0].EventID != 4 {
				t.Errorf("event ids after reload: got %+v", evs)
			}
		})
	}
}

func TestAppState_OpenBoardRecoversFromDisk(t *testing.T) {
	state := newTestState(t, store.BackendFile)
	defer state.Shutdown()

	info, _, err := state.Manager.CreateBoard("Later", core.DefaultRules())
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if _, err := state.Board(info.BoardID); err == nil {
		t.Fatal("board should not be open yet")
	}
	h, err := state.OpenBoard(info.BoardID)
	if err != nil {
		t.Fatalf("OpenBoard: %v", err)
	}
	again, err := state.OpenBoard(info.BoardID)
	if err != nil || again != h {
		t.Errorf("second OpenBoard: got %p %v, want %p", again, err, h)
	}
	if got := state.Boards(); len(got) != 1 || got[0].Title != "Later" {
		t.Errorf("Boards: got %+v", got)
	}
}
