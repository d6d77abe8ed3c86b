// ABOUTME: Tests for board recovery and the storage manager directory layout.
// ABOUTME: Creates boards through the manager, mutates them, and recovers them from disk.
package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/export"
	"github.com/2389-research/kanban/board/store"
)

func newManager(t *testing.T, backend store.Backend) *store.StorageManager {
	t.Helper()
	m, err := store.NewStorageManager(t.TempDir(), backend)
	if err != nil {
		t.Fatalf("NewStorageManager: %v", err)
	}
	return m
}

func TestRecoverBoard_RestoresSnapshotAndEventIDs(t *testing.T) {
	for _, backend := range []store.Backend{store.BackendFile, store.BackendSqlite} {
		t.Run(string(backend), func(t *testing.T) {
			m := newManager(t, backend)
			info, _, err := m.CreateBoard("Sprint", core.ChecklistRules())
			if err != nil {
				t.Fatalf("CreateBoard: %v", err)
			}

			rb, err := m.OpenBoard(info.BoardID)
			if err != nil {
				t.Fatalf("OpenBoard: %v", err)
			}
			handle := core.SpawnActor(info.BoardID, rb.Board, rb.LastEventID)
			cmds := []core.Command{
				core.CreateCardCommand{Title: "a", Description: "d", Deadline: baseTime, Items: []string{"1", "2", "3"}},
				core.ToggleItemCommand{CardID: 1, Index: 0},
				core.ToggleItemCommand{CardID: 1, Index: 1},
			}
			for _, cmd := range cmds {
				events, err := handle.SendCommand(cmd)
				if err != nil {
					t.Fatalf("%s: %v", cmd.CommandType(), err)
				}
				for i := range events {
					if err := rb.Store.Journal.Append(&events[i]); err != nil {
						t.Fatalf("Append: %v", err)
					}
				}
			}
			handle.Stop()
			_ = rb.Store.Close()

			again, err := m.OpenBoard(info.BoardID)
			if err != nil {
				t.Fatalf("recover: %v", err)
			}
			defer func() { _ = again.Store.Close() }()

			if again.LastEventID != 4 {
				t.Errorf("last event id: got %d, want 4", again.LastEventID)
			}
			card, ok := again.Board.Card(1)
			if !ok || card.Column != core.InProgress {
				t.Fatalf("recovered card: %+v", card)
			}
			if again.Board.NextID() != 2 {
				t.Errorf("next id: got %d, want 2", again.Board.NextID())
			}
			rows, err := again.Store.Index.ListCards(core.InProgress, "")
			if err != nil || len(rows) != 1 {
				t.Errorf("index rows: %d err %v", len(rows), err)
			}
		})
	}
}

func TestRecoverBoard_MalformedSnapshotFails(t *testing.T) {
	m := newManager(t, store.BackendFile)
	info, dir, err := m.CreateBoard("Broken", core.DefaultRules())
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, store.KVDir, store.KeyCards), []byte("[{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := m.OpenBoard(info.BoardID); err == nil {
		t.Fatal("expected error for malformed snapshot")
	}
	recovered, err := m.RecoverAllBoards()
	if err != nil {
		t.Fatalf("RecoverAllBoards: %v", err)
	}
	if len(recovered) != 0 {
		t.Errorf("broken board should be skipped, got %d", len(recovered))
	}
}

func TestStorageManager_ListAndFind(t *testing.T) {
	m := newManager(t, store.BackendFile)
	first, _, err := m.CreateBoard("Alpha", core.DefaultRules())
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, _, err := m.CreateBoard("Beta", core.ChecklistRules())
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(m.Home(), "boards", "not-a-ulid"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	infos, err := m.ListBoards()
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(infos) != 2 || infos[0].Title != "Alpha" || infos[1].Title != "Beta" {
		t.Fatalf("got %+v", infos)
	}

	got, err := m.FindBoard("beta")
	if err != nil || got.BoardID != second.BoardID {
		t.Errorf("by title: got %v err %v", got.BoardID, err)
	}
	got, err = m.FindBoard(first.BoardID.String())
	if err != nil || got.BoardID != first.BoardID {
		t.Errorf("by id: got %v err %v", got.BoardID, err)
	}
	if _, err := m.FindBoard("gamma"); err == nil {
		t.Error("expected error for unknown board")
	}
	if _, _, err := m.CreateBoard("  ", core.DefaultRules()); err == nil {
		t.Error("expected error for blank title")
	}
}

func TestWriteExports_WritesAllFormats(t *testing.T) {
	m := newManager(t, store.BackendFile)
	info, dir, err := m.CreateBoard("Docs", core.DefaultRules())
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	b := core.NewBoard(info.Rules, nil)
	if _, err := b.AddCard(core.NewCard{Title: "t", Description: "d", Deadline: baseTime}); err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	if err := store.WriteExports(dir, export.FromBoard(info, b, "", baseTime)); err != nil {
		t.Fatalf("WriteExports: %v", err)
	}
	for _, name := range []string{"board.md", "board.yaml", "board.html"} {
		if _, err := os.Stat(filepath.Join(dir, store.ExportsDir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}
