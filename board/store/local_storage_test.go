// ABOUTME: Tests for the KV backends and the two-key LocalStorage codec.
// ABOUTME: Verifies round trips, empty defaults, and that malformed snapshots surface as errors.
package store_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/store"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleCards() []core.Card {
	done := baseTime.Add(time.Hour)
	return []core.Card{
		{
			ID: 1, Title: "a", Description: "first", CreatedDate: baseTime, Deadline: baseTime.Add(time.Hour),
			Column: core.Backlog, EditDates: []time.Time{},
		},
		{
			ID: 3, Title: "b", Description: "second", CreatedDate: baseTime, Deadline: baseTime,
			Column: core.Testing, EditDates: []time.Time{baseTime.Add(time.Minute)}, Status: "returned: nope",
			Items:         []core.ChecklistItem{{Text: "x", Completed: true}, {Text: "y"}, {Text: "z"}},
			CompletedDate: &done,
		},
	}
}

func backends(t *testing.T) map[string]store.KV {
	t.Helper()
	dir := t.TempDir()
	fkv, err := store.NewFileKV(filepath.Join(dir, "kv"))
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	idx, err := store.OpenSqlite(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("OpenSqlite: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return map[string]store.KV{
		"memory": store.NewMemoryKV(),
		"file":   fkv,
		"sqlite": idx,
	}
}

func TestKV_GetSetOverwrite(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.GetItem("cards"); err != nil || ok {
				t.Fatalf("missing key: got ok=%v err=%v", ok, err)
			}
			if err := kv.SetItem("cards", "one"); err != nil {
				t.Fatalf("SetItem: %v", err)
			}
			if err := kv.SetItem("cards", "two"); err != nil {
				t.Fatalf("SetItem: %v", err)
			}
			got, ok, err := kv.GetItem("cards")
			if err != nil || !ok || got != "two" {
				t.Errorf("got %q ok=%v err=%v, want %q", got, ok, err, "two")
			}
		})
	}
}

func TestFileKV_RejectsPathKeys(t *testing.T) {
	kv, err := store.NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	if err := kv.SetItem("../escape", "x"); err == nil {
		t.Error("expected error for key with path separator")
	}
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ls := store.NewLocalStorage(kv)
			want := sampleCards()
			if err := ls.Save(want, 4); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, nextID, err := ls.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if nextID != 4 {
				t.Errorf("next id: got %d, want 4", nextID)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("cards differ:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestLocalStorage_StoredKeys(t *testing.T) {
	kv := store.NewMemoryKV()
	ls := store.NewLocalStorage(kv)
	if err := ls.Save(sampleCards(), 4); err != nil {
		t.Fatalf("Save: %v", err)
	}
	next, _, _ := kv.GetItem(store.KeyNextCardID)
	if next != "4" {
		t.Errorf("nextCardId: got %q, want %q", next, "4")
	}
	cards, _, _ := kv.GetItem(store.KeyCards)
	if !strings.HasPrefix(cards, "[") || !strings.Contains(cards, `"editDates":[]`) {
		t.Errorf("cards payload: %s", cards)
	}
}

func TestLocalStorage_EmptyDefaults(t *testing.T) {
	got, nextID, err := store.NewLocalStorage(store.NewMemoryKV()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 || nextID != 1 {
		t.Errorf("got %d cards next id %d, want 0 and 1", len(got), nextID)
	}
}

func TestLocalStorage_MalformedPropagates(t *testing.T) {
	kv := store.NewMemoryKV()
	_ = kv.SetItem(store.KeyCards, "{not json")
	if _, _, err := store.NewLocalStorage(kv).Load(); err == nil {
		t.Error("expected parse error for malformed cards")
	}

	kv = store.NewMemoryKV()
	_ = kv.SetItem(store.KeyNextCardID, "seven")
	if _, _, err := store.NewLocalStorage(kv).Load(); err == nil {
		t.Error("expected parse error for malformed nextCardId")
	}
}

func TestLocalStorage_BoardPersistsEveryMutation(t *testing.T) {
	dir := t.TempDir()
	kv, err := store.NewFileKV(dir)
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	ls := store.NewLocalStorage(kv)
	b := core.NewBoard(core.DefaultRules(), ls)
	card, err := b.AddCard(core.NewCard{Title: "t", Description: "d", Deadline: baseTime})
	if err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	if _, err := b.MoveCard(card.ID, core.InProgress); err != nil {
		t.Fatalf("MoveCard: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, store.KeyCards)); err != nil {
		t.Fatalf("cards file: %v", err)
	}
	reloaded := core.NewBoard(core.DefaultRules(), nil)
	cards, nextID, err := ls.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reloaded.Restore(cards, nextID)
	got, ok := reloaded.Card(card.ID)
	if !ok || got.Column != core.InProgress {
		t.Errorf("reloaded card: %+v", got)
	}
	if reloaded.NextID() != 2 {
		t.Errorf("next id: got %d, want 2", reloaded.NextID())
	}
}
