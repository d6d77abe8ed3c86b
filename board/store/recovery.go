// ABOUTME: Opens a board directory and reconstructs its state after a restart or crash.
// ABOUTME: Loads the two-key snapshot, repairs the journal, and rebuilds a stale SQLite index.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/2389-research/kanban/board/core"
)

// File names inside a board directory.
const (
	InfoFile    = "board.json"
	KVDir       = "kv"
	JournalFile = "events.jsonl"
	IndexFile   = "index.db"
	ExportsDir  = "exports"
)

// BoardStore holds the open storage handles for one board directory.
type BoardStore struct {
	Dir     string
	Storage *LocalStorage
	Journal *Journal
	Index   *SqliteIndex
}

// OpenBoardStore opens the journal, the index, and the snapshot backend.
// With BackendSqlite the snapshot keys live in the index database.
func OpenBoardStore(dir string, backend Backend) (*BoardStore, error) {
	index, err := OpenSqlite(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("open sqlite index: %w", err)
	}

	var kv KV = index
	if backend != BackendSqlite {
		fkv, err := NewFileKV(filepath.Join(dir, KVDir))
		if err != nil {
			_ = index.Close()
			return nil, err
		}
		kv = fkv
	}

	journal, err := OpenJournal(filepath.Join(dir, JournalFile))
	if err != nil {
		_ = index.Close()
		return nil, err
	}

	return &BoardStore{
		Dir:     dir,
		Storage: NewLocalStorage(kv),
		Journal: journal,
		Index:   index,
	}, nil
}

// Close releases the journal and index handles.
func (s *BoardStore) Close() error {
	return errors.Join(s.Journal.Close(), s.Index.Close())
}

// ReadInfo loads board.json from dir.
func ReadInfo(dir string) (core.BoardInfo, error) {
	data, err := os.ReadFile(filepath.Join(dir, InfoFile))
	if err != nil {
		return core.BoardInfo{}, fmt.Errorf("read board info: %w", err)
	}
	var info core.BoardInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return core.BoardInfo{}, fmt.Errorf("parse board info: %w", err)
	}
	return info, nil
}

// WriteInfo atomically replaces board.json in dir.
func WriteInfo(dir string, info core.BoardInfo) error {
	return writeJSONAtomic(filepath.Join(dir, InfoFile), info)
}

// RecoveredBoard is a board restored from disk together with its open storage.
type RecoveredBoard struct {
	Info        core.BoardInfo
	Board       *core.Board
	Store       *BoardStore
	LastEventID uint64
}

// RecoverBoard restores a board from its directory.
//
// Recovery sequence:
//  1. Read board.json for identity and rules
//  2. Load the cards/nextCardId snapshot; malformed data is an error
//  3. Repair and replay the journal to find the last event id
//  4. Rebuild the SQLite card index if it is behind the journal
func RecoverBoard(dir string, backend Backend, opts ...core.Option) (*RecoveredBoard, error) {
	info, err := ReadInfo(dir)
	if err != nil {
		return nil, err
	}

	journalPath := filepath.Join(dir, JournalFile)
	repaired, err := RepairJournal(journalPath)
	if err != nil {
		return nil, fmt.Errorf("repair journal: %w", err)
	}

	bs, err := OpenBoardStore(dir, backend)
	if err != nil {
		return nil, err
	}

	cards, nextID, err := bs.Storage.Load()
	if err != nil {
		_ = bs.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	board := core.NewBoard(info.Rules, bs.Storage, opts...)
	board.Restore(cards, nextID)

	events, err := ReplayJournal(journalPath)
	if err != nil {
		_ = bs.Close()
		return nil, fmt.Errorf("replay journal: %w", err)
	}
	var lastEventID uint64
	if n := len(events); n > 0 {
		lastEventID = events[n-1].EventID
	}
	log.Printf("component=board.store action=recover board_id=%s cards=%d journal_events=%d last_event_id=%d",
		info.BoardID, len(cards), repaired, lastEventID)

	indexed, found, err := bs.Index.GetLastEventID()
	if err != nil {
		_ = bs.Close()
		return nil, fmt.Errorf("get index last_event_id: %w", err)
	}
	if !found || indexed != lastEventID {
		log.Printf("component=board.store action=rebuild_index board_id=%s indexed=%d expected=%d",
			info.BoardID, indexed, lastEventID)
		if err := bs.Index.RebuildFromCards(board.Cards(), lastEventID); err != nil {
			_ = bs.Close()
			return nil, fmt.Errorf("rebuild index: %w", err)
		}
	}

	return &RecoveredBoard{
		Info:        info,
		Board:       board,
		Store:       bs,
		LastEventID: lastEventID,
	}, nil
}
