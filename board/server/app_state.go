// ABOUTME: Shared application state: every open board with its actor, storage, and persister.
// ABOUTME: Used by the HTTP server and the CLI to create, look up, and shut down boards.
package server

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/store"
)

// ErrBoardNotFound indicates no open board has the requested id.
var ErrBoardNotFound = errors.New("board not found")

// BoardHandle is one open board.
type BoardHandle struct {
	Info  core.BoardInfo
	Actor *core.BoardActorHandle
	Store *store.BoardStore

	stopPersister chan struct{}
	persisterDone chan struct{}
}

// Dir returns the board's storage directory.
func (h *BoardHandle) Dir() string {
	return h.Store.Dir
}

func (h *BoardHandle) close() error {
	close(h.stopPersister)
	<-h.persisterDone
	h.Actor.Stop()
	return h.Store.Close()
}

// AppState holds the shared state accessible by all HTTP handlers.
type AppState struct {
	mu      sync.RWMutex
	boards  map[ulid.ULID]*BoardHandle
	Manager *store.StorageManager
	Config  Config
	opts    []core.Option
}

// NewAppState creates an AppState over the configured home directory.
// opts are applied to every board it opens.
func NewAppState(cfg Config, opts ...core.Option) (*AppState, error) {
	manager, err := store.NewStorageManager(cfg.Home, cfg.Backend)
	if err != nil {
		return nil, err
	}
	return &AppState{
		boards:  make(map[ulid.ULID]*BoardHandle),
		Manager: manager,
		Config:  cfg,
		opts:    opts,
	}, nil
}

func (s *AppState) open(rb *store.RecoveredBoard) *BoardHandle {
	actor := core.SpawnActor(rb.Info.BoardID, rb.Board, rb.LastEventID)
	stop, done := SpawnEventPersister(actor, rb.Store)
	return &BoardHandle{
		Info:          rb.Info,
		Actor:         actor,
		Store:         rb.Store,
		stopPersister: stop,
		persisterDone: done,
	}
}

// LoadAll recovers every board on disk and starts its actor. Returns the number loaded.
func (s *AppState) LoadAll() (int, error) {
	recovered, err := s.Manager.RecoverAllBoards(s.opts...)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rb := range recovered {
		if _, exists := s.boards[rb.Info.BoardID]; exists {
			_ = rb.Store.Close()
			continue
		}
		s.boards[rb.Info.BoardID] = s.open(rb)
	}
	return len(recovered), nil
}

// CreateBoard makes a new board on disk and opens it. A zero Rules value uses the configured defaults.
func (s *AppState) CreateBoard(title string, rules *core.Rules) (*BoardHandle, error) {
	r := s.Config.Rules
	if rules != nil {
		r = *rules
	}
	info, _, err := s.Manager.CreateBoard(title, r)
	if err != nil {
		return nil, err
	}
	rb, err := s.Manager.OpenBoard(info.BoardID, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("open new board: %w", err)
	}
	h := s.open(rb)

	s.mu.Lock()
	s.boards[info.BoardID] = h
	s.mu.Unlock()
	return h, nil
}

// Board returns the open board with id.
func (s *AppState) Board(id ulid.ULID) (*BoardHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.boards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}
	return h, nil
}

// OpenBoard returns the board with id, recovering it from disk if it is not open yet.
func (s *AppState) OpenBoard(id ulid.ULID) (*BoardHandle, error) {
	if h, err := s.Board(id); err == nil {
		return h, nil
	}
	rb, err := s.Manager.OpenBoard(id, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBoardNotFound, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.boards[id]; ok {
		_ = rb.Store.Close()
		return h, nil
	}
	h := s.open(rb)
	s.boards[id] = h
	return h, nil
}

// Boards returns the metadata of every open board, oldest first.
func (s *AppState) Boards() []core.BoardInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]core.BoardInfo, 0, len(s.boards))
	for _, h := range s.boards {
		infos = append(infos, h.Info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].BoardID.Compare(infos[j].BoardID) < 0
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Shutdown flushes every persister, stops the actors, and closes storage.
func (s *AppState) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for id, h := range s.boards {
		if err := h.close(); err != nil {
			log.Printf("component=board.server action=close_failed board_id=%s err=%v", id, err)
			errs = append(errs, err)
		}
		delete(s.boards, id)
	}
	return errors.Join(errs...)
}
