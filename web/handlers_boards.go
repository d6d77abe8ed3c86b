// ABOUTME: Board-level HTTP handlers: list, create, filtered column views, raw commands, clear, exports, and events.
// ABOUTME: Column views carry the Backlog blocked flag so clients never recompute policy state.
package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/export"
	"github.com/2389-research/kanban/board/server"
	"github.com/2389-research/kanban/board/store"
)

const maxBodyBytes = 1 << 20

// boardView is the read surface for one board.
type boardView struct {
	Board          core.BoardInfo    `json:"board"`
	Query          string            `json:"query,omitempty"`
	Columns        []core.ColumnView `json:"columns"`
	BacklogBlocked bool              `json:"backlog_blocked"`
	NextID         int               `json:"next_id"`
}

// mutationResult is returned by every endpoint that sends a command.
type mutationResult struct {
	Events         []core.Event `json:"events"`
	Card           *core.Card   `json:"card,omitempty"`
	BacklogBlocked bool         `json:"backlog_blocked"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		badRequest(w, "body", fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

// board resolves {boardID}, opening the board from disk if needed.
func (s *Server) board(w http.ResponseWriter, r *http.Request) (*server.BoardHandle, bool) {
	raw := chi.URLParam(r, "boardID")
	id, err := core.ParseBoardID(raw)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %s", server.ErrBoardNotFound, raw))
		return nil, false
	}
	h, err := s.state.OpenBoard(id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return h, true
}

// send runs cmd on the board's actor and reports the result. cardID > 0
// includes that card's current state in the response.
func (s *Server) send(w http.ResponseWriter, r *http.Request, h *server.BoardHandle, cmd core.Command, cardID int, status int) {
	events, err := h.Actor.SendCommand(cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []core.Event{}
	}
	res := mutationResult{Events: events}
	h.Actor.ReadBoard(func(b *core.Board) {
		res.BacklogBlocked = b.BacklogBlocked()
		if cardID > 0 {
			if card, ok := b.Card(cardID); ok {
				res.Card = &card
			}
		}
	})
	writeJSON(w, status, res)
}

// handleBoardList returns the metadata of every board on disk.
func (s *Server) handleBoardList(w http.ResponseWriter, r *http.Request) {
	boards, err := s.state.Manager.ListBoards()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if boards == nil {
		boards = []core.BoardInfo{}
	}
	writeJSON(w, http.StatusOK, boards)
}

type createBoardRequest struct {
	Title   string `json:"title"`
	Variant string `json:"variant,omitempty"`
}

// handleBoardCreate creates a board with the configured rules, optionally
// switching the transition variant.
func (s *Server) handleBoardCreate(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var rules *core.Rules
	if req.Variant != "" {
		variant, err := core.ParseVariant(req.Variant)
		if err != nil {
			badRequest(w, "variant", err.Error())
			return
		}
		custom := s.state.Config.Rules
		if custom.Variant != variant {
			custom.Variant = variant
			custom.DeleteScope = server.DefaultDeleteScope(variant)
		}
		rules = &custom
	}

	h, err := s.state.CreateBoard(req.Title, rules)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/boards/"+h.Info.BoardID.String())
	writeJSON(w, http.StatusCreated, h.Info)
}

// handleBoardView returns the four column views filtered by ?q=.
func (s *Server) handleBoardView(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	view := boardView{Board: h.Info, Query: query}
	h.Actor.ReadBoard(func(b *core.Board) {
		view.Columns = b.Columns(query)
		view.BacklogBlocked = b.BacklogBlocked()
		view.NextID = b.NextID()
	})
	writeJSON(w, http.StatusOK, view)
}

// handleCommand accepts a raw tagged command, e.g. {"type":"MoveCard","card_id":1,"column":2}.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		badRequest(w, "body", err.Error())
		return
	}
	cmd, err := core.UnmarshalCommand(data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.send(w, r, h, cmd, 0, http.StatusOK)
}

// handleClear removes every card and resets id allocation.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	s.send(w, r, h, core.ClearBoardCommand{}, 0, http.StatusOK)
}

func (s *Server) snapshot(h *server.BoardHandle, query string) export.Snapshot {
	var snap export.Snapshot
	h.Actor.ReadBoard(func(b *core.Board) {
		snap = export.FromBoard(h.Info, b, query, s.now())
	})
	return snap
}

// handleExport renders the board as markdown, yaml, or html.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	snap := s.snapshot(h, strings.TrimSpace(r.URL.Query().Get("q")))

	var (
		body        string
		contentType string
		err         error
	)
	switch chi.URLParam(r, "format") {
	case "md", "markdown":
		body, contentType = export.ExportMarkdown(snap), "text/markdown; charset=utf-8"
	case "yaml", "yml":
		body, err = export.ExportYAML(snap)
		contentType = "application/yaml"
	case "html":
		body, err = export.ExportHTML(snap)
		contentType = "text/html; charset=utf-8"
	default:
		badRequest(w, "format", "format must be md, yaml, or html")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// handleWriteExports writes every export format into the board's exports directory.
func (s *Server) handleWriteExports(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	if err := store.WriteExports(h.Dir(), s.snapshot(h, "")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"dir": filepath.Join(h.Dir(), store.ExportsDir)})
}

// handleBoardEvents streams the board's events as server-sent events until
// the client disconnects.
func (s *Server) handleBoardEvents(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, fmt.Errorf("streaming unsupported"))
		return
	}

	ch := h.Actor.Subscribe()
	defer h.Actor.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.EventID, event.Payload.EventPayloadType(), data)
			flusher.Flush()
		}
	}
}
