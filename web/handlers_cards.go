// ABOUTME: Card-level HTTP handlers: create, read, edit, delete, move, move back, and checklist toggle.
// ABOUTME: Unknown cards are silent no-ops for delete and transitions, and 404 for reads and edits.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/store"
)

// columnRef accepts a column as a number (1..4) or any name ParseColumn understands.
type columnRef core.Column

func (c *columnRef) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		col := core.Column(n)
		if !col.Valid() {
			return fmt.Errorf("unknown column: %d", n)
		}
		*c = columnRef(col)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("column must be a number or a name")
	}
	col, err := core.ParseColumn(s)
	if err != nil {
		return err
	}
	*c = columnRef(col)
	return nil
}

type createCardRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Deadline    string   `json:"deadline"`
	Items       []string `json:"items,omitempty"`
}

type editCardRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Deadline    *string   `json:"deadline,omitempty"`
	Items       *[]string `json:"items,omitempty"`
}

type moveRequest struct {
	Column *columnRef `json:"column"`
}

type backRequest struct {
	Reason string `json:"reason"`
}

type toggleRequest struct {
	Index *int `json:"index"`
}

func parseDeadline(s string) (time.Time, error) {
	t, err := core.ParseDeadline(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func cardID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "cardID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		badRequest(w, "card_id", fmt.Sprintf("invalid card id %q", raw))
		return 0, false
	}
	return id, true
}

// cardIndexResult is the response of the indexed card query.
type cardIndexResult struct {
	Cards []store.CardRow `json:"cards"`
	// Counts maps column labels to the number of indexed cards.
	Counts      map[string]int `json:"counts"`
	LastEventID uint64         `json:"last_event_id"`
}

// handleCardIndex lists cards from the board's SQLite index, optionally
// narrowed by ?column= (number or name) and ?q= (title substring). The index
// trails the board by whatever events the persister has not yet applied;
// last_event_id says how far it has caught up.
func (s *Server) handleCardIndex(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	var col core.Column
	if raw := r.URL.Query().Get("column"); raw != "" {
		parsed, err := core.ParseColumn(raw)
		if err != nil {
			badRequest(w, "column", err.Error())
			return
		}
		col = parsed
	}

	rows, err := h.Store.Index.ListCards(col, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	occ, err := h.Store.Index.CountByColumn()
	if err != nil {
		writeError(w, r, err)
		return
	}
	last, _, err := h.Store.Index.GetLastEventID()
	if err != nil {
		writeError(w, r, err)
		return
	}

	res := cardIndexResult{Cards: rows, Counts: make(map[string]int, len(core.AllColumns)), LastEventID: last}
	if res.Cards == nil {
		res.Cards = []store.CardRow{}
	}
	for _, c := range core.AllColumns {
		res.Counts[c.Label()] = occ.Count(c)
	}
	writeJSON(w, http.StatusOK, res)
}

// handleCardCreate adds a card to the backlog.
func (s *Server) handleCardCreate(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	var req createCardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cmd := core.CreateCardCommand{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    deadline,
		Items:       req.Items,
	}

	events, err := h.Actor.SendCommand(cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res := mutationResult{Events: events}
	for _, ev := range events {
		if created, ok := ev.Payload.(core.CardCreatedPayload); ok {
			card := created.Card
			res.Card = &card
		}
	}
	h.Actor.ReadBoard(func(b *core.Board) { res.BacklogBlocked = b.BacklogBlocked() })
	if res.Card != nil {
		w.Header().Set("Location", fmt.Sprintf("/api/boards/%s/cards/%d", h.Info.BoardID, res.Card.ID))
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleCardGet returns one card; it doubles as the edit draft for clients.
func (s *Server) handleCardGet(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	id, ok := cardID(w, r)
	if !ok {
		return
	}
	var (
		card  core.Card
		found bool
	)
	h.Actor.ReadBoard(func(b *core.Board) { card, found = b.Card(id) })
	if !found {
		writeError(w, r, &core.NotFoundError{ID: id})
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// handleCardEdit confirms an edit. Omitted fields are left unchanged.
func (s *Server) handleCardEdit(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	id, ok := cardID(w, r)
	if !ok {
		return
	}
	var req editCardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cmd := core.EditCardCommand{
		CardID:      id,
		Title:       req.Title,
		Description: req.Description,
		Items:       req.Items,
	}
	if req.Deadline != nil {
		deadline, err := parseDeadline(*req.Deadline)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cmd.Deadline = &deadline
	}
	s.send(w, r, h, cmd, id, http.StatusOK)
}

// handleCardDelete removes a card; deleting an unknown card succeeds with no events.
func (s *Server) handleCardDelete(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	id, ok := cardID(w, r)
	if !ok {
		return
	}
	s.send(w, r, h, core.DeleteCardCommand{CardID: id}, 0, http.StatusOK)
}

// handleCardMove moves a card forward to the requested column.
func (s *Server) handleCardMove(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	id, ok := cardID(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Column == nil {
		badRequest(w, "column", "column is required")
		return
	}
	s.send(w, r, h, core.MoveCardCommand{CardID: id, Column: core.Column(*req.Column)}, id, http.StatusOK)
}

// handleCardBack returns a card from Testing. An empty reason is refused with 422.
func (s *Server) handleCardBack(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	id, ok := cardID(w, r)
	if !ok {
		return
	}
	var req backRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.send(w, r, h, core.MoveCardBackCommand{CardID: id, Reason: req.Reason}, id, http.StatusOK)
}

// handleCardToggle flips one checklist item and applies any resulting move.
func (s *Server) handleCardToggle(w http.ResponseWriter, r *http.Request) {
	h, ok := s.board(w, r)
	if !ok {
		return
	}
	id, ok := cardID(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Index == nil {
		badRequest(w, "index", "index is required")
		return
	}
	s.send(w, r, h, core.ToggleItemCommand{CardID: id, Index: *req.Index}, id, http.StatusOK)
}
