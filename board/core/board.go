// ABOUTME: Board is the card store: the single owner of card state, id allocation, and persistence.
// ABOUTME: Every mutation validates, applies atomically through the transition policy, then saves a full snapshot.
package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Persister receives a full snapshot after every mutation.
type Persister interface {
	Save(cards []Card, nextID int) error
}

// Option configures a Board.
type Option func(*Board)

// WithClock overrides the time source used for stamps and deadline grading.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// Board owns an ordered card collection. It is not safe for concurrent use;
// share it through a BoardActorHandle.
type Board struct {
	rules     Rules
	policy    TransitionPolicy
	audit     AuditRecorder
	cards     *OrderedMap[int, Card]
	nextID    int
	persister Persister
	now       func() time.Time
}

// NewBoard creates an empty board. A nil persister keeps the board in memory.
func NewBoard(rules Rules, persister Persister, opts ...Option) *Board {
	b := &Board{
		rules:     rules,
		policy:    NewPolicy(rules),
		audit:     NewAuditRecorder(rules),
		cards:     NewOrderedMap[int, Card](),
		nextID:    1,
		persister: persister,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Restore replaces the collection with a loaded snapshot. The next id is
// raised past the highest stored id so ids are never reused.
func (b *Board) Restore(cards []Card, nextID int) {
	b.cards.Clear()
	maxID := 0
	for _, c := range cards {
		b.cards.Set(c.ID, c.Clone())
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	if nextID <= maxID {
		nextID = maxID + 1
	}
	if nextID < 1 {
		nextID = 1
	}
	b.nextID = nextID
}

// Rules returns the board configuration.
func (b *Board) Rules() Rules { return b.rules }

// Policy returns the active transition policy.
func (b *Board) Policy() TransitionPolicy { return b.policy }

// NextID returns the id the next card will receive.
func (b *Board) NextID() int { return b.nextID }

// Len returns the number of cards.
func (b *Board) Len() int { return b.cards.Len() }

// Card returns a copy of the card, suitable as an edit draft.
func (b *Board) Card(id int) (Card, bool) {
	c, ok := b.cards.Get(id)
	if !ok {
		return Card{}, false
	}
	return c.Clone(), true
}

// Cards returns copies of every card in id order.
func (b *Board) Cards() []Card {
	out := make([]Card, 0, b.cards.Len())
	b.cards.Range(func(_ int, c Card) bool {
		out = append(out, c.Clone())
		return true
	})
	return out
}

// Occupancy counts cards per column.
func (b *Board) Occupancy() Occupancy {
	occ := make(Occupancy, len(AllColumns))
	b.cards.Range(func(_ int, c Card) bool {
		occ[c.Column]++
		return true
	})
	return occ
}

// BacklogBlocked reports whether the backlog accepts no new work.
func (b *Board) BacklogBlocked() bool {
	return b.policy.BacklogBlocked(b.Occupancy())
}

// Column returns the cards in col whose title contains query, ignoring case.
func (b *Board) Column(col Column, query string) []Card {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []Card
	b.cards.Range(func(_ int, c Card) bool {
		if c.Column == col && (query == "" || strings.Contains(strings.ToLower(c.Title), query)) {
			out = append(out, c.Clone())
		}
		return true
	})
	return out
}

// ColumnView is one filtered column of the board.
type ColumnView struct {
	Column Column `json:"column"`
	Name   string `json:"name"`
	Label  string `json:"label"`
	// Limit is the column's ceiling under the active policy, 0 when unbounded.
	Limit int    `json:"limit,omitempty"`
	Cards []Card `json:"cards"`
}

// Columns returns all four column views filtered by query.
func (b *Board) Columns(query string) []ColumnView {
	views := make([]ColumnView, 0, len(AllColumns))
	for _, col := range AllColumns {
		cards := b.Column(col, query)
		if cards == nil {
			cards = []Card{}
		}
		views = append(views, ColumnView{
			Column: col,
			Name:   col.String(),
			Label:  col.Label(),
			Limit:  b.limitFor(col),
			Cards:  cards,
		})
	}
	return views
}

func (b *Board) limitFor(col Column) int {
	if b.rules.Variant != VariantChecklist {
		return 0
	}
	switch col {
	case Backlog:
		return b.rules.BacklogLimit
	case InProgress:
		return b.rules.InProgressLimit
	}
	return 0
}

// AddCard validates the fields, allocates the next id, and places the card in the backlog.
func (b *Board) AddCard(in NewCard) (Card, error) {
	in, err := validateNewCard(in, b.rules)
	if err != nil {
		return Card{}, err
	}
	if err := b.policy.CheckCreate(b.Occupancy()); err != nil {
		return Card{}, err
	}

	card := Card{
		ID:          b.nextID,
		Title:       in.Title,
		Description: in.Description,
		CreatedDate: b.now(),
		Deadline:    in.Deadline,
		Column:      Backlog,
		EditDates:   []time.Time{},
	}
	for _, text := range in.Items {
		card.Items = append(card.Items, ChecklistItem{Text: text})
	}
	b.nextID++
	b.cards.Set(card.ID, card)
	return card.Clone(), b.persist()
}

// EditCard applies a confirmed patch and records it in the card's edit trail.
// Replacing the checklist re-runs the policy, so an edit can move the card
// just like a toggle; if that move is refused the whole edit is.
func (b *Board) EditCard(id int, patch CardPatch) (Card, error) {
	card, _, err := b.editCard(id, patch)
	return card, err
}

func (b *Board) editCard(id int, patch CardPatch) (Card, Transition, error) {
	card, ok := b.cards.Get(id)
	if !ok {
		return Card{}, Transition{}, &NotFoundError{ID: id}
	}
	patch, err := validatePatch(patch, b.rules)
	if err != nil {
		return Card{}, Transition{}, err
	}

	card = card.Clone()
	if patch.Title != nil {
		card.Title = *patch.Title
	}
	if patch.Description != nil {
		card.Description = *patch.Description
	}
	if patch.Deadline != nil {
		card.Deadline = *patch.Deadline
	}
	if patch.Items != nil {
		items := make([]ChecklistItem, len(*patch.Items))
		for i, text := range *patch.Items {
			items[i] = ChecklistItem{Text: text}
			if i < len(card.Items) {
				items[i].Completed = card.Items[i].Completed
			}
		}
		card.Items = items
	}
	now := b.now()
	t := stay(card)
	if patch.Items != nil {
		t, err = b.policy.Reevaluate(card, b.Occupancy(), now)
		if err != nil {
			return Card{}, Transition{}, err
		}
		applyTransition(&card, t, now)
	}
	b.audit.RecordEdit(&card, now)
	b.cards.Set(id, card)
	return card.Clone(), t, b.persist()
}

// DeleteCard removes a card. Unknown ids are a no-op.
func (b *Board) DeleteCard(id int) error {
	_, err := b.deleteCard(id)
	return err
}

func (b *Board) deleteCard(id int) (bool, error) {
	card, ok := b.cards.Get(id)
	if !ok {
		return false, nil
	}
	if b.rules.DeleteScope == DeleteBacklogOnly && card.Column != Backlog {
		return false, ErrDeleteRestricted
	}
	b.cards.Delete(id)
	return true, b.persist()
}

// ClearAll removes every card and resets id allocation to 1.
func (b *Board) ClearAll() error {
	b.cards.Clear()
	b.nextID = 1
	return b.persist()
}

// MoveCard moves a card forward to target if the policy allows it.
func (b *Board) MoveCard(id int, target Column) (Card, error) {
	card, _, err := b.moveCard(id, target)
	return card, err
}

func (b *Board) moveCard(id int, target Column) (Card, Transition, error) {
	card, ok := b.cards.Get(id)
	if !ok {
		return Card{}, Transition{}, &NotFoundError{ID: id}
	}
	now := b.now()
	t, err := b.policy.Advance(card, target, b.Occupancy(), now)
	if err != nil {
		return Card{}, Transition{}, err
	}
	card = card.Clone()
	applyTransition(&card, t, now)
	b.cards.Set(id, card)
	return card.Clone(), t, b.persist()
}

// MoveCardBack returns a card from Testing to InProgress. An empty reason
// leaves the board untouched and returns ErrMissingReason.
func (b *Board) MoveCardBack(id int, reason string) (Card, error) {
	card, _, err := b.moveCardBack(id, reason)
	return card, err
}

func (b *Board) moveCardBack(id int, reason string) (Card, Transition, error) {
	card, ok := b.cards.Get(id)
	if !ok {
		return Card{}, Transition{}, &NotFoundError{ID: id}
	}
	t, err := b.policy.Return(card, reason, b.Occupancy())
	if err != nil {
		return Card{}, Transition{}, err
	}
	card = card.Clone()
	applyTransition(&card, t, b.now())
	b.cards.Set(id, card)
	return card.Clone(), t, b.persist()
}

// ToggleItem flips one checklist item and applies any move the policy derives
// from the new completion ratio. A rejected move leaves the card unchanged.
func (b *Board) ToggleItem(id, index int) (Card, error) {
	card, _, err := b.toggleItem(id, index)
	return card, err
}

func (b *Board) toggleItem(id, index int) (Card, Transition, error) {
	card, ok := b.cards.Get(id)
	if !ok {
		return Card{}, Transition{}, &NotFoundError{ID: id}
	}
	if b.rules.Variant == VariantChecklist && card.Column != Backlog && card.Column != InProgress {
		return Card{}, Transition{}, ErrChecklistLocked
	}
	if index < 0 || index >= len(card.Items) {
		return Card{}, Transition{}, &ValidationError{
			Field:  "index",
			Reason: fmt.Sprintf("item %d out of range (card has %d)", index, len(card.Items)),
		}
	}

	draft := card.Clone()
	draft.Items[index].Completed = !draft.Items[index].Completed
	now := b.now()
	t, err := b.policy.Reevaluate(draft, b.Occupancy(), now)
	if err != nil {
		return Card{}, Transition{}, err
	}
	applyTransition(&draft, t, now)
	b.audit.RecordToggle(&draft, now)
	b.cards.Set(id, draft)
	return draft.Clone(), t, b.persist()
}

func applyTransition(card *Card, t Transition, now time.Time) {
	card.Column = t.To
	if t.SetStatus {
		card.Status = t.Status
	}
	if t.Complete && card.CompletedDate == nil {
		stamp := now
		card.CompletedDate = &stamp
	}
}

func (b *Board) persist() error {
	if b.persister == nil {
		return nil
	}
	if err := b.persister.Save(b.Cards(), b.nextID); err != nil {
		return fmt.Errorf("persist board: %w", err)
	}
	return nil
}

// Execute applies a command and returns the resulting event payloads. Unknown
// ids on delete, move, move-back, and toggle are silent no-ops; an unknown id
// on edit is reported. Payloads are returned alongside a persistence error
// because the in-memory mutation has already happened.
func (b *Board) Execute(cmd Command) ([]EventPayload, error) {
	switch c := cmd.(type) {
	case CreateCardCommand:
		card, err := b.AddCard(NewCard(c))
		if card.ID == 0 {
			return nil, err
		}
		return []EventPayload{CardCreatedPayload{Card: card}}, err

	case EditCardCommand:
		card, t, err := b.editCard(c.CardID, c.Patch())
		if card.ID == 0 {
			return nil, err
		}
		payloads := []EventPayload{CardEditedPayload{Card: card}}
		if t.Moves() {
			payloads = append(payloads, movedPayload(card, t))
		}
		return payloads, err

	case DeleteCardCommand:
		deleted, err := b.deleteCard(c.CardID)
		if !deleted {
			return nil, err
		}
		return []EventPayload{CardDeletedPayload{CardID: c.CardID}}, err

	case MoveCardCommand:
		card, t, err := b.moveCard(c.CardID, c.Column)
		return movePayloads(card, t, err)

	case MoveCardBackCommand:
		card, t, err := b.moveCardBack(c.CardID, c.Reason)
		if card.ID == 0 {
			return nil, silenceNotFound(err)
		}
		return []EventPayload{CardReturnedPayload{
			CardID: card.ID,
			Reason: strings.TrimSpace(c.Reason),
			Status: t.Status,
		}}, err

	case ToggleItemCommand:
		card, t, err := b.toggleItem(c.CardID, c.Index)
		if card.ID == 0 {
			return nil, silenceNotFound(err)
		}
		payloads := []EventPayload{ItemToggledPayload{
			CardID:    card.ID,
			Index:     c.Index,
			Completed: card.Items[c.Index].Completed,
			Ratio:     CompletionRatio(card.Items),
		}}
		if t.Moves() {
			payloads = append(payloads, movedPayload(card, t))
		}
		return payloads, err

	case ClearBoardCommand:
		return []EventPayload{BoardClearedPayload{}}, b.ClearAll()

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

func movePayloads(card Card, t Transition, err error) ([]EventPayload, error) {
	if card.ID == 0 {
		return nil, silenceNotFound(err)
	}
	return []EventPayload{movedPayload(card, t)}, err
}

func movedPayload(card Card, t Transition) CardMovedPayload {
	p := CardMovedPayload{CardID: card.ID, From: t.From, To: t.To}
	if t.SetStatus {
		p.Status = t.Status
	}
	if t.Complete {
		p.CompletedDate = card.CompletedDate
	}
	return p
}

func silenceNotFound(err error) error {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nil
	}
	return err
}
