// ABOUTME: Transition engine: pure policies deciding whether and where a card may move.
// ABOUTME: Two strategies, deadline-gated stage buttons and checklist completion ratio with column ceilings.
package core

import (
	"fmt"
	"strings"
	"time"
)

// Occupancy counts cards per column.
type Occupancy map[Column]int

// Count returns the number of cards in c.
func (o Occupancy) Count(c Column) int {
	return o[c]
}

func (o Occupancy) clone() Occupancy {
	out := make(Occupancy, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Transition is the planned outcome of a move. From == To means the card stays put.
type Transition struct {
	From Column
	To   Column
	// Status replaces the card's status when SetStatus is true.
	Status    string
	SetStatus bool
	// Complete stamps CompletedDate if it is not already set.
	Complete bool
}

// Moves reports whether the transition changes the card's column.
func (t Transition) Moves() bool {
	return t.From != t.To
}

func stay(c Card) Transition {
	return Transition{From: c.Column, To: c.Column}
}

// TransitionPolicy decides card movement. Implementations are pure: they read
// the card and an occupancy snapshot and never mutate either.
type TransitionPolicy interface {
	Variant() Variant
	// CheckCreate applies creation-time ceilings.
	CheckCreate(occ Occupancy) error
	// Advance plans an explicit forward move to target.
	Advance(card Card, target Column, occ Occupancy, now time.Time) (Transition, error)
	// Return plans sending a card from Testing back to InProgress.
	Return(card Card, reason string, occ Occupancy) (Transition, error)
	// Reevaluate plans the move implied by the card's checklist after a toggle.
	Reevaluate(card Card, occ Occupancy, now time.Time) (Transition, error)
	// BacklogBlocked reports whether the backlog accepts no new work.
	BacklogBlocked(occ Occupancy) bool
}

// NewPolicy returns the strategy selected by r.Variant.
func NewPolicy(r Rules) TransitionPolicy {
	if r.Variant == VariantChecklist {
		return checklistPolicy{rules: r}
	}
	return deadlinePolicy{rules: r}
}

// NextColumn returns the stage after c, if any.
func NextColumn(c Column) (Column, bool) {
	if c >= Backlog && c < Done {
		return c + 1, true
	}
	return 0, false
}

// DeadlineStatus grades a card entering Done. A deadline equal to now is on time.
func DeadlineStatus(deadline, now time.Time) string {
	if deadline.Before(now) {
		return StatusOverdue
	}
	return StatusOnTime
}

// CompletionRatio returns the completed share of items as a percentage.
func CompletionRatio(items []ChecklistItem) float64 {
	if len(items) == 0 {
		return 0
	}
	return float64(completedCount(items)) * 100 / float64(len(items))
}

func completedCount(items []ChecklistItem) int {
	n := 0
	for _, it := range items {
		if it.Completed {
			n++
		}
	}
	return n
}

// moreThanHalf and fullyComplete compare counts rather than float ratios so
// that exactly 50% and exactly 100% are decided without rounding.
func moreThanHalf(items []ChecklistItem) bool {
	return len(items) > 0 && completedCount(items)*2 > len(items)
}

func fullyComplete(items []ChecklistItem) bool {
	return len(items) > 0 && completedCount(items) == len(items)
}

func planReturn(card Card, reason string) (Transition, error) {
	if card.Column != Testing {
		return Transition{}, fmt.Errorf("%w: return from %s", ErrInvalidTransition, card.Column)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Transition{}, ErrMissingReason
	}
	return Transition{
		From:      Testing,
		To:        InProgress,
		Status:    ReturnedStatus(reason),
		SetStatus: true,
	}, nil
}

func planDone(card Card, now time.Time) Transition {
	return Transition{
		From:      card.Column,
		To:        Done,
		Status:    DeadlineStatus(card.Deadline, now),
		SetStatus: true,
	}
}

type deadlinePolicy struct {
	rules Rules
}

func (deadlinePolicy) Variant() Variant { return VariantDeadline }

func (deadlinePolicy) CheckCreate(Occupancy) error { return nil }

func (deadlinePolicy) Advance(card Card, target Column, _ Occupancy, now time.Time) (Transition, error) {
	next, ok := NextColumn(card.Column)
	if !ok || target != next {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, card.Column, target)
	}
	if target == Done {
		return planDone(card, now), nil
	}
	return Transition{From: card.Column, To: target}, nil
}

func (deadlinePolicy) Return(card Card, reason string, _ Occupancy) (Transition, error) {
	return planReturn(card, reason)
}

func (deadlinePolicy) Reevaluate(card Card, _ Occupancy, _ time.Time) (Transition, error) {
	return stay(card), nil
}

func (p deadlinePolicy) BacklogBlocked(occ Occupancy) bool {
	return occ.Count(InProgress) >= p.rules.InProgressLimit
}

type checklistPolicy struct {
	rules Rules
}

func (checklistPolicy) Variant() Variant { return VariantChecklist }

func (p checklistPolicy) CheckCreate(occ Occupancy) error {
	if occ.Count(Backlog) >= p.rules.BacklogLimit {
		return &CapacityExceededError{Column: Backlog, Limit: p.rules.BacklogLimit}
	}
	return nil
}

// Advance only covers Testing -> Done; earlier stages move by checklist progress.
func (checklistPolicy) Advance(card Card, target Column, _ Occupancy, now time.Time) (Transition, error) {
	if card.Column != Testing || target != Done {
		return Transition{}, fmt.Errorf("%w: %s -> %s is driven by the checklist", ErrInvalidTransition, card.Column, target)
	}
	return planDone(card, now), nil
}

func (p checklistPolicy) Return(card Card, reason string, occ Occupancy) (Transition, error) {
	t, err := planReturn(card, reason)
	if err != nil {
		return Transition{}, err
	}
	if occ.Count(InProgress) >= p.rules.InProgressLimit {
		return Transition{}, &CapacityExceededError{Column: InProgress, Limit: p.rules.InProgressLimit}
	}
	return t, nil
}

// Reevaluate steps the card forward until no rule applies, so a card that
// reaches 100% while parked in the backlog lands in Testing in one turn.
func (p checklistPolicy) Reevaluate(card Card, occ Occupancy, _ time.Time) (Transition, error) {
	occ = occ.clone()
	t := stay(card)
	for {
		switch t.To {
		case Backlog:
			if !moreThanHalf(card.Items) || occ.Count(InProgress) >= p.rules.InProgressLimit {
				return t, nil
			}
			occ[Backlog]--
			occ[InProgress]++
			t.To = InProgress
		case InProgress:
			if fullyComplete(card.Items) {
				t.To = Testing
				t.Complete = true
				return t, nil
			}
			if moreThanHalf(card.Items) {
				return t, nil
			}
			if occ.Count(Backlog) >= p.rules.BacklogLimit {
				return Transition{}, &CapacityExceededError{Column: Backlog, Limit: p.rules.BacklogLimit}
			}
			t.To = Backlog
			return t, nil
		default:
			return t, nil
		}
	}
}

func (p checklistPolicy) BacklogBlocked(occ Occupancy) bool {
	return occ.Count(InProgress) >= p.rules.InProgressLimit
}
