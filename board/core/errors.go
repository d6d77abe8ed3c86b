// ABOUTME: Error taxonomy for board operations: validation, lookup, capacity, and transition refusals.
// ABOUTME: Typed errors carry context for errors.As; sentinels cover the fixed refusals.
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingReason indicates a move-back was attempted without a reason.
	// Callers treat it as the user declining to proceed.
	ErrMissingReason = errors.New("a reason is required to return a card")

	// ErrDeleteRestricted indicates the delete scope forbids removing the card from its column.
	ErrDeleteRestricted = errors.New("card can only be deleted from the backlog")

	// ErrChecklistLocked indicates a checklist toggle on a card that has left the active columns.
	ErrChecklistLocked = errors.New("checklist is locked once a card reaches testing")

	// ErrInvalidTransition indicates the active policy does not allow the requested move.
	ErrInvalidTransition = errors.New("transition not allowed")

	// ErrActorBusy indicates the actor's command buffer is full.
	ErrActorBusy = errors.New("actor command buffer full")

	// ErrActorStopped indicates the actor goroutine has been stopped.
	ErrActorStopped = errors.New("board actor stopped")

	// ErrUnknownCommand indicates the command type is not recognized.
	ErrUnknownCommand = errors.New("unknown command type")
)

// ValidationError reports a blank required field or an out-of-range checklist.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError indicates the referenced card doesn't exist.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("card not found: %d", e.ID)
}

// CapacityExceededError indicates the target column is at its ceiling.
type CapacityExceededError struct {
	Column Column
	Limit  int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("column %s is full (limit %d)", e.Column, e.Limit)
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
