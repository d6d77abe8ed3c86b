// ABOUTME: BoardInfo holds the metadata stored beside a board's card snapshot.
// ABOUTME: Identity, display title, policy rules, and creation time; never part of the two storage keys.
package core

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// BoardInfo describes one board on disk.
type BoardInfo struct {
	BoardID   ulid.ULID `json:"board_id"`
	Title     string    `json:"title"`
	Rules     Rules     `json:"rules"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBoardInfo creates metadata with a fresh ULID. A blank title is rejected.
func NewBoardInfo(title string, rules Rules) (BoardInfo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return BoardInfo{}, &ValidationError{Field: "title", Reason: "must not be blank"}
	}
	if err := rules.Validate(); err != nil {
		return BoardInfo{}, err
	}
	return BoardInfo{
		BoardID:   NewBoardID(),
		Title:     title,
		Rules:     rules,
		CreatedAt: time.Now().UTC(),
	}, nil
}
