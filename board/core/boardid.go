// ABOUTME: Board identifiers: ULIDs minted from crypto/rand, sortable by creation time.
// ABOUTME: ParseBoardID is the single strict parser used for URLs and on-disk directory names.
package core

import (
	"crypto/rand"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// NewBoardID returns a fresh board id. Ids from later boards sort after earlier ones
// at millisecond granularity, so board directories list in creation order.
func NewBoardID() ulid.ULID {
	return ulid.MustNew(ulid.Now(), rand.Reader)
}

// ParseBoardID accepts only a well-formed 26-character id.
func ParseBoardID(raw string) (ulid.ULID, error) {
	id, err := ulid.ParseStrict(raw)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("board id %q: %w", raw, err)
	}
	return id, nil
}
