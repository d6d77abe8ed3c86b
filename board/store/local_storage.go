// ABOUTME: LocalStorage persists a board as two keys: "cards" (JSON array) and "nextCardId" (decimal).
// ABOUTME: Implements core.Persister; every save overwrites both keys wholesale.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/2389-research/kanban/board/core"
)

const (
	// KeyCards holds the JSON array of cards.
	KeyCards = "cards"
	// KeyNextCardID holds the next id to allocate.
	KeyNextCardID = "nextCardId"
)

// LocalStorage adapts a KV to core.Persister.
type LocalStorage struct {
	kv KV
}

// NewLocalStorage wraps kv.
func NewLocalStorage(kv KV) *LocalStorage {
	return &LocalStorage{kv: kv}
}

// Save writes the full card list and the id counter.
func (s *LocalStorage) Save(cards []core.Card, nextID int) error {
	if cards == nil {
		cards = []core.Card{}
	}
	data, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("marshal cards: %w", err)
	}
	if err := s.kv.SetItem(KeyCards, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", KeyCards, err)
	}
	if err := s.kv.SetItem(KeyNextCardID, strconv.Itoa(nextID)); err != nil {
		return fmt.Errorf("save %s: %w", KeyNextCardID, err)
	}
	return nil
}

// Load reads both keys. Missing keys yield an empty board with next id 1;
// malformed values are returned as parse errors.
func (s *LocalStorage) Load() ([]core.Card, int, error) {
	cards := []core.Card{}
	raw, ok, err := s.kv.GetItem(KeyCards)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: %w", KeyCards, err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &cards); err != nil {
			return nil, 0, fmt.Errorf("parse %s: %w", KeyCards, err)
		}
		if cards == nil {
			cards = []core.Card{}
		}
	}

	nextID := 1
	raw, ok, err = s.kv.GetItem(KeyNextCardID)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: %w", KeyNextCardID, err)
	}
	if ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, 0, fmt.Errorf("parse %s: %w", KeyNextCardID, err)
		}
		nextID = n
	}
	return cards, nextID, nil
}
