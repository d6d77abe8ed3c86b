// ABOUTME: SQLite database holding a kv table (an alternative snapshot backend) and a queryable card index.
// ABOUTME: The card index mirrors the snapshot, applies events incrementally, and is always rebuildable.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2389-research/kanban/board/core"
	_ "github.com/mattn/go-sqlite3"
)

const tsLayout = time.RFC3339Nano

// CardRow is a row from the cards index.
type CardRow struct {
	CardID      int         `json:"card_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Column      core.Column `json:"column"`
	Deadline    string      `json:"deadline"`
	Status      string      `json:"status,omitempty"`
	ItemCount   int         `json:"item_count"`
	ItemsDone   int         `json:"items_done"`
	CompletedAt *string     `json:"completed_at,omitempty"`
	UpdatedAt   string      `json:"updated_at"`
}

// SqliteIndex wraps one board's index.db.
type SqliteIndex struct {
	db *sql.DB
}

// OpenSqlite opens or creates the database at path and ensures the schema.
func OpenSqlite(path string) (*SqliteIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS cards (
			card_id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			column_id INTEGER NOT NULL,
			deadline TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			item_count INTEGER NOT NULL DEFAULT 0,
			items_done INTEGER NOT NULL DEFAULT 0,
			completed_at TEXT,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS cards_column ON cards(column_id);

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SqliteIndex{db: db}, nil
}

// Close closes the database connection.
func (idx *SqliteIndex) Close() error {
	return idx.db.Close()
}

// GetItem implements KV.
func (idx *SqliteIndex) GetItem(key string) (string, bool, error) {
	var val string
	err := idx.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query kv %s: %w", key, err)
	}
	return val, true, nil
}

// SetItem implements KV.
func (idx *SqliteIndex) SetItem(key, value string) error {
	_, err := idx.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set kv %s: %w", key, err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertCard(ex execer, card *core.Card, ts string) error {
	var completed *string
	if card.CompletedDate != nil {
		s := card.CompletedDate.UTC().Format(tsLayout)
		completed = &s
	}
	done := 0
	for _, it := range card.Items {
		if it.Completed {
			done++
		}
	}
	_, err := ex.Exec(
		`INSERT INTO cards (card_id, title, description, column_id, deadline, status, item_count, items_done, completed_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(card_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			column_id = excluded.column_id,
			deadline = excluded.deadline,
			status = excluded.status,
			item_count = excluded.item_count,
			items_done = excluded.items_done,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`,
		card.ID,
		card.Title,
		card.Description,
		int(card.Column),
		card.Deadline.UTC().Format(tsLayout),
		card.Status,
		len(card.Items),
		done,
		completed,
		ts,
	)
	if err != nil {
		return fmt.Errorf("upsert card %d: %w", card.ID, err)
	}
	return nil
}

// UpsertCard writes the full row for card.
func (idx *SqliteIndex) UpsertCard(card *core.Card) error {
	return upsertCard(idx.db, card, time.Now().UTC().Format(tsLayout))
}

// DeleteCard removes a card row.
func (idx *SqliteIndex) DeleteCard(cardID int) error {
	if _, err := idx.db.Exec("DELETE FROM cards WHERE card_id = ?", cardID); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return nil
}

// ListCards returns cards in col (0 for all columns) whose title contains
// query, ignoring case, ordered by id.
func (idx *SqliteIndex) ListCards(col core.Column, query string) ([]CardRow, error) {
	var (
		where []string
		args  []any
	)
	if col != 0 {
		where = append(where, "column_id = ?")
		args = append(args, int(col))
	}
	if q := strings.TrimSpace(query); q != "" {
		where = append(where, "instr(lower(title), lower(?)) > 0")
		args = append(args, q)
	}
	stmt := `SELECT card_id, title, description, column_id, deadline, status, item_count, items_done, completed_at, updated_at FROM cards`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY card_id ASC"

	rows, err := idx.db.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []CardRow
	for rows.Next() {
		var c CardRow
		var column int
		if err := rows.Scan(&c.CardID, &c.Title, &c.Description, &column, &c.Deadline,
			&c.Status, &c.ItemCount, &c.ItemsDone, &c.CompletedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		c.Column = core.Column(column)
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// CountByColumn returns the number of indexed cards per column.
func (idx *SqliteIndex) CountByColumn() (core.Occupancy, error) {
	rows, err := idx.db.Query("SELECT column_id, COUNT(*) FROM cards GROUP BY column_id")
	if err != nil {
		return nil, fmt.Errorf("count cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	occ := core.Occupancy{}
	for rows.Next() {
		var col, n int
		if err := rows.Scan(&col, &n); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		occ[core.Column(col)] = n
	}
	return occ, rows.Err()
}

// GetLastEventID returns the last event id applied to the index.
// Returns 0, false if none has been recorded.
func (idx *SqliteIndex) GetLastEventID() (uint64, bool, error) {
	var val string
	err := idx.db.QueryRow("SELECT value FROM meta WHERE key = 'last_event_id'").Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query last_event_id: %w", err)
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse last_event_id: %w", err)
	}
	return id, true, nil
}

func setLastEventID(ex execer, eventID uint64) error {
	_, err := ex.Exec(
		`INSERT INTO meta (key, value) VALUES ('last_event_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.FormatUint(eventID, 10))
	if err != nil {
		return fmt.Errorf("set last_event_id: %w", err)
	}
	return nil
}

// SetLastEventID records the last event id applied to the index.
func (idx *SqliteIndex) SetLastEventID(eventID uint64) error {
	return setLastEventID(idx.db, eventID)
}

// RebuildFromCards replaces the index contents with a snapshot taken at lastEventID.
func (idx *SqliteIndex) RebuildFromCards(cards []core.Card, lastEventID uint64) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM cards"); err != nil {
		return fmt.Errorf("clear cards: %w", err)
	}
	ts := time.Now().UTC().Format(tsLayout)
	for i := range cards {
		if err := upsertCard(tx, &cards[i], ts); err != nil {
			return err
		}
	}
	if err := setLastEventID(tx, lastEventID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}
	return nil
}

// ApplyEvent incrementally applies a single event to the index.
func (idx *SqliteIndex) ApplyEvent(event *core.Event) error {
	ts := event.Timestamp.UTC().Format(tsLayout)

	switch p := event.Payload.(type) {
	case core.CardCreatedPayload:
		card := p.Card
		if err := upsertCard(idx.db, &card, ts); err != nil {
			return fmt.Errorf("apply CardCreated: %w", err)
		}

	case core.CardEditedPayload:
		card := p.Card
		if err := upsertCard(idx.db, &card, ts); err != nil {
			return fmt.Errorf("apply CardEdited: %w", err)
		}

	case core.CardDeletedPayload:
		if err := idx.DeleteCard(p.CardID); err != nil {
			return fmt.Errorf("apply CardDeleted: %w", err)
		}

	case core.CardMovedPayload:
		if _, err := idx.db.Exec("UPDATE cards SET column_id = ?, updated_at = ? WHERE card_id = ?",
			int(p.To), ts, p.CardID); err != nil {
			return fmt.Errorf("apply CardMoved: %w", err)
		}
		if p.Status != "" {
			if _, err := idx.db.Exec("UPDATE cards SET status = ? WHERE card_id = ?",
				p.Status, p.CardID); err != nil {
				return fmt.Errorf("apply CardMoved status: %w", err)
			}
		}
		if p.CompletedDate != nil {
			if _, err := idx.db.Exec("UPDATE cards SET completed_at = COALESCE(completed_at, ?) WHERE card_id = ?",
				p.CompletedDate.UTC().Format(tsLayout), p.CardID); err != nil {
				return fmt.Errorf("apply CardMoved completed_at: %w", err)
			}
		}

	case core.CardReturnedPayload:
		// Returns always land in InProgress; the payload carries no column.
		if _, err := idx.db.Exec("UPDATE cards SET column_id = ?, status = ?, updated_at = ? WHERE card_id = ?",
			int(core.InProgress), p.Status, ts, p.CardID); err != nil {
			return fmt.Errorf("apply CardReturned: %w", err)
		}

	case core.ItemToggledPayload:
		delta := -1
		if p.Completed {
			delta = 1
		}
		if _, err := idx.db.Exec("UPDATE cards SET items_done = items_done + ?, updated_at = ? WHERE card_id = ?",
			delta, ts, p.CardID); err != nil {
			return fmt.Errorf("apply ItemToggled: %w", err)
		}

	case core.BoardClearedPayload:
		if _, err := idx.db.Exec("DELETE FROM cards"); err != nil {
			return fmt.Errorf("apply BoardCleared: %w", err)
		}
	}

	if err := idx.SetLastEventID(event.EventID); err != nil {
		return fmt.Errorf("set last_event_id after apply: %w", err)
	}
	return nil
}
