// ABOUTME: Goroutine-based actor that owns a Board, executes commands, and broadcasts events.
// ABOUTME: Provides BoardActorHandle for sending commands, subscribing to events, and reading the board.
package core

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventBroadcaster provides a fan-out mechanism for events to multiple subscribers.
// Each subscriber gets a buffered channel. Broadcast is non-blocking (drops if full).
type EventBroadcaster struct {
	mu          sync.RWMutex
	subscribers []chan Event
}

// NewEventBroadcaster creates a broadcaster with no initial subscribers.
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{}
}

// Subscribe creates a new buffered channel for receiving broadcast events.
func (b *EventBroadcaster) Subscribe() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 1024)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Unsubscribe removes a channel from the subscriber list and closes it.
func (b *EventBroadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Broadcast sends an event to all subscribers, dropping it for any subscriber whose buffer is full.
func (b *EventBroadcaster) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

type commandMessage struct {
	cmd   Command
	reply chan commandResult
}

type commandResult struct {
	events []Event
	err    error
}

// BoardActorHandle serialises every command against one Board.
// It is safe for concurrent use.
type BoardActorHandle struct {
	cmdCh       chan commandMessage
	broadcaster *EventBroadcaster
	board       *Board
	mu          sync.RWMutex // protects board
	BoardID     ulid.ULID

	closeOnce sync.Once
	done      chan struct{}
}

// SendCommand sends a command to the actor and waits for the result. Events
// are returned even alongside a persistence error, since the board has
// already changed.
func (h *BoardActorHandle) SendCommand(cmd Command) ([]Event, error) {
	reply := make(chan commandResult, 1)
	msg := commandMessage{cmd: cmd, reply: reply}

	select {
	case <-h.done:
		return nil, ErrActorStopped
	default:
	}

	select {
	case h.cmdCh <- msg:
	default:
		return nil, ErrActorBusy
	}

	select {
	case result := <-reply:
		return result.events, result.err
	case <-h.done:
		return nil, ErrActorStopped
	}
}

// Subscribe returns a channel that receives broadcast events.
func (h *BoardActorHandle) Subscribe() chan Event {
	return h.broadcaster.Subscribe()
}

// Unsubscribe removes a channel from the broadcast subscriber list and closes it.
func (h *BoardActorHandle) Unsubscribe(ch chan Event) {
	h.broadcaster.Unsubscribe(ch)
}

// ReadBoard calls fn with a read lock held on the board.
// fn must not mutate the board or retain references after returning.
func (h *BoardActorHandle) ReadBoard(fn func(b *Board)) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn(h.board)
}

// Stop terminates the actor goroutine. Further commands fail with ErrActorStopped.
func (h *BoardActorHandle) Stop() {
	h.closeOnce.Do(func() { close(h.done) })
}

// SpawnActor starts the goroutine owning board. Event ids continue after lastEventID.
func SpawnActor(boardID ulid.ULID, board *Board, lastEventID uint64) *BoardActorHandle {
	handle := &BoardActorHandle{
		cmdCh:       make(chan commandMessage, 64),
		broadcaster: NewEventBroadcaster(),
		board:       board,
		BoardID:     boardID,
		done:        make(chan struct{}),
	}

	a := &boardActor{
		handle:      handle,
		nextEventID: lastEventID + 1,
		now:         board.now,
	}
	go a.run()

	return handle
}

type boardActor struct {
	handle      *BoardActorHandle
	nextEventID uint64
	now         func() time.Time
}

func (a *boardActor) run() {
	for {
		select {
		case <-a.handle.done:
			return
		case msg := <-a.handle.cmdCh:
			msg.reply <- a.processCommand(msg.cmd)
		}
	}
}

func (a *boardActor) processCommand(cmd Command) commandResult {
	a.handle.mu.Lock()
	payloads, err := a.handle.board.Execute(cmd)
	a.handle.mu.Unlock()

	if len(payloads) == 0 {
		return commandResult{err: err}
	}

	now := a.now()
	events := make([]Event, len(payloads))
	for i, payload := range payloads {
		events[i] = Event{
			EventID:   a.nextEventID,
			BoardID:   a.handle.BoardID,
			Timestamp: now,
			Payload:   payload,
		}
		a.nextEventID++
	}

	for _, event := range events {
		a.handle.broadcaster.Broadcast(event)
	}

	return commandResult{events: events, err: err}
}
