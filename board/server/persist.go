// ABOUTME: Background event persister: streams a board actor's events into its journal and SQLite index.
// ABOUTME: The two-key snapshot is written by the board itself; this keeps the secondary stores in step.
package server

import (
	"log"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/store"
)

// SpawnEventPersister subscribes to handle and records every event in bs.
// The returned channel stops the goroutine after draining buffered events;
// done is closed once it has exited.
func SpawnEventPersister(handle *core.BoardActorHandle, bs *store.BoardStore) (stop chan struct{}, done chan struct{}) {
	ch := handle.Subscribe()
	stop = make(chan struct{})
	done = make(chan struct{})

	go func() {
		defer close(done)
		defer handle.Unsubscribe(ch)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				persistEvent(handle, bs, &event)
			case <-stop:
				for {
					select {
					case event := <-ch:
						persistEvent(handle, bs, &event)
					default:
						return
					}
				}
			}
		}
	}()
	return stop, done
}

func persistEvent(handle *core.BoardActorHandle, bs *store.BoardStore, event *core.Event) {
	if err := bs.Journal.Append(event); err != nil {
		log.Printf("component=board.server action=journal_append_failed board_id=%s event_id=%d err=%v",
			handle.BoardID, event.EventID, err)
	}
	if err := bs.Index.ApplyEvent(event); err != nil {
		log.Printf("component=board.server action=index_apply_failed board_id=%s event_id=%d err=%v",
			handle.BoardID, event.EventID, err)
	}
}
