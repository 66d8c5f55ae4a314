package session

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-sync/internal/board"
)

type eventKind int

const (
	eventRosterChanged eventKind = iota
	eventCellChanged
	eventJoin
	eventClickCell
	eventRestart
	eventClear
)

type event struct {
	kind  eventKind
	cell  board.Cell
	name  string
	index int
}

// queue - unbounded FIFO of events. Producers never block, so store callbacks
// can push while the loop is busy writing to the same store.
type queue struct {
	mu     sync.Mutex
	events []event
	ready  chan struct{}
}

func newQueue() *queue {
	return &queue{
		ready: make(chan struct{}, 1),
	}
}

func (that *queue) push(ev event) {
	that.mu.Lock()
	that.events = append(that.events, ev)
	that.mu.Unlock()

	select {
	case that.ready <- struct{}{}:
	default:
	}
}

// drain - takes every queued event at once.
func (that *queue) drain() []event {
	that.mu.Lock()
	defer that.mu.Unlock()

	events := that.events
	that.events = nil

	return events
}
