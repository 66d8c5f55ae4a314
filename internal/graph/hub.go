package graph

import (
	"context"
	"sync"
)

// Hub - in-process fan-out of applied nodes to soul subscribers.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	souls  map[string]map[int]func(Node)
}

func NewHub() *Hub {
	return &Hub{
		souls: make(map[string]map[int]func(Node)),
	}
}

// Subscribe - registers fn until ctx is done.
func (that *Hub) Subscribe(ctx context.Context, soul string, fn func(Node)) {
	that.mu.Lock()
	id := that.nextID
	that.nextID++

	if _, ok := that.souls[soul]; !ok {
		that.souls[soul] = make(map[int]func(Node))
	}
	that.souls[soul][id] = fn
	that.mu.Unlock()

	go func() {
		<-ctx.Done()

		that.mu.Lock()
		defer that.mu.Unlock()

		delete(that.souls[soul], id)
		if len(that.souls[soul]) == 0 {
			delete(that.souls, soul)
		}
	}()
}

// Publish - calls every subscriber of soul with node. Called outside of any storage lock.
func (that *Hub) Publish(soul string, node Node) {
	that.mu.RLock()
	subscribers := make([]func(Node), 0, len(that.souls[soul]))
	for _, fn := range that.souls[soul] {
		subscribers = append(subscribers, fn)
	}
	that.mu.RUnlock()

	for _, fn := range subscribers {
		fn(node)
	}
}

// Subscribers - number of live subscriptions on soul.
func (that *Hub) Subscribers(soul string) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.souls[soul])
}
