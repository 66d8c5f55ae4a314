package graph

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Memory - in-process Backend.
type Memory struct {
	mu    sync.RWMutex
	souls map[string]map[string]Node

	hub *Hub
}

func NewMemory() *Memory {
	return &Memory{
		souls: make(map[string]map[string]Node),
		hub:   NewHub(),
	}
}

func (that *Memory) Merge(_ context.Context, soul string, node Node) (bool, error) {
	that.mu.Lock()
	nodes, ok := that.souls[soul]
	if !ok {
		nodes = make(map[string]Node)
		that.souls[soul] = nodes
	}

	if current, exists := nodes[node.Key]; exists && !node.Stamp().After(current.Stamp()) {
		that.mu.Unlock()
		return false, nil
	}

	nodes[node.Key] = node
	that.mu.Unlock()

	that.hub.Publish(soul, node)

	return true, nil
}

func (that *Memory) Get(_ context.Context, soul, key string) (Node, bool, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	node, ok := that.souls[soul][key]

	return node, ok, nil
}

func (that *Memory) Snapshot(_ context.Context, soul string) ([]Node, error) {
	that.mu.RLock()
	nodes := make([]Node, 0, len(that.souls[soul]))
	for _, node := range that.souls[soul] {
		nodes = append(nodes, node)
	}
	that.mu.RUnlock()

	slices.SortFunc(nodes, func(a, b Node) int {
		return cmp.Compare(a.Key, b.Key)
	})

	return nodes, nil
}

func (that *Memory) Subscribe(ctx context.Context, soul string, fn func(Node)) error {
	that.hub.Subscribe(ctx, soul, fn)

	return nil
}
