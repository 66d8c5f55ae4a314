package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSuperseded - the write lost to a node that was already stored.
var ErrSuperseded = errors.New("write superseded by a newer node")

// Peer - one participant of the graph. It stamps its own writes with its id and a
// millisecond state that is monotonic and always past every state the peer has seen,
// so a write wins over anything it read even when other peers' clocks run ahead.
type Peer struct {
	id      string
	backend Backend
	clock   func() time.Time

	mu        sync.Mutex
	lastState int64
}

type PeerOption func(*Peer)

func WithID(id string) PeerOption {
	return func(p *Peer) {
		p.id = id
	}
}

func WithClock(clock func() time.Time) PeerOption {
	return func(p *Peer) {
		p.clock = clock
	}
}

func NewPeer(backend Backend, opts ...PeerOption) *Peer {
	peer := &Peer{
		id:      uuid.NewString(),
		backend: backend,
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(peer)
	}

	return peer
}

func (that *Peer) ID() string {
	return that.id
}

func (that *Peer) Now() time.Time {
	return that.clock()
}

// Put - writes value under soul/key. A nil value writes a tombstone.
// The write is stamped past the stored node; if a concurrent write still wins,
// ErrSuperseded is returned and nothing is published.
func (that *Peer) Put(ctx context.Context, soul, key string, value any) error {
	node := Node{
		Key:    key,
		Writer: that.id,
	}

	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s/%s: %w", soul, key, err)
		}

		if !(Node{Value: raw}).IsTombstone() {
			node.Value = raw
		}
	}

	current, exists, err := that.backend.Get(ctx, soul, key)
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", soul, key, err)
	}

	if exists {
		that.observe(current.State)
	}
	node.State = that.nextState()

	applied, err := that.backend.Merge(ctx, soul, node)
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", soul, key, err)
	}

	if !applied {
		return fmt.Errorf("failed to put %s/%s: %w", soul, key, ErrSuperseded)
	}

	return nil
}

// Once - one-shot read of a single key.
func (that *Peer) Once(ctx context.Context, soul, key string) (Node, bool, error) {
	node, ok, err := that.backend.Get(ctx, soul, key)
	if err != nil {
		return Node{}, false, fmt.Errorf("failed to get %s/%s: %w", soul, key, err)
	}

	return node, ok, nil
}

// Map - snapshot of every node of soul, tombstones included.
func (that *Peer) Map(ctx context.Context, soul string) ([]Node, error) {
	nodes, err := that.backend.Snapshot(ctx, soul)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", soul, err)
	}

	return nodes, nil
}

// On - continuous subscription to every change of soul, own writes included.
func (that *Peer) On(ctx context.Context, soul string, fn func(Node)) error {
	observed := func(node Node) {
		that.observe(node.State)
		fn(node)
	}

	if err := that.backend.Subscribe(ctx, soul, observed); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", soul, err)
	}

	return nil
}

func (that *Peer) nextState() int64 {
	that.mu.Lock()
	defer that.mu.Unlock()

	state := that.clock().UnixMilli()
	if state <= that.lastState {
		state = that.lastState + 1
	}
	that.lastState = state

	return state
}

// observe - moves the peer's state forward to at least state.
func (that *Peer) observe(state int64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if state > that.lastState {
		that.lastState = state
	}
}
