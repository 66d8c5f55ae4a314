// Package graph is a small replicated key/value graph.
//
// Data lives in souls (named mappings). Every key of a soul holds a Node whose
// value is JSON, or nil for a tombstone. Concurrent writes converge by
// last-write-wins on (State, Writer), so every backend ends up with the same
// node no matter in which order writes arrive.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
)

var nullJSON = []byte("null")

// Stamp - conflict resolution metadata of a node.
type Stamp struct {
	State  int64  `json:"state"`
	Writer string `json:"writer"`
}

// After - reports whether that wins over other. Higher state wins; equal states are decided by writer id.
func (that Stamp) After(other Stamp) bool {
	if that.State != other.State {
		return that.State > other.State
	}
	return that.Writer > other.Writer
}

type Node struct {
	Key    string          `json:"key"`
	Value  json.RawMessage `json:"value,omitempty"`
	State  int64           `json:"state"`
	Writer string          `json:"writer"`
}

func (that Node) Stamp() Stamp {
	return Stamp{State: that.State, Writer: that.Writer}
}

func (that Node) IsTombstone() bool {
	return len(that.Value) == 0 || bytes.Equal(that.Value, nullJSON)
}

// Decode - unmarshals the value into v. Tombstones leave v untouched and report false.
func (that Node) Decode(v any) (bool, error) {
	if that.IsTombstone() {
		return false, nil
	}

	if err := json.Unmarshal(that.Value, v); err != nil {
		return false, err
	}

	return true, nil
}

// Newer - returns whichever of a and b wins under last-write-wins.
func Newer(a, b Node) Node {
	if b.Stamp().After(a.Stamp()) {
		return b
	}
	return a
}

// Backend - storage and fan-out engine behind a Peer.
//
// Merge stores node only if it wins over the stored one and notifies the soul's
// subscribers of applied nodes; a notification is never sent before the write is
// visible to Snapshot. Subscribe delivers until ctx is done; deliveries of
// concurrent writes may arrive out of order, so subscribers compare stamps.
type Backend interface {
	Merge(ctx context.Context, soul string, node Node) (bool, error)
	Get(ctx context.Context, soul, key string) (Node, bool, error)
	Snapshot(ctx context.Context, soul string) ([]Node, error)
	Subscribe(ctx context.Context, soul string, fn func(Node)) error
}
