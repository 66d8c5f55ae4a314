package repository

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
	"github.com/rocketscienceinc/tictactoe-sync/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-sync/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteGraph(t *testing.T) graph.Backend {
	t.Helper()

	st, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	require.NoError(t, st.Init(context.Background()))

	return NewSQLiteGraph(st.Connection)
}

func TestSQLiteGraph(t *testing.T) {
	testBackend(t, context.Background(), func(t *testing.T) graph.Backend {
		return newSQLiteGraph(t)
	})
}

func TestRedisGraph(t *testing.T) {
	ctx, st := suite.New(t)

	testBackend(t, ctx, func(t *testing.T) graph.Backend {
		require.NoError(t, st.Storage.FlushDB(ctx).Err())

		return NewRedisGraph(st.Logger, st.Storage)
	})
}

type collector struct {
	mu    sync.Mutex
	nodes []graph.Node
}

func (that *collector) collect(node graph.Node) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.nodes = append(that.nodes, node)
}

func (that *collector) len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.nodes)
}

func (that *collector) last() graph.Node {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.nodes[len(that.nodes)-1]
}

// testBackend - behaviour every graph.Backend shares.
func testBackend(t *testing.T, ctx context.Context, newBackend func(t *testing.T) graph.Backend) {
	t.Helper()

	t.Run("Merge stores a new node", func(t *testing.T) {
		backend := newBackend(t)

		// Given: a node for an empty soul
		node := graph.Node{Key: "4", Value: json.RawMessage(`"X"`), State: 10, Writer: "peer-a"}

		// When: merging it
		applied, err := backend.Merge(ctx, "room/board", node)

		// Then: it is stored as is
		require.NoError(t, err)
		assert.True(t, applied)

		stored, ok, err := backend.Get(ctx, "room/board", "4")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, node, stored)
	})

	t.Run("Merge keeps the last writer", func(t *testing.T) {
		backend := newBackend(t)

		older := graph.Node{Key: "0", Value: json.RawMessage(`"X"`), State: 10, Writer: "peer-b"}
		newer := graph.Node{Key: "0", Value: json.RawMessage(`"O"`), State: 11, Writer: "peer-a"}
		tie := graph.Node{Key: "0", Value: json.RawMessage(`"X"`), State: 11, Writer: "peer-0"}

		// Given: the newer node stored first
		applied, err := backend.Merge(ctx, "room/board", newer)
		require.NoError(t, err)
		require.True(t, applied)

		// When: an older node and a losing tie arrive
		applied, err = backend.Merge(ctx, "room/board", older)
		require.NoError(t, err)
		assert.False(t, applied)

		applied, err = backend.Merge(ctx, "room/board", tie)
		require.NoError(t, err)
		assert.False(t, applied)

		// Then: the newer node survives
		stored, _, err := backend.Get(ctx, "room/board", "0")
		require.NoError(t, err)
		assert.Equal(t, newer, stored)
	})

	t.Run("Tombstones are stored and returned", func(t *testing.T) {
		backend := newBackend(t)

		_, err := backend.Merge(ctx, "room/players", graph.Node{Key: "p1", Value: json.RawMessage(`{"id":"p1"}`), State: 1, Writer: "p1"})
		require.NoError(t, err)

		applied, err := backend.Merge(ctx, "room/players", graph.Node{Key: "p1", State: 2, Writer: "p2"})
		require.NoError(t, err)
		assert.True(t, applied)

		nodes, err := backend.Snapshot(ctx, "room/players")
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.True(t, nodes[0].IsTombstone())
		assert.Equal(t, int64(2), nodes[0].State)
	})

	t.Run("Get reports missing keys", func(t *testing.T) {
		backend := newBackend(t)

		_, ok, err := backend.Get(ctx, "room/board", "8")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Snapshot is ordered by key and scoped to the soul", func(t *testing.T) {
		backend := newBackend(t)

		for _, key := range []string{"2", "0", "1"} {
			_, err := backend.Merge(ctx, "room/board", graph.Node{Key: key, Value: json.RawMessage(`"X"`), State: 1, Writer: "a"})
			require.NoError(t, err)
		}
		_, err := backend.Merge(ctx, "other/board", graph.Node{Key: "5", State: 1, Writer: "a"})
		require.NoError(t, err)

		nodes, err := backend.Snapshot(ctx, "room/board")
		require.NoError(t, err)

		keys := make([]string, 0, len(nodes))
		for _, node := range nodes {
			keys = append(keys, node.Key)
		}
		assert.Equal(t, []string{"0", "1", "2"}, keys)
	})

	t.Run("Subscribe delivers applied nodes only", func(t *testing.T) {
		backend := newBackend(t)

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		// Given: a subscriber on the board soul
		col := &collector{}
		require.NoError(t, backend.Subscribe(subCtx, "room/board", col.collect))

		// When: one winning and one stale write arrive
		_, err := backend.Merge(ctx, "room/board", graph.Node{Key: "3", Value: json.RawMessage(`"O"`), State: 5, Writer: "a"})
		require.NoError(t, err)
		_, err = backend.Merge(ctx, "room/board", graph.Node{Key: "3", Value: json.RawMessage(`"X"`), State: 4, Writer: "a"})
		require.NoError(t, err)

		// Then: only the winner is delivered
		require.Eventually(t, func() bool {
			return col.len() == 1
		}, 5*time.Second, 10*time.Millisecond)

		assert.Equal(t, "3", col.last().Key)
		assert.JSONEq(t, `"O"`, string(col.last().Value))

		// And: nothing else trickles in
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 1, col.len())
	})
}
