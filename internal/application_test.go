package application

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-sync/internal/config"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
	"github.com/rocketscienceinc/tictactoe-sync/testing/suite"
)

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	logger := suite.NewLogger()

	t.Run("Memory", func(t *testing.T) {
		backend, closeBackend, err := OpenBackend(ctx, logger, &config.Config{Store: config.Store{Driver: config.DriverMemory}})

		require.NoError(t, err)
		assert.IsType(t, &graph.Memory{}, backend)
		assert.NoError(t, closeBackend())
	})

	t.Run("SQLite", func(t *testing.T) {
		// Given: a fresh database file
		conf := &config.Config{
			Store:  config.Store{Driver: config.DriverSQLite},
			SQLite: config.SQLite{Path: filepath.Join(t.TempDir(), "graph.db")},
		}

		// When: opening it
		backend, closeBackend, err := OpenBackend(ctx, logger, conf)
		require.NoError(t, err)

		// Then: it is ready for writes
		peer := graph.NewPeer(backend)
		require.NoError(t, peer.Put(ctx, "room/board", "4", "X"))

		node, ok, err := peer.Once(ctx, "room/board", "4")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `"X"`, string(node.Value))

		assert.NoError(t, closeBackend())
	})

	t.Run("Unknown driver", func(t *testing.T) {
		_, _, err := OpenBackend(ctx, logger, &config.Config{Store: config.Store{Driver: "etcd"}})

		require.Error(t, err)
	})
}
