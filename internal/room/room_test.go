package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-sync/internal/board"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
	"github.com/rocketscienceinc/tictactoe-sync/internal/presence"
	"github.com/rocketscienceinc/tictactoe-sync/testing/suite"
)

func seed(t *testing.T, backend graph.Backend) {
	t.Helper()

	ctx := context.Background()
	logger := suite.NewLogger()
	// written in the past so a later clear always wins
	peer := graph.NewPeer(backend, graph.WithClock(func() time.Time { return time.UnixMilli(1000) }))

	_, err := presence.NewRegistry(logger, peer, "r1").Join(ctx, "Alice")
	require.NoError(t, err)

	boardSync := board.NewSynchronizer(logger, peer, "r1")
	marks := entity.Board{}
	for _, index := range []int{0, 3, 1, 4, 2} {
		require.NoError(t, boardSync.PlaceMark(ctx, marks, index, marks.Turn()))
		marks[index] = marks.Turn()
	}
}

func TestInspector_Inspect(t *testing.T) {
	ctx := context.Background()
	backend := graph.NewMemory()
	inspector := NewInspector(suite.NewLogger(), backend)

	// Given: a room where X won on the top row
	seed(t, backend)

	// When: inspecting it
	snapshot, err := inspector.Inspect(ctx, "r1")

	// Then: the roster, board and outcome are reported
	require.NoError(t, err)
	require.Len(t, snapshot.Roster, 1)
	assert.Equal(t, "Alice", snapshot.Roster[0].Name)
	assert.Equal(t, entity.Outcome{Status: entity.StatusWin, Winner: entity.SymbolX}, snapshot.Outcome)
	assert.Equal(t, 5, snapshot.Board.Filled())

	// Then: other rooms are untouched
	empty, err := inspector.Inspect(ctx, "r2")
	require.NoError(t, err)
	assert.Empty(t, empty.Roster)
	assert.Equal(t, entity.StatusInProgress, empty.Outcome.Status)
}

func TestInspector_Clear(t *testing.T) {
	ctx := context.Background()
	backend := graph.NewMemory()
	inspector := NewInspector(suite.NewLogger(), backend)
	seed(t, backend)

	require.NoError(t, inspector.Clear(ctx, "r1"))

	snapshot, err := inspector.Inspect(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Roster)
	assert.Equal(t, entity.Board{}, snapshot.Board)
}
