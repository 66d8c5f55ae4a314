// Package room reads and wipes a room's replicated state outside of a game session.
package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-sync/internal/board"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
	"github.com/rocketscienceinc/tictactoe-sync/internal/presence"
)

type Snapshot struct {
	Room    string         `json:"room"`
	Roster  entity.Roster  `json:"roster"`
	Board   entity.Board   `json:"board"`
	Outcome entity.Outcome `json:"outcome"`
}

type Inspector struct {
	logger  *slog.Logger
	backend graph.Backend
}

func NewInspector(logger *slog.Logger, backend graph.Backend) *Inspector {
	return &Inspector{
		logger:  logger.With("component", "room"),
		backend: backend,
	}
}

// Inspect - current roster, board and outcome of room.
func (that *Inspector) Inspect(ctx context.Context, room string) (*Snapshot, error) {
	peer := graph.NewPeer(that.backend)

	roster, err := presence.NewRegistry(that.logger, peer, room).Roster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect room %s: %w", room, err)
	}

	b, err := board.NewSynchronizer(that.logger, peer, room).Board(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect room %s: %w", room, err)
	}

	return &Snapshot{
		Room:    room,
		Roster:  roster,
		Board:   b,
		Outcome: b.Evaluate(),
	}, nil
}

// Clear - removes every player record of room and empties its board.
func (that *Inspector) Clear(ctx context.Context, room string) error {
	peer := graph.NewPeer(that.backend)

	err := errors.Join(
		presence.NewRegistry(that.logger, peer, room).ClearAll(ctx),
		board.NewSynchronizer(that.logger, peer, room).Reset(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to clear room %s: %w", room, err)
	}

	return nil
}
