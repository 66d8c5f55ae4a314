// Package presence keeps the replicated roster of players in a room.
package presence

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
)

type Registry struct {
	logger *slog.Logger
	peer   *graph.Peer
	soul   string
}

func NewRegistry(logger *slog.Logger, peer *graph.Peer, room string) *Registry {
	return &Registry{
		logger: logger.With("component", "presence", "room", room),
		peer:   peer,
		soul:   Soul(room),
	}
}

// Soul - graph soul holding the players of room.
func Soul(room string) string {
	return room + "/players"
}

// Join - writes a record for the local peer. Blank names are rejected without writing.
func (that *Registry) Join(ctx context.Context, name string) (*entity.Player, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperror.ErrEmptyName
	}

	player := entity.NewPlayer(that.peer.ID(), name, that.peer.Now())

	if err := that.peer.Put(ctx, that.soul, player.ID, player); err != nil {
		return nil, fmt.Errorf("failed to save player: %w", err)
	}

	that.logger.Info("player joined", "playerID", player.ID, "name", player.Name)

	return player, nil
}

// OnRosterChanged - calls fn after any record is added, changed or removed.
// fn carries no data: callers re-read the roster, so repeated or stale calls are harmless.
func (that *Registry) OnRosterChanged(ctx context.Context, fn func()) error {
	if err := that.peer.On(ctx, that.soul, func(graph.Node) { fn() }); err != nil {
		return fmt.Errorf("failed to watch roster: %w", err)
	}

	return nil
}

// Roster - live players ordered by join time, read fresh from the graph.
func (that *Registry) Roster(ctx context.Context) (entity.Roster, error) {
	nodes, err := that.peer.Map(ctx, that.soul)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	players := make([]entity.Player, 0, len(nodes))
	for _, node := range nodes {
		var player entity.Player

		ok, err := node.Decode(&player)
		if err != nil {
			that.logger.Warn("skipping malformed player record", "key", node.Key, "error", err)
			continue
		}

		if !ok || player.ID == "" {
			continue
		}

		players = append(players, player)
	}

	return entity.NewRoster(players), nil
}

// ListRoster - lazy enumeration of the roster. Every range takes a new snapshot;
// a failed read yields nothing.
func (that *Registry) ListRoster(ctx context.Context) iter.Seq[entity.Player] {
	return func(yield func(entity.Player) bool) {
		roster, err := that.Roster(ctx)
		if err != nil {
			that.logger.Error("failed to list roster", "error", err)
			return
		}

		for _, player := range roster {
			if !yield(player) {
				return
			}
		}
	}
}

// ClearAll - tombstones every known record. Keeps going past failures.
func (that *Registry) ClearAll(ctx context.Context) error {
	nodes, err := that.peer.Map(ctx, that.soul)
	if err != nil {
		return fmt.Errorf("failed to read roster: %w", err)
	}

	var errs []error
	cleared := 0
	for _, node := range nodes {
		if node.IsTombstone() {
			continue
		}

		if err = that.peer.Put(ctx, that.soul, node.Key, nil); err != nil {
			errs = append(errs, err)
			continue
		}
		cleared++
	}

	that.logger.Info("roster cleared", "records", cleared)

	return errors.Join(errs...)
}
