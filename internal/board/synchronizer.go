// Package board mirrors the 3x3 board of a room through the replicated graph.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
)

// Cell - one observed cell value together with the stamp of the node it came from.
type Cell struct {
	Index  int
	Symbol entity.Symbol
	Stamp  graph.Stamp
}

type Synchronizer struct {
	logger *slog.Logger
	peer   *graph.Peer
	soul   string
}

func NewSynchronizer(logger *slog.Logger, peer *graph.Peer, room string) *Synchronizer {
	return &Synchronizer{
		logger: logger.With("component", "board", "room", room),
		peer:   peer,
		soul:   Soul(room),
	}
}

// Soul - graph soul holding the cells of room.
func Soul(room string) string {
	return room + "/board"
}

// Observe - calls fn for every propagated cell update, echoes of local writes included.
func (that *Synchronizer) Observe(ctx context.Context, fn func(Cell)) error {
	err := that.peer.On(ctx, that.soul, func(node graph.Node) {
		cell, ok := that.decode(node)
		if !ok {
			return
		}
		fn(cell)
	})
	if err != nil {
		return fmt.Errorf("failed to observe board: %w", err)
	}

	return nil
}

// ObserveCell - like Observe, for a single cell.
func (that *Synchronizer) ObserveCell(ctx context.Context, index int, fn func(Cell)) error {
	if !entity.ValidCell(index) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, index)
	}

	return that.Observe(ctx, func(cell Cell) {
		if cell.Index == index {
			fn(cell)
		}
	})
}

// Snapshot - one-shot read of every stored cell.
func (that *Synchronizer) Snapshot(ctx context.Context) ([]Cell, error) {
	nodes, err := that.peer.Map(ctx, that.soul)
	if err != nil {
		return nil, fmt.Errorf("failed to read board: %w", err)
	}

	cells := make([]Cell, 0, len(nodes))
	for _, node := range nodes {
		if cell, ok := that.decode(node); ok {
			cells = append(cells, cell)
		}
	}

	return cells, nil
}

// Board - current board built from a snapshot.
func (that *Synchronizer) Board(ctx context.Context) (entity.Board, error) {
	var board entity.Board

	cells, err := that.Snapshot(ctx)
	if err != nil {
		return board, err
	}

	for _, cell := range cells {
		board[cell.Index] = cell.Symbol
	}

	return board, nil
}

// PlaceMark - writes symbol into index if board allows it. Nothing is written on refusal.
// The write is not acknowledged; success shows up as an Observe notification.
func (that *Synchronizer) PlaceMark(ctx context.Context, board entity.Board, index int, symbol entity.Symbol) error {
	if err := board.CanPlace(symbol, index); err != nil {
		return err
	}

	if err := that.peer.Put(ctx, that.soul, strconv.Itoa(index), symbol); err != nil {
		return fmt.Errorf("failed to place mark: %w", err)
	}

	return nil
}

// Reset - writes an empty value to every cell. Not atomic: on failure the remaining cells are still attempted.
func (that *Synchronizer) Reset(ctx context.Context) error {
	var errs []error
	for index := range entity.BoardSize {
		if err := that.peer.Put(ctx, that.soul, strconv.Itoa(index), nil); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to reset board: %w", err)
	}

	that.logger.Info("board reset")

	return nil
}

func (that *Synchronizer) decode(node graph.Node) (Cell, bool) {
	index, err := strconv.Atoi(node.Key)
	if err != nil || !entity.ValidCell(index) {
		that.logger.Warn("ignoring unknown board key", "key", node.Key)
		return Cell{}, false
	}

	cell := Cell{Index: index, Stamp: node.Stamp()}

	var symbol entity.Symbol
	ok, err := node.Decode(&symbol)
	if err != nil || (ok && symbol != entity.EmptyCell && !symbol.IsValid()) {
		that.logger.Warn("ignoring malformed cell", "key", node.Key, "error", err)
		return Cell{}, false
	}

	cell.Symbol = symbol

	return cell, true
}
