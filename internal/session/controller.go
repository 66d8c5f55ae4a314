// Package session reconciles one client's view of a room with the replicated graph.
//
// A Controller owns the local session state and processes store notifications and
// user input strictly one at a time on its own loop. Bursts of roster notifications
// are coalesced into a single fresh roster read, so symbol assignment never depends
// on how the store fans out partial snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/board"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
)

// View - outputs to the UI. Calls come from the controller loop and must not block for long.
type View interface {
	RenderCell(index int, symbol entity.Symbol)
	RenderStatus(text string, tone Tone)
	RenderRoster(entries []RosterEntry)
	ShowJoin(visible bool)
	ShowRestart(visible bool)
	EnableBoard(enabled bool)
}

type RosterEntry struct {
	Name string `json:"name"`
	You  bool   `json:"you"`
}

type registry interface {
	Join(ctx context.Context, name string) (*entity.Player, error)
	OnRosterChanged(ctx context.Context, fn func()) error
	Roster(ctx context.Context) (entity.Roster, error)
	ClearAll(ctx context.Context) error
}

type synchronizer interface {
	Observe(ctx context.Context, fn func(board.Cell)) error
	Snapshot(ctx context.Context) ([]board.Cell, error)
	PlaceMark(ctx context.Context, b entity.Board, index int, symbol entity.Symbol) error
	Reset(ctx context.Context) error
}

type Controller struct {
	logger   *slog.Logger
	registry registry
	board    synchronizer
	view     View
	queue    *queue

	mu     sync.RWMutex
	state  State
	stamps [entity.BoardSize]graph.Stamp
	// cells whose reset has not been echoed back yet
	pending [entity.BoardSize]bool

	rendered     bool
	lastStatus   status
	lastControls controls
}

func New(logger *slog.Logger, registry registry, synchronizer synchronizer, view View) *Controller {
	return &Controller{
		logger:   logger.With("component", "session"),
		registry: registry,
		board:    synchronizer,
		view:     view,
		queue:    newQueue(),
		state:    State{Phase: PhaseJoin},
	}
}

// Run - subscribes to the room and processes events until ctx is done.
func (that *Controller) Run(ctx context.Context) error {
	err := that.registry.OnRosterChanged(ctx, func() {
		that.queue.push(event{kind: eventRosterChanged})
	})
	if err != nil {
		return fmt.Errorf("failed to watch roster: %w", err)
	}

	err = that.board.Observe(ctx, func(cell board.Cell) {
		that.queue.push(event{kind: eventCellChanged, cell: cell})
	})
	if err != nil {
		return fmt.Errorf("failed to watch board: %w", err)
	}

	// subscribed first, so nothing written after this snapshot can be missed
	cells, err := that.board.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}

	for _, cell := range cells {
		that.queue.push(event{kind: eventCellChanged, cell: cell})
	}
	that.queue.push(event{kind: eventRosterChanged})

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-that.queue.ready:
			that.handle(ctx, that.queue.drain())
		}
	}
}

// Join - asks to join under name. Blank names are ignored.
func (that *Controller) Join(name string) {
	that.queue.push(event{kind: eventJoin, name: name})
}

// ClickCell - asks to place the local symbol into index. Invalid clicks are ignored.
func (that *Controller) ClickCell(index int) {
	that.queue.push(event{kind: eventClickCell, index: index})
}

func (that *Controller) Restart() {
	that.queue.push(event{kind: eventRestart})
}

// Clear - removes every player record and the board, and returns this session to join mode.
func (that *Controller) Clear() {
	that.queue.push(event{kind: eventClear})
}

// State - copy of the current session state.
func (that *Controller) State() State {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.state.clone()
}

func (that *Controller) handle(ctx context.Context, events []event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	rosterDirty := false
	for _, ev := range events {
		// input is judged against an up to date roster
		if ev.kind != eventRosterChanged && ev.kind != eventCellChanged && rosterDirty {
			that.refreshRoster(ctx)
			rosterDirty = false
		}

		switch ev.kind {
		case eventRosterChanged:
			rosterDirty = true
		case eventCellChanged:
			that.applyCell(ev.cell)
		case eventJoin:
			rosterDirty = that.join(ctx, ev.name)
		case eventClickCell:
			that.placeMark(ctx, ev.index)
		case eventRestart:
			that.reset(ctx)
		case eventClear:
			that.clear(ctx)
			rosterDirty = true
		}
	}

	if rosterDirty {
		that.refreshRoster(ctx)
	}

	that.render()
}

// applyCell - mirrors a store notification into the cache unless an equal or newer node was already seen.
func (that *Controller) applyCell(cell board.Cell) {
	if !cell.Stamp.After(that.stamps[cell.Index]) {
		return
	}
	that.stamps[cell.Index] = cell.Stamp
	that.settle(cell.Index)

	if that.state.Board[cell.Index] == cell.Symbol {
		return
	}

	that.state.Board[cell.Index] = cell.Symbol
	that.view.RenderCell(cell.Index, cell.Symbol)
}

// settle - a newer node for a cell ends its wait, whether it is the tombstone or a mark that beat it.
func (that *Controller) settle(index int) {
	if !that.state.Resetting {
		return
	}

	that.pending[index] = false
	for _, waiting := range that.pending {
		if waiting {
			return
		}
	}

	that.state.Resetting = false
}

func (that *Controller) join(ctx context.Context, name string) bool {
	log := that.logger.With("method", "join")

	if that.state.Player != nil {
		log.Debug("ignoring action", "error", apperror.ErrAlreadyJoined)
		return false
	}

	player, err := that.registry.Join(ctx, name)
	if err != nil {
		that.ignore(log, err)
		return false
	}

	that.state.Player = player
	that.state.Phase = PhaseWaitingForPlayers
	that.logger = that.logger.With("playerID", player.ID)

	return true
}

func (that *Controller) placeMark(ctx context.Context, index int) {
	log := that.logger.With("method", "placeMark", "cell", index)

	if that.state.Player == nil {
		log.Debug("ignoring action", "error", apperror.ErrNotJoined)
		return
	}

	if err := that.board.PlaceMark(ctx, that.state.Board, index, that.state.Symbol); err != nil {
		that.ignore(log, err)
	}
}

func (that *Controller) refreshRoster(ctx context.Context) {
	log := that.logger.With("method", "refreshRoster")

	roster, err := that.registry.Roster(ctx)
	if err != nil {
		log.Error("failed to read roster", "error", err)
		return
	}

	that.state.Roster = roster

	player := that.state.Player

	entries := make([]RosterEntry, 0, len(roster))
	for _, p := range roster {
		entries = append(entries, RosterEntry{Name: p.Name, You: player != nil && p.ID == player.ID})
	}
	that.view.RenderRoster(entries)

	if player == nil {
		return
	}

	rank := roster.Rank(player.ID)
	if rank < 0 {
		log.Info("local player was removed from the roster")
		that.leave()
		return
	}

	if that.state.Pinned {
		return
	}

	that.state.Symbol = roster.SymbolFor(player.ID)

	if roster.IsFull() && rank < 2 {
		that.state.Pinned = true
		log.Info("symbol assigned", "symbol", that.state.Symbol)
	}
}

// reset - tombstones every cell. The cache is not touched here: cells empty as the
// tombstones come back, so a tombstone that lost to a newer mark never hides it.
func (that *Controller) reset(ctx context.Context) {
	for index, symbol := range that.state.Board {
		that.pending[index] = symbol != entity.EmptyCell
		that.state.Resetting = that.state.Resetting || that.pending[index]
	}

	if err := that.board.Reset(ctx); err != nil {
		that.pending = [entity.BoardSize]bool{}
		that.state.Resetting = false
		that.ignore(that.logger.With("method", "reset"), err)
	}
}

func (that *Controller) clear(ctx context.Context) {
	log := that.logger.With("method", "clear")

	if err := that.registry.ClearAll(ctx); err != nil {
		log.Error("failed to clear roster", "error", err)
	}

	that.reset(ctx)
	that.leave()
}

func (that *Controller) leave() {
	that.state.Player = nil
	that.state.Symbol = entity.EmptyCell
	that.state.Pinned = false
	that.state.Resetting = false
	that.state.Phase = PhaseJoin
	that.pending = [entity.BoardSize]bool{}
}

func (that *Controller) render() {
	phase, st, ctl := derive(that.state)

	if phase != that.state.Phase {
		that.logger.Debug("phase changed", "from", that.state.Phase, "to", phase)
	}
	that.state.Phase = phase

	if !that.rendered || st != that.lastStatus {
		that.view.RenderStatus(st.text, st.tone)
	}

	if !that.rendered || ctl.join != that.lastControls.join {
		that.view.ShowJoin(ctl.join)
	}

	if !that.rendered || ctl.restart != that.lastControls.restart {
		that.view.ShowRestart(ctl.restart)
	}

	if !that.rendered || ctl.board != that.lastControls.board {
		that.view.EnableBoard(ctl.board)
	}

	that.rendered = true
	that.lastStatus = st
	that.lastControls = ctl
}

var invalidActions = []error{
	apperror.ErrEmptyName,
	apperror.ErrAlreadyJoined,
	apperror.ErrNotJoined,
	apperror.ErrNoSymbol,
	apperror.ErrInvalidCell,
	apperror.ErrCellOccupied,
	apperror.ErrNotYourTurn,
	apperror.ErrGameFinished,
	graph.ErrSuperseded,
}

// ignore - invalid actions and lost races are silent no-ops; anything else is a store failure worth logging.
func (that *Controller) ignore(log *slog.Logger, err error) {
	for _, invalid := range invalidActions {
		if errors.Is(err, invalid) {
			log.Debug("ignoring action", "error", err)
			return
		}
	}

	log.Error("action failed", "error", err)
}
