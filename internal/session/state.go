package session

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

type Phase string

const (
	PhaseJoin              Phase = "join"
	PhaseWaitingForPlayers Phase = "waiting_for_players"
	PhaseAssigning         Phase = "assigning"
	PhaseInProgress        Phase = "in_progress"
	PhaseWin               Phase = "win"
	PhaseDraw              Phase = "draw"
	PhaseResetting         Phase = "resetting"
)

type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneActive  Tone = "active"
	ToneWaiting Tone = "waiting"
	ToneWin     Tone = "win"
	ToneDraw    Tone = "draw"
)

const StatusWaitingForPlayers = "Waiting for other players..."

// State - local, non-replicated view of one session.
type State struct {
	Player *entity.Player
	Symbol entity.Symbol
	// Pinned is set once the session holds one of the first two seats; the symbol no longer follows roster changes.
	Pinned bool
	// Resetting is set from a restart until every tombstoned cell has been echoed back by the store.
	Resetting bool
	Board     entity.Board
	Roster    entity.Roster
	Phase     Phase
}

func (that State) clone() State {
	if that.Player != nil {
		player := *that.Player
		that.Player = &player
	}
	that.Roster = append(entity.Roster(nil), that.Roster...)

	return that
}

type status struct {
	text string
	tone Tone
}

type controls struct {
	join    bool
	restart bool
	board   bool
}

// derive - phase, status line and controls for state. Pure.
func derive(state State) (Phase, status, controls) {
	phase, st, ctl := deriveBoard(state)
	if state.Resetting {
		return PhaseResetting, st, controls{join: ctl.join, restart: false, board: false}
	}

	return phase, st, ctl
}

func deriveBoard(state State) (Phase, status, controls) {
	joined := state.Player != nil

	switch outcome := state.Board.Evaluate(); outcome.Status {
	case entity.StatusWin:
		return PhaseWin,
			status{text: fmt.Sprintf("Player %s wins!", outcome.Winner), tone: ToneWin},
			controls{join: !joined, restart: true, board: false}
	case entity.StatusDraw:
		return PhaseDraw,
			status{text: "Draw!", tone: ToneDraw},
			controls{join: !joined, restart: true, board: false}
	}

	ongoing := controls{join: !joined, restart: false, board: true}

	switch {
	case !joined:
		return PhaseJoin, status{tone: ToneNeutral}, ongoing
	case !state.Roster.IsFull() || !state.Symbol.IsValid():
		return PhaseWaitingForPlayers, status{text: StatusWaitingForPlayers, tone: ToneWaiting}, ongoing
	}

	// a session past the first two seats keeps following the roster until one frees up
	phase := PhaseInProgress
	if !state.Pinned {
		phase = PhaseAssigning
	}

	if state.Board.Turn() == state.Symbol {
		return phase, status{text: fmt.Sprintf("Your turn (%s)", state.Symbol), tone: ToneActive}, ongoing
	}

	return phase, status{text: fmt.Sprintf("Waiting for opponent (%s)", state.Symbol), tone: ToneWaiting}, ongoing
}
