package entity

import (
	"slices"
	"strings"
	"time"
)

type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	JoinedAt int64  `json:"joinedAt"`
}

func NewPlayer(id, name string, joinedAt time.Time) *Player {
	return &Player{
		ID:       id,
		Name:     strings.TrimSpace(name),
		JoinedAt: joinedAt.UnixMilli(),
	}
}

// Roster - live players ordered by join time.
type Roster []Player

// NewRoster - sorts players by JoinedAt; equal timestamps fall back to ID so every peer agrees on the order.
func NewRoster(players []Player) Roster {
	roster := slices.Clone(players)
	slices.SortFunc(roster, func(a, b Player) int {
		if a.JoinedAt != b.JoinedAt {
			if a.JoinedAt < b.JoinedAt {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})

	return roster
}

// Rank - position of the player in the roster, -1 if absent.
func (that Roster) Rank(playerID string) int {
	return slices.IndexFunc(that, func(p Player) bool {
		return p.ID == playerID
	})
}

// SymbolFor - rank 0 plays X, everyone after plays O.
func (that Roster) SymbolFor(playerID string) Symbol {
	switch rank := that.Rank(playerID); {
	case rank < 0:
		return EmptyCell
	case rank == 0:
		return SymbolX
	default:
		return SymbolO
	}
}

func (that Roster) IsFull() bool {
	return len(that) >= 2
}
