package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/session"
)

const (
	actionJoin    = "player:join"
	actionClick   = "cell:click"
	actionRestart = "game:restart"
	actionClear   = "data:clear"

	actionHello    = "session:hello"
	actionCell     = "cell:update"
	actionStatus   = "status:update"
	actionRoster   = "roster:update"
	actionControls = "controls:update"
	actionError    = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	Name string `json:"name"`
}

type ClickPayload struct {
	Cell int `json:"cell"`
}

type HelloPayload struct {
	PlayerID string `json:"player_id"`
	Room     string `json:"room"`
}

type CellPayload struct {
	Cell   int           `json:"cell"`
	Symbol entity.Symbol `json:"symbol"`
}

type StatusPayload struct {
	Text string       `json:"text"`
	Tone session.Tone `json:"tone"`
}

type RosterPayload struct {
	Players []session.RosterEntry `json:"players"`
}

type ControlsPayload struct {
	Join    bool `json:"join"`
	Restart bool `json:"restart"`
	Board   bool `json:"board"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
