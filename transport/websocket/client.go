package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// client - one websocket connection bound to one game session.
type client struct {
	logger *slog.Logger
	conn   *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	controller *session.Controller
}

func newClient(logger *slog.Logger, conn *websocket.Conn) *client {
	return &client{
		logger: logger,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue - never blocks. A client too slow to drain its buffer is disconnected.
func (that *client) enqueue(action string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		that.logger.Error("failed to marshal payload", "action", action, "error", err)
		return
	}

	message, err := json.Marshal(Message{Action: action, Payload: raw})
	if err != nil {
		that.logger.Error("failed to marshal message", "action", action, "error", err)
		return
	}

	select {
	case <-that.done:
	case that.send <- message:
	default:
		that.logger.Warn("send buffer full, dropping client")
		that.close()
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

func (that *client) readPump(handle func(*Message)) {
	defer that.close()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var message Message
		if err := that.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				that.logger.Error("failed to read message", "error", err)
			}
			return
		}

		handle(&message)
	}
}

func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.conn.Close()
	}()

	for {
		select {
		case <-that.done:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				that.logger.Error("failed to write message", "error", err)
				that.close()
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.close()
				return
			}
		}
	}
}

// clientView - session.View rendering into websocket messages. Only called from the session loop.
type clientView struct {
	client   *client
	controls ControlsPayload
}

func (that *clientView) RenderCell(index int, symbol entity.Symbol) {
	that.client.enqueue(actionCell, CellPayload{Cell: index, Symbol: symbol})
}

func (that *clientView) RenderStatus(text string, tone session.Tone) {
	that.client.enqueue(actionStatus, StatusPayload{Text: text, Tone: tone})
}

func (that *clientView) RenderRoster(entries []session.RosterEntry) {
	that.client.enqueue(actionRoster, RosterPayload{Players: entries})
}

func (that *clientView) ShowJoin(visible bool) {
	that.controls.Join = visible
	that.client.enqueue(actionControls, that.controls)
}

func (that *clientView) ShowRestart(visible bool) {
	that.controls.Restart = visible
	that.client.enqueue(actionControls, that.controls)
}

func (that *clientView) EnableBoard(enabled bool) {
	that.controls.Board = enabled
	that.client.enqueue(actionControls, that.controls)
}
