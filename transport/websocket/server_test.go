package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
	"github.com/rocketscienceinc/tictactoe-sync/internal/session"
	"github.com/rocketscienceinc/tictactoe-sync/testing/suite"
)

const readTimeout = 2 * time.Second

func newTestServer(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	var clock atomic.Int64
	server := New(suite.NewLogger(), graph.NewMemory(), "lobby",
		WithPeerOptions(graph.WithClock(func() time.Time {
			return time.UnixMilli(clock.Add(1))
		})),
	)

	httpServer := httptest.NewServer(server.Handler(ctx))
	t.Cleanup(func() {
		cancel()
		httpServer.Close()
	})

	return "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: raw}))
}

// expect - reads until a message with action satisfies match.
func expect[T any](t *testing.T, conn *websocket.Conn, action string, match func(T) bool) T {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	for {
		var message Message
		require.NoError(t, conn.ReadJSON(&message), "waiting for %s", action)

		if message.Action != action {
			continue
		}

		var payload T
		require.NoError(t, json.Unmarshal(message.Payload, &payload))

		if match(payload) {
			return payload
		}
	}
}

func expectStatus(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()

	expect(t, conn, actionStatus, func(p StatusPayload) bool { return p.Text == text })
}

func TestServer_Game(t *testing.T) {
	url := newTestServer(t) + "?room=r1"

	// Given: Alice connects and joins
	alice := dial(t, url)
	hello := expect(t, alice, actionHello, func(HelloPayload) bool { return true })
	assert.Equal(t, "r1", hello.Room)
	assert.NotEmpty(t, hello.PlayerID)

	send(t, alice, actionJoin, JoinPayload{Name: "Alice"})
	expectStatus(t, alice, session.StatusWaitingForPlayers)

	// When: Bob joins the same room
	bob := dial(t, url)
	send(t, bob, actionJoin, JoinPayload{Name: "Bob"})

	// Then: Alice is X and moves first
	expectStatus(t, alice, "Your turn (X)")
	expectStatus(t, bob, "Waiting for opponent (O)")

	roster := expect(t, bob, actionRoster, func(p RosterPayload) bool { return len(p.Players) == 2 })
	assert.Equal(t, []session.RosterEntry{{Name: "Alice"}, {Name: "Bob", You: true}}, roster.Players)

	// When: Alice plays the centre
	send(t, alice, actionClick, ClickPayload{Cell: 4})

	// Then: Bob sees the mark and gets the turn
	cell := expect(t, bob, actionCell, func(CellPayload) bool { return true })
	assert.Equal(t, CellPayload{Cell: 4, Symbol: entity.SymbolX}, cell)
	expectStatus(t, bob, "Your turn (O)")
}

func TestServer_Clear(t *testing.T) {
	url := newTestServer(t)

	// Given: a joined player in the default room
	alice := dial(t, url)
	hello := expect(t, alice, actionHello, func(HelloPayload) bool { return true })
	assert.Equal(t, "lobby", hello.Room)

	send(t, alice, actionJoin, JoinPayload{Name: "Alice"})
	expect(t, alice, actionControls, func(p ControlsPayload) bool { return !p.Join })

	// When: clearing all data
	send(t, alice, actionClear, nil)

	// Then: the roster empties and the join form comes back
	expect(t, alice, actionRoster, func(p RosterPayload) bool { return len(p.Players) == 0 })
	expect(t, alice, actionControls, func(p ControlsPayload) bool { return p.Join })
}

func TestServer_UnknownAction(t *testing.T) {
	alice := dial(t, newTestServer(t))

	send(t, alice, "game:cheat", nil)

	payload := expect(t, alice, actionError, func(ErrorPayload) bool { return true })
	assert.Contains(t, payload.Error, "game:cheat")
}
