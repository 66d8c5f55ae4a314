package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
	"github.com/rocketscienceinc/tictactoe-sync/internal/presence"
	"github.com/rocketscienceinc/tictactoe-sync/internal/room"
	"github.com/rocketscienceinc/tictactoe-sync/testing/suite"
)

type failingInspector struct{}

func (failingInspector) Inspect(context.Context, string) (*room.Snapshot, error) {
	return nil, errors.New("store down")
}

func TestHandlers_Ping(t *testing.T) {
	handlers := NewHandlers(suite.NewLogger(), failingInspector{})

	rec := httptest.NewRecorder()
	handlers.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestHandlers_Room(t *testing.T) {
	t.Run("Returns the room state", func(t *testing.T) {
		// Given: a room with one player
		logger := suite.NewLogger()
		backend := graph.NewMemory()
		_, err := presence.NewRegistry(logger, graph.NewPeer(backend), "r1").Join(context.Background(), "Alice")
		require.NoError(t, err)

		handlers := NewHandlers(logger, room.NewInspector(logger, backend))

		// When: requesting it
		rec := httptest.NewRecorder()
		handlers.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/r1", nil))

		// Then: the snapshot is returned as JSON
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var snapshot room.Snapshot
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&snapshot))
		assert.Equal(t, "r1", snapshot.Room)
		require.Len(t, snapshot.Roster, 1)
		assert.Equal(t, "Alice", snapshot.Roster[0].Name)
		assert.Equal(t, entity.StatusInProgress, snapshot.Outcome.Status)
	})

	t.Run("Store failure is a 500", func(t *testing.T) {
		handlers := NewHandlers(suite.NewLogger(), failingInspector{})

		rec := httptest.NewRecorder()
		handlers.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/r1", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("Only GET is routed", func(t *testing.T) {
		handlers := NewHandlers(suite.NewLogger(), failingInspector{})

		rec := httptest.NewRecorder()
		handlers.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rooms/r1", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
