package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-sync/internal/room"
)

type inspector interface {
	Inspect(ctx context.Context, room string) (*room.Snapshot, error)
}

type Handlers struct {
	logger    *slog.Logger
	inspector inspector
}

func NewHandlers(logger *slog.Logger, inspector inspector) *Handlers {
	return &Handlers{
		logger:    logger.With("component", "rest"),
		inspector: inspector,
	}
}

// Routes - every REST endpoint.
func (that *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.PingHandler)
	mux.HandleFunc("GET /api/rooms/{room}", that.RoomHandler)

	return mux
}

// RoomHandler - roster, board and outcome of a room.
func (that *Handlers) RoomHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "RoomHandler")

	snapshot, err := that.inspector.Inspect(r.Context(), r.PathValue("room"))
	if err != nil {
		log.Error("failed to inspect room", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err = json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}
