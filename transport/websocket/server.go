package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-sync/internal/board"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
	"github.com/rocketscienceinc/tictactoe-sync/internal/presence"
	"github.com/rocketscienceinc/tictactoe-sync/internal/session"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger      *slog.Logger
	backend     graph.Backend
	defaultRoom string
	peerOptions []graph.PeerOption
	upgrader    websocket.Upgrader

	handlers map[string]func(ctx context.Context, client *client, message *Message) error
}

type Option func(*Server)

// WithPeerOptions - options applied to the graph peer created for every connection.
func WithPeerOptions(opts ...graph.PeerOption) Option {
	return func(s *Server) {
		s.peerOptions = append(s.peerOptions, opts...)
	}
}

func New(logger *slog.Logger, backend graph.Backend, defaultRoom string, opts ...Option) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		backend:     backend,
		defaultRoom: defaultRoom,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]func(context.Context, *client, *Message) error),
	}

	for _, opt := range opts {
		opt(server)
	}

	server.handlers[actionJoin] = server.handleJoin
	server.handlers[actionClick] = server.handleClick
	server.handlers[actionRestart] = server.handleRestart
	server.handlers[actionClear] = server.handleClear

	return server
}

// Handler - http handler serving /ws. Sessions end when ctx is done or the connection closes.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWS(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWS - upgrades the connection and runs one session on it until either side goes away.
func (that *Server) serveWS(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	room := req.URL.Query().Get("room")
	if room == "" {
		room = that.defaultRoom
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	peer := graph.NewPeer(that.backend, that.peerOptions...)
	logger := that.logger.With("room", room, "peerID", peer.ID())

	client := newClient(logger, conn)
	client.controller = session.New(
		logger,
		presence.NewRegistry(logger, peer, room),
		board.NewSynchronizer(logger, peer, room),
		&clientView{client: client},
	)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-sessionCtx.Done():
			client.close()
		case <-client.done:
		}
	}()

	go client.writePump()

	client.enqueue(actionHello, HelloPayload{PlayerID: peer.ID(), Room: room})

	go func() {
		if err := client.controller.Run(sessionCtx); err != nil {
			logger.Error("session failed", "error", err)
			client.close()
		}
	}()

	logger.Info("WebSocket connection established")

	client.readPump(func(message *Message) {
		handler, ok := that.handlers[message.Action]
		if !ok {
			logger.Warn("unknown action", "action", message.Action)
			client.enqueue(actionError, ErrorPayload{Error: "unknown action " + message.Action})
			return
		}

		if err := handler(sessionCtx, client, message); err != nil {
			logger.Error("error processing message", "action", message.Action, "error", err)
			client.enqueue(actionError, ErrorPayload{Error: err.Error()})
		}
	})

	logger.Info("WebSocket connection closed")
}
