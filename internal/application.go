package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-sync/internal/config"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
	"github.com/rocketscienceinc/tictactoe-sync/internal/repository"
	"github.com/rocketscienceinc/tictactoe-sync/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-sync/internal/room"
	"github.com/rocketscienceinc/tictactoe-sync/transport/rest"
	"github.com/rocketscienceinc/tictactoe-sync/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	backend, closeBackend, err := OpenBackend(ctx, logger, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closeBackend(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	log.Info("Storage opened", "driver", conf.Store.Driver)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		handlers := rest.NewHandlers(logger, room.NewInspector(logger, backend))
		if httpErr := rest.Start(ctx, conf.HTTPPort, handlers.Routes()); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, backend, conf.Game.DefaultRoom)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// OpenBackend - graph backend selected by conf.Store.Driver, with the function releasing it.
func OpenBackend(ctx context.Context, logger *slog.Logger, conf *config.Config) (graph.Backend, func() error, error) {
	switch conf.Store.Driver {
	case config.DriverRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRedisGraph(logger, redisStorage.Connection), redisStorage.Close, nil
	case config.DriverSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			return nil, nil, errors.Join(fmt.Errorf("could not init sqlite storage: %w", err), sqliteStorage.Close())
		}

		return repository.NewSQLiteGraph(sqliteStorage.Connection), sqliteStorage.Close, nil
	case config.DriverMemory:
		return graph.NewMemory(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", conf.Store.Driver)
	}
}
