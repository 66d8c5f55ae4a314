// Package cli is the command line entry point: serving games and inspecting rooms.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/tictactoe-sync/internal"
	"github.com/rocketscienceinc/tictactoe-sync/internal/config"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
)

// ErrMemoryStore is returned by room commands run against the memory driver,
// whose data lives only inside the serving process.
var ErrMemoryStore = errors.New("the memory store is private to the serving process, configure the redis or sqlite driver")

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tictactoe",
		Short: "Two-player tic-tac-toe synced through a replicated graph",
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config.yml", "path to the config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))

	return cmd
}

func (that *RootOptions) load() (*config.Config, *slog.Logger, error) {
	conf, err := config.Load(that.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	return conf, newLogger(conf), nil
}

func newLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func roomOrDefault(room string, conf *config.Config) (string, error) {
	if room == "" {
		room = conf.Game.DefaultRoom
	}

	if room == "" {
		return "", errors.New("no room given and no default room configured")
	}

	return room, nil
}

// openStore - opens the configured backend for a room command. The returned func closes it.
func openStore(ctx context.Context, logger *slog.Logger, conf *config.Config) (graph.Backend, func(), error) {
	if conf.Store.Driver == config.DriverMemory {
		return nil, nil, ErrMemoryStore
	}

	backend, closeBackend, err := app.OpenBackend(ctx, logger, conf)
	if err != nil {
		return nil, nil, err
	}

	return backend, logClose(logger, closeBackend), nil
}

func logClose(logger *slog.Logger, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			logger.Error("could not close storage", "error", err)
		}
	}
}
