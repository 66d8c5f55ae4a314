package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rocketscienceinc/tictactoe-sync/internal/room"
)

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Room string
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Remove every player and empty the board of a room",
		Long: `Remove every player and empty the board of a room in the configured backend.

Only the redis and sqlite drivers can be cleared from here: the memory driver
keeps its data inside the serving process.

Example:
  tictactoe clear --room lobby`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			conf, logger, err := opts.load()
			if err != nil {
				return err
			}

			roomName, err := roomOrDefault(opts.Room, conf)
			if err != nil {
				return err
			}

			backend, closeBackend, err := openStore(ctx, logger, conf)
			if err != nil {
				return err
			}
			defer closeBackend()

			if err = room.NewInspector(logger, backend).Clear(ctx, roomName); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "room %s cleared\n", roomName)

			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Room, "room", "", "room to clear (default from config)")

	return cmd
}
