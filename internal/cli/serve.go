package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/tictactoe-sync/internal"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Start the REST and websocket servers",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			conf, logger, err := rootOpts.load()
			if err != nil {
				return err
			}

			if err = app.RunApp(logger, conf); err != nil {
				return fmt.Errorf("app run failed: %w", err)
			}

			return nil
		},
	}
}
