package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/room"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Room string
	JSON bool
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the roster, board and outcome of a room",
		Long: `Print the roster, board and outcome of a room as stored in the configured backend.
The redis and sqlite drivers are supported; the memory driver keeps its data inside
the serving process and cannot be inspected from here.

Example:
  tictactoe inspect --room lobby
  tictactoe inspect --room lobby --json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inspectRoom(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Room, "room", "", "room to inspect (default from config)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print JSON instead of text")

	return cmd
}

func inspectRoom(ctx context.Context, opts *InspectOptions, out io.Writer) error {
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

	snapshot, err := room.NewInspector(logger, backend).Inspect(ctx, roomName)
	if err != nil {
		return err
	}

	if opts.JSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(snapshot)
	}

	_, err = io.WriteString(out, formatSnapshot(snapshot))

	return err
}

func formatSnapshot(snapshot *room.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "room: %s\n", snapshot.Room)

	b.WriteString("players:\n")
	if len(snapshot.Roster) == 0 {
		b.WriteString("  (none)\n")
	}
	for i, player := range snapshot.Roster {
		symbol := snapshot.Roster.SymbolFor(player.ID)
		if i >= 2 {
			symbol = "-"
		}
		fmt.Fprintf(&b, "  %d. %s (%s)\n", i+1, player.Name, symbol)
	}

	b.WriteString("board:\n")
	for row := range 3 {
		cells := make([]string, 3)
		for col := range cells {
			cells[col] = string(snapshot.Board[row*3+col])
			if cells[col] == string(entity.EmptyCell) {
				cells[col] = "."
			}
		}
		fmt.Fprintf(&b, "  %s\n", strings.Join(cells, " "))
	}

	switch snapshot.Outcome.Status {
	case entity.StatusWin:
		fmt.Fprintf(&b, "outcome: player %s wins\n", snapshot.Outcome.Winner)
	case entity.StatusDraw:
		b.WriteString("outcome: draw\n")
	default:
		fmt.Fprintf(&b, "outcome: in progress, %s to move\n", snapshot.Board.Turn())
	}

	return b.String()
}
