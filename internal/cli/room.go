package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/searchparty-game/searchparty/internal/model"
	"github.com/searchparty-game/searchparty/internal/protocol"
)

func newCreateCmd() *cobra.Command {
	var (
		maxPlayers  int
		maxRounds   int
		autoAdvance bool
	)

	cmd := &cobra.Command{
		Use:   "create <room-name>",
		Short: "Create a room and stay connected as its host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			create := struct {
				Type string `json:"type"`
				protocol.CreateRoom
			}{
				Type: protocol.CmdCreateRoom,
				CreateRoom: protocol.CreateRoom{
					RoomName:    args[0],
					MaxPlayers:  maxPlayers,
					MaxRounds:   maxRounds,
					AutoAdvance: &autoAdvance,
				},
			}
			return runSession(create)
		},
	}

	cmd.Flags().IntVar(&maxPlayers, "max-players", 0, "Player cap (server default if unset)")
	cmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "Round cap (server default if unset)")
	cmd.Flags().BoolVar(&autoAdvance, "auto-advance", true, "Roll into the next round automatically after results")

	return cmd
}

func newJoinCmd() *cobra.Command {
	var playerName string

	cmd := &cobra.Command{
		Use:   "join <room-code>",
		Short: "Join a room and stay connected as a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			join := struct {
				Type string `json:"type"`
				protocol.JoinRoom
			}{
				Type: protocol.CmdJoinRoom,
				JoinRoom: protocol.JoinRoom{
					RoomID:     model.RoomID(args[0]),
					PlayerName: playerName,
				},
			}
			return runSession(join)
		},
	}

	cmd.Flags().StringVar(&playerName, "name", "", "Player name (server assigns a guest name if unset)")

	return cmd
}

// runSession opens a connection, sends the opening command, and relays
// until interrupted.
func runSession(opening any) error {
	out := NewOutput(cfg.Output)

	session, err := Dial(cfg.ServerURL, out, cfg.Verbose)
	if err != nil {
		out.PrintError(err)
		return err
	}
	defer session.Close()

	if err := session.Send(opening); err != nil {
		out.PrintError(err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := session.Run(ctx); err != nil {
		out.PrintError(err)
		return err
	}
	return nil
}
