package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func sendCmd(env *environment) *cobra.Command {
	var flags textFlags
	cmd := &cobra.Command{
		Use:   "send [text...]",
		Short: "Send a safety related text message through a transponder and wait for the acknowledgement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := flags.request(args, "")
			if err != nil {
				return err
			}
			sendRequest, err := request.SendRequest()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			session, closer, err := env.openTransponder(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()

			ack, err := session.Send(ctx, sendRequest, env.cfg.Send.TimeoutDuration())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "message %d with sequence %d: %s\n", ack.MessageID, ack.Sequence, ack.Type)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
