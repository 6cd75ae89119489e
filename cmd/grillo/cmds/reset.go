package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start a new thread on the next prompt of a sender",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, _ := cmd.Flags().GetString("sender")

			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
			}()

			if err := app.Dispatcher.Reset(ctx, sender); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s starts a new conversation\n", sender)
			return err
		},
	}
	addSenderFlag(cmd)
	return cmd
}
