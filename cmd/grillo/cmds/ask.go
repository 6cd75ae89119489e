package cmds

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask PROMPT...",
		Short: "Send a prompt as the next message of the sender's thread",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, _ := cmd.Flags().GetString("sender")
			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt == "" {
				return errors.New("empty prompt")
			}

			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
			}()

			resp, err := app.Dispatcher.Dispatch(ctx, sender, prompt)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return err
		},
	}
	addSenderFlag(cmd)
	return cmd
}
