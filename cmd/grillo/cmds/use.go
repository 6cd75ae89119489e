package cmds

import (
	"fmt"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewUseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use MODE",
		Short: "Choose the mode of a sender, or of the whole namespace with --default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, _ := cmd.Flags().GetString("sender")
			asDefault, _ := cmd.Flags().GetBool("default")

			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
			}()

			mode := types.ParseMode(args[0])
			if asDefault {
				if err := app.Dispatcher.SetDefaultMode(ctx, mode); err != nil {
					return explainModeError(mode, err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "namespace %s now uses %s\n", app.Repo.Namespace(), mode)
				return err
			}

			if err := app.Dispatcher.SetMode(ctx, sender, mode); err != nil {
				return explainModeError(mode, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s now uses %s\n", sender, mode)
			return err
		},
	}
	addSenderFlag(cmd)
	cmd.Flags().Bool("default", false, "Set the namespace default instead of the sender's mode")
	return cmd
}

// explainModeError tells a mode that needs a provider apart from a misspelled one.
func explainModeError(mode types.Mode, err error) error {
	if !errors.Is(err, conversation.ErrUnsupportedMode) {
		return err
	}
	if mode.IsKnown() {
		return errors.Wrapf(err, "no provider is configured for %s", mode)
	}
	return errors.Wrapf(err, "unknown mode %s, see grillo modes", mode)
}
