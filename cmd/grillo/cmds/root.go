package cmds

import (
	"os"

	"github.com/spf13/cobra"
)

// RegisterCommands adds the grillo subcommands to root.
func RegisterCommands(root *cobra.Command) {
	root.AddCommand(
		NewAskCommand(),
		NewHistoryCommand(),
		NewUseCommand(),
		NewResetCommand(),
		NewModesCommand(),
		NewReplCommand(),
	)
}

func defaultSender() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}

func addSenderFlag(cmd *cobra.Command) {
	cmd.Flags().String("sender", defaultSender(), "Sender whose thread is used")
}
