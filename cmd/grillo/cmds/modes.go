package cmds

import (
	"fmt"
	"io"

	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/spf13/cobra"
)

func NewModesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List the registered modes, and the known ones without a provider",
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

			progress, err := app.Dispatcher.Progress(ctx, sender)
			if err != nil {
				return err
			}
			current, err := app.Dispatcher.ResolveMode(ctx, progress)
			if err != nil {
				return err
			}

			return printModes(cmd.OutOrStdout(), app.Dispatcher.Registry(), current)
		},
	}
	addSenderFlag(cmd)
	return cmd
}

// printModes marks the current mode with a star. Known modes nothing serves are listed
// last.
func printModes(w io.Writer, registry *chat.Registry, current types.Mode) error {
	for _, m := range registry.Modes() {
		marker := " "
		if m == current {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", marker, m); err != nil {
			return err
		}
	}

	for _, m := range types.KnownModes() {
		if _, err := registry.Lookup(m); err == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %s (no provider)\n", m); err != nil {
			return err
		}
	}
	return nil
}
