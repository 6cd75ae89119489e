package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/grillo/pkg/events"
	"github.com/go-go-golems/grillo/pkg/helpers"
	"github.com/lithammer/shortuuid/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tcnksm/go-input"
	"golang.org/x/sync/errgroup"
)

func NewReplCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Chat interactively, prompts go through the message router",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, _ := cmd.Flags().GetString("sender")
			verbose := viper.GetBool("verbose")

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
			}()

			router, err := events.NewChatRouter(app.Dispatcher, events.WithVerbose(verbose))
			if err != nil {
				return err
			}
			defer func() {
				_ = router.Close()
			}()

			replies, err := router.Replies(ctx)
			if err != nil {
				return err
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return router.Run(ctx)
			})
			eg.Go(func() error {
				return printReplies(ctx, cmd.OutOrStdout(), replies)
			})
			eg.Go(func() error {
				defer cancel()
				select {
				case <-router.Running():
				case <-ctx.Done():
					return nil
				}
				return readPrompts(ctx, router, sender, os.Stdin, cmd.OutOrStdout())
			})

			err = eg.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	addSenderFlag(cmd)
	return cmd
}

// printReplies acks every answer after printing it, which unblocks the matching Submit.
func printReplies(ctx context.Context, w io.Writer, replies <-chan *message.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-replies:
			if !ok {
				return nil
			}
			out, err := events.ParseOutbound(msg)
			if err != nil {
				log.Error().Err(err).Str("message_uuid", msg.UUID).Msg("could not parse reply")
				msg.Ack()
				continue
			}
			if out.Error != "" {
				_, err = fmt.Fprintf(w, "error: %s\n\n", out.Error)
			} else {
				_, err = fmt.Fprintf(w, "[%s] %s\n\n", out.Mode, out.Reply)
			}
			msg.Ack()
			if err != nil {
				return err
			}
		}
	}
}

func readPrompts(ctx context.Context, router *events.ChatRouter, sender string, r io.Reader, w io.Writer) error {
	ui := &input.UI{
		Writer: w,
		Reader: r,
	}

	for ctx.Err() == nil {
		prompt, err := ui.Ask("> ", &input.Options{HideOrder: true})
		if err != nil {
			if errors.Is(err, input.ErrInterrupted) {
				return nil
			}
			// EOF on stdin ends the session
			log.Debug().Err(err).Msg("stopped reading prompts")
			return nil
		}
		prompt = strings.TrimSpace(prompt)
		if prompt == "" {
			continue
		}

		turnCtx := helpers.ContextWithCorrelationID(ctx, shortuuid.New())
		if _, err := router.Submit(turnCtx, sender, prompt); err != nil {
			return err
		}
	}
	return nil
}
