package cmds

import (
	"fmt"
	"io"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/openai"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a conversation thread, oldest exchange first",
		Long: `Print a conversation thread. Without --conversation the current thread of
--sender is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conversationID, _ := cmd.Flags().GetString("conversation")
			parentID, _ := cmd.Flags().GetString("parent")
			sender, _ := cmd.Flags().GetString("sender")
			output, _ := cmd.Flags().GetString("output")

			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
			}()

			if conversationID == "" {
				progress, err := app.Dispatcher.Progress(ctx, sender)
				if err != nil {
					return err
				}
				if progress.ConversationID == "" {
					return errors.Errorf("sender %s has no current conversation", sender)
				}
				conversationID = progress.ConversationID
				if parentID == "" {
					parentID = progress.ParentID
				}
			}

			history, err := app.Repo.GetHistory(ctx, conversationID, parentID)
			if err != nil {
				return err
			}

			switch output {
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(history); err != nil {
					return err
				}
				return enc.Close()
			case "text", "":
				tree, err := app.Repo.GetTree(ctx, conversationID)
				if err != nil {
					return err
				}
				if _, ok := tree.GetMessageByID(history.LeafID()); !ok && history.Len() > 0 {
					log.Warn().
						Str("conversation_id", conversationID).
						Str("parent_id", history.LeafID()).
						Msg("message is not listed in the thread index of the conversation")
				}
				return printHistory(cmd.OutOrStdout(), history, tree, app.Settings.OpenAI.GetModel())
			default:
				return errors.Errorf("unknown output format %s", output)
			}
		},
	}
	addSenderFlag(cmd)
	cmd.Flags().String("conversation", "", "Conversation id")
	cmd.Flags().String("parent", "", "Message the thread ends at (default newest)")
	cmd.Flags().String("output", "text", "Output format (text, yaml)")
	return cmd
}

// printHistory prints the exchanges of history with their token counts. Exchanges that
// were answered more than once are marked with their number of alternatives, and a
// thread cut before its newest message says how it continues.
func printHistory(w io.Writer, history *conversation.Conversation, tree *conversation.ConversationTree, model string) error {
	codec, err := openai.GetCodec(model)
	if err != nil {
		return err
	}

	total := 0
	for _, m := range history.Messages {
		exchange := []*conversation.ChatMessage{
			conversation.NewChatMessage(m.Role, m.Content),
			conversation.NewChatMessage(conversation.RoleAssistant, m.Response),
		}
		n, err := openai.CountTokens(codec, exchange)
		if err != nil {
			return err
		}
		total += n

		branches := ""
		if alternatives := len(tree.FindSiblings(m.MessageID)); alternatives > 0 {
			branches = fmt.Sprintf(", %d alternatives", alternatives)
		}

		_, err = fmt.Fprintf(w, "--- %s (%s, %d tokens%s)\n> %s\n%s\n\n",
			m.MessageID, m.Time.Format("2006-01-02 15:04:05"), n, branches, m.Content, m.Response)
		if err != nil {
			return err
		}
	}

	if children := tree.FindChildren(history.LeafID()); history.Len() > 0 && len(children) > 0 {
		continuation := tree.GetLeftMostThread(children[0])
		_, err = fmt.Fprintf(w, "continues with %d more exchanges, up to %s\n",
			len(continuation), continuation[len(continuation)-1].MessageID)
		if err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(w, "%s: %d exchanges, %d tokens\n", history.ConversationID, history.Len(), total)
	return err
}
