package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/keshon/moodbot/internal/response"
)

func newGenerateCmd(o *options) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "generate <chat> [input...]",
		Short: "Generate replies for a chat without sending them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open()
			if err != nil {
				return err
			}
			defer a.Close()

			chatID, input := args[0], strings.Join(args[1:], " ")
			replies := make([]string, 0, count)
			for range count {
				replies = append(replies, a.Pipeline.GenerateResponse(cmd.Context(), chatID, input))
			}
			return o.print(cmd.OutOrStdout(), replies, strings.Join(replies, "\n"))
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of replies")
	return cmd
}

func newLearnCmd(o *options) *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "learn <chat> <text...>",
		Short: "Feed a message to the engine as if it was posted in the chat",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Pipeline.Observe(cmd.Context(), response.Message{
				ChatID: args[0],
				Author: author,
				Text:   strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}
			value, band := a.Karma.Profile(cmd.Context(), args[0])
			return o.print(cmd.OutOrStdout(), res, describe(value, band))
		},
	}
	cmd.Flags().StringVar(&author, "author", "cli", "Author name stored with the message")
	return cmd
}
