package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keshon/moodbot/internal/karma"
)

type moodView struct {
	Chat   string   `json:"chat"`
	Value  int      `json:"value"`
	Band   string   `json:"band"`
	Tone   string   `json:"tone"`
	Traits []string `json:"traits"`
}

func describe(value int, band karma.Band) string {
	return fmt.Sprintf("%d %s [%s] %s", value, band.Name, band.Tone, strings.Join(band.Traits, ", "))
}

func view(chatID string, value int, band karma.Band) moodView {
	return moodView{Chat: chatID, Value: value, Band: band.Name, Tone: band.Tone.String(), Traits: band.Traits}
}

func newKarmaCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "karma",
		Short: "Read and change chat moods",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <chat>",
			Short: "Show the mood of a chat",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := o.open()
				if err != nil {
					return err
				}
				defer a.Close()
				value, band := a.Karma.Profile(cmd.Context(), args[0])
				return o.print(cmd.OutOrStdout(), view(args[0], value, band), describe(value, band))
			},
		},
		&cobra.Command{
			Use:   "set <chat> <value>",
			Short: "Override the mood of a chat",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("value must be an integer: %w", err)
				}
				a, err := o.open()
				if err != nil {
					return err
				}
				defer a.Close()
				if err := a.Karma.Set(cmd.Context(), args[0], value); err != nil {
					return err
				}
				value, band := a.Karma.Profile(cmd.Context(), args[0])
				return o.print(cmd.OutOrStdout(), view(args[0], value, band), describe(value, band))
			},
		},
		&cobra.Command{
			Use:   "update <chat> <delta>",
			Short: "Move the mood of a chat by delta",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				delta, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("delta must be an integer: %w", err)
				}
				a, err := o.open()
				if err != nil {
					return err
				}
				defer a.Close()
				res, err := a.Pipeline.UpdateMood(cmd.Context(), args[0], delta)
				if err != nil {
					return err
				}
				text := describe(res.Value, res.Band)
				if res.Changed {
					text += " (band changed)"
				}
				return o.print(cmd.OutOrStdout(), res, text)
			},
		},
		&cobra.Command{
			Use:   "reset <chat>",
			Short: "Forget the mood and everything learned in a chat",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := o.open()
				if err != nil {
					return err
				}
				defer a.Close()
				if err := a.Pipeline.Forget(cmd.Context(), args[0]); err != nil {
					return err
				}
				return o.print(cmd.OutOrStdout(), map[string]string{"reset": args[0]}, "reset "+args[0])
			},
		},
	)
	return cmd
}
