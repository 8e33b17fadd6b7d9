package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keshon/moodbot/internal/karma"
	"github.com/keshon/moodbot/internal/storage"
)

type statsView struct {
	storage.Stats
	CachedWords int    `json:"cached_words"`
	CacheState  string `json:"cache_state"`
}

func newStatsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show storage and vocabulary statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open()
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.Store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Cache.RefreshIfStale(cmd.Context()); err != nil {
				return err
			}
			v := statsView{Stats: st, CachedWords: a.Cache.Len(), CacheState: a.Cache.State().String()}
			text := fmt.Sprintf("words: %d\nmessages: %d\nmoods: %d\ncached words: %d (%s)",
				st.Words, st.Messages, st.Moods, v.CachedWords, v.CacheState)
			return o.print(cmd.OutOrStdout(), v, text)
		},
	}
}

func newBandsCmd(o *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "bands",
		Short: "List the mood bands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bands := karma.DefaultBands()
			if file != "" {
				var err error
				if bands, err = karma.LoadBands(file); err != nil {
					return err
				}
			}

			all := bands.All()
			var b strings.Builder
			for _, band := range all {
				fmt.Fprintf(&b, "%6d  %-8s %s  %s\n", band.Floor, band.Tone, band.Name, strings.Join(band.Traits, ", "))
			}
			return o.print(cmd.OutOrStdout(), all, strings.TrimRight(b.String(), "\n"))
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML band overrides to apply")
	return cmd
}
