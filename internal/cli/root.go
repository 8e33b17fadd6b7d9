// Package cli implements the moodbot operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keshon/moodbot/internal/app"
	"github.com/keshon/moodbot/internal/config"
	"github.com/keshon/moodbot/internal/logging"
)

type options struct {
	driver  string
	path    string
	format  string
	verbose bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "moodbot",
		Short:         "Inspect and administer the moodbot response engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&o.driver, "driver", "", "Storage driver: sqlite or json (default: $STORAGE_DRIVER)")
	root.PersistentFlags().StringVarP(&o.path, "db", "d", "", "Storage path (default: $STORAGE_PATH)")
	root.PersistentFlags().StringVarP(&o.format, "format", "f", "text", "Output format: json or text")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Log engine activity to stderr")

	root.AddCommand(
		newGenerateCmd(o),
		newLearnCmd(o),
		newKarmaCmd(o),
		newStatsCmd(o),
		newBandsCmd(o),
	)
	return root
}

// open loads configuration, applies flag overrides and wires the engine.
func (o *options) open() (*app.App, error) {
	cfg, _, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.driver != "" {
		cfg.StorageDriver = o.driver
	}
	if o.path != "" {
		cfg.StoragePath = o.path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := zerolog.Nop()
	if o.verbose {
		log = logging.New("debug", "")
	}
	return app.New(cfg, log)
}

// print writes v as indented JSON, or text when the format is text.
func (o *options) print(w io.Writer, v any, text string) error {
	if o.format == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
