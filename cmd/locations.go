package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/dmv-monitor/internal/config"
	"github.com/example/dmv-monitor/internal/logging"
)

func newLocationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List the configured locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.FromEnv(logger)
			if err != nil {
				return err
			}

			for _, loc := range cfg.Locations {
				status := ""
				if loc.Skip {
					status = " (skipped)"
				}
				fmt.Fprintf(os.Stdout, "id=%d name=%q%s\n", loc.ID, loc.Name, status)
			}
			return nil
		},
	}
}
