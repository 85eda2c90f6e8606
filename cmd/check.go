package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/dmv-monitor/internal/browser"
	"github.com/example/dmv-monitor/internal/config"
	"github.com/example/dmv-monitor/internal/domain"
	"github.com/example/dmv-monitor/internal/logging"
	"github.com/example/dmv-monitor/internal/monitor"
	"github.com/example/dmv-monitor/internal/scanner"
	"github.com/example/dmv-monitor/internal/store"
)

func newCheckCmd() *cobra.Command {
	var locationID int

	c := &cobra.Command{
		Use:   "check",
		Short: "Run one availability check and print the results (no email, no database)",
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

			locations := cfg.ActiveLocations()
			if locationID != 0 {
				var filtered []domain.Location
				for _, loc := range locations {
					if loc.ID == locationID {
						filtered = append(filtered, loc)
					}
				}
				if len(filtered) == 0 {
					return fmt.Errorf("location with ID %d not found", locationID)
				}
				locations = filtered
			}

			driver := browser.New(logger, cfg.Monitoring.Timeouts.PageLoad())
			scn := scanner.New(driver, cfg.Monitoring, cfg.WizardURL, logger)
			svc := monitor.New(scn, nil, store.NewMemory(),
				cfg.BatchSize, cfg.Monitoring.Timeouts.BetweenBatches(), cfg.RetryBackoff, logger)

			result := svc.Run(context.Background(), locations, false)

			if len(result.Appointments) == 0 {
				fmt.Fprintf(os.Stdout, "no matching appointments across %d location(s)\n", result.LocationsChecked)
				return nil
			}
			for _, a := range result.Appointments {
				fmt.Fprintf(os.Stdout, "%s (%d): %s (%s) times=%s\n",
					a.Location, a.LocationID, a.Date, a.DayOfWeek, strings.Join(a.Times, ","))
			}
			return nil
		},
	}

	c.Flags().IntVar(&locationID, "location", 0, "check a single location id")
	return c
}
