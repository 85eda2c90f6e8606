package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/dmv-monitor/internal/browser"
	"github.com/example/dmv-monitor/internal/config"
	"github.com/example/dmv-monitor/internal/db"
	"github.com/example/dmv-monitor/internal/logging"
	"github.com/example/dmv-monitor/internal/migrate"
	"github.com/example/dmv-monitor/internal/monitor"
	"github.com/example/dmv-monitor/internal/notify"
	"github.com/example/dmv-monitor/internal/scanner"
	"github.com/example/dmv-monitor/internal/scheduler"
	"github.com/example/dmv-monitor/internal/store"
	"github.com/example/dmv-monitor/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API and periodic checker",
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
			if err := cfg.RequireNotification(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			st := store.NewPostgres(d)
			driver := browser.New(logger, cfg.Monitoring.Timeouts.PageLoad())
			scn := scanner.New(driver, cfg.Monitoring, cfg.WizardURL, logger)
			gate := notify.NewGate(st,
				notify.NewResendMailer(cfg.ResendAPIKey, cfg.FromEmail, cfg.NotificationEmail),
				logger)
			svc := monitor.New(scn, gate, st,
				cfg.BatchSize, cfg.Monitoring.Timeouts.BetweenBatches(), cfg.RetryBackoff, logger)

			locations := cfg.ActiveLocations()

			if cfg.CheckInterval > 0 {
				sched := &scheduler.Scheduler{
					Runner:    svc,
					Locations: locations,
					Interval:  cfg.CheckInterval,
					Logger:    logger,
				}
				go func() { _ = sched.Run(ctx) }()
			}

			ws := web.NewServer(svc, st, locations, cfg.CronSecret, cfg.APIKey, logger)
			return ws.Start(ctx, cfg.ListenAddr)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
