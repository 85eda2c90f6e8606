// Package scheduler triggers periodic availability checks for deployments
// without an external cron.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/dmv-monitor/internal/domain"
)

// Runner is the check entry point; satisfied by monitor.Service.
type Runner interface {
	Run(ctx context.Context, locations []domain.Location, notify bool) domain.CheckResult
}

// Scheduler runs a full check on a fixed interval. Ticks are processed
// sequentially; a check that overruns the interval simply delays the next
// one.
type Scheduler struct {
	Runner    Runner
	Locations []domain.Location
	Interval  time.Duration
	Logger    *zap.Logger
}

func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()
	result := s.Runner.Run(ctx, s.Locations, true)

	fields := []zap.Field{
		zap.Int("appointments", len(result.Appointments)),
		zap.Int("locations", result.LocationsChecked),
		zap.Duration("took", time.Since(start)),
	}
	if result.Error != "" {
		fields = append(fields, zap.String("error", result.Error))
	}
	s.Logger.Info("scheduled check finished", fields...)
}
