// Package monitor orchestrates a full availability check: batched location
// scans with retry, the notification gate, and the rolling run history.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/dmv-monitor/internal/domain"
	"github.com/example/dmv-monitor/internal/store"
)

// Rolling history keys and caps.
const (
	latestCheckKey = "latest-check"
	latestCheckTTL = time.Hour
	historyListKey = "check-history"
	historyCap     = 100
	errorListKey   = "check-errors"
	errorCap       = 50
)

// Scanner checks one location. A returned error means the whole per-location
// routine failed (the session itself broke) and is retried once.
type Scanner interface {
	Scan(ctx context.Context, loc domain.Location) ([]domain.Appointment, error)
}

// Gate decides whether the discovered set warrants an email.
type Gate interface {
	MaybeNotify(ctx context.Context, appointments []domain.Appointment) (bool, error)
}

// Service runs checks across all configured locations.
type Service struct {
	scanner    Scanner
	gate       Gate
	store      store.Store
	logger     *zap.Logger
	batchSize  int
	batchDelay time.Duration
	backoff    time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration)
}

func New(scn Scanner, gate Gate, st store.Store, batchSize int, batchDelay, retryBackoff time.Duration, logger *zap.Logger) *Service {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Service{
		scanner:    scn,
		gate:       gate,
		store:      st,
		logger:     logger,
		batchSize:  batchSize,
		batchDelay: batchDelay,
		backoff:    retryBackoff,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Run scans every location and, when notify is set, pushes the result through
// the notification gate and records it in the rolling history. Run never
// returns an error: failures are folded into the CheckResult.
func (s *Service) Run(ctx context.Context, locations []domain.Location, notify bool) (result domain.CheckResult) {
	start := s.now()
	result = domain.CheckResult{
		Timestamp:        start,
		LocationsChecked: len(locations),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("check run panicked: %v", r)
			s.logger.Error("check run panicked", zap.Any("panic", r))
			s.recordError(ctx, result.Error, s.now().Sub(start))
		}
	}()

	result.Appointments = s.scanAll(ctx, locations)

	if notify {
		if len(result.Appointments) > 0 {
			s.logger.Info("appointments found, consulting notification gate",
				zap.Int("count", len(result.Appointments)))
			if _, err := s.gate.MaybeNotify(ctx, result.Appointments); err != nil {
				// Soft failure: the run still reports what it found, and no
				// suppression record exists, so the next run retries the send.
				s.logger.Error("notification failed", zap.Error(err))
				result.Error = "failed to send notification"
			}
			if err := s.store.Set(ctx, latestCheckKey, result, latestCheckTTL); err != nil {
				s.logger.Warn("store latest check", zap.Error(err))
			}
		} else {
			s.logger.Info("no appointments matched the monitoring rules")
		}
		s.recordHistory(ctx, len(result.Appointments), len(locations), s.now().Sub(start))
	}

	result.Success = true
	return result
}

// scanAll partitions locations into sequential batches; scans within a batch
// run concurrently, each retried exactly once on failure. A location that
// fails twice contributes zero appointments and never fails the run.
func (s *Service) scanAll(ctx context.Context, locations []domain.Location) []domain.Appointment {
	var all []domain.Appointment

	for batchStart := 0; batchStart < len(locations); batchStart += s.batchSize {
		if batchStart > 0 {
			s.sleep(ctx, s.batchDelay)
		}

		end := batchStart + s.batchSize
		if end > len(locations) {
			end = len(locations)
		}
		batch := locations[batchStart:end]

		results := make([][]domain.Appointment, len(batch))
		var wg sync.WaitGroup
		for i, loc := range batch {
			wg.Add(1)
			go func(i int, loc domain.Location) {
				defer wg.Done()
				defer func() {
					// A panic in one scan must not take down its batch
					// siblings.
					if r := recover(); r != nil {
						s.logger.Error("location scan panicked",
							zap.String("location", loc.Name), zap.Any("panic", r))
					}
				}()
				results[i] = s.scanWithRetry(ctx, loc)
			}(i, loc)
		}
		wg.Wait()

		for _, appts := range results {
			all = append(all, appts...)
		}
	}

	return all
}

// scanWithRetry applies the run's retry discipline: one retry after a fixed
// backoff, then give up with zero appointments.
func (s *Service) scanWithRetry(ctx context.Context, loc domain.Location) []domain.Appointment {
	appts, err := s.scanner.Scan(ctx, loc)
	if err == nil {
		return appts
	}
	s.logger.Warn("location scan failed, retrying",
		zap.String("location", loc.Name), zap.Error(err))
	s.sleep(ctx, s.backoff)

	appts, err = s.scanner.Scan(ctx, loc)
	if err != nil {
		s.logger.Error("location scan failed after retry",
			zap.String("location", loc.Name), zap.Error(err))
		return nil
	}
	return appts
}

func (s *Service) recordHistory(ctx context.Context, found, checked int, took time.Duration) {
	entry := domain.HistoryEntry{
		Timestamp:         s.now(),
		AppointmentsFound: found,
		LocationsChecked:  checked,
		DurationMS:        took.Milliseconds(),
	}
	if err := s.store.PushToList(ctx, historyListKey, entry); err != nil {
		s.logger.Warn("push check history", zap.Error(err))
		return
	}
	if err := s.store.TrimList(ctx, historyListKey, 0, historyCap-1); err != nil {
		s.logger.Warn("trim check history", zap.Error(err))
	}
}

func (s *Service) recordError(ctx context.Context, msg string, took time.Duration) {
	entry := domain.ErrorEntry{
		Timestamp:  s.now(),
		Error:      msg,
		DurationMS: took.Milliseconds(),
	}
	if err := s.store.PushToList(ctx, errorListKey, entry); err != nil {
		s.logger.Warn("push error history", zap.Error(err))
		return
	}
	if err := s.store.TrimList(ctx, errorListKey, 0, errorCap-1); err != nil {
		s.logger.Warn("trim error history", zap.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
