// Package notify dedupes and delivers appointment alerts: a fingerprint gate
// backed by the TTL store, and a Resend mailer.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/dmv-monitor/internal/domain"
	"github.com/example/dmv-monitor/internal/store"
)

const (
	notificationKeyPrefix = "notification:"

	// SuppressionTTL is how long an identical appointment set stays muted
	// after a confirmed delivery.
	SuppressionTTL = 24 * time.Hour
)

// Mailer delivers one rendered notification.
type Mailer interface {
	Send(ctx context.Context, subject, htmlBody, textBody string) error
}

// Gate sends at most one email per distinct appointment set per suppression
// window.
type Gate struct {
	store  store.Store
	mailer Mailer
	logger *zap.Logger
	now    func() time.Time
}

func NewGate(st store.Store, mailer Mailer, logger *zap.Logger) *Gate {
	return &Gate{store: st, mailer: mailer, logger: logger, now: time.Now}
}

// Fingerprint derives the dedup key from sorted (locationId, date) pairs.
// Discovery order and slot contents do not affect it.
func Fingerprint(appointments []domain.Appointment) string {
	keys := make([]string, len(appointments))
	for i, a := range appointments {
		keys[i] = fmt.Sprintf("%d-%s", a.LocationID, a.Date)
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// MaybeNotify emails the appointment list unless its fingerprint was already
// notified within the suppression window. The suppression record is written
// only after confirmed delivery, so a failed send is retried next run.
func (g *Gate) MaybeNotify(ctx context.Context, appointments []domain.Appointment) (bool, error) {
	fp := Fingerprint(appointments)
	key := notificationKeyPrefix + fp

	var existing domain.NotificationRecord
	err := g.store.Get(ctx, key, &existing)
	if err == nil {
		g.logger.Info("already notified about these appointments",
			zap.Time("sentAt", existing.SentAt))
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("look up notification record: %w", err)
	}

	subject := fmt.Sprintf("NJ MVC Weekend Appointments Available - %d location(s)", len(appointments))
	htmlBody, textBody, err := RenderEmail(appointments)
	if err != nil {
		return false, fmt.Errorf("render notification: %w", err)
	}
	if err := g.mailer.Send(ctx, subject, htmlBody, textBody); err != nil {
		return false, fmt.Errorf("send notification: %w", err)
	}

	now := g.now()
	record := domain.NotificationRecord{
		AppointmentKey: fp,
		SentAt:         now,
		ExpiresAt:      now.Add(SuppressionTTL),
	}
	if err := g.store.Set(ctx, key, record, SuppressionTTL); err != nil {
		// The email went out; a lost record only risks one duplicate.
		g.logger.Warn("record notification", zap.Error(err))
	}

	g.logger.Info("notification sent", zap.Int("appointments", len(appointments)))
	return true, nil
}
