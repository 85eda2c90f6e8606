// Package scanner drives one location's appointment calendar: paginate
// months, enumerate open day cells, match dates against the monitoring rules
// and extract time slots for the dates that qualify.
package scanner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/dmv-monitor/internal/config"
	"github.com/example/dmv-monitor/internal/domain"
	"github.com/example/dmv-monitor/internal/rules"
)

// Selectors and page expressions for the pickmeup calendar widget the wizard
// renders.
const (
	calendarRoot    = "#cal-picker"
	monthHeader     = ".pmu-month"
	nextMonthButton = ".pmu-next"

	anyEnabledDayExpr = `document.querySelectorAll('.pmu-days .pmu-button:not(.pmu-disabled):not(.pmu-not-in-month)').length > 0`

	enabledDaysExpr = `Array.from(document.querySelectorAll('.pmu-days .pmu-button:not(.pmu-disabled):not(.pmu-not-in-month)'))` +
		`.map(b => (b.textContent || '').trim())`

	// Day cells carry no stable ids, so selection goes through page script
	// matched on the cell text.
	clickDayExprFmt = `(() => {
	const want = %q;
	for (const b of document.querySelectorAll('.pmu-days .pmu-button')) {
		if ((b.textContent || '').trim() === want &&
			!b.classList.contains('pmu-disabled') &&
			!b.classList.contains('pmu-not-in-month')) {
			b.click();
			return true;
		}
	}
	return false;
})()`

	timeSlotsExpr = `Array.from(document.querySelectorAll('.timeCard.availableTimeslot, .col.timeCard.availableTimeslot'))` +
		`.map(e => (e.textContent || '').trim()).filter(t => t.includes('AM') || t.includes('PM'))`

	// Some locations render slots as links with a time parameter instead.
	linkSlotsExpr = `Array.from(document.querySelectorAll('a[href*="time="]'))` +
		`.map(a => (a.textContent || '').trim()).filter(t => t.includes('AM') || t.includes('PM'))`
)

// monthSettle is how long the widget needs to redraw after paginating.
const monthSettle = 2 * time.Second

const appointmentDateFormat = "01/02/2006"

// Scanner checks a single location per Scan call, one exclusive session each.
type Scanner struct {
	driver   Driver
	baseURL  string
	search   config.SearchConfig
	timeouts config.TimeoutConfig
	rules    []rules.Rule
	logger   *zap.Logger

	now func() time.Time
}

func New(driver Driver, mon config.Monitoring, baseURL string, logger *zap.Logger) *Scanner {
	return &Scanner{
		driver:   driver,
		baseURL:  baseURL,
		search:   mon.SearchConfig,
		timeouts: mon.Timeouts,
		rules:    mon.Rules,
		logger:   logger,
		now:      time.Now,
	}
}

// Scan walks the location's calendar month by month and returns every
// rule-matching date that has open time slots, capped at
// maxDatesPerLocation. Per-date and per-month failures are logged and
// skipped; only a session-level failure is returned as an error.
func (s *Scanner) Scan(ctx context.Context, loc domain.Location) ([]domain.Appointment, error) {
	url := fmt.Sprintf("%s/%d", s.baseURL, loc.ID)
	logger := s.logger.With(zap.String("location", loc.Name), zap.Int("locationId", loc.ID))
	logger.Info("checking location", zap.String("url", url))

	sess, err := s.driver.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	defer sess.Close()

	if err := sess.WaitForSelector(calendarRoot, s.timeouts.CalendarLoad()); err != nil {
		logger.Info("calendar never rendered", zap.Error(err))
		return nil, nil
	}
	if err := sess.WaitForCondition(anyEnabledDayExpr, s.timeouts.DateAvailability()); err != nil {
		logger.Info("no available dates rendered", zap.Error(err))
		return nil, nil
	}

	today := midnight(s.now())
	maxDate := today.AddDate(0, 0, s.search.MaxDaysAhead)

	// Months past the lookahead window cannot contain in-range dates, so the
	// horizon bounds pagination even when month headers are unreadable.
	maxMonths := s.search.MaxDaysAhead/28 + 2

	var appointments []domain.Appointment
	for monthOffset := 0; monthOffset < maxMonths; monthOffset++ {
		if monthOffset > 0 {
			if err := sess.Click(nextMonthButton); err != nil {
				logger.Warn("month pagination failed", zap.Error(err))
				return appointments, nil
			}
			sess.Settle(monthSettle)
		}

		header, err := sess.ReadText(monthHeader)
		if err != nil {
			logger.Warn("month header unreadable, skipping month", zap.Error(err))
			continue
		}
		year, month, ok := parseMonthHeader(header)
		if !ok {
			logger.Warn("unparseable month header, skipping month", zap.String("header", header))
			continue
		}

		var days []string
		if err := sess.Evaluate(enabledDaysExpr, &days); err != nil {
			logger.Warn("day enumeration failed, skipping month", zap.Error(err))
			continue
		}
		if len(days) == 0 {
			logger.Debug("no available dates in month", zap.String("month", header))
			continue
		}

		checked, beyondHorizon := 0, 0
		for _, dayStr := range days {
			day, err := strconv.Atoi(strings.TrimSpace(dayStr))
			if err != nil {
				continue
			}
			date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if date.After(maxDate) {
				beyondHorizon++
				continue
			}
			checked++

			formatted := date.Format(appointmentDateFormat)
			if !rules.Matches(formatted, s.rules, today, logger) {
				logger.Debug("date does not match rules", zap.String("date", formatted))
				continue
			}

			appt, ok := s.extractTimes(sess, loc, url, date, dayStr, logger)
			if !ok {
				continue
			}
			appointments = append(appointments, appt)
			if len(appointments) >= s.search.MaxDatesPerLocation {
				logger.Info("reached per-location date cap",
					zap.Int("max", s.search.MaxDatesPerLocation))
				return appointments, nil
			}
		}

		if beyondHorizon > 0 && checked == 0 {
			// Every open date in this month was past the horizon; later
			// months only get further out.
			logger.Debug("month entirely beyond lookahead window", zap.String("month", header))
			return appointments, nil
		}
	}

	return appointments, nil
}

// extractTimes clicks the day cell and collects its AM/PM slot labels.
// Returns false when the cell cannot be selected or no slots render; both
// skip the date without failing the scan.
func (s *Scanner) extractTimes(sess Session, loc domain.Location, url string, date time.Time, dayStr string, logger *zap.Logger) (domain.Appointment, bool) {
	formatted := date.Format(appointmentDateFormat)

	var clicked bool
	if err := sess.Evaluate(fmt.Sprintf(clickDayExprFmt, dayStr), &clicked); err != nil || !clicked {
		logger.Warn("could not select date", zap.String("date", formatted), zap.Error(err))
		return domain.Appointment{}, false
	}
	sess.Settle(s.timeouts.TimeSlotLoad())

	var times []string
	if err := sess.Evaluate(timeSlotsExpr, &times); err != nil {
		logger.Warn("time slot extraction failed", zap.String("date", formatted), zap.Error(err))
		return domain.Appointment{}, false
	}
	if len(times) == 0 {
		var linkTimes []string
		if err := sess.Evaluate(linkSlotsExpr, &linkTimes); err == nil {
			times = linkTimes
		}
	}
	times = dedupe(times)
	if len(times) == 0 {
		logger.Debug("no time slots for date", zap.String("date", formatted))
		return domain.Appointment{}, false
	}

	logger.Info("found open time slots",
		zap.String("date", formatted), zap.Int("slots", len(times)))

	return domain.Appointment{
		Location:   loc.Name,
		LocationID: loc.ID,
		Date:       formatted,
		DayOfWeek:  date.Weekday().String(),
		Times:      times,
		URL:        url,
	}, true
}

// parseMonthHeader parses headers like "July, 2026".
func parseMonthHeader(header string) (int, time.Month, bool) {
	t, err := time.Parse("January, 2006", strings.TrimSpace(header))
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
