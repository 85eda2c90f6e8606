// Package rules decides which calendar dates qualify for notification.
package rules

import (
	"time"

	"go.uber.org/zap"
)

// Rule matches dates by day-of-week, time range and an optional date range.
// Rules are disjunctive across a set: any enabled rule matching is enough.
type Rule struct {
	Name       string     `json:"name" koanf:"name"`
	Enabled    bool       `json:"enabled" koanf:"enabled"`
	Days       []string   `json:"days" koanf:"days"`
	TimeRanges []string   `json:"timeRanges" koanf:"timeRanges"`
	DateRange  *DateRange `json:"dateRange,omitempty" koanf:"dateRange"`
}

// DateRange constrains which dates a rule accepts. Type selects the variant:
//
//	"days-ahead" — dates within [today, today+DaysAhead], inclusive
//	"relative"   — a named preset in Value ("next-3-weekends", "next-month")
//	"absolute"   — literal [Start, End] boundary dates, inclusive
type DateRange struct {
	Type      string `json:"type" koanf:"type"`
	Value     string `json:"value,omitempty" koanf:"value"`
	DaysAhead *int   `json:"daysAhead,omitempty" koanf:"daysAhead"`
	Start     string `json:"start,omitempty" koanf:"start"`
	End       string `json:"end,omitempty" koanf:"end"`
}

// Date range variants.
const (
	RangeDaysAhead = "days-ahead"
	RangeRelative  = "relative"
	RangeAbsolute  = "absolute"
)

// Relative presets.
const (
	PresetNextThreeWeekends = "next-3-weekends"
	PresetNextMonth         = "next-month"
)

// TimeRangeAll accepts every time slot; anything else is deferred to slot
// extraction, since rules match dates, not clock times.
const TimeRangeAll = "all"

var dateFormats = []string{"01/02/2006", "2006-01-02", time.RFC3339}

// Matches reports whether dateStr qualifies under any enabled rule, relative
// to now. Unparseable dates fail closed.
func Matches(dateStr string, ruleSet []Rule, now time.Time, logger *zap.Logger) bool {
	date, ok := ParseDate(dateStr)
	if !ok {
		logger.Warn("unparseable date, treating as non-matching", zap.String("date", dateStr))
		return false
	}

	for _, r := range ruleSet {
		if !r.Enabled {
			continue
		}
		if dayMatches(date, r) && timeMatches(r) && dateRangeMatches(date, r.DateRange, now) {
			return true
		}
	}
	return false
}

// ParseDate tries MM/DD/YYYY, then ISO, then RFC3339, normalized to midnight.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return midnight(t), true
		}
	}
	return time.Time{}, false
}

func dayMatches(date time.Time, r Rule) bool {
	name := date.Weekday().String()
	for _, d := range r.Days {
		if d == name {
			return true
		}
	}
	return false
}

func timeMatches(r Rule) bool {
	for _, tr := range r.TimeRanges {
		if tr == TimeRangeAll {
			return true
		}
	}
	// Non-"all" ranges are enforced against extracted slots, not here.
	return true
}

func dateRangeMatches(date time.Time, dr *DateRange, now time.Time) bool {
	if dr == nil {
		return true
	}
	today := midnight(now)

	switch dr.Type {
	case RangeDaysAhead:
		if dr.DaysAhead == nil || *dr.DaysAhead < 0 {
			return false
		}
		last := today.AddDate(0, 0, *dr.DaysAhead)
		return !date.Before(today) && !date.After(last)

	case RangeRelative:
		switch dr.Value {
		case PresetNextThreeWeekends:
			return inNextWeekends(date, today, 3)
		case PresetNextMonth:
			first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
			last := first.AddDate(0, 1, -1)
			return !date.Before(first) && !date.After(last)
		default:
			return false
		}

	case RangeAbsolute:
		start, okStart := ParseDate(dr.Start)
		end, okEnd := ParseDate(dr.End)
		if !okStart || !okEnd {
			return false
		}
		return !date.Before(start) && !date.After(end)

	default:
		return false
	}
}

// inNextWeekends reports whether date falls on one of the next n weekends,
// counted from the first upcoming weekend. If today is a weekend day, its own
// weekend counts as the first.
func inNextWeekends(date, today time.Time, n int) bool {
	if date.Before(today) {
		return false
	}

	var firstSat time.Time
	switch today.Weekday() {
	case time.Saturday:
		firstSat = today
	case time.Sunday:
		firstSat = today.AddDate(0, 0, -1)
	default:
		firstSat = today.AddDate(0, 0, int(time.Saturday-today.Weekday()))
	}

	for i := 0; i < n; i++ {
		sat := firstSat.AddDate(0, 0, 7*i)
		if date.Equal(sat) || date.Equal(sat.AddDate(0, 0, 1)) {
			return true
		}
	}
	return false
}

// midnight truncates to a UTC calendar day so comparisons are pure date math
// regardless of the zone the input carried.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
