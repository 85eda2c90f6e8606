package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Tuesday, June 16 2026. Weekends ahead: Jun 20/21, Jun 27/28, Jul 4/5.
var tuesday = time.Date(2026, time.June, 16, 9, 30, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func weekendRule() Rule {
	return Rule{
		Name:       "Weekend Appointments",
		Enabled:    true,
		Days:       []string{"Saturday", "Sunday"},
		TimeRanges: []string{TimeRangeAll},
	}
}

func TestMatchesWeekendRule(t *testing.T) {
	logger := zap.NewNop()
	rs := []Rule{weekendRule()}

	// Saturday 10 days out matches, a Tuesday does not.
	assert.True(t, Matches("06/20/2026", rs, tuesday, logger))
	assert.True(t, Matches("06/27/2026", rs, tuesday, logger))
	assert.False(t, Matches("06/23/2026", rs, tuesday, logger))
}

func TestMatchesDisabledRule(t *testing.T) {
	r := weekendRule()
	r.Enabled = false
	assert.False(t, Matches("06/20/2026", []Rule{r}, tuesday, zap.NewNop()))
}

func TestMatchesAnyEnabledRuleSuffices(t *testing.T) {
	weekday := Rule{
		Name:       "Fridays",
		Enabled:    true,
		Days:       []string{"Friday"},
		TimeRanges: []string{TimeRangeAll},
	}
	disabled := weekendRule()
	disabled.Enabled = false

	rs := []Rule{disabled, weekday}
	assert.True(t, Matches("06/19/2026", rs, tuesday, zap.NewNop()))
	assert.False(t, Matches("06/20/2026", rs, tuesday, zap.NewNop()))
}

func TestMatchesUnparseableDateFailsClosed(t *testing.T) {
	assert.False(t, Matches("not a date", []Rule{weekendRule()}, tuesday, zap.NewNop()))
	assert.False(t, Matches("", []Rule{weekendRule()}, tuesday, zap.NewNop()))
}

func TestParseDateFallbackChain(t *testing.T) {
	for _, s := range []string{"06/20/2026", "2026-06-20", "2026-06-20T00:00:00Z"} {
		d, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, time.Date(2026, time.June, 20, 0, 0, 0, 0, time.UTC), d)
	}
}

func TestDaysAheadRange(t *testing.T) {
	r := weekendRule()
	r.Days = []string{"Tuesday", "Wednesday", "Saturday"}
	r.DateRange = &DateRange{Type: RangeDaysAhead, DaysAhead: intPtr(7)}
	rs := []Rule{r}
	logger := zap.NewNop()

	// Boundary day is included, one past it is not.
	assert.True(t, Matches("06/23/2026", rs, tuesday, logger))  // today+7, a Tuesday
	assert.False(t, Matches("06/24/2026", rs, tuesday, logger)) // today+8
	assert.True(t, Matches("06/20/2026", rs, tuesday, logger))
}

func TestDaysAheadZeroMatchesOnlyToday(t *testing.T) {
	r := weekendRule()
	r.Days = []string{"Tuesday"}
	r.DateRange = &DateRange{Type: RangeDaysAhead, DaysAhead: intPtr(0)}
	rs := []Rule{r}
	logger := zap.NewNop()

	assert.True(t, Matches("06/16/2026", rs, tuesday, logger))
	assert.False(t, Matches("06/23/2026", rs, tuesday, logger))
	assert.False(t, Matches("06/15/2026", rs, tuesday, logger))
}

func TestNextThreeWeekends(t *testing.T) {
	r := weekendRule()
	r.DateRange = &DateRange{Type: RangeRelative, Value: PresetNextThreeWeekends}
	rs := []Rule{r}
	logger := zap.NewNop()

	for _, d := range []string{"06/20/2026", "06/21/2026", "06/27/2026", "06/28/2026", "07/04/2026", "07/05/2026"} {
		assert.True(t, Matches(d, rs, tuesday, logger), d)
	}
	// Fourth weekend out is excluded.
	assert.False(t, Matches("07/11/2026", rs, tuesday, logger))
}

func TestNextThreeWeekendsCountsCurrentWeekend(t *testing.T) {
	// Sunday, June 21 2026: its own weekend is the first of the three.
	sunday := time.Date(2026, time.June, 21, 12, 0, 0, 0, time.UTC)
	r := weekendRule()
	r.DateRange = &DateRange{Type: RangeRelative, Value: PresetNextThreeWeekends}
	rs := []Rule{r}
	logger := zap.NewNop()

	assert.True(t, Matches("06/21/2026", rs, sunday, logger))
	assert.True(t, Matches("07/04/2026", rs, sunday, logger))
	assert.False(t, Matches("07/11/2026", rs, sunday, logger))
}

func TestNextMonthRange(t *testing.T) {
	r := weekendRule()
	r.Days = []string{"Wednesday", "Friday", "Saturday"}
	r.DateRange = &DateRange{Type: RangeRelative, Value: PresetNextMonth}
	rs := []Rule{r}
	logger := zap.NewNop()

	assert.True(t, Matches("07/01/2026", rs, tuesday, logger))
	assert.True(t, Matches("07/31/2026", rs, tuesday, logger))
	assert.False(t, Matches("06/20/2026", rs, tuesday, logger))
	assert.False(t, Matches("08/01/2026", rs, tuesday, logger))
}

func TestAbsoluteRange(t *testing.T) {
	r := weekendRule()
	r.DateRange = &DateRange{Type: RangeAbsolute, Start: "06/27/2026", End: "07/04/2026"}
	rs := []Rule{r}
	logger := zap.NewNop()

	assert.True(t, Matches("06/27/2026", rs, tuesday, logger))
	assert.True(t, Matches("07/04/2026", rs, tuesday, logger))
	assert.False(t, Matches("06/21/2026", rs, tuesday, logger))
	assert.False(t, Matches("07/05/2026", rs, tuesday, logger))
}

func TestMalformedDateRangeDisablesRuleOnly(t *testing.T) {
	broken := weekendRule()
	broken.DateRange = &DateRange{Type: RangeAbsolute, Start: "garbage", End: "07/04/2026"}
	healthy := weekendRule()

	logger := zap.NewNop()
	assert.False(t, Matches("06/20/2026", []Rule{broken}, tuesday, logger))
	assert.True(t, Matches("06/20/2026", []Rule{broken, healthy}, tuesday, logger))
}

func TestUnknownRangeTypeFailsClosed(t *testing.T) {
	r := weekendRule()
	r.DateRange = &DateRange{Type: "fortnightly"}
	assert.False(t, Matches("06/20/2026", []Rule{r}, tuesday, zap.NewNop()))
}
