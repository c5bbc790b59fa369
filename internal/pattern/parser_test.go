package pattern

import (
	"testing"
)

func TestParseRecurrenceTimeOnly(t *testing.T) {
	r, err := Parse("11:00 take pills")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Pattern.Kind != KindRecurrence {
		t.Fatalf("Kind = %v, want KindRecurrence", r.Pattern.Kind)
	}
	if len(r.Pattern.Recurrence.DatePatterns) != 0 {
		t.Fatalf("expected no date patterns, got %v", r.Pattern.Recurrence.DatePatterns)
	}
	if len(r.Pattern.Recurrence.TimePatterns) != 1 {
		t.Fatalf("expected one time pattern, got %d", len(r.Pattern.Recurrence.TimePatterns))
	}
	if r.Description != "take pills" {
		t.Fatalf("Description = %q", r.Description)
	}
}

func TestParseRecurrenceDateAndTime(t *testing.T) {
	r, err := Parse("02.01 13:00 pay rent")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dp := r.Pattern.Recurrence.DatePatterns
	if len(dp) != 1 || dp[0].Kind != DatePatternPoint {
		t.Fatalf("DatePatterns = %+v", dp)
	}
	if *dp[0].Point.Day != 2 || *dp[0].Point.Month != 1 {
		t.Fatalf("holey date = %+v", dp[0].Point)
	}
	if dp[0].Point.Year != nil {
		t.Fatalf("expected no year hole filled")
	}
}

func TestParseCountdown(t *testing.T) {
	r, err := Parse("1h30m stretch")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Pattern.Kind != KindCountdown {
		t.Fatalf("Kind = %v", r.Pattern.Kind)
	}
	iv := r.Pattern.Countdown.Interval
	if iv.Hours != 1 || iv.Minutes != 30 {
		t.Fatalf("Interval = %+v", iv)
	}
	if r.Description != "stretch" {
		t.Fatalf("Description = %q", r.Description)
	}
}

func TestParseCron(t *testing.T) {
	r, err := Parse("0 9 * * mon standup")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Pattern.Kind != KindCron {
		t.Fatalf("Kind = %v", r.Pattern.Kind)
	}
	if r.Pattern.Cron.Expr != "0 9 * * mon" {
		t.Fatalf("Expr = %q", r.Pattern.Cron.Expr)
	}
	if r.Description != "standup" {
		t.Fatalf("Description = %q", r.Description)
	}
}

func TestParseSlashWeekdayDivisor(t *testing.T) {
	r, err := Parse("/fri,mon 11:00")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dp := r.Pattern.Recurrence.DatePatterns
	if len(dp) != 1 || dp[0].Kind != DatePatternRange {
		t.Fatalf("DatePatterns = %+v", dp)
	}
	div := dp[0].Range.Divisor
	if div.Kind != DateDivisorWeekdays {
		t.Fatalf("Divisor = %+v, want weekdays", div)
	}
	if !div.Weekdays.Has(5) || !div.Weekdays.Has(1) {
		t.Fatalf("expected friday and monday set, got %+v", div.Weekdays)
	}
	if dp[0].Range.Start.Year != nil || dp[0].Range.Start.Month != nil || dp[0].Range.Start.Day != nil {
		t.Fatalf("expected empty range start, got %+v", dp[0].Range.Start)
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	if _, err := Parse("   "); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestParseCountdownMultiUnit(t *testing.T) {
	r, err := Parse("1w1h2m3s countdown")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Pattern.Kind != KindCountdown {
		t.Fatalf("Kind = %v, want KindCountdown", r.Pattern.Kind)
	}
	iv := r.Pattern.Countdown.Interval
	if iv.Weeks != 1 || iv.Hours != 1 || iv.Minutes != 2 || iv.Seconds != 3 {
		t.Fatalf("Interval = %+v", iv)
	}
	if r.Description != "countdown" {
		t.Fatalf("Description = %q", r.Description)
	}
}

func TestParseBareDayRangeWithDivisor(t *testing.T) {
	r, err := Parse("3-6/2d 13:37 date range")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dp := r.Pattern.Recurrence.DatePatterns
	if len(dp) != 1 || dp[0].Kind != DatePatternRange {
		t.Fatalf("DatePatterns = %+v", dp)
	}
	if *dp[0].Range.Start.Day != 3 || *dp[0].Range.End.Day != 6 {
		t.Fatalf("range = %+v", dp[0].Range)
	}
	if dp[0].Range.Divisor.Interval.Days != 2 {
		t.Fatalf("divisor = %+v", dp[0].Range.Divisor)
	}
}

// TestParseSlashDateDividesMonthEnd covers §4.A's MM/DD/divisor form, where
// "/" separates a day-last holey date from a following divisor clause that
// itself starts with a digit run immediately followed by a unit letter.
func TestParseSlashDateDividesMonthEnd(t *testing.T) {
	r, err := Parse("12/31/1MONTH 13:37 end of month")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dp := r.Pattern.Recurrence.DatePatterns
	if len(dp) != 1 || dp[0].Kind != DatePatternRange {
		t.Fatalf("DatePatterns = %+v", dp)
	}
	start := dp[0].Range.Start
	if start.Month == nil || *start.Month != 12 || start.Day == nil || *start.Day != 31 {
		t.Fatalf("range start = %+v", start)
	}
	if start.Year != nil {
		t.Fatalf("expected no year hole filled, got %+v", start)
	}
	div := dp[0].Range.Divisor
	if div.Kind != DateDivisorInterval || div.Interval.Months != 1 {
		t.Fatalf("divisor = %+v", div)
	}
	if r.Description != "end of month" {
		t.Fatalf("Description = %q", r.Description)
	}
}

// TestParseBareHourTimeRange covers §4.A's hour-only Time form appearing as
// both ends of a range, and the empty "-" date-range marker that precedes
// it: a leading "-" alone is neither a date nor a time, so it must be read
// as a range with an implicit "today" start.
func TestParseBareHourTimeRange(t *testing.T) {
	r, err := Parse("- 11-18/1h periodic")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dp := r.Pattern.Recurrence.DatePatterns
	if len(dp) != 1 || dp[0].Kind != DatePatternRange {
		t.Fatalf("DatePatterns = %+v", dp)
	}
	if dp[0].Range.Start.Year != nil || dp[0].Range.Start.Month != nil || dp[0].Range.Start.Day != nil {
		t.Fatalf("expected empty range start, got %+v", dp[0].Range.Start)
	}
	if dp[0].Range.End != nil {
		t.Fatalf("expected unbounded range, got end = %+v", dp[0].Range.End)
	}

	tp := r.Pattern.Recurrence.TimePatterns
	if len(tp) != 1 || tp[0].Kind != TimePatternRange {
		t.Fatalf("TimePatterns = %+v", tp)
	}
	if tp[0].Range.Start == nil || tp[0].Range.Start.Hour != 11 {
		t.Fatalf("range start = %+v", tp[0].Range.Start)
	}
	if tp[0].Range.End == nil || tp[0].Range.End.Hour != 18 {
		t.Fatalf("range end = %+v", tp[0].Range.End)
	}
	if tp[0].Range.Divisor.Hours != 1 {
		t.Fatalf("divisor = %+v", tp[0].Range.Divisor)
	}
	if r.Description != "periodic" {
		t.Fatalf("Description = %q", r.Description)
	}
}

// TestParsePreservesInternalWhitespace covers §4.A/§8: only the leading and
// trailing whitespace around the description is trimmed, collapsed
// whitespace in the middle of it is not.
func TestParsePreservesInternalWhitespace(t *testing.T) {
	r, err := Parse("15:16     test    description   ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Description != "test    description" {
		t.Fatalf("Description = %q", r.Description)
	}
}
