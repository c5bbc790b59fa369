package pattern

import (
	"testing"
	"time"
)

// scenarioNow is the instant used throughout every canonical scenario test
// below: 2007-02-02 12:30:30, a Friday.
var scenarioNow = time.Date(2007, 2, 2, 12, 30, 30, 0, time.UTC)

func mustParse(t *testing.T, s string) Reminder {
	t.Helper()
	r, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return r
}

func mustLift(t *testing.T, p Pattern, now time.Time) Pattern {
	t.Helper()
	lifted, err := Lift(p, "UTC", now)
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	return lifted
}

// TestScenarioCountdown covers "1w1h2m3s countdown": a single firing
// exactly interval-after now, never again.
func TestScenarioCountdown(t *testing.T) {
	r := mustParse(t, "1w1h2m3s countdown")
	p := mustLift(t, r.Pattern, scenarioNow)

	got, ok, p, err := p.Next(scenarioNow)
	if err != nil || !ok {
		t.Fatalf("Next: got=%v ok=%v err=%v", got, ok, err)
	}
	want := time.Date(2007, 2, 9, 13, 32, 33, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("first firing = %v, want %v", got, want)
	}

	if _, ok, _, err := p.Next(got); err != nil || ok {
		t.Fatalf("second Next: ok=%v err=%v, want ok=false", ok, err)
	}
}

// TestScenarioOpenEndedHourlyRange covers "- 11-18/1h periodic": an empty
// leading date-range marker paired with an hour-only time range, firing
// every hour within 11:00-18:00 and rolling over to the next day.
func TestScenarioOpenEndedHourlyRange(t *testing.T) {
	r := mustParse(t, "- 11-18/1h periodic")
	if r.Description != "periodic" {
		t.Fatalf("Description = %q", r.Description)
	}
	p := mustLift(t, r.Pattern, scenarioNow)

	want := []time.Time{
		time.Date(2007, 2, 2, 13, 0, 0, 0, time.UTC),
		time.Date(2007, 2, 2, 14, 0, 0, 0, time.UTC),
		time.Date(2007, 2, 2, 15, 0, 0, 0, time.UTC),
		time.Date(2007, 2, 2, 16, 0, 0, 0, time.UTC),
		time.Date(2007, 2, 2, 17, 0, 0, 0, time.UTC),
		time.Date(2007, 2, 2, 18, 0, 0, 0, time.UTC),
		time.Date(2007, 2, 3, 11, 0, 0, 0, time.UTC),
	}

	now := scenarioNow
	for i, w := range want {
		got, ok, next, err := p.Next(now)
		if err != nil || !ok {
			t.Fatalf("firing %d: got=%v ok=%v err=%v", i, got, ok, err)
		}
		if !got.Equal(w) {
			t.Fatalf("firing %d = %v, want %v", i, got, w)
		}
		p, now = next, got
	}
}

// TestScenarioDayRangeStops covers "3-6/2d 13:37 date range": it fires
// exactly twice, on day 3 and day 5, then stops because day 7 would fall
// past the range's end.
func TestScenarioDayRangeStops(t *testing.T) {
	r := mustParse(t, "3-6/2d 13:37 date range")
	p := mustLift(t, r.Pattern, scenarioNow)

	want := []time.Time{
		time.Date(2007, 2, 3, 13, 37, 0, 0, time.UTC),
		time.Date(2007, 2, 5, 13, 37, 0, 0, time.UTC),
	}

	now := scenarioNow
	for i, w := range want {
		got, ok, next, err := p.Next(now)
		if err != nil || !ok {
			t.Fatalf("firing %d: got=%v ok=%v err=%v", i, got, ok, err)
		}
		if !got.Equal(w) {
			t.Fatalf("firing %d = %v, want %v", i, got, w)
		}
		p, now = next, got
	}

	if _, ok, _, err := p.Next(now); err != nil || ok {
		t.Fatalf("third Next: ok=%v err=%v, want ok=false", ok, err)
	}
}

// TestScenarioFixedFarFutureDate covers "07.06.2025 13:37": a fixed point
// date 18 years out must still be found directly, with no horizon to
// exhaust, and then never fire again.
func TestScenarioFixedFarFutureDate(t *testing.T) {
	r := mustParse(t, "07.06.2025 13:37")
	p := mustLift(t, r.Pattern, scenarioNow)

	got, ok, p, err := p.Next(scenarioNow)
	if err != nil || !ok {
		t.Fatalf("Next: got=%v ok=%v err=%v", got, ok, err)
	}
	want := time.Date(2025, 6, 7, 13, 37, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("firing = %v, want %v", got, want)
	}

	if _, ok, _, err := p.Next(got); err != nil || ok {
		t.Fatalf("second Next: ok=%v err=%v, want ok=false", ok, err)
	}
}

// TestScenarioEndOfMonthClamp covers "12/31/1MONTH 13:37 end of month": a
// monthly-stepped date range anchored at day 31, clamped to the last day of
// any shorter month, including the Feb 2008 leap day.
func TestScenarioEndOfMonthClamp(t *testing.T) {
	r := mustParse(t, "12/31/1MONTH 13:37 end of month")
	p := mustLift(t, r.Pattern, scenarioNow)

	want := []time.Time{
		time.Date(2007, 12, 31, 13, 37, 0, 0, time.UTC),
		time.Date(2008, 1, 31, 13, 37, 0, 0, time.UTC),
		time.Date(2008, 2, 29, 13, 37, 0, 0, time.UTC),
		time.Date(2008, 3, 31, 13, 37, 0, 0, time.UTC),
	}

	now := scenarioNow
	for i, w := range want {
		got, ok, next, err := p.Next(now)
		if err != nil || !ok {
			t.Fatalf("firing %d: got=%v ok=%v err=%v", i, got, ok, err)
		}
		if !got.Equal(w) {
			t.Fatalf("firing %d = %v, want %v", i, got, w)
		}
		p, now = next, got
	}
}

// TestScenarioWeekdayAlternation covers "/fri,mon 11:00": today (Friday) is
// already past 11:00, so the first firing skips to Monday, then alternates
// Fri/Mon every week.
func TestScenarioWeekdayAlternation(t *testing.T) {
	r := mustParse(t, "/fri,mon 11:00")
	p := mustLift(t, r.Pattern, scenarioNow)

	want := []time.Time{
		time.Date(2007, 2, 5, 11, 0, 0, 0, time.UTC),
		time.Date(2007, 2, 9, 11, 0, 0, 0, time.UTC),
		time.Date(2007, 2, 12, 11, 0, 0, 0, time.UTC),
		time.Date(2007, 2, 16, 11, 0, 0, 0, time.UTC),
	}

	now := scenarioNow
	for i, w := range want {
		got, ok, next, err := p.Next(now)
		if err != nil || !ok {
			t.Fatalf("firing %d: got=%v ok=%v err=%v", i, got, ok, err)
		}
		if !got.Equal(w) {
			t.Fatalf("firing %d = %v, want %v", i, got, w)
		}
		p, now = next, got
	}
}

// TestScenarioDescriptionWhitespacePreserved covers
// "15:16     test    description   ": only the outer whitespace is
// trimmed, and the reminder fires once, later today.
func TestScenarioDescriptionWhitespacePreserved(t *testing.T) {
	r := mustParse(t, "15:16     test    description   ")
	if r.Description != "test    description" {
		t.Fatalf("Description = %q", r.Description)
	}
	p := mustLift(t, r.Pattern, scenarioNow)

	got, ok, p, err := p.Next(scenarioNow)
	if err != nil || !ok {
		t.Fatalf("Next: got=%v ok=%v err=%v", got, ok, err)
	}
	want := time.Date(2007, 2, 2, 15, 16, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("firing = %v, want %v", got, want)
	}

	if _, ok, _, err := p.Next(got); err != nil || ok {
		t.Fatalf("second Next: ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestCronNextIsMonotonic(t *testing.T) {
	r := mustParse(t, "0 9 * * * standup")
	p := mustLift(t, r.Pattern, scenarioNow)

	first, ok, p, err := p.Next(scenarioNow)
	if err != nil || !ok {
		t.Fatalf("first Next: ok=%v err=%v", ok, err)
	}
	second, ok, _, err := p.Next(first)
	if err != nil || !ok {
		t.Fatalf("second Next: ok=%v err=%v", ok, err)
	}
	if !second.After(first) {
		t.Fatalf("second firing %v is not after first %v", second, first)
	}
}
