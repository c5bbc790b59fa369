package pattern

import (
	"fmt"
	"time"

	"github.com/hray3182/remindee/internal/dateutil"
)

// Lift resolves every holey date in p's date patterns against now, fixing
// them to concrete calendar dates, and records the timezone the pattern's
// recurrence math runs in from here on. It must be called once, when a
// reminder is first created from parsed text, before the pattern is
// persisted; both the chosen zone and the resolved dates then stay fixed
// for the pattern's lifetime even if the user later changes their
// preference or the pattern is re-evaluated long after creation.
func Lift(p Pattern, tzName string, now time.Time) (Pattern, error) {
	switch p.Kind {
	case KindRecurrence:
		rec, err := liftRecurrence(p.Recurrence, tzName, now)
		if err != nil {
			return Pattern{}, err
		}
		p.Recurrence = rec
	case KindCountdown:
		p.Countdown.TZName = tzName
	case KindCron:
		p.Cron.TZName = tzName
	default:
		return Pattern{}, fmt.Errorf("pattern: unknown kind %d", p.Kind)
	}
	return p, nil
}

func resolveLocation(tzName string) *time.Location {
	if tzName == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return time.UTC
	}
	return loc
}

// liftRecurrence fills every date pattern's holes left to right against a
// lower bound that only ever advances, so later patterns in the same
// reminder never resolve to a date earlier than an already-lifted one.
func liftRecurrence(r Recurrence, tzName string, now time.Time) (Recurrence, error) {
	loc := resolveLocation(tzName)
	local := now.In(loc)
	lowerBound := truncDay(local)

	datePatterns := r.DatePatterns
	if len(datePatterns) == 0 {
		datePatterns = []DatePattern{{Kind: DatePatternPoint, Point: HoleyDate{}}}
	}

	lifted := make([]DatePattern, len(datePatterns))
	cur := lowerBound
	hasRange := false
	for i, dp := range datePatterns {
		switch dp.Kind {
		case DatePatternPoint:
			filled, ok := fillDateHoles(dp.Point, cur)
			if !ok {
				return Recurrence{}, fmt.Errorf("pattern: date pattern has no valid future occurrence")
			}
			lifted[i] = DatePattern{Kind: DatePatternPoint, Point: concreteHoleyDate(filled)}
			cur = filled
		case DatePatternRange:
			hasRange = true
			rng, newLower, err := liftDateRange(dp.Range, cur)
			if err != nil {
				return Recurrence{}, err
			}
			lifted[i] = DatePattern{Kind: DatePatternRange, Range: rng}
			cur = newLower
		}
	}

	for _, tp := range r.TimePatterns {
		if tp.Kind == TimePatternRange {
			hasRange = true
		}
	}

	rec := Recurrence{DatePatterns: lifted, TimePatterns: r.TimePatterns, TZName: tzName}

	// A bare date point plus a bare time point names a single instant. If
	// that instant has already passed today, push the date forward a day;
	// ranges handle "today, but later" themselves in Next and don't need
	// this, since a range's own time patterns step forward within the day.
	if !hasRange && len(lifted) == 1 && lifted[0].Kind == DatePatternPoint {
		day := lifted[0].Point.Date(loc)
		t := firstTimeOfDay(r.TimePatterns)
		combined := time.Date(day.Year(), day.Month(), day.Day(), t.hour, t.minute, t.second, 0, loc)
		if combined.Before(local) {
			bumped := day.AddDate(0, 0, 1)
			rec.DatePatterns[0] = DatePattern{Kind: DatePatternPoint, Point: concreteHoleyDate(bumped)}
		}
	}

	return rec, nil
}

func liftDateRange(r DateRange, lowerBound time.Time) (DateRange, time.Time, error) {
	start, ok := fillDateHoles(r.Start, lowerBound)
	if !ok {
		return DateRange{}, lowerBound, fmt.Errorf("pattern: date range has no valid future start")
	}
	newLower := start
	var end *HoleyDate
	if r.End != nil {
		e, ok := fillDateHoles(*r.End, newLower)
		if !ok {
			return DateRange{}, lowerBound, fmt.Errorf("pattern: date range has no valid future end")
		}
		concrete := concreteHoleyDate(e)
		end = &concrete
		if e.After(newLower) {
			newLower = e
		}
	}
	return DateRange{Start: concreteHoleyDate(start), End: end, Divisor: r.Divisor}, newLower, nil
}

// fillDateHoles resolves hd's unset fields against lowerBound. If the
// result still precedes lowerBound, it bumps forward by the smallest unit
// that was actually a hole in hd (a day, then a month, then a year as a
// last resort when nothing was holey at all), clamping the day of month at
// every step.
func fillDateHoles(hd HoleyDate, lowerBound time.Time) (time.Time, bool) {
	loc := lowerBound.Location()
	lb := truncDay(lowerBound)

	year := lb.Year()
	if hd.Year != nil {
		year = *hd.Year
	}
	month := int(lb.Month())
	if hd.Month != nil {
		month = *hd.Month
	}
	day := lb.Day()
	if hd.Day != nil {
		day = *hd.Day
	}
	day = clampDay(year, month, day)
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if !date.Before(lb) {
		return date, true
	}

	if hd.Day == nil {
		if bumped := date.AddDate(0, 0, 1); bumped.After(lb) {
			return bumped, true
		}
	} else if hd.Month == nil {
		if bumped := dateutil.AddMonths(date, 1); bumped.After(lb) {
			return bumped, true
		}
	} else if bumped := dateutil.AddMonths(date, 12); bumped.After(lb) {
		return bumped, true
	}
	return time.Time{}, false
}

func clampDay(year, month, day int) int {
	if day < 1 {
		return 1
	}
	if maxDay := dateutil.DaysInMonth(month, year); day > maxDay {
		return maxDay
	}
	return day
}

func concreteHoleyDate(t time.Time) HoleyDate {
	y, m, d := t.Year(), int(t.Month()), t.Day()
	return HoleyDate{Year: &y, Month: &m, Day: &d}
}
