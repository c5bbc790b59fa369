package pattern

import (
	"fmt"
	"time"

	"github.com/hray3182/remindee/internal/dateutil"
	"github.com/robfig/cron/v3"
)

// Next returns the earliest instant strictly after now at which p fires,
// in the timezone Lift attached to it, and the pattern state to persist
// afterward (unchanged except for Countdown, which marks itself used on
// its one and only firing). A caller advancing a reminder must persist
// the returned Pattern alongside the returned instant so a spent
// Countdown never fires again.
func (p Pattern) Next(now time.Time) (time.Time, bool, Pattern, error) {
	switch p.Kind {
	case KindRecurrence:
		t, ok := p.Recurrence.Next(now, resolveLocation(p.Recurrence.TZName))
		return t, ok, p, nil
	case KindCountdown:
		t, ok := p.Countdown.Next(now)
		if ok {
			p.Countdown.Used = true
		}
		return t, ok, p, nil
	case KindCron:
		t, ok, err := p.Cron.Next(now, resolveLocation(p.Cron.TZName))
		return t, ok, p, err
	default:
		return time.Time{}, false, p, fmt.Errorf("pattern: unknown kind %d", p.Kind)
	}
}

// Next finds the earliest date/time combination strictly after now that
// satisfies at least one date pattern and at least one time pattern. Dates
// are already concrete by the time Next runs (Lift resolved every hole
// once), so finding the matching date never needs a day-by-day scan: it is
// computed directly, however far out it lies.
func (r Recurrence) Next(now time.Time, loc *time.Location) (time.Time, bool) {
	local := now.In(loc)
	today := truncDay(local)

	firstDate, ok := earliestDateFrom(r.DatePatterns, today)
	if !ok {
		return time.Time{}, false
	}
	firstTime := firstTimeOfDay(r.TimePatterns)

	if firstDate.After(today) {
		return combineDateTime(firstDate, firstTime, loc), true
	}

	cur := timeOfDay{local.Hour(), local.Minute(), local.Second()}
	if t, ok := nextTimeToday(r.TimePatterns, cur); ok {
		return combineDateTime(today, t, loc), true
	}

	nextDate, ok := earliestDateFrom(r.DatePatterns, today.AddDate(0, 0, 1))
	if !ok {
		return time.Time{}, false
	}
	return combineDateTime(nextDate, firstTime, loc), true
}

// earliestDateFrom returns the earliest date, across every date pattern,
// that is on or after from. A Point only ever contributes its own fixed
// date; a Range contributes its nearest step on or after from.
func earliestDateFrom(patterns []DatePattern, from time.Time) (time.Time, bool) {
	var best time.Time
	found := false
	consider := func(cand time.Time, ok bool) {
		if ok && (!found || cand.Before(best)) {
			best, found = cand, true
		}
	}
	for _, dp := range patterns {
		switch dp.Kind {
		case DatePatternPoint:
			d := dp.Point.Date(from.Location())
			consider(d, !d.Before(from))
		case DatePatternRange:
			consider(dp.Range.getNearestDate(from))
		}
	}
	return best, found
}

// getNearestDate returns the earliest date on or after from that this
// range's divisor produces, honoring Start and End.
func (r DateRange) getNearestDate(from time.Time) (time.Time, bool) {
	loc := from.Location()
	start := r.Start.Date(loc)

	var nearest time.Time
	switch r.Divisor.Kind {
	case DateDivisorWeekdays:
		base := start
		if from.After(base) {
			base = from
		}
		nearest = dateutil.FindNearestWeekday(base, r.Divisor.Weekdays)
	default:
		// Each step is Start plus k whole intervals, so a day clamped in a
		// short month does not carry over into later steps.
		iv := r.Divisor.Interval
		nearest = start
		for k := 1; nearest.Before(from); k++ {
			next := dateutil.AddDateInterval(start, dateutil.Interval{
				Years: iv.Years * k, Months: iv.Months * k, Weeks: iv.Weeks * k, Days: iv.Days * k,
			})
			if !next.After(nearest) {
				return time.Time{}, false
			}
			nearest = next
		}
	}

	if r.End != nil && nearest.After(r.End.Date(loc)) {
		return time.Time{}, false
	}
	return nearest, true
}

func truncDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func combineDateTime(date time.Time, t timeOfDay, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.hour, t.minute, t.second, 0, loc)
}

type timeOfDay struct{ hour, minute, second int }

// firstTimeOfDay is the nominal time of day a brand-new matching date
// fires at: the earliest point time, or the earliest range's start (00:00
// if unspecified).
func firstTimeOfDay(patterns []TimePattern) timeOfDay {
	best := timeOfDay{0, 0, 0}
	found := false
	consider := func(t timeOfDay) {
		if !found || less(t, best) {
			best, found = t, true
		}
	}
	for _, tp := range patterns {
		switch tp.Kind {
		case TimePatternPoint:
			consider(timeOfDay{tp.Point.Hour, tp.Point.Minute, tp.Point.Second})
		case TimePatternRange:
			t := timeOfDay{0, 0, 0}
			if tp.Range.Start != nil {
				t = timeOfDay{tp.Range.Start.Hour, tp.Range.Start.Minute, tp.Range.Start.Second}
			}
			consider(t)
		}
	}
	return best
}

// nextTimeToday returns the earliest time of day, across every time
// pattern, that is strictly later than cur. No time patterns at all means
// the implicit midnight placeholder, which can never be later than cur.
func nextTimeToday(patterns []TimePattern, cur timeOfDay) (timeOfDay, bool) {
	var best timeOfDay
	found := false
	consider := func(t timeOfDay) {
		if less(cur, t) && (!found || less(t, best)) {
			best, found = t, true
		}
	}
	for _, tp := range patterns {
		switch tp.Kind {
		case TimePatternPoint:
			consider(timeOfDay{tp.Point.Hour, tp.Point.Minute, tp.Point.Second})
		case TimePatternRange:
			if t, ok := nextTimeInRange(tp.Range, cur); ok {
				consider(t)
			}
		}
	}
	return best, found
}

// nextTimeInRange steps forward from r's start by its divisor, landing on
// the first step strictly after cur, capped by r's end (if any) and by
// midnight: a step that would cross into the next day means the range is
// exhausted for today.
func nextTimeInRange(r TimeRange, cur timeOfDay) (timeOfDay, bool) {
	start := timeOfDay{0, 0, 0}
	if r.Start != nil {
		start = timeOfDay{r.Start.Hour, r.Start.Minute, r.Start.Second}
	}
	step := r.Divisor
	if step.IsZero() {
		step = dateutil.Interval{Minutes: 1}
	}

	base := time.Date(2000, 1, 1, start.hour, start.minute, start.second, 0, time.UTC)
	curInstant := time.Date(2000, 1, 1, cur.hour, cur.minute, cur.second, 0, time.UTC)

	next := base
	for !next.After(curInstant) {
		n := dateutil.AddInterval(next, step)
		if !n.After(next) || n.Day() != 1 {
			return timeOfDay{}, false
		}
		next = n
	}

	if r.End != nil {
		end := time.Date(2000, 1, 1, r.End.Hour, r.End.Minute, r.End.Second, 0, time.UTC)
		if next.After(end) {
			return timeOfDay{}, false
		}
	}
	return timeOfDay{next.Hour(), next.Minute(), next.Second()}, true
}

func less(a, b timeOfDay) bool {
	if a.hour != b.hour {
		return a.hour < b.hour
	}
	if a.minute != b.minute {
		return a.minute < b.minute
	}
	return a.second < b.second
}

// Next emits now+Interval the first time it's called (ok=true) and
// nothing ever again (ok=false), regardless of what now is on that later
// call. The caller is responsible for persisting Used so this holds
// across process restarts too.
func (c Countdown) Next(now time.Time) (time.Time, bool) {
	if c.Used {
		return time.Time{}, false
	}
	return dateutil.AddInterval(now, c.Interval), true
}

// Next evaluates the cron expression with a real crontab schedule
// evaluator rather than the date/time pattern engine above.
func (c Cron) Next(now time.Time, loc *time.Location) (time.Time, bool, error) {
	sched, err := cron.ParseStandard(c.Expr)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("pattern: invalid cron expression %q: %w", c.Expr, err)
	}
	return sched.Next(now.In(loc)).In(time.UTC), true, nil
}
