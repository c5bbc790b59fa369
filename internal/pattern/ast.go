// Package pattern implements the reminder time-pattern language: parsing
// the terse text grammar reminders are written in, the canonical pattern
// model that results from lifting a parse against a point in time, and the
// next-occurrence search over it.
package pattern

import (
	"time"

	"github.com/hray3182/remindee/internal/dateutil"
)

// HoleyDate is a calendar date with any field left unspecified ("holey")
// at parse time. Lift fills every hole once, from the instant it lifts
// against, with a concrete value, after which Date can be called.
type HoleyDate struct {
	Year  *int
	Month *int // 1-12
	Day   *int // 1-31
}

// Date returns the concrete date in loc. Callers must only use this on a
// HoleyDate that Lift has fully resolved.
func (d HoleyDate) Date(loc *time.Location) time.Time {
	return time.Date(*d.Year, time.Month(*d.Month), *d.Day, 0, 0, 0, 0, loc)
}

// Weekdays is a bitset over time.Sunday..time.Saturday.
type Weekdays [7]bool

// Set marks wd as present.
func (w *Weekdays) Set(wd time.Weekday) { w[int(wd)] = true }

// Has reports whether wd is present.
func (w Weekdays) Has(wd time.Weekday) bool { return w[int(wd)] }

// Empty reports whether no weekday is set.
func (w Weekdays) Empty() bool {
	for _, b := range w {
		if b {
			return false
		}
	}
	return true
}

// DateDivisorKind tags which variant of DateDivisor is populated.
type DateDivisorKind int

const (
	DateDivisorInterval DateDivisorKind = iota
	DateDivisorWeekdays
)

// DateDivisor is the step rule of a DateRange: either a calendar interval
// restricted to date units, or a weekday set.
type DateDivisor struct {
	Kind     DateDivisorKind
	Interval dateutil.Interval
	Weekdays Weekdays
}

// defaultDateDivisor is the divisor a range gets when none was written:
// step by one day.
func defaultDateDivisor() DateDivisor {
	return DateDivisor{Kind: DateDivisorInterval, Interval: dateutil.Interval{Days: 1}}
}

// DateRange is an inclusive Start/End date range stepped by Divisor. End
// nil means unbounded.
type DateRange struct {
	Start   HoleyDate
	End     *HoleyDate
	Divisor DateDivisor
}

// DatePatternKind tags which variant of DatePattern is populated.
type DatePatternKind int

const (
	DatePatternPoint DatePatternKind = iota
	DatePatternRange
)

// DatePattern is one date-matching rule: a single holey date, or an
// inclusive stepped range (weekday-only patterns are a range whose Start
// is the empty holey date and whose divisor is a weekday set).
type DatePattern struct {
	Kind  DatePatternKind
	Point HoleyDate
	Range DateRange
}

// Time is a fully-specified time of day; the grammar fills absent minute
// and second fields with zero at parse time, so unlike HoleyDate it is
// never partial.
type Time struct {
	Hour, Minute, Second int
}

// TimeRange is a time-of-day range stepped by Divisor. Start nil means
// 00:00; End nil means open (no upper bound).
type TimeRange struct {
	Start   *Time
	End     *Time
	Divisor dateutil.Interval
}

// TimePatternKind tags which variant of TimePattern is populated.
type TimePatternKind int

const (
	TimePatternPoint TimePatternKind = iota
	TimePatternRange
)

// TimePattern is one time-of-day matching rule.
type TimePattern struct {
	Kind  TimePatternKind
	Point Time
	Range TimeRange
}

// Recurrence is the general recurring pattern: a reminder fires on the
// earliest date/time combination, after "now", that satisfies at least one
// date pattern and at least one time pattern. Before Lift, dates may be
// holey; after Lift, every date is concrete and anchored to the instant
// lifting happened at.
type Recurrence struct {
	DatePatterns []DatePattern
	TimePatterns []TimePattern
	TZName       string
}

// Countdown fires exactly once: Interval after the instant Lift ran. Used
// flags that the single firing has already been produced, so every later
// call to Next returns none, matching a countdown "consuming" itself.
type Countdown struct {
	Interval dateutil.Interval
	Used     bool
	TZName   string
}

// Cron is a 5-field standard cron expression, evaluated by an external
// cron schedule library rather than the date/time pattern engine above.
type Cron struct {
	Expr   string
	TZName string
}

// Kind tags which variant of Pattern is populated.
type Kind int

const (
	KindRecurrence Kind = iota
	KindCountdown
	KindCron
)

// Pattern is the tagged union of the three ways a reminder can recur. The
// same shape is used both for the raw grammar output (holey dates, no
// timezone) and, after Lift, for the canonical form that gets persisted
// and driven by Next.
type Pattern struct {
	Kind       Kind
	Recurrence Recurrence
	Countdown  Countdown
	Cron       Cron
}

// Reminder is the parsed result of one input line: a pattern, the free
// text description that follows it, and an optional re-nag interval
// ("... nag 10m") that keeps re-sending an open occurrence until
// acknowledged.
type Reminder struct {
	Pattern        Pattern
	Description    string
	NagIntervalSec *int64
}
