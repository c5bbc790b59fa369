package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hray3182/remindee/internal/dateutil"
	"github.com/robfig/cron/v3"
)

var weekdayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

// intervalToken matches a bare concatenated interval such as "1w1h2m3s" or
// "58m" in full: one or more digit groups each followed by a unit suffix,
// with nothing else in the token. Dates never take this shape (they use
// "." or "/" separators, "-" ranges, or weekday names), so a full match
// unambiguously identifies a Countdown.
var intervalToken = regexp.MustCompile(`^(?:\d+(?:years|year|y|months|month|mo|weeks|week|w|days|day|d|hours|hour|h|minutes|minute|min|mi|m|seconds|second|sec|s))+$`)

// nagClause matches a "nag <interval>" modifier wherever it appears in the
// input, e.g. "... nag 10m".
var nagClause = regexp.MustCompile(`(?i)\bnag\s+(\S+)`)

// Parse turns one line of reminder text into a Reminder: a pattern plus
// the free-text description that follows it. The grammar is tried in
// order: a bare 5-field crontab (recognized by parsing, not by a literal
// prefix), a countdown ("1h", "1w2d"), and otherwise a date-pattern-list
// / time-pattern-list pair, each optional, followed by the description.
func Parse(s string) (Reminder, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Reminder{}, fmt.Errorf("pattern: empty input")
	}

	body, nagSec, err := extractNag(trimmed)
	if err != nil {
		return Reminder{}, err
	}
	if body == "" {
		return Reminder{}, fmt.Errorf("pattern: empty input")
	}

	fields, offsets := splitFields(body)

	if rem, ok := tryParseCron(body, fields, offsets); ok {
		rem.NagIntervalSec = nagSec
		return rem, nil
	}

	var rem Reminder
	switch {
	case intervalToken.MatchString(strings.ToLower(fields[0])):
		rem, err = parseCountdown(body, fields, offsets)
	default:
		rem, err = parseRecurrence(body, fields, offsets)
	}
	if err != nil {
		return Reminder{}, err
	}
	rem.NagIntervalSec = nagSec
	return rem, nil
}

// splitFields tokenizes s on runs of whitespace and, for each field,
// records the byte offset in s right after the field ends. Slicing s from
// offsets[i-1] onward (then trimming the result) recovers everything past
// the first i fields with its original internal spacing intact, unlike
// strings.Fields followed by strings.Join.
func splitFields(s string) ([]string, []int) {
	var fields []string
	var offsets []int
	i, n := 0, len(s)
	for i < n {
		for i < n && isSpace(s[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		for i < n && !isSpace(s[i]) {
			i++
		}
		fields = append(fields, s[start:i])
		offsets = append(offsets, i)
	}
	return fields, offsets
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// extractNag removes the first "nag <interval>" clause from s, wherever
// it appears, and returns the remaining text plus the requested re-nag
// interval in seconds. It operates on the raw string, before field
// splitting, so the description recovered afterward never has to account
// for a hole left in the middle of it.
func extractNag(s string) (string, *int64, error) {
	loc := nagClause.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, nil, nil
	}
	token := s[loc[2]:loc[3]]
	iv, err := parseInterval(token)
	if err != nil {
		return "", nil, fmt.Errorf("pattern: nag interval: %w", err)
	}
	if iv.IsZero() {
		return "", nil, fmt.Errorf("pattern: nag interval must be non-zero")
	}
	sec := intervalSeconds(iv)
	stripped := strings.TrimSpace(s[:loc[0]] + s[loc[1]:])
	return stripped, &sec, nil
}

// intervalSeconds approximates an Interval as a flat second count, using
// 30-day months and 365-day years; nag intervals are always small clock
// durations in practice, so the approximation never matters in use.
func intervalSeconds(iv dateutil.Interval) int64 {
	days := int64(iv.Years)*365 + int64(iv.Months)*30 + int64(iv.Weeks)*7 + int64(iv.Days)
	return days*86400 + int64(iv.Hours)*3600 + int64(iv.Minutes)*60 + int64(iv.Seconds)
}

// tryParseCron recognizes a bare 5-field crontab by attempting to parse
// the first 5 whitespace-separated fields as one; there is no "cron:"
// literal prefix. ok is false whenever there aren't 5 fields or they
// don't form a valid expression, letting the caller fall back to the
// countdown/recurrence grammar.
func tryParseCron(raw string, fields []string, offsets []int) (Reminder, bool) {
	if len(fields) < 5 {
		return Reminder{}, false
	}
	expr := strings.Join(fields[:5], " ")
	if _, err := cron.ParseStandard(expr); err != nil {
		return Reminder{}, false
	}
	desc := ""
	if len(fields) > 5 {
		desc = strings.TrimSpace(raw[offsets[4]:])
	}
	return Reminder{
		Pattern:     Pattern{Kind: KindCron, Cron: Cron{Expr: expr}},
		Description: desc,
	}, true
}

func parseCountdown(raw string, fields []string, offsets []int) (Reminder, error) {
	iv, err := parseInterval(fields[0])
	if err != nil {
		return Reminder{}, fmt.Errorf("pattern: countdown: %w", err)
	}
	if iv.IsZero() {
		return Reminder{}, fmt.Errorf("pattern: countdown interval must be non-zero")
	}
	desc := ""
	if len(fields) > 1 {
		desc = strings.TrimSpace(raw[offsets[0]:])
	}
	return Reminder{
		Pattern:     Pattern{Kind: KindCountdown, Countdown: Countdown{Interval: iv}},
		Description: desc,
	}, nil
}

// parseRecurrence tries, in order, a date-pattern-list token and a
// time-pattern-list token; either, both, or neither may be present (an
// absent date pattern means "today", an absent time pattern means
// midnight). Whichever token fails to parse as its kind is left for the
// description instead of being rejected outright, so a leading time-only
// form, an empty "-" date-range marker, or plain description-only text
// all resolve the same way a backtracking grammar would.
func parseRecurrence(raw string, fields []string, offsets []int) (Reminder, error) {
	i := 0
	var datePatterns []DatePattern
	if i < len(fields) {
		if dp, err := parseDatePatternList(fields[i]); err == nil {
			datePatterns = dp
			i++
		}
	}
	var timePatterns []TimePattern
	if i < len(fields) {
		if tp, err := parseTimePatternList(fields[i]); err == nil {
			timePatterns = tp
			i++
		}
	}
	desc := raw
	if i > 0 {
		desc = raw[offsets[i-1]:]
	}
	desc = strings.TrimSpace(desc)

	return Reminder{
		Pattern: Pattern{
			Kind:       KindRecurrence,
			Recurrence: Recurrence{DatePatterns: datePatterns, TimePatterns: timePatterns},
		},
		Description: desc,
	}, nil
}

// parseDatePatternList parses a comma-separated list of date patterns:
// holey dates, date ranges, and weekday-set divisors. A divisor clause
// (after a "/") may itself contain commas (a weekday list like
// "/fri,mon"); only the last comma-separated segment may carry one, so
// those inner commas are reattached before each segment is parsed on its
// own.
func parseDatePatternList(s string) ([]DatePattern, error) {
	segments := strings.Split(s, ",")
	lastSlash := -1
	for i, seg := range segments {
		if strings.Contains(seg, "/") {
			lastSlash = i
		}
	}
	if lastSlash >= 0 && lastSlash < len(segments)-1 {
		tail := strings.Join(segments[lastSlash:], ",")
		segments = append(segments[:lastSlash], tail)
	}

	out := make([]DatePattern, 0, len(segments))
	for _, item := range segments {
		dp, err := parseDatePatternItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, dp)
	}
	return out, nil
}

// parseDatePatternItem parses one "from[-until][/divisor]" date item. A
// bare "-" with nothing around it is a range with an implicit "today"
// start and no end; a leading "/" is a range with an implicit "today"
// start and an explicit divisor.
func parseDatePatternItem(item string) (DatePattern, error) {
	fromHD, rest, hasFrom := takeHoleyDatePrefix(item)

	sawDash := false
	var untilHD *HoleyDate
	if strings.HasPrefix(rest, "-") {
		sawDash = true
		rest = rest[1:]
		uHD, r2, hasUntil := takeHoleyDatePrefix(rest)
		rest = r2
		if hasUntil {
			untilHD = &uHD
		}
	}

	sawDivisor := false
	var divisor DateDivisor
	if strings.HasPrefix(rest, "/") {
		d, err := parseDateDivisor(rest[1:])
		if err != nil {
			return DatePattern{}, err
		}
		divisor = d
		sawDivisor = true
		rest = ""
	}

	if rest != "" {
		return DatePattern{}, fmt.Errorf("pattern: unexpected trailing %q in date pattern %q", rest, item)
	}

	if !sawDash && !sawDivisor {
		if !hasFrom {
			return DatePattern{}, fmt.Errorf("pattern: empty date pattern %q", item)
		}
		return DatePattern{Kind: DatePatternPoint, Point: fromHD}, nil
	}
	if !hasFrom {
		fromHD = HoleyDate{}
	}
	if !sawDivisor {
		divisor = defaultDateDivisor()
	}
	return DatePattern{Kind: DatePatternRange, Range: DateRange{Start: fromHD, End: untilHD, Divisor: divisor}}, nil
}

// takeHoleyDatePrefix greedily consumes a leading holey date from s: a
// run of digits, then (if followed by "." or "/") more digit groups
// joined by that same separator, up to 3 groups total. A group is only
// consumed if its digits aren't immediately followed by a letter, which
// signals the start of a divisor unit instead (so "12/31/1MONTH" stops
// after "12/31", leaving "/1MONTH" for the caller).
func takeHoleyDatePrefix(s string) (HoleyDate, string, bool) {
	first, i := readDigits(s, 0)
	if first == "" {
		return HoleyDate{}, s, false
	}
	groups := []string{first}
	var sep byte
	if i < len(s) && (s[i] == '.' || s[i] == '/') {
		sep = s[i]
	}
	for sep != 0 && len(groups) < 3 && i < len(s) && s[i] == sep {
		digits, k := readDigits(s, i+1)
		if digits == "" {
			break
		}
		if k < len(s) && isLetter(s[k]) {
			break
		}
		groups = append(groups, digits)
		i = k
	}
	hd, err := buildHoleyDate(groups, sep)
	if err != nil {
		return HoleyDate{}, s, false
	}
	return hd, s[i:], true
}

func readDigits(s string, i int) (string, int) {
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	return s[i:j], j
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// buildHoleyDate assigns 1-3 pure-digit groups to year/month/day
// according to the separator's field order: "." is day-first
// ("DD.MM[.YYYY]", the common European reading), "/" is day-last
// ("[YYYY/]MM/DD"). A single group with no separator is always a day.
func buildHoleyDate(groups []string, sep byte) (HoleyDate, error) {
	ints := make([]int, len(groups))
	for i, g := range groups {
		n, err := strconv.Atoi(g)
		if err != nil {
			return HoleyDate{}, err
		}
		ints[i] = n
	}
	var hd HoleyDate
	switch {
	case len(groups) == 1:
		hd.Day = &ints[0]
	case sep == '.':
		hd.Day = &ints[0]
		hd.Month = &ints[1]
		if len(groups) == 3 {
			y := normaliseYear(ints[2])
			hd.Year = &y
		}
	default: // '/'
		if len(groups) == 2 {
			hd.Month = &ints[0]
			hd.Day = &ints[1]
		} else {
			y := normaliseYear(ints[0])
			hd.Year = &y
			hd.Month = &ints[1]
			hd.Day = &ints[2]
		}
	}
	return hd, nil
}

// normaliseYear assumes a 2-digit year is in the 2000s.
func normaliseYear(y int) int {
	if y < 100 {
		return y + 2000
	}
	return y
}

// parseDateDivisor parses the clause after a date range's "/": either a
// comma list of weekday ranges, or an interval restricted to date units
// (y, mo, w, d). Restricting the interval to date units is what makes a
// token like "11-18/1h" fail here and fall back to being parsed as a time
// pattern instead, where "1h" is valid.
func parseDateDivisor(s string) (DateDivisor, error) {
	if wd, err := parseWeekdayDivisor(s); err == nil {
		return DateDivisor{Kind: DateDivisorWeekdays, Weekdays: wd}, nil
	}
	iv, err := parseInterval(s)
	if err != nil {
		return DateDivisor{}, fmt.Errorf("pattern: date divisor: %w", err)
	}
	if iv.Hours != 0 || iv.Minutes != 0 || iv.Seconds != 0 {
		return DateDivisor{}, fmt.Errorf("pattern: date divisor %q uses a time unit", s)
	}
	if iv.IsZero() {
		return DateDivisor{}, fmt.Errorf("pattern: date divisor %q is empty", s)
	}
	return DateDivisor{Kind: DateDivisorInterval, Interval: iv}, nil
}

func parseWeekdayDivisor(s string) (Weekdays, error) {
	var w Weekdays
	for _, seg := range strings.Split(s, ",") {
		if lo, hi, ok := strings.Cut(seg, "-"); ok {
			wlo, ok1 := weekdayOf(lo)
			whi, ok2 := weekdayOf(hi)
			if !ok1 || !ok2 {
				return Weekdays{}, fmt.Errorf("pattern: invalid weekday range %q", seg)
			}
			d := wlo
			for {
				w.Set(time.Weekday(d))
				if d == whi {
					break
				}
				d = (d + 1) % 7
			}
		} else {
			wd, ok := weekdayOf(seg)
			if !ok {
				return Weekdays{}, fmt.Errorf("pattern: invalid weekday %q", seg)
			}
			w.Set(time.Weekday(wd))
		}
	}
	if w.Empty() {
		return Weekdays{}, fmt.Errorf("pattern: empty weekday divisor")
	}
	return w, nil
}

func weekdayOf(s string) (int, bool) {
	wd, ok := weekdayNames[strings.ToLower(s)]
	return wd, ok
}

// parseTimePatternList parses a comma-separated list of time patterns:
// holey times ("H", "H:M", "H:M:S") and time ranges
// ("H[:M[:S]]-H[:M[:S]][/interval]").
func parseTimePatternList(s string) ([]TimePattern, error) {
	var out []TimePattern
	for _, item := range strings.Split(s, ",") {
		tp, err := parseTimePatternItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, nil
}

func parseTimePatternItem(item string) (TimePattern, error) {
	fromT, rest, hasFrom := takeTimePrefix(item)

	sawDash := false
	var untilT *Time
	if strings.HasPrefix(rest, "-") {
		sawDash = true
		rest = rest[1:]
		uT, r2, hasUntil := takeTimePrefix(rest)
		rest = r2
		if hasUntil {
			untilT = &uT
		}
	}

	sawDivisor := false
	var divisor dateutil.Interval
	if strings.HasPrefix(rest, "/") {
		iv, err := parseTimeDivisor(rest[1:])
		if err != nil {
			return TimePattern{}, err
		}
		divisor = iv
		sawDivisor = true
		rest = ""
	}

	if rest != "" {
		return TimePattern{}, fmt.Errorf("pattern: unexpected trailing %q in time pattern %q", rest, item)
	}

	if !sawDash && !sawDivisor {
		if !hasFrom {
			return TimePattern{}, fmt.Errorf("pattern: empty time pattern %q", item)
		}
		return TimePattern{Kind: TimePatternPoint, Point: fromT}, nil
	}
	var startPtr *Time
	if hasFrom {
		startPtr = &fromT
	}
	return TimePattern{Kind: TimePatternRange, Range: TimeRange{Start: startPtr, End: untilT, Divisor: divisor}}, nil
}

// takeTimePrefix reads a leading "H", "H:M", or "H:M:S" time of day from
// s. The hour alone is a complete, valid time (no colon required), which
// is what lets a bare-hour range like "11-18" parse at all.
func takeTimePrefix(s string) (Time, string, bool) {
	hourStr, i := readDigits(s, 0)
	if hourStr == "" {
		return Time{}, s, false
	}
	hour, _ := strconv.Atoi(hourStr)
	t := Time{Hour: hour}
	if i < len(s) && s[i] == ':' {
		minStr, j := readDigits(s, i+1)
		if minStr != "" {
			minute, _ := strconv.Atoi(minStr)
			t.Minute = minute
			i = j
			if i < len(s) && s[i] == ':' {
				secStr, k := readDigits(s, i+1)
				if secStr != "" {
					sec, _ := strconv.Atoi(secStr)
					t.Second = sec
					i = k
				}
			}
		}
	}
	return t, s[i:], true
}

// parseTimeDivisor parses the clause after a time range's "/": an
// interval restricted to clock units (h, m, s). Restricting it to clock
// units is the mirror image of parseDateDivisor, and is what lets "1h"
// succeed here after failing as a date divisor.
func parseTimeDivisor(s string) (dateutil.Interval, error) {
	iv, err := parseInterval(s)
	if err != nil {
		return dateutil.Interval{}, fmt.Errorf("pattern: time divisor: %w", err)
	}
	if iv.Years != 0 || iv.Months != 0 || iv.Weeks != 0 || iv.Days != 0 {
		return dateutil.Interval{}, fmt.Errorf("pattern: time divisor %q uses a date unit", s)
	}
	if iv.IsZero() {
		return dateutil.Interval{}, fmt.Errorf("pattern: time divisor %q is empty", s)
	}
	return iv, nil
}

// parseInterval parses a compact duration expression such as "1h30m",
// "2d", "1w3d12h". Recognized units: y(ears), mo(nths), w(eeks), d(ays),
// h(ours), mi(nutes) or m when unambiguous, s(econds).
func parseInterval(s string) (dateutil.Interval, error) {
	var iv dateutil.Interval
	i := 0
	n := len(s)
	if n == 0 {
		return iv, fmt.Errorf("empty interval")
	}
	for i < n {
		start := i
		for i < n && (s[i] >= '0' && s[i] <= '9') {
			i++
		}
		if i == start {
			return iv, fmt.Errorf("invalid interval %q: expected digits at position %d", s, i)
		}
		value, err := strconv.Atoi(s[start:i])
		if err != nil {
			return iv, err
		}
		unitStart := i
		for i < n && !(s[i] >= '0' && s[i] <= '9') {
			i++
		}
		unit := strings.ToLower(s[unitStart:i])
		switch unit {
		case "y", "year", "years":
			iv.Years += value
		case "mo", "month", "months":
			iv.Months += value
		case "w", "week", "weeks":
			iv.Weeks += value
		case "d", "day", "days":
			iv.Days += value
		case "h", "hour", "hours":
			iv.Hours += value
		case "mi", "min", "minute", "minutes":
			iv.Minutes += value
		case "m":
			iv.Minutes += value
		case "s", "sec", "second", "seconds":
			iv.Seconds += value
		default:
			return iv, fmt.Errorf("invalid interval %q: unknown unit %q", s, unit)
		}
	}
	return iv, nil
}
