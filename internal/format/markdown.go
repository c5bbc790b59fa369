// Package format renders reminder deliveries as Telegram MarkdownV2 text:
// escaping reserved characters, suppressing accidental @mentions, and
// prefixing group reminders with a hidden deep-link to their setter.
package format

import (
	"fmt"
	"strings"
	"time"
)

// mdv2Reserved is the set of characters MarkdownV2 requires escaped
// outside of an already-open entity. See Telegram's Bot API docs for
// "MarkdownV2 style".
const mdv2Reserved = "_*[]()~`>#+-=|{}.!"

// EscapeMarkdownV2 backslash-escapes every MarkdownV2 reserved character
// in s so it renders as literal text.
func EscapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(mdv2Reserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SuppressMentions replaces '@' with '@' followed by a zero-width space,
// so a description like "email team@example.com" never pings a Telegram
// username.
func SuppressMentions(s string) string {
	return strings.ReplaceAll(s, "@", "@​")
}

// ReminderTime renders a firing instant the way a reminder delivery shows
// it: HH:MM alone when due is on the same local day as now, otherwise
// "DD.MM[.YYYY] HH:MM" with the year only shown when it differs from
// now's year. Both instants must already be in the display timezone.
func ReminderTime(due, now time.Time) string {
	var s string
	if due.Year() != now.Year() || due.YearDay() != now.YearDay() {
		s = fmt.Sprintf("%02d.%02d", due.Day(), due.Month())
		if due.Year() != now.Year() {
			s += fmt.Sprintf(".%d", due.Year())
		}
		s += " "
	}
	return s + fmt.Sprintf("%02d:%02d", due.Hour(), due.Minute())
}

// Reminder renders a plain (non-group) reminder delivery: its firing time
// and description, escaped for MarkdownV2 with mentions suppressed.
func Reminder(due, now time.Time, description string) string {
	body := fmt.Sprintf("%s %s", ReminderTime(due, now), description)
	return EscapeMarkdownV2(SuppressMentions(body))
}

// ReminderWithMention renders a group reminder delivery: the same text as
// Reminder, prefixed with a zero-width-looking deep link to the user who
// set it, so group members can tell who it's for without an actual
// @mention.
func ReminderWithMention(due, now time.Time, description string, setterUserID int64) string {
	link := fmt.Sprintf("[​](tg://user?id=%d)", setterUserID)
	return link + "\n" + Reminder(due, now, description)
}
