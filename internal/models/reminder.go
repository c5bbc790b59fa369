// Package models defines the persisted shapes of the reminder domain.
package models

import "time"

// Reminder is a single scheduled reminder owned by a chat.
type Reminder struct {
	ID             int64
	RecID          string // stable logical key, survives edits that replace Pattern
	ChatID         int64
	UserID         int64
	Pattern        string // serialized pattern.Pattern, or "" for a one-shot reminder
	Description    string
	Time           time.Time // next UTC firing instant; frozen while Paused
	Paused         bool
	NagIntervalSec *int64
	CreatedAt      time.Time
}

// ReminderMessage links one chat message back to a reminder, so a reply or
// edit targeting that message resolves to the reminder it came from.
// IsDelivery marks messages that are themselves a delivery, so an
// acknowledgement can find the message to clear its markup.
type ReminderMessage struct {
	ID           int64
	ReminderID   int64
	OccurrenceID *int64
	ChatID       int64
	MessageID    int64
	IsDelivery   bool
	ReplyID      *int64
	CreatedAt    time.Time
}

// Occurrence is one in-flight delivery of a reminder awaiting
// acknowledgement. NextNagAt is meaningless once DoneAt is set.
type Occurrence struct {
	ID             int64
	ReminderID     int64
	FireAt         time.Time
	DescSnapshot   string
	NextNagAt      time.Time
	NagIntervalSec int64
	StopAt         *time.Time
	DoneAt         *time.Time
	ClosedReason   string
	CreatedAt      time.Time
}

// Open reports whether the occurrence is still awaiting acknowledgement:
// not done, and not past its stop deadline.
func (o *Occurrence) Open(now time.Time) bool {
	if o.DoneAt != nil {
		return false
	}
	return o.StopAt == nil || o.StopAt.After(now)
}

// UserTimezone is a user's chosen IANA timezone name.
type UserTimezone struct {
	UserID int64
	TZName string
	SetAt  time.Time
}

// UserLanguage is a user's chosen UI language code, one of the closed set
// defined in internal/locale.
type UserLanguage struct {
	UserID int64
	Code   string
	SetAt  time.Time
}
