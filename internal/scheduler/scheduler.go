// Package scheduler runs the persistent tick loop spec §4.E describes:
// fire due reminders, nag open occurrences, advance recurring patterns,
// all driven by one goroutine woken by the database's coalescing wake
// signal rather than per-reminder timers.
package scheduler

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/remindee/internal/database"
	"github.com/hray3182/remindee/internal/format"
	"github.com/hray3182/remindee/internal/models"
	"github.com/hray3182/remindee/internal/pattern"
	"github.com/hray3182/remindee/internal/repository"
)

// sleepCeiling bounds how long the loop sleeps when no reminder or nag
// deadline exists yet, so a reminder inserted by a write that somehow
// missed the wake signal is still picked up within a bounded time.
const sleepCeiling = 60 * time.Second

// Transport is the subset of the chat API the scheduler needs to deliver
// and re-deliver reminders. internal/bot.Bot satisfies it.
type Transport interface {
	SendDelivery(chatID, userID int64, text string, occurrenceID int64) (messageID int64, err error)
}

// Scheduler is the tick loop. Ground: teacher's scheduler.Scheduler
// (ticker + buffered notifyCh, Start/check shape), generalized from
// reminder/event/todo/daily-summary checks to fire/nag/advance over
// reminders and occurrences.
type Scheduler struct {
	transport   Transport
	db          *database.DB
	reminders   *repository.ReminderRepository
	occurrences *repository.OccurrenceRepository
	messages    *repository.ReminderMessageRepository
	prefs       *repository.UserPrefsRepository
	log         *slog.Logger
}

// New constructs a Scheduler. logger may be nil, in which case a
// discarding logger is used.
func New(transport Transport, db *database.DB, reminders *repository.ReminderRepository,
	occurrences *repository.OccurrenceRepository, messages *repository.ReminderMessageRepository,
	prefs *repository.UserPrefsRepository, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(nilWriter{}, nil))
	}
	return &Scheduler{
		transport:   transport,
		db:          db,
		reminders:   reminders,
		occurrences: occurrences,
		messages:    messages,
		prefs:       prefs,
		log:         logger,
	}
}

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }

// Start runs the tick loop until ctx is cancelled. Each iteration runs
// check, then sleeps until the earlier of the next computed deadline or
// sleepCeiling, woken early by the database's wake channel.
func (s *Scheduler) Start(ctx context.Context) {
	wake := s.db.WakeChan()
	for {
		s.check(ctx)

		deadline, err := s.nextDeadline(ctx)
		if err != nil {
			log.Printf("scheduler: compute next deadline: %v", err)
			deadline = time.Now().Add(sleepCeiling)
		}
		d := time.Until(deadline)
		if d <= 0 {
			select {
			case <-ctx.Done():
				return
			default:
				continue
			}
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// nextDeadline returns the earlier of the next reminder firing instant
// and the next occurrence nag instant, capped at sleepCeiling from now.
func (s *Scheduler) nextDeadline(ctx context.Context) (time.Time, error) {
	ceiling := time.Now().Add(sleepCeiling)
	deadline := ceiling

	remTime, ok, err := s.reminders.NextDeadline(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if ok && remTime.Before(deadline) {
		deadline = remTime
	}

	nagTime, ok, err := s.occurrences.NextNagDeadline(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if ok && nagTime.Before(deadline) {
		deadline = nagTime
	}

	return deadline, nil
}

// check runs one fire/nag/advance pass. Every failure is logged and the
// pass continues with the next reminder or occurrence; a single bad row
// never stalls the loop (spec §4.E / §7: "logged, retried or skipped").
func (s *Scheduler) check(ctx context.Context) {
	now := time.Now().UTC()
	s.fireDue(ctx, now)
	s.nagOpen(ctx, now)
	s.closeExpired(ctx, now)
}

// fireDue implements spec §4.E steps 1-2: for every unpaused reminder
// whose time has passed, send a delivery, open an occurrence if nagging
// is configured, and advance the reminder to its next firing instant.
func (s *Scheduler) fireDue(ctx context.Context, now time.Time) {
	due, err := s.reminders.DueToFire(ctx, now)
	if err != nil {
		log.Printf("scheduler: list due reminders: %v", err)
		return
	}
	for _, rem := range due {
		s.fireOne(ctx, rem, now)
	}
}

func (s *Scheduler) fireOne(ctx context.Context, rem *models.Reminder, now time.Time) {
	fireAt := rem.Time
	text := s.renderDelivery(rem, fireAt, now)

	var occurrenceID int64
	if rem.NagIntervalSec != nil {
		occ, err := s.occurrences.Open(ctx, rem.ID, fireAt, rem.Description, *rem.NagIntervalSec)
		if err != nil {
			log.Printf("scheduler: open occurrence for reminder %d: %v", rem.ID, err)
			return
		}
		occurrenceID = occ.ID
	}

	msgID, err := s.transport.SendDelivery(rem.ChatID, rem.UserID, text, occurrenceID)
	if err != nil {
		log.Printf("scheduler: send delivery for reminder %d: %v", rem.ID, err)
	} else if occurrenceID != 0 {
		msg := &models.ReminderMessage{
			ReminderID:   rem.ID,
			OccurrenceID: &occurrenceID,
			ChatID:       rem.ChatID,
			MessageID:    msgID,
			IsDelivery:   true,
		}
		if err := s.messages.Create(ctx, msg); err != nil {
			log.Printf("scheduler: record delivery message for reminder %d: %v", rem.ID, err)
		}
	}

	s.advance(ctx, rem, fireAt)
}

// advance recomputes and persists a reminder's next firing instant. A
// pattern that can never fire again (a consumed countdown, or no pattern
// at all for a one-shot reminder) pauses the reminder instead of
// deleting it, so list/edit still resolve it.
func (s *Scheduler) advance(ctx context.Context, rem *models.Reminder, fireAt time.Time) {
	if rem.Pattern == "" {
		if err := s.reminders.SetPaused(ctx, rem.ID, true); err != nil {
			log.Printf("scheduler: pause one-shot reminder %d after firing: %v", rem.ID, err)
		}
		return
	}
	p, err := pattern.Deserialize(rem.Pattern)
	if err != nil {
		log.Printf("scheduler: deserialize pattern for reminder %d: %v", rem.ID, err)
		return
	}
	next, ok, advanced, err := p.Next(fireAt)
	if err != nil {
		log.Printf("scheduler: compute next firing for reminder %d: %v", rem.ID, err)
		return
	}
	if !ok {
		if err := s.reminders.SetPaused(ctx, rem.ID, true); err != nil {
			log.Printf("scheduler: pause exhausted reminder %d: %v", rem.ID, err)
		}
		return
	}
	serialized, err := pattern.Serialize(advanced)
	if err != nil {
		log.Printf("scheduler: re-serialize pattern for reminder %d: %v", rem.ID, err)
		return
	}
	if err := s.reminders.UpdatePattern(ctx, rem.ID, serialized, rem.Description, next, rem.NagIntervalSec); err != nil {
		log.Printf("scheduler: advance reminder %d: %v", rem.ID, err)
	}
}

// nagOpen implements spec §4.E step 3: re-send every open occurrence
// whose next_nag_at has passed, then push its deadline forward by its
// own interval.
func (s *Scheduler) nagOpen(ctx context.Context, now time.Time) {
	due, err := s.occurrences.DueForNag(ctx, now)
	if err != nil {
		log.Printf("scheduler: list occurrences due for nag: %v", err)
		return
	}
	for _, occ := range due {
		rem, err := s.reminders.GetByID(ctx, occ.ReminderID)
		if err != nil || rem == nil {
			log.Printf("scheduler: load reminder %d for nag: %v", occ.ReminderID, err)
			continue
		}
		text := s.renderDelivery(rem, occ.FireAt, now)
		if _, err := s.transport.SendDelivery(rem.ChatID, rem.UserID, text, occ.ID); err != nil {
			log.Printf("scheduler: send nag for occurrence %d: %v", occ.ID, err)
			continue
		}
		next := occ.NextNagAt.Add(time.Duration(occ.NagIntervalSec) * time.Second)
		if err := s.occurrences.Nagged(ctx, occ.ID, next); err != nil {
			log.Printf("scheduler: advance nag deadline for occurrence %d: %v", occ.ID, err)
		}
	}
}

// closeExpired implements the stop_at half of spec §3's Occurrence
// lifecycle: an occurrence whose stop deadline has passed without
// acknowledgment is closed, no further nags sent.
func (s *Scheduler) closeExpired(ctx context.Context, now time.Time) {
	expired, err := s.occurrences.Expired(ctx, now)
	if err != nil {
		log.Printf("scheduler: list expired occurrences: %v", err)
		return
	}
	for _, occ := range expired {
		if err := s.occurrences.Close(ctx, occ.ID, now, "expired"); err != nil {
			log.Printf("scheduler: close expired occurrence %d: %v", occ.ID, err)
		}
	}
}

// renderDelivery formats a reminder's due text in the setter's timezone,
// falling back to UTC if the preference can't be loaded (never blocks a
// delivery on a preference lookup failure).
func (s *Scheduler) renderDelivery(rem *models.Reminder, due, now time.Time) string {
	tzName := "UTC"
	if tz, err := s.prefs.GetTimezone(context.Background(), rem.UserID); err == nil && tz != nil {
		tzName = tz.TZName
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		loc = time.UTC
	}
	// A Telegram private chat's id equals its user's id; any other chat is
	// a group, whose deliveries carry the link to the setter.
	if rem.ChatID == rem.UserID {
		return format.Reminder(due.In(loc), now.In(loc), rem.Description)
	}
	return format.ReminderWithMention(due.In(loc), now.In(loc), rem.Description, rem.UserID)
}

// IsBenignSendError reports whether err is one of the Telegram API
// failures spec §7 says to downgrade to debug logging rather than treat
// as a delivery failure: editing a message that's gone or unchanged.
func IsBenignSendError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		// Telegram may append detail after these descriptions, so match
		// by prefix.
		for _, prefix := range []string{
			"Bad Request: message is not modified",
			"Bad Request: message can't be edited",
			"Bad Request: message to edit not found",
			"Bad Request: message identifier is not specified",
			"Bad Request: MESSAGE_ID_INVALID",
		} {
			if strings.HasPrefix(apiErr.Message, prefix) {
				return true
			}
		}
	}
	return false
}
