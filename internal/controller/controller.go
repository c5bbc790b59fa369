// Package controller implements the user-facing reminder operations of
// spec §4.F: set, edit, edit-by-reply, pause, delete, list, done. It is
// the chat-agnostic layer internal/bot drives; it never touches the
// Telegram API directly, only the repository layer and the pattern
// engine.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hray3182/remindee/internal/apperr"
	"github.com/hray3182/remindee/internal/models"
	"github.com/hray3182/remindee/internal/pattern"
	"github.com/hray3182/remindee/internal/repository"
)

// EditTarget names which field a pending edit-by-text-reply will replace.
type EditTarget int

const (
	// EditTargetTimePattern replaces the reminder's recurrence, re-lifting
	// it from scratch against "now" at save time.
	EditTargetTimePattern EditTarget = iota
	// EditTargetDescription replaces only the free-text description.
	EditTargetDescription
)

// PendingEdit is the state-machine transition spec §9(b) describes: the
// controller remembers, per user, that their next plain-text message
// replaces a field on a specific reminder rather than being parsed as a
// new one.
type PendingEdit struct {
	ReminderID int64
	Target     EditTarget
}

// Controller implements spec §4.F over the repository layer. All methods
// are safe for concurrent use; the pending-edit map is the only mutable
// shared state and is guarded by its own mutex.
type Controller struct {
	Reminders        *repository.ReminderRepository
	Occurrences      *repository.OccurrenceRepository
	Messages         *repository.ReminderMessageRepository
	Prefs            *repository.UserPrefsRepository
	DefaultTZName    string
	pendingEditsMu   sync.Mutex
	pendingEdits     map[int64]PendingEdit // keyed by user id
}

// New constructs a Controller. defaultTZName is used for a user who has
// never picked a timezone (e.g. "UTC").
func New(reminders *repository.ReminderRepository, occurrences *repository.OccurrenceRepository,
	messages *repository.ReminderMessageRepository, prefs *repository.UserPrefsRepository, defaultTZName string) *Controller {
	return &Controller{
		Reminders:     reminders,
		Occurrences:   occurrences,
		Messages:      messages,
		Prefs:         prefs,
		DefaultTZName: defaultTZName,
		pendingEdits:  make(map[int64]PendingEdit),
	}
}

// TimezoneFor resolves a user's chosen timezone name, falling back to
// DefaultTZName if they've never set one.
func (c *Controller) TimezoneFor(ctx context.Context, userID int64) (string, error) {
	tz, err := c.Prefs.GetTimezone(ctx, userID)
	if err != nil {
		return "", apperr.Database("resolve user timezone", err)
	}
	if tz == nil {
		return c.DefaultTZName, nil
	}
	return tz.TZName, nil
}

// SetPendingEdit records that userID's next plain-text message should be
// applied as an edit to reminderID's target field, rather than parsed as
// a new reminder.
func (c *Controller) SetPendingEdit(userID int64, reminderID int64, target EditTarget) {
	c.pendingEditsMu.Lock()
	defer c.pendingEditsMu.Unlock()
	c.pendingEdits[userID] = PendingEdit{ReminderID: reminderID, Target: target}
}

// CancelPendingEdit clears any pending edit target for userID.
func (c *Controller) CancelPendingEdit(userID int64) {
	c.pendingEditsMu.Lock()
	defer c.pendingEditsMu.Unlock()
	delete(c.pendingEdits, userID)
}

// TakePendingEdit returns and clears userID's pending edit target, if any.
func (c *Controller) TakePendingEdit(userID int64) (PendingEdit, bool) {
	c.pendingEditsMu.Lock()
	defer c.pendingEditsMu.Unlock()
	pe, ok := c.pendingEdits[userID]
	if ok {
		delete(c.pendingEdits, userID)
	}
	return pe, ok
}

// HandleText implements the §9(b) state machine for a plain-text message:
// if the user has a pending edit target, apply it; otherwise try to parse
// a brand new reminder. The bool result reports whether text was consumed
// as an edit (true) or a new reminder (false), which the caller uses to
// pick the right confirmation reply.
func (c *Controller) HandleText(ctx context.Context, chatID, userID int64, text string) (rem *models.Reminder, wasEdit bool, err error) {
	if pe, ok := c.TakePendingEdit(userID); ok {
		rem, err := c.applyPendingEdit(ctx, pe, text)
		return rem, true, err
	}
	rem, err = c.Set(ctx, chatID, userID, text)
	return rem, false, err
}

func (c *Controller) applyPendingEdit(ctx context.Context, pe PendingEdit, text string) (*models.Reminder, error) {
	switch pe.Target {
	case EditTargetTimePattern:
		return c.EditTimePattern(ctx, pe.ReminderID, text)
	case EditTargetDescription:
		return c.EditDescription(ctx, pe.ReminderID, text)
	default:
		return nil, fmt.Errorf("controller: unknown edit target %d", pe.Target)
	}
}

// Set parses text, lifts it into a canonical pattern in userID's
// timezone, and persists a new reminder under a freshly generated rec_id.
func (c *Controller) Set(ctx context.Context, chatID, userID int64, text string) (*models.Reminder, error) {
	parsed, err := pattern.Parse(text)
	if err != nil {
		return nil, apperr.Parse("parse reminder text", err)
	}
	tzName, err := c.TimezoneFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lifted, err := pattern.Lift(parsed.Pattern, tzName, now)
	if err != nil {
		return nil, apperr.Parse("lift pattern", err)
	}
	next, ok, advanced, err := lifted.Next(now)
	if err != nil {
		return nil, apperr.Parse("compute first occurrence", err)
	}
	if !ok {
		return nil, apperr.Parse("pattern never fires", nil)
	}
	serialized, err := pattern.Serialize(advanced)
	if err != nil {
		return nil, apperr.Database("serialize pattern", err)
	}

	rem := &models.Reminder{
		RecID:          uuid.NewString(),
		ChatID:         chatID,
		UserID:         userID,
		Pattern:        serialized,
		Description:    parsed.Description,
		Time:           next,
		NagIntervalSec: parsed.NagIntervalSec,
	}
	if err := c.Reminders.Create(ctx, rem); err != nil {
		return nil, apperr.Database("create reminder", err)
	}
	return rem, nil
}

// EditTimePattern replaces a reminder's recurrence, re-lifting from
// scratch against the current instant, and closes any open occurrence
// (spec §4.F: "when the time pattern changes ... close any open
// occurrence").
func (c *Controller) EditTimePattern(ctx context.Context, reminderID int64, text string) (*models.Reminder, error) {
	rem, err := c.Reminders.GetByID(ctx, reminderID)
	if err != nil {
		return nil, apperr.Database("load reminder for edit", err)
	}
	if rem == nil {
		return nil, apperr.MissingContext("reminder no longer exists", nil)
	}

	parsed, err := pattern.Parse(text)
	if err != nil {
		return nil, apperr.Parse("parse new time pattern", err)
	}
	tzName, err := c.TimezoneFor(ctx, rem.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lifted, err := pattern.Lift(parsed.Pattern, tzName, now)
	if err != nil {
		return nil, apperr.Parse("lift pattern", err)
	}
	next, ok, advanced, err := lifted.Next(now)
	if err != nil {
		return nil, apperr.Parse("compute first occurrence", err)
	}
	if !ok {
		return nil, apperr.Parse("pattern never fires", nil)
	}
	serialized, err := pattern.Serialize(advanced)
	if err != nil {
		return nil, apperr.Database("serialize pattern", err)
	}

	if err := c.Occurrences.CloseOpenForReminder(ctx, reminderID, now, "edited"); err != nil {
		return nil, apperr.Database("close open occurrence on edit", err)
	}
	description := parsed.Description
	if description == "" {
		description = rem.Description
	}
	if err := c.Reminders.UpdatePattern(ctx, reminderID, serialized, description, next, parsed.NagIntervalSec); err != nil {
		return nil, apperr.Database("update reminder pattern", err)
	}
	return c.Reminders.GetByID(ctx, reminderID)
}

// EditDescription replaces only a reminder's description, leaving its
// schedule untouched.
func (c *Controller) EditDescription(ctx context.Context, reminderID int64, description string) (*models.Reminder, error) {
	rem, err := c.Reminders.GetByID(ctx, reminderID)
	if err != nil {
		return nil, apperr.Database("load reminder for edit", err)
	}
	if rem == nil {
		return nil, apperr.MissingContext("reminder no longer exists", nil)
	}
	if err := c.Reminders.UpdateDescription(ctx, reminderID, description); err != nil {
		return nil, apperr.Database("update reminder description", err)
	}
	return c.Reminders.GetByID(ctx, reminderID)
}

// EditByReply resolves the reminder a reply or edit targets: any message
// previously linked to a rec_id (spec §4.F "edit-by-reply").
func (c *Controller) EditByReply(ctx context.Context, chatID, msgID int64) (*models.Reminder, error) {
	link, err := c.Messages.ByChatAndMsg(ctx, chatID, msgID)
	if err != nil {
		return nil, apperr.Database("resolve reply target", err)
	}
	if link == nil {
		return nil, apperr.MissingContext("message is not linked to a reminder", nil)
	}
	rem, err := c.Reminders.GetByID(ctx, link.ReminderID)
	if err != nil {
		return nil, apperr.Database("load reminder for reply", err)
	}
	if rem == nil {
		return nil, apperr.MissingContext("reminder no longer exists", nil)
	}
	return rem, nil
}

// Pause toggles a reminder's paused flag. Pausing closes any open
// occurrence (spec §4.F); resuming leaves Time untouched, since Time is
// frozen while paused and the scheduler will pick it back up, refiring
// immediately if it has already passed.
func (c *Controller) Pause(ctx context.Context, reminderID int64) (paused bool, err error) {
	rem, err := c.Reminders.GetByID(ctx, reminderID)
	if err != nil {
		return false, apperr.Database("load reminder for pause toggle", err)
	}
	if rem == nil {
		return false, apperr.MissingContext("reminder no longer exists", nil)
	}
	newPaused := !rem.Paused
	if err := c.Reminders.SetPaused(ctx, reminderID, newPaused); err != nil {
		return false, apperr.Database("toggle reminder paused", err)
	}
	if newPaused {
		if err := c.Occurrences.CloseOpenForReminder(ctx, reminderID, time.Now().UTC(), "paused"); err != nil {
			return false, apperr.Database("close open occurrence on pause", err)
		}
	}
	return newPaused, nil
}

// Delete removes a reminder; reminder_message and occurrence rows cascade
// via the schema's foreign keys.
func (c *Controller) Delete(ctx context.Context, reminderID int64) error {
	if err := c.Reminders.Delete(ctx, reminderID); err != nil {
		return apperr.Database("delete reminder", err)
	}
	return nil
}

// List returns every reminder in chatID, soonest-firing first.
func (c *Controller) List(ctx context.Context, chatID int64) ([]*models.Reminder, error) {
	rems, err := c.Reminders.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, apperr.Database("list reminders", err)
	}
	return rems, nil
}

// Done marks an occurrence acknowledged. The caller (internal/bot) is
// responsible for clearing the delivery message's inline markup and
// tolerating the benign Telegram edit failures spec §7 names.
func (c *Controller) Done(ctx context.Context, occurrenceID int64) error {
	occ, err := c.Occurrences.GetByID(ctx, occurrenceID)
	if err != nil {
		return apperr.Database("load occurrence", err)
	}
	if occ == nil {
		return apperr.MissingContext("occurrence no longer exists", nil)
	}
	if err := c.Occurrences.Close(ctx, occurrenceID, time.Now().UTC(), "done"); err != nil {
		return apperr.Database("close occurrence", err)
	}
	return nil
}
