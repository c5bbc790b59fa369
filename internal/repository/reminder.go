// Package repository is the data-access layer: one type per aggregate,
// explicit SQL, no ORM.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hray3182/remindee/internal/database"
	"github.com/hray3182/remindee/internal/models"
)

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	res, err := r.db.Conn.ExecContext(ctx,
		`INSERT INTO reminder (rec_id, chat_id, user_id, pattern, description, time, paused, nag_interval_sec)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		reminder.RecID, reminder.ChatID, reminder.UserID, reminder.Pattern, reminder.Description,
		reminder.Time.UTC(), reminder.Paused, reminder.NagIntervalSec,
	)
	if err != nil {
		return fmt.Errorf("repository: create reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("repository: create reminder: %w", err)
	}
	reminder.ID = id
	r.db.Wake()
	return nil
}

const reminderColumns = `id, rec_id, chat_id, user_id, pattern, description, time, paused, nag_interval_sec, created_at`

func scanReminder(row interface{ Scan(...any) error }) (*models.Reminder, error) {
	rem := &models.Reminder{}
	if err := row.Scan(&rem.ID, &rem.RecID, &rem.ChatID, &rem.UserID, &rem.Pattern,
		&rem.Description, &rem.Time, &rem.Paused, &rem.NagIntervalSec, &rem.CreatedAt); err != nil {
		return nil, err
	}
	return rem, nil
}

func (r *ReminderRepository) GetByID(ctx context.Context, id int64) (*models.Reminder, error) {
	row := r.db.Conn.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminder WHERE id = ?`, id)
	rem, err := scanReminder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: get reminder %d: %w", id, err)
	}
	return rem, nil
}

// GetByRecID looks up the reminder owning rec_id, the stable key message
// links and edit targets resolve against.
func (r *ReminderRepository) GetByRecID(ctx context.Context, recID string) (*models.Reminder, error) {
	row := r.db.Conn.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminder WHERE rec_id = ?`, recID)
	rem, err := scanReminder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: get reminder by rec_id %s: %w", recID, err)
	}
	return rem, nil
}

func (r *ReminderRepository) GetByChatID(ctx context.Context, chatID int64) ([]*models.Reminder, error) {
	rows, err := r.db.Conn.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminder WHERE chat_id = ? ORDER BY time ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("repository: list reminders for chat %d: %w", chatID, err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func scanReminders(rows *sql.Rows) ([]*models.Reminder, error) {
	var out []*models.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

// UpdatePattern replaces a reminder's pattern, description, next fire
// time, and nag interval in one write, keeping its RecID and ID stable
// across the edit so existing message links keep resolving to it.
func (r *ReminderRepository) UpdatePattern(ctx context.Context, id int64, pattern, description string, nextTime time.Time, nagIntervalSec *int64) error {
	_, err := r.db.Conn.ExecContext(ctx,
		`UPDATE reminder SET pattern = ?, description = ?, time = ?, nag_interval_sec = ? WHERE id = ?`,
		pattern, description, nextTime.UTC(), nagIntervalSec, id)
	if err != nil {
		return fmt.Errorf("repository: update reminder %d: %w", id, err)
	}
	r.db.Wake()
	return nil
}

// UpdateDescription replaces only the description, leaving the schedule
// untouched.
func (r *ReminderRepository) UpdateDescription(ctx context.Context, id int64, description string) error {
	_, err := r.db.Conn.ExecContext(ctx,
		`UPDATE reminder SET description = ? WHERE id = ?`, description, id)
	if err != nil {
		return fmt.Errorf("repository: update reminder %d description: %w", id, err)
	}
	r.db.Wake()
	return nil
}

func (r *ReminderRepository) SetPaused(ctx context.Context, id int64, paused bool) error {
	_, err := r.db.Conn.ExecContext(ctx,
		`UPDATE reminder SET paused = ? WHERE id = ?`, paused, id)
	if err != nil {
		return fmt.Errorf("repository: set paused on reminder %d: %w", id, err)
	}
	r.db.Wake()
	return nil
}

// Advance writes the next firing instant computed by pattern.Next,
// intended to be called right after a reminder fires so the write order
// makes fire-then-advance atomic from the scheduler's perspective.
func (r *ReminderRepository) Advance(ctx context.Context, id int64, nextTime time.Time) error {
	_, err := r.db.Conn.ExecContext(ctx,
		`UPDATE reminder SET time = ? WHERE id = ?`, nextTime.UTC(), id)
	if err != nil {
		return fmt.Errorf("repository: advance reminder %d: %w", id, err)
	}
	r.db.Wake()
	return nil
}

// Delete removes a reminder. Occurrences and reminder_message rows cascade
// via foreign-key ON DELETE CASCADE.
func (r *ReminderRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Conn.ExecContext(ctx, `DELETE FROM reminder WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("repository: delete reminder %d: %w", id, err)
	}
	r.db.Wake()
	return nil
}

// DueToFire returns unpaused reminders whose next firing instant has
// passed, ordered so the earliest fires first.
func (r *ReminderRepository) DueToFire(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	rows, err := r.db.Conn.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminder WHERE paused = 0 AND time <= ? ORDER BY time ASC, id ASC`,
		now.UTC())
	if err != nil {
		return nil, fmt.Errorf("repository: list due reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// NextDeadline returns the earliest time field among unpaused reminders,
// the ceiling the scheduler sleeps until absent any earlier nag deadline.
func (r *ReminderRepository) NextDeadline(ctx context.Context) (time.Time, bool, error) {
	var t time.Time
	err := r.db.Conn.QueryRowContext(ctx,
		`SELECT time FROM reminder WHERE paused = 0 ORDER BY time ASC LIMIT 1`,
	).Scan(&t)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("repository: next reminder deadline: %w", err)
	}
	return t, true, nil
}
