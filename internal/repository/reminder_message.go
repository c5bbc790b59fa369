package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hray3182/remindee/internal/database"
	"github.com/hray3182/remindee/internal/models"
)

type ReminderMessageRepository struct {
	db *database.DB
}

func NewReminderMessageRepository(db *database.DB) *ReminderMessageRepository {
	return &ReminderMessageRepository{db: db}
}

const reminderMessageColumns = `id, reminder_id, occurrence_id, chat_id, message_id, is_delivery, reply_id, created_at`

func scanReminderMessage(row interface{ Scan(...any) error }) (*models.ReminderMessage, error) {
	m := &models.ReminderMessage{}
	if err := row.Scan(&m.ID, &m.ReminderID, &m.OccurrenceID, &m.ChatID, &m.MessageID,
		&m.IsDelivery, &m.ReplyID, &m.CreatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *ReminderMessageRepository) Create(ctx context.Context, msg *models.ReminderMessage) error {
	res, err := r.db.Conn.ExecContext(ctx,
		`INSERT INTO reminder_message (reminder_id, occurrence_id, chat_id, message_id, is_delivery, reply_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ReminderID, msg.OccurrenceID, msg.ChatID, msg.MessageID, msg.IsDelivery, msg.ReplyID)
	if err != nil {
		return fmt.Errorf("repository: create reminder message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("repository: create reminder message: %w", err)
	}
	msg.ID = id
	return nil
}

// ByChatAndMsg resolves a reply or edit target: the reminder_message
// linking a specific chat message back to its owning reminder.
func (r *ReminderMessageRepository) ByChatAndMsg(ctx context.Context, chatID, msgID int64) (*models.ReminderMessage, error) {
	m, err := scanReminderMessage(r.db.Conn.QueryRowContext(ctx,
		`SELECT `+reminderMessageColumns+` FROM reminder_message WHERE chat_id = ? AND message_id = ?`,
		chatID, msgID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: get reminder message for chat %d msg %d: %w", chatID, msgID, err)
	}
	return m, nil
}

// LatestDelivery returns the most recent delivery message recorded for
// reminderID in chatID, the message whose inline markup gets cleared or
// replaced when a nag re-sends or the user acknowledges.
func (r *ReminderMessageRepository) LatestDelivery(ctx context.Context, reminderID, chatID int64) (*models.ReminderMessage, error) {
	m, err := scanReminderMessage(r.db.Conn.QueryRowContext(ctx,
		`SELECT `+reminderMessageColumns+` FROM reminder_message
		 WHERE reminder_id = ? AND chat_id = ? AND is_delivery = 1
		 ORDER BY id DESC LIMIT 1`, reminderID, chatID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: get latest delivery for reminder %d: %w", reminderID, err)
	}
	return m, nil
}

// ForOccurrence returns every message delivered for an occurrence, in the
// order they were sent, so the bot can clear their inline markup on
// acknowledgement.
func (r *ReminderMessageRepository) ForOccurrence(ctx context.Context, occurrenceID int64) ([]*models.ReminderMessage, error) {
	rows, err := r.db.Conn.QueryContext(ctx,
		`SELECT `+reminderMessageColumns+` FROM reminder_message WHERE occurrence_id = ? ORDER BY id ASC`, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("repository: list messages for occurrence %d: %w", occurrenceID, err)
	}
	defer rows.Close()

	var out []*models.ReminderMessage
	for rows.Next() {
		m, err := scanReminderMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
