package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hray3182/remindee/internal/database"
	"github.com/hray3182/remindee/internal/models"
)

type OccurrenceRepository struct {
	db *database.DB
}

func NewOccurrenceRepository(db *database.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

const occurrenceColumns = `id, reminder_id, fire_at, desc_snapshot, next_nag_at, nag_interval_sec, stop_at, done_at, closed_reason, created_at`

func scanOccurrence(row interface{ Scan(...any) error }) (*models.Occurrence, error) {
	occ := &models.Occurrence{}
	var closedReason sql.NullString
	if err := row.Scan(&occ.ID, &occ.ReminderID, &occ.FireAt, &occ.DescSnapshot,
		&occ.NextNagAt, &occ.NagIntervalSec, &occ.StopAt, &occ.DoneAt, &closedReason, &occ.CreatedAt); err != nil {
		return nil, err
	}
	occ.ClosedReason = closedReason.String
	return occ, nil
}

// Open opens a new occurrence for reminderID, due at fireAt and nagging
// every nagIntervalSec seconds until acknowledged. The schema's partial
// unique index on (reminder_id) WHERE done_at IS NULL enforces the
// at-most-one-open-occurrence invariant; a violation surfaces as a
// unique-constraint error.
func (r *OccurrenceRepository) Open(ctx context.Context, reminderID int64, fireAt time.Time, descSnapshot string, nagIntervalSec int64) (*models.Occurrence, error) {
	res, err := r.db.Conn.ExecContext(ctx,
		`INSERT INTO occurrence (reminder_id, fire_at, desc_snapshot, next_nag_at, nag_interval_sec)
		 VALUES (?, ?, ?, ?, ?)`,
		reminderID, fireAt.UTC(), descSnapshot, fireAt.UTC().Add(time.Duration(nagIntervalSec)*time.Second), nagIntervalSec)
	if err != nil {
		return nil, fmt.Errorf("repository: open occurrence for reminder %d: %w", reminderID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("repository: open occurrence for reminder %d: %w", reminderID, err)
	}
	r.db.Wake()
	return r.GetByID(ctx, id)
}

func (r *OccurrenceRepository) GetByID(ctx context.Context, id int64) (*models.Occurrence, error) {
	occ, err := scanOccurrence(r.db.Conn.QueryRowContext(ctx,
		`SELECT `+occurrenceColumns+` FROM occurrence WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: get occurrence %d: %w", id, err)
	}
	return occ, nil
}

// GetOpen returns the single open occurrence for reminderID, if any.
func (r *OccurrenceRepository) GetOpen(ctx context.Context, reminderID int64) (*models.Occurrence, error) {
	occ, err := scanOccurrence(r.db.Conn.QueryRowContext(ctx,
		`SELECT `+occurrenceColumns+` FROM occurrence WHERE reminder_id = ? AND done_at IS NULL`, reminderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: get open occurrence for reminder %d: %w", reminderID, err)
	}
	return occ, nil
}

// DueForNag returns open occurrences whose next nag instant has passed
// and that have not yet hit stop_at.
func (r *OccurrenceRepository) DueForNag(ctx context.Context, now time.Time) ([]*models.Occurrence, error) {
	rows, err := r.db.Conn.QueryContext(ctx,
		`SELECT `+occurrenceColumns+` FROM occurrence
		 WHERE done_at IS NULL AND next_nag_at <= ?
		 AND (stop_at IS NULL OR stop_at > ?)
		 ORDER BY next_nag_at ASC`, now.UTC(), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("repository: list occurrences due for nag: %w", err)
	}
	defer rows.Close()
	return scanOccurrences(rows)
}

// Expired returns open occurrences whose stop_at has passed without being
// acknowledged; the scheduler closes these without further nagging.
func (r *OccurrenceRepository) Expired(ctx context.Context, now time.Time) ([]*models.Occurrence, error) {
	rows, err := r.db.Conn.QueryContext(ctx,
		`SELECT `+occurrenceColumns+` FROM occurrence
		 WHERE done_at IS NULL AND stop_at IS NOT NULL AND stop_at <= ?`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("repository: list expired occurrences: %w", err)
	}
	defer rows.Close()
	return scanOccurrences(rows)
}

// NextNagDeadline returns the earliest next_nag_at among open occurrences.
// It does not look at stop_at, so an open occurrence past its stop
// deadline still counts until closeExpired closes it.
func (r *OccurrenceRepository) NextNagDeadline(ctx context.Context) (time.Time, bool, error) {
	var t time.Time
	err := r.db.Conn.QueryRowContext(ctx,
		`SELECT next_nag_at FROM occurrence WHERE done_at IS NULL ORDER BY next_nag_at ASC LIMIT 1`,
	).Scan(&t)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("repository: next nag deadline: %w", err)
	}
	return t, true, nil
}

func scanOccurrences(rows *sql.Rows) ([]*models.Occurrence, error) {
	var out []*models.Occurrence
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, occ)
	}
	return out, rows.Err()
}

// Nagged advances an occurrence's next nag deadline by its interval after
// a re-send.
func (r *OccurrenceRepository) Nagged(ctx context.Context, id int64, nextNagAt time.Time) error {
	_, err := r.db.Conn.ExecContext(ctx, `UPDATE occurrence SET next_nag_at = ? WHERE id = ?`, nextNagAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("repository: mark occurrence %d nagged: %w", id, err)
	}
	return nil
}

// SetStopAt fixes the instant after which an unacknowledged occurrence is
// closed without further nags.
func (r *OccurrenceRepository) SetStopAt(ctx context.Context, id int64, stopAt time.Time) error {
	_, err := r.db.Conn.ExecContext(ctx, `UPDATE occurrence SET stop_at = ? WHERE id = ?`, stopAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("repository: set stop_at on occurrence %d: %w", id, err)
	}
	return nil
}

// Close marks an occurrence done with reason, freeing the reminder to
// open its next occurrence.
func (r *OccurrenceRepository) Close(ctx context.Context, id int64, now time.Time, reason string) error {
	_, err := r.db.Conn.ExecContext(ctx,
		`UPDATE occurrence SET done_at = ?, closed_reason = ? WHERE id = ?`, now.UTC(), reason, id)
	if err != nil {
		return fmt.Errorf("repository: close occurrence %d: %w", id, err)
	}
	r.db.Wake()
	return nil
}

// CloseOpenForReminder closes any still-open occurrence of reminderID,
// used when a reminder is paused or its time pattern is edited. Deleting a
// reminder removes its occurrences through the foreign-key cascade instead.
func (r *OccurrenceRepository) CloseOpenForReminder(ctx context.Context, reminderID int64, now time.Time, reason string) error {
	_, err := r.db.Conn.ExecContext(ctx,
		`UPDATE occurrence SET done_at = ?, closed_reason = ? WHERE reminder_id = ? AND done_at IS NULL`,
		now.UTC(), reason, reminderID)
	if err != nil {
		return fmt.Errorf("repository: close open occurrences for reminder %d: %w", reminderID, err)
	}
	r.db.Wake()
	return nil
}
