package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hray3182/remindee/internal/database"
	"github.com/hray3182/remindee/internal/models"
)

// UserPrefsRepository stores the small per-user key/value records:
// chosen timezone and chosen UI language.
type UserPrefsRepository struct {
	db *database.DB
}

func NewUserPrefsRepository(db *database.DB) *UserPrefsRepository {
	return &UserPrefsRepository{db: db}
}

func (r *UserPrefsRepository) GetTimezone(ctx context.Context, userID int64) (*models.UserTimezone, error) {
	tz := &models.UserTimezone{}
	err := r.db.Conn.QueryRowContext(ctx,
		`SELECT user_id, tz_name, set_at FROM user_timezone WHERE user_id = ?`, userID,
	).Scan(&tz.UserID, &tz.TZName, &tz.SetAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: get timezone for user %d: %w", userID, err)
	}
	return tz, nil
}

func (r *UserPrefsRepository) SetTimezone(ctx context.Context, userID int64, tzName string) error {
	_, err := r.db.Conn.ExecContext(ctx,
		`INSERT INTO user_timezone (user_id, tz_name) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET tz_name = excluded.tz_name, set_at = CURRENT_TIMESTAMP`,
		userID, tzName)
	if err != nil {
		return fmt.Errorf("repository: set timezone for user %d: %w", userID, err)
	}
	return nil
}

func (r *UserPrefsRepository) GetLanguage(ctx context.Context, userID int64) (*models.UserLanguage, error) {
	lang := &models.UserLanguage{}
	err := r.db.Conn.QueryRowContext(ctx,
		`SELECT user_id, code, set_at FROM user_language WHERE user_id = ?`, userID,
	).Scan(&lang.UserID, &lang.Code, &lang.SetAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: get language for user %d: %w", userID, err)
	}
	return lang, nil
}

func (r *UserPrefsRepository) SetLanguage(ctx context.Context, userID int64, code string) error {
	_, err := r.db.Conn.ExecContext(ctx,
		`INSERT INTO user_language (user_id, code) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET code = excluded.code, set_at = CURRENT_TIMESTAMP`,
		userID, code)
	if err != nil {
		return fmt.Errorf("repository: set language for user %d: %w", userID, err)
	}
	return nil
}
