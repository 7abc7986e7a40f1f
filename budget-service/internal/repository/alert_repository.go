package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
)

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, user_id, type, message, threshold, year, month, is_read, created_at`

// CreateThresholdAlert inserts the alert unless one already exists for the
// same user, month and threshold. It reports whether a row was written.
func (r *AlertRepository) CreateThresholdAlert(ctx context.Context, alert *models.Alert) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, year, month, threshold) WHERE threshold IS NOT NULL DO NOTHING
	`,
		alert.ID, alert.UserID, alert.Type, alert.Message, alert.Threshold,
		alert.Year, alert.Month, alert.IsRead, alert.CreatedAt,
	)
	if err != nil {
		return false, errs.Store("create alert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Store("create alert", err)
	}
	return n > 0, nil
}

// ListUnread returns unread alerts newest first.
func (r *AlertRepository) ListUnread(ctx context.Context, userID string) ([]models.Alert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE user_id = $1 AND is_read = FALSE
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, errs.Store("list alerts", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, errs.Store("scan alert", err)
		}
		alerts = append(alerts, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("list alerts", err)
	}
	return alerts, nil
}

// MarkRead flags the alert as read if userID owns it. A missing alert and an
// alert owned by someone else are indistinguishable to the caller.
func (r *AlertRepository) MarkRead(ctx context.Context, alertID, userID string) (*models.Alert, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE alerts SET is_read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING `+alertColumns,
		alertID, userID,
	)
	alert, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrAlertNotFound
	}
	if err != nil {
		return nil, errs.Store("mark alert read", err)
	}
	return alert, nil
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var a models.Alert
	var threshold sql.NullInt32
	if err := row.Scan(
		&a.ID, &a.UserID, &a.Type, &a.Message, &threshold,
		&a.Year, &a.Month, &a.IsRead, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if threshold.Valid {
		t := int(threshold.Int32)
		a.Threshold = &t
	}
	return &a, nil
}
