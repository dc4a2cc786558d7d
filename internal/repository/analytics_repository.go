package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

type AnalyticsRepository interface {
	Create(ctx context.Context, tx Tx, snap *models.AnalyticsSnapshot) (int64, error)
	ListRecent(ctx context.Context, socialAccountID int64, limit int) ([]*models.AnalyticsSnapshot, error)
	Latest(ctx context.Context, socialAccountID int64) (*models.AnalyticsSnapshot, error)
	UpsertForDate(ctx context.Context, socialAccountID int64, date time.Time, patch models.Metrics) error
}

type analyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Create(ctx context.Context, tx Tx, snap *models.AnalyticsSnapshot) (int64, error) {
	query := `
		INSERT INTO analytics (social_account_id, date, metrics)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := pick(r.db, tx).QueryRowContext(ctx, query, snap.SocialAccountID, snap.Date, snap.Metrics).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *analyticsRepository) ListRecent(ctx context.Context, socialAccountID int64, limit int) ([]*models.AnalyticsSnapshot, error) {
	query := `
		SELECT id, social_account_id, date, metrics
		FROM analytics
		WHERE social_account_id = $1
		ORDER BY date DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, socialAccountID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var snaps []*models.AnalyticsSnapshot
	for rows.Next() {
		var snap models.AnalyticsSnapshot
		if err := rows.Scan(&snap.ID, &snap.SocialAccountID, &snap.Date, &snap.Metrics); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		snaps = append(snaps, &snap)
	}
	return snaps, rows.Err()
}

func (r *analyticsRepository) Latest(ctx context.Context, socialAccountID int64) (*models.AnalyticsSnapshot, error) {
	query := `
		SELECT id, social_account_id, date, metrics
		FROM analytics
		WHERE social_account_id = $1
		ORDER BY date DESC
		LIMIT 1
	`

	var snap models.AnalyticsSnapshot
	err := r.db.QueryRowContext(ctx, query, socialAccountID).Scan(&snap.ID, &snap.SocialAccountID, &snap.Date, &snap.Metrics)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &snap, nil
}

// UpsertForDate merges the patch into the sample for (account, date),
// creating the sample if the account has none for that date yet.
func (r *analyticsRepository) UpsertForDate(ctx context.Context, socialAccountID int64, date time.Time, patch models.Metrics) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO analytics (social_account_id, date, metrics)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (social_account_id, date)
		DO UPDATE SET metrics = analytics.metrics || EXCLUDED.metrics
	`
	_, err = r.db.ExecContext(ctx, query, socialAccountID, date, raw)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
