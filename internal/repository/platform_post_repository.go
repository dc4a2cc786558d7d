package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

type PlatformPostRepository interface {
	Create(ctx context.Context, tx Tx, pp *models.PlatformPost) (int64, error)
	GetByID(ctx context.Context, tx Tx, id int64) (*models.PlatformPost, error)
	ListByPostID(ctx context.Context, tx Tx, postID int64) ([]*models.PlatformPost, error)
	RecordOutcome(ctx context.Context, tx Tx, id int64, status, platformPostID, platformPostURL, errorMessage string, publishedAt *time.Time) error
	ResetFailedByPostID(ctx context.Context, tx Tx, postID int64) error
	MergeMetrics(ctx context.Context, id int64, patch models.Metrics) (*models.PlatformPost, error)
	RemoveByPostID(ctx context.Context, tx Tx, postID int64) error
}

type platformPostRepository struct {
	db *sql.DB
}

func NewPlatformPostRepository(db *sql.DB) PlatformPostRepository {
	return &platformPostRepository{db: db}
}

const platformPostColumns = `id, post_id, social_account_id, platform_status, COALESCE(platform_post_id, ''), COALESCE(platform_post_url, ''), COALESCE(error_message, ''), published_at, metrics`

func scanPlatformPost(row interface{ Scan(...interface{}) error }) (*models.PlatformPost, error) {
	var pp models.PlatformPost
	err := row.Scan(&pp.ID, &pp.PostID, &pp.SocialAccountID, &pp.PlatformStatus,
		&pp.PlatformPostID, &pp.PlatformPostURL, &pp.ErrorMessage, &pp.PublishedAt, &pp.Metrics)
	if err != nil {
		return nil, err
	}
	return &pp, nil
}

func (r *platformPostRepository) Create(ctx context.Context, tx Tx, pp *models.PlatformPost) (int64, error) {
	query := `
		INSERT INTO platform_posts (post_id, social_account_id, platform_status, metrics)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := pick(r.db, tx).QueryRowContext(ctx, query,
		pp.PostID, pp.SocialAccountID, pp.PlatformStatus, pp.Metrics).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *platformPostRepository) GetByID(ctx context.Context, tx Tx, id int64) (*models.PlatformPost, error) {
	query := `SELECT ` + platformPostColumns + ` FROM platform_posts WHERE id = $1`

	pp, err := scanPlatformPost(pick(r.db, tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return pp, nil
}

func (r *platformPostRepository) ListByPostID(ctx context.Context, tx Tx, postID int64) ([]*models.PlatformPost, error) {
	query := `SELECT ` + platformPostColumns + ` FROM platform_posts WHERE post_id = $1 ORDER BY id`

	rows, err := pick(r.db, tx).QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.PlatformPost
	for rows.Next() {
		pp, err := scanPlatformPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, pp)
	}
	return posts, rows.Err()
}

func (r *platformPostRepository) RecordOutcome(ctx context.Context, tx Tx, id int64, status, platformPostID, platformPostURL, errorMessage string, publishedAt *time.Time) error {
	query := `
		UPDATE platform_posts
		SET platform_status = $2,
			platform_post_id = NULLIF($3, ''),
			platform_post_url = NULLIF($4, ''),
			error_message = NULLIF($5, ''),
			published_at = $6
		WHERE id = $1
	`
	_, err := pick(r.db, tx).ExecContext(ctx, query, id, status, platformPostID, platformPostURL, errorMessage, publishedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ResetFailedByPostID returns a retried post's failed ledger rows to
// pending, clearing the previous attempt's outcome fields.
func (r *platformPostRepository) ResetFailedByPostID(ctx context.Context, tx Tx, postID int64) error {
	query := `
		UPDATE platform_posts
		SET platform_status = 'pending',
			platform_post_id = NULL,
			platform_post_url = NULL,
			error_message = NULL,
			published_at = NULL
		WHERE post_id = $1 AND platform_status = 'failed'
	`
	_, err := pick(r.db, tx).ExecContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MergeMetrics applies the patch as a single jsonb concatenation so
// concurrent telemetry ticks cannot clobber unrelated keys.
func (r *platformPostRepository) MergeMetrics(ctx context.Context, id int64, patch models.Metrics) (*models.PlatformPost, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE platform_posts
		SET metrics = metrics || $2::jsonb
		WHERE id = $1
		RETURNING ` + platformPostColumns

	pp, err := scanPlatformPost(r.db.QueryRowContext(ctx, query, id, raw))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return pp, nil
}

func (r *platformPostRepository) RemoveByPostID(ctx context.Context, tx Tx, postID int64) error {
	query := `DELETE FROM platform_posts WHERE post_id = $1`

	_, err := pick(r.db, tx).ExecContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
