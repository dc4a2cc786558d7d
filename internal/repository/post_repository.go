package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, tx Tx, id int64) (*models.Post, error)
	ListByUserID(ctx context.Context, userID int64, status string) ([]*models.Post, error)
	ListPublishedByRecency(ctx context.Context, userID int64, limit int) ([]*models.Post, error)
	ListDueScheduled(ctx context.Context, before time.Time) ([]*models.Post, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	UpdateStatus(ctx context.Context, tx Tx, id int64, status string) error
	Remove(ctx context.Context, tx Tx, id int64) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, content, media_urls, scheduled_for, status, created_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.UserID, &post.Content, &post.MediaURLs,
		&post.ScheduledFor, &post.Status, &post.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, content, media_urls, scheduled_for, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := pick(r.db, tx).QueryRowContext(ctx, query,
		post.UserID, post.Content, post.MediaURLs, post.ScheduledFor, post.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, tx Tx, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(pick(r.db, tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// ListByUserID returns the user's posts ordered by scheduled time, with
// unscheduled drafts after all scheduled posts and creation order as the
// tie breaker. An empty status returns every post.
func (r *postRepository) ListByUserID(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1`
	args := []interface{}{userID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_for ASC NULLS LAST, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// ListPublishedByRecency orders published posts by the most recent
// publish time among their ledger rows, newest first.
func (r *postRepository) ListPublishedByRecency(ctx context.Context, userID int64, limit int) ([]*models.Post, error) {
	query := `
		SELECT p.id, p.user_id, p.content, p.media_urls, p.scheduled_for, p.status, p.created_at
		FROM posts p
		LEFT JOIN platform_posts pp ON pp.post_id = p.id
		WHERE p.user_id = $1 AND p.status = $2
		GROUP BY p.id
		ORDER BY MAX(pp.published_at) DESC NULLS LAST, p.id DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, models.PostStatusPublished, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// ListDueScheduled finds scheduled posts whose time has passed; the
// reconcile job re-enqueues them in case their publish task was lost.
func (r *postRepository) ListDueScheduled(ctx context.Context, before time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND scheduled_for <= $2`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := `SELECT 1 FROM posts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, tx Tx, id int64, status string) error {
	query := `UPDATE posts SET status = $1 WHERE id = $2`

	_, err := pick(r.db, tx).ExecContext(ctx, query, status, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, tx Tx, id int64) (bool, error) {
	query := `DELETE FROM posts WHERE id = $1`

	result, err := pick(r.db, tx).ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected > 0, nil
}
